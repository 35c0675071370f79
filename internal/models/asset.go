package models

import (
	"context"

	"github.com/google/uuid"

	"github.com/legatera/legatera/internal/store"
)

// Asset is an estate item with an exact monetary value.
type Asset struct {
	store.Keys
	ID          string `json:"id" dynamodbav:"id"`
	UserID      string `json:"user_id" dynamodbav:"user_id"`
	Name        string `json:"name" dynamodbav:"name"`
	Description string `json:"description" dynamodbav:"description"`
	AssetType   string `json:"asset_type" dynamodbav:"asset_type"`
	Value       Money  `json:"value" dynamodbav:"value"`
	Location    string `json:"location" dynamodbav:"location"`
}

func NewAsset(ownerID, name, description, assetType string, value Money, location string) *Asset {
	id := uuid.NewString()
	a := &Asset{
		ID:          id,
		UserID:      ownerID,
		Name:        name,
		Description: description,
		AssetType:   assetType,
		Value:       value,
		Location:    location,
	}
	a.PK = UserPK(ownerID)
	a.SK = SKPrefixAsset + id
	a.Type = TypeAsset
	return a
}

func (a *Asset) EntityType() string { return TypeAsset }

func (a *Asset) Save(ctx context.Context, s store.Store) error {
	return s.Put(ctx, a)
}

func AssetsByOwner(ctx context.Context, s store.Store, ownerID string) ([]*Asset, error) {
	recs, err := s.Query(ctx, UserPK(ownerID), SKPrefixAsset, func() store.Record { return &Asset{} })
	if err != nil {
		return nil, err
	}
	return collect[*Asset](recs), nil
}
