package models

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/legatera/legatera/internal/store"
)

// Trustee links an owner to another user entrusted with the owner's estate.
// NotificationTriggered and TriggeredAt are the only fields that change after
// creation.
type Trustee struct {
	store.Keys
	ID                    string     `json:"id" dynamodbav:"id"`
	UserID                string     `json:"user_id" dynamodbav:"user_id"`
	TrusteeUserID         string     `json:"trustee_user_id" dynamodbav:"trustee_user_id"`
	NotificationTriggered bool       `json:"notification_triggered" dynamodbav:"notification_triggered"`
	TriggeredAt           *time.Time `json:"triggered_at" dynamodbav:"triggered_at"`
}

func NewTrustee(ownerID, trusteeUserID string) *Trustee {
	id := uuid.NewString()
	t := &Trustee{
		ID:            id,
		UserID:        ownerID,
		TrusteeUserID: trusteeUserID,
	}
	t.PK = UserPK(ownerID)
	t.SK = SKPrefixTrustee + id
	t.Type = TypeTrustee
	return t
}

func (t *Trustee) EntityType() string { return TypeTrustee }

// TriggerNotification marks the trustee as having been notified of the
// owner's passing. Triggering twice keeps the original timestamp.
func (t *Trustee) TriggerNotification(now time.Time) {
	if t.NotificationTriggered {
		return
	}
	t.NotificationTriggered = true
	ts := now.UTC()
	t.TriggeredAt = &ts
}

func (t *Trustee) Save(ctx context.Context, s store.Store) error {
	return s.Put(ctx, t)
}

// TrusteesByOwner returns all trustees the owner has designated.
func TrusteesByOwner(ctx context.Context, s store.Store, ownerID string) ([]*Trustee, error) {
	recs, err := s.Query(ctx, UserPK(ownerID), SKPrefixTrustee, func() store.Record { return &Trustee{} })
	if err != nil {
		return nil, err
	}
	return collect[*Trustee](recs), nil
}

// TrusteesByTrusteeID returns every trustee link pointing at the given user,
// across all owners. This is a full scan, not an indexed lookup.
func TrusteesByTrusteeID(ctx context.Context, s store.Store, trusteeUserID string) ([]*Trustee, error) {
	recs, err := s.Scan(ctx, TypeTrustee, "trustee_user_id", trusteeUserID, func() store.Record { return &Trustee{} })
	if err != nil {
		return nil, err
	}
	return collect[*Trustee](recs), nil
}
