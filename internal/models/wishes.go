package models

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/legatera/legatera/internal/store"
)

// LastWishes holds an owner's final instructions. Each owner has at most one
// live record: saving supersedes any earlier record instead of accumulating.
type LastWishes struct {
	store.Keys
	ID                 string    `json:"id" dynamodbav:"id"`
	UserID             string    `json:"user_id" dynamodbav:"user_id"`
	FuneralPreferences string    `json:"funeral_preferences" dynamodbav:"funeral_preferences"`
	SpecialRequests    string    `json:"special_requests" dynamodbav:"special_requests"`
	PersonalMessage    string    `json:"personal_message" dynamodbav:"personal_message"`
	UpdatedAt          time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func NewLastWishes(ownerID, funeralPreferences, specialRequests, personalMessage string) *LastWishes {
	id := uuid.NewString()
	w := &LastWishes{
		ID:                 id,
		UserID:             ownerID,
		FuneralPreferences: funeralPreferences,
		SpecialRequests:    specialRequests,
		PersonalMessage:    personalMessage,
		UpdatedAt:          time.Now().UTC(),
	}
	w.PK = UserPK(ownerID)
	w.SK = SKPrefixWishes + id
	w.Type = TypeLastWishes
	return w
}

func (w *LastWishes) EntityType() string { return TypeLastWishes }

// Save deletes any earlier wishes for the owner before writing this record.
// Delete and put are two separate store operations, not a transaction; a
// crash between them can lose the old record without writing the new one.
func (w *LastWishes) Save(ctx context.Context, s store.Store) error {
	existing, err := s.Query(ctx, UserPK(w.UserID), SKPrefixWishes, func() store.Record { return &LastWishes{} })
	if err != nil {
		return err
	}
	for _, rec := range existing {
		if rec.ItemKey() == w.ItemKey() {
			continue
		}
		if err := s.Delete(ctx, rec.ItemKey(), TypeLastWishes); err != nil {
			return err
		}
	}
	return s.Put(ctx, w)
}

// LastWishesByOwner returns the owner's current wishes or store.ErrNotFound.
func LastWishesByOwner(ctx context.Context, s store.Store, ownerID string) (*LastWishes, error) {
	recs, err := s.Query(ctx, UserPK(ownerID), SKPrefixWishes, func() store.Record { return &LastWishes{} })
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, store.ErrNotFound
	}
	return recs[0].(*LastWishes), nil
}
