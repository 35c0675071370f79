package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/legatera/legatera/internal/store"
)

// Message is a posthumous message held for a recipient. SentAt stays nil
// until the delivery worker dispatches it, and is set exactly once.
type Message struct {
	store.Keys
	ID          string     `json:"id" dynamodbav:"id"`
	UserID      string     `json:"user_id" dynamodbav:"user_id"`
	RecipientID string     `json:"recipient_id" dynamodbav:"recipient_id"`
	Content     string     `json:"content" dynamodbav:"content"`
	MediaURL    string     `json:"media_url" dynamodbav:"media_url"`
	DelayDays   int        `json:"delay_days" dynamodbav:"delay_days"`
	CreatedAt   time.Time  `json:"created_at" dynamodbav:"created_at"`
	SentAt      *time.Time `json:"sent_at" dynamodbav:"sent_at"`
}

func NewMessage(ownerID, recipientID, content, mediaURL string, delayDays int) (*Message, error) {
	if delayDays < 0 {
		return nil, fmt.Errorf("delay_days must not be negative, got %d", delayDays)
	}

	id := uuid.NewString()
	m := &Message{
		ID:          id,
		UserID:      ownerID,
		RecipientID: recipientID,
		Content:     content,
		MediaURL:    mediaURL,
		DelayDays:   delayDays,
		CreatedAt:   time.Now().UTC(),
	}
	m.PK = UserPK(ownerID)
	m.SK = SKPrefixMessage + id
	m.Type = TypeMessage
	return m, nil
}

func (m *Message) EntityType() string { return TypeMessage }

// MarkSent records the dispatch time. Marking twice keeps the first one.
func (m *Message) MarkSent(now time.Time) {
	if m.SentAt != nil {
		return
	}
	ts := now.UTC()
	m.SentAt = &ts
}

func (m *Message) Save(ctx context.Context, s store.Store) error {
	return s.Put(ctx, m)
}

func MessagesByOwner(ctx context.Context, s store.Store, ownerID string) ([]*Message, error) {
	recs, err := s.Query(ctx, UserPK(ownerID), SKPrefixMessage, func() store.Record { return &Message{} })
	if err != nil {
		return nil, err
	}
	return collect[*Message](recs), nil
}
