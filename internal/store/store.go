// Package store is the single-table persistence layer. Every application
// record is an item in one sparse key space addressed by a partition key and
// a sort key; the sort-key prefix determines the entity type. Two backends
// implement the same contract: a DynamoDB table and a local JSON-file store
// used when no table is configured.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups when no item has the requested key.
// Absence is a valid outcome for lookups, distinct from I/O failure.
var ErrNotFound = errors.New("item not found")

// UnavailableError wraps a backend I/O failure. It is always surfaced to the
// caller, never silently ignored.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Key addresses one item.
type Key struct {
	PK string
	SK string
}

// Keys is embedded by every persisted entity and carries its addressing
// attributes through both backends.
type Keys struct {
	PK   string `json:"PK" dynamodbav:"PK"`
	SK   string `json:"SK" dynamodbav:"SK"`
	Type string `json:"type" dynamodbav:"type"`
}

func (k Keys) ItemKey() Key {
	return Key{PK: k.PK, SK: k.SK}
}

// Record is any entity the store can persist. EntityType must be callable on
// a zero value; entities return a constant.
type Record interface {
	ItemKey() Key
	EntityType() string
}

// Store is the backend contract. A backend is selected once at process start;
// entity logic never branches on which one is active.
//
// Scan is a linear filter over all items of one entity type. There is no
// secondary index behind it on either backend, so it gives no uniqueness
// guarantee and no O(1) lookup; callers needing "the" item take the first
// match.
type Store interface {
	// Get loads the item at key into out, or returns ErrNotFound.
	Get(ctx context.Context, key Key, out Record) error

	// Query returns all items in partition pk whose sort key starts with
	// skPrefix. newRec allocates one result record per item.
	Query(ctx context.Context, pk, skPrefix string, newRec func() Record) ([]Record, error)

	// Scan returns all items of entityType whose attribute attr equals value.
	Scan(ctx context.Context, entityType, attr, value string, newRec func() Record) ([]Record, error)

	// Put upserts the record under its own key. Saving the same record twice
	// is idempotent.
	Put(ctx context.Context, rec Record) error

	// Delete removes the item at key. Deleting an absent item is not an
	// error.
	Delete(ctx context.Context, key Key, entityType string) error
}
