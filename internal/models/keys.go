// Package models defines the persisted entities. They all live in one
// logical table: the partition key groups items by owning user, the sort-key
// prefix identifies the entity type and enables "all items of type T owned by
// user U" range queries. Identifiers are assigned at construction and never
// change or get reused.
package models

import (
	"github.com/legatera/legatera/internal/store"
)

// Entity type discriminators. They double as the local backend's collection
// names.
const (
	TypeUser       = "user"
	TypeTrustee    = "trustee"
	TypeMessage    = "message"
	TypeAsset      = "asset"
	TypeLastWishes = "last_wishes"
)

// Sort-key prefixes per entity type.
const (
	skPrefixProfile = "PROFILE#"
	SKPrefixTrustee = "TRUSTEE#"
	SKPrefixMessage = "MESSAGE#"
	SKPrefixAsset   = "ASSET#"
	SKPrefixWishes  = "WISHES#"
)

// UserPK is the partition key for a user and everything the user owns.
func UserPK(userID string) string {
	return "USER#" + userID
}

// collect converts generic query results back to their concrete type.
func collect[T store.Record](recs []store.Record) []T {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.(T))
	}
	return out
}
