package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LocalStore keeps each entity type in its own JSON array file under dir. The
// whole collection is reloaded on every access and rewritten wholesale on
// every mutation; there are no partial updates. A single mutex serializes
// file access across concurrent requests.
type LocalStore struct {
	mu     sync.Mutex
	dir    string
	logger *logrus.Logger
}

func NewLocalStore(dir string, logger *logrus.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &UnavailableError{Op: "init", Err: err}
	}
	return &LocalStore{dir: dir, logger: logger}, nil
}

func (s *LocalStore) path(entityType string) string {
	return filepath.Join(s.dir, entityType+".json")
}

// load reads the whole collection for one entity type. A missing file is an
// empty collection, not an error.
func (s *LocalStore) load(entityType string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.path(entityType))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to read local collection")
		return nil, &UnavailableError{Op: "load " + entityType, Err: err}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s collection: %w", entityType, err)
	}
	return items, nil
}

func (s *LocalStore) save(entityType string, items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s collection: %w", entityType, err)
	}
	if err := os.WriteFile(s.path(entityType), data, 0o600); err != nil {
		s.logger.WithError(err).Error("Failed to write local collection")
		return &UnavailableError{Op: "save " + entityType, Err: err}
	}
	return nil
}

type keyProbe struct {
	PK string `json:"PK"`
	SK string `json:"SK"`
}

func probeKey(raw json.RawMessage) (Key, error) {
	var probe keyProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Key{}, fmt.Errorf("decode item key: %w", err)
	}
	return Key{PK: probe.PK, SK: probe.SK}, nil
}

func (s *LocalStore) Get(_ context.Context, key Key, out Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(out.EntityType())
	if err != nil {
		return err
	}
	for _, raw := range items {
		k, err := probeKey(raw)
		if err != nil {
			return err
		}
		if k == key {
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("decode item: %w", err)
			}
			return nil
		}
	}
	return ErrNotFound
}

func (s *LocalStore) Query(_ context.Context, pk, skPrefix string, newRec func() Record) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(newRec().EntityType())
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, raw := range items {
		k, err := probeKey(raw)
		if err != nil {
			return nil, err
		}
		if k.PK != pk || !strings.HasPrefix(k.SK, skPrefix) {
			continue
		}
		rec := newRec()
		if err := json.Unmarshal(raw, rec); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *LocalStore) Scan(_ context.Context, entityType, attr, value string, newRec func() Record) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(entityType)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, raw := range items {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		if got, ok := fields[attr].(string); !ok || got != value {
			continue
		}
		rec := newRec()
		if err := json.Unmarshal(raw, rec); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *LocalStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entityType := rec.EntityType()
	items, err := s.load(entityType)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}

	// Upsert: replace an existing item with the same key, else append.
	key := rec.ItemKey()
	replaced := false
	for i, existing := range items {
		k, err := probeKey(existing)
		if err != nil {
			return err
		}
		if k == key {
			items[i] = raw
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, raw)
	}
	return s.save(entityType, items)
}

func (s *LocalStore) Delete(_ context.Context, key Key, entityType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(entityType)
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, raw := range items {
		k, err := probeKey(raw)
		if err != nil {
			return err
		}
		if k != key {
			kept = append(kept, raw)
		}
	}
	return s.save(entityType, kept)
}
