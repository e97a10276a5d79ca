package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names a group of records persisted as one unit.
type Collection string

const (
	CollectionUsers   Collection = "users"
	CollectionTickets Collection = "tickets"
)

// ErrIO marks failures reading or writing a backing resource.
var ErrIO = errors.New("record store i/o failure")

// Backend reads and writes whole encoded collections.
// Read reports found=false when the collection has never been written.
type Backend interface {
	Read(ctx context.Context, collection Collection) (data []byte, found bool, err error)
	Write(ctx context.Context, collection Collection, data []byte) error
	Ping(ctx context.Context) error
}

// RecordStore encodes collections as JSON documents on top of a Backend.
// It does not serialize writers; callers own the read-modify-write cycle.
type RecordStore struct {
	backend Backend
}

// NewRecordStore wraps backend.
func NewRecordStore(backend Backend) *RecordStore {
	return &RecordStore{backend: backend}
}

// Load decodes collection into dst. A collection that does not exist yet
// leaves dst untouched.
func (s *RecordStore) Load(ctx context.Context, collection Collection, dst any) error {
	data, found, err := s.backend.Read(ctx, collection)
	if err != nil {
		return fmt.Errorf("%w: load %s: %v", ErrIO, collection, err)
	}
	if !found || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrIO, collection, err)
	}
	return nil
}

// Save encodes v and replaces the stored collection.
func (s *RecordStore) Save(ctx context.Context, collection Collection, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := s.backend.Write(ctx, collection, data); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrIO, collection, err)
	}
	return nil
}

// Ping checks that the backend is reachable.
func (s *RecordStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}
