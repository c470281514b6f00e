package checkpoint

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("checkpoint not found")

// Store persists checkpoints.
type Store interface {
	Save(ctx context.Context, cp Checkpoint) error
	// Load returns the most recently saved checkpoint.
	Load(ctx context.Context) (*Checkpoint, error)
	Close() error
}

// MultiStore saves to every store and loads from the first one.
type MultiStore struct {
	Stores []Store
}

// NewMultiStore creates a MultiStore.
func NewMultiStore(stores ...Store) *MultiStore {
	return &MultiStore{Stores: stores}
}

// Save forwards to all stores, returning the first error encountered.
func (m *MultiStore) Save(ctx context.Context, cp Checkpoint) error {
	for _, s := range m.Stores {
		if err := s.Save(ctx, cp); err != nil {
			return err
		}
	}
	return nil
}

// Load reads from the first store.
func (m *MultiStore) Load(ctx context.Context) (*Checkpoint, error) {
	if len(m.Stores) == 0 {
		return nil, ErrNotFound
	}
	return m.Stores[0].Load(ctx)
}

// Close closes every store and joins the errors.
func (m *MultiStore) Close() error {
	var errs []error
	for _, s := range m.Stores {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NopStore discards checkpoints.
type NopStore struct{}

func (NopStore) Save(context.Context, Checkpoint) error    { return nil }
func (NopStore) Load(context.Context) (*Checkpoint, error) { return nil, ErrNotFound }
func (NopStore) Close() error                              { return nil }
