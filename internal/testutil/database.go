// Package testutil provides shared test helpers for the tally packages.
package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Veraticus/tally/internal/service"
	"github.com/Veraticus/tally/internal/storage"
)

// SetupTestStore creates a migrated in-memory SQLite store that is closed when the test ends.
//
// Example:
//
//	store := testutil.SetupTestStore(t)
//	coordinator := learning.NewCoordinator(store, learning.Config{})
func SetupTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()

	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// ErrStoreUnavailable is returned by FailingStore for every operation.
var ErrStoreUnavailable = errors.New("store unavailable")

// FailingStore is a service.Store whose writes and reads always fail. It counts calls so tests
// can assert that persistence was attempted.
type FailingStore struct {
	calls map[string]int
	mu    sync.Mutex
}

var _ service.Store = (*FailingStore)(nil)

// NewFailingStore creates a store that rejects every call.
func NewFailingStore() *FailingStore {
	return &FailingStore{calls: make(map[string]int)}
}

func (f *FailingStore) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

// Calls returns how many times op ("persist", "load", "delete") was invoked.
func (f *FailingStore) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Persist always fails.
func (f *FailingStore) Persist(context.Context, string, []byte) error {
	f.record("persist")
	return ErrStoreUnavailable
}

// Load always fails.
func (f *FailingStore) Load(context.Context, string) ([]byte, bool, error) {
	f.record("load")
	return nil, false, ErrStoreUnavailable
}

// Delete always fails.
func (f *FailingStore) Delete(context.Context, string) error {
	f.record("delete")
	return ErrStoreUnavailable
}

// Close is a no-op.
func (f *FailingStore) Close() error {
	return nil
}
