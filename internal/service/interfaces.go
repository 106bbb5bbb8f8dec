// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"
)

// Store is the persistence boundary: a string-keyed blob store.
// Callers treat it as best-effort and never assume prior state is present.
type Store interface {
	// Persist writes value under key, replacing anything already there.
	Persist(ctx context.Context, key string, value []byte) error
	// Load returns the value stored under key. found is false when nothing is stored.
	Load(ctx context.Context, key string) (value []byte, found bool, err error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the store.
	Close() error
}

// Storage keys used by the engine.
const (
	KeyTransactions = "transactions"
	KeyAssignments  = "learning.assignments"
	KeyLearnedRules = "learning.rules"
	KeyStatistics   = "learning.statistics"
	KeyTagMappings  = "tagMappings"
)

// Progress receives batch progress updates.
type Progress interface {
	Start(total int, description string)
	Increment()
	Finish()
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
