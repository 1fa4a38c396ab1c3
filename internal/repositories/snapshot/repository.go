// Package snapshot provides versioned persistence of the character roster
// and the adapter that pairs a store with cross-instance change notification.
package snapshot

//go:generate mockgen -destination=mock/mock_store.go -package=snapshotmock github.com/KirkDiggler/rpg-sheet/internal/repositories/snapshot Store

import (
	"context"
)

// Store persists one snapshot per key
type Store interface {
	// Get retrieves the snapshot stored under a key
	// Returns a nil Snapshot (and no error) when the key is absent
	// Returns errors.InvalidArgument for an empty key
	// Returns errors.Serialization when the stored envelope cannot be decoded
	// Returns errors.Unavailable for storage failures
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Set replaces the snapshot stored under a key
	// Returns errors.InvalidArgument for an empty key or nil snapshot
	// Returns errors.Serialization when the envelope cannot be encoded
	// Returns errors.Unavailable for storage failures
	Set(ctx context.Context, input SetInput) (*SetOutput, error)

	// Remove deletes the key; removing an absent key is not an error
	// Returns errors.InvalidArgument for an empty key
	// Returns errors.Unavailable for storage failures
	Remove(ctx context.Context, input RemoveInput) (*RemoveOutput, error)
}

// GetInput defines the input for reading a snapshot
type GetInput struct {
	Key string
}

// GetOutput defines the output for reading a snapshot
type GetOutput struct {
	Snapshot *Snapshot
}

// SetInput defines the input for writing a snapshot
type SetInput struct {
	Key      string
	Snapshot *Snapshot
}

// SetOutput defines the output for writing a snapshot
type SetOutput struct{}

// RemoveInput defines the input for removing a snapshot
type RemoveInput struct {
	Key string
}

// RemoveOutput defines the output for removing a snapshot
type RemoveOutput struct{}

const (
	errKeyEmpty      = "key cannot be empty"
	errSnapshotNil   = "snapshot cannot be nil"
	errConfigMissing = "config cannot be nil"
)
