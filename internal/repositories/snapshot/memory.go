package snapshot

import (
	"bytes"
	"context"
	"sync"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
)

type memoryStore struct {
	mu    sync.RWMutex
	items map[string]Snapshot
}

// NewMemory creates an in-memory store. Snapshots are copied in and out.
func NewMemory() Store {
	return &memoryStore{items: make(map[string]Snapshot)}
}

func (m *memoryStore) Get(_ context.Context, input GetInput) (*GetOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument(errKeyEmpty)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.items[input.Key]
	if !ok {
		return &GetOutput{}, nil
	}
	s.Data = bytes.Clone(s.Data)
	return &GetOutput{Snapshot: &s}, nil
}

func (m *memoryStore) Set(_ context.Context, input SetInput) (*SetOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument(errKeyEmpty)
	}
	if input.Snapshot == nil {
		return nil, errors.InvalidArgument(errSnapshotNil)
	}

	s := *input.Snapshot
	s.Data = bytes.Clone(s.Data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[input.Key] = s

	return &SetOutput{}, nil
}

func (m *memoryStore) Remove(_ context.Context, input RemoveInput) (*RemoveOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument(errKeyEmpty)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, input.Key)

	return &RemoveOutput{}, nil
}
