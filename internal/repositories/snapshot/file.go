package snapshot

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
)

// FileStore keeps one JSON envelope file per key in a directory
type FileStore struct {
	dir string
}

// NewFile creates a file-backed store rooted at dir, creating it when missing
func NewFile(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.InvalidArgument("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to create storage dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}

// Get reads the envelope file for a key
func (f *FileStore) Get(_ context.Context, input GetInput) (*GetOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument(errKeyEmpty)
	}

	raw, err := os.ReadFile(f.path(input.Key))
	if os.IsNotExist(err) {
		return &GetOutput{}, nil
	}
	if err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to read snapshot %s", input.Key)
	}

	s, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	return &GetOutput{Snapshot: s}, nil
}

// Set writes the envelope through a temp file and rename
func (f *FileStore) Set(_ context.Context, input SetInput) (*SetOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument(errKeyEmpty)
	}
	if input.Snapshot == nil {
		return nil, errors.InvalidArgument(errSnapshotNil)
	}

	raw, err := encodeEnvelope(input.Snapshot)
	if err != nil {
		return nil, err
	}

	target := f.path(input.Key)
	tmp, err := os.CreateTemp(f.dir, ".snapshot-*")
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to write temp file")
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to close temp file")
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to replace snapshot %s", input.Key)
	}

	return &SetOutput{}, nil
}

// Remove deletes the envelope file for a key
func (f *FileStore) Remove(_ context.Context, input RemoveInput) (*RemoveOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument(errKeyEmpty)
	}

	if err := os.Remove(f.path(input.Key)); err != nil && !os.IsNotExist(err) {
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to remove snapshot %s", input.Key)
	}
	return &RemoveOutput{}, nil
}
