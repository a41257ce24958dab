package storage

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Read when no document has been written under key.
var ErrNotExist = errors.New("storage: document does not exist")

// Storage abstracts a medium holding whole documents addressed by key.
// Replace must be all-or-nothing: a reader observes either the previous
// complete document or the new one, never a partial write.
type Storage interface {
	// Read returns the full content stored under key, or ErrNotExist.
	Read(ctx context.Context, key string) ([]byte, error)

	// Replace atomically swaps the document under key for data.
	Replace(ctx context.Context, key string, data []byte) error
}
