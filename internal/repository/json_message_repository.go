package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/romanetflavia-png/Sales-Resolve1/internal/model"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/storage"
)

// JSONMessageRepository keeps the whole message collection as a single JSON
// array document in a storage.Storage.
//
// Appends are serialized by mu so the read-modify-persist cycle of one append
// never interleaves with another. Readers skip the lock: the storage replaces
// the document atomically, so they see either the old or the new array.
type JSONMessageRepository struct {
	store storage.Storage
	key   string

	mu sync.Mutex

	// generation changes after every persisted append; concurrent reads are
	// only coalesced within the same generation.
	generation atomic.Uint64
	reads      singleflight.Group

	now   func() time.Time
	newID func() (string, error)
}

// NewJSONMessageRepository creates a repository storing its document under key.
func NewJSONMessageRepository(store storage.Storage, key string) *JSONMessageRepository {
	return &JSONMessageRepository{
		store: store,
		key:   key,
		now:   func() time.Time { return time.Now().UTC() },
		newID: newMessageID,
	}
}

var (
	_ MessageRepository = (*JSONMessageRepository)(nil)
	_ DB                = (*JSONMessageRepository)(nil)
)

func newMessageID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Init writes an empty collection if no document exists yet. An existing
// document that cannot be decoded is reported as ErrStorage.
func (r *JSONMessageRepository) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.load(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotExist) {
		return err
	}
	if err := r.store.Replace(ctx, r.key, []byte("[]")); err != nil {
		return fmt.Errorf("%w: initialize %s: %v", ErrStorage, r.key, err)
	}
	r.generation.Add(1)
	return nil
}

func (r *JSONMessageRepository) Append(ctx context.Context, in model.MessageInput) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotExist) {
		return nil, err
	}

	receivedAt := r.now()
	if len(current) > 0 && receivedAt.Before(current[0].ReceivedAt) {
		receivedAt = current[0].ReceivedAt
	}

	id, err := r.newID()
	if err != nil {
		return nil, fmt.Errorf("%w: generate id: %v", ErrStorage, err)
	}

	msg := &model.Message{
		ID:               id,
		Name:             in.Name,
		Email:            in.Email,
		Message:          in.Message,
		SubmitterAddress: in.SubmitterAddress,
		ReceivedAt:       receivedAt,
	}

	next := make([]*model.Message, 0, len(current)+1)
	next = append(next, msg)
	next = append(next, current...)

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", ErrStorage, r.key, err)
	}
	if err := r.store.Replace(ctx, r.key, data); err != nil {
		return nil, fmt.Errorf("%w: write %s: %v", ErrStorage, r.key, err)
	}
	r.generation.Add(1)

	stored := *msg
	return &stored, nil
}

func (r *JSONMessageRepository) ReadAll(ctx context.Context) ([]*model.Message, error) {
	flight := "read:" + strconv.FormatUint(r.generation.Load(), 10)
	v, err, _ := r.reads.Do(flight, func() (interface{}, error) {
		return r.load(ctx)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return []*model.Message{}, nil
		}
		return nil, err
	}
	return cloneMessages(v.([]*model.Message)), nil
}

// load reads and decodes the document. storage.ErrNotExist is passed through
// unwrapped so callers can tell first run apart from failure.
func (r *JSONMessageRepository) load(ctx context.Context) ([]*model.Message, error) {
	data, err := r.store.Read(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, r.key, err)
	}

	var msgs []*model.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrStorage, r.key, err)
	}
	if msgs == nil {
		// A literal "null" document is not a collection.
		return nil, fmt.Errorf("%w: decode %s: document is not an array", ErrStorage, r.key)
	}
	for i, m := range msgs {
		if m == nil {
			return nil, fmt.Errorf("%w: decode %s: null entry at index %d", ErrStorage, r.key, i)
		}
	}
	return msgs, nil
}

// cloneMessages copies a shared decode result so each caller owns its slice.
func cloneMessages(src []*model.Message) []*model.Message {
	out := make([]*model.Message, len(src))
	for i, m := range src {
		c := *m
		out[i] = &c
	}
	return out
}

// Ping checks that the document is readable. An absent document is healthy.
func (r *JSONMessageRepository) Ping(ctx context.Context) error {
	_, err := r.load(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotExist) {
		return err
	}
	return nil
}
