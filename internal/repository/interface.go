package repository

import (
	"context"

	"github.com/romanetflavia-png/Sales-Resolve1/internal/model"
)

// MessageRepository is the persistence interface for contact messages.
type MessageRepository interface {
	// Append assigns ID and ReceivedAt, stores the message at the head of the
	// collection and returns the stored copy. Concurrent calls never lose
	// each other's entries.
	Append(ctx context.Context, in model.MessageInput) (*model.Message, error)

	// ReadAll returns every stored message, newest first. An absent document
	// yields an empty slice.
	ReadAll(ctx context.Context) ([]*model.Message, error)
}

// DB reports whether the underlying persistence is usable.
type DB interface {
	Ping(ctx context.Context) error
}
