package service

import (
	"context"

	"github.com/romanetflavia-png/Sales-Resolve1/internal/model"
)

// MessageService defines the business logic for contact message submissions.
type MessageService interface {
	// Submit validates and sanitizes in, then stores it. Validation failures
	// are returned as *ValidationError and never reach the repository.
	Submit(ctx context.Context, in model.MessageInput) (*model.Message, error)

	// List returns every stored message, newest first.
	List(ctx context.Context) ([]*model.Message, error)
}
