package service

import (
	"context"

	"github.com/romanetflavia-png/Sales-Resolve1/internal/model"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/repository"
)

// messageServiceImpl is the production implementation of MessageService.
type messageServiceImpl struct {
	repo repository.MessageRepository
}

// NewMessageService creates a MessageService backed by the given repository.
func NewMessageService(repo repository.MessageRepository) MessageService {
	return &messageServiceImpl{repo: repo}
}

func (s *messageServiceImpl) Submit(ctx context.Context, in model.MessageInput) (*model.Message, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	return s.repo.Append(ctx, sanitizeInput(in))
}

func (s *messageServiceImpl) List(ctx context.Context) ([]*model.Message, error) {
	return s.repo.ReadAll(ctx)
}
