package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swizkhalifaa/Distributed-System-Project-C/domain"
	"github.com/swizkhalifaa/Distributed-System-Project-C/errors"
	"github.com/swizkhalifaa/Distributed-System-Project-C/repositories"
)

type IMessageService interface {
	Append(ctx context.Context, author domain.User, text string) (domain.Message, error)
	Replay(ctx context.Context) ([]domain.Message, error)
}

type MessageService struct {
	messageRepository repositories.IMessageRepository
	maxContentLength  int
}

func NewMessageService(repo repositories.IMessageRepository, maxContentLength int) IMessageService {
	return &MessageService{messageRepository: repo, maxContentLength: maxContentLength}
}

// Append persists one message under the author's identity with a
// server-assigned timestamp. Emptiness must already have been checked
// by the caller; an empty text reaching this point is an error, not a
// silent drop.
func (m *MessageService) Append(ctx context.Context, author domain.User, text string) (domain.Message, error) {
	if text == "" {
		return domain.Message{}, fmt.Errorf("%w: message text", errors.ErrValidation)
	}
	if m.maxContentLength > 0 && len(text) > m.maxContentLength {
		return domain.Message{}, fmt.Errorf("%w: message exceeds %d bytes", errors.ErrValidation, m.maxContentLength)
	}

	message := domain.Message{
		ID:      uuid.New(),
		Content: text,
		Author:  author,
		SentAt:  time.Now().UTC(),
	}
	if err := m.messageRepository.StoreMessage(ctx, message); err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// Replay returns the full history in store iteration order. The
// message keys sort chronologically, so the order is stable across
// repeated replays absent new writes.
func (m *MessageService) Replay(ctx context.Context) ([]domain.Message, error) {
	return m.messageRepository.GetMessages(ctx)
}
