//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/swizkhalifaa/Distributed-System-Project-C/domain"
	"github.com/swizkhalifaa/Distributed-System-Project-C/errors"
)

type IMessageRepository interface {
	StoreMessage(ctx context.Context, message domain.Message) error
	GetMessages(ctx context.Context) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) IMessageRepository {
	return &MessageRepository{db: db, log: log}
}

// storedMessage embeds a denormalized copy of the author taken at
// write time, matching the session store.
type storedMessage struct {
	ID      string     `json:"id"`
	Content string     `json:"content"`
	Author  storedUser `json:"author"`
	SentAt  int64      `json:"sent_at"`
}

// StoreMessage persists a message. The key is formatted as
// "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if
//     two messages arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(ctx context.Context, message domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := fmt.Sprintf("msg:%019d:%s", message.SentAt.UnixNano(), message.ID)
	data, err := json.Marshal(fromMessage(message))
	if err != nil {
		return errors.Storage("marshal message", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return errors.Storage("store message", err)
	}
	m.log.Debug("Message stored", "author", message.Author.Username, "at", message.SentAt)
	return nil
}

// GetMessages retrieves the full log using a prefix scan. Thanks to
// the padded timestamp in the key, messages come back naturally sorted
// by time, so repeated replays are stable absent new writes.
func (m MessageRepository) GetMessages(ctx context.Context) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("msg:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				raw = append(raw, append([]byte(nil), val...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Storage("list messages", err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var stored storedMessage
		if err := json.Unmarshal(b, &stored); err != nil {
			return nil, errors.Storage("unmarshal message", err)
		}
		message, err := toMessage(stored)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func fromMessage(message domain.Message) storedMessage {
	return storedMessage{
		ID:      message.ID.String(),
		Content: message.Content,
		Author:  fromUser(message.Author),
		SentAt:  message.SentAt.UnixNano(),
	}
}

func toMessage(stored storedMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(stored.ID)
	if err != nil {
		return domain.Message{}, errors.Storage("parse message id", err)
	}
	author, err := toUser(stored.Author)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:      parsedID,
		Content: stored.Content,
		Author:  author,
		SentAt:  time.Unix(0, stored.SentAt).UTC(),
	}, nil
}
