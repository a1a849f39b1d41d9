//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_session_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/swizkhalifaa/Distributed-System-Project-C/domain"
	"github.com/swizkhalifaa/Distributed-System-Project-C/errors"
)

type ISessionRepository interface {
	PutSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
	ListSessions(ctx context.Context) ([]domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteAllSessions(ctx context.Context) error
}

type SessionRepository struct {
	db *badger.DB
}

func NewSessionRepository(db *badger.DB) ISessionRepository {
	return &SessionRepository{db: db}
}

const sessionPrefix = "session:"

// storedSession embeds the full user record taken at login time, as the
// message store does. Session ids are connection ids, never generated.
type storedSession struct {
	ID   string     `json:"id"`
	User storedUser `json:"user"`
}

// PutSession writes the session keyed by its connection id, replacing
// any previous session for that id. A reconnect reusing an id is a
// fresh login.
func (s SessionRepository) PutSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(storedSession{ID: session.ID, User: fromUser(session.User)})
	if err != nil {
		return errors.Storage("marshal session", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionPrefix+session.ID), data)
	})
	if err != nil {
		return errors.Storage("put session", err)
	}
	return nil
}

// GetSession retrieves the session for a connection id, or ErrNotFound.
func (s SessionRepository) GetSession(ctx context.Context, id string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	var stored storedSession
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return domain.Session{}, errors.ErrNotFound
		}
		return domain.Session{}, errors.Storage("get session", err)
	}
	return toSession(stored)
}

// ListSessions scans every session in store iteration order. No
// ordering is guaranteed beyond key order.
func (s SessionRepository) ListSessions(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(sessionPrefix)
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
		return nil, errors.Storage("list sessions", err)
	}

	sessions := make([]domain.Session, 0, len(raw))
	for _, b := range raw {
		var stored storedSession
		if err := json.Unmarshal(b, &stored); err != nil {
			return nil, errors.Storage("unmarshal session", err)
		}
		session, err := toSession(stored)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// DeleteSession removes one session. Deleting an absent id is a no-op.
func (s SessionRepository) DeleteSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionPrefix + id))
	})
	if err != nil {
		return errors.Storage("delete session", err)
	}
	return nil
}

// DeleteAllSessions drops every session record. Administrative only.
func (s SessionRepository) DeleteAllSessions(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
		defer it.Close()

		prefix := []byte(sessionPrefix)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Storage("delete all sessions", err)
	}
	return nil
}

func toSession(stored storedSession) (domain.Session, error) {
	user, err := toUser(stored.User)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{ID: stored.ID, User: user}, nil
}
