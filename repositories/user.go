//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/swizkhalifaa/Distributed-System-Project-C/domain"
	"github.com/swizkhalifaa/Distributed-System-Project-C/errors"
)

type IUserRepository interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// storedUser is the on-disk representation of a user record.
type storedUser struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	CredentialHash string `json:"credential_hash"`
	CreatedAt      int64  `json:"created_at"`
}

// CreateUser persists a user keyed by username. The existence check and
// the write share one Update transaction, so two concurrent creates for
// the same username serialize at the store and the loser gets
// ErrUsernameTaken. This is the conditional insert that keeps usernames
// unique under concurrency.
func (u UserRepository) CreateUser(ctx context.Context, user domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(fromUser(user))
	if err != nil {
		return errors.Storage("marshal user", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte(userKey(user.Username))
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUsernameTaken
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrUsernameTaken) {
			return err
		}
		return errors.Storage("create user", err)
	}
	return nil
}

// GetUserByUsername retrieves one user record, or ErrNotFound.
func (u UserRepository) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	var stored storedUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKey(username)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return domain.User{}, errors.ErrNotFound
		}
		return domain.User{}, errors.Storage("get user", err)
	}
	return toUser(stored)
}

func userKey(username string) string {
	return "user:" + username
}

func fromUser(user domain.User) storedUser {
	return storedUser{
		ID:             user.ID.String(),
		Username:       user.Username,
		CredentialHash: user.CredentialHash,
		CreatedAt:      user.CreatedAt.Unix(),
	}
}

func toUser(stored storedUser) (domain.User, error) {
	parsedID, err := uuid.Parse(stored.ID)
	if err != nil {
		return domain.User{}, errors.Storage("parse user id", err)
	}
	return domain.User{
		ID:             parsedID,
		Username:       stored.Username,
		CredentialHash: stored.CredentialHash,
		CreatedAt:      time.Unix(stored.CreatedAt, 0).UTC(),
	}, nil
}
