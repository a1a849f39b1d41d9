package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/swizkhalifaa/Distributed-System-Project-C/auth"
	"github.com/swizkhalifaa/Distributed-System-Project-C/domain"
	"github.com/swizkhalifaa/Distributed-System-Project-C/errors"
	"github.com/swizkhalifaa/Distributed-System-Project-C/mocks"
)

func hashedUser(t *testing.T, username, credential string) domain.User {
	t.Helper()
	hash, err := auth.HashCredential(credential)
	require.NoError(t, err)
	return domain.User{
		ID:             uuid.New(),
		Username:       username,
		CredentialHash: hash,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestIdentityService_Authenticate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	t.Run("should create an account on first login", func(t *testing.T) {
		req := require.New(t)
		mockRepo := mocks.NewMockIUserRepository(ctrl)
		svc := NewIdentityService(mockRepo, slog.Default())

		mockRepo.EXPECT().
			GetUserByUsername(ctx, "alice").
			Return(domain.User{}, errors.ErrNotFound).
			Times(1)
		// The stored credential must be a hash, never the plain value.
		mockRepo.EXPECT().
			CreateUser(ctx, gomock.Cond(func(u domain.User) bool {
				return u.Username == "alice" && u.CredentialHash != "secret" && u.CredentialHash != ""
			})).
			Return(nil).
			Times(1)

		user, outcome, err := svc.Authenticate(ctx, "alice", "secret")
		req.NoError(err)
		req.Equal(OutcomeCreated, outcome)
		req.Equal("alice", user.Username)
	})

	t.Run("should authenticate an existing account with the right credential", func(t *testing.T) {
		req := require.New(t)
		mockRepo := mocks.NewMockIUserRepository(ctrl)
		svc := NewIdentityService(mockRepo, slog.Default())

		alice := hashedUser(t, "alice", "secret")
		mockRepo.EXPECT().
			GetUserByUsername(ctx, "alice").
			Return(alice, nil).
			Times(1)
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		user, outcome, err := svc.Authenticate(ctx, "alice", "secret")
		req.NoError(err)
		req.Equal(OutcomeAuthenticated, outcome)
		req.Equal(alice.ID, user.ID)
	})

	t.Run("should reject a wrong credential without mutation", func(t *testing.T) {
		req := require.New(t)
		mockRepo := mocks.NewMockIUserRepository(ctrl)
		svc := NewIdentityService(mockRepo, slog.Default())

		mockRepo.EXPECT().
			GetUserByUsername(ctx, "alice").
			Return(hashedUser(t, "alice", "secret"), nil).
			Times(1)
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		_, _, err := svc.Authenticate(ctx, "alice", "wrong")
		req.ErrorIs(err, errors.ErrAuthentication)
	})

	t.Run("should fail on empty fields before any store access", func(t *testing.T) {
		req := require.New(t)
		mockRepo := mocks.NewMockIUserRepository(ctrl)
		svc := NewIdentityService(mockRepo, slog.Default())

		mockRepo.EXPECT().GetUserByUsername(gomock.Any(), gomock.Any()).Times(0)
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		_, _, err := svc.Authenticate(ctx, "", "secret")
		req.ErrorIs(err, errors.ErrValidation)

		_, _, err = svc.Authenticate(ctx, "alice", "")
		req.ErrorIs(err, errors.ErrValidation)
	})

	t.Run("should fall back to the winner's row after losing the creation race", func(t *testing.T) {
		req := require.New(t)
		mockRepo := mocks.NewMockIUserRepository(ctrl)
		svc := NewIdentityService(mockRepo, slog.Default())

		winner := hashedUser(t, "alice", "secret")
		first := mockRepo.EXPECT().
			GetUserByUsername(ctx, "alice").
			Return(domain.User{}, errors.ErrNotFound).
			Times(1)
		create := mockRepo.EXPECT().
			CreateUser(ctx, gomock.Any()).
			Return(errors.ErrUsernameTaken).
			Times(1).
			After(first)
		mockRepo.EXPECT().
			GetUserByUsername(ctx, "alice").
			Return(winner, nil).
			Times(1).
			After(create)

		user, outcome, err := svc.Authenticate(ctx, "alice", "secret")
		req.NoError(err)
		req.Equal(OutcomeAuthenticated, outcome)
		req.Equal(winner.ID, user.ID)
	})
}
