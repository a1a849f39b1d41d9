package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/swizkhalifaa/Distributed-System-Project-C/auth"
	"github.com/swizkhalifaa/Distributed-System-Project-C/domain"
	"github.com/swizkhalifaa/Distributed-System-Project-C/errors"
	"github.com/swizkhalifaa/Distributed-System-Project-C/repositories"
)

// Outcome tells a caller whether authentication hit an existing
// account or created a fresh one.
type Outcome int

const (
	OutcomeAuthenticated Outcome = iota
	OutcomeCreated
)

type IIdentityService interface {
	Authenticate(ctx context.Context, username, credential string) (domain.User, Outcome, error)
}

type IdentityService struct {
	userRepository repositories.IUserRepository
	log            *slog.Logger
}

func NewIdentityService(repo repositories.IUserRepository, log *slog.Logger) IIdentityService {
	return &IdentityService{userRepository: repo, log: log}
}

// Authenticate resolves a username/credential pair to a User.
// An unseen username registers a new account (OutcomeCreated); a known
// username must present the matching credential. Empty input fails
// before any store access.
//
// Two concurrent first logins for the same username both see "no
// match"; the store's conditional insert lets exactly one create the
// account and the loser falls through to a plain credential check
// against the winner's record.
func (s *IdentityService) Authenticate(ctx context.Context, username, credential string) (domain.User, Outcome, error) {
	valReq := auth.LoginRequest{
		Username:   username,
		Credential: credential,
	}
	if err := auth.ValidateLogin(valReq); err != nil {
		return domain.User{}, 0, err
	}

	existing, err := s.userRepository.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return s.verify(existing, credential)
	case stderrors.Is(err, errors.ErrNotFound):
		return s.register(ctx, username, credential)
	default:
		return domain.User{}, 0, err
	}
}

func (s *IdentityService) verify(user domain.User, credential string) (domain.User, Outcome, error) {
	match, err := auth.CompareCredential(credential, user.CredentialHash)
	if err != nil || !match {
		return domain.User{}, 0, errors.ErrAuthentication
	}
	return user, OutcomeAuthenticated, nil
}

func (s *IdentityService) register(ctx context.Context, username, credential string) (domain.User, Outcome, error) {
	// Hashing happens here so the repository never sees a plain
	// credential.
	hash, err := auth.HashCredential(credential)
	if err != nil {
		return domain.User{}, 0, fmt.Errorf("hashing failed: %w", err)
	}

	user := domain.User{
		ID:             uuid.New(),
		Username:       username,
		CredentialHash: hash,
		CreatedAt:      time.Now().UTC(),
	}
	err = s.userRepository.CreateUser(ctx, user)
	if err == nil {
		s.log.Info("New account registered", "username", username)
		return user, OutcomeCreated, nil
	}
	if !stderrors.Is(err, errors.ErrUsernameTaken) {
		return domain.User{}, 0, err
	}

	// Lost the creation race; authenticate against the winner's row.
	winner, err := s.userRepository.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, 0, err
	}
	return s.verify(winner, credential)
}
