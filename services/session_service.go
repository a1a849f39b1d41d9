package services

import (
	"context"
	"log/slog"

	"github.com/swizkhalifaa/Distributed-System-Project-C/domain"
	"github.com/swizkhalifaa/Distributed-System-Project-C/repositories"
)

type ISessionService interface {
	Open(ctx context.Context, connectionID string, user domain.User) (domain.Session, error)
	Close(ctx context.Context, connectionID string) error
	Deactivate(connectionID string)
	Resolve(ctx context.Context, sessionID string) (domain.Session, error)
	ListActive(ctx context.Context) ([]domain.Session, error)
	ClearAll(ctx context.Context) error
}

type SessionService struct {
	sessionRepository repositories.ISessionRepository
	log               *slog.Logger
}

func NewSessionService(repo repositories.ISessionRepository, log *slog.Logger) ISessionService {
	return &SessionService{sessionRepository: repo, log: log}
}

// Open persists a session keyed by the connection id. A prior session
// under the same id is overwritten: a reconnect reusing an id counts
// as a fresh login.
func (s *SessionService) Open(ctx context.Context, connectionID string, user domain.User) (domain.Session, error) {
	session := domain.Session{ID: connectionID, User: user}
	if err := s.sessionRepository.PutSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	s.log.Info("Session opened", "connection", connectionID, "username", user.Username)
	return session, nil
}

// Close deletes the session for a connection id. Closing an absent id
// is a no-op.
func (s *SessionService) Close(ctx context.Context, connectionID string) error {
	return s.sessionRepository.DeleteSession(ctx, connectionID)
}

// Deactivate handles a transport-level disconnect. The session record
// deliberately survives until an explicit Logout or an administrative
// ClearAll; whether stale sessions should instead be reaped on
// disconnect is an open product decision, so the historical behavior
// is kept.
func (s *SessionService) Deactivate(connectionID string) {
	s.log.Debug("Connection dropped, session kept", "connection", connectionID)
}

// Resolve looks a session up by id, never trusting a caller's claimed
// identity.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) (domain.Session, error) {
	return s.sessionRepository.GetSession(ctx, sessionID)
}

// ListActive scans every current session in store iteration order.
func (s *SessionService) ListActive(ctx context.Context) ([]domain.Session, error) {
	return s.sessionRepository.ListSessions(ctx)
}

// ClearAll deletes every session. Administrative only; callers must
// reload to observe the effect.
func (s *SessionService) ClearAll(ctx context.Context) error {
	s.log.Warn("Clearing all sessions")
	return s.sessionRepository.DeleteAllSessions(ctx)
}
