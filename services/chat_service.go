package services

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/swizkhalifaa/Distributed-System-Project-C/dispatch"
	"github.com/swizkhalifaa/Distributed-System-Project-C/domain"
	"github.com/swizkhalifaa/Distributed-System-Project-C/moderation"
)

type IChatService interface {
	Login(ctx context.Context, connectionID, username, credential string) (string, error)
	Send(ctx context.Context, sessionID, text string) error
	Load(ctx context.Context, connectionID string) error
	Logout(ctx context.Context, sessionID string) error
	Clear(ctx context.Context) error
	Disconnect(ctx context.Context, connectionID string)
}

// ChatService orchestrates the per-connection state machine:
// Anonymous -> Authenticated -> (Authenticated | Anonymous via logout)
// -> Closed. Each client action runs independently; the dispatcher is
// the only fan-out point.
type ChatService struct {
	identity  IIdentityService
	sessions  ISessionService
	messages  IMessageService
	moderator *moderation.Moderator
	dispatch  *dispatch.Dispatcher
	log       *slog.Logger
}

func NewChatService(
	identity IIdentityService,
	sessions ISessionService,
	messages IMessageService,
	moderator *moderation.Moderator,
	dispatcher *dispatch.Dispatcher,
	log *slog.Logger,
) *ChatService {
	return &ChatService{
		identity:  identity,
		sessions:  sessions,
		messages:  messages,
		moderator: moderator,
		dispatch:  dispatcher,
		log:       log,
	}
}

// Login authenticates the caller and opens a session bound to the
// connection id, which doubles as the opaque session token. All
// clients get a refresh signal; a failure reaches the caller only and
// leaves no state behind.
func (s *ChatService) Login(ctx context.Context, connectionID, username, credential string) (string, error) {
	user, outcome, err := s.identity.Authenticate(ctx, username, credential)
	if err != nil {
		return "", err
	}

	session, err := s.sessions.Open(ctx, connectionID, user)
	if err != nil {
		return "", err
	}

	s.log.Info("Login", "username", username, "created", outcome == OutcomeCreated)
	s.dispatch.NotifyLoginRefresh(ctx)
	return session.ID, nil
}

// Send persists and broadcasts one message under the session's user.
// Empty text is a silent no-op; an unknown session token fails with
// nothing persisted and nothing broadcast.
func (s *ChatService) Send(ctx context.Context, sessionID, text string) error {
	if text == "" {
		return nil
	}

	session, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil {
		return err
	}

	text = s.moderator.Censor(text)
	message, err := s.messages.Append(ctx, session.User, text)
	if err != nil {
		return err
	}

	s.dispatch.BroadcastMessage(ctx, message.Author.Username, message.Content)
	return nil
}

// Load replays the full message history and the active session
// usernames to the requesting connection only.
func (s *ChatService) Load(ctx context.Context, connectionID string) error {
	messages, err := s.messages.Replay(ctx)
	if err != nil {
		return err
	}
	sessions, err := s.sessions.ListActive(ctx)
	if err != nil {
		return err
	}

	usernames := lo.Map(sessions, func(session domain.Session, _ int) string {
		return session.User.Username
	})
	s.dispatch.ReplayTo(ctx, connectionID, messages, usernames)
	return nil
}

// Logout removes every session whose id matches the token and
// refreshes all clients per removal. A second call with the same token
// is a no-op.
func (s *ChatService) Logout(ctx context.Context, sessionID string) error {
	sessions, err := s.sessions.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if session.ID != sessionID {
			continue
		}
		if err := s.sessions.Close(ctx, session.ID); err != nil {
			return err
		}
		s.dispatch.NotifyLoginRefresh(ctx)
	}
	return nil
}

// Clear deletes all sessions. No broadcast goes out; clients observe
// the change on their next Load.
func (s *ChatService) Clear(ctx context.Context) error {
	return s.sessions.ClearAll(ctx)
}

// Disconnect handles the transport event: the disconnecting connection
// gets an ack and the session store is left untouched.
func (s *ChatService) Disconnect(ctx context.Context, connectionID string) {
	s.dispatch.NotifyDisconnected(ctx, connectionID)
	s.sessions.Deactivate(connectionID)
}
