package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/swizkhalifaa/Distributed-System-Project-C/dispatch"
	"github.com/swizkhalifaa/Distributed-System-Project-C/domain/event"
	"github.com/swizkhalifaa/Distributed-System-Project-C/errors"
	"github.com/swizkhalifaa/Distributed-System-Project-C/moderation"
	"github.com/swizkhalifaa/Distributed-System-Project-C/repositories"
)

// recordingSink captures everything a connection would receive.
type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// take returns the recorded events and clears the buffer.
func (s *recordingSink) take() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}

type chatFixture struct {
	chat     *ChatService
	registry *dispatch.Registry
	alice    *recordingSink
	bob      *recordingSink
}

func newChatFixture(t *testing.T, censoredWords []string) chatFixture {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	moderator, err := moderation.NewModerator(censoredWords, '*')
	req.NoError(err)

	registry := dispatch.NewRegistry()
	dispatcher := dispatch.NewDispatcher(registry, log)

	identity := NewIdentityService(repositories.NewUserRepository(db), log)
	sessions := NewSessionService(repositories.NewSessionRepository(db), log)
	messages := NewMessageService(repositories.NewMessageRepository(db, log), 1024)
	chat := NewChatService(identity, sessions, messages, moderator, dispatcher, log)

	alice := &recordingSink{}
	bob := &recordingSink{}
	registry.Subscribe("conn-alice", alice)
	registry.Subscribe("conn-bob", bob)

	return chatFixture{chat: chat, registry: registry, alice: alice, bob: bob}
}

func Test_Chat_Scenario(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	fx := newChatFixture(t, nil)

	// alice logs in with a new account: the token is her connection id
	// and everyone gets a refresh signal.
	tokenAlice, err := fx.chat.Login(ctx, "conn-alice", "alice", "secret")
	req.NoError(err)
	req.Equal("conn-alice", tokenAlice)
	req.Equal([]event.DomainEvent{event.RefreshSignal{}}, fx.alice.take())
	req.Equal([]event.DomainEvent{event.RefreshSignal{}}, fx.bob.take())

	tokenBob, err := fx.chat.Login(ctx, "conn-bob", "bob", "hunter2")
	req.NoError(err)
	req.Equal("conn-bob", tokenBob)
	fx.alice.take()
	fx.bob.take()

	// alice sends "hi": both connections receive it, sender included.
	req.NoError(fx.chat.Send(ctx, tokenAlice, "hi"))
	want := event.MessageBroadcast{Username: "alice", Content: "hi"}
	req.Equal([]event.DomainEvent{want}, fx.alice.take())
	req.Equal([]event.DomainEvent{want}, fx.bob.take())

	// bob loads: history first, then active users, caller only.
	req.NoError(fx.chat.Load(ctx, "conn-bob"))
	req.Empty(fx.alice.take())
	got := fx.bob.take()
	req.Equal(want, got[0])
	req.ElementsMatch([]event.DomainEvent{
		event.ActiveUserAnnounced{Username: "alice"},
		event.ActiveUserAnnounced{Username: "bob"},
	}, got[1:])

	// alice logs out: her session goes away and both get a refresh.
	req.NoError(fx.chat.Logout(ctx, tokenAlice))
	req.Equal([]event.DomainEvent{event.RefreshSignal{}}, fx.alice.take())
	req.Equal([]event.DomainEvent{event.RefreshSignal{}}, fx.bob.take())

	// A second logout with the same token is a silent no-op.
	req.NoError(fx.chat.Logout(ctx, tokenAlice))
	req.Empty(fx.alice.take())
	req.Empty(fx.bob.take())

	// bob loads again: history unchanged, only bob is active.
	req.NoError(fx.chat.Load(ctx, "conn-bob"))
	got = fx.bob.take()
	req.Equal([]event.DomainEvent{
		want,
		event.ActiveUserAnnounced{Username: "bob"},
	}, got)
}

func Test_Send_Edge_Cases(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	fx := newChatFixture(t, nil)

	token, err := fx.chat.Login(ctx, "conn-alice", "alice", "secret")
	req.NoError(err)
	fx.alice.take()
	fx.bob.take()

	// Empty text is a silent no-op: nothing persisted, nothing sent.
	req.NoError(fx.chat.Send(ctx, token, ""))
	req.Empty(fx.alice.take())
	req.Empty(fx.bob.take())

	// Unknown session token: rejected, nothing broadcast.
	err = fx.chat.Send(ctx, "bogus-token", "hello")
	req.ErrorIs(err, errors.ErrNotFound)
	req.Empty(fx.alice.take())
	req.Empty(fx.bob.take())

	// History must still be empty after both failures.
	req.NoError(fx.chat.Load(ctx, "conn-bob"))
	got := fx.bob.take()
	req.Equal([]event.DomainEvent{event.ActiveUserAnnounced{Username: "alice"}}, got)
}

func Test_Send_Censors_Configured_Words(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	fx := newChatFixture(t, []string{"darn"})

	token, err := fx.chat.Login(ctx, "conn-alice", "alice", "secret")
	req.NoError(err)
	fx.alice.take()
	fx.bob.take()

	req.NoError(fx.chat.Send(ctx, token, "darn it"))
	got := fx.bob.take()
	req.Len(got, 1)
	req.Equal(event.MessageBroadcast{Username: "alice", Content: "**** it"}, got[0])

	// The censored form is what got persisted, too.
	req.NoError(fx.chat.Load(ctx, "conn-bob"))
	got = fx.bob.take()
	req.Equal(event.MessageBroadcast{Username: "alice", Content: "**** it"}, got[0])
}

func Test_Login_Failures_Leave_No_State(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	fx := newChatFixture(t, nil)

	_, err := fx.chat.Login(ctx, "conn-alice", "alice", "secret")
	req.NoError(err)
	fx.alice.take()
	fx.bob.take()

	// Wrong credential: falsy token, no refresh, no extra session.
	token, err := fx.chat.Login(ctx, "conn-bob", "alice", "wrong")
	req.ErrorIs(err, errors.ErrAuthentication)
	req.Empty(token)
	req.Empty(fx.alice.take())
	req.Empty(fx.bob.take())

	req.NoError(fx.chat.Load(ctx, "conn-bob"))
	got := fx.bob.take()
	req.Equal([]event.DomainEvent{event.ActiveUserAnnounced{Username: "alice"}}, got)
}

func Test_Same_User_On_Two_Connections(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	fx := newChatFixture(t, nil)

	first, err := fx.chat.Login(ctx, "conn-alice", "alice", "secret")
	req.NoError(err)
	second, err := fx.chat.Login(ctx, "conn-bob", "alice", "secret")
	req.NoError(err)
	req.NotEqual(first, second)
	fx.alice.take()
	fx.bob.take()

	// Two concurrent sessions for one username are allowed.
	req.NoError(fx.chat.Load(ctx, "conn-bob"))
	got := fx.bob.take()
	req.ElementsMatch([]event.DomainEvent{
		event.ActiveUserAnnounced{Username: "alice"},
		event.ActiveUserAnnounced{Username: "alice"},
	}, got)
}

func Test_Clear_Removes_All_Sessions_Silently(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	fx := newChatFixture(t, nil)

	_, err := fx.chat.Login(ctx, "conn-alice", "alice", "secret")
	req.NoError(err)
	_, err = fx.chat.Login(ctx, "conn-bob", "bob", "hunter2")
	req.NoError(err)
	fx.alice.take()
	fx.bob.take()

	req.NoError(fx.chat.Clear(ctx))
	// No broadcast accompanies a clear.
	req.Empty(fx.alice.take())
	req.Empty(fx.bob.take())

	req.NoError(fx.chat.Load(ctx, "conn-bob"))
	req.Empty(fx.bob.take())
}

func Test_Disconnect_Acks_Caller_And_Keeps_Session(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	fx := newChatFixture(t, nil)

	_, err := fx.chat.Login(ctx, "conn-alice", "alice", "secret")
	req.NoError(err)
	fx.alice.take()
	fx.bob.take()

	fx.chat.Disconnect(ctx, "conn-alice")
	req.Equal([]event.DomainEvent{event.DisconnectAck{}}, fx.alice.take())
	req.Empty(fx.bob.take())

	// The session record survives the transport disconnect.
	req.NoError(fx.chat.Load(ctx, "conn-bob"))
	got := fx.bob.take()
	req.Equal([]event.DomainEvent{event.ActiveUserAnnounced{Username: "alice"}}, got)
}
