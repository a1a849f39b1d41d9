package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swizkhalifaa/Distributed-System-Project-C/domain/event"
)

func Test_ToFrame(t *testing.T) {
	req := require.New(t)

	frame := toFrame(event.MessageBroadcast{Username: "alice", Content: "hi"})
	req.Equal(EventFrame{Event: "messageBroadcast", Username: "alice", Text: "hi"}, frame)

	frame = toFrame(event.ActiveUserAnnounced{Username: "bob"})
	req.Equal(EventFrame{Event: "activeUserAnnounced", Username: "bob"}, frame)

	frame = toFrame(event.RefreshSignal{})
	req.Equal(EventFrame{Event: "refreshSignal"}, frame)

	frame = toFrame(loginResult{Token: "conn-1", OK: true})
	req.Equal("loginResult", frame.Event)
	req.Equal("conn-1", frame.Token)
	req.NotNil(frame.OK)
	req.True(*frame.OK)
}

func Test_Failed_Login_Frame_Carries_Falsy_Token(t *testing.T) {
	req := require.New(t)

	frame := toFrame(loginResult{OK: false})
	raw, err := json.Marshal(frame)
	req.NoError(err)

	// ok must be serialized even when false; the token stays empty.
	req.JSONEq(`{"event":"loginResult","ok":false}`, string(raw))
}

func Test_Error_Notice_Frame(t *testing.T) {
	req := require.New(t)

	frame := toFrame(errorNotice{Code: "not_found", Message: "unknown session"})
	raw, err := json.Marshal(frame)
	req.NoError(err)
	req.JSONEq(`{"event":"errorNotice","code":"not_found","message":"unknown session"}`, string(raw))
}
