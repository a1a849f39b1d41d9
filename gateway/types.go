package gateway

import (
	"github.com/swizkhalifaa/Distributed-System-Project-C/domain/event"
)

// ActionFrame is the client-to-server JSON message.
type ActionFrame struct {
	Action     string `json:"action"`
	Username   string `json:"username,omitempty"`
	Credential string `json:"credential,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	Text       string `json:"text,omitempty"`
	AdminToken string `json:"adminToken,omitempty"`
}

// Client-invocable actions.
const (
	ActionLogin  = "login"
	ActionSend   = "send"
	ActionLoad   = "load"
	ActionLogout = "logout"
	ActionClear  = "clear"
)

// EventFrame is the server-to-client JSON message.
type EventFrame struct {
	Event    string `json:"event"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text,omitempty"`
	Token    string `json:"token,omitempty"`
	OK       *bool  `json:"ok,omitempty"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

// loginResult reaches only the connection that attempted the login.
// A failed attempt carries ok=false and an empty token, the falsy
// sentinel the UI checks.
type loginResult struct {
	Token string
	OK    bool
}

func (loginResult) EventName() string { return "loginResult" }

// errorNotice surfaces a failed action to the calling connection.
type errorNotice struct {
	Code    string
	Message string
}

func (errorNotice) EventName() string { return "errorNotice" }

// toFrame converts a push event into its wire representation.
func toFrame(e event.DomainEvent) EventFrame {
	frame := EventFrame{Event: e.EventName()}
	switch evt := e.(type) {
	case event.MessageBroadcast:
		frame.Username = evt.Username
		frame.Text = evt.Content
	case event.ActiveUserAnnounced:
		frame.Username = evt.Username
	case loginResult:
		frame.Token = evt.Token
		ok := evt.OK
		frame.OK = &ok
	case errorNotice:
		frame.Code = evt.Code
		frame.Message = evt.Message
	}
	return frame
}
