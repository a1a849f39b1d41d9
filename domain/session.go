// Package domain contains core concepts of the chat system.
// This file defines Session bindings and related invariants.
package domain

// Session binds a live connection to an authenticated User.
// Its ID equals the transport connection id, so at most one Session
// exists per connection at any time. The User is embedded by value
// rather than referenced: a deliberate denormalization, safe because
// users are immutable in this system.
type Session struct {
	ID   string
	User User
}
