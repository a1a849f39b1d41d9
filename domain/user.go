// Package domain contains core concepts of the chat system.
// This file defines User identities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated identity. Usernames are unique and
// case-sensitive; the record is immutable once created.
type User struct {
	ID             uuid.UUID
	Username       string
	CredentialHash string
	CreatedAt      time.Time
}
