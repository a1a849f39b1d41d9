// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event. The Author is a copy of
// the User taken at send time; later credential changes never rewrite
// history.
type Message struct {
	ID      uuid.UUID
	Content string
	Author  User
	SentAt  time.Time
}
