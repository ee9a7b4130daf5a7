package history

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Session is one stored conversation.
type Session struct {
	ID        string
	CreatedAt time.Time
	Title     string
}

// Message is one stored chat entry. ContentJSON holds the rendered node
// list (or plain text) as JSON.
type Message struct {
	ID          string
	SessionID   string
	CreatedAt   time.Time
	Role        string // "local" or "ai"
	ContentJSON string
}
