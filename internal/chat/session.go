// Package chat holds the message lifecycle for one conversation: local
// question, loading placeholder, and the answer or error that replaces
// it.
package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/arkelov/docq/internal/client"
)

// Status labels who produced a message.
type Status string

const (
	// StatusLocal is the user's own question.
	StatusLocal Status = "local"
	// StatusAI is a completed answer (or the error shown in its place).
	StatusAI Status = "ai"
	// StatusLoading is the placeholder shown while a query is in flight.
	StatusLoading Status = "loading"
)

// Message is one chat entry. Content is either a string (questions,
// loading text, error text) or a *client.Result for answers.
type Message struct {
	ID      string
	Status  Status
	Content any
}

// Asker runs one streaming query. Satisfied by *client.Client.
type Asker interface {
	AskStream(ctx context.Context, req client.Request, opts client.AskOptions) (*client.Result, error)
}

// Session is one conversation. Submitting a new question cancels any
// query still in flight; the superseded query leaves no trace in the
// message list.
type Session struct {
	asker Asker

	mu       sync.Mutex
	messages []Message
	cancel   context.CancelFunc
	seq      uint64
}

func NewSession(asker Asker) *Session {
	return &Session{asker: asker}
}

// Submit appends the question and a loading placeholder, then runs the
// query. It blocks until the answer arrives, the context ends, or a
// later Submit supersedes it. The returned result is nil when the query
// was superseded or canceled.
func (s *Session) Submit(ctx context.Context, req client.Request, opts client.AskOptions) (*client.Result, error) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.seq++
	seq := s.seq
	s.messages = append(s.messages,
		Message{ID: uuid.NewString(), Status: StatusLocal, Content: req.Question},
		Message{ID: uuid.NewString(), Status: StatusLoading, Content: "Thinking..."},
	)
	s.mu.Unlock()

	res, err := s.asker.AskStream(ctx, req, opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A later Submit owns the message list now; report the cancellation
	// without touching it.
	if seq != s.seq {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	// The caller's own context ended; the placeholder still has to give
	// way to the error message.
	if ctx.Err() != nil && err != nil {
		s.resolveLoadingLocked(client.UserMessage(err))
		return nil, ctx.Err()
	}

	var content any
	if err != nil {
		content = client.UserMessage(err)
	} else {
		content = res
	}
	s.resolveLoadingLocked(content)
	return res, err
}

// resolveLoadingLocked replaces the latest loading placeholder with the
// final message and drops any earlier placeholders left behind by
// superseded queries, so none lingers.
func (s *Session) resolveLoadingLocked(content any) {
	last := -1
	for i, m := range s.messages {
		if m.Status == StatusLoading {
			last = i
		}
	}
	if last == -1 {
		s.messages = append(s.messages, Message{ID: uuid.NewString(), Status: StatusAI, Content: content})
		return
	}

	out := s.messages[:0]
	for i, m := range s.messages {
		switch {
		case i == last:
			out = append(out, Message{ID: uuid.NewString(), Status: StatusAI, Content: content})
		case m.Status == StatusLoading:
			// superseded placeholder
		default:
			out = append(out, m)
		}
	}
	s.messages = out
}

// Messages returns a snapshot of the conversation.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Clear cancels any in-flight query and empties the conversation.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	s.messages = nil
}
