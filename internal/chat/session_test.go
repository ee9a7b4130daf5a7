package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arkelov/docq/internal/client"
)

// fakeAsker scripts one response per call and can block until released.
type fakeAsker struct {
	mu      sync.Mutex
	results []*client.Result
	errs    []error
	block   chan struct{}
	calls   int
}

func (f *fakeAsker) AskStream(ctx context.Context, req client.Request, opts client.AskOptions) (*client.Result, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	var res *client.Result
	var err error
	if i < len(f.results) {
		res = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return res, err
}

func TestSubmit_AppendsLocalLoadingThenAnswer(t *testing.T) {
	want := &client.Result{Answer: "Paris"}
	s := NewSession(&fakeAsker{results: []*client.Result{want}})

	res, err := s.Submit(context.Background(), client.Request{Question: "capital?"}, client.AskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res != want {
		t.Errorf("res = %+v, want the asker's result", res)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Status != StatusLocal || msgs[0].Content != "capital?" {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].Status != StatusAI || msgs[1].Content != any(want) {
		t.Errorf("msgs[1] = %+v, want resolved answer", msgs[1])
	}
}

func TestSubmit_ErrorBecomesUserMessage(t *testing.T) {
	s := NewSession(&fakeAsker{errs: []error{client.ErrServiceUnavailable}})

	_, err := s.Submit(context.Background(), client.Request{Question: "q"}, client.AskOptions{})
	if !errors.Is(err, client.ErrServiceUnavailable) {
		t.Fatalf("err = %v", err)
	}

	msgs := s.Messages()
	if msgs[1].Status != StatusAI {
		t.Fatalf("msgs[1] = %+v, want resolved error message", msgs[1])
	}
	if msgs[1].Content != client.UserMessage(client.ErrServiceUnavailable) {
		t.Errorf("content = %v, want the service-unavailable guidance", msgs[1].Content)
	}
}

func TestSubmit_NewQuestionSupersedesInFlight(t *testing.T) {
	block := make(chan struct{})
	f := &fakeAsker{
		results: []*client.Result{{Answer: "stale"}, {Answer: "fresh"}},
		block:   block,
	}
	s := NewSession(f)

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), client.Request{Question: "first"}, client.AskOptions{})
		firstDone <- err
	}()

	// Wait for the first query to be in flight.
	waitFor(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.calls == 1
	})

	f.mu.Lock()
	f.block = nil
	f.mu.Unlock()

	res, err := s.Submit(context.Background(), client.Request{Question: "second"}, client.AskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Answer != "fresh" {
		t.Errorf("res.Answer = %q, want fresh", res.Answer)
	}

	if err := <-firstDone; !errors.Is(err, context.Canceled) {
		t.Errorf("first Submit err = %v, want context.Canceled", err)
	}

	// first question, second question, one answer; no stale entries, no
	// leftover placeholders.
	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3: %+v", len(msgs), msgs)
	}
	for _, m := range msgs {
		if m.Status == StatusLoading {
			t.Errorf("leftover loading placeholder: %+v", m)
		}
	}
	last := msgs[len(msgs)-1]
	if last.Status != StatusAI || last.Content.(*client.Result).Answer != "fresh" {
		t.Errorf("last message = %+v, want the fresh answer", last)
	}
}

func TestSubmit_CallerCancelResolvesPlaceholder(t *testing.T) {
	block := make(chan struct{})
	f := &fakeAsker{block: block}
	s := NewSession(f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(ctx, client.Request{Question: "q"}, client.AskOptions{})
		done <- err
	}()
	waitFor(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.calls == 1
	})

	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Submit err = %v, want context.Canceled", err)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want local + resolved error: %+v", len(msgs), msgs)
	}
	if msgs[1].Status != StatusAI {
		t.Errorf("msgs[1] = %+v, want the placeholder resolved", msgs[1])
	}
	if msgs[1].Content != client.UserMessage(context.Canceled) {
		t.Errorf("content = %v, want the generic failure guidance", msgs[1].Content)
	}
}

func TestClear_CancelsAndEmpties(t *testing.T) {
	block := make(chan struct{})
	f := &fakeAsker{block: block}
	s := NewSession(f)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), client.Request{Question: "q"}, client.AskOptions{})
		done <- err
	}()
	waitFor(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.calls == 1
	})

	s.Clear()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Submit err = %v, want context.Canceled", err)
	}
	if got := s.Messages(); len(got) != 0 {
		t.Errorf("messages after Clear = %+v, want none", got)
	}
}

func waitFor(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}
