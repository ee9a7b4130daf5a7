package sse

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// defaultResetDelay is how long the finished state keeps showing 100%
// before the tracker resets to idle.
const defaultResetDelay = 800 * time.Millisecond

// Tracker drives upload progress display from a Channel. At most one
// subscription is live at a time; starting a new one tears down the
// previous channel and any pending reset.
type Tracker struct {
	httpClient *http.Client
	baseURL    string
	resetDelay time.Duration

	// onUpdate, when set, fires after every state change.
	onUpdate func(percent int, active bool)

	mu         sync.Mutex
	ch         *Channel
	resetTimer *time.Timer
	total      int
	percent    int
	active     bool
}

// NewTracker creates an idle tracker. A resetDelay of zero selects the
// default; a nil onUpdate is allowed.
func NewTracker(httpClient *http.Client, baseURL string, resetDelay time.Duration, onUpdate func(percent int, active bool)) *Tracker {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if resetDelay <= 0 {
		resetDelay = defaultResetDelay
	}
	return &Tracker{
		httpClient: httpClient,
		baseURL:    baseURL,
		resetDelay: resetDelay,
		onUpdate:   onUpdate,
	}
}

// Start subscribes to progress events for the given client id, replacing
// any previous subscription. It returns once the stream is open; events
// are consumed on a background goroutine.
func (t *Tracker) Start(ctx context.Context, clientID string) error {
	ch, err := Subscribe(ctx, t.httpClient, t.baseURL, clientID)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.teardownLocked()
	t.ch = ch
	t.total = 0
	t.percent = 0
	t.active = true
	t.mu.Unlock()
	t.notify()

	go t.consume(ch)
	return nil
}

func (t *Tracker) consume(ch *Channel) {
	for msg := range ch.C {
		switch msg.Type {
		case TypeProgress:
			t.onProgress(msg)
		case TypeFinished:
			t.onFinished(ch)
			return
		}
		// Keepalives only hold the connection open.
	}
}

func (t *Tracker) onProgress(msg Message) {
	t.mu.Lock()
	// A zero total on a later event must not wipe the one already seen.
	if msg.Total > 0 {
		t.total = msg.Total
	}
	total := t.total
	if total < 1 {
		total = 1
	}
	p := msg.Done * 100 / total
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	t.percent = p
	t.mu.Unlock()
	t.notify()
}

func (t *Tracker) onFinished(ch *Channel) {
	t.mu.Lock()
	t.percent = 100
	t.resetTimer = time.AfterFunc(t.resetDelay, t.reset)
	t.mu.Unlock()
	t.notify()
	ch.Close()
}

func (t *Tracker) reset() {
	t.mu.Lock()
	t.percent = 0
	t.active = false
	t.resetTimer = nil
	t.mu.Unlock()
	t.notify()
}

// Stop tears down the current subscription and returns to idle
// immediately, skipping the post-finish delay.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.teardownLocked()
	t.percent = 0
	t.active = false
	t.mu.Unlock()
	t.notify()
}

func (t *Tracker) teardownLocked() {
	if t.ch != nil {
		t.ch.Close()
		t.ch = nil
	}
	if t.resetTimer != nil {
		t.resetTimer.Stop()
		t.resetTimer = nil
	}
}

// Percent returns the current displayed percentage.
func (t *Tracker) Percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent
}

// Active reports whether an upload is in flight or finishing.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Tracker) notify() {
	if t.onUpdate == nil {
		return
	}
	t.mu.Lock()
	p, a := t.percent, t.active
	t.mu.Unlock()
	t.onUpdate(p, a)
}
