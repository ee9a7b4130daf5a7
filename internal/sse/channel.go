// Package sse subscribes to the server's upload progress events and
// folds them into a displayable percentage.
package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Event types emitted on the progress channel.
const (
	TypeKeepalive = "keepalive"
	TypeProgress  = "progress"
	TypeFinished  = "finished"
)

// Message is one decoded progress event. Total and Done are file counts
// and only meaningful for progress events.
type Message struct {
	Type  string `json:"type"`
	Total int    `json:"total,omitempty"`
	Done  int    `json:"done,omitempty"`
}

// GenClientID returns a fresh correlation id tying an upload request to
// its progress channel.
func GenClientID() string {
	return uuid.NewString()
}

// Channel is one open subscription to /sse/progress. Messages arrive on
// C until the server closes the stream or Close is called; the channel
// never reconnects on its own.
type Channel struct {
	C chan Message

	cancel    context.CancelFunc
	body      io.ReadCloser
	done      chan struct{}
	closeOnce sync.Once
	log       *slog.Logger
}

// Subscribe opens the progress event stream for the given client id.
func Subscribe(ctx context.Context, httpClient *http.Client, baseURL, clientID string) (*Channel, error) {
	ctx, cancel := context.WithCancel(ctx)

	u := fmt.Sprintf("%s/sse/progress?clientId=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(clientID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("building progress request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("opening progress stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("progress stream returned status %d", resp.StatusCode)
	}

	ch := &Channel{
		C:      make(chan Message),
		cancel: cancel,
		body:   resp.Body,
		done:   make(chan struct{}),
		log:    slog.Default(),
	}
	go ch.read()
	return ch, nil
}

func (c *Channel) read() {
	defer close(c.C)
	defer c.body.Close()

	scanner := bufio.NewScanner(c.body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			c.log.Warn("dropping malformed progress event", "error", err)
			continue
		}
		select {
		case c.C <- msg:
		case <-c.done:
			return
		}
	}
}

// Close tears down the subscription. Safe to call more than once and
// concurrently with message delivery.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
		c.body.Close()
	})
}
