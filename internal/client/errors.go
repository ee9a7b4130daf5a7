package client

import "errors"

// Sentinel errors the backend maps to distinct user guidance. Wrapped
// errors carry the transport detail; callers branch with errors.Is and
// display UserMessage.
var (
	// ErrServiceUnavailable means the query service itself is down or
	// restarting (HTTP 503).
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrBadRequest means the server rejected the request as invalid
	// (HTTP 400).
	ErrBadRequest = errors.New("invalid request")

	// ErrNetwork means the request never produced an HTTP response.
	ErrNetwork = errors.New("network error")

	// ErrNoResult means a query stream ended without a result record.
	ErrNoResult = errors.New("stream ended without a result")
)

// UserMessage maps an error to the message shown in chat in place of an
// answer.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrServiceUnavailable):
		return "The answering service is temporarily unavailable. Please try again in a moment."
	case errors.Is(err, ErrBadRequest):
		return "The request could not be processed. Please rephrase your question and try again."
	case errors.Is(err, ErrNetwork):
		return "Could not reach the server. Please check your connection and try again."
	default:
		return "Something went wrong while processing your request. Please try again."
	}
}
