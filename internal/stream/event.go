package stream

import (
	"encoding/json"

	"github.com/arkelov/docq/internal/answer"
)

// TypeResult marks the terminal record of a query stream. Exactly one
// result record is expected per stream; keepalive records may precede or
// follow it before the stream physically closes.
const TypeResult = "result"

// Event is one decoded record of the query stream. Progress records carry
// Type/Message/Data; the result record carries the answer payload.
// AnswerWithCitations stays raw so a malformed payload degrades inside
// the answer compiler instead of killing the stream.
type Event struct {
	Type                string             `json:"type"`
	Message             string             `json:"message,omitempty"`
	Data                json.RawMessage    `json:"data,omitempty"`
	Answer              string             `json:"answer,omitempty"`
	AnswerWithCitations json.RawMessage    `json:"answer_with_citations,omitempty"`
	RawSources          []answer.RawSource `json:"raw_sources,omitempty"`
	GeneratedImage      string             `json:"generated_image,omitempty"`
}

// IsResult reports whether this is the stream's terminal record.
func (e Event) IsResult() bool {
	return e.Type == TypeResult
}

// Count decodes Data as an integer result count. The second return is
// false when Data is absent or not a number.
func (e Event) Count() (int, bool) {
	if len(e.Data) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(e.Data, &n); err != nil {
		return 0, false
	}
	return n, true
}
