package stream

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
)

// maxRecordSize bounds a single stream record. Result records carry the
// full cited answer and can be large.
const maxRecordSize = 4 << 20 // 4MB

// Decoder turns a streamed response body into a sequence of Events.
//
// Records are newline-delimited JSON; the transport delivers arbitrary
// chunk boundaries, so a record may arrive split across reads. The
// decoder buffers partial lines and yields records strictly in byte
// order. A trailing record without a final newline is still parsed when
// the stream ends. A Decoder is tied to one stream and is not
// restartable.
type Decoder struct {
	scanner *bufio.Scanner
	log     *slog.Logger
}

// NewDecoder wraps a stream body.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxRecordSize)
	return &Decoder{scanner: s, log: slog.Default()}
}

// Next returns the next decoded event. Blank lines are skipped and
// records that fail to parse are logged and dropped; neither aborts the
// stream. Next returns io.EOF when the stream is exhausted.
func (d *Decoder) Next() (Event, error) {
	for d.scanner.Scan() {
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			d.log.Warn("dropping malformed stream record", "error", err, "record", truncate(line, 200))
			continue
		}
		return ev, nil
	}
	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
