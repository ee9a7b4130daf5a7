package answer

import (
	"encoding/json"
	"slices"
	"strings"
)

// NoAnswerFallback is shown when the backend returns neither a cited
// answer nor a plain answer string.
const NoAnswerFallback = "Sorry, I was unable to process your request."

// Compile turns the final result record's cited-answer payload into an
// ordered node sequence.
//
// Sub-segments are walked in order, their text accumulated and flushed
// whenever the supporting source set changes (or at the end), followed by
// one citation node per reference. Citation numbers are assigned in order
// of first appearance, starting at 1, and reused for repeat citations of
// the same chunk within this compilation. Display fields are resolved
// from the raw_sources table, falling back to fields embedded in the
// reference itself.
//
// A malformed payload (anything that is not a segment list) or one with
// no sub-segments degrades to a single text node carrying plainAnswer.
// Compile never fails.
func Compile(raw json.RawMessage, plainAnswer string, sources []RawSource) []Node {
	segments, ok := decodeSegments(raw)
	if !ok || !hasSubSegments(segments) {
		if plainAnswer == "" {
			plainAnswer = NoAnswerFallback
		}
		return []Node{TextNode(plainAnswer)}
	}

	lookup := make(map[string]RawSource, len(sources))
	for _, s := range sources {
		lookup[s.ChunkID] = s
	}

	numbers := make(map[string]int)
	next := 1

	var nodes []Node
	for _, seg := range segments {
		var lines []string
		for i, sub := range seg.ContentSegments {
			lines = append(lines, sub.SegmentText)
			refs := sub.Refs()

			var nextRefs []SourceRef
			last := i == len(seg.ContentSegments)-1
			if !last {
				nextRefs = seg.ContentSegments[i+1].Refs()
			}

			// Flush when the source set changes. The trailing sub-segment
			// always flushes so the final buffer is never dropped.
			if !last && sameChunkSet(refs, nextRefs) {
				continue
			}

			nodes = append(nodes, TextNode(strings.TrimSpace(strings.Join(lines, "\n"))))
			lines = lines[:0]

			for _, ref := range refs {
				num, seen := numbers[ref.FileChunkID]
				if !seen {
					num = next
					numbers[ref.FileChunkID] = num
					next++
				}
				nodes = append(nodes, CitationNode(resolveCitation(ref, num, lookup)))
			}
		}
	}
	return nodes
}

func decodeSegments(raw json.RawMessage) ([]Segment, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var segments []Segment
	if err := json.Unmarshal(raw, &segments); err != nil {
		return nil, false
	}
	return segments, true
}

func hasSubSegments(segments []Segment) bool {
	for _, seg := range segments {
		if len(seg.ContentSegments) > 0 {
			return true
		}
	}
	return false
}

// sameChunkSet compares two reference sets order-independently by their
// sorted chunk id lists.
func sameChunkSet(a, b []SourceRef) bool {
	if len(a) != len(b) {
		return false
	}
	ids := func(refs []SourceRef) []string {
		out := make([]string, len(refs))
		for i, r := range refs {
			out[i] = r.FileChunkID
		}
		slices.Sort(out)
		return out
	}
	return slices.Equal(ids(a), ids(b))
}

func resolveCitation(ref SourceRef, number int, lookup map[string]RawSource) Citation {
	c := Citation{
		Number:  number,
		ChunkID: ref.FileChunkID,
		FileID:  ref.FileID,
		Source:  ref.SourceFile,
		Page:    ref.PageNumber,
	}
	if entry, ok := lookup[ref.FileChunkID]; ok {
		if entry.FileID != "" {
			c.FileID = entry.FileID
		}
		if entry.Source != "" {
			c.Source = entry.Source
		}
		if entry.PageNumber != 0 {
			c.Page = entry.PageNumber
		}
	}
	return c
}
