package answer

import (
	"encoding/json"
	"fmt"
)

// Segment is one top-level block of a cited answer as delivered by the
// backend. Answers usually contain a single segment.
type Segment struct {
	ContentSegments []SubSegment `json:"content_segments"`
}

// SubSegment carries one span of answer text plus the source references
// supporting it. Older backends send a single source_reference object,
// newer ones a source_references list; both are accepted.
type SubSegment struct {
	SegmentText      string      `json:"segment_text"`
	SourceReferences []SourceRef `json:"source_references"`
	SourceReference  *SourceRef  `json:"source_reference"`
}

// Refs normalizes the two reference shapes to a list. Absent references
// yield nil.
func (s SubSegment) Refs() []SourceRef {
	if s.SourceReferences != nil {
		return s.SourceReferences
	}
	if s.SourceReference != nil {
		return []SourceRef{*s.SourceReference}
	}
	return nil
}

// SourceRef points at the chunk a sub-segment was grounded on. Display
// fields may be embedded here (legacy shape) or resolved from the
// raw_sources table.
type SourceRef struct {
	FileChunkID string `json:"file_chunk_id"`
	FileID      string `json:"file_id,omitempty"`
	SourceFile  string `json:"source_file,omitempty"`
	PageNumber  int    `json:"page_number,omitempty"`
}

// RawSource is one entry of the result record's raw_sources lookup table,
// keyed by chunk id. It is built once per answer and never mutated.
type RawSource struct {
	ChunkID    string `json:"chunkId"`
	FileID     string `json:"fileId,omitempty"`
	Source     string `json:"source,omitempty"`
	PageNumber int    `json:"pageNumber,omitempty"`
}

// NodeKind discriminates the two structured content node variants.
type NodeKind string

const (
	KindText     NodeKind = "text"
	KindCitation NodeKind = "citation"
)

// Citation is a numbered reference to one source chunk. Fields other than
// Number and ChunkID are best-effort and may be zero when the source
// lookup has no entry for the chunk.
type Citation struct {
	Number  int    `json:"number"`
	FileID  string `json:"fileId,omitempty"`
	ChunkID string `json:"chunkId"`
	Source  string `json:"source,omitempty"`
	Page    int    `json:"page,omitempty"`
}

// Node is one unit of compiled answer content: either a run of markdown
// text or a citation marker. The JSON form matches the part shape the
// renderer and history store have always used:
//
//	{"type":"text","value":"..."}
//	{"type":"citation","number":1,"details":{...}}
type Node struct {
	Kind     NodeKind
	Text     string
	Citation Citation
}

// TextNode builds a text node.
func TextNode(text string) Node {
	return Node{Kind: KindText, Text: text}
}

// CitationNode builds a citation node.
func CitationNode(c Citation) Node {
	return Node{Kind: KindCitation, Citation: c}
}

type textNodeJSON struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type citationNodeJSON struct {
	Type    string   `json:"type"`
	Number  int      `json:"number"`
	Details Citation `json:"details"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case KindText:
		return json.Marshal(textNodeJSON{Type: "text", Value: n.Text})
	case KindCitation:
		return json.Marshal(citationNodeJSON{
			Type:    "citation",
			Number:  n.Citation.Number,
			Details: n.Citation,
		})
	default:
		return nil, fmt.Errorf("unknown node kind %q", n.Kind)
	}
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch probe.Type {
	case "text":
		var t textNodeJSON
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*n = TextNode(t.Value)
		return nil
	case "citation":
		var c citationNodeJSON
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		c.Details.Number = c.Number
		*n = CitationNode(c.Details)
		return nil
	default:
		return fmt.Errorf("unknown content part type %q", probe.Type)
	}
}
