package answer

import (
	"encoding/json"
	"fmt"
)

// Content is the canonical rich message body: compiled nodes plus the
// plain answer string and an optional generated image payload (a data
// URL). Nodes take precedence over Answer when both are present.
type Content struct {
	Nodes  []Node
	Answer string
	Image  string
}

// Normalize converts every historical message content shape into one
// canonical node list plus an optional image attachment, so rendering
// never has to sniff shapes. Accepted shapes, first match wins:
//
//  1. Content with nodes (optionally with an image)
//  2. Content with only an image and/or plain answer
//  3. plain string
//  4. []Node (legacy pre-compiled part list)
//  5. raw JSON encoding of a part list
//  6. anything else, via string coercion
func Normalize(content any) (nodes []Node, image string) {
	switch v := content.(type) {
	case nil:
		return nil, ""
	case Content:
		return normalizeContent(v)
	case *Content:
		if v == nil {
			return nil, ""
		}
		return normalizeContent(*v)
	case string:
		return []Node{TextNode(v)}, ""
	case []Node:
		return v, ""
	case json.RawMessage:
		return normalizeRaw(v), ""
	case []byte:
		return normalizeRaw(v), ""
	default:
		return []Node{TextNode(fmt.Sprint(v))}, ""
	}
}

func normalizeContent(c Content) ([]Node, string) {
	if len(c.Nodes) > 0 {
		return c.Nodes, c.Image
	}
	if c.Answer != "" {
		return []Node{TextNode(c.Answer)}, c.Image
	}
	return nil, c.Image
}

func normalizeRaw(raw []byte) []Node {
	var nodes []Node
	if err := json.Unmarshal(raw, &nodes); err == nil {
		return nodes
	}
	return []Node{TextNode(string(raw))}
}

// PlainText extracts the copyable text of a message content: text node
// values joined by newlines, citations omitted.
func PlainText(content any) string {
	nodes, _ := Normalize(content)
	var out string
	for _, n := range nodes {
		if n.Kind != KindText {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += n.Text
	}
	return out
}
