// Package render turns compiled answer content into HTML and plain text.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"

	"github.com/arkelov/docq/internal/answer"
)

// Renderer converts markdown answer text and citation nodes to HTML.
// Raw HTML in the source passes through unchanged; output is trusted
// only as far as the backend producing it.
type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Typographer),
			goldmark.WithRendererOptions(ghtml.WithUnsafe()),
		),
	}
}

// Markdown renders source markdown to an HTML fragment.
func (r *Renderer) Markdown(src string) (string, error) {
	var buf strings.Builder
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// Inline renders markdown and unwraps the enclosing paragraph when the
// result is a single paragraph, so short text flows inline with adjacent
// citation markers. Multi-paragraph output is returned as-is.
func (r *Renderer) Inline(src string) (string, error) {
	out, err := r.Markdown(src)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>\n") && strings.Count(out, "<p>") == 1 {
		return out[len("<p>") : len(out)-len("</p>\n")], nil
	}
	return out, nil
}

// Content renders message content to an HTML fragment: text nodes as
// inline markdown, citation nodes as superscript markers, plus the
// generated image when present.
func (r *Renderer) Content(content any) (string, error) {
	nodes, image := answer.Normalize(content)

	var buf strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case answer.KindText:
			frag, err := r.Inline(n.Text)
			if err != nil {
				return "", err
			}
			buf.WriteString(frag)
		case answer.KindCitation:
			c := n.Citation
			fmt.Fprintf(&buf,
				`<sup class="citation" data-chunk-id="%s" data-file-id="%s" title="%s">[%d]</sup>`,
				html.EscapeString(c.ChunkID),
				html.EscapeString(c.FileID),
				html.EscapeString(citationTitle(c)),
				c.Number,
			)
		}
	}
	if image != "" {
		fmt.Fprintf(&buf, `<div class="generated-image"><img src="%s" alt="generated image"></div>`,
			html.EscapeString(image))
	}
	return buf.String(), nil
}

func citationTitle(c answer.Citation) string {
	if c.Source == "" {
		return c.ChunkID
	}
	if c.Page > 0 {
		return fmt.Sprintf("%s, p. %d", c.Source, c.Page)
	}
	return c.Source
}

// Text renders content and strips all markup, yielding plain text for
// speech synthesis and terminal display.
func (r *Renderer) Text(content any) (string, error) {
	frag, err := r.Content(content)
	if err != nil {
		return "", err
	}
	return stripTags(frag), nil
}

// stripTags drops tags and keeps character data, collapsing the result's
// outer whitespace.
func stripTags(frag string) string {
	tok := xhtml.NewTokenizer(strings.NewReader(frag))
	var buf strings.Builder
	for {
		tt := tok.Next()
		if tt == xhtml.ErrorToken {
			return strings.TrimSpace(buf.String())
		}
		if tt == xhtml.TextToken {
			buf.Write(tok.Text())
		}
	}
}
