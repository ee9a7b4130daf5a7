package render

import (
	"strings"
	"testing"

	"github.com/arkelov/docq/internal/answer"
)

func TestInline_UnwrapsSingleParagraph(t *testing.T) {
	r := New()

	got, err := r.Inline("**bold**")
	if err != nil {
		t.Fatal(err)
	}
	if got != "<strong>bold</strong>" {
		t.Errorf("Inline() = %q, want unwrapped bold", got)
	}
}

func TestInline_KeepsMultipleParagraphs(t *testing.T) {
	r := New()

	got, err := r.Inline("first\n\nsecond")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(got, "<p>") != 2 {
		t.Errorf("Inline() = %q, want two paragraphs kept", got)
	}
}

func TestMarkdown_LinkifyAndRawHTML(t *testing.T) {
	r := New()

	got, err := r.Markdown("see https://example.com and <em>raw</em>")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `<a href="https://example.com"`) {
		t.Errorf("Markdown() = %q, want bare URL linkified", got)
	}
	if !strings.Contains(got, "<em>raw</em>") {
		t.Errorf("Markdown() = %q, want raw HTML passed through", got)
	}
}

func TestContent_TextAndCitations(t *testing.T) {
	r := New()
	content := []answer.Node{
		answer.TextNode("Paris is the capital"),
		answer.CitationNode(answer.Citation{Number: 1, ChunkID: "c1", FileID: "f1", Source: "geo.pdf", Page: 4}),
	}

	got, err := r.Content(content)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "Paris is the capital") {
		t.Errorf("Content() = %q, want inline text first", got)
	}
	want := `<sup class="citation" data-chunk-id="c1" data-file-id="f1" title="geo.pdf, p. 4">[1]</sup>`
	if !strings.Contains(got, want) {
		t.Errorf("Content() = %q, want citation marker %q", got, want)
	}
}

func TestContent_PlainStringAndImage(t *testing.T) {
	r := New()
	content := answer.Content{Answer: "hello", Image: "data:image/png;base64,xyz"}

	got, err := r.Content(content)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "hello") {
		t.Errorf("Content() = %q, want answer text", got)
	}
	if !strings.Contains(got, `<div class="generated-image">`) {
		t.Errorf("Content() = %q, want generated image block", got)
	}
}

func TestContent_EscapesCitationAttributes(t *testing.T) {
	r := New()
	content := []answer.Node{
		answer.CitationNode(answer.Citation{Number: 1, ChunkID: `c"1`, Source: `a<b>.pdf`}),
	}

	got, err := r.Content(content)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, `data-chunk-id="c"1"`) {
		t.Errorf("Content() = %q, chunk id not escaped", got)
	}
	if !strings.Contains(got, "&lt;b&gt;") {
		t.Errorf("Content() = %q, title not escaped", got)
	}
}

func TestText_StripsMarkup(t *testing.T) {
	r := New()
	content := []answer.Node{
		answer.TextNode("**bold** and _italic_"),
		answer.CitationNode(answer.Citation{Number: 1, ChunkID: "c1"}),
	}

	got, err := r.Text(content)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "bold and italic") {
		t.Errorf("Text() = %q, want markup stripped", got)
	}
}
