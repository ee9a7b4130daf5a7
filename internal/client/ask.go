package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/arkelov/docq/internal/answer"
	"github.com/arkelov/docq/internal/stream"
)

// Request is a document question. SelectedFileIDs narrows retrieval to
// the given uploads; empty means the whole corpus.
type Request struct {
	Question        string   `json:"question"`
	SelectedFileIDs []string `json:"selectedFileIds,omitempty"`
	DocumentCount   int      `json:"documentCount,omitempty"`
	SelectedCount   int      `json:"selectedCount,omitempty"`
	GenerateImage   bool     `json:"generateImage,omitempty"`
}

// Result is the compiled outcome of a query.
type Result struct {
	// Nodes is the citation-interleaved answer.
	Nodes []answer.Node
	// Answer is the plain uncited answer text.
	Answer string
	// GeneratedImage is a data URL, set when image generation was requested.
	GeneratedImage string
	// Sources is the raw source list from the result record.
	Sources []answer.RawSource
}

// AskOptions tunes a streaming query. OnEvent, when set, fires for every
// non-result record as it arrives (progress display); it runs on the
// calling goroutine.
type AskOptions struct {
	OnEvent func(stream.Event)
}

// AskStream runs a streaming query and compiles the result record into
// citation nodes. If the stream carries several result records the last
// one wins; a stream with none fails with ErrNoResult.
func (c *Client) AskStream(ctx context.Context, req Request, opts AskOptions) (*Result, error) {
	body, err := c.openStream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	dec := stream.NewDecoder(body)
	var result *stream.Event
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// The connection dropped mid-stream.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		if ev.IsResult() {
			result = &ev
			continue
		}
		if opts.OnEvent != nil {
			opts.OnEvent(ev)
		}
	}
	if result == nil {
		return nil, ErrNoResult
	}

	return &Result{
		Nodes:          answer.Compile(result.AnswerWithCitations, result.Answer, result.RawSources),
		Answer:         result.Answer,
		GeneratedImage: result.GeneratedImage,
		Sources:        result.RawSources,
	}, nil
}

func (c *Client) openStream(ctx context.Context, req Request) (io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, streamTimeout)

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/api/query-stream", bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.do(httpReq)
	if err != nil {
		cancel()
		if errors.Is(err, ErrNetwork) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

// queryResponse is the non-streaming endpoint's payload.
type queryResponse struct {
	Answer              string             `json:"answer"`
	AnswerWithCitations json.RawMessage    `json:"answer_with_citations,omitempty"`
	RawSources          []answer.RawSource `json:"raw_sources,omitempty"`
	GeneratedImage      string             `json:"generated_image,omitempty"`
}

// Query runs a one-shot query against the non-streaming endpoint. No
// progress events; same compiled result.
func (c *Client) Query(ctx context.Context, req Request) (*Result, error) {
	var resp queryResponse
	if err := c.postJSON(ctx, "/query", req, &resp); err != nil {
		return nil, err
	}
	return &Result{
		Nodes:          answer.Compile(resp.AnswerWithCitations, resp.Answer, resp.RawSources),
		Answer:         resp.Answer,
		GeneratedImage: resp.GeneratedImage,
		Sources:        resp.RawSources,
	}, nil
}
