package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arkelov/docq/internal/answer"
	"github.com/arkelov/docq/internal/client"
	"github.com/arkelov/docq/internal/config"
	"github.com/arkelov/docq/internal/render"
	"github.com/arkelov/docq/internal/sse"
	"github.com/arkelov/docq/internal/stub"
)

func newStubClient(t *testing.T) (*client.Client, string) {
	t.Helper()
	srv := httptest.NewServer(stub.NewServer().Handler())
	t.Cleanup(srv.Close)
	return client.New(srv.URL), srv.URL
}

func TestAskWithProgress_AgainstStub(t *testing.T) {
	c, _ := newStubClient(t)

	res, err := askWithProgress(context.Background(), c, client.Request{Question: "what is covered?"})
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || len(res.Nodes) == 0 {
		t.Fatalf("res = %+v, want compiled nodes", res)
	}
}

func TestLinkIngestWithProgress_AgainstStub(t *testing.T) {
	c, baseURL := newStubClient(t)

	cfg := config.Config{}
	cfg.Server.BaseURL = baseURL
	cfg.Upload.ProgressResetDelayMS = 1

	clientID := sse.GenClientID()
	var res client.UploadResult
	err := ingestWithProgress(context.Background(), cfg, clientID, func() error {
		var err error
		res, err = c.UploadLink(context.Background(), clientID, "https://example.com/handbook.pdf")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.FileID == "" || res.Status != "ingested" {
		t.Errorf("res = %+v, want a registered link", res)
	}
}

func TestNoColorFlag(t *testing.T) {
	orig := noColor
	defer func() { noColor = orig }()

	noColor = false
	if got := colorize(colorGreen, "x"); !strings.Contains(got, colorGreen) {
		t.Errorf("colorize with colors on = %q", got)
	}

	noColor = true
	if got := colorize(colorGreen, "x"); got != "x" {
		t.Errorf("colorize with colors off = %q, want bare text", got)
	}
}

func TestPrintAnswer_DoesNotPanicOnEmptyResult(t *testing.T) {
	// printAnswer writes to stdout; this only guards the nil/empty paths.
	r := render.New()
	printAnswer(r, &client.Result{Answer: "plain"})
	printAnswer(r, &client.Result{
		Nodes: []answer.Node{answer.TextNode("hi")},
		Sources: []answer.RawSource{
			{ChunkID: "c1", Source: "doc.pdf", PageNumber: 2},
		},
	})
}
