package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentUploads bounds parallel file uploads.
const maxConcurrentUploads = 4

// UploadResult describes one ingested file.
type UploadResult struct {
	FileID string `json:"file_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// UploadFiles uploads local files for ingestion, a few at a time. The
// clientID ties the uploads to an SSE progress channel; pass "" to skip
// progress correlation. The first failure cancels remaining uploads.
func (c *Client) UploadFiles(ctx context.Context, clientID string, paths []string) ([]UploadResult, error) {
	results := make([]UploadResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)
	for i, path := range paths {
		g.Go(func() error {
			res, err := c.uploadFile(ctx, clientID, path)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", filepath.Base(path), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) uploadFile(ctx context.Context, clientID, path string) (UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadResult{}, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return UploadResult{}, fmt.Errorf("building form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return UploadResult{}, fmt.Errorf("reading file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("finalizing form: %w", err)
	}

	u := c.baseURL + "/upload-multiple"
	if clientID != "" {
		u += "?clientId=" + url.QueryEscape(clientID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return UploadResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return UploadResult{}, err
	}
	defer resp.Body.Close()

	var out struct {
		Files []UploadResult `json:"files"`
	}
	if err := decodeJSON(resp.Body, &out); err != nil {
		return UploadResult{}, err
	}
	if len(out.Files) == 0 {
		return UploadResult{Name: filepath.Base(path), Status: "accepted"}, nil
	}
	return out.Files[0], nil
}

// UploadLink submits a URL for server-side fetching and ingestion.
func (c *Client) UploadLink(ctx context.Context, clientID, link string) (UploadResult, error) {
	path := "/upload-link"
	if clientID != "" {
		path += "?clientId=" + url.QueryEscape(clientID)
	}
	var out UploadResult
	if err := c.postJSON(ctx, path, map[string]string{"url": link}, &out); err != nil {
		return UploadResult{}, err
	}
	return out, nil
}
