package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Bloom levels and difficulties the quiz generator accepts.
var (
	BloomLevels  = []string{"remember", "understand", "apply", "analyze", "evaluate", "create"}
	Difficulties = []string{"easy", "medium", "hard"}
)

// Question is one quiz item. AnswerIndex points into Options.
type Question struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
	BloomLevel  string   `json:"bloom_level,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// Quiz is a stored question set.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	CreatedAt string     `json:"created_at,omitempty"`
	Questions []Question `json:"questions"`
}

// QuizParams configures generation. Zero NumQuestions lets the server
// pick its default.
type QuizParams struct {
	FileIDs      []string
	BloomLevels  []string
	Difficulty   string
	NumQuestions int
}

// GenerateQuiz asks the server to build a quiz from the given files.
func (c *Client) GenerateQuiz(ctx context.Context, p QuizParams) ([]Question, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	writeField := func(name, value string) {
		if value != "" {
			mw.WriteField(name, value)
		}
	}
	writeField("file_ids", strings.Join(p.FileIDs, ","))
	writeField("bloom_levels", strings.Join(p.BloomLevels, ","))
	writeField("difficulty", p.Difficulty)
	if p.NumQuestions > 0 {
		writeField("num_questions", strconv.Itoa(p.NumQuestions))
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing form: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, streamTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/quiz/generate", &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Questions []Question `json:"questions"`
	}
	if err := decodeJSON(resp.Body, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// ListQuizzes returns stored quizzes, newest first.
func (c *Client) ListQuizzes(ctx context.Context) ([]Quiz, error) {
	var out struct {
		Quizzes []Quiz `json:"quizzes"`
	}
	if err := c.getJSON(ctx, "/quiz/list", &out); err != nil {
		return nil, err
	}
	return out.Quizzes, nil
}

// GetQuiz fetches one stored quiz by id.
func (c *Client) GetQuiz(ctx context.Context, id string) (*Quiz, error) {
	var out struct {
		Quiz Quiz `json:"quiz"`
	}
	if err := c.getJSON(ctx, "/quiz/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out.Quiz, nil
}

// DeleteQuiz removes a stored quiz.
func (c *Client) DeleteQuiz(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/quiz/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
