// Package stub is a local development backend: it serves the full API
// surface with scripted answers so the CLI and tests can run without a
// real document QA deployment.
package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arkelov/docq/internal/client"
)

const maxRequestBodySize = 10 << 20 // 10MB

// Server holds the stub's in-memory state: uploaded file names and
// stored quizzes.
type Server struct {
	// StageDelay spaces the scripted stream events; zero means no delay
	// (tests).
	StageDelay time.Duration

	mu      sync.Mutex
	files   map[string]string // file id -> name
	quizzes map[string]client.Quiz
}

func NewServer() *Server {
	return &Server{
		files:   make(map[string]string),
		quizzes: make(map[string]client.Quiz),
	}
}

// Handler returns the stub's HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Post("/api/query-stream", s.handleQueryStream)
	r.Post("/query", s.handleQuery)
	r.Get("/sse/progress", s.handleProgress)
	r.Post("/upload-multiple", s.handleUploadMultiple)
	r.Post("/upload-link", s.handleUploadLink)
	r.Post("/tts", s.handleTTS)
	r.Post("/quiz/generate", s.handleQuizGenerate)
	r.Get("/quiz/list", s.handleQuizList)
	r.Get("/quiz/{id}", s.handleQuizGet)
	r.Delete("/quiz/{id}", s.handleQuizDelete)

	return r
}

func (s *Server) handleQueryStream(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req client.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if req.Question == "" {
		httpError(w, http.StatusBadRequest, "question is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")

	emit := func(v any) {
		json.NewEncoder(w).Encode(v)
		flusher.Flush()
		if s.StageDelay > 0 {
			select {
			case <-time.After(s.StageDelay):
			case <-r.Context().Done():
			}
		}
	}

	for _, stage := range []string{"graph", "vector", "fulltext"} {
		emit(map[string]any{"type": stage + "Progress", "message": "searching " + stage})
		emit(map[string]any{"type": stage, "data": 3})
	}
	emit(s.scriptedResult(req))
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req client.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if req.Question == "" {
		httpError(w, http.StatusBadRequest, "question is required")
		return
	}

	res := s.scriptedResult(req)
	delete(res, "type")
	writeJSON(w, res)
}

// scriptedResult builds a canned answer citing the first uploaded file,
// or a synthetic source when nothing has been uploaded yet.
func (s *Server) scriptedResult(req client.Request) map[string]any {
	s.mu.Lock()
	source := "handbook.pdf"
	fileID := "stub-file"
	for id, name := range s.files {
		fileID, source = id, name
		break
	}
	s.mu.Unlock()

	answerText := fmt.Sprintf("Here is what the documents say about %q.", req.Question)
	result := map[string]any{
		"type":   "result",
		"answer": answerText,
		"answer_with_citations": []map[string]any{{
			"content_segments": []map[string]any{
				{
					"segment_text":      answerText,
					"source_references": []map[string]any{{"file_chunk_id": "chunk-1"}},
				},
				{
					"segment_text":      "Always verify against the original document.",
					"source_references": []map[string]any{},
				},
			},
		}},
		"raw_sources": []map[string]any{
			{"chunkId": "chunk-1", "fileId": fileID, "source": source, "pageNumber": 1},
		},
	}
	if req.GenerateImage {
		result["generated_image"] = "data:image/png;base64,c3R1Yg=="
	}
	return result
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("clientId") == "" {
		httpError(w, http.StatusBadRequest, "clientId is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	emit := func(v any) {
		payload, _ := json.Marshal(v)
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		if s.StageDelay > 0 {
			select {
			case <-time.After(s.StageDelay):
			case <-r.Context().Done():
			}
		}
	}

	emit(map[string]any{"type": "keepalive"})
	const total = 2
	for done := 1; done <= total; done++ {
		emit(map[string]any{"type": "progress", "total": total, "done": done})
	}
	emit(map[string]any{"type": "finished"})
}

func (s *Server) handleUploadMultiple(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxRequestBodySize); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart form: %v", err)
		return
	}

	var results []client.UploadResult
	s.mu.Lock()
	for _, fh := range r.MultipartForm.File["files"] {
		id := uuid.NewString()
		s.files[id] = fh.Filename
		results = append(results, client.UploadResult{FileID: id, Name: fh.Filename, Status: "ingested"})
	}
	s.mu.Unlock()

	if len(results) == 0 {
		httpError(w, http.StatusBadRequest, "no files in request")
		return
	}
	writeJSON(w, map[string]any{"files": results})
}

func (s *Server) handleUploadLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		httpError(w, http.StatusBadRequest, "url is required")
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.files[id] = req.URL
	s.mu.Unlock()

	writeJSON(w, client.UploadResult{FileID: id, Name: req.URL, Status: "ingested"})
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		httpError(w, http.StatusBadRequest, "text is required")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	// Not real audio; enough for clients that just save the bytes.
	fmt.Fprintf(w, "STUB-MP3:%s", req.Text)
}

func (s *Server) handleQuizGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxRequestBodySize); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart form: %v", err)
		return
	}

	difficulty := r.FormValue("difficulty")
	if difficulty == "" {
		difficulty = "medium"
	}
	questions := []client.Question{
		{
			Question:    fmt.Sprintf("Sample %s question from your documents?", difficulty),
			Options:     []string{"Option A", "Option B", "Option C", "Option D"},
			AnswerIndex: 1,
			BloomLevel:  "understand",
			Explanation: "Option B matches the source text.",
		},
	}

	quiz := client.Quiz{
		ID:        uuid.NewString(),
		Title:     "Generated quiz",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Questions: questions,
	}
	s.mu.Lock()
	s.quizzes[quiz.ID] = quiz
	s.mu.Unlock()

	writeJSON(w, map[string]any{"questions": questions, "quiz_id": quiz.ID})
}

func (s *Server) handleQuizList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	quizzes := make([]client.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		quizzes = append(quizzes, q)
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{"quizzes": quizzes})
}

func (s *Server) handleQuizGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	quiz, ok := s.quizzes[id]
	s.mu.Unlock()
	if !ok {
		httpError(w, http.StatusNotFound, "quiz %s not found", id)
		return
	}
	writeJSON(w, map[string]any{"quiz": quiz})
}

func (s *Server) handleQuizDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.quizzes[id]
	delete(s.quizzes, id)
	s.mu.Unlock()
	if !ok {
		httpError(w, http.StatusNotFound, "quiz %s not found", id)
		return
	}
	writeJSON(w, map[string]any{"status": "deleted"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": fmt.Sprintf(format, args...),
	})
}
