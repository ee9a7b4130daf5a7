// Package mcpsrv exposes the document QA backend as MCP tools so agent
// hosts can ask questions and generate quizzes over the document corpus.
package mcpsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/arkelov/docq/internal/answer"
	"github.com/arkelov/docq/internal/client"
)

// Backend abstracts the API client for the MCP layer.
type Backend interface {
	AskStream(ctx context.Context, req client.Request, opts client.AskOptions) (*client.Result, error)
	GenerateQuiz(ctx context.Context, p client.QuizParams) ([]client.Question, error)
}

// NewServer creates an MCP server with the document QA tools registered.
func NewServer(backend Backend) *server.MCPServer {
	s := server.NewMCPServer(
		"docq",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("docq: ask questions over an ingested document corpus with source citations."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask_documents",
			mcp.WithDescription("Ask a question over the ingested documents. Returns the answer with [n] citation markers and a numbered source list."),
			mcp.WithString("question", mcp.Description("The question to answer"), mcp.Required()),
			mcp.WithArray("file_ids", mcp.Description("Optional file ids to restrict retrieval to")),
		),
		mcpAskDocuments(backend),
	)

	s.AddTool(
		mcp.NewTool("generate_quiz",
			mcp.WithDescription("Generate multiple-choice quiz questions from the ingested documents."),
			mcp.WithArray("file_ids", mcp.Description("File ids to draw questions from")),
			mcp.WithString("difficulty", mcp.Description("easy, medium, or hard")),
			mcp.WithNumber("num_questions", mcp.Description("How many questions to generate (default server-side)")),
		),
		mcpGenerateQuiz(backend),
	)

	return s
}

func mcpAskDocuments(backend Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}
		fileIDs := req.GetStringSlice("file_ids", nil)

		res, err := backend.AskStream(ctx, client.Request{
			Question:        question,
			SelectedFileIDs: fileIDs,
			SelectedCount:   len(fileIDs),
		}, client.AskOptions{})
		if err != nil {
			return mcpError(fmt.Sprintf("query failed: %v", err)), nil
		}

		return mcpText(formatAnswer(res)), nil
	}
}

// formatAnswer flattens the node list into cited plain text followed by
// a numbered source list.
func formatAnswer(res *client.Result) string {
	var b strings.Builder
	seen := make(map[int]answer.Citation)
	var order []int
	for _, n := range res.Nodes {
		switch n.Kind {
		case answer.KindText:
			b.WriteString(n.Text)
		case answer.KindCitation:
			fmt.Fprintf(&b, " [%d]", n.Citation.Number)
			if _, ok := seen[n.Citation.Number]; !ok {
				seen[n.Citation.Number] = n.Citation
				order = append(order, n.Citation.Number)
			}
		}
	}

	if len(order) > 0 {
		b.WriteString("\n\nSources:\n")
		for _, num := range order {
			c := seen[num]
			fmt.Fprintf(&b, "[%d] %s", num, c.Source)
			if c.Page > 0 {
				fmt.Fprintf(&b, " (p. %d)", c.Page)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func mcpGenerateQuiz(backend Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fileIDs := req.GetStringSlice("file_ids", nil)
		difficulty := req.GetString("difficulty", "")
		numQuestions := req.GetInt("num_questions", 0)

		questions, err := backend.GenerateQuiz(ctx, client.QuizParams{
			FileIDs:      fileIDs,
			Difficulty:   difficulty,
			NumQuestions: numQuestions,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("quiz generation failed: %v", err)), nil
		}

		b, err := json.Marshal(questions)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal questions: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
