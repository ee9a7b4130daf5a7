package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arkelov/docq/internal/chat"
	"github.com/arkelov/docq/internal/client"
	"github.com/arkelov/docq/internal/config"
	"github.com/arkelov/docq/internal/docinfo"
	"github.com/arkelov/docq/internal/history"
	"github.com/arkelov/docq/internal/progress"
	"github.com/arkelov/docq/internal/render"
	"github.com/arkelov/docq/internal/sse"
	"github.com/arkelov/docq/internal/stream"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question over the ingested documents",
	Long: `Ask a question over the ingested documents.

Examples:
  docq ask "What does the handbook say about vacation days?"
  docq ask --files f1,f2 "Summarize the selected documents"
  docq ask --image "Draw the org chart described in the documents"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := args[0]
		filesStr, _ := cmd.Flags().GetString("files")
		generateImage, _ := cmd.Flags().GetBool("image")
		noStream, _ := cmd.Flags().GetBool("no-stream")
		asHTML, _ := cmd.Flags().GetBool("html")
		save, _ := cmd.Flags().GetBool("save")

		cfg, c, err := setup()
		if err != nil {
			return err
		}

		var fileIDs []string
		if filesStr != "" {
			fileIDs = strings.Split(filesStr, ",")
			for i := range fileIDs {
				fileIDs[i] = strings.TrimSpace(fileIDs[i])
			}
		}

		req := client.Request{
			Question:        question,
			SelectedFileIDs: fileIDs,
			SelectedCount:   len(fileIDs),
			GenerateImage:   generateImage,
		}

		var res *client.Result
		if noStream {
			res, err = c.Query(cmd.Context(), req)
		} else {
			res, err = askWithProgress(cmd.Context(), c, req)
		}
		if err != nil {
			printError("%s", client.UserMessage(err))
			return err
		}

		r := render.New()
		if asHTML {
			out, err := r.Content(res.Nodes)
			if err != nil {
				return err
			}
			fmt.Println(out)
		} else {
			printAnswer(r, res)
		}

		if save {
			if err := saveToHistory(cfg, question, res); err != nil {
				printWarning("could not save to history: %v", err)
			}
		}
		return nil
	},
}

// askWithProgress runs the streaming query through a chat session and
// folds progress events into a one-line stage display on stderr.
func askWithProgress(ctx context.Context, c *client.Client, req client.Request) (*client.Result, error) {
	agg := progress.New(nil, progress.Weights{})
	session := chat.NewSession(c)

	res, err := session.Submit(ctx, req, client.AskOptions{
		OnEvent: func(ev stream.Event) {
			agg.Observe(ev)
			overwriteLine("%s %3.0f%%  %s", colorize(colorCyan, "retrieving"), agg.Percent(), agg.Latest())
		},
	})
	overwriteLine("")
	if err != nil {
		return nil, err
	}

	for _, st := range agg.Stages() {
		if st.Count != nil {
			printStep("%s: %d results", st.Name, *st.Count)
		}
	}
	return res, nil
}

func printAnswer(r *render.Renderer, res *client.Result) {
	text, err := r.Text(res.Nodes)
	if err != nil || text == "" {
		text = res.Answer
	}
	fmt.Println(text)

	if len(res.Sources) > 0 {
		fmt.Println()
		fmt.Println(colorize(colorBold, "Sources:"))
		for i, src := range res.Sources {
			line := fmt.Sprintf("  [%d] %s", i+1, src.Source)
			if src.PageNumber > 0 {
				line += fmt.Sprintf(" (p. %d)", src.PageNumber)
			}
			fmt.Println(line)
		}
	}
	if res.GeneratedImage != "" {
		printStatus("Image", "%d bytes (data URL)", len(res.GeneratedImage))
	}
}

func saveToHistory(cfg config.Config, question string, res *client.Result) error {
	store, err := history.Open(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	sessionID := uuid.NewString()
	title := question
	if len(title) > 80 {
		title = title[:80]
	}
	if err := store.CreateSession(history.Session{ID: sessionID, Title: title}); err != nil {
		return err
	}

	questionJSON, _ := json.Marshal(question)
	if err := store.SaveMessage(history.Message{
		ID: uuid.NewString(), SessionID: sessionID, Role: "local", ContentJSON: string(questionJSON),
	}); err != nil {
		return err
	}

	nodesJSON, err := json.Marshal(res.Nodes)
	if err != nil {
		return err
	}
	return store.SaveMessage(history.Message{
		ID: uuid.NewString(), SessionID: sessionID, Role: "ai",
		CreatedAt: time.Now().Add(time.Second), ContentJSON: string(nodesJSON),
	})
}

func init() {
	askCmd.Flags().String("files", "", "comma-separated file ids to restrict retrieval to")
	askCmd.Flags().Bool("image", false, "also generate an illustrative image")
	askCmd.Flags().Bool("no-stream", false, "use the non-streaming endpoint (no progress display)")
	askCmd.Flags().Bool("html", false, "print the answer as an HTML fragment")
	askCmd.Flags().Bool("save", false, "save the exchange to local history")
}

// --- upload ---

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload local files for ingestion",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := setup()
		if err != nil {
			return err
		}

		for _, path := range args {
			info, err := docinfo.Inspect(path)
			if err != nil {
				return err
			}
			if info.Pages > 0 {
				printStep("%s (%d bytes, %d pages)", info.Name, info.Size, info.Pages)
			} else {
				printStep("%s (%d bytes)", info.Name, info.Size)
			}
		}

		clientID := sse.GenClientID()
		var results []client.UploadResult
		err = ingestWithProgress(cmd.Context(), cfg, clientID, func() error {
			var err error
			results, err = c.UploadFiles(cmd.Context(), clientID, args)
			return err
		})
		if err != nil {
			return err
		}

		for _, res := range results {
			printSuccess("%s → %s (%s)", res.Name, res.FileID, res.Status)
		}
		return nil
	},
}

// ingestWithProgress subscribes to the SSE progress channel for the
// given correlation id, runs fn (the ingestion calls tied to that id),
// and draws a live percent line on stderr. Ingestion still works when
// the channel cannot be opened.
func ingestWithProgress(ctx context.Context, cfg config.Config, clientID string, fn func() error) error {
	tracker := sse.NewTracker(nil, cfg.Server.BaseURL, cfg.ProgressResetDelay(), func(percent int, active bool) {
		if active {
			overwriteLine("%s %3d%%", colorize(colorCyan, "ingesting"), percent)
		}
	})
	if err := tracker.Start(ctx, clientID); err != nil {
		printWarning("progress channel unavailable: %v", err)
	}
	defer tracker.Stop()

	err := fn()
	fmt.Fprintln(os.Stderr)
	return err
}

// --- link ---

var linkCmd = &cobra.Command{
	Use:   "link <url>",
	Short: "Submit a URL for server-side fetching and ingestion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := setup()
		if err != nil {
			return err
		}

		clientID := sse.GenClientID()
		var res client.UploadResult
		err = ingestWithProgress(cmd.Context(), cfg, clientID, func() error {
			var err error
			res, err = c.UploadLink(cmd.Context(), clientID, args[0])
			return err
		})
		if err != nil {
			return err
		}
		printSuccess("%s → %s (%s)", res.Name, res.FileID, res.Status)
		return nil
	},
}

// --- tts ---

var ttsCmd = &cobra.Command{
	Use:   "tts <text>",
	Short: "Synthesize speech for the given text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		_, c, err := setup()
		if err != nil {
			return err
		}

		audio, err := c.Speak(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, audio, 0o644); err != nil {
			return fmt.Errorf("writing audio: %w", err)
		}
		printSuccess("Wrote %d bytes to %s", len(audio), out)
		return nil
	},
}

func init() {
	ttsCmd.Flags().String("out", "speech.mp3", "output file for the synthesized audio")
}

// --- quiz ---

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate and manage quizzes over the ingested documents",
}

var quizGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate quiz questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		filesStr, _ := cmd.Flags().GetString("files")
		levelsStr, _ := cmd.Flags().GetString("bloom-levels")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		count, _ := cmd.Flags().GetInt("count")

		_, c, err := setup()
		if err != nil {
			return err
		}

		params := client.QuizParams{
			Difficulty:   difficulty,
			NumQuestions: count,
		}
		if filesStr != "" {
			params.FileIDs = strings.Split(filesStr, ",")
		}
		if levelsStr != "" {
			params.BloomLevels = strings.Split(levelsStr, ",")
		}

		questions, err := c.GenerateQuiz(cmd.Context(), params)
		if err != nil {
			return err
		}
		printQuestions(questions)
		return nil
	},
}

var quizListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored quizzes",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := setup()
		if err != nil {
			return err
		}

		quizzes, err := c.ListQuizzes(cmd.Context())
		if err != nil {
			return err
		}
		if len(quizzes) == 0 {
			fmt.Println("no stored quizzes")
			return nil
		}
		for _, q := range quizzes {
			title := q.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("  %s  %s  %d questions\n", colorize(colorBold, q.ID), title, len(q.Questions))
		}
		return nil
	},
}

var quizShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := setup()
		if err != nil {
			return err
		}

		quiz, err := c.GetQuiz(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printQuestions(quiz.Questions)
		return nil
	},
}

var quizDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := setup()
		if err != nil {
			return err
		}

		if err := c.DeleteQuiz(cmd.Context(), args[0]); err != nil {
			return err
		}
		printSuccess("Deleted quiz %s", args[0])
		return nil
	},
}

var quizLevelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List the supported Bloom taxonomy levels",
	Run: func(cmd *cobra.Command, args []string) {
		for _, l := range client.BloomLevels {
			fmt.Println(l)
		}
	},
}

var quizDifficultiesCmd = &cobra.Command{
	Use:   "difficulties",
	Short: "List the supported difficulty settings",
	Run: func(cmd *cobra.Command, args []string) {
		for _, d := range client.Difficulties {
			fmt.Println(d)
		}
	},
}

func printQuestions(questions []client.Question) {
	for i, q := range questions {
		fmt.Printf("%s %s\n", colorize(colorBold, fmt.Sprintf("%d.", i+1)), q.Question)
		for j, opt := range q.Options {
			marker := "  "
			if j == q.AnswerIndex {
				marker = colorize(colorGreen, "✓ ")
			}
			fmt.Printf("   %s%c) %s\n", marker, 'a'+j, opt)
		}
		if q.Explanation != "" {
			fmt.Printf("   %s\n", q.Explanation)
		}
		fmt.Println()
	}
}

func init() {
	quizGenerateCmd.Flags().String("files", "", "comma-separated file ids to draw questions from")
	quizGenerateCmd.Flags().String("bloom-levels", "", "comma-separated Bloom levels ("+strings.Join(client.BloomLevels, ", ")+")")
	quizGenerateCmd.Flags().String("difficulty", "", "difficulty ("+strings.Join(client.Difficulties, ", ")+")")
	quizGenerateCmd.Flags().Int("count", 0, "number of questions (0 = server default)")

	quizCmd.AddCommand(quizGenerateCmd)
	quizCmd.AddCommand(quizListCmd)
	quizCmd.AddCommand(quizShowCmd)
	quizCmd.AddCommand(quizDeleteCmd)
	quizCmd.AddCommand(quizLevelsCmd)
	quizCmd.AddCommand(quizDifficultiesCmd)
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved conversations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := history.Open(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.ListSessions(limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("no saved conversations")
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("  %s  %s  %s\n",
				colorize(colorBold, s.ID),
				s.CreatedAt.Local().Format("2006-01-02 15:04"),
				s.Title)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := history.Open(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		msgs, err := store.ListMessages(args[0])
		if err != nil {
			return err
		}

		r := render.New()
		for _, m := range msgs {
			label := colorize(colorCyan, "you")
			if m.Role == "ai" {
				label = colorize(colorGreen, "docq")
			}
			text, err := r.Text(json.RawMessage(m.ContentJSON))
			if err != nil {
				text = m.ContentJSON
			}
			fmt.Printf("%s  %s\n", label, text)
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := history.Open(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteSession(args[0]); err != nil {
			return err
		}
		printSuccess("Deleted session %s", args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := history.Open(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ClearAll(); err != nil {
			return err
		}
		printSuccess("History cleared")
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum sessions to list")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
