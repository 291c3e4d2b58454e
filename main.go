package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fsearch/internal/apperr"
	"fsearch/internal/config"
	"fsearch/internal/conversation"
	"fsearch/internal/gemini"
	"fsearch/internal/markdown"
	"fsearch/internal/search"
	"fsearch/internal/server"
	"fsearch/internal/terminal"
	"fsearch/internal/ui"
)

func main() {
	// Load .env if present; real environment wins
	_ = godotenv.Load()

	// Parse command-line flags
	cfg, interactive := parseFlags()

	setupLogging(cfg.Verbose)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize components; the gateway is constructed once here and
	// passed down explicitly.
	client := gemini.NewClient(cfg.GeminiBaseURL, cfg.ModelName, cfg.RequestTimeout, gemini.GenerationConfig{
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
		TopK:            cfg.TopK,
		MaxOutputTokens: cfg.MaxOutputTokens,
	})
	formatter := markdown.NewFormatter()
	svc := search.NewService(client, formatter)

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if interactive {
		runInteractive(ctx, cfg, svc)
		return
	}

	srv := server.NewServer(cfg, svc)
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// parseFlags parses command-line flags. Precedence is defaults, then the
// config file, then environment variables, then explicit flags.
func parseFlags() (*config.Config, bool) {
	cfg := config.NewConfig()

	configPath := flag.String("config", "", "Path to YAML config file")
	interactive := flag.Bool("interactive", false, "Run the terminal client instead of the HTTP server")

	addr := flag.String("addr", "", "HTTP listen address")
	model := flag.String("model", "", "Gemini model name")
	geminiURL := flag.String("gemini-url", "", "Gemini API base URL")
	storePath := flag.String("store", "", "Conversation store path")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	timeoutSeconds := flag.Int("timeout", 0, "Model request timeout in seconds")

	flag.Parse()

	if err := cfg.LoadFile(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	cfg.FromEnv()

	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *model != "" {
		cfg.ModelName = *model
	}
	if *geminiURL != "" {
		cfg.GeminiBaseURL = *geminiURL
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}
	if *timeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(*timeoutSeconds) * time.Second
	}
	if *verbose {
		cfg.Verbose = true
	}

	return cfg, *interactive
}

func setupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(level)
}

// runInteractive drives the gateway from a terminal prompt, persisting
// conversation state locally the way the web client does.
func runInteractive(ctx context.Context, cfg *config.Config, svc search.Gateway) {
	display := ui.NewDisplay()

	store, err := conversation.Open(cfg.StorePath, cfg.MaxSessions)
	if err != nil {
		display.PrintError(err)
		os.Exit(1)
	}
	defer store.Close()

	apiKey := cfg.DefaultAPIKey
	if apiKey == "" {
		display.PrintWarning("No API key configured. Set GEMINI_API_KEY in the environment or a .env file.")
		os.Exit(1)
	}

	display.PrintWelcome(cfg.ModelName)

	// Active conversation, nil until the first successful search
	var state *conversation.State

	for {
		select {
		case <-ctx.Done():
			display.PrintGoodbye()
			return
		default:
		}

		display.PrintPrompt()
		query, err := terminal.ReadUserInput()
		if err != nil {
			break
		}

		// Handle commands
		switch query {
		case "":
			continue
		case "/exit", "/quit", "exit", "quit":
			display.PrintGoodbye()
			return
		case "/new":
			state = nil
			display.PrintInfo("Starting a new conversation")
			continue
		case "/sessions":
			display.PrintSessionList(store.ListSessions())
			continue
		}

		if state == nil {
			// A repeated top-level query resumes its saved conversation
			// instead of starting fresh.
			if saved := store.LoadConversationState(query); saved != nil && len(saved.ConversationHistory) > 0 {
				display.PrintFollowUpHint(saved.OriginalQuery)
				state = saved
			}
		}

		if state == nil {
			state = doSearch(ctx, svc, store, display, query, apiKey)
			continue
		}

		state = doFollowUp(ctx, svc, store, display, state, query, apiKey)
	}
}

// doSearch runs a fresh top-level search and seeds conversation state.
func doSearch(ctx context.Context, svc search.Gateway, store *conversation.Store, display *ui.Display, query, apiKey string) *conversation.State {
	result, err := svc.Search(ctx, query, apiKey)
	if err != nil {
		display.PrintError(err)
		return nil
	}

	display.PrintAnswer(result.Markdown)
	display.PrintSources(result.Sources)

	sessionID := uuid.NewString()
	state := &conversation.State{
		SessionID:      sessionID,
		CurrentResults: marshalResults(result),
		OriginalQuery:  query,
		IsFollowUp:     false,
		ConversationHistory: []search.ChatHistoryEntry{
			{Role: search.RoleUser, Content: query},
			{Role: search.RoleAssistant, Content: result.Text},
		},
	}

	if err := store.SaveConversationState(query, *state); err != nil {
		display.PrintWarning(fmt.Sprintf("Failed to save conversation: %v", err))
	}
	if _, err := store.CreateSession(sessionID, query, result.Markdown, result.Sources); err != nil {
		display.PrintWarning(fmt.Sprintf("Failed to record session: %v", err))
	}

	return state
}

// doFollowUp continues the active conversation, falling back to a fresh
// search when the follow-up fails for session-related reasons.
func doFollowUp(ctx context.Context, svc search.Gateway, store *conversation.Store, display *ui.Display, state *conversation.State, query, apiKey string) *conversation.State {
	result, err := svc.FollowUp(ctx, query, state.ConversationHistory, apiKey)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindSessionNotFound {
			display.PrintWarning("Conversation expired, starting a new search")
			return doSearch(ctx, svc, store, display, query, apiKey)
		}
		display.PrintError(err)
		return state
	}

	display.PrintAnswer(result.Markdown)
	display.PrintSources(result.Sources)

	state.IsFollowUp = true
	state.CurrentResults = marshalResults(result)
	state.ConversationHistory = append(state.ConversationHistory,
		search.ChatHistoryEntry{Role: search.RoleUser, Content: query},
		search.ChatHistoryEntry{Role: search.RoleAssistant, Content: result.Text},
	)

	if err := store.SaveConversationState(state.OriginalQuery, *state); err != nil {
		display.PrintWarning(fmt.Sprintf("Failed to save conversation: %v", err))
	}
	if _, err := store.AppendToSession(state.SessionID, query, result.Markdown, result.Sources); err != nil {
		display.PrintWarning(fmt.Sprintf("Failed to update session: %v", err))
	}

	return state
}

// marshalResults snapshots the latest results for the saved state.
func marshalResults(result *search.Response) json.RawMessage {
	snapshot := map[string]any{
		"summary": result.FormattedText,
		"sources": result.Sources,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil
	}
	return data
}
