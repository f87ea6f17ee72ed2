// Audit agent entry point. Runs as an interactive analyst console, a
// structured one-shot for UIs driving it over a pipe, or an HTTP server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/awb-bank/audit-agent/pkg/agent"
	"github.com/awb-bank/audit-agent/pkg/api"
	"github.com/awb-bank/audit-agent/pkg/config"
	"github.com/awb-bank/audit-agent/pkg/database"
	"github.com/awb-bank/audit-agent/pkg/llm"
	"github.com/awb-bank/audit-agent/pkg/prompt"
	"github.com/awb-bank/audit-agent/pkg/tools"
	"github.com/awb-bank/audit-agent/pkg/version"
)

const banner = "AWB BANK AUDIT AGENT (AUTONOMOUS, SQL-FIRST)"

func main() {
	configDir := flag.String("config-dir", "./config", "Path to configuration directory")
	serve := flag.Bool("serve", false, "Run the HTTP API server instead of the console")
	structured := flag.Bool("structured", false, "Emit STEP_JSON event lines for a driving UI")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Debug("No .env file loaded, continuing with existing environment",
			"path", envPath, "error", err)
	}

	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		slog.Error("Missing credentials", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()

	llmClient := llm.NewClient(cfg.LLM)
	mailer := tools.NewSMTPMailer(cfg.SMTP)
	registry := tools.NewRegistry(dbClient.DB(), mailer, cfg)
	builder := prompt.NewBuilder(cfg.Agent.AlertRecipient)
	loopCfg := agent.Config{
		MaxSteps:          cfg.Agent.MaxSteps,
		MaxActionsPerStep: cfg.Agent.MaxActionsPerStep,
	}

	sess := &session{
		llm:      llmClient,
		registry: registry,
		builder:  builder,
		cfg:      loopCfg,
	}

	switch {
	case *serve:
		runServer(cfg, sess, dbClient)
	case *structured || !stdinIsTerminal():
		runStructured(ctx, sess)
	default:
		runInteractive(ctx, sess)
	}
}

// session binds the fixed wiring of one process; each question gets a
// fresh loop with its own reporter.
type session struct {
	llm      agent.LLMClient
	registry *agent.Registry
	builder  *prompt.Builder
	cfg      agent.Config
}

func (s *session) run(ctx context.Context, question string, reporter agent.Reporter) (*agent.RunResult, error) {
	loop := agent.NewLoop(s.llm, s.registry, reporter, s.cfg)
	return loop.Run(ctx, s.builder.BuildMessages(question))
}

// Run satisfies the api.Runner interface; HTTP mode has no event stream.
func (s *session) Run(ctx context.Context, question string) (*agent.RunResult, error) {
	return s.run(ctx, question, agent.NopReporter{})
}

func runServer(cfg *config.Config, sess *session, dbClient *database.Client) {
	slog.Info("Starting audit agent", "version", version.Full(), "mode", "http")

	server := api.NewServer(":"+cfg.HTTP.Port, sess, dbClient)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		slog.Info("Shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Shutdown error", "error", err)
		}
	}
}

// runStructured reads one question from stdin and streams STEP_JSON
// event lines to stdout for the driving process to parse.
func runStructured(ctx context.Context, sess *session) {
	question := readFirstQuestion(os.Stdin)
	if question == "" {
		return
	}
	reporter := agent.NewJSONReporter(os.Stdout)
	if _, err := sess.run(ctx, question, reporter); err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

// readFirstQuestion returns the first non-empty line that is not a quit
// command.
func readFirstQuestion(r *os.File) string {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isQuit(line) {
			continue
		}
		return line
	}
	return ""
}

func runInteractive(ctx context.Context, sess *session) {
	fmt.Println(banner)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("\nINTERACTIVE MODE - Ask anything about the audit logs.")
	fmt.Println("Type \"quit\" to exit.")
	fmt.Println()

	reporter := agent.NewTerminalReporter(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if isQuit(input) {
			fmt.Println("\nGoodbye!")
			break
		}
		if input == "" {
			continue
		}
		if _, err := sess.run(ctx, input, reporter); err != nil {
			fmt.Printf("\nError: %v\n\n", err)
		}
	}
}

func isQuit(input string) bool {
	switch strings.ToLower(input) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
