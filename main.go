package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	isatty "github.com/mattn/go-isatty"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/peakflames/mogzi/storage"
)

// Update the version as part of the release process.
var version = "0.1.0"

var cli struct {
	Chat          bool     `help:"Force interactive chat mode."`
	Version       kong.VersionFlag `short:"v" help:"Print version information and exit."`
	Config        string   `short:"c" placeholder:"PATH" help:"Configuration file path (default mogzi.config.json in CWD, then home)."`
	Profile       string   `short:"p" placeholder:"NAME" help:"Select a named profile."`
	Status        bool     `short:"s" help:"Print the active configuration and exit."`
	ToolApprovals string   `aliases:"ta" placeholder:"MODE" help:"Tool approval mode: readonly or all."`
	Session       string   `placeholder:"ID" help:"Load an existing session by id."`
	Debug         bool     `help:"Enable debug logging."`
	Prompt        []string `arg:"" optional:"" help:"Prompt sent in non-interactive mode."`
}

// logRetentionDays matches the on-disk layout contract: log files older
// than this are deleted at startup.
const logRetentionDays = 30

func initLogger(debug bool) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve home directory: %v\n", err)
		os.Exit(1)
	}

	logDir := filepath.Join(homeDir, ".mogzi", "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory %s: %v\n", logDir, err)
		os.Exit(1)
	}
	cleanupOldLogs(logDir)

	logFile := &lumberjack.Logger{
		Filename: filepath.Join(logDir, fmt.Sprintf("mogzi-%s.log", time.Now().UTC().Format("2006-01-02"))),
		MaxSize:  10, // megabytes
		MaxAge:   logRetentionDays,
		Compress: true,
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})))
}

// cleanupOldLogs removes daily log files past the retention window.
func cleanupOldLogs(logDir string) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -logRetentionDays)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "mogzi-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(logDir, e.Name()))
		}
	}
}

func main() {
	kong.Parse(&cli,
		kong.Name("mogzi"),
		kong.Description("A terminal chat frontend for an AI coding assistant."),
		kong.Vars{"version": "mogzi " + version},
	)

	if cli.ToolApprovals != "" && cli.ToolApprovals != ApprovalReadonly && cli.ToolApprovals != ApprovalAll {
		fmt.Fprintf(os.Stderr, "mogzi: --tool-approvals must be %q or %q\n", ApprovalReadonly, ApprovalAll)
		os.Exit(1)
	}

	initLogger(cli.Debug)

	cfg, err := LoadConfig(cli.Config, cli.Profile, cli.ToolApprovals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mogzi: %v\n", err)
		os.Exit(1)
	}

	if cli.Status {
		fmt.Println(formatStatusTable(statusRows(cfg, version)))
		os.Exit(0)
	}

	// Piped stdin is concatenated before the positional prompt.
	prompt := strings.Join(cli.Prompt, " ")
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		if data, err := io.ReadAll(os.Stdin); err == nil && len(data) > 0 {
			piped := strings.TrimSpace(string(data))
			if piped != "" {
				prompt = strings.TrimSpace(piped + " " + prompt)
			}
		}
	}

	interactive := cli.Chat || prompt == ""
	if interactive && (!isatty.IsTerminal(os.Stdout.Fd()) || !isatty.IsTerminal(os.Stdin.Fd())) && !cli.Chat {
		fmt.Fprintln(os.Stderr, "mogzi: a terminal is required for interactive mode")
		os.Exit(1)
	}

	if err := run(cfg, prompt, interactive); err != nil {
		fmt.Fprintf(os.Stderr, "mogzi: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *Config, prompt string, interactive bool) error {
	chatsRoot, err := DefaultChatsRoot()
	if err != nil {
		return err
	}
	sessions, err := NewSessionManager(chatsRoot)
	if err != nil {
		return err
	}

	if cli.Session != "" {
		if _, err := sessions.Load(cli.Session); err != nil {
			return fmt.Errorf("loading session %s: %w", cli.Session, err)
		}
	} else {
		if _, err := sessions.CreateNew(); err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
	}

	var prompts *storage.HistoryStore
	if cfg.History.Enabled {
		home, err := os.UserHomeDir()
		if err == nil {
			db, err := storage.InitDB(filepath.Join(home, ".mogzi", "mogzi.sqlite"))
			if err != nil {
				slog.Warn("prompt history unavailable", "error", err)
			} else {
				defer db.Close()
				prompts = storage.NewHistoryStore(db, cfg.WorkingDir, cfg.History.Limit)
				if err := prompts.CleanupOld(logRetentionDays); err != nil {
					slog.Warn("prompt history cleanup failed", "error", err)
				}
			}
		}
	}

	service, err := NewAppService(cfg)
	if err != nil {
		return fmt.Errorf("initializing model client: %w", err)
	}

	ctx := NewTuiContext(cfg, sessions, prompts, service, version)

	if !interactive {
		return runOneShot(ctx, prompt)
	}

	model := NewTUIModel(ctx)
	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("event loop failed: %w", err)
	}
	return nil
}
