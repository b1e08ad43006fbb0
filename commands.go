package main

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// SlashCommand is one built-in command. Interactive commands switch the
// TUI into UserSelection mode instead of producing output directly.
type SlashCommand struct {
	Name        string
	Description string
	Interactive bool
	Handler     func(ctx *TuiContext, args string) CommandResult
}

// CommandResult is what a dispatched command produced.
type CommandResult struct {
	Output      string // rendered panel, shown as an info turn
	Level       InfoLevel
	Interactive bool // enter UserSelection for InteractiveFor
	Quit        bool
}

// SlashCommandProcessor parses leading-slash input and dispatches to the
// closed set of built-in commands. Dispatch prefers the longest command
// name that prefixes the input at a word boundary; a single-token lookup
// is the fallback.
type SlashCommandProcessor struct {
	commands []SlashCommand
	byName   map[string]SlashCommand
}

// NewSlashCommandProcessor registers the built-in command set.
func NewSlashCommandProcessor() *SlashCommandProcessor {
	p := &SlashCommandProcessor{byName: make(map[string]SlashCommand)}

	p.register(SlashCommand{
		Name:        "/help",
		Description: "Show available commands",
		Handler: func(ctx *TuiContext, _ string) CommandResult {
			return CommandResult{Output: p.renderHelp(ctx), Level: InfoLevelInfo}
		},
	})
	p.register(SlashCommand{
		Name:        "/clear",
		Description: "Clear the chat history",
		Handler: func(ctx *TuiContext, _ string) CommandResult {
			ctx.Mediator.Notify(Event{Kind: EventClearHistory})
			return CommandResult{Output: "chat history cleared", Level: InfoLevelInfo}
		},
	})
	p.register(SlashCommand{
		Name:        "/exit",
		Description: "Exit the application",
		Handler: func(ctx *TuiContext, _ string) CommandResult {
			return CommandResult{Quit: true}
		},
	})
	p.register(SlashCommand{
		Name:        "/quit",
		Description: "Exit the application",
		Handler: func(ctx *TuiContext, _ string) CommandResult {
			return CommandResult{Quit: true}
		},
	})
	p.register(SlashCommand{
		Name:        "/status",
		Description: "Show the current configuration",
		Handler: func(ctx *TuiContext, _ string) CommandResult {
			return CommandResult{Output: renderStatus(ctx), Level: InfoLevelInfo}
		},
	})
	p.register(SlashCommand{
		Name:        "/tool-approvals",
		Description: "Change the tool approval mode",
		Interactive: true,
	})
	p.register(SlashCommand{
		Name:        "/session clear",
		Description: "Clear the current session history",
		Handler: func(ctx *TuiContext, _ string) CommandResult {
			if err := ctx.Sessions.ClearCurrent(); err != nil {
				return CommandResult{Output: fmt.Sprintf("failed to clear session: %v", err), Level: InfoLevelError}
			}
			ctx.Mediator.Notify(Event{Kind: EventClearHistory})
			return CommandResult{Output: "session history cleared", Level: InfoLevelInfo}
		},
	})
	p.register(SlashCommand{
		Name:        "/session list",
		Description: "Pick a recent session to resume",
		Interactive: true,
	})
	p.register(SlashCommand{
		Name:        "/session rename",
		Description: "Rename the current session",
		Handler: func(ctx *TuiContext, args string) CommandResult {
			name := strings.TrimSpace(args)
			if name == "" {
				return CommandResult{Output: "usage: /session rename <name>", Level: InfoLevelError}
			}
			if err := ctx.Sessions.Rename(name); err != nil {
				return CommandResult{Output: fmt.Sprintf("failed to rename session: %v", err), Level: InfoLevelError}
			}
			return CommandResult{Output: fmt.Sprintf("session renamed to %q", name), Level: InfoLevelInfo}
		},
	})

	return p
}

func (p *SlashCommandProcessor) register(cmd SlashCommand) {
	p.commands = append(p.commands, cmd)
	p.byName[cmd.Name] = cmd
}

// IsCommand reports whether input would be treated as a command.
func (p *SlashCommandProcessor) IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// Match resolves input to a command and its argument string. The longest
// registered name that prefixes the lowercased input wins, provided the
// next character is whitespace or end-of-input; otherwise the first
// whitespace-delimited token is looked up directly.
func (p *SlashCommandProcessor) Match(input string) (SlashCommand, string, bool) {
	trimmed := strings.TrimSpace(input)
	lower := strings.ToLower(trimmed)

	var best SlashCommand
	bestLen := -1
	for _, cmd := range p.commands {
		name := strings.ToLower(cmd.Name)
		if !strings.HasPrefix(lower, name) {
			continue
		}
		if len(lower) > len(name) && lower[len(name)] != ' ' && lower[len(name)] != '\t' {
			continue
		}
		if len(name) > bestLen {
			best = cmd
			bestLen = len(name)
		}
	}
	if bestLen >= 0 {
		return best, strings.TrimSpace(trimmed[bestLen:]), true
	}

	token := lower
	if idx := strings.IndexAny(token, " \t"); idx >= 0 {
		token = token[:idx]
	}
	if cmd, ok := p.byName[token]; ok {
		rest := strings.TrimSpace(trimmed[len(token):])
		return cmd, rest, true
	}

	return SlashCommand{}, "", false
}

// Dispatch runs the command matching input. Unknown commands produce the
// hint turn; the bool reports whether input looked like a command at all.
func (p *SlashCommandProcessor) Dispatch(ctx *TuiContext, input string) (CommandResult, string, bool) {
	if !p.IsCommand(input) {
		return CommandResult{}, "", false
	}

	cmd, args, ok := p.Match(input)
	if !ok {
		token := strings.Fields(strings.TrimSpace(input))[0]
		return CommandResult{
			Output: fmt.Sprintf("Unknown command: %s. Tip: Type /help to see available commands.", token),
			Level:  InfoLevelWarning,
		}, "", true
	}

	if cmd.Interactive {
		return CommandResult{Interactive: true}, cmd.Name, true
	}
	return cmd.Handler(ctx, args), cmd.Name, true
}

// Suggestions returns the sorted command names whose lowercase form starts
// with partial.
func (p *SlashCommandProcessor) Suggestions(partial string) []string {
	lower := strings.ToLower(partial)
	var out []string
	for _, cmd := range p.commands {
		if strings.HasPrefix(strings.ToLower(cmd.Name), lower) {
			out = append(out, cmd.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Commands returns the registered commands sorted by name.
func (p *SlashCommandProcessor) Commands() []SlashCommand {
	out := make([]SlashCommand, len(p.commands))
	copy(out, p.commands)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns a command by exact name.
func (p *SlashCommandProcessor) Lookup(name string) (SlashCommand, bool) {
	cmd, ok := p.byName[name]
	return cmd, ok
}

// renderHelp builds the /help command table, sorted by name.
func (p *SlashCommandProcessor) renderHelp(ctx *TuiContext) string {
	cmds := p.Commands()
	width := 0
	for _, c := range cmds {
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, c.Name, c.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// statusRows lists the configuration snapshot shown by /status and -s.
func statusRows(cfg *Config, version string) [][2]string {
	p := cfg.Profile()
	return [][2]string{
		{"Profile", cfg.ActiveProfile},
		{"Provider", p.Provider},
		{"Model", p.Model},
		{"Tool approvals", cfg.ToolApprovals},
		{"Working directory", cfg.WorkingDir},
		{"Version", version},
		{"Platform", runtime.GOOS + "/" + runtime.GOARCH},
	}
}

// formatStatusTable aligns the rows into a two-column table.
func formatStatusTable(rows [][2]string) string {
	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, r[0], r[1])
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderStatus builds the /status configuration snapshot.
func renderStatus(ctx *TuiContext) string {
	rows := statusRows(ctx.Config, ctx.Version)
	if s := ctx.Sessions.Current(); s != nil {
		rows = append(rows, [2]string{"Session", s.Name})
	}
	return formatStatusTable(rows)
}
