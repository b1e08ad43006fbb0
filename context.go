package main

import (
	"github.com/peakflames/mogzi/storage"
)

// TuiContext aggregates the singletons owned by one run. It is created in
// main and borrowed by the event loop; components receive what they need
// through the per-frame RenderContext rather than holding references to
// each other.
type TuiContext struct {
	Config   *Config
	Theme    *Theme
	Version  string
	Repo     RepoInfo

	Input      *InputContext
	HistoryNav *CommandHistory

	History  *HistoryManager
	Sessions *SessionManager
	Prompts  *storage.HistoryStore

	Commands     *SlashCommandProcessor
	Autocomplete *AutocompleteManager
	Selections   *UserSelectionManager
	Mediator     *Mediator

	Service  AppService
	Keyboard *KeyboardPipeline

	// ToolProgress is the latest tool progress line, rendered by the
	// ToolExecution state.
	ToolProgress string
}

// NewTuiContext wires the singletons together and registers the mediator
// plumbing. service may be nil until the model client is ready.
func NewTuiContext(cfg *Config, sessions *SessionManager, prompts *storage.HistoryStore, service AppService, version string) *TuiContext {
	ctx := &TuiContext{
		Config:     cfg,
		Theme:      NewTheme(),
		Version:    version,
		Repo:       GetRepoInfo(),
		Input:      NewInputContext(),
		HistoryNav: NewCommandHistory(),
		History:    NewHistoryManager(sessions),
		Sessions:   sessions,
		Prompts:    prompts,
		Mediator:   NewMediator(),
		Service:    service,
		Keyboard:   NewKeyboardPipeline(),
	}

	ctx.Commands = NewSlashCommandProcessor()
	ctx.Autocomplete = NewAutocompleteManager(
		NewSlashCommandProvider(ctx.Commands),
		NewFilePathProvider(cfg.WorkingDir),
	)
	ctx.Selections = NewUserSelectionManager(
		NewToolApprovalsProvider(),
		NewSessionListProvider(),
	)

	ctx.Mediator.Register(func(ev Event) {
		switch ev.Kind {
		case EventClearHistory:
			ctx.History.Clear()
		case EventToolProgress:
			ctx.ToolProgress = ev.Text
		case EventSessionChanged:
			if ev.Session != nil {
				ctx.History.Rebuild(ev.Session.History)
			}
		}
	})
	ctx.Mediator.SetResponder(func(q QueryKind) any {
		switch q {
		case QuerySessionName:
			if s := ctx.Sessions.Current(); s != nil {
				return s.Name
			}
			return ""
		case QueryTurnCount:
			return ctx.History.Len()
		}
		return nil
	})

	// Seed the in-memory command history from the persistent store.
	if prompts != nil {
		if entries, err := prompts.LoadPrompts(maxCommandHistory); err == nil {
			for i := len(entries) - 1; i >= 0; i-- {
				ctx.HistoryNav.Add(entries[i].Content)
			}
		}
	}

	return ctx
}
