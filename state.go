package main

import (
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// StateTag identifies a TUI state.
type StateTag int

const (
	StateInput StateTag = iota
	StateThinking
	StateToolExecution
)

func (s StateTag) String() string {
	switch s {
	case StateThinking:
		return "thinking"
	case StateToolExecution:
		return "tool-execution"
	default:
		return "input"
	}
}

// TuiState is the per-state behavior: input routing and dynamic-region
// rendering.
type TuiState interface {
	Tag() StateTag
	OnEnter(ctx *TuiContext, prev StateTag)
	OnExit(ctx *TuiContext, next StateTag)
	HandleKey(ctx *TuiContext, msg tea.KeyMsg) tea.Cmd
	HandleChar(ctx *TuiContext, r rune) tea.Cmd
}

// StateMachine owns the current state and performs enter/exit
// transitions. The initial state is Input; there is no terminal state —
// quitting is a command that ends the event loop.
type StateMachine struct {
	states  map[StateTag]TuiState
	current StateTag
	ctx     *TuiContext
}

// NewStateMachine wires the three states.
func NewStateMachine(ctx *TuiContext) *StateMachine {
	return &StateMachine{
		states: map[StateTag]TuiState{
			StateInput:         &inputState{},
			StateThinking:      &thinkingState{},
			StateToolExecution: &toolExecutionState{},
		},
		current: StateInput,
		ctx:     ctx,
	}
}

// Current returns the active state tag.
func (m *StateMachine) Current() StateTag { return m.current }

// Transition switches states, invoking exit and enter hooks and fanning
// the change out through the mediator.
func (m *StateMachine) Transition(next StateTag) {
	if next == m.current {
		return
	}
	prev := m.current
	m.states[prev].OnExit(m.ctx, next)
	m.current = next
	m.states[next].OnEnter(m.ctx, prev)
	m.ctx.Mediator.Notify(Event{Kind: EventStateChanged, From: prev, To: next})
}

// HandleKey routes a control-key event to the active state.
func (m *StateMachine) HandleKey(msg tea.KeyMsg) tea.Cmd {
	return m.states[m.current].HandleKey(m.ctx, msg)
}

// HandleChar routes a character event to the active state.
func (m *StateMachine) HandleChar(r rune) tea.Cmd {
	return m.states[m.current].HandleChar(m.ctx, r)
}

// submitMsg carries a validated non-command submission out of the input
// state; the TUI model starts the streaming request for it.
type submitMsg struct {
	prompt string
}

// commandOutputMsg carries a command's rendered panel to scrollback.
type commandOutputMsg struct {
	text  string
	level InfoLevel
}

// cancelStreamMsg asks the model to cancel the in-flight request.
type cancelStreamMsg struct{}

// quitRequestMsg asks for an orderly shutdown.
type quitRequestMsg struct{}

// inputState is the prompt-editing state.
type inputState struct{}

func (s *inputState) Tag() StateTag                        { return StateInput }
func (s *inputState) OnEnter(ctx *TuiContext, _ StateTag)  {}
func (s *inputState) OnExit(ctx *TuiContext, _ StateTag)   {}

func (s *inputState) HandleChar(ctx *TuiContext, r rune) tea.Cmd {
	ctx.Input.InsertRune(r)
	ctx.Autocomplete.OnBufferChanged(ctx.Input)
	return nil
}

func (s *inputState) HandleKey(ctx *TuiContext, msg tea.KeyMsg) tea.Cmd {
	in := ctx.Input

	switch msg.String() {
	case "enter":
		return s.handleEnter(ctx)

	case "tab":
		if in.Mode() == ModeAutocomplete {
			ctx.Autocomplete.Accept(in)
		}
		return nil

	case "esc":
		switch in.Mode() {
		case ModeAutocomplete:
			in.ClearCompletion()
		case ModeUserSelection:
			ctx.Selections.Cancel(ctx)
		}
		return nil

	case "backspace":
		in.Backspace()
		ctx.Autocomplete.OnBufferChanged(in)
		return nil

	case "delete":
		in.Delete()
		ctx.Autocomplete.OnBufferChanged(in)
		return nil

	case "left":
		in.MoveLeft(false)
		return nil
	case "right":
		in.MoveRight(false)
		return nil
	case "shift+left":
		in.MoveLeft(true)
		return nil
	case "shift+right":
		in.MoveRight(true)
		return nil
	case "home":
		in.MoveHome(false)
		return nil
	case "end":
		in.MoveEnd(false)
		return nil
	case "shift+home":
		in.MoveHome(true)
		return nil
	case "shift+end":
		in.MoveEnd(true)
		return nil

	case "up":
		if in.Mode() != ModeNormal {
			in.MoveSelection(-1)
			return nil
		}
		if prev, ok := ctx.HistoryNav.Previous(in.Buffer()); ok {
			in.SetBuffer(prev)
		}
		return nil

	case "down":
		if in.Mode() != ModeNormal {
			in.MoveSelection(1)
			return nil
		}
		if next, ok := ctx.HistoryNav.Next(); ok {
			in.SetBuffer(next)
		}
		return nil
	}

	return nil
}

// handleEnter validates and routes a submission. Empty buffers are
// ignored; slash commands dispatch synchronously and the state stays
// Input; anything else becomes a streaming request.
func (s *inputState) handleEnter(ctx *TuiContext) tea.Cmd {
	in := ctx.Input

	// Accepting a modal selection wins over submission.
	switch in.Mode() {
	case ModeUserSelection:
		if outcome, ok := ctx.Selections.Accept(ctx); ok {
			in.Reset()
			return func() tea.Msg { return commandOutputMsg{text: outcome, level: InfoLevelInfo} }
		}
		return nil
	case ModeAutocomplete:
		// Enter during autocomplete accepts; the next Enter submits.
		ctx.Autocomplete.Accept(in)
		return nil
	}

	text := strings.TrimSpace(in.Buffer())
	if text == "" {
		return nil
	}

	ctx.HistoryNav.Add(text)
	if ctx.Prompts != nil {
		if err := ctx.Prompts.AppendPrompt(text); err != nil {
			slog.Warn("failed to persist prompt history", "error", err)
		}
	}

	if result, name, isCommand := ctx.Commands.Dispatch(ctx, text); isCommand {
		in.Reset()
		if result.Quit {
			return func() tea.Msg { return quitRequestMsg{} }
		}
		if result.Interactive {
			if !ctx.Selections.Activate(ctx, name) {
				return func() tea.Msg {
					return commandOutputMsg{text: "nothing to select", level: InfoLevelWarning}
				}
			}
			return nil
		}
		return func() tea.Msg { return commandOutputMsg{text: result.Output, level: result.Level} }
	}

	in.Reset()
	return func() tea.Msg { return submitMsg{prompt: text} }
}

// thinkingState shows the streaming placeholder; Esc cancels.
type thinkingState struct{}

func (s *thinkingState) Tag() StateTag                       { return StateThinking }
func (s *thinkingState) OnEnter(ctx *TuiContext, _ StateTag) {}
func (s *thinkingState) OnExit(ctx *TuiContext, _ StateTag)  {}

func (s *thinkingState) HandleChar(ctx *TuiContext, r rune) tea.Cmd { return nil }

func (s *thinkingState) HandleKey(ctx *TuiContext, msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "esc" {
		return func() tea.Msg { return cancelStreamMsg{} }
	}
	return nil
}

// toolExecutionState shows the most recent tool progress. Esc requests
// cancellation; the event loop records which calls were outstanding so
// their tool-call turns end up marked cancelled.
type toolExecutionState struct{}

func (s *toolExecutionState) Tag() StateTag { return StateToolExecution }

func (s *toolExecutionState) OnEnter(ctx *TuiContext, _ StateTag) {}

func (s *toolExecutionState) OnExit(ctx *TuiContext, _ StateTag) {
	ctx.ToolProgress = ""
}

func (s *toolExecutionState) HandleChar(ctx *TuiContext, r rune) tea.Cmd { return nil }

func (s *toolExecutionState) HandleKey(ctx *TuiContext, msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "esc" {
		return func() tea.Msg { return cancelStreamMsg{} }
	}
	return nil
}
