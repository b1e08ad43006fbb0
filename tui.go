package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// cancelledInfoText is the info turn appended when the user cancels a
// streaming response.
const cancelledInfoText = "response was cancelled by user"

// streamFragmentMsg delivers one response fragment to the event loop.
type streamFragmentMsg struct {
	frag ResponseFragment
}

// streamDoneMsg signals end of stream; err is nil for clean completion.
type streamDoneMsg struct {
	err error
}

// TUIModel is the bubbletea model driving the interactive runtime. The
// bubbletea program supplies the two-zone terminal contract: turns are
// committed to scrollback with Println (the static region) and View
// renders the dynamic frame in place.
type TUIModel struct {
	ctx        *TuiContext
	machine    *StateMachine
	components *ComponentManager
	renderer   *TurnRenderer
	parser     *StreamingParser

	spinner       spinner.Model
	width, height int

	stream       *ChatStream
	streamCancel context.CancelFunc
	cancelled    bool

	// openCalls tracks tool calls awaiting results; text resuming with
	// none outstanding returns ToolExecution to Thinking.
	openCalls map[string]bool

	// cancelledCalls holds the call ids that were outstanding when the
	// user cancelled out of ToolExecution; their tool-call turns are
	// marked cancelled.
	cancelledCalls map[string]bool

	emitted []ConversationTurn
}

// NewTUIModel wires the model over an assembled context.
func NewTUIModel(ctx *TuiContext) *TUIModel {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{Frames: thinkingFrames, FPS: 250 * time.Millisecond}
	sp.Style = ctx.Theme.Spinner

	m := &TUIModel{
		ctx:        ctx,
		machine:    NewStateMachine(ctx),
		components: NewComponentManager(),
		renderer:   NewTurnRenderer(ctx.Theme),
		spinner:    sp,
		openCalls:  make(map[string]bool),
	}
	m.parser = NewStreamingParser(func(turn ConversationTurn) {
		m.emitted = append(m.emitted, turn)
	})

	ctx.Keyboard.Bind(KeyBinding{
		Key:  "ctrl+c",
		Help: "Cancel the in-flight request",
		Handler: func(ctx *TuiContext) tea.Cmd {
			if m.stream != nil {
				return func() tea.Msg { return cancelStreamMsg{} }
			}
			return func() tea.Msg {
				return commandOutputMsg{text: "Type /exit to quit.", level: InfoLevelInfo}
			}
		},
	})

	return m
}

// Init implements tea.Model.
func (m *TUIModel) Init() tea.Cmd {
	m.ctx.Keyboard.Start()
	return nil
}

// Update implements tea.Model. A panic in a handler drops the frame and
// keeps the loop alive.
func (m *TUIModel) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	model = m
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered panic in update", "panic", r, "msg", fmt.Sprintf("%T", msg))
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.renderer.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if m.machine.Current() == StateInput {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submitMsg:
		return m.startStreaming(msg.prompt)

	case commandOutputMsg:
		if msg.text == "" {
			return m, nil
		}
		return m, m.appendAndPrint(NewInfoTurn(msg.text, msg.level))

	case cancelStreamMsg:
		if m.streamCancel != nil {
			m.cancelled = true
			if m.machine.Current() == StateToolExecution {
				m.cancelledCalls = make(map[string]bool, len(m.openCalls))
				for id := range m.openCalls {
					m.cancelledCalls[id] = true
				}
			}
			m.streamCancel()
		}
		return m, nil

	case quitRequestMsg:
		return m.shutdown()

	case streamFragmentMsg:
		return m.handleFragment(msg.frag)

	case streamDoneMsg:
		return m.finishStream(msg.err)
	}

	return m, nil
}

// handleKeyMsg is the keyboard pipeline entry point: stats and bindings
// first, then classification, then the active state.
func (m *TUIModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cmd, handled := m.ctx.Keyboard.Dispatch(m.ctx, msg); handled {
		return m, cmd
	}
	kind, r := m.ctx.Keyboard.Classify(msg)
	if kind == KeyEventChar {
		return m, m.machine.HandleChar(r)
	}
	return m, m.machine.HandleKey(msg)
}

// startStreaming records the user turn, launches the request, and enters
// Thinking.
func (m *TUIModel) startStreaming(prompt string) (tea.Model, tea.Cmd) {
	prior := m.ctx.History.Turns()
	previous := make([]ConversationTurn, len(prior))
	copy(previous, prior)

	printCmd := m.appendAndPrint(NewUserTurn(prompt))

	reqCtx, cancel := context.WithCancel(context.Background())
	m.streamCancel = cancel
	m.cancelled = false
	m.openCalls = make(map[string]bool)
	m.cancelledCalls = nil
	m.stream = m.ctx.Service.StreamChat(reqCtx, previous, prompt)

	m.machine.Transition(StateThinking)
	return m, tea.Batch(printCmd, m.spinner.Tick, m.waitForFragment())
}

// waitForFragment blocks on the stream until the next fragment or close.
func (m *TUIModel) waitForFragment() tea.Cmd {
	stream := m.stream
	return func() tea.Msg {
		frag, ok := <-stream.Fragments()
		if !ok {
			return streamDoneMsg{err: stream.Err()}
		}
		return streamFragmentMsg{frag: frag}
	}
}

// handleFragment feeds the parser and adjusts the Thinking/ToolExecution
// transitions.
func (m *TUIModel) handleFragment(frag ResponseFragment) (tea.Model, tea.Cmd) {
	switch frag.Kind {
	case FragmentToolCallStart:
		m.openCalls[frag.CallID] = true
		m.ctx.Mediator.Notify(Event{Kind: EventToolProgress, Text: "Running " + frag.ToolName})
		if m.machine.Current() == StateThinking {
			m.machine.Transition(StateToolExecution)
		}
	case FragmentToolResult:
		delete(m.openCalls, frag.CallID)
	case FragmentTextDelta:
		if m.machine.Current() == StateToolExecution && len(m.openCalls) == 0 {
			m.machine.Transition(StateThinking)
		}
	}

	m.parser.Feed(frag)
	cmd := m.drainEmitted()
	return m, tea.Batch(cmd, m.waitForFragment())
}

// finishStream flushes the parser, marks a cancelled tool group, reports
// errors or cancellation, and returns to Input.
func (m *TUIModel) finishStream(err error) (tea.Model, tea.Cmd) {
	m.parser.Finish()
	cmds := []tea.Cmd{m.drainEmitted()}

	// Tool-call turns appended before the cancel arrived carry the flag
	// too; drainEmitted already marked the ones flushed afterwards.
	if len(m.cancelledCalls) > 0 {
		m.ctx.History.MarkToolCallsCancelled(m.cancelledCalls)
	}

	if err != nil {
		slog.Error("streaming request failed", "error", err)
		text := fmt.Sprintf("request failed: %v", err)
		cmds = append(cmds, m.appendAndPrint(NewInfoTurn(text, InfoLevelError)))
	} else if m.cancelled {
		cmds = append(cmds, m.appendAndPrint(NewInfoTurn(cancelledInfoText, InfoLevelInfo)))
	}

	m.stream = nil
	m.streamCancel = nil
	m.cancelled = false
	m.openCalls = make(map[string]bool)
	m.cancelledCalls = nil
	m.machine.Transition(StateInput)
	return m, tea.Batch(cmds...)
}

// drainEmitted commits parser output to history and scrollback.
func (m *TUIModel) drainEmitted() tea.Cmd {
	if len(m.emitted) == 0 {
		return nil
	}
	var cmds []tea.Cmd
	for _, turn := range m.emitted {
		if turn.Kind == TurnToolCall && m.cancelledCalls[turn.CallID] {
			turn.Cancelled = true
		}
		cmds = append(cmds, m.appendAndPrint(turn))
		if turn.Kind == TurnToolResult && turn.Result != nil {
			m.ctx.Mediator.Notify(Event{Kind: EventToolProgress, Text: turn.Result.Description})
		}
	}
	m.emitted = nil
	return tea.Batch(cmds...)
}

// appendAndPrint records a turn and commits it to scrollback, routing any
// save-failure info turn through the same path.
func (m *TUIModel) appendAndPrint(turn ConversationTurn) tea.Cmd {
	fail := m.ctx.History.Append(turn)
	cmds := []tea.Cmd{m.printTurn(turn)}
	if fail != nil {
		cmds = append(cmds, m.printTurn(*fail))
	}
	return tea.Batch(cmds...)
}

// printTurn writes a rendered turn into the static region.
func (m *TUIModel) printTurn(turn ConversationTurn) tea.Cmd {
	rendered := m.renderer.Render(turn, m.ctx.Config.UI.Markdown)
	if rendered == "" {
		return nil
	}
	return tea.Println(rendered)
}

// shutdown saves the session and ends the event loop.
func (m *TUIModel) shutdown() (tea.Model, tea.Cmd) {
	m.ctx.Keyboard.Stop()
	if err := m.ctx.Sessions.SaveCurrent(); err != nil {
		slog.Error("failed to save session on exit", "error", err)
	}
	return m, tea.Quit
}

// View renders the dynamic region. A panic yields an empty frame rather
// than killing the program.
func (m *TUIModel) View() (view string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered panic in view", "panic", r)
			view = ""
		}
	}()

	if m.width == 0 {
		return ""
	}
	rc := &RenderContext{
		Width:        m.width,
		Height:       m.height,
		Theme:        m.ctx.Theme,
		State:        m.machine.Current(),
		Ctx:          m.ctx,
		Now:          time.Now(),
		SpinnerFrame: m.spinner.View(),
	}
	return m.components.Compose(rc)
}
