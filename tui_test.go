package main

import (
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

// countingService wraps a service and counts streaming requests.
type countingService struct {
	inner AppService
	calls int
}

func (c *countingService) StreamChat(ctx context.Context, history []ConversationTurn, prompt string) *ChatStream {
	c.calls++
	return c.inner.StreamChat(ctx, history, prompt)
}

func newTestModel(t *testing.T, scripts ...[]ResponseFragment) (*TUIModel, *countingService) {
	t.Helper()
	ctx := newTestContext(t, scripts...)
	counting := &countingService{inner: ctx.Service}
	ctx.Service = counting

	m := NewTUIModel(ctx)
	m.Init()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, counting
}

func typeString(m *TUIModel, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// pump executes a command tree and feeds resulting messages back into
// the model until it settles.
func pump(t *testing.T, m *TUIModel, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			pump(t, m, c)
		}
	case spinner.TickMsg:
		// Animation ticks would pump forever; the frame index is
		// time-derived so skipping them loses nothing.
		return
	case nil:
		return
	default:
		_, next := m.Update(msg)
		pump(t, m, next)
	}
}

func TestEmptySubmissionIsIgnored(t *testing.T) {
	m, svc := newTestModel(t)

	sessionBefore := len(m.ctx.Sessions.Current().History)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	pump(t, m, cmd)

	require.Equal(t, StateInput, m.machine.Current())
	require.Equal(t, 0, m.ctx.History.Len())
	require.Equal(t, 0, svc.calls)
	require.Equal(t, sessionBefore, len(m.ctx.Sessions.Current().History))
}

func TestSlashHelpEmitsOneInfoTurnNoStreaming(t *testing.T) {
	m, svc := newTestModel(t)

	typeString(m, "/help")
	// Enter accepts the autocomplete suggestion first; clear it so the
	// typed command submits as-is.
	m.ctx.Input.ClearCompletion()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	pump(t, m, cmd)

	require.Equal(t, StateInput, m.machine.Current())
	require.Equal(t, 0, svc.calls)

	turns := m.ctx.History.Turns()
	require.Len(t, turns, 1)
	require.Equal(t, TurnInfo, turns[0].Kind)
	require.Contains(t, turns[0].Text, "/session rename")
	require.Equal(t, "", m.ctx.Input.Buffer())
}

func TestSubmissionStartsStreaming(t *testing.T) {
	m, svc := newTestModel(t, []ResponseFragment{
		{Kind: FragmentTextDelta, Text: "hello back"},
	})

	typeString(m, "hi")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	pump(t, m, cmd)

	require.Equal(t, 1, svc.calls)

	require.Equal(t, StateInput, m.machine.Current())
	turns := m.ctx.History.Turns()
	require.Len(t, turns, 2)
	require.Equal(t, TurnUser, turns[0].Kind)
	require.Equal(t, "hi", turns[0].Text)
	require.Equal(t, TurnAssistant, turns[1].Kind)
	require.Equal(t, "hello back", turns[1].Text)
}

func TestStreamingWithToolCallsTransitions(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(submitMsg{prompt: "do work"})
	require.NotNil(t, cmd)
	require.Equal(t, StateThinking, m.machine.Current())

	payload := `<tool_response tool_name="read_file"><result status="SUCCESS" absolute_path="a.txt" /></tool_response>`

	m.handleFragment(ResponseFragment{Kind: FragmentTextDelta, Text: "Planning."})
	require.Equal(t, StateThinking, m.machine.Current())

	m.handleFragment(ResponseFragment{Kind: FragmentToolCallStart, CallID: "1", ToolName: "read_file"})
	require.Equal(t, StateToolExecution, m.machine.Current())

	m.handleFragment(ResponseFragment{Kind: FragmentToolCallEnd, CallID: "1"})
	m.handleFragment(ResponseFragment{Kind: FragmentToolResult, CallID: "1", Payload: payload})
	m.handleFragment(ResponseFragment{Kind: FragmentTextDelta, Text: "Done."})
	require.Equal(t, StateThinking, m.machine.Current())

	m.finishStream(nil)
	require.Equal(t, StateInput, m.machine.Current())

	turns := m.ctx.History.Turns()
	require.Len(t, turns, 5)
	require.Equal(t, TurnUser, turns[0].Kind)
	require.Equal(t, "Planning.", turns[1].Text)
	require.Equal(t, TurnToolCall, turns[2].Kind)
	require.Equal(t, TurnToolResult, turns[3].Kind)
	require.Equal(t, "Read a.txt", turns[3].Result.Description)
	require.Equal(t, "Done.", turns[4].Text)
}

func TestCancelDuringThinking(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(submitMsg{prompt: "hi"})
	require.Equal(t, StateThinking, m.machine.Current())

	m.Update(cancelStreamMsg{})
	m.finishStream(nil)

	require.Equal(t, StateInput, m.machine.Current())
	turns := m.ctx.History.Turns()
	require.Len(t, turns, 2)
	require.Equal(t, TurnUser, turns[0].Kind)
	require.Equal(t, TurnInfo, turns[1].Kind)
	require.Equal(t, cancelledInfoText, turns[1].Text)
}

func TestCancelDuringToolExecutionMarksGroup(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(submitMsg{prompt: "run tools"})
	m.handleFragment(ResponseFragment{Kind: FragmentToolCallStart, CallID: "1", ToolName: "read_file"})
	m.handleFragment(ResponseFragment{Kind: FragmentToolCallStart, CallID: "2", ToolName: "grep"})
	require.Equal(t, StateToolExecution, m.machine.Current())

	// The first call completed before the user hit Esc.
	m.handleFragment(ResponseFragment{Kind: FragmentToolResult, CallID: "1", Payload: "done"})
	m.Update(cancelStreamMsg{})
	m.finishStream(nil)

	require.Equal(t, StateInput, m.machine.Current())

	var completed, cancelled, info *ConversationTurn
	turns := m.ctx.History.Turns()
	for i := range turns {
		switch {
		case turns[i].Kind == TurnToolCall && turns[i].CallID == "1":
			completed = &turns[i]
		case turns[i].Kind == TurnToolCall && turns[i].CallID == "2":
			cancelled = &turns[i]
		case turns[i].Kind == TurnInfo:
			info = &turns[i]
		}
	}
	require.NotNil(t, completed)
	require.False(t, completed.Cancelled)
	require.NotNil(t, cancelled)
	require.True(t, cancelled.Cancelled)
	require.NotNil(t, info)
	require.Equal(t, cancelledInfoText, info.Text)

	// The stored session carries the cancelled flag as well.
	loaded, err := m.ctx.Sessions.Load(m.ctx.Sessions.Current().ID)
	require.NoError(t, err)
	found := false
	for _, turn := range loaded.History {
		if turn.Kind == TurnToolCall && turn.CallID == "2" {
			require.True(t, turn.Cancelled)
			found = true
		}
	}
	require.True(t, found)
}

func TestCtrlCDuringStreamingCancels(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(submitMsg{prompt: "hi"})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, cancelStreamMsg{}, msg)

	m.Update(msg)
	m.finishStream(nil)
	require.Equal(t, StateInput, m.machine.Current())
}

func TestCtrlCWhenIdleShowsHint(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	msg := cmd()
	out, ok := msg.(commandOutputMsg)
	require.True(t, ok)
	require.Contains(t, out.text, "/exit")
	require.Equal(t, StateInput, m.machine.Current())
}

func TestHistoryNavigationKeys(t *testing.T) {
	m, _ := newTestModel(t)
	m.ctx.HistoryNav.Add("older")
	m.ctx.HistoryNav.Add("newer")

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, "newer", m.ctx.Input.Buffer())
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, "older", m.ctx.Input.Buffer())
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "newer", m.ctx.Input.Buffer())
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "", m.ctx.Input.Buffer())
}

func TestInteractiveCommandEntersUserSelection(t *testing.T) {
	m, svc := newTestModel(t)

	typeString(m, "/tool-approvals")
	m.ctx.Input.ClearCompletion()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	pump(t, m, cmd)

	require.Equal(t, 0, svc.calls)
	require.Equal(t, ModeUserSelection, m.ctx.Input.Mode())

	// Navigate and accept.
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	pump(t, m, cmd)

	require.Equal(t, ModeNormal, m.ctx.Input.Mode())
	require.Equal(t, ApprovalAll, m.ctx.Config.ToolApprovals)
}

func TestSessionPersistCountMatchesTurns(t *testing.T) {
	m, _ := newTestModel(t, []ResponseFragment{
		{Kind: FragmentTextDelta, Text: "reply one"},
	})

	typeString(m, "first message")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	pump(t, m, cmd)

	loaded, err := m.ctx.Sessions.Load(m.ctx.Sessions.Current().ID)
	require.NoError(t, err)
	require.Equal(t, m.ctx.History.Len(), len(loaded.History))
	require.Equal(t, "first message", loaded.InitialPrompt)
}

func TestViewRendersInputState(t *testing.T) {
	m, _ := newTestModel(t)
	typeString(m, "hel")
	view := m.View()
	require.Contains(t, view, "hel")
	require.Contains(t, view, "fake-model")
}

func TestKeyboardStats(t *testing.T) {
	m, _ := newTestModel(t)
	before := m.ctx.Keyboard.Stats().EventsProcessed
	typeString(m, "abc")
	after := m.ctx.Keyboard.Stats().EventsProcessed
	require.Equal(t, before+3, after)
	require.True(t, m.ctx.Keyboard.Stats().Running)
	require.Equal(t, 1, m.ctx.Keyboard.Stats().BindingCount)
}
