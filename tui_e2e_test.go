package main

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"
)

func TestChatRoundTripE2E(t *testing.T) {
	ctx := newTestContext(t, []ResponseFragment{
		{Kind: FragmentTextDelta, Text: "sure, "},
		{Kind: FragmentTextDelta, Text: "done."},
	})
	m := NewTUIModel(ctx)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))

	tm.Type("write a haiku")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return strings.Contains(string(bts), "sure, done.")
	}, teatest.WithCheckInterval(50*time.Millisecond), teatest.WithDuration(3*time.Second))

	tm.Type("/exit")
	tm.Send(tea.KeyMsg{Type: tea.KeyEscape}) // dismiss autocomplete
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final, ok := tm.FinalModel(t).(*TUIModel)
	require.True(t, ok)
	turns := final.ctx.History.Turns()
	require.GreaterOrEqual(t, len(turns), 2)
	require.Equal(t, TurnUser, turns[0].Kind)
	require.Equal(t, "write a haiku", turns[0].Text)
	require.Equal(t, TurnAssistant, turns[1].Kind)
	require.Equal(t, "sure, done.", turns[1].Text)
}

func TestSlashCommandCompletionE2E(t *testing.T) {
	ctx := newTestContext(t)
	m := NewTUIModel(ctx)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))

	tm.Type("/se")
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return strings.Contains(string(bts), "/session clear")
	}, teatest.WithCheckInterval(50*time.Millisecond), teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Send(tea.KeyMsg{Type: tea.KeyEscape})

	tm.Type(" ") // force a redraw after accepting
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	tm.Send(tea.QuitMsg{})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final, ok := tm.FinalModel(t).(*TUIModel)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(final.ctx.Input.Buffer(), "/session clear"))
	require.Equal(t, ModeNormal, final.ctx.Input.Mode())
}
