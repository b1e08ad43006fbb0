package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestKeyboardClassify(t *testing.T) {
	k := NewKeyboardPipeline()

	kind, r := k.Classify(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	require.Equal(t, KeyEventChar, kind)
	require.Equal(t, 'a', r)

	kind, _ = k.Classify(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, KeyEventControl, kind)

	kind, _ = k.Classify(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}, Alt: true})
	require.Equal(t, KeyEventControl, kind)

	kind, r = k.Classify(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.Equal(t, KeyEventChar, kind)
	require.Equal(t, ' ', r)
}

func TestKeyboardBindingShortCircuits(t *testing.T) {
	ctx := newTestContext(t)
	fired := 0
	ctx.Keyboard.Bind(KeyBinding{
		Key: "ctrl+r",
		Handler: func(ctx *TuiContext) tea.Cmd {
			fired++
			return nil
		},
	})

	_, handled := ctx.Keyboard.Dispatch(ctx, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.True(t, handled)
	require.Equal(t, 1, fired)

	_, handled = ctx.Keyboard.Dispatch(ctx, tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, handled)
}

func TestKeyboardStatsTrackEvents(t *testing.T) {
	ctx := newTestContext(t)
	k := ctx.Keyboard
	k.Start()

	require.Zero(t, k.Stats().EventsProcessed)
	k.Dispatch(ctx, tea.KeyMsg{Type: tea.KeyEnter})
	k.Dispatch(ctx, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	stats := k.Stats()
	require.Equal(t, 2, stats.EventsProcessed)
	require.False(t, stats.LastEventTime.IsZero())
	require.True(t, stats.Running)

	k.Stop()
	require.False(t, k.Stats().Running)
}
