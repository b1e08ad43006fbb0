package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandMatchLongestPrefixWins(t *testing.T) {
	p := NewSlashCommandProcessor()

	cmd, args, ok := p.Match("/session clear")
	require.True(t, ok)
	require.Equal(t, "/session clear", cmd.Name)
	require.Equal(t, "", args)

	cmd, args, ok = p.Match("/session rename fancy name")
	require.True(t, ok)
	require.Equal(t, "/session rename", cmd.Name)
	require.Equal(t, "fancy name", args)
}

func TestCommandMatchRequiresWordBoundary(t *testing.T) {
	p := NewSlashCommandProcessor()
	_, _, ok := p.Match("/session clearing")
	require.False(t, ok)
}

func TestCommandMatchCaseInsensitive(t *testing.T) {
	p := NewSlashCommandProcessor()
	cmd, _, ok := p.Match("/HELP")
	require.True(t, ok)
	require.Equal(t, "/help", cmd.Name)
}

func TestCommandDispatchUnknownHint(t *testing.T) {
	ctx := newTestContext(t)
	result, _, isCommand := ctx.Commands.Dispatch(ctx, "/bogus now")
	require.True(t, isCommand)
	require.Equal(t, "Unknown command: /bogus. Tip: Type /help to see available commands.", result.Output)
}

func TestCommandDispatchNonCommand(t *testing.T) {
	ctx := newTestContext(t)
	_, _, isCommand := ctx.Commands.Dispatch(ctx, "just a message")
	require.False(t, isCommand)
}

func TestCommandHelpListsEverything(t *testing.T) {
	ctx := newTestContext(t)
	result, _, ok := ctx.Commands.Dispatch(ctx, "/help")
	require.True(t, ok)

	expected := []string{
		"/clear", "/exit", "/help", "/quit", "/session clear",
		"/session list", "/session rename", "/status", "/tool-approvals",
	}
	prev := -1
	for _, name := range expected {
		idx := strings.Index(result.Output, name)
		require.NotEqual(t, -1, idx, "missing %s", name)
		require.Greater(t, idx, prev, "%s out of order", name)
		prev = idx
	}
}

func TestCommandClearEmitsInfoAndClearsHistory(t *testing.T) {
	ctx := newTestContext(t)
	ctx.History.AddUser("hello")
	require.Equal(t, 1, ctx.History.Len())

	result, _, ok := ctx.Commands.Dispatch(ctx, "/clear")
	require.True(t, ok)
	require.Equal(t, "chat history cleared", result.Output)
	require.Equal(t, 0, ctx.History.Len())
}

func TestCommandClearLeavesSessionOnDisk(t *testing.T) {
	ctx := newTestContext(t)
	ctx.History.AddUser("keep me on disk")

	_, _, ok := ctx.Commands.Dispatch(ctx, "/clear")
	require.True(t, ok)

	// In-memory history is gone but the session file still has the turn.
	s, err := ctx.Sessions.Load(ctx.Sessions.Current().ID)
	require.NoError(t, err)
	require.Len(t, s.History, 1)
}

func TestCommandSessionClearClearsDisk(t *testing.T) {
	ctx := newTestContext(t)
	ctx.History.AddUser("gone soon")
	id := ctx.Sessions.Current().ID

	result, _, ok := ctx.Commands.Dispatch(ctx, "/session clear")
	require.True(t, ok)
	require.Equal(t, "session history cleared", result.Output)

	s, err := ctx.Sessions.Load(id)
	require.NoError(t, err)
	require.Empty(t, s.History)
	require.Equal(t, id, s.ID)
}

func TestCommandSessionRename(t *testing.T) {
	ctx := newTestContext(t)

	result, _, ok := ctx.Commands.Dispatch(ctx, "/session rename sprint planning")
	require.True(t, ok)
	require.Contains(t, result.Output, "sprint planning")
	require.Equal(t, "sprint planning", ctx.Sessions.Current().Name)

	result, _, ok = ctx.Commands.Dispatch(ctx, "/session rename   ")
	require.True(t, ok)
	require.Equal(t, InfoLevelError, result.Level)
}

func TestCommandQuit(t *testing.T) {
	ctx := newTestContext(t)
	for _, name := range []string{"/exit", "/quit"} {
		result, _, ok := ctx.Commands.Dispatch(ctx, name)
		require.True(t, ok, name)
		require.True(t, result.Quit, name)
	}
}

func TestCommandInteractiveFlag(t *testing.T) {
	ctx := newTestContext(t)
	for _, name := range []string{"/tool-approvals", "/session list"} {
		result, matched, ok := ctx.Commands.Dispatch(ctx, name)
		require.True(t, ok, name)
		require.True(t, result.Interactive, name)
		require.Equal(t, name, matched)
	}
}

func TestCommandStatusSnapshot(t *testing.T) {
	ctx := newTestContext(t)
	result, _, ok := ctx.Commands.Dispatch(ctx, "/status")
	require.True(t, ok)
	require.Contains(t, result.Output, "fake-model")
	require.Contains(t, result.Output, ctx.Config.ToolApprovals)
	require.Contains(t, result.Output, "test")
}

func TestCommandSuggestionsSorted(t *testing.T) {
	p := NewSlashCommandProcessor()

	got := p.Suggestions("/se")
	require.Equal(t, []string{"/session clear", "/session list", "/session rename"}, got)

	got = p.Suggestions("/")
	require.Len(t, got, 9)
	for i := 1; i < len(got); i++ {
		require.Less(t, got[i-1], got[i])
	}

	require.Empty(t, p.Suggestions("/zzz"))
}
