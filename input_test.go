package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInputContextInsertAndCursor(t *testing.T) {
	in := NewInputContext()
	in.InsertString("hello")
	require.Equal(t, "hello", in.Buffer())
	require.Equal(t, 5, in.Cursor())

	in.MoveHome(false)
	in.InsertRune('>')
	require.Equal(t, ">hello", in.Buffer())
	require.Equal(t, 1, in.Cursor())
}

func TestInputContextBackspaceEmptyBufferIsNoOp(t *testing.T) {
	in := NewInputContext()
	in.Backspace()
	require.Equal(t, "", in.Buffer())
	require.Equal(t, 0, in.Cursor())
}

func TestInputContextGraphemeDeletion(t *testing.T) {
	in := NewInputContext()
	// The family emoji is a single grapheme built from multiple runes.
	in.InsertString("a👨‍👩‍👧b")
	in.MoveEnd(false)
	in.Backspace()
	in.Backspace()
	require.Equal(t, "a", in.Buffer())
	require.Equal(t, 1, in.Cursor())
}

func TestInputContextCursorInvariant(t *testing.T) {
	in := NewInputContext()
	ops := []func(){
		func() { in.InsertString("héllo wörld") },
		func() { in.MoveLeft(false) },
		func() { in.MoveLeft(true) },
		func() { in.MoveHome(true) },
		func() { in.Backspace() },
		func() { in.MoveEnd(false) },
		func() { in.Delete() },
		func() { in.InsertRune('x') },
		func() { in.MoveRight(true) },
	}
	for i, op := range ops {
		op()
		require.GreaterOrEqual(t, in.Cursor(), 0, "op %d", i)
		require.LessOrEqual(t, in.Cursor(), len(in.Buffer()), "op %d", i)
		if start, end, ok := in.Selection(); ok {
			require.GreaterOrEqual(t, start, 0, "op %d", i)
			require.LessOrEqual(t, end, len(in.Buffer()), "op %d", i)
			require.Less(t, start, end, "op %d", i)
		}
	}
}

func TestInputContextSelectionReplacedByInsert(t *testing.T) {
	in := NewInputContext()
	in.InsertString("abcdef")
	in.MoveHome(false)
	in.MoveRight(true)
	in.MoveRight(true)
	in.MoveRight(true)

	start, end, ok := in.Selection()
	require.True(t, ok)
	require.Equal(t, 0, start)
	require.Equal(t, 3, end)

	in.InsertRune('X')
	require.Equal(t, "Xdef", in.Buffer())
	require.Equal(t, 1, in.Cursor())
	_, _, ok = in.Selection()
	require.False(t, ok)
}

func TestInputContextSelectionDeletedByBackspace(t *testing.T) {
	in := NewInputContext()
	in.InsertString("abcdef")
	in.MoveLeft(true)
	in.MoveLeft(true)
	in.Backspace()
	require.Equal(t, "abcd", in.Buffer())
}

func TestInputContextNormalModeHasNoItems(t *testing.T) {
	in := NewInputContext()
	in.SetCompletion(ModeAutocomplete, []CompletionItem{{Value: "/help"}}, nil)
	require.Equal(t, ModeAutocomplete, in.Mode())
	in.ClearCompletion()
	require.Equal(t, ModeNormal, in.Mode())
	require.Empty(t, in.Items())
}

func TestInputContextSelectionIndexClampedOnRefresh(t *testing.T) {
	in := NewInputContext()
	in.SetCompletion(ModeAutocomplete, []CompletionItem{{Value: "a"}, {Value: "b"}, {Value: "c"}}, nil)
	in.MoveSelection(2)
	require.Equal(t, 2, in.SelectedIndex())

	in.RefreshItems([]CompletionItem{{Value: "a"}})
	require.Equal(t, 0, in.SelectedIndex())
}

func TestCommandHistoryDedupAndCap(t *testing.T) {
	h := NewCommandHistory()
	for i := 0; i < 150; i++ {
		h.Add(fmt.Sprintf("cmd-%d", i))
		h.Add("repeated")
	}

	entries := h.Entries()
	require.LessOrEqual(t, len(entries), 100)
	seen := map[string]int{}
	for _, e := range entries {
		seen[e]++
	}
	for e, n := range seen {
		require.Equal(t, 1, n, "duplicate entry %q", e)
	}
}

func TestCommandHistoryNavigation(t *testing.T) {
	h := NewCommandHistory()
	h.Add("first")
	h.Add("second")
	h.Add("third")

	// First Up recalls the most recent entry.
	got, ok := h.Previous("draft")
	require.True(t, ok)
	require.Equal(t, "third", got)

	got, ok = h.Previous(got)
	require.True(t, ok)
	require.Equal(t, "second", got)

	got, ok = h.Previous(got)
	require.True(t, ok)
	require.Equal(t, "first", got)

	// Further Up stays at the oldest entry.
	got, ok = h.Previous(got)
	require.True(t, ok)
	require.Equal(t, "first", got)

	// Down walks back toward the pending buffer.
	got, ok = h.Next()
	require.True(t, ok)
	require.Equal(t, "second", got)
	got, ok = h.Next()
	require.True(t, ok)
	require.Equal(t, "third", got)
	got, ok = h.Next()
	require.True(t, ok)
	require.Equal(t, "draft", got)

	// Past the newest end there is nothing more.
	_, ok = h.Next()
	require.False(t, ok)
}

func TestCommandHistoryEmptyNavigation(t *testing.T) {
	h := NewCommandHistory()
	_, ok := h.Previous("")
	require.False(t, ok)
	_, ok = h.Next()
	require.False(t, ok)
}
