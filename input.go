package main

import (
	"github.com/rivo/uniseg"
)

// InputMode tracks which subsystem currently owns list navigation keys.
type InputMode int

const (
	ModeNormal InputMode = iota
	ModeAutocomplete
	ModeUserSelection
)

// CompletionItem is one entry in an autocomplete or selection list.
type CompletionItem struct {
	Value       string // text applied to the buffer or passed to the provider
	Display     string // shown in the list; falls back to Value when empty
	Description string
}

func (c CompletionItem) label() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Value
}

// InputContext holds the prompt line state: buffer, cursor, selection, and
// the completion list when a provider is active. The cursor and selection
// endpoints are byte offsets that always fall on grapheme boundaries.
type InputContext struct {
	buffer string
	cursor int

	selAnchor int
	hasSel    bool

	mode     InputMode
	items    []CompletionItem
	selected int
	provider CompletionProvider
}

// NewInputContext returns an empty input context in Normal mode.
func NewInputContext() *InputContext {
	return &InputContext{}
}

func (in *InputContext) Buffer() string  { return in.buffer }
func (in *InputContext) Cursor() int     { return in.cursor }
func (in *InputContext) Mode() InputMode { return in.mode }

// Selection returns the ordered selection range and whether one exists.
func (in *InputContext) Selection() (start, end int, ok bool) {
	if !in.hasSel || in.selAnchor == in.cursor {
		return 0, 0, false
	}
	if in.selAnchor < in.cursor {
		return in.selAnchor, in.cursor, true
	}
	return in.cursor, in.selAnchor, true
}

// SetBuffer replaces the buffer and clamps the cursor to a valid boundary.
func (in *InputContext) SetBuffer(s string) {
	in.buffer = s
	in.cursor = len(s)
	in.hasSel = false
}

// Reset clears the buffer, selection, and completion state.
func (in *InputContext) Reset() {
	in.buffer = ""
	in.cursor = 0
	in.hasSel = false
	in.ClearCompletion()
}

// deleteSelection removes the selected range, if any, and reports whether
// a deletion happened.
func (in *InputContext) deleteSelection() bool {
	start, end, ok := in.Selection()
	if !ok {
		return false
	}
	in.buffer = in.buffer[:start] + in.buffer[end:]
	in.cursor = start
	in.hasSel = false
	return true
}

// InsertString inserts s at the cursor, deleting the selection first.
func (in *InputContext) InsertString(s string) {
	in.deleteSelection()
	in.buffer = in.buffer[:in.cursor] + s + in.buffer[in.cursor:]
	in.cursor += len(s)
	in.hasSel = false
}

// InsertRune inserts a single printable rune at the cursor.
func (in *InputContext) InsertRune(r rune) {
	in.InsertString(string(r))
}

// prevBoundary returns the start of the grapheme immediately before pos.
func (in *InputContext) prevBoundary(pos int) int {
	if pos <= 0 {
		return 0
	}
	prev := 0
	rest := in.buffer
	offset := 0
	state := -1
	for len(rest) > 0 && offset < pos {
		var cluster string
		cluster, rest, _, state = uniseg.StepString(rest, state)
		prev = offset
		offset += len(cluster)
	}
	return prev
}

// nextBoundary returns the end of the grapheme starting at pos.
func (in *InputContext) nextBoundary(pos int) int {
	if pos >= len(in.buffer) {
		return len(in.buffer)
	}
	cluster, _, _, _ := uniseg.StepString(in.buffer[pos:], -1)
	return pos + len(cluster)
}

// Backspace removes the selection or the grapheme before the cursor.
// A backspace on an empty buffer is a no-op.
func (in *InputContext) Backspace() {
	if in.deleteSelection() {
		return
	}
	if in.cursor == 0 {
		return
	}
	prev := in.prevBoundary(in.cursor)
	in.buffer = in.buffer[:prev] + in.buffer[in.cursor:]
	in.cursor = prev
}

// Delete removes the selection or the grapheme after the cursor.
func (in *InputContext) Delete() {
	if in.deleteSelection() {
		return
	}
	if in.cursor >= len(in.buffer) {
		return
	}
	next := in.nextBoundary(in.cursor)
	in.buffer = in.buffer[:in.cursor] + in.buffer[next:]
}

// moveTo moves the cursor, extending the selection when extend is set.
func (in *InputContext) moveTo(pos int, extend bool) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(in.buffer) {
		pos = len(in.buffer)
	}
	if extend {
		if !in.hasSel {
			in.selAnchor = in.cursor
			in.hasSel = true
		}
	} else {
		in.hasSel = false
	}
	in.cursor = pos
}

// MoveLeft moves one grapheme left; with extend the selection grows.
func (in *InputContext) MoveLeft(extend bool) {
	in.moveTo(in.prevBoundary(in.cursor), extend)
}

// MoveRight moves one grapheme right; with extend the selection grows.
func (in *InputContext) MoveRight(extend bool) {
	in.moveTo(in.nextBoundary(in.cursor), extend)
}

// MoveHome moves to the start of the buffer.
func (in *InputContext) MoveHome(extend bool) { in.moveTo(0, extend) }

// MoveEnd moves to the end of the buffer.
func (in *InputContext) MoveEnd(extend bool) { in.moveTo(len(in.buffer), extend) }

// SetCompletion switches into Autocomplete or UserSelection mode with the
// given items. The selected index resets to the top of the list.
func (in *InputContext) SetCompletion(mode InputMode, items []CompletionItem, provider CompletionProvider) {
	in.mode = mode
	in.items = items
	in.selected = 0
	in.provider = provider
}

// ClearCompletion returns to Normal mode; the invariant that Normal mode
// carries no completion items is restored here.
func (in *InputContext) ClearCompletion() {
	in.mode = ModeNormal
	in.items = nil
	in.selected = 0
	in.provider = nil
}

// RefreshItems replaces the item list, clamping the selected index.
func (in *InputContext) RefreshItems(items []CompletionItem) {
	in.items = items
	if in.selected >= len(items) {
		in.selected = len(items) - 1
	}
	if in.selected < 0 {
		in.selected = 0
	}
}

func (in *InputContext) Items() []CompletionItem       { return in.items }
func (in *InputContext) SelectedIndex() int            { return in.selected }
func (in *InputContext) ActiveProvider() CompletionProvider { return in.provider }

// MoveSelection shifts the selected completion index, bounded to the list.
func (in *InputContext) MoveSelection(delta int) {
	if len(in.items) == 0 {
		return
	}
	next := in.selected + delta
	if next < 0 {
		next = 0
	}
	if next >= len(in.items) {
		next = len(in.items) - 1
	}
	in.selected = next
}

// SelectedItem returns the highlighted item, if the list is non-empty.
func (in *InputContext) SelectedItem() (CompletionItem, bool) {
	if in.selected < 0 || in.selected >= len(in.items) {
		return CompletionItem{}, false
	}
	return in.items[in.selected], true
}

// maxCommandHistory caps the in-memory history length.
const maxCommandHistory = 100

// CommandHistory keeps previously submitted inputs for Up/Down recall.
// Entries are deduplicated first-wins and capped; navigation walks from
// newest to oldest and restores the pending buffer past the newest end.
type CommandHistory struct {
	entries []string
	cursor  int // index into entries while navigating; len(entries) = not navigating
	pending string
	active  bool
}

// NewCommandHistory returns an empty history.
func NewCommandHistory() *CommandHistory {
	return &CommandHistory{}
}

// Add records a submitted input. Duplicates are dropped (the earlier entry
// keeps its position) and the oldest entry is evicted past the cap.
func (h *CommandHistory) Add(input string) {
	if input == "" {
		return
	}
	for _, e := range h.entries {
		if e == input {
			h.ResetCursor()
			return
		}
	}
	h.entries = append(h.entries, input)
	if len(h.entries) > maxCommandHistory {
		h.entries = h.entries[len(h.entries)-maxCommandHistory:]
	}
	h.ResetCursor()
}

// Entries returns the stored history, oldest first.
func (h *CommandHistory) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of stored entries.
func (h *CommandHistory) Len() int { return len(h.entries) }

// ResetCursor leaves navigation mode.
func (h *CommandHistory) ResetCursor() {
	h.cursor = len(h.entries)
	h.active = false
	h.pending = ""
}

// Previous steps to an older entry. The first call saves the live buffer
// so Next can restore it.
func (h *CommandHistory) Previous(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if !h.active {
		h.active = true
		h.pending = current
		h.cursor = len(h.entries)
	}
	if h.cursor == 0 {
		return h.entries[0], true
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Next steps toward newer entries; past the newest it restores the pending
// buffer and leaves navigation mode.
func (h *CommandHistory) Next() (string, bool) {
	if !h.active {
		return "", false
	}
	h.cursor++
	if h.cursor >= len(h.entries) {
		pending := h.pending
		h.ResetCursor()
		return pending, true
	}
	return h.entries[h.cursor], true
}
