package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// KeyEventKind separates printable characters from control keys.
type KeyEventKind int

const (
	KeyEventChar KeyEventKind = iota
	KeyEventControl
)

// KeyBinding is a registered Ctrl/Alt combination handler. A matching
// binding marks the event handled and short-circuits state dispatch.
type KeyBinding struct {
	Key     string // bubbletea key string, e.g. "ctrl+r"
	Help    string
	Handler func(ctx *TuiContext) tea.Cmd
}

// KeyboardStats is the rolling record kept by the pipeline.
type KeyboardStats struct {
	EventsProcessed int
	LastEventTime   time.Time
	Running         bool
	BindingCount    int
}

// KeyboardPipeline classifies incoming key events and routes them. The
// surrounding bubbletea program delivers events strictly in arrival order
// on a single goroutine, so no handler is ever concurrent.
type KeyboardPipeline struct {
	bindings map[string]KeyBinding
	stats    KeyboardStats
}

// NewKeyboardPipeline returns a pipeline with no bindings.
func NewKeyboardPipeline() *KeyboardPipeline {
	return &KeyboardPipeline{bindings: make(map[string]KeyBinding)}
}

// Bind registers a key combination.
func (k *KeyboardPipeline) Bind(b KeyBinding) {
	k.bindings[b.Key] = b
	k.stats.BindingCount = len(k.bindings)
}

// Start marks the pipeline running.
func (k *KeyboardPipeline) Start() { k.stats.Running = true }

// Stop marks the pipeline stopped.
func (k *KeyboardPipeline) Stop() { k.stats.Running = false }

// Stats returns a copy of the rolling statistics.
func (k *KeyboardPipeline) Stats() KeyboardStats { return k.stats }

// Classify splits an event into a character or control event. A printable
// rune without Ctrl/Alt modifiers is a character event.
func (k *KeyboardPipeline) Classify(msg tea.KeyMsg) (KeyEventKind, rune) {
	if msg.Type == tea.KeyRunes && !msg.Alt && len(msg.Runes) > 0 {
		return KeyEventChar, msg.Runes[0]
	}
	if msg.Type == tea.KeySpace && !msg.Alt {
		return KeyEventChar, ' '
	}
	return KeyEventControl, 0
}

// Dispatch records the event and consults the binding registry. The
// returned bool reports whether a binding consumed the event; otherwise
// the caller routes it to the active state.
func (k *KeyboardPipeline) Dispatch(ctx *TuiContext, msg tea.KeyMsg) (tea.Cmd, bool) {
	k.stats.EventsProcessed++
	k.stats.LastEventTime = time.Now()

	if b, ok := k.bindings[msg.String()]; ok {
		return b.Handler(ctx), true
	}
	return nil, false
}
