package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ScrollbackTerminal owns the raw output stream and splits it into an
// append-only static region and a single dynamic region redrawn in place.
// In the interactive runtime bubbletea provides the same split (Println
// for static content, the view for the dynamic frame); this writer backs
// non-interactive mode and tests. Write errors are logged and swallowed;
// rendering never panics the core.
type ScrollbackTerminal struct {
	mu           sync.Mutex
	w            io.Writer
	dynamicLines int
	active       bool
}

// NewScrollbackTerminal wraps an output stream.
func NewScrollbackTerminal(w io.Writer) *ScrollbackTerminal {
	return &ScrollbackTerminal{w: w}
}

// Initialize starts a fresh logical frame.
func (t *ScrollbackTerminal) Initialize() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = true
	t.dynamicLines = 0
}

// WriteStatic appends content above the dynamic region. Static content is
// permanent and scrolls with the terminal.
func (t *ScrollbackTerminal) WriteStatic(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.clearDynamicLocked()
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	t.write(content)
}

// SetDynamic replaces the dynamic frame in place. The previous frame or
// the new one is visible, never a mix.
func (t *ScrollbackTerminal) SetDynamic(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.clearDynamicLocked()
	if content == "" {
		return
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	t.write(content)
	t.dynamicLines = strings.Count(content, "\n")
}

// Shutdown removes the dynamic region and stops further output. Static
// content stays on screen.
func (t *ScrollbackTerminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearDynamicLocked()
	t.active = false
}

// clearDynamicLocked erases the current dynamic frame.
func (t *ScrollbackTerminal) clearDynamicLocked() {
	if t.dynamicLines == 0 {
		return
	}
	t.write(fmt.Sprintf("\x1b[%dA\x1b[0J", t.dynamicLines))
	t.dynamicLines = 0
}

func (t *ScrollbackTerminal) write(s string) {
	if _, err := io.WriteString(t.w, s); err != nil {
		slog.Warn("terminal write failed", "error", err)
	}
}
