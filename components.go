package main

import (
	"fmt"
	"strings"
	"time"
)

// RenderContext is the per-frame bag handed to components: sizes, theme,
// the current state tag, and the services a panel may read. Components
// never mutate state through it.
type RenderContext struct {
	Width  int
	Height int
	Theme  *Theme
	State  StateTag
	Ctx    *TuiContext
	Now    time.Time

	// SpinnerFrame is the shared 4-frame animation index.
	SpinnerFrame string
}

// Component is a leaf renderer for the dynamic region.
type Component interface {
	ID() string
	Visible(rc *RenderContext) bool
	Render(rc *RenderContext) string
}

// ComponentManager keeps the registered components and composes the
// visible ones into a flex column for the frame.
type ComponentManager struct {
	components []Component
}

// NewComponentManager registers the fixed panel set in render order.
func NewComponentManager() *ComponentManager {
	m := &ComponentManager{}
	m.Register(&WelcomePanel{})
	m.Register(&ProgressPanel{})
	m.Register(&InputPanel{})
	m.Register(&AutocompletePanel{})
	m.Register(&UserSelectionPanel{})
	m.Register(&FooterPanel{})
	return m
}

// Register appends a component.
func (m *ComponentManager) Register(c Component) {
	m.components = append(m.components, c)
}

// Compose renders the visible components top to bottom.
func (m *ComponentManager) Compose(rc *RenderContext) string {
	var parts []string
	for _, c := range m.components {
		if !c.Visible(rc) {
			continue
		}
		if out := c.Render(rc); out != "" {
			parts = append(parts, out)
		}
	}
	return strings.Join(parts, "\n")
}

// WelcomePanel greets an empty conversation.
type WelcomePanel struct{}

func (p *WelcomePanel) ID() string { return "welcome" }

func (p *WelcomePanel) Visible(rc *RenderContext) bool {
	return rc.State == StateInput && rc.Ctx.History.Len() == 0 && rc.Ctx.Input.Buffer() == ""
}

func (p *WelcomePanel) Render(rc *RenderContext) string {
	t := rc.Theme
	lines := []string{
		t.Title.Render("Mogzi"),
		t.WelcomeBox.Render("Type a message and press Enter to chat."),
		t.WelcomeBox.Render("/ for commands · @ to reference files · /help for the full list"),
	}
	return strings.Join(lines, "\n")
}

// InputPanel renders the prompt line with cursor and selection.
type InputPanel struct{}

func (p *InputPanel) ID() string { return "input" }

func (p *InputPanel) Visible(rc *RenderContext) bool {
	return rc.State == StateInput
}

func (p *InputPanel) Render(rc *RenderContext) string {
	t := rc.Theme
	in := rc.Ctx.Input

	marker := t.PromptMarker.Render("> ")
	if in.Buffer() == "" {
		return marker + t.Cursor.Render(" ") + t.Placeholder.Render(" Send a message…")
	}
	return marker + renderBufferWithCursor(t, in)
}

// renderBufferWithCursor paints the buffer, reversing the grapheme under
// the cursor and highlighting the selection. The cursor always sits at
// one end of the selection, so the buffer splits into at most four
// single-style segments.
func renderBufferWithCursor(t *Theme, in *InputContext) string {
	buf := in.Buffer()
	cur := in.Cursor()
	selStart, selEnd, hasSel := in.Selection()
	cursorEnd := in.nextBoundary(cur)

	var b strings.Builder
	switch {
	case !hasSel:
		b.WriteString(t.InputText.Render(buf[:cur]))
	case cur == selEnd:
		b.WriteString(t.InputText.Render(buf[:selStart]))
		b.WriteString(t.SelectedText.Render(buf[selStart:selEnd]))
	default: // cursor at selection start
		b.WriteString(t.InputText.Render(buf[:cur]))
	}

	if cur < len(buf) {
		b.WriteString(t.Cursor.Render(buf[cur:cursorEnd]))
		rest := buf[cursorEnd:]
		if hasSel && cur == selStart && cursorEnd < selEnd {
			b.WriteString(t.SelectedText.Render(buf[cursorEnd:selEnd]))
			rest = buf[selEnd:]
		}
		b.WriteString(t.InputText.Render(rest))
	} else {
		b.WriteString(t.Cursor.Render(" "))
	}
	return b.String()
}

// AutocompletePanel lists completion suggestions under the input line.
type AutocompletePanel struct{}

func (p *AutocompletePanel) ID() string { return "autocomplete" }

func (p *AutocompletePanel) Visible(rc *RenderContext) bool {
	return rc.Ctx.Input.Mode() == ModeAutocomplete && len(rc.Ctx.Input.Items()) > 0
}

func (p *AutocompletePanel) Render(rc *RenderContext) string {
	return renderItemList(rc, rc.Ctx.Input.Items(), rc.Ctx.Input.SelectedIndex(), "")
}

// UserSelectionPanel renders the modal list pick for interactive
// commands.
type UserSelectionPanel struct{}

func (p *UserSelectionPanel) ID() string { return "user-selection" }

func (p *UserSelectionPanel) Visible(rc *RenderContext) bool {
	return rc.Ctx.Input.Mode() == ModeUserSelection && len(rc.Ctx.Input.Items()) > 0
}

func (p *UserSelectionPanel) Render(rc *RenderContext) string {
	title := ""
	if provider := rc.Ctx.Selections.Active(); provider != nil {
		title = provider.Description()
	}
	return renderItemList(rc, rc.Ctx.Input.Items(), rc.Ctx.Input.SelectedIndex(), title)
}

// maxVisibleListItems bounds list height; the window scrolls to keep the
// selection visible.
const maxVisibleListItems = 8

func renderItemList(rc *RenderContext, items []CompletionItem, selected int, title string) string {
	t := rc.Theme

	start := 0
	if selected >= maxVisibleListItems {
		start = selected - maxVisibleListItems + 1
	}
	end := start + maxVisibleListItems
	if end > len(items) {
		end = len(items)
	}

	var lines []string
	if title != "" {
		lines = append(lines, t.Title.Render(title))
	}
	for i := start; i < end; i++ {
		item := items[i]
		label := item.label()
		if item.Description != "" {
			label += "  " + t.ListDetail.Render(item.Description)
		}
		if i == selected {
			lines = append(lines, t.ListSelected.Render("▸ ")+label)
		} else {
			lines = append(lines, t.ListItem.Render(label))
		}
	}
	if len(items) > maxVisibleListItems {
		lines = append(lines, t.ListDetail.Render(fmt.Sprintf("  %d/%d", selected+1, len(items))))
	}
	return strings.Join(lines, "\n")
}

// thinkingFrames is the 4-frame animation cycled every 250 ms.
var thinkingFrames = []string{"·  ", "·· ", "···", " ··"}

// animationFrame picks the frame for now: floor(now_ms / 250) mod 4.
func animationFrame(now time.Time) string {
	idx := (now.UnixMilli() / 250) % int64(len(thinkingFrames))
	return thinkingFrames[idx]
}

// ProgressPanel shows the streaming placeholder or tool progress.
type ProgressPanel struct{}

func (p *ProgressPanel) ID() string { return "progress" }

func (p *ProgressPanel) Visible(rc *RenderContext) bool {
	return rc.State == StateThinking || rc.State == StateToolExecution
}

func (p *ProgressPanel) Render(rc *RenderContext) string {
	t := rc.Theme
	frame := rc.SpinnerFrame
	if frame == "" {
		frame = animationFrame(rc.Now)
	}
	switch rc.State {
	case StateToolExecution:
		progress := rc.Ctx.ToolProgress
		if progress == "" {
			progress = "Running tools"
		}
		return t.Spinner.Render(frame) + " " + t.InfoText.Render(progress) + t.ListDetail.Render("  (esc to cancel)")
	default:
		return t.Spinner.Render(frame) + " " + t.InfoText.Render("Thinking") + t.ListDetail.Render("  (esc to cancel)")
	}
}

// FooterPanel is the one-line status bar at the bottom of the frame.
type FooterPanel struct{}

func (p *FooterPanel) ID() string { return "footer" }

func (p *FooterPanel) Visible(rc *RenderContext) bool { return true }

func (p *FooterPanel) Render(rc *RenderContext) string {
	t := rc.Theme
	cfg := rc.Ctx.Config
	profile := cfg.Profile()

	var parts []string
	parts = append(parts, t.Footer.Render(profile.Model))
	if rc.Ctx.Repo.Branch != "" {
		branch := rc.Ctx.Repo.Branch
		if rc.Ctx.Repo.Dirty {
			branch += "*"
		}
		parts = append(parts, t.FooterDim.Render(branch))
	}
	parts = append(parts, t.FooterDim.Render(cfg.ToolApprovals))
	if s := rc.Ctx.Sessions.Current(); s != nil {
		parts = append(parts, t.FooterDim.Render(s.Name))
	}
	return strings.Join(parts, t.FooterDim.Render(" · "))
}
