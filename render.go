package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
)

// TurnRenderer turns conversation turns into the static-region blocks
// written to scrollback. Assistant text optionally goes through the
// markdown renderer; everything else is wrapped plain text.
type TurnRenderer struct {
	theme    *Theme
	markdown *glamour.TermRenderer
	width    int
}

// NewTurnRenderer builds a renderer; the markdown renderer is created
// lazily because glamour setup is comparatively expensive.
func NewTurnRenderer(theme *Theme) *TurnRenderer {
	return &TurnRenderer{theme: theme, width: 80}
}

// SetWidth re-targets wrapping; the markdown renderer is rebuilt on the
// next use when the width changed.
func (r *TurnRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width != r.width {
		r.width = width
		r.markdown = nil
	}
}

func (r *TurnRenderer) markdownRenderer() *glamour.TermRenderer {
	if r.markdown == nil {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(r.width-2),
		)
		if err != nil {
			slog.Warn("markdown renderer unavailable", "error", err)
			return nil
		}
		r.markdown = md
	}
	return r.markdown
}

// Render produces the display block for one turn.
func (r *TurnRenderer) Render(turn ConversationTurn, markdownEnabled bool) string {
	t := r.theme
	switch turn.Kind {
	case TurnUser:
		return t.PromptMarker.Render("> ") + t.UserText.Render(r.wrap(turn.Text))

	case TurnAssistant:
		if markdownEnabled {
			if md := r.markdownRenderer(); md != nil {
				if out, err := md.Render(turn.Text); err == nil {
					return strings.TrimRight(out, "\n")
				}
			}
		}
		return t.AssistantText.Render(r.wrap(turn.Text))

	case TurnToolCall:
		args := turn.ToolArgs
		if args != "" {
			args = truncateWithEllipsis(args, 60)
		}
		line := t.ToolCard.Render(fmt.Sprintf("⏺ %s(%s)", turn.ToolName, args))
		if turn.Cancelled {
			line += " " + t.WarningText.Render("(cancelled)")
		}
		return line

	case TurnToolResult:
		return r.renderToolResult(turn)

	case TurnInfo:
		style := t.InfoText
		switch turn.Level {
		case InfoLevelWarning:
			style = t.WarningText
		case InfoLevelError:
			style = t.ErrorText
		}
		return style.Render(r.wrap(turn.Text))
	}
	return ""
}

func (r *TurnRenderer) renderToolResult(turn ConversationTurn) string {
	t := r.theme
	info := turn.Result
	if info == nil {
		return t.ToolCard.Render("  ⎿ (no result)")
	}

	marker := t.ToolSuccess.Render("⎿")
	if info.Status == ToolStatusFailed {
		marker = t.ToolFailed.Render("⎿")
	}

	desc := info.Description
	if desc == "" {
		desc = info.Summary
	}
	lines := []string{"  " + marker + " " + t.ToolCard.Render(desc)}

	if info.ErrorMessage != "" {
		lines = append(lines, "     "+t.ErrorText.Render(truncateWithEllipsis(info.ErrorMessage, 200)))
	}
	if info.Diff != nil {
		lines = append(lines, r.renderDiff(info.Diff))
	}
	return strings.Join(lines, "\n")
}

// diffDisplayLimit caps the number of diff lines echoed into scrollback.
const diffDisplayLimit = 40

func (r *TurnRenderer) renderDiff(d *UnifiedDiff) string {
	t := r.theme
	var lines []string
	added, removed := d.Stats()
	lines = append(lines, "     "+t.ToolCard.Render(fmt.Sprintf("+%d -%d", added, removed)))

	count := 0
	for _, h := range d.Hunks {
		for _, l := range h.Lines {
			if count >= diffDisplayLimit {
				lines = append(lines, "     "+t.ListDetail.Render("…"))
				return strings.Join(lines, "\n")
			}
			var rendered string
			switch l.Kind {
			case DiffAdded:
				rendered = t.DiffAdded.Render("+" + l.Content)
			case DiffRemoved:
				rendered = t.DiffRemoved.Render("-" + l.Content)
			default:
				rendered = t.DiffContext.Render(" " + l.Content)
			}
			lines = append(lines, "     "+rendered)
			count++
		}
	}
	return strings.Join(lines, "\n")
}

func (r *TurnRenderer) wrap(s string) string {
	return wordwrap.String(s, r.width-2)
}
