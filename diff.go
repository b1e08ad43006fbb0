package main

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffLineKind classifies a line within a hunk.
type DiffLineKind int

const (
	DiffContext DiffLineKind = iota
	DiffAdded
	DiffRemoved
)

// DiffLine is a single line of a hunk. OldLine/NewLine are 1-based line
// numbers in the original and modified files; 0 means the line does not
// exist on that side.
type DiffLine struct {
	Kind    DiffLineKind
	Content string
	OldLine int
	NewLine int
}

// DiffHunk is a contiguous change region with surrounding context.
type DiffHunk struct {
	OriginalStart  int
	OriginalLength int
	ModifiedStart  int
	ModifiedLength int
	Lines          []DiffLine
}

// UnifiedDiff is the display form of a file change.
type UnifiedDiff struct {
	OriginalPath string
	ModifiedPath string
	Hunks        []DiffHunk
}

// diffContextLines is the amount of context around each change.
const diffContextLines = 3

// lineEdit is an intermediate flat representation before hunk grouping.
type lineEdit struct {
	kind    DiffLineKind
	content string
	oldLine int
	newLine int
}

// ComputeUnifiedDiff diffs two file contents line-wise and groups the
// result into hunks with three lines of context.
func ComputeUnifiedDiff(originalPath, modifiedPath, original, modified string) *UnifiedDiff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(original, modified)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var edits []lineEdit
	oldNo, newNo := 1, 1
	for _, d := range diffs {
		for _, line := range splitDiffLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				edits = append(edits, lineEdit{DiffContext, line, oldNo, newNo})
				oldNo++
				newNo++
			case diffmatchpatch.DiffDelete:
				edits = append(edits, lineEdit{DiffRemoved, line, oldNo, 0})
				oldNo++
			case diffmatchpatch.DiffInsert:
				edits = append(edits, lineEdit{DiffAdded, line, 0, newNo})
				newNo++
			}
		}
	}

	return &UnifiedDiff{
		OriginalPath: originalPath,
		ModifiedPath: modifiedPath,
		Hunks:        groupHunks(edits),
	}
}

// splitDiffLines splits diff text into lines, dropping the trailing empty
// segment produced by a final newline.
func splitDiffLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// groupHunks merges edits into hunks so changes separated by more than
// 2*context lines of unchanged text land in separate hunks.
func groupHunks(edits []lineEdit) []DiffHunk {
	var hunks []DiffHunk
	i := 0
	for i < len(edits) {
		// Find the next change.
		for i < len(edits) && edits[i].kind == DiffContext {
			i++
		}
		if i >= len(edits) {
			break
		}

		start := i - diffContextLines
		if start < 0 {
			start = 0
		}
		end := i
		// Extend until the next change is more than 2*context away.
		for j := i; j < len(edits); j++ {
			if edits[j].kind != DiffContext {
				end = j + 1
				continue
			}
			if j-end >= 2*diffContextLines {
				break
			}
		}
		stop := end + diffContextLines
		if stop > len(edits) {
			stop = len(edits)
		}

		hunks = append(hunks, buildHunk(edits[start:stop]))
		i = stop
	}
	return hunks
}

func buildHunk(edits []lineEdit) DiffHunk {
	h := DiffHunk{}
	for _, e := range edits {
		if e.oldLine > 0 {
			if h.OriginalStart == 0 {
				h.OriginalStart = e.oldLine
			}
			h.OriginalLength++
		}
		if e.newLine > 0 {
			if h.ModifiedStart == 0 {
				h.ModifiedStart = e.newLine
			}
			h.ModifiedLength++
		}
		h.Lines = append(h.Lines, DiffLine{Kind: e.kind, Content: e.content, OldLine: e.oldLine, NewLine: e.newLine})
	}
	return h
}

// Format renders the diff in standard unified format.
func (d *UnifiedDiff) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", d.OriginalPath)
	fmt.Fprintf(&b, "+++ %s\n", d.ModifiedPath)
	for _, h := range d.Hunks {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.OriginalStart, h.OriginalLength, h.ModifiedStart, h.ModifiedLength)
		for _, l := range h.Lines {
			switch l.Kind {
			case DiffAdded:
				b.WriteString("+")
			case DiffRemoved:
				b.WriteString("-")
			default:
				b.WriteString(" ")
			}
			b.WriteString(l.Content)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ParseUnifiedDiff reads a unified diff back into its structured form.
// Line numbers are reconstructed from the hunk headers so that
// ParseUnifiedDiff(d.Format()) reproduces d for well-formed input.
func ParseUnifiedDiff(text string) (*UnifiedDiff, error) {
	lines := strings.Split(text, "\n")
	d := &UnifiedDiff{}
	var hunk *DiffHunk
	oldNo, newNo := 0, 0

	flush := func() {
		if hunk != nil {
			d.Hunks = append(d.Hunks, *hunk)
			hunk = nil
		}
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "--- "):
			d.OriginalPath = strings.TrimPrefix(line, "--- ")
		case strings.HasPrefix(line, "+++ "):
			d.ModifiedPath = strings.TrimPrefix(line, "+++ ")
		case strings.HasPrefix(line, "@@"):
			flush()
			h := DiffHunk{}
			if _, err := fmt.Sscanf(line, "@@ -%d,%d +%d,%d @@", &h.OriginalStart, &h.OriginalLength, &h.ModifiedStart, &h.ModifiedLength); err != nil {
				// Single-line hunks may omit the length.
				if _, err2 := fmt.Sscanf(line, "@@ -%d +%d @@", &h.OriginalStart, &h.ModifiedStart); err2 != nil {
					return nil, fmt.Errorf("malformed hunk header %q: %w", line, err)
				}
				h.OriginalLength, h.ModifiedLength = 1, 1
			}
			oldNo, newNo = h.OriginalStart, h.ModifiedStart
			hunk = &h
		case hunk != nil && strings.HasPrefix(line, "+"):
			hunk.Lines = append(hunk.Lines, DiffLine{Kind: DiffAdded, Content: line[1:], NewLine: newNo})
			newNo++
		case hunk != nil && strings.HasPrefix(line, "-"):
			hunk.Lines = append(hunk.Lines, DiffLine{Kind: DiffRemoved, Content: line[1:], OldLine: oldNo})
			oldNo++
		case hunk != nil && strings.HasPrefix(line, " "):
			hunk.Lines = append(hunk.Lines, DiffLine{Kind: DiffContext, Content: line[1:], OldLine: oldNo, NewLine: newNo})
			oldNo++
			newNo++
		case hunk != nil && line == "":
			// Trailing blank from the final newline; ignored.
		}
	}
	flush()

	if d.OriginalPath == "" && d.ModifiedPath == "" && len(d.Hunks) == 0 {
		return nil, fmt.Errorf("not a unified diff")
	}
	return d, nil
}

// Stats returns added and removed line counts for compact display.
func (d *UnifiedDiff) Stats() (added, removed int) {
	for _, h := range d.Hunks {
		for _, l := range h.Lines {
			switch l.Kind {
			case DiffAdded:
				added++
			case DiffRemoved:
				removed++
			}
		}
	}
	return added, removed
}
