package main

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"
)

// ToolStatus is the outcome reported by a tool response.
type ToolStatus string

const (
	ToolStatusSuccess ToolStatus = "SUCCESS"
	ToolStatusFailed  ToolStatus = "FAILED"
)

// ToolResponseInfo is the display form of a tool result.
type ToolResponseInfo struct {
	ToolName     string       `json:"tool_name"`
	Status       ToolStatus   `json:"status"`
	Description  string       `json:"description,omitempty"`
	Summary      string       `json:"summary,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	FilePath     string       `json:"file_path,omitempty"`
	NewContent   string       `json:"new_content,omitempty"`
	Diff         *UnifiedDiff `json:"-"`
	Raw          string       `json:"-"`
}

// toolResponseSentinel marks a structured tool-response document.
const toolResponseSentinel = "<tool_response"

// opaqueSummaryLimit caps summaries derived from unstructured payloads.
const opaqueSummaryLimit = 200

// toolResponseDoc mirrors the structured payload tools emit. Unknown
// elements are ignored by the decoder, per the document contract.
type toolResponseDoc struct {
	XMLName           xml.Name       `xml:"tool_response"`
	ToolName          string         `xml:"tool_name,attr"`
	Result            *toolResultElt `xml:"result"`
	Notes             string         `xml:"notes"`
	Error             string         `xml:"error"`
	ContentOnDisk     *string        `xml:"content_on_disk"`
	OldContent        *string        `xml:"old_content"`
	Patch             string         `xml:"patch"`
	CompletionMessage string         `xml:"completion_message"`
}

type toolResultElt struct {
	Status       string `xml:"status,attr"`
	AbsolutePath string `xml:"absolute_path,attr"`
}

// ParseToolResponse turns a tool result payload into display info. A
// payload that does not start with the structured sentinel is summarized
// as opaque text with Success status.
func ParseToolResponse(toolName, payload string) *ToolResponseInfo {
	trimmed := strings.TrimSpace(payload)
	if !strings.HasPrefix(trimmed, toolResponseSentinel) {
		return &ToolResponseInfo{
			ToolName: toolName,
			Status:   ToolStatusSuccess,
			Summary:  truncateWithEllipsis(trimmed, opaqueSummaryLimit),
			Raw:      payload,
		}
	}

	var doc toolResponseDoc
	if err := xml.Unmarshal([]byte(trimmed), &doc); err != nil {
		// Malformed structured payloads degrade to the opaque path.
		return &ToolResponseInfo{
			ToolName: toolName,
			Status:   ToolStatusSuccess,
			Summary:  truncateWithEllipsis(trimmed, opaqueSummaryLimit),
			Raw:      payload,
		}
	}

	info := &ToolResponseInfo{
		ToolName: toolName,
		Status:   ToolStatusSuccess,
		Raw:      payload,
	}
	if doc.ToolName != "" {
		info.ToolName = doc.ToolName
	}
	if doc.Result != nil {
		if strings.EqualFold(doc.Result.Status, string(ToolStatusFailed)) {
			info.Status = ToolStatusFailed
		}
		info.FilePath = doc.Result.AbsolutePath
	}
	if doc.ContentOnDisk != nil {
		info.NewContent = *doc.ContentOnDisk
	}
	if notes := strings.TrimSpace(doc.Notes); notes != "" {
		info.Summary = notes
	}
	if msg := strings.TrimSpace(doc.CompletionMessage); msg != "" {
		info.Summary = msg
	}
	if errText := strings.TrimSpace(doc.Error); errText != "" {
		info.Status = ToolStatusFailed
		info.ErrorMessage = errText
	}

	info.Description = describeTool(info.ToolName, info, doc)

	if doc.Patch != "" {
		if d, err := ParseUnifiedDiff(doc.Patch); err == nil {
			info.Diff = d
		}
	} else if doc.OldContent != nil && doc.ContentOnDisk != nil {
		path := info.FilePath
		info.Diff = ComputeUnifiedDiff(path, path, *doc.OldContent, *doc.ContentOnDisk)
	}

	return info
}

// shellCommandDisplayLimit caps the command echoed in "Executed:" lines.
const shellCommandDisplayLimit = 60

// describeTool derives the one-line description for the closed set of
// known tool kinds. Unknown tools fall back to the first notes line.
func describeTool(toolName string, info *ToolResponseInfo, doc toolResponseDoc) string {
	display := info.FilePath
	if display != "" {
		display = filepath.Base(display)
	}

	switch toolName {
	case "read_file", "read_many_files":
		if display != "" {
			return "Read " + display
		}
	case "write_file":
		if display != "" {
			return "Created " + display
		}
	case "replace_text", "edit_file":
		if display != "" {
			return "Modified " + display
		}
	case "list_files", "list_directory":
		if display != "" {
			return "Listed " + display
		}
		return "Listed files"
	case "grep", "glob", "search_files":
		if display != "" {
			return "Searched " + display
		}
		return "Searched files"
	case "run_in_shell", "execute_command":
		cmd := firstLine(doc.Notes)
		if cmd == "" {
			cmd = firstLine(info.Summary)
		}
		return "Executed: " + truncateWithEllipsis(cmd, shellCommandDisplayLimit)
	case "apply_patch":
		if display != "" {
			return "Patched " + display
		}
		return "Applied patch"
	case "attempt_completion":
		return firstLine(doc.CompletionMessage)
	}

	if line := firstLine(info.Summary); line != "" {
		return line
	}
	return toolName
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// FormatToolResponse builds the structured payload; the inverse of
// ParseToolResponse for the fields the display layer consumes. Used by the
// fake service and tests.
func FormatToolResponse(info *ToolResponseInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<tool_response tool_name=%q>\n", info.ToolName)
	fmt.Fprintf(&b, "  <result status=%q", string(info.Status))
	if info.FilePath != "" {
		fmt.Fprintf(&b, " absolute_path=%q", info.FilePath)
	}
	b.WriteString(" />\n")
	if info.Summary != "" {
		fmt.Fprintf(&b, "  <notes>%s</notes>\n", xmlEscape(info.Summary))
	}
	if info.ErrorMessage != "" {
		fmt.Fprintf(&b, "  <error>%s</error>\n", xmlEscape(info.ErrorMessage))
	}
	if info.NewContent != "" {
		fmt.Fprintf(&b, "  <content_on_disk>%s</content_on_disk>\n", xmlEscape(info.NewContent))
	}
	b.WriteString("</tool_response>")
	return b.String()
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
