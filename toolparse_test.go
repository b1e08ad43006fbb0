package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseToolResponseStructured(t *testing.T) {
	payload := `<tool_response tool_name="write_file">
		<result status="SUCCESS" absolute_path="/tmp/notes.txt" />
		<notes>wrote 42 bytes</notes>
		<content_on_disk>hello</content_on_disk>
	</tool_response>`

	info := ParseToolResponse("write_file", payload)
	require.Equal(t, ToolStatusSuccess, info.Status)
	require.Equal(t, "/tmp/notes.txt", info.FilePath)
	require.Equal(t, "hello", info.NewContent)
	require.Equal(t, "wrote 42 bytes", info.Summary)
	require.Equal(t, "Created notes.txt", info.Description)
}

func TestParseToolResponseErrorForcesFailed(t *testing.T) {
	payload := `<tool_response tool_name="read_file">
		<result status="SUCCESS" absolute_path="/tmp/a.txt" />
		<error>permission denied</error>
	</tool_response>`

	info := ParseToolResponse("read_file", payload)
	require.Equal(t, ToolStatusFailed, info.Status)
	require.Equal(t, "permission denied", info.ErrorMessage)
}

func TestParseToolResponseToleratesUnknownElements(t *testing.T) {
	payload := `<tool_response tool_name="read_file">
		<result status="SUCCESS" absolute_path="/src/main.go" />
		<telemetry duration_ms="12" />
		<whatever>ignored</whatever>
	</tool_response>`

	info := ParseToolResponse("read_file", payload)
	require.Equal(t, ToolStatusSuccess, info.Status)
	require.Equal(t, "Read main.go", info.Description)
}

func TestParseToolResponseOpaquePayloadTruncated(t *testing.T) {
	payload := strings.Repeat("x", 500)
	info := ParseToolResponse("run_in_shell", payload)
	require.Equal(t, ToolStatusSuccess, info.Status)
	require.True(t, strings.HasSuffix(info.Summary, "…"))
	require.LessOrEqual(t, len([]rune(info.Summary)), 201)
	require.Equal(t, payload, info.Raw)
}

func TestParseToolResponseDescriptions(t *testing.T) {
	cases := []struct {
		tool     string
		payload  string
		expected string
	}{
		{"read_file", `<tool_response tool_name="read_file"><result status="SUCCESS" absolute_path="/a/b.go" /></tool_response>`, "Read b.go"},
		{"replace_text", `<tool_response tool_name="replace_text"><result status="SUCCESS" absolute_path="/a/b.go" /></tool_response>`, "Modified b.go"},
		{"list_files", `<tool_response tool_name="list_files"><result status="SUCCESS" absolute_path="/a" /></tool_response>`, "Listed a"},
		{"grep", `<tool_response tool_name="grep"><result status="SUCCESS" absolute_path="/src" /></tool_response>`, "Searched src"},
		{"run_in_shell", `<tool_response tool_name="run_in_shell"><result status="SUCCESS" /><notes>go test ./...</notes></tool_response>`, "Executed: go test ./..."},
		{"apply_patch", `<tool_response tool_name="apply_patch"><result status="SUCCESS" absolute_path="/a/b.go" /></tool_response>`, "Patched b.go"},
	}
	for _, tc := range cases {
		info := ParseToolResponse(tc.tool, tc.payload)
		require.Equal(t, tc.expected, info.Description, "tool %s", tc.tool)
	}
}

func TestParseToolResponsePatchElement(t *testing.T) {
	patch := "--- a.txt\n+++ a.txt\n@@ -1,2 +1,2 @@\n-old\n+new\n context\n"
	payload := `<tool_response tool_name="apply_patch"><result status="SUCCESS" absolute_path="/x/a.txt" /><patch>` +
		xmlEscape(patch) + `</patch></tool_response>`

	info := ParseToolResponse("apply_patch", payload)
	require.NotNil(t, info.Diff)
	added, removed := info.Diff.Stats()
	require.Equal(t, 1, added)
	require.Equal(t, 1, removed)
}

func TestParseToolResponseEditDiffComputed(t *testing.T) {
	payload := `<tool_response tool_name="replace_text">
		<result status="SUCCESS" absolute_path="/x/f.txt" />
		<old_content>one
two
three</old_content>
		<content_on_disk>one
2
three</content_on_disk>
	</tool_response>`

	info := ParseToolResponse("replace_text", payload)
	require.NotNil(t, info.Diff)
	added, removed := info.Diff.Stats()
	require.Equal(t, 1, added)
	require.Equal(t, 1, removed)
}

func TestFormatParseToolResponseRoundTrip(t *testing.T) {
	in := &ToolResponseInfo{
		ToolName: "write_file",
		Status:   ToolStatusFailed,
		Summary:  "disk full",
		ErrorMessage: "no space left on device",
		FilePath: "/tmp/big.bin",
	}
	out := ParseToolResponse("write_file", FormatToolResponse(in))
	require.Equal(t, in.Status, out.Status)
	require.Equal(t, in.FilePath, out.FilePath)
	require.Equal(t, in.ErrorMessage, out.ErrorMessage)
}
