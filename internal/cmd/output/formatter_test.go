package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/bookmap/pkg/assign"
	"github.com/agentstation/bookmap/pkg/differ"
	"github.com/agentstation/bookmap/pkg/reconcile"
)

func sampleResult() *reconcile.Result {
	return &reconcile.Result{
		OverallReasoning: "grouped by topic",
		FoldersToRemove:  []string{"Old"},
		FinalStructure: []reconcile.Entry{
			{Name: "Python", Parent: "Programming", Status: reconcile.StatusNew, Description: "Python code", MergeFrom: []string{"Py", "Snakes"}},
			{Name: "Old", Status: reconcile.StatusRemove, MergeFrom: []string{}},
			{Name: "Inbox", Status: reconcile.StatusExisting, MergeFrom: []string{}},
		},
		Warnings: []string{"proposal has 20 folders, suggested maximum is 15"},
		Summary:  differ.Summary{Created: 1, Removed: 1, Kept: 1, TotalChanges: 2},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "table", want: FormatTable},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "wide", want: FormatWide},
		{in: "markdown", want: FormatMarkdown},
		{in: "md", want: FormatMarkdown},
		{in: "", want: ""},
		{in: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormat_Explicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, sampleResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "grouped by topic", decoded["overall_reasoning"])
	assert.Contains(t, buf.String(), "\n  ")
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "overall_reasoning: grouped by topic")
	assert.Contains(t, out, "folders_to_remove:\n- Old")
}

func TestTableFormatter_Result(t *testing.T) {
	var narrow, wide bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&narrow, sampleResult()))
	require.NoError(t, NewFormatter(FormatWide).Format(&wide, sampleResult()))

	assert.Contains(t, narrow.String(), "Programming/Python")
	assert.Contains(t, narrow.String(), "Py, Snakes")
	assert.NotContains(t, narrow.String(), "Python code")
	assert.Contains(t, wide.String(), "Python code")
}

func TestTableFormatter_Reflection(t *testing.T) {
	type row struct {
		Name  string `json:"folder_name"`
		Count int    `json:"count"`
		note  string
	}

	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format(&buf, []row{{Name: "News", Count: 3, note: "x"}}))

	out := strings.ToUpper(buf.String())
	assert.Contains(t, out, "FOLDER NAME")
	assert.Contains(t, out, "NEWS")
	assert.NotContains(t, out, "NOTE")
}

func TestTableFormatter_Assignments(t *testing.T) {
	var buf bytes.Buffer
	resp := &assign.BulkTagResponse{Suggestions: []assign.BookmarkTags{
		{BookmarkID: "b1", SuggestedTags: []string{"go", "dev"}, Reasoning: "2 tags suggested"},
	}}
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, resp))
	assert.Contains(t, buf.String(), "go, dev")
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatMarkdown).Format(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "# Folder reconciliation")
	assert.Contains(t, out, "## Warnings")
	assert.Contains(t, out, "## Final structure")
	assert.Contains(t, out, "Programming/Python")
	assert.Contains(t, out, "## Folders to remove")
}

func TestMarkdownFormatter_Fallback(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatMarkdown).Format(&buf, map[string]int{"a": 1}))
	assert.Contains(t, buf.String(), "```json")
}
