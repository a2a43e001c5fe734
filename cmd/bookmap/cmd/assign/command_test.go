package assign

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/bookmap/internal/cmd/application"
	"github.com/agentstation/bookmap/pkg/assign"
	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/oracle"
)

func newMock(t *testing.T) *application.Mock {
	t.Helper()
	o := oracle.Func(func(_ context.Context, req oracle.Request) (*oracle.Response, error) {
		switch req.Operation {
		case oracle.OpSuggestTags:
			return &oracle.Response{Content: "go, invented"}, nil
		case oracle.OpAssignFolders:
			return &oracle.Response{Content: `{"assignments":[{"bookmark_id":"1","suggested_folder":"Programming/Go","reasoning":"go"}]}`}, nil
		}
		return nil, errors.NewAPIError("fake", 500, "unsupported")
	})
	svc, err := assign.New(o)
	require.NoError(t, err)

	return &application.Mock{
		AssignerFunc:     func() (*assign.Service, error) { return svc, nil },
		OutputFormatFunc: func() string { return "json" },
	}
}

func run(t *testing.T, mock *application.Mock, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(mock)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAssignTags(t *testing.T) {
	doc := `bookmarks:
  - {id: "1", title: "Go blog", url: "https://go.dev/blog"}
  - {id: "2", title: "Go spec", url: "https://go.dev/ref/spec"}
available_tags: [go, python]
`
	out, err := run(t, newMock(t), doc, "tags", "-f", "-")
	require.NoError(t, err)

	var result assign.BulkTagResponse
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Suggestions, 2)
	assert.Equal(t, "1", result.Suggestions[0].BookmarkID)
	assert.Equal(t, []string{"go"}, result.Suggestions[0].SuggestedTags)
	assert.Equal(t, 2, result.TotalProcessed)
}

func TestAssignFolders(t *testing.T) {
	doc := `{"bookmarks": [{"id": "1", "title": "Go blog"}], "available_folders": ["Programming / Go", "News"]}`

	out, err := run(t, newMock(t), doc, "folders", "-f", "-")
	require.NoError(t, err)

	var result assign.BulkFolderResponse
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "Programming / Go", result.Suggestions[0].SuggestedFolder)
}

func TestAssign_NoOracle(t *testing.T) {
	mock := &application.Mock{
		AssignerFunc: func() (*assign.Service, error) {
			return nil, errors.NewConfigError("oracle", "no key", errors.ErrAPIKeyRequired)
		},
	}
	_, err := run(t, mock, `{"bookmarks": [{"id": "1"}], "available_tags": ["go"]}`, "tags", "-f", "-")
	assert.True(t, errors.IsAPIKeyError(err))
}

func TestAssign_Help(t *testing.T) {
	out, err := run(t, &application.Mock{}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "tags")
	assert.Contains(t, out, "folders")
}
