package reconcile

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/bookmap/internal/cmd/application"
	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/reconcile"
)

const planYAML = `current_folders:
  - Tech
  - {name: Inbox}
proposal:
  suggested_folders:
    - name: Technology
      merge_from: [Tech]
  folders_to_remove: []
`

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

func TestReconcile_OfflineYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(planYAML), 0o600))

	mock := &application.Mock{OutputFormatFunc: func() string { return "json" }}
	out, err := run(t, mock, "", "-f", path)
	require.NoError(t, err)

	var result reconcile.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"Tech"}, result.FoldersToRemove)
	assert.False(t, result.ReviewApplied)

	statuses := map[string]reconcile.Status{}
	for _, e := range result.FinalStructure {
		statuses[e.Name] = e.Status
	}
	assert.Equal(t, reconcile.StatusNew, statuses["Technology"])
	assert.Equal(t, reconcile.StatusExisting, statuses["Inbox"])
}

func TestReconcile_Stdin(t *testing.T) {
	mock := &application.Mock{OutputFormatFunc: func() string { return "table" }}
	body := `{"current_folders": ["Tech"], "proposal": {"suggested_folders": [{"name": "Technology", "merge_from": ["Tech"]}]}}`

	out, err := run(t, mock, body, "-f", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Technology")
	assert.Contains(t, out, "Tech")
}

func TestReconcile_ReviewNeedsOracle(t *testing.T) {
	mock := &application.Mock{
		EngineFunc: func() (*reconcile.Engine, error) {
			return nil, errors.NewConfigError("oracle", "no key", errors.ErrAPIKeyRequired)
		},
	}

	_, err := run(t, mock, `{"proposal": {}}`, "-f", "-", "--review")
	require.Error(t, err)
	assert.True(t, errors.IsAPIKeyError(err))
}

func TestReconcile_Errors(t *testing.T) {
	mock := &application.Mock{}

	_, err := run(t, mock, "")
	require.Error(t, err, "missing --file")

	_, err = run(t, mock, "   ", "-f", "-")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	_, err = run(t, mock, `{"proposal": `, "-f", "-")
	var parseErr *errors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "json", parseErr.Format)

	_, err = run(t, mock, planYAML, "-f", "-", "-o", "json")
	require.Error(t, err, "output format is a root flag")
}
