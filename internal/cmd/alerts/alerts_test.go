package alerts

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlert_String(t *testing.T) {
	assert.Equal(t, "! folder limit exceeded", NewWarning("folder limit exceeded").String())
	assert.Equal(t, "✗ review failed: boom", NewError("review failed").WithError(errors.New("boom")).String())
	assert.Equal(t, "✓ done", NewSuccess("done").String())
}

func TestWriterTo_NoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterTo(&buf, false)

	require.NoError(t, w.WriteAlert(NewWarning("two collisions").WithDetails("Tech", "News")))
	assert.Equal(t, "! two collisions\n   Tech\n   News\n", buf.String())
}

func TestWarnings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Warnings(NewWriterTo(&buf, true), []string{"a", "b"}))
	assert.Equal(t, "! a\n! b\n", buf.String())

	require.NoError(t, Warnings(DiscardWriter, []string{"ignored"}))
}

func TestLevel(t *testing.T) {
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "unknown(9)", Level(9).String())
	assert.Equal(t, "?", Level(9).Icon())
	assert.Equal(t, "\033[31m", LevelError.Color())
}
