// Package globals provides flag structures and helpers shared by the
// bookmap commands: reading request documents and rendering results.
package globals

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/agentstation/bookmap/internal/cmd/alerts"
	"github.com/agentstation/bookmap/internal/cmd/output"
	"github.com/agentstation/bookmap/pkg/assign"
	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/reconcile"
)

// Input formats.
const (
	InputAuto = "auto"
	InputJSON = "json"
	InputYAML = "yaml"
)

// InputFlags holds the flags that select a request document.
type InputFlags struct {
	File   string
	Format string
}

// AddInputFlags adds -f/--file and --input-format to cmd.
func AddInputFlags(cmd *cobra.Command) *InputFlags {
	flags := &InputFlags{}

	cmd.Flags().StringVarP(&flags.File, "file", "f", "",
		`Request document (JSON or YAML), "-" for stdin`)
	cmd.Flags().StringVar(&flags.Format, "input-format", InputAuto,
		"Input format: auto, json, yaml")
	_ = cmd.MarkFlagRequired("file")

	return flags
}

// Decode reads the selected document into v.
func (f *InputFlags) Decode(cmd *cobra.Command, v any) error {
	var (
		data []byte
		err  error
	)
	if f.File == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(f.File)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.displayName(), err)
	}
	return DecodeDocument(data, f.format(), f.displayName(), v)
}

func (f *InputFlags) format() string {
	format := strings.ToLower(strings.TrimSpace(f.Format))
	if format != "" && format != InputAuto {
		return format
	}
	switch strings.ToLower(filepath.Ext(f.File)) {
	case ".json":
		return InputJSON
	case ".yaml", ".yml":
		return InputYAML
	}
	return InputAuto
}

func (f *InputFlags) displayName() string {
	if f.File == "-" {
		return "stdin"
	}
	return f.File
}

// DecodeDocument decodes data as JSON or YAML. In auto mode a document
// starting with "{" or "[" is JSON and anything else is YAML.
func DecodeDocument(data []byte, format, name string, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &errors.ValidationError{Field: "file", Value: name, Message: "document is empty"}
	}
	if format == InputAuto {
		format = InputYAML
		if trimmed[0] == '{' || trimmed[0] == '[' {
			format = InputJSON
		}
	}

	switch format {
	case InputJSON:
		if err := json.Unmarshal(trimmed, v); err != nil {
			return errors.NewParseError(InputJSON, name, "invalid document", err)
		}
	case InputYAML:
		if err := yaml.Unmarshal(trimmed, v); err != nil {
			return errors.NewParseError(InputYAML, name, "invalid document", err)
		}
	default:
		return &errors.ValidationError{Field: "input-format", Value: format, Message: "must be auto, json or yaml"}
	}
	return nil
}

// Render writes data to the command's output in the given format. An
// empty format picks table for terminals and JSON otherwise. Tables do
// not show result warnings, so those go to stderr as alerts.
func Render(cmd *cobra.Command, format string, data any) error {
	parsed, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	resolved := output.DetectFormat(string(parsed))
	if err := output.NewFormatter(resolved).Format(cmd.OutOrStdout(), data); err != nil {
		return err
	}
	if resolved != output.FormatTable && resolved != output.FormatWide {
		return nil
	}
	w := alerts.NewWriterTo(cmd.ErrOrStderr(), os.Getenv("NO_COLOR") != "")
	return alerts.Warnings(w, warningsOf(data))
}

func warningsOf(data any) []string {
	switch v := data.(type) {
	case *reconcile.Result:
		return v.Warnings
	case *reconcile.TagResult:
		return v.Warnings
	case *assign.BulkTagResponse:
		return v.Warnings
	case *assign.BulkFolderResponse:
		return v.Warnings
	}
	return nil
}
