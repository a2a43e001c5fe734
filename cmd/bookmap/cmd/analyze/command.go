// Package analyze provides the analyze command, which asks the suggestion
// oracle for a new folder or tag structure and reconciles it.
package analyze

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/bookmap/cmd/application"
	"github.com/agentstation/bookmap/internal/cmd/globals"
	"github.com/agentstation/bookmap/pkg/reconcile"
)

// Kinds of structure the command analyzes.
const (
	KindFolders = "folders"
	KindTags    = "tags"
)

// NewCommand creates the analyze command.
func NewCommand(app application.Application) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:     "analyze",
		GroupID: "core",
		Short:   "Propose a folder or tag structure for a bookmark collection",
		Long: `Analyze sends a bookmark sample and the current folders (or tags) to the
suggestion oracle and reconciles its proposal against what exists.

Folder document (JSON or YAML):

  bookmarks:
    - {title: "Go blog", url: "https://go.dev/blog", current_folder: "Tech"}
  current_folders: ["Tech", "News"]
  instruction: "keep it under ten folders"

Tag document:

  bookmarks: [...]
  current_tags: ["go", "python"]

Requires an oracle API key (OPENAI_API_KEY or GOOGLE_API_KEY).`,
		Example: `  # Propose folders
  bookmap analyze -f bookmarks.yaml

  # Propose a tag vocabulary as markdown
  bookmap analyze -f bookmarks.json --kind tags -o markdown`,
		Args: cobra.NoArgs,
	}
	input := globals.AddInputFlags(cmd)
	cmd.Flags().StringVar(&kind, "kind", KindFolders, "What to analyze: folders, tags")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		kind = strings.ToLower(strings.TrimSpace(kind))
		if kind != KindFolders && kind != KindTags {
			return fmt.Errorf("invalid --kind %q: must be folders or tags", kind)
		}

		engine, err := app.Engine()
		if err != nil {
			return err
		}

		if kind == KindTags {
			var req reconcile.TagRequest
			if err := input.Decode(cmd, &req); err != nil {
				return err
			}
			result, err := engine.AnalyzeTags(cmd.Context(), req)
			if err != nil {
				return err
			}
			return globals.Render(cmd, app.OutputFormat(), result)
		}

		var req reconcile.FolderRequest
		if err := input.Decode(cmd, &req); err != nil {
			return err
		}
		result, err := engine.AnalyzeFolders(cmd.Context(), req)
		if err != nil {
			return err
		}
		return globals.Render(cmd, app.OutputFormat(), result)
	}

	return cmd
}
