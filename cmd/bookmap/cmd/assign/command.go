// Package assign provides the assign commands, which place bookmarks into
// an existing tag vocabulary or folder list.
package assign

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/bookmap/cmd/application"
	"github.com/agentstation/bookmap/internal/cmd/globals"
	"github.com/agentstation/bookmap/pkg/assign"
)

// NewCommand creates the assign command with its subcommands.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assign",
		GroupID: "core",
		Short:   "Assign bookmarks to existing tags or folders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newTagsCommand(app))
	cmd.AddCommand(newFoldersCommand(app))
	return cmd
}

func newTagsCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Suggest tags from an existing vocabulary for many bookmarks",
		Long: `Document shape (JSON or YAML):

  bookmarks:
    - {id: "1", title: "Go blog", url: "https://go.dev/blog"}
  available_tags: ["go", "python", "news"]`,
		Example: `  bookmap assign tags -f bookmarks.yaml -o json`,
		Args:    cobra.NoArgs,
	}
	input := globals.AddInputFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		var req assign.BulkTagRequest
		if err := input.Decode(cmd, &req); err != nil {
			return err
		}
		svc, err := app.Assigner()
		if err != nil {
			return err
		}
		result, err := svc.BulkAssignTags(cmd.Context(), req)
		if err != nil {
			return err
		}
		return globals.Render(cmd, app.OutputFormat(), result)
	}
	return cmd
}

func newFoldersCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Pick a folder from an existing list for many bookmarks",
		Long: `Document shape (JSON or YAML):

  bookmarks:
    - {id: "1", title: "Go blog", url: "https://go.dev/blog"}
  available_folders: ["Programming", "Programming / Go", "News"]`,
		Example: `  bookmap assign folders -f bookmarks.json`,
		Args:    cobra.NoArgs,
	}
	input := globals.AddInputFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		var req assign.BulkFolderRequest
		if err := input.Decode(cmd, &req); err != nil {
			return err
		}
		svc, err := app.Assigner()
		if err != nil {
			return err
		}
		result, err := svc.BulkAssignFolders(cmd.Context(), req)
		if err != nil {
			return err
		}
		return globals.Render(cmd, app.OutputFormat(), result)
	}
	return cmd
}
