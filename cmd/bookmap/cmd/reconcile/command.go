// Package reconcile provides the reconcile command: a supplied proposal is
// validated and diffed against a supplied folder snapshot.
package reconcile

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/bookmap/cmd/application"
	"github.com/agentstation/bookmap/internal/cmd/globals"
	"github.com/agentstation/bookmap/pkg/reconcile"
)

// NewCommand creates the reconcile command.
func NewCommand(app application.Application) *cobra.Command {
	var review bool

	cmd := &cobra.Command{
		Use:     "reconcile",
		GroupID: "core",
		Short:   "Reconcile a folder proposal against the current folders",
		Long: `Reconcile reads a document with the current folders and a proposed
structure, resolves name collisions and prints the resulting plan.

No API key is needed unless --review asks the oracle to review the proposal.

Document shape (JSON or YAML):

  current_folders: ["Tech", {name: "Python", parent: "Tech"}]
  proposal:
    suggested_folders:
      - {name: "Programming", merge_from: ["Tech"]}
      - {name: "Python", parent: "Programming"}
    folders_to_remove: ["Old"]
  bookmark_count: 120`,
		Example: `  # Reconcile offline and print a table
  bookmap reconcile -f plan.yaml

  # Ask the oracle to review first, print JSON
  bookmap reconcile -f plan.json --review -o json

  # Read from stdin
  cat plan.json | bookmap reconcile -f -`,
		Args: cobra.NoArgs,
	}
	input := globals.AddInputFlags(cmd)
	cmd.Flags().BoolVar(&review, "review", false, "Run the oracle review pass before reconciling")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		var in reconcile.Input
		if err := input.Decode(cmd, &in); err != nil {
			return err
		}

		engine := app.OfflineEngine()
		if review {
			var err error
			if engine, err = app.Engine(); err != nil {
				return err
			}
		}

		result := engine.Reconcile(cmd.Context(), in)
		app.Logger().Debug().
			Int("created", result.Summary.Created).
			Int("removed", result.Summary.Removed).
			Bool("review_applied", result.ReviewApplied).
			Msg("Reconciliation complete")

		return globals.Render(cmd, app.OutputFormat(), result)
	}

	return cmd
}
