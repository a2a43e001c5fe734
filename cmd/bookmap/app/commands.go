package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/bookmap/cmd/bookmap/cmd/analyze"
	"github.com/agentstation/bookmap/cmd/bookmap/cmd/assign"
	"github.com/agentstation/bookmap/cmd/bookmap/cmd/reconcile"
	"github.com/agentstation/bookmap/cmd/bookmap/cmd/serve"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(analyze.NewCommand(a))
	rootCmd.AddCommand(reconcile.NewCommand(a))
	rootCmd.AddCommand(assign.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a, func() string { return a.config.ServerAPIKey }))
	rootCmd.AddCommand(a.NewVersionCommand())
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("bookmap %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
				cmd.Printf("  provider: %s\n", a.ProviderName())
			}
		},
	}
}
