package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "ghissues-agent",
		Short: "Agent that lists the issues of a GitHub repository",
		Long: `An agent-to-agent service that answers JSON-RPC requests for the issues
of a GitHub repository. The repository is extracted from free-form text or
structured data in the request, and the issues are fetched with a single
call to the GitHub REST API.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to a config file (overrides global and local config)")
	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "Log format (text, json)")

	// Register subcommands
	rootCmd.AddCommand(NewCmdServe(opts))
	rootCmd.AddCommand(NewCmdExtract())
	rootCmd.AddCommand(NewCmdFetch(opts))
	rootCmd.AddCommand(NewCmdConfig(opts))
	rootCmd.AddCommand(NewCmdRateLimit(opts))
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
