package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	gh "github.com/google/go-github/v57/github"
	"github.com/spf13/cobra"

	"github.com/spiffcs/ghissues-agent/internal/ghclient"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display current GitHub API rate limit status including remaining quota and reset time.`,
	}
	cmd.AddCommand(NewCmdRateLimitStatus(opts))
	return cmd
}

// NewCmdRateLimitStatus creates the ratelimit status subcommand.
func NewCmdRateLimitStatus(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current rate limit status",
		Long: `Display the current GitHub API rate limit status for the core, search and
GraphQL APIs. Without GITHUB_TOKEN the unauthenticated quota is shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			client, err := ghclient.NewClient(cfg.GitHub)
			if err != nil {
				return err
			}
			limits, err := client.RateLimits(cmd.Context())
			if err != nil {
				return err
			}
			printRateLimits(cmd.OutOrStdout(), limits, client.Authenticated(), time.Now())
			return nil
		},
	}
}

func printRateLimits(w io.Writer, limits *gh.RateLimits, authenticated bool, now time.Time) {
	if authenticated {
		fmt.Fprintln(w, "GitHub API Rate Limits:")
	} else {
		fmt.Fprintln(w, "GitHub API Rate Limits (unauthenticated):")
	}
	fmt.Fprintln(w)

	printRate(w, "Core API:  ", limits.Core, now)
	printRate(w, "Search API:", limits.Search, now)
	printRate(w, "GraphQL:   ", limits.GraphQL, now)
}

func printRate(w io.Writer, name string, r *gh.Rate, now time.Time) {
	if r == nil {
		return
	}
	resetIn := r.Reset.Time.Sub(now).Round(time.Second)
	if resetIn < 0 {
		resetIn = 0
	}
	remaining := fmt.Sprintf("%d/%d", r.Remaining, r.Limit)
	switch {
	case r.Remaining == 0:
		remaining = color.RedString(remaining)
	case r.Limit > 0 && r.Remaining*10 < r.Limit:
		remaining = color.YellowString(remaining)
	}
	fmt.Fprintf(w, "%s %s remaining (resets in %s)\n", name, remaining, resetIn)
}
