package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghissues-agent/config"
	"github.com/spiffcs/ghissues-agent/internal/a2a"
	"github.com/spiffcs/ghissues-agent/internal/agent"
	"github.com/spiffcs/ghissues-agent/internal/extract"
	"github.com/spiffcs/ghissues-agent/internal/ghclient"
	"github.com/spiffcs/ghissues-agent/internal/output"
)

type fetchOptions struct {
	Repo   string
	State  string
	Labels string
	Since  string
	Format string
	Task   bool
}

// configuration builds the per-request configuration the agent would
// receive over JSON-RPC.
func (o fetchOptions) configuration() a2a.Configuration {
	cfg := a2a.Configuration{}
	if o.State != "" {
		cfg["state"] = o.State
	}
	if o.Labels != "" {
		cfg["labels"] = o.Labels
	}
	if o.Since != "" {
		cfg["since"] = o.Since
	}
	return cfg
}

// message builds the request message: a data part naming Repo when set,
// otherwise text as a single text part.
func (o fetchOptions) message(text string) (a2a.Message, error) {
	if o.Repo != "" {
		id, err := extract.ParseRepoIdentifier(o.Repo)
		if err != nil {
			return a2a.Message{}, err
		}
		return a2a.Message{
			Kind: "message",
			Role: a2a.RoleUser,
			Parts: a2a.Parts{a2a.DataPart{Data: map[string]any{
				"owner": id.Owner,
				"repo":  id.Repo,
			}}},
		}, nil
	}
	if strings.TrimSpace(text) == "" {
		return a2a.Message{}, fmt.Errorf("provide text naming a repository, or use --repo")
	}
	return textMessage(text), nil
}

// NewCmdFetch creates the fetch command.
func NewCmdFetch(opts *Options) *cobra.Command {
	var fo fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch [text...]",
		Short: "Fetch the issues of a repository once",
		Long: `Extract a repository from the given text and list its issues, the same
way the agent answers a JSON-RPC call.

With --repo the repository is given directly as owner/repo and no text is
needed. With --task the full task result is printed as JSON instead of a
listing.`,
		Example: `  ghissues-agent fetch golang/go
  ghissues-agent fetch --state closed --labels bug "issues in kubernetes/kubernetes"
  ghissues-agent fetch --since 2w -f markdown https://github.com/spf13/cobra
  ghissues-agent fetch --repo golang/go --task`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			client, err := ghclient.NewClient(cfg.GitHub)
			if err != nil {
				return err
			}
			return runFetch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, client, strings.Join(args, " "), fo)
		},
	}

	cmd.Flags().StringVarP(&fo.Repo, "repo", "r", "", "Repository as owner/repo (skips extraction from text)")
	cmd.Flags().StringVarP(&fo.State, "state", "s", "", "Issue state (open, closed, all); defaults to github.default_state")
	cmd.Flags().StringVarP(&fo.Labels, "labels", "l", "", "Comma separated labels to filter by")
	cmd.Flags().StringVar(&fo.Since, "since", "", "Only issues updated since (e.g., 1w, 30d, or an RFC 3339 time)")
	cmd.Flags().StringVarP(&fo.Format, "format", "f", "table", "Output format (table, json, markdown)")
	cmd.Flags().BoolVar(&fo.Task, "task", false, "Print the agent task result as JSON")

	return cmd
}

func runFetch(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, fetcher ghclient.IssueFetcher, text string, fo fetchOptions) error {
	if fo.State != "" && !config.ValidIssueState(fo.State) {
		return fmt.Errorf("invalid state: %s (must be open, closed or all)", fo.State)
	}
	msg, err := fo.message(text)
	if err != nil {
		return err
	}

	if fo.Task {
		res := agent.New(fetcher).Process(ctx, agent.Request{Message: msg, Configuration: fo.configuration()})
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	format, err := output.ParseFormat(fo.Format)
	if err != nil {
		return err
	}

	id, ok := extract.Repository(msg)
	if !ok {
		return fmt.Errorf("no repository found in %q; include it in the form owner/repo", text)
	}

	state := fo.State
	if state == "" {
		state = cfg.GitHub.DefaultState
	}
	fmt.Fprintf(stderr, "Fetching %s issues for %s...\n", state, id)

	issues, err := fetcher.ListIssues(ctx, ghclient.IssueQuery{
		Owner:         id.Owner,
		Repo:          id.Repo,
		Configuration: fo.configuration(),
	})
	if err != nil {
		return fmt.Errorf("failed to fetch issues for %s: %w", id, err)
	}

	return output.NewFormatter(format).Format(output.Listing{
		Owner: id.Owner,
		Repo:  id.Repo,
		State: state,
		Raw:   issues,
	}, stdout)
}
