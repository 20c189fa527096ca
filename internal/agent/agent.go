// Package agent turns an inbound message into a TaskResult: it extracts the
// repository, lists its issues once and summarizes the outcome.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spiffcs/ghissues-agent/internal/a2a"
	"github.com/spiffcs/ghissues-agent/internal/constants"
	"github.com/spiffcs/ghissues-agent/internal/extract"
	"github.com/spiffcs/ghissues-agent/internal/format"
	"github.com/spiffcs/ghissues-agent/internal/ghclient"
	"github.com/spiffcs/ghissues-agent/internal/log"
)

// NotFoundMessage is the reply when no repository could be identified.
const NotFoundMessage = "Could not determine the repository. Please provide it in the form 'owner/repo'."

// Request is a single unit of work for the Agent.
type Request struct {
	Message       a2a.Message
	Configuration a2a.Configuration

	// TaskID and ContextID override the values carried by Message.
	TaskID    string
	ContextID string
}

// Agent answers issue listing requests. It holds no per-request state and
// is safe for concurrent use.
type Agent struct {
	fetcher ghclient.IssueFetcher
	now     func() time.Time
	newID   func() string
}

// New creates an Agent backed by fetcher.
func New(fetcher ghclient.IssueFetcher) *Agent {
	return &Agent{
		fetcher: fetcher,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Process handles req and always returns a result. Upstream failures are
// reported through a failed task state rather than an error.
func (a *Agent) Process(ctx context.Context, req Request) *a2a.TaskResult {
	taskID := a.idOrNew(req.TaskID, req.Message.TaskID)
	contextID := a.idOrNew(req.ContextID, req.Message.ContextID)

	id, ok := extract.Repository(req.Message)
	if !ok {
		log.Info("no repository in message", "task", taskID, "state", a2a.TaskStateCompleted)
		return a.result(req.Message, taskID, contextID, a2a.TaskStateCompleted, NotFoundMessage, nil)
	}

	issues, err := a.fetcher.ListIssues(ctx, ghclient.IssueQuery{
		Owner:         id.Owner,
		Repo:          id.Repo,
		Configuration: req.Configuration,
	})
	if err != nil {
		log.Info("fetching issues failed", "task", taskID, "repo", id.String(), "state", a2a.TaskStateFailed, "error", err)
		text := fmt.Sprintf("Error fetching issues for %s: %v", id, err)
		return a.result(req.Message, taskID, contextID, a2a.TaskStateFailed, text, nil)
	}

	log.Info("fetched issues", "task", taskID, "repo", id.String(), "count", len(issues), "state", a2a.TaskStateCompleted)
	artifact := a2a.Artifact{
		ArtifactID: a.newID(),
		Name:       constants.IssuesArtifactName,
		Parts: a2a.Parts{a2a.DataPart{Data: map[string]any{
			"owner":  id.Owner,
			"repo":   id.Repo,
			"count":  len(issues),
			"issues": issues,
		}}},
	}
	return a.result(req.Message, taskID, contextID, a2a.TaskStateCompleted, Summary(id, issues), []a2a.Artifact{artifact})
}

func (a *Agent) result(in a2a.Message, taskID, contextID string, state a2a.TaskState, text string, artifacts []a2a.Artifact) *a2a.TaskResult {
	reply := a2a.NewAgentMessage(a.newID(), taskID, contextID, text)
	return &a2a.TaskResult{
		ID:        taskID,
		ContextID: contextID,
		Kind:      "task",
		Status: a2a.TaskStatus{
			State:     state,
			Message:   text,
			Timestamp: a.now().UTC(),
		},
		Artifacts: artifacts,
		History:   []a2a.Message{in, reply},
	}
}

// issueSummary holds the few issue fields shown in a summary.
type issueSummary struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	Comments int    `json:"comments"`
}

// Summary renders the human readable reply for a successful listing: a
// headline with the count followed by up to constants.SummaryTopIssues lines.
func Summary(id extract.RepoIdentifier, issues []json.RawMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d issues in %s", len(issues), id)

	for i, raw := range issues {
		if i == constants.SummaryTopIssues {
			break
		}
		var is issueSummary
		if err := json.Unmarshal(raw, &is); err != nil {
			log.Debug("skipping unparsable issue in summary", "index", i, "error", err)
			continue
		}
		title := format.SingleLine(is.Title)
		if title == "" {
			title = "(no title)"
		}
		fmt.Fprintf(&b, "\n- #%d %s (%d comments)", is.Number, format.Truncate(title, constants.SummaryTitleWidth), is.Comments)
	}
	return b.String()
}

// idOrNew returns the first non-empty candidate or a freshly generated ID.
func (a *Agent) idOrNew(candidates ...string) string {
	for _, v := range candidates {
		if v != "" {
			return v
		}
	}
	return a.newID()
}
