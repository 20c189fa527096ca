// Package ghclient provides GitHub API client functionality.
package ghclient

import (
	"context"
	"encoding/json"
)

// IssueFetcher lists the issues of a single repository.
// Implementations must be safe for concurrent use.
type IssueFetcher interface {
	ListIssues(ctx context.Context, q IssueQuery) ([]json.RawMessage, error)
}

// Ensure Client implements IssueFetcher interface.
var _ IssueFetcher = (*Client)(nil)
