// Package output renders issue listings for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Format represents the output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name. An empty name selects the table.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatMarkdown:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid format: %s (must be table, json or markdown)", s)
}

// Listing is the result of one issue fetch.
type Listing struct {
	Owner string
	Repo  string
	State string
	// Raw holds the upstream objects exactly as returned.
	Raw []json.RawMessage
}

// Issue is the subset of an upstream issue object shown in tables.
type Issue struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	State       string    `json:"state"`
	HTMLURL     string    `json:"html_url"`
	Comments    int       `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`
	User        User      `json:"user"`
	Labels      []Label   `json:"labels"`
	PullRequest *struct{} `json:"pull_request,omitempty"`
}

// User is an issue author.
type User struct {
	Login string `json:"login"`
}

// Label is an issue label.
type Label struct {
	Name string `json:"name"`
}

// IsPR reports whether the entry is a pull request. The issues endpoint
// returns both.
func (i Issue) IsPR() bool {
	return i.PullRequest != nil
}

// Issues decodes the raw entries. Entries that are not issue objects are
// skipped and counted.
func (l Listing) Issues() (issues []Issue, skipped int) {
	issues = make([]Issue, 0, len(l.Raw))
	for _, raw := range l.Raw {
		var is Issue
		if err := json.Unmarshal(raw, &is); err != nil {
			skipped++
			continue
		}
		issues = append(issues, is)
	}
	return issues, skipped
}

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(l Listing, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatMarkdown:
		return &MarkdownFormatter{now: time.Now}
	default:
		return &TableFormatter{now: time.Now}
	}
}
