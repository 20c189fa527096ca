// Package constants provides a centralized location for configuration
// defaults and magic numbers used throughout the agent.
package constants

import "time"

// AgentName identifies the service in health checks and the user agent.
const AgentName = "ghissues-agent"

// Server defaults
const (
	// DefaultAddr is the listen address used when neither config nor
	// the PORT environment variable provide one.
	DefaultAddr = ":8000"

	// DefaultReadTimeout bounds reading an inbound request.
	DefaultReadTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds writing a response. It must exceed the
	// upstream timeout so failed fetches are still reported.
	DefaultWriteTimeout = 30 * time.Second

	// DefaultRequestTimeout bounds handling of a single RPC call.
	DefaultRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long in-flight requests get to finish after
	// SIGINT/SIGTERM.
	ShutdownTimeout = 10 * time.Second

	// MaxRequestBytes caps the size of an inbound JSON-RPC body.
	MaxRequestBytes = 1 << 20
)

// GitHub API defaults
const (
	// DefaultGitHubBaseURL is the public GitHub REST endpoint.
	DefaultGitHubBaseURL = "https://api.github.com/"

	// DefaultGitHubTimeout bounds a single upstream issue listing.
	DefaultGitHubTimeout = 10 * time.Second

	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 10
)

// Issue state filters accepted by the GitHub issues endpoint.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// DefaultIssueState is used when a request carries no state filter.
const DefaultIssueState = StateOpen

// Summary formatting
const (
	// SummaryTopIssues is the number of issues listed in a task summary.
	SummaryTopIssues = 5

	// SummaryTitleWidth is the display width titles are truncated to.
	SummaryTitleWidth = 72
)

// IssuesArtifactName names the artifact carrying fetched issues.
const IssuesArtifactName = "issues_data"
