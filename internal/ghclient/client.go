package ghclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/spiffcs/ghissues-agent/config"
	"github.com/spiffcs/ghissues-agent/internal/a2a"
	"github.com/spiffcs/ghissues-agent/internal/constants"
	"github.com/spiffcs/ghissues-agent/internal/duration"
	"github.com/spiffcs/ghissues-agent/internal/log"
)

var (
	// ErrNotFound is returned when the repository does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("repository not found")

	// ErrUnauthorized is returned when GitHub rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited is returned when the GitHub API rate limit has been exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// IssueQuery selects the issues of one repository.
type IssueQuery struct {
	Owner         string
	Repo          string
	Configuration a2a.Configuration
}

// Client wraps the GitHub API client. It holds only values fixed at
// construction; each call builds its own go-github client so that quota
// state recorded by one request never affects another.
type Client struct {
	httpClient   *http.Client
	baseURL      *url.URL
	defaultState string
	// authenticated records whether a token was configured. The token itself
	// is never kept on the Client so it cannot leak through logs.
	authenticated bool
}

// NewClient creates a GitHub client from cfg. A token, when present, is sent
// as a bearer credential on every request; without one the client makes
// unauthenticated calls.
func NewClient(cfg config.GitHubConfig) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = constants.DefaultGitHubBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub base URL %q: %w", cfg.BaseURL, err)
	}

	state := cfg.DefaultState
	if state == "" {
		state = constants.DefaultIssueState
	}

	var hc *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		hc = oauth2.NewClient(context.Background(), ts)
		hc.Transport = &rateLimitTransport{base: hc.Transport}
	} else {
		hc = &http.Client{
			Transport: &rateLimitTransport{base: http.DefaultTransport},
		}
	}
	hc.Timeout = cfg.Timeout

	return &Client{
		httpClient:    hc,
		baseURL:       u,
		defaultState:  state,
		authenticated: cfg.Token != "",
	}, nil
}

// api returns a go-github client for a single call.
func (c *Client) api() *gh.Client {
	client := gh.NewClient(c.httpClient)
	base := *c.baseURL
	client.BaseURL = &base
	client.UserAgent = constants.AgentName
	return client
}

// Authenticated reports whether the client sends a token.
func (c *Client) Authenticated() bool {
	return c.authenticated
}

// ListIssues performs a single request for the issues of q.Owner/q.Repo and
// returns the response array verbatim. Pull requests returned by the
// endpoint are kept.
func (c *Client) ListIssues(ctx context.Context, q IssueQuery) ([]json.RawMessage, error) {
	params := url.Values{}
	state := q.Configuration.String("state")
	if state == "" {
		state = c.defaultState
	}
	params.Set("state", state)
	if labels := labelsParam(q.Configuration); labels != "" {
		params.Set("labels", labels)
	}
	if since := q.Configuration.String("since"); since != "" {
		t, err := duration.Since(since, time.Now())
		if err != nil {
			return nil, err
		}
		params.Set("since", t.UTC().Format(time.RFC3339))
	}

	u := fmt.Sprintf("repos/%s/%s/issues?%s", url.PathEscape(q.Owner), url.PathEscape(q.Repo), params.Encode())
	api := c.api()
	req, err := api.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build issues request: %w", err)
	}

	start := time.Now()
	var issues []json.RawMessage
	resp, err := api.Do(ctx, req, &issues)
	if err != nil {
		return nil, classify(err)
	}
	log.Debug("listed issues",
		"repo", q.Owner+"/"+q.Repo,
		"state", state,
		"count", len(issues),
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if issues == nil {
		issues = []json.RawMessage{}
	}
	return issues, nil
}

// RateLimits fetches the current GitHub API rate limit status.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	limits, _, err := c.api().RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limits: %w", classify(err))
	}
	return limits, nil
}

// labelsParam accepts labels as a comma separated string or a list of strings.
func labelsParam(cfg a2a.Configuration) string {
	switch v := cfg["labels"].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				names = append(names, strings.TrimSpace(s))
			}
		}
		return strings.Join(names, ",")
	case []string:
		return strings.Join(v, ",")
	}
	return ""
}

// classify wraps err with the sentinel matching the upstream failure.
func classify(err error) error {
	var (
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
		respErr  *gh.ErrorResponse
	)
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case errors.As(err, &respErr) && respErr.Response != nil:
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		case http.StatusForbidden:
			if respErr.Response.Header.Get("X-RateLimit-Remaining") == "0" {
				return fmt.Errorf("%w: %w", ErrRateLimited, err)
			}
		}
		return err
	}
	return fmt.Errorf("request to GitHub failed: %w", err)
}
