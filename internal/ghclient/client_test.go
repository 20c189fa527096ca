package ghclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/spiffcs/ghissues-agent/config"
	"github.com/spiffcs/ghissues-agent/internal/a2a"
)

// newTestClient starts an httptest server running h and returns a Client
// pointed at it.
func newTestClient(t *testing.T, token string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.GitHubConfig{
		BaseURL:      srv.URL,
		DefaultState: "open",
		Timeout:      5 * time.Second,
		Token:        token,
	})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestListIssuesReturnsRawArray(t *testing.T) {
	const body = `[{"number":1,"title":"first","comments":2,"custom":{"keep":true}},{"number":2,"title":"second","pull_request":{}}]`

	var gotPath, gotState string
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotState = r.URL.Query().Get("state")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})

	issues, err := c.ListIssues(context.Background(), IssueQuery{Owner: "octo", Repo: "hello"})
	if err != nil {
		t.Fatalf("ListIssues() error: %v", err)
	}
	if gotPath != "/repos/octo/hello/issues" {
		t.Errorf("path = %q, want /repos/octo/hello/issues", gotPath)
	}
	if gotState != "open" {
		t.Errorf("state = %q, want default open", gotState)
	}
	if len(issues) != 2 {
		t.Fatalf("len(issues) = %d, want 2 (pull requests are not filtered)", len(issues))
	}
	if string(issues[0]) != `{"number":1,"title":"first","comments":2,"custom":{"keep":true}}` {
		t.Errorf("issues[0] = %s, want verbatim upstream object", issues[0])
	}
}

func TestListIssuesEmpty(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	issues, err := c.ListIssues(context.Background(), IssueQuery{Owner: "o", Repo: "r"})
	if err != nil {
		t.Fatalf("ListIssues() error: %v", err)
	}
	if issues == nil || len(issues) != 0 {
		t.Errorf("issues = %#v, want empty non-nil slice", issues)
	}
}

func TestListIssuesForwardsConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		cfg        a2a.Configuration
		wantState  string
		wantLabels string
	}{
		{"nil configuration", nil, "open", ""},
		{"state", a2a.Configuration{"state": "closed"}, "closed", ""},
		{"labels string", a2a.Configuration{"labels": "bug,help wanted"}, "open", "bug,help wanted"},
		{"labels list", a2a.Configuration{"state": "all", "labels": []any{"bug", " ui ", 3}}, "all", "bug,ui"},
		{"unknown keys ignored", a2a.Configuration{"limit": 3}, "open", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var state, labels string
			var hasLabels bool
			c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				state = q.Get("state")
				labels = q.Get("labels")
				hasLabels = q.Has("labels")
				_, _ = w.Write([]byte(`[]`))
			})

			if _, err := c.ListIssues(context.Background(), IssueQuery{Owner: "o", Repo: "r", Configuration: tt.cfg}); err != nil {
				t.Fatalf("ListIssues() error: %v", err)
			}
			if state != tt.wantState {
				t.Errorf("state = %q, want %q", state, tt.wantState)
			}
			if labels != tt.wantLabels {
				t.Errorf("labels = %q, want %q", labels, tt.wantLabels)
			}
			if tt.wantLabels == "" && hasLabels {
				t.Error("labels parameter should be omitted")
			}
		})
	}
}

func TestListIssuesSince(t *testing.T) {
	var since string
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		since = r.URL.Query().Get("since")
		_, _ = w.Write([]byte(`[]`))
	})

	cfg := a2a.Configuration{"since": "2024-01-02T03:04:05Z"}
	if _, err := c.ListIssues(context.Background(), IssueQuery{Owner: "o", Repo: "r", Configuration: cfg}); err != nil {
		t.Fatalf("ListIssues() error: %v", err)
	}
	if since != "2024-01-02T03:04:05Z" {
		t.Errorf("since = %q", since)
	}

	cfg = a2a.Configuration{"since": "1w"}
	if _, err := c.ListIssues(context.Background(), IssueQuery{Owner: "o", Repo: "r", Configuration: cfg}); err != nil {
		t.Fatalf("ListIssues() error: %v", err)
	}
	got, err := time.Parse(time.RFC3339, since)
	if err != nil {
		t.Fatalf("since %q is not RFC 3339: %v", since, err)
	}
	if age := time.Since(got); age < 7*24*time.Hour-time.Minute || age > 7*24*time.Hour+time.Minute {
		t.Errorf("since age = %v, want about a week", age)
	}

	cfg = a2a.Configuration{"since": "whenever"}
	if _, err := c.ListIssues(context.Background(), IssueQuery{Owner: "o", Repo: "r", Configuration: cfg}); err == nil {
		t.Error("expected error for invalid since")
	}
}

func TestAuthorizationHeader(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"with token", "s3cret", "Bearer s3cret"},
		{"without token", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			c := newTestClient(t, tt.token, func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				_, _ = w.Write([]byte(`[]`))
			})

			if _, err := c.ListIssues(context.Background(), IssueQuery{Owner: "o", Repo: "r"}); err != nil {
				t.Fatalf("ListIssues() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Authorization = %q, want %q", got, tt.want)
			}
			if c.Authenticated() != (tt.token != "") {
				t.Errorf("Authenticated() = %v", c.Authenticated())
			}
		})
	}
}

func TestListIssuesErrors(t *testing.T) {
	future := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)

	tests := []struct {
		name    string
		status  int
		headers map[string]string
		body    string
		want    error
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"message":"Not Found"}`,
			want:   ErrNotFound,
		},
		{
			name:   "bad credentials",
			status: http.StatusUnauthorized,
			body:   `{"message":"Bad credentials"}`,
			want:   ErrUnauthorized,
		},
		{
			name:   "too many requests",
			status: http.StatusTooManyRequests,
			body:   `{"message":"slow down"}`,
			want:   ErrRateLimited,
		},
		{
			name:   "exhausted quota",
			status: http.StatusForbidden,
			headers: map[string]string{
				"X-RateLimit-Limit":     "60",
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Reset":     future,
			},
			body: `{"message":"API rate limit exceeded for 127.0.0.1."}`,
			want: ErrRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.ListIssues(context.Background(), IssueQuery{Owner: "o", Repo: "r"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestListIssuesServerError(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.ListIssues(context.Background(), IssueQuery{Owner: "o", Repo: "r"})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, sentinel := range []error{ErrNotFound, ErrUnauthorized, ErrRateLimited} {
		if errors.Is(err, sentinel) {
			t.Errorf("5xx should not classify as %v", sentinel)
		}
	}
}

func TestListIssuesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := NewClient(config.GitHubConfig{BaseURL: base, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if _, err := c.ListIssues(context.Background(), IssueQuery{Owner: "o", Repo: "r"}); err == nil {
		t.Fatal("expected error from closed server")
	}
}

func TestListIssuesHonorsContext(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListIssues(ctx, IssueQuery{Owner: "o", Repo: "r"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestExhaustedQuotaDoesNotBlockLaterRequests(t *testing.T) {
	calls := 0
	reset := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", reset)
		_, _ = w.Write([]byte(`[]`))
	})

	for i := 0; i < 2; i++ {
		if _, err := c.ListIssues(context.Background(), IssueQuery{Owner: "o", Repo: "r"}); err != nil {
			t.Fatalf("ListIssues() call %d error: %v", i+1, err)
		}
	}
	if calls != 2 {
		t.Errorf("upstream calls = %d, want 2", calls)
	}
}

func TestNewClientBaseURL(t *testing.T) {
	c, err := NewClient(config.GitHubConfig{BaseURL: "https://ghe.example.com/api/v3"})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if got := c.api().BaseURL.String(); got != "https://ghe.example.com/api/v3/" {
		t.Errorf("BaseURL = %q, want trailing slash added", got)
	}
	if c.defaultState != "open" {
		t.Errorf("defaultState = %q, want open", c.defaultState)
	}

	if _, err := NewClient(config.GitHubConfig{BaseURL: "://bad"}); err == nil {
		t.Error("expected error for unparsable base URL")
	}
}

func TestParseRateLimitHeaders(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining != -1 || limit != -1 || !resetAt.IsZero() {
		t.Errorf("missing headers = %d, %d, %v; want -1, -1, zero", remaining, limit, resetAt)
	}

	resp.Header.Set("X-RateLimit-Remaining", "42")
	resp.Header.Set("X-RateLimit-Limit", "5000")
	resp.Header.Set("X-RateLimit-Reset", "1700000000")
	remaining, limit, resetAt = parseRateLimitHeaders(resp)
	if remaining != 42 || limit != 5000 || resetAt.Unix() != 1700000000 {
		t.Errorf("parsed = %d, %d, %v", remaining, limit, resetAt)
	}
}
