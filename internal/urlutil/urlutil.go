// Package urlutil provides URL parsing utilities.
package urlutil

import (
	"net/url"
	"strings"
)

// RepoPath extracts owner and repo from a repository web URL such as
// https://github.com/owner/repo/issues/1. Scheme-less github.com links are
// accepted. A trailing ".git" on the repo segment is dropped.
func RepoPath(raw string) (owner, repo string, ok bool) {
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
	case strings.HasPrefix(lower, "github.com/"), strings.HasPrefix(lower, "www.github.com/"):
		raw = "https://" + raw
	default:
		return "", "", false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), true
}
