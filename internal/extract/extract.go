// Package extract finds the repository a message is asking about.
//
// Extraction is an ordered pipeline of strategies. Each strategy inspects
// the message on its own and either yields a RepoIdentifier or passes; the
// first strategy to yield wins:
//
//  1. FromSlug: an owner/repo substring (or a repository URL) in the first text part.
//  2. FromData: owner and repo entries of the first data part that has both.
//  3. FromTrailingTokens: the last two whitespace separated tokens of all text.
//
// The last strategy is a best-effort guess and happily produces identifiers
// such as "issues/invalid-repo-format"; the upstream API decides whether
// the repository exists.
package extract

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spiffcs/ghissues-agent/internal/a2a"
	"github.com/spiffcs/ghissues-agent/internal/urlutil"
)

// RepoIdentifier is a normalized owner/repo pair.
type RepoIdentifier struct {
	Owner string
	Repo  string
}

// NewRepoIdentifier validates owner and repo. Both must be non-empty and
// contain neither whitespace nor a slash.
func NewRepoIdentifier(owner, repo string) (RepoIdentifier, bool) {
	if !validSegment(owner) || !validSegment(repo) {
		return RepoIdentifier{}, false
	}
	return RepoIdentifier{Owner: owner, Repo: repo}, true
}

// ParseRepoIdentifier parses an "owner/repo" string.
func ParseRepoIdentifier(s string) (RepoIdentifier, error) {
	owner, repo, ok := strings.Cut(s, "/")
	if !ok {
		return RepoIdentifier{}, fmt.Errorf("invalid repository %q: expected owner/repo", s)
	}
	id, ok := NewRepoIdentifier(owner, repo)
	if !ok {
		return RepoIdentifier{}, fmt.Errorf("invalid repository %q: expected owner/repo", s)
	}
	return id, nil
}

// String returns the identifier in owner/repo form.
func (id RepoIdentifier) String() string {
	return id.Owner + "/" + id.Repo
}

func validSegment(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsFunc(s, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
}

// Strategy is a single extraction step.
type Strategy func(msg a2a.Message) (RepoIdentifier, bool)

// NamedStrategy pairs a Strategy with a short name for display.
type NamedStrategy struct {
	Name string
	Run  Strategy
}

// DefaultStrategies is the extraction order used by Repository.
var DefaultStrategies = []NamedStrategy{
	{Name: "slug", Run: FromSlug},
	{Name: "data", Run: FromData},
	{Name: "trailing tokens", Run: FromTrailingTokens},
}

// Repository runs DefaultStrategies against msg.
func Repository(msg a2a.Message) (RepoIdentifier, bool) {
	id, _, ok := Match(msg, DefaultStrategies...)
	return id, ok
}

// Match tries each strategy in order and returns the first identifier found
// together with the name of the strategy that produced it.
func Match(msg a2a.Message, strategies ...NamedStrategy) (RepoIdentifier, string, bool) {
	for _, s := range strategies {
		if id, ok := s.Run(msg); ok {
			return id, s.Name, true
		}
	}
	return RepoIdentifier{}, "", false
}

// FromSlug looks for an owner/repo slug in the first text part. Within each
// whitespace delimited field the first two adjacent non-empty path segments
// form the candidate, so "owner/repo." and "(owner/repo)" match and
// "golang/go/issues" yields golang/go. A GitHub style URL contributes the
// first two segments of its path.
func FromSlug(msg a2a.Message) (RepoIdentifier, bool) {
	text, ok := firstText(msg)
	if !ok {
		return RepoIdentifier{}, false
	}

	for _, field := range strings.Fields(text) {
		if id, ok := fromURL(field); ok {
			return id, true
		}
		if id, ok := fromSlugField(field); ok {
			return id, true
		}
	}
	return RepoIdentifier{}, false
}

// fromSlugField returns the first segment pair of field that survives
// punctuation trimming. Each segment starts at the field edge or right
// after a slash.
func fromSlugField(field string) (RepoIdentifier, bool) {
	segments := strings.Split(field, "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "" || segments[i+1] == "" {
			continue
		}
		slug := trimPunct(segments[i] + "/" + segments[i+1])
		owner, repo, ok := strings.Cut(slug, "/")
		if !ok {
			continue
		}
		if id, ok := NewRepoIdentifier(owner, repo); ok {
			return id, true
		}
	}
	return RepoIdentifier{}, false
}

// fromURL handles fields like https://github.com/owner/repo/issues.
func fromURL(field string) (RepoIdentifier, bool) {
	field = strings.TrimFunc(field, isTrimmable)
	owner, repo, ok := urlutil.RepoPath(field)
	if !ok {
		return RepoIdentifier{}, false
	}
	return NewRepoIdentifier(owner, repo)
}

// FromData reads owner and repo from the first data part carrying both as
// non-empty strings.
func FromData(msg a2a.Message) (RepoIdentifier, bool) {
	for _, p := range msg.Parts {
		switch p := p.(type) {
		case a2a.DataPart:
			owner, _ := p.Data["owner"].(string)
			repo, _ := p.Data["repo"].(string)
			owner, repo = strings.TrimSpace(owner), strings.TrimSpace(repo)
			if owner == "" || repo == "" {
				continue
			}
			if id, ok := NewRepoIdentifier(owner, repo); ok {
				return id, true
			}
		case a2a.TextPart:
		}
	}
	return RepoIdentifier{}, false
}

// FromTrailingTokens joins the last two whitespace separated tokens of all
// text parts. It fails when fewer than two tokens exist or when the tokens
// cannot form a valid identifier.
func FromTrailingTokens(msg a2a.Message) (RepoIdentifier, bool) {
	var texts []string
	for _, p := range msg.Parts {
		switch p := p.(type) {
		case a2a.TextPart:
			texts = append(texts, p.Text)
		case a2a.DataPart:
		}
	}

	tokens := strings.Fields(strings.Join(texts, " "))
	if len(tokens) < 2 {
		return RepoIdentifier{}, false
	}
	return NewRepoIdentifier(tokens[len(tokens)-2], tokens[len(tokens)-1])
}

func firstText(msg a2a.Message) (string, bool) {
	for _, p := range msg.Parts {
		switch p := p.(type) {
		case a2a.TextPart:
			return p.Text, true
		case a2a.DataPart:
		}
	}
	return "", false
}

// trimPunct strips leading and trailing punctuation and symbols.
func trimPunct(s string) string {
	return strings.TrimFunc(s, isTrimmable)
}

func isTrimmable(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
