// Package format provides text helpers for task summaries and terminal output.
package format

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "..."

// ansiRegex matches ANSI escape sequences
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripAnsi removes ANSI escape sequences from a string.
func StripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// DisplayWidth returns the visible width of a string in terminal columns,
// accounting for wide characters and stripping ANSI escape sequences.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(StripAnsi(s))
}

// SingleLine collapses all runs of whitespace, including newlines, into
// single spaces. Issue titles occasionally carry stray line breaks.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most maxWidth display columns, replacing the
// tail with "..." when anything was cut. ANSI sequences are preserved and
// a reset code is appended after a cut so colors do not bleed.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if DisplayWidth(s) <= maxWidth {
		return s
	}

	targetWidth := maxWidth - len(ellipsis)
	if targetWidth < 0 {
		return ellipsis[:maxWidth]
	}

	matches := ansiRegex.FindAllStringIndex(s, -1)
	hasAnsi := len(matches) > 0

	var b strings.Builder
	width, pos, matchIdx := 0, 0, 0
	for pos < len(s) {
		if matchIdx < len(matches) && pos == matches[matchIdx][0] {
			b.WriteString(s[matches[matchIdx][0]:matches[matchIdx][1]])
			pos = matches[matchIdx][1]
			matchIdx++
			continue
		}

		r, size := utf8.DecodeRuneInString(s[pos:])
		rw := runewidth.RuneWidth(r)
		if width+rw > targetWidth {
			break
		}
		b.WriteString(s[pos : pos+size])
		width += rw
		pos += size
	}

	b.WriteString(ellipsis)
	if hasAnsi {
		b.WriteString("\033[0m")
	}
	return b.String()
}

// PadRight pads a string with spaces to reach the target visible width.
func PadRight(s string, targetWidth int) string {
	w := DisplayWidth(s)
	if w >= targetWidth {
		return s
	}
	return s + strings.Repeat(" ", targetWidth-w)
}
