package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/spiffcs/ghissues-agent/internal/format"
)

// hotTopicComments marks discussions busy enough to flag in the table.
const hotTopicComments = 10

// TableFormatter formats output as a terminal table
type TableFormatter struct {
	now func() time.Time
	// Links forces OSC 8 hyperlinks on or off. Nil detects a terminal on stdout.
	Links *bool
}

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func (f *TableFormatter) hyperlink(text, url string) string {
	if url == "" || !f.linksEnabled() {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

func (f *TableFormatter) linksEnabled() bool {
	if f.Links != nil {
		return *f.Links
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Format outputs the listing as a table
func (f *TableFormatter) Format(l Listing, w io.Writer) error {
	issues, skipped := l.Issues()
	repo := l.Owner + "/" + l.Repo

	if len(issues) == 0 {
		fmt.Fprintf(w, "No %s issues found in %s.\n", stateLabel(l.State), repo)
		return nil
	}

	// Column widths
	const (
		colNumber   = 7
		colType     = 5
		colTitle    = 50
		colAuthor   = 16
		colComments = 8
		colAge      = 4
	)

	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %-*s  %s\n",
		colNumber, "Number",
		colType, "Type",
		colTitle, "Title",
		colAuthor, "Author",
		colComments, "Comments",
		"Age")
	fmt.Fprintln(w, strings.Repeat("-", colNumber+colType+colTitle+colAuthor+colComments+colAge+10))

	now := time.Now
	if f.now != nil {
		now = f.now
	}

	var hot int
	for _, is := range issues {
		typeStr := "ISS"
		if is.IsPR() {
			typeStr = "PR"
		}

		title := format.SingleLine(is.Title)
		if is.Comments > hotTopicComments {
			title = "🔥 " + title
			hot++
		}
		if is.State == "closed" {
			title = format.Truncate(title, colTitle-len(" [closed]")) + color.RedString(" [closed]")
		} else {
			title = format.Truncate(title, colTitle)
		}
		title = format.PadRight(f.hyperlink(title, is.HTMLURL), colTitle)

		number := format.PadRight(color.GreenString("#%d", is.Number), colNumber)
		if is.State == "closed" {
			number = format.PadRight(color.RedString("#%d", is.Number), colNumber)
		}

		age := "-"
		if !is.CreatedAt.IsZero() {
			age = format.FormatAge(now().Sub(is.CreatedAt))
		}

		fmt.Fprintf(w, "%s  %-*s  %s  %s  %-*d  %s\n",
			number,
			colType, typeStr,
			title,
			format.PadRight(format.Truncate(is.User.Login, colAuthor), colAuthor),
			colComments, is.Comments,
			age,
		)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d issues in %s\n", color.CyanString("●"), len(issues), repo)
	if hot > 0 {
		fmt.Fprintf(w, "  🔥 %d hot discussions\n", hot)
	}
	if skipped > 0 {
		fmt.Fprintf(w, "  %s %d entries could not be decoded\n", color.YellowString("!"), skipped)
	}
	return nil
}

func stateLabel(state string) string {
	if state == "" || state == "all" {
		return "matching"
	}
	return state
}
