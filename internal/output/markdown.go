package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spiffcs/ghissues-agent/internal/format"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	now func() time.Time
}

// Format outputs the listing as a Markdown report
func (f *MarkdownFormatter) Format(l Listing, w io.Writer) error {
	now := time.Now
	if f.now != nil {
		now = f.now
	}
	issues, _ := l.Issues()

	fmt.Fprintf(w, "# Issues in %s/%s\n", l.Owner, l.Repo)
	fmt.Fprintf(w, "\n*Generated: %s*\n\n", now().Format("2006-01-02 15:04"))

	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}

	for _, is := range issues {
		title := escapeMarkdown(format.SingleLine(is.Title))
		if is.HTMLURL != "" {
			title = fmt.Sprintf("[%s](%s)", title, is.HTMLURL)
		}
		kind := ""
		if is.IsPR() {
			kind = " (PR)"
		}
		fmt.Fprintf(w, "- **#%d**%s %s\n", is.Number, kind, title)

		var meta []string
		if is.User.Login != "" {
			meta = append(meta, "@"+is.User.Login)
		}
		meta = append(meta, fmt.Sprintf("%d comments", is.Comments))
		if len(is.Labels) > 0 {
			names := make([]string, len(is.Labels))
			for i, lb := range is.Labels {
				names[i] = "`" + lb.Name + "`"
			}
			meta = append(meta, strings.Join(names, " "))
		}
		fmt.Fprintf(w, "  - %s\n", strings.Join(meta, " · "))
	}
	return nil
}

var markdownEscaper = strings.NewReplacer("[", `\[`, "]", `\]`, "*", `\*`, "_", `\_`, "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
