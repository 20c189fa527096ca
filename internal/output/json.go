package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// JSONOutput mirrors the issues_data artifact produced by the agent.
type JSONOutput struct {
	Owner  string            `json:"owner"`
	Repo   string            `json:"repo"`
	Count  int               `json:"count"`
	Issues []json.RawMessage `json:"issues"`
}

// Format outputs the listing as JSON, keeping upstream issue objects intact.
func (f *JSONFormatter) Format(l Listing, w io.Writer) error {
	issues := l.Raw
	if issues == nil {
		issues = []json.RawMessage{}
	}
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(JSONOutput{
		Owner:  l.Owner,
		Repo:   l.Repo,
		Count:  len(issues),
		Issues: issues,
	})
}
