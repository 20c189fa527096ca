package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spiffcs/ghissues-agent/internal/a2a"
	"github.com/spiffcs/ghissues-agent/internal/extract"
)

// NewCmdExtract creates the extract command.
func NewCmdExtract() *cobra.Command {
	var fromJSON bool

	cmd := &cobra.Command{
		Use:   "extract [text...]",
		Short: "Show which repository a message refers to",
		Long: `Run repository extraction without calling GitHub.

The arguments are treated as a single text part. With --json, a message
object ({"role":"user","parts":[...]}) is read from stdin instead.`,
		Example: `  ghissues-agent extract "show closed issues in golang/go"
  echo '{"role":"user","parts":[{"kind":"data","data":{"owner":"a","repo":"b"}}]}' | ghissues-agent extract --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := extractInput(cmd.InOrStdin(), args, fromJSON)
			if err != nil {
				return err
			}
			return runExtract(cmd.OutOrStdout(), msg)
		},
	}

	cmd.Flags().BoolVar(&fromJSON, "json", false, "Read a message object from stdin")

	return cmd
}

func extractInput(stdin io.Reader, args []string, fromJSON bool) (a2a.Message, error) {
	if fromJSON {
		var msg a2a.Message
		if err := json.NewDecoder(stdin).Decode(&msg); err != nil {
			return a2a.Message{}, fmt.Errorf("failed to decode message: %w", err)
		}
		return msg, nil
	}
	if len(args) == 0 {
		return a2a.Message{}, fmt.Errorf("provide text to extract from, or use --json")
	}
	return textMessage(strings.Join(args, " ")), nil
}

func runExtract(w io.Writer, msg a2a.Message) error {
	id, strategy, ok := extract.Match(msg, extract.DefaultStrategies...)
	if !ok {
		return fmt.Errorf("no repository found; include it in the form owner/repo")
	}
	fmt.Fprintf(w, "%s %s\n", color.GreenString(id.String()), color.HiBlackString("(%s)", strategy))
	return nil
}

func textMessage(text string) a2a.Message {
	return a2a.Message{
		Kind:  "message",
		Role:  a2a.RoleUser,
		Parts: a2a.Parts{a2a.TextPart{Text: text}},
	}
}
