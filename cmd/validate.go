package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/consync/consync/internal/hierarchy"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [TARGET]",
		Short: "Validate the local Markdown tree without contacting Confluence",
		Long: `validate parses every Markdown file under TARGET, builds the page
hierarchy, and reports structural problems: orphaned documents, broken
internal links, and tree invariants a sync would otherwise fail on.

TARGET can be a SPACE_KEY (e.g. "MYSPACE") or a path to a .md file. If
omitted, the content root is the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) > 0 {
				raw = args[0]
			}
			return runValidate(cmd.OutOrStdout(), raw)
		},
	}
}

func runValidate(out io.Writer, raw string) error {
	rc, err := resolveRunContext(raw)
	if err != nil {
		return err
	}

	docCount := 0
	for _, n := range rc.tree.Nodes() {
		if n.Document != nil {
			docCount++
		}
	}
	fmt.Fprintf(out, "Parsed %d document(s) under %s\n", docCount, rc.contentRoot)

	hasErrors := false

	for _, orphan := range rc.result.Orphans {
		hasErrors = true
		fmt.Fprintf(out, "  - [orphan] %s has no resolvable parent directory index\n", orphan.PathString())
	}

	for _, verr := range hierarchy.Validate(rc.tree) {
		hasErrors = true
		fmt.Fprintf(out, "  - [structure] %s\n", verr)
	}

	for _, broken := range hierarchy.FindBrokenLinks(rc.tree) {
		hasErrors = true
		fmt.Fprintf(out, "  - [broken_link] %s references %q which does not resolve\n",
			broken.Source.PathString(), broken.Link.Href)
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	fmt.Fprintln(out, "Validation successful")
	return nil
}
