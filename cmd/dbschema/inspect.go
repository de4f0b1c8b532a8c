package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/dbschema/internal/export"
	"github.com/sadopc/dbschema/internal/introspect"
	"github.com/sadopc/dbschema/internal/output"
)

func (c *cli) newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Validate and summarize an exported JSON or YAML schema document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := output.Read(output.AppFs, args[0], c.stdin)
			if err != nil {
				return err
			}
			doc, err := decodeDocument(args[0], data)
			if err != nil {
				return err
			}

			th := c.theme
			fmt.Fprintf(c.stdout, "%s %s\n", th.StatusKey.Render("version:"), th.StatusValue.Render(doc.Version))
			fmt.Fprintf(c.stdout, "%s %s\n", th.StatusKey.Render("generated:"), th.StatusValue.Render(doc.Generated))

			rows := make([]introspect.Summary, 0, len(doc.Tables))
			for _, t := range doc.Tables {
				rows = append(rows, introspect.Summary{
					Name:        t.Name,
					Columns:     len(t.Columns),
					Indexes:     len(t.Indexes),
					ForeignKeys: len(t.ForeignKeys),
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(c.stdout, th.MutedText.Render("no tables"))
				return nil
			}
			fmt.Fprintln(c.stdout, summaryTable(rows, th))
			return nil
		},
	}
}

// decodeDocument parses a JSON or, by file extension, YAML schema document.
func decodeDocument(path string, data []byte) (*export.Document, error) {
	if output.ExtensionFormat(path) != formatYAML {
		return export.DecodeDocument(data)
	}

	var doc export.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode schema document: %w", err)
	}
	if err := export.CheckVersion(doc.Version); err != nil {
		return nil, err
	}
	return &doc, nil
}
