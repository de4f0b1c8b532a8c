package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/sadopc/dbschema/internal/audit"
	"github.com/sadopc/dbschema/internal/export"
	"github.com/sadopc/dbschema/internal/highlight"
	"github.com/sadopc/dbschema/internal/introspect"
	"github.com/sadopc/dbschema/internal/output"
	"github.com/sadopc/dbschema/internal/ui/picker"
)

// Export formats accepted by --format.
const (
	formatSQL  = "sql"
	formatJSON = "json"
	formatYAML = "yaml"
)

func (c *cli) newExportCmd() *cobra.Command {
	var (
		tables      []string
		interactive bool
		noIndexes   bool
	)

	cmd := &cobra.Command{
		Use:   "export [dsn]",
		Short: "Export table definitions as SQL DDL, JSON or YAML",
		Long: `Export reads the columns, indexes and foreign keys of the selected tables
and writes them as a CREATE TABLE script for the source dialect, or as a
versioned JSON/YAML schema document.

Tables are exported in the order given. Without --tables or --interactive
every base table is exported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			format := strings.ToLower(c.v.GetString("export.format"))
			outPath := c.v.GetString("export.output")
			if !cmd.Flags().Changed("format") {
				if ext := output.ExtensionFormat(outPath); ext != "" {
					format = ext
				}
			}
			switch format {
			case formatSQL, formatJSON, formatYAML:
			default:
				return fmt.Errorf("unknown format %q (want sql, json or yaml)", format)
			}

			conn, t, err := c.connect(ctx, args)
			if err != nil {
				return err
			}
			defer conn.Close()

			reader := introspect.New(conn, "", c.conn.schema)
			selected, err := c.selectTables(ctx, reader, tables, interactive)
			if err != nil {
				return err
			}

			indexes := c.v.GetBool("export.indexes") && !noIndexes
			exp := export.New(reader, export.WithIndexes(indexes))

			rec := c.openRecorder()
			defer rec.Close()

			entry := audit.NewEntry(format, reader.DriverName(), reader.Database(), t.dsn, selected)
			data, err := runExport(ctx, exp, format, selected, c.v.GetBool("export.pretty"))
			entry.Finish(data, err)
			rec.record(entry, outPath)
			if err != nil {
				return err
			}

			c.log.Info("export complete",
				"format", format,
				"tables", len(selected),
				"bytes", entry.Bytes,
				"checksum", entry.Checksum,
			)

			if output.IsStdout(outPath) && c.colorEnabled(c.v.GetString("export.color"), c.stdout) {
				lang := format
				if format == formatSQL {
					lang = reader.DriverName()
				}
				data = highlight.New(lang).Render(data, c.theme)
			}
			return output.Write(output.AppFs, outPath, data, c.stdout)
		},
	}

	c.conn.register(cmd)
	fl := cmd.Flags()
	fl.String("format", "", "Output format (sql, json, yaml)")
	fl.Bool("pretty", false, "Indent JSON output")
	fl.StringSliceVar(&tables, "tables", nil, "Comma separated tables to export, in order")
	fl.BoolVarP(&interactive, "interactive", "i", false, "Pick tables interactively")
	fl.StringP("output", "o", "", "Output file (default: stdout)")
	fl.BoolVar(&noIndexes, "no-indexes", false, "Omit secondary indexes from SQL output")
	fl.String("color", "", "Colorize stdout output (auto, always, never)")
	_ = c.v.BindPFlag("export.format", fl.Lookup("format"))
	_ = c.v.BindPFlag("export.pretty", fl.Lookup("pretty"))
	_ = c.v.BindPFlag("export.output", fl.Lookup("output"))
	_ = c.v.BindPFlag("export.color", fl.Lookup("color"))
	return cmd
}

// runExport renders tables in format.
func runExport(ctx context.Context, exp *export.Exporter, format string, tables []string, pretty bool) (string, error) {
	switch format {
	case formatJSON:
		return exp.ToJSON(ctx, tables, pretty)
	case formatYAML:
		return exp.ToYAML(ctx, tables)
	default:
		return exp.ToSQL(ctx, tables)
	}
}

// selectTables returns the tables to export: the --tables list, the
// interactive picker's choice, or every base table.
func (c *cli) selectTables(ctx context.Context, r *introspect.Reader, flagTables []string, interactive bool) ([]string, error) {
	var named []string
	for _, name := range flagTables {
		if name = strings.TrimSpace(name); name != "" {
			named = append(named, name)
		}
	}
	if len(named) > 0 && !interactive {
		return named, nil
	}

	all, err := r.Tables(ctx)
	if err != nil {
		return nil, err
	}
	if !interactive {
		return all, nil
	}
	if len(named) > 0 {
		all = named
	}

	chosen, err := picker.Run(all, c.theme, c.stdin, c.stderr)
	if errors.Is(err, picker.ErrCancelled) {
		return nil, errors.New("export cancelled")
	}
	if err != nil {
		return nil, err
	}
	if len(chosen) == 0 {
		return nil, errors.New("no tables selected")
	}
	return chosen, nil
}

// colorEnabled resolves --color against w. In auto mode color is used only
// when w is a terminal; always forces ANSI output even through pipes.
func (c *cli) colorEnabled(mode string, w io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		lipgloss.SetColorProfile(termenv.ANSI256)
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
