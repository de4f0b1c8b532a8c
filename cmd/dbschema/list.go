package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/dbschema/internal/introspect"
	"github.com/sadopc/dbschema/internal/theme"
)

func (c *cli) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [dsn]",
		Short: "List tables with their column, index and foreign key counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, _, err := c.connect(ctx, args)
			if err != nil {
				return err
			}
			defer conn.Close()

			reader := introspect.New(conn, "", c.conn.schema)
			names, err := reader.Tables(ctx)
			if err != nil {
				return err
			}
			summaries, err := reader.Summarize(ctx, names)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.stdout, c.theme.Title.Render(fmt.Sprintf("%s.%s", reader.Database(), reader.Schema())))
			if len(summaries) == 0 {
				fmt.Fprintln(c.stdout, c.theme.MutedText.Render("no tables"))
				return nil
			}
			fmt.Fprintln(c.stdout, summaryTable(summaries, c.theme))
			fmt.Fprintln(c.stdout, c.theme.MutedText.Render(fmt.Sprintf("%d tables", len(summaries))))
			return nil
		},
	}
	c.conn.register(cmd)
	return cmd
}

// summaryTable renders one row per table.
func summaryTable(rows []introspect.Summary, th *theme.Theme) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(th.TableBorder).
		Headers("TABLE", "COLUMNS", "INDEXES", "FOREIGN KEYS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return th.TableHeader
			}
			if col > 0 {
				return th.TableCell.Align(lipgloss.Right)
			}
			return th.TableCell
		})

	for _, s := range rows {
		t.Row(s.Name, strconv.Itoa(s.Columns), strconv.Itoa(s.Indexes), strconv.Itoa(s.ForeignKeys))
	}
	return t.Render()
}
