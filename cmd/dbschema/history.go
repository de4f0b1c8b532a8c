package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/dbschema/internal/history"
	"github.com/sadopc/dbschema/internal/theme"
)

func (c *cli) newHistoryCmd() *cobra.Command {
	var (
		search   string
		limit    int
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.cfg.HistoryPath()
			if err != nil {
				return err
			}
			hist, err := history.Open(path)
			if err != nil {
				return err
			}
			defer hist.Close()

			if clearAll {
				if err := hist.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(c.stdout, c.theme.SuccessText.Render("history cleared"))
				return nil
			}

			var entries []history.Entry
			if search != "" {
				entries, err = hist.Search("%"+search+"%", limit)
			} else {
				entries, err = hist.Recent(limit)
			}
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintln(c.stdout, c.theme.MutedText.Render("No history entries"))
				return nil
			}
			fmt.Fprintln(c.stdout, historyTable(entries, c.theme, time.Now()))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&search, "search", "s", "", "Only show exports whose tables, database or source contain this text")
	fl.IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")
	fl.BoolVar(&clearAll, "clear", false, "Delete all history entries")
	return cmd
}

func historyTable(entries []history.Entry, th *theme.Theme, now time.Time) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(th.TableBorder).
		Headers("WHEN", "FORMAT", "ADAPTER", "DATABASE", "TABLES", "RESULT").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return th.TableHeader
			}
			if col == 5 && row < len(entries) && entries[row].Failed() {
				return th.TableCell.Inherit(th.ErrorText)
			}
			return th.TableCell
		})

	for _, e := range entries {
		t.Row(
			relativeTime(now, e.ExportedAt),
			e.Format,
			e.Adapter,
			e.DatabaseName,
			truncate(strings.Join(e.Tables, ", "), 40),
			resultText(e),
		)
	}
	return t.Render()
}

func resultText(e history.Entry) string {
	if e.Failed() {
		return truncate(e.Error, 50)
	}
	return fmt.Sprintf("%s, %s", formatBytes(e.Bytes), formatDuration(e.DurationMS))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatBytes(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%dB", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1fKB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1fMB", float64(n)/(1024*1024))
	}
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

// relativeTime formats t as a human-readable offset from now.
func relativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
