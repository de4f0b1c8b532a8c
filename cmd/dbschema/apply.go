package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/dbschema/internal/output"
)

func (c *cli) newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <dsn> <script.sql>",
		Short: "Execute a DDL script against a database",
		Long: `Apply runs a script, typically one written by "dbschema export", on the
target database. Use "-" to read the script from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			script, err := output.Read(output.AppFs, args[1], c.stdin)
			if err != nil {
				return err
			}

			conn, _, err := c.connect(ctx, args[:1])
			if err != nil {
				return err
			}
			defer conn.Close()

			res, err := conn.Exec(ctx, string(script))
			if err != nil {
				return err
			}
			c.log.Info("script applied", "database", conn.DatabaseName(), "duration", res.Duration)

			msg := fmt.Sprintf("applied %s to %s in %s", args[1], conn.DatabaseName(), res.Duration.Round(time.Millisecond))
			if res.Message != "" {
				msg += " (" + res.Message + ")"
			}
			fmt.Fprintln(c.stdout, c.theme.SuccessText.Render(msg))
			return nil
		},
	}
	c.conn.register(cmd)
	return cmd
}
