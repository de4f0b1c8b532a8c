package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/sadopc/dbschema/internal/audit"
	"github.com/sadopc/dbschema/internal/server"
)

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [dsn]",
		Short: "Serve schema exports over HTTP",
		Long: `Serve exposes the schema of one database over HTTP:

  GET /healthz
  GET /api/v1/tables[?detail=true]
  GET /api/v1/export/sql?tables=a,b[&indexes=false]
  GET /api/v1/export/json?tables=a,b[&pretty=true]
  GET /api/v1/export/yaml?tables=a,b`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			conn, t, err := c.connect(ctx, args)
			if err != nil {
				return err
			}
			defer conn.Close()

			var auditLog *audit.Logger
			if c.cfg.Audit.Enabled {
				if path, err := c.cfg.AuditPath(); err == nil {
					if auditLog, err = audit.New(path, c.cfg.Audit.MaxSizeMB); err != nil {
						c.log.Warn("could not open audit log", "path", path, "error", err)
					}
				}
			}
			defer auditLog.Close()

			gin.SetMode(gin.ReleaseMode)
			srv := server.New(conn, server.Config{
				Addr:        c.v.GetString("server.addr"),
				CORSOrigins: c.cfg.Server.CORSOrigins,
				Schema:      c.conn.schema,
				Indexes:     c.cfg.Export.Indexes,
				DSN:         t.dsn,
				Audit:       auditLog,
				Logger:      c.log,
			})
			return srv.Run(ctx)
		},
	}
	c.conn.register(cmd)
	cmd.Flags().String("addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	_ = c.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
