// Package server exposes schema exports over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sadopc/dbschema/internal/adapter"
	"github.com/sadopc/dbschema/internal/audit"
	"github.com/sadopc/dbschema/internal/export"
	"github.com/sadopc/dbschema/internal/introspect"
	"github.com/sadopc/dbschema/internal/logging"
)

// ChecksumHeader carries the xxh3 checksum of an export body.
const ChecksumHeader = "X-Schema-Checksum"

// shutdownTimeout bounds how long Run waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Config configures a Server.
type Config struct {
	Addr        string
	CORSOrigins []string

	// Database and Schema select what is introspected. Empty values use the
	// connection's defaults.
	Database string
	Schema   string

	// Indexes is the default for the "indexes" query parameter.
	Indexes bool

	// DSN is recorded, sanitized, in audit entries.
	DSN    string
	Audit  *audit.Logger
	Logger *slog.Logger
}

// Server serves schema exports of a single database connection.
type Server struct {
	conn   adapter.Connection
	cfg    Config
	log    *slog.Logger
	router *gin.Engine
}

// New builds a Server over conn. The connection is shared by all requests;
// each request gets its own reader and exporter.
func New(conn adapter.Connection, cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		conn: conn,
		cfg:  cfg,
		log:  log,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler, for use with httptest.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	if len(s.cfg.CORSOrigins) > 0 {
		router.Use(cors.New(corsConfig(s.cfg.CORSOrigins)))
	}

	router.GET("/healthz", s.health)

	api := router.Group("/api/v1")
	{
		api.GET("/tables", s.listTables)
		api.GET("/export/:format", s.exportSchema)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Accept"},
		ExposeHeaders: []string{ChecksumHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.cfg.Addr, "adapter", s.conn.AdapterName())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) reader() *introspect.Reader {
	return introspect.New(s.conn, s.cfg.Database, s.cfg.Schema)
}

// health handles GET /healthz
func (s *Server) health(c *gin.Context) {
	if err := s.conn.Ping(c.Request.Context()); err != nil {
		fail(c, http.StatusServiceUnavailable, err, "database unreachable")
		return
	}
	success(c, gin.H{
		"adapter":  s.conn.AdapterName(),
		"database": s.conn.DatabaseName(),
	}, "ok")
}

// listTables handles GET /api/v1/tables. With ?detail=true each table is
// summarized with its column, index and foreign key counts.
func (s *Server) listTables(c *gin.Context) {
	ctx := c.Request.Context()
	r := s.reader()

	names, err := r.Tables(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, err, "failed to list tables")
		return
	}

	if !queryBool(c, "detail", false) {
		success(c, gin.H{"tables": names}, "")
		return
	}

	summaries, err := r.Summarize(ctx, names)
	if err != nil {
		fail(c, http.StatusInternalServerError, err, "failed to summarize tables")
		return
	}
	success(c, gin.H{"tables": summaries}, "")
}

// exportSchema handles GET /api/v1/export/{sql,json,yaml}?tables=a,b.
// Without a tables parameter every base table is exported.
func (s *Server) exportSchema(c *gin.Context) {
	ctx := c.Request.Context()
	format := c.Param("format")

	var contentType string
	switch format {
	case "sql":
		contentType = "application/sql; charset=utf-8"
	case "json":
		contentType = "application/json; charset=utf-8"
	case "yaml":
		contentType = "application/yaml; charset=utf-8"
	default:
		fail(c, http.StatusNotFound, nil, fmt.Sprintf("unknown export format %q", format))
		return
	}

	r := s.reader()
	tables := splitTables(c.Query("tables"))
	if len(tables) == 0 {
		var err error
		if tables, err = r.Tables(ctx); err != nil {
			fail(c, http.StatusInternalServerError, err, "failed to list tables")
			return
		}
	}

	exp := export.New(r, export.WithIndexes(queryBool(c, "indexes", s.cfg.Indexes)))
	entry := audit.NewEntry(format, r.DriverName(), r.Database(), s.cfg.DSN, tables)

	var (
		body string
		err  error
	)
	switch format {
	case "sql":
		body, err = exp.ToSQL(ctx, tables)
	case "json":
		body, err = exp.ToJSON(ctx, tables, queryBool(c, "pretty", false))
	case "yaml":
		body, err = exp.ToYAML(ctx, tables)
	}

	entry.Finish(body, err)
	s.cfg.Audit.Log(entry)

	if err != nil {
		s.log.Warn("export failed", "format", format, "tables", len(tables), "error", err)
		fail(c, statusFor(err), err, "export failed")
		return
	}

	s.log.Debug("export served", "format", format, "tables", len(tables), "bytes", len(body))
	c.Header(ChecksumHeader, entry.Checksum)
	c.Data(http.StatusOK, contentType, []byte(body))
}

// splitTables parses a comma separated table list, dropping blanks.
func splitTables(raw string) []string {
	var out []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func queryBool(c *gin.Context, key string, def bool) bool {
	raw, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
