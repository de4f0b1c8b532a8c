package main

import (
	"github.com/sadopc/dbschema/internal/audit"
	"github.com/sadopc/dbschema/internal/history"
)

// recorder writes finished exports to the audit log and the history
// database. Either sink may be disabled or fail to open; exports still run.
type recorder struct {
	audit *audit.Logger
	hist  *history.History
}

func (c *cli) openRecorder() *recorder {
	r := &recorder{}

	if c.cfg.Audit.Enabled {
		if path, err := c.cfg.AuditPath(); err == nil {
			r.audit, err = audit.New(path, c.cfg.Audit.MaxSizeMB)
			if err != nil {
				c.log.Warn("could not open audit log", "path", path, "error", err)
			}
		}
	}

	if c.cfg.History.Enabled {
		if path, err := c.cfg.HistoryPath(); err == nil {
			r.hist, err = history.Open(path)
			if err != nil {
				c.log.Warn("could not open history", "path", path, "error", err)
			}
		}
	}
	return r
}

func (r *recorder) record(e audit.Entry, output string) {
	r.audit.Log(e)
	if r.hist == nil {
		return
	}
	_ = r.hist.Add(history.Entry{
		RunID:        e.ID,
		Format:       e.Format,
		Adapter:      e.Adapter,
		DatabaseName: e.Database,
		Source:       e.DSN,
		Tables:       e.Tables,
		Output:       output,
		Bytes:        int64(e.Bytes),
		Checksum:     e.Checksum,
		ExportedAt:   e.Timestamp,
		DurationMS:   e.DurationMS,
		Error:        e.Error,
	})
}

func (r *recorder) Close() {
	_ = r.audit.Close()
	if r.hist != nil {
		_ = r.hist.Close()
	}
}
