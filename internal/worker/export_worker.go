package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"yeargrid/internal/amqp"
	"yeargrid/internal/cache"
	"yeargrid/internal/core"
	"yeargrid/internal/sheets"
)

const (
	seenCacheSize = 1000
	seenTTL       = time.Hour
)

// ExportWorker writes submitted grids to a sheet exporter.
type ExportWorker struct {
	exporter sheets.GridExporter
	calc     core.Calculator
	validate core.Validator
	// refs of recently exported submissions, so broker redeliveries do not
	// append the same grid twice
	seen *cache.LRUCache[string]
}

func NewExportWorker(exporter sheets.GridExporter, zero core.ZeroPolicy) *ExportWorker {
	return &ExportWorker{
		exporter: exporter,
		calc:     core.Calculator{Zero: zero},
		validate: core.Validator{Zero: zero},
		seen:     cache.NewLRUCache[string](seenCacheSize, seenTTL),
	}
}

// Cache exposes the redelivery cache so it can be registered for cleanup.
func (w *ExportWorker) Cache() *cache.LRUCache[string] {
	return w.seen
}

// HandleGridSubmitted processes a single grid submitted message from AMQP.
// Messages whose grid does not pass validation are logged and dropped.
func (w *ExportWorker) HandleGridSubmitted(ctx context.Context, msg *amqp.GridSubmittedMessage) error {
	key := fmt.Sprintf("%s@%d", msg.SessionID, msg.SubmittedAt.UnixNano())
	if ref, ok := w.seen.Get(key); ok {
		slog.InfoContext(ctx, "Grid already exported, skipping",
			"session_id", msg.SessionID,
			"sheets_ref", ref)
		return nil
	}

	g := msg.Grid()
	if len(g.Tables) == 0 {
		slog.WarnContext(ctx, "Dropping grid message without tables", "session_id", msg.SessionID)
		return nil
	}
	if vs := w.validate.Validate(g.Submission()); len(vs) > 0 {
		slog.WarnContext(ctx, "Dropping invalid grid message",
			"session_id", msg.SessionID,
			"violations", len(vs),
			"error", vs.Err())
		return nil
	}
	// totals are recomputed rather than taken from the wire
	g.Compute(w.calc)

	ref, err := w.exporter.ExportGrid(ctx, msg.SessionID, msg.SubmittedAt, g)
	if err != nil {
		return fmt.Errorf("export grid: %w", err)
	}
	w.seen.Set(key, ref)

	slog.InfoContext(ctx, "Successfully exported grid",
		"session_id", msg.SessionID,
		"tables", len(g.Tables),
		"sheets_ref", ref)
	return nil
}
