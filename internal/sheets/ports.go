package sheets

import (
	"context"
	"time"

	"yeargrid/internal/core"
)

// Ports for outbound adapters.
type (
	// GridExporter writes an accepted, computed grid to an external sheet.
	GridExporter interface {
		// ExportGrid returns a reference to where the grid was written.
		ExportGrid(ctx context.Context, sessionID string, submittedAt time.Time, g core.Grid) (ref string, err error)
	}
)
