package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yeargrid/internal/core"
	ports "yeargrid/internal/sheets"
)

// Export is one grid written through the exporter.
type Export struct {
	Ref         string
	SessionID   string
	SubmittedAt time.Time
	Grid        core.Grid
}

// Store keeps exported grids in memory. It backs local runs and tests.
type Store struct {
	mu    sync.Mutex
	items []Export
}

var _ ports.GridExporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// ExportGrid stores the grid and returns a synthetic reference.
func (s *Store) ExportGrid(_ context.Context, sessionID string, submittedAt time.Time, g core.Grid) (string, error) {
	if len(g.Tables) == 0 {
		return "", fmt.Errorf("export grid: %w: no tables", core.ErrInvalidConfiguration)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := fmt.Sprintf("mem:%d", len(s.items)+1)
	s.items = append(s.items, Export{
		Ref:         ref,
		SessionID:   sessionID,
		SubmittedAt: submittedAt,
		Grid:        g,
	})
	return ref, nil
}

// Exports returns a copy of everything exported so far.
func (s *Store) Exports() []Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Export(nil), s.items...)
}
