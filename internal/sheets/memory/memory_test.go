package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"yeargrid/internal/core"
)

func TestStoreExportGrid(t *testing.T) {
	s := New()
	g, err := core.Build(2, 3, 2024)
	if err != nil {
		t.Fatal(err)
	}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	ref, err := s.ExportGrid(context.Background(), "a", at, g)
	if err != nil {
		t.Fatalf("ExportGrid: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("ref = %q, want mem:1", ref)
	}
	ref, _ = s.ExportGrid(context.Background(), "b", at, g)
	if ref != "mem:2" {
		t.Fatalf("ref = %q, want mem:2", ref)
	}

	got := s.Exports()
	if len(got) != 2 {
		t.Fatalf("got %d exports, want 2", len(got))
	}
	if got[0].SessionID != "a" || !got[0].SubmittedAt.Equal(at) || len(got[0].Grid.Tables) != 2 {
		t.Errorf("unexpected export %+v", got[0])
	}

	got[0].SessionID = "changed"
	if s.Exports()[0].SessionID != "a" {
		t.Error("Exports must return a copy")
	}
}

func TestStoreRejectsEmptyGrid(t *testing.T) {
	_, err := New().ExportGrid(context.Background(), "a", time.Now(), core.Grid{})
	if !errors.Is(err, core.ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
}
