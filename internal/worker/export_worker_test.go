package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"yeargrid/internal/amqp"
	"yeargrid/internal/core"
	"yeargrid/internal/sheets/memory"
)

type failingExporter struct{ calls int }

func (f *failingExporter) ExportGrid(context.Context, string, time.Time, core.Grid) (string, error) {
	f.calls++
	return "", errors.New("sheets unavailable")
}

func message(t *testing.T, fill func(*core.Grid)) *amqp.GridSubmittedMessage {
	t.Helper()
	g, err := core.Build(2, 2, 2024)
	if err != nil {
		t.Fatal(err)
	}
	fill(&g)
	g.Compute(core.Calculator{})
	return amqp.NewGridSubmittedMessage("sess", g, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
}

func val(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func fillBoth(g *core.Grid) {
	for t := range g.Tables {
		g.Tables[t].Rows[1].Months.Set(core.ColJan, val("10"))
		g.Tables[t].Rows[1].Months.Set(core.ColFeb, val("5"))
	}
}

func TestHandleGridSubmittedExports(t *testing.T) {
	store := memory.New()
	w := NewExportWorker(store, core.ZeroIsPresent)

	msg := message(t, fillBoth)
	// totals on the wire are not trusted
	msg.Tables[0].Rows[1].YTD = decimal.NewFromInt(999)

	if err := w.HandleGridSubmitted(context.Background(), msg); err != nil {
		t.Fatalf("HandleGridSubmitted: %v", err)
	}

	exports := store.Exports()
	if len(exports) != 1 {
		t.Fatalf("got %d exports, want 1", len(exports))
	}
	row := exports[0].Grid.Tables[0].Rows[1]
	if row.Year != 2023 {
		t.Errorf("year = %d, want 2023", row.Year)
	}
	if got := row.Totals.Quarters[0].String(); got != "5.33" {
		t.Errorf("q1 = %s, want 5.33", got)
	}
	if got := row.Totals.YTD.String(); got != "1.58" {
		t.Errorf("ytd = %s, want 1.58", got)
	}
}

func TestHandleGridSubmittedSkipsRedelivery(t *testing.T) {
	store := memory.New()
	w := NewExportWorker(store, core.ZeroIsPresent)
	msg := message(t, fillBoth)

	for i := 0; i < 3; i++ {
		if err := w.HandleGridSubmitted(context.Background(), msg); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(store.Exports()); n != 1 {
		t.Fatalf("got %d exports, want 1", n)
	}
	if w.Cache().Size() != 1 {
		t.Errorf("cache size = %d, want 1", w.Cache().Size())
	}
}

func TestHandleGridSubmittedDropsInvalidGrid(t *testing.T) {
	store := memory.New()
	w := NewExportWorker(store, core.ZeroIsPresent)

	msg := message(t, func(g *core.Grid) {
		g.Tables[0].Rows[0].Months.Set(core.ColJan, val("1"))
	})
	if err := w.HandleGridSubmitted(context.Background(), msg); err != nil {
		t.Fatalf("invalid grids are dropped, got %v", err)
	}
	if n := len(store.Exports()); n != 0 {
		t.Fatalf("got %d exports, want 0", n)
	}

	empty := &amqp.GridSubmittedMessage{SessionID: "x"}
	if err := w.HandleGridSubmitted(context.Background(), empty); err != nil {
		t.Fatalf("empty grids are dropped, got %v", err)
	}
}

func TestHandleGridSubmittedExporterFailureRetries(t *testing.T) {
	exp := &failingExporter{}
	w := NewExportWorker(exp, core.ZeroIsPresent)
	msg := message(t, fillBoth)

	for i := 0; i < 2; i++ {
		if err := w.HandleGridSubmitted(context.Background(), msg); err == nil {
			t.Fatal("expected error so the message is requeued")
		}
	}
	if exp.calls != 2 {
		t.Errorf("exporter called %d times, want 2", exp.calls)
	}
}
