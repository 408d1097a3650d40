package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"yeargrid/internal/core"
	ports "yeargrid/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options selects the spreadsheet and the service account used to reach it.
type Options struct {
	SpreadsheetID string
	// SheetName is the base name; the submission year is prefixed to it.
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

// Ensure interface conformance
var _ ports.GridExporter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
// Inline JSON wins over the file; GOOGLE_APPLICATION_CREDENTIALS is the
// last fallback.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	creds, err := credentialsJSON(ctx, opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully", "spreadsheet_id", spreadsheetID)

	return NewWithService(svc, spreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = "Grid"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetBase}
}

func credentialsJSON(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.ServiceAccountJSON)
	file := strings.TrimSpace(opts.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportGrid appends every table of g as a block of rows to the sheet for
// the submission year and returns the updated range.
func (c *Client) ExportGrid(ctx context.Context, sessionID string, submittedAt time.Time, g core.Grid) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(g.Tables) == 0 {
		return "", fmt.Errorf("export grid: %w: no tables", core.ErrInvalidConfiguration)
	}

	sheet := yearPrefixedName(c.sheetBase, submittedAt.Year())
	rng := fmt.Sprintf("'%s'!A:R", strings.ReplaceAll(sheet, "'", "''"))
	vr := &gsheet.ValueRange{Values: gridValues(sessionID, submittedAt, g)}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append grid to sheet %s: %w", sheet, err)
	}

	ref := sheet
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Grid appended to sheet",
		"session_id", sessionID,
		"sheet", sheet,
		"range", ref,
		"rows", len(vr.Values))
	return ref, nil
}

// gridValues lays out one block per table: a caption line, the column
// header, one line per year and an empty separator line.
func gridValues(sessionID string, submittedAt time.Time, g core.Grid) [][]any {
	header := core.Header()
	labels := make([]any, len(header))
	for i, c := range header {
		labels[i] = c.Label()
	}

	var out [][]any
	for _, t := range g.Tables {
		out = append(out,
			[]any{t.Caption(), sessionID, submittedAt.UTC().Format(time.RFC3339)},
			labels,
		)
		for _, row := range t.Rows {
			line := make([]any, 0, len(header))
			for _, cell := range row.Cells() {
				switch {
				case cell.Column == core.ColYear:
					line = append(line, row.Year)
				case !cell.Value.Valid:
					line = append(line, "")
				case cell.Column.Computed():
					line = append(line, cell.Value.Decimal.StringFixed(2))
				default:
					line = append(line, cell.Value.Decimal.String())
				}
			}
			out = append(out, line)
		}
		out = append(out, []any{})
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
