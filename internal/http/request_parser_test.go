package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"yeargrid/internal/core"
)

func layout(t *testing.T, tables, rows int) core.Grid {
	t.Helper()
	g, err := core.Build(tables, rows, 2024)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestInputName(t *testing.T) {
	if got := InputName(2, 3, core.ColOct); got != "t2-r3-oct" {
		t.Errorf("InputName = %q", got)
	}
}

func TestParseGridForm(t *testing.T) {
	g := layout(t, 2, 2)
	form := url.Values{
		"t1-r1-jan": {"10"},
		"t1-r1-feb": {" 5,5 "},
		"t1-r2-dec": {"0"},
		"t2-r1-jan": {""},
		"t3-r1-jan": {"99"}, // not in layout
		"year":      {"1999"},
	}

	fv := ParseGridForm(form, g)
	if len(fv.Invalid) != 0 {
		t.Fatalf("unexpected violations: %v", fv.Invalid)
	}
	if len(fv.Submission.Tables) != 2 {
		t.Fatalf("got %d tables, want 2", len(fv.Submission.Tables))
	}

	t1 := fv.Submission.Tables[0]
	if t1.ID != 1 || len(t1.Rows) != 2 {
		t.Fatalf("table 1 = %+v", t1)
	}
	tests := []struct {
		row  int
		col  core.Column
		want string // "" means blank
	}{
		{0, core.ColJan, "10"},
		{0, core.ColFeb, "5.5"},
		{0, core.ColMar, ""},
		{1, core.ColDec, "0"},
	}
	for _, tt := range tests {
		v := t1.Rows[tt.row].Get(tt.col)
		switch {
		case tt.want == "" && v.Valid:
			t.Errorf("row %d %s = %s, want blank", tt.row, tt.col, v.Decimal)
		case tt.want != "" && (!v.Valid || v.Decimal.String() != tt.want):
			t.Errorf("row %d %s = %v, want %s", tt.row, tt.col, v, tt.want)
		}
	}

	for _, row := range fv.Submission.Tables[1].Rows {
		for _, c := range core.Months {
			if row.Get(c).Valid {
				t.Errorf("table 2 %s should be blank", c)
			}
		}
	}

	if got := fv.Raw(1, 1, core.ColFeb); got != "5,5" {
		t.Errorf("Raw = %q, want the trimmed text as typed", got)
	}
	if got := fv.Raw(3, 1, core.ColJan); got != "" {
		t.Errorf("Raw outside layout = %q", got)
	}
}

func TestParseGridFormInvalidNumbers(t *testing.T) {
	g := layout(t, 1, 2)
	form := url.Values{
		"t1-r1-jan": {"abc"},
		"t1-r1-feb": {"1.005"},
		"t1-r1-mar": {"3"},
		"t1-r2-apr": {strings.Repeat("1", maxCellInput+1)},
	}

	fv := ParseGridForm(form, g)
	want := []string{
		"Invalid number in Jan 2024.",
		"Invalid number in Feb 2024.",
		"Invalid number in Apr 2023.",
	}
	if len(fv.Invalid) != len(want) {
		t.Fatalf("got %d violations, want %d: %v", len(fv.Invalid), len(want), fv.Invalid)
	}
	for i, v := range fv.Invalid {
		if v.Message != want[i] || v.Kind != core.KindInvalidNumber || v.TableID != 1 {
			t.Errorf("violation %d = %+v", i, v)
		}
	}

	row := fv.Submission.Tables[0].Rows[0]
	if row.Get(core.ColJan).Valid {
		t.Error("rejected text must not become a value")
	}
	if !row.Get(core.ColMar).Valid {
		t.Error("valid cells are still parsed")
	}
	if fv.Raw(1, 1, core.ColJan) != "abc" {
		t.Error("rejected text is kept for echoing")
	}
}

func TestParseGridFormStripsControlCharacters(t *testing.T) {
	fv := ParseGridForm(url.Values{"t1-r1-jan": {"1\x002"}}, layout(t, 1, 1))
	if len(fv.Invalid) != 0 {
		t.Fatalf("unexpected violations: %v", fv.Invalid)
	}
	if v := fv.Submission.Tables[0].Rows[0].Get(core.ColJan); v.Decimal.String() != "12" {
		t.Errorf("jan = %s, want 12", v.Decimal)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  12 ", "12"},
		{"1\x07", "1"},
		{"a\tb", "a\tb"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFormOrFail(t *testing.T) {
	body := "t1-r1-jan=5"
	req := httptest.NewRequest(http.MethodPost, "/grid/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if resp := ParseFormOrFail(req); resp != nil {
		t.Error("Expected nil for valid form, got error response")
	}
	if req.Form.Get("t1-r1-jan") != "5" {
		t.Error("Form was not parsed correctly")
	}

	bad := httptest.NewRequest(http.MethodPost, "/grid/submit?%zz", strings.NewReader(""))
	if resp := ParseFormOrFail(bad); resp == nil {
		t.Error("Expected error response for malformed query")
	}
}
