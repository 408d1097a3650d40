package http

import (
	"strconv"

	"yeargrid/internal/core"
	"yeargrid/internal/services"
)

const statusValid = "Valid."

type (
	cellView struct {
		Name     string // input name; empty for read-only cells
		Label    string
		Value    string
		Editable bool
		Computed bool
	}

	rowView struct {
		Year  int
		Cells []cellView
	}

	tableView struct {
		ID      int
		Caption string
		Rows    []rowView
		Errors  []string
	}

	gridView struct {
		Header      []string
		Tables      []tableView
		Status      string
		Valid       bool
		CanAddRow   bool
		CanAddTable bool
	}
)

// newGridView renders g. Editable cells show the posted text when form
// is given so rejected input comes back as typed; otherwise the stored
// value. Computed cells are shown once g has been computed.
func newGridView(g core.Grid, form *FormValues, vs core.Violations, limits services.Limits) gridView {
	header := core.Header()
	v := gridView{
		Header:      make([]string, len(header)),
		Tables:      make([]tableView, 0, len(g.Tables)),
		CanAddTable: limits.MaxTables <= 0 || len(g.Tables) < limits.MaxTables,
	}
	for i, c := range header {
		v.Header[i] = c.Label()
	}

	for _, t := range g.Tables {
		tv := tableView{ID: t.ID, Caption: t.Caption(), Rows: make([]rowView, 0, len(t.Rows))}
		for _, row := range t.Rows {
			rv := rowView{Year: row.Year, Cells: make([]cellView, 0, len(header))}
			for _, c := range row.Cells() {
				cv := cellView{Label: c.Column.Label(), Editable: c.Editable, Computed: c.Column.Computed()}
				switch {
				case c.Column == core.ColYear:
					cv.Value = strconv.Itoa(row.Year)
				case c.Editable:
					cv.Name = InputName(t.ID, row.Index, c.Column)
					if form != nil {
						cv.Value = form.Raw(t.ID, row.Index, c.Column)
					} else if c.Value.Valid {
						cv.Value = c.Value.Decimal.String()
					}
				case c.Value.Valid:
					cv.Value = c.Value.Decimal.StringFixed(2)
				}
				rv.Cells = append(rv.Cells, cv)
			}
			tv.Rows = append(tv.Rows, rv)
		}
		for _, viol := range vs.ForTable(t.ID) {
			tv.Errors = append(tv.Errors, viol.Message)
		}
		v.Tables = append(v.Tables, tv)
	}

	if len(g.Tables) > 0 {
		v.CanAddRow = limits.MaxRows <= 0 || len(g.Tables[0].Rows) < limits.MaxRows
	}
	return v
}

// withStatus marks the view as a successfully validated submission.
func (v gridView) withStatus() gridView {
	v.Valid = true
	v.Status = statusValid
	return v
}
