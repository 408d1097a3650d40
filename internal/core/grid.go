package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidConfiguration = errors.New("invalid grid configuration")

type (
	// MonthValues holds the twelve month cells of a row, January first.
	// A value that is not Valid is a blank cell.
	MonthValues [12]decimal.NullDecimal

	// Cell is one rendered position in a row.
	Cell struct {
		Column   Column
		Editable bool
		Value    decimal.NullDecimal
	}

	// Row is one calendar year of a table.
	Row struct {
		Index  int // 1-based; row 1 is the current year
		Year   int
		Months MonthValues
		Totals *Aggregates // nil until computed
	}

	// Table is an ordered set of rows, most recent year first.
	Table struct {
		ID   int
		Rows []Row
	}

	// Grid is the whole form: one or more tables sharing the same layout.
	Grid struct {
		Tables []Table
	}
)

// Build lays out tableCount tables of rowCount rows each. Row r carries
// the year currentYear-r+1. No values are filled in.
func Build(tableCount, rowCount, currentYear int) (Grid, error) {
	if tableCount <= 0 {
		return Grid{}, fmt.Errorf("%w: table count must be positive, got %d", ErrInvalidConfiguration, tableCount)
	}
	if rowCount <= 0 {
		return Grid{}, fmt.Errorf("%w: row count must be positive, got %d", ErrInvalidConfiguration, rowCount)
	}

	g := Grid{Tables: make([]Table, tableCount)}
	for t := range g.Tables {
		rows := make([]Row, rowCount)
		for r := range rows {
			rows[r] = Row{
				Index: r + 1,
				Year:  currentYear - (r + 1) + 1,
			}
		}
		g.Tables[t] = Table{ID: t + 1, Rows: rows}
	}
	return g, nil
}

// Header returns the column layout used by every table of the grid.
func (g Grid) Header() []Column {
	return Header()
}

// Table returns the table with the given id.
func (g Grid) Table(id int) (Table, bool) {
	if id < 1 || id > len(g.Tables) {
		return Table{}, false
	}
	return g.Tables[id-1], true
}

// Caption is the title shown above the table.
func (t Table) Caption() string {
	return fmt.Sprintf("Table №%d", t.ID)
}

// Get returns the value of a month column, or a blank value for any other column.
func (m MonthValues) Get(c Column) decimal.NullDecimal {
	if i := c.MonthIndex(); i >= 0 {
		return m[i]
	}
	return decimal.NullDecimal{}
}

// Set stores a month value. Non-month columns are ignored.
func (m *MonthValues) Set(c Column, v decimal.NullDecimal) {
	if i := c.MonthIndex(); i >= 0 {
		m[i] = v
	}
}

// Cells returns the row in header order with editability resolved.
func (r Row) Cells() []Cell {
	cells := make([]Cell, 0, len(header))
	for _, c := range header {
		cell := Cell{Column: c, Editable: c.Editable()}
		switch {
		case c == ColYear:
			cell.Value = decimal.NewNullDecimal(decimal.NewFromInt(int64(r.Year)))
		case c.Editable():
			cell.Value = r.Months.Get(c)
		case r.Totals != nil:
			cell.Value = decimal.NewNullDecimal(r.Totals.Get(c))
		}
		cells = append(cells, cell)
	}
	return cells
}

// Fill copies submitted month values into the matching rows. Values for
// tables or rows the grid does not have are dropped.
func (g *Grid) Fill(s Submission) {
	for _, tv := range s.Tables {
		if tv.ID < 1 || tv.ID > len(g.Tables) {
			continue
		}
		rows := g.Tables[tv.ID-1].Rows
		for i, months := range tv.Rows {
			if i >= len(rows) {
				break
			}
			rows[i].Months = months
		}
	}
}

// Compute writes aggregates into every row of the grid.
func (g *Grid) Compute(calc Calculator) {
	for t := range g.Tables {
		rows := g.Tables[t].Rows
		for r := range rows {
			agg := calc.ComputeRow(rows[r].Months)
			rows[r].Totals = &agg
		}
	}
}

// Submission extracts the month values currently held by the grid.
func (g Grid) Submission() Submission {
	s := Submission{Tables: make([]TableValues, len(g.Tables))}
	for t, table := range g.Tables {
		tv := TableValues{ID: table.ID, Rows: make([]MonthValues, len(table.Rows))}
		for r, row := range table.Rows {
			tv.Rows[r] = row.Months
		}
		s.Tables[t] = tv
	}
	return s
}
