package core

import "strings"

// Column identifies one cell position in a grid row.
type Column string

const (
	ColYear Column = "year"
	ColJan  Column = "jan"
	ColFeb  Column = "feb"
	ColMar  Column = "mar"
	ColQ1   Column = "q1"
	ColApr  Column = "apr"
	ColMay  Column = "may"
	ColJun  Column = "jun"
	ColQ2   Column = "q2"
	ColJul  Column = "jul"
	ColAug  Column = "aug"
	ColSep  Column = "sep"
	ColQ3   Column = "q3"
	ColOct  Column = "oct"
	ColNov  Column = "nov"
	ColDec  Column = "dec"
	ColQ4   Column = "q4"
	ColYTD  Column = "ytd"
)

// header is the fixed column order shared by every table.
var header = [...]Column{
	ColYear,
	ColJan, ColFeb, ColMar, ColQ1,
	ColApr, ColMay, ColJun, ColQ2,
	ColJul, ColAug, ColSep, ColQ3,
	ColOct, ColNov, ColDec, ColQ4,
	ColYTD,
}

// Months lists the editable month columns in calendar order.
var Months = [12]Column{
	ColJan, ColFeb, ColMar,
	ColApr, ColMay, ColJun,
	ColJul, ColAug, ColSep,
	ColOct, ColNov, ColDec,
}

// Quarters lists the computed quarter columns in order.
var Quarters = [4]Column{ColQ1, ColQ2, ColQ3, ColQ4}

// Header returns a copy of the row layout.
func Header() []Column {
	out := make([]Column, len(header))
	copy(out, header[:])
	return out
}

// Editable reports whether users may type into the column.
// Only month columns are editable.
func (c Column) Editable() bool {
	return c.MonthIndex() >= 0
}

// Computed reports whether the column holds a derived aggregate.
func (c Column) Computed() bool {
	return c == ColYTD || c.QuarterIndex() >= 0
}

// MonthIndex returns the zero-based calendar month for a month column, or -1.
func (c Column) MonthIndex() int {
	for i, m := range Months {
		if m == c {
			return i
		}
	}
	return -1
}

// QuarterIndex returns the zero-based quarter for a quarter column, or -1.
func (c Column) QuarterIndex() int {
	for i, q := range Quarters {
		if q == c {
			return i
		}
	}
	return -1
}

// Label is the text shown in the table header.
func (c Column) Label() string {
	switch c {
	case ColYTD:
		return "YTD"
	case ColQ1, ColQ2, ColQ3, ColQ4:
		return strings.ToUpper(string(c))
	default:
		return strings.ToUpper(string(c[:1])) + string(c[1:])
	}
}

// ParseColumn maps a column key back to its Column.
func ParseColumn(s string) (Column, bool) {
	for _, c := range header {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// QuarterMonths returns the three month columns aggregated by quarter q (0-3).
func QuarterMonths(q int) [3]Column {
	return [3]Column{Months[q*3], Months[q*3+1], Months[q*3+2]}
}
