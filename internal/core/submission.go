package core

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrPrecision     = errors.New("amount has more than two decimal places")
)

type (
	// TableValues holds the month values entered in one table.
	// Rows are ordered like the table: Rows[0] is row 1, the current year.
	TableValues struct {
		ID   int
		Rows []MonthValues
	}

	// Submission is every value entered in the form at submit time.
	Submission struct {
		Tables []TableValues
	}
)

// FillSequence flattens a table's month cells chronologically, oldest
// year first and January to December within a year. Each entry reports
// whether the cell is filled.
func (t TableValues) FillSequence(p ZeroPolicy) []bool {
	seq := make([]bool, 0, len(t.Rows)*len(Months))
	for r := len(t.Rows) - 1; r >= 0; r-- {
		for _, v := range t.Rows[r] {
			seq = append(seq, !p.IsBlank(v))
		}
	}
	return seq
}

// ParseAmount reads a month cell as typed into the form.
//
// Empty input is a blank cell. Both dot and comma are accepted as the
// decimal separator and a leading sign is allowed. Inputs with more than
// two decimal places are rejected, matching the 0.01 step of the field.
//
//	ParseAmount("")       -> blank, nil
//	ParseAmount("12,5")   -> 12.5, nil
//	ParseAmount("-3.25")  -> -3.25, nil
//	ParseAmount("1.005")  -> ErrPrecision
//	ParseAmount("1e3")    -> ErrInvalidAmount
func ParseAmount(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	s = strings.ReplaceAll(s, ",", ".")

	body := strings.TrimLeft(s, "+-")
	if len(s)-len(body) > 1 {
		return decimal.NullDecimal{}, ErrInvalidAmount
	}
	parts := strings.Split(body, ".")
	if len(parts) > 2 || (parts[0] == "" && (len(parts) == 1 || parts[1] == "")) {
		return decimal.NullDecimal{}, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.NullDecimal{}, ErrInvalidAmount
			}
		}
	}

	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return decimal.NullDecimal{}, ErrInvalidAmount
	}
	if !d.Equal(d.Round(2)) {
		return decimal.NullDecimal{}, ErrPrecision
	}
	return decimal.NewNullDecimal(d), nil
}
