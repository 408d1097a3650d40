package core

import "github.com/shopspring/decimal"

// ZeroPolicy decides whether a literal zero counts as a filled-in cell.
type ZeroPolicy int

const (
	// ZeroIsPresent treats 0 as an entered value. This is the default.
	ZeroIsPresent ZeroPolicy = iota
	// ZeroIsBlank treats 0 like an empty cell.
	ZeroIsBlank
)

// Aggregates are the computed cells of one row.
type Aggregates struct {
	Quarters [4]decimal.Decimal
	YTD      decimal.Decimal
}

// Get returns the aggregate stored under a computed column.
func (a Aggregates) Get(c Column) decimal.Decimal {
	if c == ColYTD {
		return a.YTD
	}
	if q := c.QuarterIndex(); q >= 0 {
		return a.Quarters[q]
	}
	return decimal.Zero
}

// Calculator derives quarter and year-to-date cells from month values.
type Calculator struct {
	Zero ZeroPolicy
}

var (
	one   = decimal.NewFromInt(1)
	three = decimal.NewFromInt(3)
	four  = decimal.NewFromInt(4)
)

// IsBlank reports whether v counts as an empty cell under the policy.
func (p ZeroPolicy) IsBlank(v decimal.NullDecimal) bool {
	if !v.Valid {
		return true
	}
	return p == ZeroIsBlank && v.Decimal.IsZero()
}

// ComputeRow applies the default calculator to one row.
func ComputeRow(months MonthValues) Aggregates {
	return Calculator{}.ComputeRow(months)
}

// ComputeRow returns the four quarters and the year-to-date value.
//
// A quarter with at least one filled month is ((m1+m2+m3)+1)/3, blanks
// counting as zero; a quarter with no filled month is 0. YTD is
// ((q1+q2+q3+q4)+1)/4 over the rounded quarters when any quarter is
// non-zero, else 0. Both results are rounded half away from zero to two
// places.
//
// The +1 in both numerators is kept as the form has always computed it,
// even though it skews every average upward.
func (c Calculator) ComputeRow(months MonthValues) Aggregates {
	var agg Aggregates
	anyQuarter := false
	for q := range agg.Quarters {
		sum := decimal.Zero
		present := false
		for i := q * 3; i < q*3+3; i++ {
			if !c.Zero.IsBlank(months[i]) {
				present = true
			}
			if months[i].Valid {
				sum = sum.Add(months[i].Decimal)
			}
		}
		if !present {
			agg.Quarters[q] = decimal.Zero
			continue
		}
		agg.Quarters[q] = sum.Add(one).Div(three).Round(2)
		if !agg.Quarters[q].IsZero() {
			anyQuarter = true
		}
	}

	if !anyQuarter {
		agg.YTD = decimal.Zero
		return agg
	}
	total := decimal.Zero
	for _, q := range agg.Quarters {
		total = total.Add(q)
	}
	agg.YTD = total.Add(one).Div(four).Round(2)
	return agg
}
