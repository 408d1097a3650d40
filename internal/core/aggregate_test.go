package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func months(vals map[Column]string) MonthValues {
	var m MonthValues
	for c, v := range vals {
		m.Set(c, decimal.NewNullDecimal(decimal.RequireFromString(v)))
	}
	return m
}

func TestComputeRowQuarter(t *testing.T) {
	agg := ComputeRow(months(map[Column]string{ColJan: "10", ColFeb: "5"}))

	if got := agg.Quarters[0].String(); got != "5.33" {
		t.Fatalf("q1 = %s, want 5.33", got)
	}
	for q := 1; q < 4; q++ {
		if !agg.Quarters[q].IsZero() {
			t.Fatalf("q%d = %s, want 0", q+1, agg.Quarters[q])
		}
	}
	// ((5.33+0+0+0)+1)/4 = 1.5825
	if got := agg.YTD.String(); got != "1.58" {
		t.Fatalf("ytd = %s, want 1.58", got)
	}
}

func TestComputeRowAllBlank(t *testing.T) {
	agg := ComputeRow(MonthValues{})
	for q, v := range agg.Quarters {
		if !v.IsZero() {
			t.Fatalf("q%d = %s, want 0", q+1, v)
		}
	}
	if !agg.YTD.IsZero() {
		t.Fatalf("ytd = %s, want 0", agg.YTD)
	}
}

func TestComputeRowCases(t *testing.T) {
	cases := []struct {
		name string
		in   map[Column]string
		q    [4]string
		ytd  string
	}{
		{
			name: "full year",
			in: map[Column]string{
				ColJan: "1", ColFeb: "2", ColMar: "3",
				ColApr: "4", ColMay: "5", ColJun: "6",
				ColJul: "7", ColAug: "8", ColSep: "9",
				ColOct: "10", ColNov: "11", ColDec: "12",
			},
			// (6+1)/3, (15+1)/3, (24+1)/3, (33+1)/3
			q: [4]string{"2.33", "5.33", "8.33", "11.33"},
			// (27.32+1)/4 = 7.08
			ytd: "7.08",
		},
		{
			name: "rounds half away from zero",
			in:   map[Column]string{ColApr: "0.5"},
			// (0.5+1)/3 = 0.5
			q: [4]string{"0", "0.5", "0", "0"},
			// (0.5+1)/4 = 0.375
			ytd: "0.38",
		},
		{
			name: "negative month",
			in:   map[Column]string{ColOct: "-3.04"},
			// (-3.04+1)/3 = -0.68
			q: [4]string{"0", "0", "0", "-0.68"},
			// (-0.68+1)/4 = 0.08
			ytd: "0.08",
		},
		{
			name: "negative half rounds away from zero",
			in:   map[Column]string{ColOct: "-4.06"},
			// (-4.06+1)/3 = -1.02
			q: [4]string{"0", "0", "0", "-1.02"},
			// (-1.02+1)/4 = -0.005
			ytd: "-0.01",
		},
		{
			name: "quarter cancelling to zero leaves ytd at zero",
			in:   map[Column]string{ColJan: "-1"},
			q:    [4]string{"0", "0", "0", "0"},
			ytd:  "0",
		},
		{
			name: "decimals",
			in:   map[Column]string{ColJul: "1.25", ColSep: "2.5"},
			// (3.75+1)/3 = 1.5833
			q: [4]string{"0", "0", "1.58", "0"},
			// (1.58+1)/4 = 0.645
			ytd: "0.65",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agg := ComputeRow(months(tc.in))
			for i, want := range tc.q {
				if !agg.Quarters[i].Equal(decimal.RequireFromString(want)) {
					t.Fatalf("q%d = %s, want %s", i+1, agg.Quarters[i], want)
				}
			}
			if !agg.YTD.Equal(decimal.RequireFromString(tc.ytd)) {
				t.Fatalf("ytd = %s, want %s", agg.YTD, tc.ytd)
			}
		})
	}
}

func TestComputeRowZeroPolicy(t *testing.T) {
	in := months(map[Column]string{ColJan: "0"})

	present := Calculator{Zero: ZeroIsPresent}.ComputeRow(in)
	if got := present.Quarters[0].String(); got != "0.33" {
		t.Fatalf("zero as present: q1 = %s, want 0.33", got)
	}
	// (0.33+1)/4 = 0.3325
	if got := present.YTD.String(); got != "0.33" {
		t.Fatalf("zero as present: ytd = %s, want 0.33", got)
	}

	blank := Calculator{Zero: ZeroIsBlank}.ComputeRow(in)
	if !blank.Quarters[0].IsZero() || !blank.YTD.IsZero() {
		t.Fatalf("zero as blank: got q1=%s ytd=%s, want zeros", blank.Quarters[0], blank.YTD)
	}
}

func TestComputeRowIdempotent(t *testing.T) {
	in := months(map[Column]string{ColMay: "7.77", ColNov: "3"})
	a := ComputeRow(in)
	b := ComputeRow(in)
	for i := range a.Quarters {
		if !a.Quarters[i].Equal(b.Quarters[i]) {
			t.Fatalf("q%d differs between calls", i+1)
		}
	}
	if !a.YTD.Equal(b.YTD) {
		t.Fatal("ytd differs between calls")
	}
}

func TestIsBlank(t *testing.T) {
	zero := decimal.NewNullDecimal(decimal.Zero)
	if !ZeroIsPresent.IsBlank(decimal.NullDecimal{}) {
		t.Fatal("null must be blank")
	}
	if ZeroIsPresent.IsBlank(zero) {
		t.Fatal("zero is present under ZeroIsPresent")
	}
	if !ZeroIsBlank.IsBlank(zero) {
		t.Fatal("zero is blank under ZeroIsBlank")
	}
}
