package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string // "" means blank
		err error
	}{
		{"", "", nil},
		{"   ", "", nil},
		{"1", "1", nil},
		{"1.0", "1", nil},
		{"1.23", "1.23", nil},
		{"1,23", "1.23", nil},
		{" 2.50 ", "2.5", nil},
		{"0", "0", nil},
		{"-3.25", "-3.25", nil},
		{"+4", "4", nil},
		{".5", "0.5", nil},
		{"1.500", "1.5", nil},
		{"1.005", "", ErrPrecision},
		{"abc", "", ErrInvalidAmount},
		{"1.2.3", "", ErrInvalidAmount},
		{"1e3", "", ErrInvalidAmount},
		{"--1", "", ErrInvalidAmount},
		{".", "", ErrInvalidAmount},
		{"-", "", ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error %v", tc.in, err)
		}
		if tc.out == "" {
			if got.Valid {
				t.Fatalf("%q expected blank, got %s", tc.in, got.Decimal)
			}
			continue
		}
		if !got.Valid || !got.Decimal.Equal(decimal.RequireFromString(tc.out)) {
			t.Fatalf("%q expected %s, got %v", tc.in, tc.out, got)
		}
	}
}

func TestFillSequenceIsChronological(t *testing.T) {
	tv := table(1, "x...........", "...........x")
	seq := tv.FillSequence(ZeroIsPresent)
	if len(seq) != 24 {
		t.Fatalf("expected 24 positions, got %d", len(seq))
	}
	// older row first: its December is position 11, the current January is 12
	for i, filled := range seq {
		want := i == 11 || i == 12
		if filled != want {
			t.Fatalf("position %d filled=%v, want %v", i, filled, want)
		}
	}
}
