package core

import (
	"errors"
	"fmt"
)

// ViolationKind classifies why a submission was rejected.
type ViolationKind string

const (
	KindTablesDiffer   ViolationKind = "tables_differ"
	KindInvalidPattern ViolationKind = "invalid_pattern"
	KindInvalidNumber  ViolationKind = "invalid_number"
)

const (
	MsgTablesDiffer   = "Tables are different."
	MsgInvalidPattern = "Invalid."
)

// InvalidNumber reports a month cell whose text is not a number with at
// most two decimals.
func InvalidNumber(tableID, year int, c Column) Violation {
	return Violation{
		TableID: tableID,
		Kind:    KindInvalidNumber,
		Message: fmt.Sprintf("Invalid number in %s %d.", c.Label(), year),
	}
}

// Violation is one rule broken by a table of a submission.
type Violation struct {
	TableID int
	Kind    ViolationKind
	Message string
}

func (v Violation) Error() string {
	return fmt.Sprintf("table %d: %s", v.TableID, v.Message)
}

// Violations is the full result of validating a submission.
type Violations []Violation

// Err joins all violations into one error, or returns nil when there are none.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	errs := make([]error, len(vs))
	for i, v := range vs {
		errs[i] = v
	}
	return errors.Join(errs...)
}

// ForTable returns the violations attributed to one table.
func (vs Violations) ForTable(id int) Violations {
	var out Violations
	for _, v := range vs {
		if v.TableID == id {
			out = append(out, v)
		}
	}
	return out
}

// Validator checks the structure of a submission before anything is computed.
type Validator struct {
	Zero ZeroPolicy
}

// Validate applies the default validator.
func Validate(s Submission) Violations {
	return Validator{}.Validate(s)
}

// Validate checks every table and collects every violation found.
//
// Each table after the first must have exactly the same filled and empty
// positions as table 1; a table that does not gets one "tables differ"
// violation. Independently, the filled cells of each table must form a
// single unbroken run in chronological order. Leading and trailing blanks
// are allowed; a value after a gap is an "invalid pattern" violation.
func (v Validator) Validate(s Submission) Violations {
	var out Violations
	if len(s.Tables) == 0 {
		return out
	}

	seqs := make([][]bool, len(s.Tables))
	for i, t := range s.Tables {
		seqs[i] = t.FillSequence(v.Zero)
	}

	ref := seqs[0]
	for i := 1; i < len(seqs); i++ {
		if !samePattern(ref, seqs[i]) {
			out = append(out, Violation{
				TableID: s.Tables[i].ID,
				Kind:    KindTablesDiffer,
				Message: MsgTablesDiffer,
			})
		}
	}

	for i, seq := range seqs {
		if hasGap(seq) {
			out = append(out, Violation{
				TableID: s.Tables[i].ID,
				Kind:    KindInvalidPattern,
				Message: MsgInvalidPattern,
			})
		}
	}
	return out
}

// samePattern compares two fill sequences position by position. A missing
// position on either side counts as blank.
func samePattern(a, b []bool) bool {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		if at(a, i) != at(b, i) {
			return false
		}
	}
	return true
}

func at(seq []bool, i int) bool {
	return i < len(seq) && seq[i]
}

// hasGap reports whether a filled cell follows a blank that itself follows
// the first filled cell.
func hasGap(seq []bool) bool {
	start := -1
	for i, filled := range seq {
		if filled {
			start = i
			break
		}
	}
	if start < 0 {
		return false
	}
	end := -1
	for i := start + 1; i < len(seq); i++ {
		if !seq[i] {
			end = i
			break
		}
	}
	if end < 0 {
		return false
	}
	for i := end + 1; i < len(seq); i++ {
		if seq[i] {
			return true
		}
	}
	return false
}
