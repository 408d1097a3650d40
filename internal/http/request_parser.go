// Package http provides HTTP server and handler implementations.
//
// This file turns posted grid forms into typed submissions. Input names
// never travel past this layer.

package http

import (
	"fmt"
	"net/http"
	"net/url"

	"yeargrid/internal/core"
)

// maxCellInput bounds the text accepted for one month cell.
const maxCellInput = 32

// InputName is the form field name of a month cell: t{table}-r{row}-{column}.
func InputName(table, row int, c core.Column) string {
	return fmt.Sprintf("t%d-r%d-%s", table, row, c)
}

// FormValues is a parsed grid form.
type FormValues struct {
	Submission core.Submission
	// Invalid lists cells whose text is not an acceptable number.
	Invalid core.Violations
	raw     map[string]string
}

// Raw returns the text posted for a cell, for echoing back into the form.
func (f FormValues) Raw(table, row int, c core.Column) string {
	return f.raw[InputName(table, row, c)]
}

// ParseGridForm reads every month cell of layout from form. Only the
// positions present in layout are read; other fields are ignored.
func ParseGridForm(form url.Values, layout core.Grid) FormValues {
	fv := FormValues{
		Submission: core.Submission{Tables: make([]core.TableValues, 0, len(layout.Tables))},
		raw:        make(map[string]string),
	}

	for _, t := range layout.Tables {
		tv := core.TableValues{ID: t.ID, Rows: make([]core.MonthValues, len(t.Rows))}
		for i, row := range t.Rows {
			for _, c := range core.Months {
				name := InputName(t.ID, row.Index, c)
				text := sanitizeInput(form.Get(name))
				if text == "" {
					continue
				}
				fv.raw[name] = text

				if len(text) > maxCellInput {
					fv.Invalid = append(fv.Invalid, core.InvalidNumber(t.ID, row.Year, c))
					continue
				}
				v, err := core.ParseAmount(text)
				if err != nil {
					fv.Invalid = append(fv.Invalid, core.InvalidNumber(t.ID, row.Year, c))
					continue
				}
				tv.Rows[i].Set(c, v)
			}
		}
		fv.Submission.Tables = append(fv.Submission.Tables, tv)
	}
	return fv
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format.")
	}
	return nil
}
