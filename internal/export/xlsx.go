package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"yeargrid/internal/core"
)

const (
	captionRow = 1
	headerRow  = 2
	firstRow   = 3

	// custom number format "0.00"
	numFmtTwoDecimals = 2
)

// SheetName is the worksheet title used for a table.
func SheetName(tableID int) string {
	return fmt.Sprintf("Table %d", tableID)
}

// Workbook lays out a computed grid with one worksheet per table. The
// first row holds the caption, the second the column header, and each
// following row one year, most recent first. Blank cells stay empty.
func Workbook(g core.Grid) (*excelize.File, error) {
	if len(g.Tables) == 0 {
		return nil, fmt.Errorf("export workbook: %w: no tables", core.ErrInvalidConfiguration)
	}

	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, t := range g.Tables {
		name := SheetName(t.ID)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeTable(f, name, t, st); err != nil {
			f.Close()
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteWorkbook renders g as an .xlsx document into w.
func WriteWorkbook(w io.Writer, g core.Grid) error {
	f, err := Workbook(g)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type styles struct {
	caption  int
	header   int
	value    int
	computed int
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		st  styles
		err error
	)
	if st.caption, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}); err != nil {
		return st, fmt.Errorf("caption style: %w", err)
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	}); err != nil {
		return st, fmt.Errorf("header style: %w", err)
	}
	if st.value, err = f.NewStyle(&excelize.Style{NumFmt: numFmtTwoDecimals}); err != nil {
		return st, fmt.Errorf("value style: %w", err)
	}
	if st.computed, err = f.NewStyle(&excelize.Style{
		NumFmt: numFmtTwoDecimals,
		Font:   &excelize.Font{Italic: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"EEEEEE"}, Pattern: 1},
	}); err != nil {
		return st, fmt.Errorf("computed style: %w", err)
	}
	return st, nil
}

func writeTable(f *excelize.File, sheet string, t core.Table, st styles) error {
	header := core.Header()

	caption := cell(1, captionRow)
	if err := f.SetCellValue(sheet, caption, t.Caption()); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, caption, caption, st.caption); err != nil {
		return err
	}

	labels := make([]any, len(header))
	for i, c := range header {
		labels[i] = c.Label()
	}
	if err := f.SetSheetRow(sheet, cell(1, headerRow), &labels); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell(1, headerRow), cell(len(header), headerRow), st.header); err != nil {
		return err
	}

	for i, row := range t.Rows {
		r := firstRow + i
		for j, c := range row.Cells() {
			axis := cell(j+1, r)
			if c.Column == core.ColYear {
				if err := f.SetCellValue(sheet, axis, row.Year); err != nil {
					return err
				}
				continue
			}
			style := st.value
			if c.Column.Computed() {
				style = st.computed
			}
			if err := f.SetCellStyle(sheet, axis, axis, style); err != nil {
				return err
			}
			if !c.Value.Valid {
				continue
			}
			if err := f.SetCellFloat(sheet, axis, c.Value.Decimal.InexactFloat64(), 2, 64); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      headerRow,
		TopLeftCell: cell(2, firstRow),
		ActivePane:  "bottomRight",
	}); err != nil {
		return err
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
