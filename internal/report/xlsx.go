package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteXLSX writes one sheet per table to an xlsx workbook at path. Sheet
// names come from the table titles, truncated to the format's 31-char limit.
func WriteXLSX(path string, tables ...*Table) error {
	file := xlsx.NewFile()
	for _, t := range tables {
		name := t.Title
		if name == "" {
			name = "Report"
		}
		if len(name) > 31 {
			name = name[:31]
		}
		sheet, err := file.AddSheet(name)
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %q", name)
		}

		header := sheet.AddRow()
		for _, h := range t.Headers {
			header.AddCell().SetString(h)
		}
		for _, row := range t.Rows {
			r := sheet.AddRow()
			for _, cell := range row {
				r.AddCell().SetString(cell)
			}
		}
	}
	return eris.Wrap(file.Save(path), "report: save xlsx")
}
