package snapshot

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ParseXLSX decodes the first sheet of an XLSX workbook into rows, using the
// first sheet row as the header. Snapshot-date resolution matches ParseCSV.
func ParseXLSX(data []byte, filename string) ([]Row, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("snapshot: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	header := rowToStrings(sheet.Rows[0])
	var rows []Row
	for _, sheetRow := range sheet.Rows[1:] {
		cells := rowToStrings(sheetRow)
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(cells) {
				row[name] = cells[i]
			}
		}
		rows = append(rows, row)
	}

	attachSnapshotDate(rows, filename)
	return rows, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
