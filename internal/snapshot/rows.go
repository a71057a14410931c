// Package snapshot decodes stock-risk snapshot files (CSV or XLSX) into
// normalized rows. Column names are matched case-, space- and
// underscore-insensitively; the snapshot date comes from a DDMMYY pattern in
// the filename, or from the first row's snapshot-date column.
package snapshot

import (
	"encoding/csv"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Row is one raw snapshot row keyed by the original header names, plus the
// injected "snapshot_date" key once resolved.
type Row map[string]string

var filenameDatePattern = regexp.MustCompile(`(\d{2})(\d{2})(\d{2})`)

// DateFromFilename extracts a DDMMYY pattern from a filename and returns it
// as YYYY-MM-DD (year 2000+YY). Returns false when no pattern is present.
func DateFromFilename(name string) (string, bool) {
	m := filenameDatePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return "20" + m[3] + "-" + m[2] + "-" + m[1], true
}

func normalizeKey(key string) string {
	key = strings.ReplaceAll(key, "\uFEFF", "")
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "_", "")
	return strings.ToLower(key)
}

// Field looks up a column by normalized name, tolerating header variants
// like "Wks_To_OOS" vs "WksToOOS". Returns false when no column matches.
func (r Row) Field(name string) (string, bool) {
	target := normalizeKey(name)
	for k, v := range r {
		if normalizeKey(k) == target {
			return v, true
		}
	}
	return "", false
}

// FloatField parses a numeric column. Returns nil for missing or
// non-numeric values.
func (r Row) FloatField(name string) *float64 {
	raw, ok := r.Field(name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParseCSV decodes header-row CSV content into rows and resolves the
// snapshot date from the filename or the first dated row.
func ParseCSV(content string, filename string) ([]Row, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: read csv header")
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "snapshot: read csv row")
		}
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}

	attachSnapshotDate(rows, filename)
	return rows, nil
}

// attachSnapshotDate injects a "snapshot_date" key into every row. The
// filename date wins; otherwise the first row carrying its own snapshot-date
// column fixes the date for the whole file. Original snapshot-date columns
// are dropped so lookups stay unambiguous.
func attachSnapshotDate(rows []Row, filename string) {
	date, ok := DateFromFilename(filename)
	if !ok {
		for _, row := range rows {
			if v, found := row.Field("snapshotdate"); found && strings.TrimSpace(v) != "" {
				date = strings.TrimSpace(v)
				ok = true
				break
			}
		}
	}
	if !ok {
		return
	}

	for _, row := range rows {
		for k := range row {
			if normalizeKey(k) == "snapshotdate" {
				delete(row, k)
			}
		}
		row["snapshot_date"] = date
	}
}
