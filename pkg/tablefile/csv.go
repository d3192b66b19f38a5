// Package tablefile serializes aggregation tables as delimited text and
// Excel workbooks, and reads delimited tables back.
package tablefile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"perfvoi/internal/models"
)

// LongHeader names the columns of the long-form table
var LongHeader = []string{"subject", "region_value", "value"}

// SubjectHeader is the first column of the wide-form table
const SubjectHeader = "subject"

// FormatFloat renders v with the fewest digits that parse back to v
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteLong writes the long table with a header row
func WriteLong(w io.Writer, t *models.LongTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(LongHeader); err != nil {
		return err
	}
	for _, e := range t.Entries() {
		if err := cw.Write([]string{e.Key.Subject, e.Key.Region, FormatFloat(e.Result.Value)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWide writes the wide table with a header row. Invalid cells are
// written as empty strings.
func WriteWide(w io.Writer, t *models.WideTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{SubjectHeader}, t.Columns...)); err != nil {
		return err
	}
	record := make([]string, len(t.Columns)+1)
	for _, row := range t.Rows {
		if len(row.Cells) != len(t.Columns) {
			return fmt.Errorf("row %s has %d cells for %d columns", row.Subject, len(row.Cells), len(t.Columns))
		}
		record[0] = row.Subject
		for j, c := range row.Cells {
			record[j+1] = ""
			if c.Valid {
				record[j+1] = FormatFloat(c.Value)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeLong returns the CSV bytes of a long table
func EncodeLong(t *models.LongTable) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteLong(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeWide returns the CSV bytes of a wide table
func EncodeWide(t *models.WideTable) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWide(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadWide parses a wide table written by WriteWide. Empty cells and the
// pandas "--" marker are read as invalid cells.
func ReadWide(r io.Reader) (*models.WideTable, error) {
	tbl, err := ReadIndexed(r, ',', false)
	if err != nil {
		return nil, err
	}

	wide := &models.WideTable{Columns: tbl.Columns}
	for i, subject := range tbl.Index {
		row := models.WideRow{Subject: subject, Cells: make([]models.Cell, len(tbl.Columns))}
		for j, raw := range tbl.Records[i] {
			if isNull(raw) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("subject %s column %s: %w", subject, tbl.Columns[j], err)
			}
			row.Cells[j] = models.Cell{Value: v, Valid: true}
		}
		wide.Rows = append(wide.Rows, row)
	}
	return wide, nil
}

// IndexedTable is a delimited table whose first column is a row label
type IndexedTable struct {
	// Name of the index column as found in the header
	IndexName string

	// Columns are the remaining header names
	Columns []string

	// Index holds the row labels
	Index []string

	// Records holds the raw cells, aligned with Columns
	Records [][]string
}

// Column returns the position of a column, or -1
func (t *IndexedTable) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ReadIndexed reads a delimited table with a header row. When decimalComma
// is set the caller intends to parse "12,5" style numbers; the delimiter
// must then differ from ','.
func ReadIndexed(r io.Reader, delimiter rune, decimalComma bool) (*IndexedTable, error) {
	if decimalComma && delimiter == ',' {
		return nil, errors.New("decimal comma requires a delimiter other than ','")
	}
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty table")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 1 {
		return nil, errors.New("header has no columns")
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	t := &IndexedTable{IndexName: header[0], Columns: header[1:]}
	seen := make(map[string]struct{}, len(header))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Index)+1, err)
		}
		label := strings.TrimSpace(rec[0])
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("row label %q appears twice", label)
		}
		seen[label] = struct{}{}
		t.Index = append(t.Index, label)
		t.Records = append(t.Records, rec[1:])
	}
	return t, nil
}

// ParseNumber parses a numeric cell, optionally with a decimal comma
func ParseNumber(raw string, decimalComma bool) (float64, error) {
	raw = strings.TrimSpace(raw)
	if decimalComma {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	return strconv.ParseFloat(raw, 64)
}

func isNull(raw string) bool {
	s := strings.TrimSpace(raw)
	return s == "" || s == "--"
}
