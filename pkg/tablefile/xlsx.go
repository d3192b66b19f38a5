package tablefile

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"perfvoi/internal/models"
)

// Sheet names used by EncodeWorkbook
const (
	WideSheet = "wide"
	LongSheet = "long"
)

// EncodeWorkbook renders both tables as an Excel workbook, the wide table
// on the first sheet. Values are stored as numbers; invalid cells stay empty.
func EncodeWorkbook(long *models.LongTable, wide *models.WideTable) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), WideSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeWideSheet(f, wide); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(LongSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := writeLongSheet(f, long); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeWideSheet(f *excelize.File, wide *models.WideTable) error {
	header := make([]interface{}, 0, len(wide.Columns)+1)
	header = append(header, SubjectHeader)
	for _, c := range wide.Columns {
		header = append(header, c)
	}
	if err := setRow(f, WideSheet, 1, header); err != nil {
		return err
	}

	for i, row := range wide.Rows {
		values := make([]interface{}, len(row.Cells)+1)
		values[0] = row.Subject
		for j, c := range row.Cells {
			if c.Valid {
				values[j+1] = c.Value
			}
		}
		if err := setRow(f, WideSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeLongSheet(f *excelize.File, long *models.LongTable) error {
	header := make([]interface{}, len(LongHeader))
	for i, h := range LongHeader {
		header[i] = h
	}
	if err := setRow(f, LongSheet, 1, header); err != nil {
		return err
	}
	for i, e := range long.Entries() {
		if err := setRow(f, LongSheet, i+2, []interface{}{e.Key.Subject, e.Key.Region, e.Result.Value}); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
