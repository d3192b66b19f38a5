package aggregation

import (
	"strings"

	"perfvoi/internal/models"
)

// Naming turns a (region folder, label) pair into table keys
type Naming struct {
	// Separator joins the region part and the label
	Separator string

	// StripOrdinalPrefix drops the "34_" style prefix of region folders
	// before renaming
	StripOrdinalPrefix bool

	// Renamer maps raw column names to their final names. Nil keeps names.
	Renamer *Renamer
}

// LongKey is the unrenamed key of a result in the long table
func (n Naming) LongKey(r models.ScalarResult) string {
	return n.join(r.RegionFolder, r.Label)
}

// Column is the renamed wide-table column of a result
func (n Naming) Column(r models.ScalarResult) string {
	region := r.RegionFolder
	if n.StripOrdinalPrefix {
		region = StripOrdinalPrefix(region)
	}
	return n.Renamer.Rename(n.join(region, r.Label))
}

// join adds the separator unless the label already starts with it, as the
// datasink-renamed "_MCA_ipsi" mask folders do
func (n Naming) join(region, label string) string {
	if label == "" {
		return region
	}
	if strings.HasPrefix(label, n.Separator) {
		return region + label
	}
	return region + n.Separator + label
}

// BuildLongTable inserts results in order. A key produced twice is a
// DuplicateEntryError.
func BuildLongTable(results []models.ScalarResult, naming Naming) (*models.LongTable, error) {
	tbl := models.NewLongTable()
	for _, r := range results {
		key := models.LongKey{Subject: r.Subject, Region: naming.LongKey(r)}
		if prev, ok := tbl.Put(key, r); !ok {
			return nil, &DuplicateEntryError{
				Subject: r.Subject,
				Key:     key.Region,
				Path:    r.Path,
				Prior:   prev.Result.Path,
			}
		}
	}
	return tbl, nil
}

// BuildWideTable pivots the long table into one row per subject. Columns
// appear in first-seen order over the long table. When allowMissing is
// false a hole in any row is an IncompleteRowError; otherwise the cell is
// left invalid.
func BuildWideTable(long *models.LongTable, subjects []string, naming Naming, allowMissing bool) (*models.WideTable, error) {
	var columns []string
	colIndex := make(map[string]int)
	values := make(map[string]map[int]models.ScalarResult, len(subjects))

	for _, e := range long.Entries() {
		r := e.Result
		col := naming.Column(r)
		j, ok := colIndex[col]
		if !ok {
			j = len(columns)
			colIndex[col] = j
			columns = append(columns, col)
		}

		row := values[r.Subject]
		if row == nil {
			row = make(map[int]models.ScalarResult)
			values[r.Subject] = row
		}
		if prev, dup := row[j]; dup {
			return nil, &DuplicateEntryError{Subject: r.Subject, Key: col, Path: r.Path, Prior: prev.Path}
		}
		row[j] = r
	}

	wide := &models.WideTable{Columns: columns, Rows: make([]models.WideRow, 0, len(subjects))}
	for _, s := range subjects {
		row := models.WideRow{Subject: s, Cells: make([]models.Cell, len(columns))}
		for j := range columns {
			r, ok := values[s][j]
			if !ok {
				if !allowMissing {
					return nil, &IncompleteRowError{Subject: s, Column: columns[j]}
				}
				continue
			}
			row.Cells[j] = models.Cell{Value: r.Value, Valid: true}
		}
		wide.Rows = append(wide.Rows, row)
	}
	return wide, nil
}
