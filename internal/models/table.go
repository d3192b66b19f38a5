package models

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ScalarResult is one averaged VOI intensity read from a value file
type ScalarResult struct {
	// Subject is the subject identifier the file was associated with
	Subject string

	// RegionFolder is the output category (one perfusion map) the file lives under
	RegionFolder string

	// Label is the name of the file's parent directory, usually the VOI mask
	// (e.g. ACA_contra). It is empty when the file sits directly in the
	// subject folder.
	Label string

	// Value is the parsed scalar
	Value float64

	// Path is the file the value was read from
	Path string
}

// LongKey identifies one entry of a LongTable
type LongKey struct {
	Subject string
	Region  string
}

// LongTable holds one entry per (subject, region) key in insertion order.
// Builders fill it with Put; it is treated as read-only once returned.
type LongTable struct {
	entries []LongEntry
	index   map[LongKey]int
}

// LongEntry is a row of the long-form table
type LongEntry struct {
	Key    LongKey
	Result ScalarResult
}

// NewLongTable returns an empty table
func NewLongTable() *LongTable {
	return &LongTable{index: make(map[LongKey]int)}
}

// Put appends an entry. If the key is already present nothing is stored
// and the earlier entry is returned with ok set to false.
func (t *LongTable) Put(key LongKey, r ScalarResult) (prev LongEntry, ok bool) {
	if i, exists := t.index[key]; exists {
		return t.entries[i], false
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, LongEntry{Key: key, Result: r})
	return LongEntry{}, true
}

// Len returns the number of entries
func (t *LongTable) Len() int {
	return len(t.entries)
}

// Entries returns the entries in insertion order. The slice must not be modified.
func (t *LongTable) Entries() []LongEntry {
	return t.entries
}

// Lookup returns the entry stored under key
func (t *LongTable) Lookup(key LongKey) (LongEntry, bool) {
	i, ok := t.index[key]
	if !ok {
		return LongEntry{}, false
	}
	return t.entries[i], true
}

// Cell is one value of a WideTable. Valid is false for a hole that was
// explicitly allowed by the caller.
type Cell struct {
	Value float64
	Valid bool
}

// WideRow is the row of one subject
type WideRow struct {
	Subject string
	Cells   []Cell
}

// WideTable has one row per subject and one column per renamed region
type WideTable struct {
	// Columns are the column names in first-seen order
	Columns []string

	// Rows are ordered like the requested subjects
	Rows []WideRow
}

// ColumnIndex returns the position of a column, or -1
func (w *WideTable) ColumnIndex(name string) int {
	for i, c := range w.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Row returns the row of a subject
func (w *WideTable) Row(subject string) (WideRow, bool) {
	for _, r := range w.Rows {
		if r.Subject == subject {
			return r, true
		}
	}
	return WideRow{}, false
}

// Subjects returns the row subjects in order
func (w *WideTable) Subjects() []string {
	out := make([]string, len(w.Rows))
	for i, r := range w.Rows {
		out[i] = r.Subject
	}
	return out
}

// Matrix returns the values as a subjects x columns dense matrix with NaN
// for invalid cells. It returns nil for an empty table.
func (w *WideTable) Matrix() *mat.Dense {
	if len(w.Rows) == 0 || len(w.Columns) == 0 {
		return nil
	}
	m := mat.NewDense(len(w.Rows), len(w.Columns), nil)
	for i, r := range w.Rows {
		for j := range w.Columns {
			v := math.NaN()
			if j < len(r.Cells) && r.Cells[j].Valid {
				v = r.Cells[j].Value
			}
			m.Set(i, j, v)
		}
	}
	return m
}
