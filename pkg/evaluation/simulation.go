package evaluation

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"perfvoi/pkg/tablefile"
)

// TableOptions controls how simulation side tables are parsed
type TableOptions struct {
	// Delimiter separates fields; the simulation exports use ';'
	Delimiter rune

	// DecimalComma accepts "12,5" for 12.5
	DecimalComma bool

	// NormalizeIDs rewrites subject IDs with NormalizeSubjectID
	NormalizeIDs bool
}

// SimulationColumns names the perfusion pressure columns of the
// simulation table
type SimulationColumns struct {
	SupRight string `yaml:"supRight"`
	InfRight string `yaml:"infRight"`
	SupLeft  string `yaml:"supLeft"`
	InfLeft  string `yaml:"infLeft"`
}

// DefaultSimulationColumns are the M2 segment columns of the hemodynamic model
func DefaultSimulationColumns() SimulationColumns {
	return SimulationColumns{
		SupRight: "M2 sup R",
		InfRight: "M2 inf R",
		SupLeft:  "M2 sup L",
		InfLeft:  "M2 inf L",
	}
}

// SimulationRecord holds the simulated M2 perfusion pressures of a subject in mmHg
type SimulationRecord struct {
	Subject  string
	SupRight float64
	InfRight float64
	SupLeft  float64
	InfLeft  float64
}

// Side of the stenosis
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "L"
	}
	return "R"
}

// ErrSubjectMismatch is returned when a subject is missing from one of the
// joined tables
var ErrSubjectMismatch = errors.New("subject missing from joined table")

// NormalizeSubjectID maps simulation IDs such as "PEG_005" onto imaging
// IDs ("PEG0005")
func NormalizeSubjectID(id string) string {
	return strings.ReplaceAll(id, "_", "0")
}

// LoadSimulation reads the simulation table keyed by subject
func LoadSimulation(r io.Reader, opts TableOptions, cols SimulationColumns) (map[string]SimulationRecord, error) {
	tbl, err := tablefile.ReadIndexed(r, delimiterOf(opts), opts.DecimalComma)
	if err != nil {
		return nil, fmt.Errorf("simulation table: %w", err)
	}

	idx := make([]int, 4)
	for i, name := range []string{cols.SupRight, cols.InfRight, cols.SupLeft, cols.InfLeft} {
		if idx[i] = tbl.Column(name); idx[i] < 0 {
			return nil, fmt.Errorf("simulation table: column %q not found", name)
		}
	}

	out := make(map[string]SimulationRecord, len(tbl.Index))
	for i, raw := range tbl.Index {
		id := subjectID(raw, opts)
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("simulation table: subject %s appears twice after normalization", id)
		}
		var vals [4]float64
		for k, j := range idx {
			v, err := tablefile.ParseNumber(tbl.Records[i][j], opts.DecimalComma)
			if err != nil {
				return nil, fmt.Errorf("simulation table: subject %s column %s: %w", id, tbl.Columns[j], err)
			}
			vals[k] = v
		}
		out[id] = SimulationRecord{Subject: id, SupRight: vals[0], InfRight: vals[1], SupLeft: vals[2], InfLeft: vals[3]}
	}
	return out, nil
}

// LoadStenosis reads the side-of-stenosis table (0 = left, 1 = right)
func LoadStenosis(r io.Reader, opts TableOptions, column string) (map[string]Side, error) {
	tbl, err := tablefile.ReadIndexed(r, delimiterOf(opts), opts.DecimalComma)
	if err != nil {
		return nil, fmt.Errorf("stenosis table: %w", err)
	}
	j := tbl.Column(column)
	if j < 0 {
		return nil, fmt.Errorf("stenosis table: column %q not found", column)
	}

	out := make(map[string]Side, len(tbl.Index))
	for i, raw := range tbl.Index {
		id := subjectID(raw, opts)
		switch strings.TrimSpace(tbl.Records[i][j]) {
		case "0":
			out[id] = Left
		case "1":
			out[id] = Right
		default:
			return nil, fmt.Errorf("stenosis table: subject %s: side %q is neither 0 nor 1", id, tbl.Records[i][j])
		}
	}
	return out, nil
}

func subjectID(raw string, opts TableOptions) string {
	if opts.NormalizeIDs {
		return NormalizeSubjectID(raw)
	}
	return raw
}

func delimiterOf(opts TableOptions) rune {
	if opts.Delimiter == 0 {
		return ';'
	}
	return opts.Delimiter
}
