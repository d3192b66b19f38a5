package evaluation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"perfvoi/internal/models"
)

// PerfusionOutcome is the imaging side of one subject
type PerfusionOutcome struct {
	Subject    string
	Ipsi       float64
	Contra     float64
	Relative   float64
	Vulnerable bool
}

// PerfusionVulnerability computes ipsi/contra ratios for every wide-table
// row. A subject is vulnerable when the ratio reaches threshold.
func PerfusionVulnerability(wide *models.WideTable, ipsiColumn, contraColumn string, threshold float64) ([]PerfusionOutcome, error) {
	ci, cc := wide.ColumnIndex(ipsiColumn), wide.ColumnIndex(contraColumn)
	if ci < 0 {
		return nil, fmt.Errorf("wide table has no column %s", ipsiColumn)
	}
	if cc < 0 {
		return nil, fmt.Errorf("wide table has no column %s", contraColumn)
	}

	m := wide.Matrix()
	if m == nil {
		return nil, fmt.Errorf("wide table is empty")
	}
	ipsi := mat.Col(nil, ci, m)
	contra := mat.Col(nil, cc, m)

	subjects := wide.Subjects()
	for i, s := range subjects {
		if math.IsNaN(ipsi[i]) || math.IsNaN(contra[i]) {
			return nil, fmt.Errorf("subject %s lacks %s or %s", s, ipsiColumn, contraColumn)
		}
		if contra[i] == 0 {
			return nil, fmt.Errorf("subject %s: %s is zero", s, contraColumn)
		}
	}

	relative := make([]float64, len(ipsi))
	copy(relative, ipsi)
	floats.Div(relative, contra)

	out := make([]PerfusionOutcome, len(subjects))
	for i, s := range subjects {
		out[i] = PerfusionOutcome{
			Subject:    s,
			Ipsi:       ipsi[i],
			Contra:     contra[i],
			Relative:   relative[i],
			Vulnerable: relative[i] >= threshold,
		}
	}
	return out, nil
}

// SimulationOutcome is the modeled side of one subject
type SimulationOutcome struct {
	Subject    string
	Side       Side
	RightMin   float64
	LeftMin    float64
	Ipsi       float64
	Vulnerable bool
}

// SimulationVulnerability takes the lower M2 pressure of each hemisphere,
// picks the hemisphere of the stenosis and marks it vulnerable below
// threshold
func SimulationVulnerability(rec SimulationRecord, side Side, threshold float64) SimulationOutcome {
	out := SimulationOutcome{
		Subject:  rec.Subject,
		Side:     side,
		RightMin: math.Min(rec.SupRight, rec.InfRight),
		LeftMin:  math.Min(rec.SupLeft, rec.InfLeft),
	}
	out.Ipsi = out.RightMin
	if side == Left {
		out.Ipsi = out.LeftMin
	}
	out.Vulnerable = out.Ipsi < threshold
	return out
}
