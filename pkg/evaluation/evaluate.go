// Package evaluation compares perfusion imaging against hemodynamic
// simulation: it derives a vulnerability call per subject from each side
// and scores the simulation against imaging with a confusion matrix, an
// ROC curve and the G-mean optimal simulation threshold.
package evaluation

import (
	"context"
	"errors"
	"fmt"

	"perfvoi/internal/ctxlog"
	"perfvoi/internal/models"
)

// Analysis selects the wide-table columns compared in one evaluation
type Analysis struct {
	Name         string `yaml:"name"`
	IpsiColumn   string `yaml:"ipsiColumn"`
	ContraColumn string `yaml:"contraColumn"`
}

// Params holds the evaluation thresholds
type Params struct {
	// RelativeThreshold marks imaging vulnerability when ipsi/contra >= it
	RelativeThreshold float64

	// SimulationThreshold marks simulated vulnerability when the ipsilateral
	// M2 pressure is below it (mmHg)
	SimulationThreshold float64

	Analyses []Analysis
}

// Inputs are the joined tables
type Inputs struct {
	Wide       *models.WideTable
	Simulation map[string]SimulationRecord
	Stenosis   map[string]Side
}

// SubjectOutcome pairs the imaging and simulation calls of a subject
type SubjectOutcome struct {
	Perfusion  PerfusionOutcome
	Simulation SimulationOutcome
}

// Report is the result of one analysis
type Report struct {
	Name      string
	Subjects  []SubjectOutcome
	Confusion ConfusionMatrix
	Scores    Scores

	// Curve is nil when all subjects fall in one imaging class
	Curve   *Curve
	Optimum Optimum
}

// Evaluate runs every analysis over the joined inputs
func Evaluate(ctx context.Context, in Inputs, p Params) ([]Report, error) {
	if in.Wide == nil {
		return nil, errors.New("evaluation: no wide table")
	}
	if len(p.Analyses) == 0 {
		return nil, errors.New("evaluation: no analyses configured")
	}
	log := ctxlog.FromContext(ctx)

	sims := make([]SimulationOutcome, len(in.Wide.Rows))
	for i, subject := range in.Wide.Subjects() {
		rec, ok := in.Simulation[subject]
		if !ok {
			return nil, fmt.Errorf("%w: %s not in simulation table", ErrSubjectMismatch, subject)
		}
		side, ok := in.Stenosis[subject]
		if !ok {
			return nil, fmt.Errorf("%w: %s not in stenosis table", ErrSubjectMismatch, subject)
		}
		sims[i] = SimulationVulnerability(rec, side, p.SimulationThreshold)
	}

	reports := make([]Report, 0, len(p.Analyses))
	for _, a := range p.Analyses {
		r, err := evaluateOne(in.Wide, sims, a, p)
		if err != nil {
			return nil, fmt.Errorf("analysis %s: %w", a.Name, err)
		}
		if r.Curve == nil {
			log.Warn("roc skipped, imaging calls are all one class", "analysis", a.Name)
		}
		log.Info("analysis done", "analysis", a.Name,
			"tn", r.Confusion.TN, "fp", r.Confusion.FP, "fn", r.Confusion.FN, "tp", r.Confusion.TP,
			"sens", r.Scores.Sensitivity, "spec", r.Scores.Specificity, "gmean", r.Scores.GMean)
		reports = append(reports, r)
	}
	return reports, nil
}

func evaluateOne(wide *models.WideTable, sims []SimulationOutcome, a Analysis, p Params) (Report, error) {
	perf, err := PerfusionVulnerability(wide, a.IpsiColumn, a.ContraColumn, p.RelativeThreshold)
	if err != nil {
		return Report{}, err
	}

	r := Report{Name: a.Name, Subjects: make([]SubjectOutcome, len(perf))}
	truth := make([]bool, len(perf))
	predicted := make([]bool, len(perf))
	notVulnerable := make([]bool, len(perf))
	pressure := make([]float64, len(perf))
	for i := range perf {
		r.Subjects[i] = SubjectOutcome{Perfusion: perf[i], Simulation: sims[i]}
		truth[i] = perf[i].Vulnerable
		predicted[i] = sims[i].Vulnerable
		notVulnerable[i] = !perf[i].Vulnerable
		pressure[i] = sims[i].Ipsi
	}

	if r.Confusion, err = NewConfusionMatrix(truth, predicted); err != nil {
		return Report{}, err
	}
	r.Scores = r.Confusion.Scores()

	// Higher ipsilateral pressure should mean an imaging-normal hemisphere,
	// so the non-vulnerable subjects are the positive class.
	curve, err := ROC(pressure, notVulnerable)
	switch {
	case errors.Is(err, ErrDegenerateClasses):
	case err != nil:
		return Report{}, err
	default:
		r.Curve = curve
		r.Optimum = curve.Optimal()
	}
	return r, nil
}
