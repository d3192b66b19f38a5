package evaluation

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"perfvoi/pkg/tablefile"
)

// ResultsHeader names the columns written by WriteResults
var ResultsHeader = []string{
	"name", "tn", "fp", "fn", "tp", "accuracy", "sens", "spec", "gmean", "f1-score",
	"auc", "opt_threshold", "opt_gmean", "opt_sens", "opt_spec",
}

// SubjectsHeader names the columns written by WriteSubjects
var SubjectsHeader = []string{
	"subject", "analysis", "ipsi", "contra", "relative", "perf_vuln", "stenosis_side", "m2_ipsi", "sim_vuln",
}

// CurveHeader names the columns written by WriteCurves
var CurveHeader = []string{"analysis", "threshold", "fpr", "tpr", "gmean"}

// WriteResults writes one summary row per report
func WriteResults(w io.Writer, reports []Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultsHeader); err != nil {
		return err
	}
	for _, r := range reports {
		c, s := r.Confusion, r.Scores
		auc, opt := math.NaN(), Optimum{math.NaN(), math.NaN(), math.NaN(), math.NaN()}
		if r.Curve != nil {
			auc, opt = r.Curve.AUC, r.Optimum
		}
		rec := []string{
			r.Name,
			strconv.Itoa(c.TN), strconv.Itoa(c.FP), strconv.Itoa(c.FN), strconv.Itoa(c.TP),
			number(s.Accuracy), number(s.Sensitivity), number(s.Specificity), number(s.GMean), number(s.F1),
			number(auc), number(opt.Threshold), number(opt.GMean), number(opt.Sensitivity), number(opt.Specificity),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSubjects writes the per-subject calls of every report
func WriteSubjects(w io.Writer, reports []Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SubjectsHeader); err != nil {
		return err
	}
	for _, r := range reports {
		for _, o := range r.Subjects {
			p, s := o.Perfusion, o.Simulation
			rec := []string{
				p.Subject, r.Name,
				number(p.Ipsi), number(p.Contra), number(p.Relative), strconv.FormatBool(p.Vulnerable),
				s.Side.String(), number(s.Ipsi), strconv.FormatBool(s.Vulnerable),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCurves writes every ROC point of every report, thresholds descending.
// Reports without a curve contribute no rows.
func WriteCurves(w io.Writer, reports []Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CurveHeader); err != nil {
		return err
	}
	for _, r := range reports {
		if r.Curve == nil {
			continue
		}
		gmeans := r.Curve.GMeans()
		for i := range r.Curve.TPR {
			rec := []string{
				r.Name,
				tablefile.FormatFloat(r.Curve.Thresholds[i]),
				number(r.Curve.FPR[i]), number(r.Curve.TPR[i]), number(gmeans[i]),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// number leaves NaN cells empty so pandas and spreadsheets read them as missing
func number(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return tablefile.FormatFloat(v)
}
