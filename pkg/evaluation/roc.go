package evaluation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ErrDegenerateClasses is returned when an ROC curve is requested for
// labels that are all positive or all negative
var ErrDegenerateClasses = errors.New("roc: need both positive and negative observations")

// Curve is a receiver operating characteristic. Point i gives the rates
// when observations scoring at least Thresholds[i] are called positive.
type Curve struct {
	FPR        []float64
	TPR        []float64
	Thresholds []float64
	AUC        float64
}

// ROC builds the curve of scores against positive labels using every
// distinct score as a cutoff
func ROC(scores []float64, positive []bool) (*Curve, error) {
	if len(scores) != len(positive) {
		return nil, fmt.Errorf("roc: %d scores for %d labels", len(scores), len(positive))
	}
	var pos int
	for _, p := range positive {
		if p {
			pos++
		}
	}
	if pos == 0 || pos == len(positive) {
		return nil, ErrDegenerateClasses
	}
	for _, s := range scores {
		if math.IsNaN(s) {
			return nil, errors.New("roc: NaN score")
		}
	}

	y := append([]float64(nil), scores...)
	classes := append([]bool(nil), positive...)
	stat.SortWeightedLabeled(y, classes, nil)

	tpr, fpr, thresh := stat.ROC(nil, y, classes, nil)
	return &Curve{
		FPR:        fpr,
		TPR:        tpr,
		Thresholds: thresh,
		AUC:        integrate.Trapezoidal(fpr, tpr),
	}, nil
}

// GMeans returns sqrt(tpr*(1-fpr)) for every curve point
func (c *Curve) GMeans() []float64 {
	gmeans := make([]float64, len(c.TPR))
	for i := range c.TPR {
		gmeans[i] = math.Sqrt(c.TPR[i] * (1 - c.FPR[i]))
	}
	return gmeans
}

// Optimum is the curve point with the best balance of sensitivity and
// specificity
type Optimum struct {
	Threshold   float64
	GMean       float64
	Sensitivity float64
	Specificity float64
}

// Optimal returns the point maximizing sqrt(tpr*(1-fpr)), rounded to four
// decimals. The first point wins ties.
func (c *Curve) Optimal() Optimum {
	gmeans := c.GMeans()
	i := floats.MaxIdx(gmeans)

	fpr := round4(c.FPR[i])
	return Optimum{
		Threshold:   round4(c.Thresholds[i]),
		GMean:       round4(gmeans[i]),
		Sensitivity: round4(c.TPR[i]),
		Specificity: round4(1 - fpr),
	}
}
