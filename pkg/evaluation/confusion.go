package evaluation

import (
	"fmt"
	"math"
)

// ConfusionMatrix counts agreement between a reference and a prediction
type ConfusionMatrix struct {
	TN, FP, FN, TP int
}

// NewConfusionMatrix compares truth with predicted labels
func NewConfusionMatrix(truth, predicted []bool) (ConfusionMatrix, error) {
	if len(truth) != len(predicted) {
		return ConfusionMatrix{}, fmt.Errorf("confusion matrix: %d labels against %d predictions", len(truth), len(predicted))
	}
	var c ConfusionMatrix
	for i, t := range truth {
		switch p := predicted[i]; {
		case t && p:
			c.TP++
		case t && !p:
			c.FN++
		case !t && p:
			c.FP++
		default:
			c.TN++
		}
	}
	return c, nil
}

// Total is the number of compared subjects
func (c ConfusionMatrix) Total() int {
	return c.TN + c.FP + c.FN + c.TP
}

// Scores are the summary metrics of a confusion matrix, each rounded to
// four decimals. Undefined ratios are NaN.
type Scores struct {
	Accuracy    float64
	Sensitivity float64
	Specificity float64
	GMean       float64
	F1          float64
}

// Scores derives accuracy, sensitivity, specificity, G-mean and F1. The
// G-mean is taken from the rounded sensitivity and specificity.
func (c ConfusionMatrix) Scores() Scores {
	tp, tn, fp, fn := float64(c.TP), float64(c.TN), float64(c.FP), float64(c.FN)
	s := Scores{
		Sensitivity: round4(ratio(tp, tp+fn)),
		Specificity: round4(ratio(tn, tn+fp)),
		Accuracy:    round4(ratio(tn+tp, tn+tp+fn+fp)),
		F1:          round4(ratio(2*tp, 2*tp+fp+fn)),
	}
	s.GMean = round4(math.Sqrt(s.Sensitivity * s.Specificity))
	return s
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

func round4(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return math.Round(x*1e4) / 1e4
}
