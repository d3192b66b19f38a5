package evaluation

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfvoi/internal/models"
)

const (
	ipsiCol   = "DSC_parametric_MTT_reor_avg_MCA_ipsi"
	contraCol = "DSC_parametric_MTT_reor_avg_MCA_contra"
)

func wideFixture(rows map[string][2]float64, order []string) *models.WideTable {
	w := &models.WideTable{Columns: []string{ipsiCol, contraCol}}
	for _, s := range order {
		v := rows[s]
		w.Rows = append(w.Rows, models.WideRow{Subject: s, Cells: []models.Cell{
			{Value: v[0], Valid: true}, {Value: v[1], Valid: true},
		}})
	}
	return w
}

func TestConfusionMatrixScores(t *testing.T) {
	truth := []bool{true, true, true, false, false, false, false}
	pred := []bool{true, true, false, false, false, true, false}

	c, err := NewConfusionMatrix(truth, pred)
	require.NoError(t, err)
	assert.Equal(t, ConfusionMatrix{TN: 3, FP: 1, FN: 1, TP: 2}, c)
	assert.Equal(t, 7, c.Total())

	s := c.Scores()
	assert.Equal(t, 0.6667, s.Sensitivity)
	assert.Equal(t, 0.75, s.Specificity)
	assert.Equal(t, 0.7143, s.Accuracy)
	assert.Equal(t, 0.6667, s.F1)
	assert.Equal(t, round4(math.Sqrt(0.6667*0.75)), s.GMean)
}

func TestConfusionMatrixUndefinedRatios(t *testing.T) {
	c, err := NewConfusionMatrix([]bool{false, false}, []bool{false, false})
	require.NoError(t, err)
	s := c.Scores()
	assert.True(t, math.IsNaN(s.Sensitivity))
	assert.Equal(t, 1.0, s.Specificity)
	assert.True(t, math.IsNaN(s.GMean))

	_, err = NewConfusionMatrix([]bool{true}, nil)
	assert.Error(t, err)
}

func TestROCPerfectSeparation(t *testing.T) {
	curve, err := ROC([]float64{40, 10, 30, 20}, []bool{true, false, true, false})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, curve.AUC, 1e-12)
	require.Equal(t, len(curve.TPR), len(curve.FPR))
	require.Equal(t, len(curve.TPR), len(curve.Thresholds))
	assert.Equal(t, 0.0, curve.FPR[0])
	assert.Equal(t, 1.0, curve.TPR[len(curve.TPR)-1])

	opt := curve.Optimal()
	assert.Equal(t, 30.0, opt.Threshold)
	assert.Equal(t, 1.0, opt.GMean)
	assert.Equal(t, 1.0, opt.Sensitivity)
	assert.Equal(t, 1.0, opt.Specificity)
}

func TestROCInterleaved(t *testing.T) {
	curve, err := ROC([]float64{1, 2, 3, 4}, []bool{false, true, false, true})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, curve.AUC, 1e-12)
}

func TestROCDegenerate(t *testing.T) {
	_, err := ROC([]float64{1, 2}, []bool{true, true})
	assert.ErrorIs(t, err, ErrDegenerateClasses)

	_, err = ROC([]float64{1}, []bool{true, false})
	assert.Error(t, err)
}

func TestROCDoesNotReorderInputs(t *testing.T) {
	scores := []float64{3, 1, 2}
	labels := []bool{true, false, false}
	_, err := ROC(scores, labels)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, scores)
	assert.Equal(t, []bool{true, false, false}, labels)
}

func TestSimulationVulnerability(t *testing.T) {
	rec := SimulationRecord{Subject: "PEG0005", SupRight: 62, InfRight: 55, SupLeft: 48, InfLeft: 51}

	left := SimulationVulnerability(rec, Left, 50)
	assert.Equal(t, 48.0, left.Ipsi)
	assert.True(t, left.Vulnerable)

	right := SimulationVulnerability(rec, Right, 50)
	assert.Equal(t, 55.0, right.Ipsi)
	assert.False(t, right.Vulnerable)
}

func TestPerfusionVulnerability(t *testing.T) {
	wide := wideFixture(map[string][2]float64{
		"PEG0005": {8.4, 6.0},
		"PEG0006": {6.2, 6.0},
	}, []string{"PEG0005", "PEG0006"})

	out, err := PerfusionVulnerability(wide, ipsiCol, contraCol, 1.387)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 1.4, out[0].Relative, 1e-12)
	assert.True(t, out[0].Vulnerable)
	assert.False(t, out[1].Vulnerable)

	_, err = PerfusionVulnerability(wide, "nope", contraCol, 1.387)
	assert.Error(t, err)

	wide.Rows[1].Cells[1] = models.Cell{}
	_, err = PerfusionVulnerability(wide, ipsiCol, contraCol, 1.387)
	assert.ErrorContains(t, err, "PEG0006")
}

func TestLoadSimulationAndStenosis(t *testing.T) {
	sim := "ID;M2 sup R;M2 inf R;M2 sup L;M2 inf L\n" +
		"PEG_005;62,5;55;48;51\n" +
		"PEG_006;70;71;69;72\n"
	opts := TableOptions{Delimiter: ';', DecimalComma: true, NormalizeIDs: true}

	recs, err := LoadSimulation(strings.NewReader(sim), opts, DefaultSimulationColumns())
	require.NoError(t, err)
	require.Contains(t, recs, "PEG0005")
	assert.Equal(t, 62.5, recs["PEG0005"].SupRight)
	assert.Equal(t, 72.0, recs["PEG0006"].InfLeft)

	sides, err := LoadStenosis(strings.NewReader("ID;Stenosis_L0_R1\nPEG_005;0\nPEG_006;1\n"), opts, "Stenosis_L0_R1")
	require.NoError(t, err)
	assert.Equal(t, map[string]Side{"PEG0005": Left, "PEG0006": Right}, sides)

	_, err = LoadStenosis(strings.NewReader("ID;Stenosis_L0_R1\nPEG_005;2\n"), opts, "Stenosis_L0_R1")
	assert.Error(t, err)

	_, err = LoadSimulation(strings.NewReader("ID;x\nPEG_005;1\n"), opts, DefaultSimulationColumns())
	assert.ErrorContains(t, err, "not found")
}

func evaluationFixture() Inputs {
	order := []string{"PEG0001", "PEG0002", "PEG0003", "PEG0004"}
	wide := wideFixture(map[string][2]float64{
		"PEG0001": {9.0, 6.0}, // 1.5, vulnerable
		"PEG0002": {8.5, 6.0}, // 1.4167, vulnerable
		"PEG0003": {6.3, 6.0}, // 1.05
		"PEG0004": {6.0, 6.0}, // 1.0
	}, order)
	return Inputs{
		Wide: wide,
		Simulation: map[string]SimulationRecord{
			"PEG0001": {Subject: "PEG0001", SupLeft: 40, InfLeft: 45, SupRight: 70, InfRight: 70},
			"PEG0002": {Subject: "PEG0002", SupLeft: 70, InfLeft: 70, SupRight: 47, InfRight: 60},
			"PEG0003": {Subject: "PEG0003", SupLeft: 65, InfLeft: 66, SupRight: 70, InfRight: 70},
			"PEG0004": {Subject: "PEG0004", SupLeft: 49, InfLeft: 80, SupRight: 70, InfRight: 70},
		},
		Stenosis: map[string]Side{"PEG0001": Left, "PEG0002": Right, "PEG0003": Left, "PEG0004": Left},
	}
}

func evaluationParams() Params {
	return Params{
		RelativeThreshold:   1.387,
		SimulationThreshold: 50,
		Analyses:            []Analysis{{Name: "MCA_median", IpsiColumn: ipsiCol, ContraColumn: contraCol}},
	}
}

func TestEvaluate(t *testing.T) {
	reports, err := Evaluate(context.Background(), evaluationFixture(), evaluationParams())
	require.NoError(t, err)
	require.Len(t, reports, 1)

	r := reports[0]
	assert.Equal(t, "MCA_median", r.Name)
	// sim vulnerable: PEG0001 (40), PEG0002 (47), PEG0004 (49)
	assert.Equal(t, ConfusionMatrix{TN: 1, FP: 1, FN: 0, TP: 2}, r.Confusion)
	assert.Equal(t, 1.0, r.Scores.Sensitivity)
	assert.Equal(t, 0.5, r.Scores.Specificity)

	require.NotNil(t, r.Curve)
	// positives (not vulnerable) PEG0003 (65) and PEG0004 (49) against 40 and 47
	assert.InDelta(t, 1.0, r.Curve.AUC, 1e-12)
	assert.Equal(t, 49.0, r.Optimum.Threshold)
}

func TestEvaluateSubjectMismatch(t *testing.T) {
	in := evaluationFixture()
	delete(in.Simulation, "PEG0003")
	_, err := Evaluate(context.Background(), in, evaluationParams())
	assert.ErrorIs(t, err, ErrSubjectMismatch)

	in = evaluationFixture()
	delete(in.Stenosis, "PEG0004")
	_, err = Evaluate(context.Background(), in, evaluationParams())
	assert.ErrorIs(t, err, ErrSubjectMismatch)
}

func TestEvaluateSingleClassSkipsCurve(t *testing.T) {
	in := evaluationFixture()
	for i := range in.Wide.Rows {
		in.Wide.Rows[i].Cells[0].Value = 6.0
	}
	reports, err := Evaluate(context.Background(), in, evaluationParams())
	require.NoError(t, err)
	assert.Nil(t, reports[0].Curve)

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, reports))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], ",,,,,"), lines[1])

	buf.Reset()
	require.NoError(t, WriteCurves(&buf, reports))
	assert.Equal(t, "analysis,threshold,fpr,tpr,gmean\n", buf.String())
}

func TestWriteReports(t *testing.T) {
	reports, err := Evaluate(context.Background(), evaluationFixture(), evaluationParams())
	require.NoError(t, err)

	var results bytes.Buffer
	require.NoError(t, WriteResults(&results, reports))
	lines := strings.Split(strings.TrimSpace(results.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(ResultsHeader, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "MCA_median,1,1,0,2,0.75,1,0.5,"), lines[1])

	var subjects bytes.Buffer
	require.NoError(t, WriteSubjects(&subjects, reports))
	lines = strings.Split(strings.TrimSpace(subjects.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "PEG0001,MCA_median,9,6,1.5,true,L,40,true", lines[1])

	var curves bytes.Buffer
	require.NoError(t, WriteCurves(&curves, reports))
	assert.Equal(t, "analysis,threshold,fpr,tpr,gmean\n"+
		"MCA_median,+Inf,0,0,0\n"+
		"MCA_median,65,0,0.5,0.7071067811865476\n"+
		"MCA_median,49,0,1,1\n"+
		"MCA_median,47,0.5,1,0.7071067811865476\n"+
		"MCA_median,40,1,1,0\n", curves.String())
}
