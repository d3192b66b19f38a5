package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"perfvoi/pkg/config"
)

const (
	cbvFolder = "34_DSC_C_CBV_reor_coreg_gm_VOI_avg"
	mttFolder = "37_DSC_parametric_MTT_reor_coreg_gm_VOI_avg"
)

// studyFixture lays out a results root for two subjects and writes a
// configuration pointing at it
func studyFixture(t *testing.T) (configPath string, cfg *config.Config) {
	t.Helper()
	return studyFixtureWithMasks(t, "MCA_contra", "MCA_ipsi")
}

// studyFixtureWithMasks is studyFixture with the given contra and ipsi
// mask folder names
func studyFixtureWithMasks(t *testing.T, contra, ipsi string) (configPath string, cfg *config.Config) {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "run_results")

	values := map[string]map[string]string{
		"PEG0001": {contra: "6", ipsi: "9"},
		"PEG0002": {contra: "6", ipsi: "6"},
	}
	for _, region := range []string{cbvFolder, mttFolder} {
		for subject, masks := range values {
			for mask, v := range masks {
				p := filepath.Join(root, region, subject, mask, "average.txt")
				require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
				require.NoError(t, os.WriteFile(p, []byte(v+"\n"), 0644))
			}
		}
	}

	sim := filepath.Join(dir, "simulation.csv")
	require.NoError(t, os.WriteFile(sim, []byte(
		"ID;M2 sup R;M2 inf R;M2 sup L;M2 inf L\n"+
			"PEG_001;60;70;40;45\n"+
			"PEG_002;55;65;70;75\n"), 0644))
	sten := filepath.Join(dir, "stenosis.csv")
	require.NoError(t, os.WriteFile(sten, []byte(
		"ID;Stenosis_L0_R1\nPEG0002;0\nPEG0001;0\n"), 0644))

	cfg = config.DefaultConfig()
	cfg.Aggregation.ResultsRoot = root
	cfg.Aggregation.Subjects = []string{"PEG0001", "PEG0002"}
	cfg.Aggregation.RegionFolders = []string{cbvFolder, mttFolder}
	cfg.Evaluation.SimulationFile = sim
	cfg.Evaluation.StenosisFile = sten

	configPath = filepath.Join(dir, "perfvoi.yaml")
	require.NoError(t, config.SaveConfig(cfg, configPath))
	return configPath, cfg
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestAggregateThenEvaluate(t *testing.T) {
	configPath, cfg := studyFixture(t)

	_, err := run(t, "aggregate", "--config", configPath, "--xlsx", "all_averages.xlsx")
	require.NoError(t, err)

	outDir := cfg.OutputDir()
	wide := readLines(t, filepath.Join(outDir, "all_averages_nice.csv"))
	assert.Equal(t, []string{
		"subject,DSC_C_CBV_reor_avg_MCA_contra,DSC_C_CBV_reor_avg_MCA_ipsi," +
			"DSC_parametric_MTT_reor_avg_MCA_contra,DSC_parametric_MTT_reor_avg_MCA_ipsi",
		"PEG0001,6,9,6,9",
		"PEG0002,6,6,6,6",
	}, wide)

	long := readLines(t, filepath.Join(outDir, "all_averages.csv"))
	require.Len(t, long, 9)
	assert.Equal(t, "subject,region_value,value", long[0])
	assert.Equal(t, "PEG0001,"+cbvFolder+"_MCA_contra,6", long[1])

	book, err := excelize.OpenFile(filepath.Join(outDir, "all_averages.xlsx"))
	require.NoError(t, err)
	defer book.Close()
	assert.Equal(t, []string{"wide", "long"}, book.GetSheetList())

	_, err = run(t, "evaluate", "--config", configPath)
	require.NoError(t, err)

	results := readLines(t, filepath.Join(outDir, "statistics_results.csv"))
	require.Len(t, results, 2)
	assert.Equal(t, "MCA_median,1,0,0,1,1,1,1,1,1,1,70,1,1,1", results[1])

	subjects := readLines(t, filepath.Join(outDir, "statistics_subjects.csv"))
	assert.Equal(t, []string{
		"subject,analysis,ipsi,contra,relative,perf_vuln,stenosis_side,m2_ipsi,sim_vuln",
		"PEG0001,MCA_median,9,6,1.5,true,L,40,true",
		"PEG0002,MCA_median,6,6,1,false,L,70,false",
	}, subjects)

	summary := readLines(t, filepath.Join(outDir, "statistics_describe.csv"))
	require.Len(t, summary, 5)
	assert.Equal(t, "DSC_parametric_MTT_reor_avg_MCA_ipsi,2,7.5,2.1213203435596424,6,6,9", summary[4])

	roc := readLines(t, filepath.Join(outDir, "statistics_roc.csv"))
	assert.Equal(t, []string{
		"analysis,threshold,fpr,tpr,gmean",
		"MCA_median,+Inf,0,0,0",
		"MCA_median,70,0,1,1",
		"MCA_median,40,1,1,0",
	}, roc)
}

func TestAggregateThenEvaluateDatasinkMaskFolders(t *testing.T) {
	configPath, cfg := studyFixtureWithMasks(t, "_MCA_contra", "_MCA_ipsi")

	_, err := run(t, "aggregate", "--config", configPath)
	require.NoError(t, err)

	outDir := cfg.OutputDir()
	wide := readLines(t, filepath.Join(outDir, "all_averages_nice.csv"))
	assert.Equal(t, "subject,DSC_C_CBV_reor_avg_MCA_contra,DSC_C_CBV_reor_avg_MCA_ipsi,"+
		"DSC_parametric_MTT_reor_avg_MCA_contra,DSC_parametric_MTT_reor_avg_MCA_ipsi", wide[0])

	_, err = run(t, "evaluate", "--config", configPath)
	require.NoError(t, err)

	results := readLines(t, filepath.Join(outDir, "statistics_results.csv"))
	require.Len(t, results, 2)
	assert.Equal(t, "MCA_median,1,0,0,1,1,1,1,1,1,1,70,1,1,1", results[1])
}

func TestAggregateRejectsCollidingOutputNames(t *testing.T) {
	configPath, cfg := studyFixture(t)

	_, err := run(t, "aggregate", "--config", configPath, "--xlsx", "all_averages.csv")
	assert.ErrorContains(t, err, "output.longFile and output.xlsxFile both write all_averages.csv")
	_, statErr := os.Stat(cfg.OutputDir())
	assert.True(t, os.IsNotExist(statErr))

	cfg.Output.XLSXFile = cfg.Output.WideFile
	require.NoError(t, config.SaveConfig(cfg, configPath))
	_, err = run(t, "aggregate", "--config", configPath)
	assert.ErrorContains(t, err, "both write all_averages_nice.csv")
}

func TestAggregateFailureWritesNothing(t *testing.T) {
	configPath, cfg := studyFixture(t)
	bad := filepath.Join(cfg.Aggregation.ResultsRoot, mttFolder, "PEG0002", "MCA_ipsi", "average.txt")
	require.NoError(t, os.WriteFile(bad, []byte("abc"), 0644))

	_, err := run(t, "aggregate", "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PEG0002")

	_, statErr := os.Stat(cfg.OutputDir())
	assert.True(t, os.IsNotExist(statErr))
}

func TestAggregateFlagsOverrideConfig(t *testing.T) {
	configPath, _ := studyFixture(t)
	out := t.TempDir()

	_, err := run(t, "aggregate", "--config", configPath, "--subjects", "PEG0002", "--output-dir", out)
	require.NoError(t, err)

	wide := readLines(t, filepath.Join(out, "all_averages_nice.csv"))
	require.Len(t, wide, 2)
	assert.True(t, strings.HasPrefix(wide[1], "PEG0002,"))
}

func TestEvaluateNeedsSimulationInputs(t *testing.T) {
	configPath, _ := studyFixture(t)
	_, err := run(t, "aggregate", "--config", configPath)
	require.NoError(t, err)

	_, err = run(t, "evaluate", "--config", configPath, "--simulation", "")
	assert.ErrorContains(t, err, "evaluation.simulationFile")
}

func TestPlanPrintsYAML(t *testing.T) {
	configPath, _ := studyFixture(t)

	out, err := run(t, "plan", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "name: avg_07")
	assert.Contains(t, out, "sink: 37_DSC_parametric_MTT_reor_coreg_gm_VOI_avg")
	assert.Contains(t, out, "- PEG0001")
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perfvoi.yaml")

	out, err := run(t, "init-config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, err = run(t, "init-config", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "init-config", "--force", path)
	assert.NoError(t, err)
}

func TestInvalidConfigIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perfvoi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aggregation:\n  subjects: []\n"), 0644))

	_, err := run(t, "aggregate", "--config", path)
	assert.ErrorContains(t, err, "aggregation.subjects is empty")
}
