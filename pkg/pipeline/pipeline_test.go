package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"perfvoi/pkg/aggregation"
)

func TestRegionFoldersFollowOrdinals(t *testing.T) {
	folders := RegionFolders(DefaultPerfusionMaps())
	require.Len(t, folders, 12)
	assert.Equal(t, "33_DSC_TTP_reor_coreg_gm_VOI_avg", folders[0])
	assert.Equal(t, "34_DSC_C_CBV_reor_coreg_gm_VOI_avg", folders[1])
	assert.Equal(t, "37_DSC_parametric_MTT_reor_coreg_gm_VOI_avg", folders[4])
	assert.Equal(t, "44_DSC_sSVD_Tmax_reor_coreg_gm_VOI_avg", folders[11])
}

func TestSubstitutionsCoverEveryMapAndMask(t *testing.T) {
	maps := DefaultPerfusionMaps()
	labels := DefaultMaskLabels()
	rules := Substitutions(maps, labels)

	assert.Len(t, rules, len(preprocessingSubstitutions)+2*len(maps)*len(labels))

	rn, err := aggregation.NewRenamer(rules)
	require.NoError(t, err, "generated patterns must be unique")

	assert.Equal(t, "ACA_contra", rn.Rename("VOI_masking_100"))
	assert.Equal(t, "ACA_ipsi", rn.Rename("VOI_masking_11"))
	assert.Equal(t, "hemi_ipsi", rn.Rename("VOI_masking_117"))
	assert.Equal(t, "MCA_ipsi", rn.Rename("avg_073"))
	assert.Equal(t, "PEG0005", rn.Rename("_subject_id_PEG0005"))
	assert.Equal(t, "MPRAGE_reor", rn.Rename("MPRAGE_lps"))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(DefaultPerfusionMaps(), DefaultMaskLabels()))

	maps := DefaultPerfusionMaps()
	maps[1].Index = 0
	assert.Error(t, Validate(maps, DefaultMaskLabels()))

	maps = DefaultPerfusionMaps()
	maps[1].AverageOrdinal = maps[0].AverageOrdinal
	maps[1].MaskedOrdinal = maps[0].MaskedOrdinal
	maps[1].Image = maps[0].Image
	assert.Error(t, Validate(maps, DefaultMaskLabels()))

	assert.Error(t, Validate(DefaultPerfusionMaps(), []string{"ACA_ipsi", "ACA_ipsi"}))
	assert.Error(t, Validate(DefaultPerfusionMaps(), nil))
	assert.Error(t, Validate(nil, DefaultMaskLabels()))
}

func TestBuildPlanGeneratesOneGroupPerMap(t *testing.T) {
	maps := DefaultPerfusionMaps()
	plan, err := BuildPlan("run_01", []string{"PEG0005", "PEG0006"}, maps, DefaultMaskLabels())
	require.NoError(t, err)

	assert.Len(t, plan.Steps, len(preprocessingSteps())+3*len(maps))

	sel, ok := plan.Step("select_7")
	require.True(t, ok)
	assert.Equal(t, 7, sel.Params["index"])

	avg, ok := plan.Step("avg_07")
	require.True(t, ok)
	assert.Equal(t, "37_DSC_parametric_MTT_reor_coreg_gm_VOI_avg", avg.Sink)
	assert.Equal(t, []string{"VOI_masking_7.out_file", "maskimage_dsc_gm_voi.out_file"}, avg.Inputs)

	mask, ok := plan.Step("VOI_masking_0")
	require.True(t, ok)
	assert.Equal(t, "22_DSC_C_CBV_reor_coreg_gm_VOI", mask.Sink)
}

func TestBuildPlanRejectsEmptySubjects(t *testing.T) {
	_, err := BuildPlan("run_01", nil, DefaultPerfusionMaps(), DefaultMaskLabels())
	assert.Error(t, err)
}

func TestPlanEncode(t *testing.T) {
	plan, err := BuildPlan("run_01", []string{"PEG0005"}, DefaultPerfusionMaps()[:1], DefaultMaskLabels()[:2])
	require.NoError(t, err)

	data, err := plan.Encode()
	require.NoError(t, err)

	var decoded Plan
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "run_01", decoded.Name)
	assert.Equal(t, len(plan.Steps), len(decoded.Steps))
	assert.Equal(t, plan.Substitutions, decoded.Substitutions)
}
