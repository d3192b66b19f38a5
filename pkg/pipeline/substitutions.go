package pipeline

import (
	"fmt"
	"sort"

	"perfvoi/pkg/aggregation"
)

// preprocessingSubstitutions rename the datasink paths of the
// preprocessing steps
var preprocessingSubstitutions = []aggregation.RenameRule{
	{Pattern: "_subject_id_", Replacement: ""},
	{Pattern: "_output", Replacement: "_NUC"},
	{Pattern: "_NUC_brain", Replacement: "_NUC_BET"},
	{Pattern: "_flirt", Replacement: "_coreg"},
	{Pattern: "_seg_0", Replacement: "_seg_csf"},
	{Pattern: "_seg_1", Replacement: "_seg_gm"},
	{Pattern: "_seg_2", Replacement: "_seg_wm"},
	{Pattern: "_lps", Replacement: "_reor"},
	{Pattern: "_masked", Replacement: ""},
}

// Substitutions returns the datasink substitution list: the fixed
// preprocessing renames followed by one rule per (map, mask) for the
// VOI masking and averaging map nodes. The generated rules are ordered
// longest pattern first so that "VOI_masking_100" is never shadowed by
// "VOI_masking_10".
func Substitutions(maps []PerfusionMap, labels []string) []aggregation.RenameRule {
	var generated []aggregation.RenameRule
	for _, m := range maps {
		for j, label := range labels {
			generated = append(generated,
				aggregation.RenameRule{Pattern: fmt.Sprintf("%s%d", maskStepName(m), j), Replacement: label},
				aggregation.RenameRule{Pattern: fmt.Sprintf("%s%d", averageStepName(m), j), Replacement: label},
			)
		}
	}
	sort.SliceStable(generated, func(i, j int) bool {
		return len(generated[i].Pattern) > len(generated[j].Pattern)
	})

	out := make([]aggregation.RenameRule, 0, len(preprocessingSubstitutions)+len(generated))
	out = append(out, preprocessingSubstitutions...)
	return append(out, generated...)
}

// ColumnRules are the rename rules for aggregated column names
func ColumnRules() []aggregation.RenameRule {
	return []aggregation.RenameRule{{Pattern: "_coreg_gm_VOI", Replacement: ""}}
}

func selectStepName(m PerfusionMap) string  { return fmt.Sprintf("select_%d", m.Index) }
func maskStepName(m PerfusionMap) string    { return fmt.Sprintf("VOI_masking_%d", m.Index) }
func averageStepName(m PerfusionMap) string { return fmt.Sprintf("avg_%02d", m.Index) }
