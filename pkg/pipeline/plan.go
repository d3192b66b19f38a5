package pipeline

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"perfvoi/pkg/aggregation"
)

// Step is one node of the external workflow
type Step struct {
	Name   string                 `yaml:"name"`
	Tool   string                 `yaml:"tool"`
	Inputs []string               `yaml:"inputs,omitempty"`
	Params map[string]interface{} `yaml:"params,omitempty"`

	// Iterate lists the inputs the engine maps over
	Iterate []string `yaml:"iterate,omitempty"`

	// Sink is the datasink folder receiving the step output
	Sink string `yaml:"sink,omitempty"`
}

// Plan is the ordered workflow handed to the external engine
type Plan struct {
	Name          string                   `yaml:"name"`
	Subjects      []string                 `yaml:"subjects"`
	Steps         []Step                   `yaml:"steps"`
	Substitutions []aggregation.RenameRule `yaml:"substitutions"`
}

// BuildPlan lays out the preprocessing steps followed by one
// select/mask/average group per perfusion map
func BuildPlan(name string, subjects []string, maps []PerfusionMap, labels []string) (*Plan, error) {
	if err := Validate(maps, labels); err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		return nil, fmt.Errorf("plan %s: no subjects", name)
	}

	steps := preprocessingSteps()
	for _, m := range maps {
		steps = append(steps, mapSteps(m)...)
	}

	return &Plan{
		Name:          name,
		Subjects:      append([]string(nil), subjects...),
		Steps:         steps,
		Substitutions: Substitutions(maps, labels),
	}, nil
}

// Step returns the step called name
func (p *Plan) Step(name string) (Step, bool) {
	for _, s := range p.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// Encode renders the plan as YAML for the workflow engine
func (p *Plan) Encode() ([]byte, error) {
	return yaml.Marshal(p)
}

func preprocessingSteps() []Step {
	return []Step{
		{Name: "selectfiles", Tool: "io.SelectFiles", Params: map[string]interface{}{
			"MPRAGE":     "{subject_id}/MPRAGE.nii.gz",
			"DSC_Source": "{subject_id}/DSC_Source.nii.gz",
			"perf":       "{subject_id}/DSC_pgui*",
			"masks":      "{subject_id}/Masken_cut/*mask.nii.gz",
		}},
		{Name: "reorient_MPRAGE", Tool: "image.Reorient", Inputs: []string{"selectfiles.MPRAGE"},
			Params: map[string]interface{}{"orientation": "LPS"}, Sink: "01_MPRAGE_reor"},
		{Name: "NUC", Tool: "freesurfer.MNIBiasCorrection", Inputs: []string{"reorient_MPRAGE.out_file"},
			Params: biasCorrectionParams(), Sink: "02_MPRAGE_reor_NUC"},
		{Name: "BETnode_MPRAGE", Tool: "fsl.BET", Inputs: []string{"NUC.out_file"},
			Params: map[string]interface{}{"mask": true, "robust": true, "frac": 0.6, "output_type": "NIFTI_GZ"},
			Sink:   "03_MPRAGE_reor_NUC_BET"},
		{Name: "segmentation", Tool: "fsl.FAST", Inputs: []string{"BETnode_MPRAGE.out_file"},
			Params: map[string]interface{}{"no_bias": true, "segments": true, "output_type": "NIFTI_GZ"},
			Sink:   "05_MPRAGE_reor_NUC_BET_seg"},
		{Name: "extract_timeseries", Tool: "function.FirstTimepoint", Inputs: []string{"selectfiles.DSC_Source"},
			Sink: "07_DSC_Source_0"},
		{Name: "NUC_2", Tool: "freesurfer.MNIBiasCorrection", Inputs: []string{"extract_timeseries.out_file"},
			Params: biasCorrectionParams(), Sink: "08_DSC_Source_0_NUC"},
		{Name: "BETnode_DSC", Tool: "fsl.BET", Inputs: []string{"NUC_2.out_file"},
			Params: map[string]interface{}{"mask": true, "robust": true, "frac": 0.5, "output_type": "NIFTI_GZ"},
			Sink:   "09_DSC_Source_0_NUC_BET"},
		{Name: "fsl_reg", Tool: "fsl.FLIRT", Inputs: []string{"BETnode_MPRAGE.out_file", "BETnode_DSC.out_file"},
			Params: map[string]interface{}{"cost": "mutualinfo"}, Sink: "11_DSC_Source_0_NUC_BET_coreg"},
		{Name: "reorient_image", Tool: "image.Reorient", Inputs: []string{"selectfiles.perf"},
			Params: map[string]interface{}{"orientation": "LPS"}, Iterate: []string{"in_file"},
			Sink: "13_DSC_parametermaps_reor"},
		{Name: "applytransforms", Tool: "fsl.ApplyXFM", Inputs: []string{"reorient_image.out_file", "fsl_reg.out_matrix_file"},
			Params: map[string]interface{}{"apply_xfm": true}, Iterate: []string{"in_file"},
			Sink: "14_DSC_parametermaps_reor_coreg"},
		{Name: "reorient_VOI_masks", Tool: "image.Reorient", Inputs: []string{"selectfiles.masks"},
			Params: map[string]interface{}{"orientation": "LPS"}, Iterate: []string{"in_file"},
			Sink: "16_VOI_masks_reor"},
		{Name: "applytrans_dsc_mask", Tool: "fsl.ApplyXFM", Inputs: []string{"BETnode_DSC.mask_file", "fsl_reg.out_matrix_file"},
			Params: map[string]interface{}{"apply_xfm": true}, Sink: "17_DSC_mask_coreg"},
		{Name: "select_gm_mask", Tool: "utility.Select", Inputs: []string{"segmentation.tissue_class_files"},
			Params: map[string]interface{}{"index": 1}},
		{Name: "maskimage_dsc_gm", Tool: "fsl.ApplyMask", Inputs: []string{"applytrans_dsc_mask.out_file", "select_gm_mask.out"},
			Params: map[string]interface{}{"output_type": "NIFTI_GZ"}, Sink: "18_Double_mask_DSC_GM"},
		{Name: "maskimage_dsc_gm_voi", Tool: "fsl.ApplyMask", Inputs: []string{"reorient_VOI_masks.out_file", "maskimage_dsc_gm.out_file"},
			Params: map[string]interface{}{"output_type": "NIFTI_GZ"}, Iterate: []string{"in_file"},
			Sink: "19_Triple_mask_DSC_GM_VOI"},
	}
}

func biasCorrectionParams() map[string]interface{} {
	return map[string]interface{}{"iterations": 6, "protocol_iterations": 1000, "distance": 50}
}

// mapSteps is the select/mask/average group of one perfusion map
func mapSteps(m PerfusionMap) []Step {
	sel := selectStepName(m)
	mask := maskStepName(m)
	return []Step{
		{Name: sel, Tool: "utility.Select", Inputs: []string{"applytransforms.out_file"},
			Params: map[string]interface{}{"index": m.Index}},
		{Name: mask, Tool: "fsl.ApplyMask", Inputs: []string{sel + ".out", "maskimage_dsc_gm_voi.out_file"},
			Params: map[string]interface{}{"output_type": "NIFTI_GZ"}, Iterate: []string{"mask_file"},
			Sink: m.MaskedFolder()},
		{Name: averageStepName(m), Tool: "fsl.ImageMeants", Inputs: []string{mask + ".out_file", "maskimage_dsc_gm_voi.out_file"},
			Iterate: []string{"in_file", "mask"}, Sink: m.AverageFolder()},
	}
}
