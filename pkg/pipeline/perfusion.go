// Package pipeline describes the external perfusion workflow as data.
//
// The workflow applies the same select, VOI-mask and average steps to each
// of twelve perfusion parameter maps. Instead of twelve hand-written node
// groups, a PerfusionMap descriptor is declared per map and the steps, the
// datasink folder names and the result-path substitutions are generated
// from the descriptor list. The workflow itself runs in an external engine;
// nothing here executes imaging tools.
package pipeline

import (
	"fmt"
	"sort"
)

// PerfusionMap describes one perfusion parameter map
type PerfusionMap struct {
	// Index is the position of the map in the co-registered image list
	Index int `yaml:"index"`

	// Image is the map name without the DSC_ prefix, e.g. "parametric_MTT"
	Image string `yaml:"image"`

	// MaskedOrdinal numbers the datasink folder of the VOI-masked map
	MaskedOrdinal int `yaml:"maskedOrdinal"`

	// AverageOrdinal numbers the datasink folder of the VOI averages
	AverageOrdinal int `yaml:"averageOrdinal"`
}

// MaskedFolder is the datasink folder holding the VOI-masked images
func (m PerfusionMap) MaskedFolder() string {
	return fmt.Sprintf("%02d_DSC_%s_reor_coreg_gm_VOI", m.MaskedOrdinal, m.Image)
}

// AverageFolder is the datasink folder holding the per-VOI averages. It is
// a region folder for aggregation.
func (m PerfusionMap) AverageFolder() string {
	return fmt.Sprintf("%02d_DSC_%s_reor_coreg_gm_VOI_avg", m.AverageOrdinal, m.Image)
}

// DefaultPerfusionMaps returns the twelve maps produced by the perfusion
// software, in image list order
func DefaultPerfusionMaps() []PerfusionMap {
	return []PerfusionMap{
		{Index: 0, Image: "C_CBV", MaskedOrdinal: 22, AverageOrdinal: 34},
		{Index: 1, Image: "TTP", MaskedOrdinal: 21, AverageOrdinal: 33},
		{Index: 2, Image: "oSVD_CBF", MaskedOrdinal: 27, AverageOrdinal: 39},
		{Index: 3, Image: "oSVD_MTT", MaskedOrdinal: 28, AverageOrdinal: 40},
		{Index: 4, Image: "oSVD_Tmax", MaskedOrdinal: 29, AverageOrdinal: 41},
		{Index: 5, Image: "parametric_CBF", MaskedOrdinal: 24, AverageOrdinal: 36},
		{Index: 6, Image: "parametric_CBV", MaskedOrdinal: 23, AverageOrdinal: 35},
		{Index: 7, Image: "parametric_MTT", MaskedOrdinal: 25, AverageOrdinal: 37},
		{Index: 8, Image: "parametric_Tmax", MaskedOrdinal: 26, AverageOrdinal: 38},
		{Index: 9, Image: "sSVD_CBF", MaskedOrdinal: 30, AverageOrdinal: 42},
		{Index: 10, Image: "sSVD_MTT", MaskedOrdinal: 31, AverageOrdinal: 43},
		{Index: 11, Image: "sSVD_Tmax", MaskedOrdinal: 32, AverageOrdinal: 44},
	}
}

// DefaultMaskLabels returns the VOI labels in mask file order
func DefaultMaskLabels() []string {
	return []string{
		"ACA_contra", "ACA_ipsi",
		"MCA_contra", "MCA_ipsi",
		"PCA_contra", "PCA_ipsi",
		"hemi_contra", "hemi_ipsi",
	}
}

// RegionFolders returns the average folders of maps ordered by ordinal,
// which is the column order of the aggregated tables
func RegionFolders(maps []PerfusionMap) []string {
	sorted := append([]PerfusionMap(nil), maps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AverageOrdinal < sorted[j].AverageOrdinal
	})
	out := make([]string, len(sorted))
	for i, m := range sorted {
		out[i] = m.AverageFolder()
	}
	return out
}

// Validate checks that maps and labels can generate unambiguous step names
// and substitutions
func Validate(maps []PerfusionMap, labels []string) error {
	if len(maps) == 0 {
		return fmt.Errorf("no perfusion maps")
	}
	if len(labels) == 0 || len(labels) > 10 {
		return fmt.Errorf("need between 1 and 10 mask labels, got %d", len(labels))
	}

	indices := make(map[int]bool, len(maps))
	folders := make(map[string]bool, 2*len(maps))
	for _, m := range maps {
		if m.Image == "" {
			return fmt.Errorf("perfusion map %d has no image name", m.Index)
		}
		if m.Index < 0 || indices[m.Index] {
			return fmt.Errorf("perfusion map index %d is negative or repeated", m.Index)
		}
		indices[m.Index] = true
		for _, f := range []string{m.MaskedFolder(), m.AverageFolder()} {
			if folders[f] {
				return fmt.Errorf("datasink folder %s used twice", f)
			}
			folders[f] = true
		}
	}

	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if l == "" {
			return fmt.Errorf("empty mask label")
		}
		if seen[l] {
			return fmt.Errorf("mask label %s repeated", l)
		}
		seen[l] = true
	}
	return nil
}
