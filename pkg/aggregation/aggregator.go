// Package aggregation collects the averaged VOI intensities written by the
// perfusion workflow into long and wide tables.
//
// The input layout is results_root/<region_folder>/<subject>/<mask>/<file>,
// one scalar literal per file. A run either yields both tables or fails with
// one of the typed errors in this package; there is no partial output.
package aggregation

import (
	"context"
	"errors"
	"fmt"

	"perfvoi/internal/ctxlog"
	"perfvoi/internal/models"
)

// Params holds the inputs of one aggregation run
type Params struct {
	// ResultsRoot is the directory holding the region folders
	ResultsRoot string

	// Subjects are the subject IDs to include, in output row order.
	// Subjects found on disk but not listed here are ignored.
	Subjects []string

	// RegionFolders are walked in this order
	RegionFolders []string

	// Selector picks the value file inside a mask folder
	Selector Selector

	// Naming builds long keys and wide columns
	Naming Naming

	// AllowMissingColumns turns wide-table holes into empty cells instead
	// of an IncompleteRowError
	AllowMissingColumns bool
}

// Result is the output of a successful run
type Result struct {
	Long *models.LongTable
	Wide *models.WideTable
}

// Aggregator runs Discover, Extract, Aggregate and Materialize in sequence
type Aggregator struct {
	params *Params
}

// NewAggregator creates an aggregator for params
func NewAggregator(params *Params) *Aggregator {
	return &Aggregator{params: params}
}

// Process runs the complete aggregation
func (a *Aggregator) Process(ctx context.Context) (*Result, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	log := ctxlog.FromContext(ctx)
	p := a.params

	for _, r := range p.Naming.Renamer.Rules() {
		log.Debug("rename rule", "pattern", r.Pattern, "replacement", r.Replacement)
	}
	log.Info("discovering value files", "root", p.ResultsRoot, "regions", len(p.RegionFolders), "subjects", len(p.Subjects))
	matches, err := Discover(ctx, p.ResultsRoot, p.RegionFolders, p.Subjects, p.Selector)
	if err != nil {
		return nil, err
	}

	results := make([]models.ScalarResult, 0, len(matches))
	for _, m := range matches {
		r, err := Extract(m)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	log.Debug("values extracted", "count", len(results))

	long, err := BuildLongTable(results, p.Naming)
	if err != nil {
		return nil, err
	}
	wide, err := BuildWideTable(long, p.Subjects, p.Naming, p.AllowMissingColumns)
	if err != nil {
		return nil, err
	}

	log.Info("tables built", "long_rows", long.Len(), "wide_rows", len(wide.Rows), "columns", len(wide.Columns))
	return &Result{Long: long, Wide: wide}, nil
}

func (a *Aggregator) validate() error {
	p := a.params
	if p == nil {
		return errors.New("aggregation: nil params")
	}
	if p.ResultsRoot == "" {
		return errors.New("aggregation: results root not set")
	}
	if len(p.Subjects) == 0 {
		return errors.New("aggregation: no subjects requested")
	}
	if len(p.RegionFolders) == 0 {
		return errors.New("aggregation: no region folders requested")
	}
	if p.Selector == nil {
		return errors.New("aggregation: no value file selector")
	}
	if err := unique("subject", p.Subjects); err != nil {
		return err
	}
	return unique("region folder", p.RegionFolders)
}

func unique(what string, items []string) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it == "" {
			return fmt.Errorf("aggregation: empty %s", what)
		}
		if _, dup := seen[it]; dup {
			return fmt.Errorf("aggregation: %s %q listed twice", what, it)
		}
		seen[it] = struct{}{}
	}
	return nil
}
