package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"perfvoi/internal/ctxlog"
	"perfvoi/pkg/aggregation"
	"perfvoi/pkg/tablefile"
)

func newAggregateCmd(opts *rootOptions) *cobra.Command {
	var (
		resultsRoot  string
		subjects     []string
		outputDir    string
		xlsxFile     string
		allowMissing bool
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Collect VOI averages into long and wide CSV tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("results-root") {
				cfg.Aggregation.ResultsRoot = resultsRoot
			}
			if flags.Changed("subjects") {
				cfg.Aggregation.Subjects = subjects
			}
			if flags.Changed("output-dir") {
				cfg.Output.Directory = outputDir
			}
			if flags.Changed("xlsx") {
				cfg.Output.XLSXFile = xlsxFile
			}
			if flags.Changed("allow-missing") {
				cfg.Aggregation.AllowMissingColumns = allowMissing
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid options: %w", err)
			}
			params, err := cfg.AggregationParams()
			if err != nil {
				return err
			}
			res, err := aggregation.NewAggregator(params).Process(ctx)
			if err != nil {
				return err
			}

			// Encode everything before touching the output directory
			type output struct {
				name string
				data []byte
			}
			long, err := tablefile.EncodeLong(res.Long)
			if err != nil {
				return err
			}
			wide, err := tablefile.EncodeWide(res.Wide)
			if err != nil {
				return err
			}
			outputs := []output{{cfg.Output.LongFile, long}, {cfg.Output.WideFile, wide}}
			if cfg.Output.XLSXFile != "" {
				book, err := tablefile.EncodeWorkbook(res.Long, res.Wide)
				if err != nil {
					return err
				}
				outputs = append(outputs, output{cfg.Output.XLSXFile, book})
			}

			log := ctxlog.FromContext(ctx)
			dir := cfg.OutputDir()
			for _, out := range outputs {
				path := filepath.Join(dir, out.name)
				if err := tablefile.WriteFileAtomic(path, out.data); err != nil {
					return err
				}
				log.Info("table written", "path", path, "bytes", len(out.data))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&resultsRoot, "results-root", "", "Directory holding the region folders")
	cmd.Flags().StringSliceVar(&subjects, "subjects", nil, "Subject IDs in row order")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory, relative to the results root unless absolute")
	cmd.Flags().StringVar(&xlsxFile, "xlsx", "", "Also write both tables to this workbook file")
	cmd.Flags().BoolVar(&allowMissing, "allow-missing", false, "Write empty cells for missing columns")
	return cmd
}
