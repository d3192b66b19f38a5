package main

import (
	"github.com/spf13/cobra"

	"perfvoi/internal/ctxlog"
	"perfvoi/pkg/pipeline"
	"perfvoi/pkg/tablefile"
)

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the perfusion workflow plan as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			plan, err := pipeline.BuildPlan(cfg.Run, cfg.Aggregation.Subjects, cfg.Pipeline.PerfusionMaps, cfg.Pipeline.MaskLabels)
			if err != nil {
				return err
			}
			data, err := plan.Encode()
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := tablefile.WriteFileAtomic(output, data); err != nil {
				return err
			}
			ctxlog.FromContext(ctx).Info("plan written", "path", output, "steps", len(plan.Steps))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the plan to this file instead of stdout")
	return cmd
}
