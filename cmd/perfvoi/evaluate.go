package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"perfvoi/internal/ctxlog"
	"perfvoi/pkg/evaluation"
	"perfvoi/pkg/tablefile"
)

func newEvaluateCmd(opts *rootOptions) *cobra.Command {
	var (
		wideFile            string
		simulationFile      string
		stenosisFile        string
		outputDir           string
		relativeThreshold   float64
		simulationThreshold float64
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score the hemodynamic simulation against perfusion imaging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("wide") {
				cfg.Evaluation.WideFile = wideFile
			}
			if flags.Changed("simulation") {
				cfg.Evaluation.SimulationFile = simulationFile
			}
			if flags.Changed("stenosis") {
				cfg.Evaluation.StenosisFile = stenosisFile
			}
			if flags.Changed("output-dir") {
				cfg.Output.Directory = outputDir
			}
			if flags.Changed("relative-threshold") {
				cfg.Evaluation.RelativeThreshold = relativeThreshold
			}
			if flags.Changed("simulation-threshold") {
				cfg.Evaluation.SimulationThreshold = simulationThreshold
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid options: %w", err)
			}
			if cfg.Evaluation.SimulationFile == "" || cfg.Evaluation.StenosisFile == "" {
				return errors.New("evaluate needs evaluation.simulationFile and evaluation.stenosisFile")
			}

			var in evaluation.Inputs
			topts := cfg.TableOptions()
			if err := readFile(cfg.EvaluationWideFile(), func(f *os.File) (err error) {
				in.Wide, err = tablefile.ReadWide(f)
				return err
			}); err != nil {
				return err
			}
			if err := readFile(cfg.Evaluation.SimulationFile, func(f *os.File) (err error) {
				in.Simulation, err = evaluation.LoadSimulation(f, topts, cfg.Evaluation.SimulationColumns)
				return err
			}); err != nil {
				return err
			}
			if err := readFile(cfg.Evaluation.StenosisFile, func(f *os.File) (err error) {
				in.Stenosis, err = evaluation.LoadStenosis(f, topts, cfg.Evaluation.StenosisColumn)
				return err
			}); err != nil {
				return err
			}

			reports, err := evaluation.Evaluate(ctx, in, cfg.EvaluationParams())
			if err != nil {
				return err
			}

			var results, subjects, summary, curves bytes.Buffer
			if err := evaluation.WriteResults(&results, reports); err != nil {
				return err
			}
			if err := evaluation.WriteSubjects(&subjects, reports); err != nil {
				return err
			}
			if err := evaluation.WriteSummary(&summary, evaluation.Describe(in.Wide)); err != nil {
				return err
			}
			if err := evaluation.WriteCurves(&curves, reports); err != nil {
				return err
			}

			log := ctxlog.FromContext(ctx)
			dir := cfg.OutputDir()
			for _, out := range []struct {
				name string
				data []byte
			}{
				{cfg.Evaluation.ResultsFile, results.Bytes()},
				{cfg.Evaluation.SubjectsFile, subjects.Bytes()},
				{cfg.Evaluation.SummaryFile, summary.Bytes()},
				{cfg.Evaluation.ROCFile, curves.Bytes()},
			} {
				if out.name == "" {
					continue
				}
				path := filepath.Join(dir, out.name)
				if err := tablefile.WriteFileAtomic(path, out.data); err != nil {
					return err
				}
				log.Info("evaluation written", "path", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&wideFile, "wide", "", "Wide table to evaluate (default: the aggregate output)")
	cmd.Flags().StringVar(&simulationFile, "simulation", "", "Hemodynamic simulation table")
	cmd.Flags().StringVar(&stenosisFile, "stenosis", "", "Side-of-stenosis table")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory, relative to the results root unless absolute")
	cmd.Flags().Float64Var(&relativeThreshold, "relative-threshold", 0, "Ipsi/contra MTT ratio marking vulnerability")
	cmd.Flags().Float64Var(&simulationThreshold, "simulation-threshold", 0, "M2 pressure in mmHg below which the simulation marks vulnerability")
	return cmd
}

func readFile(path string, read func(f *os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := read(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
