package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"perfvoi/internal/ctxlog"
	"perfvoi/pkg/config"
)

const defaultConfigPath = "perfvoi.yaml"

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "perfvoi",
		Short:         "Aggregate VOI perfusion averages and evaluate them against simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to YAML configuration")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newAggregateCmd(opts),
		newEvaluateCmd(opts),
		newPlanCmd(opts),
		newInitConfigCmd(opts),
	)
	return root
}

// load reads and validates the configuration and returns a context carrying
// the command logger
func (o *rootOptions) load(cmd *cobra.Command) (context.Context, *config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration %s: %w", o.configPath, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := ctxlog.New(cmd.ErrOrStderr(), o.verbose || cfg.Output.Verbose)
	logger.Debug("configuration loaded", "path", o.configPath, "run", cfg.Run)
	return ctxlog.WithLogger(ctx, logger), cfg, nil
}
