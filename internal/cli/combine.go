package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/svante/internal/combine"
	"github.com/roach88/svante/internal/config"
	"github.com/roach88/svante/internal/stats"
)

// CombineOptions holds flags for the combine command.
type CombineOptions struct {
	*RootOptions
}

// NewCombineCommand creates the combine command.
func NewCombineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CombineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "combine <config.toml>",
		Short: "Combine rate files into one table",
		Long: `Combine tab-separated rate files into one table indexed by temperature.

The configuration lists the input files, the column holding temperature and
its uncertainty, and the rate columns to carry over. The combined table is
written to combined.filename and the point count and temperature range are
recorded as stats n_points, T_min, and T_max.

Example:
  svante combine rates.toml
  svante --namespace arrhenius combine rates.toml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return combineRates(opts, args[0], cmd)
		},
	}

	return cmd
}

func combineRates(opts *CombineOptions, configPath string, cmd *cobra.Command) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	store, err := openStore(opts.RootOptions, false)
	if err != nil {
		return err
	}

	out := formatter(opts.RootOptions, cmd)
	wrapOpts := []stats.WrapOption{stats.ReportTo(cmd.OutOrStdout())}
	if out.Structured() {
		wrapOpts = append(wrapOpts, stats.NoReport())
	}
	run := store.AutoSaveAndReport("combine", func(ctx context.Context) error {
		table, err := combine.Combine(ctx, cfg, combine.Options{
			Units:  opts.Units,
			Logger: opts.Logger,
		})
		if err != nil {
			return err
		}
		if err := table.WriteFile(cfg.Combined.Filename); err != nil {
			return err
		}
		slog.Info("combined table written", "path", cfg.Combined.Filename, "points", table.NPoints())
		return table.Record(store)
	}, wrapOpts...)

	if err := run(commandContext(cmd)); err != nil {
		return WrapExitError(ExitFailure, "combine failed", err)
	}

	if out.Structured() {
		snap, err := store.Snapshot(-1)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read stats", err)
		}
		return out.Success(snap)
	}
	return nil
}
