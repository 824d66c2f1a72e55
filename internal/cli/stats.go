package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/svante/internal/stats"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Name   string
	Run    int
	NoRuns bool
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print recorded stats",
		Long: `Print the stats ledger.

By default every stat is shown with the run that last set it, followed by the
table of runs. --run restricts the report to one run; negative values count
back from the latest run. --name prints a single stat.

Example:
  svante stats
  svante stats --run -1
  svante stats --name 'ΔH(k_D2O)'
  svante stats --format yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "print only this stat")
	cmd.Flags().IntVar(&opts.Run, "run", 0, "print only stats of this run (negative counts back from the latest)")
	cmd.Flags().BoolVar(&opts.NoRuns, "no-runs", false, "omit the Run column and the table of runs")

	return cmd
}

func printStats(opts *StatsOptions, cmd *cobra.Command) error {
	store, err := openStore(opts.RootOptions, true)
	if err != nil {
		return err
	}
	out := formatter(opts.RootOptions, cmd)
	out.VerboseLog("Stats file: %s", store.Path())

	if opts.Name != "" {
		return printStat(opts, store, out)
	}

	if out.Structured() {
		snap, err := store.Snapshot(opts.Run)
		if err != nil {
			return runError(err)
		}
		return out.Success(snap)
	}

	store.ConfigureReport(stats.ShowRuns(!opts.NoRuns))
	if opts.Run != 0 {
		store.ConfigureReport(stats.ShowRunNo(opts.Run))
	}
	report, err := store.Report()
	if err != nil {
		return runError(err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), report)
	return err
}

func printStat(opts *StatsOptions, store *stats.Store, out *OutputFormatter) error {
	line, err := store.FormatStat(opts.Name)
	if err != nil {
		var nf *stats.StatNotFoundError
		if errors.As(err, &nf) {
			slog.Error("stat not found", "stat", nf.Name, "path", store.Path())
			w := out.GetErrWriter()
			fmt.Fprintln(w, "Known stats are:")
			for _, name := range nf.Known {
				fmt.Fprintf(w, "  %s\n", name)
			}
			return WrapExitError(ExitFailure, "stat not found", err)
		}
		return WrapExitError(ExitCommandError, "failed to format stat", err)
	}

	if !out.Structured() {
		return out.Success(line)
	}
	snap, err := store.Snapshot(0)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read stats", err)
	}
	for _, view := range snap.Stats {
		if view.Name == opts.Name {
			return out.Success(view)
		}
	}
	return out.Success(line)
}

// runError maps report errors to exit codes.
func runError(err error) error {
	var rnf *stats.RunNotFoundError
	if errors.As(err, &rnf) {
		return WrapExitError(ExitFailure, "run not found", err)
	}
	return WrapExitError(ExitCommandError, "failed to render stats", err)
}
