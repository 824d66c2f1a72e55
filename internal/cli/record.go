package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/svante/internal/stats"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Uncertainty float64
	Count       bool
	Units       string
	Description string
	Int         bool
	DefineUnits []string
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <name> <value>",
		Short: "Record one stat in a new run",
		Long: `Record one stat in a new run, save the ledger, and print the run.

The value is recorded as an integer when it is written as one (or with
--int) and as a float otherwise. --count derives the uncertainty as the
square root of the value and cannot be combined with --uncert.

Example:
  svante record n_points 15
  svante record 'ΔH(k_D2O)' 77 --uncert 2 --units kJ/mol --desc 'activation enthalpy'
  svante record insert 1200 --uncert 30 --units basepairs --define-unit 'basepairs = [dimensionless] = bp'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return recordStat(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Uncertainty, "uncert", 0, "one-sigma uncertainty")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "value is a count; uncertainty is its square root")
	cmd.Flags().StringVar(&opts.Units, "units", "", "unit expression, e.g. kJ/mol")
	cmd.Flags().StringVar(&opts.Description, "desc", "", "description")
	cmd.Flags().BoolVar(&opts.Int, "int", false, "record the value as an integer")
	cmd.Flags().StringArrayVar(&opts.DefineUnits, "define-unit", nil, "define a unit, e.g. 'basepairs = [dimensionless] = bp' (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("uncert", "count")

	return cmd
}

// buildStat parses the value and applies the stat flags.
func buildStat(opts *RecordOptions, value string, uncertSet bool) (stats.Stat, error) {
	var v any
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		v = i
	} else {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return stats.Stat{}, fmt.Errorf("invalid value %q: not a number", value)
		}
		v = f
	}

	var statOpts []stats.Option
	if opts.Int {
		statOpts = append(statOpts, stats.AsKind(stats.KindInt))
	}
	if uncertSet {
		statOpts = append(statOpts, stats.Uncertainty(opts.Uncertainty))
	}
	if opts.Count {
		statOpts = append(statOpts, stats.Count())
	}
	if opts.Units != "" {
		statOpts = append(statOpts, stats.Units(opts.Units))
	}
	if opts.Description != "" {
		statOpts = append(statOpts, stats.Description(opts.Description))
	}
	return stats.New(v, statOpts...)
}

func recordStat(opts *RecordOptions, name, value string, cmd *cobra.Command) error {
	if strings.TrimSpace(name) == "" {
		return NewExitError(ExitCommandError, "stat name must not be empty")
	}
	st, err := buildStat(opts, value, cmd.Flags().Changed("uncert"))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid stat", err)
	}

	store, err := openStore(opts.RootOptions, false)
	if err != nil {
		return err
	}
	if err := store.DefineUnits(opts.DefineUnits); err != nil {
		return WrapExitError(ExitCommandError, "invalid unit definition", err)
	}

	out := formatter(opts.RootOptions, cmd)
	wrapOpts := []stats.WrapOption{stats.ReportTo(cmd.OutOrStdout())}
	if out.Structured() {
		wrapOpts = append(wrapOpts, stats.NoReport())
	}
	run := store.AutoSaveAndReport("record", func(context.Context) error {
		return store.Set(name, st)
	}, wrapOpts...)

	if err := run(commandContext(cmd)); err != nil {
		if stats.IsReservedKey(err) {
			return WrapExitError(ExitCommandError, "invalid stat name", err)
		}
		return WrapExitError(ExitFailure, "record failed", err)
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

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
