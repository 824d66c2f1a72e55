package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/svante/internal/archive"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Textfile string
}

// ExportResult is the structured output of the export command.
type ExportResult struct {
	ExportID string `json:"export_id,omitempty" yaml:"export_id,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty"`
	Stats    int    `json:"stats" yaml:"stats"`
	Runs     int    `json:"runs" yaml:"runs"`
}

func (r ExportResult) String() string {
	s := fmt.Sprintf("Exported %d stats from %d runs", r.Stats, r.Runs)
	if r.Database != "" {
		s += fmt.Sprintf("\n  database: %s (export %s)", r.Database, r.ExportID)
	}
	if r.Textfile != "" {
		s += fmt.Sprintf("\n  textfile: %s", r.Textfile)
	}
	return s
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stats ledger",
		Long: `Export the stats ledger to a SQLite database and/or a Prometheus textfile.

The database export upserts runs and stats, so repeated exports of the same
ledger are idempotent; every export is logged with a time-ordered id. The
textfile holds svante_stat_value, svante_stat_uncertainty, and svante_runs
gauges for the node_exporter textfile collector.

Example:
  svante export --db ledger.db
  svante export --prom /var/lib/node_exporter/svante.prom`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportLedger(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Textfile, "prom", "", "path to Prometheus textfile")
	cmd.MarkFlagsOneRequired("db", "prom")

	return cmd
}

func exportLedger(opts *ExportOptions, cmd *cobra.Command) error {
	store, err := openStore(opts.RootOptions, true)
	if err != nil {
		return err
	}
	snap, err := store.Snapshot(0)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read stats", err)
	}
	result := ExportResult{Stats: len(snap.Stats), Runs: len(snap.Runs)}

	if opts.Database != "" {
		db, err := archive.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		id, err := db.WriteSnapshot(commandContext(cmd), snap)
		if err != nil {
			return WrapExitError(ExitFailure, "database export failed", err)
		}
		slog.Debug("ledger exported", "db", opts.Database, "export_id", id)
		result.Database = opts.Database
		result.ExportID = id
	}

	if opts.Textfile != "" {
		if err := archive.WriteTextfile(opts.Textfile, snap); err != nil {
			return WrapExitError(ExitFailure, "textfile export failed", err)
		}
		result.Textfile = opts.Textfile
	}

	return formatter(opts.RootOptions, cmd).Success(result)
}
