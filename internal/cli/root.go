package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/svante/internal/stats"
	"github.com/roach88/svante/internal/table"
	"github.com/roach88/svante/internal/units"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Quiet       bool
	Format      string // "text" | "json" | "yaml"
	TableFormat string
	SaveDir     string
	Namespace   string
	LogStats    bool

	// Session identifies this process to the stats ledger. If nil, it is
	// captured when a store is first opened.
	Session *stats.Session
	// Units is the process-wide unit registry.
	Units *units.Registry
	// Location renders run times. Defaults to time.Local.
	Location *time.Location
	// Logger is configured from the verbosity flags before any command runs.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the svante CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around caller-provided
// options, so main and tests can supply the session and clock location.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	if opts.Units == nil {
		opts.Units = units.NewRegistry()
	}

	cmd := &cobra.Command{
		Use:   "svante",
		Short: "svante - Arrhenius rate statistics",
		Long: `Record, combine, and report measurements with uncertainties and units.

Every command that records stats appends a numbered run to the stats file
<save-dir>/<namespace>_stats.json and prints the stats of that run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if _, err := table.ParseFormat(opts.TableFormat); err != nil {
				return WrapExitError(ExitCommandError, "invalid --table-format", err)
			}
			if opts.Verbose && opts.Quiet {
				return NewExitError(ExitCommandError, "--verbose and --quiet are mutually exclusive")
			}
			opts.Logger = newLogger(cmd, opts)
			slog.SetDefault(opts.Logger)
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "only log errors")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	flags.StringVar(&opts.TableFormat, "table-format", string(table.DefaultFormat), "stats table style")
	flags.StringVar(&opts.SaveDir, "save-dir", ".", "directory holding the stats file")
	flags.StringVar(&opts.Namespace, "namespace", stats.DefaultNamespace, "stats file namespace")
	flags.BoolVar(&opts.LogStats, "log-stats", false, "log every stat as it is recorded")

	// Add subcommands
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewCombineCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// newLogger writes text records to the command's error stream.
func newLogger(cmd *cobra.Command, opts *RootOptions) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case opts.Verbose:
		level = slog.LevelDebug
	case opts.Quiet:
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// openStore opens the namespace's ledger with the global options.
func openStore(opts *RootOptions, readOnly bool) (*stats.Store, error) {
	session := opts.Session
	if session == nil {
		s := stats.CaptureSession()
		session = &s
		opts.Session = session
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store, err := stats.Open(stats.Options{
		Namespace:   opts.Namespace,
		SaveDir:     opts.SaveDir,
		Session:     session,
		Units:       opts.Units,
		Logger:      logger,
		TableFormat: table.Format(opts.TableFormat),
		Location:    opts.Location,
		LogStats:    opts.LogStats,
		Verbose:     opts.Verbose,
		ReadOnly:    readOnly,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open stats file", err)
	}
	return store, nil
}

// formatter builds the output formatter for a command.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
