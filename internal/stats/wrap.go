package stats

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Operation is a unit of business logic that records stats into a store.
type Operation func(ctx context.Context) error

type wrapConfig struct {
	report bool
	out    io.Writer
}

// WrapOption configures AutoSaveAndReport.
type WrapOption func(*wrapConfig)

// ReportTo sends the post-run report to w. A nil writer disables the report.
func ReportTo(w io.Writer) WrapOption {
	return func(c *wrapConfig) {
		c.out = w
		c.report = w != nil
	}
}

// NoReport saves without printing the run report.
func NoReport() WrapOption {
	return func(c *wrapConfig) { c.report = false }
}

// AutoSaveAndReport returns op wrapped so that the current run is labelled
// subtitle before op runs, and the store is saved and the current run is
// reported after op succeeds. An error from op is returned unchanged and
// nothing is saved or reported.
func (s *Store) AutoSaveAndReport(subtitle string, op Operation, opts ...WrapOption) Operation {
	cfg := wrapConfig{report: true, out: os.Stdout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(ctx context.Context) error {
		s.StartRun(subtitle)
		if err := op(ctx); err != nil {
			return err
		}
		if err := s.Save(); err != nil {
			return err
		}
		if !cfg.report {
			return nil
		}
		s.ConfigureReport(ShowRunNo(-1))
		out, err := s.Report()
		if err != nil {
			return fmt.Errorf("report run %d: %w", s.runNo, err)
		}
		_, err = fmt.Fprint(cfg.out, out)
		return err
	}
}
