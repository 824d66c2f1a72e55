package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/svante/internal/stats"
)

// Export is one row of the export log.
type Export struct {
	ID         string
	Namespace  string
	RunNo      int
	StatCount  int
	RunCount   int
	ExportedAt string
}

// ReadStats returns the archived stats of a namespace in report order: run
// ascending, then the order they were exported in.
//
// Returns an empty slice (not nil) if the namespace has no stats.
func (a *Archive) ReadStats(ctx context.Context, namespace string) ([]stats.StatView, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT name, value, kind, uncertainty, units, description, run_no, display
		FROM stats
		WHERE namespace = ?
		ORDER BY run_no ASC, seq ASC
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	out := []stats.StatView{}
	for rows.Next() {
		var (
			st          stats.StatView
			kind        string
			uncertainty sql.NullFloat64
			units, desc sql.NullString
		)
		if err := rows.Scan(&st.Name, &st.Value, &kind, &uncertainty, &units, &desc, &st.RunNo, &st.Display); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		st.Kind = stats.Kind(kind)
		if uncertainty.Valid {
			u := uncertainty.Float64
			st.Uncertainty = &u
		}
		st.Units = units.String
		st.Description = desc.String
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return out, nil
}

// ReadRuns returns the archived runs of a namespace ordered by run number.
//
// Returns an empty slice (not nil) if the namespace has no runs.
func (a *Archive) ReadRuns(ctx context.Context, namespace string) ([]stats.RunRecord, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT run_no, start_time, command, subtitle
		FROM runs
		WHERE namespace = ?
		ORDER BY run_no ASC
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := []stats.RunRecord{}
	for rows.Next() {
		var (
			run         stats.RunRecord
			commandJSON string
		)
		if err := rows.Scan(&run.RunNo, &run.StartTime, &commandJSON, &run.Subtitle); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(commandJSON), &run.Command); err != nil {
			return nil, fmt.Errorf("decode command of run %d: %w", run.RunNo, err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Exports returns the export log of a namespace, oldest first.
func (a *Archive) Exports(ctx context.Context, namespace string) ([]Export, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, namespace, run_no, stat_count, run_count, exported_at
		FROM exports
		WHERE namespace = ?
		ORDER BY id COLLATE BINARY ASC
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	out := []Export{}
	for rows.Next() {
		var e Export
		if err := rows.Scan(&e.ID, &e.Namespace, &e.RunNo, &e.StatCount, &e.RunCount, &e.ExportedAt); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return out, nil
}
