package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/svante/internal/stats"
)

// WriteSnapshot upserts the runs and stats of snap in one transaction and
// logs the export. It returns the export id.
func (a *Archive) WriteSnapshot(ctx context.Context, snap stats.Snapshot) (string, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	for _, run := range snap.Runs {
		if err := writeRun(ctx, tx, snap.Namespace, run); err != nil {
			return "", err
		}
	}
	for seq, st := range snap.Stats {
		if err := writeStat(ctx, tx, snap.Namespace, seq, st); err != nil {
			return "", err
		}
	}

	id := uuid.Must(uuid.NewV7()).String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO exports (id, namespace, run_no, stat_count, run_count, exported_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, snap.Namespace, snap.RunNo, len(snap.Stats), len(snap.Runs),
		a.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("write snapshot: export: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write snapshot: commit: %w", err)
	}
	return id, nil
}

func writeRun(ctx context.Context, tx *sql.Tx, namespace string, run stats.RunRecord) error {
	command := run.Command
	if command == nil {
		command = []string{}
	}
	commandJSON, err := json.Marshal(command)
	if err != nil {
		return fmt.Errorf("write run %d: %w", run.RunNo, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (namespace, run_no, start_time, command, subtitle)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, run_no) DO UPDATE SET
			start_time = excluded.start_time,
			command = excluded.command,
			subtitle = excluded.subtitle
	`, namespace, run.RunNo, run.StartTime, string(commandJSON), run.Subtitle)
	if err != nil {
		return fmt.Errorf("write run %d: %w", run.RunNo, err)
	}
	return nil
}

func writeStat(ctx context.Context, tx *sql.Tx, namespace string, seq int, st stats.StatView) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO stats (namespace, name, seq, value, kind, uncertainty, units, description, run_no, display)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, name) DO UPDATE SET
			seq = excluded.seq,
			value = excluded.value,
			kind = excluded.kind,
			uncertainty = excluded.uncertainty,
			units = excluded.units,
			description = excluded.description,
			run_no = excluded.run_no,
			display = excluded.display
	`, namespace, st.Name, seq, st.Value, string(st.Kind), st.Uncertainty,
		nullString(st.Units), nullString(st.Description), st.RunNo, st.Display)
	if err != nil {
		return fmt.Errorf("write stat %q: %w", st.Name, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
