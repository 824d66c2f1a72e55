package archive

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/svante/internal/stats"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	fixed := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	a, err := Open(filepath.Join(t.TempDir(), "ledger.db"), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

// testSnapshot records two runs into a fresh ledger and snapshots it.
func testSnapshot(t *testing.T) stats.Snapshot {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	open := func(i int, command ...string) *stats.Store {
		session := stats.NewSession(start.Add(time.Duration(i)*time.Minute), command)
		s, err := stats.Open(stats.Options{Namespace: "arrhenius", SaveDir: dir, Session: &session, Logger: logger})
		require.NoError(t, err)
		return s
	}
	set := func(s *stats.Store, name string, v any, opts ...stats.Option) {
		st, err := stats.New(v, opts...)
		require.NoError(t, err)
		require.NoError(t, s.Set(name, st))
	}

	s := open(0, "combine", "rates.toml")
	s.StartRun("combine")
	set(s, "n_points", 15)
	set(s, "T_min", 190.0, stats.Units("K"), stats.Description("min temperature"))
	require.NoError(t, s.Save())

	s = open(1, "fit")
	s.StartRun("fit")
	set(s, "ΔH(k_D2O)", 77.0, stats.Uncertainty(2), stats.Units("kJ/mol"))
	require.NoError(t, s.Save())

	snap, err := s.Snapshot(0)
	require.NoError(t, err)
	return snap
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer a.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 3; i++ {
		a, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		a.Close()
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "ledger.db"))
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	a := &Archive{}
	assert.NoError(t, a.Close())
}

func TestPragmas(t *testing.T) {
	a := openTestArchive(t)
	tests := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"user_version": "1",
	}
	for name, want := range tests {
		got, err := a.pragma(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestWriteSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)
	snap := testSnapshot(t)

	id, err := a.WriteSnapshot(ctx, snap)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	gotStats, err := a.ReadStats(ctx, "arrhenius")
	require.NoError(t, err)
	assert.Equal(t, snap.Stats, gotStats)

	gotRuns, err := a.ReadRuns(ctx, "arrhenius")
	require.NoError(t, err)
	assert.Equal(t, snap.Runs, gotRuns)

	exports, err := a.Exports(ctx, "arrhenius")
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, Export{
		ID:         id,
		Namespace:  "arrhenius",
		RunNo:      2,
		StatCount:  3,
		RunCount:   2,
		ExportedAt: "2024-03-01T12:30:00Z",
	}, exports[0])
}

func TestWriteSnapshot_Idempotent(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)
	snap := testSnapshot(t)

	first, err := a.WriteSnapshot(ctx, snap)
	require.NoError(t, err)
	second, err := a.WriteSnapshot(ctx, snap)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	gotStats, err := a.ReadStats(ctx, "arrhenius")
	require.NoError(t, err)
	assert.Len(t, gotStats, 3)
	gotRuns, err := a.ReadRuns(ctx, "arrhenius")
	require.NoError(t, err)
	assert.Len(t, gotRuns, 2)

	exports, err := a.Exports(ctx, "arrhenius")
	require.NoError(t, err)
	require.Len(t, exports, 2)
	// UUIDv7 ids sort in export order.
	assert.Equal(t, first, exports[0].ID)
	assert.Equal(t, second, exports[1].ID)
}

func TestWriteSnapshot_UpdatesStats(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)
	snap := testSnapshot(t)
	_, err := a.WriteSnapshot(ctx, snap)
	require.NoError(t, err)

	snap.Stats[0].Value = 16
	snap.Stats[0].Display = "16"
	_, err = a.WriteSnapshot(ctx, snap)
	require.NoError(t, err)

	gotStats, err := a.ReadStats(ctx, "arrhenius")
	require.NoError(t, err)
	assert.Equal(t, 16.0, gotStats[0].Value)
	assert.Equal(t, "16", gotStats[0].Display)
}

func TestRead_UnknownNamespace(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)

	gotStats, err := a.ReadStats(ctx, "nope")
	require.NoError(t, err)
	assert.NotNil(t, gotStats)
	assert.Empty(t, gotStats)

	gotRuns, err := a.ReadRuns(ctx, "nope")
	require.NoError(t, err)
	assert.NotNil(t, gotRuns)
	assert.Empty(t, gotRuns)
}

func TestWriteSnapshot_Canceled(t *testing.T) {
	a := openTestArchive(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.WriteSnapshot(ctx, testSnapshot(t))
	assert.Error(t, err)
}

func TestWriteTextfile(t *testing.T) {
	snap := testSnapshot(t)
	path := filepath.Join(t.TempDir(), "svante.prom")
	require.NoError(t, WriteTextfile(path, snap))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "# TYPE svante_stat_value gauge")
	assert.Contains(t, text, `svante_stat_value{name="n_points",namespace="arrhenius",run="1",units=""} 15`)
	assert.Contains(t, text, `svante_stat_value{name="T_min",namespace="arrhenius",run="1",units="K"} 190`)
	assert.Contains(t, text, `svante_stat_uncertainty{name="ΔH(k_D2O)",namespace="arrhenius",run="2",units="kJ/mol"} 2`)
	assert.Contains(t, text, `svante_runs{namespace="arrhenius"} 2`)
	assert.Equal(t, 1, strings.Count(text, "svante_stat_uncertainty{"))
}
