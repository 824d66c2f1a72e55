package stats

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoSaveAndReport_SavesAndReportsRun(t *testing.T) {
	inv := newInvocations(t)
	s := inv.open("record", "n_points", "15")

	var out bytes.Buffer
	op := s.AutoSaveAndReport("record", func(context.Context) error {
		return s.Set("n_points", mustStat(t, 15))
	}, ReportTo(&out))
	require.NoError(t, op(context.Background()))

	assert.Equal(t, "record", s.Runs()[0].Subtitle)
	assert.Contains(t, out.String(), "Stats from arrhenius run 1:\n")
	assert.Contains(t, out.String(), "n_points")
	assert.NotContains(t, out.String(), "Table of runs")

	reopened := inv.open()
	_, err := reopened.Get("n_points")
	assert.NoError(t, err)
}

func TestAutoSaveAndReport_FaultSkipsSave(t *testing.T) {
	inv := newInvocations(t)
	s := inv.open("record")
	require.NoError(t, s.Set("n_points", mustStat(t, 15)))
	require.NoError(t, s.Save())
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	s = inv.open("combine")
	boom := errors.New("rate file missing")
	var out bytes.Buffer
	op := s.AutoSaveAndReport("combine", func(context.Context) error {
		require.NoError(t, s.Set("T_min", mustStat(t, 190.0)))
		return boom
	}, ReportTo(&out))

	err = op(context.Background())
	assert.Same(t, boom, err)
	assert.Empty(t, out.String())

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAutoSaveAndReport_NoReport(t *testing.T) {
	inv := newInvocations(t)
	s := inv.open("record")

	var out bytes.Buffer
	op := s.AutoSaveAndReport("record", func(context.Context) error {
		return s.Set("n_points", mustStat(t, 15))
	}, ReportTo(&out), NoReport())
	require.NoError(t, op(context.Background()))
	assert.Empty(t, out.String())
	assert.FileExists(t, s.Path())
}

func TestAutoSaveAndReport_ReadOnlyStore(t *testing.T) {
	inv := newInvocations(t)
	s := inv.openSession(NewSession(inv.clock.Next(), nil), Options{ReadOnly: true})
	op := s.AutoSaveAndReport("record", func(context.Context) error { return nil })
	assert.ErrorIs(t, op(context.Background()), ErrReadOnly)
}
