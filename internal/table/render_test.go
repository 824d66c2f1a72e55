package table

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	statHeaders = []string{"Name", "Value", "Units", "Run"}
	statRows    = [][]string{
		{"n_points", "15", "", "1"},
		{"T_min", "190", "K", "1"},
		{"ΔH(k_D2O)", "77±2", "kJ/mol", "2"},
		{"log A(k_D2O)", "22.5±0.4", "1/s", "12"},
	}
)

func TestRender_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			out := Render(f, statHeaders, statRows)
			g.Assert(t, "stats_"+string(f), []byte(out))
		})
	}
}

func TestRender_DoesNotMutateRows(t *testing.T) {
	rows := [][]string{{"a", "1.5"}, {"b", "22"}}
	_ = Render(Plain, []string{"k", "x"}, rows)
	assert.Equal(t, "22", rows[1][1])
}

func TestRender_DecimalAlignment(t *testing.T) {
	out := Render(Plain, []string{"k", "x"}, [][]string{
		{"a", "1.5"},
		{"b", "22"},
		{"c", "3.25"},
	})
	assert.Equal(t, "k        x\na     1.5 \nb    22   \nc     3.25", out)
}

func TestRender_ShortRowsArePadded(t *testing.T) {
	out := Render(Simple, []string{"a", "b"}, [][]string{{"only"}})
	assert.Equal(t, "a     b  \n----  ---\nonly     ", out)
}

func TestRender_EmptyBody(t *testing.T) {
	out := Render(RST, []string{"Name", "Value"}, nil)
	assert.Equal(t, "======  =======\nName    Value  \n======  =======\n======  =======", out)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, RST, f)

	for _, want := range Formats {
		got, err := ParseFormat(string(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = ParseFormat("fancy_outline")
	require.Error(t, err)
	var fmtErr *UnknownFormatError
	require.True(t, errors.As(err, &fmtErr))
	assert.Equal(t, "fancy_outline", fmtErr.Format)
	assert.Contains(t, err.Error(), "rst")
}

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 9, DisplayWidth("ΔH(k_D2O)"))
	assert.Equal(t, 4, DisplayWidth("漢字"))
	assert.Equal(t, 1, DisplayWidth("é"))
	assert.Equal(t, 0, DisplayWidth(""))
}
