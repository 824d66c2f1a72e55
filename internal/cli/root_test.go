package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/svante/internal/stats"
	"github.com/roach88/svante/internal/testutil"
)

// harness runs the CLI as a sequence of processes sharing one save dir.
type harness struct {
	t     *testing.T
	dir   string
	clock *testutil.Clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{t: t, dir: t.TempDir(), clock: testutil.NewClock()}
}

// run executes one svante invocation and returns stdout, stderr, and the
// command error.
func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	session := stats.NewSession(h.clock.Next(), append([]string{"svante"}, args...))
	opts := &RootOptions{Session: &session, Location: time.UTC}
	cmd := NewRootCommandWithOptions(opts)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--save-dir", h.dir, "--quiet"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "svante", cmd.Use)
	assert.Contains(t, cmd.Long, "_stats.json")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"stats", "record", "combine", "export", "version"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	tableFlag := cmd.PersistentFlags().Lookup("table-format")
	require.NotNil(t, tableFlag)
	assert.Equal(t, "rst", tableFlag.DefValue)

	nsFlag := cmd.PersistentFlags().Lookup("namespace")
	require.NotNil(t, nsFlag)
	assert.Equal(t, stats.DefaultNamespace, nsFlag.DefValue)
}

func TestRecordCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	recordCmd, _, err := cmd.Find([]string{"record"})
	require.NoError(t, err)

	for _, name := range []string{"uncert", "count", "units", "desc", "int", "define-unit"} {
		assert.NotNil(t, recordCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("--format", "xml", "stats")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "xml")
}

func TestRootCommand_InvalidTableFormat(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("--table-format", "fancy", "stats")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "fancy")
}

func TestRootCommand_VerboseAndQuiet(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("--verbose", "stats")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	stdout, _, err := h.run("version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "svante ")

	stdout, _, err = h.run("--format", "json", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"go_version"`)
}

func TestRootCommand_UnknownFlag(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("stats", "--bogus")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
