package stats

import (
	"os"
	"strings"
	"time"
)

// Session identifies one process invocation. It is captured once at process
// start and handed to every Store opened by that process; two stores opened
// with the same Session share a run number.
type Session struct {
	// StartTime is the wall-clock start in seconds since the Unix epoch.
	StartTime float64
	// Command is the process argument vector without the program name.
	Command []string
}

// NewSession builds a session from an explicit start time and arguments.
func NewSession(start time.Time, command []string) Session {
	cmd := make([]string, len(command))
	copy(cmd, command)
	return Session{
		StartTime: float64(start.UnixNano()) / 1e9,
		Command:   cmd,
	}
}

// CaptureSession records the current time and os.Args. Call it once, from
// main.
func CaptureSession() Session {
	return NewSession(time.Now(), os.Args[1:])
}

// RunRecord describes one invocation that touched a store.
type RunRecord struct {
	RunNo     int      `json:"run_no" yaml:"run_no"`
	StartTime float64  `json:"start_time" yaml:"start_time"`
	Command   []string `json:"command" yaml:"command"`
	Subtitle  string   `json:"subtitle" yaml:"subtitle"`
}

// Time returns StartTime as a time.Time.
func (r RunRecord) Time() time.Time {
	sec := int64(r.StartTime)
	nsec := int64((r.StartTime - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// CommandLine reconstructs the command as a shell-quoted string.
func (r RunRecord) CommandLine() string {
	quoted := make([]string, len(r.Command))
	for i, arg := range r.Command {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("@%+=:,./-_", r)
}
