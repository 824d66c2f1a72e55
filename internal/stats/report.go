package stats

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/svante/internal/table"
)

// runTimeLayout renders run start times as a locale-style short date and
// time.
const runTimeLayout = "01/02/06 15:04:05"

type reportConfig struct {
	showRuns  bool
	showRunNo int
	verbose   bool
}

// ReportOption configures what Report renders.
type ReportOption func(*reportConfig)

// ShowRuns toggles the Run column and the table of runs in all-runs mode.
func ShowRuns(show bool) ReportOption {
	return func(c *reportConfig) { c.showRuns = show }
}

// ShowRunNo restricts the report to one run. Negative values count back from
// the current run, so -1 is the current run. Zero returns to all-runs mode.
func ShowRunNo(n int) ReportOption {
	return func(c *reportConfig) {
		c.showRunNo = n
		c.showRuns = n == 0
	}
}

// Verbose prefixes the report with the stats file path.
func Verbose(verbose bool) ReportOption {
	return func(c *reportConfig) { c.verbose = verbose }
}

// ConfigureReport applies report options. Options not given keep their
// current setting.
func (s *Store) ConfigureReport(opts ...ReportOption) {
	for _, opt := range opts {
		opt(&s.report)
	}
}

// SetTableFormat selects the stat table style by name. An empty name selects
// table.DefaultFormat.
func (s *Store) SetTableFormat(name string) error {
	f, err := table.ParseFormat(name)
	if err != nil {
		s.log.Error("unknown table format", "format", name, "valid", table.Formats)
		return err
	}
	s.tableFmt = f
	return nil
}

// resolveRun maps a possibly negative run request to a run number.
func (s *Store) resolveRun(requested int) (int, error) {
	runNo := requested
	if requested < 0 {
		runNo = requested + s.runNo + 1
	}
	if runNo < 1 || runNo > s.runNo {
		return 0, &RunNotFoundError{Requested: requested, RunNo: runNo, Latest: s.runNo}
	}
	return runNo, nil
}

// ordered returns stat names grouped by run ascending, insertion order
// within a run.
func (s *Store) ordered() []string {
	names := s.Names()
	slices.SortStableFunc(names, func(a, b string) int {
		return s.stats[a].runNo - s.stats[b].runNo
	})
	return names
}

// Report renders the store as configured by ConfigureReport.
func (s *Store) Report() (string, error) {
	cfg := s.report
	var b strings.Builder
	if cfg.verbose {
		fmt.Fprintf(&b, "Stats file: %q\n", s.path)
	}

	onlyRun := 0
	showRuns := cfg.showRuns
	if cfg.showRunNo != 0 {
		runNo, err := s.resolveRun(cfg.showRunNo)
		if err != nil {
			return "", err
		}
		onlyRun = runNo
		showRuns = false
		fmt.Fprintf(&b, "%s run %d:\n", s.title, runNo)
	} else {
		fmt.Fprintf(&b, "%s:\n", s.title)
	}

	headers := []string{"Name", "Value", "Units", "Description"}
	if showRuns {
		headers = append(headers, "Run")
	}
	var rows [][]string
	for _, name := range s.ordered() {
		st := s.stats[name]
		if onlyRun != 0 && st.runNo != onlyRun {
			continue
		}
		u, err := st.FormatUnits(s.reg)
		if err != nil {
			return "", fmt.Errorf("stat %q: %w", name, err)
		}
		row := []string{name, st.FormatValue(), u, st.FormatDesc()}
		if showRuns {
			row = append(row, strconv.Itoa(st.runNo))
		}
		rows = append(rows, row)
	}
	b.WriteString(table.Render(s.tableFmt, headers, rows))
	b.WriteByte('\n')

	if showRuns {
		b.WriteString("\nTable of runs:\n")
		b.WriteString(s.runTable())
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (s *Store) runTable() string {
	rows := make([][]string, 0, len(s.runs))
	for _, r := range s.runs {
		rows = append(rows, []string{
			strconv.Itoa(r.RunNo),
			r.Subtitle,
			`"` + r.CommandLine() + `"`,
			r.Time().In(s.loc).Format(runTimeLayout),
		})
	}
	return table.Render(table.Plain, []string{"Run", "Subtitle", "Command", "Date&Time"}, rows)
}

// String renders the report, or the rendering error.
func (s *Store) String() string {
	out, err := s.Report()
	if err != nil {
		return "error: " + err.Error()
	}
	return out
}

// FormatStat renders one stat as "<value> <units>".
func (s *Store) FormatStat(name string) (string, error) {
	st, err := s.Get(name)
	if err != nil {
		return "", err
	}
	return st.Format(s.reg)
}

// Snapshot is a plain view of the store for structured output and export.
type Snapshot struct {
	Namespace string      `json:"namespace" yaml:"namespace"`
	Title     string      `json:"title" yaml:"title"`
	RunNo     int         `json:"run_no" yaml:"run_no"`
	UnitDefs  []string    `json:"unit_defs" yaml:"unit_defs"`
	Runs      []RunRecord `json:"runs" yaml:"runs"`
	Stats     []StatView  `json:"stats" yaml:"stats"`
}

// StatView is one stat in a Snapshot. Display is the formatted
// "<value> <units>" rendering.
type StatView struct {
	Name        string   `json:"name" yaml:"name"`
	Value       float64  `json:"value" yaml:"value"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	Uncertainty *float64 `json:"uncertainty,omitempty" yaml:"uncertainty,omitempty"`
	Units       string   `json:"units,omitempty" yaml:"units,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	RunNo       int      `json:"run_no" yaml:"run_no"`
	Display     string   `json:"display" yaml:"display"`
}

// Snapshot returns the stats in report order together with the run history.
// A non-zero run restricts the stats to that run, as ShowRunNo does.
func (s *Store) Snapshot(run int) (Snapshot, error) {
	onlyRun := 0
	if run != 0 {
		runNo, err := s.resolveRun(run)
		if err != nil {
			return Snapshot{}, err
		}
		onlyRun = runNo
	}
	snap := Snapshot{
		Namespace: s.namespace,
		Title:     s.title,
		RunNo:     s.runNo,
		UnitDefs:  s.UnitDefs(),
		Runs:      s.Runs(),
		Stats:     []StatView{},
	}
	for _, name := range s.ordered() {
		st := s.stats[name]
		if onlyRun != 0 && st.runNo != onlyRun {
			continue
		}
		display, err := st.Format(s.reg)
		if err != nil {
			return Snapshot{}, fmt.Errorf("stat %q: %w", name, err)
		}
		view := StatView{
			Name:    name,
			Value:   st.value,
			Kind:    st.kind,
			RunNo:   st.runNo,
			Display: display,
		}
		if u, ok := st.Uncertainty(); ok {
			view.Uncertainty = &u
		}
		view.Units, _ = st.Units()
		view.Description, _ = st.Description()
		snap.Stats = append(snap.Stats, view)
	}
	return snap, nil
}
