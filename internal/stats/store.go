package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/svante/internal/table"
	"github.com/roach88/svante/internal/units"
)

// ReservedPrefix starts every metadata key in the persisted file. Stat names
// may not use it.
const ReservedPrefix = "_"

// Metadata keys of the persisted file.
const (
	unitDefsKey = "_unit_defs"
	runListKey  = "_run_list"
	titleKey    = "_title"
)

// DefaultNamespace is used when Options.Namespace is empty.
const DefaultNamespace = "svante"

// Options configures Open.
type Options struct {
	// Namespace selects the persisted file <SaveDir>/<Namespace>_stats.json.
	Namespace string
	// SaveDir defaults to the working directory.
	SaveDir string
	// Title overrides both the persisted and the default title.
	Title string
	// Session identifies the invoking process. Defaults to CaptureSession().
	Session *Session
	// Units is the process-wide unit registry. Defaults to a new registry.
	Units *units.Registry
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// TableFormat is the stat table style. Defaults to table.DefaultFormat.
	TableFormat table.Format
	// Location is used to render run start times. Defaults to time.Local.
	Location *time.Location
	// LogStats logs every assignment as it happens.
	LogStats bool
	// Verbose adds the file path to reports and logs load statistics.
	Verbose bool
	// ReadOnly opens the store without allocating a new run; Set and Save
	// return ErrReadOnly.
	ReadOnly bool
	// SkipLoad ignores any persisted file.
	SkipLoad bool
}

// Store is a persisted, run-indexed ledger of stats for one namespace.
//
// Loading merges the persisted file into memory; the current process then
// gets the next run number unless it already appended a run with the same
// session start time (a reentrant open). Save writes the merged ledger back.
//
// Thread-safety: a Store is not safe for concurrent use.
type Store struct {
	path      string
	namespace string
	title     string
	reg       *units.Registry
	log       *slog.Logger
	loc       *time.Location
	tableFmt  table.Format
	logStats  bool
	readOnly  bool

	stats    map[string]Stat
	order    []string
	runs     []RunRecord
	unitDefs []string
	runNo    int
	current  int // index of the current run in runs, or -1
	report   reportConfig
}

// SavePath returns the deterministic file path for a namespace.
func SavePath(saveDir, namespace string) (string, error) {
	if saveDir == "" {
		saveDir = "."
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return filepath.Abs(filepath.Join(saveDir, namespace+"_stats.json"))
}

// Open constructs the store for a namespace, loading and merging any
// persisted state, and assigns the current run number.
func Open(opts Options) (*Store, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	path, err := SavePath(opts.SaveDir, namespace)
	if err != nil {
		return nil, fmt.Errorf("resolve stats path: %w", err)
	}
	session := CaptureSession()
	if opts.Session != nil {
		session = *opts.Session
	}
	tableFmt := opts.TableFormat
	if tableFmt == "" {
		tableFmt = table.DefaultFormat
	}
	if _, err := table.ParseFormat(string(tableFmt)); err != nil {
		return nil, err
	}

	s := &Store{
		path:      path,
		namespace: namespace,
		title:     "Stats from " + namespace,
		reg:       opts.Units,
		log:       opts.Logger,
		loc:       opts.Location,
		tableFmt:  tableFmt,
		logStats:  opts.LogStats,
		readOnly:  opts.ReadOnly,
		stats:     make(map[string]Stat),
		unitDefs:  []string{},
		current:   -1,
		report:    reportConfig{showRuns: true, verbose: opts.Verbose},
	}
	if s.reg == nil {
		s.reg = units.NewRegistry()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.Local
	}

	if !opts.SkipLoad {
		if err := s.load(opts.Verbose); err != nil {
			return nil, err
		}
	}
	if opts.Title != "" {
		s.title = opts.Title
	}

	latest := 0
	if n := len(s.runs); n > 0 {
		latest = s.runs[n-1].RunNo
	}
	switch {
	case len(s.runs) > 0 && s.runs[len(s.runs)-1].StartTime == session.StartTime:
		// Reentrant open within the same invocation: reuse its run.
		s.runNo = latest
		s.current = len(s.runs) - 1
	case s.readOnly:
		s.runNo = latest
		s.current = len(s.runs) - 1
	default:
		s.runNo = latest + 1
		s.runs = append(s.runs, RunRecord{
			RunNo:     s.runNo,
			StartTime: session.StartTime,
			Command:   append([]string{}, session.Command...),
			Subtitle:  s.defaultSubtitle(),
		})
		s.current = len(s.runs) - 1
	}

	s.log.Debug("stats store opened", "run", s.runNo, "path", s.path)
	return s, nil
}

func (s *Store) defaultSubtitle() string {
	return "Run of " + s.namespace
}

// load merges the persisted file into memory. A missing file is not an
// error.
func (s *Store) load(verbose bool) error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read stats file: %w", err)
	}

	malformed := func(err error) error {
		s.log.Error("malformed stats file", "path", s.path, "error", err)
		return &MalformedStateError{Path: s.path, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return malformed(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return malformed(fmt.Errorf("expected a JSON object"))
	}

	previouslyDefined := 0
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return malformed(err)
		}
		key := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return malformed(fmt.Errorf("%s: %w", key, err))
		}

		switch key {
		case runListKey:
			var runs []RunRecord
			if err := json.Unmarshal(raw, &runs); err != nil {
				return malformed(fmt.Errorf("%s: %w", key, err))
			}
			s.mergeRuns(runs)
		case titleKey:
			if err := json.Unmarshal(raw, &s.title); err != nil {
				return malformed(fmt.Errorf("%s: %w", key, err))
			}
		case unitDefsKey:
			var defs []string
			if err := json.Unmarshal(raw, &defs); err != nil {
				return malformed(fmt.Errorf("%s: %w", key, err))
			}
			if err := s.DefineUnits(defs); err != nil {
				return malformed(err)
			}
		default:
			if strings.HasPrefix(key, ReservedPrefix) {
				return malformed(fmt.Errorf("unknown metadata key %q", key))
			}
			var st Stat
			if err := json.Unmarshal(raw, &st); err != nil {
				return malformed(fmt.Errorf("stat %q: %w", key, err))
			}
			if _, ok := s.stats[key]; ok {
				previouslyDefined++
			}
			s.put(key, st)
		}
	}
	if _, err := dec.Token(); err != nil {
		return malformed(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return malformed(fmt.Errorf("trailing data after JSON object"))
	}

	if verbose {
		s.log.Debug("stats loaded", "path", s.path, "stats", len(s.stats),
			"runs", len(s.runs), "previously_defined", previouslyDefined)
	}
	return nil
}

// mergeRuns appends loaded runs whose number is not already present and
// keeps the list ordered by run number.
func (s *Store) mergeRuns(loaded []RunRecord) {
	for _, r := range loaded {
		if slices.ContainsFunc(s.runs, func(have RunRecord) bool { return have.RunNo == r.RunNo }) {
			continue
		}
		if r.Command == nil {
			r.Command = []string{}
		}
		s.runs = append(s.runs, r)
	}
	sort.SliceStable(s.runs, func(i, j int) bool { return s.runs[i].RunNo < s.runs[j].RunNo })
}

func (s *Store) put(name string, st Stat) {
	if _, ok := s.stats[name]; !ok {
		s.order = append(s.order, name)
	}
	s.stats[name] = st
}

// Set assigns a stat under name, stamping it with the current run number.
// Reassigning an existing name replaces it and logs a redefinition notice.
func (s *Store) Set(name string, st Stat) error {
	name = norm.NFC.String(name)
	if name == "" {
		return fmt.Errorf("stat name must not be empty")
	}
	if strings.HasPrefix(name, ReservedPrefix) {
		return &ReservedKeyError{Name: name}
	}
	if s.readOnly {
		return ErrReadOnly
	}
	if u, ok := st.Units(); ok {
		if _, err := s.reg.Parse(u); err != nil {
			return fmt.Errorf("stat %q: %w", name, err)
		}
	}

	if old, ok := s.stats[name]; ok {
		s.log.Debug("redefining stat", "stat", name, "previous_run", old.runNo, "run", s.runNo)
	}
	st = st.withRun(s.runNo)
	s.put(name, st)

	if s.logStats {
		desc := st.FormatDesc()
		if desc != "" {
			desc = " " + desc
		}
		line, err := st.Format(s.reg)
		if err != nil {
			return err
		}
		s.log.Info(fmt.Sprintf("Stat %s%s:\t%s", name, desc, line), "run", s.runNo)
	}
	return nil
}

// Get returns the stat stored under name.
func (s *Store) Get(name string) (Stat, error) {
	name = norm.NFC.String(name)
	st, ok := s.stats[name]
	if !ok {
		return Stat{}, &StatNotFoundError{Name: name, Known: s.Names()}
	}
	return st, nil
}

// Names returns every stat name in insertion order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of stats.
func (s *Store) Len() int { return len(s.stats) }

// RunNo returns the current run number.
func (s *Store) RunNo() int { return s.runNo }

// Runs returns a copy of the run history, ordered by run number.
func (s *Store) Runs() []RunRecord {
	out := make([]RunRecord, len(s.runs))
	for i, r := range s.runs {
		r.Command = append([]string{}, r.Command...)
		out[i] = r
	}
	return out
}

// UnitDefs returns the custom unit definitions in first-seen order.
func (s *Store) UnitDefs() []string {
	return append([]string{}, s.unitDefs...)
}

// Path returns the persisted file path.
func (s *Store) Path() string { return s.path }

// Namespace returns the store namespace.
func (s *Store) Namespace() string { return s.namespace }

// Title returns the display title.
func (s *Store) Title() string { return s.title }

// Units returns the registry used for formatting.
func (s *Store) Units() *units.Registry { return s.reg }

// DefineUnits registers custom units of the form "<name> = <expression>".
// Units already known to the registry are not redefined; each definition
// string is recorded once, in first-seen order.
func (s *Store) DefineUnits(defs []string) error {
	for _, def := range defs {
		def = strings.TrimSpace(def)
		base, _, ok := strings.Cut(def, "=")
		if !ok {
			return &units.DefinitionError{Input: def, Message: "expected \"<name> = <expression>\""}
		}
		base = strings.TrimSpace(base)
		if !s.reg.Known(base) {
			if err := s.reg.Define(def); err != nil {
				return fmt.Errorf("define units: %w", err)
			}
		}
		if !slices.Contains(s.unitDefs, def) {
			s.unitDefs = append(s.unitDefs, def)
		}
	}
	return nil
}

// StartRun labels the current run, typically with a subcommand name. The
// last call wins. An empty subtitle restores the default label.
func (s *Store) StartRun(subtitle string) {
	if s.current < 0 || s.readOnly {
		return
	}
	if subtitle == "" {
		subtitle = s.defaultSubtitle()
	}
	s.runs[s.current].Subtitle = subtitle
}

// Save writes the ledger to its path through a temporary file and rename,
// so readers never observe a partial file.
func (s *Store) Save() error {
	if s.readOnly {
		return ErrReadOnly
	}
	data, err := s.marshal()
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create stats directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp stats file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp stats file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp stats file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename stats file: %w", err)
	}

	s.log.Debug("stats saved", "path", s.path, "stats", len(s.stats), "run", s.runNo)
	return nil
}

// marshal encodes metadata keys first, then stats in insertion order.
func (s *Store) marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	if err := write(unitDefsKey, s.unitDefs); err != nil {
		return nil, err
	}
	if err := write(runListKey, s.runs); err != nil {
		return nil, err
	}
	if err := write(titleKey, s.title); err != nil {
		return nil, err
	}
	for _, name := range s.order {
		if err := write(name, s.stats[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", " "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
