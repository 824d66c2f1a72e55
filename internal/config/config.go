// Package config loads the TOML configuration consumed by the combine
// command and validates it against an embedded CUE schema.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pelletier/go-toml/v2"
)

//go:embed schema.cue
var schemaSource string

// TemperatureSpec locates the temperature column of an input and its
// uncertainty, given either as a constant or as a column name.
type TemperatureSpec struct {
	Col           int      `json:"col"`
	Uncertainty   *float64 `json:"uncertainty,omitempty"`
	Uncertainties string   `json:"uncertainties,omitempty"`
	// Units of the temperature column; values are converted to kelvin.
	Units         string   `json:"units,omitempty"`
}

// RateColumns names the rate and rate-uncertainty columns of an input.
type RateColumns struct {
	Name          string `json:"name"`
	Uncertainties string `json:"uncertainties"`
}

// Input is one tab-separated rate file.
type Input struct {
	URI  string          `json:"uri"`
	T    TemperatureSpec `json:"T"`
	Rate RateColumns     `json:"rate"`
}

// Rate is the output name and title of the i-th input's rate.
type Rate struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Label string `json:"label,omitempty"`
}

// Combined describes the output file.
type Combined struct {
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Rates    []Rate `json:"rates"`
}

// Combine is the validated combine configuration.
type Combine struct {
	Inputs   []Input  `json:"inputs"`
	Combined Combined `json:"combined"`
}

// Error reports an invalid configuration file. Details holds one line per
// schema violation.
type Error struct {
	Path    string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Path, strings.Join(e.Details, "; "))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if err is or wraps a config Error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// Load reads and validates a combine configuration file.
func Load(path string) (*Combine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML and validates it. No file named in the configuration
// is touched.
func Parse(data []byte) (*Combine, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return nil, &Error{Path: "<input>", Err: fmt.Errorf("line %d column %d: %s", row, col, de.Error())}
		}
		return nil, &Error{Path: "<input>", Err: err}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(raw))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, &Error{Path: "<input>", Details: details(err), Err: err}
	}

	var cfg Combine
	if err := value.Decode(&cfg); err != nil {
		return nil, &Error{Path: "<input>", Err: err}
	}
	if err := cfg.check(); err != nil {
		return nil, &Error{Path: "<input>", Details: []string{err.Error()}, Err: err}
	}
	return &cfg, nil
}

// check enforces the cross-field rules the schema does not express.
func (c *Combine) check() error {
	if len(c.Combined.Rates) != len(c.Inputs) {
		return fmt.Errorf("combined.rates has %d entries for %d inputs", len(c.Combined.Rates), len(c.Inputs))
	}
	for i, in := range c.Inputs {
		if in.T.Uncertainty == nil && in.T.Uncertainties == "" {
			return fmt.Errorf("inputs[%d].T: neither uncertainty value nor uncertainties column given", i)
		}
	}
	return nil
}

func details(err error) []string {
	var out []string
	for _, e := range cueerrors.Errors(err) {
		out = append(out, e.Error())
	}
	return out
}
