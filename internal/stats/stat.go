package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the numeric kind of a stat value. It is fixed at construction.
type Kind string

const (
	KindInt   Kind = "int"
	KindFloat Kind = "float"
)

func (k Kind) valid() bool {
	return k == KindInt || k == KindFloat
}

// Stat is a single named measurement: a value with optional uncertainty,
// units and description, tagged with the run that last set it.
//
// Stats are immutable; a Store replaces them wholesale on reassignment.
type Stat struct {
	value  float64
	kind   Kind
	uncert *float64
	units  *string
	desc   *string
	runNo  int
}

type statConfig struct {
	uncert *float64
	units  *string
	desc   *string
	kind   Kind
	count  bool
}

// Option configures a Stat built by New.
type Option func(*statConfig)

// Uncertainty sets the one-sigma uncertainty, in the same units as the value.
func Uncertainty(u float64) Option {
	return func(c *statConfig) { c.uncert = &u }
}

// Units sets the unit expression, e.g. "kJ/mol".
func Units(units string) Option {
	return func(c *statConfig) { c.units = &units }
}

// Description sets a free-text description.
func Description(desc string) Option {
	return func(c *statConfig) { c.desc = &desc }
}

// AsKind casts the value to the given kind instead of inferring it from the
// Go type. Casting a float to KindInt truncates toward zero.
func AsKind(k Kind) Option {
	return func(c *statConfig) { c.kind = k }
}

// Count marks the stat as a cardinality: its uncertainty is the square root
// of the value (Poisson approximation). Count cannot be combined with
// Uncertainty.
func Count() Option {
	return func(c *statConfig) { c.count = true }
}

// New builds a Stat from an integer or floating-point value.
func New(v any, opts ...Option) (Stat, error) {
	var cfg statConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	value, kind, err := numeric(v)
	if err != nil {
		return Stat{}, err
	}
	if cfg.kind != "" {
		if !cfg.kind.valid() {
			return Stat{}, &UnsupportedValueTypeError{Type: string(cfg.kind)}
		}
		if cfg.kind == KindInt && kind == KindFloat {
			value = math.Trunc(value)
		}
		kind = cfg.kind
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Stat{}, fmt.Errorf("stat value must be finite, got %v", value)
	}

	s := Stat{value: value, kind: kind, units: cfg.units, desc: cfg.desc}
	switch {
	case cfg.count && cfg.uncert != nil:
		return Stat{}, ErrCountWithUncertainty
	case cfg.count:
		if value < 0 {
			return Stat{}, fmt.Errorf("count stat must be non-negative, got %v", value)
		}
		u := math.Sqrt(value)
		s.uncert = &u
	case cfg.uncert != nil:
		u := *cfg.uncert
		if math.IsNaN(u) || math.IsInf(u, 0) || u < 0 {
			return Stat{}, fmt.Errorf("uncertainty must be finite and non-negative, got %v", u)
		}
		s.uncert = &u
	}
	return s, nil
}

func numeric(v any) (float64, Kind, error) {
	switch n := v.(type) {
	case int:
		return float64(n), KindInt, nil
	case int8:
		return float64(n), KindInt, nil
	case int16:
		return float64(n), KindInt, nil
	case int32:
		return float64(n), KindInt, nil
	case int64:
		return float64(n), KindInt, nil
	case uint:
		return float64(n), KindInt, nil
	case uint8:
		return float64(n), KindInt, nil
	case uint16:
		return float64(n), KindInt, nil
	case uint32:
		return float64(n), KindInt, nil
	case uint64:
		return float64(n), KindInt, nil
	case float32:
		return float64(n), KindFloat, nil
	case float64:
		return n, KindFloat, nil
	default:
		return 0, "", &UnsupportedValueTypeError{Type: fmt.Sprintf("%T", v)}
	}
}

// Value returns the numeric value. For KindInt it is always integral.
func (s Stat) Value() float64 { return s.value }

// Kind returns the numeric kind of the value.
func (s Stat) Kind() Kind { return s.kind }

// RunNo returns the run that last set this stat, or 0 if it was never
// stored.
func (s Stat) RunNo() int { return s.runNo }

// Uncertainty returns the uncertainty and whether one is present.
func (s Stat) Uncertainty() (float64, bool) {
	if s.uncert == nil {
		return 0, false
	}
	return *s.uncert, true
}

// Units returns the unit expression and whether one is present.
func (s Stat) Units() (string, bool) {
	if s.units == nil {
		return "", false
	}
	return *s.units, true
}

// Description returns the description and whether one is present.
func (s Stat) Description() (string, bool) {
	if s.desc == nil {
		return "", false
	}
	return *s.desc, true
}

func (s Stat) withRun(runNo int) Stat {
	s.runNo = runNo
	return s
}

// statJSON is the persisted attribute set of a Stat.
type statJSON struct {
	Val     json.Number `json:"val"`
	ValType Kind        `json:"val_type"`
	Uncert  *float64    `json:"uncert,omitempty"`
	Units   *string     `json:"units,omitempty"`
	Desc    *string     `json:"desc,omitempty"`
	RunNo   int         `json:"run_no"`
}

// MarshalJSON writes the full attribute set, not the display string.
func (s Stat) MarshalJSON() ([]byte, error) {
	var val string
	if s.kind == KindInt {
		val = strconv.FormatInt(int64(s.value), 10)
	} else {
		val = strconv.FormatFloat(s.value, 'g', -1, 64)
	}
	return json.Marshal(statJSON{
		Val:     json.Number(val),
		ValType: s.kind,
		Uncert:  s.uncert,
		Units:   s.units,
		Desc:    s.desc,
		RunNo:   s.runNo,
	})
}

// UnmarshalJSON reads a persisted stat. A missing val_type is inferred from
// the literal: anything with a fraction or exponent is a float.
func (s *Stat) UnmarshalJSON(data []byte) error {
	var raw statJSON
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw.Val == "" {
		return fmt.Errorf("missing \"val\"")
	}
	kind := raw.ValType
	if kind == "" {
		kind = KindInt
		if strings.ContainsAny(raw.Val.String(), ".eE") {
			kind = KindFloat
		}
	}
	if !kind.valid() {
		return &UnsupportedValueTypeError{Type: string(kind)}
	}

	var value float64
	if kind == KindInt {
		if i, err := raw.Val.Int64(); err == nil {
			value = float64(i)
		} else {
			f, err := raw.Val.Float64()
			if err != nil {
				return fmt.Errorf("invalid val %q: %w", raw.Val, err)
			}
			value = math.Trunc(f)
		}
	} else {
		f, err := raw.Val.Float64()
		if err != nil {
			return fmt.Errorf("invalid val %q: %w", raw.Val, err)
		}
		value = f
	}

	*s = Stat{
		value:  value,
		kind:   kind,
		uncert: raw.Uncert,
		units:  raw.Units,
		desc:   raw.Desc,
		runNo:  raw.RunNo,
	}
	return nil
}
