package stats

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCountWithUncertainty is returned when a stat is built both as a count
// and with an explicit uncertainty.
var ErrCountWithUncertainty = errors.New("count stats derive their uncertainty; explicit uncertainty not allowed")

// MalformedStateError reports a persisted stats file that cannot be parsed.
// It is fatal: prior history must never be silently dropped.
type MalformedStateError struct {
	Path string
	Err  error
}

func (e *MalformedStateError) Error() string {
	return fmt.Sprintf("malformed stats file %q: %v", e.Path, e.Err)
}

func (e *MalformedStateError) Unwrap() error {
	return e.Err
}

// UnsupportedValueTypeError reports a stat value outside the numeric kinds.
type UnsupportedValueTypeError struct {
	Type string
}

func (e *UnsupportedValueTypeError) Error() string {
	return fmt.Sprintf("unsupported type for stat %q: must be int or float", e.Type)
}

// ReservedKeyError reports a stat name that collides with the metadata
// key prefix.
type ReservedKeyError struct {
	Name string
}

func (e *ReservedKeyError) Error() string {
	return fmt.Sprintf("stat name %q is reserved: names may not start with %q", e.Name, ReservedPrefix)
}

// StatNotFoundError reports a lookup of an unknown stat. Known lists every
// stat name in the store so callers can show the alternatives.
type StatNotFoundError struct {
	Name  string
	Known []string
}

func (e *StatNotFoundError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("stat %q not found (no stats recorded)", e.Name)
	}
	return fmt.Sprintf("stat %q not found; known stats: %s", e.Name, strings.Join(e.Known, ", "))
}

// RunNotFoundError reports a single-run report request that resolves to a
// run number outside 1..Latest.
type RunNotFoundError struct {
	Requested int
	RunNo     int
	Latest    int
}

func (e *RunNotFoundError) Error() string {
	if e.Requested != e.RunNo {
		return fmt.Sprintf("run %d (resolved from %d) not found: runs are 1..%d", e.RunNo, e.Requested, e.Latest)
	}
	return fmt.Sprintf("run %d not found: runs are 1..%d", e.RunNo, e.Latest)
}

// IsMalformedState returns true if err is or wraps a MalformedStateError.
func IsMalformedState(err error) bool {
	var me *MalformedStateError
	return errors.As(err, &me)
}

// IsReservedKey returns true if err is or wraps a ReservedKeyError.
func IsReservedKey(err error) bool {
	var re *ReservedKeyError
	return errors.As(err, &re)
}

// IsStatNotFound returns true if err is or wraps a StatNotFoundError.
func IsStatNotFound(err error) bool {
	var ne *StatNotFoundError
	return errors.As(err, &ne)
}

// IsUnsupportedValueType returns true if err is or wraps an
// UnsupportedValueTypeError.
func IsUnsupportedValueType(err error) bool {
	var ue *UnsupportedValueTypeError
	return errors.As(err, &ue)
}

// ErrReadOnly is returned when mutating or saving a store opened read-only.
var ErrReadOnly = errors.New("stats store opened read-only")
