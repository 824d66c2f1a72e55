package units

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
)

// ErrAlreadyDefined is returned by Define when the name, symbol or an alias
// of the definition is already registered.
var ErrAlreadyDefined = errors.New("unit already defined")

// Dimensions maps a base dimension (e.g. "length") to its exponent.
type Dimensions map[string]int

// Equal reports whether two dimensionalities are identical.
func (d Dimensions) Equal(other Dimensions) bool {
	if len(d) != len(other) {
		return false
	}
	for k, v := range d {
		if other[k] != v {
			return false
		}
	}
	return true
}

// DefinitionError describes a malformed unit definition or expression.
type DefinitionError struct {
	Input   string
	Message string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("unit %q: %s", e.Input, e.Message)
}

type unitDef struct {
	name    string
	symbol  string
	aliases []string
	factor  float64
	dims    Dimensions
}

// display returns the short form of the unit.
func (d *unitDef) display() string {
	if d.symbol != "" {
		return d.symbol
	}
	return d.name
}

// Registry resolves unit names and holds custom definitions.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*unitDef // names and aliases
	bySymbol map[string]*unitDef
}

// NewRegistry creates a registry seeded with the built-in units.
func NewRegistry() *Registry {
	r := &Registry{
		byName:   make(map[string]*unitDef),
		bySymbol: make(map[string]*unitDef),
	}
	for _, def := range builtinDefinitions {
		if err := r.Define(def); err != nil {
			panic(fmt.Sprintf("units: bad builtin definition %q: %v", def, err))
		}
	}
	return r
}

// Known reports whether name is registered directly as a unit name, symbol
// or alias. Prefixed and plural spellings are not considered known, so that
// "kilobasepairs" can still be defined with its own symbol after "basepairs".
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, okName := r.byName[name]
	_, okSym := r.bySymbol[name]
	return okName || okSym
}

// Define registers a unit from a definition string of the form
//
//	<name> = <expression | [dimension]> [= <symbol>] [= <alias>]...
//
// A symbol of "_" means the unit has no symbol.
func (r *Registry) Define(definition string) error {
	parts := strings.Split(definition, "=")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return &DefinitionError{Input: definition, Message: "expected \"<name> = <expression>\""}
	}
	name := parts[0]
	if !isIdentifier(name) {
		return &DefinitionError{Input: definition, Message: fmt.Sprintf("invalid unit name %q", name)}
	}

	def := &unitDef{name: name}
	if len(parts) > 2 && parts[2] != "_" {
		if !isIdentifier(parts[2]) {
			return &DefinitionError{Input: definition, Message: fmt.Sprintf("invalid symbol %q", parts[2])}
		}
		def.symbol = parts[2]
	}
	for _, alias := range parts[min(len(parts), 3):] {
		if !isIdentifier(alias) {
			return &DefinitionError{Input: definition, Message: fmt.Sprintf("invalid alias %q", alias)}
		}
		def.aliases = append(def.aliases, alias)
	}

	expr := parts[1]
	switch {
	case strings.HasPrefix(expr, "[") && strings.HasSuffix(expr, "]"):
		dim := strings.TrimSpace(expr[1 : len(expr)-1])
		if dim == "" {
			return &DefinitionError{Input: definition, Message: "empty dimension"}
		}
		def.factor = 1
		def.dims = Dimensions{}
		if dim != "dimensionless" {
			def.dims[dim] = 1
		}
	default:
		u, err := r.Parse(expr)
		if err != nil {
			return &DefinitionError{Input: definition, Message: err.Error()}
		}
		def.factor = u.Factor
		def.dims = u.Dims
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byName[name] != nil || r.bySymbol[name] != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyDefined, name)
	}
	if def.symbol != "" && r.bySymbol[def.symbol] != nil {
		return fmt.Errorf("%w: symbol %s", ErrAlreadyDefined, def.symbol)
	}
	for _, alias := range def.aliases {
		if r.byName[alias] != nil {
			return fmt.Errorf("%w: alias %s", ErrAlreadyDefined, alias)
		}
	}
	r.byName[name] = def
	if def.symbol != "" {
		r.bySymbol[def.symbol] = def
	}
	for _, alias := range def.aliases {
		r.byName[alias] = def
	}
	return nil
}

// Parse resolves a unit expression such as "kJ/mol" or "1/s".
// The empty expression is the dimensionless unit.
func (r *Registry) Parse(expr string) (Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := &parser{reg: r, input: expr}
	return p.parse()
}

// Abbrev parses expr and returns its short symbolic form.
func (r *Registry) Abbrev(expr string) (string, error) {
	u, err := r.Parse(expr)
	if err != nil {
		return "", err
	}
	return u.Abbrev(), nil
}

// Convert converts v from one unit to another of the same dimensionality.
func (r *Registry) Convert(v float64, from, to string) (float64, error) {
	src, err := r.Parse(from)
	if err != nil {
		return 0, err
	}
	dst, err := r.Parse(to)
	if err != nil {
		return 0, err
	}
	if !src.Compatible(dst) {
		return 0, fmt.Errorf("cannot convert %q to %q: incompatible dimensions", from, to)
	}
	return v * src.Factor / dst.Factor, nil
}

// lookup resolves a single identifier, trying in order: a direct name or
// symbol, a prefix symbol on a unit symbol, a prefix name on a unit name and
// finally a plural unit name. The caller must hold r.mu.
func (r *Registry) lookup(ident string) (Unit, bool) {
	if d := r.bySymbol[ident]; d != nil {
		return single(d.display(), d.factor, d.dims), true
	}
	if d := r.lookupName(ident); d != nil {
		return single(d.display(), d.factor, d.dims), true
	}
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(ident, p.symbol); ok && rest != "" {
			if d := r.bySymbol[rest]; d != nil && d.symbol != "" {
				sym := p.symbol
				if sym == "u" {
					sym = "µ"
				}
				return single(sym+d.symbol, p.factor*d.factor, d.dims), true
			}
		}
	}
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(ident, p.name); ok && rest != "" {
			if d := r.lookupName(rest); d != nil {
				disp := p.name + d.name
				if d.symbol != "" {
					disp = p.symbol + d.symbol
					if p.symbol == "u" {
						disp = "µ" + d.symbol
					}
				}
				return single(disp, p.factor*d.factor, d.dims), true
			}
		}
	}
	return Unit{}, false
}

func (r *Registry) lookupName(name string) *unitDef {
	if d := r.byName[name]; d != nil {
		return d
	}
	if singular, ok := strings.CutSuffix(name, "s"); ok && singular != "" {
		return r.byName[singular]
	}
	return nil
}

func single(symbol string, factor float64, dims Dimensions) Unit {
	u := Unit{Factor: factor, Dims: Dimensions{}, scale: 1}
	for k, v := range dims {
		u.Dims[k] = v
	}
	u.terms = []term{{symbol: symbol, exp: 1}}
	return u
}

// Unit is a resolved unit expression.
type Unit struct {
	// Factor converts a value in this unit to base units.
	Factor float64
	// Dims is the dimensionality in base dimensions.
	Dims Dimensions

	terms []term
	scale float64 // product of literal numbers in the expression
}

type term struct {
	symbol string
	exp    int
}

// Compatible reports whether u and other share a dimensionality.
func (u Unit) Compatible(other Unit) bool {
	return u.Dims.Equal(other.Dims)
}

// Dimensionless reports whether u has no dimensions.
func (u Unit) Dimensionless() bool {
	return len(u.Dims) == 0
}

func (u Unit) mul(other Unit, sign int) Unit {
	out := Unit{
		Factor: u.Factor * math.Pow(other.Factor, float64(sign)),
		Dims:   Dimensions{},
		scale:  u.scale * math.Pow(other.scale, float64(sign)),
	}
	for k, v := range u.Dims {
		out.Dims[k] = v
	}
	for k, v := range other.Dims {
		out.Dims[k] += sign * v
		if out.Dims[k] == 0 {
			delete(out.Dims, k)
		}
	}
	out.terms = append(out.terms, u.terms...)
	for _, t := range other.terms {
		merged := false
		for i := range out.terms {
			if out.terms[i].symbol == t.symbol {
				out.terms[i].exp += sign * t.exp
				merged = true
				break
			}
		}
		if !merged {
			out.terms = append(out.terms, term{symbol: t.symbol, exp: sign * t.exp})
		}
	}
	kept := out.terms[:0]
	for _, t := range out.terms {
		if t.exp != 0 {
			kept = append(kept, t)
		}
	}
	out.terms = kept
	return out
}

func (u Unit) pow(n int) Unit {
	out := Unit{
		Factor: math.Pow(u.Factor, float64(n)),
		Dims:   Dimensions{},
		scale:  math.Pow(u.scale, float64(n)),
	}
	for k, v := range u.Dims {
		if v*n != 0 {
			out.Dims[k] = v * n
		}
	}
	for _, t := range u.terms {
		if t.exp*n != 0 {
			out.terms = append(out.terms, term{symbol: t.symbol, exp: t.exp * n})
		}
	}
	return out
}
