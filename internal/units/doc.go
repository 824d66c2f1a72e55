// Package units resolves unit strings into dimension-aware units and renders
// them in short symbolic form.
//
// A Registry starts with the SI base units, common derived units and the SI
// prefixes. Custom units are added with pint-style definition strings:
//
//	basepairs = [dimensionless] = bp
//	kilobasepairs = 1000 * basepairs = kbp
//
// A Registry is created once per process and passed to every component that
// formats or defines units. Definitions are append-only; nothing is ever
// removed from a Registry.
package units
