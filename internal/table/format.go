package table

import (
	"fmt"
	"strings"
)

// Format selects how a table is drawn.
type Format string

const (
	Plain  Format = "plain"
	Simple Format = "simple"
	RST    Format = "rst"
	Grid   Format = "grid"
	GitHub Format = "github"
	Pipe   Format = "pipe"
	OrgTbl Format = "orgtbl"
	PSQL   Format = "psql"
	Presto Format = "presto"
	TSV    Format = "tsv"
)

// DefaultFormat is used when no format is configured.
const DefaultFormat = RST

// Formats lists every accepted format in display order.
var Formats = []Format{Plain, Simple, RST, Grid, GitHub, Pipe, OrgTbl, PSQL, Presto, TSV}

// UnknownFormatError is returned for a table format outside Formats.
type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return fmt.Sprintf("unknown table format %q: must be one of %s", e.Format, strings.Join(names, ", "))
}

// ParseFormat validates a format name. The empty string selects DefaultFormat.
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return DefaultFormat, nil
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", &UnknownFormatError{Format: name}
}
