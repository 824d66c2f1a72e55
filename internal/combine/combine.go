// Package combine merges tab-separated rate files into one table indexed by
// temperature and records summary stats about the result.
package combine

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/svante/internal/config"
	"github.com/roach88/svante/internal/stats"
	"github.com/roach88/svante/internal/units"
)

// Kelvin is the unit of the combined temperature column.
const Kelvin = "K"

// Options configures Combine.
type Options struct {
	// Dir resolves relative input URIs. Defaults to the working directory.
	Dir string
	// Units converts temperature columns with declared units. Defaults to a
	// new registry.
	Units *units.Registry
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Table is the outer join of every input on temperature, sorted by
// ascending T. Missing cells are NaN.
type Table struct {
	Columns []string
	T       []float64
	// Values holds one row per temperature: ±T, then rate and uncertainty
	// for each input.
	Values [][]float64
}

// NPoints returns the number of distinct temperatures.
func (t *Table) NPoints() int { return len(t.T) }

// TMin returns the lowest temperature, or NaN for an empty table.
func (t *Table) TMin() float64 {
	if len(t.T) == 0 {
		return math.NaN()
	}
	return t.T[0]
}

// TMax returns the highest temperature, or NaN for an empty table.
func (t *Table) TMax() float64 {
	if len(t.T) == 0 {
		return math.NaN()
	}
	return t.T[len(t.T)-1]
}

// input is one rate file reduced to temperature-indexed rows.
type input struct {
	rows map[float64][3]float64 // dT, rate, rate uncertainty
	tMin float64
	tMax float64
}

// Combine reads every input of cfg and joins them on temperature.
func Combine(ctx context.Context, cfg *config.Combine, opts Options) (*Table, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	reg := opts.Units
	if reg == nil {
		reg = units.NewRegistry()
	}
	log.Info(fmt.Sprintf("reading %d sets of %s data", len(cfg.Inputs), cfg.Combined.Title))

	columns := []string{"T", "±T"}
	inputs := make([]input, len(cfg.Inputs))
	for i, spec := range cfg.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := spec.URI
		if opts.Dir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(opts.Dir, path)
		}
		in, err := readInput(path, spec, reg)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", spec.URI, err)
		}
		inputs[i] = in
		name := cfg.Combined.Rates[i].Name
		columns = append(columns, name, "±"+name)
		log.Info(fmt.Sprintf("%s: %d points from %g to %g K", spec.URI, len(in.rows), in.tMin, in.tMax))
	}

	var temps []float64
	for _, in := range inputs {
		for t := range in.rows {
			temps = append(temps, t)
		}
	}
	slices.Sort(temps)
	temps = slices.Compact(temps)

	table := &Table{Columns: columns, T: temps}
	for _, t := range temps {
		row := make([]float64, 0, len(columns)-1)
		dT := math.NaN()
		var rates []float64
		for _, in := range inputs {
			r, ok := in.rows[t]
			if !ok {
				rates = append(rates, math.NaN(), math.NaN())
				continue
			}
			if !math.IsNaN(r[0]) && (math.IsNaN(dT) || r[0] > dT) {
				dT = r[0]
			}
			rates = append(rates, r[1], r[2])
		}
		row = append(row, dT)
		row = append(row, rates...)
		table.Values = append(table.Values, row)
	}
	log.Info(fmt.Sprintf("%d points from %g to %g K", table.NPoints(), table.TMin(), table.TMax()))
	return table, nil
}

func readInput(path string, spec config.Input, reg *units.Registry) (input, error) {
	f, err := os.Open(path)
	if err != nil {
		return input{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return input{}, fmt.Errorf("empty file")
	}
	if err != nil {
		return input{}, err
	}

	col := func(name string) (int, error) {
		i := slices.Index(header, name)
		if i < 0 {
			return 0, fmt.Errorf("column %q not found in header %q", name, strings.Join(header, "\t"))
		}
		return i, nil
	}
	if spec.T.Col >= len(header) {
		return input{}, fmt.Errorf("temperature column %d out of range: %d columns", spec.T.Col, len(header))
	}
	rateCol, err := col(spec.Rate.Name)
	if err != nil {
		return input{}, err
	}
	rateErrCol, err := col(spec.Rate.Uncertainties)
	if err != nil {
		return input{}, err
	}
	dTCol := -1
	if spec.T.Uncertainty == nil {
		if dTCol, err = col(spec.T.Uncertainties); err != nil {
			return input{}, err
		}
	}

	scale := 1.0
	if spec.T.Units != "" {
		if scale, err = reg.Convert(1, spec.T.Units, Kelvin); err != nil {
			return input{}, fmt.Errorf("temperature units: %w", err)
		}
	}

	in := input{rows: make(map[float64][3]float64), tMin: math.Inf(1), tMax: math.Inf(-1)}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return input{}, err
		}
		t, err := cell(rec, spec.T.Col)
		if err != nil {
			return input{}, fmt.Errorf("line %d: temperature: %w", line, err)
		}
		if math.IsNaN(t) {
			return input{}, fmt.Errorf("line %d: missing temperature", line)
		}
		t *= scale
		if _, dup := in.rows[t]; dup {
			return input{}, fmt.Errorf("line %d: duplicate temperature %g", line, t)
		}

		var row [3]float64
		if spec.T.Uncertainty != nil {
			row[0] = *spec.T.Uncertainty * scale
		} else if row[0], err = cell(rec, dTCol); err != nil {
			return input{}, fmt.Errorf("line %d: temperature uncertainty: %w", line, err)
		} else {
			row[0] *= scale
		}
		if row[1], err = cell(rec, rateCol); err != nil {
			return input{}, fmt.Errorf("line %d: %s: %w", line, spec.Rate.Name, err)
		}
		if row[2], err = cell(rec, rateErrCol); err != nil {
			return input{}, fmt.Errorf("line %d: %s: %w", line, spec.Rate.Uncertainties, err)
		}
		in.rows[t] = row
		in.tMin = min(in.tMin, t)
		in.tMax = max(in.tMax, t)
	}
	if len(in.rows) == 0 {
		return input{}, fmt.Errorf("no data rows")
	}
	return in, nil
}

// cell parses a numeric cell; an empty or absent cell is NaN.
func cell(rec []string, i int) (float64, error) {
	if i >= len(rec) {
		return math.NaN(), nil
	}
	s := strings.TrimSpace(rec[i])
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// WriteTSV writes the table with a header row. Numbers use four decimal
// places; missing cells are empty.
func (t *Table) WriteTSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns))
	for i, temp := range t.T {
		rec[0] = formatCell(temp)
		for j, v := range t.Values[i] {
			rec[j+1] = formatCell(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path as TSV.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create combined file: %w", err)
	}
	if err := t.WriteTSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write combined file: %w", err)
	}
	return f.Close()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Record stores the point count and temperature range of t.
func (t *Table) Record(store *stats.Store) error {
	n, err := stats.New(t.NPoints())
	if err != nil {
		return err
	}
	if err := store.Set("n_points", n); err != nil {
		return err
	}
	tMin, err := stats.New(t.TMin(), stats.Units(Kelvin), stats.Description("min temperature"))
	if err != nil {
		return err
	}
	if err := store.Set("T_min", tMin); err != nil {
		return err
	}
	tMax, err := stats.New(t.TMax(), stats.Units(Kelvin), stats.Description("max temperature"))
	if err != nil {
		return err
	}
	return store.Set("T_max", tMax)
}
