package table

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

type align int

const (
	alignLeft align = iota
	alignRight
)

// Render draws headers and rows in the given format. The result has no
// trailing newline. Rows shorter than headers are padded with empty cells.
func Render(f Format, headers []string, rows [][]string) string {
	ncols := len(headers)
	for _, row := range rows {
		ncols = max(ncols, len(row))
	}
	hdr := padRow(headers, ncols)
	body := make([][]string, len(rows))
	for i, row := range rows {
		body[i] = padRow(row, ncols)
	}

	if f == TSV {
		return renderTSV(hdr, body)
	}

	aligns := make([]align, ncols)
	for c := 0; c < ncols; c++ {
		if numericColumn(body, c) {
			aligns[c] = alignRight
			alignDecimals(body, c)
		}
	}

	minPad := 0
	switch f {
	case Plain, Simple, RST:
		minPad = 2
	}
	widths := make([]int, ncols)
	for c := 0; c < ncols; c++ {
		widths[c] = DisplayWidth(hdr[c]) + minPad
		for _, row := range body {
			widths[c] = max(widths[c], DisplayWidth(row[c]))
		}
	}

	cells := func(row []string) []string {
		out := make([]string, ncols)
		for c := range row {
			out[c] = pad(row[c], widths[c], aligns[c])
		}
		return out
	}
	rules := func(fill string, extra int) []string {
		out := make([]string, ncols)
		for c := range widths {
			out[c] = strings.Repeat(fill, widths[c]+extra)
		}
		return out
	}

	var lines []string
	switch f {
	case Plain:
		lines = append(lines, strings.Join(cells(hdr), "  "))
		for _, row := range body {
			lines = append(lines, strings.Join(cells(row), "  "))
		}
	case Simple:
		lines = append(lines, strings.Join(cells(hdr), "  "), strings.Join(rules("-", 0), "  "))
		for _, row := range body {
			lines = append(lines, strings.Join(cells(row), "  "))
		}
	case RST:
		rule := strings.Join(rules("=", 0), "  ")
		lines = append(lines, rule, strings.Join(cells(hdr), "  "), rule)
		for _, row := range body {
			lines = append(lines, strings.Join(cells(row), "  "))
		}
		lines = append(lines, rule)
	case GitHub, Pipe, OrgTbl:
		lines = append(lines, bordered(cells(hdr), "| ", " | ", " |"))
		rule := rules("-", 2)
		if f == Pipe {
			for c := range rule {
				if aligns[c] == alignRight {
					rule[c] = rule[c][:len(rule[c])-1] + ":"
				} else {
					rule[c] = ":" + rule[c][1:]
				}
			}
		}
		if f == OrgTbl {
			lines = append(lines, "|"+strings.Join(rule, "+")+"|")
		} else {
			lines = append(lines, "|"+strings.Join(rule, "|")+"|")
		}
		for _, row := range body {
			lines = append(lines, bordered(cells(row), "| ", " | ", " |"))
		}
	case PSQL:
		edge := "+" + strings.Join(rules("-", 2), "+") + "+"
		lines = append(lines, edge, bordered(cells(hdr), "| ", " | ", " |"),
			"|"+strings.Join(rules("-", 2), "+")+"|")
		for _, row := range body {
			lines = append(lines, bordered(cells(row), "| ", " | ", " |"))
		}
		lines = append(lines, edge)
	case Grid:
		edge := "+" + strings.Join(rules("-", 2), "+") + "+"
		lines = append(lines, edge, bordered(cells(hdr), "| ", " | ", " |"),
			"+"+strings.Join(rules("=", 2), "+")+"+")
		for _, row := range body {
			lines = append(lines, bordered(cells(row), "| ", " | ", " |"), edge)
		}
		if len(body) == 0 {
			lines = append(lines, edge)
		}
	case Presto:
		lines = append(lines, bordered(cells(hdr), " ", " | ", " "),
			strings.Join(rules("-", 2), "+"))
		for _, row := range body {
			lines = append(lines, bordered(cells(row), " ", " | ", " "))
		}
	}
	return strings.Join(lines, "\n")
}

func renderTSV(hdr []string, body [][]string) string {
	lines := []string{strings.Join(hdr, "\t")}
	for _, row := range body {
		lines = append(lines, strings.Join(row, "\t"))
	}
	return strings.Join(lines, "\n")
}

func bordered(cells []string, left, sep, right string) string {
	return left + strings.Join(cells, sep) + right
}

func padRow(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}

func pad(s string, w int, a align) string {
	gap := w - DisplayWidth(s)
	if gap <= 0 {
		return s
	}
	if a == alignRight {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// numericColumn reports whether every non-empty cell in column c is a number.
// A column with no non-empty cells is not numeric.
func numericColumn(rows [][]string, c int) bool {
	seen := false
	for _, row := range rows {
		cell := strings.TrimSpace(row[c])
		if cell == "" {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

// alignDecimals right-pads numeric cells so their decimal points line up
// once the column is right-aligned.
func alignDecimals(rows [][]string, c int) {
	frac := func(s string) int {
		if i := strings.IndexAny(s, ".eE"); i >= 0 && s[i] == '.' {
			return len(s) - i
		}
		return 0
	}
	longest := 0
	for _, row := range rows {
		longest = max(longest, frac(row[c]))
	}
	for _, row := range rows {
		if row[c] == "" {
			continue
		}
		row[c] += strings.Repeat(" ", longest-frac(row[c]))
	}
}

// DisplayWidth returns the number of terminal columns s occupies: East Asian
// wide and fullwidth runes count two, combining marks count zero.
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
		case isWide(r):
			n += 2
		default:
			n++
		}
	}
	return n
}

func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}
