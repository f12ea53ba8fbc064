// Package qe parses the text outputs of Quantum ESPRESSO and its
// post-processing tools: whitespace numeric tables, projwfc.x PDOS files,
// matdyn.x frequency files, band structures, q-path inputs, and the
// data-file-schema XML.
package qe

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var numRe = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?(\s+|$)`)

// normalizeFortran rewrites Fortran D-exponents so strconv can parse them.
func normalizeFortran(s string) string {
	return strings.NewReplacer("D", "E", "d", "e").Replace(s)
}

func isNumericLine(s string) bool {
	return numRe.MatchString(normalizeFortran(strings.TrimSpace(s)))
}

// Table is a whitespace-delimited numeric table with optional header lines.
type Table struct {
	Data   [][]float64 // rows, truncated to the minimum row width
	Labels []string    // header tokens when they match the width, else col1..colM
	Header []string    // raw comment/header lines from the top of the file
}

// Rows returns the number of data rows.
func (t *Table) Rows() int { return len(t.Data) }

// Cols returns the column count.
func (t *Table) Cols() int {
	if len(t.Data) == 0 {
		return 0
	}
	return len(t.Data[0])
}

// Col extracts column i as a slice.
func (t *Table) Col(i int) []float64 {
	out := make([]float64, len(t.Data))
	for r, row := range t.Data {
		out[r] = row[i]
	}
	return out
}

// ReadTable reads a numeric table from path. Comment lines (#, !, ;, @) and
// non-numeric text are collected as header; ragged rows are truncated to the
// narrowest row so one short line does not discard the file.
func ReadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(raw), "\n")

	var (
		header       []string
		headerTokens []string
		rows         [][]float64
	)

	// top header/comment lines, before the first numeric row
	limit := len(lines)
	if limit > 80 {
		limit = 80
	}
	for i := 0; i < limit; i++ {
		s := strings.TrimSpace(lines[i])
		if s == "" {
			continue
		}
		if isNumericLine(s) {
			break
		}
		if strings.HasPrefix(s, "#") || strings.HasPrefix(s, "!") || strings.ContainsFunc(s, isLetter) {
			header = append(header, s)
			toks := strings.Fields(strings.TrimLeft(s, "#!;@"))
			if len(toks) > 0 && anyAlpha(toks) {
				headerTokens = toks
			}
		}
	}

	for _, line := range lines {
		s := strings.TrimSpace(line)
		if s == "" || strings.IndexByte("#!;@", s[0]) >= 0 {
			continue
		}
		if !isNumericLine(s) {
			continue
		}
		parts := strings.Fields(normalizeFortran(s))
		row := make([]float64, 0, len(parts))
		ok := true
		for _, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				ok = false
				break
			}
			row = append(row, v)
		}
		if ok && len(row) > 0 {
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no numeric data found in %s", path)
	}

	ncol := len(rows[0])
	for _, r := range rows {
		if len(r) < ncol {
			ncol = len(r)
		}
	}
	for i := range rows {
		rows[i] = rows[i][:ncol]
	}

	labels := make([]string, ncol)
	if len(headerTokens) == ncol {
		copy(labels, headerTokens)
	} else {
		for i := range labels {
			labels[i] = fmt.Sprintf("col%d", i+1)
		}
	}

	return &Table{Data: rows, Labels: labels, Header: header}, nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func anyAlpha(toks []string) bool {
	for _, t := range toks {
		if strings.ContainsFunc(t, isLetter) {
			return true
		}
	}
	return false
}
