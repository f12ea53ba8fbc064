package qe

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var gammaRe = regexp.MustCompile(`(?i)^(g|gamma|Γ)$`)

// HighSymmetry pairs a tick label with its index into the dispersion path.
type HighSymmetry struct {
	Labels  []string
	Indices []int
}

// ReadQPathLabels reads a QE band-form q-path file (count line, then one
// high-symmetry point per line with the label in the last column) and
// spreads the tick indices evenly over nPoints path samples. Gamma spellings
// are normalized to the Greek letter.
func ReadQPathLabels(path string, nPoints int) (*HighSymmetry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(raw), "\n") {
		s := strings.TrimSpace(line)
		if s != "" && !strings.HasPrefix(s, "#") {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%s: empty q-path file", path)
	}
	nHSP, err := strconv.Atoi(strings.Fields(lines[0])[0])
	if err != nil {
		return nil, fmt.Errorf("%s: bad point count line %q", path, lines[0])
	}

	var labels []string
	for i := 1; i <= nHSP && i < len(lines); i++ {
		toks := strings.Fields(lines[i])
		lbl := fmt.Sprintf("P%d", i)
		if len(toks) >= 4 {
			lbl = toks[len(toks)-1]
		}
		if gammaRe.MatchString(lbl) {
			lbl = "Γ"
		}
		labels = append(labels, lbl)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%s: no high-symmetry points", path)
	}

	nSegments := len(labels) - 1
	indices := make([]int, len(labels))
	if nSegments > 0 {
		step := float64(nPoints-1) / float64(nSegments)
		for i := range indices {
			indices[i] = int(float64(i)*step + 0.5)
		}
	} else {
		for i := range indices {
			indices[i] = i
		}
	}
	return &HighSymmetry{Labels: labels, Indices: indices}, nil
}

// ReadLabelInfo parses a Wannier90 *.labelinfo.dat file: LABEL INDEX ... per
// line, INDEX 1-based into the k-point path. Labels are mapped onto the
// given x coordinates; out-of-range indices are dropped.
func ReadLabelInfo(path string, x []float64) (positions []float64, labels []string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	for _, line := range strings.Split(string(raw), "\n") {
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		toks := strings.Fields(s)
		if len(toks) < 2 {
			continue
		}
		idx, err := strconv.Atoi(toks[1])
		if err != nil || idx < 1 || idx > len(x) {
			continue
		}
		positions = append(positions, x[idx-1])
		labels = append(labels, toks[0])
	}
	return positions, labels, nil
}
