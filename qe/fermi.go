package qe

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// fermiRe matches the QE printout "the Fermi energy is   XX.XXXX ev".
var fermiRe = regexp.MustCompile(`(?i)the\s+Fermi\s+energy\s+is\s+([-+]?\d*\.?\d+(?:[Ee][-+]?\d+)?)\s*ev`)

// FermiFromFile scans one QE output file for the Fermi energy. When the line
// appears more than once the last occurrence wins (the most recent run).
func FermiFromFile(path string) (float64, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	var (
		ef    float64
		found bool
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if m := fermiRe.FindStringSubmatch(sc.Text()); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				ef, found = v, true
			}
		}
	}
	return ef, found
}

// FindFermiOutput searches dir for QE output files likely to contain the
// Fermi energy, preferring nscf runs over scf runs.
func FindFermiOutput(dir string) string {
	for _, pat := range []string{"*nscf*.out", "*scf*.out"} {
		matches, _ := filepath.Glob(filepath.Join(dir, pat))
		sort.Strings(matches)
		if len(matches) > 0 {
			return matches[0]
		}
	}
	return ""
}

// ScanFermi scans every *.out file in dir and returns the last Fermi energy
// found, as the PDOS overlay does.
func ScanFermi(dir string) (float64, bool) {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.out"))
	sort.Strings(matches)
	var (
		ef    float64
		found bool
	)
	for _, path := range matches {
		if v, ok := FermiFromFile(path); ok {
			ef, found = v, true
		}
	}
	return ef, found
}

// ResolveFermi resolves the Fermi energy with the priority: explicit value,
// then a named output file, then auto-search in dir (unless disabled). The
// returned source string describes where the value came from.
func ResolveFermi(dir string, set *float64, fromFile string, noSearch bool) (float64, bool, string) {
	if set != nil {
		return *set, true, "manual(--set-fermi)"
	}
	if fromFile != "" {
		if ef, ok := FermiFromFile(fromFile); ok {
			return ef, true, fmt.Sprintf("fermi-from(%s)", filepath.Base(fromFile))
		}
		return 0, false, fmt.Sprintf("fermi-from(%s, no-match)", filepath.Base(fromFile))
	}
	if noSearch {
		return 0, false, "disabled(--no-fermi-search)"
	}
	out := FindFermiOutput(dir)
	if out == "" {
		return 0, false, "auto(no scf/nscf out found)"
	}
	if ef, ok := FermiFromFile(out); ok {
		return ef, true, fmt.Sprintf("auto(%s)", filepath.Base(out))
	}
	return 0, false, fmt.Sprintf("auto(%s, no-match)", filepath.Base(out))
}

// ShouldShiftFermi decides whether an energy grid still needs the E -> E-EF
// shift. A grid spanning negative and positive energies roughly symmetric
// about zero is assumed already EF-centered.
func ShouldShiftFermi(energies []float64) bool {
	if len(energies) == 0 {
		return true
	}
	min, max := energies[0], energies[0]
	for _, e := range energies[1:] {
		if e < min {
			min = e
		}
		if e > max {
			max = e
		}
	}
	if min < 0 && 0 < max {
		left, right := -min, max
		if left > 1e-6 && right > 1e-6 {
			ratio := left / right
			if ratio < 1 {
				ratio = 1 / ratio
			}
			if ratio < 3.0 {
				return false
			}
		}
	}
	return true
}
