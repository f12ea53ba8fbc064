package qe

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// Spin identifies the spin channel of a PDOS file, when resolved.
type Spin string

const (
	SpinNone Spin = ""
	SpinUp   Spin = "up"
	SpinDown Spin = "down"
)

// PDOSKind distinguishes the total DOS from atom/orbital projections.
type PDOSKind string

const (
	PDOSTotal PDOSKind = "tot"
	PDOSProj  PDOSKind = "proj"
)

// PDOSFile describes one projwfc.x output file in a directory listing.
type PDOSFile struct {
	Name     string
	Seedname string
	Kind     PDOSKind
	Spin     Spin
}

var (
	pdosTotRe  = regexp.MustCompile(`^(.+)\.pdos_tot(_(up|down))?$`)
	pdosProjRe = regexp.MustCompile(`^(.+)\.pdos_atm#\d+\(.*?\)_wfc#\d+\(.*?\)(_up|_down)?$`)
	atomRe     = regexp.MustCompile(`\((.*?)\)`)
	orbitalRe  = regexp.MustCompile(`wfc#\d+\((.*?)\)`)
)

// ClassifyPDOS decides whether name follows the projwfc.x naming scheme
// (prefix.pdos_tot[_up|_down] or prefix.pdos_atm#N(El)_wfc#M(orb)[_up|_down])
// and extracts the metadata. Non-PDOS files return (zero, false).
func ClassifyPDOS(name string) (PDOSFile, bool) {
	if m := pdosTotRe.FindStringSubmatch(name); m != nil {
		return PDOSFile{Name: name, Seedname: m[1], Kind: PDOSTotal, Spin: Spin(m[3])}, true
	}
	if m := pdosProjRe.FindStringSubmatch(name); m != nil {
		spin := SpinNone
		switch m[2] {
		case "_up":
			spin = SpinUp
		case "_down":
			spin = SpinDown
		}
		return PDOSFile{Name: name, Seedname: m[1], Kind: PDOSProj, Spin: spin}, true
	}
	return PDOSFile{}, false
}

// FindPDOS scans dir for PDOS files, sorted by filename for reproducible
// plot ordering.
func FindPDOS(dir string) ([]PDOSFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []PDOSFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if info, ok := ClassifyPDOS(e.Name()); ok {
			files = append(files, info)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	if len(files) == 0 {
		return nil, fmt.Errorf("no valid PDOS files found in %s", dir)
	}
	return files, nil
}

// HasSpin reports whether any file in the set is spin-resolved.
func HasSpin(files []PDOSFile) bool {
	for _, f := range files {
		if f.Spin == SpinUp || f.Spin == SpinDown {
			return true
		}
	}
	return false
}

// Label builds a short curve label from the filename: "Total DOS" for the
// total, "Ti d" for prefix.pdos_atm#1(Ti)_wfc#3(d).
func (f PDOSFile) Label() string {
	if f.Kind == PDOSTotal {
		return "Total DOS"
	}
	atom := "atom?"
	if m := atomRe.FindStringSubmatch(f.Name); m != nil {
		atom = m[1]
	}
	orbital := "wfc?"
	if m := orbitalRe.FindStringSubmatch(f.Name); m != nil {
		orbital = m[1]
	}
	return atom + " " + orbital
}

// ReadPDOS parses the file and returns the energy grid and the first DOS
// column. Summing m-resolved columns is deliberately not done; the first
// column after E is the projwfc convention used here.
func ReadPDOS(dir string, f PDOSFile) (energy, dos []float64, err error) {
	tab, err := ReadTable(filepath.Join(dir, f.Name))
	if err != nil {
		return nil, nil, err
	}
	if tab.Cols() < 2 {
		return nil, nil, fmt.Errorf("%s: need at least 2 columns", f.Name)
	}
	return tab.Col(0), tab.Col(1), nil
}
