package qe

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/suecreamm/materials/fsutil"
)

// Unit conversion factors for frequencies given in cm^-1.
const (
	CM1PerTHz = 33.356
	CM1PerMeV = 8.066
)

// FreqUnit names an output unit for phonon frequencies.
type FreqUnit string

const (
	UnitMeV FreqUnit = "mev"
	UnitTHz FreqUnit = "thz"
	UnitCM1 FreqUnit = "cm-1"
)

// ConvertFromCM1 converts frequencies from cm^-1 into the requested unit and
// returns the matching axis label.
func ConvertFromCM1(freqs []float64, unit FreqUnit) ([]float64, string, error) {
	switch unit {
	case UnitCM1:
		return freqs, "Frequency (cm^-1)", nil
	case UnitTHz:
		out := make([]float64, len(freqs))
		for i, f := range freqs {
			out[i] = f / CM1PerTHz
		}
		return out, "Frequency (THz)", nil
	case UnitMeV:
		out := make([]float64, len(freqs))
		for i, f := range freqs {
			out[i] = f / CM1PerMeV
		}
		return out, "Energy (meV)", nil
	}
	return nil, "", fmt.Errorf("unknown unit %q", unit)
}

// Dispersion holds a phonon band structure: one q-path coordinate per point
// and nbnd frequencies (cm^-1) per point.
type Dispersion struct {
	QPath [][]float64 // per-point band values indexed [point][band]
	X     []float64   // path coordinate per point
}

var plotHeaderRe = regexp.MustCompile(`^\s*&plot\s+nbnd=\s*(\d+)\s*,\s*nks=\s*(\d+)\s*/`)

// ReadDispersion parses a dispersion file, dispatching on content: matdyn.x
// raw .freq files carry a "&plot nbnd=..., nks=..." header, everything else
// is treated as a gnuplot-style table with the path coordinate first.
func ReadDispersion(path string) (*Dispersion, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	firstLine := ""
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) != "" {
			firstLine = strings.TrimSpace(line)
			break
		}
	}
	if strings.HasPrefix(strings.ToLower(firstLine), "&plot") {
		return parseRawFreq(string(raw))
	}
	return parseFreqTable(path)
}

// parseFreqTable loads q f1 f2 ... tables (.freq.gp and friends).
func parseFreqTable(path string) (*Dispersion, error) {
	tab, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if tab.Cols() < 2 {
		return nil, fmt.Errorf("bad frequency table %s: need q plus at least one band", path)
	}
	d := &Dispersion{X: tab.Col(0)}
	for _, row := range tab.Data {
		d.QPath = append(d.QPath, row[1:])
	}
	return d, nil
}

// parseRawFreq parses the matdyn.x raw format: the &plot header, then for
// each of nks points a 3-component q vector line followed by nbnd
// frequencies wrapped over several lines.
func parseRawFreq(content string) (*Dispersion, error) {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty .freq file")
	}
	m := plotHeaderRe.FindStringSubmatch(lines[0])
	if m == nil {
		return nil, fmt.Errorf("not a raw .freq header: %q", lines[0])
	}
	nbnd, _ := strconv.Atoi(m[1])
	nks, _ := strconv.Atoi(m[2])

	d := &Dispersion{}
	i := 1
	for len(d.QPath) < nks && i < len(lines) {
		if len(strings.Fields(lines[i])) != 3 {
			return nil, fmt.Errorf("unexpected q-vector line %d: %q", i+1, lines[i])
		}
		i++
		var bands []float64
		for i < len(lines) && len(bands) < nbnd && isNumericLine(lines[i]) {
			for _, tok := range strings.Fields(normalizeFortran(lines[i])) {
				v, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					return nil, fmt.Errorf("bad frequency value %q", tok)
				}
				bands = append(bands, v)
			}
			i++
		}
		if len(bands) < nbnd {
			return nil, fmt.Errorf("point %d: got %d of %d bands", len(d.QPath)+1, len(bands), nbnd)
		}
		d.QPath = append(d.QPath, bands[:nbnd])
	}
	if len(d.QPath) != nks {
		return nil, fmt.Errorf("got %d of %d q-points", len(d.QPath), nks)
	}
	d.X = make([]float64, nks)
	for k := range d.X {
		d.X[k] = float64(k)
	}
	return d, nil
}

// ResolveDispersionFile resolves the --freq argument: a path that exists is
// used directly, otherwise it is treated as a PREFIX and the common matdyn
// output names are tried. The returned prefix is "" when arg was a real path.
func ResolveDispersionFile(arg string) (path, prefix string, err error) {
	if info, serr := os.Stat(arg); serr == nil && info.Mode().IsRegular() {
		return arg, "", nil
	}
	guesses := []string{
		arg + "_phband.freq.gp",
		arg + "_phband.freq",
		arg + ".freq.gp",
		arg + ".freq",
		arg + "_dispersion.freq.gp",
		arg + "_dispersion.freq",
		arg + "_phband.freq.gp.dat",
		arg + "_phband.freq.dat",
	}
	if found := fsutil.FirstExisting(guesses...); found != "" {
		return found, arg, nil
	}
	return "", "", fmt.Errorf("could not find dispersion file, tried: %s", strings.Join(guesses, ", "))
}

// ResolvePhononDOS locates a phonon DOS file for the prefix; "" when absent.
func ResolvePhononDOS(prefix string) string {
	if prefix == "" {
		return ""
	}
	return fsutil.FirstExisting(
		prefix+"_phdos",
		prefix+".phdos",
		prefix+"_phdos.dat",
		prefix+".phdos.dat",
	)
}

// ReadPhononDOS loads a 2-column DOS table (freq in cm^-1, DOS), sorted by
// frequency. Extra columns are ignored.
func ReadPhononDOS(path string) (freq, dos []float64, err error) {
	tab, err := ReadTable(path)
	if err != nil {
		return nil, nil, err
	}
	if tab.Cols() < 2 {
		return nil, nil, fmt.Errorf("bad DOS table %s: need at least 2 columns", path)
	}
	type pair struct{ f, d float64 }
	pairs := make([]pair, tab.Rows())
	for i, row := range tab.Data {
		pairs[i] = pair{row[0], row[1]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].f < pairs[j].f })
	freq = make([]float64, len(pairs))
	dos = make([]float64, len(pairs))
	for i, p := range pairs {
		freq[i], dos[i] = p.f, p.d
	}
	return freq, dos, nil
}

// SanitizeOutBase strips a .png/.pdf extension from the --out argument; both
// formats are always produced from the basename.
func SanitizeOutBase(out string) string {
	ext := strings.ToLower(filepath.Ext(out))
	if ext == ".png" || ext == ".pdf" {
		return strings.TrimSuffix(out, filepath.Ext(out))
	}
	return out
}
