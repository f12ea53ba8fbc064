package qe

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// BandStructure holds a QE &plot band file: k-points and per-band energies.
type BandStructure struct {
	KPoints  [][3]float64 // fractional k-points, one per path sample
	Energies [][]float64  // indexed [band][point]
}

// ReadBands parses a QE band file in "&plot nbnd=..., nks=... /" format.
func ReadBands(path string) (*BandStructure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var header string
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			header = s
			break
		}
	}
	m := plotHeaderRe.FindStringSubmatch(header)
	if m == nil {
		return nil, fmt.Errorf("%s: not a QE &plot band file", path)
	}
	nbnd, _ := strconv.Atoi(m[1])
	nks, _ := strconv.Atoi(m[2])

	var vals []float64
	readFloats := func(n int) ([]float64, error) {
		for len(vals) < n {
			if !sc.Scan() {
				return nil, fmt.Errorf("%s: unexpected end of band file", path)
			}
			for _, tok := range strings.Fields(normalizeFortran(sc.Text())) {
				v, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					return nil, fmt.Errorf("%s: bad value %q", path, tok)
				}
				vals = append(vals, v)
			}
		}
		out := vals[:n]
		vals = vals[n:]
		return out, nil
	}

	bs := &BandStructure{
		KPoints:  make([][3]float64, nks),
		Energies: make([][]float64, nbnd),
	}
	for b := range bs.Energies {
		bs.Energies[b] = make([]float64, nks)
	}
	for ik := 0; ik < nks; ik++ {
		k, err := readFloats(3)
		if err != nil {
			return nil, err
		}
		copy(bs.KPoints[ik][:], k)
		e, err := readFloats(nbnd)
		if err != nil {
			return nil, err
		}
		for b := 0; b < nbnd; b++ {
			bs.Energies[b][ik] = e[b]
		}
	}
	return bs, nil
}

// KDistNormalized builds the cumulative k-distance along the path,
// normalized to [0,1], so DFT and Wannier bands share one path coordinate.
func (bs *BandStructure) KDistNormalized() []float64 {
	n := len(bs.KPoints)
	x := make([]float64, n)
	if n <= 1 {
		return x
	}
	for i := 1; i < n; i++ {
		var d float64
		for c := 0; c < 3; c++ {
			diff := bs.KPoints[i][c] - bs.KPoints[i-1][c]
			d += diff * diff
		}
		x[i] = x[i-1] + math.Sqrt(d)
	}
	span := x[n-1] - x[0]
	if span == 0 {
		return make([]float64, n)
	}
	floats.AddConst(-x[0], x)
	floats.Scale(1/span, x)
	return x
}

// Shift subtracts ef from every band energy in place.
func (bs *BandStructure) Shift(ef float64) {
	for _, band := range bs.Energies {
		floats.AddConst(-ef, band)
	}
}

// WannierBlock is one band of a Wannier90 gnuplot band file.
type WannierBlock struct {
	X []float64 // k-distance
	E []float64 // energy (eV)
}

// ReadWannierBands parses a Wannier90 two-column band file into blocks
// separated by blank lines or a bare "e".
func ReadWannierBands(path string) ([]WannierBlock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		blocks []WannierBlock
		cur    WannierBlock
	)
	flush := func() {
		if len(cur.X) > 0 {
			blocks = append(blocks, cur)
			cur = WannierBlock{}
		}
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || s == "e" || strings.HasPrefix(s, "#") {
			flush()
			continue
		}
		toks := strings.Fields(s)
		if len(toks) < 2 {
			continue
		}
		x, errX := strconv.ParseFloat(toks[0], 64)
		y, errY := strconv.ParseFloat(toks[1], 64)
		if errX != nil || errY != nil {
			continue
		}
		cur.X = append(cur.X, x)
		cur.E = append(cur.E, y)
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// NormalizeWannierX rescales all block x values to [0,1] using the global
// min and max across blocks.
func NormalizeWannierX(blocks []WannierBlock) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, b := range blocks {
		for _, x := range b.X {
			min = math.Min(min, x)
			max = math.Max(max, x)
		}
	}
	span := max - min
	if !(span > 0) || math.IsInf(span, 0) {
		return
	}
	for _, b := range blocks {
		floats.AddConst(-min, b.X)
		floats.Scale(1/span, b.X)
	}
}

// ShiftWannier subtracts ef from every block energy in place.
func ShiftWannier(blocks []WannierBlock, ef float64) {
	for _, b := range blocks {
		floats.AddConst(-ef, b.E)
	}
}
