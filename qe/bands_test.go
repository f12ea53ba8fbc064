package qe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bandDat = `&plot nbnd=   3, nks=   3 /
            0.000000  0.000000  0.000000
   -5.123   0.456   3.789
            0.250000  0.000000  0.000000
   -5.000   0.500
    3.900
            0.500000  0.000000  0.000000
   -4.800   0.600   4.000
`

func TestReadBands(t *testing.T) {
	path := writeTemp(t, "band.dat", bandDat)

	bs, err := ReadBands(path)
	require.NoError(t, err)
	require.Len(t, bs.KPoints, 3)
	require.Len(t, bs.Energies, 3)
	assert.Equal(t, [3]float64{0.25, 0, 0}, bs.KPoints[1])
	// energies are stored per band across k-points, including wrapped lines
	assert.Equal(t, []float64{-5.123, -5.0, -4.8}, bs.Energies[0])
	assert.Equal(t, []float64{3.789, 3.9, 4.0}, bs.Energies[2])
}

func TestReadBands_NotPlotFormat(t *testing.T) {
	path := writeTemp(t, "band.dat", "1.0 2.0\n")
	_, err := ReadBands(path)
	assert.Error(t, err)
}

func TestKDistNormalized(t *testing.T) {
	bs := &BandStructure{KPoints: [][3]float64{
		{0, 0, 0},
		{0.5, 0, 0},
		{0.5, 0.5, 0},
	}}

	x := bs.KDistNormalized()
	require.Len(t, x, 3)
	assert.Equal(t, 0.0, x[0])
	assert.InDelta(t, 0.5, x[1], 1e-12)
	assert.Equal(t, 1.0, x[2])
}

func TestKDistNormalized_DegeneratePath(t *testing.T) {
	bs := &BandStructure{KPoints: [][3]float64{{0, 0, 0}}}
	assert.Equal(t, []float64{0}, bs.KDistNormalized())

	bs = &BandStructure{KPoints: [][3]float64{{0.1, 0, 0}, {0.1, 0, 0}}}
	assert.Equal(t, []float64{0, 0}, bs.KDistNormalized())
}

func TestShift(t *testing.T) {
	bs := &BandStructure{Energies: [][]float64{{1, 2}, {3, 4}}}
	bs.Shift(1.5)
	assert.Equal(t, []float64{-0.5, 0.5}, bs.Energies[0])
	assert.Equal(t, []float64{1.5, 2.5}, bs.Energies[1])
}

const wannierBand = `  0.00000  -5.10000
  0.50000  -5.00000
  1.00000  -4.90000

  0.00000   2.10000
  0.50000   2.20000
  1.00000   2.30000
e
`

func TestReadWannierBands_Blocks(t *testing.T) {
	path := writeTemp(t, "tis2_band.dat", wannierBand)

	blocks, err := ReadWannierBands(path)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, []float64{0, 0.5, 1}, blocks[0].X)
	assert.Equal(t, []float64{-5.1, -5.0, -4.9}, blocks[0].E)
	assert.Equal(t, []float64{2.1, 2.2, 2.3}, blocks[1].E)
}

func TestNormalizeWannierX(t *testing.T) {
	blocks := []WannierBlock{
		{X: []float64{2, 3}, E: []float64{0, 0}},
		{X: []float64{3, 4}, E: []float64{0, 0}},
	}

	NormalizeWannierX(blocks)

	assert.Equal(t, []float64{0, 0.5}, blocks[0].X)
	assert.Equal(t, []float64{0.5, 1}, blocks[1].X)
}

func TestShiftWannier(t *testing.T) {
	blocks := []WannierBlock{{X: []float64{0}, E: []float64{5.0}}}
	ShiftWannier(blocks, 2.0)
	assert.Equal(t, []float64{3.0}, blocks[0].E)
}
