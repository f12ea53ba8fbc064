package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/suecreamm/materials/qe"
)

func TestSave_WritesPNGAndPDF(t *testing.T) {
	// GIVEN a plot with two labeled curves and high-symmetry ticks
	p := NewPlot("dispersion", "", "Frequency (cm-1)")
	err := AddLines(p,
		Series{Label: "acoustic", X: []float64{0, 1, 2}, Y: []float64{0, 50, 100}},
		Series{Label: "optical", X: []float64{0, 1, 2}, Y: []float64{200, 210, 205}},
	)
	require.NoError(t, err)
	require.NoError(t, SetXTicks(p, []float64{0, 2}, []string{"Γ", "M"}))
	require.NoError(t, AddVerticalGuides(p, []float64{0, 2}, 0, 250))
	AddZeroLine(p)

	// WHEN it is saved
	base := filepath.Join(t.TempDir(), "phband")
	require.NoError(t, Save(p, base))

	// THEN both output formats exist and are non-empty
	for _, ext := range []string{".png", ".pdf"} {
		info, err := os.Stat(base + ext)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0), ext)
	}
}

func TestAddLines_LengthMismatch(t *testing.T) {
	p := NewPlot("", "", "")
	err := AddLines(p, Series{X: []float64{0, 1}, Y: []float64{0}})
	assert.ErrorContains(t, err, "length mismatch")
}

func TestSetXTicks_Mismatch(t *testing.T) {
	p := NewPlot("", "", "")
	err := SetXTicks(p, []float64{0, 1}, []string{"Γ"})
	assert.ErrorContains(t, err, "tick mismatch")
}

func TestSaveSplit(t *testing.T) {
	left := NewPlot("bands", "", "E (eV)")
	require.NoError(t, AddLines(left, Series{X: []float64{0, 1}, Y: []float64{-1, 1}}))
	right := NewPlot("", "DOS", "")
	require.NoError(t, AddFillBetween(right, 0,
		[]float64{0.1, 0.4, 0.2}, []float64{-1, 0, 1}, nil))

	base := filepath.Join(t.TempDir(), "split")
	require.NoError(t, SaveSplit(left, right, base, 5.0/6.0, 8*vg.Inch, 5*vg.Inch))
	assert.FileExists(t, base+".png")
	assert.FileExists(t, base+".pdf")
}

func TestSaveSplit_BadFraction(t *testing.T) {
	err := SaveSplit(NewPlot("", "", ""), NewPlot("", "", ""),
		filepath.Join(t.TempDir(), "x"), 1.5, 8*vg.Inch, 5*vg.Inch)
	assert.ErrorContains(t, err, "out of range")
}

func TestSquareLimits(t *testing.T) {
	p := NewPlot("", "", "")
	SquareLimits(p, []float64{0.1, -0.3}, []float64{0.2}, []qe.Point2{{X: 0.5, Y: 0}})
	assert.InDelta(t, -0.525, p.X.Min, 1e-12)
	assert.InDelta(t, 0.525, p.X.Max, 1e-12)
	assert.Equal(t, p.X.Min, p.Y.Min)
	assert.Equal(t, p.X.Max, p.Y.Max)
}

func TestSurfaceMap(t *testing.T) {
	d := MapData{
		X: []float64{-0.4, 0, 0.4},
		Y: []float64{0.1, -0.2, 0.3},
		V: []float64{0.5, 1.2, 0.9},
	}
	bz := []qe.Point2{{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}, {X: 0.5, Y: 0.5}, {X: -0.5, Y: 0.5}}
	base := filepath.Join(t.TempDir(), "map")
	require.NoError(t, SurfaceMap(base, "lambda", "λ", d, bz))
	assert.FileExists(t, base+".png")
	assert.FileExists(t, base+".pdf")
}

func TestSurfaceMap_Empty(t *testing.T) {
	err := SurfaceMap(filepath.Join(t.TempDir(), "m"), "", "", MapData{}, nil)
	assert.ErrorContains(t, err, "no points")
}
