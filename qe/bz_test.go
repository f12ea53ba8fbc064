package qe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/mat"
)

func squareLattice() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}

func hexLattice() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		-0.5, math.Sqrt(3) / 2, 0,
		0, 0, 1,
	})
}

func TestFirstBZPolygon_SquareLattice(t *testing.T) {
	// GIVEN a square reciprocal lattice with |b|=1
	poly, err := FirstBZPolygon(squareLattice())
	require.NoError(t, err)

	// THEN the Wigner-Seitz cell is the square [-1/2,1/2]^2
	require.Len(t, poly, 4)
	for _, p := range poly {
		assert.InDelta(t, 0.5, math.Abs(p.X), 1e-9)
		assert.InDelta(t, 0.5, math.Abs(p.Y), 1e-9)
	}
}

func TestFirstBZPolygon_HexagonalLattice(t *testing.T) {
	poly, err := FirstBZPolygon(hexLattice())
	require.NoError(t, err)

	// hexagonal BZ has six vertices, all equidistant from the origin
	require.Len(t, poly, 6)
	r0 := math.Hypot(poly[0].X, poly[0].Y)
	for _, p := range poly[1:] {
		assert.InDelta(t, r0, math.Hypot(p.X, p.Y), 1e-9)
	}
}

func TestKPointsToCart_Crystal(t *testing.T) {
	b := hexLattice()
	k := [][]float64{{0.5, 0.5, 0}}

	pts, err := KPointsToCart(k, b, KPointCrystal)
	require.NoError(t, err)
	// 0.5*b1 + 0.5*b2
	assert.InDelta(t, 0.25, pts[0].X, 1e-12)
	assert.InDelta(t, math.Sqrt(3)/4, pts[0].Y, 1e-12)
}

func TestKPointsToCart_AutoHeuristic(t *testing.T) {
	b := squareLattice()

	// small coordinates are treated as crystal
	pts, err := KPointsToCart([][]float64{{0.5, 0, 0}}, b, KPointAuto)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pts[0].X, 1e-12)

	// large coordinates pass through as cartesian
	pts, err = KPointsToCart([][]float64{{2.5, 1.0, 0}}, b, KPointAuto)
	require.NoError(t, err)
	assert.Equal(t, Point2{2.5, 1.0}, pts[0])
}

func TestKPointsToCart_BadMode(t *testing.T) {
	_, err := KPointsToCart([][]float64{{0, 0, 0}}, squareLattice(), KPointMode("polar"))
	assert.Error(t, err)
}
