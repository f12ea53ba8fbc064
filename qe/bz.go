package qe

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// KPointMode selects how k-point columns are interpreted when mapping onto
// the Cartesian reciprocal plane.
type KPointMode string

const (
	KPointAuto    KPointMode = "auto"
	KPointCrystal KPointMode = "crystal"
	KPointCart    KPointMode = "cart"
)

// bzNeighborRange bounds the reciprocal lattice neighbors used for the
// Wigner-Seitz construction. 2 is enough for any 2D Bravais lattice.
const bzNeighborRange = 2

// Point2 is a 2D point in the reciprocal plane.
type Point2 struct{ X, Y float64 }

// clipHalfPlane clips a convex polygon by the half-plane n·x <= c.
func clipHalfPlane(poly []Point2, nx, ny, c float64) []Point2 {
	const eps = 1e-12
	if len(poly) == 0 {
		return poly
	}
	inside := func(p Point2) bool { return nx*p.X+ny*p.Y <= c+eps }
	intersect := func(p1, p2 Point2) Point2 {
		dx, dy := p2.X-p1.X, p2.Y-p1.Y
		denom := nx*dx + ny*dy
		if math.Abs(denom) < eps {
			return p1
		}
		t := (c - (nx*p1.X + ny*p1.Y)) / denom
		t = math.Max(0, math.Min(1, t))
		return Point2{p1.X + t*dx, p1.Y + t*dy}
	}

	var out []Point2
	prev := poly[len(poly)-1]
	prevIn := inside(prev)
	for _, cur := range poly {
		curIn := inside(cur)
		if curIn {
			if !prevIn {
				out = append(out, intersect(prev, cur))
			}
			out = append(out, cur)
		} else if prevIn {
			out = append(out, intersect(prev, cur))
		}
		prev, prevIn = cur, curIn
	}
	return out
}

// FirstBZPolygon computes the 2D first Brillouin zone as the Wigner-Seitz
// cell of the reciprocal lattice spanned by the in-plane parts of b1 and b2:
// a large bounding square is clipped by the half-plane x·G <= |G|²/2 for
// every nearby lattice vector G, keeping points closer to the origin than to
// any G.
func FirstBZPolygon(b *mat.Dense) ([]Point2, error) {
	b1x, b1y := b.At(0, 0), b.At(0, 1)
	b2x, b2y := b.At(1, 0), b.At(1, 1)

	type vec struct{ x, y float64 }
	var gs []vec
	var rmax float64
	for m := -bzNeighborRange; m <= bzNeighborRange; m++ {
		for n := -bzNeighborRange; n <= bzNeighborRange; n++ {
			if m == 0 && n == 0 {
				continue
			}
			g := vec{float64(m)*b1x + float64(n)*b2x, float64(m)*b1y + float64(n)*b2y}
			norm := math.Hypot(g.x, g.y)
			if norm > 0 {
				gs = append(gs, g)
				rmax = math.Max(rmax, norm)
			}
		}
	}
	if len(gs) == 0 {
		return nil, fmt.Errorf("no neighbor G vectors generated")
	}

	r := 2.5 * rmax
	poly := []Point2{{-r, -r}, {r, -r}, {r, r}, {-r, r}}
	for _, g := range gs {
		c := 0.5 * (g.x*g.x + g.y*g.y)
		poly = clipHalfPlane(poly, g.x, g.y, c)
		if len(poly) == 0 {
			break
		}
	}
	poly = dedupeVertices(poly, 1e-9*rmax)
	if len(poly) < 3 {
		return nil, fmt.Errorf("BZ polygon clipping produced a degenerate polygon")
	}
	return poly, nil
}

// dedupeVertices drops consecutive vertices closer than tol, including the
// closing last/first pair, which tangent half-planes can produce.
func dedupeVertices(poly []Point2, tol float64) []Point2 {
	if len(poly) < 2 {
		return poly
	}
	out := poly[:1]
	for _, p := range poly[1:] {
		last := out[len(out)-1]
		if math.Hypot(p.X-last.X, p.Y-last.Y) > tol {
			out = append(out, p)
		}
	}
	if len(out) > 1 {
		first, last := out[0], out[len(out)-1]
		if math.Hypot(first.X-last.X, first.Y-last.Y) <= tol {
			out = out[:len(out)-1]
		}
	}
	return out
}

// KPointsToCart maps k-point rows onto the 2D Cartesian reciprocal plane.
// In crystal mode the columns are fractional coefficients along (b1,b2,b3);
// in cart mode they pass through unchanged. Auto treats max|k| <= 1.2 as
// crystal coordinates.
func KPointsToCart(kxyz [][]float64, b *mat.Dense, mode KPointMode) ([]Point2, error) {
	use := mode
	if mode == KPointAuto {
		var m float64
		for _, k := range kxyz {
			for c := 0; c < 3 && c < len(k); c++ {
				m = math.Max(m, math.Abs(k[c]))
			}
		}
		if m <= 1.2 {
			use = KPointCrystal
		} else {
			use = KPointCart
		}
	}

	out := make([]Point2, len(kxyz))
	switch use {
	case KPointCart:
		for i, k := range kxyz {
			if len(k) < 2 {
				return nil, fmt.Errorf("k-point %d: need at least 2 columns", i)
			}
			out[i] = Point2{k[0], k[1]}
		}
	case KPointCrystal:
		for i, k := range kxyz {
			if len(k) < 3 {
				return nil, fmt.Errorf("k-point %d: need 3 columns", i)
			}
			kv := mat.NewVecDense(3, []float64{k[0], k[1], k[2]})
			var cart mat.VecDense
			cart.MulVec(b.T(), kv)
			out[i] = Point2{cart.AtVec(0), cart.AtVec(1)}
		}
	default:
		return nil, fmt.Errorf("unknown k-point mode %q", mode)
	}
	return out, nil
}
