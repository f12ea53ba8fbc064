package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/suecreamm/materials/qe"
)

// MapData is a set of 2D points with one scalar value per point.
type MapData struct {
	X []float64
	Y []float64
	V []float64
}

// colorMap returns the shared diverging map scaled to the value range.
func colorMap(vmin, vmax float64) palette.ColorMap {
	cm := moreland.Kindlmann()
	if vmin == vmax {
		// degenerate range, give the map something to scale over
		vmax = vmin + 1
	}
	cm.SetMin(vmin)
	cm.SetMax(vmax)
	return cm
}

// AddColorScatter adds d as a scatter with each glyph colored by its value
// through cm.
func AddColorScatter(p *plot.Plot, d MapData, cm palette.ColorMap) error {
	if len(d.X) != len(d.Y) || len(d.X) != len(d.V) {
		return fmt.Errorf("map data length mismatch: %d x, %d y, %d values",
			len(d.X), len(d.Y), len(d.V))
	}
	pts, err := xys(d.X, d.Y)
	if err != nil {
		return err
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	values := d.V
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		c, cerr := cm.At(values[i])
		if cerr != nil {
			c = color.Black
		}
		return draw.GlyphStyle{
			Color:  c,
			Radius: vg.Points(1.5),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(sc)
	return nil
}

// AddPolygonOutline draws the closed outline of poly, used for the first
// Brillouin zone boundary on top of k-point maps.
func AddPolygonOutline(p *plot.Plot, poly []qe.Point2) error {
	if len(poly) < 3 {
		return fmt.Errorf("polygon with %d vertices cannot be drawn", len(poly))
	}
	pts := make(plotter.XYs, 0, len(poly)+1)
	for _, v := range poly {
		pts = append(pts, plotter.XY{X: v.X, Y: v.Y})
	}
	pts = append(pts, pts[0])
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.Black
	line.Width = vg.Points(1)
	p.Add(line)
	return nil
}

// SquareLimits forces equal x and y ranges around the origin so the
// reciprocal-space maps keep their aspect.
func SquareLimits(p *plot.Plot, xs, ys []float64, extra []qe.Point2) {
	lim := 0.0
	for _, v := range xs {
		lim = math.Max(lim, math.Abs(v))
	}
	for _, v := range ys {
		lim = math.Max(lim, math.Abs(v))
	}
	for _, v := range extra {
		lim = math.Max(lim, math.Max(math.Abs(v.X), math.Abs(v.Y)))
	}
	if lim == 0 {
		lim = 1
	}
	lim *= 1.05
	p.X.Min, p.X.Max = -lim, lim
	p.Y.Min, p.Y.Max = -lim, lim
}

// SurfaceMap draws a color-mapped k-point scatter with an optional zone
// boundary and a colorbar side panel, and writes base.png and base.pdf.
func SurfaceMap(base, title, cbLabel string, d MapData, bz []qe.Point2) error {
	vmin, vmax := math.Inf(1), math.Inf(-1)
	for _, v := range d.V {
		vmin = math.Min(vmin, v)
		vmax = math.Max(vmax, v)
	}
	if len(d.V) == 0 {
		return fmt.Errorf("no points to map")
	}
	cm := colorMap(vmin, vmax)

	p := NewPlot(title, "kx (2π/alat)", "ky (2π/alat)")
	if err := AddColorScatter(p, d, cm); err != nil {
		return err
	}
	if len(bz) >= 3 {
		if err := AddPolygonOutline(p, bz); err != nil {
			return err
		}
	}
	SquareLimits(p, d.X, d.Y, bz)

	bar := plot.New()
	bar.HideX()
	bar.Y.Label.Text = cbLabel
	bar.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})

	return SaveSplit(p, bar, base, 0.82, 7.5*vg.Inch, 6*vg.Inch)
}
