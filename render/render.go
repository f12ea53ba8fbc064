// Package render wraps gonum/plot for the figure styles the workflow
// commands share: stacked line plots with legends, high-symmetry tick
// marks with vertical guides, filled side panels, and color-mapped
// scatter maps. Every figure is written twice, as a transparent PNG and
// as a PDF next to it.
package render

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
)

// Series is one labeled curve. An empty Label keeps the curve out of the
// legend.
type Series struct {
	Label string
	X     []float64
	Y     []float64
}

// NewPlot returns a plot with the house style applied.
func NewPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Title.TextStyle.Font.Size = vg.Points(13)
	p.X.Label.TextStyle.Font.Size = vg.Points(11)
	p.Y.Label.TextStyle.Font.Size = vg.Points(11)
	p.Legend.Top = true
	return p
}

func xys(x, y []float64) (plotter.XYs, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("series length mismatch: %d x values, %d y values", len(x), len(y))
	}
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts, nil
}

// AddLines adds each series as a colored line, cycling the default color
// table. Labeled series also get a legend entry.
func AddLines(p *plot.Plot, series ...Series) error {
	for i, s := range series {
		pts, err := xys(s.X, s.Y)
		if err != nil {
			return err
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.25)
		p.Add(line)
		if s.Label != "" {
			p.Legend.Add(s.Label, line)
		}
	}
	return nil
}

// AddBranches adds every curve in the same color, for band and phonon
// branches. A non-empty label produces one legend entry for the group.
func AddBranches(p *plot.Plot, c color.Color, label string, x []float64, branches ...[]float64) error {
	for i, y := range branches {
		pts, err := xys(x, y)
		if err != nil {
			return err
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = c
		line.Width = vg.Points(1)
		p.Add(line)
		if label != "" && i == 0 {
			p.Legend.Add(label, line)
		}
	}
	return nil
}

// AddLinePoints draws one curve with markers on every data point, the
// style used for the sparse real-space decay diagnostics.
func AddLinePoints(p *plot.Plot, x, y []float64) error {
	pts, err := xys(x, y)
	if err != nil {
		return err
	}
	line, sc, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = plotutil.Color(0)
	line.Width = vg.Points(1.5)
	sc.GlyphStyle.Color = plotutil.Color(1)
	sc.GlyphStyle.Radius = vg.Points(2)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(line, sc)
	return nil
}

// AddZeroLine draws a dashed grey horizontal line at y = 0.
func AddZeroLine(p *plot.Plot) {
	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = color.Gray{Y: 128}
	zero.Width = vg.Points(0.75)
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(zero)
}

// AddVerticalGuides draws a thin vertical line at each x position,
// spanning ymin..ymax. Used for high-symmetry points.
func AddVerticalGuides(p *plot.Plot, positions []float64, ymin, ymax float64) error {
	for _, x := range positions {
		pts := plotter.XYs{{X: x, Y: ymin}, {X: x, Y: ymax}}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = color.Gray{Y: 160}
		line.Width = vg.Points(0.5)
		p.Add(line)
	}
	return nil
}

// SetXTicks pins the x axis to exactly the given tick positions and labels.
func SetXTicks(p *plot.Plot, positions []float64, labels []string) error {
	if len(positions) != len(labels) {
		return fmt.Errorf("tick mismatch: %d positions, %d labels", len(positions), len(labels))
	}
	ticks := make([]plot.Tick, len(positions))
	for i := range positions {
		ticks[i] = plot.Tick{Value: positions[i], Label: labels[i]}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	return nil
}

// AddFillBetween adds the closed polygon (x0,y[0]) .. (x[i],y[i]) ..
// (x0,y[last]) filled with c. With the curve on the x axis this draws the
// sideways filled density panels.
func AddFillBetween(p *plot.Plot, x0 float64, x, y []float64, c color.Color) error {
	pts, err := xys(x, y)
	if err != nil {
		return err
	}
	if len(pts) == 0 {
		return fmt.Errorf("empty fill series")
	}
	closed := make(plotter.XYs, 0, len(pts)+2)
	closed = append(closed, plotter.XY{X: x0, Y: pts[0].Y})
	closed = append(closed, pts...)
	closed = append(closed, plotter.XY{X: x0, Y: pts[len(pts)-1].Y})
	poly, err := plotter.NewPolygon(closed)
	if err != nil {
		return err
	}
	poly.Color = c
	poly.LineStyle.Color = color.Transparent
	p.Add(poly)
	return nil
}

const (
	defaultWidth  = 7 * vg.Inch
	defaultHeight = 5 * vg.Inch
)

// Save writes the plot to base.png (transparent background) and base.pdf.
func Save(p *plot.Plot, base string) error {
	return SaveSized(p, base, defaultWidth, defaultHeight)
}

// SaveSized is Save with an explicit canvas size.
func SaveSized(p *plot.Plot, base string, w, h vg.Length) error {
	png := vgimg.NewWith(
		vgimg.UseWH(w, h),
		vgimg.UseBackgroundColor(color.Transparent),
	)
	p.Draw(draw.New(png))
	if err := writePNG(png, base+".png"); err != nil {
		return err
	}

	pdf := vgpdf.New(w, h)
	p.Draw(draw.New(pdf))
	return writeTo(pdf, base+".pdf")
}

// SaveSplit draws left and right side by side on one canvas, with left
// taking leftFrac of the width, and writes base.png and base.pdf. The
// dispersion figures use leftFrac close to one so the density panel stays
// narrow.
func SaveSplit(left, right *plot.Plot, base string, leftFrac float64, w, h vg.Length) error {
	if leftFrac <= 0 || leftFrac >= 1 {
		return fmt.Errorf("left fraction %v out of range (0, 1)", leftFrac)
	}
	split := w * vg.Length(leftFrac)

	png := vgimg.NewWith(
		vgimg.UseWH(w, h),
		vgimg.UseBackgroundColor(color.Transparent),
	)
	drawSplit(draw.New(png), left, right, split, w)
	if err := writePNG(png, base+".png"); err != nil {
		return err
	}

	pdf := vgpdf.New(w, h)
	drawSplit(draw.New(pdf), left, right, split, w)
	return writeTo(pdf, base+".pdf")
}

func drawSplit(dc draw.Canvas, left, right *plot.Plot, split, w vg.Length) {
	left.Draw(draw.Crop(dc, 0, split-w, 0, 0))
	right.Draw(draw.Crop(dc, split, 0, 0, 0))
}

func writePNG(c *vgimg.Canvas, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeTo flushes a canvas that knows how to serialize itself, like the
// PDF backend.
func writeTo(c io.WriterTo, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
