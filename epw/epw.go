// Package epw turns the text outputs of an EPW run into figures: the
// Eliashberg spectral function, phonon DOS, Fermi-surface coupling maps,
// real-space decay diagnostics, and the isotropic Eliashberg solutions.
// Every artifact is optional; a file that is missing or unparseable is
// logged and skipped so one bad output never blocks the rest.
package epw

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/suecreamm/materials/qe"
	"github.com/suecreamm/materials/render"
)

// Conversion factors from the meV omega axis EPW writes.
const (
	MeVPerTHz = 4.135667
	CM1PerMeV = 8.065544
)

// ConvertFromMeV converts the omega axis from meV to the requested unit.
func ConvertFromMeV(w []float64, unit qe.FreqUnit) ([]float64, string, error) {
	switch unit {
	case qe.UnitMeV:
		return w, "ω (meV)", nil
	case qe.UnitTHz:
		out := make([]float64, len(w))
		for i, v := range w {
			out[i] = v / MeVPerTHz
		}
		return out, "ω (THz)", nil
	case qe.UnitCM1:
		out := make([]float64, len(w))
		for i, v := range w {
			out[i] = v * CM1PerMeV
		}
		return out, "ω (cm^-1)", nil
	}
	return nil, "", fmt.Errorf("unknown omega unit %q", unit)
}

// Options configures one postprocessing pass.
type Options struct {
	// Prefix is the EPW calculation prefix; artifacts are PREFIX.a2f etc.
	Prefix string
	// Dir is the run directory holding the artifacts. Default ".".
	Dir string
	// OutDir receives the figures. Default Dir/plots.
	OutDir string
	// OmegaUnit selects the frequency axis unit. Default meV.
	OmegaUnit qe.FreqUnit
	// KMode controls how Fermi-surface k-points are interpreted.
	KMode qe.KPointMode
}

func (o *Options) setDefaults() error {
	if o.Prefix == "" {
		return fmt.Errorf("empty prefix")
	}
	if o.Dir == "" {
		o.Dir = "."
	}
	if o.OutDir == "" {
		o.OutDir = filepath.Join(o.Dir, "plots")
	}
	if o.OmegaUnit == "" {
		o.OmegaUnit = qe.UnitMeV
	}
	if o.KMode == "" {
		o.KMode = qe.KPointAuto
	}
	return nil
}

// Run postprocesses every EPW artifact found for the prefix. Per-artifact
// failures are logged at Warn level and skipped; only an unusable
// configuration or output directory is a hard error.
func Run(opts Options) error {
	if err := opts.setDefaults(); err != nil {
		return err
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return err
	}
	logrus.Infof("[info] prefix=%s unit=%s out=%s", opts.Prefix, opts.OmegaUnit, opts.OutDir)

	attempt := func(name string, fn func() error) {
		path := filepath.Join(opts.Dir, name)
		if _, err := os.Stat(path); err != nil {
			return
		}
		if err := fn(); err != nil {
			logrus.Warnf("[skip] %s: %v", name, err)
			return
		}
		logrus.Infof("[ok] %s", name)
	}

	p := opts.Prefix
	attempt(p+".a2f", func() error { return opts.plotA2F() })

	spectra := []struct {
		tag, ylabel, title, outname string
	}{
		{"a2f_proj", "α²F(ω) projected (arb.)", p + ": projected α²F(ω)", "a2f_proj__alpha2Fproj_vs_omega"},
		{"phdos", "Phonon DOS (arb.)", p + ": phonon DOS", "phdos__dos_vs_omega"},
		{"phdos_proj", "Phonon DOS (arb.)", p + ": phonon DOS (proj)", "phdos_proj__dosproj_vs_omega"},
	}
	for _, s := range spectra {
		s := s
		attempt(p+"."+s.tag, func() error {
			return opts.plotSpectrum(p+"."+s.tag, s.ylabel, s.title, s.outname)
		})
	}

	for _, tag := range []string{"lambda_FS", "lambda_aniso", "lambda_pairs", "lambda.frmsf"} {
		tag := tag
		attempt(p+"."+tag, func() error { return opts.plotLambdaFS(tag) })
	}

	attempt(p+".lambda_k_pairs", func() error { return opts.plotLambdaDistribution() })

	decays, _ := filepath.Glob(filepath.Join(opts.Dir, "decay.*"))
	sort.Strings(decays)
	for _, df := range decays {
		df := df
		attempt(filepath.Base(df), func() error { return opts.plotDecay(df) })
	}

	for _, pattern := range []string{p + ".imag_iso_*", p + ".pade_iso_*"} {
		files, _ := filepath.Glob(filepath.Join(opts.Dir, pattern))
		sort.Strings(files)
		for _, f := range files {
			f := f
			if strings.Contains(pattern, "imag_iso") {
				attempt(filepath.Base(f), func() error { return opts.plotEliashbergIso(f) })
			} else {
				attempt(filepath.Base(f), func() error { return opts.plotPadeIso(f) })
			}
		}
	}

	logrus.Info("[done] postprocess complete")
	return nil
}

func (o *Options) out(name string) string {
	return filepath.Join(o.OutDir, o.Prefix+"__"+name)
}

// multiLine draws ys over x as one figure. Labels show up in the legend
// only when there is more than one curve to tell apart.
func multiLine(base, title, xlabel, ylabel string, x []float64, ys [][]float64, labels []string) error {
	p := render.NewPlot(title, xlabel, ylabel)
	series := make([]render.Series, len(ys))
	for i, y := range ys {
		s := render.Series{X: x, Y: y}
		if len(ys) > 1 && i < len(labels) {
			s.Label = labels[i]
		}
		series[i] = s
	}
	if err := render.AddLines(p, series...); err != nil {
		return err
	}
	return render.Save(p, base)
}

func (o *Options) plotA2F() error {
	tab, err := qe.ReadTable(filepath.Join(o.Dir, o.Prefix+".a2f"))
	if err != nil {
		return err
	}
	if tab.Cols() < 2 {
		return fmt.Errorf("a2f needs at least 2 columns")
	}
	w, wlab, err := ConvertFromMeV(tab.Col(0), o.OmegaUnit)
	if err != nil {
		return err
	}

	if err := multiLine(o.out("a2f__alpha2F_vs_omega"),
		o.Prefix+": α²F(ω)", wlab, "α²F(ω)",
		w, [][]float64{tab.Col(1)}, nil); err != nil {
		return err
	}

	// col3, when present, is the cumulative coupling λ(ω)
	if tab.Cols() >= 3 {
		return multiLine(o.out("a2f__lambda_vs_omega"),
			o.Prefix+": λ(ω)", wlab, "λ(ω)",
			w, [][]float64{tab.Col(2)}, nil)
	}
	return nil
}

func (o *Options) plotSpectrum(name, ylabel, title, outname string) error {
	tab, err := qe.ReadTable(filepath.Join(o.Dir, name))
	if err != nil {
		return err
	}
	if tab.Cols() < 2 {
		return fmt.Errorf("%s needs at least 2 columns", name)
	}
	w, wlab, err := ConvertFromMeV(tab.Col(0), o.OmegaUnit)
	if err != nil {
		return err
	}
	ys := make([][]float64, 0, tab.Cols()-1)
	for i := 1; i < tab.Cols(); i++ {
		ys = append(ys, tab.Col(i))
	}
	return multiLine(o.out(outname), title, wlab, ylabel, w, ys, tab.Labels[1:])
}

// reciprocalLattice loads b1,b2,b3 from the QE save directory next to the
// run; a missing or unparsable XML just disables the zone overlay.
func (o *Options) reciprocalLattice() *mat.Dense {
	xmlPath := filepath.Join(o.Dir, "tmp", o.Prefix+".save", "data-file-schema.xml")
	b, err := qe.ReadReciprocalLattice(xmlPath)
	if err != nil {
		logrus.Infof("[skip] zone overlay: %v", err)
		return nil
	}
	return b
}

func (o *Options) plotLambdaFS(tag string) error {
	tab, err := qe.ReadTable(filepath.Join(o.Dir, o.Prefix+"."+tag))
	if err != nil {
		return err
	}
	if tab.Cols() < 3 {
		return fmt.Errorf("%s needs at least 3 columns", tag)
	}

	kxyz := make([][]float64, tab.Rows())
	for i, row := range tab.Data {
		kxyz[i] = row[:3]
	}
	lam := tab.Col(tab.Cols() - 1)

	var (
		bz []qe.Point2
		kx = tab.Col(0)
		ky = tab.Col(1)
	)
	if b := o.reciprocalLattice(); b != nil {
		poly, perr := qe.FirstBZPolygon(b)
		kxy, kerr := qe.KPointsToCart(kxyz, b, o.KMode)
		if perr == nil && kerr == nil {
			bz = poly
			kx = make([]float64, len(kxy))
			ky = make([]float64, len(kxy))
			for i, pt := range kxy {
				kx[i], ky[i] = pt.X, pt.Y
			}
			logrus.Infof("[info] zone overlay enabled (mode=%s)", o.KMode)
		} else {
			logrus.Infof("[skip] zone overlay: polygon=%v kpoints=%v", perr, kerr)
		}
	}

	fx, fy, fv := finitePoints(kx, ky, lam)
	outTag := strings.ReplaceAll(tag, ".", "_")
	if err := render.SurfaceMap(o.out(outTag+"__FSmap_lambda"),
		o.Prefix+": "+tag+" FS map (λ)", "λ",
		render.MapData{X: fx, Y: fy, V: fv}, bz); err != nil {
		return err
	}

	// with band and energy columns present, also map Enk-Ef
	if tab.Cols() >= 5 {
		enk := tab.Col(tab.Cols() - 2)
		ex, ey, ev := finitePoints(kx, ky, enk)
		return render.SurfaceMap(o.out(outTag+"__FSmap_Enk_minus_Ef"),
			o.Prefix+": "+tag+" FS map (Enk-Ef)", "Enk-Ef (eV)",
			render.MapData{X: ex, Y: ey, V: ev}, bz)
	}
	return nil
}

// finitePoints drops any point with a NaN or infinite coordinate or value.
func finitePoints(x, y, v []float64) (fx, fy, fv []float64) {
	for i := range x {
		if isFinite(x[i]) && isFinite(y[i]) && isFinite(v[i]) {
			fx = append(fx, x[i])
			fy = append(fy, y[i])
			fv = append(fv, v[i])
		}
	}
	return fx, fy, fv
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (o *Options) plotLambdaDistribution() error {
	tab, err := qe.ReadTable(filepath.Join(o.Dir, o.Prefix+".lambda_k_pairs"))
	if err != nil {
		return err
	}
	if tab.Cols() < 2 {
		return fmt.Errorf("lambda_k_pairs needs at least 2 columns")
	}
	ys := [][]float64{tab.Col(1)}
	labels := []string{"dist_scaled"}
	if tab.Cols() >= 3 {
		ys = append(ys, tab.Col(2))
		labels = append(labels, "dist_unscaled")
	}
	return multiLine(o.out("lambda_k_pairs__rho_lambda"),
		o.Prefix+": ρ(λ_nk) distribution", "λ_nk", "distribution",
		tab.Col(0), ys, labels)
}

func (o *Options) plotDecay(path string) error {
	tab, err := qe.ReadTable(path)
	if err != nil {
		return err
	}
	if tab.Cols() < 2 {
		return fmt.Errorf("decay file needs at least 2 columns")
	}
	x, y, _ := finitePoints(tab.Col(0), tab.Col(1), tab.Col(1))

	header := strings.Join(tab.Header, " ")
	xlabel := tab.Labels[0]
	if strings.Contains(header, "Ang") {
		xlabel = "R (Angstrom)"
	}

	name := filepath.Base(path)
	var ylabel, metric string
	switch {
	case strings.Contains(header, "|g") ||
		(strings.Contains(header, "g(") && strings.Contains(header, "Ry")):
		ylabel, metric = "max |g(R)| (Ry)", "gmax_vs_R"
	case strings.Contains(strings.ToLower(name), "dyn"):
		ylabel, metric = tab.Labels[1], "dynmat_metric_vs_R"
	case strings.Contains(name, "H"):
		ylabel, metric = tab.Labels[1], "H_metric_vs_R"
	default:
		ylabel, metric = tab.Labels[1], "value_vs_R"
	}

	p := render.NewPlot(o.Prefix+": "+name, xlabel, ylabel)
	if err := render.AddLinePoints(p, x, y); err != nil {
		return err
	}
	stem := strings.ReplaceAll(name, ".", "_")
	return render.Save(p, o.out(stem+"__"+metric))
}

// TemperatureTag extracts the temperature suffix from an Eliashberg output
// name like PREFIX.imag_iso_005.00.
func TemperatureTag(name, prefix, tag string) string {
	key := prefix + "." + tag + "_"
	if idx := strings.Index(name, key); idx >= 0 {
		return name[idx+len(key):]
	}
	if idx := strings.LastIndex(name, "_"); idx >= 0 {
		return name[idx+1:]
	}
	return "unknownT"
}

func (o *Options) plotEliashbergIso(path string) error {
	tab, err := qe.ReadTable(path)
	if err != nil {
		return err
	}
	if tab.Cols() < 3 {
		return fmt.Errorf("imag_iso needs 3 columns: w, znorm, delta")
	}
	w := tab.Col(0) // eV
	ttag := TemperatureTag(filepath.Base(path), o.Prefix, "imag_iso")

	wz, z, _ := finitePoints(w, tab.Col(1), tab.Col(1))
	if len(z) == 0 {
		return fmt.Errorf("all znorm values are non-finite")
	}
	if err := multiLine(o.out("eliashberg__imag_iso_"+ttag+"__znorm_vs_w_eV"),
		fmt.Sprintf("%s: Eliashberg isotropic znorm(ω)  (T=%s)", o.Prefix, ttag),
		"ω (eV)", "znorm(ω)", wz, [][]float64{z}, nil); err != nil {
		return err
	}

	wd, d, _ := finitePoints(w, tab.Col(2), tab.Col(2))
	if len(d) == 0 {
		return fmt.Errorf("all delta values are non-finite")
	}
	dMeV := make([]float64, len(d))
	for i, v := range d {
		dMeV[i] = v * 1000.0
	}
	return multiLine(o.out("eliashberg__imag_iso_"+ttag+"__delta_vs_w_meV"),
		fmt.Sprintf("%s: Eliashberg isotropic Δ(ω)  (T=%s)", o.Prefix, ttag),
		"ω (eV)", "Δ(ω) (meV)", wd, [][]float64{dMeV}, nil)
}

func (o *Options) plotPadeIso(path string) error {
	tab, err := qe.ReadTable(path)
	if err != nil {
		return err
	}
	if tab.Cols() < 2 {
		return fmt.Errorf("pade_iso needs at least 2 columns")
	}
	ttag := TemperatureTag(filepath.Base(path), o.Prefix, "pade_iso")

	ys := make([][]float64, 0, tab.Cols()-1)
	for i := 1; i < tab.Cols(); i++ {
		ys = append(ys, tab.Col(i))
	}
	return multiLine(o.out("eliashberg__pade_iso_"+ttag+"__cols_vs_w"),
		fmt.Sprintf("%s: Eliashberg pade_iso  (T=%s)", o.Prefix, ttag),
		"ω (eV)", "value (arb.)", tab.Col(0), ys, tab.Labels[1:])
}
