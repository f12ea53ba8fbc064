package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/suecreamm/materials/fsutil"
	"github.com/suecreamm/materials/qe"
	"github.com/suecreamm/materials/render"
)

var (
	phbandFreq  string  // Dispersion file or PREFIX
	phbandDOS   string  // Phonon DOS file
	phbandQPath string  // Q-path file for high-symmetry labels
	phbandOut   string  // Output basename
	phbandEmin  float64 // Y-axis minimum
	phbandEmax  float64 // Y-axis maximum
	phbandTitle string  // Figure title
	phbandUnit  string  // Frequency unit
)

// phbandCmd plots a phonon dispersion with an optional DOS side panel
var phbandCmd = &cobra.Command{
	Use:   "phband",
	Short: "Plot a phonon dispersion (+ DOS panel when available)",
	Run: func(cmd *cobra.Command, args []string) {
		freqPath, prefix, err := qe.ResolveDispersionFile(phbandFreq)
		if err != nil {
			logrus.Fatalf("phband: %v", err)
		}
		logrus.Infof("[info] dispersion file: %s", freqPath)

		d, err := qe.ReadDispersion(freqPath)
		if err != nil {
			logrus.Fatalf("phband: %v", err)
		}

		// DOS is optional: a bad --dos is a warning, not an error
		dosPath := phbandDOS
		if dosPath != "" {
			if _, err := os.Stat(dosPath); err != nil {
				logrus.Warnf("[warn] --dos given but not found, skipping DOS: %s", dosPath)
				dosPath = ""
			}
		} else if prefix != "" {
			dosPath = qe.ResolvePhononDOS(prefix)
		}

		// same for the q-path labels
		qpathPath := phbandQPath
		if qpathPath != "" {
			if _, err := os.Stat(qpathPath); err != nil {
				logrus.Warnf("[warn] --qpath given but not found, skipping labels: %s", qpathPath)
				qpathPath = ""
			}
		} else {
			qpathPath = fsutil.FirstExisting("qpath.in")
		}

		var hs *qe.HighSymmetry
		if qpathPath != "" {
			hs, err = qe.ReadQPathLabels(qpathPath, len(d.X))
			if err != nil {
				logrus.Warnf("[warn] failed to parse q-path labels from %s: %v", qpathPath, err)
				hs = nil
			}
		}

		unit := qe.FreqUnit(phbandUnit)
		nbnd := len(d.QPath[0])
		branches := make([][]float64, nbnd)
		var ylabel string
		for b := 0; b < nbnd; b++ {
			raw := make([]float64, len(d.QPath))
			for ik := range d.QPath {
				raw[ik] = d.QPath[ik][b]
			}
			branches[b], ylabel, err = qe.ConvertFromCM1(raw, unit)
			if err != nil {
				logrus.Fatalf("phband: %v", err)
			}
		}

		p := render.NewPlot(phbandTitle, "", ylabel)
		if err := render.AddBranches(p, plotutil.Color(0), "", d.X, branches...); err != nil {
			logrus.Fatalf("phband: %v", err)
		}
		render.AddZeroLine(p)

		p.X.Min, p.X.Max = d.X[0], d.X[len(d.X)-1]
		ylo, yhi := minMax(branches)
		if cmd.Flags().Changed("emin") {
			ylo = phbandEmin
		}
		if cmd.Flags().Changed("emax") {
			yhi = phbandEmax
		}
		p.Y.Min, p.Y.Max = ylo, yhi

		if hs != nil && len(hs.Labels) == len(hs.Indices) {
			pos := make([]float64, len(hs.Indices))
			for i, idx := range hs.Indices {
				if idx >= len(d.X) {
					idx = len(d.X) - 1
				}
				pos[i] = d.X[idx]
			}
			if err := render.SetXTicks(p, pos, hs.Labels); err != nil {
				logrus.Fatalf("phband: %v", err)
			}
			if err := render.AddVerticalGuides(p, pos, ylo, yhi); err != nil {
				logrus.Fatalf("phband: %v", err)
			}
		}

		outBase := qe.SanitizeOutBase(phbandOut)
		if dosPath == "" {
			if err := render.Save(p, outBase); err != nil {
				logrus.Fatalf("phband: save: %v", err)
			}
			logrus.Infof("[ok] saved: %s.png + %s.pdf", outBase, outBase)
			return
		}

		freq, dos, err := qe.ReadPhononDOS(dosPath)
		if err != nil {
			logrus.Warnf("[warn] failed to read DOS %s, dispersion only: %v", dosPath, err)
			if err := render.Save(p, outBase); err != nil {
				logrus.Fatalf("phband: save: %v", err)
			}
			return
		}
		freqConv, _, err := qe.ConvertFromCM1(freq, unit)
		if err != nil {
			logrus.Fatalf("phband: %v", err)
		}

		side := render.NewPlot("", "DOS", "")
		if err := render.AddFillBetween(side, 0, dos, freqConv, plotutil.Color(0)); err != nil {
			logrus.Fatalf("phband: %v", err)
		}
		side.Y.Min, side.Y.Max = ylo, yhi
		side.HideY()

		if err := render.SaveSplit(p, side, outBase, 5.0/6.0, 9*vg.Inch, 6*vg.Inch); err != nil {
			logrus.Fatalf("phband: save: %v", err)
		}
		logrus.Infof("[ok] saved: %s.png + %s.pdf", outBase, outBase)
	},
}

// minMax finds the global value range over all branches.
func minMax(branches [][]float64) (lo, hi float64) {
	lo, hi = branches[0][0], branches[0][0]
	for _, b := range branches {
		for _, v := range b {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

func init() {
	phbandCmd.Flags().StringVar(&phbandFreq, "freq", "", "Dispersion file (.freq.gp/.freq) or PREFIX for auto-detection")
	phbandCmd.Flags().StringVar(&phbandDOS, "dos", "", "Phonon DOS file (2 columns: freq(cm^-1) DOS)")
	phbandCmd.Flags().StringVar(&phbandQPath, "qpath", "", "Q-path file for high-symmetry labels (default ./qpath.in)")
	phbandCmd.Flags().StringVar(&phbandOut, "out", "phonon_dispersion", "Output basename (PNG and PDF are produced)")
	phbandCmd.Flags().Float64Var(&phbandEmin, "emin", 0, "Y-axis minimum")
	phbandCmd.Flags().Float64Var(&phbandEmax, "emax", 0, "Y-axis maximum")
	phbandCmd.Flags().StringVar(&phbandTitle, "title", "", "Figure title")
	phbandCmd.Flags().StringVar(&phbandUnit, "unit", "mev", "Frequency unit (mev, thz, cm-1)")
	phbandCmd.MarkFlagRequired("freq")

	rootCmd.AddCommand(phbandCmd)
}
