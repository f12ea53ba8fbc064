package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/suecreamm/materials/qe"
	"github.com/suecreamm/materials/render"
)

var pdosDir string // Directory scanned for projwfc.x outputs

// pdosCmd overlays every PDOS curve in a directory on one figure
var pdosCmd = &cobra.Command{
	Use:   "pdos",
	Short: "Overlay projwfc.x PDOS files with Fermi shift and spin handling",
	Run: func(cmd *cobra.Command, args []string) {
		files, err := qe.FindPDOS(pdosDir)
		if err != nil {
			logrus.Fatalf("pdos: %v", err)
		}
		logrus.Info("[info] valid PDOS files found:")
		for _, f := range files {
			logrus.Infof("    %s", f.Name)
		}

		seedname := files[0].Seedname
		hasSpin := qe.HasSpin(files)
		logrus.Infof("[info] seedname detected -> %s", seedname)
		if hasSpin {
			logrus.Info("[info] spin-resolved PDOS detected (up/down)")
		}

		ef, efFound := qe.ScanFermi(pdosDir)
		if efFound {
			logrus.Infof("[info] detected Fermi energy from *.out: EF = %.6f eV", ef)
		} else {
			logrus.Warn("[warn] could not detect Fermi energy from *.out, no shift applied")
		}

		// one representative file decides whether the grid is already
		// EF-centered
		applyShift := false
		if efFound {
			energy, _, err := qe.ReadPDOS(pdosDir, files[0])
			if err != nil {
				logrus.Warnf("[warn] could not inspect %s: %v", files[0].Name, err)
				applyShift = true
			} else {
				applyShift = qe.ShouldShiftFermi(energy)
			}
			if applyShift {
				logrus.Info("[info] applying E -> E - EF shift")
			} else {
				logrus.Info("[info] PDOS appears EF-centered already, no shift applied")
			}
		}

		xlabel := "Energy (eV)"
		if efFound && applyShift {
			xlabel = "Energy (eV, shifted: E - EF)"
		}
		ylabel := "DOS (arb. units)"
		if hasSpin {
			ylabel = "DOS (arb. units, spin down plotted negative)"
		}

		p := render.NewPlot("QE PDOS overlay: "+seedname, xlabel, ylabel)

		// totals first so they sit under the projections in the legend
		ordered := make([]qe.PDOSFile, 0, len(files))
		for _, f := range files {
			if f.Kind == qe.PDOSTotal {
				ordered = append(ordered, f)
			}
		}
		for _, f := range files {
			if f.Kind == qe.PDOSProj {
				ordered = append(ordered, f)
			}
		}

		var series []render.Series
		for _, f := range ordered {
			if hasSpin && f.Spin == qe.SpinNone {
				// mixed listings: ignore non-spin files in a spin run
				continue
			}
			energy, dos, err := qe.ReadPDOS(pdosDir, f)
			if err != nil {
				logrus.Warnf("[warn] failed reading %s: %v", f.Name, err)
				continue
			}
			if efFound && applyShift {
				for i := range energy {
					energy[i] -= ef
				}
			}
			label := f.Label()
			switch {
			case hasSpin && f.Spin == qe.SpinDown:
				for i := range dos {
					dos[i] = -dos[i]
				}
				label += " (down)"
			case hasSpin && f.Spin == qe.SpinUp:
				label += " (up)"
			}
			series = append(series, render.Series{Label: label, X: energy, Y: dos})
		}
		if len(series) == 0 {
			logrus.Fatalf("pdos: no readable PDOS curves")
		}
		if err := render.AddLines(p, series...); err != nil {
			logrus.Fatalf("pdos: %v", err)
		}

		out := seedname + "_pdos_overlay"
		if err := render.Save(p, out); err != nil {
			logrus.Fatalf("pdos: save: %v", err)
		}
		logrus.Infof("[ok] saved overlay plot -> %s.png", out)
	},
}

func init() {
	pdosCmd.Flags().StringVar(&pdosDir, "dir", ".", "Directory with PDOS files and QE outputs")

	rootCmd.AddCommand(pdosCmd)
}
