package cmd

import (
	"image/color"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/suecreamm/materials/fsutil"
	"github.com/suecreamm/materials/qe"
	"github.com/suecreamm/materials/render"
)

var (
	bandsOut           string    // Output basename
	bandsYlim          []float64 // Energy window
	bandsSetFermi      float64   // Manual Fermi energy
	bandsFermiFrom     string    // QE output file to read the Fermi energy from
	bandsNoFermiSearch bool      // Disable the scf/nscf auto-search
	bandsNoAlignFermi  bool      // Disable Ef alignment entirely
	bandsWannierFermi  float64   // Fermi override for the Wannier bands only
	bandsLabelInfo     string    // labelinfo.dat for high-symmetry ticks
)

// bandsCmd overlays DFT and Wannier band structures on one normalized path
var bandsCmd = &cobra.Command{
	Use:   "bands DFT_BAND WANNIER_BAND",
	Short: "Compare QE bands against Wannier-interpolated bands",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dftFile, wannFile := args[0], args[1]

		bs, err := qe.ReadBands(dftFile)
		if err != nil {
			logrus.Fatalf("bands: %v", err)
		}
		x := bs.KDistNormalized()

		blocks, err := qe.ReadWannierBands(wannFile)
		if err != nil {
			logrus.Fatalf("bands: %v", err)
		}
		qe.NormalizeWannierX(blocks)

		var set *float64
		if cmd.Flags().Changed("set-fermi") {
			set = &bandsSetFermi
		}
		ef, efFound, efSrc := qe.ResolveFermi(".", set, bandsFermiFrom, bandsNoFermiSearch)

		// the same Ef shifts both band sets unless overridden
		if !bandsNoAlignFermi && efFound {
			bs.Shift(ef)
			wef := ef
			if cmd.Flags().Changed("wannier-fermi") {
				wef = bandsWannierFermi
			}
			qe.ShiftWannier(blocks, wef)
		}

		p := render.NewPlot("", "Normalized Path", "Energy (eV)")
		grey := color.Gray{Y: 102}
		if err := render.AddBranches(p, grey, "DFT (QE)", x, bs.Energies...); err != nil {
			logrus.Fatalf("bands: %v", err)
		}
		red := color.RGBA{R: 214, G: 39, B: 40, A: 255}
		for i, b := range blocks {
			label := ""
			if i == 0 {
				label = "Wannier (MLWF)"
			}
			if err := render.AddBranches(p, red, label, b.X, b.E); err != nil {
				logrus.Fatalf("bands: %v", err)
			}
		}

		if len(bandsYlim) != 2 {
			logrus.Fatalf("--ylim needs exactly 2 values")
		}
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = bandsYlim[0], bandsYlim[1]

		if liPath := resolveLabelInfo(wannFile); liPath != "" {
			pos, labels, err := qe.ReadLabelInfo(liPath, x)
			if err != nil {
				logrus.Warnf("[warn] labelinfo %s: %v", liPath, err)
			} else if len(pos) > 0 {
				if err := render.SetXTicks(p, pos, labels); err != nil {
					logrus.Fatalf("bands: %v", err)
				}
				if err := render.AddVerticalGuides(p, pos, bandsYlim[0], bandsYlim[1]); err != nil {
					logrus.Fatalf("bands: %v", err)
				}
				logrus.Infof("[info] labelinfo: %s", liPath)
			}
		}

		outBase := qe.SanitizeOutBase(bandsOut)
		if err := render.Save(p, outBase); err != nil {
			logrus.Fatalf("bands: save: %v", err)
		}
		logrus.Infof("[ok] saved to %s.png", outBase)
		if efFound {
			logrus.Infof("[info] Ef: %.6f eV (%s)", ef, efSrc)
		} else {
			logrus.Infof("[info] Ef: none (%s)", efSrc)
		}
		logrus.Infof("[info] Wannier blocks plotted: %d", len(blocks))
	},
}

// resolveLabelInfo falls back from the explicit flag to the conventional
// names next to the Wannier band file, then to any *.labelinfo.dat in cwd.
func resolveLabelInfo(wannFile string) string {
	if bandsLabelInfo != "" {
		return bandsLabelInfo
	}
	name := filepath.Base(wannFile)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if found := fsutil.FirstExisting(name+".labelinfo.dat", stem+".labelinfo.dat"); found != "" {
		return found
	}
	hits, _ := filepath.Glob("*.labelinfo.dat")
	sort.Strings(hits)
	if len(hits) > 0 {
		return hits[0]
	}
	return ""
}

func init() {
	bandsCmd.Flags().StringVar(&bandsOut, "out", "band_comparison", "Output basename")
	bandsCmd.Flags().Float64SliceVar(&bandsYlim, "ylim", []float64{-3, 3}, "Energy window ymin,ymax")
	bandsCmd.Flags().Float64Var(&bandsSetFermi, "set-fermi", 0, "Fermi energy in eV (overrides detection)")
	bandsCmd.Flags().StringVar(&bandsFermiFrom, "fermi-from", "", "QE output file to read the Fermi energy from")
	bandsCmd.Flags().BoolVar(&bandsNoFermiSearch, "no-fermi-search", false, "Disable scf/nscf output auto-search")
	bandsCmd.Flags().BoolVar(&bandsNoAlignFermi, "no-align-fermi", false, "Disable Ef alignment for both band sets")
	bandsCmd.Flags().Float64Var(&bandsWannierFermi, "wannier-fermi", 0, "Fermi energy override for the Wannier bands only")
	bandsCmd.Flags().StringVar(&bandsLabelInfo, "labelinfo", "", "Path to *.labelinfo.dat for high-symmetry labels")

	rootCmd.AddCommand(bandsCmd)
}
