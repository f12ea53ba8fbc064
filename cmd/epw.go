package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/suecreamm/materials/epw"
	"github.com/suecreamm/materials/qe"
)

var (
	epwOmegaUnit string // Frequency axis unit for the EPW spectra
	epwOutDir    string // Figure output directory
	epwKMode     string // K-point interpretation for FS maps
)

// epwCmd postprocesses EPW run artifacts into figures
var epwCmd = &cobra.Command{
	Use:   "epw PREFIX",
	Short: "Render EPW output artifacts (a2f, phdos, FS maps, Eliashberg)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := epw.Run(epw.Options{
			Prefix:    args[0],
			OutDir:    epwOutDir,
			OmegaUnit: qe.FreqUnit(epwOmegaUnit),
			KMode:     qe.KPointMode(epwKMode),
		})
		if err != nil {
			logrus.Fatalf("epw: %v", err)
		}
	},
}

func init() {
	epwCmd.Flags().StringVar(&epwOmegaUnit, "omega-unit", "mev", "Omega axis unit (mev, thz, cm-1)")
	epwCmd.Flags().StringVar(&epwOutDir, "out-dir", "", "Figure output directory (default ./plots)")
	epwCmd.Flags().StringVar(&epwKMode, "kpoint-mode", "auto", "FS map k-point convention (auto, crystal, cart)")

	rootCmd.AddCommand(epwCmd)
}
