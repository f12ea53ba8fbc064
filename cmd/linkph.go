package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/suecreamm/materials/linker"
)

var linkphDvscfDir string // Destination directory for the normalized links

// linkphCmd symlinks ph.x outputs into the layout EPW expects
var linkphCmd = &cobra.Command{
	Use:   "linkph PREFIX",
	Short: "Symlink ph.x dyn and dvscf outputs into the EPW naming scheme",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := linker.Run(linker.Options{
			Prefix:   args[0],
			WorkDir:  ".",
			DvscfDir: linkphDvscfDir,
		})
		if err != nil {
			logrus.Fatalf("linkph: %v", err)
		}
	},
}

func init() {
	linkphCmd.Flags().StringVar(&linkphDvscfDir, "dvscf-dir", "", "Destination for dvscf/dyn links (default ./tmp/_ph0)")

	rootCmd.AddCommand(linkphCmd)
}
