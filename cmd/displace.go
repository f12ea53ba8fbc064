package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/suecreamm/materials/queue"
	"github.com/suecreamm/materials/vasp"
)

var (
	displaceWorkDir  string // Directory for supercell generation and disp-NNN jobs
	displaceRelaxDir string // Finished relaxation providing the CONTCAR
	displaceTemplate string // Directory with INCAR and POTCAR templates
	displaceDim      []int  // Supercell multiplicity
	displaceMesh     []int  // K-point mesh for the force calculations
	displacePhonopy  string // Supercell generator executable
)

// displaceCmd prepares and submits one force job per displaced supercell
var displaceCmd = &cobra.Command{
	Use:   "displace",
	Short: "Generate displaced supercells and submit one force job each",
	Run: func(cmd *cobra.Command, args []string) {
		if len(displaceDim) != 3 || len(displaceMesh) != 3 {
			logrus.Fatalf("--dim and --mesh each need exactly 3 values")
		}

		cfg := loadCluster()
		sub, err := queue.ForCluster(cfg)
		if err != nil {
			logrus.Fatalf("queue: %v", err)
		}

		d := &vasp.Driver{
			WorkDir:     displaceWorkDir,
			RelaxDir:    displaceRelaxDir,
			TemplateDir: displaceTemplate,
			Dim:         [3]int{displaceDim[0], displaceDim[1], displaceDim[2]},
			Mesh:        [3]int{displaceMesh[0], displaceMesh[1], displaceMesh[2]},
			PhonopyCmd:  displacePhonopy,
			Cluster:     cfg,
			Sub:         sub,
		}
		if err := d.Run(cmd.Context()); err != nil {
			logrus.Fatalf("displace: %v", err)
		}
	},
}

func init() {
	displaceCmd.Flags().StringVar(&displaceWorkDir, "workdir", "phonon", "Work directory for supercells and disp-NNN jobs")
	displaceCmd.Flags().StringVar(&displaceRelaxDir, "relax-dir", "relax", "Relaxation directory holding CONTCAR")
	displaceCmd.Flags().StringVar(&displaceTemplate, "template-dir", "templates", "Directory with INCAR/POTCAR templates")
	displaceCmd.Flags().IntSliceVar(&displaceDim, "dim", []int{2, 2, 1}, "Supercell dimensions a,b,c")
	displaceCmd.Flags().IntSliceVar(&displaceMesh, "mesh", []int{6, 6, 1}, "K-point mesh for force calculations")
	displaceCmd.Flags().StringVar(&displacePhonopy, "phonopy", "phonopy", "Supercell generator executable")

	rootCmd.AddCommand(displaceCmd)
}
