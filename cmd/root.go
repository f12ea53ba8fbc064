package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/suecreamm/materials/config"
)

var (
	logLevel   string // Log verbosity level
	configPath string // Cluster/job config file
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "materials",
	Short: "Workflow glue for VASP/QE/EPW phonon and electron-phonon runs",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// loadCluster reads the cluster config, falling back to defaults when the
// file is absent.
func loadCluster() config.Cluster {
	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	return cfg
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up the persistent flags shared by all subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFileName, "Cluster/job config file")
}
