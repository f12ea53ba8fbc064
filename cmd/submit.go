package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/suecreamm/materials/queue"
)

// submitCmd wraps any other subcommand in a cluster job: it writes a queue
// script that re-invokes this binary with the given arguments, submits it,
// and records the job id.
var submitCmd = &cobra.Command{
	Use:   "submit SUBCOMMAND [ARGS...]",
	Short: "Run another materials subcommand as a cluster job",
	Args:  cobra.MinimumNArgs(1),
	// flags after SUBCOMMAND belong to the wrapped command
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 || strings.HasPrefix(args[0], "-") {
			logrus.Fatalf("submit: first argument must be a subcommand")
		}

		cfg := loadCluster()
		sub, err := queue.ForCluster(cfg)
		if err != nil {
			logrus.Fatalf("submit: %v", err)
		}

		exe, err := os.Executable()
		if err != nil {
			logrus.Fatalf("submit: locate binary: %v", err)
		}
		body := []string{exe + " " + strings.Join(args, " ")}

		script := fmt.Sprintf("submit_%s.sh", args[0])
		if err := queue.WriteScript(script, sub.Script(cfg, body)); err != nil {
			logrus.Fatalf("submit: write script: %v", err)
		}
		logrus.Infof("[info] wrote %s", script)

		id, err := sub.Submit(script)
		if err != nil {
			logrus.Fatalf("submit: %v", err)
		}
		if err := queue.RecordJobID(cfg.JobIDFile, id); err != nil {
			logrus.Warnf("record job id: %v", err)
		}
		logrus.Infof("[ok] submitted as %s", id)
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
}
