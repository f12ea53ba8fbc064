// Package queue writes and submits cluster job scripts. The scripts are
// assembled head/body/foot and handed to qsub or sbatch; submission is
// fire-and-forget, the only record kept is the last job id.
package queue

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/suecreamm/materials/config"
)

// Submission is the interface over queueing systems.
type Submission interface {
	// MakeHead returns the scheduler directive lines plus environment setup.
	MakeHead(cfg config.Cluster) []string
	// Script assembles a complete job script around the given body commands.
	Script(cfg config.Cluster, body []string) []string
	// Submit hands the script at path to the queue and returns the job id.
	Submit(path string) (string, error)
}

// ForCluster selects the Submission implementation named by cfg.Queue.
func ForCluster(cfg config.Cluster) (Submission, error) {
	switch cfg.Queue {
	case "pbs":
		return PBS{}, nil
	case "slurm":
		return Slurm{}, nil
	}
	return nil, fmt.Errorf("unknown queue type %q", cfg.Queue)
}

// MakeInput concatenates head, body, and foot into one script.
func MakeInput(head, body, foot []string) []string {
	script := make([]string, 0, len(head)+len(body)+len(foot))
	script = append(script, head...)
	script = append(script, body...)
	script = append(script, foot...)
	return script
}

// WriteScript writes the script lines to path, executable.
func WriteScript(path string, lines []string) error {
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o755)
}

// checkCommand verifies the submit command exists before we try to use it.
func checkCommand(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not found in PATH: is the queue environment loaded?", name)
	}
	return nil
}

// RecordJobID overwrites the job-id record file with the last submitted id.
func RecordJobID(path, id string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(id+"\n"), 0o644)
}
