package queue

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/suecreamm/materials/config"
)

// Slurm implements Submission for Slurm clusters.
type Slurm struct{}

func (s Slurm) MakeHead(cfg config.Cluster) []string {
	head := []string{
		"#!/bin/bash",
		"#SBATCH --job-name=" + cfg.JobName,
		"#SBATCH --ntasks=1",
		fmt.Sprintf("#SBATCH --cpus-per-task=%d", cfg.NCPUs),
		"#SBATCH --time=" + cfg.Walltime,
		"#SBATCH --mem=" + cfg.Memory,
		"#SBATCH --no-requeue",
	}
	head = append(head, cfg.Setup...)
	return append(head, "date")
}

func (s Slurm) Script(cfg config.Cluster, body []string) []string {
	return MakeInput(s.MakeHead(cfg), body, []string{"date"})
}

// Submit hands the script to sbatch. sbatch prints
// "Submitted batch job 12345"; the job id is the last field.
func (s Slurm) Submit(path string) (string, error) {
	if err := checkCommand("sbatch"); err != nil {
		return "", err
	}
	// sbatch rather than srun: srun grabs a whole node and runs interactively
	out, err := exec.Command("sbatch", path).Output()
	if err != nil {
		return "", fmt.Errorf("sbatch %s: %w", path, err)
	}
	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) == 0 {
		return "", fmt.Errorf("sbatch %s: empty job id", path)
	}
	return fields[len(fields)-1], nil
}
