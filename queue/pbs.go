package queue

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/suecreamm/materials/config"
)

// PBS implements Submission for PBS/Torque clusters.
type PBS struct{}

func (p PBS) MakeHead(cfg config.Cluster) []string {
	head := []string{
		"#!/bin/sh",
		"#PBS -N " + cfg.JobName,
		"#PBS -S /bin/bash",
		"#PBS -j oe",
		"#PBS -l walltime=" + cfg.Walltime,
		fmt.Sprintf("#PBS -l ncpus=%d", cfg.NCPUs),
		"#PBS -l mem=" + cfg.Memory,
	}
	head = append(head, cfg.Setup...)
	return append(head,
		"cd $PBS_O_WORKDIR",
		"date")
}

func (p PBS) Script(cfg config.Cluster, body []string) []string {
	return MakeInput(p.MakeHead(cfg), body, []string{"date"})
}

// Submit hands the script to qsub. PBS prints "12345.hostname"; the numeric
// part before the first dot is the job id.
func (p PBS) Submit(path string) (string, error) {
	if err := checkCommand("qsub"); err != nil {
		return "", err
	}
	out, err := exec.Command("qsub", path).Output()
	if err != nil {
		return "", fmt.Errorf("qsub %s: %w", path, err)
	}
	id := strings.TrimSpace(string(out))
	if dot := strings.IndexByte(id, '.'); dot >= 0 {
		id = id[:dot]
	}
	if id == "" {
		return "", fmt.Errorf("qsub %s: empty job id", path)
	}
	return id, nil
}
