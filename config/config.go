// Package config loads the cluster/job configuration shared by the commands
// that write and submit queue scripts.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when no --config
// flag is given.
const DefaultFileName = "materials.yaml"

// Cluster describes the queue environment used for job submission.
type Cluster struct {
	Queue     string   `yaml:"queue"`      // "pbs" or "slurm"
	JobName   string   `yaml:"job_name"`   // scheduler job name
	Walltime  string   `yaml:"walltime"`   // e.g. "24:00:00"
	NCPUs     int      `yaml:"ncpus"`      // cores per job
	Memory    string   `yaml:"memory"`     // e.g. "8gb"
	Setup     []string `yaml:"setup"`      // module loads, venv activation, exports
	MPICmd    string   `yaml:"mpi_cmd"`    // command prefix for the simulation binary
	VASPCmd   string   `yaml:"vasp_cmd"`   // simulation binary for displacement jobs
	PotDir    string   `yaml:"pot_dir"`    // pseudopotential directory
	JobIDFile string   `yaml:"jobid_file"` // record of the last submitted job id
}

// Default returns the configuration used when no file is present.
func Default() Cluster {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Cluster{
		Queue:     "pbs",
		JobName:   "materials",
		Walltime:  "24:00:00",
		NCPUs:     16,
		Memory:    "8gb",
		MPICmd:    "mpirun -np 16",
		VASPCmd:   "vasp_std",
		JobIDFile: filepath.Join(home, ".materials_lastjob"),
	}
}

// Load reads a cluster config file with strict field checking so that a
// typoed key fails loudly instead of silently submitting with defaults.
// A missing path falls back to Default().
func Load(path string) (Cluster, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Queue != "pbs" && cfg.Queue != "slurm" {
		return cfg, fmt.Errorf("%s: unknown queue type %q (want pbs or slurm)", path, cfg.Queue)
	}
	return cfg, nil
}
