package queue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suecreamm/materials/config"
)

func testCluster(q string) config.Cluster {
	return config.Cluster{
		Queue:    q,
		JobName:  "tis2",
		Walltime: "12:00:00",
		NCPUs:    8,
		Memory:   "4gb",
		Setup:    []string{"module load vasp/6.4", "source ~/venvs/matsci/bin/activate"},
	}
}

func TestPBSScript(t *testing.T) {
	// GIVEN a PBS cluster config and a one-line body
	cfg := testCluster("pbs")

	// WHEN the script is assembled
	lines := PBS{}.Script(cfg, []string{"mpirun -np 8 vasp_std"})
	script := strings.Join(lines, "\n")

	// THEN directives, setup, body, and footer appear in order
	assert.True(t, strings.HasPrefix(script, "#!/bin/sh"))
	assert.Contains(t, script, "#PBS -N tis2")
	assert.Contains(t, script, "#PBS -l walltime=12:00:00")
	assert.Contains(t, script, "#PBS -l ncpus=8")
	assert.Contains(t, script, "module load vasp/6.4")
	assert.Contains(t, script, "cd $PBS_O_WORKDIR")
	assert.Contains(t, script, "mpirun -np 8 vasp_std")
	assert.Less(t, strings.Index(script, "cd $PBS_O_WORKDIR"), strings.Index(script, "mpirun"))
}

func TestSlurmScript(t *testing.T) {
	cfg := testCluster("slurm")
	lines := Slurm{}.Script(cfg, []string{"srun pw.x -in scf.in"})
	script := strings.Join(lines, "\n")

	assert.True(t, strings.HasPrefix(script, "#!/bin/bash"))
	assert.Contains(t, script, "#SBATCH --job-name=tis2")
	assert.Contains(t, script, "#SBATCH --cpus-per-task=8")
	assert.Contains(t, script, "#SBATCH --time=12:00:00")
	assert.Contains(t, script, "source ~/venvs/matsci/bin/activate")
	assert.Contains(t, script, "srun pw.x -in scf.in")
}

func TestForCluster(t *testing.T) {
	sub, err := ForCluster(testCluster("pbs"))
	require.NoError(t, err)
	assert.IsType(t, PBS{}, sub)

	sub, err = ForCluster(testCluster("slurm"))
	require.NoError(t, err)
	assert.IsType(t, Slurm{}, sub)

	_, err = ForCluster(config.Cluster{Queue: "lsf"})
	assert.Error(t, err)
}

func TestWriteScriptExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.pbs")
	require.NoError(t, WriteScript(path, []string{"#!/bin/sh", "date"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "script should be executable")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\ndate\n", string(data))
}

func TestRecordJobID(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".materials_lastjob")

	require.NoError(t, RecordJobID(path, "48213"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "48213\n", string(data))

	// overwrites, keeping only the last submitted id
	require.NoError(t, RecordJobID(path, "48214"))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "48214\n", string(data))

	// empty record path disables recording
	assert.NoError(t, RecordJobID("", "48215"))
}
