package vasp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/suecreamm/materials/config"
	"github.com/suecreamm/materials/fsutil"
	"github.com/suecreamm/materials/queue"
)

// poscarRe matches the numbered supercell files the generator writes.
var poscarRe = regexp.MustCompile(`^POSCAR-(\d+)$`)

// Displacement is one numbered supercell with the displaced atom.
type Displacement struct {
	// Number is the zero-padded suffix, e.g. "001".
	Number string
	// Path is the POSCAR-NNN file.
	Path string
}

// Displacements lists the POSCAR-NNN files in dir, sorted by number.
func Displacements(dir string) ([]Displacement, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var disps []Displacement
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if m := poscarRe.FindStringSubmatch(e.Name()); m != nil {
			disps = append(disps, Displacement{
				Number: m[1],
				Path:   filepath.Join(dir, e.Name()),
			})
		}
	}
	sort.Slice(disps, func(i, j int) bool {
		a, _ := strconv.Atoi(disps[i].Number)
		b, _ := strconv.Atoi(disps[j].Number)
		return a < b
	})
	if len(disps) == 0 {
		return nil, fmt.Errorf("no POSCAR-NNN files in %s: did the supercell generation run?", dir)
	}
	return disps, nil
}

// Driver prepares a finite-displacement phonon run and submits one force
// calculation per displaced supercell.
type Driver struct {
	// WorkDir is where the supercells are generated and the disp-NNN
	// job directories are created.
	WorkDir string
	// RelaxDir holds the finished relaxation; its CONTCAR seeds the run.
	RelaxDir string
	// TemplateDir holds the INCAR and POTCAR templates.
	TemplateDir string
	// Dim is the supercell multiplicity passed to the generator.
	Dim [3]int
	// Mesh is the k-point mesh for the force calculations.
	Mesh [3]int
	// PhonopyCmd overrides the generator executable. Default "phonopy".
	PhonopyCmd string

	Cluster config.Cluster
	Sub     queue.Submission
}

// PrepareWorkDir seeds WorkDir with the relaxed structure and the rewritten
// static inputs: CONTCAR becomes POSCAR, the INCAR loses its relaxation
// tags, and KPOINTS is regenerated from the mesh.
func (d *Driver) PrepareWorkDir() error {
	if err := os.MkdirAll(d.WorkDir, 0o755); err != nil {
		return err
	}
	contcar := filepath.Join(d.RelaxDir, "CONTCAR")
	if err := fsutil.CopyFile(contcar, filepath.Join(d.WorkDir, "POSCAR")); err != nil {
		return fmt.Errorf("seed POSCAR from relaxation: %w", err)
	}
	if err := fsutil.CopyFile(filepath.Join(d.TemplateDir, "POTCAR"), filepath.Join(d.WorkDir, "POTCAR")); err != nil {
		return fmt.Errorf("copy POTCAR template: %w", err)
	}
	if err := RewriteINCAR(filepath.Join(d.TemplateDir, "INCAR"), filepath.Join(d.WorkDir, "INCAR")); err != nil {
		return err
	}
	return WriteKPoints(filepath.Join(d.WorkDir, "KPOINTS"), d.Mesh[0], d.Mesh[1], d.Mesh[2])
}

// Generate runs the external supercell generator in WorkDir, producing the
// POSCAR-NNN files.
func (d *Driver) Generate(ctx context.Context) error {
	name := d.PhonopyCmd
	if name == "" {
		name = "phonopy"
	}
	dim := fmt.Sprintf("%d %d %d", d.Dim[0], d.Dim[1], d.Dim[2])
	cmd := exec.CommandContext(ctx, name, "-d", "--dim="+dim)
	cmd.Dir = d.WorkDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s -d --dim=%q: %w\n%s", name, dim, err, strings.TrimSpace(string(out)))
	}
	logrus.Infof("[done] supercells generated with dim %s", dim)
	return nil
}

// SubmitAll creates a disp-NNN directory per displacement, copies the input
// set into it, and submits one queue script per directory. Returns the id of
// the last submitted job, which is also recorded in the cluster's job-id
// file.
func (d *Driver) SubmitAll() (string, error) {
	disps, err := Displacements(d.WorkDir)
	if err != nil {
		return "", err
	}
	var lastID string
	for _, disp := range disps {
		jobDir := filepath.Join(d.WorkDir, "disp-"+disp.Number)
		if err := os.MkdirAll(jobDir, 0o755); err != nil {
			return lastID, err
		}
		if err := fsutil.CopyFile(disp.Path, filepath.Join(jobDir, "POSCAR")); err != nil {
			return lastID, err
		}
		if err := fsutil.CopyAll(d.WorkDir, jobDir, "INCAR", "KPOINTS", "POTCAR"); err != nil {
			return lastID, err
		}

		cfg := d.Cluster
		cfg.JobName = fmt.Sprintf("%s-%s", cfg.JobName, disp.Number)
		body := []string{strings.TrimSpace(cfg.MPICmd + " " + cfg.VASPCmd)}
		script := filepath.Join(jobDir, "job.sh")
		if err := queue.WriteScript(script, d.Sub.Script(cfg, body)); err != nil {
			return lastID, err
		}
		id, err := d.Sub.Submit(script)
		if err != nil {
			return lastID, fmt.Errorf("submit disp-%s: %w", disp.Number, err)
		}
		logrus.Infof("[job] disp-%s submitted as %s", disp.Number, id)
		lastID = id
	}
	if err := queue.RecordJobID(d.Cluster.JobIDFile, lastID); err != nil {
		logrus.Warnf("record job id: %v", err)
	}
	return lastID, nil
}

// Run executes the full displacement workflow: prepare, generate, submit.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.PrepareWorkDir(); err != nil {
		return err
	}
	if err := d.Generate(ctx); err != nil {
		return err
	}
	last, err := d.SubmitAll()
	if err != nil {
		return err
	}
	logrus.Infof("[done] last job id %s", last)
	return nil
}
