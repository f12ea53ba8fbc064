package linker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
}

func TestPlanDynLinks(t *testing.T) {
	dir := t.TempDir()
	dvscf := filepath.Join(dir, "tmp", "_ph0")
	touch(t, filepath.Join(dir, "tis2.dyn0"))
	touch(t, filepath.Join(dir, "tis2.dyn1"))
	touch(t, filepath.Join(dir, "tis2.dyn12"))
	touch(t, filepath.Join(dir, "tis2.dyn1.xml")) // not a plain dyn file
	touch(t, filepath.Join(dir, "other.dyn1"))    // wrong prefix

	links, err := PlanDynLinks(dir, "tis2", dvscf)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, filepath.Join(dvscf, "tis2.dyn_q1"), links[1].Dst)
	assert.Equal(t, filepath.Join(dvscf, "tis2.dyn_q12"), links[2].Dst)
}

func TestPlanDynLinks_NoneFound(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "other.dyn1"))

	_, err := PlanDynLinks(dir, "tis2", dir)
	assert.ErrorContains(t, err, "no dyn files")
}

func TestFindDvscfSources_PrefersFirstPerturbation(t *testing.T) {
	work := t.TempDir()
	ph0 := filepath.Join(work, "tmp", "_ph0")
	// GIVEN q1 present with perturbations 3 then 1, and q2 only as _2
	touch(t, filepath.Join(ph0, "tis2.dvscf1_3"))
	touch(t, filepath.Join(ph0, "sub", "tis2.tis2.dvscf1_1"))
	touch(t, filepath.Join(ph0, "tis2.dvscf2_2"))
	// AND an already-normalized destination name that must not be reused
	touch(t, filepath.Join(ph0, "tis2.dvscf_q3"))

	sources, err := FindDvscfSources("tis2", ph0, work)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	// THEN q1 resolves to the ipert==1 candidate
	assert.Equal(t, 1, sources[1].IPert)
	assert.Contains(t, sources[1].Path, "tis2.tis2.dvscf1_1")
	assert.Equal(t, 2, sources[2].IPert)
}

func TestFindDvscfSources_BareNames(t *testing.T) {
	work := t.TempDir()
	ph0 := filepath.Join(work, "out", "_ph0")
	touch(t, filepath.Join(ph0, "tis2.dvscf4"))

	sources, err := FindDvscfSources("tis2", filepath.Join(work, "tmp", "_ph0"), work)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, 1, sources[4].IPert)
}

func TestFindDvscfSources_NoneIsError(t *testing.T) {
	work := t.TempDir()
	_, err := FindDvscfSources("tis2", filepath.Join(work, "tmp", "_ph0"), work)
	assert.ErrorContains(t, err, "no dvscf source files")
}

func TestPlanDvscfLinks_BothConventions(t *testing.T) {
	dvscf := "/ph/tmp/_ph0"
	sources := map[int]Source{
		2: {IPert: 1, Path: "/ph/tmp/_ph0/tis2.dvscf2_2"},
		1: {IPert: 1, Path: "/ph/tmp/_ph0/tis2.dvscf1_3"},
	}

	links := PlanDvscfLinks("tis2", dvscf, sources)
	require.Len(t, links, 4)
	// q order, both naming conventions per q
	assert.Equal(t, filepath.Join(dvscf, "tis2.dvscf1_1"), links[0].Dst)
	assert.Equal(t, filepath.Join(dvscf, "tis2.dvscf_q1"), links[1].Dst)
	assert.Equal(t, filepath.Join(dvscf, "tis2.dvscf2_1"), links[2].Dst)
	assert.Equal(t, filepath.Join(dvscf, "tis2.dvscf_q2"), links[3].Dst)
}

func TestRun_EndToEnd(t *testing.T) {
	work := t.TempDir()
	dvscf := filepath.Join(work, "tmp", "_ph0")
	touch(t, filepath.Join(work, "tis2.dyn1"))
	touch(t, filepath.Join(work, "tis2.dyn2"))
	touch(t, filepath.Join(dvscf, "tis2.dvscf1_1")) // excluded as source, kept as file
	touch(t, filepath.Join(dvscf, "tis2.dvscf2_2"))

	require.NoError(t, Run(Options{Prefix: "tis2", WorkDir: work, DvscfDir: dvscf}))

	// dyn links exist
	for _, name := range []string{"tis2.dyn_q1", "tis2.dyn_q2"} {
		fi, err := os.Lstat(filepath.Join(dvscf, name))
		require.NoError(t, err, name)
		assert.NotZero(t, fi.Mode()&os.ModeSymlink, name)
	}

	// the regular file tis2.dvscf1_1 was not replaced by a link
	fi, err := os.Lstat(filepath.Join(dvscf, "tis2.dvscf1_1"))
	require.NoError(t, err)
	assert.True(t, fi.Mode().IsRegular())

	// q2 got both conventions, pointing at the _2 source
	target, err := filepath.EvalSymlinks(filepath.Join(dvscf, "tis2.dvscf_q2"))
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(filepath.Join(dvscf, "tis2.dvscf2_2"))
	require.NoError(t, err)
	assert.Equal(t, resolved, target)
}

func TestRun_EmptyPrefix(t *testing.T) {
	assert.Error(t, Run(Options{}))
}
