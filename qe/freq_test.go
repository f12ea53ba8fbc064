package qe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDispersion_GnuplotTable(t *testing.T) {
	path := writeTemp(t, "tis2.freq.gp", "0.0 10.0 20.0 30.0\n0.5 11.0 21.0 31.0\n1.0 12.0 22.0 32.0\n")

	d, err := ReadDispersion(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.0, 0.5, 1.0}, d.X)
	require.Len(t, d.QPath, 3)
	assert.Equal(t, []float64{11.0, 21.0, 31.0}, d.QPath[1])
}

func TestReadDispersion_RawFreq(t *testing.T) {
	content := ` &plot nbnd=   4, nks=   2 /
  0.000000  0.000000  0.000000
  10.0 20.0
  30.0 40.0
  0.500000  0.000000  0.000000
  11.0 21.0 31.0 41.0
`
	path := writeTemp(t, "tis2.freq", content)

	d, err := ReadDispersion(path)
	require.NoError(t, err)
	require.Len(t, d.QPath, 2)
	assert.Equal(t, []float64{0, 1}, d.X)
	assert.Equal(t, []float64{10, 20, 30, 40}, d.QPath[0])
	assert.Equal(t, []float64{11, 21, 31, 41}, d.QPath[1])
}

func TestReadDispersion_RawFreqTruncated(t *testing.T) {
	content := `&plot nbnd= 3, nks= 2 /
0.0 0.0 0.0
1.0 2.0 3.0
`
	path := writeTemp(t, "bad.freq", content)
	_, err := ReadDispersion(path)
	assert.Error(t, err)
}

func TestResolveDispersionFile_PrefixGuessing(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile("tis2_phband.freq.gp", []byte("0 1\n"), 0o644))

	path, prefix, err := ResolveDispersionFile("tis2")
	require.NoError(t, err)
	assert.Equal(t, "tis2_phband.freq.gp", path)
	assert.Equal(t, "tis2", prefix)

	// direct path bypasses guessing
	path, prefix, err = ResolveDispersionFile("tis2_phband.freq.gp")
	require.NoError(t, err)
	assert.Equal(t, "tis2_phband.freq.gp", path)
	assert.Equal(t, "", prefix)

	_, _, err = ResolveDispersionFile("missing_prefix")
	assert.Error(t, err)
}

func TestResolvePhononDOS(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	assert.Equal(t, "", ResolvePhononDOS(""))
	assert.Equal(t, "", ResolvePhononDOS("tis2"))

	require.NoError(t, os.WriteFile("tis2.phdos", []byte("0 1\n"), 0o644))
	assert.Equal(t, "tis2.phdos", ResolvePhononDOS("tis2"))
}

func TestReadPhononDOS_SortsByFrequency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tis2.phdos")
	require.NoError(t, os.WriteFile(path, []byte("200 0.2 9\n100 0.1 9\n300 0.3 9\n"), 0o644))

	freq, dos, err := ReadPhononDOS(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200, 300}, freq)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, dos)
}

func TestConvertFromCM1(t *testing.T) {
	in := []float64{CM1PerMeV, 2 * CM1PerMeV}

	out, label, err := ConvertFromCM1(in, UnitMeV)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out[0], 1e-12)
	assert.InDelta(t, 2.0, out[1], 1e-12)
	assert.Contains(t, label, "meV")

	out, _, err = ConvertFromCM1([]float64{CM1PerTHz}, UnitTHz)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out[0], 1e-12)

	same, label, err := ConvertFromCM1(in, UnitCM1)
	require.NoError(t, err)
	assert.Equal(t, in, same)
	assert.Contains(t, label, "cm^-1")

	_, _, err = ConvertFromCM1(in, FreqUnit("hartree"))
	assert.Error(t, err)
}

func TestSanitizeOutBase(t *testing.T) {
	assert.Equal(t, "phonon_dispersion", SanitizeOutBase("phonon_dispersion"))
	assert.Equal(t, "phonon_dispersion", SanitizeOutBase("phonon_dispersion.png"))
	assert.Equal(t, "figs/disp", SanitizeOutBase("figs/disp.PDF"))
}
