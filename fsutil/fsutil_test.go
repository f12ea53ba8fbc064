package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCopyFile_PreservesContentAndMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "INCAR")
	dst := filepath.Join(dir, "disp-001", "INCAR")
	require.NoError(t, os.WriteFile(src, []byte("ENCUT = 500\n"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Dir(dst), 0o755))

	require.NoError(t, CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "ENCUT = 500\n", string(data))
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "out"))
	assert.Error(t, err)
}

func TestSafeSymlink_NeverReplacesRegularFile(t *testing.T) {
	// GIVEN a regular file already occupying the destination name
	dir := t.TempDir()
	src := filepath.Join(dir, "prefix.dyn1")
	dst := filepath.Join(dir, "prefix.dyn_q1")
	writeFile(t, src, "dyn data")
	writeFile(t, dst, "real file")

	// WHEN SafeSymlink is called
	require.NoError(t, SafeSymlink(src, dst))

	// THEN the regular file is untouched
	fi, err := os.Lstat(dst)
	require.NoError(t, err)
	assert.True(t, fi.Mode().IsRegular())
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "real file", string(data))
}

func TestSafeSymlink_CreatesLink(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prefix.dvscf1")
	dst := filepath.Join(dir, "ph0", "prefix.dvscf1_1")
	writeFile(t, src, "dvscf")

	require.NoError(t, SafeSymlink(src, dst))

	target, err := filepath.EvalSymlinks(dst)
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(src)
	require.NoError(t, err)
	assert.Equal(t, resolved, target)
}

func TestSafeSymlink_SameTargetIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "x")

	require.NoError(t, SafeSymlink(src, dst))
	require.NoError(t, SafeSymlink(src, dst))

	fi, err := os.Lstat(dst)
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&os.ModeSymlink)
}

func TestSafeSymlink_RefusesSelfLink(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "same")
	writeFile(t, src, "x")

	require.NoError(t, SafeSymlink(src, src))

	fi, err := os.Lstat(src)
	require.NoError(t, err)
	assert.True(t, fi.Mode().IsRegular())
}

func TestSafeSymlink_ReplacesBrokenLink(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "x")
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), dst))

	require.NoError(t, SafeSymlink(src, dst))

	target, err := filepath.EvalSymlinks(dst)
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(src)
	require.NoError(t, err)
	assert.Equal(t, resolved, target)
}

func TestFirstExisting(t *testing.T) {
	dir := t.TempDir()
	b := filepath.Join(dir, "b.freq.gp")
	writeFile(t, b, "1 2\n")

	got := FirstExisting(filepath.Join(dir, "a.freq.gp"), b, filepath.Join(dir, "c.freq"))
	assert.Equal(t, b, got)

	assert.Equal(t, "", FirstExisting(filepath.Join(dir, "nope")))
}
