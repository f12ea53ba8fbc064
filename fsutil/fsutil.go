// Package fsutil provides the filesystem primitives shared by the workflow
// commands: file copies into per-job directories, symlink creation under the
// safety rules the phonon tooling relies on, and candidate-path resolution.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// CopyFile copies src to dst, preserving the source file mode. dst is
// truncated if it already exists.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("copy %s: not a regular file", src)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// CopyAll copies each named file from srcDir into dstDir, keeping basenames.
// Missing sources are an error; the caller decides which inputs are optional.
func CopyAll(srcDir, dstDir string, names ...string) error {
	for _, name := range names {
		if err := CopyFile(filepath.Join(srcDir, name), filepath.Join(dstDir, name)); err != nil {
			return err
		}
	}
	return nil
}

// SafeSymlink creates dst as a symlink to src under the safety rules used
// throughout the phonon linking step:
//
//   - an existing regular (non-link) file at dst is never touched,
//   - an existing link already resolving to src is left alone,
//   - a self-referential link (dst == src) is refused,
//   - broken or differently-targeted links are replaced.
//
// Parent directories of dst are created as needed. All skips are logged at
// Info level; only real filesystem failures return an error.
func SafeSymlink(src, dst string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	if resolved, rerr := filepath.EvalSymlinks(abs); rerr == nil {
		abs = resolved
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	fi, lerr := os.Lstat(dst)
	switch {
	case lerr == nil && fi.Mode()&os.ModeSymlink == 0:
		// dst exists and is a real file: keep it.
		logrus.Infof("[skip] dst is a regular file (keep): %s", dst)
		return nil
	case lerr == nil:
		if target, terr := filepath.EvalSymlinks(dst); terr == nil && target == abs {
			logrus.Infof("[skip] exists (same target): %s", dst)
			return nil
		}
		// broken link or different target: recreate below
	case !os.IsNotExist(lerr):
		return lerr
	}

	absDst, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	if absDst == abs {
		logrus.Infof("[skip] would create self-link: %s", dst)
		return nil
	}

	if lerr == nil {
		if err := os.Remove(dst); err != nil {
			return err
		}
	}
	if err := os.Symlink(abs, dst); err != nil {
		return err
	}
	logrus.Infof("[link] %s -> %s", filepath.Base(dst), abs)
	return nil
}

// FirstExisting returns the first path that exists as a regular file, or ""
// when none do.
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}
