package vasp

import (
	"fmt"
	"os"
)

// KPointsMesh renders a Gamma-centered automatic KPOINTS file for the
// given mesh dimensions.
func KPointsMesh(nx, ny, nz int) string {
	return fmt.Sprintf("Automatic mesh\n0\nGamma\n%d %d %d\n0 0 0\n", nx, ny, nz)
}

// WriteKPoints writes a Gamma-centered mesh KPOINTS file at path.
func WriteKPoints(path string, nx, ny, nz int) error {
	if nx < 1 || ny < 1 || nz < 1 {
		return fmt.Errorf("kpoints mesh %dx%dx%d: all dimensions must be positive", nx, ny, nz)
	}
	return os.WriteFile(path, []byte(KPointsMesh(nx, ny, nz)), 0o644)
}
