// Package vasp prepares VASP finite-displacement phonon jobs: INCAR
// line-editing, KPOINTS mesh regeneration, displacement enumeration, and
// the per-displacement submit loop.
package vasp

import (
	"fmt"
	"os"
	"strings"
)

// relaxTags are the INCAR keywords stripped before a displacement run;
// relaxation settings must not leak into the static force calculations.
var relaxTags = []string{
	"IBRION",
	"NSW",
	"ISIF",
	"EDIFF",
	"EDIFFG",
	"LWAVE",
	"LCHARG",
	"POTIM",
}

// staticBlock is appended in place of the stripped lines.
var staticBlock = []string{
	"IBRION = -1",
	"NSW = 0",
	"EDIFF = 1E-8",
	"LWAVE = .FALSE.",
	"LCHARG = .FALSE.",
}

// StripTags removes every line whose keyword (the token before '=') matches
// one of tags, case-insensitively. Comment lines are kept.
func StripTags(lines []string, tags []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "!") {
			out = append(out, line)
			continue
		}
		key, _, found := strings.Cut(s, "=")
		if !found {
			out = append(out, line)
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		matched := false
		for _, tag := range tags {
			if key == strings.ToUpper(tag) {
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, line)
		}
	}
	return out
}

// AppendBlock appends block after the kept lines, separated by a blank line.
func AppendBlock(lines, block []string) []string {
	out := make([]string, 0, len(lines)+len(block)+1)
	out = append(out, lines...)
	if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
		out = append(out, "")
	}
	return append(out, block...)
}

// RewriteINCAR reads src, strips the relaxation tags, appends the static
// block, and writes the result to dst.
func RewriteINCAR(src, dst string) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read INCAR: %w", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	lines = AppendBlock(StripTags(lines, relaxTags), staticBlock)
	return os.WriteFile(dst, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}
