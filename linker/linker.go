// Package linker prepares the symlink farm EPW expects in its dvscf
// directory. Phonon runs leave PREFIX.dynN and dvscf files scattered under
// the working tree with several naming conventions; EPW builds differ in
// which names they open, so both PREFIX.dvscfN_1 and PREFIX.dvscf_qN are
// created for every q-point, plus PREFIX.dyn_qN for the dynamical matrices.
package linker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/suecreamm/materials/fsutil"
)

// Options configures one linking run.
type Options struct {
	Prefix   string
	WorkDir  string // directory holding the dyn files, usually the ph.x run dir
	DvscfDir string // EPW's dvscf_dir where links are created
}

// Link is one planned symlink.
type Link struct {
	Src string
	Dst string
}

// Source is a discovered dvscf file for one q-point.
type Source struct {
	IPert int
	Path  string
}

// Run plans and creates every link. Both phases go through
// fsutil.SafeSymlink, so existing regular files are never overwritten.
func Run(opts Options) error {
	if opts.Prefix == "" {
		return fmt.Errorf("empty prefix")
	}
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	dvscfDir := opts.DvscfDir
	if dvscfDir == "" {
		dvscfDir = filepath.Join(workDir, "tmp", "_ph0")
	}

	logrus.Infof("[info] workdir   : %s", workDir)
	logrus.Infof("[info] dvscf_dir : %s", dvscfDir)

	dynLinks, err := PlanDynLinks(workDir, opts.Prefix, dvscfDir)
	if err != nil {
		return err
	}
	logrus.Infof("[info] found %d dyn files", len(dynLinks))

	sources, err := FindDvscfSources(opts.Prefix, dvscfDir, workDir)
	if err != nil {
		return err
	}
	qpoints := make([]int, 0, len(sources))
	for iq := range sources {
		qpoints = append(qpoints, iq)
	}
	sort.Ints(qpoints)
	logrus.Infof("[info] found dvscf q-points: %v", qpoints)

	links := append(dynLinks, PlanDvscfLinks(opts.Prefix, dvscfDir, sources)...)
	for _, l := range links {
		if err := fsutil.SafeSymlink(l.Src, l.Dst); err != nil {
			return err
		}
	}
	logrus.Info("[done] links created safely")
	return nil
}

// PlanDynLinks maps PREFIX.dynN files in dir onto PREFIX.dyn_qN names in
// dvscfDir. Non-numbered dyn files (e.g. PREFIX.dyn0) are planned too since
// they carry the plain numeric suffix; files like PREFIX.dyn_q1 do not
// match and are ignored.
func PlanDynLinks(dir, prefix, dvscfDir string) ([]Link, error) {
	dynRe := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `\.dyn(\d+)$`)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var links []Link
	anyDyn := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), prefix+".dyn") {
			anyDyn = true
		}
		m := dynRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		links = append(links, Link{
			Src: filepath.Join(dir, e.Name()),
			Dst: filepath.Join(dvscfDir, fmt.Sprintf("%s.dyn_q%s", prefix, m[1])),
		})
	}
	if !anyDyn {
		return nil, fmt.Errorf("no dyn files found in %s", dir)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Src < links[j].Src })
	return links, nil
}

// FindDvscfSources walks dvscfDir plus the usual scratch trees under
// workDir and collects the best dvscf source per q-point. Accepted names:
//
//	PREFIX.dvscfN_M, PREFIX.PREFIX.dvscfN_M, PREFIX.dvscfN, PREFIX.PREFIX.dvscfN
//
// Already-normalized destination names (PREFIX.dvscfN_1, PREFIX.dvscf_qN)
// are excluded from source candidates so reruns do not chain links. Per
// q-point the first perturbation is preferred, then the smallest.
func FindDvscfSources(prefix, dvscfDir, workDir string) (map[int]Source, error) {
	p := regexp.QuoteMeta(prefix)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`^` + p + `\.dvscf(\d+)_(\d+)$`),
		regexp.MustCompile(`^` + p + `\.` + p + `\.dvscf(\d+)_(\d+)$`),
		regexp.MustCompile(`^` + p + `\.dvscf(\d+)$`),
		regexp.MustCompile(`^` + p + `\.` + p + `\.dvscf(\d+)$`),
	}
	exclude := regexp.MustCompile(`^` + p + `\.dvscf(\d+)_1$|^` + p + `\.dvscf_q(\d+)$`)

	parse := func(name string) (iq, ipert int, ok bool) {
		if exclude.MatchString(name) {
			return 0, 0, false
		}
		for _, re := range patterns {
			m := re.FindStringSubmatch(name)
			if m == nil {
				continue
			}
			iq, _ = strconv.Atoi(m[1])
			ipert = 1
			if len(m) > 2 && m[2] != "" {
				ipert, _ = strconv.Atoi(m[2])
			}
			return iq, ipert, true
		}
		return 0, 0, false
	}

	roots := []string{
		dvscfDir,
		filepath.Join(workDir, "tmp", "_ph0"),
		filepath.Join(workDir, "out", "_ph0"),
	}
	hits := make(map[int]Source)
	seen := make(map[string]bool)
	for _, root := range roots {
		if seen[root] {
			continue
		}
		seen[root] = true
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.Contains(d.Name(), "dvscf") {
				return err
			}
			iq, ipert, ok := parse(d.Name())
			if !ok {
				return nil
			}
			best, exists := hits[iq]
			switch {
			case !exists:
				hits[iq] = Source{IPert: ipert, Path: path}
			case best.IPert != 1 && ipert == 1:
				hits[iq] = Source{IPert: ipert, Path: path}
			case best.IPert != 1 && ipert < best.IPert:
				hits[iq] = Source{IPert: ipert, Path: path}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("no dvscf source files found")
	}
	return hits, nil
}

// PlanDvscfLinks emits both naming conventions EPW might request for every
// discovered q-point, in q order.
func PlanDvscfLinks(prefix, dvscfDir string, sources map[int]Source) []Link {
	qpoints := make([]int, 0, len(sources))
	for iq := range sources {
		qpoints = append(qpoints, iq)
	}
	sort.Ints(qpoints)

	var links []Link
	for _, iq := range qpoints {
		src := sources[iq].Path
		links = append(links,
			Link{Src: src, Dst: filepath.Join(dvscfDir, fmt.Sprintf("%s.dvscf%d_1", prefix, iq))},
			Link{Src: src, Dst: filepath.Join(dvscfDir, fmt.Sprintf("%s.dvscf_q%d", prefix, iq))},
		)
	}
	return links
}
