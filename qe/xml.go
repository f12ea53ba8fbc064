package qe

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// reciprocal lattice tag spellings seen across QE versions
var reciprocalTags = map[string]bool{
	"RECIPROCAL_LATTICE_VECTORS": true,
	"reciprocal_lattice_vectors": true,
	"RECIPROCAL_LATTICE":         true,
	"reciprocal_lattice":         true,
}

// ReadReciprocalLattice extracts the reciprocal lattice vectors b1,b2,b3
// from a QE data-file-schema.xml, returned as the rows of a 3x3 matrix.
// The walk is namespace-agnostic; child elements are tried first, then a
// fallback pulls the first nine floats out of the node text.
func ReadReciprocalLattice(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	var (
		inNode   bool
		depth    int
		children []string
		current  strings.Builder
		nodeText strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if inNode {
				depth++
				current.Reset()
			} else if reciprocalTags[t.Name.Local] {
				inNode = true
				depth = 0
			}
		case xml.CharData:
			if inNode {
				s := string(t)
				nodeText.WriteString(s + " ")
				if depth > 0 {
					current.WriteString(s)
				}
			}
		case xml.EndElement:
			if !inNode {
				continue
			}
			if depth == 0 {
				// end of the reciprocal lattice node
				return buildLattice(children, nodeText.String(), path)
			}
			if depth == 1 {
				children = append(children, current.String())
			}
			depth--
		}
	}
	return nil, fmt.Errorf("%s: reciprocal lattice tag not found", path)
}

func buildLattice(children []string, nodeText, path string) (*mat.Dense, error) {
	var rows [][]float64
	for _, txt := range children {
		parts := strings.Fields(normalizeFortran(txt))
		if len(parts) < 3 {
			continue
		}
		row := make([]float64, 0, 3)
		for _, p := range parts[:3] {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				row = nil
				break
			}
			row = append(row, v)
		}
		if len(row) == 3 {
			rows = append(rows, row)
		}
	}

	if len(rows) != 3 {
		// fallback: first nine floats anywhere inside the node
		var vals []float64
		for _, tok := range strings.Fields(normalizeFortran(nodeText)) {
			if v, err := strconv.ParseFloat(tok, 64); err == nil {
				vals = append(vals, v)
			}
		}
		if len(vals) >= 9 {
			rows = [][]float64{vals[0:3], vals[3:6], vals[6:9]}
		}
	}
	if len(rows) != 3 {
		return nil, fmt.Errorf("%s: could not parse 3 reciprocal vectors (parsed=%d)", path, len(rows))
	}

	b := mat.NewDense(3, 3, nil)
	for i, row := range rows {
		b.SetRow(i, row)
	}
	return b, nil
}
