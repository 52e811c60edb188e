// Package objfile reads Wavefront OBJ geometry into render meshes.
package objfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"humanforge/internal/errs"
	"humanforge/internal/mathutil"
	"humanforge/internal/mesh"
)

// Model is a parsed OBJ file.
type Model struct {
	// Canonical holds the raw `v` records in file order.
	Canonical []mathutil.Vec3
	// Render splits vertices on unique (position, uv) corners, so UV seams
	// produce several render vertices at one canonical position.
	Render *mesh.Mesh
}

type corner struct {
	v, vt int // vt is -1 when absent
}

// Load reads an OBJ file from disk.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("objfile: open %s: %w", path, err)
	}
	defer f.Close()

	m, err := Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("objfile: %w", err)
	}
	return m, nil
}

// Parse reads OBJ records from r. Polygons are fan-triangulated; normals in
// the file are ignored and recomputed from the geometry.
func Parse(r io.Reader, name string) (*Model, error) {
	var (
		positions []mathutil.Vec3
		uvs       [][2]float32
		renderIdx = make(map[corner]uint32)
		out       = &mesh.Mesh{}
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)
		ident, val := fields[0], fields[1:]

		switch ident {
		case "v":
			p, err := parseFloats(val, 3)
			if err != nil {
				return nil, &errs.ParseError{File: name, Line: line, Msg: "v: " + err.Error()}
			}
			positions = append(positions, mathutil.Vec3{p[0], p[1], p[2]})
		case "vt":
			p, err := parseFloats(val, 2)
			if err != nil {
				return nil, &errs.ParseError{File: name, Line: line, Msg: "vt: " + err.Error()}
			}
			uvs = append(uvs, [2]float32{float32(p[0]), float32(p[1])})
		case "f":
			if len(val) < 3 {
				return nil, &errs.ParseError{File: name, Line: line, Msg: fmt.Sprintf("f: %d corners, need at least 3", len(val))}
			}
			poly := make([]uint32, len(val))
			for i, tok := range val {
				c, err := parseCorner(tok, len(positions), len(uvs))
				if err != nil {
					return nil, &errs.ParseError{File: name, Line: line, Msg: "f: " + err.Error()}
				}
				idx, ok := renderIdx[c]
				if !ok {
					idx = uint32(len(out.Positions))
					renderIdx[c] = idx
					out.Positions = append(out.Positions, positions[c.v])
					var uv [2]float32
					if c.vt >= 0 {
						uv = uvs[c.vt]
					}
					out.UVs = append(out.UVs, uv)
				}
				poly[i] = idx
			}
			for i := 1; i+1 < len(poly); i++ {
				out.Indices = append(out.Indices, poly[0], poly[i], poly[i+1])
			}
		default:
			// vn, o, g, s, usemtl, mtllib: not needed for geometry
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if len(uvs) == 0 {
		out.UVs = nil
	}
	out.RecomputeAttributes()
	return &Model{Canonical: positions, Render: out}, nil
}

func parseFloats(val []string, n int) ([]float64, error) {
	if len(val) < n {
		return nil, fmt.Errorf("%d components, need %d", len(val), n)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(val[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// parseCorner decodes "v", "v/vt", "v//vn" or "v/vt/vn" into zero-based indices.
func parseCorner(tok string, nv, nvt int) (corner, error) {
	parts := strings.Split(tok, "/")
	v, err := resolveIndex(parts[0], nv)
	if err != nil {
		return corner{}, fmt.Errorf("position %q: %w", tok, err)
	}
	c := corner{v: v, vt: -1}
	if len(parts) > 1 && parts[1] != "" {
		vt, err := resolveIndex(parts[1], nvt)
		if err != nil {
			return corner{}, fmt.Errorf("uv %q: %w", tok, err)
		}
		c.vt = vt
	}
	return c, nil
}

// resolveIndex maps a 1-based or negative (relative) OBJ index to zero-based.
func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += count
	default:
		return 0, fmt.Errorf("index 0 is invalid")
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("index out of range (%d defined)", count)
	}
	return i, nil
}
