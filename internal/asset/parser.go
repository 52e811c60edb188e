package asset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"humanforge/internal/errs"
	"humanforge/internal/mathutil"
)

type section int

const (
	sectionHeader section = iota
	sectionVerts
	sectionDelete
)

// ParseFile reads a .mhclo file. A missing name falls back to the file stem.
func ParseFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asset: open %s: %w", path, err)
	}
	defer f.Close()

	def, err := Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("asset: %w", err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if def.ObjFile != "" && !filepath.IsAbs(def.ObjFile) {
		def.ObjFile = filepath.Join(filepath.Dir(path), def.ObjFile)
	}
	if def.Material != "" && !filepath.IsAbs(def.Material) {
		def.Material = filepath.Join(filepath.Dir(path), def.Material)
	}
	return def, nil
}

// Parse reads .mhclo text. name labels parse errors.
func Parse(r io.Reader, name string) (*Definition, error) {
	def := &Definition{Path: name, Delete: make(map[int]struct{})}
	sec := sectionHeader

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		f := strings.Fields(text)
		fail := func(format string, args ...any) error {
			return &errs.ParseError{File: name, Line: line, Msg: fmt.Sprintf(format, args...)}
		}

		switch {
		case f[0] == "verts":
			sec = sectionVerts
			continue
		case f[0] == "delete_verts":
			sec = sectionDelete
			continue
		}

		switch sec {
		case sectionHeader:
			if err := parseHeader(def, f); err != nil {
				return nil, fail("%s: %v", f[0], err)
			}
		case sectionVerts:
			m, err := parseMapping(f)
			if err != nil {
				return nil, fail("%v", err)
			}
			def.Mappings = append(def.Mappings, m)
		case sectionDelete:
			if err := parseDeleteLine(def.Delete, f); err != nil {
				return nil, fail("delete_verts: %v", err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return def, nil
}

func parseHeader(def *Definition, f []string) error {
	rest := strings.Join(f[1:], " ")
	switch f[0] {
	case "obj_file":
		def.ObjFile = rest
	case "name":
		def.Name = rest
	case "material":
		def.Material = rest
	case "tag":
		def.Tags = append(def.Tags, rest)
	case "z_depth":
		if len(f) != 2 {
			return fmt.Errorf("want 1 value, got %d", len(f)-1)
		}
		z, err := strconv.Atoi(f[1])
		if err != nil {
			return err
		}
		def.ZDepth = z
	case "x_scale", "y_scale", "z_scale":
		ref, err := parseScale(f[1:])
		if err != nil {
			return err
		}
		def.Scale[f[0][0]-'x'] = ref
	}
	// Other header keys (uuid, license, ...) are ignored.
	return nil
}

func parseScale(f []string) (ScaleRef, error) {
	if len(f) != 3 {
		return ScaleRef{}, fmt.Errorf("want 3 values, got %d", len(f))
	}
	min, err := strconv.Atoi(f[0])
	if err != nil {
		return ScaleRef{}, err
	}
	max, err := strconv.Atoi(f[1])
	if err != nil {
		return ScaleRef{}, err
	}
	s, err := strconv.ParseFloat(f[2], 64)
	if err != nil {
		return ScaleRef{}, err
	}
	return ScaleRef{Min: min, Max: max, Scale: s, Set: true}, nil
}

func parseMapping(f []string) (HelperMapping, error) {
	switch len(f) {
	case 1:
		id, err := parseID(f[0])
		if err != nil {
			return HelperMapping{}, err
		}
		return HelperMapping{Direct: true, Verts: [3]int{id, id, id}, Weights: [3]float64{1, 0, 0}}, nil
	case 9:
		var m HelperMapping
		for i := 0; i < 3; i++ {
			id, err := parseID(f[i])
			if err != nil {
				return HelperMapping{}, err
			}
			m.Verts[i] = id
		}
		var sum float64
		for i := 0; i < 3; i++ {
			w, err := strconv.ParseFloat(f[3+i], 64)
			if err != nil {
				return HelperMapping{}, fmt.Errorf("weight %q: %w", f[3+i], err)
			}
			m.Weights[i] = w
			sum += w
		}
		// All-zero weights pin the vertex to its offset.
		if sum != 0 {
			for i := range m.Weights {
				m.Weights[i] /= sum
			}
		}
		var off mathutil.Vec3
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(f[6+i], 64)
			if err != nil {
				return HelperMapping{}, fmt.Errorf("offset %q: %w", f[6+i], err)
			}
			off[i] = v
		}
		m.Offset = off
		return m, nil
	default:
		return HelperMapping{}, fmt.Errorf("vertex line has %d fields, want 1 or 9", len(f))
	}
}

// parseDeleteLine accepts any mix of bare ids and inclusive "A - B" ranges.
func parseDeleteLine(set map[int]struct{}, f []string) error {
	for i := 0; i < len(f); i++ {
		a, err := parseID(f[i])
		if err != nil {
			return err
		}
		if i+2 < len(f) && f[i+1] == "-" {
			b, err := parseID(f[i+2])
			if err != nil {
				return err
			}
			if b < a {
				return fmt.Errorf("range %d - %d is reversed", a, b)
			}
			for v := a; v <= b; v++ {
				set[v] = struct{}{}
			}
			i += 2
			continue
		}
		set[a] = struct{}{}
	}
	return nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad vertex id %q", s)
	}
	if id < 0 {
		return 0, fmt.Errorf("negative vertex id %d", id)
	}
	return id, nil
}
