// Package morph loads sparse shape targets and blends them onto the base body.
package morph

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"humanforge/internal/errs"
	"humanforge/internal/mathutil"
)

// BodyScale converts target file units to scene units.
const BodyScale = 0.1

// Target is a named sparse displacement field over canonical vertices.
// Offsets are already multiplied by BodyScale.
type Target struct {
	Name     string
	Category string
	Offsets  map[int]mathutil.Vec3
}

// ParseTarget reads "id dx dy dz" lines. Blank lines and '#' comments are skipped.
func ParseTarget(r io.Reader, name string) (*Target, error) {
	t := &Target{Name: name, Offsets: make(map[int]mathutil.Vec3)}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		f := strings.Fields(text)
		if len(f) != 4 {
			return nil, &errs.ParseError{File: name, Line: line, Msg: fmt.Sprintf("expected 4 fields, got %d", len(f))}
		}
		id, err := strconv.Atoi(f[0])
		if err != nil || id < 0 {
			return nil, &errs.ParseError{File: name, Line: line, Msg: fmt.Sprintf("bad vertex id %q", f[0])}
		}
		var d mathutil.Vec3
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(f[k+1], 64)
			if err != nil {
				return nil, &errs.ParseError{File: name, Line: line, Msg: fmt.Sprintf("bad offset %q", f[k+1])}
			}
			d[k] = v * BodyScale
		}
		t.Offsets[id] = d
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("morph: read %s: %w", name, err)
	}
	return t, nil
}

// LoadTarget reads a .target or gzip-compressed .target.gz file. The target is
// named after the file stem and categorized by its parent directory.
func LoadTarget(path string) (*Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("morph: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("morph: gunzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	t, err := ParseTarget(r, path)
	if err != nil {
		return nil, fmt.Errorf("morph: %w", err)
	}
	t.Name = TargetName(path)
	t.Category = filepath.Base(filepath.Dir(path))
	return t, nil
}

// TargetName strips the directory and the .target / .target.gz suffix.
func TargetName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".gz")
	return strings.TrimSuffix(base, ".target")
}

func isTargetFile(name string) bool {
	return strings.HasSuffix(name, ".target") || strings.HasSuffix(name, ".target.gz")
}
