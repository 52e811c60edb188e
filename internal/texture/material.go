package texture

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Material is the subset of a .mhmat file the preview renderer uses.
type Material struct {
	Name    string
	Diffuse string // texture path, resolved next to the .mhmat file
}

// ParseMaterial reads .mhmat key/value lines. Only name and diffuseTexture
// are kept.
func ParseMaterial(r io.Reader) (Material, error) {
	var m Material
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		key, val, _ := strings.Cut(line, " ")
		switch key {
		case "name":
			m.Name = strings.TrimSpace(val)
		case "diffuseTexture":
			m.Diffuse = strings.TrimSpace(val)
		}
	}
	return m, sc.Err()
}

// LoadMaterial parses a .mhmat file.
func LoadMaterial(path string) (Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return Material{}, fmt.Errorf("texture: open %s: %w", path, err)
	}
	defer f.Close()

	m, err := ParseMaterial(f)
	if err != nil {
		return Material{}, fmt.Errorf("texture: read %s: %w", path, err)
	}
	if m.Diffuse != "" && !filepath.IsAbs(m.Diffuse) {
		m.Diffuse = filepath.Join(filepath.Dir(path), m.Diffuse)
	}
	return m, nil
}
