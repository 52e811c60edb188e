package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Config holds data locations and output settings.
type Config struct {
	// Paths
	DataDir       string   `json:"data_dir"`
	BaseOBJ       string   `json:"base_obj"`
	VertexGroups  string   `json:"vertex_groups"`
	TargetsDirs   []string `json:"targets_dirs"`
	BodyPartDirs  []string `json:"body_part_dirs"`
	EquipmentDirs []string `json:"equipment_dirs"`
	SkinsDir      string   `json:"skins_dir"`
	RigsDir       string   `json:"rigs_dir"`
	OutputDir     string   `json:"output_dir"`

	// Body
	RigNames       []string `json:"rig_names"`
	BodyVertices   int      `json:"body_vertices"`
	MatchTolerance float64  `json:"match_tolerance"`

	// Output settings
	PreviewSize int `json:"preview_size"`
	Supersample int `json:"supersample"`
	Workers     int `json:"workers"`
}

// BodyVertexCount is the number of canonical body vertices in the stock
// base mesh. Canonical ids at or above it belong to helper geometry.
const BodyVertexCount = 13380

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	DataDir   string
	OutputDir string
	Rigs      string // comma-separated
	Workers   int
	Size      int
	Tolerance float64
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.DataDir != "" {
		c.DataDir = flags.DataDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Rigs != "" {
		c.RigNames = splitList(flags.Rigs)
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Size > 0 {
		c.PreviewSize = flags.Size
	}
	if flags.Tolerance > 0 {
		c.MatchTolerance = flags.Tolerance
	}

	if c.DataDir == "" {
		c.DataDir = detectDataDir()
	}

	c.BaseOBJ = c.path(c.BaseOBJ, "base.obj")
	c.VertexGroups = c.path(c.VertexGroups, "basemesh_vertex_groups.json")
	c.SkinsDir = c.path(c.SkinsDir, filepath.Join("skin_textures", "albedo"))
	c.RigsDir = c.path(c.RigsDir, "rigs")
	c.OutputDir = c.path(c.OutputDir, "output")
	c.TargetsDirs = c.paths(c.TargetsDirs, "targets")
	c.BodyPartDirs = c.paths(c.BodyPartDirs, "body_parts")
	c.EquipmentDirs = c.paths(c.EquipmentDirs, "clothes")

	if len(c.RigNames) == 0 {
		c.RigNames = []string{"default", "mixamo", "game_engine"}
	}
	if c.BodyVertices <= 0 {
		c.BodyVertices = BodyVertexCount
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// path resolves p against DataDir, defaulting to def when empty.
func (c *Config) path(p, def string) string {
	if p == "" {
		p = def
	}
	if filepath.IsAbs(p) || c.DataDir == "" {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

func (c *Config) paths(ps []string, defs ...string) []string {
	if len(ps) == 0 {
		ps = defs
	}
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = c.path(p, "")
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func detectDataDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir), filepath.Join(dir, "..", "..")} {
			if isDataDir(filepath.Join(base, "assets")) {
				return filepath.Join(base, "assets")
			}
		}
	}

	// Try current working directory and its parent
	cwd, _ := os.Getwd()
	for _, base := range []string{cwd, filepath.Dir(cwd)} {
		for _, dir := range []string{base, filepath.Join(base, "assets")} {
			if isDataDir(dir) {
				return dir
			}
		}
	}
	return ""
}

func isDataDir(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "base.obj"))
	return err == nil
}
