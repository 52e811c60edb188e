package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"humanforge/internal/asset"
	"humanforge/internal/correspond"
	"humanforge/internal/mathutil"
	"humanforge/internal/morph"
	"humanforge/internal/objfile"
	"humanforge/internal/rig"
)

// inspect prints a summary of one data file: .obj, .mhclo, .target[.gz]
// or rig.<name>.json.
func main() {
	tolerance := flag.Float64("tolerance", 0, "Vertex match tolerance for .obj files")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: inspect [-tolerance t] <file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	var err error
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, ".obj"):
		err = inspectOBJ(path, *tolerance)
	case strings.HasSuffix(base, ".mhclo"):
		err = inspectAsset(path)
	case strings.HasSuffix(base, ".target"), strings.HasSuffix(base, ".target.gz"):
		err = inspectTarget(path)
	case strings.HasPrefix(base, "rig.") && strings.HasSuffix(base, ".json"):
		err = inspectRig(filepath.Dir(path), strings.TrimSuffix(strings.TrimPrefix(base, "rig."), ".json"))
	default:
		err = fmt.Errorf("unsupported file %s", base)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func inspectOBJ(path string, tolerance float64) error {
	m, err := objfile.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("Canonical: %d, Render: %d, Tris: %d, UVs: %v\n",
		len(m.Canonical), m.Render.VertexCount(), m.Render.TriangleCount(), m.Render.HasUVs())
	lo, hi := mathutil.Bounds(m.Canonical)
	fmt.Printf("  BBox: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n", lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])

	corr, err := correspond.Match(m.Canonical, m.Render.Positions, tolerance)
	if err != nil {
		return err
	}
	split, unused, widest := 0, 0, 0
	for _, rs := range corr.Forward {
		switch {
		case len(rs) == 0:
			unused++
		case len(rs) > 1:
			split++
		}
		widest = max(widest, len(rs))
	}
	fmt.Printf("  Correspondence: %d seam-split, %d unreferenced, widest %d\n", split, unused, widest)
	return nil
}

func inspectAsset(path string) error {
	def, err := asset.ParseFile(path)
	if err != nil {
		return err
	}
	direct := 0
	for _, m := range def.Mappings {
		if m.Direct {
			direct++
		}
	}
	fmt.Printf("Asset %q: z_depth=%d, tags=%v\n", def.Name, def.ZDepth, def.Tags)
	fmt.Printf("  OBJ: %s\n", def.ObjFile)
	fmt.Printf("  Material: %s\n", def.Material)
	fmt.Printf("  Mappings: %d (%d direct, %d triangle), max helper %d\n",
		len(def.Mappings), direct, len(def.Mappings)-direct, def.MaxHelper())
	fmt.Printf("  Delete: %d canonical vertices\n", len(def.Delete))
	for axis, ref := range def.Scale {
		if ref.Set {
			fmt.Printf("  Scale[%c]: %d..%d / %.4f\n", "xyz"[axis], ref.Min, ref.Max, ref.Scale)
		}
	}
	return nil
}

func inspectTarget(path string) error {
	t, err := morph.LoadTarget(path)
	if err != nil {
		return err
	}
	maxLen := 0.0
	for _, d := range t.Offsets {
		maxLen = math.Max(maxLen, d.Len())
	}
	fmt.Printf("Target %q (%s): %d offsets, largest %.4f\n", t.Name, t.Category, len(t.Offsets), maxLen)
	return nil
}

func inspectRig(dir, name string) error {
	def, err := rig.LoadRig(dir, name)
	if err != nil {
		return err
	}
	fmt.Printf("Rig %q: %d bones, %d weighted\n", def.Name, len(def.Bones), len(def.Weights))
	for i, b := range def.Bones {
		parent := b.Parent
		if parent == "" {
			parent = "-"
		}
		fmt.Printf("  Bone[%d] %s parent=%s head=%s tail=%s weights=%d\n",
			i, b.Name, parent, b.Head.Strategy, b.Tail.Strategy, len(def.Weights[b.Name]))
	}
	return nil
}
