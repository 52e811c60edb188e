package asset

import (
	"fmt"

	"humanforge/internal/correspond"
	"humanforge/internal/errs"
	"humanforge/internal/mathutil"
	"humanforge/internal/mesh"
	"humanforge/internal/morph"
	"humanforge/internal/objfile"
)

// Asset is a definition together with its loaded mesh.
type Asset struct {
	Def  *Definition
	Kind Kind
	Slot string // parent directory name, e.g. "eyebrows"

	// Rest holds the asset-local vertices in .mhclo order (the OBJ `v` list).
	Rest   []mathutil.Vec3
	Render *mesh.Mesh
	Corr   *correspond.Map
}

// Load parses a .mhclo file, loads its OBJ and builds the asset's own
// correspondence. tolerance 0 selects exact matching.
func Load(path string, kind Kind, tolerance float64) (*Asset, error) {
	def, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	if def.ObjFile == "" {
		return nil, fmt.Errorf("asset: %s: no obj_file", path)
	}
	model, err := objfile.Load(def.ObjFile)
	if err != nil {
		return nil, fmt.Errorf("asset: %s: %w", def.Name, err)
	}
	return New(def, kind, model, tolerance)
}

// New binds a definition to an already-parsed model.
func New(def *Definition, kind Kind, model *objfile.Model, tolerance float64) (*Asset, error) {
	if len(def.Mappings) != len(model.Canonical) {
		return nil, fmt.Errorf("asset: %s: %d vertex mappings for %d obj vertices",
			def.Name, len(def.Mappings), len(model.Canonical))
	}
	corr, err := correspond.Match(model.Canonical, model.Render.Positions, tolerance)
	if err != nil {
		return nil, fmt.Errorf("asset: %s: %w", def.Name, err)
	}
	return &Asset{
		Def:    def,
		Kind:   kind,
		Rest:   model.Canonical,
		Render: model.Render,
		Corr:   corr,
	}, nil
}

// Fit returns the asset-local vertex positions for the given morphed helpers.
//
// A direct vertex keeps its rest position plus the blended displacement of
// its canonical vertex. A triangle vertex is Σ w·helper[v] + scale⊙offset
// evaluated on the morphed helpers, which is affine in the helpers and so
// equals the per-morph additive blend of the fitted rest shape.
func Fit(a *Asset, helpers []mathutil.Vec3, weights map[string]float64, lib *morph.Library) ([]mathutil.Vec3, error) {
	active, err := lib.Resolve(weights)
	if err != nil {
		return nil, fmt.Errorf("asset: fit %s: %w", a.Def.Name, err)
	}
	if max := a.Def.MaxHelper(); max >= len(helpers) {
		return nil, &errs.DataConsistencyError{Subject: a.Def.Name, Vertex: max, Msg: fmt.Sprintf("helper id beyond %d helpers", len(helpers))}
	}

	scale := a.Def.AxisScale(helpers)
	out := make([]mathutil.Vec3, len(a.Def.Mappings))
	for i, m := range a.Def.Mappings {
		if m.Direct {
			out[i] = a.Rest[i].Add(morph.Displacement(active, m.Verts[0]))
			continue
		}
		var p mathutil.Vec3
		for k := 0; k < 3; k++ {
			p = p.MulAdd(helpers[m.Verts[k]], m.Weights[k])
		}
		out[i] = p.Add(m.Offset.Mul(scale))
	}
	return out, nil
}

// FitRender fits the asset and writes the result through its correspondence
// onto a copy of the render mesh, recomputing normals and tangents.
func FitRender(a *Asset, helpers []mathutil.Vec3, weights map[string]float64, lib *morph.Library) (*mesh.Mesh, error) {
	local, err := Fit(a, helpers, weights, lib)
	if err != nil {
		return nil, err
	}
	out := a.Render.Clone()
	for r := range out.Positions {
		out.Positions[r] = local[a.Corr.Canonical(r)]
	}
	out.RecomputeAttributes()
	return out, nil
}
