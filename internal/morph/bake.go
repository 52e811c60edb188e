package morph

import (
	"fmt"

	"humanforge/internal/correspond"
	"humanforge/internal/errs"
	"humanforge/internal/mathutil"
	"humanforge/internal/mesh"
)

// BakeHelpers returns base + Σ weight·offset over the nonzero weights.
// base is not modified. An active target offsetting a vertex outside base
// is a DataConsistencyError.
func BakeHelpers(weights map[string]float64, lib *Library, base []mathutil.Vec3) ([]mathutil.Vec3, error) {
	active, err := lib.Resolve(weights)
	if err != nil {
		return nil, fmt.Errorf("morph: bake helpers: %w", err)
	}
	if err := checkRange(active, len(base)); err != nil {
		return nil, fmt.Errorf("morph: bake helpers: %w", err)
	}
	return Apply(active, base), nil
}

// checkRange reports the lowest out-of-range offset id of the first
// offending target.
func checkRange(active []Weighted, n int) error {
	for _, a := range active {
		bad := -1
		for id := range a.Target.Offsets {
			if (id < 0 || id >= n) && (bad == -1 || id < bad) {
				bad = id
			}
		}
		if bad != -1 {
			return &errs.DataConsistencyError{
				Subject: a.Target.Name,
				Vertex:  bad,
				Msg:     fmt.Sprintf("offset outside %d helper vertices", n),
			}
		}
	}
	return nil
}

// Apply blends already-resolved targets onto a copy of base. Offsets
// outside base are skipped; BakeHelpers rejects them first.
func Apply(active []Weighted, base []mathutil.Vec3) []mathutil.Vec3 {
	out := append([]mathutil.Vec3(nil), base...)
	for _, a := range active {
		for id, d := range a.Target.Offsets {
			if id >= 0 && id < len(out) {
				out[id] = out[id].MulAdd(d, a.Weight)
			}
		}
	}
	return out
}

// Displacement returns Σ weight·offset[id] for one canonical vertex.
func Displacement(active []Weighted, id int) mathutil.Vec3 {
	var d mathutil.Vec3
	for _, a := range active {
		if off, ok := a.Target.Offsets[id]; ok {
			d = d.MulAdd(off, a.Weight)
		}
	}
	return d
}

// BakeBodyRender writes helpers[c] into every render vertex of c's forward
// list on a copy of renderBase, then recomputes normals and tangents.
func BakeBodyRender(helpers []mathutil.Vec3, corr *correspond.Map, renderBase *mesh.Mesh) (*mesh.Mesh, error) {
	if corr.RenderCount() != renderBase.VertexCount() {
		return nil, fmt.Errorf("morph: correspondence covers %d render vertices, mesh has %d",
			corr.RenderCount(), renderBase.VertexCount())
	}
	if corr.CanonicalCount() > len(helpers) {
		return nil, fmt.Errorf("morph: correspondence covers %d canonical vertices, got %d helpers",
			corr.CanonicalCount(), len(helpers))
	}

	out := renderBase.Clone()
	for c, rs := range corr.Forward {
		for _, r := range rs {
			out.Positions[r] = helpers[c]
		}
	}
	out.RecomputeAttributes()
	return out, nil
}
