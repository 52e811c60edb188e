// Package surgery removes occluded or helper geometry from render meshes.
package surgery

import (
	"fmt"

	"humanforge/internal/correspond"
	"humanforge/internal/mathutil"
	"humanforge/internal/mesh"
)

// Result is a compacted mesh plus, for each surviving vertex, its index in
// the source mesh.
type Result struct {
	Mesh *mesh.Mesh
	Kept []int
}

// Correspondence derives the compacted mesh's map from the source map.
// It equals rebuilding by position against the same canonical set.
func (r *Result) Correspondence(src *correspond.Map) (*correspond.Map, error) {
	inv := make([]int, len(r.Kept))
	for i, old := range r.Kept {
		inv[i] = src.Canonical(old)
	}
	return correspond.FromInverse(inv, src.CanonicalCount())
}

// Prune removes every triangle whose three vertices all map to canonical ids
// in deleteSet, drops vertices no remaining triangle references, renumbers
// the rest in order and recomputes normals and tangents.
func Prune(m *mesh.Mesh, corr *correspond.Map, deleteSet map[int]struct{}) (*Result, error) {
	return filter(m, corr, func(c int) bool {
		_, del := deleteSet[c]
		return del
	}, true)
}

// StripHelpers keeps only triangles whose three vertices map below
// bodyVertexCount, removing the helper cage that ships with the base mesh.
func StripHelpers(m *mesh.Mesh, corr *correspond.Map, bodyVertexCount int) (*Result, error) {
	return filter(m, corr, func(c int) bool {
		return c >= bodyVertexCount
	}, false)
}

// filter drops a triangle when drop holds for all (all=true) or any
// (all=false) of its canonical vertices.
func filter(m *mesh.Mesh, corr *correspond.Map, drop func(canonical int) bool, all bool) (*Result, error) {
	if corr.RenderCount() != m.VertexCount() {
		return nil, fmt.Errorf("surgery: correspondence covers %d render vertices, mesh has %d",
			corr.RenderCount(), m.VertexCount())
	}

	var tris []uint32
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		hits := 0
		for _, v := range tri {
			if drop(corr.Canonical(v)) {
				hits++
			}
		}
		if (all && hits == 3) || (!all && hits > 0) {
			continue
		}
		tris = append(tris, uint32(tri[0]), uint32(tri[1]), uint32(tri[2]))
	}

	used := make([]bool, m.VertexCount())
	for _, idx := range tris {
		used[idx] = true
	}
	remap := make([]uint32, m.VertexCount())
	var kept []int
	for v, ok := range used {
		if ok {
			remap[v] = uint32(len(kept))
			kept = append(kept, v)
		}
	}

	out := &mesh.Mesh{
		Positions: make([]mathutil.Vec3, len(kept)),
		Indices:   make([]uint32, len(tris)),
	}
	hasUV := m.HasUVs()
	if hasUV {
		out.UVs = make([][2]float32, len(kept))
	}
	for i, old := range kept {
		out.Positions[i] = m.Positions[old]
		if hasUV {
			out.UVs[i] = m.UVs[old]
		}
	}
	for i, idx := range tris {
		out.Indices[i] = remap[idx]
	}
	out.RecomputeAttributes()
	return &Result{Mesh: out, Kept: kept}, nil
}

// UnionDeleteSets merges several delete sets.
func UnionDeleteSets(sets ...map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{})
	for _, s := range sets {
		for id := range s {
			out[id] = struct{}{}
		}
	}
	return out
}
