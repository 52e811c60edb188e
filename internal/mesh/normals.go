package mesh

import (
	"math"

	"humanforge/internal/mathutil"
)

var fallbackNormal = mathutil.Vec3{0, 1, 0}

// RecomputeNormals sets smooth per-vertex normals, area-weighted by the
// unnormalized face cross product. Vertices touching no face get +Y.
func (m *Mesh) RecomputeNormals() {
	normals := make([]mathutil.Vec3, len(m.Positions))
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		p0, p1, p2 := m.Positions[tri[0]], m.Positions[tri[1]], m.Positions[tri[2]]
		fn := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, v := range tri {
			normals[v] = normals[v].Add(fn)
		}
	}
	for i, n := range normals {
		if n.Len() < 1e-12 {
			normals[i] = fallbackNormal
			continue
		}
		normals[i] = n.Normalize()
	}
	m.Normals = normals
}

// RecomputeTangents derives per-vertex tangents from UV gradients, then
// Gram-Schmidt orthogonalizes them against the normals. W carries the
// bitangent handedness. Normals must be current.
func (m *Mesh) RecomputeTangents() {
	n := len(m.Positions)
	tan := make([]mathutil.Vec3, n)
	bitan := make([]mathutil.Vec3, n)

	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		p0, p1, p2 := m.Positions[tri[0]], m.Positions[tri[1]], m.Positions[tri[2]]
		uv0, uv1, uv2 := m.UVs[tri[0]], m.UVs[tri[1]], m.UVs[tri[2]]

		e1, e2 := p1.Sub(p0), p2.Sub(p0)
		du1, dv1 := float64(uv1[0]-uv0[0]), float64(uv1[1]-uv0[1])
		du2, dv2 := float64(uv2[0]-uv0[0]), float64(uv2[1]-uv0[1])

		det := du1*dv2 - du2*dv1
		if math.Abs(det) < 1e-20 {
			continue
		}
		r := 1 / det
		sdir := e1.Scale(dv2 * r).Sub(e2.Scale(dv1 * r))
		tdir := e2.Scale(du1 * r).Sub(e1.Scale(du2 * r))
		for _, v := range tri {
			tan[v] = tan[v].Add(sdir)
			bitan[v] = bitan[v].Add(tdir)
		}
	}

	out := make([][4]float32, n)
	for i := 0; i < n; i++ {
		nrm := fallbackNormal
		if i < len(m.Normals) {
			nrm = m.Normals[i]
		}
		t := tan[i].Sub(nrm.Scale(nrm.Dot(tan[i]))).Normalize()
		if t.Len() == 0 {
			t = anyPerpendicular(nrm)
		}
		w := float32(1)
		if nrm.Cross(t).Dot(bitan[i]) < 0 {
			w = -1
		}
		out[i] = [4]float32{float32(t[0]), float32(t[1]), float32(t[2]), w}
	}
	m.Tangents = out
}

func anyPerpendicular(n mathutil.Vec3) mathutil.Vec3 {
	axis := mathutil.Vec3{1, 0, 0}
	if math.Abs(n[0]) > 0.9 {
		axis = mathutil.Vec3{0, 0, 1}
	}
	return axis.Sub(n.Scale(n.Dot(axis))).Normalize()
}
