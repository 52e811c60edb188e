// Package mesh holds indexed triangle meshes with per-vertex render attributes.
package mesh

import (
	"fmt"

	"humanforge/internal/mathutil"
)

// Mesh is an indexed triangle list. All attribute slices are parallel to Positions;
// UVs and Tangents may be empty.
type Mesh struct {
	Positions []mathutil.Vec3
	Normals   []mathutil.Vec3
	UVs       [][2]float32
	Tangents  [][4]float32 // xyz + handedness w
	Indices   []uint32     // 3 per triangle
}

func (m *Mesh) VertexCount() int { return len(m.Positions) }

func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Triangle returns the vertex indices of triangle i.
func (m *Mesh) Triangle(i int) [3]int {
	return [3]int{int(m.Indices[3*i]), int(m.Indices[3*i+1]), int(m.Indices[3*i+2])}
}

func (m *Mesh) HasUVs() bool { return len(m.UVs) == len(m.Positions) && len(m.UVs) > 0 }

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Positions: append([]mathutil.Vec3(nil), m.Positions...),
		Normals:   append([]mathutil.Vec3(nil), m.Normals...),
		UVs:       append([][2]float32(nil), m.UVs...),
		Tangents:  append([][4]float32(nil), m.Tangents...),
		Indices:   append([]uint32(nil), m.Indices...),
	}
}

// Validate checks attribute lengths and index bounds.
func (m *Mesh) Validate() error {
	n := len(m.Positions)
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh: index count %d is not a multiple of 3", len(m.Indices))
	}
	if len(m.Normals) != 0 && len(m.Normals) != n {
		return fmt.Errorf("mesh: %d normals for %d vertices", len(m.Normals), n)
	}
	if len(m.UVs) != 0 && len(m.UVs) != n {
		return fmt.Errorf("mesh: %d uvs for %d vertices", len(m.UVs), n)
	}
	if len(m.Tangents) != 0 && len(m.Tangents) != n {
		return fmt.Errorf("mesh: %d tangents for %d vertices", len(m.Tangents), n)
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("mesh: index %d at %d out of range (%d vertices)", idx, i, n)
		}
	}
	return nil
}

// RecomputeAttributes refreshes normals, and tangents when UVs are present.
func (m *Mesh) RecomputeAttributes() {
	m.RecomputeNormals()
	if m.HasUVs() {
		m.RecomputeTangents()
	} else {
		m.Tangents = nil
	}
}
