package mesh

import (
	"testing"

	"humanforge/internal/mathutil"
)

// unitQuad is a 1×1 quad in the XY plane facing +Z with UVs equal to XY.
func unitQuad() *Mesh {
	return &Mesh{
		Positions: []mathutil.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		UVs:       [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestRecomputeNormals(t *testing.T) {
	m := unitQuad()
	m.Positions = append(m.Positions, mathutil.Vec3{5, 5, 5}) // isolated
	m.UVs = append(m.UVs, [2]float32{})
	m.RecomputeNormals()

	for i := 0; i < 4; i++ {
		if !m.Normals[i].ApproxEqual(mathutil.Vec3{0, 0, 1}, 1e-12) {
			t.Errorf("normal %d = %v, want +Z", i, m.Normals[i])
		}
	}
	if m.Normals[4] != fallbackNormal {
		t.Errorf("isolated vertex normal = %v, want fallback", m.Normals[4])
	}
}

func TestRecomputeTangents(t *testing.T) {
	m := unitQuad()
	m.RecomputeAttributes()

	if len(m.Tangents) != 4 {
		t.Fatalf("got %d tangents, want 4", len(m.Tangents))
	}
	for i, tg := range m.Tangents {
		if tg != [4]float32{1, 0, 0, 1} {
			t.Errorf("tangent %d = %v, want +X right-handed", i, tg)
		}
	}

	// Mirrored V flips handedness.
	for i := range m.UVs {
		m.UVs[i][1] = 1 - m.UVs[i][1]
	}
	m.RecomputeTangents()
	for i, tg := range m.Tangents {
		if tg[3] != -1 {
			t.Errorf("tangent %d w = %v, want -1", i, tg[3])
		}
	}
}

func TestRecomputeAttributesWithoutUVs(t *testing.T) {
	m := unitQuad()
	m.UVs = nil
	m.Tangents = [][4]float32{{1, 0, 0, 1}}
	m.RecomputeAttributes()
	if m.Tangents != nil {
		t.Errorf("tangents should be cleared without UVs, got %v", m.Tangents)
	}
	if len(m.Normals) != 4 {
		t.Errorf("got %d normals, want 4", len(m.Normals))
	}
}

func TestValidate(t *testing.T) {
	m := unitQuad()
	if err := m.Validate(); err != nil {
		t.Fatalf("valid mesh rejected: %v", err)
	}

	bad := m.Clone()
	bad.Indices = append(bad.Indices, 1)
	if bad.Validate() == nil {
		t.Error("expected error for partial triangle")
	}

	bad = m.Clone()
	bad.Indices[5] = 9
	if bad.Validate() == nil {
		t.Error("expected error for out-of-range index")
	}

	bad = m.Clone()
	bad.UVs = bad.UVs[:2]
	if bad.Validate() == nil {
		t.Error("expected error for short uv slice")
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := unitQuad()
	c := m.Clone()
	c.Positions[0] = mathutil.Vec3{9, 9, 9}
	c.Indices[0] = 3
	if m.Positions[0] != (mathutil.Vec3{}) || m.Indices[0] != 0 {
		t.Error("Clone shares storage with the original")
	}
}
