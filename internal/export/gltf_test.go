package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"humanforge/internal/mathutil"
	"humanforge/internal/mesh"
	"humanforge/internal/rig"
	"humanforge/internal/skeleton"
	"humanforge/internal/skin"
)

func vertex(i int) rig.Placement { return rig.Placement{Strategy: rig.StrategyVertex, VertexIndex: &i} }

func testModel(t *testing.T) Model {
	t.Helper()
	def := &rig.Definition{Name: "test", Bones: []rig.BoneDefinition{
		{Name: "root"},
		{Name: "spine", Parent: "root", Head: vertex(0), Tail: vertex(1)},
		{Name: "head", Parent: "spine", Head: vertex(1), Tail: vertex(2)},
	}}
	helpers := []mathutil.Vec3{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}}
	skel, err := skeleton.Build(def, helpers, nil, mgl64.Translate3D(1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}

	m := &mesh.Mesh{
		Positions: []mathutil.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		UVs:       [][2]float32{{0, 0}, {1, 0}, {0, 0.25}},
		Indices:   []uint32{0, 1, 2},
	}
	m.RecomputeAttributes()
	sk := &skin.Buffers{
		Joints:  [][4]uint16{{1, 0, 0, 0}, {1, 2, 0, 0}, {2, 0, 0, 0}},
		Weights: [][4]float32{{1, 0, 0, 0}, {0.5, 0.5, 0, 0}, {1, 0, 0, 0}},
	}
	return Model{Name: "avatar", Skeleton: skel, Parts: []Part{{Name: "body", Mesh: m, Skin: sk}}}
}

func TestDocumentLayout(t *testing.T) {
	m := testModel(t)
	doc, err := Document(m)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 3 joints + 1 mesh", len(doc.Nodes))
	}
	if diff := cmp.Diff([]int{1}, doc.Nodes[0].Children); diff != "" {
		t.Errorf("root children (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, doc.Skins[0].Joints); diff != "" {
		t.Errorf("skin joints (-want +got):\n%s", diff)
	}
	if doc.Nodes[0].Matrix != [16]float64(m.Skeleton.Bones[0].Local) {
		t.Error("root node matrix must equal the bone's local transform")
	}
	if diff := cmp.Diff([]int{0, 3}, doc.Scenes[0].Nodes); diff != "" {
		t.Errorf("scene nodes (-want +got):\n%s", diff)
	}

	prim := doc.Meshes[0].Primitives[0]
	for _, attr := range []string{gltf.POSITION, gltf.NORMAL, gltf.TEXCOORD_0, gltf.TANGENT, gltf.JOINTS_0, gltf.WEIGHTS_0} {
		if _, ok := prim.Attributes[attr]; !ok {
			t.Errorf("missing attribute %s", attr)
		}
	}

	uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[prim.Attributes[gltf.TEXCOORD_0]], nil)
	if err != nil {
		t.Fatal(err)
	}
	if uvs[2] != [2]float32{0, 0.75} {
		t.Errorf("uv[2] = %v, want V flipped", uvs[2])
	}

	ibm := doc.Accessors[*doc.Skins[0].InverseBindMatrices]
	if ibm.Count != 3 || ibm.Type != gltf.AccessorMat4 {
		t.Errorf("inverse bind accessor = %d × %v", ibm.Count, ibm.Type)
	}
}

func TestInverseBindsColumnMajor(t *testing.T) {
	out := inverseBinds([]mgl64.Mat4{mgl64.Translate3D(4, 5, 6)})
	if out[0][3] != [4]float32{4, 5, 6, 1} {
		t.Errorf("translation column = %v", out[0][3])
	}
}

func TestDocumentRejectsBadParts(t *testing.T) {
	m := testModel(t)
	m.Parts[0].Skin.Joints[0][0] = 9
	if _, err := Document(m); err == nil {
		t.Error("expected error for out-of-range joint")
	}

	m = testModel(t)
	m.Parts[0].Skin.Joints = m.Parts[0].Skin.Joints[:2]
	m.Parts[0].Skin.Weights = m.Parts[0].Skin.Weights[:2]
	if _, err := Document(m); err == nil {
		t.Error("expected error for short skin")
	}

	if _, err := Document(Model{Name: "empty"}); err == nil {
		t.Error("expected error for missing skeleton")
	}
}

func TestWriteGLB(t *testing.T) {
	m := testModel(t)
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatal(err)
	}
	if b := buf.Bytes(); len(b) < 4 || string(b[:4]) != "glTF" {
		t.Fatal("missing GLB magic")
	}

	path := filepath.Join(t.TempDir(), "avatar.glb")
	if err := WriteGLB(path, m); err != nil {
		t.Fatal(err)
	}
	doc, err := gltf.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 4 || len(doc.Skins) != 1 || doc.Nodes[3].Name != "body" {
		t.Errorf("reopened document: %d nodes, %d skins", len(doc.Nodes), len(doc.Skins))
	}
}
