package skeleton

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"humanforge/internal/errs"
	"humanforge/internal/mathutil"
	"humanforge/internal/rig"
)

var helpers = []mathutil.Vec3{
	{0, 0, 0},   // 0
	{0, 1, 0},   // 1
	{0, 1.2, 0}, // 2
	{0, 2, 1},   // 3 neck a
	{0, 2, 0},   // 4 neck b
	{1, 3, 0},   // 5
}

var groups = rig.VertexGroups{"joint-neck": {{3, 4}}}

func vertex(i int) rig.Placement { return rig.Placement{Strategy: rig.StrategyVertex, VertexIndex: &i} }

func mean(a, b int) rig.Placement {
	return rig.Placement{Strategy: rig.StrategyMean, VertexIndices: []int{a, b}}
}

func cube(name string) rig.Placement { return rig.Placement{Strategy: rig.StrategyCube, CubeName: name} }

func testRig() *rig.Definition {
	return &rig.Definition{Name: "default", Bones: []rig.BoneDefinition{
		{Name: "head", Parent: "spine", Head: cube("joint-neck"), Tail: vertex(5)},
		{Name: "root", Head: vertex(0), Tail: vertex(1)},
		{Name: "spine", Parent: "root", Head: mean(1, 2), Tail: cube("joint-neck")},
		{Name: "thigh", Parent: "root", Head: vertex(0), Tail: vertex(1)},
	}}
}

func names(s *Skeleton) []string {
	var out []string
	for _, b := range s.Bones {
		out = append(out, b.Name)
	}
	return out
}

func TestBuildOrderAndParents(t *testing.T) {
	s, err := Build(testRig(), helpers, groups, mgl64.Ident4())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"root", "spine", "thigh", "head"}, names(s)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	for i, b := range s.Bones {
		if b.Parent >= i {
			t.Errorf("bone %s: parent %d does not precede index %d", b.Name, b.Parent, i)
		}
	}
	if s.Bones[0].Parent != -1 || s.Bones[3].Parent != 1 {
		t.Errorf("parents = %d, %d", s.Bones[0].Parent, s.Bones[3].Parent)
	}
	if j, ok := s.Joint("head"); !ok || j != 3 {
		t.Errorf("Joint(head) = %d, %v", j, ok)
	}
}

// within compares floats by absolute difference, including near zero where a
// relative tolerance degenerates.
func within(eps float64) cmp.Option { return cmpopts.EquateApprox(0, eps) }

func TestBuildInverseBind(t *testing.T) {
	spawn := mgl64.Translate3D(2, 0, -1).Mul4(mgl64.HomogRotate3DY(0.3))
	s, err := Build(testRig(), helpers, groups, spawn)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range s.Bones {
		if diff := cmp.Diff(mgl64.Ident4(), b.InverseBind.Mul4(b.Global), within(1e-9)); diff != "" {
			t.Errorf("bone %s: inverseBind × global is not identity (-want +got):\n%s", b.Name, diff)
		}
	}
	if s.Bones[0].Local != spawn {
		t.Error("root must take the spawn transform unchanged")
	}
}

func TestBuildBoneTransform(t *testing.T) {
	s, err := Build(testRig(), helpers, groups, mgl64.Ident4())
	if err != nil {
		t.Fatal(err)
	}
	spine := s.Bones[1]
	// Head is the mean of vertices 1 and 2; tail is the neck group midpoint.
	if want := (mathutil.Vec3{0, 1.1, 0}); !spine.Head.ApproxEqual(want, 1e-12) {
		t.Errorf("spine head = %v", spine.Head)
	}
	origin := spine.Global.Col(3)
	if !cmp.Equal(origin, mgl64.Vec4{0, 1.1, 0, 1}, within(1e-12)) {
		t.Errorf("spine origin = %v", origin)
	}
	yAxis := spine.Global.Mul4x1(mgl64.Vec4{0, 1, 0, 0}).Vec3()
	want := mgl64.Vec3(spine.Tail.Sub(spine.Head)).Normalize()
	if !cmp.Equal(yAxis, want, within(1e-9)) {
		t.Errorf("spine +Y = %v, want %v", yAxis, want)
	}
}

func TestBuildSynthesizesRootForHips(t *testing.T) {
	def := &rig.Definition{Name: "mixamo", Bones: []rig.BoneDefinition{
		{Name: "mixamorig:Spine", Parent: "mixamorig:Hips", Head: vertex(1), Tail: vertex(3)},
		{Name: "mixamorig:Hips", Head: vertex(0), Tail: vertex(1)},
	}}
	spawn := mgl64.Translate3D(0, 0, 5)
	s, err := Build(def, helpers, groups, spawn)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{RootName, "mixamorig:Hips", "mixamorig:Spine"}, names(s)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	root := s.Bones[0]
	if root.InverseBind != mgl64.Ident4() || root.Local != spawn || root.Parent != -1 {
		t.Errorf("root = %+v", root)
	}
	if s.Bones[1].Parent != 0 || s.Bones[2].Parent != 1 {
		t.Errorf("parents = %d, %d", s.Bones[1].Parent, s.Bones[2].Parent)
	}
	if j, _ := s.Joint("mixamorig:Spine"); j != 2 {
		t.Errorf("Joint(spine) = %d, want 2", j)
	}
	nodes := s.Nodes()
	if len(nodes) != 3 || nodes[2].Parent != 1 || nodes[0].Name != RootName {
		t.Errorf("nodes = %+v", nodes)
	}
	if got := s.InverseBindMatrices(); len(got) != 3 || got[0] != mgl64.Ident4() {
		t.Errorf("inverse binds = %v", got)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		bones []rig.BoneDefinition
		want  error
	}{
		{"unknown strategy", []rig.BoneDefinition{
			{Name: "root", Head: vertex(0), Tail: vertex(1)},
			{Name: "arm", Parent: "root", Head: rig.Placement{Strategy: "SPLINE"}, Tail: vertex(1)},
		}, errs.ErrUnknownStrategy},
		{"two roots", []rig.BoneDefinition{
			{Name: "a", Head: vertex(0), Tail: vertex(1)},
			{Name: "b", Head: vertex(0), Tail: vertex(1)},
		}, errs.ErrRigTopology},
		{"missing parent", []rig.BoneDefinition{
			{Name: "root", Head: vertex(0), Tail: vertex(1)},
			{Name: "arm", Parent: "shoulder", Head: vertex(0), Tail: vertex(1)},
		}, errs.ErrRigTopology},
		{"cycle", []rig.BoneDefinition{
			{Name: "root", Head: vertex(0), Tail: vertex(1)},
			{Name: "a", Parent: "b", Head: vertex(0), Tail: vertex(1)},
			{Name: "b", Parent: "a", Head: vertex(0), Tail: vertex(1)},
		}, errs.ErrRigTopology},
		{"duplicate", []rig.BoneDefinition{
			{Name: "root", Head: vertex(0), Tail: vertex(1)},
			{Name: "root", Head: vertex(0), Tail: vertex(1)},
		}, errs.ErrRigTopology},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Build(&rig.Definition{Name: tt.name, Bones: tt.bones}, helpers, groups, mgl64.Ident4())
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if s != nil {
				t.Error("partial skeleton returned with error")
			}
			var ce *errs.ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("expected ConfigError, got %T", err)
			}
		})
	}
}

func TestBuildHelperOutOfRange(t *testing.T) {
	def := &rig.Definition{Name: "short", Bones: []rig.BoneDefinition{
		{Name: "spine", Head: vertex(0), Tail: vertex(99)},
	}}
	if _, err := Build(def, helpers, groups, mgl64.Ident4()); err == nil {
		t.Error("expected error for vertex beyond helpers")
	}
}
