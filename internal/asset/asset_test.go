package asset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"humanforge/internal/errs"
	"humanforge/internal/mathutil"
	"humanforge/internal/morph"
	"humanforge/internal/objfile"
)

const browMhclo = `# eyebrow test asset
name brow01
uuid 1234-abcd
tag Eyebrow
tag MakeHuman eyebrows
obj_file brow01.obj
z_depth 3
x_scale 0 1 2.0
material brow01.mhmat

verts 0
0 1 2 1 1 2 0.5 0 0
2
0 1 2 0.5 0.3 0.2 0 0 0

delete_verts
5
10 - 12
`

const browObj = `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
f 1/1 2/2 3/3
`

func TestParseHeaderAndSections(t *testing.T) {
	def, err := Parse(strings.NewReader(browMhclo), "brow01.mhclo")
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "brow01" || def.ObjFile != "brow01.obj" || def.ZDepth != 3 || def.Material != "brow01.mhmat" {
		t.Errorf("header = %q %q %d %q", def.Name, def.ObjFile, def.ZDepth, def.Material)
	}
	if diff := cmp.Diff([]string{"Eyebrow", "MakeHuman eyebrows"}, def.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if want := (ScaleRef{Min: 0, Max: 1, Scale: 2, Set: true}); def.Scale[0] != want {
		t.Errorf("x scale = %+v", def.Scale[0])
	}
	if def.Scale[1].Set || def.Scale[2].Set {
		t.Error("y/z scale should be unset")
	}

	want := []HelperMapping{
		{Verts: [3]int{0, 1, 2}, Weights: [3]float64{0.25, 0.25, 0.5}, Offset: mathutil.Vec3{0.5, 0, 0}},
		{Direct: true, Verts: [3]int{2, 2, 2}, Weights: [3]float64{1, 0, 0}},
		{Verts: [3]int{0, 1, 2}, Weights: [3]float64{0.5, 0.3, 0.2}},
	}
	if diff := cmp.Diff(want, def.Mappings, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("mappings mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{5, 10, 11, 12}, def.DeleteList()); diff != "" {
		t.Errorf("delete set mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDeleteVerts(t *testing.T) {
	tests := []struct {
		src  string
		want []int
	}{
		{"5\n10 - 12\n", []int{5, 10, 11, 12}},
		{"1 3 - 4 9\n", []int{1, 3, 4, 9}},
		{"7 - 7\n7\n", []int{7}},
		{"", []int{}},
	}
	for _, tt := range tests {
		def, err := Parse(strings.NewReader("verts 0\ndelete_verts\n"+tt.src), "d.mhclo")
		if err != nil {
			t.Fatalf("%q: %v", tt.src, err)
		}
		if diff := cmp.Diff(tt.want, def.DeleteList()); diff != "" {
			t.Errorf("%q mismatch (-want +got):\n%s", tt.src, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"five fields", "verts 0\n1\n1 2 3 4 5\n", 3},
		{"bad id", "verts 0\nx\n", 2},
		{"reversed range", "delete_verts\n9 - 3\n", 2},
		{"bad z_depth", "z_depth deep\n", 1},
		{"short scale", "y_scale 1 2\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src), "bad.mhclo")
			var pe *errs.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Line != tt.line {
				t.Errorf("line = %d, want %d", pe.Line, tt.line)
			}
		})
	}
}

func newBrow(t *testing.T) *Asset {
	t.Helper()
	def, err := Parse(strings.NewReader(browMhclo), "brow01.mhclo")
	if err != nil {
		t.Fatal(err)
	}
	model, err := objfile.Parse(strings.NewReader(browObj), "brow01.obj")
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(def, BodyPart, model, 0)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

var helpers = []mathutil.Vec3{{0, 0, 0}, {4, 0, 0}, {0, 2, 0}}

func TestFitTriangle(t *testing.T) {
	a := newBrow(t)
	got, err := Fit(a, helpers, nil, morph.NewLibrary())
	if err != nil {
		t.Fatal(err)
	}
	// Vertex 2: 0.5·H0 + 0.3·H1 + 0.2·H2 with zero offset.
	if want := (mathutil.Vec3{1.2, 0.4, 0}); !got[2].ApproxEqual(want, 1e-12) {
		t.Errorf("triangle fit = %v, want %v", got[2], want)
	}
	// Vertex 0: x offset 0.5 scaled by |H1-H0|.x / 2 = 2.
	if want := (mathutil.Vec3{0.25*4 + 0.5*2, 0.5 * 2, 0}); !got[0].ApproxEqual(want, 1e-12) {
		t.Errorf("scaled offset fit = %v, want %v", got[0], want)
	}
}

func TestAxisScaleIsUnsigned(t *testing.T) {
	h := []mathutil.Vec3{{0, 0, 0}, {-2, 3, 0}, {0, 0, 4}}
	def := &Definition{}
	def.Scale[0] = ScaleRef{Min: 0, Max: 1, Scale: 1, Set: true} // max lies below min on x
	def.Scale[1] = ScaleRef{Min: 1, Max: 0, Scale: 1.5, Set: true}
	def.Scale[2] = ScaleRef{Min: 0, Max: 2, Scale: 0, Set: true}
	got := def.AxisScale(h)
	if want := (mathutil.Vec3{2, 2, 1}); !got.ApproxEqual(want, 1e-12) {
		t.Errorf("AxisScale = %v, want %v", got, want)
	}
}

func TestFitZeroWeightTriangle(t *testing.T) {
	def, err := Parse(strings.NewReader("verts 0\n0 1 2 0 0 0 0.1 0.2 0.3\n1\n2\n"), "pin.mhclo")
	if err != nil {
		t.Fatal(err)
	}
	if def.Mappings[0].Weights != ([3]float64{}) {
		t.Errorf("weights = %v, want all zero", def.Mappings[0].Weights)
	}
	model, err := objfile.Parse(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), "pin.obj")
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(def, BodyPart, model, 0)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Fit(a, helpers, nil, morph.NewLibrary())
	if err != nil {
		t.Fatal(err)
	}
	if want := (mathutil.Vec3{0.1, 0.2, 0.3}); !got[0].ApproxEqual(want, 1e-12) {
		t.Errorf("zero-weight fit = %v, want %v", got[0], want)
	}
}

func TestFitDirectFollowsMorph(t *testing.T) {
	a := newBrow(t)
	lib := morph.NewLibrary()
	if err := lib.Add(&morph.Target{Name: "lift", Offsets: map[int]mathutil.Vec3{2: {0, 0.1, 0}}}); err != nil {
		t.Fatal(err)
	}
	got, err := Fit(a, helpers, map[string]float64{"lift": 0.5}, lib)
	if err != nil {
		t.Fatal(err)
	}
	// Rest position of asset vertex 1 is (1,0,0).
	if want := (mathutil.Vec3{1, 0.05, 0}); !got[1].ApproxEqual(want, 1e-12) {
		t.Errorf("direct fit = %v, want %v", got[1], want)
	}
}

func TestFitMissingMorph(t *testing.T) {
	_, err := Fit(newBrow(t), helpers, map[string]float64{"ghost": 1}, morph.NewLibrary())
	if !errors.Is(err, errs.ErrMissingMorph) {
		t.Fatalf("expected ErrMissingMorph, got %v", err)
	}
}

func TestFitHelperOutOfRange(t *testing.T) {
	_, err := Fit(newBrow(t), helpers[:2], nil, morph.NewLibrary())
	var de *errs.DataConsistencyError
	if !errors.As(err, &de) || de.Vertex != 2 {
		t.Fatalf("expected DataConsistencyError for vertex 2, got %v", err)
	}
}

func TestFitRender(t *testing.T) {
	a := newBrow(t)
	local, err := Fit(a, helpers, nil, morph.NewLibrary())
	if err != nil {
		t.Fatal(err)
	}
	out, err := FitRender(a, helpers, nil, morph.NewLibrary())
	if err != nil {
		t.Fatal(err)
	}
	for r, p := range out.Positions {
		if p != local[a.Corr.Canonical(r)] {
			t.Errorf("render %d = %v", r, p)
		}
	}
	if a.Render.Positions[0] != (mathutil.Vec3{}) {
		t.Error("asset render mesh mutated")
	}
}

func TestNewRejectsCountMismatch(t *testing.T) {
	def := &Definition{Name: "short", Mappings: []HelperMapping{{Direct: true}}}
	model, err := objfile.Parse(strings.NewReader(browObj), "brow01.obj")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(def, BodyPart, model, 0); err == nil {
		t.Error("expected mapping count error")
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadRegistry(t *testing.T) {
	root := t.TempDir()
	parts := filepath.Join(root, "body_parts")
	equip := filepath.Join(root, "equipment")
	writeFile(t, filepath.Join(parts, "eyebrows", "brow01.mhclo"), browMhclo)
	writeFile(t, filepath.Join(parts, "eyebrows", "brow01.obj"), browObj)
	shirt := strings.Replace(strings.Replace(browMhclo, "name brow01\n", "", 1), "brow01.obj", "shirt.obj", 1)
	writeFile(t, filepath.Join(equip, "torso", "shirt.mhclo"), shirt)
	writeFile(t, filepath.Join(equip, "torso", "shirt.obj"), browObj)

	reg, err := LoadRegistry([]string{parts}, []string{equip}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 2 {
		t.Errorf("Len = %d, want 2", reg.Len())
	}

	brow, err := reg.BodyPart("brow01")
	if err != nil {
		t.Fatal(err)
	}
	if brow.Slot != "eyebrows" || brow.Kind != BodyPart {
		t.Errorf("brow slot/kind = %q/%v", brow.Slot, brow.Kind)
	}
	if brow.Def.ObjFile != filepath.Join(parts, "eyebrows", "brow01.obj") {
		t.Errorf("obj path = %s", brow.Def.ObjFile)
	}

	// No name line: falls back to the file stem.
	if _, err := reg.Equipment("shirt"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"shirt"}, reg.Names(Equipment)); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	if _, err := reg.Equipment("brow01"); !errors.Is(err, errs.ErrMissingAsset) {
		t.Errorf("body part looked up as equipment: %v", err)
	}
}
