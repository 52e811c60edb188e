// Package asset parses body-part and equipment correspondence files and
// fits their meshes to a morphed body.
package asset

import (
	"sort"

	"humanforge/internal/mathutil"
)

// Kind separates body parts (eyes, hair, ...) from worn equipment.
type Kind int

const (
	BodyPart Kind = iota
	Equipment
)

func (k Kind) String() string {
	if k == Equipment {
		return "equipment"
	}
	return "body part"
}

// HelperMapping binds one asset-local vertex to the canonical body.
// A direct mapping follows Verts[0] only; otherwise the vertex is the
// weighted triangle Verts plus a scaled Offset. Weights sum to 1.
type HelperMapping struct {
	Direct  bool
	Verts   [3]int
	Weights [3]float64
	Offset  mathutil.Vec3
}

// ScaleRef calibrates one axis: the current helper distance between Min and
// Max divided by Scale gives the factor applied to offsets on that axis.
type ScaleRef struct {
	Min, Max int
	Scale    float64
	Set      bool
}

// Definition is a parsed .mhclo file.
type Definition struct {
	Name     string
	Path     string
	ObjFile  string // resolved next to the .mhclo file
	Material string // .mhmat path, resolved like ObjFile
	Tags     []string
	ZDepth   int
	Mappings []HelperMapping
	Delete   map[int]struct{}
	Scale    [3]ScaleRef
}

// DeleteList returns the delete set in ascending order.
func (d *Definition) DeleteList() []int {
	out := make([]int, 0, len(d.Delete))
	for id := range d.Delete {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// AxisScale returns the per-axis offset factors for the given helpers.
// Axes without calibration use 1.
func (d *Definition) AxisScale(helpers []mathutil.Vec3) mathutil.Vec3 {
	s := mathutil.Vec3{1, 1, 1}
	for axis, ref := range d.Scale {
		if !ref.Set || ref.Scale == 0 {
			continue
		}
		diff := helpers[ref.Max].Sub(helpers[ref.Min]).Abs()
		s[axis] = diff[axis] / ref.Scale
	}
	return s
}

// MaxHelper returns the largest canonical id referenced by mappings or scale refs.
func (d *Definition) MaxHelper() int {
	max := -1
	for _, m := range d.Mappings {
		n := 3
		if m.Direct {
			n = 1
		}
		for _, v := range m.Verts[:n] {
			if v > max {
				max = v
			}
		}
	}
	for _, ref := range d.Scale {
		if !ref.Set {
			continue
		}
		if ref.Min > max {
			max = ref.Min
		}
		if ref.Max > max {
			max = ref.Max
		}
	}
	return max
}
