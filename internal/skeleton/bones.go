// Package skeleton builds bone hierarchies and bind poses from helper positions.
package skeleton

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"humanforge/internal/errs"
	"humanforge/internal/mathutil"
	"humanforge/internal/rig"
)

// RootName is the bone synthesized above a hips-rooted rig.
const RootName = "Root"

// Bone is one joint. Parent indexes Skeleton.Bones, -1 for the root.
type Bone struct {
	Name        string
	Parent      int
	Depth       int
	Head, Tail  mathutil.Vec3
	Local       mgl64.Mat4
	Global      mgl64.Mat4
	InverseBind mgl64.Mat4
}

// Skeleton is a root-first bone arena: every parent precedes its children.
type Skeleton struct {
	Bones []Bone
	index map[string]int
}

// Joint returns the index of the named bone.
func (s *Skeleton) Joint(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

func (s *Skeleton) Len() int { return len(s.Bones) }

// Node is what a host scene graph needs to instantiate one joint.
type Node struct {
	Name   string
	Parent int
	Local  mgl64.Mat4
}

// Nodes lists the joints in skeleton order.
func (s *Skeleton) Nodes() []Node {
	out := make([]Node, len(s.Bones))
	for i, b := range s.Bones {
		out[i] = Node{Name: b.Name, Parent: b.Parent, Local: b.Local}
	}
	return out
}

// InverseBindMatrices returns the inverse bind poses in joint order.
func (s *Skeleton) InverseBindMatrices() []mgl64.Mat4 {
	out := make([]mgl64.Mat4, len(s.Bones))
	for i, b := range s.Bones {
		out[i] = b.InverseBind
	}
	return out
}

// Build computes the skeleton for def on the given helpers.
//
// Bones are ordered by depth, stable on definition order. Each non-root
// bone's transform is spawn × translate(head) × arc(+Y → tail-head). A bone
// named "root" takes spawn unchanged. Transforms are chained as
// parentGlobal × transform, and the inverse bind is the inverse of that
// product. A rig rooted at "...Hips" gets a synthesized Root joint at index 0
// carrying spawn with an identity inverse bind.
func Build(def *rig.Definition, helpers []mathutil.Vec3, groups rig.VertexGroups, spawn mgl64.Mat4) (*Skeleton, error) {
	order, depth, err := sortByDepth(def)
	if err != nil {
		return nil, err
	}

	s := &Skeleton{index: make(map[string]int, len(order)+1)}
	for _, bi := range order {
		bd := def.Bones[bi]
		b := Bone{Name: bd.Name, Parent: -1, Depth: depth[bi]}
		if bd.Parent != "" {
			b.Parent = s.index[bd.Parent]
		}

		if strings.EqualFold(bd.Name, "root") {
			b.Local = spawn
		} else {
			head, err := jointPosition(bd.Name, bd.Head, helpers, groups)
			if err != nil {
				return nil, err
			}
			tail, err := jointPosition(bd.Name, bd.Tail, helpers, groups)
			if err != nil {
				return nil, err
			}
			b.Head, b.Tail = head, tail
			b.Local = spawn.Mul4(boneTransform(head, tail))
		}

		if b.Parent >= 0 {
			b.Global = s.Bones[b.Parent].Global.Mul4(b.Local)
		} else {
			b.Global = b.Local
		}
		b.InverseBind = b.Global.Inv()

		s.index[b.Name] = len(s.Bones)
		s.Bones = append(s.Bones, b)
	}

	if len(s.Bones) > 0 && strings.HasSuffix(s.Bones[0].Name, "Hips") {
		s.insertRoot(spawn)
	}
	return s, nil
}

func (s *Skeleton) insertRoot(spawn mgl64.Mat4) {
	root := Bone{
		Name:        RootName,
		Parent:      -1,
		Local:       spawn,
		Global:      spawn,
		InverseBind: mgl64.Ident4(),
	}
	bones := make([]Bone, 0, len(s.Bones)+1)
	bones = append(bones, root)
	for _, b := range s.Bones {
		b.Parent++ // -1 (old root) becomes 0
		b.Depth++
		bones = append(bones, b)
	}
	s.Bones = bones
	for i, b := range s.Bones {
		s.index[b.Name] = i
	}
}

// sortByDepth validates the hierarchy and returns definition indices ordered
// by depth, plus each bone's depth.
func sortByDepth(def *rig.Definition) ([]int, []int, error) {
	byName := make(map[string]int, len(def.Bones))
	for i, b := range def.Bones {
		if _, dup := byName[b.Name]; dup {
			return nil, nil, &errs.ConfigError{Subject: "bone", Name: b.Name, Err: fmt.Errorf("%w: duplicate name", errs.ErrRigTopology)}
		}
		byName[b.Name] = i
	}

	roots := 0
	depth := make([]int, len(def.Bones))
	for i, b := range def.Bones {
		if b.Parent == "" {
			roots++
			continue
		}
		cur := b.Parent
		for cur != "" {
			pi, ok := byName[cur]
			if !ok {
				return nil, nil, &errs.ConfigError{Subject: "bone", Name: b.Name, Err: fmt.Errorf("%w: parent %q not defined", errs.ErrRigTopology, cur)}
			}
			depth[i]++
			if depth[i] > len(def.Bones) {
				return nil, nil, &errs.ConfigError{Subject: "bone", Name: b.Name, Err: fmt.Errorf("%w: parent cycle", errs.ErrRigTopology)}
			}
			cur = def.Bones[pi].Parent
		}
	}
	if roots != 1 {
		return nil, nil, &errs.ConfigError{Subject: "rig", Name: def.Name, Err: fmt.Errorf("%w: %d root bones", errs.ErrRigTopology, roots)}
	}

	order := make([]int, len(def.Bones))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return depth[order[a]] < depth[order[b]] })
	return order, depth, nil
}

func jointPosition(bone string, p rig.Placement, helpers []mathutil.Vec3, groups rig.VertexGroups) (mathutil.Vec3, error) {
	a, b, err := p.Vertices(groups)
	if err != nil {
		return mathutil.Vec3{}, &errs.ConfigError{Subject: "bone", Name: bone, Err: err}
	}
	for _, v := range [2]int{a, b} {
		if v < 0 || v >= len(helpers) {
			return mathutil.Vec3{}, &errs.ConfigError{Subject: "bone", Name: bone, Err: fmt.Errorf("vertex %d beyond %d helpers", v, len(helpers))}
		}
	}
	return mathutil.Midpoint(helpers[a], helpers[b]), nil
}

// boneTransform places +Y along head→tail with the origin at head.
// A zero-length bone keeps the identity rotation.
func boneTransform(head, tail mathutil.Vec3) mgl64.Mat4 {
	t := mgl64.Translate3D(head[0], head[1], head[2])
	dir := mgl64.Vec3(tail.Sub(head))
	if dir.Len() < 1e-12 || math.IsNaN(dir.Len()) {
		return t
	}
	q := mgl64.QuatBetweenVectors(mgl64.Vec3{0, 1, 0}, dir.Normalize())
	return t.Mul4(q.Mat4())
}
