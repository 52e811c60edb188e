// Package rig loads skeletal rig definitions, per-bone vertex weights and the
// base mesh vertex groups used to place joints.
package rig

import (
	"fmt"
	"strings"

	"humanforge/internal/errs"
)

// Placement strategies.
const (
	StrategyMean   = "MEAN"   // midpoint of vertex_indices[0] and [1]
	StrategyCube   = "CUBE"   // midpoint of the named vertex group's first pair
	StrategyVertex = "VERTEX" // vertex_index
)

// Placement locates a bone head or tail on the helper mesh.
type Placement struct {
	Strategy      string `json:"strategy"`
	VertexIndices []int  `json:"vertex_indices,omitempty"`
	VertexIndex   *int   `json:"vertex_index,omitempty"`
	CubeName      string `json:"cube_name,omitempty"`
}

// Vertices returns the two canonical ids whose midpoint is the joint position.
func (p Placement) Vertices(groups VertexGroups) (int, int, error) {
	switch strings.ToUpper(p.Strategy) {
	case StrategyMean:
		if len(p.VertexIndices) < 2 {
			return 0, 0, fmt.Errorf("%s needs 2 vertex_indices, got %d", StrategyMean, len(p.VertexIndices))
		}
		return p.VertexIndices[0], p.VertexIndices[1], nil
	case StrategyCube:
		pairs, ok := groups[p.CubeName]
		if !ok || len(pairs) == 0 {
			return 0, 0, fmt.Errorf("%s: no vertex group %q", StrategyCube, p.CubeName)
		}
		return pairs[0][0], pairs[0][1], nil
	case StrategyVertex:
		if p.VertexIndex == nil {
			return 0, 0, fmt.Errorf("%s needs vertex_index", StrategyVertex)
		}
		return *p.VertexIndex, *p.VertexIndex, nil
	default:
		return 0, 0, fmt.Errorf("%w %q", errs.ErrUnknownStrategy, p.Strategy)
	}
}

// BoneDefinition is one entry of a rig file. An empty Parent marks the root.
type BoneDefinition struct {
	Name   string    `json:"-"`
	Parent string    `json:"parent"`
	Head   Placement `json:"head"`
	Tail   Placement `json:"tail"`
}

// Influence is one (canonical vertex, weight) pair of a bone's weight list.
type Influence struct {
	Vertex int
	Weight float64
}

// WeightTable maps bone name to its canonical-vertex influences.
type WeightTable map[string][]Influence

// VertexGroups maps a group name to vertex id ranges [[first, last], ...].
type VertexGroups map[string][][2]int

// Definition is a named rig: bones in file order plus their weights.
type Definition struct {
	Name    string
	Bones   []BoneDefinition
	Weights WeightTable
}

// Library holds every loaded rig. Read-only after load.
type Library struct {
	rigs map[string]*Definition
}

func NewLibrary() *Library {
	return &Library{rigs: make(map[string]*Definition)}
}

func (l *Library) Add(d *Definition) {
	l.rigs[d.Name] = d
}

// Get returns the named rig or a ConfigError wrapping ErrMissingRig.
func (l *Library) Get(name string) (*Definition, error) {
	d, ok := l.rigs[name]
	if !ok {
		return nil, &errs.ConfigError{Subject: "rig", Name: name, Err: errs.ErrMissingRig}
	}
	return d, nil
}

func (l *Library) Len() int { return len(l.rigs) }
