package skin

import (
	"fmt"

	"humanforge/internal/correspond"
	"humanforge/internal/rig"
	"humanforge/internal/skeleton"
)

// ComputeBody distributes canonical-keyed bone weights to the render vertices
// of the body through corr. Only canonical ids below bodyVertexCount count.
// Joints are visited in skeleton order and fill slots first come first
// served; a fifth nonzero joint evicts the lowest weight held.
func ComputeBody(weights rig.WeightTable, skel *skeleton.Skeleton, corr *correspond.Map, bodyVertexCount int) (*Buffers, error) {
	if err := checkTable(skel); err != nil {
		return nil, err
	}

	quads := make([]quad, corr.RenderCount())
	for j, bone := range skel.Bones {
		for _, in := range weights[bone.Name] {
			if in.Weight <= 0 || in.Vertex >= bodyVertexCount {
				continue
			}
			for _, r := range corr.Render(in.Vertex) {
				quads[r].addFirstCome(j, in.Weight)
			}
		}
	}

	out := newBuffers(len(quads))
	for r := range quads {
		if err := quads[r].write(out, r, "body"); err != nil {
			return nil, fmt.Errorf("skin: %w", err)
		}
	}
	return out, nil
}
