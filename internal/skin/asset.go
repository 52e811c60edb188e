package skin

import (
	"fmt"

	"humanforge/internal/asset"
	"humanforge/internal/rig"
	"humanforge/internal/skeleton"
)

// ComputeAssetLocal derives weights per asset-local vertex from its helper
// mapping: a direct vertex copies its canonical vertex's weights, a triangle
// vertex sums weight × barycentric weight over its three corners, weighting
// them equally when its barycentric weights are all zero. The four
// largest joint totals are kept and renormalized.
func ComputeAssetLocal(weights rig.WeightTable, skel *skeleton.Skeleton, def *asset.Definition) (*Buffers, error) {
	if err := checkTable(skel); err != nil {
		return nil, err
	}

	byVertex := make(map[int][]influence)
	for j, bone := range skel.Bones {
		for _, in := range weights[bone.Name] {
			byVertex[in.Vertex] = append(byVertex[in.Vertex], influence{j, in.Weight})
		}
	}

	out := newBuffers(len(def.Mappings))
	acc := make(map[int]float64, 8)
	for i, m := range def.Mappings {
		clear(acc)
		if m.Direct {
			for _, in := range byVertex[m.Verts[0]] {
				acc[in.joint] += in.weight
			}
		} else {
			bary := m.Weights
			if bary == ([3]float64{}) {
				// A pinned vertex moves with its triangle's corners equally.
				bary = [3]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
			}
			for k := 0; k < 3; k++ {
				for _, in := range byVertex[m.Verts[k]] {
					acc[in.joint] += in.weight * bary[k]
				}
			}
		}
		q := topFour(acc)
		if err := q.write(out, i, def.Name); err != nil {
			return nil, fmt.Errorf("skin: %w", err)
		}
	}
	return out, nil
}

// ComputeAsset computes asset-local weights and copies them to each render
// vertex of the asset through its correspondence.
func ComputeAsset(weights rig.WeightTable, skel *skeleton.Skeleton, a *asset.Asset) (*Buffers, error) {
	local, err := ComputeAssetLocal(weights, skel, a.Def)
	if err != nil {
		return nil, err
	}
	out := newBuffers(a.Corr.RenderCount())
	for r := range out.Joints {
		c := a.Corr.Canonical(r)
		out.Joints[r] = local.Joints[c]
		out.Weights[r] = local.Weights[c]
	}
	return out, nil
}
