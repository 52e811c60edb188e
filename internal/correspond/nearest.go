package correspond

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/kdtree"

	"humanforge/internal/errs"
	"humanforge/internal/mathutil"
)

// BuildNearest matches each render vertex to its nearest canonical vertex
// within tolerance. Coincident canonical vertices at the nearest position
// are a duplicate error.
func BuildNearest(canonical, render []mathutil.Vec3, tolerance float64) (*Map, error) {
	if tolerance <= 0 {
		return nil, fmt.Errorf("correspond: tolerance must be positive, got %g", tolerance)
	}
	if len(canonical) == 0 {
		if len(render) == 0 {
			return &Map{}, nil
		}
		return nil, errs.Unmatched(0)
	}

	byPos := make(map[mathutil.Vec3][]int, len(canonical))
	pts := make(kdtree.Points, 0, len(canonical))
	for id, p := range canonical {
		if _, ok := byPos[p]; !ok {
			pts = append(pts, kdtree.Point{p[0], p[1], p[2]})
		}
		byPos[p] = append(byPos[p], id)
	}
	tree := kdtree.New(pts, false)

	limit := tolerance * tolerance
	m := &Map{
		Forward: make([][]int, len(canonical)),
		Inverse: make([]int, len(render)),
	}
	for r, p := range render {
		got, dist := tree.Nearest(kdtree.Point{p[0], p[1], p[2]})
		if got == nil || dist > limit {
			return nil, errs.Unmatched(r)
		}
		q := got.(kdtree.Point)
		ids := byPos[mathutil.Vec3{q[0], q[1], q[2]}]
		if len(ids) != 1 {
			return nil, errs.Duplicate(r)
		}
		m.Inverse[r] = ids[0]
		m.Forward[ids[0]] = append(m.Forward[ids[0]], r)
	}
	return m, nil
}
