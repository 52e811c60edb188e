// Package correspond maps canonical authoring vertices to render vertices.
package correspond

import (
	"fmt"

	"humanforge/internal/errs"
	"humanforge/internal/mathutil"
)

// Map links a canonical vertex set to a render vertex set.
// Forward is one-to-many, Inverse is total and one-to-one. Immutable once built.
type Map struct {
	Forward [][]int // canonical id -> render ids
	Inverse []int   // render id -> canonical id
}

// Build matches every render vertex to the canonical vertex at exactly the
// same position. A render vertex claimed by two canonical vertices is a
// duplicate error; one claimed by none is an unmatched error.
func Build(canonical, render []mathutil.Vec3) (*Map, error) {
	byPos := make(map[mathutil.Vec3][]int, len(canonical))
	for id, p := range canonical {
		byPos[p] = append(byPos[p], id)
	}

	m := &Map{
		Forward: make([][]int, len(canonical)),
		Inverse: make([]int, len(render)),
	}
	for r, p := range render {
		ids := byPos[p]
		switch len(ids) {
		case 0:
			return nil, errs.Unmatched(r)
		case 1:
		default:
			return nil, errs.Duplicate(r)
		}
		m.Inverse[r] = ids[0]
		m.Forward[ids[0]] = append(m.Forward[ids[0]], r)
	}
	return m, nil
}

// FromInverse builds a Map from a render -> canonical table.
func FromInverse(inverse []int, canonicalCount int) (*Map, error) {
	m := &Map{
		Forward: make([][]int, canonicalCount),
		Inverse: append([]int(nil), inverse...),
	}
	for r, c := range inverse {
		if c < 0 || c >= canonicalCount {
			return nil, fmt.Errorf("correspond: render vertex %d maps to canonical %d (of %d)", r, c, canonicalCount)
		}
		m.Forward[c] = append(m.Forward[c], r)
	}
	return m, nil
}

func (m *Map) CanonicalCount() int { return len(m.Forward) }

func (m *Map) RenderCount() int { return len(m.Inverse) }

// Canonical returns the canonical id of render vertex r.
func (m *Map) Canonical(r int) int { return m.Inverse[r] }

// Render returns the render ids of canonical vertex c. Callers must not modify it.
func (m *Map) Render(c int) []int {
	if c < 0 || c >= len(m.Forward) {
		return nil
	}
	return m.Forward[c]
}

// Validate checks that Forward and Inverse describe the same relation and
// that every render vertex appears in exactly one forward list.
func (m *Map) Validate() error {
	seen := make([]bool, len(m.Inverse))
	for c, rs := range m.Forward {
		for _, r := range rs {
			if r < 0 || r >= len(m.Inverse) {
				return fmt.Errorf("correspond: canonical %d lists render %d out of range", c, r)
			}
			if seen[r] {
				return errs.Duplicate(r)
			}
			seen[r] = true
			if m.Inverse[r] != c {
				return fmt.Errorf("correspond: render %d inverse is %d, forward says %d", r, m.Inverse[r], c)
			}
		}
	}
	for r, ok := range seen {
		if !ok {
			return errs.Unmatched(r)
		}
	}
	return nil
}

// Match uses Build when tolerance is zero and BuildNearest otherwise.
func Match(canonical, render []mathutil.Vec3, tolerance float64) (*Map, error) {
	if tolerance == 0 {
		return Build(canonical, render)
	}
	return BuildNearest(canonical, render, tolerance)
}
