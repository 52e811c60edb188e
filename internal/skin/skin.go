// Package skin computes per-vertex joint indices and weights.
package skin

import (
	"fmt"
	"math"
	"sort"

	"humanforge/internal/errs"
	"humanforge/internal/skeleton"
)

// MaxInfluences is the number of joints a vertex can reference.
const MaxInfluences = 4

// Buffers holds parallel per-vertex joint and weight quads. Unused slots
// have joint 0 and weight 0; used weights sum to 1.
type Buffers struct {
	Joints  [][4]uint16
	Weights [][4]float32
}

func newBuffers(n int) *Buffers {
	return &Buffers{Joints: make([][4]uint16, n), Weights: make([][4]float32, n)}
}

func (b *Buffers) Len() int { return len(b.Joints) }

// influence is one (joint, weight) pair during accumulation.
type influence struct {
	joint  int
	weight float64
}

// quad is a fixed four-slot accumulator.
type quad struct {
	slots [MaxInfluences]influence
	n     int
}

// addFirstCome sums into an existing slot for the joint, fills the next free
// slot, or, when all four are taken, evicts the lowest-weight slot.
func (q *quad) addFirstCome(joint int, w float64) {
	for i := 0; i < q.n; i++ {
		if q.slots[i].joint == joint {
			q.slots[i].weight += w
			return
		}
	}
	if q.n < MaxInfluences {
		q.slots[q.n] = influence{joint, w}
		q.n++
		return
	}
	low := 0
	for i := 1; i < MaxInfluences; i++ {
		if q.slots[i].weight < q.slots[low].weight {
			low = i
		}
	}
	q.slots[low] = influence{joint, w}
}

// write stores the quad at vertex v scaled to unit sum.
func (q *quad) write(b *Buffers, v int, subject string) error {
	var sum float64
	for i := 0; i < q.n; i++ {
		sum += q.slots[i].weight
	}
	if sum <= 0 || math.IsNaN(sum) {
		return &errs.DataConsistencyError{Subject: subject, Vertex: v, Msg: "skin weights sum to zero"}
	}
	for i := 0; i < q.n; i++ {
		b.Joints[v][i] = uint16(q.slots[i].joint)
		b.Weights[v][i] = float32(q.slots[i].weight / sum)
	}
	return nil
}

// topFour keeps the four largest weights, ties going to the lower joint index.
func topFour(acc map[int]float64) quad {
	infl := make([]influence, 0, len(acc))
	for j, w := range acc {
		if w > 0 {
			infl = append(infl, influence{j, w})
		}
	}
	sort.Slice(infl, func(a, b int) bool {
		if infl[a].weight != infl[b].weight {
			return infl[a].weight > infl[b].weight
		}
		return infl[a].joint < infl[b].joint
	})
	var q quad
	for i := 0; i < len(infl) && i < MaxInfluences; i++ {
		q.slots[i] = infl[i]
		q.n++
	}
	return q
}

// checkTable verifies the skeleton fits 16-bit joint indices. Table entries
// for bones the skeleton lacks are skipped by the callers, which walk
// skeleton bones only.
func checkTable(skel *skeleton.Skeleton) error {
	if skel.Len() > math.MaxUint16+1 {
		return fmt.Errorf("skin: %d joints exceed 16-bit indices", skel.Len())
	}
	return nil
}
