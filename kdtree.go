package skn

import (
	"fmt"
	"math"
	"sort"

	"github.com/flywave/go3d/vec3"
)

// PointIndex is a static 3-d tree over a fixed point set, answering
// 1-nearest-neighbor queries in O(log n) average time. The point set is
// never mutated after build; equidistant candidates resolve to the lowest
// source index, so every query is deterministic.
type PointIndex struct {
	pts   []vec3.T
	order []int32
}

// NewPointIndex builds the tree. Fails with ErrEmptyInput on an empty set.
func NewPointIndex(points []vec3.T) (*PointIndex, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("skn: building point index: %w", ErrEmptyInput)
	}
	ix := &PointIndex{pts: points, order: make([]int32, len(points))}
	for i := range ix.order {
		ix.order[i] = int32(i)
	}
	ix.build(0, len(ix.order), 0)
	return ix, nil
}

func (ix *PointIndex) Len() int {
	return len(ix.pts)
}

// build arranges order[lo:hi] so the axis median sits at the middle slot,
// then recurses into both halves with the next split axis.
func (ix *PointIndex) build(lo, hi, axis int) {
	if hi-lo <= 1 {
		return
	}
	seg := ix.order[lo:hi]
	sort.Slice(seg, func(a, b int) bool {
		pa, pb := ix.pts[seg[a]][axis], ix.pts[seg[b]][axis]
		if pa != pb {
			return pa < pb
		}
		return seg[a] < seg[b]
	})
	mid := (lo + hi) / 2
	next := (axis + 1) % 3
	ix.build(lo, mid, next)
	ix.build(mid+1, hi, next)
}

// Nearest returns the index of the closest source point under Euclidean
// distance, and that distance.
func (ix *PointIndex) Nearest(p vec3.T) (int, float32) {
	best := int32(-1)
	bestD := math.Inf(1)
	ix.search(&p, 0, len(ix.order), 0, &best, &bestD)
	return int(best), float32(math.Sqrt(bestD))
}

// NearestBatch runs Nearest over every query point. Results are identical
// to issuing the queries one at a time.
func (ix *PointIndex) NearestBatch(points []vec3.T) ([]int, []float32) {
	idxs := make([]int, len(points))
	dists := make([]float32, len(points))
	for i := range points {
		idxs[i], dists[i] = ix.Nearest(points[i])
	}
	return idxs, dists
}

func (ix *PointIndex) search(p *vec3.T, lo, hi, axis int, best *int32, bestD *float64) {
	if hi <= lo {
		return
	}
	mid := (lo + hi) / 2
	pi := ix.order[mid]
	if d := dist2(&ix.pts[pi], p); d < *bestD || (d == *bestD && (*best < 0 || pi < *best)) {
		*bestD, *best = d, pi
	}
	if hi-lo == 1 {
		return
	}
	next := (axis + 1) % 3
	delta := float64(p[axis]) - float64(ix.pts[pi][axis])
	if delta < 0 {
		ix.search(p, lo, mid, next, best, bestD)
		// the far half may still hold a point at exactly bestD with a
		// lower index, so prune only on a strictly larger plane distance
		if delta*delta <= *bestD {
			ix.search(p, mid+1, hi, next, best, bestD)
		}
	} else {
		ix.search(p, mid+1, hi, next, best, bestD)
		if delta*delta <= *bestD {
			ix.search(p, lo, mid, next, best, bestD)
		}
	}
}

func dist2(a, b *vec3.T) float64 {
	dx := float64(a[0]) - float64(b[0])
	dy := float64(a[1]) - float64(b[1])
	dz := float64(a[2]) - float64(b[2])
	return dx*dx + dy*dy + dz*dz
}
