package skn

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/flywave/go3d/vec3"
)

func TestPointIndexEmpty(t *testing.T) {
	if _, err := NewPointIndex(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := NewPointIndex([]vec3.T{}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestNearestExact(t *testing.T) {
	pts := []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	ix, err := NewPointIndex(pts)
	if err != nil {
		t.Fatalf("NewPointIndex failed: %v", err)
	}
	for i, p := range pts {
		idx, dist := ix.Nearest(p)
		if idx != i {
			t.Errorf("query %v: expected index %d, got %d", p, i, idx)
		}
		if dist != 0 {
			t.Errorf("query %v: expected distance 0, got %g", p, dist)
		}
	}
}

func TestNearestTieBreak(t *testing.T) {
	tests := []struct {
		name  string
		pts   []vec3.T
		query vec3.T
		want  int
	}{
		{
			"duplicate points",
			[]vec3.T{{5, 5, 5}, {1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
			vec3.T{1, 1, 1},
			1,
		},
		{
			"equidistant pair",
			[]vec3.T{{0, 2, 0}, {2, 0, 0}},
			vec3.T{0, 0, 0},
			0,
		},
		{
			"equidistant pair reversed",
			[]vec3.T{{2, 0, 0}, {0, 2, 0}},
			vec3.T{0, 0, 0},
			0,
		},
		{
			"equidistant across split",
			[]vec3.T{{-1, 0, 0}, {0, 5, 0}, {1, 0, 0}},
			vec3.T{0, 0, 0},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := NewPointIndex(tt.pts)
			if err != nil {
				t.Fatalf("NewPointIndex failed: %v", err)
			}
			if idx, _ := ix.Nearest(tt.query); idx != tt.want {
				t.Errorf("expected index %d, got %d", tt.want, idx)
			}
		})
	}
}

func TestNearestDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pts := randomPoints(rng, 128)
	ix, err := NewPointIndex(pts)
	if err != nil {
		t.Fatalf("NewPointIndex failed: %v", err)
	}
	q := vec3.T{0.5, 0.5, 0.5}
	idx0, d0 := ix.Nearest(q)
	for i := 0; i < 50; i++ {
		idx, d := ix.Nearest(q)
		if idx != idx0 || d != d0 {
			t.Fatalf("query %d returned (%d, %g), first returned (%d, %g)", i, idx, d, idx0, d0)
		}
	}
}

func TestNearestMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pts := randomPoints(rng, 300)
	// duplicated tail forces tie-break decisions
	pts = append(pts, pts[:32]...)
	ix, err := NewPointIndex(pts)
	if err != nil {
		t.Fatalf("NewPointIndex failed: %v", err)
	}
	for i := 0; i < 200; i++ {
		q := vec3.T{rng.Float32() * 2, rng.Float32() * 2, rng.Float32() * 2}
		gotIdx, gotDist := ix.Nearest(q)
		wantIdx, wantDist := linearNearest(pts, q)
		if gotIdx != wantIdx {
			t.Fatalf("query %v: tree found %d (%g), scan found %d (%g)", q, gotIdx, gotDist, wantIdx, wantDist)
		}
	}
}

func TestNearestBatch(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pts := randomPoints(rng, 64)
	queries := randomPoints(rng, 40)
	ix, err := NewPointIndex(pts)
	if err != nil {
		t.Fatalf("NewPointIndex failed: %v", err)
	}
	idxs, dists := ix.NearestBatch(queries)
	if len(idxs) != len(queries) || len(dists) != len(queries) {
		t.Fatalf("batch returned %d/%d results for %d queries", len(idxs), len(dists), len(queries))
	}
	for i, q := range queries {
		idx, dist := ix.Nearest(q)
		if idxs[i] != idx || dists[i] != dist {
			t.Errorf("query %d: batch (%d, %g), single (%d, %g)", i, idxs[i], dists[i], idx, dist)
		}
	}
}

func TestPointIndexDoesNotMutateInput(t *testing.T) {
	pts := []vec3.T{{3, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	orig := append([]vec3.T(nil), pts...)
	if _, err := NewPointIndex(pts); err != nil {
		t.Fatalf("NewPointIndex failed: %v", err)
	}
	for i := range pts {
		if pts[i] != orig[i] {
			t.Fatalf("point %d mutated: %v -> %v", i, orig[i], pts[i])
		}
	}
}

func randomPoints(rng *rand.Rand, n int) []vec3.T {
	pts := make([]vec3.T, n)
	for i := range pts {
		pts[i] = vec3.T{rng.Float32(), rng.Float32(), rng.Float32()}
	}
	return pts
}

func linearNearest(pts []vec3.T, q vec3.T) (int, float32) {
	best := -1
	bestD := math.Inf(1)
	for i := range pts {
		if d := dist2(&pts[i], &q); d < bestD {
			bestD, best = d, i
		}
	}
	return best, float32(math.Sqrt(bestD))
}
