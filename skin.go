package skn

import (
	"fmt"

	dvec3 "github.com/flywave/go3d/float64/vec3"
)

func NewSkin() *Skin {
	return &Skin{}
}

func (sk *Skin) VertexCount() int {
	return len(sk.Vertices)
}

func (sk *Skin) BoneCount() int {
	return len(sk.Bones)
}

// Validate checks the structural invariants a record must hold before it is
// serialized: texcoord/vertex length match, in-range face and weight
// indices, parallel weight arrays, no duplicate vertex id within one bone.
// Weights are not required to sum to 1 across bones; the format never
// enforced that.
func (sk *Skin) Validate() error {
	nv := len(sk.Vertices)
	if len(sk.TexCoords) != nv {
		return fmt.Errorf("skn: %d texcoords for %d vertices: %w", len(sk.TexCoords), nv, ErrShapeMismatch)
	}
	for i, f := range sk.Faces {
		for _, vi := range f {
			if int(vi) >= nv {
				return fmt.Errorf("skn: face %d references vertex %d of %d: %w", i, vi, nv, ErrShapeMismatch)
			}
		}
	}
	for j, b := range sk.Bones {
		if b == nil {
			return fmt.Errorf("skn: bone %d is nil: %w", j, ErrShapeMismatch)
		}
		if len(b.Body) > BODY_NAME_SIZE {
			return fmt.Errorf("skn: bone %d body %q exceeds %d bytes: %w", j, b.Body, BODY_NAME_SIZE, ErrShapeMismatch)
		}
		if len(b.VertexIDs) != len(b.VertexWeights) {
			return fmt.Errorf("skn: bone %d has %d ids for %d weights: %w", j, len(b.VertexIDs), len(b.VertexWeights), ErrShapeMismatch)
		}
		seen := make(map[uint32]bool, len(b.VertexIDs))
		for _, vi := range b.VertexIDs {
			if int(vi) >= nv {
				return fmt.Errorf("skn: bone %d references vertex %d of %d: %w", j, vi, nv, ErrShapeMismatch)
			}
			if seen[vi] {
				return fmt.Errorf("skn: bone %d lists vertex %d twice: %w", j, vi, ErrShapeMismatch)
			}
			seen[vi] = true
		}
	}
	return nil
}

func (sk *Skin) ComputeBBox() dvec3.Box {
	if len(sk.Vertices) == 0 {
		return dvec3.Box{}
	}
	bbox := dvec3.MinBox
	for i := range sk.Vertices {
		pt := dvec3.T{float64(sk.Vertices[i][0]), float64(sk.Vertices[i][1]), float64(sk.Vertices[i][2])}
		pb := dvec3.Box{Min: pt, Max: pt}
		bbox.Join(&pb)
	}
	return bbox
}
