package skn

import (
	"fmt"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// weightMatrix expands the sparse per-bone weight lists into a dense
// |vertices| x |bones| row-major matrix. The matrix only exists for the
// duration of a transfer; it is never persisted.
func weightMatrix(sk *Skin) []float32 {
	nb := len(sk.Bones)
	m := make([]float32, len(sk.Vertices)*nb)
	for j, b := range sk.Bones {
		for i, vi := range b.VertexIDs {
			m[int(vi)*nb+j] = b.VertexWeights[i]
		}
	}
	return m
}

// Reskin maps every target vertex to its geometrically nearest source vertex
// and copies that vertex's weight-matrix row and texture coordinate onto it.
// Only k == 1 is implemented; a distance-weighted blend over k > 1 neighbors
// is a documented future mode and fails fast with ErrNotSupported.
//
// The returned record owns all of its arrays; nothing is shared with src or
// target. Its bones carry the source bind poses unchanged and a dense
// assignment over all target vertices, zero weights included, because whole
// matrix rows are copied rather than filtered back down to sparse entries.
func Reskin(src *Skin, target *MeshData, k int) (*Skin, error) {
	if k != 1 {
		return nil, fmt.Errorf("skn: %d-nearest blended transfer: %w", k, ErrNotSupported)
	}
	if len(src.Bones) == 0 {
		return nil, fmt.Errorf("skn: source record has no bones: %w", ErrShapeMismatch)
	}
	if len(src.Vertices) == 0 {
		return nil, fmt.Errorf("skn: source record has no vertices: %w", ErrShapeMismatch)
	}
	if len(src.TexCoords) != len(src.Vertices) {
		return nil, fmt.Errorf("skn: source has %d texcoords for %d vertices: %w", len(src.TexCoords), len(src.Vertices), ErrShapeMismatch)
	}
	if len(target.Vertices) == 0 {
		return nil, fmt.Errorf("skn: target mesh has no vertices: %w", ErrShapeMismatch)
	}
	if target.TexCoords != nil && len(target.TexCoords) != len(target.Vertices) {
		return nil, fmt.Errorf("skn: target mesh has %d texcoords for %d vertices: %w", len(target.TexCoords), len(target.Vertices), ErrShapeMismatch)
	}

	wm := weightMatrix(src)
	index, err := NewPointIndex(src.Vertices)
	if err != nil {
		return nil, err
	}

	nt := len(target.Vertices)
	nb := len(src.Bones)

	nearest, _ := index.NearestBatch(target.Vertices)
	tw := make([]float32, nt*nb)
	for i, si := range nearest {
		copy(tw[i*nb:(i+1)*nb], wm[si*nb:(si+1)*nb])
	}

	// Texture transfer is its own nearest-neighbor pass over the same
	// source positions. Reusing the index is an optimization only.
	texNearest, _ := index.NearestBatch(target.Vertices)
	tex := make([]vec2.T, nt)
	for i, si := range texNearest {
		tex[i] = src.TexCoords[si]
	}

	out := &Skin{
		Vertices:  append([]vec3.T(nil), target.Vertices...),
		TexCoords: tex,
		Faces:     append([][3]uint32(nil), target.Faces...),
		Bones:     make([]*Bone, 0, nb),
	}
	for j, b := range src.Bones {
		ids := make([]uint32, nt)
		ws := make([]float32, nt)
		for i := 0; i < nt; i++ {
			ids[i] = uint32(i)
			ws[i] = tw[i*nb+j]
		}
		out.Bones = append(out.Bones, &Bone{
			Body:          b.Body,
			BindPos:       b.BindPos,
			BindQuat:      b.BindQuat,
			VertexIDs:     ids,
			VertexWeights: ws,
		})
	}
	return out, nil
}
