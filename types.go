package skn

import (
	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

const SKNEXT string = ".skn"

// BODY_NAME_SIZE is the fixed on-wire size of a bone's body identifier.
const BODY_NAME_SIZE = 40

// Bone binds a skeletal joint to a subset of skin vertices. VertexIDs and
// VertexWeights are parallel arrays; their order is preserved through the
// codec because downstream consumers index them by position.
type Bone struct {
	Body          string
	BindPos       vec3.T
	BindQuat      quaternion.T
	VertexIDs     []uint32
	VertexWeights []float32
}

// Skin is a skinned mesh record: geometry plus per-bone weight assignments.
// TexCoords always has the same length as Vertices.
type Skin struct {
	Vertices  []vec3.T
	TexCoords []vec2.T
	Faces     [][3]uint32
	Bones     []*Bone
}

// MeshData is the narrow surface handed back by the target-mesh loaders:
// positions, triangle indices and optional per-vertex texture coordinates.
type MeshData struct {
	Vertices  []vec3.T
	Faces     [][3]uint32
	TexCoords []vec2.T
}
