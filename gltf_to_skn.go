package skn

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"

	"github.com/qmuntal/gltf"
)

// LoadMeshData reads a target mesh, dispatching on the file extension.
// Supported: .obj, .gltf, .glb.
func LoadMeshData(path string) (*MeshData, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return ReadObj(path)
	case ".gltf", ".glb":
		return GltfToMeshData(path)
	default:
		return nil, fmt.Errorf("skn: mesh format %q: %w", filepath.Ext(path), ErrNotSupported)
	}
}

// GltfToMeshData extracts POSITION, TEXCOORD_0 and triangle indices from
// every primitive in a glTF or GLB file, rebasing indices so all primitives
// land in one vertex sequence.
func GltfToMeshData(path string) (*MeshData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}

	md := &MeshData{}
	var uvs []vec2.T
	hasTex := false
	for _, mh := range doc.Meshes {
		for _, ps := range mh.Primitives {
			if ps.Indices == nil {
				continue
			}
			idx, ok := ps.Attributes["POSITION"]
			if !ok {
				continue
			}
			base := uint32(len(md.Vertices))

			pos, err := readVec3Accessor(doc, idx)
			if err != nil {
				return nil, err
			}
			md.Vertices = append(md.Vertices, pos...)

			if tidx, ok := ps.Attributes["TEXCOORD_0"]; ok {
				tex, err := readVec2Accessor(doc, tidx)
				if err != nil {
					return nil, err
				}
				if len(tex) != len(pos) {
					return nil, fmt.Errorf("skn: gltf primitive has %d texcoords for %d positions: %w", len(tex), len(pos), ErrFormat)
				}
				if !hasTex {
					uvs = append(uvs, make([]vec2.T, base)...)
					hasTex = true
				}
				uvs = append(uvs, tex...)
			} else if hasTex {
				uvs = append(uvs, make([]vec2.T, len(pos))...)
			}

			tris, err := readIndexAccessor(doc, *ps.Indices)
			if err != nil {
				return nil, err
			}
			for i := 0; i+2 < len(tris); i += 3 {
				md.Faces = append(md.Faces, [3]uint32{base + tris[i], base + tris[i+1], base + tris[i+2]})
			}
		}
	}
	if len(md.Vertices) == 0 {
		return nil, fmt.Errorf("skn: gltf %s holds no indexed triangle geometry: %w", path, ErrFormat)
	}
	if hasTex {
		md.TexCoords = uvs
	}
	return md, nil
}

func accessorBytes(doc *gltf.Document, acc *gltf.Accessor, stride int) ([]byte, error) {
	if acc.BufferView == nil {
		return nil, fmt.Errorf("skn: gltf accessor without buffer view: %w", ErrFormat)
	}
	view := doc.BufferViews[int(*acc.BufferView)]
	buff := doc.Buffers[int(view.Buffer)]
	off := int(view.ByteOffset) + int(acc.ByteOffset)
	need := stride * int(acc.Count)
	if off+need > len(buff.Data) {
		return nil, fmt.Errorf("skn: gltf buffer %d bytes short of accessor extent: %w", off+need-len(buff.Data), ErrFormat)
	}
	return buff.Data[off : off+need], nil
}

func readVec3Accessor(doc *gltf.Document, idx uint32) ([]vec3.T, error) {
	acc := doc.Accessors[int(idx)]
	data, err := accessorBytes(doc, acc, 12)
	if err != nil {
		return nil, err
	}
	out := make([]vec3.T, acc.Count)
	for i := range out {
		for c := 0; c < 3; c++ {
			out[i][c] = f32frombytes(data[i*12+c*4:])
		}
	}
	return out, nil
}

func readVec2Accessor(doc *gltf.Document, idx uint32) ([]vec2.T, error) {
	acc := doc.Accessors[int(idx)]
	data, err := accessorBytes(doc, acc, 8)
	if err != nil {
		return nil, err
	}
	out := make([]vec2.T, acc.Count)
	for i := range out {
		for c := 0; c < 2; c++ {
			out[i][c] = f32frombytes(data[i*8+c*4:])
		}
	}
	return out, nil
}

func readIndexAccessor(doc *gltf.Document, idx uint32) ([]uint32, error) {
	acc := doc.Accessors[int(idx)]
	bytePerIndices := 1
	if acc.ComponentType == gltf.ComponentShort || acc.ComponentType == gltf.ComponentUshort {
		bytePerIndices = 2
	} else if acc.ComponentType == gltf.ComponentUint || acc.ComponentType == gltf.ComponentFloat {
		bytePerIndices = 4
	}
	data, err := accessorBytes(doc, acc, bytePerIndices)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, acc.Count)
	for i := range out {
		switch bytePerIndices {
		case 2:
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		case 4:
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		default:
			out[i] = uint32(data[i])
		}
	}
	return out, nil
}

func f32frombytes(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
