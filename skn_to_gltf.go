package skn

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/qmuntal/gltf"
)

const GLTF_VERSION = "2.0"

// SknToGltf builds a geometry-only glTF document from a skin record so a
// transferred result can be inspected in any viewer. Bones and weights are
// not exported.
func SknToGltf(sk *Skin) (*gltf.Document, error) {
	doc := CreateDoc()
	if err := BuildGltf(doc, sk); err != nil {
		return nil, err
	}
	return doc, nil
}

func CreateDoc() *gltf.Document {
	doc := &gltf.Document{}
	doc.Asset.Version = GLTF_VERSION
	srcIndex := uint32(0)
	doc.Scene = &srcIndex
	doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	return doc
}

// BuildGltf appends sk as one mesh with a single triangle primitive.
func BuildGltf(doc *gltf.Document, sk *Skin) error {
	if err := sk.Validate(); err != nil {
		return err
	}
	buffer := doc.Buffers[0]
	var bt []byte
	buf := bytes.NewBuffer(bt)
	startLen := buffer.ByteLength

	indices := &gltf.BufferView{Buffer: 0, ByteOffset: startLen}
	for i := range sk.Faces {
		binary.Write(buf, binary.LittleEndian, sk.Faces[i])
	}
	indices.ByteLength = uint32(buf.Len())
	bvIdx := uint32(len(doc.BufferViews))
	doc.BufferViews = append(doc.BufferViews, indices)

	positions := &gltf.BufferView{Buffer: 0}
	positions.ByteOffset = uint32(buf.Len()) + startLen
	for i := range sk.Vertices {
		binary.Write(buf, binary.LittleEndian, sk.Vertices[i])
	}
	positions.ByteLength = uint32(buf.Len()) + startLen - positions.ByteOffset
	bvPos := uint32(len(doc.BufferViews))
	doc.BufferViews = append(doc.BufferViews, positions)

	texcoords := &gltf.BufferView{Buffer: 0}
	texcoords.ByteOffset = uint32(buf.Len()) + startLen
	for i := range sk.TexCoords {
		binary.Write(buf, binary.LittleEndian, sk.TexCoords[i])
	}
	texcoords.ByteLength = uint32(buf.Len()) + startLen - texcoords.ByteOffset
	bvTex := uint32(len(doc.BufferViews))
	doc.BufferViews = append(doc.BufferViews, texcoords)

	buffer.ByteLength += uint32(buf.Len())
	buffer.Data = append(buffer.Data, buf.Bytes()...)

	idxAcc := uint32(len(doc.Accessors))
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		ComponentType: gltf.ComponentUint,
		Type:          gltf.AccessorScalar,
		Count:         uint32(len(sk.Faces)) * 3,
		BufferView:    &bvIdx,
	})

	box := sk.ComputeBBox()
	posAcc := uint32(len(doc.Accessors))
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec3,
		Count:         uint32(len(sk.Vertices)),
		BufferView:    &bvPos,
		Min:           []float32{float32(box.Min[0]), float32(box.Min[1]), float32(box.Min[2])},
		Max:           []float32{float32(box.Max[0]), float32(box.Max[1]), float32(box.Max[2])},
	})

	texAcc := uint32(len(doc.Accessors))
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec2,
		Count:         uint32(len(sk.TexCoords)),
		BufferView:    &bvTex,
	})

	ps := &gltf.Primitive{
		Indices: &idxAcc,
		Mode:    gltf.PrimitiveTriangles,
		Attributes: gltf.Attribute{
			"POSITION":   posAcc,
			"TEXCOORD_0": texAcc,
		},
	}
	mesh := &gltf.Mesh{Primitives: []*gltf.Primitive{ps}}

	meshId := uint32(len(doc.Meshes))
	doc.Meshes = append(doc.Meshes, mesh)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
	doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: &meshId})
	return nil
}

type calcSizeWriter struct {
	writer io.Writer
	Size   int
}

func (w *calcSizeWriter) Write(p []byte) (n int, err error) {
	si := len(p)
	w.writer.Write(p)
	w.Size += si
	return si, nil
}

func (w *calcSizeWriter) Bytes() []byte {
	return w.writer.(*bytes.Buffer).Bytes()
}

func newSizeWriter() calcSizeWriter {
	wt := bytes.NewBuffer([]byte{})
	return calcSizeWriter{writer: wt}
}

func calcPadding(offset, paddingUnit int) int {
	padding := offset % paddingUnit
	if padding != 0 {
		padding = paddingUnit - padding
	}
	return padding
}

// GetGltfBinary encodes doc as GLB, padded to paddingUnit bytes.
func GetGltfBinary(doc *gltf.Document, paddingUnit int) ([]byte, error) {
	w := newSizeWriter()
	enc := gltf.NewEncoder(w.writer)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	padding := calcPadding(w.Size, paddingUnit)
	if padding == 0 {
		return w.Bytes(), nil
	}
	pad := make([]byte, padding)
	for i := range pad {
		pad[i] = 0x20
	}
	w.Write(pad)
	return w.Bytes(), nil
}
