package skn

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

func testSkin() *Skin {
	return &Skin{
		Vertices: []vec3.T{
			{0, 0, 0},
			{1, 0, 0},
			{2, 0, 0},
			{3, 0, 0},
		},
		TexCoords: []vec2.T{
			{0, 0},
			{0.25, 0.5},
			{0.5, 0.5},
			{0.75, 1},
		},
		Faces: [][3]uint32{
			{0, 1, 2},
			{1, 2, 3},
		},
		Bones: []*Bone{
			{
				Body:          "upper_arm",
				BindPos:       vec3.T{0.5, 0, 0},
				BindQuat:      quaternion.T{1, 0, 0, 0},
				VertexIDs:     []uint32{0, 1},
				VertexWeights: []float32{1.0, 0.5},
			},
			{
				Body:          "lower_arm",
				BindPos:       vec3.T{2.5, 0, 0},
				BindQuat:      quaternion.T{0.707, 0, 0.707, 0},
				VertexIDs:     []uint32{1, 2},
				VertexWeights: []float32{0.5, 1.0},
			},
		},
	}
}

func TestSkinRoundTrip(t *testing.T) {
	sk := testSkin()
	data, err := SkinEncode(sk)
	if err != nil {
		t.Fatalf("SkinEncode failed: %v", err)
	}
	got, err := SkinDecode(data)
	if err != nil {
		t.Fatalf("SkinDecode failed: %v", err)
	}
	if !reflect.DeepEqual(sk, got) {
		t.Errorf("round trip mismatch:\n want %+v\n got %+v", sk, got)
	}
}

func TestSkinEncodeDeterministic(t *testing.T) {
	sk := testSkin()
	a, err := SkinEncode(sk)
	if err != nil {
		t.Fatalf("SkinEncode failed: %v", err)
	}
	b, err := SkinEncode(sk)
	if err != nil {
		t.Fatalf("SkinEncode failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two encodes of the same record differ")
	}
}

func TestSkinOrderPreserved(t *testing.T) {
	sk := testSkin()
	// weight list deliberately not sorted by vertex id
	sk.Bones[0].VertexIDs = []uint32{3, 0}
	sk.Bones[0].VertexWeights = []float32{0.25, 0.75}

	data, err := SkinEncode(sk)
	if err != nil {
		t.Fatalf("SkinEncode failed: %v", err)
	}
	got, err := SkinDecode(data)
	if err != nil {
		t.Fatalf("SkinDecode failed: %v", err)
	}
	if got.Bones[0].Body != "upper_arm" || got.Bones[1].Body != "lower_arm" {
		t.Errorf("bone order changed: %q, %q", got.Bones[0].Body, got.Bones[1].Body)
	}
	if !reflect.DeepEqual(got.Bones[0].VertexIDs, []uint32{3, 0}) {
		t.Errorf("vertex id order changed: %v", got.Bones[0].VertexIDs)
	}
}

func TestSkinDecodeTruncated(t *testing.T) {
	data, err := SkinEncode(testSkin())
	if err != nil {
		t.Fatalf("SkinEncode failed: %v", err)
	}
	tests := []struct {
		name string
		keep int
	}{
		{"empty", 0},
		{"mid header", 6},
		{"mid vertex block", 16 + 7},
		{"mid bone list", len(data) - 60},
		{"last byte short", len(data) - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sk, err := SkinDecode(data[:tt.keep])
			if !errors.Is(err, ErrFormat) {
				t.Errorf("expected ErrFormat, got %v", err)
			}
			if sk != nil {
				t.Error("truncated decode returned a partial record")
			}
		})
	}
}

func TestSkinDecodeTrailingBytes(t *testing.T) {
	data, err := SkinEncode(testSkin())
	if err != nil {
		t.Fatalf("SkinEncode failed: %v", err)
	}
	data = append(data, 0xde, 0xad)
	if _, err := SkinDecode(data); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat for trailing bytes, got %v", err)
	}
}

func TestSkinDecodeBadHeader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"negative vertex count", []byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"texcoord count mismatch", []byte{1, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SkinDecode(tt.data); !errors.Is(err, ErrFormat) {
				t.Errorf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestSkinValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Skin)
		ok     bool
	}{
		{"valid", func(sk *Skin) {}, true},
		{"texcoord length", func(sk *Skin) { sk.TexCoords = sk.TexCoords[:2] }, false},
		{"face out of range", func(sk *Skin) { sk.Faces[0][1] = 99 }, false},
		{"weight arrays not parallel", func(sk *Skin) { sk.Bones[0].VertexWeights = sk.Bones[0].VertexWeights[:1] }, false},
		{"duplicate vertex in bone", func(sk *Skin) { sk.Bones[1].VertexIDs[1] = sk.Bones[1].VertexIDs[0] }, false},
		{"bone vertex out of range", func(sk *Skin) { sk.Bones[0].VertexIDs[0] = 12 }, false},
		{"body name too long", func(sk *Skin) {
			sk.Bones[0].Body = "a_body_identifier_well_beyond_the_forty_byte_field"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sk := testSkin()
			tt.mutate(sk)
			err := sk.Validate()
			if tt.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrShapeMismatch) {
				t.Errorf("expected ErrShapeMismatch, got %v", err)
			}
		})
	}
}

func TestSkinMarshalRejectsInvalid(t *testing.T) {
	sk := testSkin()
	sk.TexCoords = sk.TexCoords[:1]
	if _, err := SkinEncode(sk); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

// Full pipeline through the filesystem: read source, transfer, write, read
// back.
func TestSkinFilePipeline(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.skn")
	outPath := filepath.Join(dir, "out.skn")

	if err := SkinWriteTo(srcPath, testSkin()); err != nil {
		t.Fatalf("SkinWriteTo failed: %v", err)
	}
	src, err := SkinReadFrom(srcPath)
	if err != nil {
		t.Fatalf("SkinReadFrom failed: %v", err)
	}

	target := &MeshData{
		Vertices: append([]vec3.T(nil), src.Vertices...),
		Faces:    append([][3]uint32(nil), src.Faces...),
	}
	out, err := Reskin(src, target, 1)
	if err != nil {
		t.Fatalf("Reskin failed: %v", err)
	}
	if err := SkinWriteTo(outPath, out); err != nil {
		t.Fatalf("SkinWriteTo failed: %v", err)
	}
	got, err := SkinReadFrom(outPath)
	if err != nil {
		t.Fatalf("SkinReadFrom failed: %v", err)
	}
	if !reflect.DeepEqual(out, got) {
		t.Error("written record differs from read-back record")
	}
}

func TestComputeBBox(t *testing.T) {
	sk := testSkin()
	box := sk.ComputeBBox()
	if box.Min[0] != 0 || box.Max[0] != 3 {
		t.Errorf("unexpected bbox x range [%g, %g]", box.Min[0], box.Max[0])
	}
}
