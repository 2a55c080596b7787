package skn

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// The on-wire layout is MuJoCo's .skn: a little-endian header of four int32
// counts (nvertex, ntexcoord, nface, nbone), fixed-stride float32 vertex and
// texcoord arrays, an int32 face index array, then per bone a 40-byte
// NUL-padded body name, bind pose (3+4 float32) and a length-prefixed
// vertex-id/weight list.

type sknReader struct {
	data []byte
	off  int
}

func (r *sknReader) remain() int {
	return len(r.data) - r.off
}

func (r *sknReader) truncated(what string) error {
	return fmt.Errorf("skn: truncated %s at offset %d: %w", what, r.off, ErrFormat)
}

func (r *sknReader) readI32(what string) (int32, error) {
	if r.remain() < 4 {
		return 0, r.truncated(what)
	}
	v := int32(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v, nil
}

func (r *sknReader) readF32(what string) (float32, error) {
	if r.remain() < 4 {
		return 0, r.truncated(what)
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v, nil
}

// readStr reads a fixed-size field and trims at the first NUL.
func (r *sknReader) readStr(n int, what string) (string, error) {
	if r.remain() < n {
		return "", r.truncated(what)
	}
	s := r.data[r.off : r.off+n]
	r.off += n
	for i, b := range s {
		if b == 0 {
			return string(s[:i]), nil
		}
	}
	return string(s), nil
}

// SkinDecode parses a binary skin record. It fails with ErrFormat when the
// stream is truncated, the header counts are invalid, or the declared counts
// do not match the payload length. No partial record is returned.
func SkinDecode(data []byte) (*Skin, error) {
	r := &sknReader{data: data}

	nvert, err := r.readI32("header")
	if err != nil {
		return nil, err
	}
	ntex, err := r.readI32("header")
	if err != nil {
		return nil, err
	}
	nface, err := r.readI32("header")
	if err != nil {
		return nil, err
	}
	nbone, err := r.readI32("header")
	if err != nil {
		return nil, err
	}
	if nvert < 0 || ntex < 0 || nface < 0 || nbone < 0 {
		return nil, fmt.Errorf("skn: negative count in header (%d %d %d %d): %w", nvert, ntex, nface, nbone, ErrFormat)
	}
	if ntex != nvert {
		return nil, fmt.Errorf("skn: %d texcoords for %d vertices: %w", ntex, nvert, ErrFormat)
	}
	if need := 12*int(nvert) + 8*int(ntex) + 12*int(nface); r.remain() < need {
		return nil, fmt.Errorf("skn: payload %d bytes short of declared counts: %w", need-r.remain(), ErrFormat)
	}

	sk := &Skin{
		Vertices:  make([]vec3.T, nvert),
		TexCoords: make([]vec2.T, ntex),
		Faces:     make([][3]uint32, nface),
		Bones:     make([]*Bone, 0, nbone),
	}
	for i := range sk.Vertices {
		for c := 0; c < 3; c++ {
			if sk.Vertices[i][c], err = r.readF32("vertex block"); err != nil {
				return nil, err
			}
		}
	}
	for i := range sk.TexCoords {
		for c := 0; c < 2; c++ {
			if sk.TexCoords[i][c], err = r.readF32("texcoord block"); err != nil {
				return nil, err
			}
		}
	}
	for i := range sk.Faces {
		for c := 0; c < 3; c++ {
			vi, err := r.readI32("face block")
			if err != nil {
				return nil, err
			}
			if vi < 0 || vi >= nvert {
				return nil, fmt.Errorf("skn: face %d references vertex %d of %d: %w", i, vi, nvert, ErrFormat)
			}
			sk.Faces[i][c] = uint32(vi)
		}
	}

	for j := 0; j < int(nbone); j++ {
		b := &Bone{}
		if b.Body, err = r.readStr(BODY_NAME_SIZE, "bone name"); err != nil {
			return nil, err
		}
		for c := 0; c < 3; c++ {
			if b.BindPos[c], err = r.readF32("bone bind position"); err != nil {
				return nil, err
			}
		}
		for c := 0; c < 4; c++ {
			if b.BindQuat[c], err = r.readF32("bone bind rotation"); err != nil {
				return nil, err
			}
		}
		cnt, err := r.readI32("bone vertex count")
		if err != nil {
			return nil, err
		}
		if cnt < 0 {
			return nil, fmt.Errorf("skn: bone %d declares %d weights: %w", j, cnt, ErrFormat)
		}
		if r.remain() < 8*int(cnt) {
			return nil, r.truncated("bone weight list")
		}
		b.VertexIDs = make([]uint32, cnt)
		b.VertexWeights = make([]float32, cnt)
		for i := range b.VertexIDs {
			vi, err := r.readI32("bone vertex ids")
			if err != nil {
				return nil, err
			}
			if vi < 0 || vi >= nvert {
				return nil, fmt.Errorf("skn: bone %d references vertex %d of %d: %w", j, vi, nvert, ErrFormat)
			}
			b.VertexIDs[i] = uint32(vi)
		}
		for i := range b.VertexWeights {
			if b.VertexWeights[i], err = r.readF32("bone weights"); err != nil {
				return nil, err
			}
		}
		sk.Bones = append(sk.Bones, b)
	}

	if r.remain() != 0 {
		return nil, fmt.Errorf("skn: %d trailing bytes after bone list: %w", r.remain(), ErrFormat)
	}
	if err := sk.Validate(); err != nil {
		return nil, fmt.Errorf("skn: decoded record invalid (%v): %w", err, ErrFormat)
	}
	return sk, nil
}

// SkinUnMarshal reads a complete skin record from rd.
func SkinUnMarshal(rd io.Reader) (*Skin, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("skn: read: %w", err)
	}
	return SkinDecode(data)
}

// SkinMarshal writes sk in the binary skin layout. The encoding is
// deterministic: bone order and per-bone vertex-id order are preserved
// exactly as stored.
func SkinMarshal(wt io.Writer, sk *Skin) error {
	if err := sk.Validate(); err != nil {
		return err
	}
	counts := [4]int32{int32(len(sk.Vertices)), int32(len(sk.TexCoords)), int32(len(sk.Faces)), int32(len(sk.Bones))}
	if err := binary.Write(wt, binary.LittleEndian, counts[:]); err != nil {
		return err
	}
	for i := range sk.Vertices {
		if err := binary.Write(wt, binary.LittleEndian, sk.Vertices[i][:]); err != nil {
			return err
		}
	}
	for i := range sk.TexCoords {
		if err := binary.Write(wt, binary.LittleEndian, sk.TexCoords[i][:]); err != nil {
			return err
		}
	}
	for i := range sk.Faces {
		f := [3]int32{int32(sk.Faces[i][0]), int32(sk.Faces[i][1]), int32(sk.Faces[i][2])}
		if err := binary.Write(wt, binary.LittleEndian, f[:]); err != nil {
			return err
		}
	}
	for _, b := range sk.Bones {
		var name [BODY_NAME_SIZE]byte
		copy(name[:], b.Body)
		if _, err := wt.Write(name[:]); err != nil {
			return err
		}
		if err := binary.Write(wt, binary.LittleEndian, b.BindPos[:]); err != nil {
			return err
		}
		if err := binary.Write(wt, binary.LittleEndian, b.BindQuat[:]); err != nil {
			return err
		}
		if err := binary.Write(wt, binary.LittleEndian, int32(len(b.VertexIDs))); err != nil {
			return err
		}
		ids := make([]int32, len(b.VertexIDs))
		for i, vi := range b.VertexIDs {
			ids[i] = int32(vi)
		}
		if err := binary.Write(wt, binary.LittleEndian, ids); err != nil {
			return err
		}
		if err := binary.Write(wt, binary.LittleEndian, b.VertexWeights); err != nil {
			return err
		}
	}
	return nil
}

// SkinEncode serializes sk to a byte slice.
func SkinEncode(sk *Skin) ([]byte, error) {
	var buf bytes.Buffer
	if err := SkinMarshal(&buf, sk); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func SkinReadFrom(path string) (*Skin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return SkinDecode(data)
}

// SkinWriteTo serializes sk fully in memory before touching the file, so a
// failed encode never leaves a truncated output on disk.
func SkinWriteTo(path string, sk *Skin) error {
	data, err := SkinEncode(sk)
	if err != nil {
		return err
	}
	os.MkdirAll(filepath.Dir(path), os.ModePerm)
	return os.WriteFile(path, data, 0o644)
}
