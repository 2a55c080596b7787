package skn

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// ReadObj loads a triangulated Wavefront OBJ export as target-mesh data.
func ReadObj(path string) (*MeshData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	md, err := ParseObj(f)
	if err != nil {
		return nil, fmt.Errorf("skn: obj %s: %w", path, err)
	}
	return md, nil
}

// ParseObj reads v/vt/f statements. Face corners may use the v, v/vt, v//vn
// or v/vt/vn forms; n-gons are fan-triangulated. Texture coordinates are
// resolved to one (u,v) per vertex through the face statements.
func ParseObj(rd io.Reader) (*MeshData, error) {
	var verts []vec3.T
	var vts []vec2.T
	var faces [][3]uint32
	var uvOf []int32 // per-vertex vt index, -1 while unresolved

	lineno := 0
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineno++
		parts := strings.Fields(sc.Text())
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "v":
			if len(parts) < 4 {
				return nil, fmt.Errorf("line %d: short vertex statement: %w", lineno, ErrFormat)
			}
			var p vec3.T
			for c := 0; c < 3; c++ {
				f, err := strconv.ParseFloat(parts[c+1], 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: vertex coordinate %q: %w", lineno, parts[c+1], ErrFormat)
				}
				p[c] = float32(f)
			}
			verts = append(verts, p)
			uvOf = append(uvOf, -1)
		case "vt":
			if len(parts) < 3 {
				return nil, fmt.Errorf("line %d: short texcoord statement: %w", lineno, ErrFormat)
			}
			var t vec2.T
			for c := 0; c < 2; c++ {
				f, err := strconv.ParseFloat(parts[c+1], 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: texcoord %q: %w", lineno, parts[c+1], ErrFormat)
				}
				t[c] = float32(f)
			}
			vts = append(vts, t)
		case "f":
			corners := parts[1:]
			if len(corners) < 3 {
				return nil, fmt.Errorf("line %d: face with %d corners: %w", lineno, len(corners), ErrFormat)
			}
			vis := make([]uint32, len(corners))
			for i, c := range corners {
				vi, ti, err := parseObjCorner(c, len(verts), len(vts))
				if err != nil {
					return nil, fmt.Errorf("line %d: corner %q: %w", lineno, c, err)
				}
				vis[i] = uint32(vi)
				if ti >= 0 && uvOf[vi] < 0 {
					uvOf[vi] = int32(ti)
				}
			}
			for i := 1; i+1 < len(vis); i++ {
				faces = append(faces, [3]uint32{vis[0], vis[i], vis[i+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(verts) == 0 {
		return nil, fmt.Errorf("no vertices: %w", ErrFormat)
	}

	md := &MeshData{Vertices: verts, Faces: faces}
	if len(vts) > 0 {
		md.TexCoords = make([]vec2.T, len(verts))
		for i, ti := range uvOf {
			if ti >= 0 {
				md.TexCoords[i] = vts[ti]
			}
		}
	}
	return md, nil
}

// parseObjCorner resolves one face corner to 0-based vertex and texcoord
// indices (-1 when the corner has no texcoord). OBJ indices are 1-based;
// negative values count back from the most recent element.
func parseObjCorner(tok string, nv, nt int) (int, int, error) {
	fields := strings.SplitN(tok, "/", 3)
	vi, err := resolveObjIndex(fields[0], nv)
	if err != nil {
		return 0, 0, err
	}
	ti := -1
	if len(fields) > 1 && fields[1] != "" {
		if ti, err = resolveObjIndex(fields[1], nt); err != nil {
			return 0, 0, err
		}
	}
	return vi, ti, nil
}

func resolveObjIndex(tok string, n int) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("index %q: %w", tok, ErrFormat)
	}
	if v < 0 {
		v += n
	} else {
		v--
	}
	if v < 0 || v >= n {
		return 0, fmt.Errorf("index %q out of range %d: %w", tok, n, ErrFormat)
	}
	return v, nil
}

// NormalizeBlenderAxes undoes Blender's export convention on a point array:
// Y and Z swap and the resulting Y flips sign. The input slice is not
// modified.
func NormalizeBlenderAxes(points []vec3.T) []vec3.T {
	out := make([]vec3.T, len(points))
	for i, p := range points {
		out[i] = vec3.T{p[0], -p[2], p[1]}
	}
	return out
}
