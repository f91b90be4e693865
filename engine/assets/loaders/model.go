package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
)

// ModelLoader reads Wavefront OBJ geometry into an indexed mesh.
type ModelLoader struct{}

func (ml *ModelLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mesh, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &metadata.Resource{
		ID:       core.NewID(),
		Type:     metadata.ResourceTypeMesh,
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(mesh.VertexBytes()) + len(mesh.IndexBytes())),
		Data:     mesh,
	}, nil
}

func (ml *ModelLoader) Unload(res *metadata.Resource) error {
	res.Free()
	return nil
}

type objKey struct {
	pos, tex int
}

// ParseOBJ reads positions, texture coordinates and faces. Polygons are
// fanned into triangles, identical position/texcoord pairs share one vertex,
// the v coordinate is flipped for Vulkan and every vertex is white.
func ParseOBJ(r io.Reader) (*metadata.Mesh, error) {
	var (
		positions []mgl32.Vec3
		texcoords []mgl32.Vec2
		mesh      = &metadata.Mesh{}
		unique    = map[objKey]uint32{}
	)

	vertexIndex := func(token string, line int) (uint32, error) {
		key, err := parseFaceToken(token, len(positions), len(texcoords))
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		if idx, ok := unique[key]; ok {
			return idx, nil
		}
		v := metadata.Vertex{
			Pos:   positions[key.pos],
			Color: mgl32.Vec3{1, 1, 1},
		}
		if key.tex >= 0 {
			tc := texcoords[key.tex]
			v.TexCoord = mgl32.Vec2{tc.X(), 1 - tc.Y()}
		}
		idx := uint32(len(mesh.Vertices))
		mesh.Vertices = append(mesh.Vertices, v)
		unique[key] = idx
		return idx, nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			vals, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", line, err)
			}
			positions = append(positions, mgl32.Vec3{vals[0], vals[1], vals[2]})
		case "vt":
			vals, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: texcoord: %w", line, err)
			}
			texcoords = append(texcoords, mgl32.Vec2{vals[0], vals[1]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", line)
			}
			corners := make([]uint32, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				idx, err := vertexIndex(tok, line)
				if err != nil {
					return nil, err
				}
				corners = append(corners, idx)
			}
			for i := 1; i+1 < len(corners); i++ {
				mesh.Indices = append(mesh.Indices, corners[0], corners[i], corners[i+1])
			}
		default:
			// Normals, groups, materials and smoothing are not used.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(mesh.Indices) == 0 {
		return nil, fmt.Errorf("no faces")
	}
	return mesh, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseFaceToken resolves v, v/vt, v/vt/vn and v//vn to zero-based indices.
// Negative indices count back from the latest element. A missing texcoord is -1.
func parseFaceToken(token string, numPos, numTex int) (objKey, error) {
	parts := strings.Split(token, "/")
	pos, err := resolveIndex(parts[0], numPos)
	if err != nil {
		return objKey{}, fmt.Errorf("position index %q: %w", token, err)
	}
	key := objKey{pos: pos, tex: -1}
	if len(parts) > 1 && parts[1] != "" {
		tex, err := resolveIndex(parts[1], numTex)
		if err != nil {
			return objKey{}, fmt.Errorf("texcoord index %q: %w", token, err)
		}
		key.tex = tex
	}
	return key, nil
}

func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	}
	return 0, fmt.Errorf("index %d out of range (%d elements)", i, count)
}
