package metadata

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the layout consumed by the graphics pipeline's single vertex binding.
type Vertex struct {
	Pos      mgl32.Vec3
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
}

const (
	VertexSize           = uint32(unsafe.Sizeof(Vertex{}))
	VertexPosOffset      = uint32(unsafe.Offsetof(Vertex{}.Pos))
	VertexColorOffset    = uint32(unsafe.Offsetof(Vertex{}.Color))
	VertexTexCoordOffset = uint32(unsafe.Offsetof(Vertex{}.TexCoord))
)

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

func (m *Mesh) Free() {
	m.Vertices = nil
	m.Indices = nil
}

// VertexBytes views the vertex slice as raw bytes without copying.
func (m *Mesh) VertexBytes() []byte {
	if len(m.Vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.Vertices[0])), len(m.Vertices)*int(VertexSize))
}

// IndexBytes views the index slice as raw bytes without copying.
func (m *Mesh) IndexBytes() []byte {
	if len(m.Indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.Indices[0])), len(m.Indices)*4)
}
