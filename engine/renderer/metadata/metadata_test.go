package metadata

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, uint32(32), VertexSize)
	assert.Equal(t, uint32(0), VertexPosOffset)
	assert.Equal(t, uint32(12), VertexColorOffset)
	assert.Equal(t, uint32(24), VertexTexCoordOffset)
}

func TestUniformBufferObjectIs192Bytes(t *testing.T) {
	assert.Equal(t, uint64(192), UniformBufferObjectSize)
}

func TestUniformBytesAreColumnMajor(t *testing.T) {
	ubo := UniformBufferObject{
		Model: mgl32.Translate3D(1, 2, 3),
		View:  mgl32.Ident4(),
		Proj:  mgl32.Ident4(),
	}
	b := ubo.Bytes()
	require.Len(t, b, 192)
	// translation lives in the last column, elements 12..14
	x := math.Float32frombits(binary.LittleEndian.Uint32(b[12*4:]))
	assert.Equal(t, float32(1), x)
	// view starts at 64 with the identity diagonal
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(b[64:])))
}

func TestMeshBytesViews(t *testing.T) {
	m := &Mesh{
		Vertices: []Vertex{{Pos: mgl32.Vec3{1, 2, 3}}, {}},
		Indices:  []uint32{0, 1, 1},
	}
	assert.Len(t, m.VertexBytes(), 64)
	assert.Len(t, m.IndexBytes(), 12)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(m.VertexBytes()[4:])))

	r := &Resource{Type: ResourceTypeMesh, Data: m, DataSize: 76}
	r.Free()
	assert.Nil(t, m.Vertices)
	assert.Nil(t, r.Data)
	assert.Nil(t, (&Mesh{}).VertexBytes())
}
