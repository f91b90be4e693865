package metadata

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformBufferObject mirrors binding 0 of the vertex shader.
type UniformBufferObject struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

const UniformBufferObjectSize = uint64(unsafe.Sizeof(UniformBufferObject{}))

// Bytes returns a copy of the object laid out as the shader expects.
func (u *UniformBufferObject) Bytes() []byte {
	out := make([]byte, UniformBufferObjectSize)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(u)), UniformBufferObjectSize))
	return out
}
