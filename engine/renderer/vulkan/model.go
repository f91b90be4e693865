package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
)

// VulkanModel holds a mesh uploaded to device-local vertex and index buffers.
type VulkanModel struct {
	ID         core.ID
	Vertices   *VulkanBuffer
	Indices    *VulkanBuffer
	IndexCount uint32
}

func ModelCreate(ctx *DeviceContext, mesh *metadata.Mesh) (*VulkanModel, error) {
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return nil, fmt.Errorf("model: empty mesh (%d vertices, %d indices)", len(mesh.Vertices), len(mesh.Indices))
	}
	vertices, err := DeviceLocalBufferCreate(ctx, mesh.VertexBytes(), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, fmt.Errorf("model vertices: %w", err)
	}
	indices, err := DeviceLocalBufferCreate(ctx, mesh.IndexBytes(), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	if err != nil {
		vertices.Destroy(ctx)
		return nil, fmt.Errorf("model indices: %w", err)
	}
	m := &VulkanModel{
		ID:         core.NewID(),
		Vertices:   vertices,
		Indices:    indices,
		IndexCount: uint32(len(mesh.Indices)),
	}
	core.LogInfo("model %s uploaded: %d vertices, %d indices", core.ShortID(m.ID), len(mesh.Vertices), len(mesh.Indices))
	return m, nil
}

// Draw binds the buffers and issues one indexed draw.
func (m *VulkanModel) Draw(cb vk.CommandBuffer) {
	vk.CmdBindVertexBuffers(cb, 0, 1, []vk.Buffer{m.Vertices.Handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cb, m.Indices.Handle, 0, vk.IndexTypeUint32)
	vk.CmdDrawIndexed(cb, m.IndexCount, 1, 0, 0, 0)
}

func (m *VulkanModel) Destroy(ctx *DeviceContext) {
	if m.Indices != nil {
		m.Indices.Destroy(ctx)
		m.Indices = nil
	}
	if m.Vertices != nil {
		m.Vertices.Destroy(ctx)
		m.Vertices = nil
	}
}
