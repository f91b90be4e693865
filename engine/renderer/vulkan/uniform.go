package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
)

// UniformBuffer is a persistently mapped host-coherent buffer holding one
// UniformBufferObject. There is one per frame in flight.
type UniformBuffer struct {
	buffer *VulkanBuffer
	mapped []byte
}

func UniformBufferCreate(ctx *DeviceContext) (*UniformBuffer, error) {
	buf, err := BufferCreate(ctx, metadata.UniformBufferObjectSize,
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	mapped, err := buf.Map(ctx)
	if err != nil {
		buf.Destroy(ctx)
		return nil, err
	}
	return &UniformBuffer{buffer: buf, mapped: mapped}, nil
}

// UniformBuffersCreate creates count uniform buffers, releasing all of them on failure.
func UniformBuffersCreate(ctx *DeviceContext, count uint32) ([]*UniformBuffer, error) {
	out := make([]*UniformBuffer, 0, count)
	for i := uint32(0); i < count; i++ {
		ub, err := UniformBufferCreate(ctx)
		if err != nil {
			for _, u := range out {
				u.Destroy(ctx)
			}
			return nil, err
		}
		out = append(out, ub)
	}
	return out, nil
}

func (u *UniformBuffer) Handle() vk.Buffer {
	if u.buffer == nil {
		return vk.NullBuffer
	}
	return u.buffer.Handle
}

// Update writes data into the mapped memory. data must be exactly the size
// of the uniform block; otherwise nothing is written.
func (u *UniformBuffer) Update(data []byte) error {
	if len(data) != len(u.mapped) {
		core.LogError("uniform buffer update rejected: got %d bytes, expected %d", len(data), len(u.mapped))
		return fmt.Errorf("%w: got %d bytes, want %d", core.ErrUniformSizeMismatch, len(data), len(u.mapped))
	}
	copy(u.mapped, data)
	return nil
}

// UpdateObject writes ubo into the mapped memory.
func (u *UniformBuffer) UpdateObject(ubo *metadata.UniformBufferObject) error {
	return u.Update(ubo.Bytes())
}

func (u *UniformBuffer) Destroy(ctx *DeviceContext) {
	if u.buffer == nil {
		return
	}
	if u.mapped != nil {
		u.buffer.Unmap(ctx)
		u.mapped = nil
	}
	u.buffer.Destroy(ctx)
	u.buffer = nil
}
