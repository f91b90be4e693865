package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
)

type VulkanBuffer struct {
	ID     core.ID
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
	Usage  vk.BufferUsageFlags
}

// BufferCreate creates a buffer of size bytes backed by memory with the given
// properties.
func BufferCreate(ctx *DeviceContext, size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	device := ctx.Device.LogicalDevice
	buf := &VulkanBuffer{
		ID:    core.NewID(),
		Size:  size,
		Usage: usage,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := vkCheck(vk.CreateBuffer(device, &bufferInfo, ctx.Allocator, &handle), "vkCreateBuffer"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	buf.Handle = handle

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, handle, &memReqs)
	memReqs.Deref()

	memoryType, err := ctx.FindMemoryIndex(memReqs.MemoryTypeBits, properties)
	if err != nil {
		buf.Destroy(ctx)
		return nil, fmt.Errorf("buffer %s: %w", core.ShortID(buf.ID), err)
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if err := vkCheck(vk.AllocateMemory(device, &allocInfo, ctx.Allocator, &memory), "vkAllocateMemory"); err != nil {
		buf.Destroy(ctx)
		return nil, err
	}
	buf.Memory = memory

	if err := vkCheck(vk.BindBufferMemory(device, handle, memory, 0), "vkBindBufferMemory"); err != nil {
		buf.Destroy(ctx)
		return nil, err
	}
	return buf, nil
}

func (b *VulkanBuffer) Destroy(ctx *DeviceContext) {
	device := ctx.Device.LogicalDevice
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(device, b.Handle, ctx.Allocator)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, b.Memory, ctx.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
	b.Size = 0
}

// Map maps the whole buffer and returns it as a byte slice. The slice is
// valid until Unmap.
func (b *VulkanBuffer) Map(ctx *DeviceContext) ([]byte, error) {
	var ptr unsafe.Pointer
	if err := vkCheck(vk.MapMemory(ctx.Device.LogicalDevice, b.Memory, 0, vk.DeviceSize(b.Size), 0, &ptr), "vkMapMemory"); err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), b.Size), nil
}

func (b *VulkanBuffer) Unmap(ctx *DeviceContext) {
	vk.UnmapMemory(ctx.Device.LogicalDevice, b.Memory)
}

// LoadData copies data into host-visible memory at offset.
func (b *VulkanBuffer) LoadData(ctx *DeviceContext, offset uint64, data []byte) error {
	if offset+uint64(len(data)) > b.Size {
		return fmt.Errorf("buffer %s: write of %d bytes at %d exceeds size %d", core.ShortID(b.ID), len(data), offset, b.Size)
	}
	var ptr unsafe.Pointer
	if err := vkCheck(vk.MapMemory(ctx.Device.LogicalDevice, b.Memory, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &ptr), "vkMapMemory"); err != nil {
		return err
	}
	vk.Memcopy(ptr, data)
	vk.UnmapMemory(ctx.Device.LogicalDevice, b.Memory)
	return nil
}

// CopyBuffer copies size bytes from src to dst through a disposable command buffer.
func CopyBuffer(ctx *DeviceContext, src, dst vk.Buffer, size uint64) error {
	return DisposableCommands(ctx, func(cb vk.CommandBuffer) error {
		region := vk.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      vk.DeviceSize(size),
		}
		vk.CmdCopyBuffer(cb, src, dst, 1, []vk.BufferCopy{region})
		return nil
	})
}

// stagingBuffer returns a host-visible transfer source holding data.
func stagingBuffer(ctx *DeviceContext, data []byte) (*VulkanBuffer, error) {
	staging, err := BufferCreate(ctx, uint64(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	if err := staging.LoadData(ctx, 0, data); err != nil {
		staging.Destroy(ctx)
		return nil, err
	}
	return staging, nil
}

// DeviceLocalBufferCreate uploads data through a staging buffer into a new
// device-local buffer with the given usage.
func DeviceLocalBufferCreate(ctx *DeviceContext, data []byte, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("device-local buffer: no data")
	}
	staging, err := stagingBuffer(ctx, data)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(ctx)

	buf, err := BufferCreate(ctx, uint64(len(data)),
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	if err := CopyBuffer(ctx, staging.Handle, buf.Handle, uint64(len(data))); err != nil {
		buf.Destroy(ctx)
		return nil, err
	}
	return buf, nil
}
