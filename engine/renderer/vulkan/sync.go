package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
)

// FrameSync holds the per-slot synchronization objects. The fence starts
// signaled so the first wait on each slot returns immediately.
type FrameSync struct {
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       *VulkanFence
}

func newSemaphore(ctx *DeviceContext) (vk.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var sem vk.Semaphore
	if err := vkCheck(vk.CreateSemaphore(ctx.Device.LogicalDevice, &info, ctx.Allocator, &sem), "vkCreateSemaphore"); err != nil {
		return vk.NullSemaphore, err
	}
	return sem, nil
}

// FrameSyncCreate builds one FrameSync per frame in flight.
func FrameSyncCreate(ctx *DeviceContext, count uint32) ([]*FrameSync, error) {
	frames := make([]*FrameSync, 0, count)
	for i := uint32(0); i < count; i++ {
		fs := &FrameSync{}
		var err error
		if fs.ImageAvailable, err = newSemaphore(ctx); err == nil {
			if fs.RenderFinished, err = newSemaphore(ctx); err == nil {
				fs.InFlight, err = NewFence(ctx, true)
			}
		}
		if err != nil {
			fs.Destroy(ctx)
			for _, f := range frames {
				f.Destroy(ctx)
			}
			core.LogError("failed to create sync objects for frame %d: %s", i, err)
			return nil, err
		}
		frames = append(frames, fs)
	}
	return frames, nil
}

func (fs *FrameSync) Destroy(ctx *DeviceContext) {
	device := ctx.Device.LogicalDevice
	if fs.ImageAvailable != vk.NullSemaphore {
		vk.DestroySemaphore(device, fs.ImageAvailable, ctx.Allocator)
		fs.ImageAvailable = vk.NullSemaphore
	}
	if fs.RenderFinished != vk.NullSemaphore {
		vk.DestroySemaphore(device, fs.RenderFinished, ctx.Allocator)
		fs.RenderFinished = vk.NullSemaphore
	}
	if fs.InFlight != nil {
		fs.InFlight.Destroy(ctx)
		fs.InFlight = nil
	}
}
