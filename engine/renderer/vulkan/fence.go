package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(ctx *DeviceContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if createSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if err := vkCheck(vk.CreateFence(ctx.Device.LogicalDevice, &fenceCreateInfo, ctx.Allocator, &handle), "vkCreateFence"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	fence.Handle = handle
	return fence, nil
}

func (vf *VulkanFence) Destroy(ctx *DeviceContext) {
	if vf.Handle != vk.NullFence {
		vk.DestroyFence(ctx.Device.LogicalDevice, vf.Handle, ctx.Allocator)
		vf.Handle = vk.NullFence
	}
	vf.IsSignaled = false
}

// Wait blocks until the fence is signaled. A timeout is logged and the wait
// starts over; any other failure is returned.
func (vf *VulkanFence) Wait(ctx *DeviceContext, timeoutNs uint64) error {
	return waitRetrying(func() vk.Result {
		return vk.WaitForFences(ctx.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	}, func() { vf.IsSignaled = true })
}

func waitRetrying(wait func() vk.Result, signaled func()) error {
	for {
		switch res := wait(); res {
		case vk.Success:
			signaled()
			return nil
		case vk.Timeout:
			core.LogWarn("fence wait timed out, waiting again")
		default:
			err := vkCheck(res, "vkWaitForFences")
			core.LogError(err.Error())
			return err
		}
	}
}

func (vf *VulkanFence) Reset(ctx *DeviceContext) error {
	if err := vkCheck(vk.ResetFences(ctx.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}), "vkResetFences"); err != nil {
		core.LogError(err.Error())
		return err
	}
	vf.IsSignaled = false
	return nil
}
