package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_NOT_ALLOCATED VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_READY
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	State  VulkanCommandBufferState
}

// NewVulkanCommandBuffer allocates one command buffer from pool.
func NewVulkanCommandBuffer(ctx *DeviceContext, pool vk.CommandPool, isPrimary bool) (*VulkanCommandBuffer, error) {
	cb := &VulkanCommandBuffer{
		State: COMMAND_BUFFER_STATE_NOT_ALLOCATED,
	}

	level := vk.CommandBufferLevelSecondary
	if isPrimary {
		level = vk.CommandBufferLevelPrimary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              level,
	}

	handles := make([]vk.CommandBuffer, 1)
	if err := vkCheck(vk.AllocateCommandBuffers(ctx.Device.LogicalDevice, &allocateInfo, handles), "vkAllocateCommandBuffers"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	cb.Handle = handles[0]
	cb.State = COMMAND_BUFFER_STATE_READY
	return cb, nil
}

func (cb *VulkanCommandBuffer) Free(ctx *DeviceContext, pool vk.CommandPool) {
	if cb.Handle != nil {
		vk.FreeCommandBuffers(ctx.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{cb.Handle})
	}
	cb.Handle = nil
	cb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (cb *VulkanCommandBuffer) Begin(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if err := vkCheck(vk.BeginCommandBuffer(cb.Handle, &beginInfo), "vkBeginCommandBuffer"); err != nil {
		core.LogError(err.Error())
		return err
	}
	cb.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (cb *VulkanCommandBuffer) End() error {
	if err := vkCheck(vk.EndCommandBuffer(cb.Handle), "vkEndCommandBuffer"); err != nil {
		core.LogError(err.Error())
		return err
	}
	cb.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

// Reset clears previously recorded commands. The pool is created with the
// reset-command-buffer flag.
func (cb *VulkanCommandBuffer) Reset() error {
	if err := vkCheck(vk.ResetCommandBuffer(cb.Handle, 0), "vkResetCommandBuffer"); err != nil {
		return err
	}
	cb.State = COMMAND_BUFFER_STATE_READY
	return nil
}

func (cb *VulkanCommandBuffer) UpdateSubmitted() {
	cb.State = COMMAND_BUFFER_STATE_SUBMITTED
}

// DisposableCommands records fn into a one-shot command buffer, submits it to
// the graphics queue and blocks until the queue is idle.
func DisposableCommands(ctx *DeviceContext, fn func(cb vk.CommandBuffer) error) error {
	pool := ctx.Device.GraphicsCommandPool
	cb, err := NewVulkanCommandBuffer(ctx, pool, true)
	if err != nil {
		return err
	}
	defer cb.Free(ctx, pool)

	if err := cb.Begin(true, false, false); err != nil {
		return err
	}
	if err := fn(cb.Handle); err != nil {
		return err
	}
	if err := cb.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}
	if err := vkCheck(vk.QueueSubmit(ctx.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence), "vkQueueSubmit"); err != nil {
		core.LogError(err.Error())
		return err
	}
	cb.UpdateSubmitted()

	if err := vkCheck(vk.QueueWaitIdle(ctx.Device.GraphicsQueue), "vkQueueWaitIdle"); err != nil {
		return fmt.Errorf("disposable commands: %w", err)
	}
	return nil
}
