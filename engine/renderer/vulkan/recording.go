package vulkan

import (
	vk "github.com/goki/vulkan"
)

// DrawCallback records extra commands inside the main render pass, after
// the scene draw. The overlay layer registers one.
type DrawCallback func(cb vk.CommandBuffer)

func (vr *VulkanRenderer) RegisterDrawCallback(cb DrawCallback) {
	vr.drawCallbacks = append(vr.drawCallbacks, cb)
}

func fullViewport(extent vk.Extent2D) (vk.Viewport, vk.Rect2D) {
	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	return viewport, scissor
}

// Record rewrites the slot's command buffer to draw into swapchain image
// imageIndex.
func (vr *VulkanRenderer) Record(slot, imageIndex uint32) error {
	cb := vr.commandBuffers[slot]
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.Begin(false, false, false); err != nil {
		return err
	}

	extent := vr.swapchain.Extent
	vr.renderpass.Begin(cb, vr.framebuffers[imageIndex].Handle, extent)

	vr.pipeline.Bind(cb, vk.PipelineBindPointGraphics)

	viewport, scissor := fullViewport(extent)
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})

	vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, vr.pipeline.PipelineLayout,
		0, 1, []vk.DescriptorSet{vr.descriptors.Sets[slot]}, 0, nil)

	vr.model.Draw(cb.Handle)

	for _, draw := range vr.drawCallbacks {
		draw(cb.Handle)
	}

	vr.renderpass.End(cb)
	return cb.End()
}
