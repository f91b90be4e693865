package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
)

type VulkanFramebuffer struct {
	Handle      vk.Framebuffer
	Attachments []vk.ImageView
	Renderpass  *VulkanRenderpass
}

// framebufferAttachments orders views to match the render pass slots.
func framebufferAttachments(color, depth, swapchainView vk.ImageView) []vk.ImageView {
	views := make([]vk.ImageView, attachmentCount)
	views[attachmentColor] = color
	views[attachmentDepth] = depth
	views[attachmentResolve] = swapchainView
	return views
}

func FramebufferCreate(ctx *DeviceContext, renderpass *VulkanRenderpass, extent vk.Extent2D, attachments []vk.ImageView) (*VulkanFramebuffer, error) {
	fb := &VulkanFramebuffer{
		Attachments: append([]vk.ImageView(nil), attachments...),
		Renderpass:  renderpass,
	}

	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderpass.Handle,
		AttachmentCount: uint32(len(fb.Attachments)),
		PAttachments:    fb.Attachments,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var handle vk.Framebuffer
	if err := vkCheck(vk.CreateFramebuffer(ctx.Device.LogicalDevice, &createInfo, ctx.Allocator, &handle), "vkCreateFramebuffer"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	fb.Handle = handle
	return fb, nil
}

func (vfb *VulkanFramebuffer) Destroy(ctx *DeviceContext) {
	if vfb.Handle != vk.NullFramebuffer {
		vk.DestroyFramebuffer(ctx.Device.LogicalDevice, vfb.Handle, ctx.Allocator)
	}
	vfb.Handle = vk.NullFramebuffer
	vfb.Attachments = nil
	vfb.Renderpass = nil
}
