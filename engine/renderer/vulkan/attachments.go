package vulkan

import (
	vk "github.com/goki/vulkan"
)

// colorAttachmentCreate builds the multisampled color target the render pass
// resolves into the swapchain image.
func colorAttachmentCreate(ctx *DeviceContext, format vk.Format, extent vk.Extent2D) (*VulkanImage, error) {
	return ImageCreate(ctx, VulkanImageConfig{
		Width:      extent.Width,
		Height:     extent.Height,
		MipLevels:  1,
		Samples:    ctx.Device.MSAASamples,
		Format:     format,
		Tiling:     vk.ImageTilingOptimal,
		Usage:      vk.ImageUsageFlags(vk.ImageUsageTransientAttachmentBit | vk.ImageUsageColorAttachmentBit),
		Properties: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		Aspect:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
	})
}

func depthAttachmentCreate(ctx *DeviceContext, extent vk.Extent2D) (*VulkanImage, error) {
	return ImageCreate(ctx, VulkanImageConfig{
		Width:      extent.Width,
		Height:     extent.Height,
		MipLevels:  1,
		Samples:    ctx.Device.MSAASamples,
		Format:     ctx.Device.DepthFormat,
		Tiling:     vk.ImageTilingOptimal,
		Usage:      vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		Properties: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		Aspect:     vk.ImageAspectFlags(vk.ImageAspectDepthBit),
	})
}
