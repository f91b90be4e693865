package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
	kmath "github.com/spaghettifunk/toybricks/engine/math"
)

type VulkanSwapchain struct {
	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Images      []vk.Image
	Views       []vk.ImageView
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// chooseSurfaceFormat prefers 8-bit BGRA sRGB with a non-linear sRGB color
// space and otherwise takes the first reported format.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

// choosePresentMode prefers mailbox. FIFO is always available.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// chooseSwapExtent uses the surface's current extent unless it is the
// undefined sentinel, in which case the desired size is clamped to the
// surface limits.
func chooseSwapExtent(caps *vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  kmath.Clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: kmath.Clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseImageCount asks for one image more than the minimum. A zero maximum
// means unbounded.
func chooseImageCount(caps *vk.SurfaceCapabilities) uint32 {
	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}
	return imageCount
}

// SwapchainCreate re-queries surface support and builds the chain and one
// view per image.
func SwapchainCreate(ctx *DeviceContext, width, height uint32) (*VulkanSwapchain, error) {
	device := ctx.Device
	support, err := QuerySwapchainSupport(device.PhysicalDevice, ctx.Surface)
	if err != nil {
		return nil, err
	}
	device.SwapchainSupport = support

	swapchain := &VulkanSwapchain{
		ImageFormat: chooseSurfaceFormat(support.Formats),
		PresentMode: choosePresentMode(support.PresentModes),
		Extent:      chooseSwapExtent(&support.Capabilities, width, height),
	}
	imageCount := chooseImageCount(&support.Capabilities)

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          ctx.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      swapchain.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	if device.GraphicsQueueIndex != device.PresentQueueIndex {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{device.GraphicsQueueIndex, device.PresentQueueIndex}
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var handle vk.Swapchain
	if err := vkCheck(vk.CreateSwapchain(device.LogicalDevice, &createInfo, ctx.Allocator, &handle), "vkCreateSwapchainKHR"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Handle = handle

	var count uint32
	if err := vkCheck(vk.GetSwapchainImages(device.LogicalDevice, handle, &count, nil), "vkGetSwapchainImagesKHR"); err != nil {
		swapchain.Destroy(ctx)
		return nil, err
	}
	images := make([]vk.Image, count)
	if err := vkCheck(vk.GetSwapchainImages(device.LogicalDevice, handle, &count, images), "vkGetSwapchainImagesKHR"); err != nil {
		swapchain.Destroy(ctx)
		return nil, err
	}
	swapchain.Images = images

	views, err := swapchainViews(images,
		func(image vk.Image) (vk.ImageView, error) {
			return createImageView(ctx, image, swapchain.ImageFormat.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit), 1)
		},
		func(view vk.ImageView) {
			vk.DestroyImageView(device.LogicalDevice, view, ctx.Allocator)
		})
	if err != nil {
		swapchain.Destroy(ctx)
		return nil, err
	}
	swapchain.Views = views

	core.LogInfo("Swapchain created: %dx%d, %d images, format %d, present mode %d",
		swapchain.Extent.Width, swapchain.Extent.Height, len(images), swapchain.ImageFormat.Format, swapchain.PresentMode)
	return swapchain, nil
}

// swapchainViews returns exactly one view per image, or no views at all.
func swapchainViews(images []vk.Image, create func(vk.Image) (vk.ImageView, error), destroy func(vk.ImageView)) ([]vk.ImageView, error) {
	views := make([]vk.ImageView, 0, len(images))
	for i, image := range images {
		view, err := create(image)
		if err != nil {
			for _, v := range views {
				destroy(v)
			}
			return nil, fmt.Errorf("swapchain image view %d: %w", i, err)
		}
		views = append(views, view)
	}
	return views, nil
}

// Destroy removes the views, then the chain. The images belong to the chain.
func (vs *VulkanSwapchain) Destroy(ctx *DeviceContext) {
	for _, view := range vs.Views {
		vk.DestroyImageView(ctx.Device.LogicalDevice, view, ctx.Allocator)
	}
	vs.Views = nil
	vs.Images = nil
	if vs.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(ctx.Device.LogicalDevice, vs.Handle, ctx.Allocator)
		vs.Handle = vk.NullSwapchain
	}
}

// AcquireNextImage returns the raw result so the frame loop can decide
// between recreation and failure.
func (vs *VulkanSwapchain) AcquireNextImage(ctx *DeviceContext, imageAvailable vk.Semaphore) (uint32, vk.Result) {
	var imageIndex uint32
	result := vk.AcquireNextImage(ctx.Device.LogicalDevice, vs.Handle, acquireTimeout, imageAvailable, vk.NullFence, &imageIndex)
	return imageIndex, result
}

// Present queues imageIndex for display once renderFinished is signaled.
func (vs *VulkanSwapchain) Present(presentQueue vk.Queue, renderFinished vk.Semaphore, imageIndex uint32) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{imageIndex},
	}
	return vk.QueuePresent(presentQueue, &presentInfo)
}
