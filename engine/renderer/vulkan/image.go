package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
)

// VulkanImage is an image with its own memory and a single view.
type VulkanImage struct {
	ID        core.ID
	Handle    vk.Image
	Memory    vk.DeviceMemory
	View      vk.ImageView
	Width     uint32
	Height    uint32
	Format    vk.Format
	MipLevels uint32
}

type VulkanImageConfig struct {
	Width, Height uint32
	MipLevels     uint32
	Samples       vk.SampleCountFlagBits
	Format        vk.Format
	Tiling        vk.ImageTiling
	Usage         vk.ImageUsageFlags
	Properties    vk.MemoryPropertyFlags
	Aspect        vk.ImageAspectFlags
}

// ImageCreate allocates and binds device memory for a 2D image and creates its view.
func ImageCreate(ctx *DeviceContext, cfg VulkanImageConfig) (*VulkanImage, error) {
	if cfg.MipLevels == 0 {
		cfg.MipLevels = 1
	}
	if cfg.Samples == 0 {
		cfg.Samples = vk.SampleCount1Bit
	}
	device := ctx.Device.LogicalDevice
	img := &VulkanImage{
		ID:        core.NewID(),
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    cfg.Format,
		MipLevels: cfg.MipLevels,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  cfg.Width,
			Height: cfg.Height,
			Depth:  1,
		},
		MipLevels:     cfg.MipLevels,
		ArrayLayers:   1,
		Format:        cfg.Format,
		Tiling:        cfg.Tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         cfg.Usage,
		Samples:       cfg.Samples,
		SharingMode:   vk.SharingModeExclusive,
	}
	var handle vk.Image
	if err := vkCheck(vk.CreateImage(device, &imageCreateInfo, ctx.Allocator, &handle), "vkCreateImage"); err != nil {
		return nil, err
	}
	img.Handle = handle

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, handle, &memReqs)
	memReqs.Deref()

	memoryType, err := ctx.FindMemoryIndex(memReqs.MemoryTypeBits, cfg.Properties)
	if err != nil {
		img.Destroy(ctx)
		return nil, fmt.Errorf("image %s: %w", core.ShortID(img.ID), err)
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if err := vkCheck(vk.AllocateMemory(device, &allocInfo, ctx.Allocator, &memory), "vkAllocateMemory"); err != nil {
		img.Destroy(ctx)
		return nil, err
	}
	img.Memory = memory

	if err := vkCheck(vk.BindImageMemory(device, handle, memory, 0), "vkBindImageMemory"); err != nil {
		img.Destroy(ctx)
		return nil, err
	}

	view, err := createImageView(ctx, handle, cfg.Format, cfg.Aspect, cfg.MipLevels)
	if err != nil {
		img.Destroy(ctx)
		return nil, err
	}
	img.View = view

	core.LogDebug("image %s created: %dx%d format %d, %d mips, %d samples",
		core.ShortID(img.ID), cfg.Width, cfg.Height, cfg.Format, cfg.MipLevels, uint32(cfg.Samples))
	return img, nil
}

func createImageView(ctx *DeviceContext, image vk.Image, format vk.Format, aspect vk.ImageAspectFlags, mipLevels uint32) (vk.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if err := vkCheck(vk.CreateImageView(ctx.Device.LogicalDevice, &viewInfo, ctx.Allocator, &view), "vkCreateImageView"); err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

// Destroy releases view, image and memory, in that order.
func (img *VulkanImage) Destroy(ctx *DeviceContext) {
	device := ctx.Device.LogicalDevice
	if img.View != vk.NullImageView {
		vk.DestroyImageView(device, img.View, ctx.Allocator)
		img.View = vk.NullImageView
	}
	if img.Handle != vk.NullImage {
		vk.DestroyImage(device, img.Handle, ctx.Allocator)
		img.Handle = vk.NullImage
	}
	if img.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, img.Memory, ctx.Allocator)
		img.Memory = vk.NullDeviceMemory
	}
}

// findSupportedFormat returns the first candidate whose features for the
// given tiling include every requested bit.
func findSupportedFormat(query func(vk.Format) vk.FormatProperties, candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	for _, format := range candidates {
		props := query(format)
		switch {
		case tiling == vk.ImageTilingLinear && props.LinearTilingFeatures&features == features:
			return format, nil
		case tiling == vk.ImageTilingOptimal && props.OptimalTilingFeatures&features == features:
			return format, nil
		}
	}
	return vk.FormatUndefined, core.ErrNoSupportedFormat
}

// maxUsableSampleCount picks the highest sample count supported by both the
// color and the depth framebuffer attachments.
func maxUsableSampleCount(color, depth vk.SampleCountFlags) vk.SampleCountFlagBits {
	counts := color & depth
	for _, bit := range []vk.SampleCountFlagBits{
		vk.SampleCount64Bit,
		vk.SampleCount32Bit,
		vk.SampleCount16Bit,
		vk.SampleCount8Bit,
		vk.SampleCount4Bit,
		vk.SampleCount2Bit,
	} {
		if counts&vk.SampleCountFlags(bit) != 0 {
			return bit
		}
	}
	return vk.SampleCount1Bit
}

func hasStencilComponent(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}

type layoutTransition struct {
	srcAccess vk.AccessFlags
	dstAccess vk.AccessFlags
	srcStage  vk.PipelineStageFlags
	dstStage  vk.PipelineStageFlags
}

// transitionMasks returns the access and stage masks for the layout changes
// the texture path performs.
func transitionMasks(oldLayout, newLayout vk.ImageLayout) (layoutTransition, error) {
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		return layoutTransition{
			srcAccess: 0,
			dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}, nil
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		return layoutTransition{
			srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}, nil
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutTransferSrcOptimal:
		return layoutTransition{
			srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessTransferReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}, nil
	case oldLayout == vk.ImageLayoutTransferSrcOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		return layoutTransition{
			srcAccess: vk.AccessFlags(vk.AccessTransferReadBit),
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}, nil
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutDepthStencilAttachmentOptimal:
		return layoutTransition{
			srcAccess: 0,
			dstAccess: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
		}, nil
	}
	return layoutTransition{}, fmt.Errorf("%w: %d -> %d", core.ErrUnsupportedLayoutTransition, oldLayout, newLayout)
}

// imageBarrier builds a barrier over mip levels [baseMip, baseMip+levels).
func imageBarrier(image vk.Image, format vk.Format, oldLayout, newLayout vk.ImageLayout, t layoutTransition, baseMip, levels uint32) vk.ImageMemoryBarrier {
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if newLayout == vk.ImageLayoutDepthStencilAttachmentOptimal {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		if hasStencilComponent(format) {
			aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
		}
	}
	return vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   baseMip,
			LevelCount:     levels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		SrcAccessMask: t.srcAccess,
		DstAccessMask: t.dstAccess,
	}
}

// TransitionImageLayout moves every mip level of image between layouts using
// a disposable command buffer.
func TransitionImageLayout(ctx *DeviceContext, image vk.Image, format vk.Format, oldLayout, newLayout vk.ImageLayout, mipLevels uint32) error {
	t, err := transitionMasks(oldLayout, newLayout)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	barrier := imageBarrier(image, format, oldLayout, newLayout, t, 0, mipLevels)
	return DisposableCommands(ctx, func(cb vk.CommandBuffer) error {
		vk.CmdPipelineBarrier(cb, t.srcStage, t.dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
		return nil
	})
}
