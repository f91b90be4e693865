package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
	kmath "github.com/spaghettifunk/toybricks/engine/math"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
)

const textureFormat = vk.FormatR8g8b8a8Srgb

// VulkanTexture is a sampled, fully mipmapped image with its sampler.
type VulkanTexture struct {
	Image   *VulkanImage
	Sampler vk.Sampler
}

// TextureCreate uploads RGBA pixels, builds the full mip chain and creates a
// linear, repeating, anisotropic sampler over it.
func TextureCreate(ctx *DeviceContext, data *metadata.TextureData) (*VulkanTexture, error) {
	mipLevels, err := textureMipLevels(data)
	if err != nil {
		return nil, err
	}

	if err := checkLinearBlit(ctx.Device.formatProperties(textureFormat)); err != nil {
		return nil, err
	}

	staging, err := stagingBuffer(ctx, data.Pixels)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(ctx)

	img, err := ImageCreate(ctx, VulkanImageConfig{
		Width:      data.Width,
		Height:     data.Height,
		MipLevels:  mipLevels,
		Samples:    vk.SampleCount1Bit,
		Format:     textureFormat,
		Tiling:     vk.ImageTilingOptimal,
		Usage:      vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		Properties: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		Aspect:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
	})
	if err != nil {
		return nil, err
	}
	tex := &VulkanTexture{Image: img}

	if err := TransitionImageLayout(ctx, img.Handle, textureFormat, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal, mipLevels); err != nil {
		tex.Destroy(ctx)
		return nil, err
	}
	if err := copyBufferToImage(ctx, staging.Handle, img.Handle, data.Width, data.Height); err != nil {
		tex.Destroy(ctx)
		return nil, err
	}
	if err := generateMipmaps(ctx, img); err != nil {
		tex.Destroy(ctx)
		return nil, err
	}

	sampler, err := createTextureSampler(ctx, mipLevels)
	if err != nil {
		tex.Destroy(ctx)
		return nil, err
	}
	tex.Sampler = sampler

	core.LogInfo("texture %s uploaded: %dx%d, %d mip levels", core.ShortID(img.ID), data.Width, data.Height, mipLevels)
	return tex, nil
}

// textureMipLevels checks that data is tightly packed RGBA and returns the
// length of its full mip chain.
func textureMipLevels(data *metadata.TextureData) (uint32, error) {
	if data.Channels != 4 {
		return 0, fmt.Errorf("texture: expected 4 channels, got %d", data.Channels)
	}
	size := uint64(data.Width) * uint64(data.Height) * 4
	if uint64(len(data.Pixels)) != size {
		return 0, fmt.Errorf("texture: %dx%d needs %d bytes, got %d", data.Width, data.Height, size, len(data.Pixels))
	}
	return kmath.MipLevels(data.Width, data.Height), nil
}

func (t *VulkanTexture) Destroy(ctx *DeviceContext) {
	if t.Sampler != vk.NullSampler {
		vk.DestroySampler(ctx.Device.LogicalDevice, t.Sampler, ctx.Allocator)
		t.Sampler = vk.NullSampler
	}
	if t.Image != nil {
		t.Image.Destroy(ctx)
		t.Image = nil
	}
}

func checkLinearBlit(props vk.FormatProperties) error {
	if props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit) == 0 {
		return core.ErrLinearBlitUnsupported
	}
	return nil
}

func copyBufferToImage(ctx *DeviceContext, buffer vk.Buffer, image vk.Image, width, height uint32) error {
	return DisposableCommands(ctx, func(cb vk.CommandBuffer) error {
		region := vk.BufferImageCopy{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
			ImageExtent: vk.Extent3D{Width: width, Height: height, Depth: 1},
		}
		vk.CmdCopyBufferToImage(cb, buffer, image, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
		return nil
	})
}

// mipBlit is the blit from level-1 into level.
func mipBlit(level uint32, srcW, srcH uint32) vk.ImageBlit {
	return vk.ImageBlit{
		SrcSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       level - 1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		SrcOffsets: [2]vk.Offset3D{
			{X: 0, Y: 0, Z: 0},
			{X: int32(srcW), Y: int32(srcH), Z: 1},
		},
		DstSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       level,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		DstOffsets: [2]vk.Offset3D{
			{X: 0, Y: 0, Z: 0},
			{X: int32(kmath.MipExtent(srcW)), Y: int32(kmath.MipExtent(srcH)), Z: 1},
		},
	}
}

// generateMipmaps expects every level in TransferDstOptimal and leaves every
// level in ShaderReadOnlyOptimal.
func generateMipmaps(ctx *DeviceContext, img *VulkanImage) error {
	toSrc, err := transitionMasks(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal)
	if err != nil {
		return err
	}
	srcToRead, err := transitionMasks(vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	if err != nil {
		return err
	}
	dstToRead, err := transitionMasks(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	if err != nil {
		return err
	}

	return DisposableCommands(ctx, func(cb vk.CommandBuffer) error {
		barrier := func(t layoutTransition, oldLayout, newLayout vk.ImageLayout, level uint32) {
			b := imageBarrier(img.Handle, img.Format, oldLayout, newLayout, t, level, 1)
			vk.CmdPipelineBarrier(cb, t.srcStage, t.dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{b})
		}

		w, h := img.Width, img.Height
		for level := uint32(1); level < img.MipLevels; level++ {
			barrier(toSrc, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal, level-1)

			blit := mipBlit(level, w, h)
			vk.CmdBlitImage(cb,
				img.Handle, vk.ImageLayoutTransferSrcOptimal,
				img.Handle, vk.ImageLayoutTransferDstOptimal,
				1, []vk.ImageBlit{blit}, vk.FilterLinear)

			barrier(srcToRead, vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutShaderReadOnlyOptimal, level-1)
			w, h = kmath.MipExtent(w), kmath.MipExtent(h)
		}
		barrier(dstToRead, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal, img.MipLevels-1)
		return nil
	})
}

func createTextureSampler(ctx *DeviceContext, mipLevels uint32) (vk.Sampler, error) {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           ctx.Device.Properties.Limits.MaxSamplerAnisotropy,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  float32(mipLevels),
	}
	var sampler vk.Sampler
	if err := vkCheck(vk.CreateSampler(ctx.Device.LogicalDevice, &samplerInfo, ctx.Allocator, &sampler), "vkCreateSampler"); err != nil {
		core.LogError(err.Error())
		return vk.NullSampler, err
	}
	return sampler, nil
}
