package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCounts(bits ...vk.SampleCountFlagBits) vk.SampleCountFlags {
	var flags vk.SampleCountFlags
	for _, b := range bits {
		flags |= vk.SampleCountFlags(b)
	}
	return flags
}

func TestMaxUsableSampleCountIntersects(t *testing.T) {
	color := sampleCounts(vk.SampleCount1Bit, vk.SampleCount2Bit, vk.SampleCount4Bit, vk.SampleCount8Bit)
	depth := sampleCounts(vk.SampleCount1Bit, vk.SampleCount2Bit, vk.SampleCount4Bit)
	assert.Equal(t, vk.SampleCount4Bit, maxUsableSampleCount(color, depth))

	all := sampleCounts(vk.SampleCount1Bit, vk.SampleCount64Bit)
	assert.Equal(t, vk.SampleCount64Bit, maxUsableSampleCount(all, all))

	assert.Equal(t, vk.SampleCount1Bit, maxUsableSampleCount(sampleCounts(vk.SampleCount1Bit), color))
	assert.Equal(t, vk.SampleCount1Bit, maxUsableSampleCount(0, 0))
}

func TestFindSupportedFormat(t *testing.T) {
	depthAttachment := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	table := map[vk.Format]vk.FormatProperties{
		vk.FormatD32Sfloat:       {LinearTilingFeatures: depthAttachment},
		vk.FormatD32SfloatS8Uint: {OptimalTilingFeatures: depthAttachment},
		vk.FormatD24UnormS8Uint:  {OptimalTilingFeatures: depthAttachment},
	}
	query := func(f vk.Format) vk.FormatProperties { return table[f] }
	candidates := []vk.Format{vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint}

	got, err := findSupportedFormat(query, candidates, vk.ImageTilingOptimal, depthAttachment)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatD32SfloatS8Uint, got)

	got, err = findSupportedFormat(query, candidates, vk.ImageTilingLinear, depthAttachment)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatD32Sfloat, got)

	_, err = findSupportedFormat(func(vk.Format) vk.FormatProperties { return vk.FormatProperties{} },
		candidates, vk.ImageTilingOptimal, depthAttachment)
	assert.ErrorIs(t, err, core.ErrNoSupportedFormat)
}

func TestTransitionMasks(t *testing.T) {
	tr, err := transitionMasks(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	require.NoError(t, err)
	assert.Equal(t, vk.AccessFlags(0), tr.srcAccess)
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), tr.dstAccess)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), tr.srcStage)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTransferBit), tr.dstStage)

	tr, err = transitionMasks(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	require.NoError(t, err)
	assert.Equal(t, vk.AccessFlags(vk.AccessShaderReadBit), tr.dstAccess)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), tr.dstStage)

	_, err = transitionMasks(vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferDstOptimal)
	assert.ErrorIs(t, err, core.ErrUnsupportedLayoutTransition)
}

func TestImageBarrierAspect(t *testing.T) {
	tr, err := transitionMasks(vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal)
	require.NoError(t, err)

	b := imageBarrier(vk.NullImage, vk.FormatD24UnormS8Uint, vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal, tr, 0, 1)
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit), b.SubresourceRange.AspectMask)

	b = imageBarrier(vk.NullImage, vk.FormatD32Sfloat, vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal, tr, 0, 1)
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit), b.SubresourceRange.AspectMask)

	b = imageBarrier(vk.NullImage, textureFormat, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal, tr, 3, 1)
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectColorBit), b.SubresourceRange.AspectMask)
	assert.Equal(t, uint32(3), b.SubresourceRange.BaseMipLevel)
	assert.Equal(t, uint32(1), b.SubresourceRange.LevelCount)
}

func TestMipBlitHalvesNeverBelowOne(t *testing.T) {
	blit := mipBlit(1, 1024, 1)
	assert.Equal(t, uint32(0), blit.SrcSubresource.MipLevel)
	assert.Equal(t, uint32(1), blit.DstSubresource.MipLevel)
	assert.Equal(t, vk.Offset3D{X: 1024, Y: 1, Z: 1}, blit.SrcOffsets[1])
	assert.Equal(t, vk.Offset3D{X: 512, Y: 1, Z: 1}, blit.DstOffsets[1])
}
