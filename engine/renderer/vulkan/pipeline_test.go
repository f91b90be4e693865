package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexInputMatchesVertexLayout(t *testing.T) {
	binding, attrs := vertexInputDescriptions()
	assert.Equal(t, uint32(32), binding.Stride)
	assert.Equal(t, vk.VertexInputRateVertex, binding.InputRate)

	require.Len(t, attrs, 3)
	assert.Equal(t, uint32(0), attrs[0].Offset)
	assert.Equal(t, uint32(12), attrs[1].Offset)
	assert.Equal(t, uint32(24), attrs[2].Offset)
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attrs[0].Format)
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attrs[1].Format)
	assert.Equal(t, vk.FormatR32g32Sfloat, attrs[2].Format)
	for i, a := range attrs {
		assert.Equal(t, uint32(i), a.Location)
	}
}

func TestMultisampleState(t *testing.T) {
	s := multisampleState(vk.SampleCount8Bit, true)
	assert.Equal(t, vk.SampleCount8Bit, s.RasterizationSamples)
	assert.Equal(t, vk.Bool32(vk.True), s.SampleShadingEnable)
	assert.InDelta(t, 0.2, s.MinSampleShading, 1e-6)

	s = multisampleState(vk.SampleCount4Bit, false)
	assert.Equal(t, vk.Bool32(vk.False), s.SampleShadingEnable)
}

func TestRenderpassAttachments(t *testing.T) {
	a := renderpassAttachments(vk.FormatB8g8r8a8Srgb, vk.FormatD32Sfloat, vk.SampleCount4Bit)
	require.Len(t, a, 3)

	assert.Equal(t, vk.SampleCount4Bit, a[attachmentColor].Samples)
	assert.Equal(t, vk.AttachmentLoadOpClear, a[attachmentColor].LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpStore, a[attachmentColor].StoreOp)
	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, a[attachmentColor].FinalLayout)

	assert.Equal(t, vk.FormatD32Sfloat, a[attachmentDepth].Format)
	assert.Equal(t, vk.AttachmentStoreOpDontCare, a[attachmentDepth].StoreOp)
	assert.Equal(t, vk.ImageLayoutDepthStencilAttachmentOptimal, a[attachmentDepth].FinalLayout)

	assert.Equal(t, vk.SampleCount1Bit, a[attachmentResolve].Samples)
	assert.Equal(t, vk.AttachmentLoadOpDontCare, a[attachmentResolve].LoadOp)
	assert.Equal(t, vk.ImageLayoutPresentSrc, a[attachmentResolve].FinalLayout)

	dep := renderpassDependency()
	assert.Equal(t, uint32(vk.SubpassExternal), dep.SrcSubpass)
	assert.Equal(t, vk.AccessFlags(vk.AccessColorAttachmentWriteBit|vk.AccessDepthStencilAttachmentWriteBit), dep.DstAccessMask)
}

func TestDescriptorLayoutAndPool(t *testing.T) {
	b := descriptorBindings()
	require.Len(t, b, 2)
	assert.Equal(t, vk.DescriptorTypeUniformBuffer, b[0].DescriptorType)
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageVertexBit), b[0].StageFlags)
	assert.Equal(t, vk.DescriptorTypeCombinedImageSampler, b[1].DescriptorType)
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), b[1].StageFlags)

	for _, size := range descriptorPoolSizes(MaxFramesInFlight) {
		assert.Equal(t, MaxFramesInFlight, size.DescriptorCount)
	}
}

func TestShaderStageBit(t *testing.T) {
	s, err := shaderStageBit("vertex")
	require.NoError(t, err)
	assert.Equal(t, vk.ShaderStageVertexBit, s)

	s, err = shaderStageBit("frag")
	require.NoError(t, err)
	assert.Equal(t, vk.ShaderStageFragmentBit, s)

	_, err = shaderStageBit("geometry")
	assert.Error(t, err)
}

func TestFullViewport(t *testing.T) {
	vp, sc := fullViewport(vk.Extent2D{Width: 800, Height: 600})
	assert.Equal(t, float32(800), vp.Width)
	assert.Equal(t, float32(600), vp.Height)
	assert.Equal(t, float32(1), vp.MaxDepth)
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, sc.Extent)
}

func TestWaitRetryingRetriesTimeouts(t *testing.T) {
	results := []vk.Result{vk.Timeout, vk.Timeout, vk.Success}
	calls, signaled := 0, false
	err := waitRetrying(func() vk.Result {
		r := results[calls]
		calls++
		return r
	}, func() { signaled = true })
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, signaled)

	err = waitRetrying(func() vk.Result { return vk.ErrorDeviceLost }, func() { t.Fatal("not signaled") })
	assert.Error(t, err)
}
