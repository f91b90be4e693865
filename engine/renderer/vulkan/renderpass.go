package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
)

// Attachment slots of the main render pass. Framebuffers list their views in
// the same order.
const (
	attachmentColor uint32 = iota
	attachmentDepth
	attachmentResolve
	attachmentCount
)

type VulkanRenderpass struct {
	Handle     vk.RenderPass
	R, G, B, A float32
	Depth      float32
	Stencil    uint32
}

// renderpassAttachments describes the multisampled color target, the depth
// target and the single-sample resolve target that is presented.
func renderpassAttachments(colorFormat, depthFormat vk.Format, samples vk.SampleCountFlagBits) []vk.AttachmentDescription {
	attachments := make([]vk.AttachmentDescription, attachmentCount)
	attachments[attachmentColor] = vk.AttachmentDescription{
		Format:         colorFormat,
		Samples:        samples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
	}
	attachments[attachmentDepth] = vk.AttachmentDescription{
		Format:         depthFormat,
		Samples:        samples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	attachments[attachmentResolve] = vk.AttachmentDescription{
		Format:         colorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpDontCare,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	return attachments
}

func renderpassDependency() vk.SubpassDependency {
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit)
	return vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  stages,
		SrcAccessMask: 0,
		DstStageMask:  stages,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}
}

func RenderpassCreate(ctx *DeviceContext, colorFormat vk.Format) (*VulkanRenderpass, error) {
	rp := &VulkanRenderpass{
		R:       clearColor[0],
		G:       clearColor[1],
		B:       clearColor[2],
		A:       clearColor[3],
		Depth:   clearDepth,
		Stencil: clearStencil,
	}

	attachments := renderpassAttachments(colorFormat, ctx.Device.DepthFormat, ctx.Device.MSAASamples)

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: attachmentColor,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
		PDepthStencilAttachment: &vk.AttachmentReference{
			Attachment: attachmentDepth,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
		PResolveAttachments: []vk.AttachmentReference{{
			Attachment: attachmentResolve,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{renderpassDependency()},
	}

	var handle vk.RenderPass
	if err := vkCheck(vk.CreateRenderPass(ctx.Device.LogicalDevice, &createInfo, ctx.Allocator, &handle), "vkCreateRenderPass"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	rp.Handle = handle
	return rp, nil
}

func (vr *VulkanRenderpass) Destroy(ctx *DeviceContext) {
	if vr.Handle != vk.NullRenderPass {
		vk.DestroyRenderPass(ctx.Device.LogicalDevice, vr.Handle, ctx.Allocator)
		vr.Handle = vk.NullRenderPass
	}
}

// Begin starts the pass over the whole extent, clearing color and depth.
func (vr *VulkanRenderpass) Begin(cb *VulkanCommandBuffer, framebuffer vk.Framebuffer, extent vk.Extent2D) {
	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor([]float32{vr.R, vr.G, vr.B, vr.A})
	clearValues[1].SetDepthStencil(vr.Depth, vr.Stencil)

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	vk.CmdBeginRenderPass(cb.Handle, &beginInfo, vk.SubpassContentsInline)
	cb.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (vr *VulkanRenderpass) End(cb *VulkanCommandBuffer) {
	vk.CmdEndRenderPass(cb.Handle)
	cb.State = COMMAND_BUFFER_STATE_RECORDING
}
