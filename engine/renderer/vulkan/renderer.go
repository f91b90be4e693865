package vulkan

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
)

// RendererConfig carries everything needed to bring up the renderer. Host
// copies of the assets may be freed once Initialize returns.
type RendererConfig struct {
	AppName      string
	Validation   bool
	FenceTimeout uint64

	Mesh           *metadata.Mesh
	Texture        *metadata.TextureData
	VertexShader   *metadata.ShaderData
	FragmentShader *metadata.ShaderData
}

// UniformSource produces the matrices for the next frame given the current
// swapchain extent.
type UniformSource func(width, height uint32) metadata.UniformBufferObject

type VulkanRenderer struct {
	window Window
	ctx    *DeviceContext

	swapchain    *VulkanSwapchain
	colorImage   *VulkanImage
	depthImage   *VulkanImage
	framebuffers []*VulkanFramebuffer

	renderpass  *VulkanRenderpass
	descriptors VulkanDescriptors
	pipeline    *VulkanPipeline

	texture  *VulkanTexture
	model    *VulkanModel
	uniforms []*UniformBuffer

	commandBuffers []*VulkanCommandBuffer
	frameSync      []*FrameSync
	loop           *FrameLoop

	fenceTimeout  uint64
	drawCallbacks []DrawCallback
	uniformSource UniformSource
}

func New(window Window) *VulkanRenderer {
	return &VulkanRenderer{
		window:       window,
		fenceTimeout: DefaultFenceTimeout,
	}
}

// Initialize builds every GPU object in dependency order. On failure the
// objects created so far are released.
func (vr *VulkanRenderer) Initialize(cfg *RendererConfig) error {
	if cfg.FenceTimeout > 0 {
		vr.fenceTimeout = cfg.FenceTimeout
	}
	if err := vr.initialize(cfg); err != nil {
		core.LogError("renderer initialization failed: %s", err)
		vr.Shutdown()
		return err
	}
	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) initialize(cfg *RendererConfig) error {
	ctx, err := NewDeviceContext(vr.window, cfg.AppName, cfg.Validation)
	if err != nil {
		return err
	}
	vr.ctx = ctx

	if err := ctx.Device.DetectDepthFormat(); err != nil {
		return err
	}

	width, height := vr.window.FramebufferSize()
	if vr.swapchain, err = SwapchainCreate(ctx, width, height); err != nil {
		return err
	}

	if vr.renderpass, err = RenderpassCreate(ctx, vr.swapchain.ImageFormat.Format); err != nil {
		return err
	}
	if err := vr.descriptors.InitLayout(ctx); err != nil {
		return err
	}
	if err := vr.createPipeline(cfg.VertexShader, cfg.FragmentShader); err != nil {
		return err
	}
	if err := vr.createTargets(); err != nil {
		return err
	}

	if vr.texture, err = TextureCreate(ctx, cfg.Texture); err != nil {
		return err
	}
	if vr.model, err = ModelCreate(ctx, cfg.Mesh); err != nil {
		return err
	}
	if vr.uniforms, err = UniformBuffersCreate(ctx, MaxFramesInFlight); err != nil {
		return err
	}

	if err := vr.descriptors.InitPool(ctx, MaxFramesInFlight); err != nil {
		return err
	}
	if err := vr.descriptors.InitSets(ctx, vr.uniforms, vr.texture); err != nil {
		return err
	}

	vr.commandBuffers = make([]*VulkanCommandBuffer, 0, MaxFramesInFlight)
	for i := uint32(0); i < MaxFramesInFlight; i++ {
		cb, err := NewVulkanCommandBuffer(ctx, ctx.Device.GraphicsCommandPool, true)
		if err != nil {
			return err
		}
		vr.commandBuffers = append(vr.commandBuffers, cb)
	}

	if vr.frameSync, err = FrameSyncCreate(ctx, MaxFramesInFlight); err != nil {
		return err
	}

	vr.loop = NewFrameLoop(vr, vr.window, MaxFramesInFlight)
	return nil
}

// createPipeline compiles both stages; the modules are released once the
// pipeline exists.
func (vr *VulkanRenderer) createPipeline(vertex, fragment *metadata.ShaderData) error {
	vert, err := ShaderStageCreate(vr.ctx, vertex)
	if err != nil {
		return err
	}
	defer vert.Destroy(vr.ctx)
	frag, err := ShaderStageCreate(vr.ctx, fragment)
	if err != nil {
		return err
	}
	defer frag.Destroy(vr.ctx)

	vr.pipeline, err = NewGraphicsPipeline(vr.ctx, &VulkanPipelineConfig{
		Renderpass:           vr.renderpass,
		DescriptorSetLayouts: []vk.DescriptorSetLayout{vr.descriptors.Layout},
		Stages:               []vk.PipelineShaderStageCreateInfo{vert.CreateInfo(), frag.CreateInfo()},
		Samples:              vr.ctx.Device.MSAASamples,
		SampleShading:        vr.ctx.Device.Features.SampleRateShading == vk.True,
	})
	return err
}

// createTargets builds color, depth and one framebuffer per swapchain image.
func (vr *VulkanRenderer) createTargets() error {
	var err error
	extent := vr.swapchain.Extent
	if vr.colorImage, err = colorAttachmentCreate(vr.ctx, vr.swapchain.ImageFormat.Format, extent); err != nil {
		return err
	}
	if vr.depthImage, err = depthAttachmentCreate(vr.ctx, extent); err != nil {
		return err
	}
	vr.framebuffers = make([]*VulkanFramebuffer, 0, len(vr.swapchain.Views))
	for _, view := range vr.swapchain.Views {
		fb, err := FramebufferCreate(vr.ctx, vr.renderpass, extent,
			framebufferAttachments(vr.colorImage.View, vr.depthImage.View, view))
		if err != nil {
			return err
		}
		vr.framebuffers = append(vr.framebuffers, fb)
	}
	return nil
}

// destroySwapchainResources releases attachments, framebuffers and the
// swapchain. The render pass, pipeline and descriptors survive.
func (vr *VulkanRenderer) destroySwapchainResources() {
	if vr.colorImage != nil {
		vr.colorImage.Destroy(vr.ctx)
		vr.colorImage = nil
	}
	if vr.depthImage != nil {
		vr.depthImage.Destroy(vr.ctx)
		vr.depthImage = nil
	}
	for _, fb := range vr.framebuffers {
		fb.Destroy(vr.ctx)
	}
	vr.framebuffers = nil
	if vr.swapchain != nil {
		vr.swapchain.Destroy(vr.ctx)
		vr.swapchain = nil
	}
}

func (vr *VulkanRenderer) SetUniformSource(source UniformSource) {
	vr.uniformSource = source
}

// DrawFrame renders one frame.
func (vr *VulkanRenderer) DrawFrame() error {
	if vr.loop == nil {
		return fmt.Errorf("renderer not initialized")
	}
	return vr.loop.Tick()
}

// Recreations reports how many times the swapchain was rebuilt.
func (vr *VulkanRenderer) Recreations() uint64 {
	if vr.loop == nil {
		return 0
	}
	return vr.loop.Recreations()
}

func (vr *VulkanRenderer) WaitForFrame(slot uint32) error {
	return vr.frameSync[slot].InFlight.Wait(vr.ctx, vr.fenceTimeout)
}

// AcquireImage reports a missing swapchain, left by a failed recreation, as
// out of date so the frame loop tries to rebuild it.
func (vr *VulkanRenderer) AcquireImage(slot uint32) (uint32, vk.Result) {
	if vr.swapchain == nil {
		return 0, vk.ErrorOutOfDate
	}
	return vr.swapchain.AcquireNextImage(vr.ctx, vr.frameSync[slot].ImageAvailable)
}

func (vr *VulkanRenderer) UpdateUniforms(slot uint32) error {
	ubo := metadata.UniformBufferObject{
		Model: mgl32.Ident4(),
		View:  mgl32.Ident4(),
		Proj:  mgl32.Ident4(),
	}
	if vr.uniformSource != nil {
		ubo = vr.uniformSource(vr.swapchain.Extent.Width, vr.swapchain.Extent.Height)
	}
	if err := vr.uniforms[slot].UpdateObject(&ubo); err != nil {
		core.LogError("uniform update for frame %d: %s", slot, err)
		return err
	}
	return nil
}

// Submit resets the slot fence and queues its command buffer.
func (vr *VulkanRenderer) Submit(slot uint32) error {
	fs := vr.frameSync[slot]
	if err := fs.InFlight.Reset(vr.ctx); err != nil {
		return err
	}

	cb := vr.commandBuffers[slot]
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{fs.ImageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{fs.RenderFinished},
	}
	if err := vkCheck(vk.QueueSubmit(vr.ctx.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fs.InFlight.Handle), "vkQueueSubmit"); err != nil {
		core.LogError(err.Error())
		return err
	}
	cb.UpdateSubmitted()
	return nil
}

func (vr *VulkanRenderer) Present(slot, imageIndex uint32) vk.Result {
	if vr.swapchain == nil {
		return vk.ErrorOutOfDate
	}
	return vr.swapchain.Present(vr.ctx.Device.PresentQueue, vr.frameSync[slot].RenderFinished, imageIndex)
}

func (vr *VulkanRenderer) RecreateSwapchain(width, height uint32) error {
	if err := vr.ctx.WaitIdle(); err != nil {
		return err
	}
	vr.destroySwapchainResources()

	swapchain, err := SwapchainCreate(vr.ctx, width, height)
	if err != nil {
		return err
	}
	vr.swapchain = swapchain
	if err := vr.createTargets(); err != nil {
		// leave no half-built chain behind for AcquireImage
		vr.destroySwapchainResources()
		return err
	}
	core.LogDebug("swapchain recreated at %dx%d", vr.swapchain.Extent.Width, vr.swapchain.Extent.Height)
	return nil
}

// Shutdown waits for the device to go idle and destroys everything in
// reverse creation order. Safe on a partially initialized renderer.
func (vr *VulkanRenderer) Shutdown() error {
	if vr.ctx == nil {
		return nil
	}
	var waitErr error
	if vr.ctx.Device != nil {
		waitErr = vr.ctx.WaitIdle()

		for _, fs := range vr.frameSync {
			fs.Destroy(vr.ctx)
		}
		vr.frameSync = nil
		for _, cb := range vr.commandBuffers {
			cb.Free(vr.ctx, vr.ctx.Device.GraphicsCommandPool)
		}
		vr.commandBuffers = nil

		for _, ub := range vr.uniforms {
			ub.Destroy(vr.ctx)
		}
		vr.uniforms = nil
		if vr.model != nil {
			vr.model.Destroy(vr.ctx)
			vr.model = nil
		}
		if vr.texture != nil {
			vr.texture.Destroy(vr.ctx)
			vr.texture = nil
		}

		vr.destroySwapchainResources()

		if vr.pipeline != nil {
			vr.pipeline.Destroy(vr.ctx)
			vr.pipeline = nil
		}
		vr.descriptors.Destroy(vr.ctx)
		if vr.renderpass != nil {
			vr.renderpass.Destroy(vr.ctx)
			vr.renderpass = nil
		}
	}

	vr.ctx.Destroy()
	vr.ctx = nil
	vr.loop = nil
	core.LogInfo("Vulkan renderer shut down.")
	return waitErr
}
