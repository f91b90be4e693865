package renderer

import (
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/vulkan"
)

// RendererBackend is implemented by the Vulkan renderer.
type RendererBackend interface {
	Initialize(cfg *vulkan.RendererConfig) error
	Shutdown() error
	DrawFrame() error
	RegisterDrawCallback(cb vulkan.DrawCallback)
	SetUniformSource(source vulkan.UniformSource)
	Recreations() uint64
}

type RendererType uint8

const (
	Vulkan RendererType = iota
)

// Renderer is the frontend the engine drives once per tick.
type Renderer struct {
	backend RendererBackend
	frames  uint64
}

func New(backend RendererBackend) *Renderer {
	return &Renderer{backend: backend}
}

// NewVulkan builds a renderer backed by Vulkan and presenting to window.
func NewVulkan(window vulkan.Window) *Renderer {
	return New(vulkan.New(window))
}

func (r *Renderer) Initialize(cfg *vulkan.RendererConfig) error {
	return r.backend.Initialize(cfg)
}

func (r *Renderer) Shutdown() error {
	core.LogInfo("renderer drew %d frames with %d swapchain rebuilds", r.frames, r.backend.Recreations())
	return r.backend.Shutdown()
}

func (r *Renderer) DrawFrame() error {
	if err := r.backend.DrawFrame(); err != nil {
		core.LogError("DrawFrame failed: %s", err)
		return err
	}
	r.frames++
	return nil
}

func (r *Renderer) Frames() uint64 { return r.frames }

func (r *Renderer) RegisterDrawCallback(cb vulkan.DrawCallback) {
	r.backend.RegisterDrawCallback(cb)
}

func (r *Renderer) SetUniformSource(source vulkan.UniformSource) {
	r.backend.SetUniformSource(source)
}
