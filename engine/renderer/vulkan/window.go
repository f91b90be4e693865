package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// ResizeSource is the part of the window the frame loop polls while running.
type ResizeSource interface {
	// FramebufferSize returns the drawable size in pixels.
	FramebufferSize() (uint32, uint32)
	// ConsumeResized returns true once per framebuffer size change.
	ConsumeResized() bool
	// WaitEvents blocks until the window receives an event.
	WaitEvents()
}

// Window is everything the renderer needs from the platform layer.
type Window interface {
	ResizeSource
	InstanceProcAddr() unsafe.Pointer
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}
