package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
)

// DeviceContext owns the instance, surface and device. Every GPU object in
// the renderer is created from it and must be destroyed before it.
type DeviceContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugCallback vk.DebugReportCallback

	Device *VulkanDevice
}

// NewDeviceContext creates the instance (with validation when requested),
// the presentation surface and the logical device, in that order.
func NewDeviceContext(window Window, appName string, validation bool) (*DeviceContext, error) {
	ctx := &DeviceContext{}

	procAddr := window.InstanceProcAddr()
	if procAddr == nil {
		return nil, fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return nil, err
	}

	if err := ctx.createInstance(appName, window.RequiredInstanceExtensions(), validation); err != nil {
		return nil, err
	}

	if validation {
		if err := ctx.createDebugCallback(); err != nil {
			ctx.Destroy()
			return nil, err
		}
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := window.CreateSurface(ctx.Instance)
	if err != nil {
		core.LogError("Failed to create platform surface: %s", err)
		ctx.Destroy()
		return nil, err
	}
	ctx.Surface = surface
	core.LogDebug("Vulkan surface created.")

	device, err := DeviceCreate(ctx)
	if err != nil {
		core.LogError("Failed to create device: %s", err)
		ctx.Destroy()
		return nil, err
	}
	ctx.Device = device

	return ctx, nil
}

// Destroy releases device, surface, debug callback and instance. Everything
// created from the context must already be gone.
func (ctx *DeviceContext) Destroy() {
	if ctx.Device != nil {
		core.LogDebug("Destroying Vulkan device...")
		ctx.Device.Destroy(ctx)
		ctx.Device = nil
	}
	if ctx.Surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(ctx.Instance, ctx.Surface, ctx.Allocator)
		ctx.Surface = vk.NullSurface
	}
	if ctx.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(ctx.Instance, ctx.debugCallback, ctx.Allocator)
		ctx.debugCallback = vk.NullDebugReportCallback
	}
	if ctx.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(ctx.Instance, ctx.Allocator)
		ctx.Instance = nil
	}
}

// FindMemoryIndex returns the first memory type allowed by typeFilter whose
// flags include every bit of properties.
func (ctx *DeviceContext) FindMemoryIndex(typeFilter uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(ctx.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	types := make([]vk.MemoryPropertyFlags, memoryProperties.MemoryTypeCount)
	for i := range types {
		memoryProperties.MemoryTypes[i].Deref()
		types[i] = memoryProperties.MemoryTypes[i].PropertyFlags
	}
	index, err := selectMemoryType(types, typeFilter, properties)
	if err != nil {
		core.LogWarn("Unable to find suitable memory type (filter %#x, properties %#x)", typeFilter, uint32(properties))
	}
	return index, err
}

func selectMemoryType(types []vk.MemoryPropertyFlags, typeFilter uint32, required vk.MemoryPropertyFlags) (uint32, error) {
	for i, flags := range types {
		if i >= 32 {
			break
		}
		if typeFilter&(1<<uint(i)) != 0 && flags&required == required {
			return uint32(i), nil
		}
	}
	return 0, core.ErrNoMemoryType
}

// WaitIdle blocks until the device has finished all submitted work.
func (ctx *DeviceContext) WaitIdle() error {
	return vkCheck(vk.DeviceWaitIdle(ctx.Device.LogicalDevice), "vkDeviceWaitIdle")
}
