package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	SwapchainSupport   *VulkanSwapchainSupportInfo
	GraphicsQueueIndex uint32
	PresentQueueIndex  uint32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	DepthFormat vk.Format
	MSAASamples vk.SampleCountFlagBits
}

type VulkanPhysicalDeviceRequirements struct {
	Graphics             bool
	Present              bool
	DeviceExtensionNames []string
	SamplerAnisotropy    bool
}

type VulkanPhysicalDeviceQueueFamilyInfo struct {
	GraphicsFamilyIndex int32
	PresentFamilyIndex  int32
}

func (q VulkanPhysicalDeviceQueueFamilyInfo) complete(req *VulkanPhysicalDeviceRequirements) bool {
	return (!req.Graphics || q.GraphicsFamilyIndex >= 0) && (!req.Present || q.PresentFamilyIndex >= 0)
}

// uniqueFamilies lists the queue families to create queues for, graphics first.
func (q VulkanPhysicalDeviceQueueFamilyInfo) uniqueFamilies() []uint32 {
	families := []uint32{uint32(q.GraphicsFamilyIndex)}
	if q.PresentFamilyIndex != q.GraphicsFamilyIndex {
		families = append(families, uint32(q.PresentFamilyIndex))
	}
	return families
}

// findQueueFamilies picks the first graphics family and prefers a present
// family that coincides with it.
func findQueueFamilies(flags []vk.QueueFlags, presentSupport []bool) VulkanPhysicalDeviceQueueFamilyInfo {
	info := VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: -1, PresentFamilyIndex: -1}
	for i, f := range flags {
		if info.GraphicsFamilyIndex < 0 && f&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			info.GraphicsFamilyIndex = int32(i)
		}
	}
	if info.GraphicsFamilyIndex >= 0 && int(info.GraphicsFamilyIndex) < len(presentSupport) && presentSupport[info.GraphicsFamilyIndex] {
		info.PresentFamilyIndex = info.GraphicsFamilyIndex
		return info
	}
	for i, ok := range presentSupport {
		if ok {
			info.PresentFamilyIndex = int32(i)
			break
		}
	}
	return info
}

// DeviceCreate selects a physical device and creates the logical device,
// its queues and the graphics command pool.
func DeviceCreate(ctx *DeviceContext) (*VulkanDevice, error) {
	device, queueInfo, err := selectPhysicalDevice(ctx)
	if err != nil {
		return nil, err
	}

	core.LogInfo("Creating logical device...")
	families := queueInfo.uniqueFamilies()
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{
		SamplerAnisotropy: vk.True,
		SampleRateShading: device.Features.SampleRateShading,
	}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	available, err := deviceExtensionNames(device.PhysicalDevice)
	if err != nil {
		return nil, err
	}
	if len(missingNames([]string{"VK_KHR_portability_subset"}, available)) == 0 {
		core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
		extensionNames = append(extensionNames, "VK_KHR_portability_subset")
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	var logical vk.Device
	if err := vkCheck(vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, ctx.Allocator, &logical), "vkCreateDevice"); err != nil {
		return nil, err
	}
	device.LogicalDevice = logical
	core.LogInfo("Logical device created.")

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(device.LogicalDevice, device.GraphicsQueueIndex, 0, &graphicsQueue)
	vk.GetDeviceQueue(device.LogicalDevice, device.PresentQueueIndex, 0, &presentQueue)
	device.GraphicsQueue = graphicsQueue
	device.PresentQueue = presentQueue
	core.LogInfo("Queues obtained.")

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: device.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := vkCheck(vk.CreateCommandPool(device.LogicalDevice, &poolCreateInfo, ctx.Allocator, &pool), "vkCreateCommandPool"); err != nil {
		vk.DestroyDevice(device.LogicalDevice, ctx.Allocator)
		return nil, err
	}
	device.GraphicsCommandPool = pool
	core.LogInfo("Graphics command pool created.")

	return device, nil
}

func (d *VulkanDevice) Destroy(ctx *DeviceContext) {
	d.GraphicsQueue = nil
	d.PresentQueue = nil

	core.LogInfo("Destroying command pools...")
	vk.DestroyCommandPool(d.LogicalDevice, d.GraphicsCommandPool, ctx.Allocator)

	core.LogInfo("Destroying logical device...")
	vk.DestroyDevice(d.LogicalDevice, ctx.Allocator)
	d.LogicalDevice = nil

	// Physical devices are not destroyed.
	d.PhysicalDevice = nil
	d.SwapchainSupport = nil
}

func selectPhysicalDevice(ctx *DeviceContext) (*VulkanDevice, VulkanPhysicalDeviceQueueFamilyInfo, error) {
	var none VulkanPhysicalDeviceQueueFamilyInfo
	var physicalDeviceCount uint32
	if err := vkCheck(vk.EnumeratePhysicalDevices(ctx.Instance, &physicalDeviceCount, nil), "vkEnumeratePhysicalDevices"); err != nil {
		return nil, none, err
	}
	if physicalDeviceCount == 0 {
		core.LogError("No devices which support Vulkan were found.")
		return nil, none, core.ErrNoSuitableDevice
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if err := vkCheck(vk.EnumeratePhysicalDevices(ctx.Instance, &physicalDeviceCount, physicalDevices), "vkEnumeratePhysicalDevices"); err != nil {
		return nil, none, err
	}

	requirements := &VulkanPhysicalDeviceRequirements{
		Graphics:             true,
		Present:              true,
		SamplerAnisotropy:    true,
		DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
	}

	for _, pd := range physicalDevices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(pd, &properties)
		properties.Deref()
		properties.Limits.Deref()

		var features vk.PhysicalDeviceFeatures
		vk.GetPhysicalDeviceFeatures(pd, &features)
		features.Deref()

		var memory vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(pd, &memory)
		memory.Deref()

		queueInfo, support, ok := physicalDeviceMeetsRequirements(pd, ctx.Surface, &properties, &features, requirements)
		if !ok {
			continue
		}

		device := &VulkanDevice{
			PhysicalDevice:     pd,
			GraphicsQueueIndex: uint32(queueInfo.GraphicsFamilyIndex),
			PresentQueueIndex:  uint32(queueInfo.PresentFamilyIndex),
			SwapchainSupport:   support,
			Properties:         properties,
			Features:           features,
			Memory:             memory,
			MSAASamples: maxUsableSampleCount(
				properties.Limits.FramebufferColorSampleCounts,
				properties.Limits.FramebufferDepthSampleCounts),
		}
		logDeviceInfo(&properties, &memory)
		core.LogInfo("MSAA samples: %d", uint32(device.MSAASamples))
		core.LogInfo("Physical device selected.")
		return device, queueInfo, nil
	}

	core.LogError("No physical devices were found which meet the requirements.")
	return nil, none, core.ErrNoSuitableDevice
}

func logDeviceInfo(properties *vk.PhysicalDeviceProperties, memory *vk.PhysicalDeviceMemoryProperties) {
	core.LogInfo("Selected device: '%s'.", vk.ToString(properties.DeviceName[:]))
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}
	core.LogInfo("GPU Driver version: %d.%d.%d",
		vk.Version(properties.DriverVersion).Major(),
		vk.Version(properties.DriverVersion).Minor(),
		vk.Version(properties.DriverVersion).Patch())
	core.LogInfo("Vulkan API version: %d.%d.%d",
		vk.Version(properties.ApiVersion).Major(),
		vk.Version(properties.ApiVersion).Minor(),
		vk.Version(properties.ApiVersion).Patch())
	for j := uint32(0); j < memory.MemoryHeapCount; j++ {
		memory.MemoryHeaps[j].Deref()
		sizeGiB := float64(memory.MemoryHeaps[j].Size) / 1024.0 / 1024.0 / 1024.0
		if vk.MemoryHeapFlagBits(memory.MemoryHeaps[j].Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			core.LogInfo("Local GPU memory: %.2f GiB", sizeGiB)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", sizeGiB)
		}
	}
}

func physicalDeviceMeetsRequirements(
	device vk.PhysicalDevice,
	surface vk.Surface,
	properties *vk.PhysicalDeviceProperties,
	features *vk.PhysicalDeviceFeatures,
	requirements *VulkanPhysicalDeviceRequirements,
) (VulkanPhysicalDeviceQueueFamilyInfo, *VulkanSwapchainSupportInfo, bool) {
	name := vk.ToString(properties.DeviceName[:])

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	flags := make([]vk.QueueFlags, queueFamilyCount)
	presentSupport := make([]bool, queueFamilyCount)
	for i := range queueFamilies {
		queueFamilies[i].Deref()
		flags[i] = queueFamilies[i].QueueFlags
		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &supportsPresent); res != vk.Success {
			core.LogWarn("vkGetPhysicalDeviceSurfaceSupport failed for '%s': %s", name, VulkanResultString(res))
			return VulkanPhysicalDeviceQueueFamilyInfo{}, nil, false
		}
		presentSupport[i] = supportsPresent == vk.True
	}

	queueInfo := findQueueFamilies(flags, presentSupport)
	core.LogDebug("'%s' graphics family %d, present family %d", name, queueInfo.GraphicsFamilyIndex, queueInfo.PresentFamilyIndex)
	if !queueInfo.complete(requirements) {
		core.LogInfo("Device '%s' lacks required queue families, skipping.", name)
		return queueInfo, nil, false
	}

	available, err := deviceExtensionNames(device)
	if err != nil {
		return queueInfo, nil, false
	}
	if missing := missingNames(requirements.DeviceExtensionNames, available); len(missing) > 0 {
		core.LogInfo("Required extensions not found: %v, skipping device.", missing)
		return queueInfo, nil, false
	}

	support, err := QuerySwapchainSupport(device, surface)
	if err != nil || len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		core.LogInfo("Required swapchain support not present, skipping device.")
		return queueInfo, nil, false
	}

	if requirements.SamplerAnisotropy && features.SamplerAnisotropy == vk.False {
		core.LogInfo("Device does not support samplerAnisotropy, skipping.")
		return queueInfo, nil, false
	}
	core.LogInfo("Device '%s' meets requirements.", name)
	return queueInfo, support, true
}

func deviceExtensionNames(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vkCheck(vk.EnumerateDeviceExtensionProperties(device, "", &count, nil), "vkEnumerateDeviceExtensionProperties"); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := vkCheck(vk.EnumerateDeviceExtensionProperties(device, "", &count, props), "vkEnumerateDeviceExtensionProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range props {
		props[i].Deref()
		names = append(names, vk.ToString(props[i].ExtensionName[:]))
	}
	return names, nil
}

// QuerySwapchainSupport reads the surface capabilities, formats and present modes.
func QuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface) (*VulkanSwapchainSupportInfo, error) {
	info := &VulkanSwapchainSupportInfo{}
	if err := vkCheck(vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &info.Capabilities), "vkGetPhysicalDeviceSurfaceCapabilitiesKHR"); err != nil {
		return nil, err
	}
	info.Capabilities.Deref()
	info.Capabilities.CurrentExtent.Deref()
	info.Capabilities.MinImageExtent.Deref()
	info.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := vkCheck(vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil), "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
		return nil, err
	}
	if formatCount > 0 {
		info.Formats = make([]vk.SurfaceFormat, formatCount)
		if err := vkCheck(vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, info.Formats), "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
			return nil, err
		}
		for i := range info.Formats {
			info.Formats[i].Deref()
		}
	}

	var modeCount uint32
	if err := vkCheck(vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &modeCount, nil), "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
		return nil, err
	}
	if modeCount > 0 {
		info.PresentModes = make([]vk.PresentMode, modeCount)
		if err := vkCheck(vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &modeCount, info.PresentModes), "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// DetectDepthFormat stores the first depth format usable as an optimal-tiling attachment.
func (d *VulkanDevice) DetectDepthFormat() error {
	format, err := findSupportedFormat(
		func(f vk.Format) vk.FormatProperties { return d.formatProperties(f) },
		[]vk.Format{vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint},
		vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit),
	)
	if err != nil {
		d.DepthFormat = vk.FormatUndefined
		return fmt.Errorf("depth format: %w", err)
	}
	d.DepthFormat = format
	return nil
}

func (d *VulkanDevice) formatProperties(format vk.Format) vk.FormatProperties {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.PhysicalDevice, format, &props)
	props.Deref()
	return props
}
