package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

func (ctx *DeviceContext) createInstance(appName string, windowExtensions []string, validation bool) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
		PEngineName:        VulkanSafeString("Toy Bricks Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := instanceExtensions(windowExtensions, validation, runtime.GOOS)
	if runtime.GOOS == "darwin" {
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}
	core.LogDebug("Required extensions: %v", requiredExtensions)

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	var layers []string
	if validation {
		core.LogInfo("Validation layers enabled. Enumerating...")
		layers = []string{validationLayerName}
		available, err := availableInstanceLayers()
		if err != nil {
			return err
		}
		if missing := missingNames(layers, available); len(missing) > 0 {
			core.LogError("Required validation layer is missing: %v", missing)
			return fmt.Errorf("%w: %v", core.ErrValidationLayerMissing, missing)
		}
		core.LogInfo("All required validation layers are present.")
	}
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if err := vkCheck(vk.CreateInstance(&createInfo, ctx.Allocator, &instance), "vkCreateInstance"); err != nil {
		core.LogError(err.Error())
		return err
	}
	destroy := func(i vk.Instance) { vk.DestroyInstance(i, ctx.Allocator) }
	if err := loadInstance(instance, vk.InitInstance, destroy); err != nil {
		return err
	}
	ctx.Instance = instance
	core.LogInfo("Vulkan Instance created.")
	return nil
}

// loadInstance resolves the instance-level entry points and destroys the
// instance if that fails.
func loadInstance(instance vk.Instance, load func(vk.Instance) error, destroy func(vk.Instance)) error {
	if err := load(instance); err != nil {
		core.LogError("failed to load instance functions: %s", err)
		destroy(instance)
		return err
	}
	return nil
}

// instanceExtensions merges the window's extensions with the debug and
// portability extensions, without duplicates.
func instanceExtensions(windowExtensions []string, validation bool, goos string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(names ...string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(vk.KhrSurfaceExtensionName)
	add(windowExtensions...)
	if goos == "darwin" {
		add("VK_KHR_portability_enumeration", "VK_KHR_get_physical_device_properties2")
	}
	if validation {
		add(vk.ExtDebugReportExtensionName)
	}
	return out
}

func availableInstanceLayers() ([]string, error) {
	var count uint32
	if err := vkCheck(vk.EnumerateInstanceLayerProperties(&count, nil), "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := vkCheck(vk.EnumerateInstanceLayerProperties(&count, props), "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range props {
		props[i].Deref()
		names = append(names, vk.ToString(props[i].LayerName[:]))
	}
	return names, nil
}

func (ctx *DeviceContext) createDebugCallback() error {
	core.LogDebug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit),
		PfnCallback: dbgCallbackFunc,
	}
	var dbg vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(ctx.Instance, &debugCreateInfo, ctx.Allocator, &dbg)); err != nil {
		core.LogError("vk.CreateDebugReportCallback failed with %s", err)
		return err
	}
	ctx.debugCallback = dbg
	core.LogDebug("Vulkan debugger created.")
	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
