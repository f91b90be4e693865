package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/stretchr/testify/assert"
)

var (
	graphicsQueue = vk.QueueFlags(vk.QueueGraphicsBit)
	computeQueue  = vk.QueueFlags(vk.QueueComputeBit)
	transferQueue = vk.QueueFlags(vk.QueueTransferBit)
)

func TestFindQueueFamiliesPrefersSharedFamily(t *testing.T) {
	info := findQueueFamilies(
		[]vk.QueueFlags{computeQueue, graphicsQueue | computeQueue, graphicsQueue},
		[]bool{true, true, false},
	)
	assert.Equal(t, int32(1), info.GraphicsFamilyIndex)
	assert.Equal(t, int32(1), info.PresentFamilyIndex)
	assert.Equal(t, []uint32{1}, info.uniqueFamilies())
}

func TestFindQueueFamiliesSeparatePresent(t *testing.T) {
	info := findQueueFamilies(
		[]vk.QueueFlags{graphicsQueue, transferQueue},
		[]bool{false, true},
	)
	assert.Equal(t, int32(0), info.GraphicsFamilyIndex)
	assert.Equal(t, int32(1), info.PresentFamilyIndex)
	assert.Equal(t, []uint32{0, 1}, info.uniqueFamilies())
}

func TestFindQueueFamiliesIncomplete(t *testing.T) {
	req := &VulkanPhysicalDeviceRequirements{Graphics: true, Present: true}

	info := findQueueFamilies([]vk.QueueFlags{computeQueue}, []bool{true})
	assert.Equal(t, int32(-1), info.GraphicsFamilyIndex)
	assert.False(t, info.complete(req))

	info = findQueueFamilies([]vk.QueueFlags{graphicsQueue}, []bool{false})
	assert.Equal(t, int32(-1), info.PresentFamilyIndex)
	assert.False(t, info.complete(req))
	assert.True(t, info.complete(&VulkanPhysicalDeviceRequirements{Graphics: true}))
}

func TestMissingNames(t *testing.T) {
	available := []string{"VK_KHR_swapchain", "VK_KHR_maintenance1"}
	assert.Empty(t, missingNames([]string{"VK_KHR_swapchain"}, available))
	assert.Equal(t, []string{"VK_KHR_portability_subset"},
		missingNames([]string{"VK_KHR_swapchain", "VK_KHR_portability_subset"}, available))
}

func TestInstanceExtensions(t *testing.T) {
	window := []string{vk.KhrSurfaceExtensionName, "VK_KHR_xcb_surface"}

	got := instanceExtensions(window, false, "linux")
	assert.Equal(t, []string{vk.KhrSurfaceExtensionName, "VK_KHR_xcb_surface"}, got)

	got = instanceExtensions(window, true, "linux")
	assert.Equal(t, vk.KhrSurfaceExtensionName, got[0])
	assert.Equal(t, vk.ExtDebugReportExtensionName, got[len(got)-1])
	assert.Len(t, got, 3)

	got = instanceExtensions([]string{"VK_EXT_metal_surface"}, false, "darwin")
	assert.Contains(t, got, "VK_KHR_portability_enumeration")
	assert.Contains(t, got, "VK_EXT_metal_surface")
}

func TestVulkanSafeStringsDoesNotAlias(t *testing.T) {
	in := []string{"VK_KHR_swapchain", "already\x00"}
	out := VulkanSafeStrings(in)
	assert.Equal(t, []string{"VK_KHR_swapchain\x00", "already\x00"}, out)
	assert.Equal(t, "VK_KHR_swapchain", in[0])
	assert.Equal(t, "\x00", VulkanSafeString(""))
}

func TestVkCheck(t *testing.T) {
	assert.NoError(t, vkCheck(vk.Success, "vkQueueSubmit"))
	assert.NoError(t, vkCheck(vk.Suboptimal, "vkQueuePresentKHR"))

	err := vkCheck(vk.ErrorOutOfDate, "vkQueuePresentKHR")
	assert.ErrorIs(t, err, core.ErrSwapchainOutOfDate)

	err = vkCheck(vk.ErrorDeviceLost, "vkQueueSubmit")
	assert.ErrorContains(t, err, "vkQueueSubmit failed with VK_ERROR_DEVICE_LOST")
	assert.NotErrorIs(t, err, core.ErrSwapchainOutOfDate)
}
