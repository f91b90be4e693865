package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererWithoutSwapchainReportsOutOfDate(t *testing.T) {
	vr := &VulkanRenderer{}

	_, res := vr.AcquireImage(0)
	assert.Equal(t, vk.ErrorOutOfDate, res)
	assert.Equal(t, vk.ErrorOutOfDate, vr.Present(1, 0))
}

func TestFrameLoopRetriesAfterFailedRecreate(t *testing.T) {
	boom := errors.New("surface lost")
	driver := &fakeDriver{
		present:     []vk.Result{vk.ErrorOutOfDate},
		recreateErr: []error{boom},
	}
	loop := NewFrameLoop(driver, &fakeWindow{sizes: [][2]uint32{{800, 600}}}, MaxFramesInFlight)

	require.ErrorIs(t, loop.Tick(), boom)
	assert.Equal(t, FrameStateIdle, loop.State())
	assert.Zero(t, loop.Recreations())

	// the renderer now has no swapchain, so acquire comes back out of date
	driver.acquire = []vk.Result{vk.ErrorOutOfDate}
	require.NoError(t, loop.Tick())
	assert.Equal(t, uint64(1), loop.Recreations())

	require.NoError(t, loop.Tick())
	assert.Equal(t, []uint32{0, 0}, driver.slots)
}
