package vulkan

import (
	"errors"
	"fmt"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	sizes   [][2]uint32
	resized bool
	waits   int
}

func (w *fakeWindow) FramebufferSize() (uint32, uint32) {
	s := w.sizes[0]
	if len(w.sizes) > 1 {
		w.sizes = w.sizes[1:]
	}
	return s[0], s[1]
}

func (w *fakeWindow) ConsumeResized() bool {
	r := w.resized
	w.resized = false
	return r
}

func (w *fakeWindow) WaitEvents() { w.waits++ }

// fakeDriver records the frame steps. A slot is in flight from Submit until
// its next WaitForFrame; touching its uniforms or command buffer in between
// is recorded in reused.
type fakeDriver struct {
	calls       []string
	slots       []uint32
	acquire     []vk.Result
	present     []vk.Result
	recreatedAt [][2]uint32
	recreateErr []error
	uniformErr  error
	recordErr   error
	submitErr   error

	inFlight [MaxFramesInFlight]bool
	reused   []string
}

func (d *fakeDriver) WaitForFrame(slot uint32) error {
	d.calls = append(d.calls, "wait")
	d.inFlight[slot] = false
	return nil
}

func (d *fakeDriver) AcquireImage(slot uint32) (uint32, vk.Result) {
	d.calls = append(d.calls, "acquire")
	res := vk.Success
	if len(d.acquire) > 0 {
		res, d.acquire = d.acquire[0], d.acquire[1:]
	}
	return slot + 10, res
}

func (d *fakeDriver) UpdateUniforms(slot uint32) error {
	d.calls = append(d.calls, "uniforms")
	d.slots = append(d.slots, slot)
	if d.inFlight[slot] {
		d.reused = append(d.reused, fmt.Sprintf("uniforms of frame %d", slot))
	}
	return d.uniformErr
}

func (d *fakeDriver) Record(slot, imageIndex uint32) error {
	d.calls = append(d.calls, "record")
	if d.inFlight[slot] {
		d.reused = append(d.reused, fmt.Sprintf("command buffer of frame %d", slot))
	}
	return d.recordErr
}

func (d *fakeDriver) Submit(slot uint32) error {
	d.calls = append(d.calls, "submit")
	if d.submitErr != nil {
		return d.submitErr
	}
	d.inFlight[slot] = true
	return nil
}

func (d *fakeDriver) Present(slot, imageIndex uint32) vk.Result {
	d.calls = append(d.calls, "present")
	res := vk.Success
	if len(d.present) > 0 {
		res, d.present = d.present[0], d.present[1:]
	}
	return res
}

func (d *fakeDriver) RecreateSwapchain(width, height uint32) error {
	d.calls = append(d.calls, "recreate")
	if len(d.recreateErr) > 0 {
		err := d.recreateErr[0]
		d.recreateErr = d.recreateErr[1:]
		return err
	}
	d.recreatedAt = append(d.recreatedAt, [2]uint32{width, height})
	return nil
}

func TestFrameLoopCyclesSlots(t *testing.T) {
	driver := &fakeDriver{}
	loop := NewFrameLoop(driver, &fakeWindow{sizes: [][2]uint32{{800, 600}}}, MaxFramesInFlight)

	for i := 0; i < 3; i++ {
		require.NoError(t, loop.Tick())
	}
	assert.Equal(t, []uint32{0, 1, 0}, driver.slots)
	assert.Equal(t, uint32(1), loop.CurrentFrame())
	assert.Equal(t, FrameStateIdle, loop.State())
	assert.Equal(t, []string{"wait", "acquire", "uniforms", "record", "submit", "present"}, driver.calls[:6])
}

func TestFrameLoopRecreatesOnResizeWithoutResettingFrame(t *testing.T) {
	driver := &fakeDriver{}
	window := &fakeWindow{sizes: [][2]uint32{{1024, 768}}}
	loop := NewFrameLoop(driver, window, MaxFramesInFlight)

	require.NoError(t, loop.Tick())
	require.Equal(t, uint32(1), loop.CurrentFrame())

	window.resized = true
	require.NoError(t, loop.Tick())

	assert.Equal(t, [][2]uint32{{1024, 768}}, driver.recreatedAt)
	assert.Equal(t, uint64(1), loop.Recreations())
	assert.False(t, window.resized)
	// Slot 1 was rendered and the counter advanced as usual.
	assert.Equal(t, []uint32{0, 1}, driver.slots)
	assert.Equal(t, uint32(0), loop.CurrentFrame())
}

func TestFrameLoopOutOfDateAcquireKeepsSlot(t *testing.T) {
	driver := &fakeDriver{acquire: []vk.Result{vk.Success, vk.ErrorOutOfDate}}
	loop := NewFrameLoop(driver, &fakeWindow{sizes: [][2]uint32{{640, 480}}}, MaxFramesInFlight)

	require.NoError(t, loop.Tick())
	require.NoError(t, loop.Tick())

	assert.Equal(t, uint32(1), loop.CurrentFrame())
	assert.Len(t, driver.recreatedAt, 1)
	assert.Equal(t, []uint32{0}, driver.slots, "nothing recorded after an out-of-date acquire")

	require.NoError(t, loop.Tick())
	assert.Equal(t, []uint32{0, 1}, driver.slots)
}

func TestFrameLoopSuboptimalPresentRecreates(t *testing.T) {
	driver := &fakeDriver{present: []vk.Result{vk.Suboptimal}}
	loop := NewFrameLoop(driver, &fakeWindow{sizes: [][2]uint32{{800, 600}}}, MaxFramesInFlight)

	require.NoError(t, loop.Tick())
	assert.Len(t, driver.recreatedAt, 1)
	assert.Equal(t, uint32(1), loop.CurrentFrame())
}

func TestFrameLoopWaitsWhileMinimized(t *testing.T) {
	driver := &fakeDriver{}
	window := &fakeWindow{sizes: [][2]uint32{{0, 0}, {0, 600}, {800, 600}}}
	loop := NewFrameLoop(driver, window, MaxFramesInFlight)

	require.NoError(t, loop.Recreate())
	assert.Equal(t, 2, window.waits)
	assert.Equal(t, [][2]uint32{{800, 600}}, driver.recreatedAt)
}

func TestFrameLoopAcquireFailureIsReturned(t *testing.T) {
	driver := &fakeDriver{acquire: []vk.Result{vk.ErrorDeviceLost}}
	loop := NewFrameLoop(driver, &fakeWindow{sizes: [][2]uint32{{800, 600}}}, MaxFramesInFlight)

	err := loop.Tick()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire")
	assert.Equal(t, uint32(0), loop.CurrentFrame())
}

func TestFrameLoopUniformErrorStopsFrame(t *testing.T) {
	boom := errors.New("boom")
	driver := &fakeDriver{uniformErr: boom}
	loop := NewFrameLoop(driver, &fakeWindow{sizes: [][2]uint32{{800, 600}}}, MaxFramesInFlight)

	require.ErrorIs(t, loop.Tick(), boom)
	assert.NotContains(t, driver.calls, "submit")
}

func TestFrameLoopWaitsBeforeReusingSlot(t *testing.T) {
	driver := &fakeDriver{}
	window := &fakeWindow{sizes: [][2]uint32{{800, 600}}}
	loop := NewFrameLoop(driver, window, MaxFramesInFlight)

	ticks := int(3 * MaxFramesInFlight)
	for i := 0; i < ticks; i++ {
		if i == ticks/2 {
			window.resized = true
		}
		require.NoError(t, loop.Tick())
	}

	assert.Empty(t, driver.reused)
	assert.Equal(t, uint64(1), loop.Recreations())
	assert.Equal(t, []uint32{0, 1, 0, 1, 0, 1}, driver.slots)
	assert.Equal(t, [MaxFramesInFlight]bool{true, true}, driver.inFlight)
}

func TestFakeDriverCatchesReuseWithoutWait(t *testing.T) {
	driver := &fakeDriver{}
	require.NoError(t, driver.Submit(1))
	require.NoError(t, driver.UpdateUniforms(1))
	require.NoError(t, driver.Record(1, 0))
	assert.Len(t, driver.reused, 2)

	require.NoError(t, driver.WaitForFrame(1))
	require.NoError(t, driver.UpdateUniforms(1))
	assert.Len(t, driver.reused, 2)
}

func TestFrameLoopErrorsReturnToIdle(t *testing.T) {
	boom := errors.New("boom")
	cases := map[string]*fakeDriver{
		"uniforms": {uniformErr: boom},
		"record":   {recordErr: boom},
		"submit":   {submitErr: boom},
	}
	for name, driver := range cases {
		t.Run(name, func(t *testing.T) {
			loop := NewFrameLoop(driver, &fakeWindow{sizes: [][2]uint32{{800, 600}}}, MaxFramesInFlight)

			require.ErrorIs(t, loop.Tick(), boom)
			assert.Equal(t, FrameStateIdle, loop.State())
			assert.Equal(t, uint32(0), loop.CurrentFrame())
			assert.NotContains(t, driver.calls, "present")
		})
	}
}
