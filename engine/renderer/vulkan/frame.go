package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
)

type FrameState int

const (
	FrameStateIdle FrameState = iota
	FrameStateAcquiring
	FrameStateRecording
	FrameStateSubmitted
	FrameStatePresenting
	FrameStateRecreating
)

func (s FrameState) String() string {
	switch s {
	case FrameStateIdle:
		return "idle"
	case FrameStateAcquiring:
		return "acquiring"
	case FrameStateRecording:
		return "recording"
	case FrameStateSubmitted:
		return "submitted"
	case FrameStatePresenting:
		return "presenting"
	case FrameStateRecreating:
		return "recreating"
	}
	return "unknown"
}

// frameDriver performs the GPU side of each frame step for a slot.
type frameDriver interface {
	WaitForFrame(slot uint32) error
	AcquireImage(slot uint32) (uint32, vk.Result)
	UpdateUniforms(slot uint32) error
	Record(slot, imageIndex uint32) error
	Submit(slot uint32) error
	Present(slot, imageIndex uint32) vk.Result
	// RecreateSwapchain waits for the device to go idle, then rebuilds the
	// swapchain and everything sized to it.
	RecreateSwapchain(width, height uint32) error
}

// FrameLoop sequences one frame per Tick over MaxFramesInFlight slots.
type FrameLoop struct {
	driver frameDriver
	window ResizeSource

	frames       uint32
	currentFrame uint32
	state        FrameState
	recreations  uint64
}

func NewFrameLoop(driver frameDriver, window ResizeSource, frames uint32) *FrameLoop {
	if frames == 0 {
		frames = MaxFramesInFlight
	}
	return &FrameLoop{
		driver: driver,
		window: window,
		frames: frames,
		state:  FrameStateIdle,
	}
}

func (fl *FrameLoop) CurrentFrame() uint32 { return fl.currentFrame }

func (fl *FrameLoop) State() FrameState { return fl.state }

// Recreations counts swapchain rebuilds since the loop was created.
func (fl *FrameLoop) Recreations() uint64 { return fl.recreations }

// Tick renders one frame. Out-of-date or suboptimal swapchains and resize
// notifications are handled here and never returned as errors.
func (fl *FrameLoop) Tick() error {
	slot := fl.currentFrame

	if err := fl.driver.WaitForFrame(slot); err != nil {
		return fl.fail(err)
	}

	fl.state = FrameStateAcquiring
	imageIndex, res := fl.driver.AcquireImage(slot)
	switch res {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		core.LogDebug("swapchain out of date on acquire (frame %d)", slot)
		return fl.Recreate()
	default:
		return fl.fail(fmt.Errorf("acquire next image: %w", vkCheck(res, "vkAcquireNextImageKHR")))
	}

	fl.state = FrameStateRecording
	if err := fl.driver.UpdateUniforms(slot); err != nil {
		return fl.fail(err)
	}
	if err := fl.driver.Record(slot, imageIndex); err != nil {
		return fl.fail(err)
	}
	if err := fl.driver.Submit(slot); err != nil {
		return fl.fail(err)
	}
	fl.state = FrameStateSubmitted

	fl.state = FrameStatePresenting
	res = fl.driver.Present(slot, imageIndex)
	resized := fl.window.ConsumeResized()
	switch {
	case res == vk.ErrorOutOfDate || res == vk.Suboptimal || resized:
		core.LogDebug("recreating swapchain after present (result %s, resized %t)", VulkanResultString(res), resized)
		if err := fl.Recreate(); err != nil {
			return err
		}
	case res != vk.Success:
		return fl.fail(fmt.Errorf("present: %w", vkCheck(res, "vkQueuePresentKHR")))
	}

	fl.currentFrame = (fl.currentFrame + 1) % fl.frames
	fl.state = FrameStateIdle
	return nil
}

// Recreate rebuilds the swapchain-sized resources. It blocks while the
// framebuffer has a zero dimension. The frame counter is left alone.
func (fl *FrameLoop) Recreate() error {
	fl.state = FrameStateRecreating
	fl.window.ConsumeResized()

	width, height := fl.window.FramebufferSize()
	for width == 0 || height == 0 {
		fl.window.WaitEvents()
		width, height = fl.window.FramebufferSize()
	}

	if err := fl.driver.RecreateSwapchain(width, height); err != nil {
		return fl.fail(fmt.Errorf("recreate swapchain: %w", err))
	}
	fl.recreations++
	fl.state = FrameStateIdle
	return nil
}

// fail drops back to idle so a retried Tick starts from a clean state.
func (fl *FrameLoop) fail(err error) error {
	fl.state = FrameStateIdle
	return err
}
