package testbed

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/toybricks/engine"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/components"
)

// dragSensitivity converts cursor pixels into radians when orbiting.
const dragSensitivity float32 = 0.005

type TestGame struct {
	*engine.Game
}

type gameState struct {
	camera *components.Camera
	input  *core.InputState

	width  uint32
	height uint32
	clicks uint32
}

func NewTestGame(cfg *engine.Config) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Config: cfg,
			State:  &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(ctx *engine.Context) error {
	core.LogDebug("TestGame Initialize fn....")
	if ctx == nil || ctx.Camera == nil || ctx.Input == nil {
		return errors.New("the engine did not provide a camera and input state")
	}

	state := g.state()
	state.camera = ctx.Camera
	state.input = ctx.Input

	if ctx.Events != nil {
		ctx.Events.OnClick(g.onClick)
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()

	// drag with the left button to orbit around the model
	if state.input.IsButtonDown(core.BUTTON_LEFT) && state.input.WasButtonDown(core.BUTTON_LEFT) {
		dx, dy := state.input.MouseDelta()
		if dx != 0 {
			state.camera.Yaw(-float32(dx) * dragSensitivity)
		}
		if dy != 0 {
			state.camera.Pitch(float32(dy) * dragSensitivity)
		}
	}

	if state.input.KeyPressed(core.KEY_F1) {
		pos := state.camera.Position
		core.LogInfo("Camera Pos: [%.3f, %.3f, %.3f] Elevation: %.1f deg",
			pos.X(), pos.Y(), pos.Z(), mgl32.RadToDeg(state.camera.Elevation()))
	}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("testbed saw %d clicks", g.state().clicks)
	return nil
}

func (g *TestGame) onClick(e core.ClickEvent) {
	if !e.Pressed {
		return
	}
	state := g.state()
	state.clicks++
	core.LogDebug("click %d at (%.0f, %.0f) in %dx%d", e.Button, e.X, e.Y, state.width, state.height)
}
