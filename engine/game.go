package engine

import (
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/components"
)

// Game is the set of callbacks the engine drives. Any of them may be nil.
type Game struct {
	Config       *Config
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

// Context is what the engine hands to the game once it is initialized.
type Context struct {
	Camera *components.Camera
	Input  *core.InputState
	Events *core.EventBus
}

type Initialize func(ctx *Context) error
type Update func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
