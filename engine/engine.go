package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/toybricks/engine/assets"
	"github.com/spaghettifunk/toybricks/engine/core"
	kmath "github.com/spaghettifunk/toybricks/engine/math"
	"github.com/spaghettifunk/toybricks/engine/platform"
	"github.com/spaghettifunk/toybricks/engine/renderer"
	"github.com/spaghettifunk/toybricks/engine/renderer/components"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
	"github.com/spaghettifunk/toybricks/engine/renderer/vulkan"
	"github.com/spaghettifunk/toybricks/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageBooting:
		return "booting"
	case EngineStageBootComplete:
		return "boot complete"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *Config
	isRunning    atomic.Bool

	bus          *core.EventBus
	input        *core.InputState
	platform     *platform.Platform
	assetManager *assets.AssetManager
	renderer     *renderer.Renderer
	camera       *components.Camera
	model        *kmath.Transform

	clock    *core.Clock
	metrics  *core.Metrics
	lastTime float64
	width    uint32
	height   uint32
}

// assetWorkers decode the model, texture and shaders in parallel.
const assetWorkers = 4

// modelRotation turns the Z-up viking room model to face the camera.
var modelRotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})

func New(g *Game) (*Engine, error) {
	if g == nil {
		return nil, errors.New("engine needs a game instance")
	}
	cfg := g.Config
	if cfg == nil {
		cfg = DefaultConfig()
		g.Config = cfg
	}
	core.SetLogLevel(cfg.Log.Level)

	bus := core.NewEventBus()
	p := platform.New(bus)

	camera := components.NewCamera()
	camera.FOV = cfg.Camera.FOV
	camera.Near = cfg.Camera.Near
	camera.Far = cfg.Camera.Far
	camera.MoveSpeed = cfg.Camera.MoveSpeed
	camera.TurnSpeed = cfg.Camera.TurnSpeed

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		bus:          bus,
		input:        core.NewInputState(),
		platform:     p,
		assetManager: assets.NewAssetManager(cfg.Assets.Root),
		renderer:     renderer.NewVulkan(p),
		camera:       camera,
		model:        kmath.TransformFromRotation(modelRotation),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        cfg.Window.Width,
		height:       cfg.Window.Height,
	}
	e.isRunning.Store(true)
	return e, nil
}

// Initialize opens the window, loads the assets and brings up the renderer.
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageBooting
	cfg := e.config

	e.input.Attach(e.bus)
	e.bus.OnKeyState(e.onKey)
	e.bus.OnWindowClose(e.onWindowClose)
	e.bus.OnWindowResize(e.onResized)

	if err := e.platform.Startup(cfg.Window.Title, cfg.Window.X, cfg.Window.Y, cfg.Window.Width, cfg.Window.Height); err != nil {
		return err
	}
	if err := e.assetManager.Initialize(cfg.Assets.HotReload); err != nil {
		return err
	}
	e.currentStage = EngineStageBootComplete

	rc, err := e.loadRendererConfig()
	if err != nil {
		return err
	}
	err = e.renderer.Initialize(rc)
	// the renderer keeps GPU copies only
	rc.Mesh.Free()
	rc.Texture.Free()
	rc.VertexShader.Free()
	rc.FragmentShader.Free()
	if err != nil {
		return err
	}
	e.renderer.SetUniformSource(e.uniforms)

	if e.gameInstance.FnInitialize != nil {
		ctx := &Context{Camera: e.camera, Input: e.input, Events: e.bus}
		if err := e.gameInstance.FnInitialize(ctx); err != nil {
			return err
		}
	}
	e.width, e.height = e.platform.FramebufferSize()
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized with assets from %s", cfg.Assets.Root)
	return nil
}

func (e *Engine) loadRendererConfig() (*vulkan.RendererConfig, error) {
	cfg := e.config
	var (
		mesh       *metadata.Mesh
		texture    *metadata.TextureData
		vert, frag *metadata.ShaderData
	)

	jobs, err := systems.NewJobSystem(assetWorkers, 0)
	if err != nil {
		return nil, err
	}
	defer jobs.Shutdown()

	err = jobs.RunAll(
		[]string{cfg.Assets.Model, cfg.Assets.Texture, cfg.Assets.VertexShader, cfg.Assets.FragmentShader},
		[]func() error{
			func() (err error) {
				if mesh, err = e.assetManager.LoadModel(cfg.Assets.Model); err != nil {
					return fmt.Errorf("failed to load model: %w", err)
				}
				return nil
			},
			func() (err error) {
				if texture, err = e.assetManager.LoadTexture(cfg.Assets.Texture); err != nil {
					return fmt.Errorf("failed to load texture: %w", err)
				}
				return nil
			},
			func() (err error) {
				if vert, err = e.assetManager.LoadShader(cfg.Assets.VertexShader, "vert"); err != nil {
					return fmt.Errorf("failed to load vertex shader: %w", err)
				}
				return nil
			},
			func() (err error) {
				if frag, err = e.assetManager.LoadShader(cfg.Assets.FragmentShader, "frag"); err != nil {
					return fmt.Errorf("failed to load fragment shader: %w", err)
				}
				return nil
			},
		})
	if err != nil {
		return nil, err
	}
	core.LogInfo("loaded %s (%d vertices, %d indices) and %s (%dx%d)",
		filepath.Base(cfg.Assets.Model), len(mesh.Vertices), len(mesh.Indices),
		filepath.Base(cfg.Assets.Texture), texture.Width, texture.Height)

	return &vulkan.RendererConfig{
		AppName:        cfg.Window.Title,
		Validation:     cfg.Renderer.Validation,
		FenceTimeout:   cfg.Renderer.FenceTimeoutNS,
		Mesh:           mesh,
		Texture:        texture,
		VertexShader:   vert,
		FragmentShader: frag,
	}, nil
}

func (e *Engine) uniforms(width, height uint32) metadata.UniformBufferObject {
	return buildUniforms(e.model.GetWorld(), e.camera, width, height)
}

// buildUniforms fills the per-frame matrices for a swapchain of the given size.
func buildUniforms(model mgl32.Mat4, camera *components.Camera, width, height uint32) metadata.UniformBufferObject {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	return metadata.UniformBufferObject{
		Model: model,
		View:  camera.GetView(),
		Proj:  camera.Projection(aspect),
	}
}

// Run ticks until the window closes, Escape is pressed or Stop is called.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("cannot run engine in stage '%s'", e.currentStage)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() {
		e.platform.PumpMessages()
		if e.platform.ShouldClose() {
			e.isRunning.Store(false)
			break
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := time.Now()

		e.camera.HandleInput(e.input, delta)

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("game update failed, shutting down: %s", err)
				return err
			}
		}

		if err := e.renderer.DrawFrame(); err != nil {
			return err
		}

		if e.metrics.Update(time.Since(frameStartTime).Seconds()) {
			core.LogDebug("FPS: %5.1f (%4.2fms)", e.metrics.FPS(), e.metrics.FrameTime())
		}
		e.reportAssetChanges()

		// NOTE: input state must roll over after everything that reads it
		// this frame.
		e.input.Update()

		e.lastTime = currentTime
	}
	return nil
}

// Stop asks the run loop to exit after the current tick. Safe from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) reportAssetChanges() {
	for _, path := range e.assetManager.DrainChanges() {
		if info, ok := e.assetManager.Known(path); ok {
			core.LogInfo("asset %s (%s) changed on disk; restart to upload it", path, info.Type)
			continue
		}
		core.LogDebug("untracked file %s changed", path)
	}
}

// Shutdown tears everything down in reverse order of Initialize.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	errs = append(errs, e.renderer.Shutdown())
	e.assetManager.Shutdown()
	errs = append(errs, e.platform.Shutdown())
	core.LogInfo("engine shut down")
	return errors.Join(errs...)
}

// RegisterDrawCallback hands an overlay recorder to the renderer. It runs
// inside the render pass after the model each frame.
func (e *Engine) RegisterDrawCallback(cb vulkan.DrawCallback) {
	e.renderer.RegisterDrawCallback(cb)
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// GetFramebufferSize returns the width and height (in this order) of the
// application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onKey(ke core.KeyStateEvent) {
	if ke.Pressed && ke.Key == core.KEY_ESCAPE {
		core.LogInfo("escape pressed, shutting down.")
		e.isRunning.Store(false)
	}
}

func (e *Engine) onWindowClose(core.WindowCloseEvent) {
	core.LogInfo("window close requested, shutting down.")
	e.isRunning.Store(false)
}

func (e *Engine) onResized(re core.WindowResizeEvent) {
	if re.Width == e.width && re.Height == e.height {
		return
	}
	e.width, e.height = re.Width, re.Height
	if re.Width == 0 || re.Height == 0 {
		core.LogDebug("window minimized")
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(re.Width, re.Height); err != nil {
			core.LogError("game resize handler failed: %s", err)
		}
	}
}
