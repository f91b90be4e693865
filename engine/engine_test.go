package engine

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/toybricks/engine/assets/loaders"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/components"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, g *Game) *Engine {
	t.Helper()
	e, err := New(g)
	require.NoError(t, err)
	return e
}

func TestNewRequiresGame(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNewAppliesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Camera.FOV = 60
	cfg.Camera.MoveSpeed = 7
	e := newTestEngine(t, &Game{Config: cfg})

	assert.Equal(t, EngineStageUninitialized, e.Stage())
	assert.Equal(t, float32(60), e.camera.FOV)
	assert.Equal(t, float32(7), e.camera.MoveSpeed)
	w, h := e.GetFramebufferSize()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)
}

func TestNewFillsDefaultConfig(t *testing.T) {
	g := &Game{}
	newTestEngine(t, g)
	assert.Equal(t, DefaultConfig(), g.Config)
}

func TestRunRequiresInitialize(t *testing.T) {
	e := newTestEngine(t, &Game{})
	assert.Error(t, e.Run())
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "running", EngineStageRunning.String())
	assert.Equal(t, "shutting down", EngineStageShuttingDown.String())
	assert.Equal(t, "stage(42)", Stage(42).String())
}

func TestEscapeStopsEngine(t *testing.T) {
	e := newTestEngine(t, &Game{})

	e.bus.OnKeyState(e.onKey)
	e.bus.Dispatch(core.KeyStateEvent{Key: core.KEY_ESCAPE, Pressed: false})
	assert.True(t, e.isRunning.Load())

	e.bus.Dispatch(core.KeyStateEvent{Key: core.KEY_W, Pressed: true})
	assert.True(t, e.isRunning.Load())

	e.bus.Dispatch(core.KeyStateEvent{Key: core.KEY_ESCAPE, Pressed: true})
	assert.False(t, e.isRunning.Load())
}

func TestWindowCloseStopsEngine(t *testing.T) {
	e := newTestEngine(t, &Game{})
	e.bus.OnWindowClose(e.onWindowClose)
	e.bus.Dispatch(core.WindowCloseEvent{})
	assert.False(t, e.isRunning.Load())
}

func TestStop(t *testing.T) {
	e := newTestEngine(t, &Game{})
	done := make(chan struct{})
	go func() {
		e.Stop()
		close(done)
	}()
	<-done
	assert.False(t, e.isRunning.Load())
}

func TestResizeNotifiesGameOnce(t *testing.T) {
	var sizes [][2]uint32
	g := &Game{
		FnOnResize: func(w, h uint32) error {
			sizes = append(sizes, [2]uint32{w, h})
			return nil
		},
	}
	e := newTestEngine(t, g)
	e.bus.OnWindowResize(e.onResized)

	e.bus.Dispatch(core.WindowResizeEvent{Width: 1024, Height: 768})
	e.bus.Dispatch(core.WindowResizeEvent{Width: 1024, Height: 768})
	e.bus.Dispatch(core.WindowResizeEvent{Width: 0, Height: 0})

	assert.Equal(t, [][2]uint32{{1024, 768}, {0, 0}}, sizes)
	w, h := e.GetFramebufferSize()
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestBuildUniforms(t *testing.T) {
	camera := components.NewCamera()
	model := mgl32.HomogRotate3DZ(mgl32.DegToRad(90))

	ubo := buildUniforms(model, camera, 800, 600)
	assert.Equal(t, model, ubo.Model)
	assert.Equal(t, camera.GetView(), ubo.View)
	assert.Equal(t, camera.Projection(800.0/600.0), ubo.Proj)
	assert.Less(t, ubo.Proj.At(1, 1), float32(0))

	// a zero extent must not produce NaNs
	ubo = buildUniforms(model, camera, 0, 0)
	assert.Equal(t, camera.Projection(1), ubo.Proj)
}

func TestModelRotationTurnsXIntoY(t *testing.T) {
	e := newTestEngine(t, &Game{})
	v := e.model.GetWorld().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 0, v.X(), 1e-5)
	assert.InDelta(t, 1, v.Y(), 1e-5)
	assert.InDelta(t, 0, v.Z(), 1e-5)
}

func writeAsset(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// assetTree lays out the default asset paths with a triangle, a 2x2 texture
// and two header-only shader modules.
func assetTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	words := new(bytes.Buffer)
	require.NoError(t, binary.Write(words, binary.LittleEndian, []uint32{0x07230203, 0x00010000, 0, 1, 0}))
	writeAsset(t, root, "Shaders/vert.spv", words.Bytes())
	writeAsset(t, root, "Shaders/frag.spv", words.Bytes())

	writeAsset(t, root, "Resources/Models/viking_room.obj", []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/1 2/1 3/1\n"))

	tex := new(bytes.Buffer)
	require.NoError(t, png.Encode(tex, image.NewNRGBA(image.Rect(0, 0, 2, 2))))
	writeAsset(t, root, "Resources/Textures/viking_room.png", tex.Bytes())
	return root
}

func TestLoadRendererConfigLoadsAllAssets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Assets.Root = assetTree(t)
	e := newTestEngine(t, &Game{Config: cfg})

	rc, err := e.loadRendererConfig()
	require.NoError(t, err)

	assert.Equal(t, "Toy Bricks Engine", rc.AppName)
	assert.Len(t, rc.Mesh.Vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, rc.Mesh.Indices)
	assert.Equal(t, uint32(2), rc.Texture.Width)
	assert.Equal(t, uint8(4), rc.Texture.Channels)
	assert.Equal(t, "vert", rc.VertexShader.Stage)
	assert.Equal(t, "frag", rc.FragmentShader.Stage)

	_, known := e.assetManager.Known(cfg.Assets.Model)
	assert.True(t, known)
}

func TestLoadRendererConfigReportsEveryMissingAsset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Assets.Root = assetTree(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Assets.Root, cfg.Assets.Texture)))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Assets.Root, cfg.Assets.FragmentShader), []byte{1, 2, 3}, 0o644))
	e := newTestEngine(t, &Game{Config: cfg})

	_, err := e.loadRendererConfig()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrAssetNotFound)
	assert.ErrorIs(t, err, loaders.ErrInvalidSPIRV)
}
