package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/toybricks/engine/renderer/components"
	"github.com/spaghettifunk/toybricks/engine/renderer/vulkan"
)

type WindowConfig struct {
	Title  string `toml:"title"`
	X      uint32 `toml:"x"`
	Y      uint32 `toml:"y"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type RendererConfig struct {
	Validation bool `toml:"validation"`
	// MaxFramesInFlight is informational; the renderer always uses two.
	MaxFramesInFlight uint32 `toml:"max_frames_in_flight"`
	// FenceTimeoutNS bounds one wait on an in-flight fence. Zero means forever.
	FenceTimeoutNS uint64 `toml:"fence_timeout_ns"`
}

type AssetsConfig struct {
	Root           string `toml:"root"`
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	Model          string `toml:"model"`
	Texture        string `toml:"texture"`
	HotReload      bool   `toml:"hot_reload"`
}

type CameraConfig struct {
	FOV       float32 `toml:"fov"`
	Near      float32 `toml:"near"`
	Far       float32 `toml:"far"`
	MoveSpeed float32 `toml:"move_speed"`
	TurnSpeed float32 `toml:"turn_speed"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Config is the engine configuration file. Keys left out of the file keep
// their DefaultConfig value.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
	Camera   CameraConfig   `toml:"camera"`
	Log      LogConfig      `toml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "Toy Bricks Engine",
			X:      100,
			Y:      100,
			Width:  800,
			Height: 600,
		},
		Renderer: RendererConfig{
			Validation:        true,
			MaxFramesInFlight: vulkan.MaxFramesInFlight,
		},
		Assets: AssetsConfig{
			Root:           ".",
			VertexShader:   "Shaders/vert.spv",
			FragmentShader: "Shaders/frag.spv",
			Model:          "Resources/Models/viking_room.obj",
			Texture:        "Resources/Textures/viking_room.png",
		},
		Camera: CameraConfig{
			FOV:       components.DefaultFOV,
			Near:      components.DefaultNear,
			Far:       components.DefaultFar,
			MoveSpeed: components.DefaultMoveSpeed,
			TurnSpeed: components.DefaultTurnSpeed,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig decodes the TOML file at path over the defaults. A missing file
// is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config '%s': %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return errors.New("window size must be non-zero")
	}
	if c.Renderer.MaxFramesInFlight != vulkan.MaxFramesInFlight {
		return fmt.Errorf("max_frames_in_flight is fixed at %d", vulkan.MaxFramesInFlight)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return errors.New("camera planes must satisfy 0 < near < far")
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return errors.New("camera fov must be in (0, 180) degrees")
	}
	return nil
}
