package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Toy Bricks Engine", cfg.Window.Title)
	assert.Equal(t, uint32(800), cfg.Window.Width)
	assert.Equal(t, uint32(600), cfg.Window.Height)
	assert.Equal(t, "Shaders/vert.spv", cfg.Assets.VertexShader)
	assert.Equal(t, "Shaders/frag.spv", cfg.Assets.FragmentShader)
	assert.Equal(t, "Resources/Models/viking_room.obj", cfg.Assets.Model)
	assert.Equal(t, "Resources/Textures/viking_room.png", cfg.Assets.Texture)
	assert.Equal(t, uint32(2), cfg.Renderer.MaxFramesInFlight)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.validate())
}

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesOnlyGivenKeys(t *testing.T) {
	path := writeConfig(t, `
[window]
width = 1280
height = 720

[assets]
root = "/srv/assets"
hot_reload = true

[log]
level = "debug"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(1280), cfg.Window.Width)
	assert.Equal(t, uint32(720), cfg.Window.Height)
	assert.Equal(t, "Toy Bricks Engine", cfg.Window.Title)
	assert.Equal(t, "/srv/assets", cfg.Assets.Root)
	assert.True(t, cfg.Assets.HotReload)
	assert.Equal(t, "Shaders/vert.spv", cfg.Assets.VertexShader)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"malformed":     "[window\nwidth = 3",
		"zero width":    "[window]\nwidth = 0",
		"frames":        "[renderer]\nmax_frames_in_flight = 3",
		"planes":        "[camera]\nnear = 5.0\nfar = 1.0",
		"fov":           "[camera]\nfov = 180.0",
		"negative near": "[camera]\nnear = -1.0",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
