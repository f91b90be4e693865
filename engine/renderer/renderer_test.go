package renderer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/toybricks/engine/renderer/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	drawErr   error
	draws     int
	callbacks int
	shutdown  bool
}

func (s *stubBackend) Initialize(*vulkan.RendererConfig) error  { return nil }
func (s *stubBackend) Shutdown() error                          { s.shutdown = true; return nil }
func (s *stubBackend) RegisterDrawCallback(vulkan.DrawCallback) { s.callbacks++ }
func (s *stubBackend) SetUniformSource(vulkan.UniformSource)    {}
func (s *stubBackend) Recreations() uint64                      { return 0 }

func (s *stubBackend) DrawFrame() error {
	s.draws++
	return s.drawErr
}

func TestRendererCountsOnlySuccessfulFrames(t *testing.T) {
	backend := &stubBackend{}
	r := New(backend)

	require.NoError(t, r.DrawFrame())
	require.NoError(t, r.DrawFrame())
	backend.drawErr = errors.New("device lost")
	require.Error(t, r.DrawFrame())

	assert.Equal(t, 3, backend.draws)
	assert.Equal(t, uint64(2), r.Frames())

	r.RegisterDrawCallback(nil)
	assert.Equal(t, 1, backend.callbacks)
	require.NoError(t, r.Shutdown())
	assert.True(t, backend.shutdown)
}
