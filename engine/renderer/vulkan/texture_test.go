package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgba(width, height uint32) *metadata.TextureData {
	return &metadata.TextureData{
		Pixels:   make([]byte, width*height*4),
		Width:    width,
		Height:   height,
		Channels: 4,
	}
}

func TestTextureMipLevels(t *testing.T) {
	cases := []struct {
		w, h uint32
		want uint32
	}{
		{1, 1, 1},
		{2, 2, 2},
		{1024, 1024, 11},
		{1024, 512, 11},
		{512, 1024, 11},
		{1000, 1, 10},
		{3, 5, 3},
	}
	for _, c := range cases {
		got, err := textureMipLevels(rgba(c.w, c.h))
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%dx%d", c.w, c.h)
	}
}

func TestTextureMipLevelsRejectsBadPixels(t *testing.T) {
	rgb := rgba(4, 4)
	rgb.Channels = 3
	_, err := textureMipLevels(rgb)
	assert.Error(t, err)

	short := rgba(4, 4)
	short.Pixels = short.Pixels[:60]
	_, err = textureMipLevels(short)
	assert.Error(t, err)
}

func TestCheckLinearBlit(t *testing.T) {
	linear := vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit)
	blit := vk.FormatFeatureFlags(vk.FormatFeatureBlitSrcBit | vk.FormatFeatureBlitDstBit)

	cases := []struct {
		name  string
		props vk.FormatProperties
		ok    bool
	}{
		{"optimal linear filter", vk.FormatProperties{OptimalTilingFeatures: linear}, true},
		{"optimal linear filter and blit", vk.FormatProperties{OptimalTilingFeatures: linear | blit}, true},
		{"only linear tiling", vk.FormatProperties{LinearTilingFeatures: linear}, false},
		{"blit without filter", vk.FormatProperties{OptimalTilingFeatures: blit}, false},
		{"buffer features only", vk.FormatProperties{BufferFeatures: linear}, false},
		{"nothing", vk.FormatProperties{}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := checkLinearBlit(c.props)
			if c.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, core.ErrLinearBlitUnsupported)
		})
	}
}
