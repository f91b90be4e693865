package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	deviceLocal  = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	hostVisible  = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	hostCoherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
)

func TestSelectMemoryTypeNeedsFilterBitAndSuperset(t *testing.T) {
	types := []vk.MemoryPropertyFlags{
		deviceLocal,
		hostVisible,
		hostVisible | hostCoherent,
		deviceLocal | hostVisible | hostCoherent,
	}

	idx, err := selectMemoryType(types, 0b1111, hostVisible|hostCoherent)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), idx)

	// Type 2 filtered out, so the superset at 3 is picked.
	idx, err = selectMemoryType(types, 0b1011, hostVisible|hostCoherent)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), idx)

	idx, err = selectMemoryType(types, 0b0001, deviceLocal)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx)
}

func TestSelectMemoryTypeNoMatch(t *testing.T) {
	types := []vk.MemoryPropertyFlags{deviceLocal, hostVisible}

	_, err := selectMemoryType(types, 0b01, hostVisible)
	assert.ErrorIs(t, err, core.ErrNoMemoryType)

	_, err = selectMemoryType(types, 0, deviceLocal)
	assert.ErrorIs(t, err, core.ErrNoMemoryType)

	_, err = selectMemoryType(nil, 0xffffffff, 0)
	assert.ErrorIs(t, err, core.ErrNoMemoryType)
}

func TestLoadInstanceDestroysOnFailure(t *testing.T) {
	var destroyed int
	destroy := func(vk.Instance) { destroyed++ }

	require.NoError(t, loadInstance(nil, func(vk.Instance) error { return nil }, destroy))
	assert.Zero(t, destroyed)

	boom := errors.New("no instance proc addr")
	err := loadInstance(nil, func(vk.Instance) error { return boom }, destroy)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, destroyed)
}
