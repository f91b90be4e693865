package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDispatchesToMatchingVariantOnly(t *testing.T) {
	bus := NewEventBus()

	var keys []KeyStateEvent
	var clicks int
	var moves []PointerMoveEvent
	bus.OnKeyState(func(e KeyStateEvent) { keys = append(keys, e) })
	bus.OnClick(func(ClickEvent) { clicks++ })
	bus.OnPointerMove(func(e PointerMoveEvent) { moves = append(moves, e) })

	bus.Dispatch(KeyStateEvent{Key: KEY_W, Pressed: true})
	bus.Dispatch(PointerMoveEvent{X: 10, Y: 20})
	bus.Dispatch(WindowCloseEvent{})

	require.Len(t, keys, 1)
	assert.Equal(t, KEY_W, keys[0].Key)
	assert.True(t, keys[0].Pressed)
	assert.Equal(t, 0, clicks)
	require.Len(t, moves, 1)
	assert.Equal(t, PointerMoveEvent{X: 10, Y: 20}, moves[0])
}

func TestEventBusRunsObserversInOrder(t *testing.T) {
	bus := NewEventBus()
	var order []int
	bus.OnWindowClose(func(WindowCloseEvent) { order = append(order, 1) })
	bus.OnWindowClose(func(WindowCloseEvent) { order = append(order, 2) })

	bus.Dispatch(WindowCloseEvent{})

	assert.Equal(t, []int{1, 2}, order)
}

func TestInputStateTracksEdges(t *testing.T) {
	bus := NewEventBus()
	in := NewInputState()
	in.Attach(bus)

	bus.Dispatch(KeyStateEvent{Key: KEY_R, Pressed: true})
	assert.True(t, in.IsKeyDown(KEY_R))
	assert.True(t, in.KeyPressed(KEY_R))

	in.Update()
	assert.True(t, in.IsKeyDown(KEY_R))
	assert.False(t, in.KeyPressed(KEY_R))

	bus.Dispatch(KeyStateEvent{Key: KEY_R, Pressed: false})
	assert.True(t, in.IsKeyUp(KEY_R))
	assert.True(t, in.WasKeyDown(KEY_R))
}

func TestInputStateMouse(t *testing.T) {
	bus := NewEventBus()
	in := NewInputState()
	in.Attach(bus)

	bus.Dispatch(PointerMoveEvent{X: 5, Y: 5})
	in.Update()
	bus.Dispatch(PointerMoveEvent{X: 8, Y: 1})
	bus.Dispatch(ClickEvent{Button: BUTTON_LEFT, Pressed: true, X: 8, Y: 1})

	dx, dy := in.MouseDelta()
	assert.Equal(t, 3.0, dx)
	assert.Equal(t, -4.0, dy)
	assert.True(t, in.IsButtonDown(BUTTON_LEFT))
	assert.False(t, in.WasButtonDown(BUTTON_LEFT))
}

func TestInputStateIgnoresOutOfRange(t *testing.T) {
	in := NewInputState()
	in.ProcessKey(KEY_MAX_KEYS+10, true)
	in.ProcessButton(BUTTON_MAX_BUTTONS, true)
	assert.False(t, in.IsKeyDown(KEY_MAX_KEYS+10))
	assert.False(t, in.IsButtonDown(BUTTON_MAX_BUTTONS))
}

func TestMetricsReportsFPSAfterOneSecond(t *testing.T) {
	m := NewMetrics()
	changed := false
	for i := 0; i < 61; i++ {
		changed = m.Update(1.0/60.0) || changed
	}
	assert.True(t, changed)
	assert.InDelta(t, 61, m.FPS(), 1)
	assert.InDelta(t, 1000.0/60.0, m.FrameTime(), 0.001)
}

func TestSetLogLevelParsing(t *testing.T) {
	assert.True(t, SetLogLevel("debug"))
	assert.True(t, SetLogLevel(" WARN "))
	assert.False(t, SetLogLevel("chatty"))
	SetLogLevel("info")
}
