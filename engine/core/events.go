package core

// InputEvent is the closed set of events produced by the platform layer.
// Only the variants declared in this file implement it.
type InputEvent interface {
	inputEvent()
}

// PointerMoveEvent carries the cursor position in window coordinates.
type PointerMoveEvent struct {
	X, Y float64
}

// ClickEvent is a mouse button press or release at the current cursor position.
type ClickEvent struct {
	Button  Button
	Pressed bool
	X, Y    float64
}

// KeyStateEvent reports a key transition. Repeats are reported as pressed.
type KeyStateEvent struct {
	Key     KeyCode
	Pressed bool
}

// WindowResizeEvent carries the new framebuffer size in pixels.
type WindowResizeEvent struct {
	Width, Height uint32
}

// WindowCloseEvent is raised when the user asks the window to close.
type WindowCloseEvent struct{}

func (PointerMoveEvent) inputEvent()  {}
func (ClickEvent) inputEvent()        {}
func (KeyStateEvent) inputEvent()     {}
func (WindowResizeEvent) inputEvent() {}
func (WindowCloseEvent) inputEvent()  {}

// EventBus fans input events out to observers registered per variant.
// Observers run in registration order on the thread calling Dispatch.
type EventBus struct {
	pointerMove  []func(PointerMoveEvent)
	click        []func(ClickEvent)
	keyState     []func(KeyStateEvent)
	windowResize []func(WindowResizeEvent)
	windowClose  []func(WindowCloseEvent)
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

func (b *EventBus) OnPointerMove(fn func(PointerMoveEvent)) {
	b.pointerMove = append(b.pointerMove, fn)
}

func (b *EventBus) OnClick(fn func(ClickEvent)) {
	b.click = append(b.click, fn)
}

func (b *EventBus) OnKeyState(fn func(KeyStateEvent)) {
	b.keyState = append(b.keyState, fn)
}

func (b *EventBus) OnWindowResize(fn func(WindowResizeEvent)) {
	b.windowResize = append(b.windowResize, fn)
}

func (b *EventBus) OnWindowClose(fn func(WindowCloseEvent)) {
	b.windowClose = append(b.windowClose, fn)
}

// Dispatch delivers the event to every observer of its variant.
func (b *EventBus) Dispatch(event InputEvent) {
	switch e := event.(type) {
	case PointerMoveEvent:
		for _, fn := range b.pointerMove {
			fn(e)
		}
	case ClickEvent:
		for _, fn := range b.click {
			fn(e)
		}
	case KeyStateEvent:
		for _, fn := range b.keyState {
			fn(e)
		}
	case WindowResizeEvent:
		for _, fn := range b.windowResize {
			fn(e)
		}
	case WindowCloseEvent:
		for _, fn := range b.windowClose {
			fn(e)
		}
	}
}
