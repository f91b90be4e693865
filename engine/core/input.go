package core

type Button uint8

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

// KeyCode values match the GLFW key tokens so the platform layer can convert
// with a plain cast.
type KeyCode uint16

const (
	KEY_SPACE        KeyCode = 32
	KEY_0            KeyCode = 48
	KEY_9            KeyCode = 57
	KEY_A            KeyCode = 65
	KEY_D            KeyCode = 68
	KEY_E            KeyCode = 69
	KEY_Q            KeyCode = 81
	KEY_R            KeyCode = 82
	KEY_S            KeyCode = 83
	KEY_W            KeyCode = 87
	KEY_Z            KeyCode = 90
	KEY_ESCAPE       KeyCode = 256
	KEY_ENTER        KeyCode = 257
	KEY_TAB          KeyCode = 258
	KEY_RIGHT        KeyCode = 262
	KEY_LEFT         KeyCode = 263
	KEY_DOWN         KeyCode = 264
	KEY_UP           KeyCode = 265
	KEY_F1           KeyCode = 290
	KEY_LEFT_SHIFT   KeyCode = 340
	KEY_LEFT_CONTROL KeyCode = 341
	KEY_LEFT_ALT     KeyCode = 342

	KEY_MAX_KEYS KeyCode = 349
)

type keyboardState struct {
	keys [KEY_MAX_KEYS]bool
}

type mouseState struct {
	x, y    float64
	buttons [BUTTON_MAX_BUTTONS]bool
}

// InputState is the polled view of the keyboard and mouse. Current state is
// fed by events; Update rolls it into the previous state once per frame.
type InputState struct {
	keyboardCurrent  keyboardState
	keyboardPrevious keyboardState
	mouseCurrent     mouseState
	mousePrevious    mouseState
}

func NewInputState() *InputState {
	return &InputState{}
}

// Attach subscribes the state to the key, click and pointer observers of bus.
func (s *InputState) Attach(bus *EventBus) {
	bus.OnKeyState(func(e KeyStateEvent) { s.ProcessKey(e.Key, e.Pressed) })
	bus.OnClick(func(e ClickEvent) { s.ProcessButton(e.Button, e.Pressed) })
	bus.OnPointerMove(func(e PointerMoveEvent) { s.ProcessMouseMove(e.X, e.Y) })
}

// Update copies current states to previous states.
func (s *InputState) Update() {
	s.keyboardPrevious = s.keyboardCurrent
	s.mousePrevious = s.mouseCurrent
}

func (s *InputState) ProcessKey(key KeyCode, pressed bool) {
	if key >= KEY_MAX_KEYS {
		return
	}
	s.keyboardCurrent.keys[key] = pressed
}

func (s *InputState) ProcessButton(button Button, pressed bool) {
	if button >= BUTTON_MAX_BUTTONS {
		return
	}
	s.mouseCurrent.buttons[button] = pressed
}

func (s *InputState) ProcessMouseMove(x, y float64) {
	s.mouseCurrent.x = x
	s.mouseCurrent.y = y
}

func (s *InputState) IsKeyDown(key KeyCode) bool {
	return key < KEY_MAX_KEYS && s.keyboardCurrent.keys[key]
}

func (s *InputState) IsKeyUp(key KeyCode) bool {
	return !s.IsKeyDown(key)
}

func (s *InputState) WasKeyDown(key KeyCode) bool {
	return key < KEY_MAX_KEYS && s.keyboardPrevious.keys[key]
}

// KeyPressed reports a key that went down since the last Update.
func (s *InputState) KeyPressed(key KeyCode) bool {
	return s.IsKeyDown(key) && !s.WasKeyDown(key)
}

func (s *InputState) IsButtonDown(button Button) bool {
	return button < BUTTON_MAX_BUTTONS && s.mouseCurrent.buttons[button]
}

func (s *InputState) WasButtonDown(button Button) bool {
	return button < BUTTON_MAX_BUTTONS && s.mousePrevious.buttons[button]
}

func (s *InputState) MousePosition() (float64, float64) {
	return s.mouseCurrent.x, s.mouseCurrent.y
}

// MouseDelta is the cursor movement since the last Update.
func (s *InputState) MouseDelta() (float64, float64) {
	return s.mouseCurrent.x - s.mousePrevious.x, s.mouseCurrent.y - s.mousePrevious.y
}
