package core

import (
	"sync"
)

type KeyCode uint32

const (
	KEY_BACKSPACE KeyCode = 0x08
	KEY_ENTER     KeyCode = 0x0D
	KEY_TAB       KeyCode = 0x09
	KEY_SHIFT     KeyCode = 0x10
	KEY_CONTROL   KeyCode = 0x11
	KEY_PAUSE     KeyCode = 0x13
	KEY_CAPITAL   KeyCode = 0x14
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_END       KeyCode = 0x23
	KEY_HOME      KeyCode = 0x24
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28
	KEY_INSERT    KeyCode = 0x2D
	KEY_DELETE    KeyCode = 0x2E

	KEY_0 KeyCode = 0x30
	KEY_1 KeyCode = 0x31
	KEY_2 KeyCode = 0x32
	KEY_3 KeyCode = 0x33
	KEY_4 KeyCode = 0x34
	KEY_5 KeyCode = 0x35
	KEY_6 KeyCode = 0x36
	KEY_7 KeyCode = 0x37
	KEY_8 KeyCode = 0x38
	KEY_9 KeyCode = 0x39

	KEY_A KeyCode = 0x41
	KEY_B KeyCode = 0x42
	KEY_C KeyCode = 0x43
	KEY_D KeyCode = 0x44
	KEY_E KeyCode = 0x45
	KEY_F KeyCode = 0x46
	KEY_G KeyCode = 0x47
	KEY_H KeyCode = 0x48
	KEY_I KeyCode = 0x49
	KEY_J KeyCode = 0x4A
	KEY_K KeyCode = 0x4B
	KEY_L KeyCode = 0x4C
	KEY_M KeyCode = 0x4D
	KEY_N KeyCode = 0x4E
	KEY_O KeyCode = 0x4F
	KEY_P KeyCode = 0x50
	KEY_Q KeyCode = 0x51
	KEY_R KeyCode = 0x52
	KEY_S KeyCode = 0x53
	KEY_T KeyCode = 0x54
	KEY_U KeyCode = 0x55
	KEY_V KeyCode = 0x56
	KEY_W KeyCode = 0x57
	KEY_X KeyCode = 0x58
	KEY_Y KeyCode = 0x59
	KEY_Z KeyCode = 0x5A

	KEY_F1  KeyCode = 0x70
	KEY_F2  KeyCode = 0x71
	KEY_F3  KeyCode = 0x72
	KEY_F4  KeyCode = 0x73
	KEY_F5  KeyCode = 0x74
	KEY_F6  KeyCode = 0x75
	KEY_F7  KeyCode = 0x76
	KEY_F8  KeyCode = 0x77
	KEY_F9  KeyCode = 0x78
	KEY_F10 KeyCode = 0x79
	KEY_F11 KeyCode = 0x7A
	KEY_F12 KeyCode = 0x7B

	KEYS_MAX_KEYS KeyCode = 0x100
)

type Button uint8

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

type keyboardState struct {
	keys [KEYS_MAX_KEYS]bool
}

type mouseState struct {
	posX    uint16
	posY    uint16
	scroll  int8
	buttons [BUTTON_MAX_BUTTONS]bool
}

type inputState struct {
	keyboardCurrent  keyboardState
	keyboardPrevious keyboardState
	mouseCurrent     mouseState
	mousePrevious    mouseState
}

var onceInput sync.Once
var inputStatePtr *inputState = nil

func InputInitialize() {
	onceInput.Do(func() {
		inputStatePtr = &inputState{}
	})
	LogInfo("input subsystem initialized")
}

func InputShutdown() error {
	inputStatePtr = nil
	return nil
}

// InputUpdate snapshots the current state into the previous state. Call once
// per frame, after the frame's input processing is done.
func InputUpdate(deltaTime float64) {
	if inputStatePtr == nil {
		return
	}
	inputStatePtr.keyboardPrevious = inputStatePtr.keyboardCurrent
	inputStatePtr.mousePrevious = inputStatePtr.mouseCurrent
}

func InputProcessKey(key KeyCode, pressed bool) {
	if inputStatePtr == nil || inputStatePtr.keyboardCurrent.keys[key] == pressed {
		return
	}
	inputStatePtr.keyboardCurrent.keys[key] = pressed

	code := EVENT_CODE_KEY_PRESSED
	if !pressed {
		code = EVENT_CODE_KEY_RELEASED
	}
	EventFire(EventContext{
		Type: code,
		Data: &KeyEvent{KeyCode: key},
	})
}

func InputProcessButton(button Button, pressed bool) {
	if inputStatePtr == nil || inputStatePtr.mouseCurrent.buttons[button] == pressed {
		return
	}
	inputStatePtr.mouseCurrent.buttons[button] = pressed

	code := EVENT_CODE_BUTTON_PRESSED
	if !pressed {
		code = EVENT_CODE_BUTTON_RELEASED
	}
	EventFire(EventContext{
		Type: code,
		Data: &MouseEvent{Button: button, PosX: inputStatePtr.mouseCurrent.posX, PosY: inputStatePtr.mouseCurrent.posY},
	})
}

func InputProcessMouseMove(x, y uint16) {
	if inputStatePtr == nil {
		return
	}
	if inputStatePtr.mouseCurrent.posX == x && inputStatePtr.mouseCurrent.posY == y {
		return
	}
	inputStatePtr.mouseCurrent.posX = x
	inputStatePtr.mouseCurrent.posY = y

	EventFire(EventContext{
		Type: EVENT_CODE_MOUSE_MOVED,
		Data: &MouseEvent{PosX: x, PosY: y},
	})
}

func InputProcessMouseWheel(delta int8) {
	if inputStatePtr == nil {
		return
	}
	inputStatePtr.mouseCurrent.scroll = delta
	EventFire(EventContext{
		Type: EVENT_CODE_MOUSE_WHEEL,
		Data: &MouseEvent{Scroll: delta},
	})
}

func InputIsKeyDown(key KeyCode) bool {
	if inputStatePtr == nil {
		return false
	}
	return inputStatePtr.keyboardCurrent.keys[key]
}

func InputIsKeyUp(key KeyCode) bool {
	if inputStatePtr == nil {
		return true
	}
	return !inputStatePtr.keyboardCurrent.keys[key]
}

func InputWasKeyDown(key KeyCode) bool {
	if inputStatePtr == nil {
		return false
	}
	return inputStatePtr.keyboardPrevious.keys[key]
}

func InputWasKeyUp(key KeyCode) bool {
	if inputStatePtr == nil {
		return true
	}
	return !inputStatePtr.keyboardPrevious.keys[key]
}

func InputIsButtonDown(button Button) bool {
	if inputStatePtr == nil {
		return false
	}
	return inputStatePtr.mouseCurrent.buttons[button]
}

func InputIsButtonUp(button Button) bool {
	if inputStatePtr == nil {
		return true
	}
	return !inputStatePtr.mouseCurrent.buttons[button]
}

func InputWasButtonDown(button Button) bool {
	if inputStatePtr == nil {
		return false
	}
	return inputStatePtr.mousePrevious.buttons[button]
}

func InputGetMousePosition() (uint16, uint16) {
	if inputStatePtr == nil {
		return 0, 0
	}
	return inputStatePtr.mouseCurrent.posX, inputStatePtr.mouseCurrent.posY
}

func InputGetPreviousMousePosition() (uint16, uint16) {
	if inputStatePtr == nil {
		return 0, 0
	}
	return inputStatePtr.mousePrevious.posX, inputStatePtr.mousePrevious.posY
}
