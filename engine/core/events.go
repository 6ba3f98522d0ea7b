package core

import (
	"sync"
)

type EventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01
	// Keyboard key pressed. Data is *KeyEvent.
	EVENT_CODE_KEY_PRESSED EventCode = 0x02
	// Keyboard key released. Data is *KeyEvent.
	EVENT_CODE_KEY_RELEASED EventCode = 0x03
	// Mouse button pressed. Data is *MouseEvent.
	EVENT_CODE_BUTTON_PRESSED EventCode = 0x04
	// Mouse button released. Data is *MouseEvent.
	EVENT_CODE_BUTTON_RELEASED EventCode = 0x05
	// Mouse moved. Data is *MouseEvent.
	EVENT_CODE_MOUSE_MOVED EventCode = 0x06
	// Mouse wheel scrolled. Data is *MouseEvent.
	EVENT_CODE_MOUSE_WHEEL EventCode = 0x07
	// Resized/resolution changed from the OS. Data is *SystemEvent.
	EVENT_CODE_RESIZED EventCode = 0x08
)

type EventContext struct {
	Type EventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type MouseEvent struct {
	Button Button
	PosX   uint16
	PosY   uint16
	Scroll int8
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type FnOnEvent func(context EventContext)

type eventSystemState struct {
	mu         sync.RWMutex
	registered map[EventCode][]FnOnEvent
	queue      chan EventContext
	done       chan struct{}
}

var onceEvent sync.Once
var eventState *eventSystemState = nil

func EventSystemInitialize() bool {
	onceEvent.Do(func() {
		eventState = &eventSystemState{
			registered: make(map[EventCode][]FnOnEvent),
			queue:      make(chan EventContext, 256),
			done:       make(chan struct{}),
		}
	})
	return eventState != nil
}

func EventSystemShutdown() error {
	if eventState == nil {
		return nil
	}
	close(eventState.done)
	return nil
}

// EventRegister adds a listener for the given code. Listeners are invoked in
// registration order by the processing goroutine.
func EventRegister(code EventCode, onEvent FnOnEvent) {
	if eventState == nil {
		return
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()
	eventState.registered[code] = append(eventState.registered[code], onEvent)
}

// EventFire queues an event for processing. Events fired before the system is
// initialized are dropped.
func EventFire(context EventContext) {
	if eventState == nil {
		return
	}
	select {
	case eventState.queue <- context:
	default:
		LogWarn("event queue full, dropping event type `%d`", context.Type)
	}
}

// ProcessEvents dispatches queued events until the system is shut down.
// Intended to run on its own goroutine.
func ProcessEvents() {
	for {
		select {
		case <-eventState.done:
			return
		case context := <-eventState.queue:
			eventState.mu.RLock()
			listeners := eventState.registered[context.Type]
			eventState.mu.RUnlock()
			for _, cb := range listeners {
				cb(context)
			}
		}
	}
}
