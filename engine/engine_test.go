package engine

import (
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/headless"
	"github.com/spaghettifunk/prism/engine/scene"
)

// newTestEngine builds an engine around an initialized renderer on the
// headless backend, without a window. The frame loop itself is not started;
// tests drive the handler/drain pair directly.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	reg := scene.NewRegistry(3)
	verts, indices := scene.NewBox(1, 1, 1)
	if err := reg.AddMesh("box", verts, indices); err != nil {
		t.Fatalf("add mesh: %v", err)
	}
	if _, err := reg.AddMaterial(&scene.Material{
		Name:          "stone",
		DiffuseAlbedo: math.NewVec4(1, 1, 1, 1),
		Transform:     math.NewMat4Identity(),
	}); err != nil {
		t.Fatalf("add material: %v", err)
	}
	id := math.NewMat4Identity()
	if _, err := reg.AddItem("box", "stone", id, id, scene.LayerOpaque, scene.TopologyTriangleList); err != nil {
		t.Fatalf("add item: %v", err)
	}

	rend := renderer.New(headless.New(), reg)
	textures := []*scene.Texture{scene.NewSolidTexture("white", 255, 255, 255, 255, 4)}
	if err := rend.Initialize("engine-test", 800, 600, reg.RingDepth(), textures); err != nil {
		t.Fatalf("initialize renderer: %v", err)
	}

	return &Engine{
		gameInstance: &Game{ApplicationConfig: DefaultConfig()},
		registry:     reg,
		renderer:     rend,
		clock:        core.NewClock(),
		width:        800,
		height:       600,
		isRunning:    true,
	}
}

// Handlers run on the event-processing goroutine, so they must never call
// into the renderer themselves; the frame loop applies their effects between
// frames.
func TestKeyHandlerDefersWireframeToggleToFrameLoop(t *testing.T) {
	e := newTestEngine(t)

	e.onKey(core.EventContext{
		Type: core.EVENT_CODE_KEY_PRESSED,
		Data: &core.KeyEvent{KeyCode: core.KEY_1},
	})
	if e.renderer.Wireframe() {
		t.Fatal("handler reached the renderer before the frame loop drained it")
	}

	e.drainWindowEvents()
	if !e.renderer.Wireframe() {
		t.Fatal("wireframe toggle lost between frames")
	}
}

func TestResizeHandlerDefersRendererResize(t *testing.T) {
	e := newTestEngine(t)
	resizedCalls := 0
	e.gameInstance.FnOnResize = func(width, height uint32) error {
		resizedCalls++
		return nil
	}

	e.onResized(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.SystemEvent{WindowWidth: 1024, WindowHeight: 768},
	})
	if e.width != 800 || e.height != 600 || resizedCalls != 0 {
		t.Fatal("handler must only record the new size")
	}

	e.drainWindowEvents()
	if e.width != 1024 || e.height != 768 {
		t.Errorf("size = %dx%d, want 1024x768", e.width, e.height)
	}
	if resizedCalls != 1 {
		t.Errorf("game resize callback ran %d times, want 1", resizedCalls)
	}
}

func TestResizeToZeroSuspendsUntilRestored(t *testing.T) {
	e := newTestEngine(t)

	e.onResized(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.SystemEvent{WindowWidth: 0, WindowHeight: 0},
	})
	e.drainWindowEvents()
	if !e.isSuspended {
		t.Fatal("minimize must suspend the loop")
	}

	e.onResized(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.SystemEvent{WindowWidth: 800, WindowHeight: 600},
	})
	e.drainWindowEvents()
	if e.isSuspended {
		t.Fatal("restore must resume the loop")
	}
}

func TestQuitEventStopsLoopOnDrain(t *testing.T) {
	e := newTestEngine(t)

	e.onEvent(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
	if !e.isRunning {
		t.Fatal("handler must only record the quit")
	}

	e.drainWindowEvents()
	if e.isRunning {
		t.Fatal("quit not applied on drain")
	}
}
