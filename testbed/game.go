package testbed

import (
	"github.com/spaghettifunk/prism/engine"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/scene"
)

// TestGame is the demo application: a textured shape field with an orbit
// camera and an animated water material.
type TestGame struct {
	*engine.Game
}

type gameState struct {
	camera *scene.OrbitCamera

	// Accumulated water texture scroll.
	texU float32
	texV float32

	width  uint32
	height uint32
}

func NewTestGame() (*TestGame, error) {
	cfg, err := engine.LoadConfig("prism.toml")
	if err != nil {
		return nil, err
	}

	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: cfg,
			State: &gameState{
				camera: scene.NewOrbitCamera(),
				width:  cfg.StartWidth,
				height: cfg.StartHeight,
			},
		},
	}

	tg.FnBoot = tg.Boot
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

// Boot registers the demo mesh regions. The scene description refers to these
// by name.
func (g *TestGame) Boot() error {
	core.LogInfo("booting testbed...")

	type mesh struct {
		name     string
		vertices []math.Vertex
		indices  []uint32
	}

	boxV, boxI := scene.NewBox(1.5, 0.5, 1.5)
	gridV, gridI := scene.NewGrid(160.0, 160.0, 50, 50)
	sphereV, sphereI := scene.NewSphere(0.5, 20, 20)
	cylV, cylI := scene.NewCylinder(0.5, 0.3, 3.0, 20, 20)

	meshes := []mesh{
		{"box", boxV, boxI},
		{"grid", gridV, gridI},
		{"sphere", sphereV, sphereI},
		{"cylinder", cylV, cylI},
	}
	for _, m := range meshes {
		if err := g.Registry.AddMesh(m.name, m.vertices, m.indices); err != nil {
			return err
		}
	}
	return nil
}

func (g *TestGame) Initialize() error {
	core.EventRegister(core.EVENT_CODE_MOUSE_WHEEL, g.onMouseWheel)

	state := g.State.(*gameState)
	g.Renderer.SetCamera(state.camera.View(), state.camera.Eye())
	return nil
}

func (g *TestGame) Update(totalTime, deltaTime float64) error {
	state := g.State.(*gameState)

	// Drag with the left button to orbit.
	if core.InputIsButtonDown(core.BUTTON_LEFT) {
		curX, curY := core.InputGetMousePosition()
		prevX, prevY := core.InputGetPreviousMousePosition()
		dx := float32(int32(curX) - int32(prevX))
		dy := float32(int32(curY) - int32(prevY))
		state.camera.Rotate(0.005*dx, 0.005*dy)
	}
	g.Renderer.SetCamera(state.camera.View(), state.camera.Eye())

	g.animateWater(state, float32(deltaTime))
	return nil
}

// animateWater scrolls the water material's texture transform. The transform
// setter restamps the dirty counter so every in-flight constant copy is
// rewritten.
func (g *TestGame) animateWater(state *gameState, dt float32) {
	water, ok := g.Registry.MaterialByName("water")
	if !ok {
		return
	}

	state.texU += 0.10 * dt
	state.texV += 0.02 * dt
	if state.texU >= 1.0 {
		state.texU -= 1.0
	}
	if state.texV >= 1.0 {
		state.texV -= 1.0
	}

	water.SetTransform(
		math.NewMat4Translation(math.NewVec3(state.texU, state.texV, 0)),
		g.Registry.RingDepth(),
	)
}

func (g *TestGame) OnResize(width, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("testbed shutting down...")
	return nil
}

func (g *TestGame) onMouseWheel(context core.EventContext) {
	me, ok := context.Data.(*core.MouseEvent)
	if !ok {
		core.LogError("wrong event data associated with the event type `%d`", context.Type)
		return
	}
	state := g.State.(*gameState)
	state.camera.Zoom(-2.0 * float32(me.Scroll))
}
