package engine

import (
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/scene"
)

// Game is the application half of the engine contract. The engine owns the
// window, the frame loop and the renderer; the game fills in the scene and
// reacts to frame ticks through the Fn callbacks.
//
// FnBoot runs after the registry exists but before the scene description is
// applied; it is where the game registers its mesh regions. FnInitialize runs
// once everything (renderer included) is up.
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}

	// Registry is set by the engine before FnBoot is called.
	Registry *scene.Registry
	// Renderer is set by the engine before FnInitialize is called.
	Renderer *renderer.Renderer

	FnBoot       Boot
	FnInitialize Initialize
	FnUpdate     Update
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Boot func() error
type Initialize func() error
type Update func(totalTime, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
