package engine

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/platform"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/vulkan"
	"github.com/spaghettifunk/prism/engine/scene"
)

// Engine owns the window, the scene registry, the renderer and the frame
// loop. The game supplies meshes and per-frame logic through its callbacks.
type Engine struct {
	gameInstance *Game
	platform     *platform.Platform
	registry     *scene.Registry
	backend      *vulkan.VulkanRenderer
	renderer     *renderer.Renderer
	watcher      *scene.Watcher

	isRunning   bool
	isSuspended bool
	width       uint32
	height      uint32

	clock    *core.Clock
	lastTime float64

	events windowEvents

	shutdownOnce sync.Once
}

// windowEvents collects what the handlers saw on the event-processing
// goroutine. The frame loop drains it between frames, so the renderer is only
// ever called from the frame thread.
type windowEvents struct {
	mu              sync.Mutex
	quit            bool
	toggleWireframe bool
	resized         bool
	width           uint32
	height          uint32
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		err := fmt.Errorf("engine requires a game with an application config")
		core.LogError(err.Error())
		return nil, err
	}
	core.SetLogLevel(g.ApplicationConfig.Level())

	p, err := platform.New()
	if err != nil {
		return nil, err
	}

	return &Engine{
		gameInstance: g,
		platform:     p,
		clock:        core.NewClock(),
		width:        g.ApplicationConfig.StartWidth,
		height:       g.ApplicationConfig.StartHeight,
	}, nil
}

func (e *Engine) Initialize() error {
	cfg := e.gameInstance.ApplicationConfig

	core.InputInitialize()
	if !core.EventSystemInitialize() {
		err := fmt.Errorf("failed to initialize the event system")
		core.LogError(err.Error())
		return err
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e.onKey)
	core.EventRegister(core.EVENT_CODE_KEY_RELEASED, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)

	if err := e.platform.Startup(cfg.Name, cfg.StartPosX, cfg.StartPosY, cfg.StartWidth, cfg.StartHeight); err != nil {
		return err
	}

	e.registry = scene.NewRegistry(cfg.FramesInFlight)
	e.gameInstance.Registry = e.registry

	// The game registers its mesh regions before the scene description is
	// applied, since items refer to meshes by name.
	if e.gameInstance.FnBoot != nil {
		if err := e.gameInstance.FnBoot(); err != nil {
			return err
		}
	}

	desc, err := scene.LoadDescription(cfg.ScenePath)
	if err != nil {
		return err
	}
	if err := desc.Apply(e.registry); err != nil {
		return err
	}

	textures := e.loadTextures(desc)

	e.backend = vulkan.New(e.platform)
	e.backend.AssetsDir = cfg.AssetsDir
	e.renderer = renderer.New(e.backend, e.registry)

	width, height := e.platform.GetFramebufferSize()
	if err := e.renderer.Initialize(cfg.Name, width, height, cfg.FramesInFlight, textures); err != nil {
		return err
	}
	e.gameInstance.Renderer = e.renderer

	// Scene file edits are picked up while running; a watcher failure only
	// loses live reload, not the run.
	w, err := scene.NewWatcher(cfg.ScenePath)
	if err != nil {
		core.LogWarn("scene watcher unavailable: %s", err.Error())
	} else {
		e.watcher = w
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}

	e.isRunning = true
	return nil
}

// loadTextures resolves one texture per material, in material order, so the
// descriptor table indices line up with the material table indices stamped by
// the description. Materials without a texture get a flat white stand-in.
func (e *Engine) loadTextures(desc *scene.Description) []*scene.Texture {
	cfg := e.gameInstance.ApplicationConfig

	textures := make([]*scene.Texture, 0, len(desc.Materials))
	for i := range desc.Materials {
		md := &desc.Materials[i]
		if md.Texture == "" {
			textures = append(textures, scene.NewSolidTexture(md.Name, 255, 255, 255, 255, 4))
			continue
		}
		path := filepath.Join(cfg.AssetsDir, "textures", md.Texture)
		t, err := scene.LoadTexture(md.Texture, path)
		if err != nil {
			core.LogWarn("texture `%s` failed to load, using flat white: %s", path, err.Error())
			t = scene.NewSolidTexture(md.Name, 255, 255, 255, 255, 4)
		}
		textures = append(textures, t)
	}
	return textures
}

func (e *Engine) Run() error {
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	go core.ProcessEvents()

	var frameCount uint64

	for e.isRunning {
		if e.platform.PumpMessages() {
			e.isRunning = false
		}
		e.drainWindowEvents()

		if e.isSuspended {
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := e.platform.GetAbsoluteTime()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(currentTime, delta); err != nil {
				core.LogFatal("game update failed, shutting down")
				e.isRunning = false
				break
			}
		}

		if err := e.renderer.Update(float32(currentTime), float32(delta)); err != nil {
			core.LogFatal("frame update failed, shutting down")
			e.isRunning = false
			break
		}
		if err := e.renderer.Render(); err != nil {
			core.LogFatal("frame render failed, shutting down")
			e.isRunning = false
			break
		}

		e.drainSceneEdits()

		frameElapsedTime := e.platform.GetAbsoluteTime() - frameStartTime
		core.MetricsUpdate(frameElapsedTime)
		frameCount++
		if frameCount%240 == 0 {
			fps, ms := core.MetricsFrame()
			core.LogDebug("frame metrics: %.1f fps, %.2f ms avg", fps, ms)
		}

		// Input must be the last thing copied over so this frame's handlers
		// all saw the same state.
		core.InputUpdate(delta)

		e.lastTime = currentTime
	}

	return e.Shutdown()
}

// drainSceneEdits applies any scene file edits the watcher has parsed since
// the last frame. Only material parameters and lighting are live; new meshes
// or items need a restart.
func (e *Engine) drainSceneEdits() {
	if e.watcher == nil {
		return
	}
	for {
		select {
		case desc, ok := <-e.watcher.Pending():
			if !ok {
				e.watcher = nil
				return
			}
			desc.ApplyMaterialEdits(e.registry)
			core.LogInfo("scene edits applied")
		default:
			return
		}
	}
}

func (e *Engine) Shutdown() error {
	var err error
	e.shutdownOnce.Do(func() {
		e.isRunning = false

		if e.gameInstance.FnShutdown != nil {
			if serr := e.gameInstance.FnShutdown(); serr != nil {
				core.LogError(serr.Error())
			}
		}
		if e.watcher != nil {
			if werr := e.watcher.Close(); werr != nil {
				core.LogError(werr.Error())
			}
		}
		if e.renderer != nil {
			err = e.renderer.Shutdown()
		}
		if eerr := core.EventSystemShutdown(); eerr != nil && err == nil {
			err = eerr
		}
		if ierr := core.InputShutdown(); ierr != nil && err == nil {
			err = ierr
		}
		if perr := e.platform.Shutdown(); perr != nil && err == nil {
			err = perr
		}
	})
	return err
}

// GetFramebufferSize returns the current drawable size in pixels.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

// The handlers below run on the event-processing goroutine. They only record
// into windowEvents; everything that touches the renderer or the loop state
// happens in drainWindowEvents on the frame thread.

func (e *Engine) onEvent(context core.EventContext) {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		e.events.mu.Lock()
		e.events.quit = true
		e.events.mu.Unlock()
	}
}

func (e *Engine) onKey(context core.EventContext) {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event data associated with the event type `%d`", context.Type)
		return
	}

	if context.Type != core.EVENT_CODE_KEY_PRESSED {
		return
	}

	switch ke.KeyCode {
	case core.KEY_ESCAPE:
		core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
	case core.KEY_1:
		e.events.mu.Lock()
		e.events.toggleWireframe = true
		e.events.mu.Unlock()
	}
}

func (e *Engine) onResized(context core.EventContext) {
	if context.Type != core.EVENT_CODE_RESIZED {
		return
	}
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event data associated with the event type `%d`", context.Type)
		return
	}

	// Only the latest size matters; intermediate sizes are skipped.
	e.events.mu.Lock()
	e.events.resized = true
	e.events.width = se.WindowWidth
	e.events.height = se.WindowHeight
	e.events.mu.Unlock()
}

// drainWindowEvents applies what the handlers recorded since the last frame.
// Runs on the frame thread, before the suspend check so a restore can resume
// the loop.
func (e *Engine) drainWindowEvents() {
	e.events.mu.Lock()
	quit := e.events.quit
	toggle := e.events.toggleWireframe
	resized := e.events.resized
	width, height := e.events.width, e.events.height
	e.events.quit = false
	e.events.toggleWireframe = false
	e.events.resized = false
	e.events.mu.Unlock()

	if quit {
		core.LogInfo("application quit requested, shutting down")
		e.isRunning = false
	}
	if toggle {
		e.renderer.ToggleWireframe()
	}
	if resized {
		e.applyResize(width, height)
	}
}

func (e *Engine) applyResize(width, height uint32) {
	if width == e.width && height == e.height {
		return
	}
	e.width = width
	e.height = height

	if width == 0 || height == 0 {
		core.LogInfo("window minimized, suspending")
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("window restored, resuming")
		e.isSuspended = false
	}

	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	if err := e.renderer.OnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
}
