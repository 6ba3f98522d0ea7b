package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/scene"
)

const (
	defaultNearZ = 1.0
	defaultFarZ  = 1000.0
)

// Renderer drives the frame ring over a Backend: it keeps the CPU up to
// depth-1 frames ahead of the device, replays dirty scene state into each
// slot's constant buffers, and records the scene layer by layer.
type Renderer struct {
	backend  Backend
	registry *scene.Registry

	ring *frameRing
	// currentFence is the last value signalled on the queue. It only ever
	// grows; slot watermarks are samples of it.
	currentFence uint64

	layerPipelines    [scene.LayerCount]PipelineHandle
	wireframePipeline PipelineHandle
	wireframe         bool

	view math.Mat4
	eye  math.Vec3
	proj math.Mat4

	width  uint32
	height uint32
	nearZ  float32
	farZ   float32
}

func New(backend Backend, registry *scene.Registry) *Renderer {
	return &Renderer{
		backend:  backend,
		registry: registry,
		view:     math.NewMat4Identity(),
		proj:     math.NewMat4Identity(),
		nearZ:    defaultNearZ,
		farZ:     defaultFarZ,
	}
}

// Initialize brings up the backend and builds everything whose lifetime spans
// the whole run: the shared geometry, the texture table, the pipeline variants
// and the frame ring. Texture order must match the materials' table indices.
func (r *Renderer) Initialize(appName string, width, height uint32, ringDepth int, textures []*scene.Texture) error {
	if err := r.backend.Initialize(appName, width, height); err != nil {
		err = fmt.Errorf("backend initialization failed: %w", err)
		core.LogError(err.Error())
		return err
	}
	r.width = width
	r.height = height
	r.recomputeProjection()

	vertices, indices := r.registry.Geometry()
	if err := r.backend.CreateGeometry(vertices, indices); err != nil {
		err = fmt.Errorf("failed to upload scene geometry: %w", err)
		core.LogError(err.Error())
		return err
	}

	handles := make([]TextureHandle, 0, len(textures))
	for _, t := range textures {
		h, err := r.backend.CreateTexture(t)
		if err != nil {
			err = fmt.Errorf("failed to create texture `%s`: %w", t.Name, err)
			core.LogError(err.Error())
			return err
		}
		handles = append(handles, h)
	}
	if err := r.backend.BuildDescriptorTable(handles); err != nil {
		err = fmt.Errorf("failed to build descriptor table: %w", err)
		core.LogError(err.Error())
		return err
	}

	if err := r.buildPipelines(); err != nil {
		return err
	}

	objectCount := len(r.registry.Items())
	materialCount := len(r.registry.Materials())
	if objectCount == 0 || materialCount == 0 {
		err := fmt.Errorf("scene registry is empty: %d items, %d materials", objectCount, materialCount)
		core.LogError(err.Error())
		return err
	}

	ring, err := newFrameRing(r.backend, ringDepth, objectCount, materialCount)
	if err != nil {
		return err
	}
	r.ring = ring

	core.LogInfo("renderer initialized: %d items, %d materials, ring depth %d", objectCount, materialCount, ringDepth)
	return nil
}

func (r *Renderer) buildPipelines() error {
	configs := map[scene.Layer]PipelineConfig{
		scene.LayerOpaque: {
			Name:           "opaque",
			VertexShader:   "standard.vert",
			FragmentShader: "opaque.frag",
			DepthWrite:     true,
		},
		scene.LayerAlphaTested: {
			Name:           "alpha_tested",
			VertexShader:   "standard.vert",
			FragmentShader: "alpha_tested.frag",
			AlphaTest:      true,
			DepthWrite:     true,
		},
		scene.LayerAlphaTestedEffect: {
			Name:           "alpha_tested_effect",
			VertexShader:   "effect.vert",
			FragmentShader: "alpha_tested.frag",
			AlphaTest:      true,
			DepthWrite:     true,
		},
		scene.LayerTransparent: {
			Name:           "transparent",
			VertexShader:   "standard.vert",
			FragmentShader: "opaque.frag",
			AlphaBlend:     true,
		},
	}

	for _, layer := range scene.Layers {
		cfg := configs[layer]
		cfg.Topology = scene.TopologyTriangleList
		handle, err := r.backend.CreatePipeline(cfg)
		if err != nil {
			err = fmt.Errorf("failed to create `%s` pipeline: %w", cfg.Name, err)
			core.LogError(err.Error())
			return err
		}
		r.layerPipelines[layer] = handle
	}

	wireframe, err := r.backend.CreatePipeline(PipelineConfig{
		Name:           "opaque_wireframe",
		VertexShader:   "standard.vert",
		FragmentShader: "opaque.frag",
		Wireframe:      true,
		DepthWrite:     true,
		Topology:       scene.TopologyTriangleList,
	})
	if err != nil {
		err = fmt.Errorf("failed to create wireframe pipeline: %w", err)
		core.LogError(err.Error())
		return err
	}
	r.wireframePipeline = wireframe
	return nil
}

// SetCamera installs the view transform used by the next Update.
func (r *Renderer) SetCamera(view math.Mat4, eye math.Vec3) {
	r.view = view
	r.eye = eye
}

// ToggleWireframe flips the opaque layer between solid and wireframe
// pipelines.
func (r *Renderer) ToggleWireframe() {
	r.wireframe = !r.wireframe
	core.LogDebug("wireframe: %t", r.wireframe)
}

// Wireframe reports whether the opaque layer currently draws as wireframe.
func (r *Renderer) Wireframe() bool {
	return r.wireframe
}

// RingDepth returns the configured frames-in-flight count.
func (r *Renderer) RingDepth() int {
	return r.ring.depth()
}

// OnResize is called when the surface size changes. The queue is drained
// before any size-dependent resource is touched, so no in-flight frame can
// reference a destroyed attachment.
func (r *Renderer) OnResize(width, height uint32) error {
	if width == r.width && height == r.height {
		return nil
	}
	if width == 0 || height == 0 {
		// Minimized; keep the old resources until a real size shows up.
		return nil
	}

	if err := r.Flush(); err != nil {
		return err
	}
	if err := r.backend.Resized(width, height); err != nil {
		err = fmt.Errorf("backend resize to %dx%d failed: %w", width, height, err)
		core.LogError(err.Error())
		return err
	}
	r.width = width
	r.height = height
	r.recomputeProjection()
	core.LogDebug("resized to %dx%d", width, height)
	return nil
}

func (r *Renderer) recomputeProjection() {
	aspect := float32(r.width) / float32(r.height)
	r.proj = math.NewMat4Perspective(0.25*math.Pi, aspect, r.nearZ, r.farZ)
}

// Update acquires the next ring slot, blocking until the device has released
// it, then replays all dirty scene state into the slot's buffers. This is the
// only place the frame loop ever waits on the device.
func (r *Renderer) Update(totalTime, deltaTime float32) error {
	fr := r.ring.advance()

	if fr.Fence != 0 && r.backend.FenceCompletedValue() < fr.Fence {
		if err := r.backend.FenceWait(fr.Fence); err != nil {
			err = fmt.Errorf("wait for frame slot fence %d failed: %w", fr.Fence, err)
			core.LogError(err.Error())
			return err
		}
	}

	if err := r.updateObjectConstants(fr); err != nil {
		return err
	}
	if err := r.updateMaterialConstants(fr); err != nil {
		return err
	}
	return r.updatePassConstants(fr, totalTime, deltaTime)
}

// updateObjectConstants writes the constants of every item whose dirty
// counter is still positive. One mutation replays into each of the N slots
// exactly once; untouched items cost nothing.
func (r *Renderer) updateObjectConstants(fr *FrameResource) error {
	for _, item := range r.registry.Items() {
		if item.FramesDirty <= 0 {
			continue
		}
		constants := ObjectConstants{
			World:             item.World.Transposed(),
			WorldInvTranspose: item.World.InverseTranspose().Transposed(),
			TexTransform:      item.TexTransform.Transposed(),
		}
		if err := fr.ObjectCB.CopyData(item.ObjIndex, constants.Encode()); err != nil {
			return err
		}
		item.FramesDirty--
	}
	return nil
}

func (r *Renderer) updateMaterialConstants(fr *FrameResource) error {
	for _, m := range r.registry.Materials() {
		if m.FramesDirty <= 0 {
			continue
		}
		constants := MaterialConstants{
			DiffuseAlbedo: m.DiffuseAlbedo,
			FresnelR0:     m.FresnelR0,
			Roughness:     m.Roughness,
			Transform:     m.Transform.Transposed(),
		}
		if err := fr.MaterialCB.CopyData(m.CBIndex, constants.Encode()); err != nil {
			return err
		}
		m.FramesDirty--
	}
	return nil
}

// updatePassConstants rebuilds the per-frame block from scratch; it is small
// and always stale, so dirty tracking buys nothing here.
func (r *Renderer) updatePassConstants(fr *FrameResource, totalTime, deltaTime float32) error {
	viewProj := r.view.Mul(r.proj)

	constants := PassConstants{
		View:        r.view.Transposed(),
		InvView:     r.view.Inverse().Transposed(),
		Proj:        r.proj.Transposed(),
		InvProj:     r.proj.Inverse().Transposed(),
		ViewProj:    viewProj.Transposed(),
		InvViewProj: viewProj.Inverse().Transposed(),

		EyePos: r.eye,

		RenderTargetSize:    math.NewVec2(float32(r.width), float32(r.height)),
		InvRenderTargetSize: math.NewVec2(1.0/float32(r.width), 1.0/float32(r.height)),

		NearZ:     r.nearZ,
		FarZ:      r.farZ,
		TotalTime: totalTime,
		DeltaTime: deltaTime,

		AmbientLight: r.registry.Rig.Ambient,
	}
	copy(constants.Lights[:], r.registry.Rig.Lights)

	return fr.PassCB.CopyData(0, constants.Encode())
}

// Render records and submits the current slot's frame: every layer in fixed
// order, then the fence signal that stamps the slot's watermark.
func (r *Renderer) Render() error {
	fr := r.ring.currentFrame()

	if err := r.backend.ResetCommandAllocator(fr.Allocator); err != nil {
		err = fmt.Errorf("failed to reset command allocator: %w", err)
		core.LogError(err.Error())
		return err
	}
	if err := r.backend.BeginFrame(fr.Allocator, fr.PassCB.Handle()); err != nil {
		err = fmt.Errorf("failed to begin frame: %w", err)
		core.LogError(err.Error())
		return err
	}

	for _, layer := range scene.Layers {
		if err := r.drawLayer(fr, layer); err != nil {
			return err
		}
	}

	if err := r.backend.EndFrame(); err != nil {
		err = fmt.Errorf("failed to submit frame: %w", err)
		core.LogError(err.Error())
		return err
	}

	r.currentFence++
	fr.Fence = r.currentFence
	if err := r.backend.FenceSignal(r.currentFence); err != nil {
		err = fmt.Errorf("failed to signal fence %d: %w", r.currentFence, err)
		core.LogError(err.Error())
		return err
	}
	return nil
}

// drawLayer binds the layer's pipeline once, then issues each item's draw
// with its own table, material and object offsets. Items draw in insertion
// order; transparents are not depth sorted, which reads fine for the scenes
// this targets.
func (r *Renderer) drawLayer(fr *FrameResource, layer scene.Layer) error {
	items := r.registry.LayerItems(layer)
	if len(items) == 0 {
		return nil
	}

	pipeline := r.layerPipelines[layer]
	if layer == scene.LayerOpaque && r.wireframe {
		pipeline = r.wireframePipeline
	}
	if err := r.backend.SetPipeline(pipeline); err != nil {
		err = fmt.Errorf("failed to bind `%s` layer pipeline: %w", layer, err)
		core.LogError(err.Error())
		return err
	}

	for _, objIndex := range items {
		item := r.registry.Item(objIndex)
		material := r.registry.Materials()[item.MaterialIndex]

		r.backend.BindTexture(material.TableIndex)
		r.backend.BindMaterialConstants(fr.MaterialCB.Handle(), fr.MaterialCB.ElementOffset(material.CBIndex))
		r.backend.BindObjectConstants(fr.ObjectCB.Handle(), fr.ObjectCB.ElementOffset(item.ObjIndex))
		r.backend.DrawIndexed(item.Region.IndexCount, item.Region.StartIndex, item.Region.BaseVertex)
	}
	return nil
}

// Flush blocks until the device has consumed every submitted frame. Used
// before resize-driven resource recreation and on shutdown.
func (r *Renderer) Flush() error {
	if r.currentFence == 0 {
		return nil
	}
	if r.backend.FenceCompletedValue() >= r.currentFence {
		return nil
	}
	if err := r.backend.FenceWait(r.currentFence); err != nil {
		err = fmt.Errorf("flush wait for fence %d failed: %w", r.currentFence, err)
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (r *Renderer) Shutdown() error {
	if err := r.Flush(); err != nil {
		core.LogWarn("flush during shutdown failed: %s", err)
	}
	if r.ring != nil {
		r.ring.destroy()
	}
	return r.backend.Shutdown()
}
