package renderer

import (
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/scene"
)

// Handles identify backend-owned resources. They are opaque to the core; only
// the backend that issued a handle can interpret it.
type (
	BufferHandle    uint32
	AllocatorHandle uint32
	PipelineHandle  uint32
	TextureHandle   uint32
)

// PipelineConfig describes one graphics pipeline variant. The backend compiles
// it once at startup; frame recording only switches between compiled handles.
type PipelineConfig struct {
	Name           string
	VertexShader   string
	FragmentShader string

	Wireframe  bool
	AlphaBlend bool
	// AlphaTest discards fragments below the cutoff in the fragment shader;
	// the pipeline disables backface culling so thin geometry reads correctly
	// from both sides.
	AlphaTest bool
	// DepthWrite is disabled for blended pipelines so transparents do not
	// occlude each other.
	DepthWrite bool

	Topology scene.Topology
}

// Backend is the device abstraction the renderer records frames against.
// Implementations: vulkan (production) and headless (tests, CI).
//
// All methods are frame-thread only. FenceWait is the single blocking call in
// the contract and must park on an OS primitive, never spin.
type Backend interface {
	Initialize(appName string, width, height uint32) error
	Shutdown() error
	// Resized recreates size-dependent resources. The caller must have
	// drained the queue first.
	Resized(width, height uint32) error

	// Upload buffers: CPU-visible, write-through. Creation failure is fatal
	// to the caller.
	CreateUploadBuffer(name string, size uint64) (BufferHandle, error)
	DestroyBuffer(handle BufferHandle) error
	WriteBuffer(handle BufferHandle, offset uint64, data []byte) error
	ReadBuffer(handle BufferHandle, offset uint64, out []byte) error

	// CreateGeometry uploads the scene's shared vertex/index allocation.
	CreateGeometry(vertices []math.Vertex, indices []uint32) error
	CreateTexture(texture *scene.Texture) (TextureHandle, error)
	// BuildDescriptorTable publishes the texture set draws index into by
	// table offset.
	BuildDescriptorTable(textures []TextureHandle) error

	CreatePipeline(config PipelineConfig) (PipelineHandle, error)

	// Command allocators back one ring slot each and are reset only after
	// the slot's fence watermark has completed.
	CreateCommandAllocator(name string) (AllocatorHandle, error)
	ResetCommandAllocator(handle AllocatorHandle) error

	// Frame recording. BeginFrame opens the frame on the given allocator and
	// binds the per-pass constants; EndFrame submits and presents.
	BeginFrame(allocator AllocatorHandle, passConstants BufferHandle) error
	SetPipeline(handle PipelineHandle) error
	BindObjectConstants(buffer BufferHandle, offset uint64)
	BindMaterialConstants(buffer BufferHandle, offset uint64)
	BindTexture(tableIndex int)
	DrawIndexed(indexCount, startIndex uint32, baseVertex int32)
	EndFrame() error

	// Fence triplet over one monotonically increasing counter shared with
	// the queue.
	FenceSignal(value uint64) error
	FenceCompletedValue() uint64
	FenceWait(value uint64) error
}
