// Package headless implements the renderer backend entirely in memory: upload
// buffers are byte slices, frames are recorded draw lists and the fence is a
// plain counter. It backs the renderer's tests and runs anywhere, including
// CI machines with no display or GPU.
package headless

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/scene"
)

// DrawRecord is one recorded indexed draw with everything that was bound at
// the time.
type DrawRecord struct {
	Pipeline       renderer.PipelineHandle
	TableIndex     int
	MaterialBuffer renderer.BufferHandle
	MaterialOffset uint64
	ObjectBuffer   renderer.BufferHandle
	ObjectOffset   uint64
	IndexCount     uint32
	StartIndex     uint32
	BaseVertex     int32
}

// Frame is one submitted frame's draw list.
type Frame struct {
	Allocator renderer.AllocatorHandle
	PassCB    renderer.BufferHandle
	Draws     []DrawRecord
}

// Backend records everything and completes fences either synchronously (the
// default, where every signal completes immediately) or manually through
// Complete, which lets tests hold frames "on the device" and observe the
// renderer blocking.
type Backend struct {
	mu   sync.Mutex
	cond *sync.Cond

	manualFence bool
	signalled   uint64
	completed   uint64

	nextHandle uint32

	buffers     map[renderer.BufferHandle][]byte
	bufferNames map[string]renderer.BufferHandle
	writeCount  int

	allocators map[renderer.AllocatorHandle]string
	pipelines  map[renderer.PipelineHandle]renderer.PipelineConfig

	vertices []math.Vertex
	indices  []uint32

	textures []*scene.Texture
	table    []renderer.TextureHandle

	width, height uint32
	resizeCount   int

	recording *Frame
	boundPipe renderer.PipelineHandle
	boundTex  int
	boundMat  DrawRecord
	frames    []Frame
}

// New builds a backend whose fence completes as soon as it is signalled, so
// the renderer never blocks.
func New() *Backend {
	b := &Backend{
		buffers:     map[renderer.BufferHandle][]byte{},
		bufferNames: map[string]renderer.BufferHandle{},
		allocators:  map[renderer.AllocatorHandle]string{},
		pipelines:   map[renderer.PipelineHandle]renderer.PipelineConfig{},
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// NewManual builds a backend whose fence only completes when the test calls
// Complete, emulating a device that is still busy.
func NewManual() *Backend {
	b := New()
	b.manualFence = true
	return b
}

func (b *Backend) Initialize(appName string, width, height uint32) error {
	b.width = width
	b.height = height
	core.LogDebug("headless backend up for `%s` (%dx%d)", appName, width, height)
	return nil
}

func (b *Backend) Shutdown() error {
	return nil
}

func (b *Backend) Resized(width, height uint32) error {
	b.width = width
	b.height = height
	b.resizeCount++
	return nil
}

func (b *Backend) CreateUploadBuffer(name string, size uint64) (renderer.BufferHandle, error) {
	b.nextHandle++
	h := renderer.BufferHandle(b.nextHandle)
	b.buffers[h] = make([]byte, size)
	b.bufferNames[name] = h
	return h, nil
}

// BufferByName resolves a buffer by its creation name, for test readback.
func (b *Backend) BufferByName(name string) (renderer.BufferHandle, bool) {
	h, ok := b.bufferNames[name]
	return h, ok
}

func (b *Backend) DestroyBuffer(handle renderer.BufferHandle) error {
	if _, ok := b.buffers[handle]; !ok {
		return fmt.Errorf("destroy of unknown buffer %d", handle)
	}
	delete(b.buffers, handle)
	return nil
}

func (b *Backend) WriteBuffer(handle renderer.BufferHandle, offset uint64, data []byte) error {
	buf, ok := b.buffers[handle]
	if !ok {
		return fmt.Errorf("write to unknown buffer %d", handle)
	}
	if offset+uint64(len(data)) > uint64(len(buf)) {
		return fmt.Errorf("write of %d bytes at %d overflows buffer of %d", len(data), offset, len(buf))
	}
	copy(buf[offset:], data)
	b.writeCount++
	return nil
}

func (b *Backend) ReadBuffer(handle renderer.BufferHandle, offset uint64, out []byte) error {
	buf, ok := b.buffers[handle]
	if !ok {
		return fmt.Errorf("read from unknown buffer %d", handle)
	}
	if offset+uint64(len(out)) > uint64(len(buf)) {
		return fmt.Errorf("read of %d bytes at %d overflows buffer of %d", len(out), offset, len(buf))
	}
	copy(out, buf[offset:])
	return nil
}

func (b *Backend) CreateGeometry(vertices []math.Vertex, indices []uint32) error {
	b.vertices = vertices
	b.indices = indices
	return nil
}

func (b *Backend) CreateTexture(texture *scene.Texture) (renderer.TextureHandle, error) {
	b.nextHandle++
	b.textures = append(b.textures, texture)
	return renderer.TextureHandle(b.nextHandle), nil
}

func (b *Backend) BuildDescriptorTable(textures []renderer.TextureHandle) error {
	b.table = textures
	return nil
}

func (b *Backend) CreatePipeline(config renderer.PipelineConfig) (renderer.PipelineHandle, error) {
	b.nextHandle++
	h := renderer.PipelineHandle(b.nextHandle)
	b.pipelines[h] = config
	return h, nil
}

// PipelineConfig returns the config a pipeline handle was created with.
func (b *Backend) PipelineConfig(handle renderer.PipelineHandle) renderer.PipelineConfig {
	return b.pipelines[handle]
}

func (b *Backend) CreateCommandAllocator(name string) (renderer.AllocatorHandle, error) {
	b.nextHandle++
	h := renderer.AllocatorHandle(b.nextHandle)
	b.allocators[h] = name
	return h, nil
}

func (b *Backend) ResetCommandAllocator(handle renderer.AllocatorHandle) error {
	if _, ok := b.allocators[handle]; !ok {
		return fmt.Errorf("reset of unknown allocator %d", handle)
	}
	return nil
}

func (b *Backend) BeginFrame(allocator renderer.AllocatorHandle, passConstants renderer.BufferHandle) error {
	if b.recording != nil {
		return fmt.Errorf("frame already recording")
	}
	b.recording = &Frame{Allocator: allocator, PassCB: passConstants}
	return nil
}

func (b *Backend) SetPipeline(handle renderer.PipelineHandle) error {
	if _, ok := b.pipelines[handle]; !ok {
		return fmt.Errorf("bind of unknown pipeline %d", handle)
	}
	b.boundPipe = handle
	return nil
}

func (b *Backend) BindObjectConstants(buffer renderer.BufferHandle, offset uint64) {
	b.boundMat.ObjectBuffer = buffer
	b.boundMat.ObjectOffset = offset
}

func (b *Backend) BindMaterialConstants(buffer renderer.BufferHandle, offset uint64) {
	b.boundMat.MaterialBuffer = buffer
	b.boundMat.MaterialOffset = offset
}

func (b *Backend) BindTexture(tableIndex int) {
	b.boundTex = tableIndex
}

func (b *Backend) DrawIndexed(indexCount, startIndex uint32, baseVertex int32) {
	if b.recording == nil {
		return
	}
	record := b.boundMat
	record.Pipeline = b.boundPipe
	record.TableIndex = b.boundTex
	record.IndexCount = indexCount
	record.StartIndex = startIndex
	record.BaseVertex = baseVertex
	b.recording.Draws = append(b.recording.Draws, record)
}

func (b *Backend) EndFrame() error {
	if b.recording == nil {
		return fmt.Errorf("no frame recording")
	}
	b.frames = append(b.frames, *b.recording)
	b.recording = nil
	return nil
}

func (b *Backend) FenceSignal(value uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if value <= b.signalled {
		return fmt.Errorf("fence signal %d is not greater than %d", value, b.signalled)
	}
	b.signalled = value
	if !b.manualFence {
		b.completed = value
		b.cond.Broadcast()
	}
	return nil
}

func (b *Backend) FenceCompletedValue() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.completed
}

func (b *Backend) FenceWait(value uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.completed < value {
		b.cond.Wait()
	}
	return nil
}

// Complete marks all fence values up to value as done on the "device" and
// wakes any blocked waiter. Only meaningful in manual mode.
func (b *Backend) Complete(value uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if value > b.completed {
		b.completed = value
	}
	b.cond.Broadcast()
}

// Frames returns every submitted frame in order.
func (b *Backend) Frames() []Frame {
	return b.frames
}

// WriteCount returns the number of buffer writes since construction.
func (b *Backend) WriteCount() int {
	return b.writeCount
}

// ResizeCount returns how many times Resized was called.
func (b *Backend) ResizeCount() int {
	return b.resizeCount
}

// Size returns the current surface size.
func (b *Backend) Size() (uint32, uint32) {
	return b.width, b.height
}
