package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
)

// UploadBuffer is a CPU-visible constant or structured buffer holding an array
// of equally sized elements. Writes go straight through to memory the device
// reads, which is why a frame's elements must not be rewritten while that
// frame is still in flight.
type UploadBuffer struct {
	backend Backend
	handle  BufferHandle

	elementSize  uint64
	stride       uint64
	elementCount int
}

// NewUploadBuffer allocates a buffer of elementCount elements. Constant
// buffers pad each element's stride to the device alignment boundary;
// structured buffers pack tightly.
func NewUploadBuffer(backend Backend, name string, elementSize uint64, elementCount int, isConstantBuffer bool) (*UploadBuffer, error) {
	if elementCount <= 0 {
		err := fmt.Errorf("upload buffer `%s` needs a positive element count, got %d", name, elementCount)
		core.LogError(err.Error())
		return nil, err
	}

	stride := elementSize
	if isConstantBuffer {
		stride = alignUp(elementSize, ConstantAlignment)
	}

	handle, err := backend.CreateUploadBuffer(name, stride*uint64(elementCount))
	if err != nil {
		err = fmt.Errorf("failed to create upload buffer `%s`: %w", name, err)
		core.LogError(err.Error())
		return nil, err
	}

	return &UploadBuffer{
		backend:      backend,
		handle:       handle,
		elementSize:  elementSize,
		stride:       stride,
		elementCount: elementCount,
	}, nil
}

// CopyData writes one element's bytes at its strided offset.
func (ub *UploadBuffer) CopyData(index int, data []byte) error {
	if index < 0 || index >= ub.elementCount {
		err := fmt.Errorf("upload buffer element index %d out of range [0, %d)", index, ub.elementCount)
		core.LogError(err.Error())
		return err
	}
	if uint64(len(data)) > ub.stride {
		err := fmt.Errorf("upload buffer element write of %d bytes exceeds stride %d", len(data), ub.stride)
		core.LogError(err.Error())
		return err
	}
	return ub.backend.WriteBuffer(ub.handle, uint64(index)*ub.stride, data)
}

// ReadData reads one element back, used by tests and debug captures.
func (ub *UploadBuffer) ReadData(index int, out []byte) error {
	if index < 0 || index >= ub.elementCount {
		err := fmt.Errorf("upload buffer element index %d out of range [0, %d)", index, ub.elementCount)
		core.LogError(err.Error())
		return err
	}
	return ub.backend.ReadBuffer(ub.handle, uint64(index)*ub.stride, out)
}

// Handle returns the backend buffer for binding.
func (ub *UploadBuffer) Handle() BufferHandle {
	return ub.handle
}

// ElementOffset returns the byte offset of an element, for dynamic binds.
func (ub *UploadBuffer) ElementOffset(index int) uint64 {
	return uint64(index) * ub.stride
}

// Stride returns the padded element stride in bytes.
func (ub *UploadBuffer) Stride() uint64 {
	return ub.stride
}

func (ub *UploadBuffer) Destroy() error {
	return ub.backend.DestroyBuffer(ub.handle)
}

func alignUp(v, alignment uint64) uint64 {
	return (v + alignment - 1) &^ (alignment - 1)
}
