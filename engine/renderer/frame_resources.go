package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
)

// FrameResource is one slot of the frame ring: the command allocator and the
// constant buffers a single in-flight frame records against. While a slot's
// fence watermark has not completed on the device, nothing in the slot may be
// touched.
type FrameResource struct {
	Allocator AllocatorHandle

	PassCB     *UploadBuffer
	ObjectCB   *UploadBuffer
	MaterialCB *UploadBuffer

	// Fence is the queue value whose completion proves the device is done
	// with this slot. Zero means the slot has never been submitted and is
	// immediately reusable.
	Fence uint64
}

func newFrameResource(backend Backend, slot int, objectCount, materialCount int) (*FrameResource, error) {
	allocator, err := backend.CreateCommandAllocator(fmt.Sprintf("frame-%d", slot))
	if err != nil {
		err = fmt.Errorf("failed to create command allocator for slot %d: %w", slot, err)
		core.LogError(err.Error())
		return nil, err
	}

	passCB, err := NewUploadBuffer(backend, fmt.Sprintf("pass-cb-%d", slot), PassConstantsSize, 1, true)
	if err != nil {
		return nil, err
	}
	objectCB, err := NewUploadBuffer(backend, fmt.Sprintf("object-cb-%d", slot), ObjectConstantsSize, objectCount, true)
	if err != nil {
		return nil, err
	}
	materialCB, err := NewUploadBuffer(backend, fmt.Sprintf("material-cb-%d", slot), MaterialConstantsSize, materialCount, true)
	if err != nil {
		return nil, err
	}

	return &FrameResource{
		Allocator:  allocator,
		PassCB:     passCB,
		ObjectCB:   objectCB,
		MaterialCB: materialCB,
	}, nil
}

func (fr *FrameResource) destroy() {
	fr.PassCB.Destroy()
	fr.ObjectCB.Destroy()
	fr.MaterialCB.Destroy()
}

// frameRing owns the N frame resource slots and the current cursor. Depth is
// fixed at startup; the CPU can run up to depth-1 frames ahead of the device.
type frameRing struct {
	frames  []*FrameResource
	current int
}

func newFrameRing(backend Backend, depth, objectCount, materialCount int) (*frameRing, error) {
	if depth < 1 {
		err := fmt.Errorf("frame ring depth must be at least 1, got %d", depth)
		core.LogError(err.Error())
		return nil, err
	}

	frames := make([]*FrameResource, depth)
	for i := range frames {
		fr, err := newFrameResource(backend, i, objectCount, materialCount)
		if err != nil {
			return nil, err
		}
		frames[i] = fr
	}
	return &frameRing{frames: frames}, nil
}

// advance moves the cursor to the next slot and returns it. The caller still
// has to prove the slot is idle before using it.
func (r *frameRing) advance() *FrameResource {
	r.current = (r.current + 1) % len(r.frames)
	return r.frames[r.current]
}

func (r *frameRing) currentFrame() *FrameResource {
	return r.frames[r.current]
}

func (r *frameRing) depth() int {
	return len(r.frames)
}

func (r *frameRing) destroy() {
	for _, fr := range r.frames {
		fr.destroy()
	}
}
