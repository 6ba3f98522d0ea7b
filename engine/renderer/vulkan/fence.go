package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/prism/engine/containers"
	"github.com/spaghettifunk/prism/engine/core"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var pFence vk.Fence
	if res := vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &pFence); res != vk.Success {
		err := fmt.Errorf("failed to create fence")
		core.LogError(err.Error())
		return nil, err
	}
	fence.Handle = pFence
	return fence, nil
}

func (vf *VulkanFence) FenceDestroy(context *VulkanContext) {
	if vf.Handle != nil {
		vk.DestroyFence(context.Device.LogicalDevice, vf.Handle, context.Allocator)
		vf.Handle = nil
	}
	vf.IsSignaled = false
}

func (vf *VulkanFence) FenceWait(context *VulkanContext, timeoutNs uint64) bool {
	if vf.IsSignaled {
		return true
	}
	result := vk.WaitForFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		return true
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
	case vk.ErrorDeviceLost:
		core.LogError("vk_fence_wait - VK_ERROR_DEVICE_LOST.")
	case vk.ErrorOutOfHostMemory:
		core.LogError("vk_fence_wait - VK_ERROR_OUT_OF_HOST_MEMORY.")
	case vk.ErrorOutOfDeviceMemory:
		core.LogError("vk_fence_wait - VK_ERROR_OUT_OF_DEVICE_MEMORY.")
	default:
		core.LogError("vk_fence_wait - An unknown error has occurred.")
	}
	return false
}

func (vf *VulkanFence) FenceReset(context *VulkanContext) error {
	if vf.IsSignaled {
		if res := vk.ResetFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}); res != vk.Success {
			err := fmt.Errorf("failed to reset fence")
			core.LogError(err.Error())
			return err
		}
		vf.IsSignaled = false
	}
	return nil
}

// fenceSubmission pairs a timeline value with the VkFence its submission signals.
type fenceSubmission struct {
	value uint64
	fence *VulkanFence
}

// frameFence tracks a monotonically increasing timeline over per-submission
// fences. Submissions are enqueued in order, so the first pending entry always
// carries the lowest unfinished value and completion can be retired front to
// back.
type frameFence struct {
	context   *VulkanContext
	pending   *containers.RingQueue[fenceSubmission]
	pool      []*VulkanFence
	completed uint64
	signaled  uint64
}

const pendingSubmissionCapacity = 16

func newFrameFence(context *VulkanContext) *frameFence {
	return &frameFence{
		context: context,
		pending: containers.NewRingQueue[fenceSubmission](pendingSubmissionCapacity),
	}
}

// next returns a reset VkFence for the upcoming submission, reusing retired
// fences when possible.
func (ff *frameFence) next() (*VulkanFence, error) {
	if n := len(ff.pool); n > 0 {
		fence := ff.pool[n-1]
		ff.pool = ff.pool[:n-1]
		if err := fence.FenceReset(ff.context); err != nil {
			return nil, err
		}
		return fence, nil
	}
	return NewFence(ff.context, false)
}

// track records that the given fence was submitted for the given value.
// Values must be strictly increasing.
func (ff *frameFence) track(value uint64, fence *VulkanFence) error {
	if value <= ff.signaled {
		err := fmt.Errorf("fence value %d is not greater than last signaled value %d", value, ff.signaled)
		core.LogError(err.Error())
		return err
	}
	if err := ff.pending.Enqueue(fenceSubmission{value: value, fence: fence}); err != nil {
		core.LogError(err.Error())
		return err
	}
	ff.signaled = value
	return nil
}

// completedValue retires every finished submission at the front of the queue
// and returns the highest timeline value known to be complete.
func (ff *frameFence) completedValue() uint64 {
	for !ff.pending.IsEmpty() {
		front, _ := ff.pending.Peek()
		res := vk.GetFenceStatus(ff.context.Device.LogicalDevice, front.fence.Handle)
		if res != vk.Success {
			break
		}
		front.fence.IsSignaled = true
		ff.retire(front)
	}
	return ff.completed
}

// wait blocks until the submission carrying the given value has finished.
func (ff *frameFence) wait(value uint64) error {
	for ff.completed < value {
		front, err := ff.pending.Peek()
		if err != nil {
			// Nothing pending can ever complete the requested value.
			err := fmt.Errorf("waiting for fence value %d with no pending submissions", value)
			core.LogError(err.Error())
			return err
		}
		if !front.fence.FenceWait(ff.context, math.MaxUint64) {
			return core.ErrFenceTimeout
		}
		ff.retire(front)
	}
	return nil
}

func (ff *frameFence) retire(front fenceSubmission) {
	ff.pending.Dequeue()
	if front.value > ff.completed {
		ff.completed = front.value
	}
	ff.pool = append(ff.pool, front.fence)
}

func (ff *frameFence) destroy() {
	for !ff.pending.IsEmpty() {
		front, _ := ff.pending.Dequeue()
		front.fence.FenceDestroy(ff.context)
	}
	for _, fence := range ff.pool {
		fence.FenceDestroy(ff.context)
	}
	ff.pool = nil
}
