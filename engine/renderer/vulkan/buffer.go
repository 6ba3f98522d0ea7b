package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/prism/engine/core"
)

type VulkanBuffer struct {
	Handle      vk.Buffer
	Memory      vk.DeviceMemory
	TotalSize   uint64
	Usage       vk.BufferUsageFlags
	MemoryFlags vk.MemoryPropertyFlags

	// Persistent mapping, only set for host-visible buffers.
	mapped unsafe.Pointer
}

func BufferCreate(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{
		TotalSize:   size,
		Usage:       usage,
		MemoryFlags: memoryFlags,
	}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create buffer: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Handle = handle

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryIndex := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryIndex == -1 {
		err := fmt.Errorf("required memory type not found, buffer not valid")
		core.LogError(err.Error())
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		core.LogError("unable to allocate buffer memory")
		return nil, core.ErrOutOfMemory
	}
	buffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		err := fmt.Errorf("failed to bind buffer memory: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	// Keep host-visible buffers permanently mapped.
	if memoryFlags&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) != 0 {
		var data unsafe.Pointer
		if res := vk.MapMemory(context.Device.LogicalDevice, buffer.Memory, 0, vk.DeviceSize(size), 0, &data); res != vk.Success {
			err := fmt.Errorf("failed to map buffer memory: %s", VulkanResultString(res))
			core.LogError(err.Error())
			return nil, err
		}
		buffer.mapped = data
	}

	return buffer, nil
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	if vb.mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
		vb.mapped = nil
	}
	if vb.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = nil
	}
	if vb.Handle != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = nil
	}
	vb.TotalSize = 0
}

// LoadData copies data into a host-visible buffer at the given offset.
func (vb *VulkanBuffer) LoadData(offset uint64, data []byte) error {
	if vb.mapped == nil {
		err := fmt.Errorf("buffer is not host-visible, cannot load data directly")
		core.LogError(err.Error())
		return err
	}
	if offset+uint64(len(data)) > vb.TotalSize {
		err := fmt.Errorf("buffer write of %d bytes at offset %d exceeds size %d", len(data), offset, vb.TotalSize)
		core.LogError(err.Error())
		return err
	}
	dst := unsafe.Slice((*byte)(vb.mapped), vb.TotalSize)
	copy(dst[offset:], data)
	return nil
}

// ReadData copies data out of a host-visible buffer at the given offset.
func (vb *VulkanBuffer) ReadData(offset uint64, out []byte) error {
	if vb.mapped == nil {
		err := fmt.Errorf("buffer is not host-visible, cannot read data directly")
		core.LogError(err.Error())
		return err
	}
	if offset+uint64(len(out)) > vb.TotalSize {
		err := fmt.Errorf("buffer read of %d bytes at offset %d exceeds size %d", len(out), offset, vb.TotalSize)
		core.LogError(err.Error())
		return err
	}
	src := unsafe.Slice((*byte)(vb.mapped), vb.TotalSize)
	copy(out, src[offset:])
	return nil
}

// CopyTo records and submits a single-use transfer into a device-local buffer.
func (vb *VulkanBuffer) CopyTo(context *VulkanContext, pool vk.CommandPool, queue vk.Queue, dest *VulkanBuffer, size uint64) error {
	if res := vk.QueueWaitIdle(queue); res != vk.Success {
		err := fmt.Errorf("queue failed to wait in idle mode")
		core.LogError(err.Error())
		return err
	}

	cb, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}

	copyRegion := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(cb.Handle, vb.Handle, dest.Handle, 1, []vk.BufferCopy{copyRegion})

	return cb.EndSingleUse(context, pool, queue)
}

// UploadViaStaging creates a transient staging buffer, fills it and copies it
// into the device-local destination.
func UploadViaStaging(context *VulkanContext, pool vk.CommandPool, queue vk.Queue, dest *VulkanBuffer, data []byte) error {
	staging, err := BufferCreate(context,
		uint64(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(0, data); err != nil {
		return err
	}
	return staging.CopyTo(context, pool, queue, dest, uint64(len(data)))
}
