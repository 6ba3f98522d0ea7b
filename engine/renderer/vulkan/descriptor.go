package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
)

const (
	bindingPassConstants     = 0
	bindingObjectConstants   = 1
	bindingMaterialConstants = 2
	bindingTextureTable      = 3

	// One descriptor set per ring slot is the steady state; extra headroom
	// covers swapchain recreation reusing new buffer handles.
	maxDescriptorSets = 16

	// maxTextureTable is the fixed size of the sampler array binding. The
	// shaders declare the same bound, so unused slots are padded rather than
	// shrinking the binding to the scene's texture count.
	maxTextureTable = 16
)

// descriptorKey identifies the constant buffer triple a set points at. Per-draw
// variation goes through dynamic offsets and the texture push constant, so one
// set per ring slot is enough.
type descriptorKey struct {
	pass     renderer.BufferHandle
	object   renderer.BufferHandle
	material renderer.BufferHandle
}

// vulkanDescriptorTable owns the single set layout shared by every pipeline:
// three dynamic uniform buffers plus the immutable texture array draws index
// into by push constant.
type vulkanDescriptorTable struct {
	layout   vk.DescriptorSetLayout
	pool     vk.DescriptorPool
	textures []*VulkanTexture
	sets     map[descriptorKey]vk.DescriptorSet
}

func newDescriptorTable(context *VulkanContext, textures []*VulkanTexture) (*vulkanDescriptorTable, error) {
	if len(textures) == 0 {
		err := fmt.Errorf("descriptor table requires at least one texture")
		core.LogError(err.Error())
		return nil, err
	}
	if len(textures) > maxTextureTable {
		err := fmt.Errorf("descriptor table holds at most %d textures, got %d", maxTextureTable, len(textures))
		core.LogError(err.Error())
		return nil, err
	}

	bindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         bindingPassConstants,
			DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
		{
			Binding:         bindingObjectConstants,
			DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         bindingMaterialConstants,
			DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
		{
			Binding:         bindingTextureTable,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: maxTextureTable,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}

	layoutCreateInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutCreateInfo, context.Allocator, &layout); res != vk.Success {
		err := fmt.Errorf("failed to create descriptor set layout: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	poolSizes := []vk.DescriptorPoolSize{
		{
			Type:            vk.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: 3 * maxDescriptorSets,
		},
		{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: maxTextureTable * maxDescriptorSets,
		},
	}
	poolCreateInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       maxDescriptorSets,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, layout, context.Allocator)
		err := fmt.Errorf("failed to create descriptor pool: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	return &vulkanDescriptorTable{
		layout:   layout,
		pool:     pool,
		textures: textures,
		sets:     make(map[descriptorKey]vk.DescriptorSet),
	}, nil
}

// set returns the descriptor set for the given buffer triple, allocating and
// writing it on first use.
func (dt *vulkanDescriptorTable) set(context *VulkanContext, key descriptorKey, pass, object, material *VulkanBuffer) (vk.DescriptorSet, error) {
	if existing, ok := dt.sets[key]; ok {
		return existing, nil
	}

	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     dt.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{dt.layout},
	}
	sets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &sets[0]); res != vk.Success {
		err := fmt.Errorf("failed to allocate descriptor set: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	set := sets[0]

	bufferWrite := func(binding uint32, buffer *VulkanBuffer, elementRange uint64) vk.WriteDescriptorSet {
		return vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      binding,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
			PBufferInfo: []vk.DescriptorBufferInfo{
				{
					Buffer: buffer.Handle,
					Offset: 0,
					Range:  vk.DeviceSize(elementRange),
				},
			},
		}
	}

	// Slots past the scene's texture count repeat the first texture so every
	// array element stays valid to sample.
	imageInfos := make([]vk.DescriptorImageInfo, maxTextureTable)
	for i := range imageInfos {
		texture := dt.textures[0]
		if i < len(dt.textures) {
			texture = dt.textures[i]
		}
		imageInfos[i] = vk.DescriptorImageInfo{
			Sampler:     texture.Sampler,
			ImageView:   texture.Image.View,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}
	}

	writes := []vk.WriteDescriptorSet{
		bufferWrite(bindingPassConstants, pass, renderer.PassConstantsSize),
		bufferWrite(bindingObjectConstants, object, renderer.ObjectConstantsSize),
		bufferWrite(bindingMaterialConstants, material, renderer.MaterialConstantsSize),
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      bindingTextureTable,
			DescriptorCount: uint32(len(imageInfos)),
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo:      imageInfos,
		},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)

	dt.sets[key] = set
	return set, nil
}

// invalidate drops cached sets whose buffers no longer exist.
func (dt *vulkanDescriptorTable) invalidate(handle renderer.BufferHandle) {
	for key := range dt.sets {
		if key.pass == handle || key.object == handle || key.material == handle {
			delete(dt.sets, key)
		}
	}
}

func (dt *vulkanDescriptorTable) destroy(context *VulkanContext) {
	if dt.pool != nil {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, dt.pool, context.Allocator)
		dt.pool = nil
	}
	if dt.layout != nil {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, dt.layout, context.Allocator)
		dt.layout = nil
	}
	dt.sets = nil
}
