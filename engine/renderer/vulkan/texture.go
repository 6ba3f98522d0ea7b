package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/scene"
)

// VulkanTexture is an immutable sampled image. Pixel data is uploaded once at
// creation through a transient staging buffer.
type VulkanTexture struct {
	Name    string
	Image   *VulkanImage
	Sampler vk.Sampler
}

func TextureCreate(context *VulkanContext, pool vk.CommandPool, queue vk.Queue, texture *scene.Texture) (*VulkanTexture, error) {
	if len(texture.Pixels) != int(texture.Width*texture.Height*4) {
		err := fmt.Errorf("texture `%s` pixel data does not match %dx%d RGBA8", texture.Name, texture.Width, texture.Height)
		core.LogError(err.Error())
		return nil, err
	}

	format := vk.FormatR8g8b8a8Unorm
	image, err := ImageCreate(
		context,
		vk.ImageType2d,
		texture.Width,
		texture.Height,
		format,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}

	staging, err := BufferCreate(context,
		uint64(len(texture.Pixels)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(0, texture.Pixels); err != nil {
		return nil, err
	}

	cb, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return nil, err
	}
	if err := image.TransitionLayout(context, cb, format, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		return nil, err
	}
	image.CopyFromBuffer(context, staging.Handle, cb)
	if err := image.TransitionLayout(context, cb, format, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		return nil, err
	}
	if err := cb.EndSingleUse(context, pool, queue); err != nil {
		return nil, err
	}

	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           16,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}
	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler); res != vk.Success {
		err := fmt.Errorf("failed to create sampler for texture `%s`: %s", texture.Name, VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	return &VulkanTexture{
		Name:    texture.Name,
		Image:   image,
		Sampler: sampler,
	}, nil
}

func (vt *VulkanTexture) Destroy(context *VulkanContext) {
	if vt.Sampler != nil {
		vk.DestroySampler(context.Device.LogicalDevice, vt.Sampler, context.Allocator)
		vt.Sampler = nil
	}
	if vt.Image != nil {
		vt.Image.ImageDestroy(context)
		vt.Image = nil
	}
}
