package vulkan

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/prism/engine/core"
)

// VulkanShaderStage holds a compiled shader module and its pipeline stage info.
type VulkanShaderStage struct {
	Handle                vk.ShaderModule
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// NewShaderStage loads a compiled SPIR-V binary from the assets directory and
// wraps it in a shader module. Shader names follow the "<name>.spv" convention.
func NewShaderStage(context *VulkanContext, assetsDir, name string, shaderStageFlag vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	fileName := filepath.Join(assetsDir, "shaders", fmt.Sprintf("%s.spv", name))

	raw, err := os.ReadFile(fileName)
	if err != nil {
		err := fmt.Errorf("unable to read shader module %s: %w", fileName, err)
		core.LogError(err.Error())
		return nil, err
	}
	if len(raw) == 0 || len(raw)%4 != 0 {
		err := fmt.Errorf("shader module %s is not valid SPIR-V", fileName)
		core.LogError(err.Error())
		return nil, err
	}

	code := make([]uint32, len(raw)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}

	stage := &VulkanShaderStage{}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(raw)),
		PCode:    code,
	}
	if res := vk.CreateShaderModule(
		context.Device.LogicalDevice,
		&createInfo,
		context.Allocator,
		&stage.Handle); res != vk.Success {
		err := fmt.Errorf("failed to create shader module %s: %s", fileName, VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	stage.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  shaderStageFlag,
		Module: stage.Handle,
		PName:  VulkanSafeString("main"),
	}
	return stage, nil
}

func (vs *VulkanShaderStage) Destroy(context *VulkanContext) {
	if vs.Handle != nil {
		vk.DestroyShaderModule(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = nil
	}
}
