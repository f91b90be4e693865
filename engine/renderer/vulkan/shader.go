package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
)

const shaderEntryPoint = "main"

type VulkanShaderStage struct {
	Module vk.ShaderModule
	Stage  vk.ShaderStageFlagBits
}

func shaderStageBit(stage string) (vk.ShaderStageFlagBits, error) {
	switch stage {
	case "vert", "vertex":
		return vk.ShaderStageVertexBit, nil
	case "frag", "fragment":
		return vk.ShaderStageFragmentBit, nil
	}
	return 0, fmt.Errorf("unsupported shader stage %q", stage)
}

// ShaderStageCreate wraps loaded SPIR-V in a shader module.
func ShaderStageCreate(ctx *DeviceContext, data *metadata.ShaderData) (*VulkanShaderStage, error) {
	stage, err := shaderStageBit(data.Stage)
	if err != nil {
		return nil, err
	}
	if len(data.Code) == 0 {
		return nil, fmt.Errorf("%s shader has no code", data.Stage)
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(data.Code) * 4),
		PCode:    data.Code,
	}
	var module vk.ShaderModule
	if err := vkCheck(vk.CreateShaderModule(ctx.Device.LogicalDevice, &createInfo, ctx.Allocator, &module), "vkCreateShaderModule"); err != nil {
		core.LogError("%s shader: %s", data.Stage, err)
		return nil, err
	}
	return &VulkanShaderStage{Module: module, Stage: stage}, nil
}

func (s *VulkanShaderStage) CreateInfo() vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  s.Stage,
		Module: s.Module,
		PName:  VulkanSafeString(shaderEntryPoint),
	}
}

func (s *VulkanShaderStage) Destroy(ctx *DeviceContext) {
	if s.Module != vk.NullShaderModule {
		vk.DestroyShaderModule(ctx.Device.LogicalDevice, s.Module, ctx.Allocator)
		s.Module = vk.NullShaderModule
	}
}
