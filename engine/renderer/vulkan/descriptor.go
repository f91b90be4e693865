package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
)

const (
	bindingUniform uint32 = 0
	bindingSampler uint32 = 1
)

// VulkanDescriptors holds the single set layout, its pool and one set per
// frame in flight.
type VulkanDescriptors struct {
	Layout vk.DescriptorSetLayout
	Pool   vk.DescriptorPool
	Sets   []vk.DescriptorSet
}

/** @brief Binding 0 is the uniform block (vertex), binding 1 the texture sampler (fragment). */
func descriptorBindings() []vk.DescriptorSetLayoutBinding {
	return []vk.DescriptorSetLayoutBinding{
		{
			Binding:         bindingUniform,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         bindingSampler,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
}

func descriptorPoolSizes(frames uint32) []vk.DescriptorPoolSize {
	return []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: frames},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: frames},
	}
}

func (d *VulkanDescriptors) InitLayout(ctx *DeviceContext) error {
	bindings := descriptorBindings()
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := vkCheck(vk.CreateDescriptorSetLayout(ctx.Device.LogicalDevice, &createInfo, ctx.Allocator, &layout), "vkCreateDescriptorSetLayout"); err != nil {
		core.LogError(err.Error())
		return err
	}
	d.Layout = layout
	return nil
}

func (d *VulkanDescriptors) InitPool(ctx *DeviceContext, frames uint32) error {
	sizes := descriptorPoolSizes(frames)
	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       frames,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var pool vk.DescriptorPool
	if err := vkCheck(vk.CreateDescriptorPool(ctx.Device.LogicalDevice, &createInfo, ctx.Allocator, &pool), "vkCreateDescriptorPool"); err != nil {
		core.LogError(err.Error())
		return err
	}
	d.Pool = pool
	return nil
}

// InitSets allocates one set per uniform buffer and points each at its
// buffer and at the shared texture.
func (d *VulkanDescriptors) InitSets(ctx *DeviceContext, uniforms []*UniformBuffer, texture *VulkanTexture) error {
	device := ctx.Device.LogicalDevice
	d.Sets = make([]vk.DescriptorSet, len(uniforms))
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.Pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{d.Layout},
	}

	for i, ub := range uniforms {
		if err := vkCheck(vk.AllocateDescriptorSets(device, &allocInfo, &d.Sets[i]), "vkAllocateDescriptorSets"); err != nil {
			core.LogError(err.Error())
			return err
		}

		bufferInfo := vk.DescriptorBufferInfo{
			Buffer: ub.Handle(),
			Offset: 0,
			Range:  vk.DeviceSize(metadata.UniformBufferObjectSize),
		}
		imageInfo := vk.DescriptorImageInfo{
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			ImageView:   texture.Image.View,
			Sampler:     texture.Sampler,
		}
		writes := []vk.WriteDescriptorSet{
			{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          d.Sets[i],
				DstBinding:      bindingUniform,
				DstArrayElement: 0,
				DescriptorType:  vk.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
				PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
			},
			{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          d.Sets[i],
				DstBinding:      bindingSampler,
				DstArrayElement: 0,
				DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,
				PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
			},
		}
		vk.UpdateDescriptorSets(device, uint32(len(writes)), writes, 0, nil)
	}
	return nil
}

// Destroy releases the pool, which frees its sets, then the layout.
func (d *VulkanDescriptors) Destroy(ctx *DeviceContext) {
	device := ctx.Device.LogicalDevice
	if d.Pool != nil {
		vk.DestroyDescriptorPool(device, d.Pool, ctx.Allocator)
		d.Pool = nil
	}
	d.Sets = nil
	if d.Layout != nil {
		vk.DestroyDescriptorSetLayout(device, d.Layout, ctx.Allocator)
		d.Layout = nil
	}
}
