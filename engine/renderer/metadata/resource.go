package metadata

import "github.com/spaghettifunk/toybricks/engine/core"

type ResourceType int

/** @brief Resource types understood by the asset loaders. */
const (
	/** @brief Compiled SPIR-V shader stage. */
	ResourceTypeShader ResourceType = iota
	/** @brief Decoded RGBA image. */
	ResourceTypeImage
	/** @brief Triangle mesh. */
	ResourceTypeMesh
	/** @brief Raw bytes. */
	ResourceTypeBinary
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeMesh:
		return "mesh"
	case ResourceTypeBinary:
		return "binary"
	}
	return "unknown"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	ID core.ID
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief One of *Mesh, *TextureData, *ShaderData or []byte. */
	Data interface{}
}

// Free drops the host copy of the resource data.
func (r *Resource) Free() {
	if f, ok := r.Data.(interface{ Free() }); ok {
		f.Free()
	}
	r.Data = nil
	r.DataSize = 0
}
