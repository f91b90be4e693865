package core

import "errors"

var (
	ErrNoSuitableDevice            = errors.New("failed to find a GPU that meets the requirements")
	ErrNoMemoryType                = errors.New("unable to find a suitable memory type")
	ErrUniformSizeMismatch         = errors.New("uniform buffer update size does not match buffer size")
	ErrUnsupportedLayoutTransition = errors.New("unsupported image layout transition")
	ErrNoSupportedFormat           = errors.New("no candidate format is supported")
	ErrValidationLayerMissing      = errors.New("required validation layer is missing")
	ErrLinearBlitUnsupported       = errors.New("texture image format does not support linear blitting")
	ErrSwapchainOutOfDate          = errors.New("swapchain is out of date")
	ErrAssetNotFound               = errors.New("asset not found")
	ErrUnknownAssetType            = errors.New("unknown asset type")
)
