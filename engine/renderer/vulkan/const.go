package vulkan

import "math"

// MaxFramesInFlight is the number of frames the CPU may record ahead of the GPU.
const MaxFramesInFlight uint32 = 2

const (
	// DefaultFenceTimeout bounds one wait on an in-flight fence. Expiry is
	// logged and the wait is retried.
	DefaultFenceTimeout uint64 = math.MaxUint64

	acquireTimeout uint64 = math.MaxUint64
)

const minSampleShading float32 = 0.2

var clearColor = [4]float32{0, 0, 0, 1}

const (
	clearDepth   float32 = 1.0
	clearStencil uint32  = 0
)
