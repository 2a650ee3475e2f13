package kernel

// Error types reported by kernel backends.
const (
	ErrTypeUnavailable = "kernel-unavailable"
	ErrTypeMesh        = "kernel-mesh"
)
