package webgpu

import "errors"

// Sentinel errors. Callers match them with errors.Is; the concrete error
// usually wraps one of these with operation context.
var (
	// ErrNoAdapter is returned by New when no compatible GPU adapter or
	// native library is available.
	ErrNoAdapter = errors.New("webgpu: no compatible adapter")

	// ErrReleased is returned when a context is used after Release.
	ErrReleased = errors.New("webgpu: context released")

	// ErrForeignContext is returned when operands belong to different contexts.
	ErrForeignContext = errors.New("webgpu: operands belong to different contexts")

	// ErrUnresolved is returned when an address or buffer id does not belong to
	// any arena region.
	ErrUnresolved = errors.New("webgpu: address not in any buffer region")

	// ErrMisaligned is returned when an address is not on an element boundary.
	ErrMisaligned = errors.New("webgpu: address not on an element boundary")

	// ErrOutOfBounds is returned when a view reaches outside its buffer region.
	ErrOutOfBounds = errors.New("webgpu: view reaches outside its buffer region")

	// ErrInvalidKernel is returned by Kernel.Validate.
	ErrInvalidKernel = errors.New("webgpu: invalid kernel descriptor")

	// ErrTooLarge is returned when a shape, stride or dispatch does not fit the
	// kernel's 32-bit index arithmetic or the device dispatch limit.
	ErrTooLarge = errors.New("webgpu: value exceeds kernel limits")

	// ErrMapFailed is returned when the device reports a failed buffer mapping.
	ErrMapFailed = errors.New("webgpu: buffer mapping failed")

	// ErrMapTimeout is returned when a mapping does not complete before the
	// context deadline.
	ErrMapTimeout = errors.New("webgpu: buffer mapping timed out")

	// ErrInvalidConfig is returned by New for out-of-range options.
	ErrInvalidConfig = errors.New("webgpu: invalid configuration")
)
