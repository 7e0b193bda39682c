package tensor

import "errors"

// Sentinel errors returned by layout and array operations.
var (
	// ErrInvalidShape is returned when a shape has a non-positive extent or
	// does not match the amount of data supplied.
	ErrInvalidShape = errors.New("tensor: invalid shape")

	// ErrBroadcast is returned when two shapes cannot be broadcast together.
	ErrBroadcast = errors.New("tensor: shapes not broadcast-compatible")

	// ErrInvalidSlice is returned for a slice argument that selects nothing,
	// has a zero step, or does not match the array rank.
	ErrInvalidSlice = errors.New("tensor: invalid slice")

	// ErrInvalidAxes is returned when transpose axes are not a permutation.
	ErrInvalidAxes = errors.New("tensor: invalid axes")

	// ErrNotContiguous is returned when an operation needs a standard layout.
	ErrNotContiguous = errors.New("tensor: layout is not contiguous")

	// ErrUnsupported is returned when an operation is undefined for the element type.
	ErrUnsupported = errors.New("tensor: unsupported for element type")
)
