package tensor

// Unravel writes the coordinates of the row-major linear index idx into
// coords. Coordinates are recovered innermost axis first by taking the
// remainder against each extent, the same walk the GPU kernels perform.
func Unravel(idx int, shape Shape, coords []int) {
	for axis := len(shape) - 1; axis >= 0; axis-- {
		coords[axis] = idx % shape[axis]
		idx /= shape[axis]
	}
}

// FlatOffset returns offset + Σ coord·stride for the row-major linear index
// idx, without materialising the coordinates.
func FlatOffset(idx int, shape Shape, strides []int, offset int) int {
	flat := offset
	for axis := len(shape) - 1; axis >= 0; axis-- {
		coord := idx % shape[axis]
		idx /= shape[axis]
		flat += coord * strides[axis]
	}
	return flat
}
