// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides host-side strided arrays.
//
// # Overview
//
// An Array pairs a flat element slice with a Layout (shape, signed strides
// and an element offset). Slicing, axis permutation and broadcasting only
// produce new layouts over the same data:
//   - Slice with ndarray rules (negative indices count from the end, a
//     negative step walks the range backwards)
//   - ReversedAxes / Transpose
//   - BroadcastTo and NumPy-style broadcasting in binary ops
//
// The same Layout type describes GPU-resident views in backend/webgpu, and
// the host operations here are the reference the GPU kernels are tested
// against.
//
// # Basic Usage
//
//	a, _ := tensor.New(tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
//	col, _ := a.Slice(tensor.All(), tensor.Index(-1))
//	sum, _ := tensor.Add(a, col) // broadcasts [2, 1] over [2, 3]
//
// # Supported Data Types
//
// float32, int32 and uint32: the element types a WGSL storage buffer holds
// without extensions.
package tensor
