package webgpu

import "github.com/born-ml/gpuarray/internal/tensor"

func mustBinary[T tensor.DType](name string, op Op, a, b *Array[T]) *Array[T] {
	result, err := Binary(op, a, b)
	if err != nil {
		panic("webgpu: " + name + ": " + err.Error())
	}
	return result
}

func mustScalar[T tensor.DType](name string, op Op, a *Array[T], s T) *Array[T] {
	result, err := Scalar(op, a, s)
	if err != nil {
		panic("webgpu: " + name + ": " + err.Error())
	}
	return result
}

// Add returns a + b with broadcasting. Panics on error; use Binary to get
// the error instead.
func (a *Array[T]) Add(b *Array[T]) *Array[T] { return mustBinary("Add", OpAdd, a, b) }

// Sub returns a - b with broadcasting.
func (a *Array[T]) Sub(b *Array[T]) *Array[T] { return mustBinary("Sub", OpSub, a, b) }

// Mul returns a * b with broadcasting.
func (a *Array[T]) Mul(b *Array[T]) *Array[T] { return mustBinary("Mul", OpMul, a, b) }

// Div returns a / b with broadcasting. Integer division by zero yields a.
func (a *Array[T]) Div(b *Array[T]) *Array[T] { return mustBinary("Div", OpDiv, a, b) }

// Rem returns the truncated remainder a % b with broadcasting.
func (a *Array[T]) Rem(b *Array[T]) *Array[T] { return mustBinary("Rem", OpRem, a, b) }

// Min returns the elementwise minimum with broadcasting.
func (a *Array[T]) Min(b *Array[T]) *Array[T] { return mustBinary("Min", OpMin, a, b) }

// Max returns the elementwise maximum with broadcasting.
func (a *Array[T]) Max(b *Array[T]) *Array[T] { return mustBinary("Max", OpMax, a, b) }

// Pow returns a raised to b elementwise. Float32 only.
func (a *Array[T]) Pow(b *Array[T]) *Array[T] { return mustBinary("Pow", OpPow, a, b) }

// AddScalar returns a + s.
func (a *Array[T]) AddScalar(s T) *Array[T] { return mustScalar("AddScalar", OpAdd, a, s) }

// SubScalar returns a - s.
func (a *Array[T]) SubScalar(s T) *Array[T] { return mustScalar("SubScalar", OpSub, a, s) }

// MulScalar returns a * s.
func (a *Array[T]) MulScalar(s T) *Array[T] { return mustScalar("MulScalar", OpMul, a, s) }

// DivScalar returns a / s.
func (a *Array[T]) DivScalar(s T) *Array[T] { return mustScalar("DivScalar", OpDiv, a, s) }

// RemScalar returns a % s.
func (a *Array[T]) RemScalar(s T) *Array[T] { return mustScalar("RemScalar", OpRem, a, s) }

// MinScalar returns min(a, s).
func (a *Array[T]) MinScalar(s T) *Array[T] { return mustScalar("MinScalar", OpMin, a, s) }

// MaxScalar returns max(a, s).
func (a *Array[T]) MaxScalar(s T) *Array[T] { return mustScalar("MaxScalar", OpMax, a, s) }

// PowScalar returns a raised to s. Float32 only.
func (a *Array[T]) PowScalar(s T) *Array[T] { return mustScalar("PowScalar", OpPow, a, s) }
