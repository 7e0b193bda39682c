package webgpu

import (
	"bytes"
	"fmt"
	"math"

	"github.com/born-ml/gpuarray/internal/tensor"
)

// Kind selects the kernel template.
type Kind int

const (
	// KindElementwise combines two strided arrays of the same shape.
	KindElementwise Kind = iota
	// KindScalar combines a strided array with one scalar value.
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindElementwise:
		return "elementwise"
	case KindScalar:
		return "scalar"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Op is an elementwise arithmetic operator.
type Op int

// Supported operators.
const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpPow
	OpMin
	OpMax
)

var opNames = [...]string{
	OpAdd: "add",
	OpSub: "sub",
	OpMul: "mul",
	OpDiv: "div",
	OpRem: "rem",
	OpPow: "pow",
	OpMin: "min",
	OpMax: "max",
}

func (o Op) valid() bool {
	return o >= OpAdd && o <= OpMax
}

func (o Op) String() string {
	if !o.valid() {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// expr returns the WGSL expression applying o to lhs and rhs of type dt.
func (o Op) expr(dt tensor.DataType, lhs, rhs string) string {
	if fn := o.helper(dt); fn != "" {
		return fn + "(" + lhs + ", " + rhs + ")"
	}
	switch o {
	case OpAdd:
		return lhs + " + " + rhs
	case OpSub:
		return lhs + " - " + rhs
	case OpMul:
		return lhs + " * " + rhs
	case OpDiv:
		return lhs + " / " + rhs
	case OpRem:
		return lhs + " % " + rhs
	default:
		return o.String() + "(" + lhs + ", " + rhs + ")"
	}
}

// helper names the WGSL function in helperFuncs that implements o on dt, or
// returns "" when the builtin operator already matches Host. Integer / and %
// by zero are lowered differently per backend, and builtin pow is undefined
// for negative bases.
func (o Op) helper(dt tensor.DataType) string {
	switch {
	case o == OpPow && dt.IsFloat():
		return "pow_" + dt.WGSL()
	case (o == OpDiv || o == OpRem) && !dt.IsFloat():
		return o.String() + "_" + dt.WGSL()
	}
	return ""
}

// Host returns the host reference implementation of o for T.
func Host[T tensor.DType](o Op) func(x, y T) T {
	switch o {
	case OpAdd:
		return func(x, y T) T { return x + y }
	case OpSub:
		return func(x, y T) T { return x - y }
	case OpMul:
		return func(x, y T) T { return x * y }
	case OpDiv:
		return tensor.DivValue[T]
	case OpRem:
		return tensor.RemValue[T]
	case OpPow:
		return func(x, y T) T { return T(math.Pow(float64(x), float64(y))) }
	case OpMin:
		return func(x, y T) T { return min(x, y) }
	case OpMax:
		return func(x, y T) T { return max(x, y) }
	default:
		return nil
	}
}

// Kernel describes one generated compute shader. Offsets are element
// offsets of each operand's first logical element inside its buffer; they
// are baked into the shader as constants, so every distinct offset pair
// compiles its own pipeline. The pipeline cache lives as long as the Context.
type Kernel struct {
	Kind          Kind
	Op            Op
	DType         tensor.DataType
	Rank          int
	LHSOffset     int
	RHSOffset     int
	WorkgroupSize int
}

// Validate rejects descriptors that cannot produce a correct shader.
func (k Kernel) Validate() error {
	switch {
	case k.Kind != KindElementwise && k.Kind != KindScalar:
		return fmt.Errorf("%w: unknown kind %v", ErrInvalidKernel, k.Kind)
	case !k.Op.valid():
		return fmt.Errorf("%w: unknown op %v", ErrInvalidKernel, k.Op)
	case k.DType.WGSL() == "":
		return fmt.Errorf("%w: unsupported element type %v", ErrInvalidKernel, k.DType)
	case k.Rank < 1:
		return fmt.Errorf("%w: rank %d (must be >= 1)", ErrInvalidKernel, k.Rank)
	case k.LHSOffset < 0 || k.LHSOffset > math.MaxInt32:
		return fmt.Errorf("%w: lhs offset %d outside [0, 2^31)", ErrInvalidKernel, k.LHSOffset)
	case k.RHSOffset < 0 || k.RHSOffset > math.MaxInt32:
		return fmt.Errorf("%w: rhs offset %d outside [0, 2^31)", ErrInvalidKernel, k.RHSOffset)
	case k.Kind == KindScalar && k.RHSOffset != 0:
		return fmt.Errorf("%w: scalar kernel with rhs offset %d", ErrInvalidKernel, k.RHSOffset)
	case k.WorkgroupSize < 1 || k.WorkgroupSize > maxWorkgroupSize:
		return fmt.Errorf("%w: workgroup size %d outside 1..%d", ErrInvalidKernel, k.WorkgroupSize, maxWorkgroupSize)
	case k.Op == OpPow && !k.DType.IsFloat():
		return fmt.Errorf("%w: pow on %v", ErrInvalidKernel, k.DType)
	}
	return nil
}

// Source validates k and renders its WGSL.
func (k Kernel) Source() (string, error) {
	if err := k.Validate(); err != nil {
		return "", err
	}

	data := map[string]any{
		"Elem":          k.DType.WGSL(),
		"LastAxis":      k.Rank - 1,
		"LHSOffset":     k.LHSOffset,
		"WorkgroupSize": k.WorkgroupSize,
		"Expr":          k.Op.expr(k.DType, "a", "b"),
		"Helpers":       helperFuncs[k.Op.helper(k.DType)],
	}
	if k.Kind == KindElementwise {
		data["RHSOffset"] = k.RHSOffset
	}

	var buf bytes.Buffer
	if err := kernelTemplates.ExecuteTemplate(&buf, k.Kind.String(), data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidKernel, err)
	}
	return buf.String(), nil
}

// Key identifies the compiled pipeline for k.
func (k Kernel) Key() string {
	return fmt.Sprintf("%s_%s_%s_r%d_l%d_r%d_wg%d",
		k.Kind, k.Op, k.DType.WGSL(), k.Rank, k.LHSOffset, k.RHSOffset, k.WorkgroupSize)
}
