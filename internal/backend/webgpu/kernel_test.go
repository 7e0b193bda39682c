package webgpu

import (
	"math"
	"strings"
	"testing"

	"github.com/born-ml/gpuarray/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseKernel() Kernel {
	return Kernel{
		Kind:          KindElementwise,
		Op:            OpAdd,
		DType:         tensor.Float32,
		Rank:          3,
		LHSOffset:     0,
		RHSOffset:     5,
		WorkgroupSize: 64,
	}
}

func TestKernelValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Kernel)
		ok     bool
	}{
		{"valid", func(*Kernel) {}, true},
		{"unknown kind", func(k *Kernel) { k.Kind = Kind(7) }, false},
		{"unknown op", func(k *Kernel) { k.Op = Op(42) }, false},
		{"rank zero", func(k *Kernel) { k.Rank = 0 }, false},
		{"negative offset", func(k *Kernel) { k.LHSOffset = -1 }, false},
		{"offset overflow", func(k *Kernel) { k.RHSOffset = math.MaxInt32 + 1 }, false},
		{"workgroup zero", func(k *Kernel) { k.WorkgroupSize = 0 }, false},
		{"workgroup too large", func(k *Kernel) { k.WorkgroupSize = 512 }, false},
		{"pow on int", func(k *Kernel) { k.Op = OpPow; k.DType = tensor.Int32 }, false},
		{"pow on float", func(k *Kernel) { k.Op = OpPow }, true},
		{"scalar with rhs offset", func(k *Kernel) { k.Kind = KindScalar }, false},
		{"scalar", func(k *Kernel) { k.Kind = KindScalar; k.RHSOffset = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := baseKernel()
			tt.mutate(&k)
			err := k.Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidKernel)

			_, err = k.Source()
			require.ErrorIs(t, err, ErrInvalidKernel)
		})
	}
}

func TestElementwiseSource(t *testing.T) {
	src, err := baseKernel().Source()
	require.NoError(t, err)

	for _, want := range []string{
		"var<storage, read> lhs: array<f32>;",
		"@group(0) @binding(4) var<storage, read> rhs: array<f32>;",
		"@group(0) @binding(5) var<storage, read_write> result: array<f32>;",
		"@workgroup_size(64)",
		"var lhs_index: i32 = 0;",
		"var rhs_index: i32 = 5;",
		"for (var axis: i32 = 2; axis >= 0; axis--)",
		"result[id] = a + b;",
		"let id = global_id.x + global_id.y * groups.x * 64u;",
		"@builtin(num_workgroups) groups: vec3<u32>",
	} {
		assert.Contains(t, src, want)
	}
	assert.NotContains(t, src, "{{")
	assert.NotContains(t, src, "<no value>")
}

func TestScalarSource(t *testing.T) {
	k := baseKernel()
	k.Kind = KindScalar
	k.Op = OpMax
	k.DType = tensor.Uint32
	k.Rank = 1
	k.RHSOffset = 0

	src, err := k.Source()
	require.NoError(t, err)

	assert.Contains(t, src, "@group(0) @binding(3) var<storage, read> scalar: array<u32>;")
	assert.Contains(t, src, "@group(0) @binding(4) var<storage, read_write> result: array<u32>;")
	assert.Contains(t, src, "for (var axis: i32 = 0; axis >= 0; axis--)")
	assert.Contains(t, src, "result[id] = max(a, b);")
	assert.NotContains(t, src, "rhs_strides")
	assert.NotContains(t, src, "@binding(5)")
}

func TestOpExpressions(t *testing.T) {
	want := map[Op]string{
		OpAdd: "a + b",
		OpSub: "a - b",
		OpMul: "a * b",
		OpDiv: "a / b",
		OpRem: "a % b",
		OpPow: "pow_f32(a, b)",
		OpMin: "min(a, b)",
		OpMax: "max(a, b)",
	}
	for op, expr := range want {
		assert.Equal(t, expr, op.expr(tensor.Float32, "a", "b"), op.String())
	}
	assert.Equal(t, "Op(99)", Op(99).String())

	integer := []struct {
		op    Op
		dtype tensor.DataType
		want  string
	}{
		{OpDiv, tensor.Int32, "div_i32(a, b)"},
		{OpRem, tensor.Int32, "rem_i32(a, b)"},
		{OpDiv, tensor.Uint32, "div_u32(a, b)"},
		{OpRem, tensor.Uint32, "rem_u32(a, b)"},
		{OpAdd, tensor.Int32, "a + b"},
		{OpMax, tensor.Uint32, "max(a, b)"},
	}
	for _, tt := range integer {
		assert.Equal(t, tt.want, tt.op.expr(tt.dtype, "a", "b"), "%v %v", tt.op, tt.dtype)
	}
}

func TestHelperFunctionsEmitted(t *testing.T) {
	tests := []struct {
		op    Op
		dtype tensor.DataType
		decl  string
		guard string
	}{
		{OpDiv, tensor.Int32, "fn div_i32(a: i32, b: i32) -> i32 {", "b == 0i || (a == (-2147483647i - 1i) && b == -1i)"},
		{OpRem, tensor.Int32, "fn rem_i32(a: i32, b: i32) -> i32 {", "return a - b * (a / b);"},
		{OpDiv, tensor.Uint32, "fn div_u32(a: u32, b: u32) -> u32 {", "if (b == 0u) {"},
		{OpRem, tensor.Uint32, "fn rem_u32(a: u32, b: u32) -> u32 {", "return 0u;"},
		{OpPow, tensor.Float32, "fn pow_f32(a: f32, b: f32) -> f32 {", "a < 0.0 && b == trunc(b)"},
	}
	for _, tt := range tests {
		k := baseKernel()
		k.Op = tt.op
		k.DType = tt.dtype

		src, err := k.Source()
		require.NoError(t, err)
		assert.Contains(t, src, tt.decl)
		assert.Contains(t, src, tt.guard)
		assert.Contains(t, src, "result[id] = "+tt.op.helper(tt.dtype)+"(a, b);")
	}

	src, err := baseKernel().Source()
	require.NoError(t, err)
	assert.NotContains(t, src, "fn div_")
	assert.NotContains(t, src, "fn pow_")
}

func TestHostPowNegativeBase(t *testing.T) {
	pow := Host[float32](OpPow)
	assert.Equal(t, float32(4), pow(-2, 2))
	assert.Equal(t, float32(-8), pow(-2, 3))
	assert.Equal(t, float32(1), pow(-3, 0))
	assert.True(t, math.IsNaN(float64(pow(-2, 0.5))))
}

func TestKernelKeyDistinguishesOffsets(t *testing.T) {
	a := baseKernel()
	b := baseKernel()
	b.RHSOffset = 6

	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), baseKernel().Key())
	assert.True(t, strings.HasPrefix(a.Key(), "elementwise_add_f32_r3"))
}

func TestHostMatchesTensorOps(t *testing.T) {
	x, err := tensor.New(tensor.Shape{4}, []int32{7, -7, 9, 0})
	require.NoError(t, err)
	y, err := tensor.New(tensor.Shape{4}, []int32{2, 2, 0, 3})
	require.NoError(t, err)

	got, err := tensor.Apply(x, y, Host[int32](OpDiv))
	require.NoError(t, err)
	want, err := tensor.Div(x, y)
	require.NoError(t, err)
	assert.Equal(t, want.Values(), got.Values())
	assert.Equal(t, []int32{3, -3, 9, 0}, got.Values())

	assert.Nil(t, Host[float32](Op(99)))
}
