package webgpu

import "text/template"

// Binding indices shared by both kernel kinds:
//
//	0 shape (u32)   1 lhs strides (i32)   2 lhs
//	3 rhs strides (elementwise) or scalar (scalar)
//	4 rhs (elementwise) or result (scalar)
//	5 result (elementwise)
//
// Each invocation handles one output element. Workgroups are laid out on an
// x/y grid when one dimension is not enough, and the linear id folds y back
// in using num_workgroups. The id is decomposed into coordinates innermost
// axis first, and each operand's element index is its offset plus the
// coordinate-stride dot product. Strides are signed so
// reversed (negative) and broadcast (zero) axes need no special casing.
const elementwiseShader = `{{define "elementwise"}}
@group(0) @binding(0) var<storage, read> shape: array<u32>;
@group(0) @binding(1) var<storage, read> lhs_strides: array<i32>;
@group(0) @binding(2) var<storage, read> lhs: array<{{.Elem}}>;
@group(0) @binding(3) var<storage, read> rhs_strides: array<i32>;
@group(0) @binding(4) var<storage, read> rhs: array<{{.Elem}}>;
@group(0) @binding(5) var<storage, read_write> result: array<{{.Elem}}>;

{{.Helpers}}
@compute @workgroup_size({{.WorkgroupSize}})
fn main(@builtin(global_invocation_id) global_id: vec3<u32>, @builtin(num_workgroups) groups: vec3<u32>) {
    let id = global_id.x + global_id.y * groups.x * {{.WorkgroupSize}}u;
    if (id >= arrayLength(&result)) {
        return;
    }

    var remaining = id;
    var lhs_index: i32 = {{.LHSOffset}};
    var rhs_index: i32 = {{.RHSOffset}};
    for (var axis: i32 = {{.LastAxis}}; axis >= 0; axis--) {
        let extent = shape[axis];
        let coord = i32(remaining % extent);
        remaining = remaining / extent;
        lhs_index += coord * lhs_strides[axis];
        rhs_index += coord * rhs_strides[axis];
    }

    let a = lhs[lhs_index];
    let b = rhs[rhs_index];
    result[id] = {{.Expr}};
}
{{end}}`

const scalarShader = `{{define "scalar"}}
@group(0) @binding(0) var<storage, read> shape: array<u32>;
@group(0) @binding(1) var<storage, read> lhs_strides: array<i32>;
@group(0) @binding(2) var<storage, read> lhs: array<{{.Elem}}>;
@group(0) @binding(3) var<storage, read> scalar: array<{{.Elem}}>;
@group(0) @binding(4) var<storage, read_write> result: array<{{.Elem}}>;

{{.Helpers}}
@compute @workgroup_size({{.WorkgroupSize}})
fn main(@builtin(global_invocation_id) global_id: vec3<u32>, @builtin(num_workgroups) groups: vec3<u32>) {
    let id = global_id.x + global_id.y * groups.x * {{.WorkgroupSize}}u;
    if (id >= arrayLength(&result)) {
        return;
    }

    var remaining = id;
    var lhs_index: i32 = {{.LHSOffset}};
    for (var axis: i32 = {{.LastAxis}}; axis >= 0; axis--) {
        let extent = shape[axis];
        let coord = i32(remaining % extent);
        remaining = remaining / extent;
        lhs_index += coord * lhs_strides[axis];
    }

    let a = lhs[lhs_index];
    let b = scalar[0];
    result[id] = {{.Expr}};
}
{{end}}`

// helperFuncs are WGSL functions for ops whose builtin operator does not
// match the host reference on part of the domain. Integer division by zero
// returns the dividend and remainder by zero returns 0, as does the
// MinInt32 / -1 overflow. Remainder is truncated: a - b * (a / b).
var helperFuncs = map[string]string{
	"div_i32": `
fn div_i32(a: i32, b: i32) -> i32 {
    if (b == 0i || (a == (-2147483647i - 1i) && b == -1i)) {
        return a;
    }
    return a / b;
}`,
	"rem_i32": `
fn rem_i32(a: i32, b: i32) -> i32 {
    if (b == 0i || (a == (-2147483647i - 1i) && b == -1i)) {
        return 0i;
    }
    return a - b * (a / b);
}`,
	"div_u32": `
fn div_u32(a: u32, b: u32) -> u32 {
    if (b == 0u) {
        return a;
    }
    return a / b;
}`,
	"rem_u32": `
fn rem_u32(a: u32, b: u32) -> u32 {
    if (b == 0u) {
        return 0u;
    }
    return a - b * (a / b);
}`,
	// Negative bases with integral exponents take the sign of the exponent's
	// parity. Negative bases with fractional exponents have no real result.
	"pow_f32": `
fn pow_f32(a: f32, b: f32) -> f32 {
    if (b == 0.0) {
        return 1.0;
    }
    if (a < 0.0 && b == trunc(b)) {
        let p = pow(-a, b);
        return select(p, -p, abs(b % 2.0) == 1.0);
    }
    return pow(a, b);
}`,
}

var kernelTemplates = template.Must(
	template.Must(
		template.New("kernels").Option("missingkey=error").Parse(elementwiseShader),
	).Parse(scalarShader),
)
