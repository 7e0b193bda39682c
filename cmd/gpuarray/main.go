// Package main provides the gpuarray CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/born-ml/gpuarray/backend/webgpu"
	"github.com/born-ml/gpuarray/tensor"
)

const version = "v0.1.0-dev"

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "version":
		fmt.Printf("gpuarray %s\n", version)
	case "info":
		if err := info(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "selftest":
		if err := selftest(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	default:
		usage()
	}
}

func usage() {
	fmt.Println("gpuarray - strided GPU arrays on WebGPU")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  info       List WebGPU adapters")
	fmt.Println("  selftest   Run elementwise kernels and compare with the host")
}

func info() error {
	adapters, err := webgpu.ListAdapters()
	if err != nil {
		return err
	}
	for i, a := range adapters {
		fmt.Printf("[%d] %s (%s) %v\n", i, a.Name, a.VendorName, a.BackendType)
	}
	return nil
}

type check struct {
	name string
	run  func(*webgpu.Context) (got, want []float32, err error)
}

func selftest() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	gpu, err := webgpu.New(webgpu.WithLogger(logger))
	if err != nil {
		return err
	}
	defer gpu.Release()

	fmt.Printf("Device: %s\n\n", gpu.Name())

	failed := 0
	for _, c := range checks() {
		got, want, err := c.run(gpu)
		switch {
		case err != nil:
			failed++
			fmt.Printf("FAIL %-24s %v\n", c.name, err)
		case !equal(got, want):
			failed++
			fmt.Printf("FAIL %-24s got %v want %v\n", c.name, got, want)
		default:
			fmt.Printf("ok   %-24s %v\n", c.name, got)
		}
	}

	s := gpu.Stats()
	fmt.Printf("\nDispatches: %d, pipelines: %d, regions: %d, arena: %d bytes\n",
		s.Dispatches, s.Pipelines, s.Regions, s.ArenaBytes)
	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}

func checks() []check {
	return []check{
		{"filled add", func(gpu *webgpu.Context) ([]float32, []float32, error) {
			a, err := webgpu.Full[float32](gpu, tensor.Shape{5, 5}, 2)
			if err != nil {
				return nil, nil, err
			}
			b, err := webgpu.Full[float32](gpu, tensor.Shape{5, 5}, 3)
			if err != nil {
				return nil, nil, err
			}
			return compare(webgpu.OpAdd, a, b)
		}},
		{"transposed add", func(gpu *webgpu.Context) ([]float32, []float32, error) {
			up, err := tensor.Range[float32](0, 10, 1).Reshape(tensor.Shape{2, 5})
			if err != nil {
				return nil, nil, err
			}
			down, err := tensor.Range[float32](9, -1, -1).Reshape(tensor.Shape{2, 5})
			if err != nil {
				return nil, nil, err
			}
			a, err := webgpu.Upload(gpu, up)
			if err != nil {
				return nil, nil, err
			}
			b, err := webgpu.Upload(gpu, down)
			if err != nil {
				return nil, nil, err
			}
			return compare(webgpu.OpAdd, a.ReversedAxes(), b.ReversedAxes())
		}},
		{"sliced add", func(gpu *webgpu.Context) ([]float32, []float32, error) {
			a, err := webgpu.FromSlice(gpu, tensor.Shape{2, 2, 3},
				[]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
			if err != nil {
				return nil, nil, err
			}
			row, err := a.Slice(tensor.All(), tensor.Between(0, 1), tensor.All())
			if err != nil {
				return nil, nil, err
			}
			rev, err := a.Slice(tensor.All(), tensor.From(-1), tensor.All().By(-1))
			if err != nil {
				return nil, nil, err
			}
			return compare(webgpu.OpAdd, row, rev)
		}},
		{"broadcast pow", func(gpu *webgpu.Context) ([]float32, []float32, error) {
			a, err := webgpu.FromSlice(gpu, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
			if err != nil {
				return nil, nil, err
			}
			b, err := webgpu.FromSlice(gpu, tensor.Shape{2}, []float32{2, 1})
			if err != nil {
				return nil, nil, err
			}
			return compare(webgpu.OpPow, a, b)
		}},
	}
}

// compare runs op on the GPU and on host copies of the same views.
func compare(op webgpu.Op, a, b *webgpu.Array[float32]) (got, want []float32, err error) {
	ctx := context.Background()

	out, err := webgpu.Binary(op, a, b)
	if err != nil {
		return nil, nil, err
	}
	result, err := out.ToHost(ctx)
	if err != nil {
		return nil, nil, err
	}

	ha, err := a.ToHost(ctx)
	if err != nil {
		return nil, nil, err
	}
	hb, err := b.ToHost(ctx)
	if err != nil {
		return nil, nil, err
	}
	expected, err := tensor.Apply(ha, hb, webgpu.Host[float32](op))
	if err != nil {
		return nil, nil, err
	}
	return result.Values(), expected.Values(), nil
}

func equal(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		d := a[i] - b[i]
		if d > 1e-4 || d < -1e-4 {
			return false
		}
	}
	return true
}
