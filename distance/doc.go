// Package distance provides the benchmark distance metrics and vector kernels.
//
// All float32 kernels are backed by SIMD-accelerated implementations from
// github.com/viterin/vek when the CPU supports them.
package distance
