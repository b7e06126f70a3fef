// Package compute provides the execution backends used by force kernels.
//
// A backend splits an index range [0, n) into chunks and runs a kernel on each:
//
//   - CPU: chunks run on runtime.NumCPU() goroutines through an errgroup
//   - Serial: a single chunk on the calling goroutine
//
// Kernels must only write to per-index state inside their own chunk.
//
//	backend := compute.NewCPUBackend()
//	err := backend.ParallelFor(ctx, len(atoms), func(start, end int) error { ... })
package compute
