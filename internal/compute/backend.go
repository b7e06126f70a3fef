package compute

import "context"

type Backend interface {
	Name() string
	ParallelFor(ctx context.Context, n int, fn func(start, end int) error) error
}

// minChunk keeps small systems on one goroutine.
const minChunk = 64

type SerialBackend struct{}

func NewSerialBackend() *SerialBackend { return &SerialBackend{} }

func (SerialBackend) Name() string { return "serial" }

func (SerialBackend) ParallelFor(ctx context.Context, n int, fn func(start, end int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	return fn(0, n)
}
