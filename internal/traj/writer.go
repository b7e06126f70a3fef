package traj

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/mdsim/internal/dynamo"
)

const (
	formatName  = "mdsim-traj"
	defaultPrec = 6
)

// Writer appends frames to a trajectory file. It is not safe for concurrent use.
type Writer struct {
	f      *os.File
	enc    *zstd.Encoder
	bw     *bufio.Writer
	path   string
	natoms int
	prec   int
	frames int
	buf    []byte
	closed bool
}

type WriterOptions struct {
	// Prec is the number of decimals per coordinate. Zero selects 6.
	Prec int
	// Dt is recorded in the header for readers; it does not affect frames.
	Dt float64
}

// Create opens path for writing and writes the header for a.
func Create(path string, a *dynamo.Atoms, opts WriterOptions) (*Writer, error) {
	if a.Len() == 0 {
		return nil, dynamo.ErrNoAtoms
	}
	prec := opts.Prec
	if prec == 0 {
		prec = defaultPrec
	}
	if prec < 0 || prec > 15 {
		return nil, fmt.Errorf("%w: precision %d", dynamo.ErrParameterBounds, prec)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("traj: create %s: %w", path, err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("traj: zstd writer: %w", err)
	}

	w := &Writer{
		f:      f,
		enc:    enc,
		bw:     bufio.NewWriterSize(enc, 1<<16),
		path:   path,
		natoms: a.Len(),
		prec:   prec,
	}

	header := []string{
		"format=" + formatName,
		"symbols=" + encodeSymbols(a.Symbols),
		"natoms=" + strconv.Itoa(a.Len()),
		fmt.Sprintf("cell=%s %s %s", ftoa(a.Cell.X), ftoa(a.Cell.Y), ftoa(a.Cell.Z)),
		fmt.Sprintf("pbc=%s %s %s", btoa(a.PBC[0]), btoa(a.PBC[1]), btoa(a.PBC[2])),
		"prec=" + strconv.Itoa(prec),
		"dt=" + ftoa(opts.Dt),
		fmt.Sprintf("** %d", a.Len()),
	}
	if _, err := w.bw.WriteString(strings.Join(header, "\n") + "\n"); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) Frames() int { return w.frames }

// Append writes the current configuration as one frame.
func (w *Writer) Append(ctx context.Context, step int, a *dynamo.Atoms) error {
	if w.closed {
		return fmt.Errorf("traj: append to closed writer %s", w.path)
	}
	if a.Len() != w.natoms {
		return fmt.Errorf("%w: %d atoms given, %d expected", dynamo.ErrDimensionMismatch, a.Len(), w.natoms)
	}
	epot, err := a.PotentialEnergy(ctx)
	if err != nil {
		return err
	}

	for i, p := range a.Positions {
		v := a.Velocities[i]
		b := w.buf[:0]
		for k, c := range [6]float64{p.X, p.Y, p.Z, v.X, v.Y, v.Z} {
			if k > 0 {
				b = append(b, ' ')
			}
			b = strconv.AppendFloat(b, c, 'f', w.prec, 64)
		}
		b = append(b, '\n')
		w.buf = b
		if _, err := w.bw.Write(b); err != nil {
			return fmt.Errorf("traj: write %s: %w", w.path, err)
		}
	}

	_, err = fmt.Fprintf(w.bw, "* %d %s %s %s %s\n", step, ftoa(epot), ftoa(a.Cell.X), ftoa(a.Cell.Y), ftoa(a.Cell.Z))
	if err != nil {
		return fmt.Errorf("traj: write %s: %w", w.path, err)
	}
	w.frames++
	return nil
}

// Observe appends a frame; it lets the writer be attached to a driver.
func (w *Writer) Observe(ctx context.Context, step int, a *dynamo.Atoms) error {
	return w.Append(ctx, step, a)
}

// Close flushes the compressed stream and syncs the file. It is safe to call
// more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	errs := []error{w.bw.Flush(), w.enc.Close(), w.f.Sync(), w.f.Close()}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("traj: close %s: %w", w.path, err)
	}
	return nil
}

func encodeSymbols(symbols []string) string {
	var parts []string
	for i := 0; i < len(symbols); {
		j := i
		for j < len(symbols) && symbols[j] == symbols[i] {
			j++
		}
		parts = append(parts, fmt.Sprintf("%s:%d", symbols[i], j-i))
		i = j
	}
	return strings.Join(parts, ",")
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func btoa(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
