package traj

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/spatial/r3"
)

var ErrMalformed = errors.New("traj: malformed trajectory")

// Header describes the system stored in a trajectory.
type Header struct {
	Format  string
	Symbols []string
	NAtoms  int
	Cell    r3.Vec
	PBC     [3]bool
	Prec    int
	Dt      float64
}

type Frame struct {
	Step       int
	Energy     float64
	Cell       r3.Vec
	Positions  []r3.Vec
	Velocities []r3.Vec
}

type Reader struct {
	f      *os.File
	dec    *zstd.Decoder
	sc     *bufio.Scanner
	line   int
	Header Header
}

// Open reads the header of the trajectory at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("traj: open %s: %w", path, err)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("traj: zstd reader: %w", err)
	}
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<20)

	r := &Reader{f: f, dec: dec, sc: sc}
	if err := r.readHeader(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) next() (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	r.line++
	return r.sc.Text(), nil
}

func (r *Reader) malformed(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformed, r.line, fmt.Sprintf(format, args...))
}

func (r *Reader) readHeader() error {
	h := &r.Header
	var symbols string
	for {
		line, err := r.next()
		if err == io.EOF {
			return r.malformed("missing header terminator")
		}
		if err != nil {
			return err
		}
		if strings.HasPrefix(line, "** ") {
			n, err := strconv.Atoi(strings.TrimSpace(line[3:]))
			if err != nil || n != h.NAtoms {
				return r.malformed("header declares %d atoms, terminator %q", h.NAtoms, line)
			}
			break
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return r.malformed("header line %q", line)
		}
		switch key {
		case "format":
			h.Format = value
		case "symbols":
			symbols = value
		case "natoms":
			h.NAtoms, err = strconv.Atoi(value)
		case "cell":
			h.Cell, err = parseVec(strings.Fields(value))
		case "pbc":
			fields := strings.Fields(value)
			if len(fields) != 3 {
				return r.malformed("pbc %q", value)
			}
			for k, f := range fields {
				h.PBC[k] = f == "1"
			}
		case "prec":
			h.Prec, err = strconv.Atoi(value)
		case "dt":
			h.Dt, err = strconv.ParseFloat(value, 64)
		}
		if err != nil {
			return r.malformed("%s: %v", key, err)
		}
	}

	if h.Format != formatName {
		return r.malformed("format %q", h.Format)
	}
	var err error
	if h.Symbols, err = decodeSymbols(symbols, h.NAtoms); err != nil {
		return r.malformed("symbols: %v", err)
	}
	return nil
}

// Next returns the next frame, or io.EOF after the last complete one.
func (r *Reader) Next() (*Frame, error) {
	n := r.Header.NAtoms
	fr := &Frame{Positions: make([]r3.Vec, n), Velocities: make([]r3.Vec, n)}

	for i := 0; i < n; i++ {
		line, err := r.next()
		if err == io.EOF {
			if i == 0 {
				return nil, io.EOF
			}
			return nil, r.malformed("truncated frame after %d atoms", i)
		}
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(line)
		if len(fields) != 6 {
			return nil, r.malformed("atom line has %d fields", len(fields))
		}
		if fr.Positions[i], err = parseVec(fields[:3]); err != nil {
			return nil, r.malformed("position: %v", err)
		}
		if fr.Velocities[i], err = parseVec(fields[3:]); err != nil {
			return nil, r.malformed("velocity: %v", err)
		}
	}

	line, err := r.next()
	if err == io.EOF {
		return nil, r.malformed("missing frame terminator")
	}
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) != 6 || fields[0] != "*" {
		return nil, r.malformed("frame terminator %q", line)
	}
	if fr.Step, err = strconv.Atoi(fields[1]); err != nil {
		return nil, r.malformed("step: %v", err)
	}
	if fr.Energy, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return nil, r.malformed("energy: %v", err)
	}
	if fr.Cell, err = parseVec(fields[3:]); err != nil {
		return nil, r.malformed("cell: %v", err)
	}
	return fr, nil
}

func (r *Reader) Close() error {
	r.dec.Close()
	return r.f.Close()
}

// CountFrames returns the number of complete frames in the file at path.
func CountFrames(path string) (int, error) {
	r, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n := 0
	for {
		if _, err := r.Next(); err != nil {
			if err == io.EOF {
				return n, nil
			}
			return n, err
		}
		n++
	}
}

func parseVec(fields []string) (r3.Vec, error) {
	if len(fields) != 3 {
		return r3.Vec{}, fmt.Errorf("want 3 components, got %d", len(fields))
	}
	var c [3]float64
	for k, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return r3.Vec{}, err
		}
		c[k] = v
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// decodeSymbols expands run-length encoded symbols, which must add up to
// exactly natoms.
func decodeSymbols(s string, natoms int) ([]string, error) {
	if natoms <= 0 {
		return nil, fmt.Errorf("natoms %d", natoms)
	}
	total := 0
	runs := strings.Split(s, ",")
	for _, part := range runs {
		_, count, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("symbol run %q", part)
		}
		n, err := strconv.Atoi(count)
		if err != nil || n <= 0 || n > natoms-total {
			return nil, fmt.Errorf("symbol run %q for %d atoms", part, natoms)
		}
		total += n
	}
	if total != natoms {
		return nil, fmt.Errorf("%d symbols for %d atoms", total, natoms)
	}

	out := make([]string, 0, natoms)
	for _, part := range runs {
		sym, count, _ := strings.Cut(part, ":")
		n, _ := strconv.Atoi(count)
		for i := 0; i < n; i++ {
			out = append(out, sym)
		}
	}
	return out, nil
}
