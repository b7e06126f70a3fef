package physics

import (
	"context"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mdsim/internal/compute"
	"github.com/san-kum/mdsim/internal/dynamo"
)

// Neighbor is one periodic image of atom J seen from the owning atom.
type Neighbor struct {
	J int
	D r3.Vec // displacement to the image of J
	R float64
}

// NeighborList holds every neighbour of every atom, so each pair appears twice.
type NeighborList [][]Neighbor

func (nl NeighborList) Pairs() int {
	n := 0
	for _, l := range nl {
		n += len(l)
	}
	return n / 2
}

// canBin reports whether a cell list with at least three bins per axis fits.
// With three bins a pair is within the cutoff through at most one image.
func canBin(a *dynamo.Atoms, rc float64) bool {
	for axis, l := range [3]float64{a.Cell.X, a.Cell.Y, a.Cell.Z} {
		if !a.PBC[axis] || int(l/rc) < 3 {
			return false
		}
	}
	return true
}

// BuildNeighbors returns all neighbours within rc. It uses a cell list when
// binned is set and the cell allows it, otherwise a search over every pair
// and every periodic image in range.
func BuildNeighbors(ctx context.Context, b compute.Backend, a *dynamo.Atoms, rc float64, binned bool) (NeighborList, error) {
	pos := a.Wrapped()
	nl := make(NeighborList, len(pos))
	if binned && canBin(a, rc) {
		return nl, buildBinned(ctx, b, pos, a.Cell, rc, nl)
	}
	return nl, buildBrute(ctx, b, pos, a, rc, nl)
}

func buildBrute(ctx context.Context, b compute.Backend, pos []r3.Vec, a *dynamo.Atoms, rc float64, nl NeighborList) error {
	var images [3]int
	for axis, l := range [3]float64{a.Cell.X, a.Cell.Y, a.Cell.Z} {
		if a.PBC[axis] {
			images[axis] = int(math.Ceil(rc / l))
		}
	}
	rc2 := rc * rc

	return b.ParallelFor(ctx, len(pos), func(start, end int) error {
		for i := start; i < end; i++ {
			list := nl[i][:0]
			for j := range pos {
				base := r3.Sub(pos[j], pos[i])
				for sx := -images[0]; sx <= images[0]; sx++ {
					for sy := -images[1]; sy <= images[1]; sy++ {
						for sz := -images[2]; sz <= images[2]; sz++ {
							if i == j && sx == 0 && sy == 0 && sz == 0 {
								continue
							}
							d := r3.Vec{
								X: base.X + float64(sx)*a.Cell.X,
								Y: base.Y + float64(sy)*a.Cell.Y,
								Z: base.Z + float64(sz)*a.Cell.Z,
							}
							if r2 := r3.Norm2(d); r2 < rc2 {
								list = append(list, Neighbor{J: j, D: d, R: math.Sqrt(r2)})
							}
						}
					}
				}
			}
			nl[i] = list
		}
		return nil
	})
}

func buildBinned(ctx context.Context, b compute.Backend, pos []r3.Vec, cell r3.Vec, rc float64, nl NeighborList) error {
	nb := [3]int{int(cell.X / rc), int(cell.Y / rc), int(cell.Z / rc)}
	bins := make([][]int, nb[0]*nb[1]*nb[2])
	binIndex := func(ix, iy, iz int) int { return (ix*nb[1]+iy)*nb[2] + iz }
	coord := func(x, l float64, n int) int {
		c := int(x / l * float64(n))
		if c >= n {
			c = n - 1
		}
		return c
	}

	owner := make([][3]int, len(pos))
	for i, p := range pos {
		c := [3]int{coord(p.X, cell.X, nb[0]), coord(p.Y, cell.Y, nb[1]), coord(p.Z, cell.Z, nb[2])}
		owner[i] = c
		k := binIndex(c[0], c[1], c[2])
		bins[k] = append(bins[k], i)
	}
	rc2 := rc * rc

	return b.ParallelFor(ctx, len(pos), func(start, end int) error {
		for i := start; i < end; i++ {
			c := owner[i]
			list := nl[i][:0]
			for dx := -1; dx <= 1; dx++ {
				for dy := -1; dy <= 1; dy++ {
					for dz := -1; dz <= 1; dz++ {
						k := binIndex(
							(c[0]+dx+nb[0])%nb[0],
							(c[1]+dy+nb[1])%nb[1],
							(c[2]+dz+nb[2])%nb[2],
						)
						for _, j := range bins[k] {
							if j == i {
								continue
							}
							d := minimumImage(r3.Sub(pos[j], pos[i]), cell)
							if r2 := r3.Norm2(d); r2 < rc2 {
								list = append(list, Neighbor{J: j, D: d, R: math.Sqrt(r2)})
							}
						}
					}
				}
			}
			nl[i] = list
		}
		return nil
	})
}

func minimumImage(d, cell r3.Vec) r3.Vec {
	d.X -= cell.X * math.Round(d.X/cell.X)
	d.Y -= cell.Y * math.Round(d.Y/cell.Y)
	d.Z -= cell.Z * math.Round(d.Z/cell.Z)
	return d
}
