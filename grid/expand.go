package grid

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Expand returns a copy of b grown by one sample along the maximum side of
// every axis. Interior samples are copied; the new max-z, max-y and max-x
// shells are filled by querying c at the expanded coordinates. Each new
// coordinate array is the old one with its last value repeated.
//
// Neither b nor the index behind c is modified.
func Expand(b *Block, c *Cursor, opts ...ExpandOption) *Block {
	o := defaultExpandOptions()
	for _, opt := range opts {
		opt(o)
	}
	return expand(b, c, o.mode)
}

func expand(b *Block, c *Cursor, mode ExpandMode) *Block {
	nx, ny, nz := b.shape[0], b.shape[1], b.shape[2]
	shape := [3]int{nx + 1, ny + 1, nz + 1}

	var coords [3][]float64
	for axis := 0; axis < 3; axis++ {
		old := b.coords[axis]
		coords[axis] = append(append(make([]float64, 0, len(old)+1), old...), old[len(old)-1])
	}

	samples := make([]float64, shape[0]*shape[1]*shape[2])
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			dst := (i*shape[1] + j) * shape[2]
			src := (i*ny + j) * nz
			copy(samples[dst:dst+nz], b.samples[src:src+nz])
		}
	}

	x, y, z := coords[0], coords[1], coords[2]
	fill := func(i, j, k int) {
		edge := b.At(min(i, nx-1), min(j, ny-1), min(k, nz-1))
		q := Query{Default: Set(edge)}
		if mode == SubstituteEdge {
			q.Substitute = q.Default
		}
		samples[(i*shape[1]+j)*shape[2]+k] = c.Lookup(Point{x[i], y[j], z[k]}, q)
	}

	for i := 0; i <= nx; i++ {
		for j := 0; j <= ny; j++ {
			fill(i, j, nz)
		}
	}
	for i := 0; i <= nx; i++ {
		for k := 0; k <= nz; k++ {
			fill(i, ny, k)
		}
	}
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			fill(nx, j, k)
		}
	}

	return newBlock(samples, shape, coords)
}

// ExpandAll expands every block of idx and returns them in id order.
//
// Work is split into contiguous runs of blocks, one per worker, and every
// worker queries through its own Cursor. The context is checked between
// blocks.
func ExpandAll(ctx context.Context, idx *Index, opts ...ExpandOption) ([]*Block, error) {
	o := defaultExpandOptions()
	for _, opt := range opts {
		opt(o)
	}

	total := idx.Len()
	out := make([]*Block, total)
	workers := min(o.workers, total)
	run := (total + workers - 1) / workers

	var (
		mu    sync.Mutex
		done  int
		stats Stats
	)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo, hi := w*run, min((w+1)*run, total)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			cur := idx.NewCursor()
			defer func() {
				mu.Lock()
				stats.Add(cur.Stats())
				mu.Unlock()
			}()
			for id := lo; id < hi; id++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				out[id] = expand(idx.blocks[id], cur, o.mode)
				if o.progress != nil {
					mu.Lock()
					done++
					o.progress(done, total)
					mu.Unlock()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if o.stats != nil {
		o.stats.Add(stats)
	}
	return out, nil
}
