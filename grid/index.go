package grid

import (
	"fmt"
	"math"
	"sort"
)

// Index locates the block owning a point among many non-uniform blocks.
//
// Blocks are ordered in three levels keyed by their upper bounds: maxes.x,
// then maxes.y, then maxes.z. Each level is a sorted key slice with a
// parallel slice of children, so a query only visits blocks whose upper
// bound lies beyond the point on every axis.
//
// An Index is read-only after construction and safe for concurrent use.
// Per-goroutine query state lives in a Cursor.
type Index struct {
	blocks   []*Block
	xKeys    []float64
	xNodes   []yLevel
	border   map[Point]float64
	bounds   Box
	hi       float64
	sentinel float64
}

type yLevel struct {
	keys  []float64
	nodes []zLevel
}

type zLevel struct {
	keys   []float64
	leaves [][]int32
}

// NewIndex builds an index over blocks. The slice is retained; blocks are
// identified by their position in it.
//
// Searches visit blocks ordered by (maxes.x, maxes.y, maxes.z), ties in id
// order, and the first block containing the point wins. Overlapping blocks
// therefore resolve to the one with the smallest upper bound, not the
// smallest id. Use WithOverlapCheck to reject such inputs.
func NewIndex(blocks []*Block, opts ...IndexOption) (*Index, error) {
	if len(blocks) == 0 {
		return nil, ErrEmpty
	}
	if len(blocks) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d blocks", ErrInvalidShape, len(blocks))
	}
	o := defaultIndexOptions()
	for _, opt := range opts {
		opt(o)
	}

	idx := &Index{
		blocks: blocks,
		border: make(map[Point]float64),
		bounds: blocks[0].Bounds(),
		hi:     math.Inf(-1),
	}
	for id, b := range blocks {
		if b == nil {
			return nil, fmt.Errorf("%w: block %d is nil", ErrInvalidShape, id)
		}
		idx.bounds = idx.bounds.Union(b.Bounds())
		if _, hi := b.Range(); hi > idx.hi {
			idx.hi = hi
		}
		b.LowerBorder(func(p Point, v float64) {
			idx.border[p] = v
		})
	}

	if o.overlapCheck {
		if err := checkOverlaps(blocks); err != nil {
			return nil, err
		}
	}

	idx.sentinel = 2 * idx.hi
	if o.haveSentinel {
		idx.sentinel = o.sentinel
	}

	idx.buildLevels()
	return idx, nil
}

// buildLevels sorts block ids by (maxes.x, maxes.y, maxes.z) and groups
// equal keys. Ties keep insertion order.
func (idx *Index) buildLevels() {
	order := make([]int32, len(idx.blocks))
	for i := range order {
		order[i] = int32(i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		ma, mb := idx.blocks[order[a]].maxes, idx.blocks[order[b]].maxes
		if ma[0] != mb[0] {
			return ma[0] < mb[0]
		}
		if ma[1] != mb[1] {
			return ma[1] < mb[1]
		}
		return ma[2] < mb[2]
	})

	for _, id := range order {
		m := idx.blocks[id].maxes

		if n := len(idx.xKeys); n == 0 || idx.xKeys[n-1] != m[0] {
			idx.xKeys = append(idx.xKeys, m[0])
			idx.xNodes = append(idx.xNodes, yLevel{})
		}
		yl := &idx.xNodes[len(idx.xNodes)-1]

		if n := len(yl.keys); n == 0 || yl.keys[n-1] != m[1] {
			yl.keys = append(yl.keys, m[1])
			yl.nodes = append(yl.nodes, zLevel{})
		}
		zl := &yl.nodes[len(yl.nodes)-1]

		if n := len(zl.keys); n == 0 || zl.keys[n-1] != m[2] {
			zl.keys = append(zl.keys, m[2])
			zl.leaves = append(zl.leaves, nil)
		}
		leaf := len(zl.leaves) - 1
		zl.leaves[leaf] = append(zl.leaves[leaf], id)
	}
}

// checkOverlaps sweeps blocks ordered by mins.x and compares each block with
// the ones starting before it ends.
func checkOverlaps(blocks []*Block) error {
	order := make([]int, len(blocks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return blocks[order[a]].mins[0] < blocks[order[b]].mins[0]
	})
	for a := 0; a < len(order); a++ {
		ba := blocks[order[a]]
		for b := a + 1; b < len(order); b++ {
			bb := blocks[order[b]]
			if bb.mins[0] >= ba.maxes[0] {
				break
			}
			if ba.Bounds().Overlaps(bb.Bounds()) {
				return fmt.Errorf("%w: block %d %v and block %d %v",
					ErrOverlap, order[a], ba.Bounds(), order[b], bb.Bounds())
			}
		}
	}
	return nil
}

// Len returns the number of indexed blocks.
func (idx *Index) Len() int {
	return len(idx.blocks)
}

// Block returns the block with the given id.
func (idx *Index) Block(id int) *Block {
	return idx.blocks[id]
}

// Blocks returns the indexed blocks in id order.
func (idx *Index) Blocks() []*Block {
	return append([]*Block(nil), idx.blocks...)
}

// Bounds returns the union of all block bounds.
func (idx *Index) Bounds() Box {
	return idx.bounds
}

// Sentinel returns the value reported for points outside every block when
// no default is given.
func (idx *Index) Sentinel() float64 {
	return idx.sentinel
}

// BorderLen returns the number of distinct lower-face coordinates cached.
func (idx *Index) BorderLen() int {
	return len(idx.border)
}

// Border returns the cached lower-face sample at exactly p.
func (idx *Index) Border(p Point) (float64, bool) {
	v, ok := idx.border[p]
	return v, ok
}

// Locate returns the id of the first block containing p in search order,
// searching the levels without any cache.
func (idx *Index) Locate(p Point) (int, bool) {
	id := idx.search(p)
	return id, id >= 0
}

func (idx *Index) search(p Point) int {
	if !idx.bounds.Contains(p) {
		return -1
	}
	for i := bisectRight(idx.xKeys, p[0]); i < len(idx.xKeys); i++ {
		yl := &idx.xNodes[i]
		for j := bisectRight(yl.keys, p[1]); j < len(yl.keys); j++ {
			zl := &yl.nodes[j]
			for k := bisectRight(zl.keys, p[2]); k < len(zl.keys); k++ {
				for _, id := range zl.leaves[k] {
					if idx.blocks[id].Contains(p) {
						return int(id)
					}
				}
			}
		}
	}
	return -1
}

// BruteLocate scans every block in id order. It agrees with Locate whenever
// blocks do not overlap.
func (idx *Index) BruteLocate(p Point) (int, bool) {
	for id, b := range idx.blocks {
		if b.Contains(p) {
			return id, true
		}
	}
	return -1, false
}

// NewCursor returns a query cursor over idx.
func (idx *Index) NewCursor() *Cursor {
	return &Cursor{idx: idx, last: -1}
}

// Interpolate answers a single query with a throwaway cursor. Loops should
// hold a Cursor instead.
func (idx *Index) Interpolate(p Point, q Query) float64 {
	return idx.NewCursor().Lookup(p, q)
}
