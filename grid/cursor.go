package grid

import "fmt"

// Fallback is an optional query value.
type Fallback struct {
	Value float64
	Valid bool
}

// Set returns a valid Fallback holding v.
func Set(v float64) Fallback {
	return Fallback{Value: v, Valid: true}
}

// Query carries the optional values of a point lookup.
type Query struct {
	// Default is returned when no block contains the point. When unset the
	// index sentinel is used.
	Default Fallback

	// Substitute is returned verbatim when a block contains the point,
	// instead of interpolating inside that block.
	Substitute Fallback
}

// Stats counts how cursor queries were answered.
type Stats struct {
	Queries    uint64 // total lookups
	BorderHits uint64 // answered from the lower-face cache
	CursorHits uint64 // answered by the previously matched block
	Searches   uint64 // needed a level search
	Misses     uint64 // no block contained the point
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Queries += o.Queries
	s.BorderHits += o.BorderHits
	s.CursorHits += o.CursorHits
	s.Searches += o.Searches
	s.Misses += o.Misses
}

// Cursor answers point queries against an Index and remembers the last
// matched block, since successive queries tend to fall in the same block.
// A Cursor is not safe for concurrent use; give each goroutine its own.
type Cursor struct {
	idx   *Index
	last  int
	stats Stats
}

// Index returns the index the cursor queries.
func (c *Cursor) Index() *Index {
	return c.idx
}

// Interpolate returns the field value at p, or the index sentinel when p is
// outside every block.
func (c *Cursor) Interpolate(p Point) float64 {
	return c.Lookup(p, Query{})
}

// Lookup returns the value at p according to q.
//
// An exact hit in the lower-face cache wins over everything else. Otherwise
// the owning block is located (reusing the last match when it still
// contains p); q.Substitute is returned if set, else the block's
// interpolant. Points outside every block yield q.Default or the sentinel.
//
// Lookup panics with an error wrapping ErrInvariantViolation if a block
// contains p but cannot interpolate it.
func (c *Cursor) Lookup(p Point, q Query) float64 {
	c.stats.Queries++
	if v, ok := c.idx.border[p]; ok {
		c.stats.BorderHits++
		return v
	}

	id := c.locate(p)
	c.last = id
	if id < 0 {
		c.stats.Misses++
		if q.Default.Valid {
			return q.Default.Value
		}
		return c.idx.sentinel
	}

	if q.Substitute.Valid {
		return q.Substitute.Value
	}
	v, ok := c.idx.blocks[id].Interpolate(p)
	if !ok {
		panic(fmt.Errorf("%w: block %d %v contains %v but cannot interpolate it",
			ErrInvariantViolation, id, c.idx.blocks[id], p))
	}
	return v
}

// Locate returns the id of the block containing p and updates the cursor's
// cache. ok is false when no block contains p.
func (c *Cursor) Locate(p Point) (id int, ok bool) {
	id = c.locate(p)
	c.last = id
	return id, id >= 0
}

func (c *Cursor) locate(p Point) int {
	if c.last >= 0 && c.idx.blocks[c.last].Contains(p) {
		c.stats.CursorHits++
		return c.last
	}
	c.stats.Searches++
	return c.idx.search(p)
}

// Stats returns the counters accumulated since the cursor was created or
// last reset.
func (c *Cursor) Stats() Stats {
	return c.stats
}

// Reset clears the cached block and the counters.
func (c *Cursor) Reset() {
	c.last = -1
	c.stats = Stats{}
}
