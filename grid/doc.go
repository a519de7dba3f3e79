// Package grid indexes block-structured volumetric data and expands every
// block by one boundary layer so that neighbouring blocks agree at shared
// faces.
//
// A [Block] is an axis-aligned box carrying its own non-uniform sample grid:
// a C-ordered array of shape (nx, ny, nz) plus one coordinate array per
// axis. Coordinate arrays hold either one entry per sample or one extra
// trailing entry (the upper face of the last cell, as written by Athena++).
// Only the first n entries of an axis take part in point location, so the
// block's bounding box is the half-open interval [coord[0], coord[n-1]).
//
// An [Index] aggregates the blocks of one snapshot. It is immutable after
// [NewIndex] returns and may be shared between goroutines. Queries go through
// a [Cursor], which carries the per-goroutine locality cache:
//
//	idx, err := grid.NewIndex(blocks)
//	if err != nil {
//	    return err
//	}
//	cur := idx.NewCursor()
//	v := cur.Interpolate(grid.Point{0.5, 1.25, 3})
//
// Points outside every block never fail: they resolve to the query's default
// or, failing that, to the index sentinel (twice the largest sample).
//
// [Expand] and [ExpandAll] grow blocks along the maximum side of every axis,
// filling the new shell from the index. [Dataset] and [Builder] wrap the
// whole pipeline for callers that start from raw arrays.
package grid
