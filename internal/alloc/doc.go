// Package alloc lays out regions of a sample blob.
//
// A volume blob is the concatenation of every block's encoded payload.
// Writers ask the [Allocator] for the next offset of each payload; readers
// rebuild an allocator from the offsets recorded in metadata with
// [Allocator.Reserve] and call [Allocator.Validate] to reject layouts whose
// regions overlap or run past the blob.
//
//	a := alloc.New(0)
//	off := a.AllocAligned(uint64(len(payload)), 4, "block 0")
//	...
//	if err := a.Validate(); err != nil { ... }
package alloc
