// Package filter implements the byte pipeline applied to each block's
// sample payload before it lands in a volume blob.
//
// # Filters
//
//   - shuffle: groups byte 0 of every element, then byte 1, and so on, so
//     that float exponents sit next to each other. The element size defaults
//     to 4 (float32) and can be set with "shuffle:N".
//   - lz4: LZ4 frame compression via github.com/pierrec/lz4/v4.
//   - deflate: zlib compression; "deflate:N" selects level N (0-9).
//   - fletcher32: appends a Fletcher-32 checksum and verifies it on decode.
//
// # Pipeline
//
// A [Pipeline] runs its filters in order when encoding and in reverse order
// when decoding:
//
//	p, err := filter.Parse("shuffle,lz4,fletcher32")
//	payload, mask, err := p.Encode(raw)
//	raw, err = p.Decode(payload, mask)
//
// # Filter Mask
//
// A compressing filter that would grow a payload reports
// [ErrIncompressible]; the pipeline then leaves the payload as it was and
// sets bit i of the returned mask. Decode skips every filter whose bit is
// set, so the mask must be stored next to the payload.
package filter
