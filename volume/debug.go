package volume

import (
	"io"

	"github.com/davecgh/go-spew/spew"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dump writes a debug rendering of m to w. Coordinate arrays are printed in
// full, so expect long output for large volumes.
func Dump(w io.Writer, m *Metadata) {
	dumper.Fdump(w, m)
}
