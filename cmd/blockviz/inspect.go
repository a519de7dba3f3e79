package main

import (
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"

	"github.com/robert-malhotra/blockvol/grid"
	"github.com/robert-malhotra/blockvol/volume"
)

func runInspect(args []string, stdout io.Writer) error {
	fs := flags("inspect", stdout)
	verbose := fs.Bool("v", false, "dump the full metadata")
	blocks := fs.Bool("blocks", false, "list every block")
	verify := fs.Bool("verify", false, "load each volume and check the index against a linear scan")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("expected a directory")
	}
	dir := fs.Arg(0)

	prefixes := fs.Args()[1:]
	if len(prefixes) == 0 {
		m, err := volume.LoadManifest(dir)
		if err != nil {
			return err
		}
		if len(m.Entries) == 0 {
			if m, err = volume.Rescan(dir); err != nil {
				return err
			}
		}
		for _, e := range m.Entries {
			prefixes = append(prefixes, e.Prefix())
		}
	}
	fmt.Fprintf(stdout, "=== %s: %d volumes ===\n", dir, len(prefixes))

	failed := 0
	for _, p := range prefixes {
		meta, err := volume.ReadMetadata(dir, p)
		if err != nil {
			color.New(color.FgRed).Fprintf(stdout, "%s: %v\n", p, err)
			failed++
			continue
		}
		describe(stdout, p, meta, *blocks)
		if *verbose {
			volume.Dump(stdout, meta)
		}
		if *verify {
			if err := verifyVolume(stdout, dir, p); err != nil {
				color.New(color.FgRed).Fprintf(stdout, "  verify: %v\n", err)
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d volumes failed", failed, len(prefixes))
	}
	return nil
}

func describe(w io.Writer, prefix string, m *volume.Metadata, blocks bool) {
	fmt.Fprintf(w, "\n%s (%s %q):\n", prefix, m.Kind, m.Variable)
	fmt.Fprintf(w, "  ID: %s\n", m.ID)
	fmt.Fprintf(w, "  Blocks: %d\n", m.NumBlocks)
	fmt.Fprintf(w, "  Bounds: %v .. %v\n", m.Mins, m.Maxes)
	if m.ValueMin != nil && m.ValueMax != nil {
		fmt.Fprintf(w, "  Values: %g .. %g\n", *m.ValueMin, *m.ValueMax)
	} else {
		fmt.Fprintf(w, "  Values: no finite samples\n")
	}
	if m.Kind == volume.KindCube {
		fmt.Fprintf(w, "  Side: %d\n", m.Side)
	}
	var samples int
	for _, b := range m.Blocks {
		samples += b.Samples()
	}
	ratio := 1.0
	if samples > 0 {
		ratio = float64(m.BinarySize) / float64(4*samples)
	}
	fmt.Fprintf(w, "  Blob: %s, %d bytes for %d samples (%.1f%%)\n", m.BinaryFile, m.BinarySize, samples, 100*ratio)
	if len(m.Filters) > 0 {
		fmt.Fprintf(w, "  Filters: %v\n", m.Filters)
	}
	if !blocks {
		return
	}
	for i, b := range m.Blocks {
		fmt.Fprintf(w, "    Block %d: shape %v x [%g, %g] y [%g, %g] z [%g, %g] at %d+%d mask %#x\n",
			i, b.Shape,
			b.XValues[0], b.XValues[b.Shape[0]-1],
			b.YValues[0], b.YValues[b.Shape[1]-1],
			b.ZValues[0], b.ZValues[b.Shape[2]-1],
			b.Offset, b.Length, b.FilterMask)
	}
}

// verifyVolume checks, at every block centre, that the pruned search agrees
// with a linear scan and that the located block can interpolate there.
func verifyVolume(w io.Writer, dir, prefix string) error {
	ds, _, err := volume.Read(dir, prefix)
	if err != nil {
		return err
	}
	idx, err := ds.Index(grid.WithOverlapCheck())
	if err != nil {
		return err
	}
	cur := idx.NewCursor()
	for i, b := range ds.Blocks() {
		c := b.Center()
		got, gotOK := idx.Locate(c)
		want, wantOK := idx.BruteLocate(c)
		if got != want || gotOK != wantOK {
			return fmt.Errorf("block %d centre %v: index says %d/%v, scan says %d/%v", i, c, got, gotOK, want, wantOK)
		}
		if !gotOK {
			// a single-sample axis leaves an empty box
			continue
		}
		if v := cur.Interpolate(c); math.IsNaN(v) {
			return fmt.Errorf("block %d centre %v: NaN", i, c)
		}
	}
	st := cur.Stats()
	color.New(color.FgGreen).Fprintf(w, "  verified %d blocks (%d searches, %d cursor hits)\n",
		ds.Len(), st.Searches, st.CursorHits)
	return nil
}

func runManifest(args []string, stdout io.Writer) error {
	fs := flags("manifest", stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one directory, got %d arguments", fs.NArg())
	}
	dir := fs.Arg(0)
	m, err := volume.Rescan(dir)
	if err != nil {
		return err
	}
	if err := m.Save(dir); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(stdout, " +++ %s: %d volumes\n", volume.ManifestName, len(m.Entries))
	return nil
}
