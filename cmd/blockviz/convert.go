package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/robert-malhotra/blockvol/convert"
	"github.com/robert-malhotra/blockvol/grid"
	"github.com/robert-malhotra/blockvol/internal/synth"
	"github.com/robert-malhotra/blockvol/volume"
)

func runConvert(args []string, stdout io.Writer) error {
	fs := flags("convert", stdout)
	in := fs.String("in", "", "input volume directory")
	synthetic := fs.Bool("synthetic", false, "convert the built-in synthetic dataset instead of -in")
	out := fs.String("out", "", "output directory")
	prefix := fs.String("prefix", "", "output name base")
	vars := fs.String("var", "", "comma separated variables to convert (default all)")
	match := fs.String("match", "", "only convert variables whose name contains this substring")
	workers := fs.Int("workers", runtime.GOMAXPROCS(0), "expansion goroutines")
	mode := fs.String("mode", grid.SubstituteEdge.String(), "shell fill mode: substitute or interpolate")
	skip := fs.Int("skip", 0, "stride for the first and last axes (0 for full resolution)")
	cube := fs.Int("cube", 0, "also resample onto a cube with this many points per side")
	filters := fs.String("filters", "", "comma separated filter pipeline, e.g. shuffle,lz4")
	check := fs.Bool("check", false, "reject overlapping blocks")
	force := fs.Bool("force", false, "overwrite existing files")
	dryRun := fs.Bool("dry-run", false, "list intended outputs without writing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("-out is required")
	}
	m, ok := grid.ParseExpandMode(*mode)
	if !ok {
		return fmt.Errorf("unknown mode %q", *mode)
	}

	var src convert.Source
	switch {
	case *synthetic:
		s, err := synth.New(synth.Default())
		if err != nil {
			return err
		}
		src = s
	case *in != "":
		src = volume.NewSource(*in)
	default:
		return errors.New("one of -in or -synthetic is required")
	}

	opts := []convert.Option{
		convert.WithPrefix(*prefix),
		convert.WithWorkers(*workers),
		convert.WithMode(m),
		convert.WithCube(*cube),
		convert.WithStride(stride(*skip)),
	}
	selected, err := selectVariables(src, *vars, *match)
	if err != nil {
		return err
	}
	opts = append(opts, convert.WithVariables(selected...))
	if *check {
		opts = append(opts, convert.WithOverlapCheck())
	}
	if *force {
		opts = append(opts, convert.WithForce())
	}
	if *dryRun {
		opts = append(opts, convert.WithDryRun())
	}

	sink, err := volume.NewDirSink(*out, writeOptions(*filters, *force)...)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	rep, runErr := convert.Run(ctx, src, sink, opts...)
	if rep != nil {
		printReport(stdout, rep)
	}
	if runErr != nil {
		return runErr
	}
	if *dryRun {
		color.New(color.FgYellow).Fprintln(stdout, "dry run complete: nothing written")
		return nil
	}
	if err := sink.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d blocks expanded in %v (%d queries, %d border hits, %d cursor hits, %d misses)\n",
		rep.Blocks, time.Since(start).Round(time.Millisecond),
		rep.Stats.Queries, rep.Stats.BorderHits, rep.Stats.CursorHits, rep.Stats.Misses)
	return nil
}

// selectVariables applies the -var list and -match substring. An empty
// result with a filter set is an error rather than "convert everything".
func selectVariables(src convert.Source, list, match string) ([]string, error) {
	var names []string
	if list != "" {
		names = strings.Split(list, ",")
	} else {
		all, err := src.Variables()
		if err != nil {
			return nil, err
		}
		names = all
	}
	if match == "" {
		return names, nil
	}
	var out []string
	for _, n := range names {
		if strings.Contains(n, match) {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: none of %v contains %q", convert.ErrNoVariables, names, match)
	}
	return out, nil
}

func printReport(w io.Writer, rep *convert.Report) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	for _, o := range rep.Outputs {
		switch o.Status {
		case convert.Written:
			green.Fprintf(w, " +++ %s -> %s\n", o.Variable, o.Entry.JSON)
		case convert.Skipped:
			yellow.Fprintf(w, " --- %s: %s exists, use -force to replace\n", o.Variable, o.Prefix)
		case convert.Planned:
			yellow.Fprintf(w, " ... %s -> %s\n", o.Variable, o.Prefix)
		}
	}
}
