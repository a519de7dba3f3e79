package convert

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/robert-malhotra/blockvol/grid"
	"github.com/robert-malhotra/blockvol/volume"
)

// ErrNoVariables is returned when nothing is left to convert.
var ErrNoVariables = errors.New("no variables to convert")

// Source yields datasets by variable name.
type Source interface {
	Variables() ([]string, error)
	Load(ctx context.Context, variable string) (*grid.Dataset, error)
}

// Sink stores converted datasets.
type Sink interface {
	Exists(prefix string) bool
	WriteDataset(prefix string, ds *grid.Dataset) (volume.Entry, error)
	WriteCube(prefix, variable string, cube *grid.Cube) (volume.Entry, error)
}

// Status is the outcome for one output.
type Status int

const (
	Written Status = iota
	Skipped        // output exists and force is off
	Planned        // dry run
)

func (s Status) String() string {
	switch s {
	case Written:
		return "written"
	case Skipped:
		return "skipped"
	case Planned:
		return "planned"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Output describes one file pair Run produced or would produce.
type Output struct {
	Variable string
	Prefix   string
	Status   Status
	Entry    volume.Entry // zero unless Written
}

// Report summarizes a run.
type Report struct {
	Outputs []Output
	Blocks  int        // blocks expanded over all variables
	Stats   grid.Stats // index counters accumulated during expansion
}

// Run converts every selected variable of src into sink. Variables are
// processed in order and the first error stops the run; outputs already
// written stay in the sink.
func Run(ctx context.Context, src Source, sink Sink, opts ...Option) (*Report, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.cube < 0 {
		return nil, fmt.Errorf("%w: cube side %d", grid.ErrInvalidShape, o.cube)
	}

	vars, err := selectVariables(src, o.variables)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	for _, v := range vars {
		if err := convert(ctx, src, sink, v, o, rep); err != nil {
			return rep, fmt.Errorf("%s: %w", v, err)
		}
	}
	return rep, nil
}

func selectVariables(src Source, want []string) ([]string, error) {
	have, err := src.Variables()
	if err != nil {
		return nil, err
	}
	if len(want) == 0 {
		if len(have) == 0 {
			return nil, ErrNoVariables
		}
		return have, nil
	}
	for _, v := range want {
		if !slices.Contains(have, v) {
			return nil, fmt.Errorf("%w: source has no variable %q (have %v)", ErrNoVariables, v, have)
		}
	}
	return want, nil
}

// Prefix returns the output name for a variable.
func Prefix(base, variable string) string {
	if base == "" {
		return variable
	}
	return base + "_" + variable
}

// CubePrefix returns the output name of a variable's resampled cube.
func CubePrefix(base, variable string) string {
	return Prefix(base, variable) + "_cube"
}

func convert(ctx context.Context, src Source, sink Sink, variable string, o *options, rep *Report) error {
	prefix := Prefix(o.prefix, variable)
	targets := []string{prefix}
	if o.cube > 0 {
		targets = append(targets, CubePrefix(o.prefix, variable))
	}

	pending := targets[:0:0]
	for _, p := range targets {
		switch {
		case !o.force && sink.Exists(p):
			rep.Outputs = append(rep.Outputs, Output{Variable: variable, Prefix: p, Status: Skipped})
		case o.dryRun:
			rep.Outputs = append(rep.Outputs, Output{Variable: variable, Prefix: p, Status: Planned})
		default:
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	ds, err := src.Load(ctx, variable)
	if err != nil {
		return err
	}
	if o.stride != [3]int{1, 1, 1} {
		if ds, err = ds.Stride(o.stride[0], o.stride[1], o.stride[2]); err != nil {
			return err
		}
	}

	expandOpts := []grid.ExpandOption{
		grid.WithMode(o.mode),
		grid.WithWorkers(o.workers),
		grid.WithStats(&rep.Stats),
	}
	if o.check {
		expandOpts = append(expandOpts, grid.WithIndexOptions(grid.WithOverlapCheck()))
	}
	if o.progress != nil {
		expandOpts = append(expandOpts, grid.WithProgress(func(done, total int) {
			o.progress(variable, done, total)
		}))
	}
	expanded, err := ds.Expand(ctx, expandOpts...)
	if err != nil {
		return err
	}
	rep.Blocks += expanded.Len()

	for _, p := range pending {
		var e volume.Entry
		if p == prefix {
			e, err = sink.WriteDataset(p, expanded)
		} else {
			var cube *grid.Cube
			// uncovered lattice points take the index sentinel
			cube, err = expanded.Resample(ctx, o.cube, grid.Query{})
			if err == nil {
				e, err = sink.WriteCube(p, variable, cube)
			}
		}
		if err != nil {
			return err
		}
		rep.Outputs = append(rep.Outputs, Output{Variable: variable, Prefix: p, Status: Written, Entry: e})
	}
	return nil
}
