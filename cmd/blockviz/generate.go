package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/robert-malhotra/blockvol/internal/synth"
	"github.com/robert-malhotra/blockvol/volume"
)

func runGenerate(args []string, stdout io.Writer) error {
	fs := flags("generate", stdout)
	cfg := synth.Default()
	fs.IntVar(&cfg.Root, "root", cfg.Root, "top-level blocks per axis")
	fs.IntVar(&cfg.Cells, "cells", cfg.Cells, "cells per block per axis")
	fs.Float64Var(&cfg.Refine, "refine", cfg.Refine, "probability of refining a top-level block")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "layout seed")
	fs.Float64Var(&cfg.Stretch, "stretch", cfg.Stretch, "cell width ratio inside a block")
	prefix := fs.String("prefix", "synth", "output name base")
	filters := fs.String("filters", "", "comma separated filter pipeline, e.g. shuffle,lz4")
	force := fs.Bool("force", false, "overwrite existing files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one output directory, got %d arguments", fs.NArg())
	}

	src, err := synth.New(cfg)
	if err != nil {
		return err
	}
	sink, err := volume.NewDirSink(fs.Arg(0), writeOptions(*filters, *force)...)
	if err != nil {
		return err
	}
	vars, _ := src.Variables()
	for _, v := range vars {
		ds, err := src.Load(context.Background(), v)
		if err != nil {
			return err
		}
		e, err := sink.WriteDataset(*prefix+"_"+v, ds)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(stdout, " +++ %s: %d blocks -> %s\n", v, ds.Len(), e.Binary)
	}
	return sink.Close()
}

func writeOptions(filters string, force bool) []volume.WriteOption {
	var opts []volume.WriteOption
	if filters != "" {
		opts = append(opts, volume.WithFilters(strings.Split(filters, ",")...))
	}
	if force {
		opts = append(opts, volume.WithOverwrite())
	}
	return opts
}
