// Command blockviz converts block-structured volumes into expanded,
// browser-ready volume files and serves them for preview.
//
// Usage:
//
//	blockviz generate [flags] <dir>
//	blockviz convert  [flags] -in <dir> -out <dir>
//	blockviz inspect  [flags] <dir> [prefix...]
//	blockviz manifest <dir>
//	blockviz plan     [flags] <from> <to>
//	blockviz serve    [flags] <dir>
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

type command struct {
	name  string
	usage string
	run   func(args []string, stdout io.Writer) error
}

var commands = []command{
	{"generate", "write a synthetic dataset", runGenerate},
	{"convert", "expand, stride and resample volumes", runConvert},
	{"inspect", "describe volumes and check their index", runInspect},
	{"manifest", "rebuild a directory manifest from its metadata files", runManifest},
	{"plan", "print convert commands for a tree of inputs", runPlan},
	{"serve", "serve a directory to the preview front end", runServe},
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	name := os.Args[1]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		err := c.run(os.Args[2:], os.Stdout)
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		if err != nil {
			color.Red("%s: %v", name, err)
			os.Exit(1)
		}
		return
	}
	usage(os.Stderr)
	os.Exit(2)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: blockviz <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.usage)
	}
}

// flags returns a FlagSet that reports errors instead of exiting.
func flags(name string, stdout io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stdout)
	return fs
}

// stride turns a skip value into a per-axis stride. Only the first and last
// axes are thinned, which are r and phi for spherical-polar output.
func stride(skip int) (int, int, int) {
	if skip <= 1 {
		return 1, 1, 1
	}
	return skip, 1, skip
}
