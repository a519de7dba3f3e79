package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/robert-malhotra/blockvol/volume"
)

type planOptions struct {
	glob  string
	limit int
	match string
	skip  int
	cube  int
}

func runPlan(args []string, stdout io.Writer) error {
	fs := flags("plan", stdout)
	var o planOptions
	fs.StringVar(&o.glob, "glob", "*", "pattern matching input directories under <from>")
	fs.IntVar(&o.limit, "limit", 0, "maximum number of inputs (0 for all)")
	fs.StringVar(&o.match, "var", "", "only convert variables containing this substring")
	fs.IntVar(&o.skip, "skip", 0, "stride for the first and last axes")
	fs.IntVar(&o.cube, "cube", 0, "also resample onto a cube of this side")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("expected <from> <to>, got %d arguments", fs.NArg())
	}
	return writePlan(stdout, fs.Arg(0), fs.Arg(1), o)
}

// writePlan prints one convert command per input directory, each writing
// into to under the input's base name, then a final manifest rebuild.
func writePlan(w io.Writer, from, to string, o planOptions) error {
	from, err := filepath.Abs(from)
	if err != nil {
		return err
	}
	to, err = filepath.Abs(to)
	if err != nil {
		return err
	}
	pattern := filepath.Join(from, o.glob)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	sort.Strings(matches)

	var inputs []string
	for _, m := range matches {
		if _, err := os.Stat(filepath.Join(m, volume.ManifestName)); err == nil {
			inputs = append(inputs, m)
		}
	}
	if len(inputs) == 0 {
		return errors.New("no volume directories match " + strconv.Quote(pattern))
	}
	if o.limit > 0 && len(inputs) > o.limit {
		inputs = inputs[:o.limit]
	}

	for _, in := range inputs {
		cmd := []string{"blockviz", "convert", "-in", in, "-out", to, "-prefix", filepath.Base(in)}
		if o.match != "" {
			cmd = append(cmd, "-match", o.match)
		}
		if o.skip > 1 {
			cmd = append(cmd, "-skip", strconv.Itoa(o.skip))
		}
		if o.cube > 0 {
			cmd = append(cmd, "-cube", strconv.Itoa(o.cube))
		}
		cmd = append(cmd, "-force")
		fmt.Fprintln(w, shellJoin(cmd))
	}
	fmt.Fprintln(w, shellJoin([]string{"blockviz", "manifest", to}))
	return nil
}

func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n'\"\\$`*?[]#~;&|<>()") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
