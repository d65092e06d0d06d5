// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"io"
	"os"
	"strings"

	"mvdan.cc/ion/syntax"
)

// JobKind discriminates how one planned pipeline node executes.
type JobKind uint8

const (
	// External is a program spawned by fork and exec.
	External JobKind = iota
	// Builtin runs in the shell with its streams rebound.
	Builtin
	// Function calls a user function with its streams rebound.
	Function
	// Cat is a synthetic node copying several sources to its stdout.
	Cat
	// Tee is a synthetic node copying its input to several sinks.
	Tee
)

// TeeItem is one stream of a Tee node: the pipe it reads and the sink
// files that stream is copied to.
type TeeItem struct {
	Source *os.File
	Sinks  []*os.File
}

// RefinedJob is a pipeline node after planning: classified, with its
// redirection files attached. The job owns the files in its slots until
// execution hands them to a child; on any early return they are closed.
type RefinedJob struct {
	Kind    JobKind
	Args    []string
	Builtin syntax.BuiltinFn
	Fn      FunctionHandle

	// PipeTo is the pipe mode toward the next node, RedirNone for the
	// last one.
	PipeTo syntax.RedirectFrom

	Stdin, Stdout, Stderr *os.File

	Sources        []*os.File // Cat
	TeeOut, TeeErr *TeeItem   // Tee
}

// closeFiles releases every file slot the job still owns.
func (j *RefinedJob) closeFiles() {
	for _, f := range []*os.File{j.Stdin, j.Stdout, j.Stderr} {
		if f != nil {
			f.Close()
		}
	}
	for _, f := range j.Sources {
		f.Close()
	}
	for _, t := range []*TeeItem{j.TeeOut, j.TeeErr} {
		if t == nil {
			continue
		}
		if t.Source != nil {
			t.Source.Close()
		}
		for _, f := range t.Sinks {
			f.Close()
		}
	}
}

// FunctionHandle executes a user function defined by the flow-control
// layer above the core. Invalid argument counts or types surface as a
// nonzero status.
type FunctionHandle interface {
	Execute(r *Runner, args []string, stdin io.Reader, stdout, stderr io.Writer) int
}

// isImplicitCd reports whether a lone argument names a directory in a way
// that reads as a path, turning the item into a cd invocation.
func isImplicitCd(arg string) bool {
	if !strings.HasPrefix(arg, ".") && !strings.HasPrefix(arg, "/") &&
		!strings.HasSuffix(arg, "/") {
		return false
	}
	info, err := os.Stat(arg)
	return err == nil && info.IsDir()
}

// classify turns one expanded pipe item into a refined job, resolving
// implicit cd, user functions, and builtins, in that order.
func (r *Runner) classify(item *syntax.PipeItem) RefinedJob {
	job := RefinedJob{Args: item.Job.Args, PipeTo: item.Job.PipeTo}
	if len(job.Args) == 0 {
		return job
	}
	name := job.Args[0]
	if isImplicitCd(name) {
		job.Args = []string{"cd", name}
		job.Kind = Builtin
		job.Builtin, _ = r.lookupBuiltin("cd")
		return job
	}
	if r.FuncLookup != nil {
		if fn, ok := r.FuncLookup(name); ok {
			job.Kind = Function
			job.Fn = fn
			return job
		}
	}
	if fn, ok := r.lookupBuiltin(name); ok {
		job.Kind = Builtin
		job.Builtin = fn
		return job
	}
	job.Kind = External
	return job
}
