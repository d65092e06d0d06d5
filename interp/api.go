// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package interp supervises pipeline execution.
//
// A [Runner] holds the shell state the core needs: variables, builtins,
// the background-job registry, and the standard streams. The execution
// model is a single supervisor goroutine plus OS child processes; the
// synthetic Cat and Tee nodes of the redirection planner run as
// supervisor-owned goroutines pumping pipe ends.
package interp

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/ion/expand"
	"mvdan.cc/ion/syntax"
)

// Runner executes pipelines against one shell state.
type Runner struct {
	// Vars is the scoped variable store.
	Vars *Variables

	// DirStack backs the '~n' tilde forms and pushd/popd.
	DirStack []string

	// Builtins extends the core builtin set; entries here shadow it.
	Builtins map[string]syntax.BuiltinFn

	// FuncLookup resolves user functions, supplied by the flow-control
	// layer.
	FuncLookup func(name string) (FunctionHandle, bool)

	// CommandNotFound runs when an external command is missing; a true
	// return suppresses the default diagnostic.
	CommandNotFound func(name string) bool

	// Interactive hands the controlling terminal to foreground
	// pipelines, the way a login shell does.
	Interactive bool

	// Huponexit makes Shutdown signal surviving background jobs.
	Huponexit bool

	// Signals receives signals the embedder wants relayed to the
	// foreground process group.
	Signals chan os.Signal

	stdin          io.Reader
	stdout, stderr io.Writer

	lastStatus int
	exited     bool
	exitCode   int
	background *backgroundList
}

// RunnerOption configures a Runner at construction.
type RunnerOption func(*Runner) error

// StdIO sets the runner's standard streams.
func StdIO(stdin io.Reader, stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) error {
		r.stdin, r.stdout, r.stderr = stdin, stdout, stderr
		return nil
	}
}

// Interactive marks the runner as driving a terminal.
func Interactive(enabled bool) RunnerOption {
	return func(r *Runner) error {
		r.Interactive = enabled
		return nil
	}
}

// New builds a ready Runner.
func New(opts ...RunnerOption) (*Runner, error) {
	r := &Runner{Vars: NewVariables(), background: &backgroundList{}}
	if pwd, err := os.Getwd(); err == nil {
		r.DirStack = []string{pwd}
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Runner) stdinReader() io.Reader {
	if r.stdin != nil {
		return r.stdin
	}
	return os.Stdin
}

func (r *Runner) stdoutWriter() io.Writer {
	if r.stdout != nil {
		return r.stdout
	}
	return os.Stdout
}

func (r *Runner) stderrWriter() io.Writer {
	if r.stderr != nil {
		return r.stderr
	}
	return os.Stderr
}

// Exited reports whether a builtin asked the shell to exit, and with what
// code.
func (r *Runner) Exited() (bool, int) { return r.exited, r.exitCode }

// LastStatus is the status of the most recent pipeline.
func (r *Runner) LastStatus() int { return r.lastStatus }

// ExpandConfig binds the runner to the expander.
func (r *Runner) ExpandConfig() *expand.Config {
	return &expand.Config{Lookups: lookups{r}, Stderr: r.stderrWriter()}
}

// ParsePipeline collects a statement using the runner's builtins.
func (r *Runner) ParsePipeline(src string) (*syntax.Pipeline, error) {
	return syntax.Parse(src, func(name string) (syntax.BuiltinFn, bool) {
		return r.lookupBuiltin(name)
	})
}

// RunLine parses, expands, and runs one statement, returning its status.
// Errors at any stage report a single 'ion: ...' line and a failing
// status without running any child.
func (r *Runner) RunLine(src string) int {
	p, err := r.ParsePipeline(src)
	if err != nil {
		fmt.Fprintf(r.stderrWriter(), "ion: %v\n", err)
		r.lastStatus = StatusFailure
		return r.lastStatus
	}
	if err := expand.ExpandPipeline(p, r.ExpandConfig()); err != nil {
		fmt.Fprintf(r.stderrWriter(), "ion: %v\n", err)
		r.lastStatus = StatusFailure
		return r.lastStatus
	}
	return r.RunPipeline(p)
}

// captureCommand runs a substitution command, capturing its stdout.
func (r *Runner) captureCommand(cmd string) (string, error) {
	var buf bytes.Buffer
	sub := *r
	sub.stdout = &buf
	sub.Interactive = false
	sub.Signals = nil
	for _, line := range strings.Split(cmd, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sub.RunLine(line)
	}
	r.lastStatus = sub.lastStatus
	return buf.String(), nil
}

// Shutdown finishes the runner's job control duties on shell exit: under
// huponexit, surviving background groups receive SIGHUP.
func (r *Runner) Shutdown() {
	if !r.Huponexit {
		return
	}
	for _, bg := range r.background.list() {
		if !bg.Disown && bg.State != "Done" && bg.PGID > 0 {
			hangupGroup(bg.PGID)
		}
	}
}
