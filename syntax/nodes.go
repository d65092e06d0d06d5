// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package syntax turns shell command strings into pipelines.
//
// A statement is collected into a [Pipeline] of [PipeItem] nodes joined by
// pipe operators, each carrying its own redirections. The arguments of each
// item are left untouched; they are later tokenized by [WordIterator] and
// expanded by the expand package.
package syntax

import (
	"io"
	"strings"
)

// RedirectFrom selects which of a job's output streams feeds a pipe or a
// file redirection.
type RedirectFrom uint8

const (
	RedirNone RedirectFrom = iota
	RedirStdout
	RedirStderr
	RedirBoth
)

func (r RedirectFrom) String() string {
	switch r {
	case RedirStdout:
		return "stdout"
	case RedirStderr:
		return "stderr"
	case RedirBoth:
		return "both"
	}
	return "none"
}

// PipeType is the disposition of a whole pipeline with respect to the shell.
type PipeType uint8

const (
	Normal PipeType = iota
	Background
	Disown
)

// BuiltinFn runs a builtin command with the given arguments and streams,
// returning its exit status.
type BuiltinFn func(args []string, stdin io.Reader, stdout, stderr io.Writer) int

// BuiltinLookup resolves a command name to a builtin, if one exists.
// The collector records the handle on each job; the interpreter looks the
// command name up again after expansion.
type BuiltinLookup func(name string) (BuiltinFn, bool)

// Job is a single command of a pipeline. Args hold the raw argument text as
// written, quotes included; expansion rewrites them in place.
type Job struct {
	Args    []string
	PipeTo  RedirectFrom
	Builtin BuiltinFn
}

// Redirection sends one of a job's output streams to a file.
type Redirection struct {
	From   RedirectFrom
	File   string
	Append bool
}

// Input feeds a job's stdin from a file or a here-string.
type Input interface {
	inputNode()
	source() string
}

// FileInput redirects stdin from the named file.
type FileInput struct{ Path string }

// HereString feeds the expanded text, newline-terminated, to stdin.
type HereString struct{ Text string }

func (FileInput) inputNode()  {}
func (HereString) inputNode() {}

func (f FileInput) source() string  { return "< " + f.Path }
func (h HereString) source() string { return "<<< " + h.Text }

// PipeItem is one job plus the redirections that textually follow it.
type PipeItem struct {
	Job     Job
	Outputs []Redirection
	Inputs  []Input
}

// Pipeline is an ordered list of pipe items with a terminal disposition.
type Pipeline struct {
	Items []PipeItem
	Pipe  PipeType
}

func (p *Pipeline) addItem(redir RedirectFrom, args []string, outputs []Redirection, inputs []Input, builtins BuiltinLookup) {
	if len(args) == 0 {
		return
	}
	job := Job{Args: args, PipeTo: redir}
	if builtins != nil {
		if fn, ok := builtins(args[0]); ok {
			job.Builtin = fn
		}
	}
	p.Items = append(p.Items, PipeItem{Job: job, Outputs: outputs, Inputs: inputs})
}

// Source reconstructs a command string for the pipeline. Parsing the result
// again yields an equivalent pipeline, since arguments keep their quoting.
func (p *Pipeline) Source() string {
	var sb strings.Builder
	for i, item := range p.Items {
		if i > 0 {
			switch p.Items[i-1].Job.PipeTo {
			case RedirStderr:
				sb.WriteString(" ^| ")
			case RedirBoth:
				sb.WriteString(" &| ")
			default:
				sb.WriteString(" | ")
			}
		}
		sb.WriteString(strings.Join(item.Job.Args, " "))
		for _, in := range item.Inputs {
			sb.WriteByte(' ')
			sb.WriteString(in.source())
		}
		for _, out := range item.Outputs {
			sb.WriteByte(' ')
			switch out.From {
			case RedirStderr:
				sb.WriteByte('^')
			case RedirBoth:
				sb.WriteByte('&')
			}
			sb.WriteByte('>')
			if out.Append {
				sb.WriteByte('>')
			}
			sb.WriteByte(' ')
			sb.WriteString(out.File)
		}
	}
	switch p.Pipe {
	case Background:
		sb.WriteString(" &")
	case Disown:
		sb.WriteString(" &!")
	}
	return sb.String()
}
