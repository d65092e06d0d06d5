// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"fmt"
	"os"
	"strings"

	"mvdan.cc/ion/syntax"
)

// openOutput opens a redirection target, truncating unless appending.
func openOutput(red syntax.Redirection) (*os.File, error) {
	if red.Append {
		return os.OpenFile(red.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	}
	return os.Create(red.File)
}

// openInput materializes one input: a file is opened, a here-string is
// written to an anonymous pipe with a trailing newline added if missing.
func openInput(in syntax.Input) (*os.File, error) {
	switch in := in.(type) {
	case syntax.FileInput:
		f, err := os.Open(in.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to redirect '%s' to stdin: %v", in.Path, err)
		}
		return f, nil
	case syntax.HereString:
		text := in.Text
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		pr, pw, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		go func() {
			pw.WriteString(text)
			pw.Close()
		}()
		return pr, nil
	}
	return nil, fmt.Errorf("unknown input type %T", in)
}

// needTee counts how many outputs target each stream, including the pipe
// to the next item. Two or more on one stream call for a tee node.
func needTee(outs []syntax.Redirection, pipeTo syntax.RedirectFrom) (teeOut, teeErr bool) {
	stdout, stderr := 0, 0
	switch pipeTo {
	case syntax.RedirStdout:
		stdout++
	case syntax.RedirStderr:
		stderr++
	case syntax.RedirBoth:
		stdout++
		stderr++
	}
	for _, out := range outs {
		switch out.From {
		case syntax.RedirStdout:
			stdout++
		case syntax.RedirStderr:
			stderr++
		case syntax.RedirBoth:
			stdout++
			stderr++
		}
	}
	return stdout >= 2, stderr >= 2
}

// planRedirections refines an expanded pipeline into the linear node
// sequence the executor runs: Cat nodes are spliced in front of items with
// several inputs, Tee nodes behind items with several outputs on one
// stream. On any open failure every file opened so far is closed and the
// plan is abandoned.
func (r *Runner) planRedirections(p *syntax.Pipeline) ([]RefinedJob, error) {
	var plan []RefinedJob
	fail := func(err error) ([]RefinedJob, error) {
		for i := range plan {
			plan[i].closeFiles()
		}
		return nil, err
	}

	prevPipe := syntax.RedirNone
	for i := range p.Items {
		item := &p.Items[i]
		job := r.classify(item)
		pipedInto := i > 0 && prevPipe != syntax.RedirNone
		prevPipe = item.Job.PipeTo

		// Multiple inputs, or an input plus an incoming pipe, need a
		// cat node merging them in front of the item's stdin.
		switch {
		case len(item.Inputs) == 0:
		case len(item.Inputs) == 1 && !pipedInto:
			f, err := openInput(item.Inputs[0])
			if err != nil {
				return fail(err)
			}
			job.Stdin = f
		default:
			var sources []*os.File
			for _, in := range item.Inputs {
				f, err := openInput(in)
				if err != nil {
					for _, s := range sources {
						s.Close()
					}
					return fail(err)
				}
				sources = append(sources, f)
			}
			plan = append(plan, RefinedJob{
				Kind:    Cat,
				Sources: sources,
				PipeTo:  syntax.RedirStdout,
			})
		}

		if len(item.Outputs) == 0 {
			plan = append(plan, job)
			continue
		}
		teeOut, teeErr := needTee(item.Outputs, job.PipeTo)
		if !teeOut && !teeErr {
			for _, out := range item.Outputs {
				f, err := openOutput(out)
				if err != nil {
					job.closeFiles()
					return fail(redirError(out, err))
				}
				switch out.From {
				case syntax.RedirStdout:
					job.Stdout = f
				case syntax.RedirStderr:
					job.Stderr = f
				case syntax.RedirBoth:
					dup, err := dupFile(f)
					if err != nil {
						f.Close()
						job.closeFiles()
						return fail(err)
					}
					job.Stdout = f
					job.Stderr = dup
				}
			}
			plan = append(plan, job)
			continue
		}

		// One or both streams fan out: attach single-stream files to
		// the job, gather the fanned-out sinks on a tee node spliced
		// after it.
		tee := RefinedJob{Kind: Tee, PipeTo: job.PipeTo}
		if teeOut {
			tee.TeeOut = &TeeItem{}
		}
		if teeErr {
			tee.TeeErr = &TeeItem{}
		}
		for _, out := range item.Outputs {
			f, err := openOutput(out)
			if err != nil {
				job.closeFiles()
				tee.closeFiles()
				return fail(redirError(out, err))
			}
			switch {
			case out.From == syntax.RedirStdout && teeOut:
				tee.TeeOut.Sinks = append(tee.TeeOut.Sinks, f)
			case out.From == syntax.RedirStdout:
				job.Stdout = f
			case out.From == syntax.RedirStderr && teeErr:
				tee.TeeErr.Sinks = append(tee.TeeErr.Sinks, f)
			case out.From == syntax.RedirStderr:
				job.Stderr = f
			case out.From == syntax.RedirBoth:
				dup, err := dupFile(f)
				if err != nil {
					f.Close()
					job.closeFiles()
					tee.closeFiles()
					return fail(err)
				}
				if teeOut {
					tee.TeeOut.Sinks = append(tee.TeeOut.Sinks, f)
				} else {
					job.Stdout = f
				}
				if teeErr {
					tee.TeeErr.Sinks = append(tee.TeeErr.Sinks, dup)
				} else {
					job.Stderr = dup
				}
			}
		}
		// The item feeds the tee over the streams that fan out.
		switch {
		case teeOut && teeErr:
			job.PipeTo = syntax.RedirBoth
		case teeOut:
			job.PipeTo = syntax.RedirStdout
		default:
			job.PipeTo = syntax.RedirStderr
		}
		plan = append(plan, job, tee)
	}
	return plan, nil
}

func redirError(out syntax.Redirection, err error) error {
	return fmt.Errorf("failed to redirect output into %s: %v", out.File, err)
}
