// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"mvdan.cc/ion/syntax"
)

// RunPipeline plans and executes an already-expanded pipeline, returning
// its status. Arguments of every item are fully expanded before any child
// is spawned; a planning failure forks nothing.
func (r *Runner) RunPipeline(p *syntax.Pipeline) int {
	items := p.Items[:0]
	for _, item := range p.Items {
		if len(item.Job.Args) > 0 {
			items = append(items, item)
		}
	}
	p.Items = items
	if len(p.Items) == 0 {
		return r.lastStatus
	}

	plan, err := r.planRedirections(p)
	if err != nil {
		fmt.Fprintf(r.stderrWriter(), "ion: %v\n", err)
		r.lastStatus = StatusCouldNotExec
		return r.lastStatus
	}

	if p.Pipe == syntax.Background || p.Pipe == syntax.Disown {
		r.runBackground(plan, p)
		r.lastStatus = StatusSuccess
		return r.lastStatus
	}

	if sig, ok := r.pendingSignal(); ok {
		for i := range plan {
			plan[i].closeFiles()
		}
		r.lastStatus = statusSignalBase + sig
		return r.lastStatus
	}
	r.lastStatus = r.runPlan(plan, true, nil)
	return r.lastStatus
}

// pendingSignal drains a signal latched before spawning, without blocking.
func (r *Runner) pendingSignal() (int, bool) {
	if r.Signals == nil {
		return 0, false
	}
	select {
	case sig := <-r.Signals:
		return signalNumber(sig), true
	default:
		return 0, false
	}
}

// runBackground detaches the planned pipeline: it runs in its own process
// group with stdin closed, supervised by a goroutine; the parent registers
// the job and returns immediately.
func (r *Runner) runBackground(plan []RefinedJob, p *syntax.Pipeline) {
	bg := &BackgroundProcess{
		Command: p.Source(),
		State:   "Running",
		Disown:  p.Pipe == syntax.Disown,
	}
	index := r.background.add(bg)
	sub := *r
	sub.stdin = eofReader{}
	sub.Interactive = false
	sub.Signals = nil
	go func() {
		status := sub.runPlan(plan, false, &bg.PGID)
		r.reportBackground(index, bg, status)
	}()
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// spawned tracks one started node while the pipeline drains.
type spawned struct {
	cmd  *exec.Cmd // externals
	done chan int  // in-process nodes
	fail int       // spawn failure status, 0 if started
}

// runPlan wires pipes between adjacent nodes, starts every node, then
// waits for the chain in order. The last node's status is the pipeline
// status.
func (r *Runner) runPlan(plan []RefinedJob, foreground bool, pgidOut *int) int {
	if err := r.connectPipes(plan); err != nil {
		fmt.Fprintf(r.stderrWriter(), "ion: %v\n", err)
		for i := range plan {
			plan[i].closeFiles()
		}
		return StatusCouldNotExec
	}

	procs := make([]spawned, len(plan))
	pgid := 0
	for i := range plan {
		procs[i] = r.spawn(&plan[i], &pgid)
	}
	if pgidOut != nil {
		*pgidOut = pgid
	}

	if foreground && r.Interactive && pgid != 0 {
		giveTerminalTo(pgid)
		defer reclaimTerminal()
	}

	relayDone := make(chan struct{})
	if r.Signals != nil {
		go r.relaySignals(pgid, relayDone)
	}

	status := StatusSuccess
	for i := range plan {
		status = r.waitFor(&procs[i])
	}
	close(relayDone)
	return status
}

// relaySignals forwards embedder-delivered signals to the foreground
// group until the pipeline has drained.
func (r *Runner) relaySignals(pgid int, done <-chan struct{}) {
	for {
		select {
		case sig, ok := <-r.Signals:
			if !ok {
				return
			}
			if pgid != 0 {
				signalGroup(pgid, sig)
			}
		case <-done:
			return
		}
	}
}

// connectPipes creates the pipe between each adjacent pair. The write end
// binds to the selected stream of the left node; the read end becomes the
// right node's stdin, or a tee item's source.
func (r *Runner) connectPipes(plan []RefinedJob) error {
	for i := 0; i+1 < len(plan); i++ {
		left, right := &plan[i], &plan[i+1]
		mode := left.PipeTo
		if mode == syntax.RedirNone {
			continue
		}
		makePipe := func() (*os.File, *os.File, error) {
			pr, pw, err := os.Pipe()
			return pr, pw, err
		}
		attachRead := func(pr *os.File, from syntax.RedirectFrom) {
			switch {
			case right.Kind == Tee && from == syntax.RedirStderr && right.TeeErr != nil:
				right.TeeErr.Source = pr
			case right.Kind == Tee && right.TeeOut != nil:
				right.TeeOut.Source = pr
			case right.Kind == Tee && right.TeeErr != nil:
				right.TeeErr.Source = pr
			default:
				right.Stdin = pr
			}
		}
		switch mode {
		case syntax.RedirStdout, syntax.RedirStderr:
			pr, pw, err := makePipe()
			if err != nil {
				return err
			}
			if mode == syntax.RedirStdout {
				left.Stdout = pw
			} else {
				left.Stderr = pw
			}
			attachRead(pr, mode)
		case syntax.RedirBoth:
			if right.Kind == Tee && right.TeeOut != nil && right.TeeErr != nil {
				// Two pipes keep the streams separate for the tee.
				prOut, pwOut, err := makePipe()
				if err != nil {
					return err
				}
				prErr, pwErr, err := makePipe()
				if err != nil {
					pwOut.Close()
					prOut.Close()
					return err
				}
				left.Stdout, left.Stderr = pwOut, pwErr
				right.TeeOut.Source = prOut
				right.TeeErr.Source = prErr
				continue
			}
			pr, pw, err := makePipe()
			if err != nil {
				return err
			}
			dup, err := dupFile(pw)
			if err != nil {
				pw.Close()
				pr.Close()
				return err
			}
			left.Stdout, left.Stderr = pw, dup
			attachRead(pr, mode)
		}
	}
	return nil
}

// spawn starts one node. External programs fork and exec into the
// pipeline's process group; builtins, functions, and the synthetic nodes
// run as supervisor goroutines over the same file slots.
func (r *Runner) spawn(job *RefinedJob, pgid *int) spawned {
	switch job.Kind {
	case External:
		return r.spawnExternal(job, pgid)
	default:
		done := make(chan int, 1)
		j := *job
		go func() {
			done <- r.runInProcess(&j)
		}()
		return spawned{done: done}
	}
}

func (r *Runner) spawnExternal(job *RefinedJob, pgid *int) spawned {
	path, err := exec.LookPath(job.Args[0])
	if err != nil {
		job.closeFiles()
		if errors.Is(err, exec.ErrNotFound) {
			if r.CommandNotFound == nil || !r.CommandNotFound(job.Args[0]) {
				fmt.Fprintf(r.stderrWriter(), "ion: command not found: %s\n", job.Args[0])
			}
			return spawned{fail: StatusNoSuchCommand}
		}
		fmt.Fprintf(r.stderrWriter(), "ion: %v\n", err)
		return spawned{fail: StatusCouldNotExec}
	}
	cmd := exec.Command(path)
	cmd.Args = job.Args
	if job.Stdin != nil {
		cmd.Stdin = job.Stdin
	} else {
		cmd.Stdin = r.stdinReader()
	}
	if job.Stdout != nil {
		cmd.Stdout = job.Stdout
	} else {
		cmd.Stdout = r.stdoutWriter()
	}
	if job.Stderr != nil {
		cmd.Stderr = job.Stderr
	} else {
		cmd.Stderr = r.stderrWriter()
	}
	prepareCommand(cmd, *pgid)
	if err := cmd.Start(); err != nil {
		job.closeFiles()
		fmt.Fprintf(r.stderrWriter(), "ion: failed to exec %s: %v\n", job.Args[0], err)
		return spawned{fail: StatusCouldNotExec}
	}
	if *pgid == 0 {
		// The first child's PID names the group; later children join
		// it before exec via their SysProcAttr.
		*pgid = cmd.Process.Pid
	}
	// The child owns its descriptor copies now.
	job.closeFiles()
	return spawned{cmd: cmd}
}

// runInProcess executes a non-external node over its file slots, closing
// them when done.
func (r *Runner) runInProcess(job *RefinedJob) int {
	defer job.closeFiles()

	stdin := io.Reader(job.Stdin)
	if job.Stdin == nil {
		stdin = r.stdinReader()
	}
	stdout := io.Writer(job.Stdout)
	if job.Stdout == nil {
		stdout = r.stdoutWriter()
	}
	stderr := io.Writer(job.Stderr)
	if job.Stderr == nil {
		stderr = r.stderrWriter()
	}

	switch job.Kind {
	case Builtin:
		return job.Builtin(job.Args, stdin, stdout, stderr)
	case Function:
		return job.Fn.Execute(r, job.Args, stdin, stdout, stderr)
	case Cat:
		if job.Stdin != nil {
			if _, err := io.Copy(stdout, stdin); err != nil {
				return StatusFailure
			}
		}
		for _, src := range job.Sources {
			if _, err := io.Copy(stdout, src); err != nil {
				return StatusFailure
			}
		}
		return StatusSuccess
	case Tee:
		var g errgroup.Group
		for _, item := range []*TeeItem{job.TeeOut, job.TeeErr} {
			if item == nil || item.Source == nil {
				continue
			}
			item := item
			forward := stdout
			if item == job.TeeErr {
				forward = stderr
			}
			g.Go(func() error {
				writers := make([]io.Writer, 0, len(item.Sinks)+1)
				for _, sink := range item.Sinks {
					writers = append(writers, sink)
				}
				if item == job.TeeOut && job.Stdout != nil {
					writers = append(writers, forward)
				}
				if item == job.TeeErr && job.Stderr != nil {
					writers = append(writers, forward)
				}
				_, err := io.Copy(io.MultiWriter(writers...), item.Source)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return StatusFailure
		}
		return StatusSuccess
	}
	return StatusFailure
}

// waitFor collects one node's status.
func (r *Runner) waitFor(proc *spawned) int {
	switch {
	case proc.fail != 0:
		return proc.fail
	case proc.cmd != nil:
		err := proc.cmd.Wait()
		if err == nil {
			return StatusSuccess
		}
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			return exitStatus(exit)
		}
		return StatusCouldNotExec
	case proc.done != nil:
		return <-proc.done
	}
	return StatusSuccess
}
