// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"fmt"
	"sync"
)

// BackgroundProcess tracks one detached pipeline. Disowned entries are
// never reported on completion.
type BackgroundProcess struct {
	PGID    int
	Command string
	State   string
	Disown  bool
}

// backgroundList is the mutex-protected registry of detached pipelines.
// Only the supervisor mutates it.
type backgroundList struct {
	mu   sync.Mutex
	jobs []*BackgroundProcess
}

func (b *backgroundList) add(bg *BackgroundProcess) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = append(b.jobs, bg)
	return len(b.jobs) - 1
}

func (b *backgroundList) list() []*BackgroundProcess {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*BackgroundProcess, len(b.jobs))
	copy(out, b.jobs)
	return out
}

func (b *backgroundList) setState(index int, state string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index >= 0 && index < len(b.jobs) {
		b.jobs[index].State = state
	}
}

// reportBackground prints a completion notice for a finished background job, unless
// it was disowned.
func (r *Runner) reportBackground(index int, bg *BackgroundProcess, status int) {
	r.background.setState(index, "Done")
	if bg.Disown {
		return
	}
	fmt.Fprintf(r.stderrWriter(), "ion: ([%d] %d exited with %d: %s)\n",
		index, bg.PGID, status, bg.Command)
}
