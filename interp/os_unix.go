// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build unix

package interp

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// prepareCommand places the child in the pipeline's process group before
// exec. The first child leads a fresh group; later children join it. The
// kernel applies the group change in the child between fork and exec,
// which keeps the whole pipeline addressable by one PGID from the start.
func prepareCommand(cmd *exec.Cmd, pgid int) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}
}

// signalGroup delivers a signal to every process of a group.
func signalGroup(pgid int, sig os.Signal) {
	if s, ok := sig.(syscall.Signal); ok {
		unix.Kill(-pgid, s)
	}
}

func hangupGroup(pgid int) {
	unix.Kill(-pgid, unix.SIGHUP)
}

func signalNumber(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return int(s)
	}
	return int(unix.SIGTERM)
}

// giveTerminalTo hands the controlling terminal to the foreground group.
// SIGTTOU is ignored around the change, since the shell may not be in the
// foreground group itself at that moment.
func giveTerminalTo(pgid int) {
	signal.Ignore(syscall.SIGTTOU)
	defer signal.Reset(syscall.SIGTTOU)
	unix.IoctlSetPointerInt(int(os.Stdin.Fd()), unix.TIOCSPGRP, pgid)
}

// reclaimTerminal returns the terminal to the shell's own group.
func reclaimTerminal() {
	signal.Ignore(syscall.SIGTTOU)
	defer signal.Reset(syscall.SIGTTOU)
	unix.IoctlSetPointerInt(int(os.Stdin.Fd()), unix.TIOCSPGRP, unix.Getpgrp())
}

// exitStatus maps a wait result to a shell status: the exit code, or 128
// plus the signal number for signalled children.
func exitStatus(err *exec.ExitError) int {
	ws, ok := err.Sys().(syscall.WaitStatus)
	if !ok {
		return StatusFailure
	}
	if ws.Signaled() {
		return statusSignalBase + int(ws.Signal())
	}
	return ws.ExitStatus()
}

// dupFile duplicates a descriptor so that both stdout and stderr can own
// a handle to the same open file.
func dupFile(f *os.File) (*os.File, error) {
	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(fd)
	return os.NewFile(uintptr(fd), f.Name()), nil
}
