// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"mvdan.cc/ion/syntax"
)

// lookupBuiltin resolves a builtin by name, checking the runner's extra
// builtins before the core set.
func (r *Runner) lookupBuiltin(name string) (syntax.BuiltinFn, bool) {
	if r.Builtins != nil {
		if fn, ok := r.Builtins[name]; ok {
			return fn, true
		}
	}
	switch name {
	case "cd":
		return r.builtinCd, true
	case "echo":
		return builtinEcho, true
	case "true":
		return func([]string, io.Reader, io.Writer, io.Writer) int { return 0 }, true
	case "false":
		return func([]string, io.Reader, io.Writer, io.Writer) int { return 1 }, true
	case "exit":
		return r.builtinExit, true
	case "dirs":
		return r.builtinDirs, true
	case "pushd":
		return r.builtinPushd, true
	case "popd":
		return r.builtinPopd, true
	case "jobs":
		return r.builtinJobs, true
	}
	return nil, false
}

func builtinEcho(args []string, _ io.Reader, stdout, _ io.Writer) int {
	newline := true
	i := 1
	if i < len(args) && args[i] == "-n" {
		newline = false
		i++
	}
	for j := i; j < len(args); j++ {
		if j > i {
			io.WriteString(stdout, " ")
		}
		io.WriteString(stdout, args[j])
	}
	if newline {
		io.WriteString(stdout, "\n")
	}
	return 0
}

func (r *Runner) builtinCd(args []string, _ io.Reader, _, stderr io.Writer) int {
	var dir string
	switch {
	case len(args) > 1:
		dir = args[1]
	default:
		home, err := r.home()
		if err != nil {
			fmt.Fprintf(stderr, "ion: cd: %v\n", err)
			return 1
		}
		dir = home
	}
	old, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		fmt.Fprintf(stderr, "ion: cd: %v\n", err)
		return 1
	}
	pwd, _ := os.Getwd()
	os.Setenv("OLDPWD", old)
	os.Setenv("PWD", pwd)
	return 0
}

func (r *Runner) builtinExit(args []string, _ io.Reader, _, _ io.Writer) int {
	code := r.lastStatus
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			code = n
		}
	}
	r.exited = true
	r.exitCode = code
	return code
}

func (r *Runner) builtinDirs(args []string, _ io.Reader, stdout, _ io.Writer) int {
	for _, dir := range r.DirStack {
		fmt.Fprintln(stdout, dir)
	}
	return 0
}

func (r *Runner) builtinPushd(args []string, _ io.Reader, _, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(stderr, "ion: pushd: no directory given")
		return 1
	}
	old, _ := os.Getwd()
	if err := os.Chdir(args[1]); err != nil {
		fmt.Fprintf(stderr, "ion: pushd: %v\n", err)
		return 1
	}
	pwd, _ := os.Getwd()
	os.Setenv("OLDPWD", old)
	os.Setenv("PWD", pwd)
	r.DirStack = append([]string{pwd}, r.DirStack...)
	return 0
}

func (r *Runner) builtinPopd(args []string, _ io.Reader, _, stderr io.Writer) int {
	if len(r.DirStack) < 2 {
		fmt.Fprintln(stderr, "ion: popd: directory stack empty")
		return 1
	}
	r.DirStack = r.DirStack[1:]
	if err := os.Chdir(r.DirStack[0]); err != nil {
		fmt.Fprintf(stderr, "ion: popd: %v\n", err)
		return 1
	}
	os.Setenv("PWD", r.DirStack[0])
	return 0
}

func (r *Runner) builtinJobs(args []string, _ io.Reader, stdout, _ io.Writer) int {
	for i, bg := range r.background.list() {
		fmt.Fprintf(stdout, "[%d] %d %s\t%s\n", i, bg.PGID, bg.State, bg.Command)
	}
	return 0
}
