// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// ion is a command shell built on top of [interp].
//
// It reads statements from -c, from script files, or interactively, and
// feeds each one through the pipeline engine.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"mvdan.cc/ion/interp"
)

var (
	command   = flag.StringP("command", "c", "", "command to be executed")
	parseOnly = flag.BoolP("no-execute", "n", false, "parse statements without executing them")
)

func main() {
	flag.Parse()
	os.Exit(runAll())
}

func runAll() int {
	interactive := *command == "" && flag.NArg() == 0 &&
		term.IsTerminal(int(os.Stdin.Fd()))

	r, err := interp.New(
		interp.Interactive(interactive),
		interp.StdIO(os.Stdin, os.Stdout, os.Stderr),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ion:", err)
		return 1
	}
	r.Huponexit = interactive
	defer r.Shutdown()

	r.Signals = make(chan os.Signal, 8)
	signal.Notify(r.Signals, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
	defer signal.Stop(r.Signals)

	if *command != "" {
		return runReader(r, strings.NewReader(*command))
	}
	if flag.NArg() == 0 {
		if interactive {
			return runInteractive(r)
		}
		return runReader(r, os.Stdin)
	}
	status := 0
	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "ion:", err)
			return 1
		}
		status = runReader(r, f)
		f.Close()
		if exited, code := r.Exited(); exited {
			return code
		}
	}
	return status
}

func runReader(r *interp.Runner, in io.Reader) int {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	status := 0
	for scanner.Scan() {
		status = runLine(r, scanner.Text())
		if exited, code := r.Exited(); exited {
			return code
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "ion:", err)
		return 1
	}
	return status
}

func runLine(r *interp.Runner, line string) int {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return r.LastStatus()
	}
	if *parseOnly {
		if _, err := r.ParsePipeline(line); err != nil {
			fmt.Fprintln(os.Stderr, "ion:", err)
			return 1
		}
		return 0
	}
	return r.RunLine(line)
}

func runInteractive(r *interp.Runner) int {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stdout, "# ")
	for scanner.Scan() {
		runLine(r, scanner.Text())
		if exited, code := r.Exited(); exited {
			return code
		}
		fmt.Fprint(os.Stdout, "# ")
	}
	fmt.Fprintln(os.Stdout)
	return r.LastStatus()
}
