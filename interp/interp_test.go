// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"mvdan.cc/ion/expand"
)

func testRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r, err := New(StdIO(strings.NewReader(""), &out, &out))
	qt.Assert(t, err, qt.IsNil)
	return r, &out
}

func TestRunEcho(t *testing.T) {
	r, out := testRunner(t)
	status := r.RunLine("echo pro{digal,grammer,cessed}")
	qt.Assert(t, status, qt.Equals, 0)
	qt.Assert(t, out.String(), qt.Equals, "prodigal programmer processed\n")
}

func TestRunVariableBrace(t *testing.T) {
	r, out := testRunner(t)
	r.Vars.Set("A", expand.Str("1"))
	r.RunLine("echo $A{1,2}")
	qt.Assert(t, out.String(), qt.Equals, "11 12\n")
}

func TestRunArraySlice(t *testing.T) {
	r, out := testRunner(t)
	r.RunLine("echo [1 2 3][1..]")
	qt.Assert(t, out.String(), qt.Equals, "2 3\n")
}

func TestRunMethods(t *testing.T) {
	r, out := testRunner(t)
	r.RunLine("echo $len([0 1 2 3 4])")
	r.RunLine("echo $join(@chars('FOO') 'x')")
	qt.Assert(t, out.String(), qt.Equals, "5\nFxOxO\n")
}

func TestRunArithmetic(t *testing.T) {
	r, out := testRunner(t)
	r.Vars.Set("A", expand.Str("5"))
	r.RunLine("echo $((A * A - (A + A)))")
	qt.Assert(t, out.String(), qt.Equals, "15\n")
}

func TestRunPipelineExternal(t *testing.T) {
	r, out := testRunner(t)
	status := r.RunLine("echo -n hello | tr a-z A-Z")
	qt.Assert(t, status, qt.Equals, 0)
	qt.Assert(t, out.String(), qt.Equals, "HELLO")
}

func TestStderrPipe(t *testing.T) {
	var out, errBuf bytes.Buffer
	r, err := New(StdIO(strings.NewReader(""), &out, &errBuf))
	qt.Assert(t, err, qt.IsNil)
	status := r.RunLine(`sh -c 'echo oops 1>&2' ^| tr a-z A-Z`)
	qt.Assert(t, status, qt.Equals, 0)
	qt.Assert(t, out.String(), qt.Equals, "OOPS\n")
	qt.Assert(t, errBuf.String(), qt.Equals, "")
}

func TestRunRedirections(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	outFile := filepath.Join(dir, "out.txt")
	qt.Assert(t, os.WriteFile(in, []byte("one\ntwo\n"), 0o666), qt.IsNil)

	r, _ := testRunner(t)
	status := r.RunLine(`cat < ` + in + ` <<< "abc" | tr a-z A-Z > ` + outFile)
	qt.Assert(t, status, qt.Equals, 0)
	data, err := os.ReadFile(outFile)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(data), qt.Equals, "ONE\nTWO\nABC\n")
}

func TestRunOutputFanOut(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")
	r, _ := testRunner(t)
	status := r.RunLine("echo fanned > " + a + " > " + b)
	qt.Assert(t, status, qt.Equals, 0)
	for _, f := range []string{a, b} {
		data, err := os.ReadFile(f)
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, string(data), qt.Equals, "fanned\n")
	}
}

func TestRunAppend(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "log")
	r, _ := testRunner(t)
	r.RunLine("echo one > " + f)
	r.RunLine("echo two >> " + f)
	data, err := os.ReadFile(f)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(data), qt.Equals, "one\ntwo\n")
}

func TestRunStatuses(t *testing.T) {
	r, _ := testRunner(t)
	qt.Assert(t, r.RunLine("true"), qt.Equals, StatusSuccess)
	qt.Assert(t, r.RunLine("false"), qt.Equals, StatusFailure)
	qt.Assert(t, r.RunLine("definitely-not-a-command-zz"), qt.Equals, StatusNoSuchCommand)
}

func TestLastStatusVariable(t *testing.T) {
	r, out := testRunner(t)
	r.RunLine("false")
	r.RunLine("echo $?")
	qt.Assert(t, strings.HasSuffix(out.String(), "1\n"), qt.IsTrue)
}

func TestCommandNotFoundHook(t *testing.T) {
	r, out := testRunner(t)
	called := ""
	r.CommandNotFound = func(name string) bool {
		called = name
		return true
	}
	status := r.RunLine("nope-nope-nope")
	qt.Assert(t, status, qt.Equals, StatusNoSuchCommand)
	qt.Assert(t, called, qt.Equals, "nope-nope-nope")
	qt.Assert(t, out.String(), qt.Equals, "")
}

func TestRunDisown(t *testing.T) {
	r, _ := testRunner(t)
	start := time.Now()
	status := r.RunLine("sleep 0.2 &!")
	qt.Assert(t, status, qt.Equals, 0)
	qt.Assert(t, time.Since(start) < 150*time.Millisecond, qt.IsTrue)
	jobs := r.background.list()
	qt.Assert(t, len(jobs), qt.Equals, 1)
	qt.Assert(t, jobs[0].Disown, qt.IsTrue)
}

func TestCommandSubstitution(t *testing.T) {
	r, out := testRunner(t)
	r.RunLine("echo $(echo nested)")
	qt.Assert(t, out.String(), qt.Equals, "nested\n")
}

func TestImplicitCd(t *testing.T) {
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	qt.Assert(t, err, qt.IsNil)
	defer os.Chdir(oldWd)

	r, _ := testRunner(t)
	status := r.RunLine(dir + "/")
	qt.Assert(t, status, qt.Equals, 0)
	pwd, err := os.Getwd()
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, filepath.Clean(pwd), qt.Equals, filepath.Clean(resolveSymlinks(t, dir)))
}

func resolveSymlinks(t *testing.T, dir string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(dir)
	qt.Assert(t, err, qt.IsNil)
	return resolved
}

func TestExitBuiltin(t *testing.T) {
	r, _ := testRunner(t)
	r.RunLine("exit 3")
	exited, code := r.Exited()
	qt.Assert(t, exited, qt.IsTrue)
	qt.Assert(t, code, qt.Equals, 3)
}

func TestScopes(t *testing.T) {
	v := NewVariables()
	v.Set("x", expand.Str("global"))
	v.PushScope(false)
	if got, _ := v.Get("x"); got != expand.Str("global") {
		t.Fatalf("inner scope did not see outer variable: %v", got)
	}
	v.Set("x", expand.Str("inner"))
	v.PopScope()
	if got, _ := v.Get("x"); got != expand.Str("inner") {
		t.Fatalf("plain Set should write where the name lives: %v", got)
	}

	v.Set("global::g", expand.Str("G"))
	v.PushScope(true)
	if _, ok := v.Get("nope"); ok {
		t.Fatal("function scope resolved an undefined name")
	}
	if got, _ := v.Get("g"); got != expand.Str("G") {
		t.Fatalf("function scope did not see globals: %v", got)
	}
	v.PopScope()
}
