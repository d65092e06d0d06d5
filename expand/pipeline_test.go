// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"mvdan.cc/ion/syntax"
)

func TestExpandPipeline(t *testing.T) {
	t.Parallel()
	p, err := syntax.Parse(`echo $FOO {a,b} > $B.log <<< "got $A"`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ExpandPipeline(p, testConfig()); err != nil {
		t.Fatal(err)
	}
	item := p.Items[0]
	wantArgs := []string{"echo", "FOOBAR", "a", "b"}
	if diff := cmp.Diff(wantArgs, item.Job.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if got := item.Outputs[0].File; got != "test.log" {
		t.Fatalf("output file = %q, want %q", got, "test.log")
	}
	hs, ok := item.Inputs[0].(syntax.HereString)
	if !ok {
		t.Fatalf("input is %T, want HereString", item.Inputs[0])
	}
	if hs.Text != "got 1" {
		t.Fatalf("here-string = %q, want %q", hs.Text, "got 1")
	}
}

func TestExpandPipelineError(t *testing.T) {
	t.Parallel()
	p, err := syntax.Parse("echo $UNSET_VARIABLE", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ExpandPipeline(p, testConfig()); err == nil {
		t.Fatal("expected VarNotFound to surface")
	}
}
