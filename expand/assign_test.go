// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseKeys(t *testing.T) {
	t.Parallel()
	keys, err := ParseKeys("a b:int c:[str] d:hmap[float]")
	if err != nil {
		t.Fatal(err)
	}
	wantNames := []string{"a", "b", "c", "d"}
	wantKinds := []string{"str", "int", "[str]", "hmap[float]"}
	for i, key := range keys {
		if key.Name != wantNames[i] {
			t.Errorf("key %d name = %q, want %q", i, key.Name, wantNames[i])
		}
		if got := key.Kind.String(); got != wantKinds[i] {
			t.Errorf("key %d kind = %q, want %q", i, got, wantKinds[i])
		}
	}
	if _, err := ParseKeys("a:nope"); err == nil {
		t.Error("expected TypeError for unknown type")
	}
}

func TestCheckValue(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cases := []struct {
		key   string
		value string
		want  []string
	}{
		{"n:int", "42", []string{"42"}},
		{"n:int", "042", []string{"42"}},
		{"f:float", "3.50", []string{"3.5"}},
		{"b:bool", "1", []string{"true"}},
		{"b:bool", "false", []string{"false"}},
		{"s", "word", []string{"word"}},
		{"xs:[int]", "[1 2 3]", []string{"1", "2", "3"}},
		{"m:hmap[int]", "[a=1 b=2]", []string{"a=1", "b=2"}},
	}
	for _, tc := range cases {
		keys, err := ParseKeys(tc.key)
		if err != nil {
			t.Fatal(err)
		}
		got, err := cfg.CheckValue(keys[0], tc.value)
		if err != nil {
			t.Fatalf("CheckValue(%q, %q): %v", tc.key, tc.value, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("CheckValue(%q, %q) mismatch (-want +got):\n%s", tc.key, tc.value, diff)
		}
	}

	bad := []struct{ key, value string }{
		{"n:int", "four"},
		{"f:float", "x"},
		{"b:bool", "maybe"},
		{"xs:[int]", "notarray"},
		{"n:int", "[1 2]"},
	}
	for _, tc := range bad {
		keys, err := ParseKeys(tc.key)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := cfg.CheckValue(keys[0], tc.value); err == nil {
			t.Errorf("CheckValue(%q, %q) succeeded", tc.key, tc.value)
		}
	}
}

func TestParseAssignment(t *testing.T) {
	t.Parallel()
	got, err := ParseAssignment("a b", "1 2")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Value != "1" || got[1].Value != "2" {
		t.Fatalf("unexpected assignments: %+v", got)
	}

	if _, err := ParseAssignment("a b", "1"); err == nil {
		t.Error("expected ExtraKeys error")
	}
	if _, err := ParseAssignment("a", "1 2"); err == nil {
		t.Error("expected ExtraValues error")
	}
	if _, err := ParseAssignment("", "1"); err == nil {
		t.Error("expected NoKey error")
	}
	if _, err := ParseAssignment("a a", "1 2"); err == nil {
		t.Error("expected RepeatedKey error")
	}
}
