// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mvdan.cc/ion/syntax"
)

func runStringMethod(t *testing.T, m syntax.StringMethod) string {
	t.Helper()
	var sb strings.Builder
	if err := testConfig().stringMethod(m, &sb); err != nil {
		t.Fatalf("%s: %v", m.Method, err)
	}
	return sb.String()
}

func methodErr(t *testing.T, m syntax.StringMethod) error {
	t.Helper()
	var sb strings.Builder
	err := testConfig().stringMethod(m, &sb)
	if err == nil {
		t.Fatalf("%s(%s %s): expected error, got %q", m.Method, m.Variable, m.Pattern, sb.String())
	}
	return err
}

var stringMethodTests = []struct {
	method   string
	variable string
	pattern  string
	want     string
}{
	{"basename", `"/home/redox/file.txt"`, "", "file.txt"},
	{"extension", `"/home/redox/file.txt"`, "", "txt"},
	{"filename", `"/home/redox/file.txt"`, "", "file"},
	{"parent", `"/home/redox/file.txt"`, "", "/home/redox"},
	{"to_lowercase", `"Ford Prefect"`, "", "ford prefect"},
	{"to_uppercase", `"Ford Prefect"`, "", "FORD PREFECT"},
	{"trim", `"  Foo Bar "`, "", "Foo Bar"},
	{"trim", "$BAZ", "", "BARBAZ"},
	{"trim_end", `"  Foo Bar "`, "", "  Foo Bar"},
	{"trim_end", "$BAZ", "", "  BARBAZ"},
	{"trim_start", `"  Foo Bar "`, "", "Foo Bar "},
	{"trim_start", "$BAZ", "", "BARBAZ   "},
	{"repeat", "$FOO", "2", "FOOBARFOOBAR"},
	{"replace", "$FOO", `["FOO" "BAR"]`, "BARBAR"},
	{"replacen", `"FOO$FOO"`, `["FOO" "BAR" 1]`, "BARFOOBAR"},
	{"regex_replace", "$FOO", `["^F" "f"]`, "fOOBAR"},
	{"regex_replace", "$FOO", `["^f" "F"]`, "FOOBAR"},
	{"join", `["FOO" "BAR"]`, `" "`, "FOO BAR"},
	{"len", `"foobar"`, "", "6"},
	{"len", "$pkmn1", "", "7"},
	{"len_bytes", "$FOO", "", "6"},
	{"reverse", "$FOO", "", "RABOOF"},
	{"find", "$FOO", `"BAR"`, "3"},
	{"find", "$FOO", `"nope"`, "-1"},
	{"or", "$FOO", `"fallback"`, "FOOBAR"},
	{"or", "$EMPTY", `"fallback"`, "fallback"},
	{"or", "$EMPTY", `'', "two"`, "two"},
}

func TestStringMethods(t *testing.T) {
	t.Parallel()
	for _, tc := range stringMethodTests {
		m := syntax.StringMethod{
			Method:     tc.method,
			Variable:   tc.variable,
			Pattern:    tc.pattern,
			HasPattern: tc.pattern != "",
		}
		if got := runStringMethod(t, m); got != tc.want {
			t.Errorf("%s(%s %s) = %q, want %q",
				tc.method, tc.variable, tc.pattern, got, tc.want)
		}
	}
}

func TestStringMethodErrors(t *testing.T) {
	t.Parallel()
	methodErr(t, syntax.StringMethod{Method: "repeat", Variable: "$FOO", Pattern: "-2", HasPattern: true})
	methodErr(t, syntax.StringMethod{Method: "replace", Variable: "$FOO", Pattern: "[]", HasPattern: true})
	methodErr(t, syntax.StringMethod{Method: "replacen", Variable: "$FOO", Pattern: "[]", HasPattern: true})
	err := methodErr(t, syntax.StringMethod{
		Method: "regex_replace", Variable: "$FOO", Pattern: `["(" "x"]`, HasPattern: true,
	})
	if _, ok := err.(*InvalidRegexError); !ok {
		t.Errorf("got %T, want InvalidRegexError", err)
	}
	err = methodErr(t, syntax.StringMethod{Method: "bogus", Variable: "$FOO"})
	if _, ok := err.(*InvalidScalarMethodError); !ok {
		t.Errorf("got %T, want InvalidScalarMethodError", err)
	}
}

func TestEscapeUnescape(t *testing.T) {
	t.Parallel()
	line := " Mary   had\ta little  \n\t lamb\tツ"
	if got := escapeText(line); got != " Mary   had\\ta little  \\n\\t lamb\\tツ" {
		t.Errorf("escape = %q", got)
	}
	if got := unescapeText(line); got != line {
		t.Errorf("unescape = %q", got)
	}
	if got := unescapeText(`a\nb\tc`); got != "a\nb\tc" {
		t.Errorf("unescape = %q", got)
	}
	if got := unescapeText(`ab\ccd`); got != "ab" {
		t.Errorf(`unescape \c = %q`, got)
	}
	if got := escapeText("a;b_c"); got != "a;b_c" {
		t.Errorf("escape kept = %q", got)
	}
}

func runArrayMethod(t *testing.T, m syntax.ArrayMethod) []string {
	t.Helper()
	got, err := testConfig().arrayMethod(m)
	if err != nil {
		t.Fatalf("%s: %v", m.Method, err)
	}
	return got
}

func TestArrayMethods(t *testing.T) {
	t.Parallel()
	cases := []struct {
		m    syntax.ArrayMethod
		want []string
	}{
		{syntax.ArrayMethod{Method: "split", Variable: "$D"}, []string{"1", "2", "3"}},
		{syntax.ArrayMethod{Method: "split", Variable: `"a,b,c"`, Pattern: "','", HasPattern: true},
			[]string{"a", "b", "c"}},
		{syntax.ArrayMethod{Method: "split_at", Variable: `"abcd"`, Pattern: "2", HasPattern: true},
			[]string{"ab", "cd"}},
		{syntax.ArrayMethod{Method: "chars", Variable: `"abc"`}, []string{"a", "b", "c"}},
		{syntax.ArrayMethod{Method: "bytes", Variable: `"ab"`}, []string{"97", "98"}},
		{syntax.ArrayMethod{Method: "graphemes", Variable: "$pkmn1", Sel: "3", HasSel: true},
			[]string{"é"}},
		{syntax.ArrayMethod{Method: "lines", Variable: "$MULTILINE"}, []string{"FOO", "BAR"}},
		{syntax.ArrayMethod{Method: "reverse", Variable: "@ARRAY"}, []string{"c", "b", "a"}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, runArrayMethod(t, tc.m)); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", tc.m.Method, diff)
		}
	}
	if _, err := testConfig().arrayMethod(syntax.ArrayMethod{Method: "bogus", Variable: "$FOO"}); err == nil {
		t.Error("expected InvalidArrayMethod error")
	}
}
