// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func tokens(t *testing.T, in string) []WordToken {
	t.Helper()
	w := NewWordIterator(in, true)
	var toks []WordToken
	for {
		tok, err := w.Next()
		if err != nil {
			t.Fatalf("tokenizing %q: %v", in, err)
		}
		if tok == nil {
			return toks
		}
		toks = append(toks, tok)
	}
}

func compareTokens(t *testing.T, in string, want []WordToken) {
	t.Helper()
	if diff := cmp.Diff(want, tokens(t, in)); diff != "" {
		t.Fatalf("tokens(%q) mismatch (-want +got):\n%s", in, diff)
	}
}

func TestStringMethodTokens(t *testing.T) {
	t.Parallel()
	compareTokens(t, "$join(array 'pattern') $join(array 'pattern')", []WordToken{
		StringMethod{Method: "join", Variable: "array", Pattern: "'pattern'", HasPattern: true},
		Whitespace{Text: " "},
		StringMethod{Method: "join", Variable: "array", Pattern: "'pattern'", HasPattern: true},
	})
}

func TestEscapeWithBackslash(t *testing.T) {
	t.Parallel()
	compareTokens(t, `\$FOO\$BAR \$FOO`, []WordToken{
		Normal{Text: "$FOO$BAR"},
		Whitespace{Text: " "},
		Normal{Text: "$FOO"},
	})
	compareTokens(t, `foo\(\) bar\(\)`, []WordToken{
		Normal{Text: "foo()"},
		Whitespace{Text: " "},
		Normal{Text: "bar()"},
	})
}

func TestArrayLiteralTokens(t *testing.T) {
	t.Parallel()
	compareTokens(t, "[ one two [three four]] [[one two] three four][0]", []WordToken{
		ArrayLit{Elems: []string{"one", "two", "[three four]"}},
		Whitespace{Text: " "},
		ArrayLit{Elems: []string{"[one two]", "three", "four"}, Sel: "0", HasSel: true},
	})
}

func TestArrayVariableTokens(t *testing.T) {
	t.Parallel()
	compareTokens(t, "@array @array[0] @{array[1..]}", []WordToken{
		ArrayVariable{Name: "array"},
		Whitespace{Text: " "},
		ArrayVariable{Name: "array", Sel: "0", HasSel: true},
		Whitespace{Text: " "},
		ArrayVariable{Name: "array", Sel: "1..", HasSel: true},
	})
}

func TestArrayProcessTokens(t *testing.T) {
	t.Parallel()
	compareTokens(t, "@(echo one two three) @(echo one two three)[0]", []WordToken{
		ArrayProcess{Command: "echo one two three"},
		Whitespace{Text: " "},
		ArrayProcess{Command: "echo one two three", Sel: "0", HasSel: true},
	})
}

func TestSelectionVariants(t *testing.T) {
	t.Parallel()
	compareTokens(t, "@array[0..3] @array[0...3] @array[abc] @array[..3] @array[3..]", []WordToken{
		ArrayVariable{Name: "array", Sel: "0..3", HasSel: true},
		Whitespace{Text: " "},
		ArrayVariable{Name: "array", Sel: "0...3", HasSel: true},
		Whitespace{Text: " "},
		ArrayVariable{Name: "array", Sel: "abc", HasSel: true},
		Whitespace{Text: " "},
		ArrayVariable{Name: "array", Sel: "..3", HasSel: true},
		Whitespace{Text: " "},
		ArrayVariable{Name: "array", Sel: "3..", HasSel: true},
	})
	compareTokens(t, "@array['key'] @array[key] @array[]", []WordToken{
		ArrayVariable{Name: "array", Sel: "'key'", HasSel: true},
		Whitespace{Text: " "},
		ArrayVariable{Name: "array", Sel: "key", HasSel: true},
		Whitespace{Text: " "},
		ArrayVariable{Name: "array", Sel: "", HasSel: true},
	})
}

func TestNestedProcessTokens(t *testing.T) {
	t.Parallel()
	compareTokens(t, "echo $(echo $(echo one)) $(echo one $(echo two) three)", []WordToken{
		Normal{Text: "echo"},
		Whitespace{Text: " "},
		Process{Command: "echo $(echo one)"},
		Whitespace{Text: " "},
		Process{Command: "echo one $(echo two) three"},
	})
	compareTokens(t, "echo $(let free=[@(free -h)]; echo @free[6]@free[8]/@free[7])", []WordToken{
		Normal{Text: "echo"},
		Whitespace{Text: " "},
		Process{Command: "let free=[@(free -h)]; echo @free[6]@free[8]/@free[7]"},
	})
}

func TestProcessWithQuotes(t *testing.T) {
	t.Parallel()
	compareTokens(t, "echo $(git branch | rg '[*]' | awk '{print $2}')", []WordToken{
		Normal{Text: "echo"},
		Whitespace{Text: " "},
		Process{Command: "git branch | rg '[*]' | awk '{print $2}'"},
	})
	compareTokens(t, `echo $(git branch | rg "[*]" | awk '{print $2}')`, []WordToken{
		Normal{Text: "echo"},
		Whitespace{Text: " "},
		Process{Command: `git branch | rg "[*]" | awk '{print $2}'`},
	})
}

func TestMixedWords(t *testing.T) {
	t.Parallel()
	compareTokens(t, `echo $ABC "${ABC}" one{$ABC,$ABC} ~ $(echo foo) "$(seq 1 100)"`, []WordToken{
		Normal{Text: "echo"},
		Whitespace{Text: " "},
		Variable{Name: "ABC"},
		Whitespace{Text: " "},
		Variable{Name: "ABC"},
		Whitespace{Text: " "},
		Normal{Text: "one"},
		Brace{Elems: []string{"$ABC", "$ABC"}},
		Whitespace{Text: " "},
		Normal{Text: "~", Tilde: true},
		Whitespace{Text: " "},
		Process{Command: "echo foo"},
		Whitespace{Text: " "},
		Process{Command: "seq 1 100"},
	})
}

func TestArithmeticToken(t *testing.T) {
	t.Parallel()
	compareTokens(t, "echo $((foo bar baz bing 3 * 2))", []WordToken{
		Normal{Text: "echo"},
		Whitespace{Text: " "},
		Arithmetic{Expr: "foo bar baz bing 3 * 2"},
	})
}

func TestGlobFlag(t *testing.T) {
	t.Parallel()
	compareTokens(t, "barbaz* bingcrosb*", []WordToken{
		Normal{Text: "barbaz*", Glob: true},
		Whitespace{Text: " "},
		Normal{Text: "bingcrosb*", Glob: true},
	})
	// With globbing disabled, the flag must never be set.
	w := NewWordIterator("a*b", false)
	tok, err := w.Next()
	if err != nil {
		t.Fatal(err)
	}
	if n := tok.(Normal); n.Glob {
		t.Fatalf("got glob flag with doGlob=false: %#v", n)
	}
}

func TestGlobClasses(t *testing.T) {
	t.Parallel()
	// A bare class adjacent to text is a glob; a standalone pair of
	// brackets with spaces is an array literal.
	compareTokens(t, "file[0-9]", []WordToken{
		Normal{Text: "file[0-9]", Glob: true},
	})
	compareTokens(t, "[a b c]", []WordToken{
		ArrayLit{Elems: []string{"a", "b", "c"}},
	})
}

func TestEmptyStrings(t *testing.T) {
	t.Parallel()
	compareTokens(t, `rename '' 0 a ""`, []WordToken{
		Normal{Text: "rename"},
		Whitespace{Text: " "},
		Normal{Text: ""},
		Whitespace{Text: " "},
		Normal{Text: "0"},
		Whitespace{Text: " "},
		Normal{Text: "a"},
		Whitespace{Text: " "},
		Normal{Text: ""},
	})
}

func TestBraceTokens(t *testing.T) {
	t.Parallel()
	compareTokens(t, "echo {c[a,b],d}", []WordToken{
		Normal{Text: "echo"},
		Whitespace{Text: " "},
		Brace{Elems: []string{"c[a,b]", "d"}},
	})
}

func TestTildeRuns(t *testing.T) {
	t.Parallel()
	compareTokens(t, "~/sub/dir", []WordToken{
		Normal{Text: "~/sub/dir", Tilde: true},
	})
	compareTokens(t, "~user/sub", []WordToken{
		Normal{Text: "~user/sub", Tilde: true},
	})
}

func TestQuestionVariable(t *testing.T) {
	t.Parallel()
	compareTokens(t, "$? $HOME", []WordToken{
		Variable{Name: "?"},
		Whitespace{Text: " "},
		Variable{Name: "HOME"},
	})
}

func TestUnterminatedConstructs(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want error
	}{
		{"$((1 + 2", ErrUnterminatedArithmetic},
		{"$(echo hi", ErrUnterminatedProcess},
		{"@{array", ErrUnterminatedArrayVariable},
		{"{a,b", ErrUnterminatedBrace},
		{"$join(array", ErrUnterminatedMethod},
	}
	for _, tc := range cases {
		w := NewWordIterator(tc.in, true)
		var err error
		for {
			var tok WordToken
			tok, err = w.Next()
			if tok == nil || err != nil {
				break
			}
		}
		if err != tc.want {
			t.Errorf("tokens(%q) err = %v, want %v", tc.in, err, tc.want)
		}
	}
}

// Reassembling the tokens of a substitution-free argument must preserve its
// bytes, with quotes removed by the lexer accounted for.
func TestReassembly(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"plain", "one two", "a*b", "x y z"} {
		var sb strings.Builder
		for _, tok := range tokens(t, in) {
			switch tok := tok.(type) {
			case Normal:
				sb.WriteString(tok.Text)
			case Whitespace:
				sb.WriteString(tok.Text)
			default:
				t.Fatalf("unexpected token %#v", tok)
			}
		}
		if sb.String() != in {
			t.Errorf("reassembled %q, want %q", sb.String(), in)
		}
	}
}
