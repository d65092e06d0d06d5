// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package expand turns word tokens into final argument lists.
//
// The expander is driven by callbacks supplied by the embedding shell: it
// does not own variables, subshells, or the tilde directory stack. Given
// those, expansion is deterministic for a fixed filesystem snapshot.
package expand

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mvdan.cc/ion/pattern"
	"mvdan.cc/ion/syntax"
)

// Lookups supplies the shell-side callbacks consumed by the expander.
type Lookups interface {
	// String resolves a scalar variable, returning ErrVarNotFound when
	// it is unset.
	String(name string) (string, error)
	// Array resolves an array variable with a selection applied.
	Array(name string, sel Selection) ([]string, error)
	// Command captures the stdout of a subshell command.
	Command(cmd string) (string, error)
	// Tilde expands the tilde forms '~', '~+', '~-', '~n', and '~user'.
	Tilde(input string) (string, error)
	// MapKeys and MapValues iterate a map variable.
	MapKeys(name string, sel Selection) ([]string, error)
	MapValues(name string, sel Selection) ([]string, error)
}

// Config drives expansion of argument strings against a set of lookups.
type Config struct {
	Lookups Lookups

	// NoGlob disables filename globbing.
	NoGlob bool

	// Stderr receives 'ion: ...' diagnostics for non-fatal expansion
	// problems, such as a failing command substitution. Defaults to
	// [os.Stderr].
	Stderr io.Writer
}

func (cfg *Config) stderr() io.Writer {
	if cfg.Stderr != nil {
		return cfg.Stderr
	}
	return os.Stderr
}

// str resolves a scalar variable, handling the namespace prefixes that do
// not require shell state: colors, hex bytes, and the environment.
// Scope-walk prefixes pass through to the shell's lookup.
func (cfg *Config) str(name string) (string, error) {
	ns, rest, ok := strings.Cut(name, "::")
	if !ok {
		return cfg.Lookups.String(name)
	}
	switch ns {
	case "c", "color":
		return ExpandColor(rest)
	case "x", "hex":
		b, err := strconv.ParseUint(rest, 16, 8)
		if err != nil {
			return "", &InvalidHexError{Text: rest, Err: err}
		}
		return string([]byte{byte(b)}), nil
	case "env":
		value, ok := os.LookupEnv(rest)
		if !ok {
			return "", &UnknownEnvError{Name: rest}
		}
		return value, nil
	case "super", "global":
		return cfg.Lookups.String(name)
	}
	return "", &UnsupportedNamespaceError{Name: ns}
}

func (cfg *Config) parseSel(sel string, has bool) (Selection, error) {
	if !has {
		return All, nil
	}
	return ParseSelection(sel)
}

// ExpandString performs all shell expansions on one argument string,
// returning the final words it contributes to the argument list.
func (cfg *Config) ExpandString(input string) ([]string, error) {
	return cfg.expandString(input, !cfg.NoGlob)
}

// expandStringNoGlob is used for brace elements, so that globbing runs
// once over the assembled words.
func (cfg *Config) expandStringNoGlob(input string) ([]string, error) {
	return cfg.expandString(input, false)
}

func (cfg *Config) expandString(input string, doGlob bool) ([]string, error) {
	w := syntax.NewWordIterator(input, doGlob)
	var tokens []syntax.WordToken
	containsBrace := false
	for {
		tok, err := w.Next()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			break
		}
		switch tok := tok.(type) {
		case syntax.Brace:
			containsBrace = true
			tokens = append(tokens, tok)
		case syntax.ArrayVariable:
			// A space-separated multi-key selection explodes into
			// one token per key.
			exploded, err := explodeKeys(tok)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, exploded...)
		default:
			tokens = append(tokens, tok)
		}
	}
	if input == "" {
		tokens = append(tokens, syntax.Normal{Text: "", Glob: true})
	}
	return cfg.expandTokens(tokens, containsBrace)
}

func explodeKeys(tok syntax.ArrayVariable) ([]syntax.WordToken, error) {
	if !tok.HasSel {
		return []syntax.WordToken{tok}, nil
	}
	sel, err := ParseSelection(tok.Sel)
	if err != nil || sel.Kind != SelKey || !strings.Contains(sel.Key, " ") {
		return []syntax.WordToken{tok}, nil
	}
	var out []syntax.WordToken
	for i, key := range strings.Fields(sel.Key) {
		if _, err := ParseSelection(key); err != nil {
			return nil, &IndexParsingError{Text: key}
		}
		if i > 0 {
			out = append(out, syntax.Whitespace{Text: " "})
		}
		out = append(out, syntax.ArrayVariable{
			Name: tok.Name, Quoted: tok.Quoted, Sel: key, HasSel: true,
		})
	}
	return out, nil
}

func (cfg *Config) expandTokens(tokens []syntax.WordToken, containsBrace bool) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	if containsBrace {
		return cfg.expandBraceTokens(tokens)
	}
	if len(tokens) == 1 {
		return cfg.expandSingleArrayToken(tokens[0])
	}

	var output string
	var words []string
	for _, tok := range tokens {
		if err := cfg.expandTokenInto(&output, &words, tok); err != nil {
			return nil, err
		}
	}
	if output != "" {
		words = append([]string{output}, words...)
	}
	return words, nil
}

// expandTokenInto appends one token's expansion to the growing output
// word. Globbed Normal tokens push their matches to words instead.
func (cfg *Config) expandTokenInto(output *string, words *[]string, tok syntax.WordToken) error {
	switch tok := tok.(type) {
	case syntax.ArrayLit:
		sel, err := cfg.parseSel(tok.Sel, tok.HasSel)
		if err != nil {
			return err
		}
		elems, err := cfg.arrayExpand(tok.Elems, sel)
		if err != nil {
			return err
		}
		*output += strings.Join(elems, " ")
	case syntax.ArrayVariable:
		sel, err := cfg.parseSel(tok.Sel, tok.HasSel)
		if err != nil {
			return err
		}
		elems, err := cfg.Lookups.Array(tok.Name, sel)
		if err != nil {
			return err
		}
		*output += strings.Join(elems, " ")
	case syntax.ArrayProcess:
		sel, err := cfg.parseSel(tok.Sel, tok.HasSel)
		if err != nil {
			return err
		}
		elems := cfg.arrayProcess(tok.Command, sel)
		*output += strings.Join(elems, " ")
	case syntax.ArrayMethod:
		elems, err := cfg.arrayMethod(tok)
		if err != nil {
			return err
		}
		*output += strings.Join(elems, " ")
	case syntax.StringMethod:
		var sb strings.Builder
		if err := cfg.stringMethod(tok, &sb); err != nil {
			return err
		}
		sel, err := cfg.parseSel(tok.Sel, tok.HasSel)
		if err != nil {
			return err
		}
		var sliced strings.Builder
		if err := sliceGraphemes(&sliced, sb.String(), sel); err != nil {
			return err
		}
		*output += sliced.String()
	case syntax.Whitespace:
		*output += tok.Text
	case syntax.Process:
		sel, err := cfg.parseSel(tok.Sel, tok.HasSel)
		if err != nil {
			return err
		}
		var sb strings.Builder
		cfg.expandProcess(&sb, tok.Command, sel)
		*output += sb.String()
	case syntax.Variable:
		sel, err := cfg.parseSel(tok.Sel, tok.HasSel)
		if err != nil {
			return err
		}
		value, err := cfg.str(tok.Name)
		if err != nil {
			return err
		}
		var sb strings.Builder
		if err := sliceGraphemes(&sb, value, sel); err != nil {
			return err
		}
		*output += sb.String()
	case syntax.Arithmetic:
		var sb strings.Builder
		cfg.expandArithmetic(&sb, tok.Expr)
		*output += sb.String()
	case syntax.Normal:
		cfg.expandNormal(output, words, tok.Text, tok.Glob, tok.Tilde)
	default:
		return fmt.Errorf("unhandled word token %T", tok)
	}
	return nil
}

// expandNormal joins the token's text with the pending word chunk, applies
// tilde expansion, and either globs the result into words or appends it to
// the output.
func (cfg *Config) expandNormal(output *string, words *[]string, text string, doGlob, tilde bool) {
	var concat string
	if i := strings.LastIndexByte(*output, ' '); i >= 0 {
		if i != len(*output)-1 {
			concat = (*output)[i+1:] + text
			*output = (*output)[:i+1]
		} else {
			concat = text
		}
	} else if *output == "" {
		concat = text
	} else {
		concat = *output + text
		*output = ""
	}
	if tilde {
		expanded, err := cfg.Lookups.Tilde(concat)
		if err != nil {
			fmt.Fprintf(cfg.stderr(), "ion: %v\n", err)
			return
		}
		concat = expanded
	}
	if doGlob {
		if matches := pattern.Glob(concat); len(matches) > 0 {
			*words = append(*words, matches...)
		} else {
			*words = append(*words, concat)
		}
	} else {
		*output += concat
	}
}

// expandProcess captures a command substitution, trims trailing newlines,
// and applies the selection by graphemes. A failing substitution reports a
// diagnostic and expands to nothing.
func (cfg *Config) expandProcess(out *strings.Builder, command string, sel Selection) {
	result, err := cfg.Lookups.Command(command)
	if err != nil {
		fmt.Fprintf(cfg.stderr(), "ion: %v\n", &SubprocessError{Err: err})
		return
	}
	if result == "" {
		return
	}
	sliceGraphemes(out, strings.TrimRight(result, "\n"), sel)
}

// arrayProcess captures a command substitution and word-splits it.
func (cfg *Config) arrayProcess(command string, sel Selection) []string {
	var sb strings.Builder
	cfg.expandProcess(&sb, command, All)
	fields := strings.Fields(sb.String())
	elems, _ := selectElems(fields, sel)
	return elems
}

// arrayExpand expands the elements of an array literal with a selection.
// Indexing walks the elements progressively, since each element may itself
// expand to several words.
func (cfg *Config) arrayExpand(elems []string, sel Selection) ([]string, error) {
	switch sel.Kind {
	case SelAll:
		var out []string
		for _, e := range elems {
			expanded, err := cfg.ExpandString(e)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		}
		return out, nil
	case SelIndex:
		out, err := cfg.arrayNth(elems, sel.Index)
		if err == ErrOutOfBound {
			return nil, nil
		}
		return out, err
	case SelRange:
		var out []string
		for _, e := range elems {
			expanded, err := cfg.ExpandString(e)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		}
		if start, count, ok := sel.Range.Bounds(len(out)); ok {
			return out[start : start+count], nil
		}
		return nil, nil
	}
	return nil, nil
}

func (cfg *Config) arrayNth(elems []string, idx Index) ([]string, error) {
	if !idx.Back {
		i := idx.N
		for _, e := range elems {
			expanded, err := cfg.ExpandString(e)
			if err != nil {
				return nil, err
			}
			if len(expanded) > i {
				return []string{expanded[i]}, nil
			}
			i -= len(expanded)
		}
		return nil, ErrOutOfBound
	}
	i := idx.N + 1
	for j := len(elems) - 1; j >= 0; j-- {
		expanded, err := cfg.ExpandString(elems[j])
		if err != nil {
			return nil, err
		}
		if len(expanded) >= i {
			return []string{expanded[len(expanded)-i]}, nil
		}
		i -= len(expanded)
	}
	return nil, ErrOutOfBound
}

// expandSingleArrayToken expands a lone token, where array-like tokens may
// yield several words.
func (cfg *Config) expandSingleArrayToken(tok syntax.WordToken) ([]string, error) {
	switch tok := tok.(type) {
	case syntax.ArrayLit:
		sel, err := cfg.parseSel(tok.Sel, tok.HasSel)
		if err != nil {
			return nil, err
		}
		return cfg.arrayExpand(tok.Elems, sel)
	case syntax.ArrayVariable:
		sel, err := cfg.parseSel(tok.Sel, tok.HasSel)
		if err != nil {
			return nil, err
		}
		elems, err := cfg.Lookups.Array(tok.Name, sel)
		if err != nil {
			return nil, err
		}
		if tok.Quoted {
			return []string{strings.Join(elems, " ")}, nil
		}
		return elems, nil
	case syntax.ArrayProcess:
		sel, err := cfg.parseSel(tok.Sel, tok.HasSel)
		if err != nil {
			return nil, err
		}
		if sel.Kind == SelKey {
			return nil, nil
		}
		elems := cfg.arrayProcess(tok.Command, sel)
		if tok.Quoted {
			return []string{strings.Join(elems, " ")}, nil
		}
		return elems, nil
	case syntax.ArrayMethod:
		elems, err := cfg.arrayMethod(tok)
		if err != nil {
			return nil, err
		}
		if tok.Quoted {
			return []string{strings.Join(elems, " ")}, nil
		}
		return elems, nil
	}
	return cfg.expandSingleStringToken(tok)
}

func (cfg *Config) expandSingleStringToken(tok syntax.WordToken) ([]string, error) {
	// A quoted empty string stays an argument.
	if n, ok := tok.(syntax.Normal); ok && n.Text == "" && !n.Glob {
		return []string{""}, nil
	}
	var output string
	var words []string
	if err := cfg.expandTokenInto(&output, &words, tok); err != nil {
		return nil, err
	}
	if output != "" {
		words = append(words, output)
	}
	return words, nil
}

// expandBraceTokens assembles the word with brace groups as split points,
// then emits the cartesian product of the alternatives and globs each
// resulting word.
func (cfg *Config) expandBraceTokens(tokens []syntax.WordToken) ([]string, error) {
	var output string
	var words []string
	var btokens []braceToken
	var lists [][]string
	globProduct := false

	for _, tok := range tokens {
		if br, ok := tok.(syntax.Brace); ok {
			var alts []string
			for _, elem := range br.Elems {
				expanded, err := cfg.expandStringNoGlob(elem)
				if err != nil {
					return nil, err
				}
				for _, word := range expanded {
					if vals, ok := parseBraceRange(word); ok {
						alts = append(alts, vals...)
					} else {
						alts = append(alts, word)
						if pattern.HasMeta(word) {
							globProduct = true
						}
					}
				}
			}
			if len(alts) == 0 {
				output += "{}"
				continue
			}
			if output != "" {
				btokens = append(btokens, braceToken{text: output})
				output = ""
			}
			btokens = append(btokens, braceToken{expander: true})
			lists = append(lists, alts)
			continue
		}
		if n, ok := tok.(syntax.Normal); ok {
			if n.Glob {
				globProduct = true
			}
			// Glob later, over the assembled product.
			cfg.expandNormal(&output, &words, n.Text, false, n.Tilde)
			continue
		}
		if err := cfg.expandTokenInto(&output, &words, tok); err != nil {
			return nil, err
		}
	}

	if len(lists) == 0 {
		words = append(words, output)
	} else {
		if output != "" {
			btokens = append(btokens, braceToken{text: output})
		}
		words = append(words, expandBraceProduct(btokens, lists)...)
	}

	if cfg.NoGlob || !globProduct {
		return words, nil
	}
	var globbed []string
	for _, word := range words {
		if pattern.HasMeta(word) {
			if matches := pattern.Glob(word); len(matches) > 0 {
				globbed = append(globbed, matches...)
				continue
			}
		}
		globbed = append(globbed, word)
	}
	return globbed, nil
}

// ExpandPipeline rewrites each item of a collected pipeline in place:
// arguments become their fully expanded words, and redirection targets and
// here-strings are expanded as single words.
func ExpandPipeline(p *syntax.Pipeline, cfg *Config) error {
	for i := range p.Items {
		item := &p.Items[i]
		var args []string
		for _, arg := range item.Job.Args {
			expanded, err := cfg.ExpandString(arg)
			if err != nil {
				return err
			}
			args = append(args, expanded...)
		}
		item.Job.Args = args
		for j, out := range item.Outputs {
			expanded, err := cfg.ExpandString(out.File)
			if err != nil {
				return err
			}
			item.Outputs[j].File = strings.Join(expanded, " ")
		}
		for j, in := range item.Inputs {
			switch in := in.(type) {
			case syntax.FileInput:
				expanded, err := cfg.ExpandString(in.Path)
				if err != nil {
					return err
				}
				item.Inputs[j] = syntax.FileInput{Path: strings.Join(expanded, " ")}
			case syntax.HereString:
				expanded, err := cfg.ExpandString(in.Text)
				if err != nil {
					return err
				}
				item.Inputs[j] = syntax.HereString{Text: strings.Join(expanded, " ")}
			}
		}
	}
	return nil
}
