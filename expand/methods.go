// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"errors"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"

	"mvdan.cc/ion/syntax"
)

// isExpression reports whether a method's variable argument is itself an
// expression rather than a bare variable name.
func isExpression(s string) bool {
	return strings.HasPrefix(s, "@") || strings.HasPrefix(s, "[") ||
		strings.HasPrefix(s, "$") || strings.HasPrefix(s, "\"") ||
		strings.HasPrefix(s, "'")
}

// methodArgs expands a method's pattern into its argument list: the pattern
// is split into fields, each of which is expanded in turn.
func (cfg *Config) methodArgs(pattern string, hasPattern bool) ([]string, error) {
	if !hasPattern {
		return nil, nil
	}
	fields, err := syntax.Fields(pattern)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range fields {
		expanded, err := cfg.ExpandString(f)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func (cfg *Config) methodArgsJoined(pattern string, hasPattern bool) (string, error) {
	args, err := cfg.methodArgs(pattern, hasPattern)
	if err != nil {
		return "", err
	}
	return strings.Join(args, " "), nil
}

// getVar resolves a method's variable argument: a plain name is looked up,
// while an expression is expanded and joined by spaces.
func (cfg *Config) getVar(variable string) (string, error) {
	value, err := cfg.str(variable)
	if errors.Is(err, ErrVarNotFound) && isExpression(variable) {
		words, err := cfg.ExpandString(variable)
		if err != nil {
			return "", err
		}
		return strings.Join(words, " "), nil
	}
	return value, err
}

func graphemes(s string) []string {
	var out []string
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		out = append(out, cluster)
	}
	return out
}

// unescapeText interprets C-style escapes. '\c' truncates the output.
func unescapeText(input string) string {
	var sb strings.Builder
	sb.Grow(len(input))
	esc := false
	for _, c := range input {
		if !esc {
			if c == '\\' {
				esc = true
			} else {
				sb.WriteRune(c)
			}
			continue
		}
		esc = false
		switch c {
		case '\\', '\'', '"', ' ':
			sb.WriteRune(c)
		case 'a':
			sb.WriteByte(0x07)
		case 'b':
			sb.WriteByte(0x08)
		case 'c':
			return sb.String()
		case 'e':
			sb.WriteByte(0x1b)
		case 'f':
			sb.WriteByte(0x0c)
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte(0x0b)
		default:
			sb.WriteByte('\\')
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// escapeText is the inverse of unescapeText for control bytes, plus the
// punctuation ranges of the ASCII table except ';' and '_'.
func escapeText(input string) string {
	var sb strings.Builder
	sb.Grow(len(input) * 2)
	for _, c := range input {
		b := byte(c)
		if c > 0x7f {
			sb.WriteRune(c)
			continue
		}
		switch b {
		case 0:
			sb.WriteString(`\0`)
		case 7:
			sb.WriteString(`\a`)
		case 8:
			sb.WriteString(`\b`)
		case 9:
			sb.WriteString(`\t`)
		case 10:
			sb.WriteString(`\n`)
		case 11:
			sb.WriteString(`\v`)
		case 12:
			sb.WriteString(`\f`)
		case 13:
			sb.WriteString(`\r`)
		case 27:
			sb.WriteString(`\e`)
		default:
			if b != ';' && b != '_' &&
				(b >= 33 && b < 48 || b >= 58 && b < 65 ||
					b >= 91 && b < 97 || b >= 123 && b < 127) {
				sb.WriteByte('\\')
			}
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// orArgs splits the 'or' method's pattern at top-level commas only, then
// expands each piece.
func (cfg *Config) orArgs(pattern string, hasPattern bool) ([]string, error) {
	if !hasPattern {
		return nil, nil
	}
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(pattern); i++ {
		switch b := pattern[i]; {
		case quote != 0:
			if b == quote {
				quote = 0
			}
		case b == '\'' || b == '"':
			quote = b
		case b == '[' || b == '(' || b == '{':
			depth++
		case b == ']' || b == ')' || b == '}':
			depth--
		case b == ',' && depth == 0:
			parts = append(parts, pattern[start:i])
			start = i + 1
		}
	}
	parts = append(parts, pattern[start:])
	var out []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		expanded, err := cfg.ExpandString(part)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

// stringMethod evaluates a '$m(var pat)' call, appending its scalar result
// to out.
func (cfg *Config) stringMethod(m syntax.StringMethod, out *strings.Builder) error {
	pathEval := func(component func(string) string) error {
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		if c := component(value); c != "" {
			out.WriteString(c)
		} else {
			out.WriteString(value)
		}
		return nil
	}

	switch m.Method {
	case "basename":
		return pathEval(filepath.Base)
	case "extension":
		return pathEval(func(p string) string {
			return strings.TrimPrefix(filepath.Ext(p), ".")
		})
	case "filename":
		return pathEval(func(p string) string {
			base := filepath.Base(p)
			return strings.TrimSuffix(base, filepath.Ext(base))
		})
	case "parent":
		return pathEval(func(p string) string {
			if !strings.Contains(p, "/") {
				return ""
			}
			return filepath.Dir(p)
		})
	case "to_lowercase":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(strings.ToLower(value))
	case "to_uppercase":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(strings.ToUpper(value))
	case "trim":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(strings.TrimSpace(value))
	case "trim_start":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(strings.TrimLeft(value, " \t\n\r"))
	case "trim_end":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(strings.TrimRight(value, " \t\n\r"))
	case "repeat":
		arg, err := cfg.methodArgsJoined(m.Pattern, m.HasPattern)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return &WrongArgumentError{"repeat", "argument is not a valid positive integer"}
		}
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(strings.Repeat(value, n))
	case "replace":
		args, err := cfg.methodArgs(m.Pattern, m.HasPattern)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return &WrongArgumentError{"replace", "two arguments are required"}
		}
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(strings.ReplaceAll(value, args[0], args[1]))
	case "replacen":
		args, err := cfg.methodArgs(m.Pattern, m.HasPattern)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return &WrongArgumentError{"replacen", "three arguments required"}
		}
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return &WrongArgumentError{"replacen", "third argument isn't a valid integer"}
		}
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(strings.Replace(value, args[0], args[1], n))
	case "regex_replace":
		args, err := cfg.methodArgs(m.Pattern, m.HasPattern)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return &WrongArgumentError{"regex_replace", "two arguments required"}
		}
		re, err := regexp.Compile(args[0])
		if err != nil {
			return &InvalidRegexError{Pattern: args[0], Err: err}
		}
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(re.ReplaceAllString(value, args[1]))
	case "join":
		sep, err := cfg.methodArgsJoined(m.Pattern, m.HasPattern)
		if err != nil {
			return err
		}
		elems, err := cfg.Lookups.Array(m.Variable, All)
		if errors.Is(err, ErrVarNotFound) && isExpression(m.Variable) {
			elems, err = cfg.ExpandString(m.Variable)
		}
		if err != nil {
			return err
		}
		out.WriteString(strings.Join(elems, sep))
	case "len":
		if strings.HasPrefix(m.Variable, "@") || isArrayLiteral(m.Variable) {
			elems, err := cfg.ExpandString(m.Variable)
			if err != nil {
				return err
			}
			out.WriteString(strconv.Itoa(len(elems)))
		} else {
			value, err := cfg.getVar(m.Variable)
			if err != nil {
				return err
			}
			out.WriteString(strconv.Itoa(uniseg.GraphemeClusterCount(value)))
		}
	case "len_bytes":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(strconv.Itoa(len(value)))
	case "reverse":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		gs := graphemes(value)
		for i := len(gs) - 1; i >= 0; i-- {
			out.WriteString(gs[i])
		}
	case "find":
		pat, err := cfg.methodArgsJoined(m.Pattern, m.HasPattern)
		if err != nil {
			return err
		}
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(strconv.Itoa(strings.Index(value, pat)))
	case "unescape":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(unescapeText(value))
	case "escape":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return err
		}
		out.WriteString(escapeText(value))
	case "or":
		value, err := cfg.getVar(m.Variable)
		if err != nil && !errors.Is(err, ErrVarNotFound) {
			return err
		}
		if value != "" {
			out.WriteString(value)
			return nil
		}
		args, err := cfg.orArgs(m.Pattern, m.HasPattern)
		if err != nil {
			return err
		}
		for _, arg := range args {
			if arg != "" {
				out.WriteString(arg)
				break
			}
		}
	default:
		return &InvalidScalarMethodError{Name: m.Method}
	}
	return nil
}

// isArrayLiteral reports whether the value is a balanced '[...]' literal.
func isArrayLiteral(value string) bool {
	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return false
	}
	depth := 0
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 && i != len(value)-1 {
				return false
			}
		}
	}
	return depth == 0
}

// sliceGraphemes applies a selection to a scalar by grapheme clusters.
func sliceGraphemes(out *strings.Builder, value string, sel Selection) error {
	switch sel.Kind {
	case SelAll:
		out.WriteString(value)
	case SelIndex:
		gs := graphemes(value)
		if i, ok := sel.Index.resolve(len(gs)); ok {
			out.WriteString(gs[i])
		}
	case SelRange:
		gs := graphemes(value)
		if start, count, ok := sel.Range.Bounds(len(gs)); ok {
			for _, g := range gs[start : start+count] {
				out.WriteString(g)
			}
		}
	case SelKey:
		// Keys never apply to scalars; mirror slicing silence.
	}
	return nil
}
