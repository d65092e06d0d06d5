// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

func isIdentByte(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'A' && b <= 'Z' ||
		b >= 'a' && b <= 'z' || b == '_'
}

// rewriteArithmetic substitutes shell variables into an arithmetic
// expression. Identifier runs are flushed through the string lookup; names
// that do not resolve are left as they were.
func (cfg *Config) rewriteArithmetic(input string) string {
	var sb strings.Builder
	sb.Grow(len(input))
	var name strings.Builder
	flush := func() {
		if name.Len() == 0 {
			return
		}
		n := name.String()
		if value, err := cfg.str(n); err == nil {
			sb.WriteString(value)
		} else {
			sb.WriteString(n)
		}
		name.Reset()
	}
	for i := 0; i < len(input); i++ {
		if b := input[i]; isIdentByte(b) {
			name.WriteByte(b)
		} else {
			flush()
			sb.WriteByte(b)
		}
	}
	flush()
	return sb.String()
}

// formatNumber prints an arithmetic result in canonical decimal form.
func formatNumber(v any) (string, bool) {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

// expandArithmetic evaluates a '$((...))' expression. Variable names are
// rewritten to their values first; the evaluator itself is a black box.
// On error, its message is appended instead of a value.
func (cfg *Config) expandArithmetic(out *strings.Builder, input string) {
	rewritten := cfg.rewriteArithmetic(input)
	result, err := expr.Eval(rewritten, nil)
	if err != nil {
		out.WriteString(err.Error())
		return
	}
	if s, ok := formatNumber(result); ok {
		out.WriteString(s)
	} else if s, ok := result.(string); ok {
		out.WriteString(s)
	}
}
