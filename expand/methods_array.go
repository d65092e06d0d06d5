// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"errors"
	"strconv"
	"strings"

	"mvdan.cc/ion/syntax"
)

// getArray resolves an array method's variable argument: a plain name is
// looked up as an array, an expression is expanded into its words.
func (cfg *Config) getArray(variable string) ([]string, error) {
	elems, err := cfg.Lookups.Array(variable, All)
	if errors.Is(err, ErrVarNotFound) && isExpression(variable) {
		return cfg.ExpandString(variable)
	}
	return elems, err
}

// arrayMethod evaluates an '@m(var pat)' call into a list of words.
func (cfg *Config) arrayMethod(m syntax.ArrayMethod) ([]string, error) {
	sel, err := cfg.parseSel(m.Sel, m.HasSel)
	if err != nil {
		return nil, err
	}
	var out []string
	switch m.Method {
	case "split":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return nil, err
		}
		if !m.HasPattern {
			out = strings.Fields(value)
		} else {
			pat, err := cfg.methodArgsJoined(m.Pattern, true)
			if err != nil {
				return nil, err
			}
			out = strings.Split(value, pat)
		}
	case "split_at":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return nil, err
		}
		arg, err := cfg.methodArgsJoined(m.Pattern, m.HasPattern)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 || n > len(value) {
			return nil, &WrongArgumentError{"split_at", "requires a valid index"}
		}
		out = []string{value[:n], value[n:]}
	case "chars":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return nil, err
		}
		for _, r := range value {
			out = append(out, string(r))
		}
	case "bytes":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return nil, err
		}
		for i := 0; i < len(value); i++ {
			out = append(out, strconv.Itoa(int(value[i])))
		}
	case "graphemes":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return nil, err
		}
		out = graphemes(value)
	case "lines":
		value, err := cfg.getVar(m.Variable)
		if err != nil {
			return nil, err
		}
		out = strings.Split(strings.TrimSuffix(value, "\n"), "\n")
	case "keys", "map_keys":
		return cfg.Lookups.MapKeys(m.Variable, sel)
	case "values", "map_values":
		return cfg.Lookups.MapValues(m.Variable, sel)
	case "reverse":
		elems, err := cfg.getArray(m.Variable)
		if err != nil {
			return nil, err
		}
		out = make([]string, len(elems))
		for i, e := range elems {
			out[len(elems)-1-i] = e
		}
	default:
		return nil, &InvalidArrayMethodError{Name: m.Method}
	}
	return selectElems(out, sel)
}

// selectElems applies a selection to a list of elements.
func selectElems(elems []string, sel Selection) ([]string, error) {
	switch sel.Kind {
	case SelAll:
		return elems, nil
	case SelIndex:
		if i, ok := sel.Index.resolve(len(elems)); ok {
			return []string{elems[i]}, nil
		}
		return nil, nil
	case SelRange:
		if start, count, ok := sel.Range.Bounds(len(elems)); ok {
			return elems[start : start+count], nil
		}
		return nil, nil
	}
	return nil, nil
}
