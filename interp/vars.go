// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"os"
	"os/user"
	"strconv"
	"strings"

	"mvdan.cc/ion/expand"
)

func userHome(name string) (string, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return "", err
	}
	return u.HomeDir, nil
}

// scope is one level of the variable stack. Function scopes stop the
// default upward walk, so that functions do not read their caller's locals.
type scope struct {
	vars     map[string]expand.Value
	function bool
}

// Variables is the shell's scoped variable store.
type Variables struct {
	scopes []scope
}

// NewVariables returns a store with a single global scope.
func NewVariables() *Variables {
	return &Variables{scopes: []scope{{vars: make(map[string]expand.Value)}}}
}

// PushScope enters a new scope; function scopes hide the caller's locals.
func (v *Variables) PushScope(function bool) {
	v.scopes = append(v.scopes, scope{vars: make(map[string]expand.Value), function: function})
}

// PopScope leaves the innermost scope. The global scope is never popped.
func (v *Variables) PopScope() {
	if len(v.scopes) > 1 {
		v.scopes = v.scopes[:len(v.scopes)-1]
	}
}

// Get resolves a name against the scope stack. The prefixes 'super::' and
// 'global::' adjust the walk: each 'super::' skips past one function
// boundary, and 'global::' jumps straight to the global scope.
func (v *Variables) Get(name string) (expand.Value, bool) {
	if rest, ok := strings.CutPrefix(name, "global::"); ok {
		val, ok := v.scopes[0].vars[rest]
		return val, ok
	}
	skip := 0
	for {
		rest, ok := strings.CutPrefix(name, "super::")
		if !ok {
			break
		}
		name = rest
		skip++
	}
	crossed := 0
	for i := len(v.scopes) - 1; i >= 0; i-- {
		sc := v.scopes[i]
		if crossed >= skip {
			if val, ok := sc.vars[name]; ok {
				return val, true
			}
		}
		if sc.function {
			crossed++
			if skip == 0 && crossed > 0 && i > 0 {
				// Without an explicit prefix, a function sees
				// only its own scope and the globals.
				if val, ok := v.scopes[0].vars[name]; ok {
					return val, true
				}
				return nil, false
			}
		}
	}
	return nil, false
}

// Set assigns in the innermost scope holding the name, or creates the
// variable in the current scope.
func (v *Variables) Set(name string, value expand.Value) {
	if rest, ok := strings.CutPrefix(name, "global::"); ok {
		v.scopes[0].vars[rest] = value
		return
	}
	name = strings.TrimPrefix(name, "super::")
	for i := len(v.scopes) - 1; i >= 0; i-- {
		if _, ok := v.scopes[i].vars[name]; ok {
			v.scopes[i].vars[name] = value
			return
		}
		if v.scopes[i].function {
			break
		}
	}
	v.scopes[len(v.scopes)-1].vars[name] = value
}

// Unset drops a variable, reporting whether it existed.
func (v *Variables) Unset(name string) bool {
	for i := len(v.scopes) - 1; i >= 0; i-- {
		if _, ok := v.scopes[i].vars[name]; ok {
			delete(v.scopes[i].vars, name)
			return true
		}
	}
	return false
}

// valueString flattens a value the way scalar expansion sees it.
func valueString(val expand.Value) string {
	switch val := val.(type) {
	case expand.Str:
		return string(val)
	case expand.Alias:
		return string(val)
	case expand.Array:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = valueString(e)
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// lookups binds a Runner to the expander callbacks.
type lookups struct {
	r *Runner
}

func (l lookups) String(name string) (string, error) {
	if name == "?" {
		return strconv.Itoa(l.r.lastStatus), nil
	}
	if val, ok := l.r.Vars.Get(name); ok {
		return valueString(val), nil
	}
	// Plain names fall back to the process environment, so that
	// variables like HOME and PWD resolve without shadowing.
	if !strings.Contains(name, "::") {
		if v, ok := os.LookupEnv(name); ok {
			return v, nil
		}
	}
	return "", expand.ErrVarNotFound
}

func (l lookups) Array(name string, sel expand.Selection) ([]string, error) {
	val, ok := l.r.Vars.Get(name)
	if !ok {
		return nil, expand.ErrVarNotFound
	}
	switch val := val.(type) {
	case expand.Array:
		elems := make([]string, len(val))
		for i, e := range val {
			elems[i] = valueString(e)
		}
		if sel.Kind == expand.SelKey {
			return nil, &expand.KeyOnArrayError{Name: name}
		}
		return selectStrings(elems, sel), nil
	case expand.HashMap:
		if sel.Kind == expand.SelKey {
			if e, ok := val[sel.Key]; ok {
				return []string{valueString(e)}, nil
			}
			return nil, nil
		}
		var elems []string
		for k, e := range val {
			elems = append(elems, k+" "+valueString(e))
		}
		return selectStrings(elems, sel), nil
	case expand.BTreeMap:
		if sel.Kind == expand.SelKey {
			if e, ok := val.Values[sel.Key]; ok {
				return []string{valueString(e)}, nil
			}
			return nil, nil
		}
		var elems []string
		for _, k := range val.Keys {
			elems = append(elems, k+" "+valueString(val.Values[k]))
		}
		return selectStrings(elems, sel), nil
	case expand.Str:
		return nil, &expand.ScalarAsArrayError{Name: name}
	}
	return nil, expand.ErrVarNotFound
}

func selectStrings(elems []string, sel expand.Selection) []string {
	switch sel.Kind {
	case expand.SelAll:
		return elems
	case expand.SelIndex:
		if i, ok := resolveIndex(sel.Index, len(elems)); ok {
			return []string{elems[i]}
		}
		return nil
	case expand.SelRange:
		if start, count, ok := sel.Range.Bounds(len(elems)); ok {
			return elems[start : start+count]
		}
	}
	return nil
}

func resolveIndex(idx expand.Index, length int) (int, bool) {
	n := idx.N
	if idx.Back {
		n = length - 1 - idx.N
	}
	return n, n >= 0 && n < length
}

func (l lookups) MapKeys(name string, sel expand.Selection) ([]string, error) {
	val, ok := l.r.Vars.Get(name)
	if !ok {
		return nil, expand.ErrVarNotFound
	}
	switch val := val.(type) {
	case expand.HashMap:
		var keys []string
		for k := range val {
			keys = append(keys, k)
		}
		return selectStrings(keys, sel), nil
	case expand.BTreeMap:
		return selectStrings(val.Keys, sel), nil
	}
	return nil, &expand.NotAMapError{Name: name}
}

func (l lookups) MapValues(name string, sel expand.Selection) ([]string, error) {
	val, ok := l.r.Vars.Get(name)
	if !ok {
		return nil, expand.ErrVarNotFound
	}
	switch val := val.(type) {
	case expand.HashMap:
		var vals []string
		for _, e := range val {
			vals = append(vals, valueString(e))
		}
		return selectStrings(vals, sel), nil
	case expand.BTreeMap:
		vals := make([]string, len(val.Keys))
		for i, k := range val.Keys {
			vals[i] = valueString(val.Values[k])
		}
		return selectStrings(vals, sel), nil
	}
	return nil, &expand.NotAMapError{Name: name}
}

func (l lookups) Command(cmd string) (string, error) {
	return l.r.captureCommand(cmd)
}

// Tilde expands the tilde forms against HOME and the directory stack:
// '~' is the home directory, '~+' is PWD, '~-' is OLDPWD,
// '~n' indexes the directory stack, and '~user' is that user's home.
func (l lookups) Tilde(input string) (string, error) {
	if !strings.HasPrefix(input, "~") {
		return input, nil
	}
	tilde := input[1:]
	rest := ""
	if i := strings.IndexByte(tilde, '/'); i >= 0 {
		rest = tilde[i:]
		tilde = tilde[:i]
	}
	switch tilde {
	case "":
		home, err := l.r.home()
		if err != nil {
			return "", err
		}
		return home + rest, nil
	case "+":
		return os.Getenv("PWD") + rest, nil
	case "-":
		return os.Getenv("OLDPWD") + rest, nil
	}
	if n, err := strconv.Atoi(tilde); err == nil {
		stack := l.r.DirStack
		if n < 0 || n >= len(stack) {
			return "", &expand.OutOfStackError{Index: n}
		}
		return stack[n] + rest, nil
	}
	if home, err := userHome(tilde); err == nil {
		return home + rest, nil
	}
	return input, nil
}

func (r *Runner) home() (string, error) {
	if home, ok := os.LookupEnv("HOME"); ok {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", expand.ErrHomeNotFound
	}
	return home, nil
}
