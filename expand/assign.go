// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"fmt"
	"strconv"
	"strings"

	"mvdan.cc/ion/syntax"
)

// Primitive is the type tag attached to an assignment key.
type Primitive struct {
	Kind  PrimitiveKind
	Inner *Primitive // element type for arrays and maps
	Index string     // key for indexed assignments
}

type PrimitiveKind uint8

const (
	PrimStr PrimitiveKind = iota
	PrimBool
	PrimInt
	PrimFloat
	PrimArray
	PrimHashMap
	PrimBTreeMap
	PrimIndexed
)

func (p Primitive) String() string {
	switch p.Kind {
	case PrimBool:
		return "bool"
	case PrimInt:
		return "int"
	case PrimFloat:
		return "float"
	case PrimArray:
		return "[" + p.Inner.String() + "]"
	case PrimHashMap:
		return "hmap[" + p.Inner.String() + "]"
	case PrimBTreeMap:
		return "bmap[" + p.Inner.String() + "]"
	case PrimIndexed:
		return "indexed"
	}
	return "str"
}

// Key is the left-hand side of one assignment.
type Key struct {
	Name string
	Kind Primitive
}

// TypeError reports a declared type that does not exist, or a value that
// does not fit its declared type.
type TypeError struct {
	msg string
}

func (e *TypeError) Error() string { return e.msg }

func badType(t string) *TypeError {
	return &TypeError{msg: fmt.Sprintf("type '%s' does not exist", t)}
}

func badValue(expected Primitive) *TypeError {
	return &TypeError{msg: fmt.Sprintf("extracted value does not match expected type '%s'", expected)}
}

// Assignment errors mirroring the arity checks of multi-assignments.

type InvalidValueError struct{ Expected, Found Primitive }

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("expected %s, but received %s", e.Expected, e.Found)
}

type ExtraValuesError struct{ PrevKey, PrevValue string }

func (e *ExtraValuesError) Error() string {
	return fmt.Sprintf("extra values were supplied, and thus ignored. Previous assignment: '%s' = '%s'",
		e.PrevKey, e.PrevValue)
}

type ExtraKeysError struct{ PrevKey, PrevValue string }

func (e *ExtraKeysError) Error() string {
	return fmt.Sprintf("extra keys were supplied, and thus ignored. Previous assignment: '%s' = '%s'",
		e.PrevKey, e.PrevValue)
}

type RepeatedKeyError struct{ Key string }

func (e *RepeatedKeyError) Error() string {
	return fmt.Sprintf("repeated assignment to same key, and thus ignored. Repeated key: '%s'", e.Key)
}

type NoKeyError struct{ Value string }

func (e *NoKeyError) Error() string {
	return fmt.Sprintf("no key to assign value, thus ignored. Value: '%s'", e.Value)
}

// parsePrimitive parses a type annotation such as 'int', '[str]', or
// 'hmap[float]'.
func parsePrimitive(t string) (Primitive, error) {
	switch t {
	case "str":
		return Primitive{Kind: PrimStr}, nil
	case "bool":
		return Primitive{Kind: PrimBool}, nil
	case "int":
		return Primitive{Kind: PrimInt}, nil
	case "float":
		return Primitive{Kind: PrimFloat}, nil
	}
	if inner, ok := strings.CutPrefix(t, "["); ok {
		inner, ok = strings.CutSuffix(inner, "]")
		if !ok {
			return Primitive{}, badType(t)
		}
		elem, err := parsePrimitive(inner)
		if err != nil {
			return Primitive{}, err
		}
		return Primitive{Kind: PrimArray, Inner: &elem}, nil
	}
	for prefix, kind := range map[string]PrimitiveKind{
		"hmap[": PrimHashMap,
		"bmap[": PrimBTreeMap,
	} {
		if inner, ok := strings.CutPrefix(t, prefix); ok {
			inner, ok = strings.CutSuffix(inner, "]")
			if !ok {
				return Primitive{}, badType(t)
			}
			elem, err := parsePrimitive(inner)
			if err != nil {
				return Primitive{}, err
			}
			return Primitive{Kind: kind, Inner: &elem}, nil
		}
	}
	return Primitive{}, badType(t)
}

// ParseKeys parses a space-separated list of assignment keys, each of the
// form 'name' or 'name:type'. A name carrying an '[index]' suffix becomes
// an indexed assignment.
func ParseKeys(lhs string) ([]Key, error) {
	var keys []Key
	for _, field := range strings.Fields(lhs) {
		name, typ, hasType := strings.Cut(field, ":")
		if base, idx, ok := cutIndex(name); ok {
			inner := Primitive{Kind: PrimStr}
			if hasType {
				var err error
				inner, err = parsePrimitive(typ)
				if err != nil {
					return nil, err
				}
			}
			keys = append(keys, Key{Name: base, Kind: Primitive{
				Kind: PrimIndexed, Index: idx, Inner: &inner,
			}})
			continue
		}
		kind := Primitive{Kind: PrimStr}
		if hasType {
			var err error
			kind, err = parsePrimitive(typ)
			if err != nil {
				return nil, err
			}
		}
		keys = append(keys, Key{Name: name, Kind: kind})
	}
	return keys, nil
}

func cutIndex(name string) (string, string, bool) {
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return name, "", false
	}
	return name[:open], name[open+1 : len(name)-1], true
}

// IsArrayValue reports whether a raw value is a '[...]' literal at its top
// level.
func IsArrayValue(value string) bool { return isArrayLiteral(value) }

// isBoolean normalizes boolean spellings; '1' and 'true' are true, '0' and
// 'false' are false.
func isBoolean(value string) (string, bool) {
	switch value {
	case "1", "true":
		return "true", true
	case "0", "false":
		return "false", true
	}
	return value, false
}

// CheckValue validates one raw value against a key's declared type,
// returning the canonical string form. Numeric values are re-printed in
// canonical decimal; arrays are expanded and checked element-wise.
func (cfg *Config) CheckValue(key Key, value string) ([]string, error) {
	kind := key.Kind
	if kind.Kind == PrimIndexed {
		kind = *kind.Inner
	}
	isArr := IsArrayValue(value)
	switch kind.Kind {
	case PrimArray, PrimHashMap, PrimBTreeMap:
		if !isArr {
			return nil, &InvalidValueError{Expected: kind, Found: Primitive{Kind: PrimStr}}
		}
		elems, err := cfg.ExpandString(value)
		if err != nil {
			return nil, err
		}
		if kind.Kind == PrimArray {
			out := make([]string, 0, len(elems))
			for _, e := range elems {
				canon, err := cfg.checkScalar(*kind.Inner, e)
				if err != nil {
					return nil, err
				}
				out = append(out, canon)
			}
			return out, nil
		}
		// Map elements are 'key=value' pairs; the value half is
		// checked against the inner type.
		out := make([]string, 0, len(elems))
		for _, e := range elems {
			k, v, ok := strings.Cut(e, "=")
			if !ok {
				return nil, badValue(kind)
			}
			canon, err := cfg.checkScalar(*kind.Inner, v)
			if err != nil {
				return nil, err
			}
			out = append(out, k+"="+canon)
		}
		return out, nil
	}
	if isArr {
		return nil, &InvalidValueError{
			Expected: kind,
			Found:    Primitive{Kind: PrimArray, Inner: &Primitive{Kind: PrimStr}},
		}
	}
	words, err := cfg.ExpandString(value)
	if err != nil {
		return nil, err
	}
	canon, err := cfg.checkScalar(kind, strings.Join(words, " "))
	if err != nil {
		return nil, err
	}
	return []string{canon}, nil
}

func (cfg *Config) checkScalar(kind Primitive, value string) (string, error) {
	switch kind.Kind {
	case PrimStr:
		return value, nil
	case PrimBool:
		if v, ok := isBoolean(value); ok {
			return v, nil
		}
		return "", badValue(kind)
	case PrimInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return "", badValue(kind)
		}
		return strconv.FormatInt(n, 10), nil
	case PrimFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return "", badValue(kind)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return "", badValue(kind)
}

// Assignment pairs one key with its raw value text.
type Assignment struct {
	Key   Key
	Value string
}

// ParseAssignment splits 'keys = values' into per-key assignments,
// reporting arity mismatches the way repeated shell users expect: the
// first extra key or value aborts the whole statement.
func ParseAssignment(lhs, rhs string) ([]Assignment, error) {
	keys, err := ParseKeys(lhs)
	if err != nil {
		return nil, err
	}
	values, err := syntax.Fields(rhs)
	if err != nil {
		return nil, err
	}
	var out []Assignment
	seen := make(map[string]bool)
	for i, key := range keys {
		if i >= len(values) {
			if len(out) == 0 {
				return nil, &ExtraKeysError{PrevKey: key.Name}
			}
			prev := out[len(out)-1]
			return nil, &ExtraKeysError{PrevKey: prev.Key.Name, PrevValue: prev.Value}
		}
		if seen[key.Name] {
			return nil, &RepeatedKeyError{Key: key.Name}
		}
		seen[key.Name] = true
		out = append(out, Assignment{Key: key, Value: values[i]})
	}
	if len(values) > len(keys) {
		if len(out) == 0 {
			return nil, &NoKeyError{Value: values[0]}
		}
		prev := out[len(out)-1]
		return nil, &ExtraValuesError{PrevKey: prev.Key.Name, PrevValue: prev.Value}
	}
	return out, nil
}
