// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import "sort"

// Value is the sum of shapes a shell variable can take. Numeric values are
// stored as canonical decimal strings and re-parsed on arithmetic use;
// arrays and maps nest.
type Value interface{ value() }

// Str is a scalar string value, including int- and float-typed values.
type Str string

// Array is an ordered list of values.
type Array []Value

// HashMap is an unordered string-keyed map.
type HashMap map[string]Value

// BTreeMap is an ordered string-keyed map; iteration follows key order.
type BTreeMap struct {
	Keys   []string
	Values map[string]Value
}

// Alias names a command replacement.
type Alias string

// Function is an opaque handle to a user function captured by the shell.
type Function struct{ Name string }

func (Str) value()      {}
func (Array) value()    {}
func (HashMap) value()  {}
func (BTreeMap) value() {}
func (Alias) value()    {}
func (Function) value() {}

// Set inserts a key into a BTreeMap, keeping Keys sorted.
func (m *BTreeMap) Set(key string, value Value) {
	if m.Values == nil {
		m.Values = make(map[string]Value)
	}
	if _, ok := m.Values[key]; !ok {
		i := sort.SearchStrings(m.Keys, key)
		m.Keys = append(m.Keys, "")
		copy(m.Keys[i+1:], m.Keys[i:])
		m.Keys[i] = key
	}
	m.Values[key] = value
}
