// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"errors"
	"fmt"
)

// Sentinel expansion errors. Lookups implementations return ErrVarNotFound
// so that the expander can fall back to treating expression-like method
// arguments as nested expansions.
var (
	ErrVarNotFound  = errors.New("variable does not exist")
	ErrOutOfBound   = errors.New("invalid index")
	ErrHomeNotFound = errors.New("could not fetch the user home directory")
	ErrEmptyColor   = errors.New("no properties given to color")
)

// KeyOnArrayError reports a map-key selection applied to an array value.
type KeyOnArrayError struct{ Name string }

func (e *KeyOnArrayError) Error() string {
	return fmt.Sprintf("can't use key '%s' on array", e.Name)
}

// UnsupportedNamespaceError reports an unknown 'ns::' variable prefix.
type UnsupportedNamespaceError struct{ Name string }

func (e *UnsupportedNamespaceError) Error() string {
	return fmt.Sprintf("namespace '%s' is unsupported", e.Name)
}

// InvalidHexError reports a malformed 'x::' hexadecimal byte.
type InvalidHexError struct {
	Text string
	Err  error
}

func (e *InvalidHexError) Error() string {
	return fmt.Sprintf("could not parse '%s' as hexadecimal value: %v", e.Text, e.Err)
}

func (e *InvalidHexError) Unwrap() error { return e.Err }

// ColorError reports an unknown color property.
type ColorError struct{ Text string }

func (e *ColorError) Error() string {
	return fmt.Sprintf("could not parse '%s' as a color", e.Text)
}

// UnknownEnvError reports an 'env::' lookup of an unset variable.
type UnknownEnvError struct{ Name string }

func (e *UnknownEnvError) Error() string {
	return fmt.Sprintf("environment variable '%s' is not set", e.Name)
}

// OutOfStackError reports a '~n' tilde index beyond the directory stack.
type OutOfStackError struct{ Index int }

func (e *OutOfStackError) Error() string {
	return fmt.Sprintf("can't expand tilde: %d is out of bound for directory stack", e.Index)
}

// SubprocessError wraps a failure to run a command substitution.
type SubprocessError struct{ Err error }

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("could not expand subprocess: %v", e.Err)
}

func (e *SubprocessError) Unwrap() error { return e.Err }

// IndexParsingError reports selection text that is not a valid index.
type IndexParsingError struct{ Text string }

func (e *IndexParsingError) Error() string {
	return fmt.Sprintf("can't parse '%s' as a valid index for variable", e.Text)
}

// ScalarAsArrayError reports a scalar expanded in array position.
type ScalarAsArrayError struct{ Name string }

func (e *ScalarAsArrayError) Error() string {
	return fmt.Sprintf("can't expand a scalar value '%s' as an array-like", e.Name)
}

// InvalidIndexError reports a selection that does not apply to a value.
type InvalidIndexError struct {
	Sel  Selection
	Kind string
	Name string
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("index '%v' is not valid for %s variable '%s'", e.Sel, e.Kind, e.Name)
}

// NotAMapError reports a key selection on a non-map value.
type NotAMapError struct{ Name string }

func (e *NotAMapError) Error() string {
	return fmt.Sprintf("variable '%s' is not a map-like value", e.Name)
}

// Method errors.

// InvalidScalarMethodError reports an unknown '$m(...)' method name.
type InvalidScalarMethodError struct{ Name string }

func (e *InvalidScalarMethodError) Error() string {
	return fmt.Sprintf("'%s' is an invalid string method", e.Name)
}

// InvalidArrayMethodError reports an unknown '@m(...)' method name.
type InvalidArrayMethodError struct{ Name string }

func (e *InvalidArrayMethodError) Error() string {
	return fmt.Sprintf("'%s' is an invalid array method", e.Name)
}

// WrongArgumentError reports method arguments that do not fit the method.
type WrongArgumentError struct {
	Method string
	Reason string
}

func (e *WrongArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Reason)
}

// InvalidRegexError wraps a regular expression compile failure.
type InvalidRegexError struct {
	Pattern string
	Err     error
}

func (e *InvalidRegexError) Error() string {
	return fmt.Sprintf("regex_replace: invalid regex '%s': %v", e.Pattern, e.Err)
}

func (e *InvalidRegexError) Unwrap() error { return e.Err }
