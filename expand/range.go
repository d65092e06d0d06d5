// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"strconv"
	"strings"
)

// Index addresses one element of a sequence, counting from the front or
// from the back. Backward(0) is the last element.
type Index struct {
	Back bool
	N    int
}

func parseIndex(s string) (Index, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return Index{}, false
	}
	if n < 0 {
		return Index{Back: true, N: -n - 1}, true
	}
	return Index{N: n}, true
}

// resolve maps the index onto a sequence of the given length, reporting
// whether it is in bounds.
func (i Index) resolve(length int) (int, bool) {
	n := i.N
	if i.Back {
		n = length - 1 - i.N
	}
	return n, n >= 0 && n < length
}

// Range selects a slice of a sequence. Either endpoint may be omitted;
// Inclusive ranges ('a...b') include the end element.
type Range struct {
	Start, End       Index
	HasStart, HasEnd bool
	Inclusive        bool
}

// Bounds resolves the range against a sequence of the given length,
// returning half-open [start, start+count) bounds. The second return is
// false when the range selects nothing.
func (r Range) Bounds(length int) (int, int, bool) {
	start := 0
	if r.HasStart {
		n := r.Start.N
		if r.Start.Back {
			n = length - r.Start.N - 1
		}
		start = n
	}
	end := length
	if r.HasEnd {
		n := r.End.N
		if r.End.Back {
			n = length - r.End.N - 1
		}
		if r.Inclusive {
			n++
		}
		end = n
	}
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if start >= length || end <= start {
		return 0, 0, false
	}
	return start, end - start, true
}

// SelKind discriminates the closed set of selection shapes.
type SelKind uint8

const (
	SelAll SelKind = iota
	SelIndex
	SelRange
	SelKey
)

// Selection qualifies a variable, literal array, process, or method with an
// index, range, or map key.
type Selection struct {
	Kind  SelKind
	Index Index
	Range Range
	Key   string
}

// All is the selection used when no '[sel]' suffix is present.
var All = Selection{Kind: SelAll}

// ParseSelection parses the text between a selection's brackets.
// An integer yields an index, a dotted form a range, and anything else a
// key; single quotes around a key are stripped.
func ParseSelection(s string) (Selection, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selection{}, &IndexParsingError{Text: s}
	}
	if idx, ok := parseIndex(s); ok {
		return Selection{Kind: SelIndex, Index: idx}, nil
	}
	if r, ok := parseRangeSelection(s); ok {
		return Selection{Kind: SelRange, Range: r}, nil
	}
	if strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") && len(s) >= 2 {
		return Selection{Kind: SelKey, Key: s[1 : len(s)-1]}, nil
	}
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2 {
		return Selection{Kind: SelKey, Key: s[1 : len(s)-1]}, nil
	}
	if strings.ContainsAny(s, "'\"") {
		return Selection{}, &IndexParsingError{Text: s}
	}
	return Selection{Kind: SelKey, Key: s}, nil
}

func parseRangeSelection(s string) (Range, bool) {
	dots := strings.Index(s, "..")
	if dots < 0 {
		return Range{}, false
	}
	var r Range
	first := s[:dots]
	rest := s[dots+2:]
	if strings.HasPrefix(rest, ".") {
		r.Inclusive = true
		rest = rest[1:]
	}
	if first != "" {
		idx, ok := parseIndex(first)
		if !ok {
			return Range{}, false
		}
		r.Start, r.HasStart = idx, true
	}
	if rest != "" {
		idx, ok := parseIndex(rest)
		if !ok {
			return Range{}, false
		}
		r.End, r.HasEnd = idx, true
	}
	return r, true
}

// parseBraceRange enumerates a brace range element such as '1..10',
// '1..10..2', or 'a..e', inclusive of both endpoints. Descending ranges
// are allowed. It reports false when the element is not a range.
func parseBraceRange(s string) ([]string, bool) {
	first, rest, ok := strings.Cut(s, "..")
	if !ok || first == "" || rest == "" {
		return nil, false
	}
	end, stepStr, hasStep := strings.Cut(rest, "..")
	step := 0
	if hasStep {
		n, err := strconv.Atoi(stepStr)
		if err != nil {
			return nil, false
		}
		step = n
	}
	if start, err := strconv.Atoi(first); err == nil {
		stop, err := strconv.Atoi(end)
		if err != nil {
			return nil, false
		}
		return enumerateInts(start, stop, step), true
	}
	if len(first) == 1 && len(end) == 1 && isAlpha(first[0]) && isAlpha(end[0]) {
		return enumerateChars(first[0], end[0], step), true
	}
	return nil, false
}

func isAlpha(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func enumerateInts(start, stop, step int) []string {
	if step < 0 {
		step = -step
	}
	if step == 0 {
		step = 1
	}
	var out []string
	if start <= stop {
		for i := start; i <= stop; i += step {
			out = append(out, strconv.Itoa(i))
		}
	} else {
		for i := start; i >= stop; i -= step {
			out = append(out, strconv.Itoa(i))
		}
	}
	return out
}

func enumerateChars(start, stop byte, step int) []string {
	if step < 0 {
		step = -step
	}
	if step == 0 {
		step = 1
	}
	var out []string
	if start <= stop {
		for c := int(start); c <= int(stop); c += step {
			out = append(out, string(rune(c)))
		}
	} else {
		for c := int(start); c >= int(stop); c -= step {
			out = append(out, string(rune(c)))
		}
	}
	return out
}
