// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSelection(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want Selection
	}{
		{"0", Selection{Kind: SelIndex}},
		{"3", Selection{Kind: SelIndex, Index: Index{N: 3}}},
		{"-1", Selection{Kind: SelIndex, Index: Index{Back: true}}},
		{"-3", Selection{Kind: SelIndex, Index: Index{Back: true, N: 2}}},
		{"..", Selection{Kind: SelRange}},
		{"1..", Selection{Kind: SelRange, Range: Range{
			Start: Index{N: 1}, HasStart: true,
		}}},
		{"..3", Selection{Kind: SelRange, Range: Range{
			End: Index{N: 3}, HasEnd: true,
		}}},
		{"1..3", Selection{Kind: SelRange, Range: Range{
			Start: Index{N: 1}, HasStart: true, End: Index{N: 3}, HasEnd: true,
		}}},
		{"1...3", Selection{Kind: SelRange, Range: Range{
			Start: Index{N: 1}, HasStart: true, End: Index{N: 3}, HasEnd: true,
			Inclusive: true,
		}}},
		{"key", Selection{Kind: SelKey, Key: "key"}},
		{"'quoted key'", Selection{Kind: SelKey, Key: "quoted key"}},
	}
	for _, tc := range cases {
		got, err := ParseSelection(tc.in)
		if err != nil {
			t.Fatalf("ParseSelection(%q): %v", tc.in, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("ParseSelection(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
	if _, err := ParseSelection(""); err == nil {
		t.Error("ParseSelection(\"\") succeeded")
	}
}

func TestRangeBounds(t *testing.T) {
	t.Parallel()
	cases := []struct {
		sel    string
		length int
		start  int
		count  int
		ok     bool
	}{
		{"..", 3, 0, 3, true},
		{"1..", 3, 1, 2, true},
		{"..2", 3, 0, 2, true},
		{"1..2", 3, 1, 1, true},
		{"1...2", 3, 1, 2, true},
		{"..-2", 3, 0, 1, true},
		{"1...-1", 3, 1, 2, true},
		{"4..-4", 3, 0, 0, false},
		{"3..", 3, 0, 0, false},
	}
	for _, tc := range cases {
		sel, err := ParseSelection(tc.sel)
		if err != nil {
			t.Fatalf("ParseSelection(%q): %v", tc.sel, err)
		}
		if sel.Kind != SelRange {
			t.Fatalf("ParseSelection(%q).Kind != SelRange", tc.sel)
		}
		start, count, ok := sel.Range.Bounds(tc.length)
		if start != tc.start || count != tc.count || ok != tc.ok {
			t.Errorf("Bounds(%q, %d) = (%d, %d, %v), want (%d, %d, %v)",
				tc.sel, tc.length, start, count, ok, tc.start, tc.count, tc.ok)
		}
	}
}

func TestBraceRange(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want []string
	}{
		{"1..4", []string{"1", "2", "3", "4"}},
		{"1..10..3", []string{"1", "4", "7", "10"}},
		{"1..4..0", []string{"1", "2", "3", "4"}},
		{"4..1", []string{"4", "3", "2", "1"}},
		{"4..1..2", []string{"4", "2"}},
		{"c..f", []string{"c", "d", "e", "f"}},
		{"d..k..3", []string{"d", "g", "j"}},
		{"k..d..2", []string{"k", "i", "g", "e"}},
	}
	for _, tc := range cases {
		got, ok := parseBraceRange(tc.in)
		if !ok {
			t.Fatalf("parseBraceRange(%q) not recognized", tc.in)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("parseBraceRange(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
	for _, in := range []string{"1..f", "-..f", "3..-", "d..k..n", "1.4", "plain"} {
		if vals, ok := parseBraceRange(in); ok {
			t.Errorf("parseBraceRange(%q) = %v, want not a range", in, vals)
		}
	}
}
