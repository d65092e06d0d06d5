// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package pattern

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Glob expands a pattern against the filesystem, returning the matches in
// lexical order. Hidden files are only matched by components that start
// with a dot. A nil result means the pattern matched nothing; callers keep
// the literal word in that case.
func Glob(pat string) []string {
	if !HasMeta(pat) {
		return nil
	}
	parts := strings.Split(pat, string(filepath.Separator))
	matches := []string{"."}
	rel := true
	if filepath.IsAbs(pat) {
		matches[0] = string(filepath.Separator)
		parts = parts[1:]
		rel = false
	}
	for _, part := range parts {
		if part == "" {
			continue
		}
		if !HasMeta(part) {
			for i := range matches {
				matches[i] = filepath.Join(matches[i], part)
			}
			var kept []string
			for _, m := range matches {
				if _, err := os.Lstat(m); err == nil {
					kept = append(kept, m)
				}
			}
			matches = kept
			continue
		}
		expr, err := Regexp(part)
		if err != nil {
			return nil
		}
		rx := regexp.MustCompile(expr)
		var next []string
		for _, dir := range matches {
			next = globDir(dir, part, rx, next)
		}
		matches = next
	}
	if rel {
		for i := range matches {
			matches[i] = strings.TrimPrefix(matches[i], "./")
		}
	}
	sort.Strings(matches)
	return matches
}

func globDir(dir, part string, rx *regexp.Regexp, matches []string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return matches
	}
	hidden := strings.HasPrefix(part, ".")
	for _, entry := range entries {
		name := entry.Name()
		if !hidden && strings.HasPrefix(name, ".") {
			continue
		}
		if rx.MatchString(name) {
			matches = append(matches, filepath.Join(dir, name))
		}
	}
	return matches
}
