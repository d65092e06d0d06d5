// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import "strings"

// braceToken is one piece of a word undergoing brace expansion: either a
// literal segment or a placeholder for the next alternative list.
type braceToken struct {
	text     string
	expander bool
}

// expandBraceProduct walks the cartesian product of the alternative lists,
// interleaving them with the literal segments. Order is preserved: the
// leftmost list varies slowest.
func expandBraceProduct(tokens []braceToken, lists [][]string) []string {
	total := 1
	for _, list := range lists {
		total *= len(list)
	}
	if total == 0 {
		return nil
	}
	out := make([]string, 0, total)
	pick := make([]int, len(lists))
	var sb strings.Builder
	for {
		sb.Reset()
		li := 0
		for _, tok := range tokens {
			if tok.expander {
				sb.WriteString(lists[li][pick[li]])
				li++
			} else {
				sb.WriteString(tok.text)
			}
		}
		out = append(out, sb.String())
		// odometer increment, rightmost fastest
		i := len(pick) - 1
		for ; i >= 0; i-- {
			pick[i]++
			if pick[i] < len(lists[i]) {
				break
			}
			pick[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}
