// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "testing"

// The collector and word iterator must never panic or hang, whatever the
// input; errors are the only acceptable failure mode.
func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		"echo hi | cat",
		"cmd > a >> b ^> c &>> f",
		`cat < in <<< "x y" &`,
		"echo {a,b{c,d}} [1 2 3][0] $(sub) @(arr)[1..] $m(v p)[2] $((1+2))",
		"'unterminated",
		"a\\",
		"^",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, src string) {
		p, err := Parse(src, nil)
		if err != nil {
			return
		}
		for _, item := range p.Items {
			for _, arg := range item.Job.Args {
				w := NewWordIterator(arg, true)
				for i := 0; i < 10000; i++ {
					tok, err := w.Next()
					if tok == nil || err != nil {
						break
					}
				}
			}
		}
	})
}
