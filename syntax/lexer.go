// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"errors"
	"strings"
)

// WordToken is one lexical unit of a single argument, prior to expansion.
// The concrete types below form a closed set; consumers switch over them
// exhaustively.
type WordToken interface{ wordToken() }

// Normal is a run of bare or quoted text. Glob records that the run carries
// an unquoted '*', '?', or a valid '[...]' class; Tilde that it begins with
// an unquoted '~'.
type Normal struct {
	Text  string
	Glob  bool
	Tilde bool
}

// Whitespace separates words inside quoted arguments.
type Whitespace struct{ Text string }

// Brace holds the comma-separated alternatives of one '{...}' group.
type Brace struct{ Elems []string }

// ArrayLit is a '[ elem... ]' literal, optionally followed by a selection.
type ArrayLit struct {
	Elems  []string
	Sel    string
	HasSel bool
}

// Variable is a scalar '$NAME' or '${NAME}' reference.
type Variable struct {
	Name   string
	Sel    string
	HasSel bool
}

// ArrayVariable is an '@NAME' or '@{NAME}' reference. Quoted records
// whether it appeared inside double quotes, which switches expansion from
// word-splitting to joining.
type ArrayVariable struct {
	Name   string
	Quoted bool
	Sel    string
	HasSel bool
}

// Process is a '$(cmd)' scalar substitution.
type Process struct {
	Command string
	Sel     string
	HasSel  bool
}

// ArrayProcess is an '@(cmd)' word-split substitution.
type ArrayProcess struct {
	Command string
	Quoted  bool
	Sel     string
	HasSel  bool
}

// StringMethod is a '$m(var pat)' call producing a scalar.
type StringMethod struct {
	Method     string
	Variable   string
	Pattern    string
	HasPattern bool
	Sel        string
	HasSel     bool
}

// ArrayMethod is an '@m(var pat)' call producing an array.
type ArrayMethod struct {
	Method     string
	Variable   string
	Pattern    string
	HasPattern bool
	Quoted     bool
	Sel        string
	HasSel     bool
}

// Arithmetic is a '$((expr))' expression.
type Arithmetic struct{ Expr string }

func (Normal) wordToken()        {}
func (Whitespace) wordToken()    {}
func (Brace) wordToken()         {}
func (ArrayLit) wordToken()      {}
func (Variable) wordToken()      {}
func (ArrayVariable) wordToken() {}
func (Process) wordToken()       {}
func (ArrayProcess) wordToken()  {}
func (StringMethod) wordToken()  {}
func (ArrayMethod) wordToken()   {}
func (Arithmetic) wordToken()    {}

// Fatal tokenizer errors for constructs left open at end of input.
var (
	ErrUnterminatedArithmetic    = errors.New("unterminated arithmetic expression")
	ErrUnterminatedProcess       = errors.New("unterminated process expression")
	ErrUnterminatedArrayVariable = errors.New("unterminated braced array expression")
	ErrUnterminatedBrace         = errors.New("unterminated brace")
	ErrUnterminatedMethod        = errors.New("unterminated method")
)

// unescapeSet is the character set whose backslash escapes are removed when
// a Normal token is materialized. Escapes of other bytes keep the
// backslash; '\n' and friends are not interpreted at this layer.
const unescapeSet = ` '"$@~?*{()}\`

func removeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte(unescapeSet, s[i+1]) >= 0 {
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// WordIterator lazily yields the word tokens of one argument string. The
// double-quote state persists across tokens, since a quoted segment may
// span several of them.
type WordIterator struct {
	data     string
	pos      int
	inDouble bool
	doGlob   bool
}

// NewWordIterator returns an iterator over data. When doGlob is false,
// pattern characters never set the Glob flag; brace elements are expanded
// this way so that globbing runs once, afterwards.
func NewWordIterator(data string, doGlob bool) *WordIterator {
	return &WordIterator{data: data, doGlob: doGlob}
}

func (w *WordIterator) peek(i int) (byte, bool) {
	if i < len(w.data) {
		return w.data[i], true
	}
	return 0, false
}

// Next returns the next token, or (nil, nil) once the argument is
// exhausted.
func (w *WordIterator) Next() (WordToken, error) {
	for w.pos < len(w.data) {
		b := w.data[w.pos]
		switch {
		case b == '\'':
			if w.inDouble {
				w.pos++
				return Normal{Text: "'"}, nil
			}
			w.pos++
			start := w.pos
			end := strings.IndexByte(w.data[start:], '\'')
			if end < 0 {
				w.pos = len(w.data)
				return Normal{Text: w.data[start:]}, nil
			}
			w.pos = start + end + 1
			return Normal{Text: w.data[start : start+end]}, nil
		case b == '"':
			w.pos++
			if !w.inDouble {
				if nb, ok := w.peek(w.pos); ok && nb == '"' {
					w.pos++
					return Normal{Text: ""}, nil
				}
			}
			w.inDouble = !w.inDouble
			continue
		case b == '$':
			if w.pos+1 >= len(w.data) {
				w.pos++
				return Normal{Text: "$"}, nil
			}
			return w.dollar()
		case b == '@':
			if w.pos+1 >= len(w.data) {
				w.pos++
				return Normal{Text: "@"}, nil
			}
			return w.at()
		case b == '{' && !w.inDouble:
			return w.braces()
		case b == '[' && !w.inDouble:
			if end, ok := w.globCheck(w.pos, false); ok {
				return w.normalText(w.pos, end, false)
			}
			return w.arrayLit()
		case b == ' ':
			start := w.pos
			for w.pos < len(w.data) && w.data[w.pos] == ' ' {
				w.pos++
			}
			return Whitespace{Text: w.data[start:w.pos]}, nil
		case b == '~' && !w.inDouble:
			return w.normalText(w.pos, w.pos+1, true)
		default:
			return w.normalText(w.pos, w.pos, false)
		}
	}
	return nil, nil
}

// normalText scans a run of plain text starting at start. The scan begins
// at from, which lets callers pre-consume a leading '~' or a glob class.
func (w *WordIterator) normalText(start, from int, tilde bool) (WordToken, error) {
	glob := from > start && !tilde // pre-consumed glob class
	i := from
scan:
	for i < len(w.data) {
		b := w.data[i]
		switch b {
		case '\\':
			i += 2
			continue
		case ' ', '\'', '"', '$', '@':
			break scan
		case '{':
			if !w.inDouble {
				break scan
			}
		case '*', '?':
			if !w.inDouble {
				glob = true
			}
		case '[':
			if w.inDouble {
				break
			}
			if end, ok := w.globCheck(i, true); ok {
				glob = true
				i = end
				continue
			}
			break scan
		}
		i++
	}
	if i > len(w.data) {
		i = len(w.data)
	}
	w.pos = i
	text := removeEscapes(w.data[start:i])
	if w.inDouble {
		glob = false
	}
	return Normal{Text: text, Glob: glob && w.doGlob, Tilde: tilde}, nil
}

// globCheck looks ahead from the '[' at position i and reports whether it
// forms a valid glob class, returning the index just past the closing ']'.
// A class is rejected when it is empty, nested, contains quote or expansion
// characters, or stands alone without adjacent text.
func (w *WordIterator) globCheck(i int, adjacent bool) (int, bool) {
	j := i + 1
	square := 0
	for j < len(w.data) {
		switch w.data[j] {
		case '[':
			square++
		case ' ', '"', '\'', '$', '{', '}':
			return 0, false
		case ']':
			if j-i < 2 || square > 0 {
				return 0, false
			}
			if next, ok := w.peek(j + 1); adjacent || (ok && next != ' ') {
				return j + 1, true
			}
			return 0, false
		}
		j++
	}
	return 0, false
}

// readSelection consumes a '[sel]' suffix, with pos on the '['.
func (w *WordIterator) readSelection() (string, bool) {
	w.pos++
	start := w.pos
	end := strings.IndexByte(w.data[start:], ']')
	if end < 0 {
		w.pos = len(w.data)
		return "", false
	}
	w.pos = start + end + 1
	return w.data[start : start+end], true
}

func (w *WordIterator) maybeSelection() (string, bool) {
	if b, ok := w.peek(w.pos); ok && b == '[' {
		return w.readSelection()
	}
	return "", false
}

func isNameByte(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'A' && b <= 'Z' ||
		b >= 'a' && b <= 'z' || b == '_' || b >= 0x80
}

func (w *WordIterator) dollar() (WordToken, error) {
	start := w.pos
	w.pos++
	b, _ := w.peek(w.pos)
	switch b {
	case '(':
		w.pos++
		if nb, ok := w.peek(w.pos); ok && nb == '(' {
			w.pos++
			return w.arithmetic()
		}
		return w.process()
	case '{':
		w.pos++
		return w.bracedVariable()
	case ' ':
		return Normal{Text: w.data[start:w.pos]}, nil
	case '?':
		w.pos++
		return Variable{Name: "?"}, nil
	}
	return w.variable(false)
}

func (w *WordIterator) at() (WordToken, error) {
	start := w.pos
	w.pos++
	b, _ := w.peek(w.pos)
	switch b {
	case '(':
		w.pos++
		return w.arrayProcess()
	case '{':
		w.pos++
		return w.bracedArrayVariable()
	case ' ':
		return Normal{Text: w.data[start:w.pos]}, nil
	}
	return w.variable(true)
}

// variable parses '$NAME', '@NAME', and their method forms, with pos on
// the first name byte.
func (w *WordIterator) variable(array bool) (WordToken, error) {
	start := w.pos
	for w.pos < len(w.data) && isNameByte(w.data[w.pos]) {
		w.pos++
	}
	name := w.data[start:w.pos]
	b, ok := w.peek(w.pos)
	switch {
	case ok && b == '(':
		w.pos++
		return w.method(name, array)
	case ok && b == '[':
		sel, _ := w.readSelection()
		if array {
			return ArrayVariable{Name: name, Quoted: w.inDouble, Sel: sel, HasSel: true}, nil
		}
		return Variable{Name: name, Sel: sel, HasSel: true}, nil
	}
	if array {
		return ArrayVariable{Name: name, Quoted: w.inDouble}, nil
	}
	return Variable{Name: name}, nil
}

// method parses the '(variable pattern)' tail of a method call. The
// variable ends at the first top-level space; the pattern is everything up
// to the closing parenthesis, with nesting tracked so that '$(...)' inside
// the pattern is legal.
func (w *WordIterator) method(name string, array bool) (WordToken, error) {
	start := w.pos
	var quote byte
	depth := 0
	for w.pos < len(w.data) {
		b := w.data[w.pos]
		switch {
		case quote != 0:
			if b == quote {
				quote = 0
			}
		case b == '\'' || b == '"':
			quote = b
		case b == '[':
			depth++
		case b == ']':
			depth--
		case b == ' ' && depth == 0:
			variable := strings.TrimSpace(w.data[start:w.pos])
			w.pos++
			return w.methodPattern(name, variable, array)
		case b == ')' && depth == 0:
			variable := strings.TrimSpace(w.data[start:w.pos])
			w.pos++
			sel, hasSel := w.maybeSelection()
			if array {
				return ArrayMethod{Method: name, Variable: variable, Pattern: " ",
					Quoted: w.inDouble, Sel: sel, HasSel: hasSel}, nil
			}
			return StringMethod{Method: name, Variable: variable, Pattern: " ",
				Sel: sel, HasSel: hasSel}, nil
		case b == ')':
			depth--
		case b == '(':
			depth++
		}
		w.pos++
	}
	return nil, ErrUnterminatedMethod
}

func (w *WordIterator) methodPattern(name, variable string, array bool) (WordToken, error) {
	start := w.pos
	depth := 0
	for w.pos < len(w.data) {
		switch w.data[w.pos] {
		case '\\':
			w.pos++
		case '(':
			depth++
		case ')':
			if depth == 0 {
				pattern := strings.TrimSpace(w.data[start:w.pos])
				w.pos++
				sel, hasSel := w.maybeSelection()
				if array {
					return ArrayMethod{Method: name, Variable: variable, Pattern: pattern,
						HasPattern: true, Quoted: w.inDouble, Sel: sel, HasSel: hasSel}, nil
				}
				return StringMethod{Method: name, Variable: variable, Pattern: pattern,
					HasPattern: true, Sel: sel, HasSel: hasSel}, nil
			}
			depth--
		}
		w.pos++
	}
	return nil, ErrUnterminatedMethod
}

func (w *WordIterator) bracedVariable() (WordToken, error) {
	start := w.pos
	end := strings.IndexByte(w.data[start:], '}')
	if end < 0 {
		return nil, ErrUnterminatedBrace
	}
	w.pos = start + end + 1
	return Variable{Name: w.data[start : start+end]}, nil
}

func (w *WordIterator) bracedArrayVariable() (WordToken, error) {
	start := w.pos
	for w.pos < len(w.data) {
		switch w.data[w.pos] {
		case '[':
			name := w.data[start:w.pos]
			sel, ok := w.readSelection()
			if !ok {
				return nil, ErrUnterminatedArrayVariable
			}
			if b, ok := w.peek(w.pos); !ok || b != '}' {
				return nil, ErrUnterminatedArrayVariable
			}
			w.pos++
			return ArrayVariable{Name: name, Quoted: w.inDouble, Sel: sel, HasSel: true}, nil
		case '}':
			name := w.data[start:w.pos]
			w.pos++
			return ArrayVariable{Name: name, Quoted: w.inDouble}, nil
		}
		w.pos++
	}
	return nil, ErrUnterminatedArrayVariable
}

// process scans '$(...)' with pos just past the opening parenthesis,
// tracking nested substitutions and quoting.
func (w *WordIterator) process() (WordToken, error) {
	start := w.pos
	var quote byte
	depth := 0
	for w.pos < len(w.data) {
		b := w.data[w.pos]
		switch {
		case b == '\\':
			w.pos++
		case quote == '\'':
			if b == '\'' {
				quote = 0
			}
		case b == '\'':
			quote = '\''
		case b == '"':
			if quote == '"' {
				quote = 0
			} else {
				quote = '"'
			}
		case b == '$' || b == '@':
			if nb, ok := w.peek(w.pos + 1); ok && nb == '(' {
				w.pos++
				depth++
			}
		case b == ')':
			if depth == 0 {
				cmd := w.data[start:w.pos]
				w.pos++
				sel, hasSel := w.maybeSelection()
				return Process{Command: cmd, Sel: sel, HasSel: hasSel}, nil
			}
			depth--
		}
		w.pos++
	}
	return nil, ErrUnterminatedProcess
}

func (w *WordIterator) arrayProcess() (WordToken, error) {
	tok, err := w.process()
	if err != nil {
		return nil, err
	}
	p := tok.(Process)
	return ArrayProcess{Command: p.Command, Quoted: w.inDouble, Sel: p.Sel, HasSel: p.HasSel}, nil
}

func (w *WordIterator) arithmetic() (WordToken, error) {
	start := w.pos
	depth := 0
	for w.pos < len(w.data) {
		switch w.data[w.pos] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				if nb, ok := w.peek(w.pos + 1); ok && nb == ')' {
					expr := w.data[start:w.pos]
					w.pos += 2
					return Arithmetic{Expr: expr}, nil
				}
				return nil, ErrUnterminatedArithmetic
			}
			depth--
		}
		w.pos++
	}
	return nil, ErrUnterminatedArithmetic
}

// braces scans '{...}' with pos on the opening brace, splitting the
// alternatives at top-level commas.
func (w *WordIterator) braces() (WordToken, error) {
	w.pos++
	start := w.pos
	var quote byte
	depth := 0
	var elems []string
	for w.pos < len(w.data) {
		b := w.data[w.pos]
		switch {
		case b == '\\':
			w.pos++
		case quote != 0:
			if b == quote {
				quote = 0
			}
		case b == '\'' || b == '"':
			quote = b
		case b == ',' && depth == 0:
			elems = append(elems, w.data[start:w.pos])
			start = w.pos + 1
		case b == '{' || b == '[':
			depth++
		case b == '}':
			if depth == 0 {
				elems = append(elems, w.data[start:w.pos])
				w.pos++
				return Brace{Elems: elems}, nil
			}
			depth--
		case b == ']':
			depth--
		}
		w.pos++
	}
	return nil, ErrUnterminatedBrace
}

// arrayLit scans '[ elem... ]' with pos on the opening bracket. The
// elements are split with [Fields], keeping their quotes.
func (w *WordIterator) arrayLit() (WordToken, error) {
	w.pos++
	start := w.pos
	var quote byte
	depth := 0
	for w.pos < len(w.data) {
		b := w.data[w.pos]
		switch {
		case b == '\\':
			w.pos++
		case quote != 0:
			if b == quote {
				quote = 0
			}
		case b == '\'' || b == '"':
			quote = b
		case b == '[':
			depth++
		case b == ']':
			if depth == 0 {
				elems, err := Fields(w.data[start:w.pos])
				if err != nil {
					return nil, err
				}
				w.pos++
				sel, hasSel := w.maybeSelection()
				return ArrayLit{Elems: elems, Sel: sel, HasSel: hasSel}, nil
			}
			depth--
		}
		w.pos++
	}
	return nil, ErrUnterminatedArrayVariable
}
