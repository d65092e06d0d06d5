// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "errors"

// Parse errors reported by the pipeline collector. They are compared with
// [errors.Is]; the collector never recovers from them locally.
var (
	ErrNoRedirection       = errors.New("expected file argument after redirection for output")
	ErrHeredocsDeprecated  = errors.New("heredocs are not a part of ion; use redirection and/or cat instead")
	ErrNoHereStringArg     = errors.New("expected string argument after '<<<'")
	ErrNoRedirectionArg    = errors.New("expected file argument after redirection for input")
	ErrUnterminatedDquote  = errors.New("unterminated double quote")
	ErrUnterminatedSquote  = errors.New("unterminated single quote")
)

// PairedError wraps a delimiter imbalance found while reading an argument.
type PairedError struct{ Err error }

func (e *PairedError) Error() string { return e.Err.Error() }
func (e *PairedError) Unwrap() error { return e.Err }

// Collector parses one statement into a [Pipeline] in a single
// left-to-right pass over the source bytes.
type Collector struct {
	data string
	pos  int
}

// NewCollector returns a collector over the given statement.
func NewCollector(data string) *Collector { return &Collector{data: data} }

// Parse is a convenience that collects data into a pipeline.
func Parse(data string, builtins BuiltinLookup) (*Pipeline, error) {
	return NewCollector(data).Parse(builtins)
}

func (c *Collector) peek(i int) (byte, bool) {
	if i < len(c.data) {
		return c.data[i], true
	}
	return 0, false
}

// Parse collects the statement into a pipeline. Arguments keep their
// quoting; expansion happens later.
func (c *Collector) Parse(builtins BuiltinLookup) (*Pipeline, error) {
	p := &Pipeline{}
	var args []string
	var outputs []Redirection
	var inputs []Input

	flush := func(redir RedirectFrom) {
		p.addItem(redir, args, outputs, inputs, builtins)
		args, outputs, inputs = nil, nil, nil
	}
	pushArg := func() error {
		arg, err := c.arg()
		if err != nil {
			return err
		}
		if arg != "" {
			args = append(args, arg)
		}
		return nil
	}
	pushOutput := func(from RedirectFrom) error {
		appendMode := false
		if b, ok := c.peek(c.pos); ok && b == '>' {
			c.pos++
			appendMode = true
		}
		file, err := c.arg()
		if err != nil {
			return err
		}
		if file == "" {
			return ErrNoRedirection
		}
		outputs = append(outputs, Redirection{From: from, File: file, Append: appendMode})
		return nil
	}

	for c.pos < len(c.data) {
		switch b := c.data[c.pos]; b {
		case '&':
			c.pos++
			switch nb, ok := c.peek(c.pos); {
			case ok && nb == '>':
				c.pos++
				if err := pushOutput(RedirBoth); err != nil {
					return nil, err
				}
			case ok && nb == '|':
				c.pos++
				flush(RedirBoth)
			case ok && nb == '!':
				c.pos++
				p.Pipe = Disown
				flush(RedirNone)
				return p, nil
			default:
				p.Pipe = Background
				flush(RedirNone)
				return p, nil
			}
		case '^':
			// Only a separator when it starts a stderr redirection
			// or pipe; otherwise part of the argument.
			switch nb, ok := c.peek(c.pos + 1); {
			case ok && nb == '>':
				c.pos += 2
				if err := pushOutput(RedirStderr); err != nil {
					return nil, err
				}
			case ok && nb == '|':
				c.pos += 2
				flush(RedirStderr)
			default:
				if err := pushArg(); err != nil {
					return nil, err
				}
			}
		case '|':
			c.pos++
			flush(RedirStdout)
		case '>':
			c.pos++
			if err := pushOutput(RedirStdout); err != nil {
				return nil, err
			}
		case '<':
			c.pos++
			if nb, ok := c.peek(c.pos); ok && nb == '<' {
				nb2, ok2 := c.peek(c.pos + 1)
				if !ok2 || nb2 != '<' {
					return nil, ErrHeredocsDeprecated
				}
				c.pos += 2
				text, err := c.arg()
				if err != nil {
					return nil, err
				}
				if text == "" {
					return nil, ErrNoHereStringArg
				}
				inputs = append(inputs, HereString{Text: text})
			} else {
				file, err := c.arg()
				if err != nil {
					return nil, err
				}
				if file == "" {
					return nil, ErrNoRedirectionArg
				}
				inputs = append(inputs, FileInput{Path: file})
			}
		case ' ', '\t':
			c.pos++
		default:
			if err := pushArg(); err != nil {
				return nil, err
			}
		}
	}
	flush(RedirNone)
	return p, nil
}

// arg reads the next argument span, honoring quoting and delimiter nesting.
// It does not interpret expansion markers; it only finds the end of the
// argument. The returned text keeps its quotes.
func (c *Collector) arg() (string, error) {
	var lv levels
	// Array openers and brace openers interleave; a closing bracket only
	// terminates the argument when it does not match an opener seen here.
	// The parity trick mirrors nesting of `[` inside `{` and vice versa.
	var arrayBrace uint32

	for c.pos < len(c.data) {
		if b := c.data[c.pos]; b == ' ' || b == '\t' {
			c.pos++
		} else {
			break
		}
	}

	start := -1
	end := -1
scan:
	for c.pos < len(c.data) {
		b := c.data[c.pos]
		if start < 0 {
			start = c.pos
		}
		switch b {
		case '(':
			lv.up(fieldProc)
			c.pos++
		case ')':
			if err := lv.down(fieldProc); err != nil {
				return "", &PairedError{err}
			}
			c.pos++
		case '[':
			lv.up(fieldArray)
			arrayBrace = arrayBrace*2 + 1
			c.pos++
		case ']':
			if err := lv.down(fieldArray); err != nil {
				return "", &PairedError{err}
			}
			if arrayBrace%2 == 1 {
				arrayBrace = (arrayBrace - 1) / 2
				c.pos++
			} else {
				break scan
			}
		case '{':
			lv.up(fieldBraces)
			arrayBrace *= 2
			c.pos++
		case '}':
			if arrayBrace%2 == 0 {
				if err := lv.down(fieldBraces); err != nil {
					return "", &PairedError{err}
				}
				arrayBrace /= 2
				c.pos++
			} else {
				break scan
			}
		case '^':
			if lv.rooted() {
				if nb, ok := c.peek(c.pos + 1); ok && (nb == '>' || nb == '|') {
					end = c.pos
					break scan
				}
			}
			c.pos++
		case '"':
			c.pos++
			if err := c.doubleQuoted(); err != nil {
				return "", err
			}
		case '\'':
			c.pos++
			if err := c.singleQuoted(); err != nil {
				return "", err
			}
		case '\\':
			c.pos += 2
		case '&', '|', '<', '>', ' ', '\t':
			if lv.rooted() {
				end = c.pos
				break scan
			}
			c.pos++
		default:
			c.pos++
		}
	}

	if err := lv.check(); err != nil {
		return "", &PairedError{err}
	}
	switch {
	case start >= 0 && end > start:
		return c.data[start:end], nil
	case start >= 0 && end < 0:
		return c.data[start:min(c.pos, len(c.data))], nil
	}
	return "", nil
}

// doubleQuoted scans past a double-quoted segment, leaving the closing
// quote consumed. Escapes skip the next byte.
func (c *Collector) doubleQuoted() error {
	for c.pos < len(c.data) {
		switch c.data[c.pos] {
		case '\\':
			c.pos += 2
			continue
		case '"':
			c.pos++
			return nil
		}
		c.pos++
	}
	return ErrUnterminatedDquote
}

func (c *Collector) singleQuoted() error {
	for c.pos < len(c.data) {
		if c.data[c.pos] == '\'' {
			c.pos++
			return nil
		}
		c.pos++
	}
	return ErrUnterminatedSquote
}
