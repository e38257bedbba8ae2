// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

// Package syntax implements parsing of fsh pipeline lines.
//
// A line is a "|" chain of stages, optionally followed by a double ("||")
// or triple ("|||") fan-out into comma separated branch chains. Each stage
// may carry "<", ">" and ">>" redirects anywhere in its text.
package syntax

import (
	"fmt"
	"strings"

	shlex "github.com/anmitsu/go-shlex"
)

// ParseError is the error returned for a malformed pipeline line.
type ParseError struct {
	// Offset is the byte offset in the line where the problem was found,
	// or -1 if the error does not refer to a position.
	Offset int
	Text   string
}

func (e *ParseError) Error() string {
	if e.Offset < 0 {
		return e.Text
	}
	return fmt.Sprintf("col %d: %s", e.Offset+1, e.Text)
}

// span is a piece of the source line along with its offset.
type span struct {
	off  int
	text string
}

// trim removes leading and trailing blanks, keeping the offset accurate.
func (s span) trim() span {
	t := strings.TrimLeft(s.text, " \t")
	s.off += len(s.text) - len(t)
	s.text = strings.TrimRight(t, " \t")
	return s
}

func (s span) blank() bool { return strings.TrimSpace(s.text) == "" }

func isBlank(b byte) bool { return b == ' ' || b == '\t' }

// unquoted calls fn with the index of each byte of s which is outside of
// single or double quotes and not escaped by a backslash. Iteration stops
// when fn returns false.
func unquoted(s string, fn func(i int) bool) {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else if c == '\\' && quote == '"' {
				i++
			}
		case c == '\\':
			i++
		case c == '\'' || c == '"':
			quote = c
		default:
			if !fn(i) {
				return
			}
		}
	}
}

func indexUnquoted(s, sub string) int {
	idx := -1
	unquoted(s, func(i int) bool {
		if strings.HasPrefix(s[i:], sub) {
			idx = i
			return false
		}
		return true
	})
	return idx
}

func splitUnquoted(s span, sep byte) []span {
	var parts []span
	start := 0
	unquoted(s.text, func(i int) bool {
		if s.text[i] == sep {
			parts = append(parts, span{s.off + start, s.text[start:i]})
			start = i + 1
		}
		return true
	})
	return append(parts, span{s.off + start, s.text[start:]})
}

// Parse parses a single pipeline line. The line must already have any
// trailing background marker removed; see [ParseCommand] for the full
// classification of input lines.
func Parse(src string) (*Line, error) {
	i := indexUnquoted(src, "||")
	if i < 0 {
		head, err := parseChain(span{0, src})
		if err != nil {
			return nil, err
		}
		return &Line{Head: head}, nil
	}

	op := "||"
	if strings.HasPrefix(src[i:], "|||") {
		op = "|||"
	}
	want := len(op)

	head := span{0, src[:i]}
	if head.blank() {
		return nil, &ParseError{i, fmt.Sprintf("missing pipeline before %s", op)}
	}
	headChain, err := parseChain(head)
	if err != nil {
		return nil, err
	}

	rest := span{i + len(op), src[i+len(op):]}
	parts := splitUnquoted(rest, ',')
	switch {
	case len(parts) < want:
		return nil, &ParseError{len(src), fmt.Sprintf("%s needs %d branches, found %d", op, want, len(parts))}
	case len(parts) > want:
		return nil, &ParseError{parts[want].off - 1, fmt.Sprintf("%s takes %d branches, found %d", op, want, len(parts))}
	}

	fan := &FanOut{}
	for n, part := range parts {
		if part.blank() {
			return nil, &ParseError{part.off, fmt.Sprintf("empty branch %d after %s", n+1, op)}
		}
		branch, err := parseChain(part)
		if err != nil {
			return nil, err
		}
		fan.Branches = append(fan.Branches, branch)
	}
	return &Line{Head: headChain, FanOut: fan}, nil
}

func parseChain(s span) (*Chain, error) {
	c := &Chain{}
	for _, part := range splitUnquoted(s, '|') {
		part = part.trim()
		if part.text == "" {
			return nil, &ParseError{part.off, "empty command in pipeline"}
		}
		st, err := parseStage(part)
		if err != nil {
			return nil, err
		}
		c.Stages = append(c.Stages, st)
	}
	return c, nil
}

// wordEnd returns the end of the word starting at i, which runs to the
// first unquoted blank, redirect or pipe.
func wordEnd(s string, i int) int {
	var quote byte
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else if c == '\\' && quote == '"' {
				i++
			}
		case c == '\\':
			i++
		case c == '\'' || c == '"':
			quote = c
		case isBlank(c) || c == '<' || c == '>' || c == '|':
			return i
		}
	}
	return len(s)
}

// redirTarget removes the quoting from the file name of a redirect. An
// empty result means there was no name.
func redirTarget(word string) (string, error) {
	if word == "" {
		return "", nil
	}
	words, err := shlex.Split(word, true)
	if err != nil {
		return "", err
	}
	if len(words) != 1 {
		return "", nil
	}
	return words[0], nil
}

func parseStage(s span) (*Stage, error) {
	st := &Stage{Offset: s.off}
	src := s.text

	// Redirects are cut out of the text, leaving a blank in their place,
	// so that what remains is just the program and its arguments.
	var rest strings.Builder
	last := 0
	var perr *ParseError
	unquoted(src, func(i int) bool {
		c := src[i]
		if c != '<' && c != '>' {
			return true
		}
		if i < last {
			// second byte of ">>", already consumed
			return true
		}
		rest.WriteString(src[last:i])
		rest.WriteByte(' ')

		op := string(c)
		j := i + 1
		if c == '>' && j < len(src) && src[j] == '>' {
			op = ">>"
			j++
		}
		for j < len(src) && isBlank(src[j]) {
			j++
		}
		start := j
		j = wordEnd(src, j)
		last = j
		name, err := redirTarget(src[start:j])
		if err != nil {
			perr = &ParseError{s.off + start, err.Error()}
			return false
		}
		switch {
		case name == "":
			perr = &ParseError{s.off + i, fmt.Sprintf("missing file name after %s", op)}
		case op == "<":
			if st.RedirIn != "" {
				perr = &ParseError{s.off + i, "multiple input redirects"}
				break
			}
			st.RedirIn = name
		default:
			if st.RedirOut != "" {
				perr = &ParseError{s.off + i, "multiple output redirects"}
				break
			}
			st.RedirOut = name
			st.Append = op == ">>"
		}
		return perr == nil
	})
	if perr != nil {
		return nil, perr
	}
	if last < len(src) {
		rest.WriteString(src[last:])
	}

	words, err := shlex.Split(rest.String(), true)
	if err != nil {
		return nil, &ParseError{s.off, err.Error()}
	}
	if len(words) == 0 {
		return nil, &ParseError{s.off, "missing program name"}
	}
	st.Program = words[0]
	st.Args = words
	return st, nil
}
