// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// ShortcutUsage describes the syntax of the shortcut builtin.
const ShortcutUsage = "usage: sc -i <index> <command> | sc -d <index> [command]"

// ExitLine is the line which terminates the shell.
const ExitLine = "please exit"

// Command is the classification of one input line. It is decided once, by
// [ParseCommand], and is one of:
//
//	*Empty
//	*ShortcutInsert
//	*ShortcutDelete
//	*Exit
//	*Exec
type Command interface {
	commandNode()
}

// Empty is a blank line.
type Empty struct{}

// ShortcutInsert registers Text under Index, replacing any previous entry.
type ShortcutInsert struct {
	Index int
	Text  string
}

// ShortcutDelete removes the entry under Index.
//
// Text is whatever followed the index on the line. It is accepted for
// compatibility but not compared against the stored entry.
type ShortcutDelete struct {
	Index int
	Text  string
}

// Exit terminates the shell successfully.
type Exit struct{}

// Exec runs a pipeline line as a job.
type Exec struct {
	Line *Line

	// Source is the line text with the background marker removed. It is
	// what the coordinator process parses again.
	Source string

	// Background is true if the line ended with "&".
	Background bool
}

func (*Empty) commandNode()          {}
func (*ShortcutInsert) commandNode() {}
func (*ShortcutDelete) commandNode() {}
func (*Exit) commandNode()           {}
func (*Exec) commandNode()           {}

// ParseCommand classifies a raw input line.
//
// Shortcut builtins are matched on the raw line, so a stored command keeps
// its trailing "&". For any other line, a trailing "&" is removed and marks
// the job as background before the rest is parsed with [Parse].
func ParseCommand(line string) (Command, error) {
	src := strings.TrimSpace(line)
	if src == "" {
		return &Empty{}, nil
	}
	if word, _ := cutWord(src); word == "sc" {
		return parseShortcut(src)
	}

	bg := false
	if strings.HasSuffix(src, "&") {
		bg = true
		src = strings.TrimSpace(strings.TrimSuffix(src, "&"))
		if src == "" {
			return nil, &ParseError{0, "missing command before &"}
		}
	}
	if src == ExitLine {
		return &Exit{}, nil
	}
	l, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return &Exec{Line: l, Source: src, Background: bg}, nil
}

// cutWord splits off the first blank separated word of s.
func cutWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func parseShortcut(src string) (Command, error) {
	usage := &ParseError{-1, ShortcutUsage}
	_, rest := cutWord(src)
	flag, rest := cutWord(rest)
	if flag != "-i" && flag != "-d" {
		return nil, usage
	}
	idxStr, rest := cutWord(rest)
	if idxStr == "" {
		return nil, usage
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return nil, &ParseError{-1, fmt.Sprintf("invalid shortcut index %q", idxStr)}
	}
	text := strings.TrimSpace(rest)
	if flag == "-d" {
		return &ShortcutDelete{Index: idx, Text: text}, nil
	}
	if text == "" {
		return nil, usage
	}
	return &ShortcutInsert{Index: idx, Text: text}, nil
}
