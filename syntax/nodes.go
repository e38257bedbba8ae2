// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package syntax

import "strings"

// Stage is a single external program invocation within a pipeline.
//
// A Stage carries no file descriptors; the executor decides where its
// standard streams point when it starts the process. A redirect, when
// present, always wins over a pipe on the same stream.
type Stage struct {
	// Offset is the byte offset of the stage within the parsed line.
	Offset int

	// Program is the name to be resolved against the search path.
	Program string

	// Args is the argument vector. Args[0] is always Program.
	Args []string

	// RedirIn is the file to read standard input from, if any.
	RedirIn string

	// RedirOut is the file to write standard output to, if any.
	RedirOut string

	// Append makes RedirOut open in append mode instead of truncating.
	Append bool
}

func (s *Stage) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(s.Args, " "))
	if s.RedirIn != "" {
		sb.WriteString(" < ")
		sb.WriteString(s.RedirIn)
	}
	if s.RedirOut != "" {
		if s.Append {
			sb.WriteString(" >> ")
		} else {
			sb.WriteString(" > ")
		}
		sb.WriteString(s.RedirOut)
	}
	return sb.String()
}

// Chain is a linear pipeline of one or more stages joined by "|".
type Chain struct {
	Stages []*Stage
}

func (c *Chain) String() string {
	strs := make([]string, len(c.Stages))
	for i, s := range c.Stages {
		strs[i] = s.String()
	}
	return strings.Join(strs, " | ")
}

// FanOut duplicates the output of a line's head chain into two or three
// independent branch chains.
type FanOut struct {
	Branches []*Chain
}

// Op returns the operator that introduces the fan-out, "||" or "|||".
func (f *FanOut) Op() string {
	return strings.Repeat("|", len(f.Branches))
}

// Line is a fully parsed pipeline line, of the shape
//
//	head [ "||" branch "," branch ]
//	head [ "|||" branch "," branch "," branch ]
type Line struct {
	Head   *Chain
	FanOut *FanOut // nil if the line has no fan-out
}

func (l *Line) String() string {
	s := l.Head.String()
	if l.FanOut == nil {
		return s
	}
	strs := make([]string, len(l.FanOut.Branches))
	for i, b := range l.FanOut.Branches {
		strs[i] = b.String()
	}
	return s + " " + l.FanOut.Op() + " " + strings.Join(strs, " , ")
}

// Stages returns every stage in the line, head chain first and then each
// branch in order.
func (l *Line) Stages() []*Stage {
	stages := append([]*Stage(nil), l.Head.Stages...)
	if l.FanOut != nil {
		for _, b := range l.FanOut.Branches {
			stages = append(stages, b.Stages...)
		}
	}
	return stages
}
