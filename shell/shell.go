// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

// Package shell implements the interactive loop of fsh: reading lines,
// running the builtins, handing pipelines to the job controller, and
// replaying saved shortcuts after an interrupt.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"

	"github.com/fanout-sh/fsh/job"
	"github.com/fanout-sh/fsh/shortcut"
	"github.com/fanout-sh/fsh/syntax"
)

// Runner starts jobs. It is implemented by [*job.Controller].
type Runner interface {
	Run(ctx context.Context, src string, background bool) (*job.Job, error)
	Reap() []*job.Job
}

// Shell holds the state of one interactive session.
type Shell struct {
	Stdin          io.Reader
	Stdout, Stderr io.Writer

	Shortcuts *shortcut.Table
	Jobs      Runner

	// Prompt, if not nil, is printed before reading each line.
	Prompt func() string

	// Notify makes the shell report background jobs as they finish.
	Notify bool

	// Color enables coloured error messages.
	Color bool

	interrupted atomic.Bool
	status      int

	promptMu sync.Mutex
}

// Interrupt marks the shell as interrupted: the next line read is taken as
// the index of a shortcut to replay. The prompt, if any, is printed again on
// a new line to ask for it. It is safe to call from any goroutine, such as
// one receiving signals.
func (s *Shell) Interrupt() {
	s.interrupted.Store(true)
	if s.Prompt != nil {
		s.printPrompt("\n")
	}
}

func (s *Shell) printPrompt(prefix string) {
	s.promptMu.Lock()
	defer s.promptMu.Unlock()
	fmt.Fprint(s.Stdout, prefix+s.Prompt())
}

// Status returns the exit status of the last line run: that of its
// foreground job, 2 if it could not be parsed, or 1 if a builtin failed.
func (s *Shell) Status() int { return s.status }

// Run reads and runs lines until "please exit" or the end of input, either of
// which ends the session successfully. A non-nil error is returned only if
// reading fails or a job cannot be set up.
func (s *Shell) Run(ctx context.Context) error {
	br := bufio.NewReader(s.Stdin)
	for {
		s.reap()
		if s.Prompt != nil {
			s.printPrompt("")
		}
		line, rerr := br.ReadString('\n')
		if rerr != nil && rerr != io.EOF {
			return rerr
		}
		if rerr == io.EOF && line == "" {
			return nil
		}
		line = strings.TrimRight(line, "\r\n")

		if s.interrupted.Swap(false) {
			text, err := s.shortcut(line)
			if err != nil {
				s.errorf("%v", err)
				continue
			}
			line = text
		}
		exit, err := s.Exec(ctx, line)
		if err != nil {
			return err
		}
		if exit || rerr == io.EOF {
			return nil
		}
	}
}

// shortcut returns the text saved under the index given on line.
func (s *Shell) shortcut(line string) (string, error) {
	field := strings.TrimSpace(line)
	idx, err := strconv.Atoi(field)
	if err != nil {
		return "", fmt.Errorf("invalid shortcut index %q", field)
	}
	return s.table().Lookup(idx)
}

func (s *Shell) table() *shortcut.Table {
	if s.Shortcuts == nil {
		s.Shortcuts = &shortcut.Table{}
	}
	return s.Shortcuts
}

// Exec runs a single line as if it had been typed. It reports whether the
// line asked the shell to exit.
//
// Problems with the line itself, such as a syntax error or a missing
// shortcut, are reported on Stderr and do not stop the shell. An error is
// returned only when a job could not be set up.
func (s *Shell) Exec(ctx context.Context, line string) (exit bool, _ error) {
	cmd, err := syntax.ParseCommand(line)
	if err != nil {
		s.errorf("%v", err)
		s.status = 2
		return false, nil
	}
	s.status = 0
	switch cmd := cmd.(type) {
	case *syntax.Empty:
	case *syntax.Exit:
		return true, nil
	case *syntax.ShortcutInsert:
		s.table().Insert(cmd.Index, cmd.Text)
	case *syntax.ShortcutDelete:
		if err := s.table().Delete(cmd.Index); err != nil {
			s.errorf("%v", err)
			s.status = 1
		}
	case *syntax.Exec:
		j, err := s.Jobs.Run(ctx, cmd.Source, cmd.Background)
		var ferr *job.FatalError
		if errors.As(err, &ferr) {
			return false, err
		}
		if err != nil {
			s.errorf("%v", err)
			s.status = 1
			return false, nil
		}
		switch j.State {
		case job.BackgroundRunning:
			fmt.Fprintf(s.Stdout, "[%d]\n", j.Pid)
		case job.Stopped:
			fmt.Fprintf(s.Stdout, "\n%s\n", j)
		default:
			s.status = j.ExitCode
		}
	default:
		panic(fmt.Sprintf("unhandled command type: %T", cmd))
	}
	return false, nil
}

// reap collects finished background jobs, reporting them if enabled.
func (s *Shell) reap() {
	if s.Jobs == nil {
		return
	}
	for _, j := range s.Jobs.Reap() {
		if s.Notify {
			fmt.Fprintln(s.Stdout, j)
		}
	}
}

func (s *Shell) errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.Color {
		c := color.New(color.FgRed, color.Bold)
		c.EnableColor()
		// Fprintf leaves out the reset when color.NoColor is set
		fmt.Fprint(s.Stderr, c.Sprintf("fsh: %s\n", msg))
		return
	}
	fmt.Fprintf(s.Stderr, "fsh: %s\n", msg)
}
