// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package shell

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/fanout-sh/fsh/job"
	"github.com/fanout-sh/fsh/shortcut"
)

type call struct {
	Src        string
	Background bool
}

// fakeRunner records the jobs it is asked to run instead of running them.
type fakeRunner struct {
	mu    sync.Mutex
	calls []call
	ran   chan call

	exitCode int
	err      error
	reap     [][]*job.Job
}

func (r *fakeRunner) Run(ctx context.Context, src string, background bool) (*job.Job, error) {
	r.mu.Lock()
	c := call{src, background}
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	if r.ran != nil {
		r.ran <- c
	}
	if r.err != nil {
		return nil, r.err
	}
	j := &job.Job{Source: src, Pid: 100 + len(r.calls), Background: background, State: job.Reaped, ExitCode: r.exitCode}
	if background {
		j.State = job.BackgroundRunning
	}
	return j, nil
}

func (r *fakeRunner) Reap() []*job.Job {
	if len(r.reap) == 0 {
		return nil
	}
	done := r.reap[0]
	r.reap = r.reap[1:]
	return done
}

func newShell(in string, runner *fakeRunner) (*Shell, *strings.Builder, *strings.Builder) {
	var stdout, stderr strings.Builder
	return &Shell{
		Stdin:     strings.NewReader(in),
		Stdout:    &stdout,
		Stderr:    &stderr,
		Shortcuts: &shortcut.Table{},
		Jobs:      runner,
	}, &stdout, &stderr
}

func TestRun(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	s, stdout, stderr := newShell("echo hi | tr a-z A-Z\n\nsleep 5 &\n  please exit  \nnever run\n", runner)
	qt.Assert(t, s.Run(context.Background()), qt.IsNil)
	qt.Assert(t, runner.calls, qt.DeepEquals, []call{
		{"echo hi | tr a-z A-Z", false},
		{"sleep 5", true},
	})
	qt.Assert(t, stdout.String(), qt.Equals, "[102]\n")
	qt.Assert(t, stderr.String(), qt.Equals, "")
}

func TestRunEOF(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	s, _, _ := newShell("ls\ncat < in.txt > out.txt", runner)
	qt.Assert(t, s.Run(context.Background()), qt.IsNil)
	qt.Assert(t, runner.calls, qt.DeepEquals, []call{
		{"ls", false},
		{"cat < in.txt > out.txt", false},
	})
}

func TestRunPrompt(t *testing.T) {
	t.Parallel()
	s, stdout, _ := newShell("ls\n", &fakeRunner{})
	n := 0
	s.Prompt = func() string {
		n++
		return fmt.Sprintf("p%d> ", n)
	}
	qt.Assert(t, s.Run(context.Background()), qt.IsNil)
	qt.Assert(t, stdout.String(), qt.Equals, "p1> p2> ")
}

func TestRunErrorsContinue(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	s, _, stderr := newShell("ls |\nsc -d 3\nsc -x\na || b\nls\n", runner)
	qt.Assert(t, s.Run(context.Background()), qt.IsNil)
	qt.Assert(t, runner.calls, qt.DeepEquals, []call{{"ls", false}})
	qt.Assert(t, stderr.String(), qt.Equals, strings.Join([]string{
		"fsh: col 5: empty command in pipeline",
		"fsh: no shortcut with index 3",
		"fsh: usage: sc -i <index> <command> | sc -d <index> [command]",
		"fsh: col 7: || needs 2 branches, found 1",
		"",
	}, "\n"))
}

func TestRunFatal(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{err: &job.FatalError{Op: "start coordinator", Err: io.ErrUnexpectedEOF}}
	s, _, _ := newShell("ls\nls\n", runner)
	err := s.Run(context.Background())
	qt.Assert(t, err, qt.ErrorMatches, "start coordinator: unexpected EOF")
	qt.Assert(t, runner.calls, qt.HasLen, 1)
}

func TestRunNotify(t *testing.T) {
	t.Parallel()
	done := &job.Job{Source: "sleep 1", Pid: 42, Background: true, State: job.Reaped}
	runner := &fakeRunner{reap: [][]*job.Job{nil, {done}}}
	s, stdout, _ := newShell("ls\nls\n", runner)
	s.Notify = true
	qt.Assert(t, s.Run(context.Background()), qt.IsNil)
	qt.Assert(t, stdout.String(), qt.Equals, "[42] done: sleep 1\n")
}

func TestShortcutReplay(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	s, _, stderr := newShell("1\n", runner)
	s.Shortcuts.Insert(1, "ls -la")
	s.Interrupt()
	qt.Assert(t, s.Run(context.Background()), qt.IsNil)
	qt.Assert(t, runner.calls, qt.DeepEquals, []call{{"ls -la", false}})
	qt.Assert(t, stderr.String(), qt.Equals, "")
}

func TestInterruptPrompt(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	s, stdout, _ := newShell("1\n", runner)
	s.Prompt = func() string { return ">> " }
	s.Shortcuts.Insert(1, "ls -la")

	s.Interrupt()
	qt.Assert(t, stdout.String(), qt.Equals, "\n>> ")

	qt.Assert(t, s.Run(context.Background()), qt.IsNil)
	qt.Assert(t, runner.calls, qt.DeepEquals, []call{{"ls -la", false}})
	qt.Assert(t, stdout.String(), qt.Equals, "\n>> >> >> ")
}

func TestShortcutReplayErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"9\n", "fsh: no shortcut with index 9\n"},
		{"abc\n", "fsh: invalid shortcut index \"abc\"\n"},
		{"\n", "fsh: invalid shortcut index \"\"\n"},
	}
	for _, test := range tests {
		test := test
		t.Run("", func(t *testing.T) {
			t.Parallel()
			runner := &fakeRunner{}
			// the interrupt only applies to the next line
			s, _, stderr := newShell(test.in+"2\n", runner)
			s.Shortcuts.Insert(1, "ls")
			s.Interrupt()
			qt.Assert(t, s.Run(context.Background()), qt.IsNil)
			qt.Assert(t, stderr.String(), qt.Equals, test.want)
			qt.Assert(t, runner.calls, qt.DeepEquals, []call{{"2", false}})
		})
	}
}

func TestShortcutSession(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{ran: make(chan call, 1)}
	pr, pw := io.Pipe()
	var stdout, stderr strings.Builder
	s := &Shell{Stdin: pr, Stdout: &stdout, Stderr: &stderr, Jobs: runner}
	errc := make(chan error, 1)
	go func() { errc <- s.Run(context.Background()) }()

	io.WriteString(pw, "sc -i 1 echo a || cat , cat\n")
	io.WriteString(pw, "sc -i 2 sleep 5 &\n")
	io.WriteString(pw, "echo before\n")
	qt.Assert(t, <-runner.ran, qt.Equals, call{"echo before", false})

	// an interrupt arriving while a line is being read
	s.Interrupt()
	io.WriteString(pw, "1\n")
	qt.Assert(t, <-runner.ran, qt.Equals, call{"echo a || cat , cat", false})

	s.Interrupt()
	io.WriteString(pw, " 2 \n")
	qt.Assert(t, <-runner.ran, qt.Equals, call{"sleep 5", true})

	io.WriteString(pw, "sc -d 1 echo a || cat , cat\n")
	io.WriteString(pw, "ls\n")
	qt.Assert(t, <-runner.ran, qt.Equals, call{"ls", false})
	s.Interrupt()
	io.WriteString(pw, "1\n")
	io.WriteString(pw, "please exit\n")
	qt.Assert(t, <-errc, qt.IsNil)
	qt.Assert(t, stderr.String(), qt.Equals, "fsh: no shortcut with index 1\n")
	qt.Assert(t, s.Shortcuts.Entries(), qt.DeepEquals, []shortcut.Entry{{Index: 2, Text: "sleep 5 &"}})
}

func TestStatus(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{exitCode: 3}
	s, _, _ := newShell("", runner)
	ctx := context.Background()

	exit, err := s.Exec(ctx, "false")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, exit, qt.IsFalse)
	qt.Assert(t, s.Status(), qt.Equals, 3)

	s.Exec(ctx, "ls |")
	qt.Assert(t, s.Status(), qt.Equals, 2)
	s.Exec(ctx, "sc -d 5")
	qt.Assert(t, s.Status(), qt.Equals, 1)
	s.Exec(ctx, "sc -i 5 ls")
	qt.Assert(t, s.Status(), qt.Equals, 0)

	exit, err = s.Exec(ctx, "please exit &")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, exit, qt.IsTrue)
}

func TestColorErrors(t *testing.T) {
	t.Parallel()
	s, _, stderr := newShell("ls |\n", &fakeRunner{})
	s.Color = true
	qt.Assert(t, s.Run(context.Background()), qt.IsNil)
	qt.Assert(t, stderr.String(), qt.Equals, "\x1b[31;1mfsh: col 5: empty command in pipeline\n\x1b[0m")
}

func TestExpandPrompt(t *testing.T) {
	t.Parallel()
	tests := []struct {
		format, cwd, want string
	}{
		{DefaultPrompt, "/tmp", "(/tmp) >> "},
		{DefaultPrompt, "/home/u", "(~) >> "},
		{DefaultPrompt, "/home/u/src", "(~/src) >> "},
		{DefaultPrompt, "/home/user2", "(/home/user2) >> "},
		{`\n\W $ `, "/home/u/src", "\nsrc $ "},
		{`a\\w\x\`, "/", `a\w\x\`},
	}
	for _, test := range tests {
		got := ExpandPrompt(test.format, test.cwd, "/home/u", false)
		qt.Assert(t, got, qt.Equals, test.want)
	}
	got := ExpandPrompt(DefaultPrompt, "/tmp", "", true)
	qt.Assert(t, got, qt.Equals, "(\x1b[34;1m/tmp\x1b[0m) >> ")
}
