// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

// Package job implements job control for pipeline lines.
//
// Every line runs as a job: a coordinator process, started by the shell in
// a process group of its own, which builds and waits for the line's
// processes. The shell hands the terminal to that group for foreground
// jobs, and releases the coordinator with a two byte handshake once the
// group and terminal are set up.
package job

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/fanout-sh/fsh/interp"
	"github.com/fanout-sh/fsh/syntax"
)

// Sentinel is written on the control pipe once the coordinator may start
// running its line.
const Sentinel = "##"

// State is the lifecycle stage of a job.
type State int

const (
	Spawning State = iota
	ForegroundRunning
	BackgroundRunning
	Stopped
	Reaped
)

var stateNames = [...]string{
	Spawning:          "spawning",
	ForegroundRunning: "foreground",
	BackgroundRunning: "background",
	Stopped:           "stopped",
	Reaped:            "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Job is a coordinator process and the line it runs.
type Job struct {
	// Source is the line text, without the background marker.
	Source string

	// Pid is the coordinator's process ID, which is also the ID of the
	// job's process group.
	Pid int

	Background bool
	State      State

	// ExitCode is the coordinator's exit status once the job is reaped.
	// A coordinator killed by a signal gets 128 plus the signal number.
	ExitCode int

	// Signal is the signal which stopped or killed the coordinator, if
	// any.
	Signal syscall.Signal

	Started, Finished time.Time

	cmd *exec.Cmd
}

func (j *Job) String() string {
	return fmt.Sprintf("[%d] %s: %s", j.Pid, j.State, j.Source)
}

// update records a status reported by wait4.
func (j *Job) update(ws unix.WaitStatus, now time.Time) {
	switch {
	case ws.Stopped():
		j.State = Stopped
		j.Signal = ws.StopSignal()
		return
	case ws.Signaled():
		j.Signal = ws.Signal()
		j.ExitCode = 128 + int(j.Signal)
	default:
		j.ExitCode = ws.ExitStatus()
	}
	j.State = Reaped
	j.Finished = now
	j.cmd.Process.Release()
}

// FatalError is returned when a job could not be set up, such as when the
// coordinator could not be started. The shell cannot continue after it.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// ExitCode maps the error returned by [Coordinate] to the exit status of the
// coordinator process.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if status, ok := interp.IsExitStatus(err); ok {
		return int(status)
	}
	var perr *syntax.ParseError
	if errors.As(err, &perr) {
		return 2
	}
	return 1
}
