// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package job

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/fanout-sh/fsh/joblog"
)

// Controller starts jobs and keeps track of those which are not done yet.
// It is owned by a single shell and is not safe for concurrent use.
type Controller struct {
	// Path is the executable started as the coordinator. If empty, the
	// current executable is used.
	Path string

	// Args returns the arguments for a coordinator running src, starting
	// with the program name. If nil, the coordinator is started as
	// "Path coordinate -- src".
	Args func(src string) []string

	// Env and Dir are the environment and working directory of the
	// coordinator. If nil or empty, the shell's own are used.
	Env []string
	Dir string

	// Stdin, Stdout and Stderr are inherited by the coordinator and so by
	// every line it runs. Nil files mean the null device.
	Stdin, Stdout, Stderr *os.File

	// Terminal is the controlling terminal handed to foreground jobs. If
	// nil, no terminal handoff takes place.
	Terminal *os.File

	// Log, if not nil, records every job.
	Log *joblog.Log

	jobs []*Job
}

func (c *Controller) command(src string) (*exec.Cmd, error) {
	path := c.Path
	if path == "" {
		var err error
		if path, err = os.Executable(); err != nil {
			return nil, err
		}
	}
	var args []string
	if c.Args != nil {
		args = c.Args(src)
	} else {
		args = []string{path, "coordinate", "--", src}
	}
	cmd := &exec.Cmd{Path: path, Args: args, Env: c.Env, Dir: c.Dir}
	// a nil *os.File must not end up in a non-nil interface
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return cmd, nil
}

// Run starts a job for the line src.
//
// The coordinator starts in a new process group and waits on the control
// pipe. Once the group is set, and for a foreground job the terminal is
// handed to it, the shell writes [Sentinel] on the pipe.
//
// A background job is recorded and returned right away, in the
// BackgroundRunning state. A foreground job is waited for: it is returned
// once it is reaped or stopped, and the terminal is given back to the
// shell's process group.
//
// Failing to set up the job returns a [*FatalError].
func (c *Controller) Run(ctx context.Context, src string, background bool) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd, err := c.command(src)
	if err != nil {
		return nil, &FatalError{"coordinator", err}
	}
	ctrlR, ctrlW, err := os.Pipe()
	if err != nil {
		return nil, &FatalError{"control pipe", err}
	}
	defer ctrlW.Close()
	cmd.ExtraFiles = []*os.File{ctrlR}

	j := &Job{Source: src, Background: background, State: Spawning, cmd: cmd}
	err = cmd.Start()
	ctrlR.Close()
	if err != nil {
		return nil, &FatalError{"start coordinator", err}
	}
	j.Pid = cmd.Process.Pid
	j.Started = time.Now()

	if err := setpgid(j.Pid); err != nil {
		c.abort(j)
		return nil, &FatalError{"process group", err}
	}
	handoff := !background && c.Terminal != nil && foreground(int(c.Terminal.Fd()))
	if handoff {
		if err := tcsetpgrp(int(c.Terminal.Fd()), j.Pid); err != nil {
			c.abort(j)
			return nil, &FatalError{"terminal handoff", err}
		}
	}
	if _, err := ctrlW.Write([]byte(Sentinel)); err != nil {
		c.abort(j)
		c.reclaim(handoff)
		return nil, &FatalError{"control pipe", err}
	}

	if background {
		j.State = BackgroundRunning
		c.jobs = append(c.jobs, j)
		c.record(j)
		return j, nil
	}

	j.State = ForegroundRunning
	werr := c.wait(j, unix.WUNTRACED)
	c.reclaim(handoff)
	if werr != nil {
		return j, &FatalError{"wait", werr}
	}
	if j.State == Stopped {
		c.jobs = append(c.jobs, j)
	}
	c.record(j)
	return j, nil
}

// abort kills a coordinator which never got its handshake.
func (c *Controller) abort(j *Job) {
	j.cmd.Process.Kill()
	c.wait(j, 0)
}

// reclaim gives the terminal back to the shell's process group.
func (c *Controller) reclaim(handoff bool) {
	if handoff {
		tcsetpgrp(int(c.Terminal.Fd()), unix.Getpgrp())
	}
}

// wait waits for a state change of the coordinator, retrying on EINTR. With
// WNOHANG, a job with nothing to report keeps its state.
func (c *Controller) wait(j *Job, options int) error {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(j.Pid, &ws, options, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return os.NewSyscallError("wait4", err)
		}
		if pid == j.Pid {
			j.update(ws, time.Now())
		}
		return nil
	}
}

// Jobs returns the jobs which have not been reaped yet.
func (c *Controller) Jobs() []*Job {
	return append([]*Job(nil), c.jobs...)
}

// Reap collects every job which finished since the last call, without
// blocking, and returns them.
func (c *Controller) Reap() []*Job {
	var done []*Job
	kept := c.jobs[:0]
	for _, j := range c.jobs {
		if err := c.wait(j, unix.WNOHANG); err != nil {
			// not our child anymore; nothing left to wait for
			j.State = Reaped
		}
		if j.State == Reaped {
			done = append(done, j)
			c.record(j)
			continue
		}
		kept = append(kept, j)
	}
	clear(c.jobs[len(kept):])
	c.jobs = kept
	return done
}

func (c *Controller) record(j *Job) {
	if c.Log == nil {
		return
	}
	e := joblog.Entry{
		Line:       j.Source,
		Pid:        j.Pid,
		Background: j.Background,
		State:      j.State.String(),
		ExitCode:   j.ExitCode,
		Cwd:        c.Dir,
	}
	if e.Cwd == "" {
		e.Cwd, _ = os.Getwd()
	}
	if j.Signal != 0 {
		e.Signal = j.Signal.String()
	}
	if !j.Finished.IsZero() {
		e.DurationMS = j.Finished.Sub(j.Started).Milliseconds()
	}
	if err := c.Log.Record(e); err != nil && c.Stderr != nil {
		fmt.Fprintf(c.Stderr, "fsh: %v\n", err)
	}
}
