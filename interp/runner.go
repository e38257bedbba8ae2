// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package interp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/fanout-sh/fsh/syntax"
)

// proc is a stage along with the process started for it, if any.
type proc struct {
	stage  *syntax.Stage
	p      *os.Process
	status int
}

// Run runs a line to completion and waits for all of its processes.
//
// Failures which only affect a single stage, such as a program which cannot
// be found or a redirect target which cannot be opened, are reported on the
// error stream and give that stage a non-zero status; the rest of the line
// still runs. The status of the line is that of the final stage of the head
// chain, or with a fan-out, the first non-zero status among the final
// stages of the branches. A non-zero status is returned as an [ExitStatus].
//
// A [*FatalError] is returned if the topology could not be built.
func (r *Runner) Run(ctx context.Context, line *syntax.Line) error {
	var fs fileSet
	defer fs.closeAll()

	if line.FanOut == nil {
		head, err := r.startChain(ctx, &fs, line.Head, r.stdin, r.stdout)
		if err != nil {
			r.kill(head)
			return err
		}
		r.wait(head)
		return exitStatus(last(head).status)
	}

	src, err := fs.pipe()
	if err != nil {
		return err
	}
	r.tracef("fan-out source pipe: read end %d, write end %d", src.r.Fd(), src.w.Fd())
	started, err := r.startChain(ctx, &fs, line.Head, r.stdin, src.w)
	fs.close(src.w)
	if err != nil {
		r.kill(started)
		return err
	}

	// Branches are started before any data is duplicated, so that a head
	// chain writing more than a pipe's capacity never blocks forever.
	var outs []*os.File
	var finals []*proc
	for i, branch := range line.FanOut.Branches {
		bp, err := fs.pipe()
		if err != nil {
			r.kill(started)
			return err
		}
		r.tracef("branch %d pipe: read end %d, write end %d", i+1, bp.r.Fd(), bp.w.Fd())
		procs, err := r.startChain(ctx, &fs, branch, bp.r, r.stdout)
		fs.close(bp.r)
		started = append(started, procs...)
		if err != nil {
			r.kill(started)
			return err
		}
		outs = append(outs, bp.w)
		finals = append(finals, last(procs))
	}

	dupErr := duplicate(&fs, src.r, outs)
	r.wait(started)
	if dupErr != nil {
		return &FatalError{"fan-out", dupErr}
	}
	for _, pr := range finals {
		if pr.status != 0 {
			return exitStatus(pr.status)
		}
	}
	return nil
}

func last(procs []*proc) *proc { return procs[len(procs)-1] }

func exitStatus(status int) error {
	if status == 0 {
		return nil
	}
	return ExitStatus(status)
}

// startChain starts every stage of a chain, reading the first stage's input
// from in and writing the last stage's output to out. The pipes between
// stages are all created up front, and each end is closed as soon as the
// stage using it has been started.
//
// On error, the returned slice holds the stages handled so far.
func (r *Runner) startChain(ctx context.Context, fs *fileSet, c *syntax.Chain, in, out *os.File) ([]*proc, error) {
	n := len(c.Stages)
	pipes := make([]pipe, n-1)
	for i := range pipes {
		p, err := fs.pipe()
		if err != nil {
			return nil, err
		}
		r.tracef("pipe between %q and %q: read end %d, write end %d",
			c.Stages[i].Program, c.Stages[i+1].Program, p.r.Fd(), p.w.Fd())
		pipes[i] = p
	}

	procs := make([]*proc, 0, n)
	for i, st := range c.Stages {
		stdin, stdout := in, out
		if i > 0 {
			stdin = pipes[i-1].r
		}
		if i < n-1 {
			stdout = pipes[i].w
		}
		pr := &proc{stage: st}
		procs = append(procs, pr)
		if err := ctx.Err(); err != nil {
			return procs, err
		}
		if err := r.start(pr, stdin, stdout); err != nil {
			return procs, err
		}
		if i > 0 {
			fs.close(pipes[i-1].r)
		}
		if i < n-1 {
			fs.close(pipes[i].w)
		}
	}
	return procs, nil
}

// start starts the process for a single stage. Only a fatal error is
// returned; a stage which cannot run records its status and is skipped.
func (r *Runner) start(pr *proc, stdin, stdout *os.File) error {
	st := pr.stage
	if st.RedirIn != "" {
		f, err := r.openRedirect(st.RedirIn, false, false)
		if err != nil {
			r.errf("%v", err)
			pr.status = 1
			return nil
		}
		defer f.Close()
		stdin = f
	}
	if st.RedirOut != "" {
		f, err := r.openRedirect(st.RedirOut, true, st.Append)
		if err != nil {
			r.errf("%v", err)
			pr.status = 1
			return nil
		}
		defer f.Close()
		stdout = f
	}

	path, err := LookPath(r.path, r.dir, st.Program)
	if err != nil {
		r.errf("%v", err)
		pr.status = 127
		return nil
	}
	p, err := os.StartProcess(path, st.Args, &os.ProcAttr{
		Dir:   r.dir,
		Env:   r.env,
		Files: []*os.File{stdin, stdout, r.stderr},
	})
	if err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM) {
			return &FatalError{"fork", err}
		}
		// the program was found but could not be executed
		r.errf("%s: %v", st.Program, unwrapPath(err))
		pr.status = 126
		return nil
	}
	pr.p = p
	r.tracef("started %q as pid %d", st.String(), p.Pid)
	return nil
}

func unwrapPath(err error) error {
	var perr *os.PathError
	if errors.As(err, &perr) {
		return perr.Err
	}
	return err
}

func (r *Runner) errf(format string, args ...any) {
	fmt.Fprintf(r.stderr, "fsh: "+format+"\n", args...)
}

// wait waits for every started process and records its status. A process
// killed by a signal gets the status 128 plus the signal number.
func (r *Runner) wait(procs []*proc) {
	for _, pr := range procs {
		if pr.p == nil {
			continue
		}
		state, err := pr.p.Wait()
		if err != nil {
			pr.status = 1
			continue
		}
		ws, _ := state.Sys().(syscall.WaitStatus)
		if ws.Signaled() {
			pr.status = 128 + int(ws.Signal())
		} else {
			pr.status = state.ExitCode()
		}
		r.tracef("pid %d exited with status %d", pr.p.Pid, pr.status)
	}
}

// kill tears down the processes started for a line which could not be
// fully built.
func (r *Runner) kill(procs []*proc) {
	for _, pr := range procs {
		if pr.p != nil {
			pr.p.Kill()
		}
	}
	r.wait(procs)
}
