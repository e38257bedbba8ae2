// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

// Package interp builds and runs the process topology of a parsed pipeline
// line.
//
// A [Runner] turns every stage of a [syntax.Line] into a child process,
// connecting neighbouring stages with OS pipes. A fan-out is served by
// duplicating the output of the head chain into one pipe per branch.
// Children inherit the caller's process group; job control is left to the
// job package.
package interp

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// A Runner runs pipeline lines. It holds the standard streams handed to the
// outer ends of a line, along with the environment the children run in.
//
// A Runner must be created via [New]. It may be used to run any number of
// lines, but not concurrently.
type Runner struct {
	stdin, stdout, stderr *os.File

	path []string
	env  []string
	dir  string

	trace *log.Logger
}

// New creates a new Runner, applying a number of options. If applying any of
// the options results in an error, it is returned.
//
// Any unset options fall back to their defaults: the process's standard
// streams, environment and current directory. The search path defaults to
// the PATH variable of the environment.
func New(opts ...RunnerOption) (*Runner, error) {
	r := &Runner{}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.stdin == nil || r.stdout == nil || r.stderr == nil {
		StdIO(r.stdin, r.stdout, r.stderr)(r)
	}
	if r.env == nil {
		Env(nil)(r)
	}
	if r.path == nil {
		SearchPath(filepath.SplitList(getenv(r.env, "PATH")))(r)
	}
	if r.dir == "" {
		if err := Dir("")(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RunnerOption can be passed to [New] to alter a [Runner]'s behaviour.
type RunnerOption func(*Runner) error

// StdIO configures the streams at the outer ends of every line: the input of
// the first stage, the output of each final stage, and the error stream of
// all stages. A nil file keeps the process's own stream.
//
// The streams must be files since they are handed to the children as they
// are.
func StdIO(in, out, err *os.File) RunnerOption {
	return func(r *Runner) error {
		if in == nil {
			in = os.Stdin
		}
		if out == nil {
			out = os.Stdout
		}
		if err == nil {
			err = os.Stderr
		}
		r.stdin, r.stdout, r.stderr = in, out, err
		return nil
	}
}

// SearchPath sets the directories searched for program names, in order. An
// empty element stands for the working directory.
func SearchPath(dirs []string) RunnerOption {
	return func(r *Runner) error {
		if len(dirs) == 0 {
			dirs = []string{""}
		}
		r.path = dirs
		return nil
	}
}

// Env sets the environment of the children, as "key=value" pairs. If nil, a
// copy of the current process's environment is used.
func Env(env []string) RunnerOption {
	return func(r *Runner) error {
		if env == nil {
			env = os.Environ()
		}
		r.env = env
		return nil
	}
}

// Dir sets the working directory of the children, which is also where
// relative redirect targets are resolved. If empty, the process's current
// directory is used.
func Dir(path string) RunnerOption {
	return func(r *Runner) error {
		if path == "" {
			path, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("could not get current dir: %w", err)
			}
			r.dir = path
			return nil
		}
		path, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("could not get absolute dir: %w", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("could not stat: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
		r.dir = path
		return nil
	}
}

// Trace makes the runner describe the topology it builds on w: the pipes it
// creates, the processes it starts and their exit statuses. A nil writer
// disables tracing.
func Trace(w io.Writer) RunnerOption {
	return func(r *Runner) error {
		if w == nil {
			r.trace = nil
			return nil
		}
		r.trace = log.New(w, "fsh: ", 0)
		return nil
	}
}

func (r *Runner) tracef(format string, args ...any) {
	if r.trace != nil {
		r.trace.Printf(format, args...)
	}
}

func getenv(env []string, name string) string {
	for i := len(env) - 1; i >= 0; i-- {
		if k, v, ok := strings.Cut(env[i], "="); ok && k == name {
			return v
		}
	}
	return ""
}

// ExitStatus is a non-zero status code resulting from running a line.
type ExitStatus uint8

func (s ExitStatus) Error() string { return fmt.Sprintf("exit status %d", s) }

// IsExitStatus checks whether error contains an exit status and returns it.
func IsExitStatus(err error) (status uint8, ok bool) {
	var es ExitStatus
	if errors.As(err, &es) {
		return uint8(es), true
	}
	return 0, false
}

// FatalError is returned when the topology of a line could not be built,
// such as when the process runs out of descriptors for a pipe. Any
// processes already started for the line are killed before it is returned.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }
