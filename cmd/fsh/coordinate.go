// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fanout-sh/fsh/interp"
	"github.com/fanout-sh/fsh/job"
)

// controlFd is where a coordinator finds the read end of its control pipe.
const controlFd = 3

// coordinatorArgs returns how the shell starts a coordinator for a line.
// The program name is kept as invoked, so that the coordinator runs as the
// same command.
func coordinatorArgs(trace bool) func(src string) []string {
	return func(src string) []string {
		args := []string{os.Args[0], "coordinate"}
		if trace {
			args = append(args, "--trace")
		}
		return append(args, "--", src)
	}
}

func newCoordinateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:    "coordinate <line>",
		Short:  "Run a single line as the coordinator of a job",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []interp.RunnerOption{interp.StdIO(os.Stdin, os.Stdout, os.Stderr)}
			var trace io.Writer
			if f.trace {
				trace = os.Stderr
				opts = append(opts, interp.Trace(os.Stderr))
			}
			ctrl := os.NewFile(controlFd, "control")
			err := job.Coordinate(cmd.Context(), ctrl, args[0], trace, opts...)
			code := job.ExitCode(err)
			if code == 0 {
				return nil
			}
			if _, ok := interp.IsExitStatus(err); !ok {
				fmt.Fprintf(os.Stderr, "fsh: %v\n", err)
			}
			return interp.ExitStatus(code)
		},
	}
}
