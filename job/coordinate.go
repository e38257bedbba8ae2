// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package job

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/fanout-sh/fsh/interp"
	"github.com/fanout-sh/fsh/syntax"
)

// Coordinate is the body of a coordinator process. It blocks until
// [Sentinel] is read from ctrl, then parses src and runs it with a runner
// built from opts, returning the line's result. ctrl is closed once the
// handshake is over, so that the line's processes never inherit it.
//
// Interrupts are received rather than left to kill the coordinator, so that
// it outlives the processes of its line and reports their status. Those
// processes get the default disposition back when they start.
//
// If trace is not nil, the coordinator's process IDs and the terminal's
// foreground group are printed to it once the handshake is done.
func Coordinate(ctx context.Context, ctrl io.ReadCloser, src string, trace io.Writer, opts ...interp.RunnerOption) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)

	var buf [len(Sentinel)]byte
	_, err := io.ReadFull(ctrl, buf[:])
	ctrl.Close()
	if err != nil {
		return &FatalError{"control pipe", err}
	}
	if string(buf[:]) != Sentinel {
		return &FatalError{"control pipe", fmt.Errorf("unexpected handshake %q", buf[:])}
	}
	if trace != nil {
		logger := log.New(trace, "fsh: ", 0)
		logger.Printf("coordinator pid %d, pgid %d", os.Getpid(), unix.Getpgrp())
		if pgrp, err := tcgetpgrp(0); err == nil {
			logger.Printf("terminal foreground pgid %d", pgrp)
		}
	}

	line, err := syntax.Parse(src)
	if err != nil {
		return err
	}
	r, err := interp.New(opts...)
	if err != nil {
		return &FatalError{"coordinator", err}
	}
	return r.Run(ctx, line)
}
