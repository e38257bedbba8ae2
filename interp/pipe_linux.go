// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package interp

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// newPipe creates a blocking pipe. Both ends are close-on-exec, so they only
// reach the children they are explicitly handed to.
func newPipe() (pipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return pipe{}, os.NewSyscallError("pipe2", err)
	}
	return pipe{
		r: os.NewFile(uintptr(fds[0]), fmt.Sprintf("|%d", fds[0])),
		w: os.NewFile(uintptr(fds[1]), fmt.Sprintf("|%d", fds[1])),
	}, nil
}
