// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

//go:build unix

package job

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

func tcgetpgrp(fd int) (int, error) {
	return unix.IoctlGetInt(fd, unix.TIOCGPGRP)
}

// tcsetpgrp makes pgrp the foreground process group of the terminal at fd.
//
// SIGTTOU is ignored for the duration of the call, since a shell taking the
// terminal back does so from a background group. The signal is restored
// right after, so that no child inherits the ignored disposition.
func tcsetpgrp(fd, pgrp int) error {
	signal.Ignore(syscall.SIGTTOU)
	defer signal.Reset(syscall.SIGTTOU)
	return unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgrp)
}

// setpgid puts pid in a group of its own. The child also does so before it
// execs, so EACCES from a child which already exec'd is fine as long as the
// group is the right one.
func setpgid(pid int) error {
	err := unix.Setpgid(pid, pid)
	if err == nil {
		return nil
	}
	if err == unix.EACCES {
		if pgid, gerr := unix.Getpgid(pid); gerr == nil && pgid == pid {
			return nil
		}
	}
	return os.NewSyscallError("setpgid", err)
}

// foreground reports whether the calling process's group owns the terminal
// at fd.
func foreground(fd int) bool {
	pgrp, err := tcgetpgrp(fd)
	return err == nil && pgrp == unix.Getpgrp()
}
