// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package interp

import (
	"io"
	"os"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// chunk is the most data a single tee or splice call is asked to handle.
const chunk = 1 << 16

// duplicate copies all data read from src into every one of outs with
// tee(2) and splice(2), so that the data stays in the kernel.
//
// A link duplicates its input into two outputs: it tees into one and then
// moves the same bytes into the other. Three outputs are served by two
// links joined by an intermediate pipe.
//
// An output whose reader has gone away is dropped, and the rest keep
// receiving data. duplicate returns once src reaches end of file or no
// output is left, and it closes src and all of outs.
func duplicate(fs *fileSet, src *os.File, outs []*os.File) error {
	var g errgroup.Group
	in := src
	for i := 0; i < len(outs)-1; i++ {
		l := &link{in: in, move: outs[i]}
		if i == len(outs)-2 {
			l.tee = outs[i+1]
		} else {
			p, err := fs.pipe()
			if err != nil {
				// let the links started so far finish on their own
				closeAll(append([]*os.File{in, p.w}, outs[i:]...))
				g.Wait()
				return err
			}
			l.tee = p.w
			in = p.r
		}
		g.Go(l.run)
	}
	return g.Wait()
}

func closeAll(files []*os.File) {
	for _, f := range files {
		if f != nil {
			f.Close()
		}
	}
}

// link tees its input into one output and moves it into another.
type link struct {
	in, tee, move *os.File
}

func (l *link) run() error {
	defer func() { closeAll([]*os.File{l.in, l.tee, l.move}) }()
	in := int(l.in.Fd())
	for {
		switch {
		case l.tee == nil && l.move == nil:
			// closing our input lets the writer see a broken pipe
			return nil
		case l.tee == nil:
			l.tee, l.move = l.move, nil
			continue
		}
		n, err := unix.Tee(in, int(l.tee.Fd()), chunk, 0)
		switch err {
		case nil:
		case unix.EINTR:
			continue
		case unix.EPIPE:
			l.tee.Close()
			l.tee = nil
			continue
		default:
			return os.NewSyscallError("tee", err)
		}
		if n == 0 {
			return nil
		}
		if err := l.consume(n); err != nil {
			return err
		}
	}
}

// consume removes n bytes from the link's input, which the last tee call
// already duplicated. They are moved into the second output, or thrown away
// once that output is gone.
func (l *link) consume(n int64) error {
	in := int(l.in.Fd())
	for n > 0 {
		if l.move == nil {
			_, err := io.CopyN(io.Discard, l.in, n)
			return err
		}
		m, err := unix.Splice(in, nil, int(l.move.Fd()), nil, int(n), unix.SPLICE_F_MOVE)
		switch err {
		case nil:
		case unix.EINTR:
			continue
		case unix.EPIPE:
			l.move.Close()
			l.move = nil
			continue
		default:
			return os.NewSyscallError("splice", err)
		}
		n -= m
	}
	return nil
}
