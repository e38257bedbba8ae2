// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package interp

import (
	"os"
	"slices"
)

// pipe is the pair of ends of an OS pipe.
type pipe struct {
	r, w *os.File
}

// fileSet holds the descriptors a line owns while it is being run. Ends are
// closed as soon as the children which need them have been started, and
// closeAll releases whatever is left once the line is done, so that no
// descriptor outlives its line.
type fileSet struct {
	files []*os.File
}

func (s *fileSet) pipe() (pipe, error) {
	p, err := newPipe()
	if err != nil {
		return pipe{}, &FatalError{"pipe", err}
	}
	s.files = append(s.files, p.r, p.w)
	return p, nil
}

func (s *fileSet) close(f *os.File) {
	if i := slices.Index(s.files, f); i >= 0 {
		s.files = slices.Delete(s.files, i, i+1)
	}
	f.Close()
}

func (s *fileSet) closeAll() {
	for _, f := range s.files {
		f.Close()
	}
	s.files = nil
}
