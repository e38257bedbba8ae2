// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

//go:build !linux

package interp

import (
	"io"
	"os"
)

// duplicate copies all data read from src into every one of outs. Without
// tee(2), the data passes through a user space buffer.
func duplicate(fs *fileSet, src *os.File, outs []*os.File) error {
	defer src.Close()
	w := &fanWriter{outs: outs}
	defer w.closeAll()
	_, err := io.Copy(w, src)
	if err == io.ErrClosedPipe {
		return nil
	}
	return err
}

// fanWriter writes to all of its outputs, dropping those which fail.
type fanWriter struct {
	outs []*os.File
}

func (w *fanWriter) Write(p []byte) (int, error) {
	left := 0
	for i, f := range w.outs {
		if f == nil {
			continue
		}
		if _, err := f.Write(p); err != nil {
			f.Close()
			w.outs[i] = nil
			continue
		}
		left++
	}
	if left == 0 {
		return 0, io.ErrClosedPipe
	}
	return len(p), nil
}

func (w *fanWriter) closeAll() {
	for _, f := range w.outs {
		if f != nil {
			f.Close()
		}
	}
}
