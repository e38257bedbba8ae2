// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

//go:build !linux

package interp

import "os"

func newPipe() (pipe, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return pipe{}, err
	}
	return pipe{r, w}, nil
}
