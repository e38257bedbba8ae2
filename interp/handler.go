// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package interp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NotFoundError is returned by [LookPath] when no executable file exists
// for a program name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return e.Name + ": command not found"
}

func checkStat(dir, file string) (string, error) {
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	info, err := os.Stat(file)
	if err != nil {
		return "", err
	}
	m := info.Mode()
	if m.IsDir() {
		return "", fmt.Errorf("is a directory")
	}
	if m&0o111 == 0 {
		return "", fmt.Errorf("permission denied")
	}
	return file, nil
}

// LookPath resolves a program name to an executable file, relative to the
// working directory dir.
//
// Names containing a slash are used as they are. Any other name is searched
// for in each of the path directories, in order, and the first executable
// regular file wins.
func LookPath(path []string, dir, file string) (string, error) {
	if strings.Contains(file, "/") {
		if f, err := checkStat(dir, file); err == nil {
			return f, nil
		}
		return "", &NotFoundError{file}
	}
	for _, elem := range path {
		var p string
		switch elem {
		case "", ".":
			// otherwise "foo" won't be "./foo"
			p = "." + string(filepath.Separator) + file
		default:
			p = filepath.Join(elem, file)
		}
		if f, err := checkStat(dir, p); err == nil {
			return f, nil
		}
	}
	return "", &NotFoundError{file}
}

// openRedirect opens the target of a redirect, relative to the runner's
// directory. Input targets must exist; output targets are created with mode
// 0664 and either truncated or appended to.
func (r *Runner) openRedirect(name string, output, appnd bool) (*os.File, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.dir, path)
	}
	flag := os.O_RDONLY
	if output {
		flag = os.O_WRONLY | os.O_CREATE
		if appnd {
			flag |= os.O_APPEND
		} else {
			flag |= os.O_TRUNC
		}
	}
	f, err := os.OpenFile(path, flag, 0o664)
	if err != nil {
		var perr *os.PathError
		if errors.As(err, &perr) {
			// report the name as written on the line
			return nil, fmt.Errorf("%s: %w", name, perr.Err)
		}
		return nil, err
	}
	return f, nil
}
