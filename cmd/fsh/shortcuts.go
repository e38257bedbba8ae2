// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"github.com/spf13/afero"

	"github.com/fanout-sh/fsh/shortcut"
)

// loadShortcuts adds the entries saved at path to table. A missing file is
// not an error.
func loadShortcuts(fsys afero.Fs, path string, table *shortcut.Table) error {
	f, err := fsys.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := table.ReadFrom(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// saveShortcuts replaces the file at path with the table's entries, so that
// a crash never leaves it half written. An empty path saves nothing.
func saveShortcuts(path string, table *shortcut.Table) error {
	if path == "" {
		return nil
	}
	var buf bytes.Buffer
	buf.WriteString("# fsh shortcuts: index<TAB>line\n")
	if _, err := table.WriteTo(&buf); err != nil {
		return err
	}
	return renameio.WriteFile(path, buf.Bytes(), 0o600)
}
