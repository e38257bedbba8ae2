// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

// Package joblog records the history of jobs run by the shell as an
// append-only file of JSON lines.
package joblog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// Entry is one record in the log.
type Entry struct {
	Seq        uint64    `json:"seq"`
	Time       time.Time `json:"ts"`
	Line       string    `json:"line"`
	Pid        int       `json:"pid"`
	Background bool      `json:"background"`
	State      string    `json:"state"`
	ExitCode   int       `json:"exit_code"`
	Signal     string    `json:"signal,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Cwd        string    `json:"cwd,omitempty"`
}

// Log appends entries to a file. A nil *Log discards all entries.
type Log struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
	seq  uint64

	// Now returns the time stamped on entries without one.
	Now func() time.Time
}

// Open opens or creates the log at path on fsys. Sequence numbers carry on
// from the last entry already in the file.
func Open(fsys afero.Fs, path string) (*Log, error) {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create job log dir: %w", err)
	}
	l := &Log{fs: fsys, path: path, Now: time.Now}
	data, err := afero.ReadFile(fsys, path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read job log: %w", err)
	}
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	if last := lines[len(lines)-1]; len(last) > 0 {
		var e Entry
		if err := json.Unmarshal(last, &e); err == nil {
			l.seq = e.Seq
		}
	}
	return l, nil
}

// Record appends an entry, assigning its sequence number.
func (l *Log) Record(e Entry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	e.Seq = l.seq
	if e.Time.IsZero() {
		e.Time = l.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal job log entry: %w", err)
	}
	data = append(data, '\n')

	f, err := l.fs.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open job log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write job log entry: %w", err)
	}
	return nil
}

// ReadAll returns every entry in the log at path.
func ReadAll(fsys afero.Fs, path string) ([]Entry, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return entries, fmt.Errorf("entry %d: %w", len(entries)+1, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
