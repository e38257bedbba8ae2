// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

// Package shortcut implements the table of saved command lines which the
// shell can replay by index after an interrupt.
package shortcut

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrNotFound is matched by every [*NotFoundError].
var ErrNotFound = errors.New("shortcut not found")

// NotFoundError is returned when no entry exists for an index.
type NotFoundError struct {
	Index int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no shortcut with index %d", e.Index)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Entry is a single saved command line.
type Entry struct {
	Index int
	Text  string
}

// Table maps indexes to command lines. The zero value is an empty table
// ready to use. A Table is owned by a single shell and is not safe for
// concurrent use.
type Table struct {
	m map[int]string
}

// Insert stores text under index, replacing any existing entry.
func (t *Table) Insert(index int, text string) {
	if t.m == nil {
		t.m = make(map[int]string)
	}
	t.m[index] = text
}

// Delete removes the entry under index. The table is left untouched if
// there is no such entry.
func (t *Table) Delete(index int) error {
	if _, ok := t.m[index]; !ok {
		return &NotFoundError{index}
	}
	delete(t.m, index)
	return nil
}

// Lookup returns the text stored under index.
func (t *Table) Lookup(index int) (string, error) {
	text, ok := t.m[index]
	if !ok {
		return "", &NotFoundError{index}
	}
	return text, nil
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.m) }

// Entries returns all entries sorted by index.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.m))
	for i, text := range t.m {
		entries = append(entries, Entry{i, text})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Index < entries[j].Index
	})
	return entries
}

// WriteTo writes the table as lines of the form "index<TAB>text", sorted
// by index.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, e := range t.Entries() {
		m, err := fmt.Fprintf(w, "%d\t%s\n", e.Index, e.Text)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ReadFrom adds the entries written by [Table.WriteTo], replacing entries
// with the same index. Blank lines and lines starting with "#" are skipped.
func (t *Table) ReadFrom(r io.Reader) (int64, error) {
	var n int64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		n += int64(len(sc.Bytes())) + 1
		s := sc.Text()
		if strings.TrimSpace(s) == "" || strings.HasPrefix(s, "#") {
			continue
		}
		idx, text, ok := strings.Cut(s, "\t")
		if !ok {
			return n, fmt.Errorf("line %d: missing tab separator", line)
		}
		i, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return n, fmt.Errorf("line %d: invalid index %q", line, idx)
		}
		if text = strings.TrimSpace(text); text == "" {
			return n, fmt.Errorf("line %d: empty command", line)
		}
		t.Insert(i, text)
	}
	return n, sc.Err()
}
