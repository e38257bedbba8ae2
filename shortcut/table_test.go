// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package shortcut

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestInsertLookup(t *testing.T) {
	t.Parallel()
	var tb Table
	tb.Insert(1, "ls -la")
	got, err := tb.Lookup(1)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.Equals, "ls -la")

	tb.Insert(1, "echo a | wc")
	got, err = tb.Lookup(1)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.Equals, "echo a | wc")
	qt.Assert(t, tb.Len(), qt.Equals, 1)
}

func TestLookupMissing(t *testing.T) {
	t.Parallel()
	var tb Table
	_, err := tb.Lookup(3)
	qt.Assert(t, errors.Is(err, ErrNotFound), qt.IsTrue)
	qt.Assert(t, err, qt.ErrorMatches, "no shortcut with index 3")
}

func TestDelete(t *testing.T) {
	t.Parallel()
	var tb Table
	tb.Insert(1, "ls")
	tb.Insert(2, "pwd")

	qt.Assert(t, tb.Delete(1), qt.IsNil)
	_, err := tb.Lookup(1)
	qt.Assert(t, errors.Is(err, ErrNotFound), qt.IsTrue)

	err = tb.Delete(1)
	var nf *NotFoundError
	qt.Assert(t, errors.As(err, &nf), qt.IsTrue)
	qt.Assert(t, nf.Index, qt.Equals, 1)

	// a failed delete leaves the rest alone
	qt.Assert(t, tb.Delete(9), qt.Not(qt.IsNil))
	qt.Assert(t, tb.Entries(), qt.DeepEquals, []Entry{{2, "pwd"}})
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()
	var tb Table
	tb.Insert(10, "sleep 5 &")
	tb.Insert(-1, "echo a || cat , cat")
	tb.Insert(2, "cat < in.txt > out.txt")

	var buf bytes.Buffer
	_, err := tb.WriteTo(&buf)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, buf.String(), qt.Equals,
		"-1\techo a || cat , cat\n2\tcat < in.txt > out.txt\n10\tsleep 5 &\n")

	var got Table
	_, err = got.ReadFrom(&buf)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got.Entries(), qt.DeepEquals, tb.Entries())
}

func TestReadFromErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"1 ls\n", "line 1: missing tab separator"},
		{"# comment\n\nx\tls\n", `line 3: invalid index "x"`},
		{"4\t  \n", "line 1: empty command"},
	}
	for _, test := range tests {
		test := test
		t.Run("", func(t *testing.T) {
			var tb Table
			_, err := tb.ReadFrom(strings.NewReader(test.in))
			qt.Assert(t, err, qt.ErrorMatches, test.want)
		})
	}
}
