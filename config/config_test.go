// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package config

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/spf13/afero"
)

func TestLoadMissing(t *testing.T) {
	t.Parallel()
	cfg, err := Load(afero.NewMemMapFs(), "/etc/fsh/config.yaml")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, cfg, qt.DeepEquals, Default())
}

func TestLoad(t *testing.T) {
	t.Parallel()
	fsys := afero.NewMemMapFs()
	err := afero.WriteFile(fsys, "/c.yaml", []byte(`
prompt: '\W $ '
color: never
trace: true
notify: false
shortcuts:
  1: ls -la
  7: "echo a || cat , cat"
shortcuts_file: /tmp/fsh/shortcuts
job_log: ~/fsh/jobs.jsonl
`), 0o644)
	qt.Assert(t, err, qt.IsNil)

	cfg, err := Load(fsys, "/c.yaml")
	qt.Assert(t, err, qt.IsNil)
	home, _ := os.UserHomeDir()
	qt.Assert(t, cfg, qt.DeepEquals, &Config{
		Prompt:        `\W $ `,
		Color:         "never",
		Trace:         true,
		Notify:        false,
		Shortcuts:     map[int]string{1: "ls -la", 7: "echo a || cat , cat"},
		ShortcutsFile: "/tmp/fsh/shortcuts",
		JobLog:        filepath.Join(home, "fsh", "jobs.jsonl"),
	})
}

func TestLoadEmpty(t *testing.T) {
	t.Parallel()
	fsys := afero.NewMemMapFs()
	qt.Assert(t, afero.WriteFile(fsys, "/c.yaml", []byte("# nothing\n"), 0o644), qt.IsNil)
	cfg, err := Load(fsys, "/c.yaml")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, cfg, qt.DeepEquals, Default())
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"color: sometimes\n", `invalid config /c.yaml: .*'color' failed on the 'oneof' tag`},
		{"shortcuts:\n  1: \"\"\n", `invalid config /c.yaml: .*'shortcuts\[1\]' failed on the 'required' tag`},
		{"colour: never\n", `(?s)parse config /c.yaml: .*field colour not found.*`},
		{"trace: [\n", `(?s)parse config /c.yaml: .*`},
	}
	for _, test := range tests {
		test := test
		t.Run("", func(t *testing.T) {
			t.Parallel()
			fsys := afero.NewMemMapFs()
			qt.Assert(t, afero.WriteFile(fsys, "/c.yaml", []byte(test.in), 0o644), qt.IsNil)
			_, err := Load(fsys, "/c.yaml")
			qt.Assert(t, err, qt.ErrorMatches, test.want)
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	qt.Assert(t, Path(), qt.Equals, "/xdg/fsh/config.yaml")
}

func TestUseColor(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		color    string
		terminal bool
		want     bool
	}{
		{"auto", true, true},
		{"auto", false, false},
		{"always", false, true},
		{"never", true, false},
	} {
		cfg := &Config{Color: test.color}
		qt.Assert(t, cfg.UseColor(test.terminal), qt.Equals, test.want)
	}
}
