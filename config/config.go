// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

// Package config loads the fsh configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config holds the user's settings. The zero value of each field means its
// default.
type Config struct {
	// Prompt is the prompt format; see shell.ExpandPrompt.
	Prompt string `yaml:"prompt"`

	// Color is one of "auto", "always" or "never".
	Color string `yaml:"color" validate:"oneof=auto always never"`

	// Trace prints the topology of every line as it is built.
	Trace bool `yaml:"trace"`

	// Notify reports background jobs as they finish.
	Notify bool `yaml:"notify"`

	// Shortcuts preloads the shortcut table.
	Shortcuts map[int]string `yaml:"shortcuts" validate:"dive,required"`

	// ShortcutsFile, if set, is loaded at startup and saved on exit.
	ShortcutsFile string `yaml:"shortcuts_file"`

	// JobLog, if set, is where the job history is appended.
	JobLog string `yaml:"job_log"`
}

// Default returns the configuration used when there is no file.
func Default() *Config {
	return &Config{
		Color:  "auto",
		Notify: true,
	}
}

// Path returns the standard location of the configuration file, under
// $XDG_CONFIG_HOME or ~/.config.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "fsh", "config.yaml")
}

// Load reads the configuration at path on fsys. A missing file gives the
// defaults. Unknown keys are an error, as are invalid values.
func Load(fsys afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ShortcutsFile = expandHome(cfg.ShortcutsFile)
	cfg.JobLog = expandHome(cfg.JobLog)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})
	return validate.Struct(c)
}

// UseColor reports whether output should be coloured, given whether it goes
// to a terminal.
func (c *Config) UseColor(terminal bool) bool {
	switch c.Color {
	case "always":
		return true
	case "never":
		return false
	}
	return terminal
}
