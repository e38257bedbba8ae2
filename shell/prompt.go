// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

package shell

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// DefaultPrompt shows the working directory, as in "(/tmp) >> ".
const DefaultPrompt = `(\w) >> `

// ExpandPrompt expands the escapes in a prompt format:
//
//	\w  the working directory, with the home directory shown as "~"
//	\W  the base name of the working directory
//	\n  a newline
//	\\  a backslash
//
// With colored set, the directory is printed in bold blue.
func ExpandPrompt(format, cwd, home string, colored bool) string {
	dir := cwd
	if home != "" && (cwd == home || strings.HasPrefix(cwd, home+"/")) {
		dir = "~" + strings.TrimPrefix(cwd, home)
	}
	base := filepath.Base(cwd)
	if colored {
		c := color.New(color.FgBlue, color.Bold)
		c.EnableColor()
		dir = c.Sprint(dir)
		base = c.Sprint(base)
	}

	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '\\' || i+1 == len(format) {
			sb.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'w':
			sb.WriteString(dir)
		case 'W':
			sb.WriteString(base)
		case 'n':
			sb.WriteByte('\n')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(format[i])
		}
	}
	return sb.String()
}

// PromptFunc returns a prompt which expands format with the working
// directory at the time it is printed.
func PromptFunc(format string, colored bool) func() string {
	return func() string {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "?"
		}
		home, _ := os.UserHomeDir()
		return ExpandPrompt(format, cwd, home, colored)
	}
}
