// Copyright (c) 2026, The fsh Authors
// See LICENSE for licensing information

// fsh is a shell whose lines are pipelines: "|" chains which may fan out
// into two or three branches with "||" and "|||", each run as a job with
// its own process group.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fanout-sh/fsh/config"
	"github.com/fanout-sh/fsh/interp"
	"github.com/fanout-sh/fsh/job"
	"github.com/fanout-sh/fsh/joblog"
	"github.com/fanout-sh/fsh/shell"
	"github.com/fanout-sh/fsh/shortcut"
)

type flags struct {
	command string
	config  string
	trace   bool
}

func main() {
	os.Exit(main1())
}

func main1() int {
	err := newRootCmd().ExecuteContext(context.Background())
	if err == nil {
		return 0
	}
	if status, ok := interp.IsExitStatus(err); ok {
		return int(status)
	}
	fmt.Fprintf(os.Stderr, "fsh: %v\n", err)
	return 1
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:   "fsh",
		Short: "A shell with fan-out pipelines and job control",
		Long: `fsh reads lines from standard input and runs each as a job.

A line is a "|" chain of programs, optionally followed by "||" or "|||"
and two or three comma separated branches which all receive the chain's
output. Stages may redirect with "<", ">" and ">>", and a trailing "&" runs
the job in the background.

"sc -i N line" saves a shortcut; after an interrupt, typing N runs it.
"please exit" ends the session.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), &f)
		},
	}
	root.Flags().StringVarP(&f.command, "command", "c", "", "run a single line and exit with its status")
	root.PersistentFlags().StringVar(&f.config, "config", "", "config file (default "+config.Path()+")")
	root.PersistentFlags().BoolVar(&f.trace, "trace", false, "print the processes and pipes of each line")
	root.AddCommand(newCoordinateCmd(&f))
	return root
}

func runShell(ctx context.Context, f *flags) error {
	fsys := afero.NewOsFs()
	path := f.config
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(fsys, path)
	if err != nil {
		return err
	}
	if f.trace {
		cfg.Trace = true
	}
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	colored := cfg.UseColor(term.IsTerminal(int(os.Stderr.Fd())))

	table := &shortcut.Table{}
	for i, text := range cfg.Shortcuts {
		table.Insert(i, text)
	}
	if cfg.ShortcutsFile != "" {
		if err := loadShortcuts(fsys, cfg.ShortcutsFile, table); err != nil {
			return err
		}
	}

	var jlog *joblog.Log
	if cfg.JobLog != "" {
		if jlog, err = joblog.Open(fsys, cfg.JobLog); err != nil {
			return err
		}
	}

	exe, err := os.Executable()
	if err != nil {
		return err
	}
	ctl := &job.Controller{
		Path:   exe,
		Args:   coordinatorArgs(cfg.Trace),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Log:    jlog,
	}
	if interactive {
		ctl.Terminal = os.Stdin
	}
	sh := &shell.Shell{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Shortcuts: table,
		Jobs:      ctl,
		Notify:    cfg.Notify,
		Color:     colored,
	}

	if f.command != "" {
		if _, err := sh.Exec(ctx, f.command); err != nil {
			return err
		}
		if err := saveShortcuts(cfg.ShortcutsFile, table); err != nil {
			return err
		}
		if status := sh.Status(); status != 0 {
			return interp.ExitStatus(status)
		}
		return nil
	}

	if interactive {
		prompt := cfg.Prompt
		if prompt == "" {
			prompt = shell.DefaultPrompt
		}
		sh.Prompt = shell.PromptFunc(prompt, cfg.UseColor(term.IsTerminal(int(os.Stdout.Fd()))))
	}
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			sh.Interrupt()
		}
	}()

	runErr := sh.Run(ctx)
	if err := saveShortcuts(cfg.ShortcutsFile, table); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
