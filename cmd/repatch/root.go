// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"io"
	"os"
	"syscall"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/commit"
	"github.com/walteh/repatch/pkg/config"
	"github.com/walteh/repatch/pkg/editor"
	"github.com/walteh/repatch/pkg/lines"
	"github.com/walteh/repatch/pkg/locate"
	"github.com/walteh/repatch/pkg/log"
	"github.com/walteh/repatch/pkg/operation"
	"github.com/walteh/repatch/pkg/render"
	"github.com/walteh/repatch/pkg/review"
	"github.com/walteh/repatch/pkg/status"
	"github.com/walteh/repatch/pkg/text"
)

// Exit statuses.
const (
	exitOK          = 0
	exitError       = 1
	exitLost        = 2
	exitInterrupted = 130
)

// errLost is returned when some reviewed files could not be written.
var errLost = errors.Base("some accepted edits were not written")

// streams are the process's standard files.
type streams struct {
	stdin  *os.File
	stdout io.Writer
	stderr io.Writer
}

// handler holds the flags that are not settings.
type handler struct {
	streams
	configFile string
}

// 🌳 newRootCommand builds the repatch command
func newRootCommand(s streams) *cobra.Command {
	h := &handler{streams: s}

	cmd := &cobra.Command{
		Use:   "repatch [flags] FIND REPLACE PATH...",
		Short: "Interactively replace a regular expression across files",
		Long: `repatch searches PATH for the regular expression FIND and offers every
change as a hunk, like git add --patch. REPLACE may refer to capture groups
as $1, ${1} or ${name}; $$ is a literal dollar.`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       GetVersionInfo().Version,
		RunE:          h.run,
	}
	cmd.SetVersionTemplate(FormatVersion())
	cmd.SetOut(s.stdout)
	cmd.SetErr(s.stderr)

	addFlags(cmd, h)
	return cmd
}

// addFlags registers the flags. Setting flags are named after their
// config key so viper can bind them.
func addFlags(cmd *cobra.Command, h *handler) {
	f := cmd.Flags()
	f.StringVarP(&h.configFile, "config", "c", "", "config file (default: .repatch.{yaml,yml,hcl,json} if present)")
	f.BoolP("ignore-case", "i", false, "match case-insensitively")
	f.Bool("ignore-errors", false, "exit 0 even when some files could not be read")
	f.String("context", config.FormatContext(config.DefaultContext), `unchanged lines around each change, or "infinite"`)
	f.Bool("show", false, "print every hunk without changing anything")
	f.Bool("apply", false, "accept every hunk without prompting")
	f.String("editor", "", "editor for the e command (default: $VISUAL, $EDITOR, git core.editor, vi)")
	f.StringSlice("include", nil, "only search files matching these globs")
	f.StringSlice("exclude", nil, "skip files matching these globs")
	f.Bool("hidden", false, "search hidden files and directories")
	f.Int("workers", 0, "files searched in parallel (default: GOMAXPROCS)")
	f.Int("max-line-length", lines.DefaultMaxLineLength, "longest line read, in bytes")
	f.BoolP("debug", "d", false, "enable debug logging")
	f.String("log-file", "", "write JSON logs to this file")
	f.Bool("no-color", false, "disable colored output")

	cmd.MarkFlagsMutuallyExclusive("show", "apply")
}

func (h *handler) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	settings, err := config.LoadSettings(ctx, config.LoadOptions{
		ConfigFile: h.configFile,
		SearchDir:  ".",
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return errors.Errorf("loading settings: %w", err)
	}

	zlog, closeLog, err := setupLogging(settings, h.stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx = zlog.WithContext(ctx)

	if settings.NoColor {
		color.NoColor = true
		pterm.DisableColor()
	}

	pattern, template, paths := args[0], args[1], args[2:]

	contextLines, err := settings.ContextLines()
	if err != nil {
		return err
	}

	loc, err := locate.New(locate.Options{
		Pattern:       pattern,
		IgnoreCase:    settings.IgnoreCase,
		Include:       settings.Include,
		Exclude:       settings.Exclude,
		Hidden:        settings.Hidden,
		Workers:       settings.Workers,
		MaxLineLength: settings.MaxLineLength,
	})
	if err != nil {
		return err
	}

	rep, err := text.NewReplacer(loc.Regexp(), template)
	if err != nil {
		return errors.Errorf("parsing replacement: %w", err)
	}

	mode := modeFor(settings)
	outcomes := status.NewManager()

	session, err := h.newSession(ctx, settings, mode, outcomes)
	if err != nil {
		return err
	}

	ulog := log.New(h.stdout, zlog)
	ctx = log.NewContext(ctx, ulog)

	op, err := operation.NewReplaceOperation(operation.Options{
		Paths:         paths,
		Locator:       loc,
		Replacer:      rep,
		ContextLines:  contextLines,
		MaxLineLength: settings.MaxLineLength,
		IgnoreErrors:  settings.IgnoreErrors,
		Reviewer:      session,
		Status:        outcomes,
		Verbose:       settings.Debug,
		Console:       h.stdout,
	})
	if err != nil {
		return err
	}

	ulog.StartRun(ctx, log.RunOperation{
		Pattern:  pattern,
		Template: template,
		Paths:    paths,
		Mode:     modeName(mode),
	})
	defer ulog.EndRun(ctx)

	runner := operation.NewRunner(&zlog, os.Interrupt, syscall.SIGTERM)
	if err := runner.Run(ctx, op); err != nil {
		return err
	}

	if outcomes.Totals().Lost > 0 {
		return errLost
	}
	return nil
}

func (h *handler) newSession(ctx context.Context, settings *config.Settings, mode review.Mode, rec status.Recorder) (*review.Session, error) {
	opts := review.Options{
		Mode:      mode,
		Committer: commit.New(settings.MaxLineLength),
		Renderer:  render.New(h.stdout),
		Recorder:  rec,
	}

	if mode == review.Interactive {
		runner := &editor.ExecRunner{Stdin: h.stdin, Stdout: h.stdout, Stderr: h.stderr}
		command, err := editor.Resolve(ctx, editor.DefaultSources(settings.Editor, runner))
		if err != nil {
			return nil, errors.Errorf("resolving editor: %w", err)
		}
		opts.Input = review.NewTerminalInput(h.stdin)
		opts.Editor = editor.NewBridge(command, runner)
	}

	return review.NewSession(opts)
}

func modeFor(s *config.Settings) review.Mode {
	switch {
	case s.Show:
		return review.Show
	case s.Apply:
		return review.Apply
	default:
		return review.Interactive
	}
}

func modeName(m review.Mode) string {
	switch m {
	case review.Show:
		return "show"
	case review.Apply:
		return "apply"
	default:
		return "interactive"
	}
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errLost):
		return exitLost
	case errors.Is(err, review.ErrInterrupted), errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitError
	}
}
