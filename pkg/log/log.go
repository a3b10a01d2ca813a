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

// Package log prints operator-facing run messages and mirrors them to
// zerolog.
package log

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/walteh/repatch/pkg/render"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // base width for filename
	reasonWidth = 15 // width for the failure kind
)

// 🔍 RunOperation describes a search-and-replace run for logging
type RunOperation struct {
	Pattern  string   // search pattern
	Template string   // replacement template
	Paths    []string // roots given on the command line
	Mode     string   // interactive, show or apply
}

// ⚠️ FileFailure is a file that could not be searched
type FileFailure struct {
	Path   string // file path
	Reason string // short failure kind
	Err    error  // underlying error
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog     zerolog.Logger
	console  io.Writer
	mu       sync.Mutex
	current  *RunOperation
	failures []FileFailure
}

// 🏭 New creates a new logger printing to console and mirroring to zlog
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, or one that discards
// everything
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return New(io.Discard, zerolog.Nop())
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFailure formats a file failure for display
func (l *Logger) formatFailure(f FileFailure) string {
	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", fileIndent),
		color.New(color.FgRed).Sprint("✗"),
		fmt.Sprintf("%-*s", nameWidth, render.SanitizeString(f.Path)),
		color.New(color.FgYellow).Sprint(fmt.Sprintf("%-*s", reasonWidth, f.Reason)),
		render.SanitizeString(f.Err.Error()))
}

// 📝 LogFileFailure logs a file that could not be searched
func (l *Logger) LogFileFailure(ctx context.Context, f FileFailure) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures = append(l.failures, f)
	fmt.Fprintln(l.console, l.formatFailure(f))

	l.zlog.Warn().
		Err(f.Err).
		Str("file", f.Path).
		Str("reason", f.Reason).
		Msg("file skipped")
}

// 📝 StartRun announces a run
func (l *Logger) StartRun(ctx context.Context, op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &op
	l.failures = nil

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(render.SanitizeString(op.Pattern)),
		color.New(color.Faint).Sprint("→"),
		color.New(color.FgYellow).Sprint(render.SanitizeString(op.Template)))

	l.zlog.Info().
		Str("pattern", op.Pattern).
		Str("template", op.Template).
		Strs("paths", op.Paths).
		Str("mode", op.Mode).
		Msg("starting run")
}

// 📝 LogMatches reports what the locator found
func (l *Logger) LogMatches(ctx context.Context, matches, files int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "Found %s in %s.\n", count(matches, "match", "matches"), count(files, "file", "files"))
	l.zlog.Info().Int("matches", matches).Int("files", files).Msg("matches located")
}

// 📝 EndRun closes the current run
func (l *Logger) EndRun(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	l.zlog.Info().
		Str("pattern", l.current.Pattern).
		Int("skipped_files", len(l.failures)).
		Msg("run complete")

	l.current = nil
	l.failures = nil
}

// Failures returns the files skipped during the current run
func (l *Logger) Failures() []FileFailure {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]FileFailure(nil), l.failures...)
}

// 📝 Warning prints a warning
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Warningf prints a formatted warning
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

func count(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
