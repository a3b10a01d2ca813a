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

// Package editor hands documents to the operator's text editor and reads
// them back.
package editor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultEditor is used when nothing else names an editor.
const DefaultEditor = "vi"

// ❌ Error reports an editor that could not be started or that exited with a
// failure status.
type Error struct {
	Command  string
	ExitCode int // -1 when the editor never ran
	Err      error
}

func (e *Error) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("editor %q exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("editor %q: %v", e.Command, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// 🖊️ Command is a resolved editor invocation. It is never modified after
// Resolve returns it.
type Command struct {
	args   []string
	source string
}

// Args returns a copy of the argument vector.
func (c Command) Args() []string {
	return append([]string(nil), c.args...)
}

// Source names where the command came from, such as "$EDITOR".
func (c Command) Source() string {
	return c.source
}

func (c Command) String() string {
	return strings.Join(c.args, " ")
}

// 🔎 Sources are consulted by Resolve.
type Sources struct {
	Override string
	Getenv   func(string) string
	Runner   Runner // used for git config; nil skips it
}

// DefaultSources reads the process environment and asks git through runner.
func DefaultSources(override string, runner Runner) Sources {
	return Sources{Override: override, Getenv: os.Getenv, Runner: runner}
}

// 🎯 Resolve picks the editor: the override, then $VISUAL, $EDITOR,
// $GIT_EDITOR, git's core.editor and finally DefaultEditor. The first
// non-blank value wins and is split on whitespace; no shell is involved.
func Resolve(ctx context.Context, src Sources) (Command, error) {
	logger := zerolog.Ctx(ctx)

	if args := strings.Fields(src.Override); len(args) > 0 {
		return Command{args: args, source: "override"}, nil
	}

	if src.Getenv != nil {
		for _, name := range []string{"VISUAL", "EDITOR", "GIT_EDITOR"} {
			if args := strings.Fields(src.Getenv(name)); len(args) > 0 {
				return Command{args: args, source: "$" + name}, nil
			}
		}
	}

	if src.Runner != nil {
		out, err := src.Runner.Output(ctx, "git", []string{"config", "--null", "core.editor"})
		if err != nil {
			logger.Debug().Err(err).Msg("git core.editor unavailable")
		} else {
			out = bytes.TrimSuffix(out, []byte{0})
			if args := strings.Fields(string(out)); len(args) > 0 {
				return Command{args: args, source: "git config core.editor"}, nil
			}
		}
	}

	return Command{args: []string{DefaultEditor}, source: "default"}, nil
}

// NewCommand builds a Command from an explicit argument vector.
func NewCommand(args ...string) (Command, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return Command{}, errors.New("editor command is empty")
	}
	return Command{args: append([]string(nil), args...), source: "explicit"}, nil
}
