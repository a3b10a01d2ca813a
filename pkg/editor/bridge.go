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

package editor

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🏃 Runner starts processes.
type Runner interface {
	// Output runs name and returns what it wrote to stdout.
	Output(ctx context.Context, name string, args []string) ([]byte, error)
	// Interactive runs name attached to the terminal and waits for it.
	Interactive(ctx context.Context, name string, args []string) error
	// LookPath resolves name to an executable.
	LookPath(name string) (string, error)
}

// ExecRunner runs real processes. Zero-valued streams default to the
// process's own.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*ExecRunner)(nil)

func (r *ExecRunner) Output(ctx context.Context, name string, args []string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return out, errors.Errorf("exec %s: %w", name, err)
	}
	return out, nil
}

func (r *ExecRunner) Interactive(ctx context.Context, name string, args []string) error {
	c := exec.CommandContext(ctx, name, args...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if r.Stdin != nil {
		c.Stdin = r.Stdin
	}
	if r.Stdout != nil {
		c.Stdout = r.Stdout
	}
	if r.Stderr != nil {
		c.Stderr = r.Stderr
	}
	return c.Run()
}

func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// 🌉 Bridge round-trips documents through the editor.
type Bridge struct {
	cmd    Command
	runner Runner
	dir    string
}

// 🏭 NewBridge returns a Bridge that runs cmd through runner.
func NewBridge(cmd Command, runner Runner) *Bridge {
	return &Bridge{cmd: cmd, runner: runner}
}

// WithScratchDir places scratch files in dir instead of the system default.
func (b *Bridge) WithScratchDir(dir string) *Bridge {
	b.dir = dir
	return b
}

// Command returns the editor the bridge runs.
func (b *Bridge) Command() Command {
	return b.cmd
}

// ✏️ Edit writes doc to a private scratch file, opens it in the editor and
// returns the saved contents. The scratch file is always removed.
func (b *Bridge) Edit(ctx context.Context, doc []byte) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	args := b.cmd.Args()
	if len(args) == 0 {
		return nil, &Error{Command: "", ExitCode: -1, Err: errors.New("no editor configured")}
	}

	bin, err := b.runner.LookPath(args[0])
	if err != nil {
		return nil, &Error{Command: b.cmd.String(), ExitCode: -1, Err: err}
	}

	f, err := os.CreateTemp(b.dir, "repatch-*.diff")
	if err != nil {
		return nil, errors.Errorf("creating scratch file: %w", err)
	}
	scratch := f.Name()
	defer func() {
		if rerr := os.Remove(scratch); rerr != nil && !os.IsNotExist(rerr) {
			logger.Warn().Err(rerr).Str("path", scratch).Msg("removing scratch file")
		}
	}()

	if err := f.Chmod(0o600); err != nil {
		f.Close()
		return nil, errors.Errorf("securing scratch file: %w", err)
	}
	if _, err := f.Write(doc); err != nil {
		f.Close()
		return nil, errors.Errorf("writing scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, errors.Errorf("closing scratch file: %w", err)
	}

	logger.Debug().Str("editor", b.cmd.String()).Str("path", scratch).Msg("launching editor")

	if err := b.runner.Interactive(ctx, bin, append(args[1:], scratch)); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return nil, &Error{Command: b.cmd.String(), ExitCode: code, Err: err}
	}

	out, err := os.ReadFile(scratch)
	if err != nil {
		return nil, errors.Errorf("reading scratch file: %w", err)
	}
	return out, nil
}
