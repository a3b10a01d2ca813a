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

package review

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/term"
)

// ErrInterrupted is returned by an Input when the operator pressed Ctrl-C.
var ErrInterrupted = errors.Base("interrupted")

// 🎹 Input supplies operator commands. io.EOF means no more input, which
// the session treats as quit.
type Input interface {
	ReadCommand(ctx context.Context) (rune, error)
}

// ⌨️ TerminalInput reads single keypresses from a terminal, or whole lines
// when stdin is not a terminal. At most one read is outstanding at a time: a
// read abandoned by a cancelled context is picked up by the next call, so no
// input is lost.
type TerminalInput struct {
	in      *os.File
	lines   *bufio.Reader
	pending chan readResult // outstanding read, nil when idle
}

// 🏭 NewTerminalInput reads from in.
func NewTerminalInput(in *os.File) *TerminalInput {
	return &TerminalInput{in: in, lines: bufio.NewReader(in)}
}

// IsTerminal reports whether keys can be read one at a time.
func (t *TerminalInput) IsTerminal() bool {
	return term.IsTerminal(int(t.in.Fd()))
}

type readResult struct {
	r   rune
	err error
}

// ReadCommand blocks for the next command. In raw mode Ctrl-C arrives as a
// key and is reported as ErrInterrupted. Cancelling ctx returns at once and
// leaves the terminal in its normal mode.
func (t *TerminalInput) ReadCommand(ctx context.Context) (rune, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Errorf("reading command: %w", err)
	}

	terminal := t.IsTerminal()
	if terminal {
		fd := int(t.in.Fd())
		old, err := term.MakeRaw(fd)
		if err != nil {
			return 0, errors.Errorf("entering raw mode: %w", err)
		}
		defer term.Restore(fd, old)
	}

	if t.pending == nil {
		ch := make(chan readResult, 1)
		read := t.readLine
		if terminal {
			read = t.readKey
		}
		go func() {
			r, err := read()
			ch <- readResult{r, err}
		}()
		t.pending = ch
	}

	select {
	case <-ctx.Done():
		return 0, errors.Errorf("reading command: %w", ctx.Err())
	case res := <-t.pending:
		t.pending = nil
		return res.r, res.err
	}
}

func (t *TerminalInput) readKey() (rune, error) {
	var buf [utf8.UTFMax]byte
	n := 0
	for {
		if _, err := t.in.Read(buf[n : n+1]); err != nil {
			if errors.Is(err, io.EOF) {
				return 0, io.EOF
			}
			return 0, errors.Errorf("reading key: %w", err)
		}
		n++
		if utf8.FullRune(buf[:n]) || n == len(buf) {
			break
		}
	}

	r, _ := utf8.DecodeRune(buf[:n])
	switch r {
	case 0x03: // Ctrl-C
		return 0, ErrInterrupted
	case 0x04: // Ctrl-D
		return 0, io.EOF
	}
	return r, nil
}

func (t *TerminalInput) readLine() (rune, error) {
	line, err := t.lines.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && line != "":
	case errors.Is(err, io.EOF):
		return 0, io.EOF
	default:
		return 0, errors.Errorf("reading command: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return '?', nil
	}
	r, _ := utf8.DecodeRuneInString(line)
	return r, nil
}

// 📜 ScriptInput replays a fixed sequence of keys, then reports io.EOF.
type ScriptInput struct {
	keys []rune
}

// 🏭 NewScriptInput replays keys in order.
func NewScriptInput(keys string) *ScriptInput {
	return &ScriptInput{keys: []rune(keys)}
}

// ReadCommand returns the next key.
func (s *ScriptInput) ReadCommand(ctx context.Context) (rune, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Errorf("reading command: %w", err)
	}
	if len(s.keys) == 0 {
		return 0, io.EOF
	}
	r := s.keys[0]
	s.keys = s.keys[1:]
	return r, nil
}
