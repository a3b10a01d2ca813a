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
	"bytes"
	"context"
	"io"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/commit"
	"github.com/walteh/repatch/pkg/hunk"
	"github.com/walteh/repatch/pkg/patch"
	"github.com/walteh/repatch/pkg/render"
	"github.com/walteh/repatch/pkg/status"
)

// ✏️ Editor round-trips a patch document through the operator.
type Editor interface {
	Edit(ctx context.Context, doc []byte) ([]byte, error)
}

// 💾 Committer writes a reviewed file.
type Committer interface {
	Commit(ctx context.Context, tx *commit.Transaction) (commit.Result, error)
}

// 🔁 HunkSource yields the hunks of one file in line order.
type HunkSource interface {
	Next() (*hunk.Hunk, error)
	Remaining() int
}

// Mode selects how hunks are decided.
type Mode int

const (
	// Interactive prompts for every hunk.
	Interactive Mode = iota
	// Show prints every hunk and skips it.
	Show
	// Apply accepts every hunk without printing it.
	Apply
)

// Options configures a Session.
type Options struct {
	Mode      Mode
	Input     Input
	Editor    Editor
	Committer Committer
	Renderer  *render.Renderer
	Recorder  status.Recorder
}

// 🎮 Session drives a Machine across the files of a run.
type Session struct {
	opts    Options
	machine *Machine
}

// 🏭 NewSession validates opts and returns a Session.
func NewSession(opts Options) (*Session, error) {
	if opts.Committer == nil {
		return nil, errors.New("committer is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if opts.Mode == Interactive && opts.Input == nil {
		return nil, errors.New("input is required for interactive review")
	}
	if opts.Recorder == nil {
		opts.Recorder = status.NewManager()
	}
	return &Session{opts: opts, machine: NewMachine()}, nil
}

// Done reports whether the run has stopped.
func (s *Session) Done() bool {
	return s.machine.State() == Done
}

// ReviewFile presents the hunks of path and commits the file once they are
// all decided. stop is true when the run must not go on to another file;
// err is set only when the run was interrupted or the session broke.
// Problems confined to this file are rendered, recorded and swallowed.
func (s *Session) ReviewFile(ctx context.Context, path string, src HunkSource) (stop bool, err error) {
	if err := s.machine.BeginFile(path); err != nil {
		return true, err
	}

	offered := 0
	for {
		if err := ctx.Err(); err != nil {
			return s.interrupt(ctx, path, offered, err)
		}

		h, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.machine.AbandonFile()
			s.opts.Renderer.Error(err)
			s.opts.Recorder.Record(ctx, status.Outcome{Path: path, State: status.Failed, Hunks: offered, Err: err})
			return false, nil
		}

		if offered == 0 && s.opts.Mode != Apply {
			s.opts.Renderer.FileHeader(path)
		}
		offered++

		act, err := s.machine.Present(h)
		if err != nil {
			return true, err
		}
		act, err = s.decide(ctx, act, h.Index+1, h.Index+1+src.Remaining())
		if err != nil {
			if interruption(err) {
				return s.interrupt(ctx, path, offered, err)
			}
			return true, err
		}
		if act.Kind == ActionCommit {
			return s.commit(ctx, path, offered)
		}
	}

	if offered == 0 {
		s.machine.AbandonFile()
		return false, nil
	}
	if _, err := s.machine.EndFile(); err != nil {
		return true, err
	}
	return s.commit(ctx, path, offered)
}

func (s *Session) decide(ctx context.Context, act Action, pos, total int) (Action, error) {
	shown := false
	for {
		if err := ctx.Err(); err != nil {
			return act, err
		}

		var err error
		switch act.Kind {
		case ActionNext, ActionCommit:
			return act, nil

		case ActionPrompt:
			if !shown && s.opts.Mode != Apply {
				s.opts.Renderer.Hunk(act.Hunk)
				shown = true
			}
			var cmd Command
			if cmd, err = s.readCommand(ctx, pos, total); err != nil {
				return act, err
			}
			act, err = s.machine.Handle(KeyEvent{Command: cmd})

		case ActionHelp:
			s.opts.Renderer.Help(helpItems())
			act = Action{Kind: ActionPrompt, Hunk: act.Hunk}

		case ActionEdit:
			got, eerr := s.edit(ctx, act.Hunk)
			if eerr != nil {
				if interruption(eerr) {
					return act, eerr
				}
				zerolog.Ctx(ctx).Debug().Err(eerr).Msg("edit rejected")
				s.opts.Renderer.Error(eerr)
				shown = false
			}
			act, err = s.machine.Handle(EditorEvent{Hunks: got, Err: eerr})

		default:
			return act, errors.Errorf("unexpected action %s", act.Kind)
		}

		if err != nil {
			return act, err
		}
	}
}

func (s *Session) readCommand(ctx context.Context, pos, total int) (Command, error) {
	switch s.opts.Mode {
	case Show:
		return Skip, nil
	case Apply:
		return Accept, nil
	}

	s.opts.Renderer.Prompt(pos, total, promptKeys())
	r, err := s.opts.Input.ReadCommand(ctx)
	if errors.Is(err, io.EOF) {
		s.opts.Renderer.Decision(Quit.String())
		return Quit, nil
	}
	if err != nil {
		s.opts.Renderer.Decision("")
		return 0, err
	}
	s.opts.Renderer.Decision(string(r))
	return Command(r), nil
}

// edit sends h to the editor as a one-hunk document and returns the
// reconciled result.
func (s *Session) edit(ctx context.Context, h *hunk.Hunk) ([]*hunk.Hunk, error) {
	if s.opts.Editor == nil {
		return nil, errors.New("no editor available")
	}

	sent := h.Clone()
	sent.Decision = hunk.Pending

	var buf bytes.Buffer
	if err := patch.EncodeForEdit(&buf, []*hunk.Hunk{sent}); err != nil {
		return nil, err
	}
	out, err := s.opts.Editor.Edit(ctx, buf.Bytes())
	if err != nil {
		return nil, err
	}
	got, err := patch.Decode(out)
	if err != nil {
		return nil, err
	}
	if err := patch.Reconcile([]*hunk.Hunk{sent}, got); err != nil {
		return nil, err
	}
	return got, nil
}

func (s *Session) commit(ctx context.Context, path string, offered int) (bool, error) {
	res, err := s.opts.Committer.Commit(ctx, s.machine.Transaction())

	o := status.Outcome{Path: path, Hunks: offered, Err: err}
	var stale *commit.StaleHunkError
	switch {
	case err == nil && res.Changed:
		o.State = status.Modified
		o.Applied = res.Applied
	case err == nil:
		o.State = status.Unchanged
	case interruption(err):
		o.State = status.Interrupted
	case errors.As(err, &stale):
		o.State = status.Stale
	default:
		o.State = status.Failed
	}
	if err != nil && !interruption(err) {
		s.opts.Renderer.Error(err)
	}
	s.opts.Recorder.Record(ctx, o)

	act, herr := s.machine.Handle(CommitEvent{Result: res, Err: err})
	if herr != nil {
		return true, herr
	}
	if interruption(err) {
		s.machine.Interrupt()
		return true, errors.Errorf("review of %s interrupted: %w", path, err)
	}
	return act.Kind == ActionStop, nil
}

func (s *Session) interrupt(ctx context.Context, path string, offered int, cause error) (bool, error) {
	s.machine.Interrupt()
	if offered > 0 {
		s.opts.Recorder.Record(ctx, status.Outcome{Path: path, State: status.Interrupted, Hunks: offered, Err: cause})
	}
	return true, errors.Errorf("review of %s interrupted: %w", path, cause)
}

func interruption(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func promptKeys() []string {
	keys := make([]string, len(Commands))
	for i, c := range Commands {
		keys[i] = c.String()
	}
	return keys
}

func helpItems() []render.HelpItem {
	items := make([]render.HelpItem, len(Commands))
	for i, c := range Commands {
		items[i] = render.HelpItem{Key: c.String(), Text: c.Help()}
	}
	return items
}
