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

// Package review walks an operator through hunks one at a time and commits
// each file once every hunk in it has been decided.
package review

import (
	"fmt"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/commit"
	"github.com/walteh/repatch/pkg/hunk"
)

// ErrInvalidTransition is returned when an event does not fit the current
// state.
var ErrInvalidTransition = errors.Base("invalid review transition")

// ⌨️ Command is a single-key operator command.
type Command rune

const (
	Accept    Command = 'y'
	Skip      Command = 'n'
	Quit      Command = 'q'
	AcceptAll Command = 'a'
	SkipAll   Command = 'd'
	Edit      Command = 'e'
	Help      Command = '?'
)

// Commands lists the commands in prompt order.
var Commands = []Command{Accept, Skip, Quit, AcceptAll, SkipAll, Edit, Help}

var commandHelp = map[Command]string{
	Accept:    "replace this hunk",
	Skip:      "do not replace this hunk",
	Quit:      "quit; do not replace this hunk or any future hunks",
	AcceptAll: "replace this hunk and all later hunks in the file",
	SkipAll:   "do not replace this hunk or any later hunks in the file",
	Edit:      "manually edit the current hunk",
	Help:      "print help",
}

func (c Command) String() string {
	return string(c)
}

// Help describes c.
func (c Command) Help() string {
	if h, ok := commandHelp[c]; ok {
		return h
	}
	return "unknown command"
}

// ParseCommand maps a key to a command. Unknown keys report false.
func ParseCommand(r rune) (Command, bool) {
	c := Command(r)
	_, ok := commandHelp[c]
	return c, ok
}

// 🚦 RunState is the state of the whole run.
type RunState int

const (
	Reviewing RunState = iota
	Quitting
	Done
)

func (s RunState) String() string {
	switch s {
	case Reviewing:
		return "reviewing"
	case Quitting:
		return "quitting"
	case Done:
		return "done"
	}
	return fmt.Sprintf("RunState(%d)", int(s))
}

// ActionKind tells the driver what to do next.
type ActionKind int

const (
	// ActionPrompt asks the operator about Action.Hunk.
	ActionPrompt ActionKind = iota
	// ActionEdit sends Action.Hunk through the editor.
	ActionEdit
	// ActionNext moves on to the next hunk of the file.
	ActionNext
	// ActionHelp prints the command help, then prompts again.
	ActionHelp
	// ActionCommit commits the current file.
	ActionCommit
	// ActionStop ends the run.
	ActionStop
)

var actionNames = map[ActionKind]string{
	ActionPrompt: "prompt",
	ActionEdit:   "edit",
	ActionNext:   "next",
	ActionHelp:   "help",
	ActionCommit: "commit",
	ActionStop:   "stop",
}

func (k ActionKind) String() string {
	if n, ok := actionNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// 🎬 Action is the machine's answer to a transition.
type Action struct {
	Kind ActionKind
	Hunk *hunk.Hunk
}

// 📨 Event is something that happened outside the machine.
type Event interface {
	event()
}

// KeyEvent carries an operator command.
type KeyEvent struct {
	Command Command
}

// EditorEvent carries the result of an editor round trip. Hunks holds the
// decoded and reconciled hunks when Err is nil.
type EditorEvent struct {
	Hunks []*hunk.Hunk
	Err   error
}

// CommitEvent carries the result of committing the current file.
type CommitEvent struct {
	Result commit.Result
	Err    error
}

func (KeyEvent) event()    {}
func (EditorEvent) event() {}
func (CommitEvent) event() {}

// 🧠 Machine is the review state machine. It does no I/O: the driver feeds
// it hunks and events and carries out the actions it returns.
type Machine struct {
	state      RunState
	path       string
	inFile     bool
	committing bool
	bulk       hunk.Decision
	hunks      []*hunk.Hunk
	current    *hunk.Hunk
}

// 🏭 NewMachine returns a machine ready for its first file.
func NewMachine() *Machine {
	return &Machine{}
}

// State returns the run state.
func (m *Machine) State() RunState {
	return m.state
}

// Current returns the hunk under review, if any.
func (m *Machine) Current() *hunk.Hunk {
	return m.current
}

func (m *Machine) invalid(format string, args ...any) error {
	return errors.WithDetails(ErrInvalidTransition,
		"detail", fmt.Sprintf(format, args...),
		"state", m.state.String(),
		"path", m.path,
	)
}

// BeginFile starts review of path.
func (m *Machine) BeginFile(path string) error {
	if m.state != Reviewing {
		return m.invalid("begin file while %s", m.state)
	}
	if m.inFile {
		return m.invalid("begin file %s before %s was committed", path, m.path)
	}
	m.path = path
	m.inFile = true
	m.committing = false
	m.bulk = hunk.Pending
	m.hunks = nil
	m.current = nil
	return nil
}

// Present makes h the hunk under review. A standing accept-all or skip-all
// decides it at once.
func (m *Machine) Present(h *hunk.Hunk) (Action, error) {
	if !m.inFile || m.committing || m.state != Reviewing {
		return Action{}, m.invalid("present hunk outside review")
	}
	if m.current != nil && !m.current.Decision.Final() {
		return Action{}, m.invalid("present hunk %d while hunk %d is %s", h.Index, m.current.Index, m.current.Decision)
	}

	m.hunks = append(m.hunks, h)
	m.current = h

	if m.bulk != hunk.Pending {
		h.Decision = m.bulk
		return Action{Kind: ActionNext, Hunk: h}, nil
	}
	h.Decision = hunk.Pending
	return Action{Kind: ActionPrompt, Hunk: h}, nil
}

// Handle applies ev.
func (m *Machine) Handle(ev Event) (Action, error) {
	switch ev := ev.(type) {
	case KeyEvent:
		return m.handleKey(ev)
	case EditorEvent:
		return m.handleEditor(ev)
	case CommitEvent:
		return m.handleCommit(ev)
	}
	return Action{}, m.invalid("unknown event %T", ev)
}

func (m *Machine) handleKey(ev KeyEvent) (Action, error) {
	h := m.current
	if h == nil || m.committing || h.Decision != hunk.Pending {
		return Action{}, m.invalid("key %q with no pending hunk", ev.Command)
	}

	switch ev.Command {
	case Accept:
		h.Decision = hunk.Accepted
	case Skip:
		h.Decision = hunk.Skipped
	case AcceptAll:
		h.Decision = hunk.Accepted
		m.bulk = hunk.Accepted
	case SkipAll:
		h.Decision = hunk.Skipped
		m.bulk = hunk.Skipped
	case Edit:
		h.Decision = hunk.Editing
		return Action{Kind: ActionEdit, Hunk: h}, nil
	case Quit:
		h.Decision = hunk.Skipped
		m.state = Quitting
		m.committing = true
		return Action{Kind: ActionCommit}, nil
	default:
		return Action{Kind: ActionHelp, Hunk: h}, nil
	}
	return Action{Kind: ActionNext, Hunk: h}, nil
}

func (m *Machine) handleEditor(ev EditorEvent) (Action, error) {
	h := m.current
	if h == nil || h.Decision != hunk.Editing {
		return Action{}, m.invalid("editor result with no hunk being edited")
	}

	if ev.Err != nil {
		h.Decision = hunk.Pending
		return Action{Kind: ActionPrompt, Hunk: h}, nil
	}
	if len(ev.Hunks) != 1 {
		h.Decision = hunk.Pending
		return Action{Kind: ActionPrompt, Hunk: h}, nil
	}

	got := ev.Hunks[0]
	h.Proposed = got.Proposed
	h.Decision = hunk.Edited
	if got.Decision == hunk.Skipped {
		h.Decision = hunk.Skipped
	}
	return Action{Kind: ActionNext, Hunk: h}, nil
}

func (m *Machine) handleCommit(ev CommitEvent) (Action, error) {
	if !m.committing {
		return Action{}, m.invalid("commit result while no commit is running")
	}
	m.inFile = false
	m.committing = false
	m.current = nil

	if m.state == Quitting {
		m.state = Done
		return Action{Kind: ActionStop}, nil
	}
	return Action{Kind: ActionNext}, nil
}

// EndFile is called once the file has no hunks left. Every presented hunk
// must be decided.
func (m *Machine) EndFile() (Action, error) {
	if !m.inFile || m.committing {
		return Action{}, m.invalid("end file outside review")
	}
	if m.current != nil && !m.current.Decision.Final() {
		return Action{}, m.invalid("end file while hunk %d is %s", m.current.Index, m.current.Decision)
	}
	m.committing = true
	return Action{Kind: ActionCommit}, nil
}

// AbandonFile drops the current file without committing it. The run goes
// on with the next file.
func (m *Machine) AbandonFile() {
	m.inFile = false
	m.committing = false
	m.current = nil
	m.hunks = nil
}

// Interrupt ends the run at once. The current file is not committed.
func (m *Machine) Interrupt() Action {
	m.AbandonFile()
	m.state = Done
	return Action{Kind: ActionStop}
}

// Transaction returns the decided hunks of the current file.
func (m *Machine) Transaction() *commit.Transaction {
	return &commit.Transaction{Path: m.path, Hunks: append([]*hunk.Hunk(nil), m.hunks...)}
}
