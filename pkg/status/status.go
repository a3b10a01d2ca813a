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

package status

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// 📊 FileState is the end state of one reviewed file.
type FileState int

const (
	// Unchanged files had hunks but none were applied.
	Unchanged FileState = iota
	// Modified files were rewritten.
	Modified
	// Stale files changed on disk during review; nothing was written.
	Stale
	// Failed files could not be read or rewritten; nothing was written.
	Failed
	// Interrupted files were being reviewed when the run was cancelled.
	Interrupted
)

var stateNames = map[FileState]string{
	Unchanged:   "unchanged",
	Modified:    "modified",
	Stale:       "stale",
	Failed:      "failed",
	Interrupted: "interrupted",
}

func (s FileState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Lost reports whether the file's reviewed edits were not written.
func (s FileState) Lost() bool {
	return s == Stale || s == Failed || s == Interrupted
}

// 📄 Outcome describes one file after review.
type Outcome struct {
	Path    string
	State   FileState
	Hunks   int // hunks offered for review
	Applied int // hunks written
	Err     error
}

// 🎯 Recorder receives outcomes as files finish.
type Recorder interface {
	Record(ctx context.Context, o Outcome)
}

// 🧮 Totals sums the outcomes of a run.
type Totals struct {
	Files    int
	Modified int
	Lost     int
	Hunks    int
	Applied  int
}

// 🗂️ Manager collects outcomes in the order they are recorded.
type Manager struct {
	mu        sync.Mutex
	outcomes  []Outcome
	formatter FileFormatter
}

// 🏭 NewManager returns an empty Manager using the default formatter.
func NewManager() *Manager {
	return &Manager{formatter: NewDefaultFileFormatter()}
}

// Record stores o and logs it.
func (m *Manager) Record(ctx context.Context, o Outcome) {
	m.mu.Lock()
	m.outcomes = append(m.outcomes, o)
	m.mu.Unlock()

	logger := zerolog.Ctx(ctx)
	ev := logger.Debug()
	if o.State.Lost() {
		ev = logger.Warn().Err(o.Err)
	}
	ev.Str("path", o.Path).
		Str("state", o.State.String()).
		Int("hunks", o.Hunks).
		Int("applied", o.Applied).
		Msg("file reviewed")
}

// Outcomes returns a copy of everything recorded so far.
func (m *Manager) Outcomes() []Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Outcome(nil), m.outcomes...)
}

// Totals sums the recorded outcomes.
func (m *Manager) Totals() Totals {
	m.mu.Lock()
	defer m.mu.Unlock()

	var t Totals
	for _, o := range m.outcomes {
		t.Files++
		t.Hunks += o.Hunks
		t.Applied += o.Applied
		if o.State == Modified {
			t.Modified++
		}
		if o.State.Lost() {
			t.Lost++
		}
	}
	return t
}
