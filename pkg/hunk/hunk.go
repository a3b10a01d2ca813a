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

// Package hunk groups located matches into reviewable hunks.
package hunk

import (
	"bytes"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/locate"
)

// 🚦 Decision is what the operator chose for a hunk.
type Decision int

const (
	Pending Decision = iota
	Accepted
	Skipped
	Editing
	Edited
)

var decisionNames = map[Decision]string{
	Pending:  "pending",
	Accepted: "accepted",
	Skipped:  "skipped",
	Editing:  "editing",
	Edited:   "edited",
}

func (d Decision) String() string {
	if s, ok := decisionNames[d]; ok {
		return s
	}
	return "unknown"
}

// Applied reports whether the hunk's proposed text will be written.
func (d Decision) Applied() bool {
	return d == Accepted || d == Edited
}

// Final reports whether review of the hunk is complete.
func (d Decision) Final() bool {
	return d == Accepted || d == Skipped || d == Edited
}

// ParseDecision is the inverse of Decision.String.
func ParseDecision(s string) (Decision, error) {
	for d, name := range decisionNames {
		if name == s {
			return d, nil
		}
	}
	return Pending, errors.Errorf("unknown decision %q", s)
}

// 📦 Hunk is a contiguous run of lines holding one or more matches and the
// unchanged context around them.
type Hunk struct {
	Path     string
	Index    int // ordinal within the file
	Start    int // first line, 0-based
	End      int // one past the last line
	Original []byte
	Proposed []byte
	Matches  []locate.Match
	Decision Decision
}

// Lines is the number of original lines the hunk covers.
func (h *Hunk) Lines() int {
	return h.End - h.Start
}

// Changed reports whether applying the hunk would alter the file.
func (h *Hunk) Changed() bool {
	return !bytes.Equal(h.Original, h.Proposed)
}

// Clone returns a deep copy of h.
func (h *Hunk) Clone() *Hunk {
	c := *h
	c.Original = bytes.Clone(h.Original)
	c.Proposed = bytes.Clone(h.Proposed)
	c.Matches = append([]locate.Match(nil), h.Matches...)
	return &c
}
