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
	"fmt"
)

// FileFormatter defines how outcomes and totals are described
type FileFormatter interface {
	// FormatOutcome describes what happened to one file
	FormatOutcome(o Outcome) string

	// FormatTotals describes a whole run
	FormatTotals(t Totals) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatOutcome formats an outcome with emojis
func (f *DefaultFileFormatter) FormatOutcome(o Outcome) string {
	switch o.State {
	case Modified:
		return fmt.Sprintf("📝 Modified %s (%s)", o.Path, plural(o.Applied, "hunk"))
	case Stale:
		return fmt.Sprintf("⚠️  Stale %s, edits lost", o.Path)
	case Failed:
		return fmt.Sprintf("❌ Failed %s, edits lost", o.Path)
	case Interrupted:
		return fmt.Sprintf("⏹️  Interrupted %s, edits lost", o.Path)
	default:
		return fmt.Sprintf("👍 Unchanged %s", o.Path)
	}
}

// FormatTotals formats run totals
func (f *DefaultFileFormatter) FormatTotals(t Totals) string {
	msg := fmt.Sprintf("Applied %d of %s in %s",
		t.Applied, plural(t.Hunks, "hunk"), plural(t.Modified, "file"))
	if t.Lost > 0 {
		msg += fmt.Sprintf("; %s not written", plural(t.Lost, "file"))
	}
	return msg + "."
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
