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
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"gitlab.com/tozd/go/errors"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	pterm.DisableStyling()
	m.Run()
}

func TestDefaultFileFormatter(t *testing.T) {
	f := NewDefaultFileFormatter()

	tests := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{
			name:    "modified_one_hunk",
			outcome: Outcome{Path: "a.go", State: Modified, Hunks: 2, Applied: 1},
			want:    "📝 Modified a.go (1 hunk)",
		},
		{
			name:    "modified_many_hunks",
			outcome: Outcome{Path: "a.go", State: Modified, Hunks: 3, Applied: 3},
			want:    "📝 Modified a.go (3 hunks)",
		},
		{
			name:    "unchanged",
			outcome: Outcome{Path: "b.go", State: Unchanged, Hunks: 1},
			want:    "👍 Unchanged b.go",
		},
		{
			name:    "stale",
			outcome: Outcome{Path: "c.go", State: Stale, Hunks: 1},
			want:    "⚠️  Stale c.go, edits lost",
		},
		{
			name:    "failed",
			outcome: Outcome{Path: "d.go", State: Failed},
			want:    "❌ Failed d.go, edits lost",
		},
		{
			name:    "interrupted",
			outcome: Outcome{Path: "e.go", State: Interrupted},
			want:    "⏹️  Interrupted e.go, edits lost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatOutcome(tt.outcome))
		})
	}

	assert.Empty(t, f.FormatError(nil))
	assert.Equal(t, "❌ Error: boom", f.FormatError(errors.New("boom")))
}

func TestFormatTotals(t *testing.T) {
	f := NewDefaultFileFormatter()

	assert.Equal(t, "Applied 3 of 4 hunks in 2 files.",
		f.FormatTotals(Totals{Files: 3, Modified: 2, Hunks: 4, Applied: 3}))
	assert.Equal(t, "Applied 0 of 1 hunk in 0 files; 1 file not written.",
		f.FormatTotals(Totals{Files: 1, Lost: 1, Hunks: 1}))
}

func TestManager(t *testing.T) {
	ctx := context.Background()
	m := NewManager()

	m.Record(ctx, Outcome{Path: "a", State: Modified, Hunks: 2, Applied: 2})
	m.Record(ctx, Outcome{Path: "b", State: Unchanged, Hunks: 1})
	m.Record(ctx, Outcome{Path: "c", State: Stale, Hunks: 3, Err: errors.New("hunk 2 no longer matches")})

	got := m.Outcomes()
	assert.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Path, "recording order kept")

	got[0].Path = "mutated"
	assert.Equal(t, "a", m.Outcomes()[0].Path, "outcomes are copied")

	assert.Equal(t, Totals{Files: 3, Modified: 1, Lost: 1, Hunks: 6, Applied: 2}, m.Totals())
}

func TestFileState(t *testing.T) {
	assert.False(t, Unchanged.Lost())
	assert.False(t, Modified.Lost())
	assert.True(t, Stale.Lost())
	assert.True(t, Failed.Lost())
	assert.True(t, Interrupted.Lost())
	assert.Equal(t, "unknown", FileState(42).String())
}

func TestSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("empty_run_prints_nothing", func(t *testing.T) {
		var buf bytes.Buffer
		NewManager().Summary(&buf, true)
		assert.Empty(t, buf.String())
	})

	t.Run("lost_files_always_listed", func(t *testing.T) {
		m := NewManager()
		m.Record(ctx, Outcome{Path: "ok.txt", State: Modified, Hunks: 1, Applied: 1})
		m.Record(ctx, Outcome{Path: "bad.txt", State: Failed, Hunks: 1, Err: errors.New("rename: disk full")})

		var buf bytes.Buffer
		m.Summary(&buf, false)
		out := buf.String()

		assert.NotContains(t, out, "ok.txt")
		assert.Contains(t, out, "bad.txt")
		assert.Contains(t, out, "rename: disk full")
		assert.Contains(t, out, "Applied 1 of 2 hunks in 1 file; 1 file not written.")
	})

	t.Run("verbose_lists_every_file", func(t *testing.T) {
		m := NewManager()
		m.Record(ctx, Outcome{Path: "ok.txt", State: Modified, Hunks: 1, Applied: 1})

		var buf bytes.Buffer
		m.Summary(&buf, true)
		assert.Contains(t, buf.String(), "    📝 Modified ok.txt (1 hunk)\n")
	})

	t.Run("escapes_in_paths_and_errors_are_neutralized", func(t *testing.T) {
		m := NewManager()
		path := "evil\x1b[2J.txt"
		m.Record(ctx, Outcome{Path: path, State: Failed, Hunks: 1, Err: errors.Errorf("%s: boom", path)})
		m.Record(ctx, Outcome{Path: "also\x1b]0;t\x07.txt", State: Modified, Hunks: 1, Applied: 1})

		var buf bytes.Buffer
		m.Summary(&buf, true)
		out := buf.String()

		assert.NotContains(t, out, "\x1b")
		assert.NotContains(t, out, "\x07")
		assert.Contains(t, out, "boom")
	})
}

func TestFormatOutcomeRow(t *testing.T) {
	row := FormatOutcomeRow(Outcome{Path: "x.go", State: Stale, Hunks: 2})
	assert.Equal(t, "    ✗ x.go                                stale        0/2", row)
}
