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

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/walteh/repatch/pkg/hunk"
	"github.com/walteh/repatch/pkg/patch"
)

// HelpItem is one line of the command help.
type HelpItem struct {
	Key  string
	Text string
}

// 🎨 Renderer writes review output to a terminal.
type Renderer struct {
	w       io.Writer
	file    *color.Color
	header  *color.Color
	removed *color.Color
	added   *color.Color
	prompt  *color.Color
	help    *color.Color
	err     *color.Color
	faint   *color.Color
}

// 🏭 New returns a Renderer writing to w.
func New(w io.Writer) *Renderer {
	return &Renderer{
		w:       w,
		file:    color.New(color.Bold),
		header:  color.New(color.FgCyan),
		removed: color.New(color.FgRed),
		added:   color.New(color.FgGreen),
		prompt:  color.New(color.FgBlue, color.Bold),
		help:    color.New(color.FgRed, color.Bold),
		err:     color.New(color.Bold),
		faint:   color.New(color.Faint),
	}
}

// Writer returns the underlying writer.
func (r *Renderer) Writer() io.Writer {
	return r.w
}

// FileHeader introduces the hunks of path.
func (r *Renderer) FileHeader(path string) {
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.file.Sprint("diff --repatch "+quotePath(path)))
}

// 📄 Hunk draws h as a diff.
func (r *Renderer) Hunk(h *hunk.Hunk) {
	body := patch.Diff(h.Original, h.Proposed)
	oldLines, newLines := patch.Counts(body)

	fmt.Fprintln(r.w, r.header.Sprintf("@@ -%d,%d +%d,%d @@", h.Start+1, oldLines, h.Start+1, newLines))
	for _, l := range body {
		text := string(l.Kind) + Sanitize(l.Text)
		switch l.Kind {
		case patch.Removed:
			text = r.removed.Sprint(text)
		case patch.Added:
			text = r.added.Sprint(text)
		}
		fmt.Fprintln(r.w, text)
		if !l.EOL {
			fmt.Fprintln(r.w, r.faint.Sprint(`\ No newline at end of file`))
		}
	}
}

// Prompt asks what to do with hunk pos of total.
func (r *Renderer) Prompt(pos, total int, keys []string) {
	fmt.Fprint(r.w, r.prompt.Sprintf("(%d/%d) Apply this hunk [%s]? ", pos, total, strings.Join(keys, ",")))
}

// Help lists the available commands.
func (r *Renderer) Help(items []HelpItem) {
	for _, it := range items {
		fmt.Fprintln(r.w, r.help.Sprintf("%s - %s", it.Key, it.Text))
	}
}

// Decision echoes the operator's choice on a prompt line.
func (r *Renderer) Decision(key string) {
	fmt.Fprintln(r.w, SanitizeString(key))
}

// Error reports a recoverable problem.
func (r *Renderer) Error(err error) {
	fmt.Fprintf(r.w, "%s %s\n", r.err.Sprint("ERROR:"), SanitizeString(err.Error()))
}

// Notice prints an informational line.
func (r *Renderer) Notice(format string, args ...any) {
	fmt.Fprintln(r.w, r.faint.Sprintf(format, args...))
}
