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
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/walteh/repatch/pkg/render"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // base width for filename
	statusWidth = 12 // width for status text
)

// 🎯 FormatOutcomeRow formats an outcome as an aligned table row
func FormatOutcomeRow(o Outcome) string {
	var prefix string
	switch {
	case o.State == Modified:
		prefix = color.GreenString("✓")
	case o.State.Lost():
		prefix = color.RedString("✗")
	default:
		prefix = color.HiBlackString("-")
	}

	return fmt.Sprintf("%s%s %-*s %-*s %d/%d",
		strings.Repeat(" ", fileIndent),
		prefix,
		nameWidth, render.SanitizeString(o.Path),
		statusWidth, o.State,
		o.Applied, o.Hunks,
	)
}

// 📢 Summary writes one row per file whose edits were lost, then the run
// totals. Unchanged and modified files are described only when verbose is set.
func (m *Manager) Summary(w io.Writer, verbose bool) {
	outcomes := m.Outcomes()
	if len(outcomes) == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, o := range outcomes {
		switch {
		case o.State.Lost():
			fmt.Fprintln(w, FormatOutcomeRow(o))
			if o.Err != nil {
				pterm.Error.WithWriter(w).Println(render.SanitizeString(m.formatter.FormatError(o.Err)))
			}
		case verbose:
			fmt.Fprintln(w, strings.Repeat(" ", fileIndent)+render.SanitizeString(m.formatter.FormatOutcome(o)))
		}
	}

	t := m.Totals()
	printer := pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"})
	if t.Lost > 0 {
		printer = pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"})
	}
	printer.WithWriter(w).Println(m.formatter.FormatTotals(t))
}
