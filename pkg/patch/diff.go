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

package patch

import (
	"bytes"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/walteh/repatch/pkg/lines"
)

// Kind marks which side of a hunk a line belongs to.
type Kind byte

const (
	Common  Kind = ' '
	Removed Kind = '-'
	Added   Kind = '+'
)

// 📃 Line is one line of a hunk's diff body.
type Line struct {
	Kind Kind
	Text []byte // without the terminator
	EOL  bool   // false when the line has no trailing newline
}

// 🔀 Diff lines up original against proposed, line by line.
func Diff(original, proposed []byte) []Line {
	a := toStrings(lines.Split(original))
	b := toStrings(lines.Split(proposed))

	var out []Line
	emit := func(kind Kind, ls []string) {
		for _, l := range ls {
			eol := len(l) > 0 && l[len(l)-1] == '\n'
			text := []byte(l)
			if eol {
				text = text[:len(text)-1]
			}
			out = append(out, Line{Kind: kind, Text: text, EOL: eol})
		}
	}

	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'e':
			emit(Common, a[op.I1:op.I2])
		case 'd':
			emit(Removed, a[op.I1:op.I2])
		case 'i':
			emit(Added, b[op.J1:op.J2])
		case 'r':
			emit(Removed, a[op.I1:op.I2])
			emit(Added, b[op.J1:op.J2])
		}
	}
	return out
}

// Counts returns how many lines each side of body has.
func Counts(body []Line) (oldLines, newLines int) {
	for _, l := range body {
		switch l.Kind {
		case Common:
			oldLines++
			newLines++
		case Removed:
			oldLines++
		case Added:
			newLines++
		}
	}
	return oldLines, newLines
}

// Sides rebuilds the original and proposed text from body.
func Sides(body []Line) (original, proposed []byte) {
	var o, p bytes.Buffer
	for _, l := range body {
		if l.Kind != Added {
			o.Write(l.Text)
			if l.EOL {
				o.WriteByte('\n')
			}
		}
		if l.Kind != Removed {
			p.Write(l.Text)
			if l.EOL {
				p.WriteByte('\n')
			}
		}
	}
	return o.Bytes(), p.Bytes()
}

func toStrings(ls [][]byte) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = string(l)
	}
	return out
}
