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

// Package render draws hunks, prompts and help on the terminal.
package render

import (
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

var escapeColor = color.New(color.ReverseVideo)

// 🧼 Sanitize makes file content safe to print. Control characters other
// than tab, DEL, C1 controls and bytes that are not valid UTF-8 are shown as
// inverse-video escapes such as ^[ or \x9b, so nothing in a file can move
// the cursor or restyle the terminal.
func Sanitize(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))

	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		switch {
		case r == utf8.RuneError && size <= 1:
			sb.WriteString(escapeColor.Sprintf("\\x%02x", b[0]))
		case r == '\t':
			sb.WriteRune(r)
		case r < 0x20:
			sb.WriteString(escapeColor.Sprintf("^%c", r+0x40))
		case r == 0x7f:
			sb.WriteString(escapeColor.Sprint("^?"))
		case r >= 0x80 && r <= 0x9f:
			sb.WriteString(escapeColor.Sprintf("\\x%02x", r))
		default:
			sb.Write(b[:size])
		}
		b = b[size:]
	}
	return sb.String()
}

// SanitizeString is Sanitize for strings.
func SanitizeString(s string) string {
	return Sanitize([]byte(s))
}

// quotePath renders a path for a header line.
func quotePath(path string) string {
	s := SanitizeString(path)
	if strings.ContainsAny(path, " \t") {
		return `"` + s + `"`
	}
	return s
}
