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
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/hunk"
)

func TestSanitize(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "plain", input: []byte("hello, world"), want: "hello, world"},
		{name: "tab_kept", input: []byte("a\tb"), want: "a\tb"},
		{name: "escape_sequence", input: []byte("\x1b[31mred"), want: "^[[31mred"},
		{name: "carriage_return", input: []byte("a\rb"), want: "a^Mb"},
		{name: "nul", input: []byte{'a', 0, 'b'}, want: "a^@b"},
		{name: "delete", input: []byte("a\x7f"), want: "a^?"},
		{name: "c1_csi", input: []byte("a\u009bb"), want: `a\x9bb`},
		{name: "invalid_utf8", input: []byte{'a', 0xff, 'b'}, want: `a\xffb`},
		{name: "multibyte_kept", input: []byte("héllo ✓"), want: "héllo ✓"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitize_NoRawControlsWithColor(t *testing.T) {
	color.NoColor = false
	defer func() { color.NoColor = true }()

	out := Sanitize([]byte("x\x1b]0;title\x07y"))
	// the only ESC bytes left are the renderer's own SGR sequences
	for _, seq := range strings.Split(out, "\x1b")[1:] {
		assert.True(t, strings.HasPrefix(seq, "["), "unexpected escape %q", seq)
	}
	assert.NotContains(t, out, "\x07")
}

func TestRenderer(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	r := New(&buf)

	r.FileHeader("dir/my file.txt")
	r.Hunk(&hunk.Hunk{
		Start:    4,
		End:      6,
		Original: []byte("keep\nfoo\x1b"),
		Proposed: []byte("keep\nbar"),
	})
	r.Prompt(1, 3, []string{"y", "n", "?"})
	r.Decision("y")
	r.Help([]HelpItem{{Key: "y", Text: "apply this hunk"}})
	r.Error(errors.New("bad\x1b"))

	want := `
diff --repatch "dir/my file.txt"
@@ -5,2 +5,2 @@
 keep
-foo^[
\ No newline at end of file
+bar
\ No newline at end of file
(1/3) Apply this hunk [y,n,?]? y
y - apply this hunk
ERROR: bad^[
`
	assert.Equal(t, want, buf.String())
}
