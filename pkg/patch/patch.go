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

// Package patch reads and writes the text document hunks are edited in.
//
// A document looks like a unified diff:
//
//	# comment
//	diff --repatch "path/to/file"
//	@@ -13,3 +13,3 @@ pending
//	 context
//	-original
//	+proposed
//	\ No newline at end of file
package patch

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/hunk"
)

const (
	filePrefix = "diff --repatch "
	noEOL      = `\ No newline at end of file`
)

// EditHelp is written at the top of documents handed to an editor.
const EditHelp = `# Edit the hunk below, then save and quit.
#
# To drop a '-' line from the change, turn its '-' into a space.
# To drop a '+' line, delete it. Lines starting with '#' are ignored.
# Do not change the @@ header or any ' ' or '-' line text; the line
# counts are recomputed for you. Exit the editor with an error to
# abandon the edit.
`

var headerRE = regexp.MustCompile(`^@@ -(\d+),(\d+) \+(\d+),(\d+) @@(?: (\S+))?\s*$`)

// ❌ ParseError reports a document that cannot be turned back into hunks.
type ParseError struct {
	Line int // 1-based; zero when the problem is not tied to a line
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("patch line %d: %s", e.Line, e.Msg)
	}
	return "patch: " + e.Msg
}

func parseErrorf(line int, format string, args ...any) error {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// 📝 Encode writes hunks as a document. A file line precedes the first hunk
// of every path.
func Encode(w io.Writer, hunks []*hunk.Hunk) error {
	bw := bufio.NewWriter(w)

	path := ""
	for i, h := range hunks {
		if i == 0 || h.Path != path {
			path = h.Path
			fmt.Fprintf(bw, "%s%s\n", filePrefix, strconv.Quote(path))
		}

		body := Diff(h.Original, h.Proposed)
		oldLines, newLines := Counts(body)
		fmt.Fprintf(bw, "@@ -%d,%d +%d,%d @@ %s\n", h.Start+1, oldLines, h.Start+1, newLines, h.Decision)

		for _, l := range body {
			bw.WriteByte(byte(l.Kind))
			bw.Write(l.Text)
			bw.WriteByte('\n')
			if !l.EOL {
				bw.WriteString(noEOL + "\n")
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.Errorf("writing patch: %w", err)
	}
	return nil
}

// EncodeForEdit writes EditHelp followed by the encoded hunks.
func EncodeForEdit(w io.Writer, hunks []*hunk.Hunk) error {
	if _, err := io.WriteString(w, EditHelp); err != nil {
		return errors.Errorf("writing patch: %w", err)
	}
	return Encode(w, hunks)
}

type pending struct {
	h       *hunk.Hunk
	line    int
	oldWant int
	body    []Line
}

func (p *pending) finish() error {
	old, _ := Counts(p.body)
	if old != p.oldWant {
		return parseErrorf(p.line, "hunk header expects %d original lines, body has %d", p.oldWant, old)
	}
	p.h.End = p.h.Start + old
	p.h.Original, p.h.Proposed = Sides(p.body)
	return nil
}

// 📖 Decode parses a document. The old line count in each header must match
// its body; the new count is recomputed. Empty lines are common lines while
// the hunk still expects original lines and are ignored after that.
func Decode(data []byte) ([]*hunk.Hunk, error) {
	var (
		out   []*hunk.Hunk
		path  string
		seen  bool
		cur   *pending
		index = map[string]int{}
	)

	flush := func() error {
		if cur == nil {
			return nil
		}
		err := cur.finish()
		cur = nil
		return err
	}

	text := strings.TrimSuffix(string(data), "\n")
	for n, raw := range strings.Split(text, "\n") {
		lineNo := n + 1

		switch {
		case strings.HasPrefix(raw, "#"):
			continue

		case strings.HasPrefix(raw, filePrefix):
			if err := flush(); err != nil {
				return nil, err
			}
			p, err := strconv.Unquote(strings.TrimSpace(raw[len(filePrefix):]))
			if err != nil {
				return nil, parseErrorf(lineNo, "malformed file line: %v", err)
			}
			path, seen = p, true

		case strings.HasPrefix(raw, "@@"):
			if err := flush(); err != nil {
				return nil, err
			}
			if !seen {
				return nil, parseErrorf(lineNo, "hunk header before any file line")
			}
			h, oldCount, err := parseHeader(raw, lineNo)
			if err != nil {
				return nil, err
			}
			h.Path = path
			h.Index = index[path]
			index[path]++
			cur = &pending{h: h, line: lineNo, oldWant: oldCount}
			out = append(out, h)

		case raw == noEOL:
			if cur == nil || len(cur.body) == 0 {
				return nil, parseErrorf(lineNo, "end-of-file marker without a preceding line")
			}
			cur.body[len(cur.body)-1].EOL = false

		case raw == "":
			if cur == nil {
				continue
			}
			if old, _ := Counts(cur.body); old < cur.oldWant {
				cur.body = append(cur.body, Line{Kind: Common, EOL: true})
			}

		default:
			if cur == nil {
				return nil, parseErrorf(lineNo, "line outside of a hunk")
			}
			kind := Kind(raw[0])
			if kind != Common && kind != Removed && kind != Added {
				return nil, parseErrorf(lineNo, "line must start with ' ', '-' or '+'")
			}
			cur.body = append(cur.body, Line{Kind: kind, Text: []byte(raw[1:]), EOL: true})
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, parseErrorf(0, "document holds no hunks")
	}
	return out, nil
}

func parseHeader(raw string, lineNo int) (*hunk.Hunk, int, error) {
	m := headerRE.FindStringSubmatch(raw)
	if m == nil {
		return nil, 0, parseErrorf(lineNo, "malformed hunk header %q", raw)
	}

	start, err := strconv.Atoi(m[1])
	if err != nil || start < 1 {
		return nil, 0, parseErrorf(lineNo, "invalid start line %q", m[1])
	}
	oldCount, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, 0, parseErrorf(lineNo, "invalid line count %q", m[2])
	}

	decision := hunk.Pending
	if m[5] != "" {
		decision, err = hunk.ParseDecision(m[5])
		if err != nil {
			return nil, 0, parseErrorf(lineNo, "%v", err)
		}
	}

	return &hunk.Hunk{Start: start - 1, Decision: decision}, oldCount, nil
}

// 🤝 Reconcile checks that got describes the same hunks as want: same count,
// paths, positions and original text. Only the proposed text and decision
// may differ.
func Reconcile(want, got []*hunk.Hunk) error {
	if len(want) != len(got) {
		return parseErrorf(0, "expected %d hunks, found %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		switch {
		case w.Path != g.Path:
			return parseErrorf(0, "hunk %d: path changed from %q to %q", i+1, w.Path, g.Path)
		case w.Start != g.Start:
			return parseErrorf(0, "hunk %d: start line changed from %d to %d", i+1, w.Start+1, g.Start+1)
		case !bytes.Equal(w.Original, g.Original):
			return parseErrorf(0, "hunk %d: original lines were modified", i+1)
		}
	}
	return nil
}
