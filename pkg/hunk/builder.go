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

package hunk

import (
	"io"
	"sort"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/lines"
	"github.com/walteh/repatch/pkg/locate"
	"github.com/walteh/repatch/pkg/text"
)

// ErrMatchPastEOF is returned when a match refers to a line the file no
// longer has.
var ErrMatchPastEOF = errors.Base("match refers to a line past the end of the file")

// 🏗️ Builder turns the matches of a file into hunks.
type Builder struct {
	replacer      *text.Replacer
	context       int
	maxLineLength int
}

// 🏭 NewBuilder returns a Builder that pads every match with context lines.
// Use InfiniteContext for a single hunk per file.
func NewBuilder(replacer *text.Replacer, context int) *Builder {
	return &Builder{replacer: replacer, context: context}
}

// WithMaxLineLength sets the ceiling for lines held inside a hunk.
func (b *Builder) WithMaxLineLength(n int) *Builder {
	b.maxLineLength = n
	return b
}

// Context returns the configured context line count.
func (b *Builder) Context() int {
	return b.context
}

// Build prepares an Iterator over the hunks of the file read from r. matches
// must all come from that file. Nothing is read until Next is called.
func (b *Builder) Build(path string, r io.Reader, matches []locate.Match) *Iterator {
	byLine := map[int][]locate.Match{}
	var matched []int
	for _, m := range matches {
		if _, ok := byLine[m.Line]; !ok {
			matched = append(matched, m.Line)
		}
		byLine[m.Line] = append(byLine[m.Line], m)
	}
	sort.Ints(matched)

	return &Iterator{
		path:     path,
		replacer: b.replacer,
		reader:   lines.NewReader(r, b.maxLineLength),
		ranges:   Ranges(matched, b.context),
		byLine:   byLine,
	}
}

// 🔁 Iterator yields the hunks of one file in line order, reading the file a
// single time. Hunks whose replacement leaves the text unchanged are left
// out.
type Iterator struct {
	path     string
	replacer *text.Replacer
	reader   *lines.Reader
	ranges   []Range
	byLine   map[int][]locate.Match
	next     int
	produced int
	err      error
}

// Next returns the next hunk, or io.EOF once there are none left.
func (it *Iterator) Next() (*Hunk, error) {
	if it.err != nil {
		return nil, it.err
	}
	for it.next < len(it.ranges) {
		r := it.ranges[it.next]
		it.next++

		h, err := it.read(r)
		if err != nil {
			it.err = err
			return nil, err
		}
		if !h.Changed() {
			continue
		}
		h.Index = it.produced
		it.produced++
		return h, nil
	}
	it.err = io.EOF
	return nil, io.EOF
}

// Remaining is the number of ranges not yet read. Ranges that turn out to be
// unchanged are counted too.
func (it *Iterator) Remaining() int {
	return len(it.ranges) - it.next
}

func (it *Iterator) read(r Range) (*Hunk, error) {
	for it.reader.Line() < r.Start {
		if _, err := it.reader.CopyLine(io.Discard); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.WithDetails(ErrMatchPastEOF, "path", it.path, "line", r.Start+1)
			}
			return nil, errors.Errorf("skipping to line %d of %s: %w", r.Start+1, it.path, err)
		}
	}

	h := &Hunk{Path: it.path, Start: r.Start, Decision: Pending}
	for it.reader.Line() < r.End {
		n := it.reader.Line()
		line, err := it.reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Errorf("reading line %d of %s: %w", n+1, it.path, err)
		}

		h.Original = append(h.Original, line...)

		ms, ok := it.byLine[n]
		if !ok {
			h.Proposed = append(h.Proposed, line...)
			continue
		}
		replaced, err := it.replacer.ReplaceLine(line, ms)
		if err != nil {
			return nil, errors.Errorf("replacing line %d of %s: %w", n+1, it.path, err)
		}
		h.Proposed = append(h.Proposed, replaced...)
		h.Matches = append(h.Matches, ms...)
	}
	h.End = it.reader.Line()

	for line := range it.byLine {
		if r.Contains(line) && line >= h.End {
			return nil, errors.WithDetails(ErrMatchPastEOF, "path", it.path, "line", line+1)
		}
	}
	return h, nil
}
