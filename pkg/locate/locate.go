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

// Package locate finds regex matches in files, one line at a time.
package locate

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/lines"
)

// 🎯 Group is the span of one capture group inside a line. Index 0 is the
// whole match.
type Group struct {
	Index   int
	Name    string
	Start   int
	End     int
	Matched bool // false when the group did not take part in the match
}

// 🎯 Match is one located occurrence of the pattern.
type Match struct {
	Path   string
	Line   int // 0-based
	Start  int // byte offset within the line
	End    int
	Groups []Group
}

// Group returns the capture group at index i and whether it exists.
func (m Match) Group(i int) (Group, bool) {
	if i < 0 || i >= len(m.Groups) {
		return Group{}, false
	}
	return m.Groups[i], true
}

// 📦 Result holds every match found in a single file.
type Result struct {
	Path    string
	Binary  bool
	Matches []Match
	Err     error
}

// ❌ Error reports a file that could not be searched.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// 🔧 Options configures a Locator.
type Options struct {
	Pattern       string
	IgnoreCase    bool
	Include       []string // doublestar globs; empty means everything
	Exclude       []string // doublestar globs added to DefaultExcludePatterns
	Hidden        bool     // descend into dot files and directories
	Workers       int
	Lookahead     int // files matched ahead of the consumer
	MaxLineLength int
}

// 🔍 Locator searches files for a compiled pattern.
type Locator struct {
	re   *regexp.Regexp
	opts Options
}

// 🏭 New compiles the pattern and validates the glob options.
func New(opts Options) (*Locator, error) {
	pattern := opts.Pattern
	if opts.IgnoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Errorf("compiling pattern %q: %w", opts.Pattern, err)
	}

	for _, p := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid glob pattern %q", p)
		}
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = opts.Workers * 4
	}
	if opts.MaxLineLength <= 0 {
		opts.MaxLineLength = lines.DefaultMaxLineLength
	}

	return &Locator{re: re, opts: opts}, nil
}

// Regexp returns the compiled pattern.
func (l *Locator) Regexp() *regexp.Regexp {
	return l.re
}

// 📄 MatchFile searches a single file. Binary files come back with Binary set
// and no matches.
func (l *Locator) MatchFile(ctx context.Context, path string) Result {
	res := Result{Path: path}

	f, err := os.Open(path)
	if err != nil {
		res.Err = &Error{Path: path, Err: err}
		return res
	}
	defer f.Close()

	r := lines.NewReader(f, l.opts.MaxLineLength)
	if r.LooksBinary() {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("skipping binary file")
		res.Binary = true
		return res
	}

	matches, err := l.scan(ctx, path, r)
	if err != nil {
		res.Err = &Error{Path: path, Err: err}
		return res
	}
	res.Matches = matches
	return res
}

// MatchReader searches r as though it were the file at path.
func (l *Locator) MatchReader(ctx context.Context, path string, r io.Reader) ([]Match, error) {
	return l.scan(ctx, path, lines.NewReader(r, l.opts.MaxLineLength))
}

func (l *Locator) scan(ctx context.Context, path string, r *lines.Reader) ([]Match, error) {
	names := l.re.SubexpNames()

	var matches []Match
	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line, err := r.Next()
		if errors.Is(err, io.EOF) {
			return matches, nil
		}
		if err != nil {
			return nil, err
		}

		content := lines.TrimTerminator(line)
		for _, loc := range l.re.FindAllSubmatchIndex(content, -1) {
			m := Match{
				Path:   path,
				Line:   n,
				Start:  loc[0],
				End:    loc[1],
				Groups: make([]Group, len(loc)/2),
			}
			for i := range m.Groups {
				g := Group{Index: i, Name: names[i], Start: loc[2*i], End: loc[2*i+1]}
				g.Matched = g.Start >= 0
				m.Groups[i] = g
			}
			matches = append(matches, m)
		}
	}
}
