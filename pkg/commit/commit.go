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

// Package commit rewrites a file with the hunks an operator accepted.
package commit

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/hunk"
	"github.com/walteh/repatch/pkg/lines"
)

// ❌ StaleHunkError reports a hunk whose original text is no longer on disk.
type StaleHunkError struct {
	Path string
	Hunk int // ordinal within the file
	Line int // 1-based line where the mismatch was found
}

func (e *StaleHunkError) Error() string {
	return fmt.Sprintf("%s: hunk %d no longer matches the file at line %d", e.Path, e.Hunk+1, e.Line)
}

// ❌ WriteError reports a failure to produce or install the new file. The
// original is untouched whenever this is returned.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// 📦 Transaction is the reviewed state of one file.
type Transaction struct {
	Path  string
	Hunks []*hunk.Hunk // ascending by Start, non-overlapping
}

// Applied counts the hunks whose proposed text will be written.
func (tx *Transaction) Applied() int {
	n := 0
	for _, h := range tx.Hunks {
		if h.Decision.Applied() {
			n++
		}
	}
	return n
}

// 📋 Result describes a finished commit.
type Result struct {
	Path    string
	Changed bool
	Applied int
	Mode    fs.FileMode
}

// 💾 Committer installs transactions.
type Committer struct {
	maxLineLength int
	beforeRename  func(tmp string) error
}

// 🏭 New returns a Committer. maxLineLength bounds the lines held while a
// hunk is verified; zero selects the default.
func New(maxLineLength int) *Committer {
	return &Committer{maxLineLength: maxLineLength}
}

// Commit streams tx.Path into a sibling temporary file, substituting the
// applied hunks, then renames it over the original. The original keeps its
// permission bits and is left byte-identical on any error.
func (c *Committer) Commit(ctx context.Context, tx *Transaction) (Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("path", tx.Path).Logger()
	res := Result{Path: tx.Path, Applied: tx.Applied()}

	if res.Applied == 0 {
		logger.Debug().Msg("no applied hunks, leaving file alone")
		return res, nil
	}

	target, err := filepath.EvalSymlinks(tx.Path)
	if err != nil {
		return res, &WriteError{Path: tx.Path, Op: "resolve", Err: err}
	}

	src, err := os.Open(target)
	if err != nil {
		return res, &WriteError{Path: tx.Path, Op: "open", Err: err}
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return res, &WriteError{Path: tx.Path, Op: "stat", Err: err}
	}
	res.Mode = info.Mode().Perm()

	dir, base := filepath.Split(target)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".repatch-*")
	if err != nil {
		return res, &WriteError{Path: tx.Path, Op: "create temporary file", Err: err}
	}
	tmpPath := tmp.Name()

	installed := false
	defer func() {
		if installed {
			return
		}
		tmp.Close()
		if rerr := os.Remove(tmpPath); rerr != nil && !os.IsNotExist(rerr) {
			logger.Warn().Err(rerr).Str("tmp", tmpPath).Msg("removing temporary file")
		}
	}()

	w := bufio.NewWriterSize(tmp, 64<<10)
	if err := c.splice(ctx, tx, lines.NewReader(src, c.maxLineLength), w); err != nil {
		return res, err
	}
	if err := w.Flush(); err != nil {
		return res, &WriteError{Path: tx.Path, Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return res, &WriteError{Path: tx.Path, Op: "sync", Err: err}
	}
	if err := tmp.Chmod(res.Mode); err != nil {
		return res, &WriteError{Path: tx.Path, Op: "chmod", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return res, &WriteError{Path: tx.Path, Op: "close", Err: err}
	}

	if c.beforeRename != nil {
		if err := c.beforeRename(tmpPath); err != nil {
			return res, &WriteError{Path: tx.Path, Op: "rename", Err: err}
		}
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return res, &WriteError{Path: tx.Path, Op: "rename", Err: err}
	}
	installed = true
	res.Changed = true

	logger.Debug().Int("applied", res.Applied).Msg("file rewritten")
	return res, nil
}

func (c *Committer) splice(ctx context.Context, tx *Transaction, r *lines.Reader, w io.Writer) error {
	for _, h := range tx.Hunks {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("commit of %s interrupted: %w", tx.Path, err)
		}

		for r.Line() < h.Start {
			if _, err := r.CopyLine(w); err != nil {
				if errors.Is(err, io.EOF) {
					return &StaleHunkError{Path: tx.Path, Hunk: h.Index, Line: r.Line() + 1}
				}
				return copyErr(tx.Path, err)
			}
		}

		if !h.Decision.Applied() {
			continue
		}

		expected := h.Original
		for r.Line() < h.End {
			line, err := r.Next()
			if errors.Is(err, io.EOF) {
				return &StaleHunkError{Path: tx.Path, Hunk: h.Index, Line: r.Line() + 1}
			}
			if err != nil {
				return copyErr(tx.Path, err)
			}
			if !bytes.HasPrefix(expected, line) {
				return &StaleHunkError{Path: tx.Path, Hunk: h.Index, Line: r.Line()}
			}
			expected = expected[len(line):]
		}
		if len(expected) != 0 {
			return &StaleHunkError{Path: tx.Path, Hunk: h.Index, Line: r.Line()}
		}

		if _, err := w.Write(h.Proposed); err != nil {
			return &WriteError{Path: tx.Path, Op: "write", Err: err}
		}
	}

	if _, err := r.Rest(w); err != nil {
		return copyErr(tx.Path, err)
	}
	return nil
}

// copyErr sorts read failures from write failures; both leave the original
// untouched.
func copyErr(path string, err error) error {
	var we *WriteError
	if errors.As(err, &we) {
		return err
	}
	return &WriteError{Path: path, Op: "copy", Err: err}
}
