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

package operation

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/commit"
	"github.com/walteh/repatch/pkg/hunk"
	"github.com/walteh/repatch/pkg/lines"
	"github.com/walteh/repatch/pkg/locate"
	"github.com/walteh/repatch/pkg/log"
	"github.com/walteh/repatch/pkg/render"
	"github.com/walteh/repatch/pkg/review"
	"github.com/walteh/repatch/pkg/status"
	"github.com/walteh/repatch/pkg/text"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	pterm.DisableStyling()
	os.Exit(m.Run())
}

// 🔧 MockReviewer is a mock implementation of the Reviewer interface
type MockReviewer struct {
	mock.Mock
}

func (m *MockReviewer) ReviewFile(ctx context.Context, path string, src review.HunkSource) (bool, error) {
	args := m.Called(ctx, path, src)
	return args.Bool(0), args.Error(1)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

type fixture struct {
	console bytes.Buffer
	status  *status.Manager
	logger  *log.Logger
	opts    Options
}

func newFixture(t *testing.T, pattern, template string, locOpts locate.Options, paths ...string) *fixture {
	t.Helper()

	locOpts.Pattern = pattern
	loc, err := locate.New(locOpts)
	require.NoError(t, err)
	rep, err := text.NewReplacer(loc.Regexp(), template)
	require.NoError(t, err)

	f := &fixture{status: status.NewManager()}
	f.logger = log.New(&f.console, zerolog.Nop())
	f.opts = Options{
		Paths:         paths,
		Locator:       loc,
		Replacer:      rep,
		ContextLines:  hunk.InfiniteContext,
		MaxLineLength: lines.DefaultMaxLineLength,
		Status:        f.status,
		Console:       &f.console,
	}
	return f
}

func (f *fixture) ctx() context.Context {
	return log.NewContext(context.Background(), f.logger)
}

func (f *fixture) applySession(t *testing.T) *review.Session {
	t.Helper()
	s, err := review.NewSession(review.Options{
		Mode:      review.Apply,
		Committer: commit.New(lines.DefaultMaxLineLength),
		Renderer:  render.New(io.Discard),
		Recorder:  f.status,
	})
	require.NoError(t, err)
	return s
}

func TestReplaceOperation_Apply(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "foo one\nbar\nfoo two\n")
	b := writeFile(t, dir, "sub/b.txt", "nothing here\n")
	c := writeFile(t, dir, "sub/c.txt", "last foo\n")

	f := newFixture(t, `foo`, `baz`, locate.Options{Workers: 2}, dir)
	f.opts.ContextLines = 0
	f.opts.Reviewer = f.applySession(t)

	op, err := NewReplaceOperation(f.opts)
	require.NoError(t, err)
	require.NoError(t, op.Execute(f.ctx()))

	assert.Equal(t, "baz one\nbar\nbaz two\n", readFile(t, a))
	assert.Equal(t, "nothing here\n", readFile(t, b))
	assert.Equal(t, "last baz\n", readFile(t, c))

	assert.Contains(t, f.console.String(), "Found 3 matches in 2 files.")
	assert.Contains(t, f.console.String(), "Applied 3 of 3 hunks in 2 files.")

	totals := f.status.Totals()
	assert.Equal(t, 2, totals.Modified)
	assert.Equal(t, 0, totals.Lost)
}

func TestReplaceOperation_ReviewOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "x\n")
	writeFile(t, dir, "a.txt", "x\n")
	writeFile(t, dir, "c/d.txt", "x\n")
	single := writeFile(t, t.TempDir(), "z.txt", "x\n")

	f := newFixture(t, `x`, `y`, locate.Options{Workers: 4}, single, dir)

	var order []string
	r := &MockReviewer{}
	r.On("ReviewFile", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { order = append(order, args.String(1)) }).
		Return(false, nil)
	f.opts.Reviewer = r

	op, err := NewReplaceOperation(f.opts)
	require.NoError(t, err)
	require.NoError(t, op.Execute(f.ctx()))

	assert.Equal(t, []string{
		single,
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "c", "d.txt"),
	}, order)
	r.AssertExpectations(t)
}

func TestReplaceOperation_StopEndsRun(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "x\n")
	writeFile(t, dir, "b.txt", "x\n")

	f := newFixture(t, `x`, `y`, locate.Options{}, dir)
	r := &MockReviewer{}
	r.On("ReviewFile", mock.Anything, a, mock.Anything).Return(true, nil).Once()
	f.opts.Reviewer = r

	op, err := NewReplaceOperation(f.opts)
	require.NoError(t, err)
	require.NoError(t, op.Execute(f.ctx()))

	r.AssertExpectations(t)
	r.AssertNumberOfCalls(t, "ReviewFile", 1)
}

func TestReplaceOperation_ReviewError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "x\n")

	f := newFixture(t, `x`, `y`, locate.Options{}, dir)
	r := &MockReviewer{}
	r.On("ReviewFile", mock.Anything, mock.Anything, mock.Anything).Return(true, review.ErrInterrupted)
	f.opts.Reviewer = r

	op, err := NewReplaceOperation(f.opts)
	require.NoError(t, err)
	err = op.Execute(f.ctx())
	assert.ErrorIs(t, err, review.ErrInterrupted)
}

func TestReplaceOperation_LocateFailures(t *testing.T) {
	tests := []struct {
		name         string
		ignoreErrors bool
	}{
		{name: "unreadable_files_skipped_and_reported", ignoreErrors: false},
		{name: "ignore_errors_succeeds", ignoreErrors: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			good := writeFile(t, dir, "good.txt", "x\n")
			writeFile(t, dir, "long.txt", "x"+strings.Repeat("-", 64)+"\n")
			missing := filepath.Join(dir, "missing.txt")

			f := newFixture(t, `x`, `y`, locate.Options{MaxLineLength: 32}, dir, missing)
			f.opts.IgnoreErrors = tt.ignoreErrors
			f.opts.Reviewer = f.applySession(t)

			op, err := NewReplaceOperation(f.opts)
			require.NoError(t, err)
			err = op.Execute(f.ctx())

			if tt.ignoreErrors {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrLocateFailed)
			}

			assert.Equal(t, "y\n", readFile(t, good), "readable file should still be reviewed")

			failures := f.logger.Failures()
			require.Len(t, failures, 2)
			reasons := map[string]string{}
			for _, fl := range failures {
				reasons[filepath.Base(fl.Path)] = fl.Reason
			}
			assert.Equal(t, "missing", reasons["missing.txt"])
			assert.Equal(t, "line too long", reasons["long.txt"])

			out := f.console.String()
			assert.Contains(t, out, "Found 1 match in 1 file.")
			assert.Contains(t, out, "Applied 1 of 1 hunk in 1 file.")
			assert.Contains(t, out, "2 files could not be searched and were skipped")
		})
	}
}

func TestReplaceOperation_BinarySkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blob.bin", "x\x00x\n")
	text := writeFile(t, dir, "text.txt", "x\n")

	f := newFixture(t, `x`, `y`, locate.Options{}, dir)
	r := &MockReviewer{}
	r.On("ReviewFile", mock.Anything, text, mock.Anything).Return(false, nil)
	f.opts.Reviewer = r

	op, err := NewReplaceOperation(f.opts)
	require.NoError(t, err)
	require.NoError(t, op.Execute(f.ctx()))

	r.AssertExpectations(t)
	r.AssertNumberOfCalls(t, "ReviewFile", 1)
	assert.Empty(t, f.logger.Failures())
}

func TestReplaceOperation_VerboseSummary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "x\n")

	f := newFixture(t, `x`, `y`, locate.Options{}, dir)
	f.opts.Verbose = true
	f.opts.Reviewer = f.applySession(t)

	op, err := NewReplaceOperation(f.opts)
	require.NoError(t, err)
	require.NoError(t, op.Execute(f.ctx()))

	assert.Contains(t, f.console.String(), "📝 Modified "+filepath.Join(dir, "a.txt")+" (1 hunk)")
}

func TestReplaceOperation_NoMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "nothing\n")

	f := newFixture(t, `absent`, `y`, locate.Options{}, dir)
	r := &MockReviewer{}
	f.opts.Reviewer = r

	op, err := NewReplaceOperation(f.opts)
	require.NoError(t, err)
	require.NoError(t, op.Execute(f.ctx()))

	r.AssertNotCalled(t, "ReviewFile", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, "Found 0 matches in 0 files.\n", f.console.String())
}

func TestReplaceOperation_OpenFailureContinues(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "x\n")
	b := writeFile(t, dir, "b.txt", "x\n")

	f := newFixture(t, `x`, `y`, locate.Options{}, dir)
	f.opts.Open = func(path string) (io.ReadCloser, error) {
		if path == a {
			return nil, errors.New("gone")
		}
		return os.Open(path)
	}
	r := &MockReviewer{}
	r.On("ReviewFile", mock.Anything, b, mock.Anything).Return(false, nil)
	f.opts.Reviewer = r

	op, err := NewReplaceOperation(f.opts)
	require.NoError(t, err)
	assert.ErrorIs(t, op.Execute(f.ctx()), ErrLocateFailed)

	r.AssertExpectations(t)
	outcomes := f.status.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, a, outcomes[0].Path)
	assert.Equal(t, status.Failed, outcomes[0].State)
}

func TestReplaceOperation_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "x\n")

	f := newFixture(t, `x`, `y`, locate.Options{}, dir)
	f.opts.Reviewer = &MockReviewer{}

	op, err := NewReplaceOperation(f.opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(f.ctx())
	cancel()
	err = op.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewReplaceOperation_Validation(t *testing.T) {
	loc, err := locate.New(locate.Options{Pattern: "x"})
	require.NoError(t, err)
	rep, err := text.NewReplacer(loc.Regexp(), "y")
	require.NoError(t, err)

	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{name: "missing_locator", opts: Options{Replacer: rep, Reviewer: &MockReviewer{}, Paths: []string{"."}}, wantErr: "locator"},
		{name: "missing_replacer", opts: Options{Locator: loc, Reviewer: &MockReviewer{}, Paths: []string{"."}}, wantErr: "replacer"},
		{name: "missing_reviewer", opts: Options{Locator: loc, Replacer: rep, Paths: []string{"."}}, wantErr: "reviewer"},
		{name: "missing_paths", opts: Options{Locator: loc, Replacer: rep, Reviewer: &MockReviewer{}}, wantErr: "path"},
		{name: "minimal", opts: Options{Locator: loc, Replacer: rep, Reviewer: &MockReviewer{}, Paths: []string{"."}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := NewReplaceOperation(tt.opts)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, op)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
