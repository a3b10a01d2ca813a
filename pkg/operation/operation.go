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
	"context"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/hunk"
	"github.com/walteh/repatch/pkg/lines"
	"github.com/walteh/repatch/pkg/locate"
	"github.com/walteh/repatch/pkg/log"
	"github.com/walteh/repatch/pkg/review"
	"github.com/walteh/repatch/pkg/status"
	"github.com/walteh/repatch/pkg/text"
)

// ErrLocateFailed is returned after review when some files could not be
// searched and errors are not being ignored.
var ErrLocateFailed = errors.Base("some files could not be searched")

// 🎯 Operation is a unit of work the runner executes
type Operation interface {
	Execute(ctx context.Context) error
}

// 📋 Reviewer reviews the hunks of one file
type Reviewer interface {
	ReviewFile(ctx context.Context, path string, src review.HunkSource) (stop bool, err error)
}

// 🔧 Options configures a replace operation
type Options struct {
	// Paths are the files and directories given on the command line
	Paths []string
	// Locator finds matches
	Locator *locate.Locator
	// Replacer computes proposed lines
	Replacer *text.Replacer
	// ContextLines is the number of unchanged lines around each change;
	// hunk.InfiniteContext puts each file in a single hunk
	ContextLines int
	// MaxLineLength bounds lines held in memory while building hunks
	MaxLineLength int
	// IgnoreErrors keeps files that could not be searched from failing the
	// run; they are reported and skipped either way
	IgnoreErrors bool
	// Reviewer decides and commits hunks
	Reviewer Reviewer
	// Status collects per-file outcomes
	Status *status.Manager
	// Verbose describes every reviewed file in the summary
	Verbose bool
	// Console receives the closing summary
	Console io.Writer
	// Open opens a file for hunk building; os.Open when nil
	Open func(path string) (io.ReadCloser, error)
}

// 🔁 replaceOperation locates matches, then reviews them file by file
type replaceOperation struct {
	opts    Options
	builder *hunk.Builder
}

// 🏭 NewReplaceOperation validates opts
func NewReplaceOperation(opts Options) (Operation, error) {
	if opts.Locator == nil {
		return nil, errors.Errorf("locator is required")
	}
	if opts.Replacer == nil {
		return nil, errors.Errorf("replacer is required")
	}
	if opts.Reviewer == nil {
		return nil, errors.Errorf("reviewer is required")
	}
	if len(opts.Paths) == 0 {
		return nil, errors.Errorf("at least one path is required")
	}
	if opts.Status == nil {
		opts.Status = status.NewManager()
	}
	if opts.Console == nil {
		opts.Console = io.Discard
	}
	if opts.Open == nil {
		opts.Open = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}

	return &replaceOperation{
		opts:    opts,
		builder: hunk.NewBuilder(opts.Replacer, opts.ContextLines).WithMaxLineLength(opts.MaxLineLength),
	}, nil
}

// located is a file with matches, waiting for review
type located struct {
	path    string
	matches []locate.Match
}

// Execute runs the whole search and review. Progress goes to the
// log.Logger carried by ctx.
func (op *replaceOperation) Execute(ctx context.Context) error {
	ulog := log.FromContext(ctx)

	found, err := op.locate(ctx, ulog)
	if err != nil {
		return err
	}

	total := 0
	for _, f := range found {
		total += len(f.matches)
	}
	ulog.LogMatches(ctx, total, len(found))

	if err := op.reviewAll(ctx, ulog, found); err != nil {
		return err
	}

	failed := len(ulog.Failures())
	if failed == 0 {
		return nil
	}
	if failed == 1 {
		ulog.Warning("1 file could not be searched and was skipped")
	} else {
		ulog.Warningf("%d files could not be searched and were skipped", failed)
	}
	if op.opts.IgnoreErrors {
		return nil
	}
	return errors.WithDetails(ErrLocateFailed, "files", failed)
}

// locate searches every file, reporting and skipping the ones that cannot
// be read. Files are returned in walk order.
func (op *replaceOperation) locate(ctx context.Context, ulog *log.Logger) ([]located, error) {
	logger := zerolog.Ctx(ctx)

	files, walkErrs := op.opts.Locator.Walk(ctx, op.opts.Paths)
	for _, err := range walkErrs {
		op.logFailure(ctx, ulog, err)
	}

	var found []located
	for res := range op.opts.Locator.Stream(ctx, files) {
		switch {
		case res.Err != nil:
			if cerr := ctx.Err(); cerr != nil {
				return nil, errors.Errorf("searching files: %w", cerr)
			}
			op.logFailure(ctx, ulog, res.Err)
		case res.Binary:
			logger.Debug().Str("path", res.Path).Msg("binary file not reviewed")
		case len(res.Matches) > 0:
			found = append(found, located{path: res.Path, matches: res.Matches})
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("searching files: %w", err)
	}
	return found, nil
}

// reviewAll reviews found file by file until the reviewer stops, then
// prints the summary.
func (op *replaceOperation) reviewAll(ctx context.Context, ulog *log.Logger, found []located) error {
	if len(found) == 0 {
		return nil
	}
	defer op.opts.Status.Summary(op.opts.Console, op.opts.Verbose)

	for _, f := range found {
		stop, err := op.review(ctx, ulog, f)
		if err != nil {
			return err
		}
		if stop {
			zerolog.Ctx(ctx).Debug().Str("path", f.path).Msg("review stopped")
			return nil
		}
	}
	return nil
}

func (op *replaceOperation) review(ctx context.Context, ulog *log.Logger, f located) (bool, error) {
	r, err := op.opts.Open(f.path)
	if err != nil {
		op.logFailure(ctx, ulog, &locate.Error{Path: f.path, Err: err})
		op.opts.Status.Record(ctx, status.Outcome{Path: f.path, State: status.Failed, Err: err})
		return false, nil
	}
	defer r.Close()

	return op.opts.Reviewer.ReviewFile(ctx, f.path, op.builder.Build(f.path, r, f.matches))
}

func (op *replaceOperation) logFailure(ctx context.Context, ulog *log.Logger, err error) {
	path := ""
	var lerr *locate.Error
	if errors.As(err, &lerr) {
		path = lerr.Path
	}
	ulog.LogFileFailure(ctx, log.FileFailure{Path: path, Reason: failureReason(err), Err: err})
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, lines.ErrLineTooLong):
		return "line too long"
	case errors.Is(err, fs.ErrNotExist):
		return "missing"
	case errors.Is(err, fs.ErrPermission):
		return "permission"
	default:
		return "unreadable"
	}
}
