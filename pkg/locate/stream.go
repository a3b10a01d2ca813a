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

package locate

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ⚡ Stream matches files on a worker pool and delivers one Result per file in
// the order of files, whatever order the workers finish in. At most
// Options.Lookahead files are matched ahead of the reader. The channel is
// closed after the last result or once ctx is done.
func (l *Locator) Stream(ctx context.Context, files []string) <-chan Result {
	out := make(chan Result)

	slots := make([]chan Result, len(files))
	for i := range slots {
		slots[i] = make(chan Result, 1)
	}
	window := make(chan struct{}, l.opts.Lookahead)

	var g errgroup.Group
	g.SetLimit(l.opts.Workers)

	go func() {
		for i, path := range files {
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				for j := i; j < len(files); j++ {
					slots[j] <- Result{Path: files[j], Err: &Error{Path: files[j], Err: ctx.Err()}}
				}
				_ = g.Wait()
				return
			}
			i, path := i, path
			g.Go(func() error {
				slots[i] <- l.MatchFile(ctx, path)
				return nil
			})
		}
		_ = g.Wait()
	}()

	go func() {
		defer close(out)
		for _, slot := range slots {
			res := <-slot
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
			<-window
		}
	}()

	return out
}
