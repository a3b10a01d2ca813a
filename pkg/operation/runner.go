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
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🏃 OperationRunner executes operations, cancelling them on signals
type OperationRunner struct {
	logger  *zerolog.Logger
	signals []os.Signal
}

// 🏗️ NewRunner creates a new runner. Each signal in signals cancels the
// context the operation runs with.
func NewRunner(logger *zerolog.Logger, signals ...os.Signal) *OperationRunner {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &OperationRunner{
		logger:  logger,
		signals: signals,
	}
}

// 🏃 Run executes op and waits for it to return, even after cancellation,
// so a file being written is never left half done.
func (r *OperationRunner) Run(ctx context.Context, op Operation) error {
	if len(r.signals) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, r.signals...)
		defer stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- op.Execute(ctx)
	}()

	select {
	case err := <-errCh:
		return wrap(err)
	case <-ctx.Done():
		r.logger.Warn().Err(ctx.Err()).Msg("cancelled, waiting for the current file")
		err := <-errCh
		if err == nil {
			return errors.Errorf("operation cancelled: %w", ctx.Err())
		}
		return wrap(err)
	}
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return errors.Errorf("executing operation: %w", err)
}
