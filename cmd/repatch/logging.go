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

package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/config"
)

// setupLogging builds the diagnostic logger. Console logs go to stderr at
// warn level, or debug with --debug; --log-file switches to JSON lines in
// that file at info level or lower.
func setupLogging(s *config.Settings, stderr io.Writer) (zerolog.Logger, func(), error) {
	if s.LogFile != "" {
		level := zerolog.InfoLevel
		if s.Debug {
			level = zerolog.DebugLevel
		}
		f, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), func() {}, errors.Errorf("opening log file: %w", err)
		}
		logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
		return logger, func() { _ = f.Close() }, nil
	}

	level := zerolog.WarnLevel
	if s.Debug {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: stderr, NoColor: s.NoColor, TimeFormat: time.Kitchen}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), func() {}, nil
}
