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

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repatch/pkg/lines"
)

// EnvPrefix prefixes every environment variable read as a setting.
const EnvPrefix = "REPATCH"

// Setting keys. Flags use the same names with dashes.
const (
	KeyContext       = "context"
	KeyEditor        = "editor"
	KeyIgnoreCase    = "ignore_case"
	KeyIgnoreErrors  = "ignore_errors"
	KeyHidden        = "hidden"
	KeyInclude       = "include"
	KeyExclude       = "exclude"
	KeyWorkers       = "workers"
	KeyMaxLineLength = "max_line_length"
	KeyShow          = "show"
	KeyApply         = "apply"
	KeyDebug         = "debug"
	KeyLogFile       = "log_file"
	KeyNoColor       = "no_color"
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 5

// DefaultFiles are looked for, in order, when no config file is named.
var DefaultFiles = []string{".repatch.yaml", ".repatch.yml", ".repatch.hcl", ".repatch.json"}

// ⚙️ Settings is the merged configuration of a run.
type Settings struct {
	Context       string   `mapstructure:"context"`
	Editor        string   `mapstructure:"editor"`
	IgnoreCase    bool     `mapstructure:"ignore_case"`
	IgnoreErrors  bool     `mapstructure:"ignore_errors"`
	Hidden        bool     `mapstructure:"hidden"`
	Include       []string `mapstructure:"include"`
	Exclude       []string `mapstructure:"exclude"`
	Workers       int      `mapstructure:"workers"`
	MaxLineLength int      `mapstructure:"max_line_length"`
	Show          bool     `mapstructure:"show"`
	Apply         bool     `mapstructure:"apply"`
	Debug         bool     `mapstructure:"debug"`
	LogFile       string   `mapstructure:"log_file"`
	NoColor       bool     `mapstructure:"no_color"`

	// ConfigFile is the file that was merged, if any.
	ConfigFile string `mapstructure:"-"`
}

// ContextLines parses Context.
func (s *Settings) ContextLines() (int, error) {
	return ParseContext(s.Context)
}

// 🔍 Validate checks settings that no single layer can check alone.
func (s *Settings) Validate() error {
	if s.Show && s.Apply {
		return errors.New("--show and --apply cannot be used together")
	}
	if _, err := s.ContextLines(); err != nil {
		return err
	}
	if s.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", s.Workers)
	}
	if s.MaxLineLength <= 0 {
		return errors.Errorf("max_line_length must be positive, got %d", s.MaxLineLength)
	}
	return nil
}

// 📥 LoadOptions says where settings come from.
type LoadOptions struct {
	// ConfigFile is an explicit config file; it must exist.
	ConfigFile string
	// SearchDir is searched for DefaultFiles when ConfigFile is empty.
	SearchDir string
	// Flags are bound over everything else. Flags that were not set on the
	// command line do not override lower layers.
	Flags *pflag.FlagSet
}

var flagKeys = []string{
	KeyContext, KeyEditor, KeyIgnoreCase, KeyIgnoreErrors, KeyHidden,
	KeyInclude, KeyExclude, KeyWorkers, KeyMaxLineLength,
	KeyShow, KeyApply, KeyDebug, KeyLogFile, KeyNoColor,
}

// 🎯 LoadSettings merges defaults, the config file, REPATCH_* environment
// variables and flags, in increasing priority.
func LoadSettings(ctx context.Context, opts LoadOptions) (*Settings, error) {
	logger := zerolog.Ctx(ctx)
	v := viper.New()

	v.SetDefault(KeyContext, FormatContext(DefaultContext))
	v.SetDefault(KeyEditor, "")
	v.SetDefault(KeyIgnoreCase, false)
	v.SetDefault(KeyIgnoreErrors, false)
	v.SetDefault(KeyHidden, false)
	v.SetDefault(KeyInclude, []string{})
	v.SetDefault(KeyExclude, []string{})
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeyMaxLineLength, lines.DefaultMaxLineLength)
	v.SetDefault(KeyShow, false)
	v.SetDefault(KeyApply, false)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyNoColor, false)

	path, err := findConfig(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		file, err := Load(ctx, path)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(file.settings()); err != nil {
			return nil, errors.Errorf("merging config %s: %w", path, err)
		}
		logger.Debug().Str("path", path).Msg("config file merged")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for _, key := range flagKeys {
			f := opts.Flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Errorf("binding flag %s: %w", f.Name, err)
			}
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, errors.Errorf("decoding settings: %w", err)
	}
	settings.ConfigFile = path
	settings.Include = trimEmpty(settings.Include)
	settings.Exclude = trimEmpty(settings.Exclude)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

func findConfig(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", errors.Errorf("config file: %w", err)
		}
		return opts.ConfigFile, nil
	}
	if opts.SearchDir == "" {
		return "", nil
	}
	for _, name := range DefaultFiles {
		p := filepath.Join(opts.SearchDir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", nil
}

// trimEmpty trims entries and drops empty ones
func trimEmpty(s []string) []string {
	var out []string
	for _, str := range s {
		if str = strings.TrimSpace(str); str != "" {
			out = append(out, str)
		}
	}
	return out
}
