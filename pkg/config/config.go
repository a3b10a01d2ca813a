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
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*File, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// InfiniteContext is the context_lines value that puts a whole file in one
// hunk.
const InfiniteContext = -1

// 📚 File is the content of a config file. Unset fields leave the lower
// layers alone.
type File struct {
	ContextLines  *int     `json:"context_lines,omitempty" yaml:"context_lines,omitempty"`
	Editor        string   `json:"editor,omitempty" yaml:"editor,omitempty"`
	IgnoreCase    *bool    `json:"ignore_case,omitempty" yaml:"ignore_case,omitempty"`
	IgnoreErrors  *bool    `json:"ignore_errors,omitempty" yaml:"ignore_errors,omitempty"`
	Hidden        *bool    `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Include       []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude       []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Workers       *int     `json:"workers,omitempty" yaml:"workers,omitempty"`
	MaxLineLength *int     `json:"max_line_length,omitempty" yaml:"max_line_length,omitempty"`
}

// 🎯 Load reads and validates the config file at path
func Load(ctx context.Context, path string) (*File, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *File) Validate() error {
	if cfg.ContextLines != nil && *cfg.ContextLines < InfiniteContext {
		return errors.Errorf("context_lines must be %d (infinite) or more, got %d", InfiniteContext, *cfg.ContextLines)
	}
	if cfg.Workers != nil && *cfg.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", *cfg.Workers)
	}
	if cfg.MaxLineLength != nil && *cfg.MaxLineLength < 0 {
		return errors.Errorf("max_line_length must not be negative, got %d", *cfg.MaxLineLength)
	}
	for _, g := range append(append([]string(nil), cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(g) {
			return errors.Errorf("invalid glob %q", g)
		}
	}
	return nil
}

// settings flattens the file into viper keys. Only fields that were set
// are present.
func (cfg *File) settings() map[string]any {
	m := map[string]any{}
	if cfg.ContextLines != nil {
		m[KeyContext] = FormatContext(*cfg.ContextLines)
	}
	if cfg.Editor != "" {
		m[KeyEditor] = cfg.Editor
	}
	if cfg.IgnoreCase != nil {
		m[KeyIgnoreCase] = *cfg.IgnoreCase
	}
	if cfg.IgnoreErrors != nil {
		m[KeyIgnoreErrors] = *cfg.IgnoreErrors
	}
	if cfg.Hidden != nil {
		m[KeyHidden] = *cfg.Hidden
	}
	if cfg.Include != nil {
		m[KeyInclude] = cfg.Include
	}
	if cfg.Exclude != nil {
		m[KeyExclude] = cfg.Exclude
	}
	if cfg.Workers != nil {
		m[KeyWorkers] = *cfg.Workers
	}
	if cfg.MaxLineLength != nil {
		m[KeyMaxLineLength] = *cfg.MaxLineLength
	}
	return m
}

// ParseContext reads a context size: a non-negative number or "infinite".
func ParseContext(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "infinite") {
		return InfiniteContext, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.Errorf("invalid context %q: want a number of lines or \"infinite\"", s)
	}
	return n, nil
}

// FormatContext is the inverse of ParseContext.
func FormatContext(n int) string {
	if n < 0 {
		return "infinite"
	}
	return strconv.Itoa(n)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*File, error) {
	var cfg File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}
