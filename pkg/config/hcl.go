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

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{Environ: os.Environ})
}

// 🔧 HCLParser implements the Parser interface for HCL files. Expressions
// can read the process environment through the env object, as in
//
//	editor = "${env.HOME}/bin/edit"
type HCLParser struct {
	Environ func() []string
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "repatch.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": p.envObject(),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		ContextLines  *int     `hcl:"context_lines,optional"`
		Editor        *string  `hcl:"editor,optional"`
		IgnoreCase    *bool    `hcl:"ignore_case,optional"`
		IgnoreErrors  *bool    `hcl:"ignore_errors,optional"`
		Hidden        *bool    `hcl:"hidden,optional"`
		Include       []string `hcl:"include,optional"`
		Exclude       []string `hcl:"exclude,optional"`
		Workers       *int     `hcl:"workers,optional"`
		MaxLineLength *int     `hcl:"max_line_length,optional"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &File{
		ContextLines:  hclCfg.ContextLines,
		IgnoreCase:    hclCfg.IgnoreCase,
		IgnoreErrors:  hclCfg.IgnoreErrors,
		Hidden:        hclCfg.Hidden,
		Include:       hclCfg.Include,
		Exclude:       hclCfg.Exclude,
		Workers:       hclCfg.Workers,
		MaxLineLength: hclCfg.MaxLineLength,
	}
	if hclCfg.Editor != nil {
		cfg.Editor = *hclCfg.Editor
	}

	return cfg, nil
}

func (p *HCLParser) envObject() cty.Value {
	vars := map[string]cty.Value{}
	if p.Environ != nil {
		for _, kv := range p.Environ() {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				continue
			}
			vars[k] = cty.StringVal(v)
		}
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}
