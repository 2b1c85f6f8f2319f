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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retarget/pkg/text"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	return parseHCL(data, "retarget.hcl", text.EnvVars())
}

// hclEvalContext exposes env directly and leaves ${ip} in place, since the
// address is only known after discovery.
func hclEvalContext(env map[string]string) *hcl.EvalContext {
	envVal := cty.MapValEmpty(cty.String)
	if len(env) > 0 {
		vals := make(map[string]cty.Value, len(env))
		for k, v := range env {
			vals[k] = cty.StringVal(v)
		}
		envVal = cty.MapVal(vals)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			text.VarIP: cty.StringVal("${" + text.VarIP + "}"),
			"env":      envVal,
		},
	}
}

func parseHCL(data []byte, filename string, env map[string]string) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Define HCL schema
	type hclConfig struct {
		Roots          []string `hcl:"roots,optional"`
		Extensions     []string `hcl:"extensions,optional"`
		ExcludeDirs    []string `hcl:"exclude_dirs,optional"`
		IgnorePatterns []string `hcl:"ignore_patterns,optional"`
		Encodings      []string `hcl:"encodings,optional"`
		Backup         bool     `hcl:"backup,optional"`
		Discovery      *struct {
			IP                string `hcl:"ip,optional"`
			Target            string `hcl:"target,optional"`
			Timeout           string `hcl:"timeout,optional"`
			Fallback          string `hcl:"fallback,optional"`
			InterfaceFallback bool   `hcl:"interface_fallback,optional"`
		} `hcl:"discovery,block"`
		Rules []struct {
			Match   string  `hcl:"match"`
			Replace *string `hcl:"replace,optional"`
			Kind    string  `hcl:"kind,optional"`
			Files   string  `hcl:"files,optional"`
		} `hcl:"rule,block"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, hclEvalContext(env), &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Roots:          hclCfg.Roots,
		Extensions:     hclCfg.Extensions,
		ExcludeDirs:    hclCfg.ExcludeDirs,
		IgnorePatterns: hclCfg.IgnorePatterns,
		Encodings:      hclCfg.Encodings,
		Backup:         hclCfg.Backup,
	}

	if hclCfg.Discovery != nil {
		cfg.Discovery = &Discovery{
			IP:                hclCfg.Discovery.IP,
			Target:            hclCfg.Discovery.Target,
			Timeout:           hclCfg.Discovery.Timeout,
			Fallback:          hclCfg.Discovery.Fallback,
			InterfaceFallback: hclCfg.Discovery.InterfaceFallback,
		}
	}

	for _, r := range hclCfg.Rules {
		cfg.Rules = append(cfg.Rules, Rule{
			Match:   r.Match,
			Replace: r.Replace,
			Kind:    r.Kind,
			Files:   r.Files,
		})
	}

	return cfg, nil
}
