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
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/retarget/pkg/charset"
	"github.com/walteh/retarget/pkg/hostip"
	"github.com/walteh/retarget/pkg/text"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse decodes the config from bytes without validating it
	Parse(ctx context.Context, data []byte) (*Config, error)

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

var (
	// DefaultExtensions are the file suffixes rewritten when none are configured
	DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".json", ".md", ".java"}

	// DefaultExcludeDirs are directory basenames never entered
	DefaultExcludeDirs = []string{"node_modules", ".git"}
)

// 🌐 Discovery configures how the replacement address is found
type Discovery struct {
	IP                string `json:"ip,omitempty" yaml:"ip,omitempty"`
	Target            string `json:"target,omitempty" yaml:"target,omitempty"`
	Timeout           string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Fallback          string `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	InterfaceFallback bool   `json:"interface_fallback,omitempty" yaml:"interface_fallback,omitempty"`
}

// 🔄 Rule represents a string replacement in files
type Rule struct {
	Match   string  `json:"match" yaml:"match"`                         // String to look for
	Replace *string `json:"replace,omitempty" yaml:"replace,omitempty"` // Replacement template, nil for markers
	Kind    string  `json:"kind,omitempty" yaml:"kind,omitempty"`       // literal, prefix or marker
	Files   string  `json:"files,omitempty" yaml:"files,omitempty"`     // Optional glob for specific files
}

// 📚 Config represents the complete configuration
type Config struct {
	Roots          []string   `json:"roots,omitempty" yaml:"roots,omitempty"`
	Extensions     []string   `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	ExcludeDirs    []string   `json:"exclude_dirs,omitempty" yaml:"exclude_dirs,omitempty"`
	IgnorePatterns []string   `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty"`
	Encodings      []string   `json:"encodings,omitempty" yaml:"encodings,omitempty"`
	Backup         bool       `json:"backup,omitempty" yaml:"backup,omitempty"`
	Discovery      *Discovery `json:"discovery,omitempty" yaml:"discovery,omitempty"`
	Rules          []Rule     `json:"rules,omitempty" yaml:"rules,omitempty"`

	location string
}

// 🏭 Default returns a validated config with no rules
func Default() *Config {
	cfg := &Config{}
	// defaults alone always validate
	_ = cfg.Validate()
	return cfg
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Location returns the file the config was loaded from, if any
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔍 Validate checks the configuration and fills in defaults.
// It is safe to call more than once.
func (cfg *Config) Validate() error {
	if len(cfg.Roots) == 0 {
		cfg.Roots = []string{"."}
	}
	for i, root := range cfg.Roots {
		if strings.TrimSpace(root) == "" {
			return errors.Errorf("roots[%d] is empty", i)
		}
	}

	cfg.Extensions = normalizeExtensions(cfg.Extensions)
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string(nil), DefaultExtensions...)
	}

	// an explicit empty list disables exclusion
	if cfg.ExcludeDirs == nil {
		cfg.ExcludeDirs = append([]string(nil), DefaultExcludeDirs...)
	}

	for _, pattern := range cfg.IgnorePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	if len(cfg.Encodings) == 0 {
		cfg.Encodings = append([]string(nil), charset.DefaultNames...)
	}
	if _, err := charset.NewChain(cfg.Encodings...); err != nil {
		return errors.Errorf("encodings: %w", err)
	}

	if cfg.Discovery == nil {
		cfg.Discovery = &Discovery{}
	}
	if err := cfg.Discovery.validate(); err != nil {
		return errors.Errorf("discovery: %w", err)
	}

	for i := range cfg.Rules {
		if err := cfg.Rules[i].validate(); err != nil {
			return errors.Errorf("rules[%d]: %w", i, err)
		}
	}

	return nil
}

func normalizeExtensions(exts []string) []string {
	var out []string
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func (d *Discovery) validate() error {
	if d.IP != "" && net.ParseIP(d.IP) == nil {
		return errors.Errorf("invalid ip %q", d.IP)
	}
	if d.Target == "" {
		d.Target = hostip.DefaultTarget
	}
	if d.Fallback == "" {
		d.Fallback = hostip.DefaultFallback
	}
	if d.Timeout == "" {
		d.Timeout = hostip.DefaultTimeout.String()
	}
	timeout, err := time.ParseDuration(d.Timeout)
	if err != nil {
		return errors.Errorf("parsing timeout %q: %w", d.Timeout, err)
	}
	if timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", d.Timeout)
	}
	return nil
}

// 🌐 Options converts the discovery settings for hostip.NewResolver
func (d *Discovery) Options() (hostip.Options, error) {
	if err := d.validate(); err != nil {
		return hostip.Options{}, err
	}
	timeout, _ := time.ParseDuration(d.Timeout)
	return hostip.Options{
		Static:            d.IP,
		Target:            d.Target,
		Timeout:           timeout,
		Fallback:          d.Fallback,
		InterfaceFallback: d.InterfaceFallback,
	}, nil
}

func (r *Rule) validate() error {
	if r.Match == "" {
		return errors.New("match is required")
	}

	switch text.RuleKind(r.Kind) {
	case "":
		if r.Replace == nil {
			r.Kind = string(text.KindMarker)
		} else {
			r.Kind = string(text.KindLiteral)
		}
	case text.KindLiteral:
		if r.Replace == nil {
			return errors.Errorf("literal rule %q needs a replace value", r.Match)
		}
	case text.KindPrefix:
		if r.Replace == nil {
			r.Kind = string(text.KindMarker)
		}
	case text.KindMarker:
		if r.Replace != nil {
			return errors.Errorf("marker rule %q cannot have a replace value", r.Match)
		}
	default:
		return errors.Errorf("unknown kind %q", r.Kind)
	}

	if r.Files != "" && !doublestar.ValidatePattern(r.Files) {
		return errors.Errorf("invalid files glob %q", r.Files)
	}
	return nil
}

// 🎯 NeedsIP reports whether any rule template references the discovered address
func (cfg *Config) NeedsIP() (bool, error) {
	for _, r := range cfg.Rules {
		if r.Replace == nil {
			continue
		}
		refs, err := text.References(*r.Replace)
		if err != nil {
			return false, errors.Errorf("rule %q: %w", r.Match, err)
		}
		for _, ref := range refs {
			if ref == text.VarIP {
				return true, nil
			}
		}
	}
	return false, nil
}

// 🔄 ReplacementRules expands every rule template with vars, keeping rule order
func (cfg *Config) ReplacementRules(vars text.Vars) ([]text.ReplacementRule, error) {
	rules := make([]text.ReplacementRule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		rule := text.ReplacementRule{
			FromText:       r.Match,
			Kind:           text.RuleKind(r.Kind),
			FileFilterGlob: r.Files,
		}
		if r.Replace != nil {
			to, err := text.Expand(*r.Replace, vars)
			if err != nil {
				return nil, errors.Errorf("rule %q: %w", r.Match, err)
			}
			rule.ToText = to
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%d rule(s) over %s [%s]", len(cfg.Rules), strings.Join(cfg.Roots, ", "), strings.Join(cfg.Extensions, " "))
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		// an empty document is an empty config
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}
