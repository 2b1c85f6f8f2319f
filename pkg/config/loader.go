package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultPath is the config file looked up when none is given
const DefaultPath = ".retarget.yaml"

func init() {
	Register(&DotfileParser{})
}

// DotfileParser handles extensionless .retarget files, which may hold
// either YAML or HCL.
type DotfileParser struct{}

func (p *DotfileParser) CanParse(filename string) bool {
	return filepath.Base(filename) == ".retarget" || strings.ToLower(filepath.Ext(filename)) == ".retarget"
}

// Parse tries YAML first, then HCL
func (p *DotfileParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	cfg, yamlErr := (&YAMLParser{}).Parse(ctx, data)
	if yamlErr == nil {
		return cfg, nil
	}

	cfg, err := (&HCLParser{}).Parse(ctx, data)
	if err == nil {
		return cfg, nil
	}

	return nil, errors.Errorf("failed to parse .retarget as YAML (%v) or HCL: %w", yamlErr, err)
}

// LoadOptional loads path when it exists. A missing file yields the
// defaults unless required is set.
func LoadOptional(ctx context.Context, path string, required bool) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no config file, using defaults")
			return Default(), nil
		}
		return nil, errors.Errorf("checking config file: %w", err)
	}

	return Load(ctx, path)
}

// Overrides are command line values layered over a loaded config
type Overrides struct {
	Roots        []string
	Extensions   []string
	ExcludeDirs  []string
	Replacements []string // old=new
	IP           string
	Backup       bool
}

// 🔄 Merge applies overrides and re-validates. Replacements are appended
// after the configured rules.
func (cfg *Config) Merge(o Overrides) error {
	if len(o.Roots) > 0 {
		cfg.Roots = o.Roots
	}
	if len(o.Extensions) > 0 {
		cfg.Extensions = o.Extensions
	}
	if len(o.ExcludeDirs) > 0 {
		cfg.ExcludeDirs = o.ExcludeDirs
	}
	if o.Backup {
		cfg.Backup = true
	}
	if o.IP != "" {
		if cfg.Discovery == nil {
			cfg.Discovery = &Discovery{}
		}
		cfg.Discovery.IP = o.IP
	}

	for _, r := range o.Replacements {
		from, to, ok := strings.Cut(r, "=")
		if !ok || from == "" {
			return errors.Errorf("invalid replacement %q, want old=new", r)
		}
		cfg.Rules = append(cfg.Rules, Rule{Match: from, Replace: &to})
	}

	return cfg.Validate()
}
