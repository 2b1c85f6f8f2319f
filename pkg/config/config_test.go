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
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/retarget/pkg/text"
)

func strPtr(s string) *string { return &s }

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		config      string
		wantErr     bool
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid_config",
			file: "config.yaml",
			config: `
roots: [./frontend, ./backend]
extensions: [.ts, tsx, .java]
ignore_patterns: ["**/dist/**"]
discovery:
  timeout: 500ms
rules:
  - match: 10.183.118.172
    replace: ${ip}
  - match: localhost:8080
    replace: ${ip}:8080
  - match: "192.168."
    kind: prefix
  - match: 10.0.2.2
    replace: ${ip}
    files: "app/**"
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"./frontend", "./backend"}, cfg.Roots, "roots should match")
				assert.Equal(t, []string{".ts", ".tsx", ".java"}, cfg.Extensions, "extensions should be normalized")
				assert.Equal(t, DefaultExcludeDirs, cfg.ExcludeDirs, "exclude dirs should default")
				assert.Equal(t, []string{"utf-8-sig", "utf-8", "latin-1"}, cfg.Encodings, "encodings should default")
				assert.Equal(t, "500ms", cfg.Discovery.Timeout, "timeout should match")
				assert.Equal(t, "8.8.8.8:80", cfg.Discovery.Target, "target should default")
				require.Len(t, cfg.Rules, 4, "should have 4 rules")
				assert.Equal(t, "literal", cfg.Rules[0].Kind, "replace rule should be literal")
				assert.Equal(t, "${ip}:8080", *cfg.Rules[1].Replace, "template should be kept")
				assert.Equal(t, "marker", cfg.Rules[2].Kind, "prefix rule without replace should be a marker")
				assert.Nil(t, cfg.Rules[2].Replace, "marker has no replacement")
				assert.Equal(t, "app/**", cfg.Rules[3].Files, "files glob should match")
			},
		},
		{
			name:   "minimal_config",
			file:   "config.yaml",
			config: "rules:\n  - match: a\n    replace: b\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"."}, cfg.Roots, "roots should default")
				assert.Equal(t, DefaultExtensions, cfg.Extensions, "extensions should default")
				assert.False(t, cfg.Backup, "backup should be off")
			},
		},
		{
			name:   "empty_yaml",
			file:   "config.yaml",
			config: "",
			check: func(t *testing.T, cfg *Config) {
				assert.Empty(t, cfg.Rules)
			},
		},
		{
			name:   "explicit_empty_exclude",
			file:   "config.yml",
			config: "exclude_dirs: []\n",
			check: func(t *testing.T, cfg *Config) {
				assert.NotNil(t, cfg.ExcludeDirs)
				assert.Empty(t, cfg.ExcludeDirs, "explicit empty list disables exclusion")
			},
		},
		{
			name:        "unknown_field",
			file:        "config.yaml",
			config:      "destination: /tmp\n",
			wantErr:     true,
			errContains: "field destination not found",
		},
		{
			name:        "missing_match",
			file:        "config.yaml",
			config:      "rules:\n  - replace: b\n",
			wantErr:     true,
			errContains: "match is required",
		},
		{
			name:        "literal_without_replace",
			file:        "config.yaml",
			config:      "rules:\n  - match: a\n    kind: literal\n",
			wantErr:     true,
			errContains: "needs a replace value",
		},
		{
			name:        "unknown_encoding",
			file:        "config.yaml",
			config:      "encodings: [ebcdic]\n",
			wantErr:     true,
			errContains: "encodings",
		},
		{
			name:        "bad_timeout",
			file:        "config.yaml",
			config:      "discovery:\n  timeout: soon\n",
			wantErr:     true,
			errContains: "parsing timeout",
		},
		{
			name:        "unsupported_extension",
			file:        "config.toml",
			config:      "roots = []",
			wantErr:     true,
			errContains: "no parser found",
		},
		{
			name: "dotfile_yaml",
			file: ".retarget",
			config: `
roots: [src]
rules:
  - match: a
    replace: b
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"src"}, cfg.Roots)
				require.Len(t, cfg.Rules, 1)
			},
		},
		{
			name: "invalid_discovery_ip",
			file: "config.yaml",
			config: `
discovery:
  ip: 10.0.0.300
rules:
  - match: a
    replace: ${ip}
`,
			wantErr:     true,
			errContains: `invalid ip "10.0.0.300"`,
		},
		{
			name: "dotfile_hcl",
			file: ".retarget",
			config: `
roots = ["src"]
rule {
  match   = "localhost:8080"
  replace = "${ip}:8080"
}
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"src"}, cfg.Roots)
				require.Len(t, cfg.Rules, 1)
				assert.Equal(t, "${ip}:8080", *cfg.Rules[0].Replace)
			},
		},
	}

	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create temporary config file
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, tt.file)
			err := os.WriteFile(configPath, []byte(tt.config), 0644)
			require.NoError(t, err, "writing config file should succeed")

			// Load config
			cfg, err := Load(ctx, configPath)
			if tt.wantErr {
				require.Error(t, err, "Load should return error")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				return
			}

			require.NoError(t, err, "Load should succeed")
			assert.Equal(t, configPath, cfg.Location())
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadOptional(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := LoadOptional(ctx, missing, false)
	require.NoError(t, err, "missing optional config should use defaults")
	assert.Equal(t, DefaultExtensions, cfg.Extensions)
	assert.Empty(t, cfg.Location())

	_, err = LoadOptional(ctx, missing, true)
	require.Error(t, err, "missing required config should fail")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMerge(t *testing.T) {
	cfg := Default()
	cfg.Rules = []Rule{{Match: "10.183.118.172", Replace: strPtr("${ip}")}}

	err := cfg.Merge(Overrides{
		Roots:        []string{"a", "b"},
		Extensions:   []string{"go"},
		Replacements: []string{"localhost:8080=${ip}:8080"},
		IP:           "10.9.9.9",
		Backup:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, cfg.Roots)
	assert.Equal(t, []string{".go"}, cfg.Extensions)
	assert.Equal(t, DefaultExcludeDirs, cfg.ExcludeDirs, "unset overrides keep config values")
	assert.Equal(t, "10.9.9.9", cfg.Discovery.IP)
	assert.True(t, cfg.Backup)
	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, "localhost:8080", cfg.Rules[1].Match, "flag rules come after config rules")
	assert.Equal(t, "literal", cfg.Rules[1].Kind)

	err = cfg.Merge(Overrides{IP: "not-an-address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid ip "not-an-address"`)
	cfg.Discovery.IP = "10.9.9.9"

	err = cfg.Merge(Overrides{Replacements: []string{"no-separator"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want old=new")
}

func TestReplacementRules(t *testing.T) {
	cfg := Default()
	cfg.Rules = []Rule{
		{Match: "10.183.118.172", Replace: strPtr("${ip}")},
		{Match: "localhost:8080", Replace: strPtr("${ip}:${env.PORT}")},
		{Match: "192.168.", Kind: "prefix"},
		{Match: "10.0.2.2", Replace: strPtr("10.0.0.1"), Files: "app/**"},
	}
	require.NoError(t, cfg.Validate())

	needsIP, err := cfg.NeedsIP()
	require.NoError(t, err)
	assert.True(t, needsIP)

	rules, err := cfg.ReplacementRules(text.Vars{IP: "10.0.0.5", Env: map[string]string{"PORT": "8080"}})
	require.NoError(t, err)
	assert.Equal(t, []text.ReplacementRule{
		{FromText: "10.183.118.172", ToText: "10.0.0.5", Kind: text.KindLiteral},
		{FromText: "localhost:8080", ToText: "10.0.0.5:8080", Kind: text.KindLiteral},
		{FromText: "192.168.", Kind: text.KindMarker},
		{FromText: "10.0.2.2", ToText: "10.0.0.1", Kind: text.KindLiteral, FileFilterGlob: "app/**"},
	}, rules)

	_, err = cfg.ReplacementRules(text.Vars{IP: "10.0.0.5"})
	require.Error(t, err, "missing env variable should fail expansion")
	assert.Contains(t, err.Error(), "localhost:8080")
}

func TestNeedsIPWithoutTemplates(t *testing.T) {
	cfg := Default()
	cfg.Rules = []Rule{{Match: "a", Replace: strPtr("b")}, {Match: "192.168."}}
	require.NoError(t, cfg.Validate())

	needsIP, err := cfg.NeedsIP()
	require.NoError(t, err)
	assert.False(t, needsIP)
}

func TestDiscoveryOptions(t *testing.T) {
	d := &Discovery{IP: "10.1.1.1", Timeout: "750ms", InterfaceFallback: true}
	opts, err := d.Options()
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1", opts.Static)
	assert.Equal(t, "8.8.8.8:80", opts.Target)
	assert.Equal(t, "127.0.0.1", opts.Fallback)
	assert.Equal(t, "750ms", opts.Timeout.String())
	assert.True(t, opts.InterfaceFallback)
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Roots:      []string{"./frontend", "./backend"},
		Extensions: []string{".ts", ".tsx"},
		Rules:      []Rule{{Match: "a"}},
	}
	assert.Equal(t, "1 rule(s) over ./frontend, ./backend [.ts .tsx]", cfg.String(), "String() should match")
}
