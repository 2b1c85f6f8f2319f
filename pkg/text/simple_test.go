package text

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleTextReplacer_ReplaceText(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		content      string
		rules        []ReplacementRule
		want         string
		wantCount    int
		wantMarkers  int
		wantError    string
		wantModified bool
	}{
		{
			name:    "literal_address",
			content: "const API = 'http://10.183.118.172/api'",
			rules: []ReplacementRule{
				{FromText: "10.183.118.172", ToText: "10.0.0.5"},
			},
			want:         "const API = 'http://10.0.0.5/api'",
			wantCount:    1,
			wantModified: true,
		},
		{
			name:    "host_with_port",
			content: "fetch('http://localhost:8080/x'); fetch('http://localhost:8080/y')",
			rules: []ReplacementRule{
				{FromText: "localhost:8080", ToText: "10.0.0.5:8080"},
			},
			want:         "fetch('http://10.0.0.5:8080/x'); fetch('http://10.0.0.5:8080/y')",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "rules_apply_in_order",
			content: "a",
			rules: []ReplacementRule{
				{FromText: "a", ToText: "b"},
				{FromText: "b", ToText: "c"},
			},
			want:         "c",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "replacement_equal_to_match",
			content: "host 10.0.0.5",
			rules: []ReplacementRule{
				{FromText: "10.0.0.5", ToText: "10.0.0.5"},
			},
			want:         "host 10.0.0.5",
			wantCount:    1,
			wantModified: false,
		},
		{
			name:    "no_match",
			content: "# readme\nnothing here",
			rules: []ReplacementRule{
				{FromText: "10.183.118.172", ToText: "10.0.0.5"},
			},
			want:         "# readme\nnothing here",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:    "empty_content",
			content: "",
			rules: []ReplacementRule{
				{FromText: "World", ToText: "Universe"},
			},
			want:         "",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:         "empty_rules",
			content:      "Hello World",
			rules:        []ReplacementRule{},
			want:         "Hello World",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:    "prefix_consumes_whole_address",
			content: "a 192.168.1.20:3000 b 192.168.0.1.",
			rules: []ReplacementRule{
				{FromText: "192.168.", ToText: "10.0.0.5", Kind: KindPrefix},
			},
			want:         "a 10.0.0.5:3000 b 10.0.0.5.",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "prefix_respects_address_boundary",
			content: "x1192.168.1.1 y",
			rules: []ReplacementRule{
				{FromText: "192.168.", ToText: "10.0.0.5", Kind: KindPrefix},
			},
			want:         "x1192.168.1.1 y",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:    "marker_counts_without_replacing",
			content: "192.168.1.1 and 192.168.4.4",
			rules: []ReplacementRule{
				{FromText: "192.168.", Kind: KindMarker},
			},
			want:         "192.168.1.1 and 192.168.4.4",
			wantCount:    0,
			wantMarkers:  2,
			wantModified: false,
		},
		{
			name:    "file_filter_matches",
			path:    "src/app/config.ts",
			content: "localhost:8080",
			rules: []ReplacementRule{
				{FromText: "localhost:8080", ToText: "10.0.0.5:8080", FileFilterGlob: "**/*.ts"},
			},
			want:         "10.0.0.5:8080",
			wantCount:    1,
			wantModified: true,
		},
		{
			name:    "file_filter_skips",
			path:    "README.md",
			content: "localhost:8080",
			rules: []ReplacementRule{
				{FromText: "localhost:8080", ToText: "10.0.0.5:8080", FileFilterGlob: "**/*.ts"},
			},
			want:         "localhost:8080",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:    "unknown_kind",
			content: "x",
			rules: []ReplacementRule{
				{FromText: "x", ToText: "y", Kind: "regex"},
			},
			wantError: "unknown kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replacer := NewSimpleTextReplacer()
			result, err := replacer.ReplaceText(context.Background(), tt.path, tt.content, tt.rules)

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.content, result.OriginalContent)
			assert.Equal(t, tt.want, result.ModifiedContent)
			assert.Equal(t, tt.wantCount, result.ReplacementCount)
			assert.Equal(t, tt.wantMarkers, result.MarkerCount)
			assert.Equal(t, tt.wantModified, result.WasModified)
		})
	}
}

func TestSimpleTextReplacer_Matches(t *testing.T) {
	replacer := NewSimpleTextReplacer()
	rules := []ReplacementRule{
		{FromText: "10.183.118.172", ToText: "10.0.0.5"},
		{FromText: "unused", ToText: "x"},
		{FromText: "192.168.", Kind: KindMarker},
	}

	result, err := replacer.ReplaceText(context.Background(), "a.ts", "10.183.118.172 192.168.1.1 10.183.118.172", rules)
	require.NoError(t, err)

	require.Len(t, result.Matches, 2)
	assert.Equal(t, "10.183.118.172", result.Matches[0].Rule.FromText)
	assert.Equal(t, 2, result.Matches[0].Count)
	assert.Equal(t, KindMarker, result.Matches[1].Rule.Kind)
	assert.Equal(t, 1, result.Matches[1].Count)
}

func TestSimpleTextReplacer_ValidateRules(t *testing.T) {
	tests := []struct {
		name      string
		rules     []ReplacementRule
		wantError string
	}{
		{
			name: "valid_rules",
			rules: []ReplacementRule{
				{FromText: "foo", ToText: "bar", FileFilterGlob: "**/*.ts"},
				{FromText: "192.168.", Kind: KindMarker},
			},
		},
		{
			name: "missing_from_text",
			rules: []ReplacementRule{
				{ToText: "bar"},
			},
			wantError: "from_text is required",
		},
		{
			name: "unknown_kind",
			rules: []ReplacementRule{
				{FromText: "foo", Kind: "fuzzy"},
			},
			wantError: "unknown kind",
		},
		{
			name: "bad_glob",
			rules: []ReplacementRule{
				{FromText: "foo", ToText: "bar", FileFilterGlob: "src/[a-"},
			},
			wantError: "invalid file_filter_glob",
		},
		{
			name:  "empty_rules",
			rules: []ReplacementRule{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replacer := NewSimpleTextReplacer()
			err := replacer.ValidateRules(tt.rules)

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}

			require.NoError(t, err)
		})
	}
}
