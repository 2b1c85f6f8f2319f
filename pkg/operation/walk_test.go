package operation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, rel := range paths {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
}

func rels(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Rel)
	}
	return out
}

func TestWalk(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		opts  WalkOptions
		want  []string
	}{
		{
			name:  "lexical_order",
			files: []string{"b/z.ts", "a/y.ts", "c.ts", "a/b/x.tsx"},
			opts:  WalkOptions{Extensions: []string{".ts", ".tsx"}},
			want:  []string{"a/b/x.tsx", "a/y.ts", "b/z.ts", "c.ts"},
		},
		{
			name:  "extension_filter_is_case_sensitive",
			files: []string{"a.ts", "b.TS", "c.md", "d.ts.bak"},
			opts:  WalkOptions{Extensions: []string{".ts"}},
			want:  []string{"a.ts"},
		},
		{
			name:  "excluded_dirs_at_any_depth",
			files: []string{"node_modules/a.ts", "pkg/node_modules/b.ts", "pkg/.git/c.ts", "pkg/d.ts", "Node_Modules/e.ts"},
			opts:  WalkOptions{Extensions: []string{".ts"}, ExcludeDirs: []string{"node_modules", ".git"}},
			want:  []string{"Node_Modules/e.ts", "pkg/d.ts"},
		},
		{
			name:  "excluded_name_only_applies_to_directories",
			files: []string{"node_modules.ts"},
			opts:  WalkOptions{Extensions: []string{".ts"}, ExcludeDirs: []string{"node_modules.ts"}},
			want:  []string{"node_modules.ts"},
		},
		{
			name:  "ignore_patterns",
			files: []string{"dist/a.ts", "src/b.gen.ts", "src/c.ts"},
			opts:  WalkOptions{Extensions: []string{".ts"}, IgnorePatterns: []string{"dist/**", "**/*.gen.ts"}},
			want:  []string{"src/c.ts"},
		},
		{
			name:  "custom_match",
			files: []string{"a.ts", "a.ts.retarget.bak"},
			opts: WalkOptions{Match: func(name string) (string, bool) {
				return ".bak", filepath.Ext(name) == ".bak"
			}},
			want: []string{"a.ts.retarget.bak"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			touch(t, root, tt.files...)

			got, err := Walk(context.Background(), root, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rels(got))
			for _, c := range got {
				assert.Equal(t, root, c.Root)
				assert.Equal(t, filepath.Join(root, filepath.FromSlash(c.Rel)), c.Path)
			}
		})
	}
}

func TestWalkMissingRoot(t *testing.T) {
	_, err := Walk(context.Background(), filepath.Join(t.TempDir(), "nope"), WalkOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRoot)

	file := filepath.Join(t.TempDir(), "file.ts")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = Walk(context.Background(), file, WalkOptions{})
	assert.ErrorIs(t, err, ErrMissingRoot, "a file is not a scan root")
}

func TestWalkUnreadableDir(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	root := t.TempDir()
	touch(t, root, "locked/a.ts", "open/b.ts")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	var skipped []string
	got, err := Walk(context.Background(), root, WalkOptions{
		Extensions: []string{".ts"},
		OnSkip:     func(path string, err error) { skipped = append(skipped, path) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"open/b.ts"}, rels(got))
	assert.Equal(t, []string{locked}, skipped)
}

func TestWalkCancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.ts")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Walk(ctx, root, WalkOptions{Extensions: []string{".ts"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatchExtension(t *testing.T) {
	ext, ok := MatchExtension("view.tsx", []string{".ts", ".tsx"})
	assert.True(t, ok)
	assert.Equal(t, ".tsx", ext)

	_, ok = MatchExtension("view.TSX", []string{".tsx"})
	assert.False(t, ok)
}
