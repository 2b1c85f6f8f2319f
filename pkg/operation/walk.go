package operation

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📄 Candidate is a file selected for processing
type Candidate struct {
	Root string // Scan root as configured
	Path string // Root joined path
	Rel  string // Slash separated path relative to Root
	Ext  string // Matched suffix
}

// 🔍 WalkOptions controls which files Walk selects
type WalkOptions struct {
	// Extensions are case-sensitive basename suffixes
	Extensions []string
	// ExcludeDirs are directory basenames pruned at any depth
	ExcludeDirs []string
	// IgnorePatterns are doublestar globs against the relative path
	IgnorePatterns []string
	// Match overrides the extension test when set
	Match func(name string) (ext string, ok bool)
	// OnSkip is told about entries that could not be read
	OnSkip func(path string, err error)
}

// MatchExtension returns the first configured suffix name ends with
func MatchExtension(name string, exts []string) (string, bool) {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return ext, true
		}
	}
	return "", false
}

func (o WalkOptions) ignored(rel string) bool {
	for _, pattern := range o.IgnorePatterns {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// 🌳 Walk collects candidates under root in lexical order. Excluded and
// ignored directories are never entered.
func Walk(ctx context.Context, root string, opts WalkOptions) ([]Candidate, error) {
	logger := zerolog.Ctx(ctx)

	fi, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Errorf("%s: %w", root, ErrMissingRoot)
		}
		return nil, errors.Errorf("checking root: %w", err)
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("%s is not a directory: %w", root, ErrMissingRoot)
	}

	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, name := range opts.ExcludeDirs {
		excluded[name] = true
	}

	match := opts.Match
	if match == nil {
		match = func(name string) (string, bool) {
			return MatchExtension(name, opts.Extensions)
		}
	}

	var candidates []Candidate
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == root {
				return err
			}
			logger.Debug().Str("path", path).Err(err).Msg("skipping unreadable entry")
			if opts.OnSkip != nil {
				opts.OnSkip(path, err)
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Errorf("relative path for %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if excluded[d.Name()] {
				logger.Trace().Str("dir", rel).Msg("pruning excluded directory")
				return fs.SkipDir
			}
			if opts.ignored(rel) {
				logger.Trace().Str("dir", rel).Msg("pruning ignored directory")
				return fs.SkipDir
			}
			return nil
		}

		// sockets, devices and pipes are never text
		if d.Type()&(fs.ModeNamedPipe|fs.ModeSocket|fs.ModeDevice|fs.ModeCharDevice|fs.ModeIrregular) != 0 {
			return nil
		}

		ext, ok := match(d.Name())
		if !ok || opts.ignored(rel) {
			return nil
		}

		candidates = append(candidates, Candidate{
			Root: root,
			Path: path,
			Rel:  rel,
			Ext:  ext,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}

	return candidates, nil
}
