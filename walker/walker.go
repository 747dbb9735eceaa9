package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPattern matches individually stored messages.
const DefaultPattern = "*.eml"

var ErrNotCandidate = errors.New("file does not match pattern")

type Options struct {
	Root      string
	Pattern   string
	Recursive bool
}

// ValidatePattern reports a malformed glob before any directory is touched.
func ValidatePattern(pattern string) error {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return nil
}

// Match reports whether the base name of path matches pattern, ignoring case.
func Match(pattern, path string) bool {
	ok, err := filepath.Match(strings.ToLower(pattern), strings.ToLower(filepath.Base(path)))
	return err == nil && ok
}

// Find lists the candidate files below opts.Root in lexical order. A Root
// that names a single file yields just that file.
func Find(opts Options, logger *slog.Logger) ([]string, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}

	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", opts.Root, err)
	}

	if !info.IsDir() {
		if !Match(pattern, opts.Root) {
			return nil, fmt.Errorf("%s: %w %q", opts.Root, ErrNotCandidate, pattern)
		}
		return []string{opts.Root}, nil
	}

	if opts.Recursive {
		return walk(opts.Root, pattern, logger)
	}
	return list(opts.Root, pattern)
}

func list(root, pattern string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", root, err)
	}

	var files []string
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if !isRegular(path, entry) {
			continue
		}
		if Match(pattern, entry.Name()) {
			files = append(files, path)
		}
	}
	return files, nil
}

// isRegular reports whether entry is a regular file, following symlinks.
// Broken links and links to directories are not candidates.
func isRegular(path string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.Type().IsRegular()
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func walk(root, pattern string, logger *slog.Logger) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			if logger != nil {
				logger.Warn("skipping unreadable path", "path", path, "err", walkErr)
			}
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !isRegular(path, entry) {
			return nil
		}
		if Match(pattern, path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
