package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	DefaultIncludes = []string{"**/*.story", "**/*.feature"}

	ErrBadPattern = errors.New("malformed story path pattern")
)

// Finder lists story paths under a root, keeping those that match an
// include pattern and no exclude pattern. Patterns are doublestar globs:
// "*" stays inside one directory, "**" spans directories and "{a,b}"
// picks alternatives.
type Finder struct {
	Includes []string
	Excludes []string
}

func (f Finder) FindPaths(fsys fs.FS, root string) ([]string, error) {
	includes := f.Includes
	if len(includes) == 0 {
		includes = DefaultIncludes
	}
	if root == "" {
		root = "."
	}
	if err := ValidatePatterns(append(slices.Clone(includes), f.Excludes...)...); err != nil {
		return nil, err
	}

	paths := make([]string, 0)
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if matchAny(includes, p) && !matchAny(f.Excludes, p) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func matchAny(patterns []string, p string) bool {
	for _, pattern := range patterns {
		if Match(pattern, p) {
			return true
		}
	}
	return false
}

// Match reports whether a slash separated path matches a glob. A
// malformed glob matches nothing; ValidatePatterns reports it.
func Match(pattern, p string) bool {
	ok, err := doublestar.Match(pattern, p)
	return err == nil && ok
}

// ValidatePatterns fails for the first malformed glob.
func ValidatePatterns(patterns ...string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %q", ErrBadPattern, pattern)
		}
	}
	return nil
}
