package watcher

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// ExcludeMatcher matches paths against glob patterns such as "**/.git/**".
// '*' stays within one path segment and '**' crosses segments.
type ExcludeMatcher struct {
	patterns []string
	globs    []glob.Glob
}

// NewExcludeMatcher compiles patterns.
func NewExcludeMatcher(patterns []string) (*ExcludeMatcher, error) {
	m := &ExcludeMatcher{patterns: patterns}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether path, or the directory it names, is excluded.
func (m *ExcludeMatcher) Match(path string) bool {
	p := filepath.ToSlash(path)
	for _, g := range m.globs {
		if g.Match(p) || g.Match(p+"/") {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns.
func (m *ExcludeMatcher) Patterns() []string {
	return m.patterns
}
