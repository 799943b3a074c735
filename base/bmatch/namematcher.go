// Package bmatch provides matching of logger names by glob patterns
package bmatch

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// NameSeparator separates the levels of a logger name, e.g. "app.db.pool"
const NameSeparator = '.'

// NameMatcher matches logger names against include and exclude patterns
//
// Patterns use glob syntax where "*" stays within one level of a dotted name and "**" crosses levels:
//
//	app.*    matches app.db but not app.db.pool
//	app.**   matches both
//
// A name matches if it matches any include pattern (or there is none) and no exclude pattern.
// The zero value matches everything.
type NameMatcher struct {
	include     []glob.Glob
	exclude     []glob.Glob
	description string
}

// NewNameMatcher compiles the patterns
func NewNameMatcher(include []string, exclude []string) (NameMatcher, error) {
	inc, err := compilePatterns(include)
	if err != nil {
		return NameMatcher{}, fmt.Errorf("include%w", err)
	}
	exc, err := compilePatterns(exclude)
	if err != nil {
		return NameMatcher{}, fmt.Errorf("exclude%w", err)
	}
	return NameMatcher{
		include:     inc,
		exclude:     exc,
		description: fmt.Sprintf("+[%s] -[%s]", strings.Join(include, ", "), strings.Join(exclude, ", ")),
	}, nil
}

// Match checks whether the logger name passes the matcher
func (m NameMatcher) Match(name string) bool {
	for _, g := range m.exclude {
		if g.Match(name) {
			return false
		}
	}
	if len(m.include) == 0 {
		return true
	}
	for _, g := range m.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (m NameMatcher) String() string {
	if m.description == "" {
		return "*"
	}
	return m.description
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for i, pattern := range patterns {
		if pattern == "" {
			return nil, fmt.Errorf("[%d] is empty", i)
		}
		g, err := glob.Compile(pattern, NameSeparator)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}
