package fs

import (
	"path"
	"path/filepath"
	"strings"
)

// MatchGlob matches a slash-separated relative path against a glob pattern.
// Supports:
//   - * and ? within a single path segment (path.Match rules)
//   - [...] character classes
//   - ** as a whole segment, matching zero or more segments
//
// The whole path must match; "*.txt" does not match "dir/a.txt".
func MatchGlob(pattern, name string) bool {
	pattern = filepath.ToSlash(pattern)
	name = filepath.ToSlash(name)

	if pattern == "" {
		return name == ""
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pattern, segments []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(segments); i++ {
				if matchSegments(rest, segments[i:]) {
					return true
				}
			}
			return false
		}

		if len(segments) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], segments[0])
		if err != nil || !ok {
			return false
		}
		pattern, segments = pattern[1:], segments[1:]
	}
	return len(segments) == 0
}

// ValidGlob reports whether every segment of pattern is well formed.
func ValidGlob(pattern string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(pattern), "/") {
		if seg == "**" {
			continue
		}
		if _, err := path.Match(seg, ""); err != nil {
			return false
		}
	}
	return true
}

// Matcher applies include/exclude globs to relative paths.
// Exclude wins over include; an empty include list includes everything.
type Matcher struct {
	include []string
	exclude []string
}

// NewMatcher creates a Matcher. Nil slices are fine.
func NewMatcher(include, exclude []string) *Matcher {
	return &Matcher{include: include, exclude: exclude}
}

// Match reports whether a file at rel passes the include/exclude patterns.
// Patterns are matched against the full relative path.
func (m *Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)

	for _, p := range m.exclude {
		if MatchGlob(p, rel) {
			return false
		}
	}
	if len(m.include) == 0 {
		return true
	}
	for _, p := range m.include {
		if MatchGlob(p, rel) {
			return true
		}
	}
	return false
}

// Excluded applies ignore-file style rules to a single entry:
//   - "name/" only matches directories
//   - a pattern without a slash matches the base name at any depth
//   - any other pattern matches the full relative path
func Excluded(patterns []string, rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)

	for _, p := range patterns {
		p = filepath.ToSlash(p)
		dirOnly := strings.HasSuffix(p, "/")
		p = strings.TrimSuffix(p, "/")
		if p == "" || (dirOnly && !isDir) {
			continue
		}

		if !strings.Contains(p, "/") {
			if ok, err := path.Match(p, base); err == nil && ok {
				return true
			}
			continue
		}
		if MatchGlob(strings.TrimPrefix(p, "/"), rel) {
			return true
		}
	}
	return false
}
