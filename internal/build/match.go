package build

import (
	"fmt"
	"sort"

	"github.com/gobwas/glob"
)

// patternSet is a list of compiled globs over slash-separated relative paths.
// "*" stays within one path segment, "**" crosses segments.
type patternSet []glob.Glob

func compilePatterns(patterns []string) (patternSet, error) {
	set := make(patternSet, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		set = append(set, g)
	}
	return set, nil
}

func (s patternSet) match(rel string) bool {
	for _, g := range s {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// externalRule routes matching sources to an out-of-process exporter.
type externalRule struct {
	pattern string
	glob    glob.Glob
	command string
}

// compileExternal compiles glob -> command rules, ordered by pattern so the
// first match is deterministic.
func compileExternal(rules map[string]string) ([]externalRule, error) {
	patterns := make([]string, 0, len(rules))
	for p := range rules {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	out := make([]externalRule, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid external pattern %q: %w", p, err)
		}
		out = append(out, externalRule{pattern: p, glob: g, command: rules[p]})
	}
	return out, nil
}
