// Package filter decides which paths under the traversal root are excluded.
//
// Rules follow a subset of .gitignore syntax. A rule ending in a separator names a folder
// and matches when any path segment equals it. Every other rule is a shell fnmatch pattern
// (*, ?, [...] and [!...]) matched against the whole relative path and against its final
// segment. Braces and backslashes are literal. Segments starting with a dot are always
// excluded. Negation, anchoring and ** are not supported.
package filter

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/temirov/combiner/internal/types"
)

const (
	hiddenPrefix         = "."
	folderRuleSeparators = `/\`
)

// rule is a single compiled ignore pattern.
type rule struct {
	pattern    string
	folderName string
	matcher    glob.Glob
}

func compileRule(pattern string) rule {
	if strings.ContainsAny(pattern[len(pattern)-1:], folderRuleSeparators) {
		return rule{pattern: pattern, folderName: strings.TrimRight(pattern, folderRuleSeparators)}
	}
	// A pattern that does not translate or compile never matches.
	translatedPattern, translateError := translateFnmatch(pattern)
	if translateError != nil {
		return rule{pattern: pattern}
	}
	matcher, compileError := glob.Compile(translatedPattern)
	if compileError != nil {
		return rule{pattern: pattern}
	}
	return rule{pattern: pattern, matcher: matcher}
}

func (compiledRule rule) matches(path types.RelativePath) bool {
	if compiledRule.folderName != "" {
		return path.Contains(compiledRule.folderName)
	}
	if compiledRule.matcher == nil {
		return false
	}
	return compiledRule.matcher.Match(path.String()) || compiledRule.matcher.Match(path.Base())
}

// Filter answers whether a relative path is excluded. It is immutable after construction.
type Filter struct {
	rules []rule
}

// New compiles patterns into a Filter. Blank patterns are ignored.
func New(patterns []string) *Filter {
	compiledRules := make([]rule, 0, len(patterns))
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" || strings.Trim(trimmedPattern, folderRuleSeparators) == "" {
			continue
		}
		compiledRules = append(compiledRules, compileRule(trimmedPattern))
	}
	return &Filter{rules: compiledRules}
}

// Patterns returns the source pattern of every rule in load order.
func (filter *Filter) Patterns() []string {
	patterns := make([]string, 0, len(filter.rules))
	for _, compiledRule := range filter.rules {
		patterns = append(patterns, compiledRule.pattern)
	}
	return patterns
}

// IsExcluded reports whether path is hidden or matched by any rule.
// The root itself is never excluded.
func (filter *Filter) IsExcluded(path types.RelativePath) bool {
	if path.IsRoot() {
		return false
	}
	if IsHidden(path) {
		return true
	}
	for _, compiledRule := range filter.rules {
		if compiledRule.matches(path) {
			return true
		}
	}
	return false
}

// IsHidden reports whether any segment of path starts with a dot.
func IsHidden(path types.RelativePath) bool {
	for _, segment := range path {
		if strings.HasPrefix(segment, hiddenPrefix) {
			return true
		}
	}
	return false
}
