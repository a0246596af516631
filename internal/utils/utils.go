// Package utils contains general helper functions used across the combiner tool.
package utils

import (
	"strings"
)

// File and directory names used across the project.
const (
	// GitIgnoreFileName is the default rules file read from the root.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// DefaultOutputDirectoryName is the directory beneath the root that receives artifacts.
	DefaultOutputDirectoryName = "output_code_combiner"
	// ConfigFileName is the name of the application configuration file.
	ConfigFileName = ".combiner.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = ".combiner"
)

const extensionPrefix = "."

// DefaultExtensions returns the allowlist of source extensions whose content is combined.
func DefaultExtensions() []string {
	return []string{".py", ".js", ".java", ".html", ".css"}
}

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// NormalizeExtensions lowercases extensions, adds a missing leading dot,
// drops blanks and removes duplicates.
func NormalizeExtensions(extensions []string) []string {
	normalizedExtensions := make([]string, 0, len(extensions))
	for _, extension := range extensions {
		trimmedExtension := strings.ToLower(strings.TrimSpace(extension))
		if trimmedExtension == "" || trimmedExtension == extensionPrefix {
			continue
		}
		if !strings.HasPrefix(trimmedExtension, extensionPrefix) {
			trimmedExtension = extensionPrefix + trimmedExtension
		}
		normalizedExtensions = append(normalizedExtensions, trimmedExtension)
	}
	return DeduplicatePatterns(normalizedExtensions)
}
