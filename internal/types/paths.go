package types

import (
	"path/filepath"
	"strings"
)

// RelativePath is an ordered sequence of path segments relative to the traversal root.
// The zero value is the root itself.
type RelativePath []string

// ParseRelativePath splits a slash or platform separated path into segments.
// Empty and "." segments are dropped.
func ParseRelativePath(path string) RelativePath {
	normalizedPath := strings.ReplaceAll(filepath.ToSlash(path), "\\", "/")
	var segments RelativePath
	for _, segment := range strings.Split(normalizedPath, "/") {
		if segment == "" || segment == "." {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}

// Child returns a new path with name appended. The receiver is not modified.
func (path RelativePath) Child(name string) RelativePath {
	child := make(RelativePath, len(path), len(path)+1)
	copy(child, path)
	return append(child, name)
}

// Base returns the final segment, or an empty string for the root.
func (path RelativePath) Base() string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

// Contains reports whether any segment equals segment.
func (path RelativePath) Contains(segment string) bool {
	for _, pathSegment := range path {
		if pathSegment == segment {
			return true
		}
	}
	return false
}

// Equal reports whether both paths hold the same segments.
func (path RelativePath) Equal(other RelativePath) bool {
	if len(path) != len(other) {
		return false
	}
	for segmentIndex := range path {
		if path[segmentIndex] != other[segmentIndex] {
			return false
		}
	}
	return true
}

// IsRoot reports whether the path has no segments.
func (path RelativePath) IsRoot() bool {
	return len(path) == 0
}

// Depth returns the number of segments.
func (path RelativePath) Depth() int {
	return len(path)
}

// String joins the segments with the platform separator.
func (path RelativePath) String() string {
	return filepath.Join(path...)
}
