// Package types defines every cross‑package data structure used by the combiner CLI.
package types

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"
)

// Configuration is the value object handed to the traversal entry point.
type Configuration struct {
	// RootPath is the directory being combined.
	RootPath string
	// Extensions is the allowlist of lowercase file extensions, including the leading dot.
	Extensions []string
	// OutputDirectoryName is the directory beneath RootPath receiving artifacts.
	OutputDirectoryName string
	// RulesFileName is the ignore file read from RootPath.
	RulesFileName string
}

// AllowsExtension reports whether extension is in the allowlist.
func (configuration Configuration) AllowsExtension(extension string) bool {
	for _, allowedExtension := range configuration.Extensions {
		if allowedExtension == extension {
			return true
		}
	}
	return false
}

// TreeNode is a directory or file encountered during traversal.
type TreeNode struct {
	Name     string
	Path     RelativePath
	Type     string
	Children []*TreeNode
}

// IsDirectory reports whether the node represents a directory.
func (node *TreeNode) IsDirectory() bool {
	return node.Type == NodeTypeDirectory
}

// FileRecord is a file whose content is included in the artifact.
type FileRecord struct {
	Path      RelativePath
	SizeBytes int64
	Content   string
	// ReadError holds the reason the file could not be read. Content is empty when set.
	ReadError string
}

// Snapshot is the outcome of a single traversal.
type Snapshot struct {
	Tree     *TreeNode
	Manifest []FileRecord
}

// TotalBytes returns the combined size of every file in the manifest.
func (snapshot *Snapshot) TotalBytes() int64 {
	var totalBytes int64
	for _, record := range snapshot.Manifest {
		totalBytes += record.SizeBytes
	}
	return totalBytes
}

// OutputSummary captures aggregate information about the written artifact.
type OutputSummary struct {
	TotalFiles  int
	TotalSize   string
	TotalTokens int
	Model       string
}
