// Package output renders the combined artifact and console summaries.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/combiner/internal/types"
)

const (
	treeSectionHeader     = "########## Folder Tree Map ##########"
	manifestSectionHeader = "########## List of Files Included ##########"
	contentSectionHeader  = "########## Combined Code ##########"

	sectionSeparator = "\n\n\n\n"

	fileHeaderFormat = "\n# File: %s\n"
	readErrorFormat  = "# [Error reading file: %s]\n"

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "
)

// RenderArtifact assembles the tree, manifest and combined content sections in that order.
func RenderArtifact(snapshot *types.Snapshot) string {
	var treeBuilder strings.Builder
	WriteTree(&treeBuilder, snapshot.Tree)

	manifestLines := make([]string, 0, len(snapshot.Manifest))
	for _, record := range snapshot.Manifest {
		manifestLines = append(manifestLines, record.Path.String())
	}

	var contentBuilder strings.Builder
	for _, record := range snapshot.Manifest {
		WriteFileBlock(&contentBuilder, record)
	}

	sections := []string{
		treeSectionHeader + "\n" + strings.TrimSuffix(treeBuilder.String(), "\n"),
		manifestSectionHeader + "\n" + strings.Join(manifestLines, "\n"),
		contentSectionHeader + "\n" + contentBuilder.String(),
	}
	return strings.Join(sections, sectionSeparator)
}

// WriteFileBlock writes the path header followed by the file content or its read error marker.
func WriteFileBlock(writer io.Writer, record types.FileRecord) {
	fmt.Fprintf(writer, fileHeaderFormat, record.Path.String())
	if record.ReadError != "" {
		fmt.Fprintf(writer, readErrorFormat, record.ReadError)
		return
	}
	fmt.Fprint(writer, record.Content)
	fmt.Fprintln(writer)
}

// WriteTree renders node as the root line followed by its descendants drawn with box connectors.
func WriteTree(writer io.Writer, node *types.TreeNode) {
	if node == nil {
		return
	}
	fmt.Fprintln(writer, node.Name)
	writeTreeChildren(writer, node.Children, "")
}

func writeTreeChildren(writer io.Writer, children []*types.TreeNode, prefix string) {
	for childIndex, child := range children {
		isLast := childIndex == len(children)-1
		connector, childPrefix := treeBranchConnector, prefix+treeBranchPadding
		if isLast {
			connector, childPrefix = treeLastConnector, prefix+treeLastPadding
		}
		fmt.Fprintf(writer, "%s%s%s\n", prefix, connector, child.Name)
		if child.IsDirectory() {
			writeTreeChildren(writer, child.Children, childPrefix)
		}
	}
}

// FormatSummaryLine formats an OutputSummary into the console summary line.
func FormatSummaryLine(summary *types.OutputSummary) string {
	if summary == nil {
		summary = &types.OutputSummary{}
	}
	label := "files"
	if summary.TotalFiles == 1 {
		label = "file"
	}
	extra := ""
	if summary.TotalTokens > 0 {
		extra = fmt.Sprintf(", %d tokens", summary.TotalTokens)
	}
	modelSuffix := ""
	if summary.Model != "" {
		modelSuffix = fmt.Sprintf(" (model: %s)", summary.Model)
	}
	return fmt.Sprintf("Summary: %d %s, %s%s%s", summary.TotalFiles, label, summary.TotalSize, extra, modelSuffix)
}
