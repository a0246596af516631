// Package commands contains the traversal and artifact logic behind the combiner command.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/combiner/internal/types"
	"github.com/temirov/combiner/internal/utils"
)

// ErrRootUnreadable reports a traversal root that cannot be listed.
var ErrRootUnreadable = errors.New("root directory cannot be read")

const (
	// warningSkipSubdirMessage is logged when a subdirectory cannot be listed.
	warningSkipSubdirMessage = "skipping unreadable directory"
	// warningReadFileMessage is logged when file content cannot be read.
	warningReadFileMessage = "unable to read file"

	// errorAbsolutePathFormat is used when the absolute path cannot be determined.
	errorAbsolutePathFormat = "%w: getting absolute path for %s: %v"
	// errorRootNotDirectoryFormat is used when the root is a file.
	errorRootNotDirectoryFormat = "%w: %s is not a directory"
	// errorReadRootFormat is used when the root cannot be listed.
	errorReadRootFormat = "%w: reading %s: %w"
)

// PathFilter decides whether a path relative to the root is pruned.
type PathFilter interface {
	IsExcluded(path types.RelativePath) bool
}

// TreeWalker traverses a root once and produces the tree, the manifest and file contents.
type TreeWalker struct {
	fileSystem    afero.Fs
	pathFilter    PathFilter
	configuration types.Configuration
	logger        *zap.Logger
}

// NewTreeWalker builds a TreeWalker. A nil logger discards warnings.
func NewTreeWalker(fileSystem afero.Fs, pathFilter PathFilter, configuration types.Configuration, logger *zap.Logger) *TreeWalker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TreeWalker{
		fileSystem:    fileSystem,
		pathFilter:    pathFilter,
		configuration: configuration,
		logger:        logger,
	}
}

// Walk traverses the configured root depth first.
// Excluded directories are never listed. Files are read in manifest order after traversal.
func (walker *TreeWalker) Walk() (*types.Snapshot, error) {
	rootDirectoryPath := walker.configuration.RootPath
	absoluteRootPath, absolutePathError := filepath.Abs(rootDirectoryPath)
	if absolutePathError != nil {
		return nil, fmt.Errorf(errorAbsolutePathFormat, ErrRootUnreadable, rootDirectoryPath, absolutePathError)
	}
	rootInfo, statError := walker.fileSystem.Stat(rootDirectoryPath)
	if statError != nil {
		return nil, fmt.Errorf(errorReadRootFormat, ErrRootUnreadable, rootDirectoryPath, statError)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf(errorRootNotDirectoryFormat, ErrRootUnreadable, rootDirectoryPath)
	}

	rootNode := &types.TreeNode{
		Name: filepath.Base(absoluteRootPath),
		Path: types.RelativePath{},
		Type: types.NodeTypeDirectory,
	}
	snapshot := &types.Snapshot{Tree: rootNode}

	pendingDirectories := []*types.TreeNode{rootNode}
	for len(pendingDirectories) > 0 {
		directoryNode := pendingDirectories[len(pendingDirectories)-1]
		pendingDirectories = pendingDirectories[:len(pendingDirectories)-1]

		entries, listError := walker.listDirectory(directoryNode.Path)
		if listError != nil {
			if directoryNode == rootNode {
				return nil, fmt.Errorf(errorReadRootFormat, ErrRootUnreadable, rootDirectoryPath, listError)
			}
			walker.logger.Warn(warningSkipSubdirMessage,
				zap.String("path", directoryNode.Path.String()),
				zap.Int("depth", directoryNode.Path.Depth()),
				zap.Error(listError))
			continue
		}

		for _, entry := range entries {
			childNode := &types.TreeNode{
				Name: entry.Name(),
				Path: directoryNode.Path.Child(entry.Name()),
				Type: types.NodeTypeFile,
			}
			if entry.IsDir() {
				childNode.Type = types.NodeTypeDirectory
				pendingDirectories = append(pendingDirectories, childNode)
			} else if walker.includesContent(entry.Name()) {
				snapshot.Manifest = append(snapshot.Manifest, types.FileRecord{
					Path:      childNode.Path,
					SizeBytes: entry.Size(),
				})
			}
			directoryNode.Children = append(directoryNode.Children, childNode)
		}
	}

	sort.SliceStable(snapshot.Manifest, func(left, right int) bool {
		return snapshot.Manifest[left].Path.String() < snapshot.Manifest[right].Path.String()
	})
	for recordIndex := range snapshot.Manifest {
		walker.readContent(&snapshot.Manifest[recordIndex])
	}
	return snapshot, nil
}

// listDirectory returns the entries of the directory at path that survive the filter,
// directories first and then by name.
func (walker *TreeWalker) listDirectory(path types.RelativePath) ([]os.FileInfo, error) {
	directoryEntries, readError := afero.ReadDir(walker.fileSystem, walker.absolutePath(path))
	if readError != nil {
		return nil, readError
	}

	survivingEntries := make([]os.FileInfo, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		if walker.pathFilter.IsExcluded(path.Child(directoryEntry.Name())) {
			continue
		}
		survivingEntries = append(survivingEntries, directoryEntry)
	}

	sort.SliceStable(survivingEntries, func(left, right int) bool {
		leftIsDirectory := survivingEntries[left].IsDir()
		rightIsDirectory := survivingEntries[right].IsDir()
		if leftIsDirectory != rightIsDirectory {
			return leftIsDirectory
		}
		return survivingEntries[left].Name() < survivingEntries[right].Name()
	})
	return survivingEntries, nil
}

// includesContent reports whether a file name carries an allowlisted extension.
func (walker *TreeWalker) includesContent(fileName string) bool {
	return walker.configuration.AllowsExtension(strings.ToLower(filepath.Ext(fileName)))
}

// readContent fills the record with decoded content or with the reason it could not be read.
func (walker *TreeWalker) readContent(record *types.FileRecord) {
	fileBytes, readError := afero.ReadFile(walker.fileSystem, walker.absolutePath(record.Path))
	if readError != nil {
		walker.logger.Warn(warningReadFileMessage,
			zap.String("path", record.Path.String()),
			zap.Int("depth", record.Path.Depth()),
			zap.Error(readError))
		record.SizeBytes = 0
		record.ReadError = describeReadError(readError)
		return
	}
	record.SizeBytes = int64(len(fileBytes))
	record.Content = utils.DecodeText(fileBytes)
}

func (walker *TreeWalker) absolutePath(path types.RelativePath) string {
	return filepath.Join(walker.configuration.RootPath, path.String())
}

// describeReadError drops the path from file system errors so no absolute location reaches the artifact.
func describeReadError(readError error) string {
	var pathError *fs.PathError
	if errors.As(readError, &pathError) {
		return pathError.Err.Error()
	}
	return readError.Error()
}
