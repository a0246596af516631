package commands_test

import (
	"io/fs"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/combiner/internal/config"
	"github.com/temirov/combiner/internal/filter"
	"github.com/temirov/combiner/internal/types"
	"github.com/temirov/combiner/internal/utils"
)

const testRootDirectory = "/project"

// restrictedFs denies opening selected paths and records every path it opens.
type restrictedFs struct {
	afero.Fs
	deniedPaths map[string]struct{}
	mutex       sync.Mutex
	openedPaths []string
}

func newRestrictedFs(base afero.Fs, deniedPaths ...string) *restrictedFs {
	denied := make(map[string]struct{}, len(deniedPaths))
	for _, deniedPath := range deniedPaths {
		denied[filepath.Clean(deniedPath)] = struct{}{}
	}
	return &restrictedFs{Fs: base, deniedPaths: denied}
}

func (restricted *restrictedFs) Open(name string) (afero.File, error) {
	restricted.mutex.Lock()
	restricted.openedPaths = append(restricted.openedPaths, filepath.Clean(name))
	restricted.mutex.Unlock()
	if _, denied := restricted.deniedPaths[filepath.Clean(name)]; denied {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return restricted.Fs.Open(name)
}

func (restricted *restrictedFs) opened(name string) bool {
	restricted.mutex.Lock()
	defer restricted.mutex.Unlock()
	for _, openedPath := range restricted.openedPaths {
		if openedPath == filepath.Clean(name) {
			return true
		}
	}
	return false
}

// writeProjectFiles creates each relative path under testRootDirectory with its content.
func writeProjectFiles(t *testing.T, fileSystem afero.Fs, files map[string]string) {
	t.Helper()
	for relativePath, content := range files {
		require.NoError(t, afero.WriteFile(fileSystem, filepath.Join(testRootDirectory, relativePath), []byte(content), 0o644))
	}
}

func defaultConfiguration() types.Configuration {
	return types.Configuration{
		RootPath:            testRootDirectory,
		Extensions:          utils.DefaultExtensions(),
		OutputDirectoryName: utils.DefaultOutputDirectoryName,
		RulesFileName:       utils.GitIgnoreFileName,
	}
}

// loadFilter reads the root rules file the same way the CLI does.
func loadFilter(t *testing.T, fileSystem afero.Fs, configuration types.Configuration) *filter.Filter {
	t.Helper()
	patterns, err := config.LoadRulePatterns(fileSystem, configuration.RootPath, configuration.RulesFileName, configuration.OutputDirectoryName)
	require.NoError(t, err)
	return filter.New(patterns)
}

func manifestPaths(snapshot *types.Snapshot) []string {
	paths := make([]string, 0, len(snapshot.Manifest))
	for _, record := range snapshot.Manifest {
		paths = append(paths, record.Path.String())
	}
	return paths
}
