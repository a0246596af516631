// Package config loads ignore rules and application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/temirov/combiner/internal/utils"
)

const (
	commentPrefix       = "#"
	folderPatternSuffix = "/"

	errorReadRulesFormat = "reading rules file %s: %w"
	errorLoadRulesFormat = "loading %s from %s: %w"
)

// LoadIgnoreFilePatterns reads newline-delimited patterns from rulesFilePath.
// Blank lines and lines starting with # are skipped. A missing file yields no patterns and no error.
func LoadIgnoreFilePatterns(fileSystem afero.Fs, rulesFilePath string) ([]string, error) {
	fileContent, readFileError := afero.ReadFile(fileSystem, rulesFilePath)
	if readFileError != nil {
		if errors.Is(readFileError, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf(errorReadRulesFormat, rulesFilePath, readFileError)
	}

	var patterns []string
	for _, line := range strings.Split(string(fileContent), "\n") {
		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		patterns = append(patterns, trimmedLine)
	}
	return patterns, nil
}

// LoadRulePatterns reads the rules file found in rootDirectoryPath and appends a folder rule for
// the output directory so earlier artifacts are never combined again. Duplicates are removed.
func LoadRulePatterns(fileSystem afero.Fs, rootDirectoryPath string, rulesFileName string, outputDirectoryName string) ([]string, error) {
	if rulesFileName == "" {
		rulesFileName = utils.GitIgnoreFileName
	}
	rulesFilePath := filepath.Join(rootDirectoryPath, rulesFileName)
	filePatterns, loadError := LoadIgnoreFilePatterns(fileSystem, rulesFilePath)
	if loadError != nil {
		return nil, fmt.Errorf(errorLoadRulesFormat, rulesFileName, rootDirectoryPath, loadError)
	}

	combinedPatterns := append([]string{}, filePatterns...)
	trimmedOutputDirectory := strings.Trim(outputDirectoryName, folderPatternSuffix)
	if trimmedOutputDirectory != "" {
		combinedPatterns = append(combinedPatterns, trimmedOutputDirectory+folderPatternSuffix)
	}
	return utils.DeduplicatePatterns(combinedPatterns), nil
}
