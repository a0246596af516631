package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/temirov/combiner/internal/utils"
)

// ErrOutputWrite reports an artifact that could not be created or written.
var ErrOutputWrite = errors.New("artifact cannot be written")

const (
	artifactFileNameFormat         = "combined_output_%s.txt"
	suffixedArtifactFileNameFormat = "combined_output_%s_%d.txt"
	maximumArtifactNameAttempts    = 1000

	outputDirectoryPermissions = 0o755
	artifactFilePermissions    = 0o644

	errorCreateOutputDirectoryFormat = "%w: creating directory %s: %w"
	errorWriteArtifactFormat         = "%w: writing %s: %w"
	errorCloseArtifactFormat         = "%w: closing %s: %w"
	errorNoFreeArtifactNameFormat    = "%w: no free artifact name in %s"
)

// ArtifactFileName returns the artifact name stamped with generatedAt.
func ArtifactFileName(generatedAt time.Time) string {
	return fmt.Sprintf(artifactFileNameFormat, utils.FormatArtifactTimestamp(generatedAt))
}

// WriteArtifact stores artifactText beneath rootDirectoryPath/outputDirectoryName, creating the
// directory when missing, and returns the written path. An existing artifact is never replaced:
// a second run within the same second gets a numeric suffix. Failures wrap ErrOutputWrite.
func WriteArtifact(fileSystem afero.Fs, rootDirectoryPath string, outputDirectoryName string, generatedAt time.Time, artifactText string) (string, error) {
	outputDirectoryPath := filepath.Join(rootDirectoryPath, outputDirectoryName)
	if mkdirError := fileSystem.MkdirAll(outputDirectoryPath, outputDirectoryPermissions); mkdirError != nil {
		return "", fmt.Errorf(errorCreateOutputDirectoryFormat, ErrOutputWrite, outputDirectoryPath, mkdirError)
	}

	artifactFile, artifactPath, createError := createArtifactFile(fileSystem, outputDirectoryPath, generatedAt)
	if createError != nil {
		return "", createError
	}
	if _, writeError := artifactFile.WriteString(artifactText); writeError != nil {
		_ = artifactFile.Close()
		return "", fmt.Errorf(errorWriteArtifactFormat, ErrOutputWrite, artifactPath, writeError)
	}
	if closeError := artifactFile.Close(); closeError != nil {
		return "", fmt.Errorf(errorCloseArtifactFormat, ErrOutputWrite, artifactPath, closeError)
	}
	return artifactPath, nil
}

// createArtifactFile exclusively creates the first free artifact name for generatedAt.
func createArtifactFile(fileSystem afero.Fs, outputDirectoryPath string, generatedAt time.Time) (afero.File, string, error) {
	timestamp := utils.FormatArtifactTimestamp(generatedAt)
	for attempt := 0; attempt < maximumArtifactNameAttempts; attempt++ {
		fileName := fmt.Sprintf(artifactFileNameFormat, timestamp)
		if attempt > 0 {
			fileName = fmt.Sprintf(suffixedArtifactFileNameFormat, timestamp, attempt)
		}
		artifactPath := filepath.Join(outputDirectoryPath, fileName)
		artifactFile, openError := fileSystem.OpenFile(artifactPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, artifactFilePermissions)
		if openError == nil {
			return artifactFile, artifactPath, nil
		}
		if !errors.Is(openError, fs.ErrExist) {
			return nil, "", fmt.Errorf(errorWriteArtifactFormat, ErrOutputWrite, artifactPath, openError)
		}
	}
	return nil, "", fmt.Errorf(errorNoFreeArtifactNameFormat, ErrOutputWrite, outputDirectoryPath)
}
