package utils

import (
	"time"
)

// artifactTimestampLayout renders year, month and day, an underscore, then hour, minute and second.
const artifactTimestampLayout = "20060102_150405"

// FormatArtifactTimestamp returns value in the local time zone formatted for artifact file names.
func FormatArtifactTimestamp(value time.Time) string {
	return value.In(time.Local).Format(artifactTimestampLayout)
}
