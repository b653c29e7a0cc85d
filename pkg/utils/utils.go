package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var shortHashPattern = regexp.MustCompile("^[0-9a-fA-F]{8}$")

// IsValidShortHashFilename checks if the filename matches the note file
// pattern: eight hex characters, optionally followed by .json
func IsValidShortHashFilename(filename string) bool {
	return shortHashPattern.MatchString(strings.TrimSuffix(filename, ".json"))
}

// IsValidNoteID reports whether id could have been produced by
// GenerateShortUUID
func IsValidNoteID(id string) bool {
	return shortHashPattern.MatchString(id)
}

// GenerateShortUUID generates a short UUID (8 hex characters) used as
// note ID and file name
func GenerateShortUUID() string {
	return uuid.New().String()[:8]
}
