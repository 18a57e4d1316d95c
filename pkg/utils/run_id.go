package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateRunID creates a short, human-readable run ID.
// Format: {prefix}-{8charHexUUID}, e.g. "run-a3f8e2b1".
// An empty prefix yields just the hex part.
func GenerateRunID(prefix string) string {
	short := shortUUID()
	if prefix == "" {
		return short
	}
	return strings.ToLower(prefix) + "-" + short
}

// shortUUID returns the first 8 hex characters of a random UUID
func shortUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
