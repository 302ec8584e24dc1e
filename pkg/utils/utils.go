package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"liaptui/pkg/game"
)

// FormatHand is a helper for displaying a seat's pieces outside the TUI
// (e.g. in log lines), adapted from the teacher's FormatCards.
func FormatHand(pieces []game.Piece) string {
	if len(pieces) == 0 {
		return "None"
	}

	result := ""
	for i, p := range pieces {
		if i > 0 {
			result += " "
		}
		result += p.String()
	}

	return result
}

// EnsureDataDirExists creates the datadir and necessary subdirectories if they don't exist
func EnsureDataDirExists(datadir string) error {
	// Create main datadir
	if err := os.MkdirAll(datadir, 0700); err != nil {
		return fmt.Errorf("failed to create datadir %s: %v", datadir, err)
	}

	// Create logs subdirectory
	logsDir := filepath.Join(datadir, "logs")
	if err := os.MkdirAll(logsDir, 0700); err != nil {
		return fmt.Errorf("failed to create logs directory %s: %v", logsDir, err)
	}

	return nil
}
