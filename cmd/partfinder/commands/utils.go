// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Text truncation, relative times, and flag validation
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/harper/partfinder/internal/config"
)

// truncate shortens a string to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	} else if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	} else if diff < 7*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
	return t.Format("2006-01-02")
}

// orDash substitutes "-" for blank values in tables
func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}

// resolveTopK applies the configured default and checks the bound
func resolveTopK(flagValue, configured int) (int, error) {
	if flagValue == 0 {
		return configured, nil
	}
	if err := validatePositiveInt(flagValue, "top-k"); err != nil {
		return 0, err
	}
	if flagValue > config.MaxTopK {
		return 0, fmt.Errorf("top-k must be at most %d, got %d", config.MaxTopK, flagValue)
	}
	return flagValue, nil
}
