package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/fundscore/schema"
)

// Color variables for console output.
var (
	AvoidColor  = color.New(color.FgRed, color.Bold) // AvoidColor represents standard danger.
	HoldColor   = color.New(color.FgYellow)          // HoldColor represents standard caution, not bold.
	BuyColor    = color.New(color.FgGreen, color.Bold)
	MutedColor  = color.New(color.FgHiBlack)
	HeaderColor = color.New(color.FgCyan, color.Bold)
)

// GetColorRating returns a colored rating label for console output (table).
func GetColorRating(r schema.Rating) string {
	switch r {
	case schema.RatingBuy:
		return BuyColor.Sprint(string(r))
	case schema.RatingHold:
		return HoldColor.Sprint(string(r))
	default:
		return AvoidColor.Sprint(string(r))
	}
}

// GetColorLight returns a colored decision card light.
func GetColorLight(l schema.Light) string {
	switch l {
	case schema.LightGreen:
		return BuyColor.Sprint(string(l))
	case schema.LightYellow:
		return HoldColor.Sprint(string(l))
	case schema.LightRed:
		return AvoidColor.Sprint(string(l))
	default:
		return MutedColor.Sprint(string(l))
	}
}

// GetColorStatus returns a colored claim status.
func GetColorStatus(s schema.ClaimStatus) string {
	switch s {
	case schema.StatusPass:
		return BuyColor.Sprint(string(s))
	case schema.StatusFail:
		return AvoidColor.Sprint(string(s))
	default:
		return MutedColor.Sprint(string(s))
	}
}

// GetColorSeverity returns a colored severity label.
func GetColorSeverity(s schema.Severity) string {
	switch s {
	case schema.SeverityHigh:
		return AvoidColor.Sprint(string(s))
	case schema.SeverityMed:
		return HoldColor.Sprint(string(s))
	default:
		return MutedColor.Sprint(string(s))
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the score cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".fundscore_cache.db"
	}
	return filepath.Join(homeDir, ".fundscore_cache.db")
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for run history.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".fundscore_analysis.db"
	}
	return filepath.Join(homeDir, ".fundscore_analysis.db")
}

// TruncateText shortens s to maxWidth runes with a trailing ellipsis.
// Requires maxWidth > 3 so there is room for the "..." suffix and some content.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
