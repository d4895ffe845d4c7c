package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/huangsam/hazardtable/schema"
)

// Floor label constants.
const (
	FlooredValue = "Floored" // every floorable parameter sits on the controlling floor
	PartialValue = "Partial" // some parameters are floored
	NoFloorValue = "-"       // site hazard exceeds the floor
)

// Color variables for console output.
var (
	FlooredColor = color.New(color.FgRed, color.Bold) // FlooredColor marks rows fully set by the controlling site.
	PartialColor = color.New(color.FgYellow)          // PartialColor marks rows with some floored parameters.
	NoFloorColor = color.New(color.FgCyan)            // NoFloorColor marks rows driven by their own hazard.
)

// FloorFlags lists the floored parameter names of a row, e.g. "PGA,Sas".
func FloorFlags(r schema.FlatRow) string {
	var flags []string
	if r.PGAFloor {
		flags = append(flags, "PGA")
	}
	if r.SasFloor {
		flags = append(flags, "Sas")
	}
	if r.PSVFloor {
		flags = append(flags, "PSV")
	}
	if r.TdFloor {
		flags = append(flags, "Td")
	}
	return strings.Join(flags, ",")
}

// GetPlainFloorLabel summarises the floor flags of a row. This is the core
// logic used for CSV, JSON, and table printing.
func GetPlainFloorLabel(r schema.FlatRow) string {
	switch {
	case r.PGAFloor && r.SasFloor && r.PSVFloor:
		return FlooredValue
	case r.PGAFloor || r.SasFloor || r.PSVFloor || r.TdFloor:
		return PartialValue
	default:
		return NoFloorValue
	}
}

// GetColorFloorLabel returns the floor label colored for console output.
func GetColorFloorLabel(r schema.FlatRow) string {
	text := GetPlainFloorLabel(r)

	switch text {
	case FlooredValue:
		return FlooredColor.Sprint(text)
	case PartialValue:
		return PartialColor.Sprint(text)
	default:
		return NoFloorColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
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

// GetCacheDBFilePath returns the path to the SQLite DB file for the derived-table cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hazardtable_cache.db"
	}
	return filepath.Join(homeDir, ".hazardtable_cache.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run history.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hazardtable_runs.db"
	}
	return filepath.Join(homeDir, ".hazardtable_runs.db")
}

// TruncateLocation truncates a location label to maxWidth runes with an ellipsis suffix.
// Requires maxWidth > 3 so the ellipsis leaves room for content.
func TruncateLocation(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
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

// ParseStringList splits a comma-separated list, dropping blanks.
func ParseStringList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseReturnPeriods parses "25,500,1/2500" style lists into return periods.
// Each entry may use any form accepted by schema.ParseAPoELabel.
func ParseReturnPeriods(s string) ([]int, error) {
	var out []int
	for _, p := range ParseStringList(s) {
		rp, err := schema.ParseAPoELabel(p)
		if err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, nil
}

// FormatReturnPeriods is the inverse of ParseReturnPeriods.
func FormatReturnPeriods(rps []int) string {
	parts := make([]string, len(rps))
	for i, rp := range rps {
		parts[i] = strconv.Itoa(rp)
	}
	return strings.Join(parts, ",")
}
