package migration

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// UpSuffix marks a change-script, the file that moves the schema forward.
	UpSuffix = ".up.sql"

	// DownSuffix marks the optional revert counterpart sharing the same base name.
	DownSuffix = ".down.sql"
)

// Separator splits a script into individual statements.
const Separator = ";"

// MaxFilenameLength is the widest filename the ledger column can hold.
const MaxFilenameLength = 255

// Result describes the outcome of a single runner operation: how many
// files were executed and the batch number the operation worked with.
// Batch is reported even when nothing ran, and is always zero after a
// full reset.
type Result struct {
	Ran   int
	Batch int
}

// ClockFunc supplies the time used when generating migration filenames.
type ClockFunc func() time.Time

// IsUp reports whether filename names a change-script.
func IsUp(filename string) bool {
	return strings.HasSuffix(filename, UpSuffix)
}

// DownName derives the revert counterpart of an up migration filename.
// Callers are expected to pass names for which IsUp holds.
func DownName(filename string) string {
	return strings.TrimSuffix(filename, UpSuffix) + DownSuffix
}

// Base strips the up or down suffix from a migration filename.
func Base(filename string) string {
	filename = strings.TrimSuffix(filename, UpSuffix)
	return strings.TrimSuffix(filename, DownSuffix)
}

// Statements splits a script on the separator into executable statements,
// trimming surrounding whitespace and dropping blank fragments. A script
// consisting of whitespace and separators only yields no statements.
func Statements(script string) []string {
	parts := strings.Split(script, Separator)
	result := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		result = append(result, p)
	}

	return result
}

var nameNormalizer = regexp.MustCompile(`[^a-z0-9_]+`)

// GenerateBase builds the {unixtime}_{name} base filename for a new
// migration pair. Unix timestamps keep generated files in chronological
// order under the lexicographic ordering the runner applies.
func GenerateBase(clock ClockFunc, name string) string {
	normalized := nameNormalizer.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	normalized = strings.Trim(normalized, "_")

	return fmt.Sprintf("%d_%s", clock().Unix(), normalized)
}
