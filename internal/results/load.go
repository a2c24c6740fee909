package results

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
)

// Format names a report format.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatJUnit  Format = "junit"
	FormatGoTest Format = "gotest"
)

// ParseFormat validates a format name. The empty string means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatJUnit, FormatGoTest:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// DetectFormat guesses the format of path from its extension: .xml is
// JUnit, .json and .jsonl are go test -json.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatJUnit, nil
	case ".json", ".jsonl", ".ndjson":
		return FormatGoTest, nil
	default:
		return "", fmt.Errorf("%w: cannot detect format of %s", ErrUnknownFormat, path)
	}
}

// Parse reads r in the given format. FormatAuto is not accepted here
// because there is no path to detect from.
func Parse(r io.Reader, format Format) ([]evidence.Result, error) {
	switch format {
	case FormatJUnit:
		return ParseJUnit(r)
	case FormatGoTest:
		return ParseGoTest(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Load reads the report at path. FormatAuto detects the format from the
// file extension.
func Load(path string, format Format) ([]evidence.Result, error) {
	if format == FormatAuto || format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening results: %w", err)
	}
	defer f.Close()
	return Parse(f, format)
}
