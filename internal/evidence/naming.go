// Package evidence names, captures and indexes proof-of-execution artifacts.
//
// Screenshot filenames encode their identity:
//
//	{feature}__{testName}__{stepName}__{status}__{timestamp}.png
//
// testName and stepName are sanitized so that "__" can only ever appear as
// the field separator. The format is an on-disk contract shared with the
// reporting tools; do not change it.
package evidence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status classifies an artifact at capture time.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

const (
	// FieldSeparator separates the encoded fields of a filename.
	FieldSeparator = "__"

	// ScreenshotExt is the extension of every screenshot artifact.
	ScreenshotExt = ".png"

	isoMillis = "2006-01-02T15:04:05.000Z"
)

// ErrBadFilename reports a filename that does not follow the naming contract.
var ErrBadFilename = errors.New("not an evidence filename")

// Artifact is a captured visual state and where it was written.
type Artifact struct {
	Feature   string `json:"feature"`
	TestName  string `json:"test_name"`
	StepName  string `json:"step_name"`
	Status    Status `json:"status"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

// Filename returns the encoded filename of the artifact.
func (a Artifact) Filename() string {
	return Filename(a.Feature, a.TestName, a.StepName, a.Status, a.Timestamp)
}

// ISOTime formats t like JavaScript's Date.toISOString.
func ISOTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

// Timestamp renders t as a path-safe ISO-8601 string: every ':' and '.'
// becomes '-', e.g. 2025-08-19T12-30-45-123Z.
func Timestamp(t time.Time) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(ISOTime(t))
}

// Sanitize replaces every rune outside [A-Za-z0-9] with '-'. The rune count
// is preserved and it never fails.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, s)
}

// Filename composes the canonical screenshot name. feature is used verbatim.
func Filename(feature, testName, stepLabel string, status Status, timestamp string) string {
	return strings.Join([]string{
		feature,
		Sanitize(testName),
		Sanitize(stepLabel),
		string(status),
		timestamp,
	}, FieldSeparator) + ScreenshotExt
}

// ParseFilename decodes a name produced by Filename. Fields are taken from
// the right so a feature containing "__" still round-trips. The returned
// artifact carries sanitized test and step names and no Path.
func ParseFilename(name string) (Artifact, error) {
	base, ok := strings.CutSuffix(name, ScreenshotExt)
	if !ok {
		return Artifact{}, fmt.Errorf("%w: %q lacks %s", ErrBadFilename, name, ScreenshotExt)
	}
	parts := strings.Split(base, FieldSeparator)
	if len(parts) < 5 {
		return Artifact{}, fmt.Errorf("%w: %q has %d fields, want 5", ErrBadFilename, name, len(parts))
	}
	n := len(parts)
	status := Status(parts[n-2])
	if status != StatusSuccess && status != StatusFailure {
		return Artifact{}, fmt.Errorf("%w: %q has unknown status %q", ErrBadFilename, name, parts[n-2])
	}
	feature := strings.Join(parts[:n-4], FieldSeparator)
	if feature == "" {
		return Artifact{}, fmt.Errorf("%w: %q has empty feature", ErrBadFilename, name)
	}
	return Artifact{
		Feature:   feature,
		TestName:  parts[n-4],
		StepName:  parts[n-3],
		Status:    status,
		Timestamp: parts[n-1],
	}, nil
}

// ParseTimestamp reverses Timestamp.
func ParseTimestamp(ts string) (time.Time, error) {
	// 2025-08-19T12-30-45-123Z -> 2025-08-19T12:30:45.123Z
	if len(ts) != len(isoMillis) {
		return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrBadFilename, ts)
	}
	b := []byte(ts)
	b[13], b[16], b[19] = ':', ':', '.'
	t, err := time.Parse(isoMillis, string(b))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %v", ErrBadFilename, ts, err)
	}
	return t, nil
}
