// Package supportbundle packs an evidence directory into a single zip that
// can be attached to a bug report. Text artifacts are scrubbed of
// credentials on the way in; screenshots are copied verbatim.
package supportbundle

import (
	"crypto/sha256"
	"encoding/hex"
	"runtime"
	"time"

	"github.com/Dicklesworthstone/expense-e2e/internal/redaction"
)

const (
	// SchemaVersion is the version of the bundle manifest schema.
	SchemaVersion = 1

	// ManifestFilename is the manifest name at the root of the bundle.
	ManifestFilename = "manifest.json"
)

// Host describes the environment the bundle was generated on.
type Host struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// Manifest indexes a bundle's contents.
//
// Schema v1:
//   - Root: manifest.json
//   - Files[].Path is relative to the evidence root, slash separated.
type Manifest struct {
	SchemaVersion int       `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	ToolVersion   string    `json:"tool_version"`
	BaseURL       string    `json:"base_url,omitempty"`
	Host          Host      `json:"host"`
	Files         []File    `json:"files"`
}

// File describes one bundled file. Hash and size are of the bundled
// (possibly redacted) bytes.
type File struct {
	Path             string            `json:"path"`
	SHA256           string            `json:"sha256"`
	SizeBytes        int64             `json:"size_bytes"`
	RedactionSummary *RedactionSummary `json:"redaction_summary,omitempty"`
}

// RedactionSummary counts findings for a file. It never holds matched text.
type RedactionSummary struct {
	Total      int                        `json:"total"`
	ByCategory map[redaction.Category]int `json:"by_category,omitempty"`
}

func DefaultHost() Host {
	return Host{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

func NewManifest(version string) Manifest {
	return Manifest{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		ToolVersion:   version,
		Host:          DefaultHost(),
		Files:         []File{},
	}
}

func NewFile(path string, data []byte, summary *RedactionSummary) File {
	return File{
		Path:             path,
		SHA256:           SHA256Hex(data),
		SizeBytes:        int64(len(data)),
		RedactionSummary: summary,
	}
}

func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SummarizeRedactionFindings returns nil when nothing was found.
func SummarizeRedactionFindings(findings []redaction.Finding) *RedactionSummary {
	if len(findings) == 0 {
		return nil
	}

	byCategory := make(map[redaction.Category]int)
	for _, f := range findings {
		byCategory[f.Category]++
	}

	return &RedactionSummary{
		Total:      len(findings),
		ByCategory: byCategory,
	}
}
