package evidence

import (
	"fmt"
	"os"
	"path/filepath"
)

// IntegrityResult contains the results of manifest verification.
type IntegrityResult struct {
	// Valid is true if all checks passed.
	Valid bool `json:"valid"`

	SchemaValid      bool `json:"schema_valid"`
	FilesPresent     bool `json:"files_present"`
	ChecksumsValid   bool `json:"checksums_valid"`
	ConsistencyValid bool `json:"consistency_valid"`

	Errors []string `json:"errors,omitempty"`
	// Warnings are non-fatal, such as screenshots the manifest does not list.
	Warnings []string `json:"warnings,omitempty"`
}

// VerifyManifest checks m against the screenshots under l: every entry must
// exist with the recorded hash and size, and its filename must decode to
// the recorded artifact fields.
func VerifyManifest(l Layout, m *Manifest) *IntegrityResult {
	result := &IntegrityResult{
		SchemaValid:      true,
		FilesPresent:     true,
		ChecksumsValid:   true,
		ConsistencyValid: true,
	}

	if m.SchemaVersion != ManifestSchemaVersion {
		result.SchemaValid = false
		result.Errors = append(result.Errors, fmt.Sprintf("unsupported schema version: %d (expected %d)", m.SchemaVersion, ManifestSchemaVersion))
	}
	if m.RunID == "" {
		result.SchemaValid = false
		result.Errors = append(result.Errors, "missing run_id")
	}

	listed := make(map[string]bool, len(m.Artifacts))
	for _, e := range m.Artifacts {
		listed[e.File] = true
		verifyEntry(l, e, result)
	}

	if dirEntries, err := os.ReadDir(l.Screenshots()); err == nil {
		for _, de := range dirEntries {
			if de.IsDir() || listed[de.Name()] {
				continue
			}
			if _, err := ParseFilename(de.Name()); err == nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("unlisted screenshot: %s", de.Name()))
			}
		}
	}

	result.Valid = result.SchemaValid && result.FilesPresent && result.ChecksumsValid && result.ConsistencyValid
	return result
}

func verifyEntry(l Layout, e ManifestEntry, result *IntegrityResult) {
	a, err := ParseFilename(e.File)
	if err != nil {
		result.ConsistencyValid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", e.File, err))
	} else if a.Feature != e.Feature || a.TestName != e.TestName || a.StepName != e.StepName ||
		a.Status != e.Status || a.Timestamp != e.Timestamp {
		result.ConsistencyValid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%s: recorded fields do not match filename", e.File))
	}

	path := filepath.Join(l.Screenshots(), filepath.Base(e.File))
	sum, size, err := hashFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			result.FilesPresent = false
			result.Errors = append(result.Errors, fmt.Sprintf("missing file: %s", e.File))
			return
		}
		result.ChecksumsValid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", e.File, err))
		return
	}
	if sum != e.SHA256 || size != e.SizeBytes {
		result.ChecksumsValid = false
		result.Errors = append(result.Errors, fmt.Sprintf("checksum mismatch: %s", e.File))
	}
}
