package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// ManifestSchemaVersion is the version of the manifest schema.
	ManifestSchemaVersion = 1

	// ManifestFilename is the manifest name inside the reports directory.
	ManifestFilename = "manifest.json"
)

// ManifestEntry is one screenshot with its content hash.
type ManifestEntry struct {
	Artifact
	File      string `json:"filename"`
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
}

// Manifest indexes the screenshots of a run by feature, test, step, status
// and time.
//
// Schema v1:
//   - Root: reports/manifest.json
//   - Artifacts[].Path is relative to the evidence root.
type Manifest struct {
	SchemaVersion int             `json:"schema_version"`
	RunID         string          `json:"run_id"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Root          string          `json:"root"`
	Artifacts     []ManifestEntry `json:"artifacts"`
	Skipped       []string        `json:"skipped,omitempty"`
}

// Count is the number of artifacts of one feature and status.
type Count struct {
	Feature string `json:"feature"`
	Status  Status `json:"status"`
	Total   int    `json:"total"`
}

// BuildManifest hashes every screenshot under the layout. Files that do not
// follow the naming contract are listed in Skipped. Output is sorted by
// feature, test, timestamp and step.
func BuildManifest(ctx context.Context, l Layout) (*Manifest, error) {
	m := &Manifest{
		SchemaVersion: ManifestSchemaVersion,
		RunID:         uuid.NewString(),
		GeneratedAt:   time.Now().UTC(),
		Root:          l.root(),
		Artifacts:     []ManifestEntry{},
	}

	dirEntries, err := os.ReadDir(l.Screenshots())
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("reading screenshots: %w", err)
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		names = append(names, de.Name())
	}

	entries := make([]*ManifestEntry, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, name := range names {
		a, perr := ParseFilename(name)
		if perr != nil {
			m.Skipped = append(m.Skipped, name)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, size, err := hashFile(filepath.Join(l.Screenshots(), name))
			if err != nil {
				return err
			}
			a.Path = filepath.ToSlash(filepath.Join(ScreenshotsDir, name))
			entries[i] = &ManifestEntry{
				Artifact:  a,
				File:      name,
				SHA256:    sum,
				SizeBytes: size,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hashing screenshots: %w", err)
	}

	for _, e := range entries {
		if e != nil {
			m.Artifacts = append(m.Artifacts, *e)
		}
	}
	sort.Slice(m.Artifacts, func(i, j int) bool {
		a, b := m.Artifacts[i], m.Artifacts[j]
		if a.Feature != b.Feature {
			return a.Feature < b.Feature
		}
		if a.TestName != b.TestName {
			return a.TestName < b.TestName
		}
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		return a.StepName < b.StepName
	})
	sort.Strings(m.Skipped)
	return m, nil
}

// Counts tallies artifacts per feature and status, sorted.
func (m *Manifest) Counts() []Count {
	type key struct {
		feature string
		status  Status
	}
	tally := make(map[key]int)
	for _, a := range m.Artifacts {
		tally[key{a.Feature, a.Status}]++
	}
	counts := make([]Count, 0, len(tally))
	for k, n := range tally {
		counts = append(counts, Count{Feature: k.feature, Status: k.status, Total: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Feature != counts[j].Feature {
			return counts[i].Feature < counts[j].Feature
		}
		return counts[i].Status < counts[j].Status
	})
	return counts
}

// WriteManifest writes m to reports/manifest.json and returns the path.
func WriteManifest(l Layout, m *Manifest) (string, error) {
	if err := os.MkdirAll(l.Reports(), 0755); err != nil {
		return "", fmt.Errorf("creating reports dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}
	path := filepath.Join(l.Reports(), ManifestFilename)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
