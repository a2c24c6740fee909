package supportbundle

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/Dicklesworthstone/expense-e2e/internal/redaction"
)

// textExtensions are redacted before bundling. Everything else is binary.
var textExtensions = map[string]bool{
	".json":  true,
	".jsonl": true,
	".xml":   true,
	".txt":   true,
	".log":   true,
	".html":  true,
	".prom":  true,
}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	OutputPath  string
	ToolVersion string
	BaseURL     string
	Redaction   redaction.Config
	Logger      *log.Logger
}

// Result describes a written bundle.
type Result struct {
	Path          string
	FileCount     int
	RedactedFiles int
	Manifest      Manifest
}

type bundleFile struct {
	path    string
	data    []byte
	modTime time.Time
	summary *RedactionSummary
}

// Generator collects files and writes them as a zip archive.
type Generator struct {
	config   GeneratorConfig
	redactor *redaction.Redactor
	files    []bundleFile
}

// NewGenerator validates the redaction config and returns a generator.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("bundle output path is required")
	}
	r, err := redaction.New(cfg.Redaction)
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Generator{config: cfg, redactor: r}, nil
}

// AddFile queues data under path. Text files are redacted.
func (g *Generator) AddFile(path string, data []byte, modTime time.Time) error {
	path = filepath.ToSlash(filepath.Clean(path))
	if path == "." || strings.HasPrefix(path, "../") || filepath.IsAbs(path) {
		return fmt.Errorf("bundle path %q escapes the bundle root", path)
	}
	if path == ManifestFilename {
		return fmt.Errorf("bundle path %q is reserved", path)
	}

	f := bundleFile{path: path, data: data, modTime: modTime}
	if textExtensions[strings.ToLower(filepath.Ext(path))] {
		out, findings := g.redactor.Redact(string(data))
		f.data = []byte(out)
		f.summary = SummarizeRedactionFindings(findings)
	}
	g.files = append(g.files, f)
	return nil
}

// AddDir walks root and queues every regular file relative to it.
func (g *Generator) AddDir(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if filepath.ToSlash(rel) == ManifestFilename {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		return g.AddFile(rel, data, info.ModTime())
	})
}

// Generate writes the archive with manifest.json first, then the queued
// files in path order.
func (g *Generator) Generate() (*Result, error) {
	sort.Slice(g.files, func(i, j int) bool { return g.files[i].path < g.files[j].path })

	manifest := NewManifest(g.config.ToolVersion)
	manifest.BaseURL = g.config.BaseURL
	redacted := 0
	for _, f := range g.files {
		manifest.Files = append(manifest.Files, NewFile(f.path, f.data, f.summary))
		if f.summary != nil {
			redacted++
		}
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling bundle manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(g.config.OutputPath), 0755); err != nil {
		return nil, fmt.Errorf("creating bundle directory: %w", err)
	}
	out, err := os.Create(g.config.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("creating bundle: %w", err)
	}
	zw := zip.NewWriter(out)

	writeErr := writeZipFile(zw, ManifestFilename, manifestData, manifest.GeneratedAt)
	for _, f := range g.files {
		if writeErr != nil {
			break
		}
		writeErr = writeZipFile(zw, f.path, f.data, f.modTime)
	}
	if err := zw.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if err := out.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		_ = os.Remove(g.config.OutputPath)
		return nil, fmt.Errorf("writing bundle: %w", writeErr)
	}

	g.config.Logger.Info("bundle written", "path", g.config.OutputPath, "files", len(g.files), "redacted", redacted)
	return &Result{
		Path:          g.config.OutputPath,
		FileCount:     len(g.files),
		RedactedFiles: redacted,
		Manifest:      manifest,
	}, nil
}

func writeZipFile(zw *zip.Writer, name string, data []byte, modTime time.Time) error {
	hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
	if !modTime.IsZero() {
		hdr.Modified = modTime
	}
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
