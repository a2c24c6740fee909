package evidence

import (
	"path/filepath"

	"github.com/Dicklesworthstone/expense-e2e/internal/util"
)

// DefaultRoot is the output root of a run, relative to the working directory.
const DefaultRoot = "test-evidence"

// Subdirectories of the output root.
const (
	ScreenshotsDir = "screenshots"
	VideosDir      = "videos"
	TracesDir      = "traces"
	ReportsDir     = "reports"
)

// Layout resolves artifact locations under an output root.
type Layout struct {
	Root string
}

// NewLayout returns a layout rooted at root, or DefaultRoot when empty.
func NewLayout(root string) Layout {
	if root == "" {
		root = DefaultRoot
	}
	return Layout{Root: root}
}

func (l Layout) root() string {
	if l.Root == "" {
		return DefaultRoot
	}
	return l.Root
}

// Screenshots is where success captures are written.
func (l Layout) Screenshots() string { return filepath.Join(l.root(), ScreenshotsDir) }

// Videos holds failure recordings.
func (l Layout) Videos() string { return filepath.Join(l.root(), VideosDir) }

// Traces holds execution traces.
func (l Layout) Traces() string { return filepath.Join(l.root(), TracesDir) }

// Reports holds HTML/JUnit reports, the step log and the manifest.
func (l Layout) Reports() string { return filepath.Join(l.root(), ReportsDir) }

// ScreenshotPath joins the screenshots directory and filename.
func (l Layout) ScreenshotPath(filename string) string {
	return filepath.Join(l.Screenshots(), filename)
}

// Dirs lists every directory of the layout.
func (l Layout) Dirs() []string {
	return []string{l.Screenshots(), l.Videos(), l.Traces(), l.Reports()}
}

// Ensure creates every directory of the layout.
func (l Layout) Ensure() error {
	for _, dir := range l.Dirs() {
		if err := util.EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}
