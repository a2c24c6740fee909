// Package compare diffs the evidence of two runs, so a reviewer can see
// which steps appeared, disappeared or changed outcome.
package compare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
)

// RunDiff holds the result of a comparison.
type RunDiff struct {
	Before      string   `json:"before"`
	After       string   `json:"after"`
	LineCount1  int      `json:"lines1"`
	LineCount2  int      `json:"lines2"`
	Similarity  float64  `json:"similarity"`
	Added       []string `json:"added,omitempty"`
	Removed     []string `json:"removed,omitempty"`
	UnifiedDiff string   `json:"diff,omitempty"`
}

// Changed reports whether the runs captured different evidence.
func (d *RunDiff) Changed() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// ArtifactLines renders one sorted line per captured step. Timestamps are
// left out so two runs of the same suite line up.
func ArtifactLines(m *evidence.Manifest) string {
	seen := make(map[string]bool, len(m.Artifacts))
	lines := make([]string, 0, len(m.Artifacts))
	for _, a := range m.Artifacts {
		line := fmt.Sprintf("%s/%s/%s %s", a.Feature, a.TestName, a.StepName, a.Status)
		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}
	sort.Strings(lines)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// DiffManifests compares the artifact sets of two manifests line by line.
func DiffManifests(before, after *evidence.Manifest) *RunDiff {
	d := ComputeDiff(ArtifactLines(before), ArtifactLines(after))
	d.Before = before.RunID
	d.After = after.RunID
	return d
}

// ComputeDiff compares two line-oriented texts.
func ComputeDiff(content1, content2 string) *RunDiff {
	dmp := diffmatchpatch.New()

	// Line mode: each line is diffed as a single token.
	c1, c2, lineArray := dmp.DiffLinesToChars(content1, content2)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(c1, c2, false), lineArray)

	dist := dmp.DiffLevenshtein(diffs)
	maxLen := max(len(content1), len(content2))
	similarity := 1.0
	if maxLen > 0 {
		similarity = 1.0 - (float64(dist) / float64(maxLen))
	}

	d := &RunDiff{
		LineCount1: countLines(content1),
		LineCount2: countLines(content2),
		Similarity: similarity,
	}
	var b strings.Builder
	for _, diff := range diffs {
		prefix := "  "
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
			d.Added = append(d.Added, splitLines(diff.Text)...)
		case diffmatchpatch.DiffDelete:
			prefix = "- "
			d.Removed = append(d.Removed, splitLines(diff.Text)...)
		}
		for _, line := range splitLines(diff.Text) {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if d.Changed() {
		d.UnifiedDiff = b.String()
	}
	return d
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// countLines counts the number of lines in a string.
// Empty strings return 0, trailing newlines don't count as extra lines.
func countLines(s string) int {
	return len(splitLines(s))
}
