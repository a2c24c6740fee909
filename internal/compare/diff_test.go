package compare

import (
	"slices"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
)

func manifest(runID string, arts ...evidence.Artifact) *evidence.Manifest {
	m := &evidence.Manifest{RunID: runID}
	for _, a := range arts {
		m.Artifacts = append(m.Artifacts, evidence.ManifestEntry{Artifact: a})
	}
	return m
}

func art(feature, test, step string, status evidence.Status, ts string) evidence.Artifact {
	return evidence.Artifact{Feature: feature, TestName: test, StepName: step, Status: status, Timestamp: ts}
}

func TestArtifactLines(t *testing.T) {
	t.Parallel()

	m := manifest("r1",
		art("register", "happy", "form-filled", evidence.StatusSuccess, "2025-08-19T12-30-45-123Z"),
		art("login", "happy", "form-filled", evidence.StatusSuccess, "2025-08-19T12-30-45-123Z"),
		art("login", "happy", "form-filled", evidence.StatusSuccess, "2025-08-19T12-31-00-000Z"),
	)
	want := "login/happy/form-filled SUCCESS\nregister/happy/form-filled SUCCESS\n"
	if got := ArtifactLines(m); got != want {
		t.Errorf("ArtifactLines = %q, want %q", got, want)
	}
	if got := ArtifactLines(manifest("empty")); got != "" {
		t.Errorf("empty manifest = %q", got)
	}
}

func TestDiffManifests(t *testing.T) {
	t.Parallel()

	before := manifest("run-1",
		art("login", "happy", "form-filled", evidence.StatusSuccess, "a"),
		art("login", "happy", "dashboard", evidence.StatusSuccess, "a"),
	)
	after := manifest("run-2",
		art("login", "happy", "form-filled", evidence.StatusSuccess, "b"),
		art("login", "happy", "dashboard", evidence.StatusFailure, "b"),
	)

	d := DiffManifests(before, after)
	if d.Before != "run-1" || d.After != "run-2" {
		t.Errorf("run ids = %q %q", d.Before, d.After)
	}
	if !d.Changed() {
		t.Fatal("expected a change")
	}
	if !slices.Equal(d.Added, []string{"login/happy/dashboard FAILURE"}) {
		t.Errorf("added = %v", d.Added)
	}
	if !slices.Equal(d.Removed, []string{"login/happy/dashboard SUCCESS"}) {
		t.Errorf("removed = %v", d.Removed)
	}
	if !strings.Contains(d.UnifiedDiff, "+ login/happy/dashboard FAILURE") ||
		!strings.Contains(d.UnifiedDiff, "  login/happy/form-filled SUCCESS") {
		t.Errorf("unified diff:\n%s", d.UnifiedDiff)
	}
	if d.LineCount1 != 2 || d.LineCount2 != 2 {
		t.Errorf("line counts = %d %d", d.LineCount1, d.LineCount2)
	}
	if d.Similarity <= 0 || d.Similarity >= 1 {
		t.Errorf("similarity = %v", d.Similarity)
	}
}

func TestComputeDiff_Identical(t *testing.T) {
	t.Parallel()

	d := ComputeDiff("a\nb\n", "a\nb\n")
	if d.Changed() || d.UnifiedDiff != "" || d.Similarity != 1 {
		t.Errorf("identical diff = %+v", d)
	}
	if e := ComputeDiff("", ""); e.Similarity != 1 || e.LineCount1 != 0 {
		t.Errorf("empty diff = %+v", e)
	}
}
