// Package metrics renders run results in Prometheus exposition format.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
)

// StepStats is the latency distribution of one step label.
type StepStats struct {
	Count  int
	Failed int
	P50Ms  float64
	P95Ms  float64
	P99Ms  float64
	MinMs  float64
	MaxMs  float64
	AvgMs  float64
}

// Report is everything exported for one run.
type Report struct {
	RunID     string
	Summary   evidence.Summary
	Artifacts []evidence.Count
	Steps     map[string]StepStats
}

// NewReport assembles a report. The manifest and step entries are optional.
func NewReport(summary evidence.Summary, m *evidence.Manifest, steps []evidence.StepEntry) *Report {
	r := &Report{Summary: summary, Steps: StepLatencies(steps)}
	if m != nil {
		r.RunID = m.RunID
		r.Artifacts = m.Counts()
	}
	return r
}

// Export renders a summary and manifest without step latencies.
func Export(summary evidence.Summary, m *evidence.Manifest) string {
	return NewReport(summary, m, nil).ExportPrometheus()
}

// StepLatencies groups journal entries by step name.
func StepLatencies(entries []evidence.StepEntry) map[string]StepStats {
	byStep := make(map[string][]float64)
	failed := make(map[string]int)
	for _, e := range entries {
		byStep[e.Step] = append(byStep[e.Step], float64(e.DurationMs))
		if e.Status == evidence.StepFailed {
			failed[e.Step]++
		}
	}
	stats := make(map[string]StepStats, len(byStep))
	for step, samples := range byStep {
		sort.Float64s(samples)
		var sum float64
		for _, v := range samples {
			sum += v
		}
		stats[step] = StepStats{
			Count:  len(samples),
			Failed: failed[step],
			P50Ms:  percentile(samples, 0.50),
			P95Ms:  percentile(samples, 0.95),
			P99Ms:  percentile(samples, 0.99),
			MinMs:  samples[0],
			MaxMs:  samples[len(samples)-1],
			AvgMs:  sum / float64(len(samples)),
		}
	}
	return stats
}

// percentile uses nearest rank on sorted samples.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}

// ExportPrometheus renders the report in Prometheus exposition format.
// Each metric uses the "e2e_" prefix for namespacing.
func (r *Report) ExportPrometheus() string {
	var b strings.Builder

	run := sanitizeLabel(r.RunID)
	labels := func(extra string) string {
		switch {
		case run == "" && extra == "":
			return ""
		case run == "":
			return "{" + extra + "}"
		case extra == "":
			return fmt.Sprintf("{run=%q}", run)
		default:
			return fmt.Sprintf("{run=%q,%s}", run, extra)
		}
	}

	// Test counts are always emitted
	b.WriteString("# HELP e2e_tests_total Tests executed in the run.\n")
	b.WriteString("# TYPE e2e_tests_total gauge\n")
	b.WriteString(fmt.Sprintf("e2e_tests_total%s %d\n", labels(""), r.Summary.TotalTests))
	b.WriteByte('\n')

	b.WriteString("# HELP e2e_tests_passed Tests that passed.\n")
	b.WriteString("# TYPE e2e_tests_passed gauge\n")
	b.WriteString(fmt.Sprintf("e2e_tests_passed%s %d\n", labels(""), r.Summary.Passed))
	b.WriteByte('\n')

	b.WriteString("# HELP e2e_tests_failed Tests that failed.\n")
	b.WriteString("# TYPE e2e_tests_failed gauge\n")
	b.WriteString(fmt.Sprintf("e2e_tests_failed%s %d\n", labels(""), r.Summary.Failed))
	b.WriteByte('\n')

	if ts, err := time.Parse(time.RFC3339Nano, r.Summary.ExecutionTime); err == nil {
		b.WriteString("# HELP e2e_run_timestamp_seconds When the summary was generated.\n")
		b.WriteString("# TYPE e2e_run_timestamp_seconds gauge\n")
		b.WriteString(fmt.Sprintf("e2e_run_timestamp_seconds%s %.3f\n", labels(""), float64(ts.UnixMilli())/1000))
		b.WriteByte('\n')
	}

	if len(r.Artifacts) > 0 {
		b.WriteString("# HELP e2e_evidence_artifacts_total Screenshots captured by feature and status.\n")
		b.WriteString("# TYPE e2e_evidence_artifacts_total gauge\n")
		counts := append([]evidence.Count(nil), r.Artifacts...)
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].Feature != counts[j].Feature {
				return counts[i].Feature < counts[j].Feature
			}
			return counts[i].Status < counts[j].Status
		})
		for _, c := range counts {
			extra := fmt.Sprintf("feature=%q,status=%q", sanitizeLabel(c.Feature), sanitizeLabel(string(c.Status)))
			b.WriteString(fmt.Sprintf("e2e_evidence_artifacts_total%s %d\n", labels(extra), c.Total))
		}
		b.WriteByte('\n')
	}

	// Step latency as summaries
	if len(r.Steps) > 0 {
		b.WriteString("# HELP e2e_step_duration_ms Scenario step latency in milliseconds.\n")
		b.WriteString("# TYPE e2e_step_duration_ms summary\n")
		for _, step := range sortedStepKeys(r.Steps) {
			s := r.Steps[step]
			label := fmt.Sprintf("step=%q", sanitizeLabel(step))
			b.WriteString(fmt.Sprintf("e2e_step_duration_ms%s %.2f\n", labels(label+`,quantile="0.5"`), s.P50Ms))
			b.WriteString(fmt.Sprintf("e2e_step_duration_ms%s %.2f\n", labels(label+`,quantile="0.95"`), s.P95Ms))
			b.WriteString(fmt.Sprintf("e2e_step_duration_ms%s %.2f\n", labels(label+`,quantile="0.99"`), s.P99Ms))
			b.WriteString(fmt.Sprintf("e2e_step_duration_ms_count%s %d\n", labels(label), s.Count))
			b.WriteString(fmt.Sprintf("e2e_step_duration_ms_min%s %.2f\n", labels(label), s.MinMs))
			b.WriteString(fmt.Sprintf("e2e_step_duration_ms_max%s %.2f\n", labels(label), s.MaxMs))
			b.WriteString(fmt.Sprintf("e2e_step_duration_ms_avg%s %.2f\n", labels(label), s.AvgMs))
			b.WriteString(fmt.Sprintf("e2e_step_failures_total%s %d\n", labels(label), s.Failed))
		}
	}

	return b.String()
}

// sanitizeLabel replaces characters invalid in Prometheus labels.
func sanitizeLabel(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.' || r == '/' || r == ':' || r == ' ' {
			return r
		}
		return '_'
	}, s)
}

// sortedStepKeys returns step names sorted alphabetically for deterministic output.
func sortedStepKeys(m map[string]StepStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
