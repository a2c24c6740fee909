package evidence

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// EvidenceLocation is reported in every summary.
const EvidenceLocation = "./test-evidence/"

// ResultStatus is the outcome of one test in a run.
type ResultStatus int

const (
	ResultPassed ResultStatus = iota + 1
	ResultFailed
	ResultSkipped
)

func (s ResultStatus) String() string {
	switch s {
	case ResultPassed:
		return "passed"
	case ResultFailed:
		return "failed"
	case ResultSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("ResultStatus(%d)", int(s))
	}
}

// ParseResultStatus maps report vocabulary onto the closed status set.
func ParseResultStatus(s string) (ResultStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "passed", "pass", "ok", "success":
		return ResultPassed, nil
	case "failed", "fail", "failure", "error", "timedout", "interrupted":
		return ResultFailed, nil
	case "skipped", "skip":
		return ResultSkipped, nil
	default:
		return 0, fmt.Errorf("unknown result status %q", s)
	}
}

// MarshalText encodes the status by name.
func (s ResultStatus) MarshalText() ([]byte, error) {
	switch s {
	case ResultPassed, ResultFailed, ResultSkipped:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("invalid result status %d", int(s))
	}
}

// UnmarshalText decodes a status name.
func (s *ResultStatus) UnmarshalText(b []byte) error {
	v, err := ParseResultStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Result is one test outcome fed into a summary.
type Result struct {
	Name     string        `json:"name"`
	Status   ResultStatus  `json:"status"`
	Duration time.Duration `json:"duration"`
}

// Structure describes what each artifact directory holds.
type Structure struct {
	Screenshots string `json:"screenshots"`
	Videos      string `json:"videos"`
	Traces      string `json:"traces"`
	Reports     string `json:"reports"`
}

// DefaultStructure is the fixed description embedded in summaries.
var DefaultStructure = Structure{
	Screenshots: "Success cases and manual captures",
	Videos:      "Failure cases (automatically captured)",
	Traces:      "Detailed execution traces for debugging",
	Reports:     "HTML and JUnit reports",
}

// Summary aggregates a run. Field order is the serialized order.
type Summary struct {
	ExecutionTime    string    `json:"executionTime"`
	TotalTests       int       `json:"totalTests"`
	Passed           int       `json:"passed"`
	Failed           int       `json:"failed"`
	EvidenceLocation string    `json:"evidenceLocation"`
	Structure        Structure `json:"structure"`
}

// BuildSummary counts results. Skipped results count toward the total only.
func BuildSummary(results []Result, now time.Time) Summary {
	s := Summary{
		ExecutionTime:    ISOTime(now),
		TotalTests:       len(results),
		EvidenceLocation: EvidenceLocation,
		Structure:        DefaultStructure,
	}
	for _, r := range results {
		switch r.Status {
		case ResultPassed:
			s.Passed++
		case ResultFailed:
			s.Failed++
		}
	}
	return s
}

// JSON renders the summary with two-space indentation.
func (s Summary) JSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling summary: %w", err)
	}
	return string(data), nil
}

// GenerateSummary builds and renders a summary stamped with the current time.
func GenerateSummary(results []Result) (string, error) {
	return BuildSummary(results, time.Now()).JSON()
}
