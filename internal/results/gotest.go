package results

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
)

// testEvent is one line of `go test -json` output.
type testEvent struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"`
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
}

// ParseGoTest reads a `go test -json` stream. Only top-level tests are
// counted; subtests are scenario steps. Package-level events and output
// lines are ignored, as are lines that are not JSON (build noise).
func ParseGoTest(r io.Reader) ([]evidence.Result, error) {
	type key struct{ pkg, test string }
	index := make(map[key]int)
	results := []evidence.Result{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var ev testEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		if ev.Test == "" || strings.Contains(ev.Test, "/") {
			continue
		}

		var status evidence.ResultStatus
		switch ev.Action {
		case "pass":
			status = evidence.ResultPassed
		case "fail":
			status = evidence.ResultFailed
		case "skip":
			status = evidence.ResultSkipped
		default:
			continue
		}

		res := evidence.Result{
			Name:     ev.Test,
			Status:   status,
			Duration: time.Duration(ev.Elapsed * float64(time.Second)),
		}
		k := key{ev.Package, ev.Test}
		if i, ok := index[k]; ok {
			// -count=N reruns report the same test again; keep the last.
			results[i] = res
			continue
		}
		index[k] = len(results)
		results = append(results, res)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading go test output: %w", err)
	}
	return results, nil
}
