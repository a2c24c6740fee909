// Package results turns test runner reports into evidence.Result values.
package results

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
)

// ErrUnknownFormat is returned for report formats that cannot be parsed.
var ErrUnknownFormat = errors.New("unknown report format")

type junitCase struct {
	Name      string    `xml:"name,attr"`
	ClassName string    `xml:"classname,attr"`
	Time      string    `xml:"time,attr"`
	Failure   *struct{} `xml:"failure"`
	Error     *struct{} `xml:"error"`
	Skipped   *struct{} `xml:"skipped"`
}

type junitSuite struct {
	Name   string       `xml:"name,attr"`
	Cases  []junitCase  `xml:"testcase"`
	Suites []junitSuite `xml:"testsuite"`
}

// junitDoc accepts both a <testsuites> wrapper and a bare <testsuite> root.
type junitDoc struct {
	XMLName xml.Name
	Name    string       `xml:"name,attr"`
	Cases   []junitCase  `xml:"testcase"`
	Suites  []junitSuite `xml:"testsuite"`
}

// ParseJUnit reads a JUnit XML report. A test case with a <failure> or
// <error> child is failed, one with <skipped> is skipped, anything else
// passed.
func ParseJUnit(r io.Reader) ([]evidence.Result, error) {
	var doc junitDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing junit report: %w", err)
	}
	switch doc.XMLName.Local {
	case "testsuites", "testsuite":
	default:
		return nil, fmt.Errorf("parsing junit report: unexpected root <%s>", doc.XMLName.Local)
	}

	results := []evidence.Result{}
	collect := func(cases []junitCase) {
		for _, c := range cases {
			results = append(results, caseResult(c))
		}
	}
	var walk func(suites []junitSuite)
	walk = func(suites []junitSuite) {
		for _, s := range suites {
			collect(s.Cases)
			walk(s.Suites)
		}
	}
	collect(doc.Cases)
	walk(doc.Suites)
	return results, nil
}

func caseResult(c junitCase) evidence.Result {
	res := evidence.Result{Name: c.Name, Status: evidence.ResultPassed}
	if c.ClassName != "" {
		res.Name = c.ClassName + " › " + c.Name
	}
	switch {
	case c.Failure != nil || c.Error != nil:
		res.Status = evidence.ResultFailed
	case c.Skipped != nil:
		res.Status = evidence.ResultSkipped
	}
	if secs, err := strconv.ParseFloat(c.Time, 64); err == nil {
		res.Duration = time.Duration(secs * float64(time.Second))
	}
	return res
}
