package models

import (
	"encoding/json"
)

// Result is the outcome the engine reported for a single test. The engine may
// introduce new values, anything unrecognised is kept verbatim.
type Result struct {
	raw string
}

// Known results ...
var (
	ResultPass    = Result{raw: "PASS"}
	ResultFail    = Result{raw: "FAIL"}
	ResultSkipped = Result{raw: "SKIPPED"}
	ResultError   = Result{raw: "ERROR"}
	ResultInvalid = Result{raw: "INVALID"}
)

var knownResults = map[string]Result{
	ResultPass.raw:    ResultPass,
	ResultFail.raw:    ResultFail,
	ResultSkipped.raw: ResultSkipped,
	ResultError.raw:   ResultError,
	ResultInvalid.raw: ResultInvalid,
}

// ParseResult never fails, unknown values map to an unknown Result.
func ParseResult(s string) Result {
	if r, ok := knownResults[s]; ok {
		return r
	}
	return Result{raw: s}
}

// Known reports whether the result is one of the documented engine values.
func (r Result) Known() bool {
	_, ok := knownResults[r.raw]
	return ok
}

func (r Result) String() string {
	return r.raw
}

// MarshalJSON ...
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.raw)
}

// UnmarshalJSON ...
func (r *Result) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = ParseResult(s)
	return nil
}

// TestCase is one itemized test outcome, attributed either to a filter or to
// a connector.
type TestCase struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Result        Result `json:"result"`
	FilterName    string `json:"filterName,omitempty"`
	ConnectorName string `json:"connectorName,omitempty"`
}

// Target returns the connector name for connector tests, the filter name otherwise.
func (c TestCase) Target() string {
	if c.ConnectorName != "" {
		return c.ConnectorName
	}
	return c.FilterName
}

// TestComponent is the rolled-up outcome of testing one component, always
// identified by the owning route.
type TestComponent struct {
	ComponentID   string `json:"componentId"`
	ComponentName string `json:"componentName"`
	FolderPath    string `json:"folderPath"`
	Error         string `json:"error,omitempty"`

	TotalCount    int `json:"totalCount"`
	PassedCount   int `json:"passedCount"`
	ExecutedCount int `json:"executedCount"`
	FailedCount   int `json:"failedCount"`
	ErrorCount    int `json:"errorCount"`
	SkippedCount  int `json:"skippedCount"`

	// Duration in milliseconds.
	Duration int64 `json:"duration"`

	Tests []TestCase `json:"tests"`
}

// NewTestComponent ...
func NewTestComponent(owner Route) TestComponent {
	return TestComponent{
		ComponentID:   owner.ID,
		ComponentName: owner.Name,
		FolderPath:    owner.Folder,
		Tests:         []TestCase{},
	}
}

// Fail marks the whole component as errored. A failed component carries no tests.
func (c *TestComponent) Fail(cause string) {
	c.Error = cause
	c.Tests = []TestCase{}
}

// Failed reports whether any test failed or errored.
func (c TestComponent) Failed() bool {
	return c.ErrorCount > 0 || c.FailedCount > 0
}

// TestSuite holds the components tested in one batch, in submission order.
type TestSuite struct {
	RunID      string          `json:"runId,omitempty"`
	Components []TestComponent `json:"components"`
}

// NewTestSuite ...
func NewTestSuite(runID string) TestSuite {
	return TestSuite{RunID: runID, Components: []TestComponent{}}
}

// Add ...
func (s *TestSuite) Add(c TestComponent) {
	s.Components = append(s.Components, c)
}
