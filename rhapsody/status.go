package rhapsody

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// CompletedState is the state the engine reports once a test run finished.
const CompletedState = "COMPLETED"

// Status is the body of a test status resource.
type Status struct {
	State   string      `json:"state"`
	Results []SubResult `json:"results"`
}

// Completed ...
func (s Status) Completed() bool {
	return s.State == CompletedState
}

// SubResult is the outcome of one filter or connector test in a run.
type SubResult struct {
	TotalCount    Count  `json:"totalCount"`
	PassedCount   Count  `json:"passedCount"`
	FailedCount   Count  `json:"failedCount"`
	ExecutedCount Count  `json:"executedCount"`
	SkippedCount  Count  `json:"skippedCount"`
	ErrorCount    Count  `json:"errorCount"`
	Path          string `json:"path"`

	FilterTests    []RawTest `json:"filterTests,omitempty"`
	ConnectorTests []RawTest `json:"connectorTests,omitempty"`
}

// RawTest is a single itemized test as reported by the engine.
type RawTest struct {
	TestName        string `json:"testName"`
	TestDescription string `json:"testDescription"`
	Result          string `json:"result"`
	ConnectorName   string `json:"connectorName,omitempty"`
}

// UnmarshalJSON reads the text fields leniently: numbers and booleans keep
// their literal text, anything else unreadable decodes to "". A malformed
// entry decodes to an empty test instead of failing the whole status.
func (t *RawTest) UnmarshalJSON(b []byte) error {
	var fields struct {
		TestName        json.RawMessage `json:"testName"`
		TestDescription json.RawMessage `json:"testDescription"`
		Result          json.RawMessage `json:"result"`
		ConnectorName   json.RawMessage `json:"connectorName"`
	}

	*t = RawTest{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil
	}

	t.TestName = lenientText(fields.TestName)
	t.TestDescription = lenientText(fields.TestDescription)
	t.Result = lenientText(fields.Result)
	t.ConnectorName = lenientText(fields.ConnectorName)
	return nil
}

func lenientText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	default:
		return string(raw)
	}
}

// Count is a counter field of a sub-result. Absent, null or unreadable
// values decode to zero.
type Count int

// UnmarshalJSON ...
func (c *Count) UnmarshalJSON(b []byte) error {
	*c = 0

	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	var n json.Number
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		n = json.Number(s)
	} else if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}

	if i, err := n.Int64(); err == nil {
		*c = Count(i)
		return nil
	}
	if f, err := strconv.ParseFloat(string(n), 64); err == nil {
		*c = Count(int64(f))
	}
	return nil
}

// Int ...
func (c Count) Int() int {
	return int(c)
}

type errorBody struct {
	Error struct {
		Messages []string `json:"messages"`
	} `json:"error"`
}
