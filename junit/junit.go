package junit

import (
	"encoding/xml"
	"fmt"
	"regexp"

	"github.com/bitrise-steplib/steps-rhapsody-test/models"
)

const (
	// the engine reports no per-case timing
	caseTime = "0.0"

	xsiNamespace   = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocation = "https://maven.apache.org/surefire/maven-surefire-plugin/xsd/surefire-test-report-3.0.xsd"
	schemaVersion  = "3.0"
)

var unsupportedFileNameCharacters = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// Document is the JUnit report of one tested component.
type Document struct {
	XMLName        xml.Name `xml:"testsuite"`
	XSI            string   `xml:"xmlns:xsi,attr"`
	SchemaLocation string   `xml:"xsi:noNamespaceSchemaLocation,attr"`
	Version        string   `xml:"version,attr"`

	Name     string  `xml:"name,attr"`
	Group    string  `xml:"group,attr"`
	Time     float64 `xml:"time,attr"`
	Tests    int     `xml:"tests,attr"`
	Errors   int     `xml:"errors,attr"`
	Skipped  int     `xml:"skipped,attr"`
	Failures int     `xml:"failures,attr"`

	TestCases []TestCase `xml:"testcase"`
}

// TestCase ...
type TestCase struct {
	Name      string `xml:"name,attr"`
	ClassName string `xml:"classname,attr"`
	Time      string `xml:"time,attr"`

	Failure *Failure `xml:"failure,omitempty"`
	Skipped *Skipped `xml:"skipped,omitempty"`
	Error   *Error   `xml:"error,omitempty"`
}

// Failure ...
type Failure struct {
	Type    string `xml:"type,attr"`
	Message string `xml:"message,attr"`
}

// Skipped ...
type Skipped struct {
	Message string `xml:"message,attr"`
}

// Error ...
type Error struct {
	Type    string `xml:"type,attr"`
	Message string `xml:"message,attr"`
}

// Render converts every component of the suite into its own report document.
func Render(suite models.TestSuite) []Document {
	docs := make([]Document, 0, len(suite.Components))
	for _, component := range suite.Components {
		docs = append(docs, renderComponent(component))
	}
	return docs
}

func renderComponent(component models.TestComponent) Document {
	doc := Document{
		XSI:            xsiNamespace,
		SchemaLocation: schemaLocation,
		Version:        schemaVersion,
		Name:           component.ComponentName,
		Group:          component.FolderPath,
		Time:           float64(component.Duration) / 1000,
		Tests:          len(component.Tests),
		TestCases:      []TestCase{},
	}

	for _, test := range component.Tests {
		testCase := TestCase{
			Name:      test.Name,
			ClassName: component.ComponentName + "." + test.Target(),
			Time:      caseTime,
		}

		switch test.Result {
		case models.ResultFail:
			doc.Failures++
			testCase.Failure = &Failure{Type: "Fail", Message: "Rhapsody returned a fail status"}
		case models.ResultSkipped:
			doc.Skipped++
			testCase.Skipped = &Skipped{Message: "Rhapsody returned a skip status"}
		case models.ResultError, models.ResultInvalid:
			doc.Errors++
			testCase.Error = &Error{Type: "Error", Message: "Rhapsody returned an error status"}
		}

		doc.TestCases = append(doc.TestCases, testCase)
	}

	return doc
}

// Marshal ...
func (d Document) Marshal() ([]byte, error) {
	out, err := xml.MarshalIndent(d, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report of %s: %w", d.Name, err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// FileName ...
func FileName(doc Document) string {
	return "TEST-" + unsupportedFileNameCharacters.ReplaceAllString(doc.Name, "") + ".xml"
}

// FileNames returns a unique file name per document, index aligned. Several
// filters of one route roll up to the same route name, later ones get a
// numeric suffix.
func FileNames(docs []Document) []string {
	seen := map[string]int{}
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		name := FileName(doc)
		seen[name]++
		if n := seen[name]; n > 1 {
			base := name[:len(name)-len(".xml")]
			name = fmt.Sprintf("%s_%d.xml", base, n)
		}
		names = append(names, name)
	}
	return names
}
