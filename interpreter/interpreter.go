package interpreter

import (
	"strings"

	"github.com/bitrise-steplib/steps-rhapsody-test/models"
	"github.com/bitrise-steplib/steps-rhapsody-test/rhapsody"
)

// Interpret rolls a completed status up into a TestComponent of the owning
// route. Counters are summed from the engine's own sub-result counters, so
// they may exceed the number of itemized test cases.
func Interpret(owner models.Route, status rhapsody.Status) models.TestComponent {
	component := models.NewTestComponent(owner)

	for _, result := range status.Results {
		component.TotalCount += result.TotalCount.Int()
		component.PassedCount += result.PassedCount.Int()
		component.FailedCount += result.FailedCount.Int()
		component.ExecutedCount += result.ExecutedCount.Int()
		component.SkippedCount += result.SkippedCount.Int()
		component.ErrorCount += result.ErrorCount.Int()

		filterName := FilterName(result.Path)

		for _, test := range result.FilterTests {
			component.Tests = append(component.Tests, models.TestCase{
				Name:        test.TestName,
				Description: test.TestDescription,
				Result:      models.ParseResult(test.Result),
				FilterName:  filterName,
			})
		}

		for _, test := range result.ConnectorTests {
			component.Tests = append(component.Tests, models.TestCase{
				Name:          test.TestName,
				Description:   test.TestDescription,
				Result:        models.ParseResult(test.Result),
				ConnectorName: test.ConnectorName,
			})
		}
	}

	return component
}

// FilterName returns the last non-empty segment of a sub-result path.
func FilterName(path string) string {
	path = strings.TrimRight(path, "/")
	return path[strings.LastIndex(path, "/")+1:]
}
