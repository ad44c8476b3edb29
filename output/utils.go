package output

import (
	"fmt"
	"strings"

	"github.com/bitrise-io/go-utils/colorstring"
	"github.com/bitrise-steplib/steps-rhapsody-test/batch"
	"github.com/bitrise-steplib/steps-rhapsody-test/junit"
	"github.com/bitrise-steplib/steps-rhapsody-test/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const maxErrorLength = 60

func (e exporter) PrintSummary(suite models.TestSuite, summary batch.Summary) {
	e.logger.Println()
	e.logger.Infof("Test summary (run %s)", suite.RunID)
	e.logger.Printf("%s", renderSummary(suite, summary))
}

func renderSummary(suite models.TestSuite, summary batch.Summary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	// the totals line is a sentence, keep its case
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"#", "Component", "Folder", "Tests", "Passed", "Failed", "Errors", "Skipped", "Outcome", "Error"})

	for i, component := range suite.Components {
		outcome := ""
		if i < len(summary.Outcomes) {
			outcome = colorOutcome(summary.Outcomes[i])
		}

		t.AppendRow(table.Row{
			i + 1,
			component.ComponentName,
			component.FolderPath,
			component.TotalCount,
			component.PassedCount,
			component.FailedCount,
			component.ErrorCount,
			component.SkippedCount,
			outcome,
			truncate(component.Error, maxErrorLength),
		})
	}

	t.AppendFooter(table.Row{
		"", "", "", "", "", "", "",
		"Total",
		fmt.Sprintf("%d executed / %d succeeded / %d failed / %d skipped", summary.Executed, summary.Succeeded, summary.Failed, summary.Skipped),
		"",
	})

	return t.Render()
}

func colorOutcome(o batch.Outcome) string {
	switch o {
	case batch.Succeeded:
		return colorstring.Green(o.String())
	case batch.Failed:
		return colorstring.Red(o.String())
	case batch.Skipped:
		return colorstring.Yellow(o.String())
	default:
		return o.String()
	}
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}

// bundleName keeps addon bundles of several filters of the same route apart.
func bundleName(doc junit.Document, fileName string) string {
	if junit.FileName(doc) == fileName {
		return doc.Name
	}
	return strings.TrimSuffix(strings.TrimPrefix(fileName, "TEST-"), ".xml")
}
