package step

import (
	"github.com/bitrise-io/go-utils/colorstring"
	"github.com/bitrise-io/go-utils/v2/log"
)

func printReportHint(logger log.Logger, passed bool) {
	if !passed {
		logger.Warnf("If you can't find the reason of the failure in the summary, please check the JUnit reports.")
	}

	logger.Infof("%s", colorstring.Magenta(`
The JUnit reports are stored in $BITRISE_DEPLOY_DIR, and their directory
is available in the $RHAPSODY_JUNIT_REPORT_DIR environment variable.

If you have the Deploy to Bitrise.io step (after this step),
that will attach the reports to your build as artifacts!`))
}
