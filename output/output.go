package output

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/bitrise-io/bitrise/configs"
	"github.com/bitrise-io/go-steputils/v2/export"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-rhapsody-test/batch"
	"github.com/bitrise-steplib/steps-rhapsody-test/fileremover"
	"github.com/bitrise-steplib/steps-rhapsody-test/junit"
	"github.com/bitrise-steplib/steps-rhapsody-test/models"
	"github.com/bitrise-steplib/steps-rhapsody-test/testaddon"
)

// Step outputs ...
const (
	TestResultKey         = "RHAPSODY_TEST_RESULT"
	TestSuitePathKey      = "RHAPSODY_TEST_SUITE_PATH"
	JUnitReportDirKey     = "RHAPSODY_JUNIT_REPORT_DIR"
	JUnitReportZipPathKey = "RHAPSODY_JUNIT_REPORT_ZIP_PATH"

	testSuiteFileName  = "rh-test-suite.json"
	junitReportDir     = "rhapsody-junit"
	junitReportPattern = "TEST-*.xml"
)

//go:generate mockery --srcpkg github.com/bitrise-io/go-utils/v2/env --name Repository --output ./mocks

// Exporter ...
type Exporter interface {
	ExportTestRunResult(failed bool)
	ExportTestSuite(deployDir string, suite models.TestSuite) error
	ExportJUnitReports(deployDir string, docs []junit.Document) error
	PrintSummary(suite models.TestSuite, summary batch.Summary)
}

type exporter struct {
	envRepository     env.Repository
	logger            log.Logger
	outputExporter    export.Exporter
	testAddonExporter testaddon.Exporter
	fileManager       fileutil.FileManager
	fileRemover       fileremover.FileRemover
}

// NewExporter ...
func NewExporter(envRepository env.Repository, logger log.Logger, outputExporter export.Exporter, testAddonExporter testaddon.Exporter, fileManager fileutil.FileManager, fileRemover fileremover.FileRemover) Exporter {
	return &exporter{
		envRepository:     envRepository,
		logger:            logger,
		outputExporter:    outputExporter,
		testAddonExporter: testAddonExporter,
		fileManager:       fileManager,
		fileRemover:       fileRemover,
	}
}

func (e exporter) ExportTestRunResult(failed bool) {
	status := "succeeded"
	if failed {
		status = "failed"
	}
	if err := e.envRepository.Set(TestResultKey, status); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", TestResultKey, err)
	}
}

func (e exporter) ExportTestSuite(deployDir string, suite models.TestSuite) error {
	content, err := json.MarshalIndent(suite, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode test suite: %w", err)
	}

	pth := filepath.Join(deployDir, testSuiteFileName)
	if err := e.fileManager.Write(pth, string(content), 0644); err != nil {
		return fmt.Errorf("failed to write test suite to (%s): %w", pth, err)
	}

	if err := e.envRepository.Set(TestSuitePathKey, pth); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", TestSuitePathKey, err)
	}

	return nil
}

func (e exporter) ExportJUnitReports(deployDir string, docs []junit.Document) error {
	reportDir := filepath.Join(deployDir, junitReportDir)
	names := junit.FileNames(docs)

	stale, err := e.fileRemover.RemoveMatching(reportDir, junitReportPattern)
	if err != nil {
		return fmt.Errorf("failed to clean up previous JUnit reports: %w", err)
	}
	if len(stale) > 0 {
		e.logger.Debugf("Removed %d JUnit reports of a previous run", len(stale))
	}

	var reportPaths []string
	for i, doc := range docs {
		content, err := doc.Marshal()
		if err != nil {
			return err
		}

		pth := filepath.Join(reportDir, names[i])
		if err := e.fileManager.Write(pth, string(content), 0644); err != nil {
			return fmt.Errorf("failed to write JUnit report to (%s): %w", pth, err)
		}
		e.logger.Debugf("JUnit report written: %s", pth)
		reportPaths = append(reportPaths, pth)
	}

	if err := e.envRepository.Set(JUnitReportDirKey, reportDir); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", JUnitReportDirKey, err)
	}

	if len(reportPaths) == 0 {
		return nil
	}

	zipPath := filepath.Join(deployDir, junitReportDir+".zip")
	if err := e.outputExporter.ExportOutputFilesZip(JUnitReportZipPathKey, reportPaths, zipPath); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", JUnitReportZipPathKey, err)
	}

	// export reports for the testing addon
	if addonResultPath := e.envRepository.Get(configs.BitrisePerStepTestResultDirEnvKey); len(addonResultPath) > 0 {
		e.logger.Println()
		e.logger.Infof("Exporting test results")

		for i, doc := range docs {
			if err := e.testAddonExporter.CopyAndSaveMetadata(testaddon.AddonCopy{
				SourceReportPath:      reportPaths[i],
				TargetAddonPath:       addonResultPath,
				TargetAddonBundleName: bundleName(doc, names[i]),
			}); err != nil {
				e.logger.Warnf("Failed to export test results of %s: %s", doc.Name, err)
			}
		}
	}

	return nil
}
