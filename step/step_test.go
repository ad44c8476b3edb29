package step

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-rhapsody-test/batch"
	"github.com/bitrise-steplib/steps-rhapsody-test/models"
	"github.com/bitrise-steplib/steps-rhapsody-test/output"
	"github.com/bitrise-steplib/steps-rhapsody-test/rhapsody"
	clientmocks "github.com/bitrise-steplib/steps-rhapsody-test/rhapsody/mocks"
	"github.com/bitrise-steplib/steps-rhapsody-test/step/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	_ output.Exporter       = (*mocks.Exporter)(nil)
	_ env.Repository        = (*mocks.Repository)(nil)
	_ pathutil.PathModifier = (*mocks.PathModifier)(nil)
	_ pathutil.PathProvider = (*mocks.PathProvider)(nil)
)

func TestPathProviderMock_Glob(t *testing.T) {
	pathProvider := mocks.NewPathProvider(t)
	pathProvider.On("Glob", "*.xml").Return([]string{"TEST-Orders.xml"}, nil).Once()

	matches, err := pathProvider.Glob("*.xml")

	require.NoError(t, err)
	assert.Equal(t, []string{"TEST-Orders.xml"}, matches)
}

const componentsJSON = `{
	"data": {
		"childFolders": [{
			"name": "Sales",
			"childComponents": [
				{"id": 3, "name": "Orders", "type": "ROUTE", "childComponents": [{"id": 31, "name": "Map", "type": "FILTER"}]},
				{"id": 4, "name": "Invoices", "type": "ROUTE", "childComponents": []}
			]
		}]
	}
}`

type configParserMocks struct {
	pathModifier *mocks.PathModifier
}

type stepMocks struct {
	client         *clientmocks.Client
	outputExporter *mocks.Exporter
	pathProvider   *mocks.PathProvider
}

func Test_GivenValidInputs_WhenProcessConfig_ThenConfigIsFilled(t *testing.T) {
	// Given
	envValues := defaultEnvValues()
	envValues["filter_patterns"] = "Map\nValidate*"
	envValues["allow_empty_results"] = "yes"

	configParser, _ := createConfigParser(t, envValues)

	// When
	cfg, err := configParser.ProcessConfig()

	// Then
	require.NoError(t, err)
	assert.Equal(t, Config{
		RhapsodyURL:           "https://rhapsody.example.com:8444",
		Username:              "ci",
		Password:              stepconf.Secret("s3cr3t"),
		InsecureSkipTLSVerify: false,
		RoutePatterns:         []string{"Orders", "Invoice*"},
		FilterPatterns:        []string{"Map", "Validate*"},
		AllowEmptyResults:     true,
		PollTimeout:           5 * time.Second,
		PollInterval:          200 * time.Millisecond,
		DeployDir:             "/deploy",
	}, cfg)
}

func Test_GivenZeroPollTimings_WhenProcessConfig_ThenDefaultsAreUsed(t *testing.T) {
	// Given
	envValues := defaultEnvValues()
	envValues["poll_timeout"] = "0"
	envValues["poll_interval"] = "0"

	configParser, _ := createConfigParser(t, envValues)

	// When
	cfg, err := configParser.ProcessConfig()

	// Then
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.PollTimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.PollInterval)
}

func Test_GivenComponentsFile_WhenProcessConfig_ThenPathIsAbsolute(t *testing.T) {
	// Given
	envValues := defaultEnvValues()
	envValues["components_file"] = "./components.json"

	configParser, mocks := createConfigParser(t, envValues)
	mocks.pathModifier.On("AbsPath", "./components.json").Return("/workdir/components.json", nil)

	// When
	cfg, err := configParser.ProcessConfig()

	// Then
	require.NoError(t, err)
	assert.Equal(t, "/workdir/components.json", cfg.ComponentsFile)
}

func Test_GivenInvalidInputs_WhenProcessConfig_ThenFails(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "missing url", key: "rhapsody_url", value: ""},
		{name: "unsupported scheme", key: "rhapsody_url", value: "ftp://rhapsody.example.com"},
		{name: "no scheme", key: "rhapsody_url", value: "rhapsody.example.com"},
		{name: "missing password", key: "rhapsody_password", value: ""},
		{name: "missing route patterns", key: "route_patterns", value: ""},
		{name: "blank route patterns", key: "route_patterns", value: "\n  \n"},
		{name: "negative poll timeout", key: "poll_timeout", value: "-1"},
		{name: "negative poll interval", key: "poll_interval", value: "-200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			envValues := defaultEnvValues()
			envValues[tt.key] = tt.value

			configParser, _ := createConfigParser(t, envValues)

			// When
			_, err := configParser.ProcessConfig()

			// Then
			require.Error(t, err)
		})
	}
}

func Test_GivenComponentsFile_WhenRun_ThenMatchingRoutesAreTested(t *testing.T) {
	// Given
	componentsFile := filepath.Join(t.TempDir(), "components.json")
	require.NoError(t, fileutil.NewFileManager().Write(componentsFile, componentsJSON, 0600))

	step, mocks := createStepAndMocks(t)
	mocks.client.On("SubmitTest", mock.Anything, "3").Return("http://engine/status/3", nil).Once()
	mocks.client.On("CheckStatus", mock.Anything, "http://engine/status/3").Return(passedStatus(), nil).Once()

	cfg := defaultConfig()
	cfg.ComponentsFile = componentsFile
	cfg.RoutePatterns = []string{"orders"}

	// When
	result, err := step.Run(context.Background(), cfg)

	// Then
	require.NoError(t, err)
	require.Len(t, result.Suite.Components, 1)
	assert.Equal(t, "Orders", result.Suite.Components[0].ComponentName)
	assert.Equal(t, "Sales", result.Suite.Components[0].FolderPath)
	assert.True(t, result.Summary.Passed())
	assert.Equal(t, "/deploy", result.DeployDir)
}

func Test_GivenNoComponentsFile_WhenRun_ThenComponentsAreListedFromTheEngine(t *testing.T) {
	// Given
	step, mocks := createStepAndMocks(t)
	mocks.client.On("Components", mock.Anything).Return([]byte(componentsJSON), nil).Once()
	mocks.client.On("SubmitTest", mock.Anything, "31").Return("http://engine/status/31", nil).Once()
	mocks.client.On("CheckStatus", mock.Anything, "http://engine/status/31").Return(rhapsody.Status{State: rhapsody.CompletedState}, nil).Once()

	cfg := defaultConfig()
	cfg.RoutePatterns = []string{"*"}
	cfg.FilterPatterns = []string{"Map"}

	// When
	result, err := step.Run(context.Background(), cfg)

	// Then
	require.NoError(t, err)
	require.Len(t, result.Suite.Components, 1)
	assert.Equal(t, "3", result.Suite.Components[0].ComponentID)
	assert.Equal(t, []batch.Outcome{batch.Failed}, result.Summary.Outcomes)
}

func Test_GivenNoMatchingComponent_WhenRun_ThenFailsWithoutSubmitting(t *testing.T) {
	// Given
	step, mocks := createStepAndMocks(t)
	mocks.client.On("Components", mock.Anything).Return([]byte(componentsJSON), nil).Once()

	cfg := defaultConfig()
	cfg.RoutePatterns = []string{"Shipping*"}

	// When
	_, err := step.Run(context.Background(), cfg)

	// Then
	require.Error(t, err)
	mocks.client.AssertNotCalled(t, "SubmitTest", mock.Anything, mock.Anything)
}

func Test_GivenListingFails_WhenRun_ThenFails(t *testing.T) {
	// Given
	step, mocks := createStepAndMocks(t)
	mocks.client.On("Components", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	// When
	_, err := step.Run(context.Background(), defaultConfig())

	// Then
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func Test_GivenFailedResult_WhenExport_ThenEveryOutputIsExported(t *testing.T) {
	// Given
	step, mocks := createStepAndMocks(t)
	result := defaultResult()
	result.Summary = batch.Summary{Executed: 1, Failed: 1, Outcomes: []batch.Outcome{batch.Failed}}

	mocks.outputExporter.On("ExportTestRunResult", true).Once()
	mocks.outputExporter.On("PrintSummary", result.Suite, result.Summary).Once()
	mocks.outputExporter.On("ExportTestSuite", "/deploy", result.Suite).Return(nil).Once()
	mocks.outputExporter.On("ExportJUnitReports", "/deploy", mock.Anything).Return(nil).Once()

	// When
	err := step.Export(result)

	// Then
	require.NoError(t, err)
}

func Test_GivenNoDeployDir_WhenExport_ThenTempDirIsUsed(t *testing.T) {
	// Given
	step, mocks := createStepAndMocks(t)
	result := defaultResult()
	result.DeployDir = ""

	mocks.pathProvider.On("CreateTempDir", "rhapsody-test").Return("/tmp/rhapsody-test", nil).Once()
	mocks.outputExporter.On("ExportTestRunResult", false).Once()
	mocks.outputExporter.On("PrintSummary", mock.Anything, mock.Anything).Once()
	mocks.outputExporter.On("ExportTestSuite", "/tmp/rhapsody-test", result.Suite).Return(nil).Once()
	mocks.outputExporter.On("ExportJUnitReports", "/tmp/rhapsody-test", mock.Anything).Return(nil).Once()

	// When
	err := step.Export(result)

	// Then
	require.NoError(t, err)
}

func Test_GivenSuiteExportFails_WhenExport_ThenFailsBeforeReports(t *testing.T) {
	// Given
	step, mocks := createStepAndMocks(t)
	result := defaultResult()

	mocks.outputExporter.On("ExportTestRunResult", false).Once()
	mocks.outputExporter.On("PrintSummary", mock.Anything, mock.Anything).Once()
	mocks.outputExporter.On("ExportTestSuite", "/deploy", result.Suite).Return(errors.New("disk full")).Once()

	// When
	err := step.Export(result)

	// Then
	require.Error(t, err)
	mocks.outputExporter.AssertNotCalled(t, "ExportJUnitReports", mock.Anything, mock.Anything)
}

// Helpers

func defaultEnvValues() map[string]string {
	return map[string]string{
		"rhapsody_url":             "https://rhapsody.example.com:8444",
		"rhapsody_username":        "ci",
		"rhapsody_password":        "s3cr3t",
		"insecure_skip_tls_verify": "no",
		"route_patterns":           "Orders\nInvoice*\n",
		"filter_patterns":          "",
		"components_file":          "",
		"allow_empty_results":      "no",
		"poll_timeout":             "5",
		"poll_interval":            "200",
		"verbose":                  "no",
		"BITRISE_DEPLOY_DIR":       "/deploy",
	}
}

func defaultConfig() Config {
	return Config{
		RhapsodyURL:   "https://rhapsody.example.com:8444",
		Username:      "ci",
		Password:      "s3cr3t",
		RoutePatterns: []string{"*"},
		PollTimeout:   time.Second,
		PollInterval:  10 * time.Millisecond,
		DeployDir:     "/deploy",
	}
}

func defaultResult() Result {
	suite := models.NewTestSuite("run")
	suite.Add(models.TestComponent{
		ComponentID:   "3",
		ComponentName: "Orders",
		TotalCount:    1,
		PassedCount:   1,
		Tests:         []models.TestCase{{Name: "maps", Result: models.ResultPass, FilterName: "Map"}},
	})

	return Result{
		DeployDir: "/deploy",
		Suite:     suite,
		Summary:   batch.Summary{Executed: 1, Succeeded: 1, Outcomes: []batch.Outcome{batch.Succeeded}},
	}
}

func passedStatus() rhapsody.Status {
	return rhapsody.Status{
		State: rhapsody.CompletedState,
		Results: []rhapsody.SubResult{{
			TotalCount:  1,
			PassedCount: 1,
			Path:        "/Sales/Orders/Map",
			FilterTests: []rhapsody.RawTest{{TestName: "maps", Result: "PASS"}},
		}},
	}
}

func createConfigParser(t *testing.T, envValues map[string]string) (RhapsodyTestConfigParser, configParserMocks) {
	envRepository := mocks.NewRepository(t)

	if envValues != nil {
		call := envRepository.On("Get", mock.Anything)
		call.RunFn = func(arguments mock.Arguments) {
			key := arguments[0].(string)
			value := envValues[key]
			call.ReturnArguments = mock.Arguments{value, nil}
		}
	}

	logger := log.NewLogger()
	inputParser := stepconf.NewInputParser(envRepository)
	pathModifier := mocks.NewPathModifier(t)

	configParser := NewRhapsodyTestConfigParser(inputParser, logger, pathModifier)
	mocks := configParserMocks{
		pathModifier: pathModifier,
	}

	return configParser, mocks
}

func createStepAndMocks(t *testing.T) (RhapsodyTestRunner, stepMocks) {
	logger := log.NewLogger()
	client := clientmocks.NewClient(t)
	outputExporter := mocks.NewExporter(t)
	pathProvider := mocks.NewPathProvider(t)

	step := NewRhapsodyTestRunner(logger, client, outputExporter, pathProvider)
	mocks := stepMocks{
		client:         client,
		outputExporter: outputExporter,
		pathProvider:   pathProvider,
	}

	return step, mocks
}

func Test_GivenRunFailure_WhenExportRunFailure_ThenResultIsFailed(t *testing.T) {
	// Given
	step, mocks := createStepAndMocks(t)
	mocks.outputExporter.On("ExportTestRunResult", true).Once()

	// When
	step.ExportRunFailure()
}
