package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitrise-io/go-steputils/v2/export"
	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-steputils/v2/stepenv"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-rhapsody-test/fileremover"
	"github.com/bitrise-steplib/steps-rhapsody-test/output"
	"github.com/bitrise-steplib/steps-rhapsody-test/rhapsody"
	"github.com/bitrise-steplib/steps-rhapsody-test/step"
	"github.com/bitrise-steplib/steps-rhapsody-test/testaddon"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configParser := createConfigParser(logger)
	config, err := configParser.ProcessConfig()
	if err != nil {
		logger.Errorf("Process config: %s", err)
		return 1
	}

	client, err := rhapsody.NewClient(config.RhapsodyURL, config.ClientOptions(), logger)
	if err != nil {
		logger.Errorf("Create Rhapsody client: %s", err)
		return 1
	}

	runner := createRunner(logger, client)

	result, err := runner.Run(ctx, config)
	if err != nil {
		logger.Errorf("Run: %s", err)
		runner.ExportRunFailure()
		return 1
	}

	if err := runner.Export(result); err != nil {
		logger.Errorf("Export outputs: %s", err)
		return 1
	}

	if !result.Summary.Passed() {
		logger.Errorf("%d of %d components failed", result.Summary.Failed, result.Summary.Executed)
		return 1
	}

	logger.Donef("All tested components passed")
	return 0
}

func createConfigParser(logger log.Logger) step.RhapsodyTestConfigParser {
	envRepository := env.NewRepository()
	inputParser := stepconf.NewInputParser(envRepository)
	pathModifier := pathutil.NewPathModifier()

	return step.NewRhapsodyTestConfigParser(inputParser, logger, pathModifier)
}

func createRunner(logger log.Logger, client rhapsody.Client) step.RhapsodyTestRunner {
	envRepository := env.NewRepository()
	cmdFactory := command.NewFactory(envRepository)
	fileManager := fileutil.NewFileManager()
	pathProvider := pathutil.NewPathProvider()

	testAddonExporter := testaddon.NewExporter(testaddon.NewTestAddon(logger, cmdFactory, fileManager))
	outputEnvRepository := stepenv.NewRepository(envRepository)
	outputExporter := output.NewExporter(outputEnvRepository, logger, export.NewExporter(cmdFactory, fileManager), testAddonExporter, fileManager, fileremover.NewFileRemover())

	return step.NewRhapsodyTestRunner(logger, client, outputExporter, pathProvider)
}
