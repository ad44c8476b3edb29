package step

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-rhapsody-test/batch"
	"github.com/bitrise-steplib/steps-rhapsody-test/discovery"
	"github.com/bitrise-steplib/steps-rhapsody-test/junit"
	"github.com/bitrise-steplib/steps-rhapsody-test/models"
	"github.com/bitrise-steplib/steps-rhapsody-test/output"
	"github.com/bitrise-steplib/steps-rhapsody-test/poller"
	"github.com/bitrise-steplib/steps-rhapsody-test/rhapsody"
)

//go:generate mockery --srcpkg github.com/bitrise-steplib/steps-rhapsody-test/output --name Exporter --output ./mocks
//go:generate mockery --srcpkg github.com/bitrise-io/go-utils/v2/env --name Repository --output ./mocks
//go:generate mockery --srcpkg github.com/bitrise-io/go-utils/v2/pathutil --name PathModifier --output ./mocks
//go:generate mockery --srcpkg github.com/bitrise-io/go-utils/v2/pathutil --name PathProvider --output ./mocks

const (
	deployDirPrefix = "rhapsody-test"
	httpTimeout     = 30 * time.Second
)

// Input ...
type Input struct {
	// Engine
	RhapsodyURL           string          `env:"rhapsody_url,required"`
	Username              string          `env:"rhapsody_username,required"`
	Password              stepconf.Secret `env:"rhapsody_password,required"`
	InsecureSkipTLSVerify bool            `env:"insecure_skip_tls_verify,opt[yes,no]"`

	// Component selection
	RoutePatterns  string `env:"route_patterns,required"`
	FilterPatterns string `env:"filter_patterns"`
	ComponentsFile string `env:"components_file"`

	// Test run
	AllowEmptyResults bool `env:"allow_empty_results,opt[yes,no]"`
	PollTimeout       int  `env:"poll_timeout"`
	PollInterval      int  `env:"poll_interval"`

	// Debug
	Verbose bool `env:"verbose,opt[yes,no]"`

	// Output export
	DeployDir string `env:"BITRISE_DEPLOY_DIR"`
}

// Config ...
type Config struct {
	RhapsodyURL           string
	Username              string
	Password              stepconf.Secret
	InsecureSkipTLSVerify bool

	RoutePatterns  []string
	FilterPatterns []string
	ComponentsFile string

	AllowEmptyResults bool
	PollTimeout       time.Duration
	PollInterval      time.Duration

	DeployDir string
}

// ClientOptions ...
func (c Config) ClientOptions() rhapsody.Options {
	return rhapsody.Options{
		Username:           c.Username,
		Password:           string(c.Password),
		InsecureSkipVerify: c.InsecureSkipTLSVerify,
		Timeout:            httpTimeout,
	}
}

// RhapsodyTestConfigParser ...
type RhapsodyTestConfigParser struct {
	inputParser  stepconf.InputParser
	logger       log.Logger
	pathModifier pathutil.PathModifier
}

// NewRhapsodyTestConfigParser ...
func NewRhapsodyTestConfigParser(inputParser stepconf.InputParser, logger log.Logger, pathModifier pathutil.PathModifier) RhapsodyTestConfigParser {
	return RhapsodyTestConfigParser{
		inputParser:  inputParser,
		logger:       logger,
		pathModifier: pathModifier,
	}
}

// ProcessConfig ...
func (s RhapsodyTestConfigParser) ProcessConfig() (Config, error) {
	var input Input
	if err := s.inputParser.Parse(&input); err != nil {
		return Config{}, err
	}

	stepconf.Print(input)
	s.logger.Println()

	s.logger.EnableDebugLog(input.Verbose)

	if err := validateURL(input.RhapsodyURL); err != nil {
		return Config{}, fmt.Errorf("invalid Rhapsody URL (rhapsody_url): %w", err)
	}

	routePatterns := discovery.SplitPatterns(input.RoutePatterns)
	if len(routePatterns) == 0 {
		return Config{}, errors.New("Route patterns (route_patterns) must contain at least one pattern")
	}

	pollTimeout, err := positiveDuration(input.PollTimeout, time.Second, poller.DefaultDeadline)
	if err != nil {
		return Config{}, fmt.Errorf("invalid Poll timeout (poll_timeout): %w", err)
	}
	pollInterval, err := positiveDuration(input.PollInterval, time.Millisecond, poller.DefaultInterval)
	if err != nil {
		return Config{}, fmt.Errorf("invalid Poll interval (poll_interval): %w", err)
	}
	if pollInterval > pollTimeout {
		s.logger.Warnf("Poll interval (%s) is longer than the poll timeout (%s), every test gets a single status check", pollInterval, pollTimeout)
	}

	componentsFile := input.ComponentsFile
	if componentsFile != "" {
		componentsFile, err = s.pathModifier.AbsPath(componentsFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to get absolute components file path: %w", err)
		}
	}

	return Config{
		RhapsodyURL:           input.RhapsodyURL,
		Username:              input.Username,
		Password:              input.Password,
		InsecureSkipTLSVerify: input.InsecureSkipTLSVerify,

		RoutePatterns:  routePatterns,
		FilterPatterns: discovery.SplitPatterns(input.FilterPatterns),
		ComponentsFile: componentsFile,

		AllowEmptyResults: input.AllowEmptyResults,
		PollTimeout:       pollTimeout,
		PollInterval:      pollInterval,

		DeployDir: input.DeployDir,
	}, nil
}

// RhapsodyTestRunner ...
type RhapsodyTestRunner struct {
	logger         log.Logger
	client         rhapsody.Client
	outputExporter output.Exporter
	pathProvider   pathutil.PathProvider
}

// NewRhapsodyTestRunner ...
func NewRhapsodyTestRunner(logger log.Logger, client rhapsody.Client, outputExporter output.Exporter, pathProvider pathutil.PathProvider) RhapsodyTestRunner {
	return RhapsodyTestRunner{
		logger:         logger,
		client:         client,
		outputExporter: outputExporter,
		pathProvider:   pathProvider,
	}
}

// Result ...
type Result struct {
	DeployDir string
	Suite     models.TestSuite
	Summary   batch.Summary
}

// Run ...
func (s RhapsodyTestRunner) Run(ctx context.Context, cfg Config) (Result, error) {
	result := Result{DeployDir: cfg.DeployDir}

	tree, err := s.loadTree(ctx, cfg)
	if err != nil {
		return result, err
	}
	s.logger.Printf("%d routes found", len(tree.Routes))

	components, err := discovery.Select(tree, cfg.RoutePatterns, cfg.FilterPatterns)
	if err != nil {
		return result, err
	}
	if len(components) == 0 {
		return result, fmt.Errorf("no components matched the route patterns (%v) and filter patterns (%v)", cfg.RoutePatterns, cfg.FilterPatterns)
	}

	s.logger.Infof("Components to test")
	for _, component := range components {
		s.logger.Printf("- %s", component)
	}
	s.logger.Println()

	orchestrator := batch.NewOrchestrator(s.client, s.logger, batch.Config{
		AllowEmptyResults: cfg.AllowEmptyResults,
		Deadline:          cfg.PollTimeout,
		Interval:          cfg.PollInterval,
	})
	result.Suite, result.Summary = orchestrator.Run(ctx, tree, components)

	return result, nil
}

func (s RhapsodyTestRunner) loadTree(ctx context.Context, cfg Config) (models.Tree, error) {
	var raw []byte
	var err error

	if cfg.ComponentsFile != "" {
		s.logger.Infof("Reading components from %s", cfg.ComponentsFile)
		raw, err = os.ReadFile(cfg.ComponentsFile)
		if err != nil {
			return models.Tree{}, fmt.Errorf("failed to read components file: %w", err)
		}
	} else {
		s.logger.Infof("Listing components of %s", cfg.RhapsodyURL)
		raw, err = s.client.Components(ctx)
		if err != nil {
			return models.Tree{}, fmt.Errorf("failed to list components: %w", err)
		}
	}

	return discovery.ParseTree(raw)
}

// Export ...
func (s RhapsodyTestRunner) Export(result Result) error {
	s.outputExporter.ExportTestRunResult(!result.Summary.Passed())
	s.outputExporter.PrintSummary(result.Suite, result.Summary)

	deployDir := result.DeployDir
	if deployDir == "" {
		dir, err := s.pathProvider.CreateTempDir(deployDirPrefix)
		if err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		s.logger.Warnf("BITRISE_DEPLOY_DIR is not set, exporting results to %s", dir)
		deployDir = dir
	}

	if err := s.outputExporter.ExportTestSuite(deployDir, result.Suite); err != nil {
		return err
	}

	if err := s.outputExporter.ExportJUnitReports(deployDir, junit.Render(result.Suite)); err != nil {
		return err
	}

	printReportHint(s.logger, result.Summary.Passed())

	return nil
}

// ExportRunFailure marks the test run failed when no batch could be started.
func (s RhapsodyTestRunner) ExportRunFailure() {
	s.outputExporter.ExportTestRunResult(true)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme (%s), should be http or https", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func positiveDuration(value int, unit time.Duration, defaultValue time.Duration) (time.Duration, error) {
	if value == 0 {
		return defaultValue, nil
	}
	if value < 0 {
		return 0, fmt.Errorf("should be positive, got %d", value)
	}
	return time.Duration(value) * unit, nil
}
