package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-rhapsody-test/interpreter"
	"github.com/bitrise-steplib/steps-rhapsody-test/models"
	"github.com/bitrise-steplib/steps-rhapsody-test/poller"
	"github.com/bitrise-steplib/steps-rhapsody-test/rhapsody"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Outcome of a single component test.
type Outcome int

// Outcomes ...
const (
	Succeeded Outcome = iota
	Failed
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Summary counts component outcomes of a batch. Outcomes is index aligned
// with the suite's components.
type Summary struct {
	Executed  int
	Succeeded int
	Failed    int
	Skipped   int
	Outcomes  []Outcome
}

// Passed reports whether every component succeeded or was skipped.
func (s Summary) Passed() bool {
	return s.Failed == 0
}

func (s *Summary) add(o Outcome) {
	s.Executed++
	switch o {
	case Succeeded:
		s.Succeeded++
	case Failed:
		s.Failed++
	case Skipped:
		s.Skipped++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Config ...
type Config struct {
	AllowEmptyResults bool
	Deadline          time.Duration
	Interval          time.Duration
}

// Orchestrator tests components one after the other. The engine runs at most
// one test job system-wide, so component tests must never overlap.
type Orchestrator struct {
	client rhapsody.Client
	logger log.Logger
	config Config
	// slot holds the engine's single system-wide test slot.
	slot *semaphore.Weighted
	now  func() time.Time
}

// NewOrchestrator ...
func NewOrchestrator(client rhapsody.Client, logger log.Logger, config Config) Orchestrator {
	return Orchestrator{
		client: client,
		logger: logger,
		config: config,
		slot:   semaphore.NewWeighted(1),
		now:    time.Now,
	}
}

// Run tests every component in order and never stops early: a component whose
// test could not be completed is recorded as failed and the batch moves on.
func (o Orchestrator) Run(ctx context.Context, tree models.Tree, components []models.Testable) (models.TestSuite, Summary) {
	scheduler := poller.NewScheduler()
	defer scheduler.Shutdown()

	p := poller.NewPoller(o.client, scheduler, o.logger)
	suite := models.NewTestSuite(uuid.NewString())
	summary := Summary{}

	for _, component := range components {
		testComponent, outcome := o.test(ctx, p, tree, component)
		suite.Add(testComponent)
		summary.add(outcome)
		o.logger.Println()
	}

	o.logger.Printf("%d executed / %d succeeded / %d failed / %d skipped.", summary.Executed, summary.Succeeded, summary.Failed, summary.Skipped)

	return suite, summary
}

func (o Orchestrator) test(ctx context.Context, p poller.Poller, tree models.Tree, component models.Testable) (models.TestComponent, Outcome) {
	start := o.now()

	owner, err := component.Owner(tree)
	if err != nil {
		testComponent := models.NewTestComponent(models.Route{Component: component.Component})
		testComponent.Fail(err.Error())
		testComponent.Duration = o.elapsed(start)
		o.logger.Errorf("Exception executing tests on component %s: %s", component, err)
		return testComponent, Failed
	}

	testComponent := models.NewTestComponent(owner)

	if err := o.acquire(ctx); err != nil {
		testComponent.Fail(fmt.Sprintf("batch aborted: %s", err))
		testComponent.Duration = o.elapsed(start)
		o.logger.Errorf("Skipping test of %s, batch aborted: %s", component, err)
		return testComponent, Failed
	}

	o.logger.Infof("Executing the test for %s", component)
	status, err := p.RunTest(ctx, component.Component, o.config.Deadline, o.config.Interval)
	o.slot.Release(1)

	if err != nil {
		testComponent.Fail(err.Error())
		testComponent.Duration = o.elapsed(start)
		o.logger.Errorf("Exception executing tests on component %s: %s", component, err)
		return testComponent, Failed
	}

	testComponent = interpreter.Interpret(owner, status)
	testComponent.Duration = o.elapsed(start)
	o.logger.Printf("%d test results returned for %s", len(status.Results), component)

	if len(testComponent.Tests) == 0 {
		if o.config.AllowEmptyResults {
			o.logger.Warnf("Empty results are allowed. Pass.")
			return testComponent, Skipped
		}
		o.logger.Errorf("Empty results are not allowed. Fail.")
		return testComponent, Failed
	}

	if testComponent.Failed() {
		o.logger.Errorf("Failed test result for %s", component)
		return testComponent, Failed
	}

	o.logger.Donef("Tests passed for %s", component)
	return testComponent, Succeeded
}

func (o Orchestrator) elapsed(start time.Time) int64 {
	return o.now().Sub(start).Milliseconds()
}

func (o Orchestrator) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.slot.Acquire(ctx, 1)
}
