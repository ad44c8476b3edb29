package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-rhapsody-test/models"
	"github.com/bitrise-steplib/steps-rhapsody-test/rhapsody"
)

// Polling defaults ...
const (
	DefaultDeadline = 5 * time.Second
	DefaultInterval = 200 * time.Millisecond
)

// ErrPollTimeout is returned when a test run did not complete within the deadline.
var ErrPollTimeout = errors.New("test timeout")

// Poller submits a component test and waits for the run to complete.
type Poller struct {
	client    rhapsody.Client
	scheduler *Scheduler
	logger    log.Logger
}

// NewPoller ...
func NewPoller(client rhapsody.Client, scheduler *Scheduler, logger log.Logger) Poller {
	return Poller{
		client:    client,
		scheduler: scheduler,
		logger:    logger,
	}
}

// RunTest submits a single test run for the component and polls its status
// every interval until it completes, a status check fails or deadline runs out.
// The loop never runs past deadline + interval.
func (p Poller) RunTest(ctx context.Context, component models.Component, deadline, interval time.Duration) (rhapsody.Status, error) {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	location, err := p.client.SubmitTest(ctx, component.ID)
	if err != nil {
		return rhapsody.Status{}, err
	}
	p.logger.Printf("Submitted request to test %s", component.Name)

	check := func(ctx context.Context) (rhapsody.Status, error) {
		return p.client.CheckStatus(ctx, location)
	}

	remaining := deadline
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return rhapsody.Status{}, err
		}

		cycleStart := time.Now()

		future, err := p.scheduler.Schedule(ctx, interval, check)
		if err != nil {
			return rhapsody.Status{}, fmt.Errorf("failed to schedule status check: %w", err)
		}

		p.logger.Debugf("Waiting for tests to complete...")

		wait := interval + interval/2
		if limit := remaining + interval; wait > limit {
			wait = limit
		}

		status, err := future.Wait(wait)
		future.Cancel()

		switch {
		case errors.Is(err, ErrWaitTimeout):
			p.logger.Debugf("Status check for %s is still pending, rescheduling", component.Name)
		case err != nil:
			return rhapsody.Status{}, err
		case status.Completed():
			p.logger.Debugf("Completed testing for %s", component.Name)
			return status, nil
		default:
			p.logger.Debugf("Test run for %s is %s", component.Name, status.State)
		}

		remaining -= time.Since(cycleStart)
	}

	return rhapsody.Status{}, fmt.Errorf("%w: %s did not complete within %s", ErrPollTimeout, component.Name, deadline)
}
