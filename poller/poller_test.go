package poller

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-rhapsody-test/models"
	"github.com/bitrise-steplib/steps-rhapsody-test/rhapsody"
	"github.com/bitrise-steplib/steps-rhapsody-test/rhapsody/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testLocation = "http://engine/status/42"
	testInterval = 10 * time.Millisecond
)

var testComponent = models.Component{ID: "route-1", Name: "Route 1", Folder: "A/B"}

func Test_GivenRunningThenCompleted_WhenRunTest_ThenReturnsCompletedStatus(t *testing.T) {
	// Given
	poller, client, scheduler := createSutAndMocks(t)
	defer scheduler.Shutdown()

	completed := rhapsody.Status{State: "COMPLETED", Results: []rhapsody.SubResult{{TotalCount: 1, Path: "/r/f1"}}}
	client.On("SubmitTest", mock.Anything, "route-1").Return(testLocation, nil).Once()
	client.On("CheckStatus", mock.Anything, testLocation).Return(rhapsody.Status{State: "RUNNING"}, nil).Once()
	client.On("CheckStatus", mock.Anything, testLocation).Return(completed, nil).Once()

	// When
	status, err := poller.RunTest(context.Background(), testComponent, time.Second, testInterval)

	// Then
	require.NoError(t, err)
	assert.Equal(t, completed, status)
	client.AssertNumberOfCalls(t, "CheckStatus", 2)
}

func Test_GivenRejectedSubmission_WhenRunTest_ThenNoStatusCheckIsIssued(t *testing.T) {
	// Given
	poller, client, scheduler := createSutAndMocks(t)
	defer scheduler.Shutdown()

	submissionErr := &rhapsody.SubmissionError{ComponentID: "route-1", StatusCode: http.StatusNotFound, Status: "404 Not Found"}
	client.On("SubmitTest", mock.Anything, "route-1").Return("", submissionErr).Once()

	// When
	_, err := poller.RunTest(context.Background(), testComponent, time.Second, testInterval)

	// Then
	var target *rhapsody.SubmissionError
	require.True(t, errors.As(err, &target))
	client.AssertNotCalled(t, "CheckStatus", mock.Anything, mock.Anything)
}

func Test_GivenAlwaysRunning_WhenRunTest_ThenTimesOutWithinDeadlinePlusInterval(t *testing.T) {
	// Given
	poller, client, scheduler := createSutAndMocks(t)
	defer scheduler.Shutdown()

	deadline := 100 * time.Millisecond
	client.On("SubmitTest", mock.Anything, "route-1").Return(testLocation, nil).Once()
	client.On("CheckStatus", mock.Anything, testLocation).Return(rhapsody.Status{State: "RUNNING"}, nil)

	// When
	start := time.Now()
	_, err := poller.RunTest(context.Background(), testComponent, deadline, testInterval)
	elapsed := time.Since(start)

	// Then
	require.ErrorIs(t, err, ErrPollTimeout)
	assert.Less(t, elapsed, deadline+testInterval+50*time.Millisecond)
}

func Test_GivenHangingStatusCheck_WhenRunTest_ThenCancelsEachCheckAndTimesOut(t *testing.T) {
	// Given
	poller, client, scheduler := createSutAndMocks(t)
	defer scheduler.Shutdown()

	deadline := 60 * time.Millisecond
	client.On("SubmitTest", mock.Anything, "route-1").Return(testLocation, nil).Once()
	client.On("CheckStatus", mock.Anything, testLocation).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return(rhapsody.Status{}, context.Canceled)

	// When
	start := time.Now()
	_, err := poller.RunTest(context.Background(), testComponent, deadline, testInterval)
	elapsed := time.Since(start)

	// Then
	require.ErrorIs(t, err, ErrPollTimeout)
	assert.Less(t, elapsed, deadline+testInterval+50*time.Millisecond)
}

func Test_GivenStatusCheckFails_WhenRunTest_ThenAbortsImmediately(t *testing.T) {
	// Given
	poller, client, scheduler := createSutAndMocks(t)
	defer scheduler.Shutdown()

	checkErr := &rhapsody.PollTransportError{Location: testLocation, StatusCode: http.StatusBadRequest, Message: "Error: route is locked"}
	client.On("SubmitTest", mock.Anything, "route-1").Return(testLocation, nil).Once()
	client.On("CheckStatus", mock.Anything, testLocation).Return(rhapsody.Status{}, checkErr).Once()

	// When
	_, err := poller.RunTest(context.Background(), testComponent, time.Second, testInterval)

	// Then
	require.Equal(t, checkErr, err)
	client.AssertNumberOfCalls(t, "CheckStatus", 1)
}

func Test_GivenCancelledContext_WhenRunTest_ThenStopsPolling(t *testing.T) {
	// Given
	poller, client, scheduler := createSutAndMocks(t)
	defer scheduler.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	client.On("SubmitTest", mock.Anything, "route-1").Return(testLocation, nil).Once()
	client.On("CheckStatus", mock.Anything, testLocation).
		Run(func(mock.Arguments) { cancel() }).
		Return(rhapsody.Status{State: "RUNNING"}, nil).Once()

	// When
	_, err := poller.RunTest(ctx, testComponent, time.Second, testInterval)

	// Then
	require.ErrorIs(t, err, context.Canceled)
}

func createSutAndMocks(t *testing.T) (Poller, *mocks.Client, *Scheduler) {
	client := mocks.NewClient(t)
	scheduler := NewScheduler()
	return NewPoller(client, scheduler, log.NewLogger()), client, scheduler
}
