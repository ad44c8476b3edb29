package rhapsody

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultRequestTimeout = 10 * time.Second
	componentsRetryMax    = 3
)

//go:generate mockery --name Client --output ./mocks

// Client talks to the engine's REST API.
type Client interface {
	// SubmitTest starts a test run and returns the status location to poll.
	SubmitTest(ctx context.Context, componentID string) (string, error)
	CheckStatus(ctx context.Context, location string) (Status, error)
	// Components returns the raw component tree document.
	Components(ctx context.Context) ([]byte, error)
}

// Options ...
type Options struct {
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

type client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	logger      log.Logger
}

// NewClient ...
func NewClient(baseURL string, opts Options, logger log.Logger) (Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid engine url (%s): %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid engine url (%s): scheme should be http or https", baseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	httpClient := &http.Client{
		Transport: newAuthTransport(opts.Username, opts.Password, opts.InsecureSkipVerify),
		Timeout:   timeout,
	}

	retryClient := retryhttp.NewClient(logger)
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = componentsRetryMax

	return &client{
		baseURL:     u,
		httpClient:  httpClient,
		retryClient: retryClient,
		logger:      logger,
	}, nil
}

func (c *client) SubmitTest(ctx context.Context, componentID string) (string, error) {
	testURL := c.baseURL.JoinPath("api", "test", componentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, testURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create test request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit test request for component %s: %w", componentID, err)
	}
	defer drain(resp.Body)

	c.logger.Debugf("Submitted request to test component %s: %s", componentID, resp.Status)

	if resp.StatusCode != http.StatusAccepted {
		return "", &SubmissionError{ComponentID: componentID, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("test request for component %s accepted without a status location", componentID)
	}

	statusURL, err := c.baseURL.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid status location (%s): %w", location, err)
	}

	return statusURL.String(), nil
}

func (c *client) CheckStatus(ctx context.Context, location string) (Status, error) {
	c.logger.Debugf("Checking test execution status at %s", location)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return Status{}, &PollTransportError{Location: location, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{}, &PollTransportError{Location: location, Err: err}
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Status{}, statusError(location, resp)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return Status{}, &PollTransportError{Location: location, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode status: %w", err)}
	}

	return status, nil
}

func (c *client) Components(ctx context.Context) ([]byte, error) {
	componentsURL := c.baseURL.JoinPath("api", "components")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, componentsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create components request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.retryClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch components: %w", err)
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected components response status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read components: %w", err)
	}

	return body, nil
}

// statusError prefers the first message of a JSON error body over the status line.
func statusError(location string, resp *http.Response) error {
	pollErr := &PollTransportError{Location: location, StatusCode: resp.StatusCode}

	if !strings.Contains(resp.Header.Get("Content-Type"), "json") {
		pollErr.Message = fmt.Sprintf("unexpected status response: %s", resp.Status)
		return pollErr
	}

	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && len(body.Error.Messages) > 0 {
		pollErr.Message = "Error: " + body.Error.Messages[0]
		return pollErr
	}

	pollErr.Message = fmt.Sprintf("unexpected status response: %s", resp.Status)
	return pollErr
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
