package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/otelhelper"
)

const (
	runPath    = "/api/workflows/run-network"
	statusPath = "/api/workflows/execution-status/"

	defaultTimeout      = 30 * time.Second
	defaultPollInterval = time.Second
	defaultMaxPolls     = 60
)

// ErrPollTimeout is returned when the poll cap is exceeded. Distinct from a
// FAILED status: the job may still be running on the execution service.
var ErrPollTimeout = errors.New("execution status polling timed out")

// StatusError is a non-2xx response from the execution service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("execution service returned status %d: %s", e.Code, e.Body)
}

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration
	MaxPolls     int
}

// Client submits run requests and polls execution status.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
	tracer       trace.Tracer
	pollInterval time.Duration
	maxPolls     int
}

// NewClient creates a run client for the execution service at cfg.BaseURL.
func NewClient(logger *slog.Logger, cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.MaxPolls == 0 {
		cfg.MaxPolls = defaultMaxPolls
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger.With("module", "runner"),
		tracer:       otel.Tracer("github.com/agentcanvas/agentcanvas/pkg/runner"),
		pollInterval: cfg.PollInterval,
		maxPolls:     cfg.MaxPolls,
	}
}

// Submission is the interpreted response to a run request: either an
// immediate result or an execution id to poll.
type Submission struct {
	Immediate   bool
	Result      any
	ExecutionID string
}

// Outcome is the final state of a run after any polling.
type Outcome struct {
	Status      models.ExecutionStatus
	ExecutionID string
	Result      any
	Report      *models.ExecutionStatusReport
}

// Submit posts the payload to the run endpoint and interprets the response.
// A body carrying result or results is immediate; a body carrying an
// execution_id enters the polling state; anything else is an error.
func (c *Client) Submit(ctx context.Context, payload any) (*Submission, error) {
	ctx, span := c.tracer.Start(ctx, "runner.Submit")
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run payload: %w", err)
	}

	data, err := c.post(ctx, c.baseURL+runPath, body)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if result, ok := data["result"]; ok {
		return &Submission{Immediate: true, Result: result}, nil
	}

	if results, ok := data["results"]; ok {
		return &Submission{Immediate: true, Result: results}, nil
	}

	if executionID, ok := data["execution_id"].(string); ok && executionID != "" {
		span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, executionID))

		return &Submission{ExecutionID: executionID}, nil
	}

	if message, ok := data["error"].(string); ok && message != "" {
		err := fmt.Errorf("execution service rejected the run: %s", message)
		otelhelper.SetError(span, err)

		return nil, err
	}

	return nil, errors.New("execution service response carried neither a result nor an execution id")
}

// Poll fetches the execution status at a fixed interval until a terminal
// status arrives or the iteration cap is hit. Transient per-tick errors do
// not stop the loop; cancelling the context does, so an abandoned session
// does not leak its poll chain.
func (c *Client) Poll(ctx context.Context, executionID string) (*Outcome, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "runner.Poll",
		attribute.String(otelhelper.ExecutionIDKey, executionID))
	defer span.End()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for tick := 0; tick < c.maxPolls; tick++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		report, err := c.fetchStatus(ctx, executionID)
		if err != nil {
			c.logger.WarnContext(ctx, "Transient status fetch failure, continuing to poll",
				"execution_id", executionID, "tick", tick+1, "error", err)

			continue
		}

		if report.Status.Terminal() {
			span.SetAttributes(attribute.String("status", string(report.Status)))

			return &Outcome{
				Status:      report.Status,
				ExecutionID: executionID,
				Result:      report.Result,
				Report:      report,
			}, nil
		}
	}

	err := fmt.Errorf("%w after %d attempts for execution %s", ErrPollTimeout, c.maxPolls, executionID)
	otelhelper.SetError(span, err)

	return nil, err
}

// Run submits the payload and, when the service answers with an execution
// id, polls it to completion.
func (c *Client) Run(ctx context.Context, payload any) (*Outcome, error) {
	submission, err := c.Submit(ctx, payload)
	if err != nil {
		return nil, err
	}

	if submission.Immediate {
		return &Outcome{Status: models.ExecutionStatusCompleted, Result: submission.Result}, nil
	}

	return c.Poll(ctx, submission.ExecutionID)
}

// Status fetches the current status once, without polling.
func (c *Client) Status(ctx context.Context, executionID string) (*models.ExecutionStatusReport, error) {
	return c.fetchStatus(ctx, executionID)
}

func (c *Client) fetchStatus(ctx context.Context, executionID string) (*models.ExecutionStatusReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statusPath+executionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)

		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var report models.ExecutionStatusReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	return &report, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build run request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("run request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read run response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode run response: %w", err)
	}

	return data, nil
}
