package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/agentcanvas/agentcanvas/pkg/eventbus"
	"github.com/agentcanvas/agentcanvas/pkg/events"
	"github.com/agentcanvas/agentcanvas/pkg/graph"
	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/network"
	"github.com/agentcanvas/agentcanvas/pkg/persistence"
	"github.com/agentcanvas/agentcanvas/pkg/runner"
)

const (
	// Terminal execution records older than this are pruned by the janitor.
	recordRetention = time.Hour

	janitorSchedule = "@every 10m"

	fallbackMaxPolls = 60
)

// ExecutionRecord tracks one submitted run. Records live in memory only; the
// execution service remains the source of truth for status.
type ExecutionRecord struct {
	ID           string                 `json:"id"`
	CanvasID     string                 `json:"canvas_id"`
	Status       models.ExecutionStatus `json:"status"`
	Mode         runner.Mode            `json:"mode"`
	NetworkCount int                    `json:"network_count"`
	Result       any                    `json:"result,omitempty"`
	Error        string                 `json:"error,omitempty"`
	StartedAt    time.Time              `json:"started_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// RunResult is the interpreted outcome of an Execute call.
type RunResult struct {
	ExecutionID  string                 `json:"execution_id,omitempty"`
	Status       models.ExecutionStatus `json:"status"`
	Result       any                    `json:"result,omitempty"`
	NetworkCount int                    `json:"network_count"`
	Mode         runner.Mode            `json:"mode"`
}

// RunService detects runnable networks on a canvas and drives executions
// against the external execution service.
type RunService struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	client      *runner.Client
	logger      *slog.Logger
	maxPolls    int

	mu      sync.Mutex
	records map[string]*ExecutionRecord

	cron *cron.Cron
}

func NewRunService(
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	runnerCfg runner.Config,
) *RunService {
	maxPolls := runnerCfg.MaxPolls
	if maxPolls == 0 {
		maxPolls = fallbackMaxPolls
	}

	return &RunService{
		persistence: persistence,
		eventBus:    eventBus,
		client:      runner.NewClient(logger, runnerCfg),
		logger:      logger.With("module", "run_service"),
		maxPolls:    maxPolls,
		records:     make(map[string]*ExecutionRecord),
		cron:        cron.New(),
	}
}

// Start schedules the record janitor. Safe to skip for short-lived callers.
func (s *RunService) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(janitorSchedule, func() {
		pruned := s.pruneRecords(time.Now().UTC())
		if pruned > 0 {
			s.logger.InfoContext(ctx, "Pruned finished execution records", "count", pruned)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule execution record janitor: %w", err)
	}

	s.cron.Start()

	return nil
}

// Close stops the janitor and waits for a running sweep to finish.
func (s *RunService) Close() {
	<-s.cron.Stop().Done()
}

// ListNetworks returns the runnable networks detected on the canvas.
func (s *RunService) ListNetworks(ctx context.Context, canvasID string) ([]network.Candidate, error) {
	canvas, err := s.persistence.CanvasByID(ctx, canvasID)
	if err != nil {
		return nil, err
	}

	return network.Detect(graph.FromCanvas(canvas)), nil
}

// Validate runs network validation over the whole canvas.
func (s *RunService) Validate(ctx context.Context, canvasID string) (*network.Result, error) {
	canvas, err := s.persistence.CanvasByID(ctx, canvasID)
	if err != nil {
		return nil, err
	}

	result := network.Validate(canvas.Nodes, canvas.Connections)

	return &result, nil
}

// Execute runs the selected networks. Ordinals pick networks by their
// detection order; an empty selection runs every detected network. With wait
// false the call returns after submission and the caller polls the status
// endpoint; with wait true it blocks through the poll loop.
func (s *RunService) Execute(
	ctx context.Context,
	canvasID string,
	ordinals []int,
	mode runner.Mode,
	input string,
	wait bool,
) (*RunResult, error) {
	selected, err := s.selectNetworks(ctx, canvasID, ordinals)
	if err != nil {
		return nil, err
	}

	payload, err := runner.BuildPayload(selected, mode, input)
	if err != nil {
		return nil, &ServiceError{Op: "Execute", Err: err}
	}

	startedAt := time.Now().UTC()

	submission, err := s.client.Submit(ctx, payload)
	if err != nil {
		s.publishRun(ctx, canvasID, events.RunFailed{
			BaseEvent: s.baseRunEvent(events.RunFailedEvent, canvasID),
			Error:     err.Error(),
		})

		return nil, &ServiceError{Op: "Execute", Err: err}
	}

	s.publishRun(ctx, canvasID, events.RunStarted{
		BaseEvent:     s.baseRunEvent(events.RunStartedEvent, canvasID),
		ExecutionID:   submission.ExecutionID,
		NetworkCount:  len(selected),
		ExecutionMode: string(mode),
	})

	if submission.Immediate {
		s.publishRun(ctx, canvasID, events.RunCompleted{
			BaseEvent: s.baseRunEvent(events.RunCompletedEvent, canvasID),
			Duration:  time.Since(startedAt),
		})

		return &RunResult{
			Status:       models.ExecutionStatusCompleted,
			Result:       submission.Result,
			NetworkCount: len(selected),
			Mode:         mode,
		}, nil
	}

	s.trackRecord(&ExecutionRecord{
		ID:           submission.ExecutionID,
		CanvasID:     canvasID,
		Status:       models.ExecutionStatusRunning,
		Mode:         mode,
		NetworkCount: len(selected),
		StartedAt:    startedAt,
		UpdatedAt:    startedAt,
	})

	if !wait {
		return &RunResult{
			ExecutionID:  submission.ExecutionID,
			Status:       models.ExecutionStatusRunning,
			NetworkCount: len(selected),
			Mode:         mode,
		}, nil
	}

	return s.waitForOutcome(ctx, canvasID, submission.ExecutionID, mode, len(selected), startedAt)
}

// Status proxies one status fetch for the editor's poll loop, refreshing the
// local record when one exists. Unknown ids are still proxied: records are
// in-memory and do not survive a restart.
func (s *RunService) Status(ctx context.Context, executionID string) (*models.ExecutionStatusReport, error) {
	report, err := s.client.Status(ctx, executionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if record, ok := s.records[executionID]; ok {
		record.Status = report.Status
		record.Result = report.Result
		record.Error = report.Error
		record.UpdatedAt = time.Now().UTC()
	}
	s.mu.Unlock()

	return report, nil
}

// Execution returns the tracked record for one execution.
func (s *RunService) Execution(executionID string) (*ExecutionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[executionID]
	if !ok {
		return nil, &ServiceError{Op: "Execution", Message: executionID, Err: ErrExecutionNotFound}
	}

	copied := *record

	return &copied, nil
}

// Executions lists every tracked record.
func (s *RunService) Executions() []*ExecutionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*ExecutionRecord, 0, len(s.records))
	for _, record := range s.records {
		copied := *record
		records = append(records, &copied)
	}

	return records
}

func (s *RunService) selectNetworks(ctx context.Context, canvasID string, ordinals []int) ([]runner.Selected, error) {
	canvas, err := s.persistence.CanvasByID(ctx, canvasID)
	if err != nil {
		return nil, err
	}

	candidates := network.Detect(graph.FromCanvas(canvas))
	if len(candidates) == 0 {
		return nil, &ServiceError{Op: "Execute", Err: ErrNoValidNetworks}
	}

	if len(ordinals) == 0 {
		selected := make([]runner.Selected, 0, len(candidates))
		for _, candidate := range candidates {
			selected = append(selected, runner.Selected{
				ID:      fmt.Sprintf("network_%d", candidate.Ordinal),
				Network: candidate.Export(),
			})
		}

		return selected, nil
	}

	byOrdinal := make(map[int]network.Candidate, len(candidates))
	for _, candidate := range candidates {
		byOrdinal[candidate.Ordinal] = candidate
	}

	selected := make([]runner.Selected, 0, len(ordinals))

	for _, ordinal := range ordinals {
		candidate, ok := byOrdinal[ordinal]
		if !ok {
			return nil, &ServiceError{Op: "Execute", Message: fmt.Sprintf("ordinal %d", ordinal), Err: ErrUnknownNetwork}
		}

		selected = append(selected, runner.Selected{
			ID:      fmt.Sprintf("network_%d", candidate.Ordinal),
			Network: candidate.Export(),
		})
	}

	return selected, nil
}

func (s *RunService) waitForOutcome(
	ctx context.Context,
	canvasID, executionID string,
	mode runner.Mode,
	networkCount int,
	startedAt time.Time,
) (*RunResult, error) {
	outcome, err := s.client.Poll(ctx, executionID)
	if err != nil {
		if errors.Is(err, runner.ErrPollTimeout) {
			// The job may still be running on the execution service, so the
			// record stays RUNNING rather than turning FAILED.
			s.updateRecord(executionID, func(record *ExecutionRecord) {
				record.Error = err.Error()
			})

			s.publishRun(ctx, canvasID, events.RunTimedOut{
				BaseEvent:   s.baseRunEvent(events.RunTimedOutEvent, canvasID),
				ExecutionID: executionID,
				Attempts:    s.maxPolls,
			})
		}

		return nil, &ServiceError{Op: "Execute", Err: err}
	}

	s.updateRecord(executionID, func(record *ExecutionRecord) {
		record.Status = outcome.Status
		record.Result = outcome.Result

		if outcome.Report != nil {
			record.Error = outcome.Report.Error
		}
	})

	switch outcome.Status {
	case models.ExecutionStatusCompleted:
		s.publishRun(ctx, canvasID, events.RunCompleted{
			BaseEvent:   s.baseRunEvent(events.RunCompletedEvent, canvasID),
			ExecutionID: executionID,
			Duration:    time.Since(startedAt),
		})
	case models.ExecutionStatusFailed:
		message := "execution failed"
		if outcome.Report != nil && outcome.Report.Error != "" {
			message = outcome.Report.Error
		}

		s.publishRun(ctx, canvasID, events.RunFailed{
			BaseEvent:   s.baseRunEvent(events.RunFailedEvent, canvasID),
			ExecutionID: executionID,
			Error:       message,
		})
	}

	return &RunResult{
		ExecutionID:  executionID,
		Status:       outcome.Status,
		Result:       outcome.Result,
		NetworkCount: networkCount,
		Mode:         mode,
	}, nil
}

func (s *RunService) trackRecord(record *ExecutionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = record
}

func (s *RunService) updateRecord(executionID string, fn func(record *ExecutionRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[executionID]; ok {
		fn(record)
		record.UpdatedAt = time.Now().UTC()
	}
}

// pruneRecords drops terminal records older than the retention window and
// returns how many were removed.
func (s *RunService) pruneRecords(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0

	for id, record := range s.records {
		if record.Status.Terminal() && now.Sub(record.UpdatedAt) > recordRetention {
			delete(s.records, id)
			pruned++
		}
	}

	return pruned
}

func (s *RunService) baseRunEvent(eventType events.EventType, canvasID string) events.BaseEvent {
	return events.BaseEvent{
		ID:        s.eventBus.GenerateID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		CanvasID:  canvasID,
	}
}

func (s *RunService) publishRun(ctx context.Context, canvasID string, event eventbus.Event) {
	if err := s.eventBus.Publish(ctx, canvasID, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish run event",
			"event_type", event.GetType(), "canvas_id", canvasID, "error", err)
	}
}
