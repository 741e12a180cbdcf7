package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcanvas/agentcanvas/pkg/log"
	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/persistence/file"
	"github.com/agentcanvas/agentcanvas/pkg/registry"
	"github.com/agentcanvas/agentcanvas/pkg/runner"
)

type runFixture struct {
	canvasSvc *CanvasService
	runSvc    *RunService
	canvas    *models.Canvas
	lastBody  map[string]any
}

// newRunFixture builds a canvas service and a run service over the same
// persistence, pointed at a stub execution service.
func newRunFixture(t *testing.T, handler http.HandlerFunc) *runFixture {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	eventBus := newTestEventBus()
	logger := log.WithModule("test")

	fixture := &runFixture{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			fixture.lastBody = body
		}

		handler(w, r)
	}))
	t.Cleanup(server.Close)

	fixture.canvasSvc = NewCanvasService(persistence, eventBus, registry.NewRegistry(), logger)
	fixture.runSvc = NewRunService(persistence, eventBus, logger, runner.Config{
		BaseURL:      server.URL,
		PollInterval: time.Millisecond,
	})
	fixture.canvas = createTestCanvas(t, fixture.canvasSvc)

	return fixture
}

// addTriple places a connected input, configured agent and output.
func (f *runFixture) addTriple(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	input, err := f.canvasSvc.AddNode(ctx, f.canvas.ID, models.NodeKindInput, "", models.Position{}, nil)
	require.NoError(t, err)

	agent, err := f.canvasSvc.AddNode(ctx, f.canvas.ID, models.NodeKindAgent, models.AgentKindOpenAI,
		models.Position{}, map[string]any{"apiKey": "sk-test", "model": "gpt-4o"})
	require.NoError(t, err)

	output, err := f.canvasSvc.AddNode(ctx, f.canvas.ID, models.NodeKindOutput, "", models.Position{}, nil)
	require.NoError(t, err)

	_, err = f.canvasSvc.AddConnection(ctx, f.canvas.ID, outRef(input.ID), inRef(agent.ID))
	require.NoError(t, err)
	_, err = f.canvasSvc.AddConnection(ctx, f.canvas.ID, outRef(agent.ID), inRef(output.ID))
	require.NoError(t, err)
}

func respondWith(body map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func TestRunService_ListNetworks(t *testing.T) {
	t.Parallel()

	fixture := newRunFixture(t, respondWith(map[string]any{"result": "ok"}))
	ctx := context.Background()

	candidates, err := fixture.runSvc.ListNetworks(ctx, fixture.canvas.ID)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	fixture.addTriple(t)

	candidates, err = fixture.runSvc.ListNetworks(ctx, fixture.canvas.ID)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Network 1", candidates[0].Name)
	assert.False(t, candidates[0].Partial)
}

func TestRunService_Validate(t *testing.T) {
	t.Parallel()

	fixture := newRunFixture(t, respondWith(map[string]any{"result": "ok"}))
	ctx := context.Background()

	result, err := fixture.runSvc.Validate(ctx, fixture.canvas.ID)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	fixture.addTriple(t)

	result, err = fixture.runSvc.Validate(ctx, fixture.canvas.ID)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestRunService_Execute_NoValidNetworks(t *testing.T) {
	t.Parallel()

	fixture := newRunFixture(t, respondWith(map[string]any{"result": "ok"}))

	_, err := fixture.runSvc.Execute(context.Background(), fixture.canvas.ID, nil, runner.ModeSequential, "hi", false)
	assert.ErrorIs(t, err, ErrNoValidNetworks)
	assert.True(t, IsValidationError(err))
}

func TestRunService_Execute_UnknownOrdinal(t *testing.T) {
	t.Parallel()

	fixture := newRunFixture(t, respondWith(map[string]any{"result": "ok"}))
	fixture.addTriple(t)

	_, err := fixture.runSvc.Execute(context.Background(), fixture.canvas.ID, []int{7}, runner.ModeSequential, "hi", false)
	assert.ErrorIs(t, err, ErrUnknownNetwork)
}

func TestRunService_Execute_InvalidMode(t *testing.T) {
	t.Parallel()

	fixture := newRunFixture(t, respondWith(map[string]any{"result": "ok"}))
	fixture.addTriple(t)

	_, err := fixture.runSvc.Execute(context.Background(), fixture.canvas.ID, nil, runner.Mode("shuffled"), "hi", false)
	assert.ErrorIs(t, err, runner.ErrInvalidMode)
	assert.True(t, IsValidationError(err))
}

func TestRunService_Execute_ImmediateResult(t *testing.T) {
	t.Parallel()

	fixture := newRunFixture(t, respondWith(map[string]any{"result": "the answer"}))
	fixture.addTriple(t)

	result, err := fixture.runSvc.Execute(context.Background(), fixture.canvas.ID, nil, runner.ModeSequential, "hi", false)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
	assert.Equal(t, "the answer", result.Result)
	assert.Empty(t, result.ExecutionID)

	// A single selected network is submitted in the flat form.
	require.NotNil(t, fixture.lastBody)
	assert.Equal(t, "Network 1", fixture.lastBody["name"])
	assert.Equal(t, "hi", fixture.lastBody["input"])
	assert.NotContains(t, fixture.lastBody, "networks")
}

func TestRunService_Execute_SubmitWithoutWait(t *testing.T) {
	t.Parallel()

	fixture := newRunFixture(t, respondWith(map[string]any{"execution_id": "exec-1"}))
	fixture.addTriple(t)

	result, err := fixture.runSvc.Execute(context.Background(), fixture.canvas.ID, []int{1}, runner.ModeSequential, "hi", false)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusRunning, result.Status)
	assert.Equal(t, "exec-1", result.ExecutionID)

	record, err := fixture.runSvc.Execution("exec-1")
	require.NoError(t, err)
	assert.Equal(t, fixture.canvas.ID, record.CanvasID)
	assert.Equal(t, models.ExecutionStatusRunning, record.Status)

	_, err = fixture.runSvc.Execution("ghost")
	assert.ErrorIs(t, err, ErrExecutionNotFound)
}

func TestRunService_Execute_WaitPollsToCompletion(t *testing.T) {
	t.Parallel()

	fixture := newRunFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]any{"execution_id": "exec-2"})

			return
		}

		_ = json.NewEncoder(w).Encode(models.ExecutionStatusReport{
			Status: models.ExecutionStatusCompleted,
			Result: "done",
		})
	})
	fixture.addTriple(t)

	result, err := fixture.runSvc.Execute(context.Background(), fixture.canvas.ID, nil, runner.ModeSequential, "hi", true)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
	assert.Equal(t, "done", result.Result)

	record, err := fixture.runSvc.Execution("exec-2")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, record.Status)
}

func TestRunService_Status_RefreshesRecord(t *testing.T) {
	t.Parallel()

	fixture := newRunFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]any{"execution_id": "exec-3"})

			return
		}

		_ = json.NewEncoder(w).Encode(models.ExecutionStatusReport{Status: models.ExecutionStatusCompleted})
	})
	fixture.addTriple(t)

	_, err := fixture.runSvc.Execute(context.Background(), fixture.canvas.ID, nil, runner.ModeSequential, "hi", false)
	require.NoError(t, err)

	report, err := fixture.runSvc.Status(context.Background(), "exec-3")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, report.Status)

	record, err := fixture.runSvc.Execution("exec-3")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, record.Status)
}

func TestRunService_MultiNetworkPayload(t *testing.T) {
	t.Parallel()

	fixture := newRunFixture(t, respondWith(map[string]any{"result": "ok"}))
	fixture.addTriple(t)
	fixture.addTriple(t)

	_, err := fixture.runSvc.Execute(context.Background(), fixture.canvas.ID, nil, runner.ModeParallel, "hi", false)
	require.NoError(t, err)

	require.NotNil(t, fixture.lastBody)
	networks, ok := fixture.lastBody["networks"].([]any)
	require.True(t, ok)
	assert.Len(t, networks, 2)
	assert.Equal(t, "parallel", fixture.lastBody["execution_mode"])
}

func TestRunService_PruneRecords(t *testing.T) {
	t.Parallel()

	fixture := newRunFixture(t, respondWith(map[string]any{"execution_id": "exec-4"}))
	fixture.addTriple(t)

	_, err := fixture.runSvc.Execute(context.Background(), fixture.canvas.ID, nil, runner.ModeSequential, "hi", false)
	require.NoError(t, err)

	now := time.Now().UTC()

	// Non-terminal records survive no matter how old they are.
	assert.Zero(t, fixture.runSvc.pruneRecords(now.Add(2*time.Hour)))

	fixture.runSvc.updateRecord("exec-4", func(record *ExecutionRecord) {
		record.Status = models.ExecutionStatusCompleted
	})

	// Fresh terminal records stay within the retention window.
	assert.Zero(t, fixture.runSvc.pruneRecords(now))
	assert.Equal(t, 1, fixture.runSvc.pruneRecords(now.Add(2*time.Hour)))
	assert.Empty(t, fixture.runSvc.Executions())
}
