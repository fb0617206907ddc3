package service

import (
	"context"
	"encoding/json"
	"sync"

	"cnpjsaneador/cmd/internal/contract"
	"cnpjsaneador/cmd/internal/domain/entity"
	"cnpjsaneador/cmd/internal/domain/events"
	"cnpjsaneador/cmd/internal/pipeline"
	"cnpjsaneador/cmd/internal/utils"
	"cnpjsaneador/cmd/internal/utils/apierror"
	"cnpjsaneador/cmd/internal/utils/uid"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type RunRepository interface {
	Save(run *entity.Run) error
	FindByID(id int64) (*entity.Run, error)
	FindAll() ([]*entity.Run, error)
}

// runState is the live snapshot of a run plus its ordered event feed.
// Finished runs stay in the map so their feed remains pollable for the
// lifetime of the process; history survives restarts in SQLite.
type runState struct {
	run    entity.Run
	events []events.RunEvent
}

// RunService starts enrichment runs and tracks their observable state.
// A single run may be in flight at a time: the cache file is owned
// exclusively by the running pipeline and the start action stays
// rejected until the run reaches a terminal state.
type RunService struct {
	RunRepo     RunRepository
	DatasetRepo DatasetRepository
	Pipeline    *pipeline.Pipeline
	Validate    *validator.Validate
	Logger      *log.Logger

	mu       sync.Mutex
	inFlight bool
	active   map[int64]*runState
}

func NewRunService(runRepo RunRepository, datasetRepo DatasetRepository, pl *pipeline.Pipeline, validate *validator.Validate, logger *log.Logger) *RunService {
	return &RunService{
		RunRepo:     runRepo,
		DatasetRepo: datasetRepo,
		Pipeline:    pl,
		Validate:    validate,
		Logger:      logger,
		active:      make(map[int64]*runState),
	}
}

// StartRun validates the request, registers the run and launches the
// pipeline on a background goroutine. The returned snapshot reflects
// the run before any row was processed.
func (s *RunService) StartRun(req *contract.StartRunRequest) (*contract.RunResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)

	if len(req.Fields) == 0 {
		return nil, apierror.EmptySelectionError
	}
	if err := s.Validate.Struct(req); err != nil {
		if verr := apierror.FromValidationError(err); verr != nil {
			return nil, verr
		}
		s.Logger.Errorf("unexpected validation failure: %v", err)
		return nil, apierror.InternalServerError
	}

	dataset, err := s.DatasetRepo.FindByID(req.DatasetID)
	if err != nil {
		s.Logger.Errorf("failed to find dataset %s: %v", req.DatasetID, err)
		return nil, apierror.InternalServerError
	}
	if dataset == nil {
		return nil, apierror.DatasetNotFoundError
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, apierror.RunInFlightError
	}
	s.inFlight = true
	s.mu.Unlock()

	fieldsJSON, _ := json.Marshal(req.Fields)
	run := entity.Run{
		ID:        uid.Generate(),
		DatasetID: dataset.ID,
		Fields:    string(fieldsJSON),
		Status:    entity.RunRunning,
		StartedAt: utils.NowUTC(),
	}
	if err := s.RunRepo.Save(&run); err != nil {
		s.clearInFlight()
		s.Logger.Errorf("failed to persist run %d: %v", run.ID, err)
		return nil, apierror.InternalServerError
	}

	s.mu.Lock()
	s.active[run.ID] = &runState{run: run}
	s.mu.Unlock()

	s.Logger.Infof("run %d started on dataset %s with fields %v", run.ID, dataset.ID, req.Fields)
	go s.execute(run.ID, dataset.StoredPath, req.Fields)

	return toRunResponse(&run), nil
}

func (s *RunService) execute(runID int64, datasetPath string, fields []string) {
	tracker := &runTracker{svc: s, runID: runID}
	summary := s.Pipeline.Run(context.Background(), datasetPath, fields, tracker)

	s.mu.Lock()
	state := s.active[runID]
	state.run.RowsTotal = summary.RowsTotal
	state.run.RowsUpdated = summary.RowsUpdated
	state.run.RowsUnresolved = summary.RowsUnresolved
	final := state.run
	s.inFlight = false
	s.mu.Unlock()

	if err := s.RunRepo.Save(&final); err != nil {
		s.Logger.Errorf("failed to persist finished run %d: %v", runID, err)
	}
}

func (s *RunService) clearInFlight() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// GetRun returns the live snapshot when the run is tracked in memory,
// falling back to the persisted record.
func (s *RunService) GetRun(id int64) (*contract.RunResponse, apierror.ErrorResponse) {
	s.mu.Lock()
	state, ok := s.active[id]
	if ok {
		snapshot := state.run
		s.mu.Unlock()
		return toRunResponse(&snapshot), nil
	}
	s.mu.Unlock()

	run, err := s.RunRepo.FindByID(id)
	if err != nil {
		s.Logger.Errorf("failed to find run %d: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if run == nil {
		return nil, apierror.RunNotFoundError
	}
	return toRunResponse(run), nil
}

func (s *RunService) ListRuns() ([]*contract.RunResponse, apierror.ErrorResponse) {
	runs, err := s.RunRepo.FindAll()
	if err != nil {
		s.Logger.Errorf("failed to list runs: %v", err)
		return nil, apierror.InternalServerError
	}

	responses := make([]*contract.RunResponse, len(runs))
	s.mu.Lock()
	for i, run := range runs {
		if state, ok := s.active[run.ID]; ok {
			snapshot := state.run
			responses[i] = toRunResponse(&snapshot)
			continue
		}
		responses[i] = toRunResponse(run)
	}
	s.mu.Unlock()
	return responses, nil
}

// RunEvents returns the ordered event feed of a run. For runs finished
// in a previous process only the terminal signal can be reconstructed.
func (s *RunService) RunEvents(id int64) ([]*contract.RunEventResponse, apierror.ErrorResponse) {
	s.mu.Lock()
	state, ok := s.active[id]
	if ok {
		feed := make([]*contract.RunEventResponse, len(state.events))
		for i, evt := range state.events {
			feed[i] = &contract.RunEventResponse{Type: evt.GetType(), Data: evt}
		}
		s.mu.Unlock()
		return feed, nil
	}
	s.mu.Unlock()

	run, err := s.RunRepo.FindByID(id)
	if err != nil {
		s.Logger.Errorf("failed to find run %d: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if run == nil {
		return nil, apierror.RunNotFoundError
	}

	switch run.Status {
	case entity.RunCompleted:
		completed := &events.RunCompleted{OutputPath: run.OutputPath}
		return []*contract.RunEventResponse{{Type: completed.GetType(), Data: completed}}, nil
	case entity.RunFailed:
		failed := &events.RunFailed{Message: run.Error}
		return []*contract.RunEventResponse{{Type: failed.GetType(), Data: failed}}, nil
	default:
		return []*contract.RunEventResponse{}, nil
	}
}

// runTracker adapts one run's service-side state to pipeline.Reporter.
type runTracker struct {
	svc   *RunService
	runID int64
}

func (t *runTracker) Progress(percentage int) {
	t.svc.record(t.runID, &events.RunProgress{Percentage: percentage}, func(run *entity.Run) {
		run.Progress = percentage
	})
}

func (t *runTracker) Completed(outputPath string) {
	t.svc.record(t.runID, &events.RunCompleted{OutputPath: outputPath}, func(run *entity.Run) {
		run.Status = entity.RunCompleted
		run.OutputPath = outputPath
		run.FinishedAt = utils.NowUTC()
	})
}

func (t *runTracker) Failed(message string) {
	t.svc.record(t.runID, &events.RunFailed{Message: message}, func(run *entity.Run) {
		run.Status = entity.RunFailed
		run.Error = message
		run.FinishedAt = utils.NowUTC()
	})
}

func (s *RunService) record(runID int64, evt events.RunEvent, apply func(run *entity.Run)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.active[runID]
	if !ok {
		s.Logger.Warnf("received event for unknown run %d", runID)
		return
	}
	apply(&state.run)
	state.events = append(state.events, evt)
}

func toRunResponse(run *entity.Run) *contract.RunResponse {
	var fields []string
	_ = json.Unmarshal([]byte(run.Fields), &fields)

	resp := &contract.RunResponse{
		ID:             run.ID,
		DatasetID:      run.DatasetID,
		Status:         string(run.Status),
		Progress:       run.Progress,
		Fields:         fields,
		OutputPath:     run.OutputPath,
		Error:          run.Error,
		RowsTotal:      run.RowsTotal,
		RowsUpdated:    run.RowsUpdated,
		RowsUnresolved: run.RowsUnresolved,
		StartedAt:      utils.FormatEpoch(run.StartedAt),
	}
	if run.FinishedAt != 0 {
		resp.FinishedAt = utils.FormatEpoch(run.FinishedAt)
	}
	return resp
}
