package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brewtrail/brewtrail-engine/pkg/services/workqueue"
)

// ImportKind names a batch target. The work queue serializes batches by
// kind, so two uploads against the same entity family never interleave their
// check-then-insert sequences.
type ImportKind string

const (
	ImportKindCities    ImportKind = "cities"
	ImportKindBreweries ImportKind = "breweries"
)

// JobStatus is the lifecycle of one import job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ImportJob is the caller-visible state of one batch run. Per-row skip
// detail lives in the skip log, not here; the report only carries counts.
type ImportJob struct {
	ID         uuid.UUID    `json:"id"`
	Kind       ImportKind   `json:"kind"`
	Status     JobStatus    `json:"status"`
	Message    string       `json:"message,omitempty"`
	Error      string       `json:"error,omitempty"`
	Report     *BatchReport `json:"report,omitempty"`
	SkipLog    string       `json:"skip_log,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// ImportJobService accepts uploaded batch files and runs them in the
// background. File sizes are unbounded and row-by-row storage round-trips
// dominate latency, so batches never run inside a request.
type ImportJobService interface {
	// Start enqueues a batch over the staged file and returns immediately.
	Start(kind ImportKind, filePath string) (*ImportJob, error)
	// Get returns a snapshot of the job, or false when unknown.
	Get(id uuid.UUID) (*ImportJob, bool)
	// List returns snapshots of all jobs in submission order.
	List() []*ImportJob
	// Shutdown stops accepting jobs and waits for running batches.
	Shutdown()
}

type importJobService struct {
	mu    sync.Mutex
	jobs  map[uuid.UUID]*ImportJob
	order []uuid.UUID

	queue      *workqueue.Queue
	geo        GeoImportService
	breweries  BreweryImportService
	skipLogDir string
	logger     *zap.Logger
}

// NewImportJobService creates the batch driver over the two import services.
func NewImportJobService(
	geo GeoImportService,
	breweries BreweryImportService,
	skipLogDir string,
	logger *zap.Logger,
) ImportJobService {
	return &importJobService{
		jobs:       make(map[uuid.UUID]*ImportJob),
		queue:      workqueue.New(logger),
		geo:        geo,
		breweries:  breweries,
		skipLogDir: skipLogDir,
		logger:     logger,
	}
}

// skipLogName returns the per-kind diagnostic file batches append to.
func skipLogName(kind ImportKind) string {
	if kind == ImportKindBreweries {
		return "breweries_upload.log"
	}
	return "cities_not_created.log"
}

func successMessage(kind ImportKind) string {
	if kind == ImportKindBreweries {
		return "upload process completed successfully"
	}
	return "data stored successfully"
}

func (s *importJobService) Start(kind ImportKind, filePath string) (*ImportJob, error) {
	if kind != ImportKindCities && kind != ImportKindBreweries {
		return nil, fmt.Errorf("unknown import kind %q", kind)
	}

	job := &ImportJob{
		ID:        uuid.New(),
		Kind:      kind,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	s.mu.Unlock()

	s.queue.Enqueue(&importTask{svc: s, jobID: job.ID, kind: kind, filePath: filePath})

	s.logger.Info("import job accepted",
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("file", filePath))

	return snapshotJob(job), nil
}

func (s *importJobService) Get(id uuid.UUID) (*ImportJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return snapshotJob(job), true
}

func (s *importJobService) List() []*ImportJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]*ImportJob, 0, len(s.order))
	for _, id := range s.order {
		jobs = append(jobs, snapshotJob(s.jobs[id]))
	}
	return jobs
}

func (s *importJobService) Shutdown() {
	s.queue.Cancel()
	s.queue.Wait()
}

// snapshotJob copies a job so callers never share the mutable record.
func snapshotJob(job *ImportJob) *ImportJob {
	copied := *job
	if job.Report != nil {
		report := *job.Report
		copied.Report = &report
	}
	return &copied
}

func (s *importJobService) markRunning(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = JobStatusRunning
	}
}

func (s *importJobService) markCompleted(id uuid.UUID, report *BatchReport, message, skipLogPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		now := time.Now()
		job.Status = JobStatusCompleted
		job.Message = message
		job.Report = report
		job.SkipLog = skipLogPath
		job.FinishedAt = &now
	}
}

func (s *importJobService) markFailed(id uuid.UUID, report *BatchReport, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		now := time.Now()
		job.Status = JobStatusFailed
		job.Message = "failed to process data"
		job.Error = err.Error()
		job.Report = report
		job.FinishedAt = &now
	}
}

// importTask adapts one batch run to the work queue.
type importTask struct {
	svc      *importJobService
	jobID    uuid.UUID
	kind     ImportKind
	filePath string
}

func (t *importTask) ID() string   { return t.jobID.String() }
func (t *importTask) Name() string { return string(t.kind) + " import" }
func (t *importTask) Kind() string { return string(t.kind) }

func (t *importTask) Execute(ctx context.Context) error {
	t.svc.markRunning(t.jobID)

	skipLog, err := OpenSkipLog(t.svc.skipLogDir, skipLogName(t.kind))
	if err != nil {
		t.svc.markFailed(t.jobID, nil, err)
		return err
	}

	var report *BatchReport
	switch t.kind {
	case ImportKindBreweries:
		report, err = t.svc.breweries.Run(ctx, t.filePath, skipLog)
	default:
		report, err = t.svc.geo.Run(ctx, t.filePath, skipLog)
	}

	// The skip log is released on every exit path, storage failures
	// included, so diagnostic lines for the rows that did resolve survive.
	if closeErr := skipLog.Close(); closeErr != nil {
		t.svc.logger.Warn("failed to close skip log", zap.Error(closeErr))
	}

	if removeErr := os.Remove(t.filePath); removeErr != nil {
		t.svc.logger.Warn("failed to remove staged batch file",
			zap.String("file", t.filePath), zap.Error(removeErr))
	}

	if err != nil {
		t.svc.markFailed(t.jobID, report, err)
		return err
	}

	t.svc.markCompleted(t.jobID, report, successMessage(t.kind), skipLog.Path())
	return nil
}
