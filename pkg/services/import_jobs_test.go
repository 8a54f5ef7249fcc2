package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubBatchRunner stands in for either import service.
type stubBatchRunner struct {
	report   *BatchReport
	err      error
	logLine  string
	lastFile string
}

func (s *stubBatchRunner) Run(_ context.Context, filePath string, skipLog *SkipLog) (*BatchReport, error) {
	s.lastFile = filePath
	if s.logLine != "" {
		skipLog.Logf("%s", s.logLine)
	}
	return s.report, s.err
}

func waitForJob(t *testing.T, svc ImportJobService, id uuid.UUID) *ImportJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := svc.Get(id)
		require.True(t, ok)
		if job.Status == JobStatusCompleted || job.Status == JobStatusFailed {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func stageFile(t *testing.T, content string) string {
	t.Helper()
	return writeBatchFile(t, "staged.csv", content)
}

func TestImportJobService_CompletesCityJob(t *testing.T) {
	geo := &stubBatchRunner{report: &BatchReport{Inserted: 3, SkippedDuplicate: 1}}
	svc := NewImportJobService(geo, &stubBatchRunner{}, t.TempDir(), zaptest.NewLogger(t))
	defer svc.Shutdown()

	staged := stageFile(t, "irrelevant")
	job, err := svc.Start(ImportKindCities, staged)
	require.NoError(t, err)
	assert.Equal(t, ImportKindCities, job.Kind)

	done := waitForJob(t, svc, job.ID)
	assert.Equal(t, JobStatusCompleted, done.Status)
	assert.Equal(t, "data stored successfully", done.Message)
	require.NotNil(t, done.Report)
	assert.Equal(t, 3, done.Report.Inserted)
	assert.Equal(t, staged, geo.lastFile)
	require.NotNil(t, done.FinishedAt)

	// The staged upload is deleted once the batch has run.
	_, statErr := os.Stat(staged)
	assert.True(t, os.IsNotExist(statErr))
}

func TestImportJobService_CompletesBreweryJob(t *testing.T) {
	breweries := &stubBatchRunner{report: &BatchReport{Inserted: 1}, logLine: "state not found: ZZ"}
	svc := NewImportJobService(&stubBatchRunner{}, breweries, t.TempDir(), zaptest.NewLogger(t))
	defer svc.Shutdown()

	job, err := svc.Start(ImportKindBreweries, stageFile(t, "irrelevant"))
	require.NoError(t, err)

	done := waitForJob(t, svc, job.ID)
	assert.Equal(t, JobStatusCompleted, done.Status)
	assert.Equal(t, "upload process completed successfully", done.Message)

	// The diagnostic file is named per kind and reported back.
	require.NotEmpty(t, done.SkipLog)
	data, err := os.ReadFile(done.SkipLog)
	require.NoError(t, err)
	assert.Contains(t, string(data), "state not found: ZZ")
	assert.Contains(t, done.SkipLog, "breweries_upload.log")
}

func TestImportJobService_FailureRecordsError(t *testing.T) {
	geo := &stubBatchRunner{report: &BatchReport{Inserted: 2}, err: errors.New("connection reset")}
	svc := NewImportJobService(geo, &stubBatchRunner{}, t.TempDir(), zaptest.NewLogger(t))
	defer svc.Shutdown()

	job, err := svc.Start(ImportKindCities, stageFile(t, "irrelevant"))
	require.NoError(t, err)

	done := waitForJob(t, svc, job.ID)
	assert.Equal(t, JobStatusFailed, done.Status)
	assert.Equal(t, "connection reset", done.Error)
	// Rows resolved before the failure stay counted.
	require.NotNil(t, done.Report)
	assert.Equal(t, 2, done.Report.Inserted)
}

func TestImportJobService_UnknownKindRejected(t *testing.T) {
	svc := NewImportJobService(&stubBatchRunner{}, &stubBatchRunner{}, t.TempDir(), zaptest.NewLogger(t))
	defer svc.Shutdown()

	_, err := svc.Start(ImportKind("festivals"), "whatever.csv")
	assert.Error(t, err)
}

func TestImportJobService_GetUnknownJob(t *testing.T) {
	svc := NewImportJobService(&stubBatchRunner{}, &stubBatchRunner{}, t.TempDir(), zaptest.NewLogger(t))
	defer svc.Shutdown()

	_, ok := svc.Get(uuid.New())
	assert.False(t, ok)
}

func TestImportJobService_ListsInSubmissionOrder(t *testing.T) {
	svc := NewImportJobService(
		&stubBatchRunner{report: &BatchReport{}},
		&stubBatchRunner{report: &BatchReport{}},
		t.TempDir(), zaptest.NewLogger(t))
	defer svc.Shutdown()

	first, err := svc.Start(ImportKindCities, stageFile(t, "a"))
	require.NoError(t, err)
	second, err := svc.Start(ImportKindBreweries, stageFile(t, "b"))
	require.NoError(t, err)

	waitForJob(t, svc, first.ID)
	waitForJob(t, svc, second.ID)

	jobs := svc.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, first.ID, jobs[0].ID)
	assert.Equal(t, second.ID, jobs[1].ID)
}
