package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/SGiQ/reelforge/internal/models"
	"github.com/SGiQ/reelforge/internal/queue"
)

type fakeJobStore struct {
	getErr error

	failedID      uuid.UUID
	failedMessage string
	failedCtxErr  error
}

func (s *fakeJobStore) GetRenderJob(ctx context.Context, id uuid.UUID) (*models.RenderJob, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.RenderJob{ID: id, Status: models.JobStatusPending}, nil
}

func (s *fakeJobStore) MarkJobProcessing(ctx context.Context, id uuid.UUID) error { return nil }

func (s *fakeJobStore) MarkJobDone(ctx context.Context, id uuid.UUID, outputURL string) error {
	return nil
}

func (s *fakeJobStore) MarkJobFailed(ctx context.Context, id uuid.UUID, message string) error {
	s.failedID = id
	s.failedMessage = message
	s.failedCtxErr = ctx.Err()
	return nil
}

func TestRunJobRecordsFailureAfterShutdown(t *testing.T) {
	store := &fakeJobStore{getErr: fmt.Errorf("connection reset")}
	w := &Worker{db: store, renderTimeout: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &queue.Job{ID: uuid.New(), CreatedAt: time.Now()}
	w.runJob(ctx, job)

	if store.failedID != job.ID {
		t.Fatalf("expected failure recorded for job %s, got %s", job.ID, store.failedID)
	}
	if store.failedMessage == "" {
		t.Error("expected a failure message")
	}
	if store.failedCtxErr != nil {
		t.Errorf("failure write used a cancelled context: %v", store.failedCtxErr)
	}
}

func TestRunJobSkipsTerminalJobs(t *testing.T) {
	store := &terminalJobStore{status: models.JobStatusDone}
	w := &Worker{db: store, renderTimeout: time.Minute}

	job := &queue.Job{ID: uuid.New(), CreatedAt: time.Now()}
	w.runJob(context.Background(), job)

	if store.failed {
		t.Error("terminal job should not be marked failed")
	}
	if store.processing {
		t.Error("terminal job should not be re-marked processing")
	}
}

type terminalJobStore struct {
	status     models.JobStatus
	processing bool
	failed     bool
}

func (s *terminalJobStore) GetRenderJob(ctx context.Context, id uuid.UUID) (*models.RenderJob, error) {
	return &models.RenderJob{ID: id, Status: s.status}, nil
}

func (s *terminalJobStore) MarkJobProcessing(ctx context.Context, id uuid.UUID) error {
	s.processing = true
	return nil
}

func (s *terminalJobStore) MarkJobDone(ctx context.Context, id uuid.UUID, outputURL string) error {
	return nil
}

func (s *terminalJobStore) MarkJobFailed(ctx context.Context, id uuid.UUID, message string) error {
	s.failed = true
	return nil
}
