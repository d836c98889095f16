package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/SGiQ/reelforge/internal/db"
	"github.com/SGiQ/reelforge/internal/models"
	"github.com/SGiQ/reelforge/internal/queue"
	"github.com/SGiQ/reelforge/internal/render"
	"github.com/SGiQ/reelforge/internal/storage"
)

// jobStore is the slice of the database the worker needs: job lookup
// plus the status transitions.
type jobStore interface {
	GetRenderJob(ctx context.Context, id uuid.UUID) (*models.RenderJob, error)
	MarkJobProcessing(ctx context.Context, id uuid.UUID) error
	MarkJobDone(ctx context.Context, id uuid.UUID, outputURL string) error
	MarkJobFailed(ctx context.Context, id uuid.UUID, message string) error
}

// Worker consumes render jobs from the queue and drives each one
// through the pipeline and upload.
type Worker struct {
	db      jobStore
	queue   *queue.Queue
	storage *storage.BlobStore
	engine  *render.Engine

	renderTimeout time.Duration
}

// statusWriteTimeout bounds terminal status writes issued after the
// worker context is already cancelled.
const statusWriteTimeout = 10 * time.Second

func New(database *db.DB, q *queue.Queue, store *storage.BlobStore, engine *render.Engine, renderTimeout time.Duration) *Worker {
	return &Worker{
		db:            database,
		queue:         q,
		storage:       store,
		engine:        engine,
		renderTimeout: renderTimeout,
	}
}

// Start runs concurrency goroutines consuming the render queue until
// ctx is cancelled.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	log.Printf("Worker started with concurrency: %d", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.processQueue(ctx)
	}

	<-ctx.Done()
	log.Println("Worker shutting down...")
}

func (w *Worker) processQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.queue.Dequeue(ctx, 5*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Error dequeuing: %v", err)
				continue
			}
			if job == nil {
				continue
			}

			w.runJob(ctx, job)
		}
	}
}

func (w *Worker) runJob(ctx context.Context, job *queue.Job) {
	log.Printf("Processing render job %s", job.ID)
	if err := w.handleRender(ctx, job); err != nil {
		log.Printf("Render job %s failed: %v", job.ID, err)
		// Detached context so the failure status still lands when ctx
		// was cancelled by shutdown mid-render.
		statusCtx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
		defer cancel()
		if dbErr := w.db.MarkJobFailed(statusCtx, job.ID, err.Error()); dbErr != nil {
			log.Printf("Failed to record job failure: %v", dbErr)
		}
		return
	}
	log.Printf("Render job %s completed", job.ID)
}

// handleRender runs one job end to end: processing transition, pipeline
// run, upload, done transition. The processing transition happens before
// any pipeline work so a crash mid-render leaves an honest status.
func (w *Worker) handleRender(ctx context.Context, qjob *queue.Job) error {
	job, err := w.db.GetRenderJob(ctx, qjob.ID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		log.Printf("Render job %s already %s, skipping", job.ID, job.Status)
		return nil
	}

	if err := w.db.MarkJobProcessing(ctx, job.ID); err != nil {
		return err
	}

	renderCtx, cancel := context.WithTimeout(ctx, w.renderTimeout)
	defer cancel()

	outputPath, err := w.engine.Render(renderCtx, job.Spec(), job.ID.String())
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	pathname := fmt.Sprintf("renders/%s.mp4", job.ID)
	url, err := w.storage.UploadFile(ctx, pathname, outputPath, "video/mp4")
	if err != nil {
		// The encoded file stays in the output dir for manual recovery.
		var uerr *storage.UploadError
		if errors.As(err, &uerr) {
			return fmt.Errorf("upload failed, encoded file kept at %s: %w", outputPath, err)
		}
		return err
	}

	doneCtx, cancelDone := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancelDone()
	if err := w.db.MarkJobDone(doneCtx, job.ID, url); err != nil {
		return err
	}
	if err := os.Remove(outputPath); err != nil {
		log.Printf("Failed to remove local output %s: %v", outputPath, err)
	}
	return nil
}
