package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SGiQ/reelforge/internal/models"
)

// ErrJobNotFound is returned when a job id does not exist.
var ErrJobNotFound = errors.New("render job not found")

const renderJobColumns = `id, brand_id, script_id, theme, status, output_url, error_message,
	brand_name, slides_snapshot, logo_url_snapshot, watermark_url_snapshot, website_url_snapshot,
	watermark_opacity, logo_position, logo_size_snapshot, qr_code_url_snapshot, qr_text_snapshot,
	music_url_snapshot, music_volume_snapshot, music_start_time_snapshot,
	ai_voice_snapshot, outro_voiceover_snapshot, created_at, completed_at`

// CreateRenderJob inserts a pending job with its spec snapshot.
func (db *DB) CreateRenderJob(ctx context.Context, job *models.RenderJob) error {
	query := `
		INSERT INTO render_jobs (
			id, brand_id, script_id, theme, status,
			brand_name, slides_snapshot, logo_url_snapshot, watermark_url_snapshot, website_url_snapshot,
			watermark_opacity, logo_position, logo_size_snapshot, qr_code_url_snapshot, qr_text_snapshot,
			music_url_snapshot, music_volume_snapshot, music_start_time_snapshot,
			ai_voice_snapshot, outro_voiceover_snapshot
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at`

	err := db.QueryRowContext(ctx, query,
		job.ID, job.BrandID, job.ScriptID, job.Theme, job.Status,
		job.BrandName, job.SlidesSnapshot, job.LogoURLSnapshot, job.WatermarkURLSnapshot, job.WebsiteURLSnapshot,
		job.WatermarkOpacity, job.LogoPosition, job.LogoSizeSnapshot, job.QRCodeURLSnapshot, job.QRTextSnapshot,
		job.MusicURLSnapshot, job.MusicVolumeSnapshot, job.MusicStartTimeSnapshot,
		job.AIVoiceSnapshot, job.OutroVoiceoverSnapshot,
	).Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create render job: %w", err)
	}
	return nil
}

// GetRenderJob loads one job by id.
func (db *DB) GetRenderJob(ctx context.Context, id uuid.UUID) (*models.RenderJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM render_jobs WHERE id = $1`, renderJobColumns)
	job, err := scanRenderJob(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get render job: %w", err)
	}
	return job, nil
}

// ListRenderJobs returns the most recent jobs, newest first.
func (db *DB) ListRenderJobs(ctx context.Context, limit int) ([]*models.RenderJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM render_jobs ORDER BY created_at DESC LIMIT $1`, renderJobColumns)
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list render jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.RenderJob
	for rows.Next() {
		job, err := scanRenderJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan render job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkJobProcessing transitions a job to processing before any pipeline
// work starts, so a crash mid-render leaves an honest status behind.
func (db *DB) MarkJobProcessing(ctx context.Context, id uuid.UUID) error {
	return db.updateStatus(ctx, id,
		`UPDATE render_jobs SET status = 'processing', error_message = NULL WHERE id = $1`)
}

// MarkJobDone records the uploaded output URL and completion time.
func (db *DB) MarkJobDone(ctx context.Context, id uuid.UUID, outputURL string) error {
	return db.updateStatus(ctx, id,
		`UPDATE render_jobs SET status = 'done', output_url = $2, completed_at = now() WHERE id = $1`, outputURL)
}

// MarkJobFailed records the failure message and completion time.
func (db *DB) MarkJobFailed(ctx context.Context, id uuid.UUID, message string) error {
	return db.updateStatus(ctx, id,
		`UPDATE render_jobs SET status = 'failed', error_message = $2, completed_at = now() WHERE id = $1`, message)
}

func (db *DB) updateStatus(ctx context.Context, id uuid.UUID, query string, args ...interface{}) error {
	all := append([]interface{}{id}, args...)
	res, err := db.ExecContext(ctx, query, all...)
	if err != nil {
		return fmt.Errorf("failed to update render job: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrJobNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRenderJob(row rowScanner) (*models.RenderJob, error) {
	var job models.RenderJob
	err := row.Scan(
		&job.ID, &job.BrandID, &job.ScriptID, &job.Theme, &job.Status, &job.OutputURL, &job.ErrorMessage,
		&job.BrandName, &job.SlidesSnapshot, &job.LogoURLSnapshot, &job.WatermarkURLSnapshot, &job.WebsiteURLSnapshot,
		&job.WatermarkOpacity, &job.LogoPosition, &job.LogoSizeSnapshot, &job.QRCodeURLSnapshot, &job.QRTextSnapshot,
		&job.MusicURLSnapshot, &job.MusicVolumeSnapshot, &job.MusicStartTimeSnapshot,
		&job.AIVoiceSnapshot, &job.OutroVoiceoverSnapshot, &job.CreatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
