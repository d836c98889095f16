package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SGiQ/reelforge/internal/db"
	"github.com/SGiQ/reelforge/internal/models"
	"github.com/SGiQ/reelforge/internal/queue"
	"github.com/SGiQ/reelforge/internal/services"
)

type Handler struct {
	db      *db.DB
	queue   *queue.Queue
	openai  *services.OpenAIService
	tts     services.TTSService
	website string
}

// NewHandler wires the API handlers. openai and tts may be nil; the
// corresponding endpoints then report the feature as unconfigured.
func NewHandler(database *db.DB, q *queue.Queue, openaiSvc *services.OpenAIService, ttsSvc services.TTSService, defaultWebsiteURL string) *Handler {
	return &Handler{
		db:      database,
		queue:   q,
		openai:  openaiSvc,
		tts:     ttsSvc,
		website: defaultWebsiteURL,
	}
}

// CreateRender handles POST /v1/render/create
func (h *Handler) CreateRender(w http.ResponseWriter, r *http.Request) {
	var req models.RenderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	spec := req.Spec(h.website)
	if err := spec.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := models.NewRenderJob(spec, req.BrandID, req.ScriptID)
	if err := h.db.CreateRenderJob(r.Context(), job); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create render job")
		return
	}

	if err := h.queue.Enqueue(r.Context(), job.ID); err != nil {
		// The row exists but nothing will pick it up; fail it honestly.
		_ = h.db.MarkJobFailed(r.Context(), job.ID, "failed to enqueue job")
		respondError(w, http.StatusInternalServerError, "Failed to enqueue render job")
		return
	}

	respondJSON(w, http.StatusCreated, models.RenderCreateResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

// GetRenderStatus handles GET /v1/render/{id}/status
func (h *Handler) GetRenderStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobFromURL(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, job.StatusResponse())
}

// GetRenderDownload handles GET /v1/render/{id}/download
func (h *Handler) GetRenderDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobFromURL(w, r)
	if !ok {
		return
	}
	if job.Status != models.JobStatusDone || job.OutputURL == nil {
		respondError(w, http.StatusNotFound, "Video not ready")
		return
	}
	http.Redirect(w, r, *job.OutputURL, http.StatusTemporaryRedirect)
}

// ListRenderHistory handles GET /v1/render/history
func (h *Handler) ListRenderHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	jobs, err := h.db.ListRenderJobs(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list render jobs")
		return
	}

	out := make([]models.RenderStatusResponse, len(jobs))
	for i, j := range jobs {
		out[i] = j.StatusResponse()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": out})
}

// GenerateScript handles POST /v1/scripts/generate
func (h *Handler) GenerateScript(w http.ResponseWriter, r *http.Request) {
	if h.openai == nil {
		respondError(w, http.StatusServiceUnavailable, "Script generation is not configured")
		return
	}

	var req models.GenerateScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		respondError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	slides, err := h.openai.GenerateScript(r.Context(), req.Prompt, req.WebsiteURL, req.SlideCount)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Script generation failed")
		return
	}
	respondJSON(w, http.StatusOK, models.GenerateScriptResponse{Slides: slides})
}

// PreviewTTS handles POST /v1/tts/preview
func (h *Handler) PreviewTTS(w http.ResponseWriter, r *http.Request) {
	if h.tts == nil {
		respondError(w, http.StatusServiceUnavailable, "TTS is not configured")
		return
	}

	var req models.TTSPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondError(w, http.StatusBadRequest, "Text is required")
		return
	}
	text = models.TruncateRunes(text, models.MaxTTSPreviewLen)

	audio, err := h.tts.GenerateSpeech(r.Context(), text, req.VoiceID)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

func (h *Handler) jobFromURL(w http.ResponseWriter, r *http.Request) (*models.RenderJob, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID")
		return nil, false
	}
	job, err := h.db.GetRenderJob(r.Context(), id)
	if errors.Is(err, db.ErrJobNotFound) {
		respondError(w, http.StatusNotFound, "Render job not found")
		return nil, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load render job")
		return nil, false
	}
	return job, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
