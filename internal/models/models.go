package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Enums
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether a status allows no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusFailed
}

// Logo anchor positions on the closing slide. "center" places the logo
// in the vertical flow above the brand name; the five anchors pin it to
// a frame corner/edge instead.
const (
	LogoPositionCenter       = "center"
	LogoPositionTopLeft      = "top_left"
	LogoPositionTopRight     = "top_right"
	LogoPositionBottomLeft   = "bottom_left"
	LogoPositionBottomRight  = "bottom_right"
	LogoPositionBottomCenter = "bottom_center"
)

// Spec limits and slide defaults
const (
	MaxSlides        = 15
	MaxSlideTextLen  = 150
	MaxTTSPreviewLen = 500

	DefaultFontSize   = 88
	DefaultFontFamily = "DejaVuSans-Bold.ttf"
	DefaultTransition = "fade"

	DefaultWatermarkOpacity = 18
	DefaultLogoPosition     = LogoPositionBottomCenter
	DefaultLogoSize         = 120
	DefaultMusicVolume      = 0.15
)

// ValidationError marks a spec rejected before a job is created.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Slide is one unit of content rendered as exactly one frame.
type Slide struct {
	Text       string `json:"text"`
	FontSize   int    `json:"font_size"`
	TextColor  string `json:"text_color"` // empty = theme default
	FontFamily string `json:"font_family"`
	Transition string `json:"transition"`
}

// UnmarshalJSON accepts either a bare string or a structured slide, so
// callers can mix `"Hook line"` and `{"text": ...}` in one request. Bare
// strings are normalized to the structured form with defaults.
func (s *Slide) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Slide{Text: text}
		s.applyDefaults()
		return nil
	}

	type slideAlias Slide // avoid recursing into this method
	var alias slideAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("slide must be a string or an object: %w", err)
	}
	*s = Slide(alias)
	s.applyDefaults()
	return nil
}

func (s *Slide) applyDefaults() {
	if s.FontSize <= 0 {
		s.FontSize = DefaultFontSize
	}
	if s.FontFamily == "" {
		s.FontFamily = DefaultFontFamily
	}
	if s.Transition == "" {
		s.Transition = DefaultTransition
	}
}

// SlideList maps to the slides_snapshot JSONB column.
type SlideList []Slide

func (l SlideList) Value() (driver.Value, error) {
	if l == nil {
		l = SlideList{}
	}
	return json.Marshal(l)
}

func (l *SlideList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("slides_snapshot: expected []byte, got %T", value)
	}
	return json.Unmarshal(bytes, l)
}

// RenderSpec is the immutable input snapshot that fully determines one
// output video. It is captured at job-creation time; later edits to the
// owning brand or script never affect an in-flight or completed render.
type RenderSpec struct {
	BrandName string    `json:"brand_name"`
	Theme     string    `json:"theme"`
	Slides    SlideList `json:"slides"`

	LogoURL      *string `json:"logo_url,omitempty"`
	WatermarkURL *string `json:"watermark_url,omitempty"`
	WebsiteURL   string  `json:"website_url"`
	QRCodeURL    *string `json:"qr_code_url,omitempty"`
	QRText       string  `json:"qr_text"`
	MusicURL     *string `json:"music_url,omitempty"`

	WatermarkOpacity int     `json:"watermark_opacity"` // 0..100
	LogoPosition     string  `json:"logo_position"`
	LogoSize         int     `json:"logo_size"`
	MusicVolume      float64 `json:"music_volume"`
	MusicStartTime   float64 `json:"music_start_time"`

	VoiceID   *string `json:"ai_voice_id,omitempty"` // nil = narration disabled
	OutroText *string `json:"outro_voiceover,omitempty"`
}

// Validate rejects specs that must never become jobs. Asset references
// are not checked here; unreachable assets degrade at render time.
func (s *RenderSpec) Validate() error {
	if s.BrandName == "" {
		return validationErrorf("brand_name is required")
	}
	if len(s.Slides) == 0 {
		return validationErrorf("at least one slide is required")
	}
	if len(s.Slides) > MaxSlides {
		return validationErrorf("maximum limit of %d slides exceeded", MaxSlides)
	}
	for i, slide := range s.Slides {
		if slide.Text == "" {
			return validationErrorf("slide %d has no text", i)
		}
		if utf8.RuneCountInString(slide.Text) > MaxSlideTextLen {
			return validationErrorf("slide %d exceeds the %d character limit", i, MaxSlideTextLen)
		}
	}
	switch s.LogoPosition {
	case "", LogoPositionCenter, LogoPositionTopLeft, LogoPositionTopRight,
		LogoPositionBottomLeft, LogoPositionBottomRight, LogoPositionBottomCenter:
	default:
		return validationErrorf("invalid logo_position %q", s.LogoPosition)
	}
	if s.WatermarkOpacity < 0 || s.WatermarkOpacity > 100 {
		return validationErrorf("watermark_opacity must be between 0 and 100")
	}
	return nil
}

// TruncateRunes cuts s to at most max characters without splitting a
// multi-byte rune.
func TruncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// NarrationEnabled reports whether any slide should get synthesized speech.
func (s *RenderSpec) NarrationEnabled() bool {
	return s.VoiceID != nil && *s.VoiceID != ""
}

// RenderJob is the persisted job row. The snapshot columns mirror the
// spec so a render keeps working even if the owning brand is deleted.
type RenderJob struct {
	ID           uuid.UUID `json:"id"`
	BrandID      *string   `json:"brand_id,omitempty"`
	ScriptID     *string   `json:"script_id,omitempty"`
	Theme        string    `json:"theme"`
	Status       JobStatus `json:"status"`
	OutputURL    *string   `json:"output_url,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`

	BrandName              *string   `json:"brand_name,omitempty"`
	SlidesSnapshot         SlideList `json:"slides_snapshot,omitempty"`
	LogoURLSnapshot        *string   `json:"logo_url_snapshot,omitempty"`
	WatermarkURLSnapshot   *string   `json:"watermark_url_snapshot,omitempty"`
	WebsiteURLSnapshot     *string   `json:"website_url_snapshot,omitempty"`
	WatermarkOpacity       int       `json:"watermark_opacity"`
	LogoPosition           string    `json:"logo_position"`
	LogoSizeSnapshot       int       `json:"logo_size_snapshot"`
	QRCodeURLSnapshot      *string   `json:"qr_code_url_snapshot,omitempty"`
	QRTextSnapshot         *string   `json:"qr_text_snapshot,omitempty"`
	MusicURLSnapshot       *string   `json:"music_url_snapshot,omitempty"`
	MusicVolumeSnapshot    float64   `json:"music_volume_snapshot"`
	MusicStartTimeSnapshot float64   `json:"music_start_time_snapshot"`
	AIVoiceSnapshot        *string   `json:"ai_voice_snapshot,omitempty"`
	OutroVoiceoverSnapshot *string   `json:"outro_voiceover_snapshot,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Spec reconstructs the immutable render spec from the snapshot columns.
func (j *RenderJob) Spec() *RenderSpec {
	brandName := "Brand"
	if j.BrandName != nil && *j.BrandName != "" {
		brandName = *j.BrandName
	}
	websiteURL := ""
	if j.WebsiteURLSnapshot != nil {
		websiteURL = *j.WebsiteURLSnapshot
	}
	qrText := ""
	if j.QRTextSnapshot != nil {
		qrText = *j.QRTextSnapshot
	}
	return &RenderSpec{
		BrandName:        brandName,
		Theme:            j.Theme,
		Slides:           j.SlidesSnapshot,
		LogoURL:          j.LogoURLSnapshot,
		WatermarkURL:     j.WatermarkURLSnapshot,
		WebsiteURL:       websiteURL,
		QRCodeURL:        j.QRCodeURLSnapshot,
		QRText:           qrText,
		MusicURL:         j.MusicURLSnapshot,
		WatermarkOpacity: j.WatermarkOpacity,
		LogoPosition:     j.LogoPosition,
		LogoSize:         j.LogoSizeSnapshot,
		MusicVolume:      j.MusicVolumeSnapshot,
		MusicStartTime:   j.MusicStartTimeSnapshot,
		VoiceID:          j.AIVoiceSnapshot,
		OutroText:        j.OutroVoiceoverSnapshot,
	}
}

// NewRenderJob builds a pending job row from a validated spec.
func NewRenderJob(spec *RenderSpec, brandID, scriptID *string) *RenderJob {
	return &RenderJob{
		ID:                     uuid.New(),
		BrandID:                brandID,
		ScriptID:               scriptID,
		Theme:                  spec.Theme,
		Status:                 JobStatusPending,
		BrandName:              &spec.BrandName,
		SlidesSnapshot:         spec.Slides,
		LogoURLSnapshot:        spec.LogoURL,
		WatermarkURLSnapshot:   spec.WatermarkURL,
		WebsiteURLSnapshot:     &spec.WebsiteURL,
		WatermarkOpacity:       spec.WatermarkOpacity,
		LogoPosition:           spec.LogoPosition,
		LogoSizeSnapshot:       spec.LogoSize,
		QRCodeURLSnapshot:      spec.QRCodeURL,
		QRTextSnapshot:         &spec.QRText,
		MusicURLSnapshot:       spec.MusicURL,
		MusicVolumeSnapshot:    spec.MusicVolume,
		MusicStartTimeSnapshot: spec.MusicStartTime,
		AIVoiceSnapshot:        spec.VoiceID,
		OutroVoiceoverSnapshot: spec.OutroText,
	}
}

// DTOs for API requests/responses

type RenderCreateRequest struct {
	BrandName        string   `json:"brand_name"`
	Slides           []Slide  `json:"slides"` // strings or objects, see Slide.UnmarshalJSON
	Theme            string   `json:"theme"`
	ScriptTitle      string   `json:"script_title"`
	LogoURL          *string  `json:"logo_url,omitempty"`
	WatermarkURL     *string  `json:"watermark_url,omitempty"`
	WebsiteURL       *string  `json:"website_url,omitempty"`
	BrandID          *string  `json:"brand_id,omitempty"`
	ScriptID         *string  `json:"script_id,omitempty"`
	WatermarkOpacity *int     `json:"watermark_opacity,omitempty"`
	LogoPosition     string   `json:"logo_position"`
	QRCodeURL        *string  `json:"qr_code_url,omitempty"`
	QRText           string   `json:"qr_text"`
	MusicURL         *string  `json:"music_url,omitempty"`
	MusicVolume      *float64 `json:"music_volume,omitempty"`
	MusicStartTime   float64  `json:"music_start_time"`
	AIVoiceID        *string  `json:"ai_voice_id,omitempty"`
	LogoSize         *int     `json:"logo_size,omitempty"`
	OutroVoiceover   *string  `json:"outro_voiceover,omitempty"`
}

// Spec normalizes the request into a render spec ready for validation,
// applying the documented defaults for omitted optionals.
func (r *RenderCreateRequest) Spec(defaultWebsiteURL string) *RenderSpec {
	theme := r.Theme
	if theme == "" {
		theme = "dark"
	}
	websiteURL := defaultWebsiteURL
	if r.WebsiteURL != nil && *r.WebsiteURL != "" {
		websiteURL = *r.WebsiteURL
	}
	opacity := DefaultWatermarkOpacity
	if r.WatermarkOpacity != nil {
		opacity = *r.WatermarkOpacity
	}
	position := r.LogoPosition
	if position == "" {
		position = DefaultLogoPosition
	}
	logoSize := DefaultLogoSize
	if r.LogoSize != nil {
		logoSize = *r.LogoSize
	}
	volume := DefaultMusicVolume
	if r.MusicVolume != nil {
		volume = *r.MusicVolume
	}

	slides := make(SlideList, len(r.Slides))
	for i, s := range r.Slides {
		s.applyDefaults()
		slides[i] = s
	}

	return &RenderSpec{
		BrandName:        r.BrandName,
		Theme:            theme,
		Slides:           slides,
		LogoURL:          r.LogoURL,
		WatermarkURL:     r.WatermarkURL,
		WebsiteURL:       websiteURL,
		QRCodeURL:        r.QRCodeURL,
		QRText:           r.QRText,
		MusicURL:         r.MusicURL,
		WatermarkOpacity: opacity,
		LogoPosition:     position,
		LogoSize:         logoSize,
		MusicVolume:      volume,
		MusicStartTime:   r.MusicStartTime,
		VoiceID:          r.AIVoiceID,
		OutroText:        r.OutroVoiceover,
	}
}

type RenderCreateResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status JobStatus `json:"status"`
}

type RenderStatusResponse struct {
	ID           uuid.UUID  `json:"id"`
	Status       JobStatus  `json:"status"`
	OutputURL    *string    `json:"output_url,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	Theme        string     `json:"theme"`
	BrandName    *string    `json:"brand_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// StatusResponse flattens a job row into the externally observable shape.
func (j *RenderJob) StatusResponse() RenderStatusResponse {
	return RenderStatusResponse{
		ID:           j.ID,
		Status:       j.Status,
		OutputURL:    j.OutputURL,
		ErrorMessage: j.ErrorMessage,
		Theme:        j.Theme,
		BrandName:    j.BrandName,
		CreatedAt:    j.CreatedAt,
		CompletedAt:  j.CompletedAt,
	}
}

type GenerateScriptRequest struct {
	Prompt     string `json:"prompt"`
	WebsiteURL string `json:"website_url,omitempty"`
	SlideCount int    `json:"slide_count,omitempty"` // default 8, capped at MaxSlides
}

type GenerateScriptResponse struct {
	Slides []string `json:"slides"`
}

type TTSPreviewRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id,omitempty"`
}
