package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSlideUnmarshalString(t *testing.T) {
	var s Slide
	if err := json.Unmarshal([]byte(`"Hello world"`), &s); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if s.Text != "Hello world" {
		t.Errorf("expected text %q, got %q", "Hello world", s.Text)
	}
	if s.FontSize != DefaultFontSize {
		t.Errorf("expected default font size %d, got %d", DefaultFontSize, s.FontSize)
	}
	if s.FontFamily != DefaultFontFamily {
		t.Errorf("expected default font family %q, got %q", DefaultFontFamily, s.FontFamily)
	}
	if s.Transition != DefaultTransition {
		t.Errorf("expected default transition %q, got %q", DefaultTransition, s.Transition)
	}
}

func TestSlideUnmarshalObject(t *testing.T) {
	var s Slide
	raw := `{"text": "Styled", "font_size": 64, "text_color": "#ff0000"}`
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if s.Text != "Styled" {
		t.Errorf("expected text Styled, got %q", s.Text)
	}
	if s.FontSize != 64 {
		t.Errorf("expected font size 64, got %d", s.FontSize)
	}
	if s.TextColor != "#ff0000" {
		t.Errorf("expected text color #ff0000, got %q", s.TextColor)
	}
	if s.FontFamily != DefaultFontFamily {
		t.Errorf("expected default font family to fill in, got %q", s.FontFamily)
	}
}

func TestSlideListMixed(t *testing.T) {
	var list SlideList
	raw := `["Plain slide", {"text": "Styled slide", "font_size": 40}]`
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if len(list) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(list))
	}
	if list[0].Text != "Plain slide" || list[0].FontSize != DefaultFontSize {
		t.Errorf("unexpected first slide: %+v", list[0])
	}
	if list[1].Text != "Styled slide" || list[1].FontSize != 40 {
		t.Errorf("unexpected second slide: %+v", list[1])
	}
}

func TestSlideListValueScan(t *testing.T) {
	list := SlideList{{Text: "a", FontSize: 88}}
	v, err := list.Value()
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var out SlideList
	if err := out.Scan(v); err != nil {
		t.Fatalf("failed to scan: %v", err)
	}
	if len(out) != 1 || out[0].Text != "a" {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func validSpec() *RenderSpec {
	return &RenderSpec{
		BrandName: "Acme",
		Theme:     "dark",
		Slides:    SlideList{{Text: "One"}, {Text: "Two"}},
	}
}

func TestRenderSpecValidate(t *testing.T) {
	if err := validSpec().Validate(); err != nil {
		t.Fatalf("expected valid spec, got %v", err)
	}
}

func TestRenderSpecValidateMissingBrand(t *testing.T) {
	spec := validSpec()
	spec.BrandName = ""
	if err := spec.Validate(); err == nil {
		t.Error("expected error for missing brand name")
	}
}

func TestRenderSpecValidateTooManySlides(t *testing.T) {
	spec := validSpec()
	spec.Slides = nil
	for i := 0; i <= MaxSlides; i++ {
		spec.Slides = append(spec.Slides, Slide{Text: "x"})
	}
	if len(spec.Slides) != 16 {
		t.Fatalf("test setup: expected 16 slides, got %d", len(spec.Slides))
	}
	if err := spec.Validate(); err == nil {
		t.Error("expected error for 16 slides")
	}
}

func TestRenderSpecValidateSlideTooLong(t *testing.T) {
	spec := validSpec()
	spec.Slides = SlideList{{Text: strings.Repeat("a", MaxSlideTextLen+1)}}
	if err := spec.Validate(); err == nil {
		t.Error("expected error for 151-character slide")
	}
}

func TestRenderSpecValidateCountsCharacters(t *testing.T) {
	// 100 characters but 200 bytes; the limit is on characters.
	spec := validSpec()
	spec.Slides = SlideList{{Text: strings.Repeat("é", 100)}}
	if err := spec.Validate(); err != nil {
		t.Errorf("expected 100-character accented slide to pass, got %v", err)
	}

	spec.Slides = SlideList{{Text: strings.Repeat("é", MaxSlideTextLen+1)}}
	if err := spec.Validate(); err == nil {
		t.Error("expected error for 151-character accented slide")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("hello", 10); got != "hello" {
		t.Errorf("short string should pass through, got %q", got)
	}
	if got := TruncateRunes(strings.Repeat("é", 10), 4); got != "éééé" {
		t.Errorf("expected 4 accented characters, got %q", got)
	}
	for _, r := range TruncateRunes(strings.Repeat("é", 10), 4) {
		if r == '�' {
			t.Error("truncation split a multi-byte character")
		}
	}
}

func TestRenderSpecValidateBadLogoPosition(t *testing.T) {
	spec := validSpec()
	spec.LogoPosition = "upper_middle"
	if err := spec.Validate(); err == nil {
		t.Error("expected error for unknown logo position")
	}
}

func TestRenderSpecValidateOpacityRange(t *testing.T) {
	spec := validSpec()
	spec.WatermarkOpacity = 101
	if err := spec.Validate(); err == nil {
		t.Error("expected error for opacity above 100")
	}
}

func TestNarrationEnabled(t *testing.T) {
	spec := validSpec()
	if spec.NarrationEnabled() {
		t.Error("expected narration disabled with nil voice")
	}

	empty := ""
	spec.VoiceID = &empty
	if spec.NarrationEnabled() {
		t.Error("expected narration disabled with empty voice")
	}

	voice := "EXAVITQu4vr4xnSDxMaL"
	spec.VoiceID = &voice
	if !spec.NarrationEnabled() {
		t.Error("expected narration enabled")
	}
}

func TestRenderJobSnapshotRoundTrip(t *testing.T) {
	logo := "https://example.com/logo.png"
	voice := "voice-1"
	spec := validSpec()
	spec.LogoURL = &logo
	spec.WebsiteURL = "https://example.com"
	spec.QRText = "scan me"
	spec.WatermarkOpacity = 42
	spec.LogoPosition = LogoPositionTopRight
	spec.LogoSize = 200
	spec.MusicVolume = 0.25
	spec.MusicStartTime = 12.5
	spec.VoiceID = &voice

	job := NewRenderJob(spec, nil, nil)
	if job.Status != JobStatusPending {
		t.Errorf("expected pending status, got %s", job.Status)
	}

	got := job.Spec()
	if got.BrandName != spec.BrandName ||
		got.Theme != spec.Theme ||
		len(got.Slides) != len(spec.Slides) ||
		got.WebsiteURL != spec.WebsiteURL ||
		got.QRText != spec.QRText ||
		got.WatermarkOpacity != spec.WatermarkOpacity ||
		got.LogoPosition != spec.LogoPosition ||
		got.LogoSize != spec.LogoSize ||
		got.MusicVolume != spec.MusicVolume ||
		got.MusicStartTime != spec.MusicStartTime {
		t.Errorf("snapshot round trip mismatch: %+v vs %+v", got, spec)
	}
	if got.LogoURL == nil || *got.LogoURL != logo {
		t.Errorf("expected logo URL to survive, got %v", got.LogoURL)
	}
	if got.VoiceID == nil || *got.VoiceID != voice {
		t.Errorf("expected voice to survive, got %v", got.VoiceID)
	}
}

func TestJobStatusTerminal(t *testing.T) {
	if JobStatusPending.Terminal() || JobStatusProcessing.Terminal() {
		t.Error("pending/processing must not be terminal")
	}
	if !JobStatusDone.Terminal() || !JobStatusFailed.Terminal() {
		t.Error("done/failed must be terminal")
	}
}

func TestRenderCreateRequestDefaults(t *testing.T) {
	req := RenderCreateRequest{
		BrandName: "Acme",
		Slides:    []Slide{{Text: "Hi"}},
	}
	spec := req.Spec("https://fallback.example")

	if spec.Theme != "dark" {
		t.Errorf("expected default theme dark, got %q", spec.Theme)
	}
	if spec.WebsiteURL != "https://fallback.example" {
		t.Errorf("expected fallback website, got %q", spec.WebsiteURL)
	}
	if spec.WatermarkOpacity != DefaultWatermarkOpacity {
		t.Errorf("expected default opacity %d, got %d", DefaultWatermarkOpacity, spec.WatermarkOpacity)
	}
	if spec.LogoPosition != DefaultLogoPosition {
		t.Errorf("expected default logo position, got %q", spec.LogoPosition)
	}
	if spec.MusicVolume != DefaultMusicVolume {
		t.Errorf("expected default music volume, got %f", spec.MusicVolume)
	}
	if spec.Slides[0].FontSize != DefaultFontSize {
		t.Errorf("expected slide defaults applied, got %+v", spec.Slides[0])
	}
}
