package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SGiQ/reelforge/internal/models"
)

// listCapturingEncoder snapshots concat lists when it sees them, since
// the scratch directory is gone by the time Render returns.
type listCapturingEncoder struct {
	fakeEncoder
	concatLists []string
}

func (l *listCapturingEncoder) Run(ctx context.Context, args ...string) (string, error) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-i" && strings.HasSuffix(args[i+1], "frames.txt") {
			if data, err := os.ReadFile(args[i+1]); err == nil {
				l.concatLists = append(l.concatLists, string(data))
			}
		}
	}
	return l.fakeEncoder.Run(ctx, args...)
}

func testEngine(enc Encoder, tts SpeechSynthesizer) *Engine {
	var narrator *Narrator
	if tts != nil {
		narrator = NewNarrator(tts, enc)
	}
	return NewEngine(
		NewResolver(time.Second),
		testCompositor(),
		narrator,
		NewAssembler(enc),
		EngineOptions{
			Timing:       testTiming,
			OutputDir:    filepath.Join(os.TempDir(), "reelforge_test_out"),
			SlideWorkers: 2,
			QRDefaultURL: "https://example.com",
		},
	)
}

func threeSlideSpec() *models.RenderSpec {
	return &models.RenderSpec{
		BrandName: "Acme",
		Theme:     "dark",
		Slides: models.SlideList{
			{Text: "One", FontSize: 88, FontFamily: models.DefaultFontFamily},
			{Text: "Two", FontSize: 88, FontFamily: models.DefaultFontFamily},
			{Text: "Three", FontSize: 88, FontFamily: models.DefaultFontFamily},
		},
	}
}

func TestRenderThreeSlidesProducesFourFrames(t *testing.T) {
	enc := &listCapturingEncoder{}
	e := testEngine(enc, nil)

	out, err := e.Render(context.Background(), threeSlideSpec(), "job-1")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	defer os.Remove(out)

	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output file at %s: %v", out, err)
	}

	if len(enc.concatLists) != 1 {
		t.Fatalf("expected one concat list, got %d", len(enc.concatLists))
	}
	list := enc.concatLists[0]
	// Three text slides plus the closing slide, last frame repeated.
	if got := strings.Count(list, "file '"); got != 5 {
		t.Errorf("expected 5 file lines (4 frames + repeat), got %d:\n%s", got, list)
	}
	if got := strings.Count(list, "duration "); got != 4 {
		t.Errorf("expected 4 duration lines, got %d", got)
	}

	// Unnarrated run: 3 * 2.8 + 4.0 closing.
	final := enc.lastCall()
	if !hasArgPair(final, "-t", "12.400") {
		t.Errorf("expected -t 12.400, got: %v", final)
	}
	if !strings.Contains(strings.Join(final, " "), "-an") {
		t.Error("expected no audio for unnarrated, musicless run")
	}
}

func TestRenderWithNarration(t *testing.T) {
	enc := &listCapturingEncoder{}
	tts := &fakeTTS{audio: []byte("mp3")}
	e := testEngine(enc, tts)

	spec := threeSlideSpec()
	voice := "voice-1"
	spec.VoiceID = &voice

	out, err := e.Render(context.Background(), spec, "job-2")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	defer os.Remove(out)

	if tts.calls != 3 {
		t.Errorf("expected 3 narration calls, got %d", tts.calls)
	}

	// Probe returns 3.0 per clip: 3 * (3.0 + 1.7) + 4.0 closing.
	final := enc.lastCall()
	if !hasArgPair(final, "-t", "18.100") {
		t.Errorf("expected -t 18.100, got: %v", final)
	}
	if !hasArgPair(final, "-map", "1:a") {
		t.Error("expected voice master mapped as the audio track")
	}
}

func TestRenderNarrationFailureDegrades(t *testing.T) {
	enc := &listCapturingEncoder{}
	tts := &fakeTTS{err: os.ErrDeadlineExceeded}
	e := testEngine(enc, tts)

	spec := threeSlideSpec()
	voice := "voice-1"
	spec.VoiceID = &voice

	out, err := e.Render(context.Background(), spec, "job-3")
	if err != nil {
		t.Fatalf("expected narration failure to degrade, got %v", err)
	}
	defer os.Remove(out)

	// Every slide fell back to its minimum.
	final := enc.lastCall()
	if !hasArgPair(final, "-t", "12.400") {
		t.Errorf("expected minimum durations after degradation, got: %v", final)
	}
	if !strings.Contains(strings.Join(final, " "), "-an") {
		t.Error("expected no audio track when every narration failed")
	}
}

func TestRenderOutroNarration(t *testing.T) {
	enc := &listCapturingEncoder{}
	tts := &fakeTTS{audio: []byte("mp3")}
	e := testEngine(enc, tts)

	spec := threeSlideSpec()
	voice := "voice-1"
	outro := "Visit us today"
	spec.VoiceID = &voice
	spec.OutroText = &outro

	out, err := e.Render(context.Background(), spec, "job-4")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	defer os.Remove(out)

	if tts.calls != 4 {
		t.Errorf("expected 4 narration calls including outro, got %d", tts.calls)
	}

	// 3 * 4.7 + max(4.0, 3.0 + 1.7) for the narrated closing slide.
	if !hasArgPair(enc.lastCall(), "-t", "18.800") {
		t.Errorf("expected -t 18.800, got: %v", enc.lastCall())
	}
}

func TestRenderRejectsInvalidSpec(t *testing.T) {
	e := testEngine(&fakeEncoder{}, nil)

	spec := threeSlideSpec()
	spec.BrandName = ""
	if _, err := e.Render(context.Background(), spec, "job-5"); err == nil {
		t.Error("expected validation error")
	}
}
