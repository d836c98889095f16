package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/SGiQ/reelforge/internal/models"
)

// EngineOptions configures one Engine instance.
type EngineOptions struct {
	Timing       Timing
	OutputDir    string
	SlideWorkers int
	QRDefaultURL string
}

// Engine runs the full pipeline for one render spec: asset resolution,
// frame composition, narration, timeline reconciliation, and assembly.
type Engine struct {
	resolver   *Resolver
	compositor *Compositor
	narrator   *Narrator
	assembler  *Assembler
	opts       EngineOptions
}

// NewEngine wires the pipeline stages together. narrator may be nil
// when no TTS provider is configured; narration then degrades for every
// slide.
func NewEngine(resolver *Resolver, compositor *Compositor, narrator *Narrator, assembler *Assembler, opts EngineOptions) *Engine {
	if opts.SlideWorkers <= 0 {
		opts.SlideWorkers = 1
	}
	return &Engine{
		resolver:   resolver,
		compositor: compositor,
		narrator:   narrator,
		assembler:  assembler,
		opts:       opts,
	}
}

// Render produces the final MP4 for a spec and returns its path. The
// output lands in OutputDir, outside the per-run scratch directory, so
// it survives scratch cleanup for the caller to upload.
func (e *Engine) Render(ctx context.Context, spec *models.RenderSpec, jobID string) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	scratch, err := os.MkdirTemp("", "reelforge_render_*")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	theme := ThemeFor(spec.Theme)

	var logo, watermark, qr = e.resolveAssets(ctx, spec)

	background := e.compositor.ComposeBackground(theme, watermark, spec.WatermarkOpacity)

	slideCount := len(spec.Slides)
	framePaths := make([]string, slideCount+1)
	clips := make([]*NarrationClip, slideCount+1)
	narrate := spec.NarrationEnabled() && e.narrator != nil
	if spec.NarrationEnabled() && e.narrator == nil {
		log.Printf("[Engine] Narration requested but no TTS provider configured, degrading")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.SlideWorkers)
	for i, slide := range spec.Slides {
		i, slide := i, slide
		g.Go(func() error {
			frame := e.compositor.ComposeSlide(background, slide, theme)
			path, err := SavePNG(frame, scratch, fmt.Sprintf("frame_%04d", i))
			if err != nil {
				return err
			}
			framePaths[i] = path

			if narrate {
				clip, err := e.narrator.Synthesize(gctx, scratch, slide.Text, *spec.VoiceID, i)
				if err != nil {
					var nerr *NarrationError
					if errors.As(err, &nerr) {
						log.Printf("[Engine] %v, slide falls back to minimum duration", nerr)
						return nil
					}
					return err
				}
				clips[i] = clip
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	// Closing brand slide, always present at index N.
	qrData := spec.QRText
	if qrData == "" {
		qrData = spec.WebsiteURL
	}
	if qrData == "" {
		qrData = e.opts.QRDefaultURL
	}
	closing := e.compositor.ComposeClosing(background, logo, qr, spec.BrandName, qrData, spec.LogoPosition, spec.LogoSize, theme)
	closingPath, err := SavePNG(closing, scratch, fmt.Sprintf("frame_%04d", slideCount))
	if err != nil {
		return "", err
	}
	framePaths[slideCount] = closingPath

	if narrate && spec.OutroText != nil && *spec.OutroText != "" {
		clip, err := e.narrator.Synthesize(ctx, scratch, *spec.OutroText, *spec.VoiceID, slideCount)
		if err != nil {
			log.Printf("[Engine] %v, closing slide falls back to minimum duration", err)
		} else {
			clips[slideCount] = clip
		}
	}

	durations := make([]float64, len(clips))
	for i, c := range clips {
		if c != nil {
			durations[i] = c.Duration
		}
	}
	entries := BuildTimeline(framePaths, durations, e.opts.Timing)

	voicePath, err := e.assembler.BuildVoiceMaster(ctx, scratch, entries, clips)
	if err != nil {
		return "", err
	}

	musicPath := ""
	if spec.MusicURL != nil {
		musicPath = e.resolver.Download(ctx, *spec.MusicURL, scratch, "music.mp3")
	}
	musicVolume := spec.MusicVolume
	if musicVolume <= 0 {
		musicVolume = models.DefaultMusicVolume
	}

	outputPath := filepath.Join(e.opts.OutputDir, jobID+".mp4")
	err = e.assembler.Assemble(ctx, scratch, AssembleOptions{
		Entries:     entries,
		VoicePath:   voicePath,
		MusicPath:   musicPath,
		MusicVolume: musicVolume,
		MusicStart:  spec.MusicStartTime,
		OutputPath:  outputPath,
	})
	if err != nil {
		return "", err
	}

	log.Printf("[Engine] Render complete: %s (%.2fs, %d frames)", outputPath, TotalDuration(entries), len(entries))
	return outputPath, nil
}

func (e *Engine) resolveAssets(ctx context.Context, spec *models.RenderSpec) (logo, watermark, qr image.Image) {
	if spec.LogoURL != nil {
		logo = e.resolver.Resolve(ctx, *spec.LogoURL)
	}
	if spec.WatermarkURL != nil {
		watermark = e.resolver.Resolve(ctx, *spec.WatermarkURL)
	}
	if spec.QRCodeURL != nil {
		qr = e.resolver.Resolve(ctx, *spec.QRCodeURL)
	}
	return logo, watermark, qr
}
