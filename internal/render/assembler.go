package render

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Encoder runs the external encoder. Run returns the encoder's stderr
// output so failures carry the diagnostic text.
type Encoder interface {
	Run(ctx context.Context, args ...string) (string, error)
	Probe(ctx context.Context, path string) (float64, error)
}

// Output encoding parameters.
const (
	outputFrameRate = 30
	videoCodecArgs  = "libx264"
	videoPreset     = "fast"
	videoCRF        = "23"
	pixelFormat     = "yuv420p"

	audioSampleRate = 44100
)

// AssembleOptions describes one assembly run. VoicePath and MusicPath
// are optional; empty means that track is absent.
type AssembleOptions struct {
	Entries     []TimelineEntry
	VoicePath   string
	MusicPath   string
	MusicVolume float64
	MusicStart  float64
	OutputPath  string
}

// Assembler turns composited frames and audio tracks into the final
// MP4 via the external encoder.
type Assembler struct {
	encoder Encoder
}

func NewAssembler(encoder Encoder) *Assembler {
	return &Assembler{encoder: encoder}
}

// BuildVoiceMaster concatenates per-slide narration into one track that
// stays sample-aligned with the video timeline. Each slide contributes a
// segment exactly as long as its timeline entry: narrated slides pad
// their clip with trailing silence, unnarrated slides contribute pure
// silence.
func (a *Assembler) BuildVoiceMaster(ctx context.Context, scratchDir string, entries []TimelineEntry, clips []*NarrationClip) (string, error) {
	any := false
	for _, c := range clips {
		if c != nil {
			any = true
			break
		}
	}
	if !any {
		return "", nil
	}

	var list strings.Builder
	for i, entry := range entries {
		seg := filepath.Join(scratchDir, fmt.Sprintf("voice_seg_%04d.wav", i))
		var args []string
		if i < len(clips) && clips[i] != nil {
			args = []string{
				"-y", "-i", clips[i].Path,
				"-af", fmt.Sprintf("apad=whole_dur=%.3f", entry.Duration),
				"-ar", fmt.Sprintf("%d", audioSampleRate), "-ac", "2",
				seg,
			}
		} else {
			args = []string{
				"-y", "-f", "lavfi",
				"-t", fmt.Sprintf("%.3f", entry.Duration),
				"-i", fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d", audioSampleRate),
				seg,
			}
		}
		stderr, err := a.encoder.Run(ctx, args...)
		if err != nil {
			return "", &EncodingError{Stage: "voice segment", Stderr: stderr, Err: err}
		}
		fmt.Fprintf(&list, "file '%s'\n", seg)
	}

	listPath := filepath.Join(scratchDir, "voice_list.txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write voice concat list: %w", err)
	}

	master := filepath.Join(scratchDir, "voice_master.wav")
	stderr, err := a.encoder.Run(ctx, "-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", master)
	if err != nil {
		return "", &EncodingError{Stage: "voice master", Stderr: stderr, Err: err}
	}
	return master, nil
}

// Assemble encodes the final video. The timeline sum is authoritative
// for output length and is enforced on the encoder command line.
func (a *Assembler) Assemble(ctx context.Context, scratchDir string, opts AssembleOptions) error {
	if len(opts.Entries) == 0 {
		return fmt.Errorf("no timeline entries to assemble")
	}

	listPath, err := writeConcatList(scratchDir, opts.Entries)
	if err != nil {
		return err
	}
	total := TotalDuration(opts.Entries)

	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath}
	if opts.VoicePath != "" {
		args = append(args, "-i", opts.VoicePath)
	}
	if opts.MusicPath != "" {
		args = append(args, "-stream_loop", "-1")
		if opts.MusicStart > 0 {
			args = append(args, "-ss", fmt.Sprintf("%.3f", opts.MusicStart))
		}
		args = append(args, "-i", opts.MusicPath)
	}

	args = append(args, "-map", "0:v")
	switch {
	case opts.VoicePath != "" && opts.MusicPath != "":
		filter := fmt.Sprintf("[2:a]volume=%.2f[music];[1:a][music]amix=inputs=2:duration=first:dropout_transition=3[aout]", opts.MusicVolume)
		args = append(args, "-filter_complex", filter, "-map", "[aout]", "-c:a", "aac")
	case opts.VoicePath != "":
		args = append(args, "-map", "1:a", "-c:a", "aac")
	case opts.MusicPath != "":
		filter := fmt.Sprintf("[1:a]volume=%.2f[aout]", opts.MusicVolume)
		args = append(args, "-filter_complex", filter, "-map", "[aout]", "-c:a", "aac")
	default:
		args = append(args, "-an")
	}

	args = append(args,
		"-c:v", videoCodecArgs,
		"-preset", videoPreset,
		"-crf", videoCRF,
		"-pix_fmt", pixelFormat,
		"-r", fmt.Sprintf("%d", outputFrameRate),
		"-s", fmt.Sprintf("%dx%d", FrameWidth, FrameHeight),
		"-t", fmt.Sprintf("%.3f", total),
		opts.OutputPath,
	)

	log.Printf("[Assembler] Encoding %d frames, %.2fs total", len(opts.Entries), total)
	stderr, err := a.encoder.Run(ctx, args...)
	if err != nil {
		return &EncodingError{Stage: "final encode", Stderr: stderr, Err: err}
	}
	return nil
}

// writeConcatList writes the concat demuxer list. Each frame gets a
// duration line; the last frame is repeated without one so the demuxer
// honors the final duration.
func writeConcatList(scratchDir string, entries []TimelineEntry) (string, error) {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "file '%s'\n", e.FramePath)
		fmt.Fprintf(&b, "duration %.3f\n", e.Duration)
	}
	fmt.Fprintf(&b, "file '%s'\n", entries[len(entries)-1].FramePath)

	path := filepath.Join(scratchDir, "frames.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}
	return path, nil
}
