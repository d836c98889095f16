package services

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegService shells out to ffmpeg/ffprobe. Both binaries must be on
// PATH.
type FFmpegService struct{}

func NewFFmpegService() *FFmpegService {
	return &FFmpegService{}
}

// Run executes ffmpeg with the given arguments and returns captured
// stderr output. ffmpeg writes its diagnostics to stderr, so the output
// is returned on success too for callers that want to log it.
func (s *FFmpegService) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stderr.String(), fmt.Errorf("ffmpeg failed: %w", err)
	}
	return stderr.String(), nil
}

// Probe returns a media file's duration in seconds using ffprobe.
func (s *FFmpegService) Probe(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}
