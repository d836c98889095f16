package render

// TimelineEntry pairs one composited frame with the seconds it stays on
// screen in the final video.
type TimelineEntry struct {
	FramePath string
	Duration  float64
}

// Timing carries the per-run duration constants. All values are seconds.
type Timing struct {
	SlideSeconds        float64
	ClosingSlideSeconds float64
	NarrationPadSeconds float64
}

// BuildTimeline reconciles each slide's visual minimum against its
// measured narration length. A slide with narration stays up for the
// narration duration plus the trailing pad, never less than the slide
// minimum. A slide without narration (including every slide of an
// unnarrated run) uses the minimum alone. narrationDurations must be
// indexed like framePaths, with 0 meaning no narration for that slide;
// the last entry is the closing slide and uses the closing minimum.
func BuildTimeline(framePaths []string, narrationDurations []float64, t Timing) []TimelineEntry {
	entries := make([]TimelineEntry, len(framePaths))
	for i, path := range framePaths {
		minSeconds := t.SlideSeconds
		if i == len(framePaths)-1 {
			minSeconds = t.ClosingSlideSeconds
		}
		d := minSeconds
		if i < len(narrationDurations) && narrationDurations[i] > 0 {
			if padded := narrationDurations[i] + t.NarrationPadSeconds; padded > d {
				d = padded
			}
		}
		entries[i] = TimelineEntry{FramePath: path, Duration: d}
	}
	return entries
}

// TotalDuration sums the timeline. This value is authoritative for the
// encoded output length.
func TotalDuration(entries []TimelineEntry) float64 {
	var sum float64
	for _, e := range entries {
		sum += e.Duration
	}
	return sum
}
