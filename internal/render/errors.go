package render

import "fmt"

// NarrationError reports a failed narration attempt for one slide.
// The engine treats it as non-fatal: the slide falls back to its
// minimum display duration.
type NarrationError struct {
	SlideIndex int
	Err        error
}

func (e *NarrationError) Error() string {
	return fmt.Sprintf("narration for slide %d: %v", e.SlideIndex, e.Err)
}

func (e *NarrationError) Unwrap() error { return e.Err }

// EncodingError reports a failed ffmpeg invocation. Stderr carries the
// encoder's diagnostic output so job failure messages stay actionable.
type EncodingError struct {
	Stage  string
	Stderr string
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("encoding (%s): %v: %s", e.Stage, e.Err, e.Stderr)
	}
	return fmt.Sprintf("encoding (%s): %v", e.Stage, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
