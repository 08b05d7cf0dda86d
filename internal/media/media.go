// Package media holds the rendering and transcription collaborators:
// the interfaces the orchestration core dispatches to, and the
// ffmpeg/ffprobe-backed production implementations.
package media

import (
	"context"

	"github.com/Cascapera/social-automation/internal/models"
)

// ProgressFunc receives render progress in percent. Implementations
// report monotonically within one render; the job assembler clamps
// anything that is not.
type ProgressFunc func(pct int)

// RenderSpec is one ordered composition: local file paths in output
// order (intro, cuts, outro), with an optional transition between
// consecutive parts.
type RenderSpec struct {
	Parts              []string
	Transition         string
	TransitionDuration float64
	MakeVertical       bool
}

type Renderer interface {
	// Render produces a single mp4 from the spec and returns its local path.
	Render(ctx context.Context, spec RenderSpec, progress ProgressFunc) (string, error)
	// ExtractClip cuts [startTC, endTC] out of src, optionally converting
	// to vertical 9:16 with a blurred background.
	ExtractClip(ctx context.Context, src, startTC, endTC string, vertical bool) (string, error)
	// BurnSubtitles renders segments+style onto the video and returns the
	// path of the new artifact. The input file is left untouched.
	BurnSubtitles(ctx context.Context, videoPath string, segments []models.SubtitleSegment, style models.SubtitleStyle) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, videoPath string) ([]models.SubtitleSegment, error)
}

type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

// Info is the probe result for a video file.
type Info struct {
	Width    int
	Height   int
	Duration float64
}

// Orientation derives the cut format from probed dimensions, with an
// optional caller hint taking precedence (matches upload behavior: the
// declared format wins over detection).
func Orientation(info Info, hint string) string {
	vertical := info.Height > info.Width
	if info.Width == 0 || info.Height == 0 {
		vertical = hint != models.FormatHorizontal
	}
	if hint == models.FormatVertical || hint == models.FormatHorizontal {
		vertical = hint == models.FormatVertical
	}
	if vertical {
		return models.FormatVertical
	}
	return models.FormatHorizontal
}
