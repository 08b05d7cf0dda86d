package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Cascapera/social-automation/internal/models"
)

// WhisperCLI implements Transcriber by invoking a whisper-compatible
// binary that prints segment JSON on stdout:
//
//	[{"start": 0.0, "end": 2.1, "text": "...", "words": [...]}, ...]
type WhisperCLI struct {
	Bin      string
	Model    string
	Language string
}

func NewWhisperCLI(bin, model, language string) *WhisperCLI {
	if model == "" {
		model = "large-v3"
	}
	if language == "" {
		language = "pt"
	}
	return &WhisperCLI{Bin: bin, Model: model, Language: language}
}

func (w *WhisperCLI) Transcribe(ctx context.Context, videoPath string) ([]models.SubtitleSegment, error) {
	cmd := exec.CommandContext(ctx, w.Bin,
		"--model", w.Model,
		"--language", w.Language,
		"--word-timestamps",
		"--output-format", "json",
		videoPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("transcribe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var segments []models.SubtitleSegment
	if err := json.Unmarshal(stdout.Bytes(), &segments); err != nil {
		return nil, fmt.Errorf("transcribe: decode output: %w", err)
	}
	for i := range segments {
		segments[i].Text = strings.TrimSpace(segments[i].Text)
	}
	return segments, nil
}
