package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Cascapera/social-automation/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// FFmpeg implements Renderer by shelling out to ffmpeg/ffprobe.
type FFmpeg struct {
	Bin      string
	ProbeBin string
	WorkDir  string
	useGPU   bool
}

func NewFFmpeg(bin, probeBin, workDir string) *FFmpeg {
	f := &FFmpeg{Bin: bin, ProbeBin: probeBin, WorkDir: workDir}
	f.useGPU = f.hasNVENC()
	return f
}

func (f *FFmpeg) run(ctx context.Context, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%s: %w: %s", filepath.Base(bin), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (f *FFmpeg) hasNVENC() bool {
	out, err := f.run(context.Background(), f.Bin, "-hide_banner", "-encoders")
	return err == nil && strings.Contains(out, "h264_nvenc")
}

func videoEncodeArgs(useGPU bool) []string {
	if useGPU {
		return []string{"-c:v", "h264_nvenc", "-preset", "p4", "-cq", "19", "-pix_fmt", "yuv420p"}
	}
	return []string{"-c:v", "libx264", "-preset", "veryfast", "-crf", "20", "-pix_fmt", "yuv420p"}
}

func (f *FFmpeg) inputHasAudio(ctx context.Context, path string) bool {
	out, err := f.run(ctx, f.ProbeBin,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		path)
	return err == nil && strings.TrimSpace(out) != ""
}

type probeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe returns dimensions and duration of a video file.
func (f *FFmpeg) Probe(ctx context.Context, path string) (Info, error) {
	out, err := f.run(ctx, f.ProbeBin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-show_entries", "format=duration",
		"-of", "json",
		path)
	if err != nil {
		return Info{}, fmt.Errorf("probe %s: %w", path, err)
	}
	var po probeOutput
	if err := json.Unmarshal([]byte(out), &po); err != nil {
		return Info{}, fmt.Errorf("probe %s: decode: %w", path, err)
	}
	info := Info{}
	if len(po.Streams) > 0 {
		info.Width = po.Streams[0].Width
		info.Height = po.Streams[0].Height
	}
	if po.Format.Duration != "" {
		info.Duration, _ = strconv.ParseFloat(po.Format.Duration, 64)
	}
	return info, nil
}

func (f *FFmpeg) duration(ctx context.Context, path string) (float64, error) {
	info, err := f.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

func (f *FFmpeg) tempFile(pattern string) (string, error) {
	if err := os.MkdirAll(f.WorkDir, 0o755); err != nil {
		return "", err
	}
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	return filepath.Join(f.WorkDir, fmt.Sprintf(pattern, id)), nil
}

// verticalBlurFilter scales a clip into 1080x1920 over a blurred,
// cropped copy of itself.
func verticalBlurFilter(w, h, fps int) string {
	return fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,gblur=sigma=20,fps=%d,format=yuv420p,setpts=N/(%d*TB)[bg];"+
			"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,fps=%d,format=yuv420p,setpts=N/(%d*TB)[fg];"+
			"[bg][fg]overlay=(W-w)/2:(H-h)/2",
		w, h, w, h, fps, fps, w, h, w, h, fps, fps)
}

func normalizeFilter(w, h, fps int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,fps=%d,format=yuv420p",
		w, h, w, h, fps)
}

// xfadeFilterChain builds the filter_complex chaining video xfades and
// audio acrossfades: [0][1]xfade->[v01]; [v01][2]xfade->[vout].
// durations are the source part durations in order.
func xfadeFilterChain(durations []float64, transition string, t float64) string {
	n := len(durations)
	var filters []string
	cum := durations[0]
	for i := 1; i < n; i++ {
		offset := cum - t
		if offset < 0 {
			offset = 0
		}
		in1 := "[0:v]"
		if i > 1 {
			in1 = fmt.Sprintf("[v%02d]", i-1)
		}
		out := fmt.Sprintf("[v%02d]", i)
		if i == n-1 {
			out = "[vout]"
		}
		filters = append(filters, fmt.Sprintf("%s[%d:v]xfade=transition=%s:duration=%g:offset=%g%s",
			in1, i, transition, t, offset, out))
		cum = cum + durations[i] - t
	}
	for i := 1; i < n; i++ {
		in1 := "[0:a]"
		if i > 1 {
			in1 = fmt.Sprintf("[a%02d]", i-1)
		}
		out := fmt.Sprintf("[a%02d]", i)
		if i == n-1 {
			out = "[aout]"
		}
		filters = append(filters, fmt.Sprintf("%s[%d:a]acrossfade=d=%g:c1=tri:c2=tri%s", in1, i, t, out))
	}
	return strings.Join(filters, ";")
}

// concatListing builds the concat demuxer list file body.
func concatListing(files []string) string {
	var b strings.Builder
	for _, p := range files {
		b.WriteString("file '" + strings.ReplaceAll(p, "'", `'\''`) + "'\n")
	}
	return b.String()
}

// subtitlesFilter escapes the subtitle path for the -vf subtitles filter.
func subtitlesFilter(subPath, forceStyle string) string {
	p := strings.ReplaceAll(subPath, `\`, "/")
	p = strings.ReplaceAll(p, ":", `\:`)
	return fmt.Sprintf("subtitles='%s':force_style='%s'", p, forceStyle)
}

func (f *FFmpeg) audioArgs(ctx context.Context, input string) []string {
	if f.inputHasAudio(ctx, input) {
		return []string{"-c:a", "aac", "-b:a", "160k"}
	}
	return []string{"-an"}
}

// ExtractClip cuts [startTC, endTC] out of src, re-encoding, and
// optionally converts the clip to vertical with a blurred background.
func (f *FFmpeg) ExtractClip(ctx context.Context, src, startTC, endTC string, vertical bool) (string, error) {
	cutPath, err := f.tempFile("cut_%s.mp4")
	if err != nil {
		return "", err
	}
	args := []string{"-y", "-ss", startTC, "-to", endTC, "-i", src}
	args = append(args, videoEncodeArgs(f.useGPU)...)
	args = append(args, f.audioArgs(ctx, src)...)
	args = append(args, "-movflags", "+faststart", cutPath)
	if _, err := f.run(ctx, f.Bin, args...); err != nil {
		return "", fmt.Errorf("cut: %w", err)
	}
	if !vertical {
		return cutPath, nil
	}
	defer os.Remove(cutPath)
	return f.makeVertical(ctx, cutPath)
}

func (f *FFmpeg) makeVertical(ctx context.Context, input string) (string, error) {
	out, err := f.tempFile("vertical_%s.mp4")
	if err != nil {
		return "", err
	}
	args := []string{"-y", "-i", input, "-filter_complex", verticalBlurFilter(1080, 1920, 30)}
	args = append(args, videoEncodeArgs(f.useGPU)...)
	args = append(args, f.audioArgs(ctx, input)...)
	args = append(args, "-movflags", "+faststart", out)
	if _, err := f.run(ctx, f.Bin, args...); err != nil {
		return "", fmt.Errorf("vertical: %w", err)
	}
	return out, nil
}

// normalize re-encodes one part to a uniform resolution, frame rate and
// audio layout so the concat demuxer can join without re-timing.
func (f *FFmpeg) normalize(ctx context.Context, input string, makeVertical bool) (string, error) {
	w, h := 1920, 1080
	if makeVertical {
		w, h = 1080, 1920
	}
	out, err := f.tempFile("part_%s.mp4")
	if err != nil {
		return "", err
	}
	vf := normalizeFilter(w, h, 30)
	var args []string
	if f.inputHasAudio(ctx, input) {
		args = []string{"-y", "-i", input, "-vf", vf}
		args = append(args, videoEncodeArgs(f.useGPU)...)
		args = append(args, "-c:a", "aac", "-b:a", "160k", "-ar", "48000")
	} else {
		dur, err := f.duration(ctx, input)
		if err != nil {
			return "", err
		}
		args = []string{
			"-y", "-i", input,
			"-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=48000",
			"-filter_complex", fmt.Sprintf("[0:v]%s[v];[1:a]atrim=0:%g,asetpts=PTS-STARTPTS[a]", vf, dur),
			"-map", "[v]", "-map", "[a]",
		}
		args = append(args, videoEncodeArgs(f.useGPU)...)
		args = append(args, "-c:a", "aac", "-b:a", "160k")
	}
	args = append(args, "-movflags", "+faststart", out)
	if _, err := f.run(ctx, f.Bin, args...); err != nil {
		return "", fmt.Errorf("normalize: %w", err)
	}
	return out, nil
}

func (f *FFmpeg) concatCopy(ctx context.Context, parts []string, out string) error {
	list, err := f.tempFile("concat_%s.txt")
	if err != nil {
		return err
	}
	defer os.Remove(list)
	if err := os.WriteFile(list, []byte(concatListing(parts)), 0o644); err != nil {
		return err
	}
	_, err = f.run(ctx, f.Bin,
		"-y", "-f", "concat", "-safe", "0", "-i", list,
		"-c", "copy", "-movflags", "+faststart", out)
	if err != nil {
		return fmt.Errorf("concat: %w", err)
	}
	return nil
}

func (f *FFmpeg) concatXfade(ctx context.Context, parts []string, transition string, t float64, out string) error {
	durations := make([]float64, len(parts))
	for i, p := range parts {
		d, err := f.duration(ctx, p)
		if err != nil {
			return err
		}
		durations[i] = d
	}
	args := []string{"-y"}
	for _, p := range parts {
		args = append(args, "-i", p)
	}
	args = append(args,
		"-filter_complex", xfadeFilterChain(durations, transition, t),
		"-map", "[vout]", "-map", "[aout]")
	args = append(args, videoEncodeArgs(f.useGPU)...)
	args = append(args, "-c:a", "aac", "-b:a", "160k", "-movflags", "+faststart", out)
	if _, err := f.run(ctx, f.Bin, args...); err != nil {
		return fmt.Errorf("concat xfade: %w", err)
	}
	return nil
}

// Render normalizes every part, then concatenates them, with xfade
// transitions when requested and at least two parts are present.
func (f *FFmpeg) Render(ctx context.Context, spec RenderSpec, progress ProgressFunc) (string, error) {
	if len(spec.Parts) == 0 {
		return "", fmt.Errorf("render: no parts")
	}
	if progress == nil {
		progress = func(int) {}
	}
	progress(10)

	normalized := make([]string, 0, len(spec.Parts))
	defer func() {
		for _, p := range normalized {
			os.Remove(p)
		}
	}()
	for i, part := range spec.Parts {
		norm, err := f.normalize(ctx, part, spec.MakeVertical)
		if err != nil {
			return "", err
		}
		normalized = append(normalized, norm)
		progress(10 + 60*(i+1)/len(spec.Parts))
	}

	out, err := f.tempFile("export_%s.mp4")
	if err != nil {
		return "", err
	}
	useTransition := spec.Transition != "" && spec.Transition != models.TransitionNone && len(normalized) >= 2
	if useTransition {
		t := spec.TransitionDuration
		if t <= 0 {
			t = 0.5
		}
		err = f.concatXfade(ctx, normalized, spec.Transition, t, out)
	} else {
		err = f.concatCopy(ctx, normalized, out)
	}
	if err != nil {
		return "", err
	}
	progress(95)
	return out, nil
}

// BurnSubtitles overlays the segments on the video. Animated styles go
// through ASS (word-accumulating lines), static through SRT+force_style.
func (f *FFmpeg) BurnSubtitles(ctx context.Context, videoPath string, segments []models.SubtitleSegment, style models.SubtitleStyle) (string, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("burn: no segments")
	}
	var subPath, vf string
	var err error
	if style.Animated {
		subPath, err = f.tempFile("subs_%s.ass")
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(subPath, []byte(SegmentsToASS(segments)), 0o644); err != nil {
			return "", err
		}
		vf = subtitlesFilter(subPath, ForceStyle(style))
	} else {
		subPath, err = f.tempFile("subs_%s.srt")
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(subPath, []byte(SegmentsToSRT(segments)), 0o644); err != nil {
			return "", err
		}
		vf = subtitlesFilter(subPath, ForceStyle(style))
	}
	defer os.Remove(subPath)

	out, err := f.tempFile("burned_%s.mp4")
	if err != nil {
		return "", err
	}
	_, err = f.run(ctx, f.Bin,
		"-y", "-i", videoPath,
		"-vf", vf,
		"-c:a", "copy", "-movflags", "+faststart", out)
	if err != nil {
		return "", fmt.Errorf("burn subtitles: %w", err)
	}
	return out, nil
}
