package models

import "time"

// Job statuses. RUNNING can be re-entered from FAILED (retry); archived
// is an orthogonal flag, not a status.
const (
	JobStatusQueued  = "QUEUED"
	JobStatusRunning = "RUNNING"
	JobStatusDone    = "DONE"
	JobStatusFailed  = "FAILED"
)

// Subtitle workflow statuses. Empty string means no subtitles yet.
const (
	SubtitleStatusNone         = ""
	SubtitleStatusGenerating   = "generating"
	SubtitleStatusReadyForEdit = "ready_for_edit"
	SubtitleStatusBurning      = "burning"
	SubtitleStatusBurned       = "burned"
	SubtitleStatusError        = "error"
)

const (
	TransitionNone      = "none"
	TransitionFade      = "fade"
	TransitionFadeBlack = "fadeblack"
	TransitionWipeLeft  = "wipeleft"
	TransitionWipeRight = "wiperight"
	TransitionDissolve  = "dissolve"
)

var Transitions = []string{
	TransitionNone,
	TransitionFade,
	TransitionFadeBlack,
	TransitionWipeLeft,
	TransitionWipeRight,
	TransitionDissolve,
}

// Platform codes for scheduled posting.
const (
	PlatformInstagram     = "IG"
	PlatformTiktok        = "TT"
	PlatformYoutubeShorts = "YT"
	PlatformYoutube       = "YTB"
)

var Platforms = []string{
	PlatformInstagram,
	PlatformTiktok,
	PlatformYoutubeShorts,
	PlatformYoutube,
}

func IsValidPlatform(p string) bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

func IsValidTransition(t string) bool {
	for _, known := range Transitions {
		if t == known {
			return true
		}
	}
	return false
}

// WordTiming is a word-level timestamp inside a subtitle segment, used
// for animated (word-accumulating) subtitles.
type WordTiming struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// SubtitleSegment is one transcript line with start/end in seconds.
type SubtitleSegment struct {
	Start float64      `json:"start"`
	End   float64      `json:"end"`
	Text  string       `json:"text"`
	Words []WordTiming `json:"words,omitempty"`
}

type SubtitleStyle struct {
	Font         string `json:"font"`
	Size         int    `json:"size"`
	Color        string `json:"color"`
	OutlineColor string `json:"outline_color"`
	Outline      int    `json:"outline"`
	Position     string `json:"position"`
	Animated     bool   `json:"animated"`
}

// DefaultSubtitleStyle is applied when generation completes and no
// style was set yet.
func DefaultSubtitleStyle() SubtitleStyle {
	return SubtitleStyle{
		Font:         "Arial",
		Size:         24,
		Color:        "#FFFFFF",
		OutlineColor: "#000000",
		Outline:      2,
		Position:     "bottom",
		Animated:     false,
	}
}

// Job is the central orchestration unit: one render/export task plus an
// embedded subtitle sub-state and derived scheduling fields.
type Job struct {
	ID                 int64             `db:"id" json:"id"`
	BrandID            int64             `db:"brand_id" json:"brand"`
	Name               string            `db:"name" json:"name"`
	CutIDs             []int64           `db:"-" json:"cut_ids"`
	IntroAssetID       *int64            `db:"intro_asset_id" json:"intro_asset"`
	OutroAssetID       *int64            `db:"outro_asset_id" json:"outro_asset"`
	Transition         string            `db:"transition" json:"transition"`
	TransitionDuration float64           `db:"transition_duration" json:"transition_duration"`
	MakeVertical       bool              `db:"make_vertical" json:"make_vertical"`
	TargetPlatforms    []string          `db:"target_platforms" json:"target_platforms"`
	Status             string            `db:"status" json:"status"`
	Progress           int               `db:"progress" json:"progress"`
	AttemptID          string            `db:"attempt_id" json:"-"`
	OutputKey          string            `db:"output_key" json:"-"`
	OutputURL          string            `db:"output_url" json:"output_url"`
	Error              string            `db:"error" json:"error"`
	Log                string            `db:"log" json:"log,omitempty"`
	Archived           bool              `db:"archived" json:"archived"`
	SubtitleStatus     string            `db:"subtitle_status" json:"subtitle_status"`
	SubtitleSegments   []SubtitleSegment `db:"subtitle_segments" json:"subtitle_segments"`
	SubtitleStyle      *SubtitleStyle    `db:"subtitle_style" json:"subtitle_style"`
	SubtitleError      string            `db:"subtitle_error" json:"subtitle_error"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	StartedAt          *time.Time        `db:"started_at" json:"started_at"`
	FinishedAt         *time.Time        `db:"finished_at" json:"finished_at"`

	// Derived on read, never stored.
	CanDelete        bool              `db:"-" json:"can_delete"`
	ScheduledSummary *ScheduledSummary `db:"-" json:"scheduled_summary"`
}

// ScheduledSummary is a live aggregation over a job's scheduled posts.
type ScheduledSummary struct {
	Total   int `json:"total"`
	Posted  int `json:"posted"`
	Pending int `json:"pending"`
}

// IsTerminal reports whether the render lifecycle reached a final state
// for the current attempt.
func IsTerminal(status string) bool {
	return status == JobStatusDone || status == JobStatusFailed
}

// SubtitleInFlight reports whether a subtitle operation is running and
// must not be interleaved with another generate/burn/update.
func SubtitleInFlight(status string) bool {
	return status == SubtitleStatusGenerating || status == SubtitleStatusBurning
}
