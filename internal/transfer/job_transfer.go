package transfer

// JobCreation is the payload for assembling a job from cuts.
type JobCreation struct {
	Name               string   `json:"name"`
	CutIDs             []int64  `json:"cut_ids"`
	IntroAssetID       *int64   `json:"intro_asset"`
	OutroAssetID       *int64   `json:"outro_asset"`
	Transition         string   `json:"transition"`
	TransitionDuration float64  `json:"transition_duration"`
	MakeVertical       *bool    `json:"make_vertical"`
	TargetPlatforms    []string `json:"target_platforms"`
}

// SubtitleUpdate carries a partial subtitle edit: nil fields are left
// unchanged.
type SubtitleUpdate struct {
	Segments []SubtitleSegmentUpdate `json:"segments"`
	Style    *SubtitleStyleUpdate    `json:"style"`
}

type SubtitleSegmentUpdate struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type SubtitleStyleUpdate struct {
	Font         string `json:"font"`
	Size         int    `json:"size"`
	Color        string `json:"color"`
	OutlineColor string `json:"outline_color"`
	Outline      int    `json:"outline"`
	Position     string `json:"position"`
	Animated     bool   `json:"animated"`
}
