package transfer

// CutSpec describes one clip to extract from a source.
type CutSpec struct {
	Name    string `json:"name"`
	StartTC string `json:"start_tc"`
	EndTC   string `json:"end_tc"`
	Format  string `json:"format"`
}

// CutExtraction is the extract-cuts payload: extraction consumes the
// source on success.
type CutExtraction struct {
	Cuts []CutSpec `json:"cuts"`
}
