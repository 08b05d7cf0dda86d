package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Cascapera/social-automation/internal/apperrors"
	"github.com/Cascapera/social-automation/internal/media"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/transfer"
)

func newCutServiceForTest(sr *fakeSourceRepo, cr *fakeCutRepo, prober media.Prober) (*cutService, *fakeStorage, *fakeRenderer) {
	st := newFakeStorage()
	renderer := &fakeRenderer{}
	if prober == nil {
		prober = renderer
	}
	svc := NewCutService(stubDB(), sr, cr, st, renderer, prober).(*cutService)
	return svc, st, renderer
}

// A minimal ftyp box, enough for content sniffing.
func mp4Bytes() []byte {
	return []byte{0, 0, 0, 24, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0, 0, 0, 0, 'i', 's', 'o', 'm', 'a', 'v', 'c', '1'}
}

func TestCutService_UploadCut(t *testing.T) {
	cr := newFakeCutRepo()
	prober := &fakeProber{info: media.Info{Width: 1080, Height: 1920, Duration: 12.5}}
	svc, st, _ := newCutServiceForTest(newFakeSourceRepo(), cr, prober)
	ctx := context.Background()

	id, err := svc.UploadCut(ctx, 7, "Clipe bom", "", mp4Bytes())
	if err != nil {
		t.Fatalf("UploadCut() error = %v", err)
	}

	cut := cr.cuts[id]
	if cut.SourceID.Valid {
		t.Errorf("source id = %v, want NULL for a direct upload", cut.SourceID)
	}
	if cut.StartTC != "00:00:00" || cut.EndTC != "00:00:12" {
		t.Errorf("timecodes = %s..%s, want 00:00:00..00:00:12", cut.StartTC, cut.EndTC)
	}
	if cut.Format != models.FormatVertical {
		t.Errorf("format = %s, want vertical from probe", cut.Format)
	}
	if !strings.HasPrefix(cut.FileKey, "cuts/7/") {
		t.Errorf("file key = %s, want cuts/7/ prefix", cut.FileKey)
	}
	if st.uploads[cut.FileKey] != "video/mp4" {
		t.Errorf("uploaded content type = %q, want video/mp4", st.uploads[cut.FileKey])
	}
}

func TestCutService_UploadCut_ProbeFallback(t *testing.T) {
	cr := newFakeCutRepo()
	prober := &fakeProber{probeErr: errors.New("ffprobe not found")}
	svc, _, _ := newCutServiceForTest(newFakeSourceRepo(), cr, prober)
	ctx := context.Background()

	id, err := svc.UploadCut(ctx, 7, "Clipe", models.FormatHorizontal, mp4Bytes())
	if err != nil {
		t.Fatalf("UploadCut() error = %v", err)
	}
	cut := cr.cuts[id]
	if cut.Format != models.FormatHorizontal {
		t.Errorf("format = %s, want declared format when probing fails", cut.Format)
	}
	if cut.EndTC != "00:00:00" || cut.Duration != 0 {
		t.Errorf("duration = %s/%v, want zero without a probe", cut.EndTC, cut.Duration)
	}
}

func TestCutService_UploadCut_Rejections(t *testing.T) {
	svc, _, _ := newCutServiceForTest(newFakeSourceRepo(), newFakeCutRepo(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		cut  string
		file []byte
	}{
		{"empty name", "", mp4Bytes()},
		{"empty file", "Clipe", nil},
		{"not a video", "Clipe", []byte("plain text, not a video")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadCut(ctx, 7, tt.cut, "", tt.file)
			var verr *apperrors.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("UploadCut() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestCutService_ExtractCuts(t *testing.T) {
	sr := newFakeSourceRepo(&models.Source{ID: 3, BrandID: 7, Title: "Live completa", FileKey: "sources/7/raw.mp4"})
	cr := newFakeCutRepo()
	svc, st, _ := newCutServiceForTest(sr, cr, nil)
	ctx := context.Background()

	ids, err := svc.ExtractCuts(ctx, 7, 3, &transfer.CutExtraction{Cuts: []transfer.CutSpec{
		{Name: "Abertura", StartTC: "00:00:10", EndTC: "00:01:00", Format: models.FormatVertical},
		{Name: "Encerramento", StartTC: "00:50:00", EndTC: "00:52:30", Format: models.FormatHorizontal},
	}})
	if err != nil {
		t.Fatalf("ExtractCuts() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("len(ids) = %d, want 2", len(ids))
	}

	for _, id := range ids {
		cut := cr.cuts[id]
		if !cut.SourceID.Valid || cut.SourceID.Int64 != 3 {
			t.Errorf("cut %d source id = %v, want 3", id, cut.SourceID)
		}
	}
	if cr.cuts[ids[0]].Duration != 50 {
		t.Errorf("duration = %v, want 50", cr.cuts[ids[0]].Duration)
	}

	if src, _ := sr.GetByID(ctx, 3); src != nil {
		t.Error("extraction should consume the source")
	}
	if len(st.deleted) != 1 || st.deleted[0] != "sources/7/raw.mp4" {
		t.Errorf("deleted artifacts = %v, want the source key", st.deleted)
	}
}

func TestCutService_ExtractCuts_Rejections(t *testing.T) {
	sr := newFakeSourceRepo(&models.Source{ID: 3, BrandID: 7, FileKey: "sources/7/raw.mp4"})
	svc, _, _ := newCutServiceForTest(sr, newFakeCutRepo(), nil)
	ctx := context.Background()

	valid := transfer.CutSpec{Name: "Clipe", StartTC: "00:00:00", EndTC: "00:00:10", Format: models.FormatVertical}

	tests := []struct {
		name string
		cuts []transfer.CutSpec
	}{
		{"no cuts", nil},
		{"blank name", []transfer.CutSpec{{StartTC: "00:00:00", EndTC: "00:00:10", Format: models.FormatVertical}}},
		{"bad timecode", []transfer.CutSpec{{Name: "Clipe", StartTC: "0:0", EndTC: "00:00:10", Format: models.FormatVertical}}},
		{"bad format", []transfer.CutSpec{{Name: "Clipe", StartTC: "00:00:00", EndTC: "00:00:10", Format: "square"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ExtractCuts(ctx, 7, 3, &transfer.CutExtraction{Cuts: tt.cuts})
			var verr *apperrors.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("ExtractCuts() error = %v, want ValidationError", err)
			}
		})
	}

	var nf *apperrors.NotFoundError
	if _, err := svc.ExtractCuts(ctx, 9, 3, &transfer.CutExtraction{Cuts: []transfer.CutSpec{valid}}); !errors.As(err, &nf) {
		t.Errorf("ExtractCuts(wrong brand) error = %v, want NotFoundError", err)
	}
}

func TestCutService_ExtractCuts_PartialFailureCleansUp(t *testing.T) {
	sr := newFakeSourceRepo(&models.Source{ID: 3, BrandID: 7, FileKey: "sources/7/raw.mp4"})
	cr := newFakeCutRepo()
	svc, st, renderer := newCutServiceForTest(sr, cr, nil)
	renderer.extractErrOn = 2
	ctx := context.Background()

	_, err := svc.ExtractCuts(ctx, 7, 3, &transfer.CutExtraction{Cuts: []transfer.CutSpec{
		{Name: "Abertura", StartTC: "00:00:10", EndTC: "00:01:00", Format: models.FormatVertical},
		{Name: "Encerramento", StartTC: "00:50:00", EndTC: "00:52:30", Format: models.FormatVertical},
	}})
	if err == nil {
		t.Fatal("ExtractCuts() should fail when a clip cannot be cut")
	}

	if src, _ := sr.GetByID(ctx, 3); src == nil {
		t.Error("failed extraction should keep the source")
	}
	if len(st.deleted) != 1 || !strings.HasPrefix(st.deleted[0], "cuts/7/") {
		t.Errorf("deleted artifacts = %v, want the orphaned clip only", st.deleted)
	}
}

func TestCutService_Delete(t *testing.T) {
	cr := newFakeCutRepo(&models.Cut{ID: 4, BrandID: 7, FileKey: "cuts/7/abc.mp4"})
	svc, st, _ := newCutServiceForTest(newFakeSourceRepo(), cr, nil)
	ctx := context.Background()

	cr.inUse = true
	var cerr *apperrors.ConflictError
	if err := svc.Delete(ctx, 7, 4); !errors.As(err, &cerr) {
		t.Fatalf("Delete() with active job error = %v, want ConflictError", err)
	}
	if _, ok := cr.cuts[4]; !ok {
		t.Fatal("rejected delete removed the cut")
	}

	cr.inUse = false
	if err := svc.Delete(ctx, 7, 4); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := cr.cuts[4]; ok {
		t.Error("cut should be removed")
	}
	if len(st.deleted) != 1 || st.deleted[0] != "cuts/7/abc.mp4" {
		t.Errorf("deleted artifacts = %v, want the cut key", st.deleted)
	}
}
