package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Cascapera/social-automation/internal/media"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/publisher"
)

// In-memory collaborators for service tests. The job repo mirrors the
// SQL guards (attempt id on terminal writes, monotonic progress) so
// the services can be exercised without a database.

// stubDB returns a *sql.DB backed by a no-op driver so services can
// open and commit their row-lock transactions. The fake repositories
// ignore the tx handle; no statement ever reaches the driver.
func stubDB() *sql.DB {
	return sql.OpenDB(stubConnector{})
}

type stubConnector struct{}

func (stubConnector) Connect(context.Context) (driver.Conn, error) { return stubConn{}, nil }
func (stubConnector) Driver() driver.Driver                        { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("statements are not supported")
}
func (stubConn) Close() error              { return nil }
func (stubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

type fakeJobRepo struct {
	jobs      map[int64]*models.Job
	nextID    int64
	progress  []int
	logLines  []string
	createErr error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[int64]*models.Job), nextID: 1}
}

func (r *fakeJobRepo) add(job *models.Job) *models.Job {
	if job.ID == 0 {
		job.ID = r.nextID
		r.nextID++
	}
	r.jobs[job.ID] = job
	return job
}

func (r *fakeJobRepo) Create(ctx context.Context, tx *sql.Tx, job *models.Job) (int64, error) {
	if r.createErr != nil {
		return 0, r.createErr
	}
	copied := *job
	return r.add(&copied).ID, nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id int64) (*models.Job, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepo) List(ctx context.Context, brandID int64, archived *bool) ([]*models.Job, error) {
	var out []*models.Job
	for _, job := range r.jobs {
		if job.BrandID != brandID {
			continue
		}
		if archived != nil && job.Archived != *archived {
			continue
		}
		copied := *job
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeJobRepo) LockForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*models.Job, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeJobRepo) MarkRunning(ctx context.Context, tx *sql.Tx, id int64, attemptID string, startedAt time.Time) error {
	job := r.jobs[id]
	job.Status = models.JobStatusRunning
	job.Progress = 0
	job.AttemptID = attemptID
	job.Error = ""
	job.StartedAt = &startedAt
	job.FinishedAt = nil
	return nil
}

func (r *fakeJobRepo) UpdateProgress(ctx context.Context, id int64, attemptID string, progress int) error {
	job := r.jobs[id]
	if job.Status != models.JobStatusRunning || job.AttemptID != attemptID || job.Progress >= progress {
		return nil
	}
	job.Progress = progress
	r.progress = append(r.progress, progress)
	return nil
}

func (r *fakeJobRepo) MarkDone(ctx context.Context, id int64, attemptID, outputKey, outputURL string) error {
	job := r.jobs[id]
	if job.AttemptID != attemptID {
		return nil
	}
	now := time.Now()
	job.Status = models.JobStatusDone
	job.Progress = 100
	job.OutputKey = outputKey
	job.OutputURL = outputURL
	job.Error = ""
	job.FinishedAt = &now
	return nil
}

func (r *fakeJobRepo) MarkFailed(ctx context.Context, id int64, attemptID, errMsg string) error {
	job := r.jobs[id]
	if job.AttemptID != attemptID {
		return nil
	}
	now := time.Now()
	job.Status = models.JobStatusFailed
	job.Error = errMsg
	job.OutputKey = ""
	job.OutputURL = ""
	job.FinishedAt = &now
	return nil
}

func (r *fakeJobRepo) SetOutput(ctx context.Context, id int64, outputKey, outputURL string) error {
	job := r.jobs[id]
	job.OutputKey = outputKey
	job.OutputURL = outputURL
	return nil
}

func (r *fakeJobRepo) SetArchived(ctx context.Context, id int64, archived bool) error {
	r.jobs[id].Archived = archived
	return nil
}

func (r *fakeJobRepo) AppendLog(ctx context.Context, id int64, line string) error {
	r.logLines = append(r.logLines, line)
	r.jobs[id].Log += line + "\n"
	return nil
}

func (r *fakeJobRepo) SetSubtitleStatus(ctx context.Context, id int64, status, subtitleErr string) error {
	job := r.jobs[id]
	job.SubtitleStatus = status
	job.SubtitleError = subtitleErr
	return nil
}

func (r *fakeJobRepo) SetSubtitleResult(ctx context.Context, id int64, segments []models.SubtitleSegment, style *models.SubtitleStyle) error {
	job := r.jobs[id]
	job.SubtitleStatus = models.SubtitleStatusReadyForEdit
	job.SubtitleSegments = segments
	job.SubtitleStyle = style
	job.SubtitleError = ""
	return nil
}

func (r *fakeJobRepo) UpdateSubtitleData(ctx context.Context, id int64, segments []models.SubtitleSegment, style *models.SubtitleStyle) error {
	job := r.jobs[id]
	if segments != nil {
		job.SubtitleSegments = segments
	}
	if style != nil {
		job.SubtitleStyle = style
	}
	return nil
}

func (r *fakeJobRepo) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	delete(r.jobs, id)
	return nil
}

type fakeCutRepo struct {
	cuts   map[int64]*models.Cut
	nextID int64
	inUse  bool
}

func newFakeCutRepo(cuts ...*models.Cut) *fakeCutRepo {
	r := &fakeCutRepo{cuts: make(map[int64]*models.Cut), nextID: 1}
	for _, c := range cuts {
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
		r.cuts[c.ID] = c
	}
	return r
}

func (r *fakeCutRepo) Create(ctx context.Context, tx *sql.Tx, cut *models.Cut) (int64, error) {
	copied := *cut
	copied.ID = r.nextID
	r.nextID++
	r.cuts[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeCutRepo) GetByID(ctx context.Context, id int64) (*models.Cut, error) {
	return r.cuts[id], nil
}

func (r *fakeCutRepo) List(ctx context.Context, brandID, sourceID int64) ([]*models.Cut, error) {
	var out []*models.Cut
	for _, c := range r.cuts {
		if c.BrandID == brandID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCutRepo) GetByIDs(ctx context.Context, ids []int64) ([]*models.Cut, error) {
	var out []*models.Cut
	for _, id := range ids {
		if c, ok := r.cuts[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCutRepo) InUseByActiveJob(ctx context.Context, tx *sql.Tx, cutID int64) (bool, error) {
	return r.inUse, nil
}

func (r *fakeCutRepo) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	delete(r.cuts, id)
	return nil
}

type fakeSourceRepo struct {
	sources map[int64]*models.Source
	nextID  int64
}

func newFakeSourceRepo(sources ...*models.Source) *fakeSourceRepo {
	r := &fakeSourceRepo{sources: make(map[int64]*models.Source), nextID: 1}
	for _, s := range sources {
		if s.ID >= r.nextID {
			r.nextID = s.ID + 1
		}
		r.sources[s.ID] = s
	}
	return r
}

func (r *fakeSourceRepo) Create(ctx context.Context, source *models.Source) (int64, error) {
	copied := *source
	copied.ID = r.nextID
	r.nextID++
	r.sources[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeSourceRepo) GetByID(ctx context.Context, id int64) (*models.Source, error) {
	source, ok := r.sources[id]
	if !ok {
		return nil, nil
	}
	copied := *source
	return &copied, nil
}

func (r *fakeSourceRepo) List(ctx context.Context, brandID int64) ([]*models.Source, error) {
	var out []*models.Source
	for _, s := range r.sources {
		if s.BrandID == brandID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSourceRepo) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	delete(r.sources, id)
	return nil
}

type fakeAssetRepo struct {
	assets map[int64]*models.BrandAsset
}

func newFakeAssetRepo(assets ...*models.BrandAsset) *fakeAssetRepo {
	r := &fakeAssetRepo{assets: make(map[int64]*models.BrandAsset)}
	for _, a := range assets {
		r.assets[a.ID] = a
	}
	return r
}

func (r *fakeAssetRepo) Create(ctx context.Context, asset *models.BrandAsset) (int64, error) {
	return 0, errors.New("not implemented")
}

func (r *fakeAssetRepo) GetByID(ctx context.Context, id int64) (*models.BrandAsset, error) {
	return r.assets[id], nil
}

func (r *fakeAssetRepo) List(ctx context.Context, brandID int64, assetType string) ([]*models.BrandAsset, error) {
	return nil, nil
}

func (r *fakeAssetRepo) Remove(ctx context.Context, id int64) error {
	delete(r.assets, id)
	return nil
}

type fakeScheduledPostRepo struct {
	posts  map[int64]*models.ScheduledPost
	nextID int64
}

func newFakeScheduledPostRepo() *fakeScheduledPostRepo {
	return &fakeScheduledPostRepo{posts: make(map[int64]*models.ScheduledPost), nextID: 1}
}

func (r *fakeScheduledPostRepo) Create(ctx context.Context, post *models.ScheduledPost) (int64, error) {
	copied := *post
	copied.ID = r.nextID
	r.nextID++
	r.posts[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeScheduledPostRepo) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	return &copied, nil
}

func (r *fakeScheduledPostRepo) ListByJobID(ctx context.Context, jobID int64) ([]*models.ScheduledPost, error) {
	var out []*models.ScheduledPost
	for _, p := range r.posts {
		if p.JobID == jobID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeScheduledPostRepo) ListByBrand(ctx context.Context, brandID int64) ([]*models.ScheduledPost, error) {
	var out []*models.ScheduledPost
	for _, p := range r.posts {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeScheduledPostRepo) UpdateStatus(ctx context.Context, id int64, status, errMsg string, postedAt *time.Time) error {
	post := r.posts[id]
	post.Status = status
	post.Error = errMsg
	post.PostedAt = postedAt
	return nil
}

func (r *fakeScheduledPostRepo) CountBlocking(ctx context.Context, tx *sql.Tx, jobID int64) (int, error) {
	count := 0
	for _, p := range r.posts {
		if p.JobID == jobID && p.Blocking() {
			count++
		}
	}
	return count, nil
}

type fakeSocialAccountRepo struct {
	accounts map[string]*models.SocialAccount // keyed by platform
}

func (r *fakeSocialAccountRepo) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	return 0, errors.New("not implemented")
}

func (r *fakeSocialAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return nil, nil
}

func (r *fakeSocialAccountRepo) GetByPlatform(ctx context.Context, brandID int64, platform string) (*models.SocialAccount, error) {
	return r.accounts[platform], nil
}

func (r *fakeSocialAccountRepo) ListByBrand(ctx context.Context, brandID int64) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (r *fakeSocialAccountRepo) ListByTimeInterval(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (r *fakeSocialAccountRepo) SetToken(ctx context.Context, id int64, sa *models.SocialAccount) error {
	return nil
}

func (r *fakeSocialAccountRepo) Remove(ctx context.Context, id int64) error {
	return nil
}

type fakeStorage struct {
	uploads     map[string]string // key -> content type
	deleted     []string
	downloadErr error
	uploadErr   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string]string)}
}

func (s *fakeStorage) Upload(ctx context.Context, key string, file []byte, contentType string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploads[key] = contentType
	return nil
}

func (s *fakeStorage) UploadFile(ctx context.Context, key, path, contentType string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploads[key] = contentType
	return nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (s *fakeStorage) DownloadToTemp(ctx context.Context, key string) (string, error) {
	if s.downloadErr != nil {
		return "", s.downloadErr
	}
	f, err := os.CreateTemp("", "fakestorage-*")
	if err != nil {
		return "", err
	}
	f.Close()
	return f.Name(), nil
}

type fakeRenderer struct {
	renderErr    error
	burnErr      error
	lastSpec     media.RenderSpec
	extractCalls int
	extractErrOn int // 1-based call index that fails; 0 never fails
}

func (r *fakeRenderer) Render(ctx context.Context, spec media.RenderSpec, progress media.ProgressFunc) (string, error) {
	r.lastSpec = spec
	if r.renderErr != nil {
		return "", r.renderErr
	}
	progress(55)
	progress(100)
	return tempOutput()
}

func (r *fakeRenderer) ExtractClip(ctx context.Context, src, startTC, endTC string, vertical bool) (string, error) {
	r.extractCalls++
	if r.extractErrOn != 0 && r.extractCalls == r.extractErrOn {
		return "", errors.New("ffmpeg exited with status 1")
	}
	return tempOutput()
}

func (r *fakeRenderer) Probe(ctx context.Context, path string) (media.Info, error) {
	return media.Info{Width: 1080, Height: 1920, Duration: 30}, nil
}

func (r *fakeRenderer) BurnSubtitles(ctx context.Context, videoPath string, segments []models.SubtitleSegment, style models.SubtitleStyle) (string, error) {
	if r.burnErr != nil {
		return "", r.burnErr
	}
	return tempOutput()
}

func tempOutput() (string, error) {
	f, err := os.CreateTemp("", "fakerender-*.mp4")
	if err != nil {
		return "", err
	}
	f.Close()
	return f.Name(), nil
}

type fakeProber struct {
	info     media.Info
	probeErr error
}

func (p *fakeProber) Probe(ctx context.Context, path string) (media.Info, error) {
	return p.info, p.probeErr
}

type fakeTranscriber struct {
	segments []models.SubtitleSegment
	err      error
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, videoPath string) ([]models.SubtitleSegment, error) {
	return t.segments, t.err
}

type fakeDispatcher struct {
	renders    []string // attempt ids
	generates  []int64
	burns      []int64
	publishes  []int64
	publishAt  time.Time
	enqueueErr error
}

func (d *fakeDispatcher) EnqueueRender(ctx context.Context, jobID int64, attemptID string) error {
	if d.enqueueErr != nil {
		return d.enqueueErr
	}
	d.renders = append(d.renders, attemptID)
	return nil
}

func (d *fakeDispatcher) EnqueueSubtitleGenerate(ctx context.Context, jobID int64) error {
	if d.enqueueErr != nil {
		return d.enqueueErr
	}
	d.generates = append(d.generates, jobID)
	return nil
}

func (d *fakeDispatcher) EnqueueSubtitleBurn(ctx context.Context, jobID int64) error {
	if d.enqueueErr != nil {
		return d.enqueueErr
	}
	d.burns = append(d.burns, jobID)
	return nil
}

func (d *fakeDispatcher) EnqueuePublish(ctx context.Context, postID int64, at time.Time) error {
	if d.enqueueErr != nil {
		return d.enqueueErr
	}
	d.publishes = append(d.publishes, postID)
	d.publishAt = at
	return nil
}

type fakePublisher struct {
	published []string // video URLs
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, job *models.Job, account *models.SocialAccount, videoURL string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, videoURL)
	return nil
}

func testRegistry(pubs map[string]publisher.Publisher) *publisher.Registry {
	reg := publisher.NewRegistry()
	for code, p := range pubs {
		reg.Register(code, p)
	}
	return reg
}

func sampleCut(id, brandID int64) *models.Cut {
	return &models.Cut{
		ID:      id,
		BrandID: brandID,
		Name:    fmt.Sprintf("cut-%d", id),
		StartTC: "00:00:00",
		EndTC:   "00:00:10",
		Format:  models.FormatVertical,
		FileKey: fmt.Sprintf("cuts/%d/%d.mp4", brandID, id),
	}
}
