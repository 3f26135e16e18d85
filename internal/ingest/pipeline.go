package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"revify/internal/config"
	"revify/internal/database"
	"revify/internal/metadata"
	"revify/internal/storage"
	"revify/pkg/models"
)

// Job statuses persisted with each ingest record.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Overrides replaces extracted tag values with admin-supplied ones. Empty
// fields keep whatever the file's tags say. CoverBase64 takes precedence
// over embedded cover art.
type Overrides struct {
	Title       string
	Artist      string
	Genre       string
	CoverBase64 string
}

// Pipeline turns dropped or uploaded audio files into catalog songs:
// extract metadata, push media to the asset store, insert the song row.
// Jobs survive restarts through the ingest_jobs table.
type Pipeline struct {
	cfg       *config.IngestConfig
	db        *database.Database
	store     *storage.AssetStore
	extractor *metadata.Extractor
	logger    *logrus.Logger

	jobs    map[string]*database.IngestJob
	jobsMux sync.RWMutex
	sem     chan struct{}
}

// New creates a pipeline and reloads any persisted job records.
func New(cfg *config.IngestConfig, db *database.Database, store *storage.AssetStore, extractor *metadata.Extractor, logger *logrus.Logger) *Pipeline {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}

	p := &Pipeline{
		cfg:       cfg,
		db:        db,
		store:     store,
		extractor: extractor,
		logger:    logger,
		jobs:      make(map[string]*database.IngestJob),
		sem:       make(chan struct{}, maxConcurrent),
	}

	persisted, err := db.GetAllIngestJobs()
	if err != nil {
		logger.WithError(err).Warn("Failed to reload ingest jobs")
	}
	for i := range persisted {
		job := persisted[i]
		// Jobs interrupted mid-flight are failed; the source file is gone
		if job.Status == StatusPending || job.Status == StatusProcessing {
			job.Status = StatusFailed
			job.Error = "interrupted by restart"
			p.persist(&job)
		}
		p.jobs[job.ID] = &job
	}

	return p
}

// Submit queues a file for ingestion and processes it in the background.
// When deleteSource is true the file is removed after a successful import.
func (p *Pipeline) Submit(filePath string, overrides Overrides, deleteSource bool) (*database.IngestJob, error) {
	if !p.extractor.IsAudioFile(filePath) {
		return nil, fmt.Errorf("unsupported audio format: %s", filepath.Ext(filePath))
	}

	job := &database.IngestJob{
		ID:        uuid.New().String(),
		Filename:  filepath.Base(filePath),
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	p.jobsMux.Lock()
	p.jobs[job.ID] = job
	p.jobsMux.Unlock()
	p.persist(job)

	go p.process(job, filePath, overrides, deleteSource)

	return p.snapshot(job.ID), nil
}

// process runs one ingest job end to end.
func (p *Pipeline) process(job *database.IngestJob, filePath string, overrides Overrides, deleteSource bool) {
	p.sem <- struct{}{}
	defer func() { <-p.sem }()

	p.update(job.ID, StatusProcessing, 10, "")

	info, err := p.extractor.ExtractFromFile(filePath)
	if err != nil {
		p.fail(job.ID, fmt.Sprintf("metadata extraction failed: %v", err))
		return
	}
	if overrides.Title != "" {
		info.Title = overrides.Title
	}
	if overrides.Artist != "" {
		info.Artist = overrides.Artist
	}
	if overrides.Genre != "" {
		info.Genre = overrides.Genre
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	audioURL, err := p.uploadAudio(ctx, filePath)
	if err != nil {
		p.fail(job.ID, fmt.Sprintf("audio upload failed: %v", err))
		return
	}
	p.update(job.ID, StatusProcessing, 60, "")

	coverURL, err := p.uploadCover(ctx, job.ID, info, overrides)
	if err != nil {
		// A song without cover art is still playable
		p.logger.WithError(err).WithField("job_id", job.ID).Warn("Cover upload failed")
	}
	p.update(job.ID, StatusProcessing, 80, "")

	songID, err := p.db.InsertSong(models.Song{
		Title:    info.Title,
		Artist:   info.Artist,
		Genre:    info.Genre,
		Duration: info.Duration,
		AudioURL: audioURL,
		CoverURL: coverURL,
	})
	if err != nil {
		p.fail(job.ID, fmt.Sprintf("database insert failed: %v", err))
		return
	}

	p.complete(job.ID, songID)

	if deleteSource {
		if err := os.Remove(filePath); err != nil {
			p.logger.WithError(err).WithField("file_path", filePath).Warn("Failed to remove ingested file")
		}
	}

	p.logger.WithFields(logrus.Fields{
		"job_id":  job.ID,
		"song_id": songID,
		"title":   info.Title,
		"artist":  info.Artist,
	}).Info("Song ingested")
}

func (p *Pipeline) uploadAudio(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(filePath))
	return p.store.UploadAudio(ctx, name, f, stat.Size(), p.extractor.GetContentType(filePath))
}

func (p *Pipeline) uploadCover(ctx context.Context, jobID string, info metadata.SongInfo, overrides Overrides) (string, error) {
	if overrides.CoverBase64 != "" {
		return p.store.UploadCoverBase64(ctx, jobID+".jpg", overrides.CoverBase64)
	}
	if info.Cover != nil {
		ext := ".jpg"
		if info.CoverMIME == "image/png" {
			ext = ".png"
		}
		return p.store.UploadCover(ctx, jobID+ext, strings.NewReader(string(info.Cover)), int64(len(info.Cover)), info.CoverMIME)
	}
	return "", nil
}

// Job returns a copy of one job, nil when unknown.
func (p *Pipeline) Job(id string) *database.IngestJob {
	return p.snapshot(id)
}

// Jobs returns copies of all known jobs, newest first.
func (p *Pipeline) Jobs() []database.IngestJob {
	p.jobsMux.RLock()
	defer p.jobsMux.RUnlock()

	out := make([]database.IngestJob, 0, len(p.jobs))
	for _, job := range p.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// CleanupCompleted drops finished jobs older than maxAge from memory.
func (p *Pipeline) CleanupCompleted(maxAge time.Duration) {
	p.jobsMux.Lock()
	defer p.jobsMux.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for id, job := range p.jobs {
		if job.Status == StatusCompleted || job.Status == StatusFailed {
			if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
				delete(p.jobs, id)
			}
		}
	}
}

func (p *Pipeline) update(id, status string, progress int, errMsg string) {
	p.jobsMux.Lock()
	job, ok := p.jobs[id]
	if ok {
		job.Status = status
		job.Progress = progress
		if errMsg != "" {
			job.Error = errMsg
		}
	}
	p.jobsMux.Unlock()
	if ok {
		p.persist(p.snapshot(id))
	}
}

func (p *Pipeline) fail(id, errMsg string) {
	p.jobsMux.Lock()
	job, ok := p.jobs[id]
	if ok {
		job.Status = StatusFailed
		job.Error = errMsg
		now := time.Now()
		job.CompletedAt = &now
	}
	p.jobsMux.Unlock()
	if ok {
		p.persist(p.snapshot(id))
		p.logger.WithField("job_id", id).Error(errMsg)
	}
}

func (p *Pipeline) complete(id string, songID int) {
	p.jobsMux.Lock()
	job, ok := p.jobs[id]
	if ok {
		job.Status = StatusCompleted
		job.Progress = 100
		job.SongID = songID
		now := time.Now()
		job.CompletedAt = &now
	}
	p.jobsMux.Unlock()
	if ok {
		p.persist(p.snapshot(id))
	}
}

func (p *Pipeline) snapshot(id string) *database.IngestJob {
	p.jobsMux.RLock()
	defer p.jobsMux.RUnlock()
	job, ok := p.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (p *Pipeline) persist(job *database.IngestJob) {
	if err := p.db.UpsertIngestJob(job); err != nil {
		p.logger.WithError(err).WithField("job_id", job.ID).Warn("Failed to persist ingest job")
	}
}
