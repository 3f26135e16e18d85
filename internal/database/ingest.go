package database

import (
	"database/sql"
	"time"
)

// IngestJob is the persisted record for a single upload/import job.
type IngestJob struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Error       string     `json:"error,omitempty"`
	SongID      int        `json:"song_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// UpsertIngestJob inserts or updates an ingest job record by ID.
func (db *Database) UpsertIngestJob(job *IngestJob) error {
	_, err := db.conn.Exec(`
		INSERT INTO ingest_jobs (id, filename, status, progress, error, song_id, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename=excluded.filename,
			status=excluded.status,
			progress=excluded.progress,
			error=excluded.error,
			song_id=excluded.song_id,
			completed_at=excluded.completed_at
	`, job.ID, job.Filename, job.Status, job.Progress, job.Error, job.SongID, job.CreatedAt, job.CompletedAt)
	return err
}

// GetAllIngestJobs returns all persisted ingest jobs, newest first.
func (db *Database) GetAllIngestJobs() ([]IngestJob, error) {
	rows, err := db.conn.Query(`
		SELECT id, filename, status, progress, error, song_id, created_at, completed_at
		FROM ingest_jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []IngestJob
	for rows.Next() {
		var job IngestJob
		var errMsg sql.NullString
		var songID sql.NullInt64
		var completedAt sql.NullTime
		if err := rows.Scan(&job.ID, &job.Filename, &job.Status, &job.Progress,
			&errMsg, &songID, &job.CreatedAt, &completedAt); err != nil {
			return nil, err
		}
		job.Error = errMsg.String
		job.SongID = int(songID.Int64)
		if completedAt.Valid {
			job.CompletedAt = &completedAt.Time
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
