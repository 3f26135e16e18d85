package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"revify/pkg/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is wrapped by lookups that miss, so callers can
// distinguish a missing row from a storage failure.
var ErrNotFound = errors.New("not found")

// Database wraps a *sql.DB providing higher-level helper methods for
// interacting with the application's persistent store. It is safe for
// concurrent use because the underlying *sql.DB is concurrency-safe.
type Database struct {
	conn   *sql.DB
	logger *logrus.Logger

	// Prepared statements for better performance
	insertSongStmt  *sql.Stmt
	getSongByIDStmt *sql.Stmt
	searchSongsStmt *sql.Stmt
	listSongsStmt   *sql.Stmt
}

// New opens (or creates) a SQLite database at the provided path and
// ensures all required tables and indices exist. It also applies lightweight
// performance-oriented pragmas (WAL, cache sizing). Caller should Close() it
// when finished.
func New(dbPath string) (*Database, error) {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool - adjusted for SQLite
	conn.SetMaxOpenConns(5) // SQLite works better with fewer connections
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	// Enable WAL mode for better concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=2000;",
		"PRAGMA temp_store=memory;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA auto_vacuum=INCREMENTAL;",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	db := &Database{
		conn:   conn,
		logger: logger,
	}

	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := db.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("db_path", dbPath).Info("Database initialized successfully")
	return db, nil
}

// createTables creates tables and indices if they do not already exist, then
// executes any migrations. This is idempotent and safe to call multiple times.
func (db *Database) createTables() error {
	songsTable := `
	CREATE TABLE IF NOT EXISTS songs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		genre TEXT NOT NULL,
		duration INTEGER DEFAULT 0,
		audio_url TEXT NOT NULL,
		cover_url TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	usersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	likesTable := `
	CREATE TABLE IF NOT EXISTS likes (
		username TEXT NOT NULL,
		song_id INTEGER NOT NULL,
		liked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (song_id) REFERENCES songs(id) ON DELETE CASCADE,
		PRIMARY KEY (username, song_id)
	);`

	playlistsTable := `
	CREATE TABLE IF NOT EXISTS playlists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	playlistSongsTable := `
	CREATE TABLE IF NOT EXISTS playlist_songs (
		playlist_id INTEGER,
		song_id INTEGER,
		position INTEGER,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		FOREIGN KEY (song_id) REFERENCES songs(id) ON DELETE CASCADE,
		PRIMARY KEY (playlist_id, song_id)
	);`

	// Durable player state per device profile. Playback fields are
	// device-level; username and liked_ids mirror account-level state
	// and are the only columns cleared on logout.
	playerStateTable := `
	CREATE TABLE IF NOT EXISTS player_state (
		profile TEXT PRIMARY KEY,
		song_id INTEGER,
		position REAL DEFAULT 0,
		volume REAL DEFAULT 1,
		username TEXT,
		liked_ids TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	// Persistence for ingest pipeline jobs
	ingestJobsTable := `
	CREATE TABLE IF NOT EXISTS ingest_jobs (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		status TEXT,
		progress INTEGER,
		error TEXT,
		song_id INTEGER,
		created_at DATETIME,
		completed_at DATETIME
	);`

	// Create indices for better performance
	indices := []string{
		"CREATE INDEX IF NOT EXISTS idx_songs_artist ON songs(artist);",
		"CREATE INDEX IF NOT EXISTS idx_songs_genre ON songs(genre);",
		"CREATE INDEX IF NOT EXISTS idx_songs_search ON songs(title, artist, genre);",
		"CREATE INDEX IF NOT EXISTS idx_songs_created ON songs(created_at);",
		"CREATE INDEX IF NOT EXISTS idx_likes_user ON likes(username);",
		"CREATE INDEX IF NOT EXISTS idx_playlists_user ON playlists(username);",
		"CREATE INDEX IF NOT EXISTS idx_playlist_songs_playlist ON playlist_songs(playlist_id);",
		"CREATE INDEX IF NOT EXISTS idx_playlist_songs_position ON playlist_songs(playlist_id, position);",
		"CREATE INDEX IF NOT EXISTS idx_ingest_jobs_status ON ingest_jobs(status);",
		"CREATE INDEX IF NOT EXISTS idx_ingest_jobs_created ON ingest_jobs(created_at);",
	}

	tables := []string{songsTable, usersTable, likesTable, playlistsTable,
		playlistSongsTable, playerStateTable, ingestJobsTable}
	for _, table := range tables {
		if _, err := db.conn.Exec(table); err != nil {
			return err
		}
	}

	for _, index := range indices {
		if _, err := db.conn.Exec(index); err != nil {
			return err
		}
	}

	return nil
}

// prepareStatements prepares commonly used SQL statements for better performance
func (db *Database) prepareStatements() error {
	var err error

	db.insertSongStmt, err = db.conn.Prepare(`
		INSERT INTO songs (title, artist, genre, duration, audio_url, cover_url)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert song statement: %w", err)
	}

	db.getSongByIDStmt, err = db.conn.Prepare(`
		SELECT id, title, artist, genre, duration, audio_url, cover_url, created_at
		FROM songs WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get song by ID statement: %w", err)
	}

	db.searchSongsStmt, err = db.conn.Prepare(`
		SELECT id, title, artist, genre, duration, audio_url, cover_url, created_at
		FROM songs
		WHERE title LIKE ? OR artist LIKE ? OR genre LIKE ?
		ORDER BY created_at DESC`)
	if err != nil {
		return fmt.Errorf("failed to prepare search songs statement: %w", err)
	}

	db.listSongsStmt, err = db.conn.Prepare(`
		SELECT id, title, artist, genre, duration, audio_url, cover_url, created_at
		FROM songs
		ORDER BY created_at DESC`)
	if err != nil {
		return fmt.Errorf("failed to prepare list songs statement: %w", err)
	}

	return nil
}

// InsertSong inserts a new song record returning its database ID.
func (db *Database) InsertSong(song models.Song) (int, error) {
	result, err := db.insertSongStmt.Exec(
		song.Title, song.Artist, song.Genre, song.Duration, song.AudioURL, song.CoverURL)
	if err != nil {
		db.logger.WithError(err).WithField("title", song.Title).Error("Failed to insert song")
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		db.logger.WithError(err).Error("Failed to get last insert ID")
		return 0, err
	}

	return int(id), nil
}

// GetAllSongs returns all songs, newest first.
func (db *Database) GetAllSongs() ([]models.Song, error) {
	rows, err := db.listSongsStmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSongRows(rows)
}

// GetSongByID returns a single song by its ID.
func (db *Database) GetSongByID(id int) (*models.Song, error) {
	var song models.Song
	err := db.getSongByIDStmt.QueryRow(id).Scan(
		&song.ID, &song.Title, &song.Artist, &song.Genre, &song.Duration,
		&song.AudioURL, &song.CoverURL, &song.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("song with ID %d: %w", id, ErrNotFound)
		}
		db.logger.WithError(err).WithField("song_id", id).Error("Failed to get song by ID")
		return nil, err
	}
	return &song, nil
}

// SearchSongs performs a simple LIKE-based search over title, artist and genre.
func (db *Database) SearchSongs(query string) ([]models.Song, error) {
	searchQuery := "%" + query + "%"
	rows, err := db.searchSongsStmt.Query(searchQuery, searchQuery, searchQuery)
	if err != nil {
		db.logger.WithError(err).WithField("query", query).Error("Failed to search songs")
		return nil, err
	}
	defer rows.Close()
	return scanSongRows(rows)
}

// GetSongsByGenre returns songs of a given genre, newest first.
func (db *Database) GetSongsByGenre(genre string) ([]models.Song, error) {
	rows, err := db.conn.Query(`
		SELECT id, title, artist, genre, duration, audio_url, cover_url, created_at
		FROM songs
		WHERE genre = ?
		ORDER BY created_at DESC`, genre)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSongRows(rows)
}

// DeleteSong deletes a song row and any playlist/like references to it.
func (db *Database) DeleteSong(id int) error {
	_, err := db.conn.Exec("DELETE FROM songs WHERE id = ?", id)
	return err
}

// Close closes the underlying database connection and prepared statements.
func (db *Database) Close() error {
	// Close prepared statements
	statements := []*sql.Stmt{
		db.insertSongStmt,
		db.getSongByIDStmt,
		db.searchSongsStmt,
		db.listSongsStmt,
	}

	for _, stmt := range statements {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				db.logger.WithError(err).Error("Failed to close prepared statement")
			}
		}
	}

	// Close database connection
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// scanSongRows scans standard song result sets into a slice of models.Song.
// It centralizes row iteration logic to reduce duplication across query
// helpers. Callers must have already deferred rows.Close().
func scanSongRows(rows *sql.Rows) ([]models.Song, error) {
	var songs []models.Song
	for rows.Next() {
		var song models.Song
		if err := rows.Scan(&song.ID, &song.Title, &song.Artist, &song.Genre,
			&song.Duration, &song.AudioURL, &song.CoverURL, &song.CreatedAt); err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}
