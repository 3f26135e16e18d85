package player

import "fmt"

// PlaybackError reports that the audio resource failed to load or play a
// track. It is recoverable: the player stays paused and the user can retry.
type PlaybackError struct {
	SongID int
	Err    error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback failed for song %d: %v", e.SongID, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// QueueEmptyError reports that next/previous was requested against an empty
// catalog. Callers treat it as a no-track state rather than a failure.
type QueueEmptyError struct{}

func (e *QueueEmptyError) Error() string {
	return "no tracks available to play"
}

// PersistenceError reports a durable-storage read or write failure. It is
// logged and swallowed; in-memory state stays authoritative for the session.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ServiceError reports a failed collaborator call (likes, playlists). Any
// optimistic local change is rolled back before this is returned.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service call %s failed: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
