package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"revify/internal/player"
)

// Session represents one connected client.
type Session struct {
	ID           string    `json:"id"`
	Profile      string    `json:"profile"`
	UserAgent    string    `json:"userAgent"`
	IPAddress    string    `json:"ipAddress"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

type entry struct {
	session     *Session
	coordinator *player.Coordinator
}

// BuildCoordinator constructs a coordinator for a device profile. Injected
// so the manager stays free of wiring concerns.
type BuildCoordinator func(profile string) *player.Coordinator

// Manager owns one playback coordinator per session and reaps idle ones.
// The device profile keys durable state, so reconnecting with the same
// profile picks up where the old session left off.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	build    BuildCoordinator
	timeout  time.Duration
	logger   *logrus.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager. Sessions idle longer than timeout
// are closed and their coordinator released.
func NewManager(timeout time.Duration, build BuildCoordinator, logger *logrus.Logger) *Manager {
	m := &Manager{
		sessions: make(map[string]*entry),
		build:    build,
		timeout:  timeout,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	go m.reapLoop()
	return m
}

// Create opens a new session for a device profile and rehydrates its
// coordinator from durable state.
func (m *Manager) Create(profile, userAgent, ipAddress string) *Session {
	if profile == "" {
		profile = generateID()
	}

	session := &Session{
		ID:           generateID(),
		Profile:      profile,
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}

	coordinator := m.build(profile)
	coordinator.Rehydrate()

	m.mu.Lock()
	m.sessions[session.ID] = &entry{session: session, coordinator: coordinator}
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"profile":    profile,
	}).Info("Session created")

	return session
}

// Get returns the session and its coordinator, refreshing the activity
// timestamp. ok is false for unknown or expired sessions.
func (m *Manager) Get(sessionID string) (*Session, *player.Coordinator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil, false
	}
	e.session.LastActivity = time.Now()
	return e.session, e.coordinator, true
}

// Remove closes a session and releases its coordinator.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if ok {
		e.coordinator.Close()
		m.logger.WithField("session_id", sessionID).Info("Session removed")
	}
}

// All returns a copy of the live sessions.
func (m *Manager) All() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		copied := *e.session
		out = append(out, &copied)
	}
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the reaper and releases every coordinator.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	entries := make([]*entry, 0, len(m.sessions))
	for id, e := range m.sessions {
		entries = append(entries, e)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, e := range entries {
		e.coordinator.Close()
	}
}

func (m *Manager) reapLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.reapExpired()
		}
	}
}

func (m *Manager) reapExpired() {
	now := time.Now()

	m.mu.Lock()
	var expired []*entry
	for id, e := range m.sessions {
		if now.Sub(e.session.LastActivity) > m.timeout {
			expired = append(expired, e)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, e := range expired {
		e.coordinator.Close()
		m.logger.WithFields(logrus.Fields{
			"session_id": e.session.ID,
			"profile":    e.session.Profile,
		}).Info("Session expired")
	}
}

func generateID() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
