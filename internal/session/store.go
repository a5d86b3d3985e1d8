// Package session holds per-session accumulated transcript segments and
// claims for live debate monitoring. Sessions live for the lifetime of the
// process; there is no deletion path.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/debatelens/factwatch/internal/model"
)

// ErrNotFound is returned for lookups against an unknown session id.
var ErrNotFound = eris.New("session not found")

// Session is a bounded live debate-monitoring context. Segments and claims
// are append-only within the pipeline's scope.
type Session struct {
	ID        string            `json:"sessionId"`
	StartedAt float64           `json:"startedAt"`
	Speakers  map[string]string `json:"speakers"`
	Segments  []model.Segment   `json:"segments"`
	Claims    []model.Claim     `json:"claims"`
}

// Store is the in-memory session registry. It is safe for concurrent use;
// only the enrichment orchestrator mutates a session's segment and claim
// lists.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// DefaultSpeakers returns the speaker label map used when the caller does
// not supply one.
func DefaultSpeakers() map[string]string {
	return map[string]string{
		"spk_0": "Speaker A",
		"spk_1": "Speaker B",
	}
}

// Create registers a new session. An empty id generates a wall-clock-derived
// one; a caller-supplied id that collides with an existing session silently
// overwrites it, so uniqueness is the caller's responsibility.
func (s *Store) Create(id string, speakers map[string]string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if id == "" {
		id = fmt.Sprintf("live_%d", now.UnixMilli())
	}
	if len(speakers) == 0 {
		speakers = DefaultSpeakers()
	}

	sess := &Session{
		ID:        id,
		StartedAt: float64(now.UnixNano()) / 1e9,
		Speakers:  speakers,
		Segments:  []model.Segment{},
		Claims:    []model.Claim{},
	}
	s.sessions[id] = sess
	return sess
}

// Get returns the session for id, or ErrNotFound.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, eris.Wrap(ErrNotFound, id)
	}
	return sess, nil
}

// AppendSegment appends a segment to the session's transcript.
func (s *Store) AppendSegment(id string, seg model.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return eris.Wrap(ErrNotFound, id)
	}
	sess.Segments = append(sess.Segments, seg)
	return nil
}

// AppendClaims appends claims to the session in order.
func (s *Store) AppendClaims(id string, claims ...model.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return eris.Wrap(ErrNotFound, id)
	}
	sess.Claims = append(sess.Claims, claims...)
	return nil
}

// Snapshot returns a copy of the session safe to serialize while other
// requests keep appending.
func (s *Store) Snapshot(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, eris.Wrap(ErrNotFound, id)
	}

	speakers := make(map[string]string, len(sess.Speakers))
	for k, v := range sess.Speakers {
		speakers[k] = v
	}
	out := &Session{
		ID:        sess.ID,
		StartedAt: sess.StartedAt,
		Speakers:  speakers,
		Segments:  append([]model.Segment{}, sess.Segments...),
		Claims:    append([]model.Claim{}, sess.Claims...),
	}
	return out, nil
}
