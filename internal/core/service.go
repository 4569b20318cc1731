package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/cleanlytics/internal/metrics"
	"github.com/google/uuid"
	"golang.org/x/text/encoding"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found or expired")

	// ErrSessionLimit is returned when the store already holds MaxSessions.
	ErrSessionLimit = errors.New("session limit reached")
)

// Defaults applied by NewService to zero-valued options.
const (
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 100
)

// ServiceOptions configure a Service.
type ServiceOptions struct {
	SessionTTL     time.Duration
	MaxSessions    int
	MaxUploadBytes int64
	Fallback       encoding.Encoding // decoder for non-UTF-8 uploads; nil replaces invalid bytes
	MaxConcurrent  int               // parallel ingestions
	MaxWait        time.Duration     // how long an ingestion waits for a slot
}

// Service keeps the live sessions and ingests uploads into them.
type Service struct {
	opts    ServiceOptions
	limiter *UploadLimiter
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a Service.
func NewService(opts ServiceOptions) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}

	return &Service{
		opts:     opts,
		limiter:  NewUploadLimiter(opts.MaxConcurrent, opts.MaxWait),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Limiter exposes the ingestion limiter for status reporting and shutdown.
func (s *Service) Limiter() *UploadLimiter {
	return s.limiter
}

// Ingest parses an upload into a table while holding an ingestion slot.
func (s *Service) Ingest(ctx context.Context, r io.Reader, fileName string) (*Table, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	t, err := Ingest(r, fileName, IngestOptions{
		MaxBytes: s.opts.MaxUploadBytes,
		Fallback: s.opts.Fallback,
	})
	metrics.RecordStep("ingest", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Upload ingests a file and loads it into the session id. An empty or
// unknown id starts a new session. When parsing fails no session is created
// or changed.
func (s *Service) Upload(ctx context.Context, id string, r io.Reader, fileName string) (*Session, error) {
	t, err := s.Ingest(ctx, r, fileName)
	if err != nil {
		return nil, err
	}

	sess, err := s.Get(id)
	if err != nil {
		if sess, err = s.Create(); err != nil {
			return nil, err
		}
	}
	sess.Load(t, fileName)
	return sess, nil
}

// Create starts an empty session.
func (s *Service) Create() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.opts.MaxSessions {
		return nil, fmt.Errorf("%w (%d)", ErrSessionLimit, s.opts.MaxSessions)
	}

	sess := NewSession(uuid.NewString(), s.now())
	s.sessions[sess.ID] = sess
	metrics.SetSessions(len(s.sessions))

	slog.Debug("session created", "session_id", sess.ID)
	return sess, nil
}

// Get returns a live session and marks it as used.
func (s *Service) Get(id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.now()
	if now.Sub(sess.idleSince()) > s.opts.SessionTTL {
		s.Delete(id)
		return nil, ErrSessionNotFound
	}
	sess.touch(now)
	return sess, nil
}

// Delete discards a session. Unknown IDs are ignored.
func (s *Service) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)
	metrics.SetSessions(len(s.sessions))
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Service) Sweep() int {
	cutoff := s.now().Add(-s.opts.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.SetSessions(len(s.sessions))
	}
	return removed
}
