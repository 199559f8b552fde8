// Package session holds the state shared by the actions and the editor for
// the lifetime of one client session.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/observability"
)

// Snapshot is a consistent copy of the session fields.
type Snapshot struct {
	Document *domain.Questionnaire
	Revision uint64
	Loading  bool
	Progress float64
	Message  string
}

// Listener is notified synchronously after every write.
type Listener func(Snapshot)

// Session owns the current document and the load progress. Reads may happen
// from any goroutine; writes are expected from one active job or edit at a
// time, which callers enforce.
type Session struct {
	id     string
	logger *observability.Logger

	mu        sync.RWMutex
	document  *domain.Questionnaire
	revision  uint64
	loading   bool
	progress  float64
	message   string
	listeners map[int]Listener
	nextID    int
}

// New creates an empty session.
func New(logger *observability.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:        id,
		logger:    observability.OrNop(logger).WithSession(id),
		listeners: make(map[int]Listener),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Document returns the current questionnaire, nil when none is loaded.
func (s *Session) Document() *domain.Questionnaire {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document
}

// Revision changes every time the document is replaced.
func (s *Session) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Loading reports whether a job is in flight.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Document: s.document,
		Revision: s.revision,
		Loading:  s.loading,
		Progress: s.progress,
		Message:  s.message,
	}
}

// SetDocument replaces the document wholesale and returns the new revision.
func (s *Session) SetDocument(q *domain.Questionnaire) uint64 {
	rev := s.update(func() {
		s.document = q
		s.revision++
	})
	title := ""
	if q != nil {
		title = q.Title
	}
	s.logger.Debug().Uint64("revision", rev).Str("title", title).Msg("Document replaced")
	return rev
}

// BeginLoad marks a job as in flight and resets progress.
func (s *Session) BeginLoad() {
	s.update(func() {
		s.loading = true
		s.progress = 0
		s.message = ""
	})
}

// SetProgress records the latest progress report.
func (s *Session) SetProgress(percent float64, message string) {
	s.update(func() {
		s.progress = percent
		s.message = message
	})
}

// EndLoad returns the session to idle.
func (s *Session) EndLoad() {
	s.update(func() {
		s.loading = false
		s.progress = 0
		s.message = ""
	})
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// update applies mutate under the write lock, then notifies listeners
// outside of it so they may read the session.
func (s *Session) update(mutate func()) uint64 {
	s.mu.Lock()
	mutate()
	snap := s.snapshotLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return snap.Revision
}
