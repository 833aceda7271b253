package flashquiz

import (
	"fmt"
	"sync"
)

// GenerationStatus tracks background generation for a session
type GenerationStatus struct {
	Done      int
	Total     int // questions planned
	Requested int
	Shortfall int // requested minus generated, once finished
	Finished  bool
	Skipped   []SkippedQuestion
	Err       error
}

type storeEntry struct {
	session    *QuizSession
	generation GenerationStatus
}

// SessionStore maps a user key to that user's current quiz session.
// Beginning a new quiz always replaces the previous session, and results
// produced for a replaced session are dropped.
type SessionStore struct {
	mu      sync.Mutex
	entries map[string]*storeEntry
}

// NewSessionStore creates an empty store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		entries: make(map[string]*storeEntry),
	}
}

// Begin installs a fresh session for the user and returns it
func (st *SessionStore) Begin(key string) *QuizSession {
	st.mu.Lock()
	defer st.mu.Unlock()

	session := NewQuizSession()
	st.entries[key] = &storeEntry{session: session}
	VerboseLog("Began quiz session %s", session.ID)
	return session
}

// Do runs fn with the user's current session while holding the store lock
func (st *SessionStore) Do(key string, fn func(s *QuizSession, gen GenerationStatus) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	entry, ok := st.entries[key]
	if !ok {
		return fmt.Errorf("%w: no quiz session", ErrInvalidState)
	}
	return fn(entry.session, entry.generation)
}

// Progress records generation progress for a session if it is still current
func (st *SessionStore) Progress(key string, session *QuizSession, done, total int) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	entry, err := st.current(key, session)
	if err != nil {
		return err
	}
	entry.generation.Done = done
	entry.generation.Total = total
	return nil
}

// Finish applies generation results to a session if it is still current.
// The session is started when at least one question was generated.
func (st *SessionStore) Finish(key string, session *QuizSession, result *GenerationResult, genErr error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	entry, err := st.current(key, session)
	if err != nil {
		return err
	}

	entry.generation.Finished = true
	if genErr != nil {
		entry.generation.Err = genErr
		return nil
	}

	entry.generation.Skipped = result.Skipped
	entry.generation.Total = result.Planned
	entry.generation.Requested = result.Requested
	entry.generation.Shortfall = result.Shortfall()
	if len(result.Questions) == 0 {
		entry.generation.Err = fmt.Errorf("failed to generate quiz: none of %d questions could be generated", result.Planned)
		return nil
	}
	return session.Start(result.Questions)
}

// Discard removes the user's session
func (st *SessionStore) Discard(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.entries, key)
}

func (st *SessionStore) current(key string, session *QuizSession) (*storeEntry, error) {
	entry, ok := st.entries[key]
	if !ok || entry.session != session {
		return nil, fmt.Errorf("%w: %s", ErrSessionReplaced, session.ID)
	}
	return entry, nil
}
