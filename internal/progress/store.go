package progress

import (
	"context"
	"sort"
	"sync"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
)

// State is the store lifecycle phase visible to consumers.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Snapshot is one consistent view of the store. On StateError, Records still
// holds the last successful result so consumers can keep rendering
// stale-but-valid data through a transient failure.
type Snapshot struct {
	State   State
	Records []*domain.ProgressRecord
	Err     error
}

// Store mirrors one user's progress records for the duration of a client
// session. Operations are serialized, two updates to the same lesson can
// never interleave, so time_spent increments are not lost.
type Store struct {
	userID  string
	useCase domain.ProgressUseCase

	opMu sync.Mutex // serializes Fetch/Update/ResetAll/Initialize

	mu       sync.RWMutex
	state    State
	records  map[string]*domain.ProgressRecord // keyed by record id
	lastErr  error
	watchers map[chan Snapshot]struct{}
}

// NewStore create a store scoped to one user session
func NewStore(userID string, useCase domain.ProgressUseCase) *Store {
	return &Store{
		userID:   userID,
		useCase:  useCase,
		state:    StateEmpty,
		records:  make(map[string]*domain.ProgressRecord),
		watchers: make(map[chan Snapshot]struct{}),
	}
}

// Fetch reload the full record set, replace-all on success
func (s *Store) Fetch(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading()
	records, err := s.useCase.FetchAll(ctx, s.userID, "")
	if err != nil {
		s.setError(err)
		return err
	}
	s.replaceAll(records)
	return nil
}

// Update apply a partial update to one lesson, replace-by-id on success
func (s *Store) Update(ctx context.Context, lessonID string, update *domain.ProgressUpdate) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading()
	record, err := s.useCase.Upsert(ctx, s.userID, lessonID, update)
	if err != nil {
		s.setError(err)
		return err
	}
	s.mergeRecord(record)
	return nil
}

// ResetAll wipe and reseed the record set
func (s *Store) ResetAll(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading()
	records, err := s.useCase.ResetAll(ctx, s.userID)
	if err != nil {
		s.setError(err)
		return err
	}
	s.replaceAll(records)
	return nil
}

// Initialize seed the catalog record set
func (s *Store) Initialize(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading()
	records, err := s.useCase.Initialize(ctx, s.userID)
	if err != nil {
		s.setError(err)
		return err
	}
	s.replaceAll(records)
	return nil
}

// Snapshot return a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Watch subscribe to state transitions. Slow consumers drop intermediate
// snapshots instead of blocking store operations. The returned function
// cancels the subscription.
func (s *Store) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.watchers[ch]; ok {
			delete(s.watchers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) setLoading() {
	s.mu.Lock()
	s.state = StateLoading
	s.notifyLocked()
	s.mu.Unlock()
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	s.state = StateError
	s.lastErr = err
	s.notifyLocked()
	s.mu.Unlock()
}

func (s *Store) replaceAll(records []*domain.ProgressRecord) {
	s.mu.Lock()
	s.records = make(map[string]*domain.ProgressRecord, len(records))
	for _, record := range records {
		s.records[record.ID] = record
	}
	s.state = StateReady
	s.lastErr = nil
	s.notifyLocked()
	s.mu.Unlock()
}

func (s *Store) mergeRecord(record *domain.ProgressRecord) {
	s.mu.Lock()
	s.records[record.ID] = record
	s.state = StateReady
	s.lastErr = nil
	s.notifyLocked()
	s.mu.Unlock()
}

func (s *Store) snapshotLocked() Snapshot {
	records := make([]*domain.ProgressRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LessonID < records[j].LessonID
	})
	return Snapshot{
		State:   s.state,
		Records: records,
		Err:     s.lastErr,
	}
}

func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	for ch := range s.watchers {
		select {
		case ch <- snap:
		default:
		}
	}
}
