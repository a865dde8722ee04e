package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/reviewdeck/internal/reviews"
)

// DisplayLayout formats timestamps for display.
const DisplayLayout = "2006-01-02 15:04:05"

// Phase is the coarse status of the most recent fetch cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Snapshot is an immutable view of the sync state.
type Snapshot struct {
	Phase        Phase
	Reviews      []reviews.Review
	ErrorMessage string // set only in PhaseError
	LastError    error  // set only in PhaseError

	Seq                 uint64 // token of the most recently begun cycle
	LastAttempt         time.Time
	LastSuccess         time.Time
	ConsecutiveFailures int
}

// LastUpdated returns the creation time of the newest review. ok is false
// when there are no reviews or the newest one carries no timestamp.
func (s Snapshot) LastUpdated() (ts time.Time, ok bool) {
	if len(s.Reviews) == 0 || s.Reviews[0].CreatedAt.IsZero() {
		return time.Time{}, false
	}
	return s.Reviews[0].CreatedAt.Time, true
}

// LastUpdatedText formats LastUpdated in local time, or returns "" when
// there are no reviews.
func (s Snapshot) LastUpdatedText() string {
	ts, ok := s.LastUpdated()
	if !ok {
		return ""
	}
	return ts.Local().Format(DisplayLayout)
}

// IsOffline returns true when the service has failed several cycles in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// LoadingEmpty reports a first load still in progress.
func (s Snapshot) LoadingEmpty() bool {
	return s.Phase == PhaseLoading && len(s.Reviews) == 0
}

// SuccessEmpty reports a completed load that returned no reviews.
func (s Snapshot) SuccessEmpty() bool {
	return s.Phase == PhaseSuccess && len(s.Reviews) == 0
}

// Store owns the sync state. Every cycle takes a sequence token from Begin
// and hands it back to Apply; only the latest token is ever applied.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	closed   bool
	now      func() time.Time
}

// NewStore returns a Store that stamps attempts with now. A zero Store is
// also ready to use and stamps with time.Now.
func NewStore(now func() time.Time) *Store {
	return &Store{now: now}
}

// Begin starts a cycle: the phase becomes Loading, any error is cleared and
// a fresh token is returned. ok is false once the store is closed.
func (s *Store) Begin() (seq uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, false
	}
	s.snapshot.Seq++
	s.snapshot.Phase = PhaseLoading
	s.snapshot.ErrorMessage = ""
	s.snapshot.LastError = nil
	s.snapshot.LastAttempt = s.timeNow()
	return s.snapshot.Seq, true
}

// Apply records the outcome of cycle seq. When err is non-nil the previous
// reviews are kept and the error is recorded. The result is dropped, and
// false returned, if the store is closed or a newer cycle has begun.
func (s *Store) Apply(seq uint64, list []reviews.Review, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || seq != s.snapshot.Seq {
		return false
	}

	if err != nil {
		s.snapshot.Phase = PhaseError
		s.snapshot.LastError = err
		s.snapshot.ErrorMessage = err.Error()
		if s.snapshot.ErrorMessage == "" {
			s.snapshot.ErrorMessage = "unexpected error"
		}
		s.snapshot.ConsecutiveFailures++
		return true
	}

	s.snapshot.Phase = PhaseSuccess
	s.snapshot.Reviews = cloneReviews(list)
	s.snapshot.LastSuccess = s.timeNow()
	s.snapshot.ConsecutiveFailures = 0
	return true
}

// Close invalidates in-flight cycles. Later Begin and Apply calls are no-ops.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Reviews = cloneReviews(s.snapshot.Reviews)
	return snap
}

func (s *Store) timeNow() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func cloneReviews(items []reviews.Review) []reviews.Review {
	if len(items) == 0 {
		return nil
	}
	dup := make([]reviews.Review, len(items))
	copy(dup, items)
	return dup
}
