package state

import (
	"errors"
	"testing"
	"time"

	"github.com/five82/reviewdeck/internal/reviews"
)

func review(id, createdAt string) reviews.Review {
	ts, err := reviews.ParseTimestamp(createdAt)
	if err != nil {
		panic(err)
	}
	return reviews.Review{ID: reviews.ID(id), UserName: "user-" + id, CreatedAt: reviews.Timestamp{Time: ts}}
}

func TestStore_ZeroValueIsIdle(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.Phase != PhaseIdle {
		t.Fatalf("Phase = %v, want idle", snap.Phase)
	}
	if len(snap.Reviews) != 0 {
		t.Fatalf("Reviews = %#v, want empty", snap.Reviews)
	}
	if _, ok := snap.LastUpdated(); ok {
		t.Fatalf("LastUpdated present on empty store")
	}
	if snap.LastUpdatedText() != "" {
		t.Fatalf("LastUpdatedText = %q, want empty", snap.LastUpdatedText())
	}
}

func TestStore_BeginAndApplySuccess(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(func() time.Time { return fixed })

	seq, ok := s.Begin()
	if !ok || seq != 1 {
		t.Fatalf("Begin = (%d, %v), want (1, true)", seq, ok)
	}
	snap := s.Snapshot()
	if snap.Phase != PhaseLoading || !snap.LoadingEmpty() {
		t.Fatalf("Phase = %v LoadingEmpty = %v, want loading and empty", snap.Phase, snap.LoadingEmpty())
	}
	if !snap.LastAttempt.Equal(fixed) {
		t.Fatalf("LastAttempt = %v, want %v", snap.LastAttempt, fixed)
	}

	if !s.Apply(seq, []reviews.Review{review("1", "2024-01-02T10:00:00Z")}, nil) {
		t.Fatalf("Apply returned false for current token")
	}
	snap = s.Snapshot()
	if snap.Phase != PhaseSuccess || len(snap.Reviews) != 1 {
		t.Fatalf("snapshot = %+v, want success with 1 review", snap)
	}
	want := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC).Local().Format(DisplayLayout)
	if got := snap.LastUpdatedText(); got != want {
		t.Fatalf("LastUpdatedText = %q, want %q", got, want)
	}
	if !snap.LastSuccess.Equal(fixed) {
		t.Fatalf("LastSuccess = %v, want %v", snap.LastSuccess, fixed)
	}
}

func TestStore_SnapshotClonesReviews(t *testing.T) {
	var s Store
	seq, _ := s.Begin()
	s.Apply(seq, []reviews.Review{review("1", "2024-01-02T10:00:00Z"), review("2", "2024-01-01T10:00:00Z")}, nil)

	snap := s.Snapshot()
	snap.Reviews[0].ID = "999"
	if got := s.Snapshot().Reviews[0].ID; got != "1" {
		t.Fatalf("Snapshot should clone reviews; got id %q want 1", got)
	}
}

func TestStore_ApplyErrorKeepsPreviousReviews(t *testing.T) {
	var s Store

	seq, _ := s.Begin()
	s.Apply(seq, []reviews.Review{review("1", "2024-01-02T10:00:00Z")}, nil)

	seq, _ = s.Begin()
	snap := s.Snapshot()
	if snap.Phase != PhaseLoading || len(snap.Reviews) != 1 {
		t.Fatalf("in-flight snapshot = %+v, want loading with previous review", snap)
	}
	if snap.LoadingEmpty() {
		t.Fatalf("LoadingEmpty = true with reviews present")
	}

	origErr := &reviews.ResponseError{StatusCode: 500, Path: "/api/reviews"}
	s.Apply(seq, nil, origErr)

	snap = s.Snapshot()
	if snap.Phase != PhaseError {
		t.Fatalf("Phase = %v, want error", snap.Phase)
	}
	if len(snap.Reviews) != 1 || snap.Reviews[0].ID != "1" {
		t.Fatalf("reviews changed on error: %#v", snap.Reviews)
	}
	if snap.ErrorMessage == "" {
		t.Fatalf("ErrorMessage is empty")
	}
	var respErr *reviews.ResponseError
	if !errors.As(snap.LastError, &respErr) || respErr.StatusCode != 500 {
		t.Fatalf("LastError = %v, want *ResponseError 500", snap.LastError)
	}
	if snap.LastError != error(origErr) {
		t.Fatalf("LastError = %v, want the recorded error", snap.LastError)
	}

	// The next cycle clears the error before it completes.
	if _, ok := s.Begin(); !ok {
		t.Fatalf("Begin returned false")
	}
	snap = s.Snapshot()
	if snap.ErrorMessage != "" || snap.LastError != nil {
		t.Fatalf("error not cleared at cycle start: %+v", snap)
	}
}

func TestSnapshot_LastUpdatedIgnoresZeroTimestamp(t *testing.T) {
	snap := Snapshot{
		Phase:   PhaseSuccess,
		Reviews: []reviews.Review{{ID: "1", UserName: "A"}},
	}
	if _, ok := snap.LastUpdated(); ok {
		t.Fatalf("LastUpdated present for a review without created_at")
	}
	if got := snap.LastUpdatedText(); got != "" {
		t.Fatalf("LastUpdatedText = %q, want empty", got)
	}
}

func TestStore_ApplyDiscardsSupersededToken(t *testing.T) {
	var s Store

	first, _ := s.Begin()
	second, _ := s.Begin()

	d2 := []reviews.Review{review("2", "2024-02-01T00:00:00Z")}
	d1 := []reviews.Review{review("1", "2024-01-01T00:00:00Z")}

	if !s.Apply(second, d2, nil) {
		t.Fatalf("Apply(second) returned false")
	}
	if s.Apply(first, d1, nil) {
		t.Fatalf("Apply(first) returned true for a superseded token")
	}
	snap := s.Snapshot()
	if snap.Phase != PhaseSuccess || len(snap.Reviews) != 1 || snap.Reviews[0].ID != "2" {
		t.Fatalf("snapshot = %+v, want success with D2", snap)
	}

	// A superseded failure must not flip the phase either.
	third, _ := s.Begin()
	fourth, _ := s.Begin()
	if s.Apply(third, nil, errors.New("late failure")) {
		t.Fatalf("Apply(third) returned true for a superseded token")
	}
	if snap := s.Snapshot(); snap.Phase != PhaseLoading {
		t.Fatalf("Phase = %v, want loading while fourth is in flight", snap.Phase)
	}
	s.Apply(fourth, nil, nil)
	if snap := s.Snapshot(); !snap.SuccessEmpty() {
		t.Fatalf("SuccessEmpty = false, snapshot = %+v", snap)
	}
}

func TestStore_CloseIgnoresLateResults(t *testing.T) {
	var s Store

	seq, _ := s.Begin()
	s.Close()
	if s.Apply(seq, []reviews.Review{review("1", "2024-01-01T00:00:00Z")}, nil) {
		t.Fatalf("Apply after Close returned true")
	}
	if _, ok := s.Begin(); ok {
		t.Fatalf("Begin after Close returned true")
	}
	if snap := s.Snapshot(); snap.Phase != PhaseLoading || len(snap.Reviews) != 0 {
		t.Fatalf("snapshot mutated after Close: %+v", snap)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	fail := func(msg string) {
		seq, _ := s.Begin()
		s.Apply(seq, nil, errors.New(msg))
	}

	fail("fail 1")
	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after one failure: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	fail("fail 2")
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after two failures: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	seq, _ := s.Begin()
	s.Apply(seq, nil, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}

func TestPhaseString(t *testing.T) {
	cases := map[Phase]string{
		PhaseIdle:    "idle",
		PhaseLoading: "loading",
		PhaseSuccess: "success",
		PhaseError:   "error",
		Phase(42):    "phase(42)",
	}
	for phase, want := range cases {
		if got := phase.String(); got != want {
			t.Fatalf("Phase(%d).String() = %q, want %q", int(phase), got, want)
		}
	}
}
