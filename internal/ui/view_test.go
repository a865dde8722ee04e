package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/reviewdeck/internal/prefs"
	"github.com/five82/reviewdeck/internal/reviews"
	"github.com/five82/reviewdeck/internal/state"
)

type fakeSyncer struct {
	snap     state.Snapshot
	refresh  atomic.Int32
	accepted bool
	changes  chan struct{}
}

func newFakeSyncer(snap state.Snapshot) *fakeSyncer {
	return &fakeSyncer{snap: snap, accepted: true, changes: make(chan struct{}, 1)}
}

func (f *fakeSyncer) State() state.Snapshot { return f.snap }

func (f *fakeSyncer) RefreshNow() bool {
	f.refresh.Add(1)
	return f.accepted
}

func (f *fakeSyncer) Changes() <-chan struct{} { return f.changes }

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleReviews(n int) []reviews.Review {
	out := make([]reviews.Review, n)
	for i := range out {
		out[i] = reviews.Review{
			ID:            reviews.ID(fmt.Sprint(n - i)),
			UserName:      fmt.Sprintf("user-%d", i),
			ProductName:   "Kettle",
			ProductReview: "Boils fast",
			CreatedAt:     reviews.Timestamp{Time: fixedNow.Add(-time.Duration(i) * time.Hour)},
		}
	}
	return out
}

func newTestModel(t *testing.T, syncer Syncer, opts ...func(*Options)) Model {
	t.Helper()
	o := Options{
		Syncer: syncer,
		Prefs:  prefs.Defaults(),
		Now:    func() time.Time { return fixedNow },
	}
	for _, fn := range opts {
		fn(&o)
	}
	m := New(o)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 30})
	return updated.(Model)
}

func press(t *testing.T, m Model, keys string) Model {
	t.Helper()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return updated.(Model)
}

func TestView_BeforeSizeKnown(t *testing.T) {
	m := New(Options{Syncer: newFakeSyncer(state.Snapshot{})})
	assert.Equal(t, "Starting...", m.View())
}

func TestView_EmptyStatesAreDistinct(t *testing.T) {
	loading := newTestModel(t, newFakeSyncer(state.Snapshot{Phase: state.PhaseLoading})).View()
	assert.Contains(t, loading, loadingEmptyText)
	assert.NotContains(t, loading, successEmptyText)
	assert.Contains(t, loading, "Refreshing...")

	empty := newTestModel(t, newFakeSyncer(state.Snapshot{Phase: state.PhaseSuccess})).View()
	assert.Contains(t, empty, successEmptyText)
	assert.NotContains(t, empty, loadingEmptyText)
	assert.Contains(t, empty, "never")
}

func TestView_IdleShowsNoEmptyStateText(t *testing.T) {
	out := newTestModel(t, newFakeSyncer(state.Snapshot{})).View()
	assert.NotContains(t, out, loadingEmptyText)
	assert.NotContains(t, out, successEmptyText)
	assert.NotContains(t, out, errorEmptyText)
	assert.Contains(t, out, titleText)
}

func TestView_RendersReviewsAndHeader(t *testing.T) {
	snap := state.Snapshot{Phase: state.PhaseSuccess, Reviews: sampleReviews(2)}
	out := newTestModel(t, newFakeSyncer(snap)).View()

	assert.Contains(t, out, eyebrowText)
	assert.Contains(t, out, titleText)
	assert.Contains(t, out, snap.LastUpdatedText())
	assert.Contains(t, out, "just now")
	assert.Contains(t, out, "user-0")
	assert.Contains(t, out, "user-1")
	assert.Contains(t, out, "Timestamp")
	assert.NotContains(t, out, "Could not load reviews")
}

func TestView_ErrorBannerKeepsReviews(t *testing.T) {
	err := &reviews.ResponseError{StatusCode: 500, Path: "/api/reviews"}
	snap := state.Snapshot{
		Phase:               state.PhaseError,
		Reviews:             sampleReviews(1),
		ErrorMessage:        err.Error(),
		LastError:           fmt.Errorf("%w", err),
		ConsecutiveFailures: 2,
	}
	out := newTestModel(t, newFakeSyncer(snap)).View()

	assert.Contains(t, out, "Could not load reviews. "+err.Error()+". Try refreshing.")
	assert.Contains(t, out, "HTTP 500")
	assert.Contains(t, out, "OFFLINE")
	assert.Contains(t, out, "user-0")
}

func TestBannerText(t *testing.T) {
	assert.Equal(t, "Could not load reviews. boom. Try refreshing.", bannerText("boom."))
	assert.Equal(t, "Could not load reviews. unexpected error. Try refreshing.", bannerText("  "))
}

func TestClassifyFetchError(t *testing.T) {
	refused := &reviews.TransportError{Op: "GET", Err: fmt.Errorf("dial: %w", syscall.ECONNREFUSED)}
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"status", &reviews.ResponseError{StatusCode: 503}, "HTTP 503"},
		{"parse", &reviews.ParseError{Err: errors.New("bad")}, "Unreadable response"},
		{"refused", refused, "Service not running"},
		{"timeout", &reviews.TransportError{Op: "GET", Err: context.DeadlineExceeded}, "Connection timeout"},
		{"other transport", &reviews.TransportError{Op: "GET", Err: errors.New("reset")}, "Service unreachable"},
		{"unknown", errors.New("odd"), "Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyFetchError(tc.err))
		})
	}
}

func TestRefreshKey_IgnoredWhileLoading(t *testing.T) {
	syncer := newFakeSyncer(state.Snapshot{Phase: state.PhaseLoading})
	m := newTestModel(t, syncer)
	press(t, m, "r")
	assert.Equal(t, int32(0), syncer.refresh.Load())

	syncer.snap = state.Snapshot{Phase: state.PhaseError, ErrorMessage: "x"}
	m = newTestModel(t, syncer)
	press(t, m, "r")
	assert.Equal(t, int32(1), syncer.refresh.Load())
}

func TestNavigation_ClampsSelection(t *testing.T) {
	m := newTestModel(t, newFakeSyncer(state.Snapshot{Phase: state.PhaseSuccess, Reviews: sampleReviews(3)}))

	m = press(t, m, "G")
	assert.Equal(t, 2, m.selected)
	m = press(t, m, "j")
	assert.Equal(t, 2, m.selected)
	m = press(t, m, "g")
	assert.Equal(t, 0, m.selected)
	m = press(t, m, "k")
	assert.Equal(t, 0, m.selected)
}

func TestNavigation_ScrollsWindow(t *testing.T) {
	m := newTestModel(t, newFakeSyncer(state.Snapshot{Phase: state.PhaseSuccess, Reviews: sampleReviews(50)}))
	rows := m.listHeight()
	require.Less(t, rows, 50)

	m = press(t, m, "G")
	assert.Equal(t, 49, m.selected)
	assert.Equal(t, 50-rows, m.offset)
	assert.Contains(t, m.View(), "user-49")
	assert.NotContains(t, m.View(), "user-0 ")
}

func TestChangedMsg_ReloadsSnapshot(t *testing.T) {
	syncer := newFakeSyncer(state.Snapshot{Phase: state.PhaseLoading})
	m := newTestModel(t, syncer)

	syncer.snap = state.Snapshot{Phase: state.PhaseSuccess, Reviews: sampleReviews(1)}
	updated, cmd := m.Update(changedMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, state.PhaseSuccess, updated.(Model).snapshot.Phase)
}

func TestThemeKey_CyclesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m := newTestModel(t, newFakeSyncer(state.Snapshot{}), func(o *Options) { o.PrefsPath = path })

	m = press(t, m, "T")
	assert.Equal(t, NextTheme(prefs.Defaults().Theme), m.theme.Name)

	saved, err := prefs.Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.theme.Name, saved.Theme)
	assert.True(t, saved.Clock24h)
}

func TestOverlays(t *testing.T) {
	m := newTestModel(t, newFakeSyncer(state.Snapshot{}), func(o *Options) {
		o.LogPath = filepath.Join(t.TempDir(), "missing.log")
	})

	m = press(t, m, "?")
	require.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Press any key to close")
	m = press(t, m, "x")
	assert.False(t, m.showHelp)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})
	m = updated.(Model)
	require.True(t, m.showLogs)
	require.NotNil(t, cmd)
	updated, _ = m.Update(cmd())
	m = updated.(Model)
	assert.True(t, strings.Contains(m.View(), "No log entries yet."))

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, updated.(Model).showLogs)
}
