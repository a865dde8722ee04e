package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/reviewdeck/internal/logtail"
	"github.com/five82/reviewdeck/internal/prefs"
	"github.com/five82/reviewdeck/internal/state"
)

const (
	defaultTick  = time.Second
	logTailLines = 200
)

// Syncer is the part of the sync controller the UI depends on.
type Syncer interface {
	State() state.Snapshot
	RefreshNow() bool
	Changes() <-chan struct{}
}

// Options configures the UI.
type Options struct {
	Syncer    Syncer
	Prefs     prefs.Prefs
	PrefsPath string
	LogPath   string
	Logger    *zap.Logger
	Tick      time.Duration
	Now       func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	syncer    Syncer
	prefs     prefs.Prefs
	prefsPath string
	logPath   string
	logger    *zap.Logger
	tick      time.Duration
	now       func() time.Time

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	theme   Theme

	width  int
	height int
	ready  bool

	snapshot state.Snapshot
	selected int
	offset   int

	showHelp bool
	showLogs bool
	logView  viewport.Model
	logErr   error
}

// New creates the root model.
func New(opts Options) Model {
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := opts.Prefs
	if p.Theme == "" {
		p = prefs.Defaults()
	}

	m := Model{
		syncer:    opts.Syncer,
		prefs:     p,
		prefsPath: opts.PrefsPath,
		logPath:   opts.LogPath,
		logger:    logger,
		tick:      tick,
		now:       now,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:     GetTheme(p.Theme),
		logView:   viewport.New(0, 0),
	}
	m.applyTheme()
	if m.syncer != nil {
		m.snapshot = m.syncer.State()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick), m.spinner.Tick}
	if m.syncer != nil {
		cmds = append(cmds, waitForChange(m.syncer.Changes()))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.logView.Width = max(msg.Width-4, 10)
		m.logView.Height = max(msg.Height-6, 3)
		m.clampSelection()
		return m, nil

	case tickMsg:
		m.refreshSnapshot()
		cmds := []tea.Cmd{tickCmd(m.tick)}
		if m.showLogs {
			cmds = append(cmds, loadLogsCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case changedMsg:
		if m.syncer == nil {
			return m, nil
		}
		m.refreshSnapshot()
		return m, waitForChange(m.syncer.Changes())

	case logLinesMsg:
		m.logErr = msg.err
		follow := m.logView.AtBottom() || m.logView.TotalLineCount() == 0
		m.logView.SetContent(joinLines(msg.lines))
		if follow {
			m.logView.GotoBottom()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showLogs {
		return m.renderLogs()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help.
		m.showHelp = false
		return m, nil
	}

	if m.showLogs {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Logs), key.Matches(msg, m.keys.Escape):
			m.showLogs = false
			return m, nil
		}
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()

	case key.Matches(msg, m.keys.Refresh):
		m.refresh()

	case key.Matches(msg, m.keys.Logs):
		m.showLogs = true
		m.logView.SetContent("")
		return m, loadLogsCmd(m.logPath)

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
		m.clampSelection()
	case key.Matches(msg, m.keys.Bottom):
		m.selected = len(m.snapshot.Reviews) - 1
		m.clampSelection()
	}
	return m, nil
}

// refresh asks for an immediate cycle. The key is inert while a cycle is
// already loading.
func (m *Model) refresh() {
	if m.syncer == nil || m.snapshot.Phase == state.PhaseLoading {
		return
	}
	if m.syncer.RefreshNow() {
		m.refreshSnapshot()
	}
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.prefs.Theme = m.theme.Name
	m.applyTheme()
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save preferences failed", zap.Error(err))
	}
}

func (m *Model) applyTheme() {
	styles := m.theme.Styles()
	m.help.Styles.ShortKey = styles.AccentText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.ShortSeparator = styles.FaintText
	m.help.Styles.FullKey = styles.AccentText
	m.help.Styles.FullDesc = styles.MutedText
	m.help.Styles.FullSeparator = styles.FaintText
	m.spinner.Style = styles.AccentText
}

func (m *Model) refreshSnapshot() {
	if m.syncer == nil {
		return
	}
	m.snapshot = m.syncer.State()
	m.clampSelection()
}

func (m *Model) moveSelection(delta int) {
	m.selected += delta
	m.clampSelection()
}

// clampSelection keeps the selected row inside the list and scrolls the
// visible window so it stays on screen.
func (m *Model) clampSelection() {
	n := len(m.snapshot.Reviews)
	if n == 0 {
		m.selected, m.offset = 0, 0
		return
	}
	m.selected = min(max(m.selected, 0), n-1)

	rows := m.listHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+rows {
		m.offset = m.selected - rows + 1
	}
	m.offset = min(max(m.offset, 0), max(n-rows, 0))
}

// Messages

type tickMsg time.Time

type changedMsg struct{}

type logLinesMsg struct {
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		for i, line := range lines {
			lines[i] = logtail.Format(line)
		}
		return logLinesMsg{lines: lines, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
