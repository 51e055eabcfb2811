package tui

import (
	"context"
	"log"
	"time"

	"coinboard/internal/dashboard"
	"coinboard/internal/provider"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultPollInterval = time.Second
	defaultFetchTimeout = 15 * time.Second
)

// Messages.
type tickMsg time.Time

type fetchedMsg struct {
	assets []provider.Asset
	err    error
	forced bool
}

// Model is the render/input/refresh loop. All state mutation happens in
// Update, on the program goroutine; fetches run as commands and report back
// with a fetchedMsg.
type Model struct {
	state   *dashboard.State
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	ctx          context.Context
	pollInterval time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	width, height int
	offset        int // first visible row

	scheduled bool // a scheduled refresh is in flight
	inFlight  int  // all refreshes in flight, forced ones included
}

type Option func(*Model)

// WithPollInterval sets how often the loop wakes up without input.
func WithPollInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.fetchTimeout = d
		}
	}
}

// WithContext parents every fetch on ctx.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

func New(state *dashboard.State, opts ...Option) *Model {
	m := &Model{
		state:        state,
		keys:         defaultKeys,
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(dimStyle)),
		ctx:          context.Background(),
		pollInterval: defaultPollInterval,
		fetchTimeout: defaultFetchTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.spinner.Tick, m.maybeRefresh(m.now()))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reload):
			cmds = append(cmds, m.refresh(true))
		case key.Matches(msg, m.keys.Down):
			m.state.SelectNext()
		case key.Matches(msg, m.keys.Up):
			m.state.SelectPrevious()
		}
		cmds = append(cmds, m.maybeRefresh(m.now()))

	case tickMsg:
		cmds = append(cmds, m.maybeRefresh(time.Time(msg)), m.tick())

	case fetchedMsg:
		m.inFlight--
		if !msg.forced {
			m.scheduled = false
		}
		if msg.err != nil {
			log.Printf("refresh failed: %v", msg.err)
		}
		m.state.Apply(msg.assets, msg.err, m.now())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	sel, ok := m.state.Selected()
	if !ok {
		sel = -1
	}
	m.offset = scrollWindow(m.offset, sel, m.state.Len(), m.tableRows())

	return m, tea.Batch(cmds...)
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// maybeRefresh starts a scheduled refresh when the state is due and none is
// already running.
func (m *Model) maybeRefresh(now time.Time) tea.Cmd {
	if m.scheduled || !m.state.Due(now) {
		return nil
	}
	m.scheduled = true
	return m.refresh(false)
}

func (m *Model) refresh(forced bool) tea.Cmd {
	m.inFlight++
	state, parent, timeout := m.state, m.ctx, m.fetchTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		assets, err := state.Fetch(ctx)
		return fetchedMsg{assets: assets, err: err, forced: forced}
	}
}
