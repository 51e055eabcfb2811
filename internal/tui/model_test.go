package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coinboard/internal/dashboard"
	"coinboard/internal/provider"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu     sync.Mutex
	assets []provider.Asset
	err    error
	calls  int
	block  chan struct{}
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Fetch(ctx context.Context) ([]provider.Asset, error) {
	f.mu.Lock()
	f.calls++
	assets, err, block := f.assets, f.err, f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return assets, err
}

func (f *fakeProvider) set(assets []provider.Asset, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets, f.err = assets, err
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var t0 = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

var sample = []provider.Asset{
	{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", PriceUSD: "67000.12", ChangePercent24Hr: "-2.345678"},
	{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", PriceUSD: "3162.97", ChangePercent24Hr: "1.07"},
	{ID: "tether", Symbol: "USDT", Name: "Tether", PriceUSD: "1.0003", ChangePercent24Hr: "0.01"},
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newModel(t *testing.T, p *fakeProvider) (*Model, *dashboard.State, *clock) {
	t.Helper()
	c := &clock{now: t0}
	s := dashboard.New(p)
	m := New(s, WithClock(c.Now), WithPollInterval(time.Millisecond), WithFetchTimeout(time.Second))
	return m, s, c
}

// drain runs cmd and every command batched inside it, returning the messages.
func drain(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(t, c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func fetched(msgs []tea.Msg) []fetchedMsg {
	var out []fetchedMsg
	for _, msg := range msgs {
		if f, ok := msg.(fetchedMsg); ok {
			out = append(out, f)
		}
	}
	return out
}

// load runs the first scheduled refresh to completion.
func load(t *testing.T, m *Model) {
	t.Helper()
	cmd := m.maybeRefresh(m.now())
	require.NotNil(t, cmd)
	for _, msg := range drain(t, cmd) {
		m.Update(msg)
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInit_SchedulesImmediateRefresh(t *testing.T) {
	t.Parallel()

	// Arrange
	p := &fakeProvider{assets: sample}
	m, _, _ := newModel(t, p)

	// Act
	cmd := m.Init()

	// Assert
	require.NotNil(t, cmd)
	require.True(t, m.scheduled)
	require.Equal(t, 1, m.inFlight)
	require.Equal(t, 0, p.callCount(), "the fetch runs as a command, not inside Init")
}

func TestUpdate_FetchedAppliesRows(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{assets: sample}
	m, s, _ := newModel(t, p)

	load(t, m)

	require.Equal(t, 1, p.callCount())
	require.Equal(t, 3, s.Len())
	require.Equal(t, t0, s.LastRefresh())
	require.False(t, m.scheduled)
	require.Equal(t, 0, m.inFlight)
}

func TestUpdate_QuitKeys(t *testing.T) {
	t.Parallel()

	for _, msg := range []tea.KeyMsg{keyRunes("q"), {Type: tea.KeyCtrlC}} {
		m, _, _ := newModel(t, &fakeProvider{})

		_, cmd := m.Update(msg)

		require.NotNil(t, cmd, msg.String())
		require.Equal(t, tea.QuitMsg{}, cmd(), msg.String())
	}
}

func TestUpdate_Navigation(t *testing.T) {
	t.Parallel()

	// Arrange
	m, s, _ := newModel(t, &fakeProvider{assets: sample})
	load(t, m)

	steps := []struct {
		key  tea.KeyMsg
		want int
	}{
		{tea.KeyMsg{Type: tea.KeyDown}, 0},
		{tea.KeyMsg{Type: tea.KeyDown}, 1},
		{tea.KeyMsg{Type: tea.KeyUp}, 0},
		{tea.KeyMsg{Type: tea.KeyUp}, 2},
		{tea.KeyMsg{Type: tea.KeyDown}, 0},
	}

	for _, step := range steps {
		// Act
		_, cmd := m.Update(step.key)

		// Assert
		require.Nil(t, cmd, "navigation never fetches before the threshold")
		got, ok := s.Selected()
		require.True(t, ok)
		require.Equal(t, step.want, got)
	}
}

func TestUpdate_OtherInputIgnored(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{assets: sample}
	m, s, _ := newModel(t, p)
	load(t, m)
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	before := s.Rows()

	for _, msg := range []tea.Msg{
		keyRunes("x"),
		tea.KeyMsg{Type: tea.KeyLeft},
		tea.KeyMsg{Type: tea.KeyEnter},
		tea.MouseMsg{X: 3, Y: 4, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
	} {
		_, cmd := m.Update(msg)
		require.Nil(t, cmd)
	}

	i, _ := s.Selected()
	require.Equal(t, 0, i)
	require.Equal(t, before, s.Rows())
	require.Equal(t, 1, p.callCount())
}

func TestUpdate_ReloadForcesFetch(t *testing.T) {
	t.Parallel()

	// Arrange
	p := &fakeProvider{assets: sample}
	m, s, c := newModel(t, p)
	load(t, m)
	p.set(sample[:1], nil)
	c.now = t0.Add(5 * time.Second)

	// Act
	_, cmd := m.Update(keyRunes("r"))
	msgs := fetched(drain(t, cmd))

	// Assert
	require.Len(t, msgs, 1)
	require.True(t, msgs[0].forced)
	m.Update(msgs[0])
	require.Equal(t, 2, p.callCount())
	require.Equal(t, 1, s.Len())
	require.Equal(t, c.now, s.LastRefresh())
}

func TestUpdate_FetchDoesNotBlockTheLoop(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{assets: sample, block: make(chan struct{})}
	m, _, _ := newModel(t, p)

	done := make(chan tea.Cmd, 1)
	go func() {
		_, cmd := m.Update(keyRunes("r"))
		done <- cmd
	}()

	var cmd tea.Cmd
	select {
	case cmd = <-done:
	case <-time.After(time.Second):
		t.Fatal("Update blocked on the provider")
	}
	require.NotNil(t, cmd)
	require.Equal(t, 0, p.callCount())

	close(p.block)
	require.NotEmpty(t, fetched(drain(t, cmd)))
}

func TestUpdate_TickRefreshesOnlyWhenDue(t *testing.T) {
	t.Parallel()

	// Arrange
	p := &fakeProvider{assets: sample}
	m, _, _ := newModel(t, p)
	load(t, m)

	// Act: below the threshold only the next tick is scheduled
	_, cmd := m.Update(tickMsg(t0.Add(30 * time.Second)))
	msgs := drain(t, cmd)

	// Assert
	require.Empty(t, fetched(msgs))
	require.Equal(t, 1, p.callCount())

	// Act: at the threshold a scheduled refresh starts
	_, cmd = m.Update(tickMsg(t0.Add(dashboard.RefreshThreshold)))

	// Assert
	require.True(t, m.scheduled)

	// Act: a second tick while that refresh is in flight adds nothing
	_, second := m.Update(tickMsg(t0.Add(dashboard.RefreshThreshold + time.Second)))

	// Assert
	require.Empty(t, fetched(drain(t, second)))
	require.Len(t, fetched(drain(t, cmd)), 1)
	require.Equal(t, 2, p.callCount())
}

func TestUpdate_FailedRefreshKeepsRows(t *testing.T) {
	t.Parallel()

	// Arrange
	p := &fakeProvider{assets: sample}
	m, s, c := newModel(t, p)
	load(t, m)
	before := s.Rows()
	p.set(nil, errors.New("upstream down"))
	c.now = t0.Add(dashboard.RefreshThreshold)

	// Act
	_, cmd := m.Update(tickMsg(c.now))
	for _, msg := range fetched(drain(t, cmd)) {
		m.Update(msg)
	}

	// Assert
	require.Equal(t, before, s.Rows())
	require.Equal(t, t0, s.LastRefresh())
	require.EqualError(t, s.LastError(), "upstream down")
	require.False(t, m.scheduled, "the next tick may retry")

	view := m.View()
	require.Contains(t, view, "BTC")
	require.Contains(t, view, "refresh failed: upstream down")
}

func TestUpdate_WindowSizeKeepsSelectionVisible(t *testing.T) {
	t.Parallel()

	many := make([]provider.Asset, 20)
	for i := range many {
		many[i] = provider.Asset{Symbol: string(rune('A' + i)), PriceUSD: "1", ChangePercent24Hr: "1"}
	}
	m, s, _ := newModel(t, &fakeProvider{assets: many})
	load(t, m)

	m.Update(tea.WindowSizeMsg{Width: 80, Height: chromeLines + 5})
	m.Update(tea.KeyMsg{Type: tea.KeyUp}) // 0
	m.Update(tea.KeyMsg{Type: tea.KeyUp}) // 19

	i, _ := s.Selected()
	require.Equal(t, 19, i)
	require.Equal(t, 15, m.offset)

	m.Update(tea.KeyMsg{Type: tea.KeyDown}) // wraps to 0
	require.Equal(t, 0, m.offset)
}
